package tracker

import (
	"slices"
	"strings"
)

// Defaults applied by New when the corresponding Config field is empty.
const (
	DefaultAPIEndpoint = "https://api.your-service.com/events"
	DefaultEventName   = "click"
)

// DefaultMarkerAttributes returns the attributes that opt an element into
// click tracking.
func DefaultMarkerAttributes() []string {
	return []string{"data-track-event"}
}

// DefaultNameKeys returns the dataset keys read for the event name, highest
// priority first: data-track-event, data-track, data-goal.
func DefaultNameKeys() []string {
	return []string{"trackEvent", "track", "goal"}
}

// Config configures a Tracker. It is copied by New and never mutated afterwards.
type Config struct {
	// AccessKey identifies the site to the collector. Required.
	AccessKey string
	// APIEndpoint receives every event. Defaults to DefaultAPIEndpoint.
	APIEndpoint string
	// DefaultEventName names clicks on marked elements without a name attribute.
	DefaultEventName string
	// MarkerAttributes opt an element (or its descendants) into click tracking.
	MarkerAttributes []string
	// NameKeys are dataset keys consulted in order for the click event name.
	NameKeys []string
	// DisablePageView suppresses the page_view event sent by Start.
	DisablePageView bool
	// DisableVisibility skips the visibilitychange subscription.
	DisableVisibility bool
}

// withDefaults returns a normalized copy of c.
func (c Config) withDefaults() Config {
	c.AccessKey = strings.TrimSpace(c.AccessKey)
	c.APIEndpoint = strings.TrimSpace(c.APIEndpoint)
	if c.APIEndpoint == "" {
		c.APIEndpoint = DefaultAPIEndpoint
	}
	if c.DefaultEventName == "" {
		c.DefaultEventName = DefaultEventName
	}
	if len(c.MarkerAttributes) == 0 {
		c.MarkerAttributes = DefaultMarkerAttributes()
	} else {
		c.MarkerAttributes = slices.Clone(c.MarkerAttributes)
	}
	if len(c.NameKeys) == 0 {
		c.NameKeys = DefaultNameKeys()
	} else {
		c.NameKeys = slices.Clone(c.NameKeys)
	}
	return c
}
