package tracker

import (
	"maps"
	"time"
)

// Built-in event names.
const (
	EventPageView    = "page_view"
	EventPageHidden  = "page_hidden"
	EventPageVisible = "page_visible"
)

// Property keys added by the tracker. Caller data under these keys is overwritten.
const (
	PropURL        = "url"
	PropPath       = "path"
	PropTimestamp  = "timestamp"
	PropDurationMS = "duration_ms"
)

// TimestampLayout is ISO 8601 in UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Event is the wire record sent for every tracked interaction.
type Event struct {
	Event      string         `json:"event"`
	Properties map[string]any `json:"properties"`
	AccessKey  string         `json:"accessKey"`
}

// buildEvent merges payload with the page context captured at send time.
func (t *Tracker) buildEvent(name string, payload map[string]any) Event {
	props := make(map[string]any, len(payload)+3)
	maps.Copy(props, payload)

	pageURL, path := "", "/"
	if loc := t.doc.Location(); loc != nil {
		pageURL = loc.String()
		if p := loc.EscapedPath(); p != "" {
			path = p
		}
	}

	props[PropURL] = pageURL
	props[PropPath] = path
	props[PropTimestamp] = formatTimestamp(t.now())

	return Event{
		Event:      name,
		Properties: props,
		AccessKey:  t.cfg.AccessKey,
	}
}

func formatTimestamp(ts time.Time) string {
	return ts.UTC().Format(TimestampLayout)
}
