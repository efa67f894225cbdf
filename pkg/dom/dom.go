// Package dom defines the host page boundary the tracker observes: elements with
// attributes, a document that delivers click and visibility events, and the
// page location used to enrich events.
//
// Any runtime able to surface those primitives can host a tracker: a
// WebAssembly bridge, a headless browser driver, or the goquery-backed page in
// internal/htmldom.
package dom

import (
	"net/url"
	"time"
)

// Event types the tracker subscribes to.
const (
	EventClick            = "click"
	EventVisibilityChange = "visibilitychange"
)

// Visibility is the document visibility state.
type Visibility string

// Visibility states.
const (
	VisibilityVisible Visibility = "visible"
	VisibilityHidden  Visibility = "hidden"
)

// Attribute is a single element attribute.
type Attribute struct {
	Name  string
	Value string
}

// Element is a node in the host page that carries attributes.
type Element interface {
	// Attr returns the attribute value and whether it is present.
	Attr(name string) (string, bool)
	// Attrs returns all attributes in document order.
	Attrs() []Attribute
	// Parent returns the parent element, or nil at the root.
	Parent() Element
}

// Event is delivered to a Handler. Target is nil for document-level events.
type Event struct {
	Type   string
	Target Element
}

// Handler receives dispatched events.
type Handler func(Event)

// ListenerOptions controls how a handler is registered.
type ListenerOptions struct {
	// Capture registers the handler for the capture phase, so it observes the
	// event before any bubbling handler.
	Capture bool
}

// Unsubscribe removes a previously registered handler. Calling it more than
// once has no effect.
type Unsubscribe func()

// Document is the page-wide event source and context provider.
type Document interface {
	// Subscribe registers h for eventType and returns its deregistration.
	Subscribe(eventType string, h Handler, opts ListenerOptions) Unsubscribe
	// VisibilityState reports the current visibility.
	VisibilityState() Visibility
	// Location returns the current page URL.
	Location() *url.URL
	// TimeOrigin is the monotonic instant the page started loading.
	TimeOrigin() time.Time
}
