// Package htmldom is a headless host page for the tracker. It parses HTML with
// goquery and dispatches click and visibility events to subscribed handlers,
// capture-phase listeners first.
package htmldom

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"slices"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/north-cloud/usage-tracker/pkg/dom"
	"github.com/jonesrussell/north-cloud/usage-tracker/pkg/transport"
)

// blankLocation is used when a page is loaded without a URL.
const blankLocation = "about:blank"

// ErrNoMatch is returned when a selector matches no element.
var ErrNoMatch = errors.New("selector matched no element")

type listener struct {
	handler dom.Handler
	capture bool
}

// Option configures a Page.
type Option func(*Page)

// WithTimeOrigin overrides the instant the page is considered loaded.
func WithTimeOrigin(origin time.Time) Option {
	return func(p *Page) {
		p.origin = origin
	}
}

// WithVisibility sets the initial visibility state.
func WithVisibility(v dom.Visibility) Option {
	return func(p *Page) {
		p.visibility = v
	}
}

// Page implements dom.Document over a parsed HTML document.
type Page struct {
	doc      *goquery.Document
	location *url.URL
	origin   time.Time

	mu         sync.Mutex
	visibility dom.Visibility
	listeners  map[string][]*listener
}

// Load parses an HTML document served at location.
func Load(r io.Reader, location string, opts ...Option) (*Page, error) {
	if location == "" {
		location = blankLocation
	}
	loc, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("parse page location: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}

	p := &Page{
		doc:        doc,
		location:   loc,
		origin:     time.Now(),
		visibility: dom.VisibilityVisible,
		listeners:  make(map[string][]*listener),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Subscribe implements dom.Document.
func (p *Page) Subscribe(eventType string, h dom.Handler, opts dom.ListenerOptions) dom.Unsubscribe {
	l := &listener{handler: h, capture: opts.Capture}

	p.mu.Lock()
	p.listeners[eventType] = append(p.listeners[eventType], l)
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			p.listeners[eventType] = slices.DeleteFunc(p.listeners[eventType], func(x *listener) bool {
				return x == l
			})
		})
	}
}

// Listeners returns the number of handlers registered for eventType.
func (p *Page) Listeners(eventType string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.listeners[eventType])
}

// VisibilityState implements dom.Document.
func (p *Page) VisibilityState() dom.Visibility {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.visibility
}

// Location implements dom.Document. The returned URL is a copy.
func (p *Page) Location() *url.URL {
	loc := *p.location
	return &loc
}

// TimeOrigin implements dom.Document.
func (p *Page) TimeOrigin() time.Time {
	return p.origin
}

// Title returns the document title.
func (p *Page) Title() string {
	return p.doc.Find("title").First().Text()
}

// Find returns the first element matching selector.
func (p *Page) Find(selector string) (dom.Element, error) {
	sel := p.doc.Find(selector).First()
	if sel.Length() == 0 {
		return nil, fmt.Errorf("%q: %w", selector, ErrNoMatch)
	}
	return &element{sel: sel}, nil
}

// Click dispatches a click on the first element matching selector.
func (p *Page) Click(selector string) error {
	el, err := p.Find(selector)
	if err != nil {
		return err
	}
	p.Dispatch(dom.Event{Type: dom.EventClick, Target: el})
	return nil
}

// SetVisibility changes the visibility state and dispatches visibilitychange
// when it actually changed.
func (p *Page) SetVisibility(v dom.Visibility) {
	p.mu.Lock()
	changed := p.visibility != v
	p.visibility = v
	p.mu.Unlock()

	if changed {
		p.Dispatch(dom.Event{Type: dom.EventVisibilityChange})
	}
}

// Dispatch delivers ev to capture listeners, then to the remaining listeners,
// each group in registration order. Handlers run on the calling goroutine.
func (p *Page) Dispatch(ev dom.Event) {
	p.mu.Lock()
	registered := slices.Clone(p.listeners[ev.Type])
	p.mu.Unlock()

	for _, l := range registered {
		if l.capture {
			l.handler(ev)
		}
	}
	for _, l := range registered {
		if !l.capture {
			l.handler(ev)
		}
	}
}

// WithBeacon returns a view of the page that also offers b as its native
// beacon primitive, so transport.Select picks the beacon transport.
func (p *Page) WithBeacon(b transport.Beaconer) *BeaconPage {
	return &BeaconPage{Page: p, beaconer: b}
}

// BeaconPage is a Page whose host supports beacons.
type BeaconPage struct {
	*Page
	beaconer transport.Beaconer
}

// SendBeacon implements transport.Beaconer.
func (p *BeaconPage) SendBeacon(url, contentType string, body []byte) bool {
	return p.beaconer.SendBeacon(url, contentType, body)
}
