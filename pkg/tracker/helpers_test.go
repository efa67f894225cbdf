package tracker_test

import (
	"context"
	"encoding/json"
	"net/url"
	"slices"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jonesrussell/north-cloud/usage-tracker/pkg/dom"
	"github.com/jonesrussell/north-cloud/usage-tracker/pkg/logger"
	"github.com/jonesrussell/north-cloud/usage-tracker/pkg/tracker"
	"github.com/jonesrussell/north-cloud/usage-tracker/pkg/transport"
)

const (
	testAccessKey = "key_live_123"
	testPageURL   = "https://shop.example.com/pricing?ref=nav"
)

// fakeElement is a minimal attribute-bearing node.
type fakeElement struct {
	attrs  []dom.Attribute
	parent *fakeElement
}

func newElement(parent *fakeElement, attrs ...string) *fakeElement {
	el := &fakeElement{parent: parent}
	for i := 0; i+1 < len(attrs); i += 2 {
		el.attrs = append(el.attrs, dom.Attribute{Name: attrs[i], Value: attrs[i+1]})
	}
	return el
}

func (e *fakeElement) Attr(name string) (string, bool) {
	for _, a := range e.attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

func (e *fakeElement) Attrs() []dom.Attribute { return e.attrs }

func (e *fakeElement) Parent() dom.Element {
	if e.parent == nil {
		return nil
	}
	return e.parent
}

type listener struct {
	handler dom.Handler
	opts    dom.ListenerOptions
}

// fakeDocument records subscriptions and dispatches synchronously.
type fakeDocument struct {
	mu         sync.Mutex
	listeners  map[string][]*listener
	subscribes int
	visibility dom.Visibility
	location   *url.URL
	origin     time.Time
}

func newDocument(t *testing.T) *fakeDocument {
	t.Helper()

	loc, err := url.Parse(testPageURL)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	return &fakeDocument{
		listeners:  make(map[string][]*listener),
		visibility: dom.VisibilityVisible,
		location:   loc,
		origin:     time.Now(),
	}
}

func (d *fakeDocument) Subscribe(eventType string, h dom.Handler, opts dom.ListenerOptions) dom.Unsubscribe {
	d.mu.Lock()
	defer d.mu.Unlock()

	l := &listener{handler: h, opts: opts}
	d.listeners[eventType] = append(d.listeners[eventType], l)
	d.subscribes++

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.listeners[eventType] = slices.DeleteFunc(d.listeners[eventType], func(x *listener) bool {
			return x == l
		})
	}
}

func (d *fakeDocument) VisibilityState() dom.Visibility {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.visibility
}

func (d *fakeDocument) Location() *url.URL { return d.location }

func (d *fakeDocument) TimeOrigin() time.Time { return d.origin }

func (d *fakeDocument) count(eventType string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.listeners[eventType])
}

func (d *fakeDocument) captureFlags(eventType string) []bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []bool
	for _, l := range d.listeners[eventType] {
		out = append(out, l.opts.Capture)
	}
	return out
}

func (d *fakeDocument) dispatch(ev dom.Event) {
	d.mu.Lock()
	ls := slices.Clone(d.listeners[ev.Type])
	d.mu.Unlock()
	for _, l := range ls {
		l.handler(ev)
	}
}

func (d *fakeDocument) click(target dom.Element) {
	d.dispatch(dom.Event{Type: dom.EventClick, Target: target})
}

func (d *fakeDocument) setVisibility(v dom.Visibility) {
	d.mu.Lock()
	d.visibility = v
	d.mu.Unlock()
	d.dispatch(dom.Event{Type: dom.EventVisibilityChange})
}

// beaconDocument is a host that offers a native beacon.
type beaconDocument struct {
	*fakeDocument
	mu      sync.Mutex
	beacons [][]byte
}

func (b *beaconDocument) SendBeacon(_, _ string, body []byte) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.beacons = append(b.beacons, body)
	return true
}

// mockTransport records every request.
type mockTransport struct {
	mu   sync.Mutex
	reqs []transport.Request
	err  error
}

func (m *mockTransport) Send(_ context.Context, req transport.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reqs = append(m.reqs, req)
	return m.err
}

func (m *mockTransport) Name() string { return "mock" }

func (m *mockTransport) requests() []transport.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.reqs)
}

func (m *mockTransport) events(t *testing.T) []tracker.Event {
	t.Helper()

	var out []tracker.Event
	for _, req := range m.requests() {
		var ev tracker.Event
		if err := json.Unmarshal(req.Body, &ev); err != nil {
			t.Fatalf("decode event body %q: %v", req.Body, err)
		}
		out = append(out, ev)
	}
	return out
}

func (m *mockTransport) named(t *testing.T, name string) []tracker.Event {
	t.Helper()

	var out []tracker.Event
	for _, ev := range m.events(t) {
		if ev.Event == name {
			out = append(out, ev)
		}
	}
	return out
}

// recorder counts delivery outcomes.
type recorder struct {
	mu       sync.Mutex
	sent     int
	failed   int
	rejected []string
}

func (r *recorder) EventSent(string, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent++
}

func (r *recorder) SendFailed(string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed++
}

func (r *recorder) EventRejected(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejected = append(r.rejected, reason)
}

func observedLogger(t *testing.T) (logger.Logger, *observer.ObservedLogs) {
	t.Helper()

	core, logs := observer.New(zapcore.DebugLevel)
	return logger.NewFromZap(zap.New(core)), logs
}
