// Package tracker observes a host page and reports usage events to a
// collection endpoint.
//
// A Tracker listens for clicks on elements carrying a marker attribute and for
// visibility changes, and accepts manual events through Track. Every event is
// enriched with the page URL, path and an ISO 8601 timestamp and handed to a
// transport in its own goroutine. Delivery is fire-and-forget: no public method
// returns an error, blocks on the network, or retries.
package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonesrussell/north-cloud/usage-tracker/pkg/dom"
	"github.com/jonesrussell/north-cloud/usage-tracker/pkg/logger"
	"github.com/jonesrussell/north-cloud/usage-tracker/pkg/transport"
)

// Tracker is safe for concurrent use.
type Tracker struct {
	cfg       Config
	cfgErr    error
	doc       dom.Document
	transport transport.Transport
	recorder  Recorder
	log       logger.Logger
	now       func() time.Time
	ctx       context.Context

	mu            sync.Mutex
	tracking      bool
	unsubscribers []dom.Unsubscribe

	// inflight counts sends not yet finished. Unlike a WaitGroup it may grow
	// while Wait is blocked, so sends and Wait can run on any goroutine.
	flightMu sync.Mutex
	idle     *sync.Cond
	inflight int
}

// New creates a tracker observing doc. It never fails: when cfg has no access
// key or doc is nil the error is logged and the returned tracker ignores
// every call.
func New(cfg Config, doc dom.Document, opts ...Option) *Tracker {
	t := &Tracker{
		cfg: cfg.withDefaults(),
		doc: doc,
		log: logger.NewNop(),
		now: time.Now,
		ctx: context.Background(),
	}
	t.idle = sync.NewCond(&t.flightMu)
	for _, opt := range opts {
		opt(t)
	}

	switch {
	case t.cfg.AccessKey == "":
		t.cfgErr = ErrMissingAccessKey
	case doc == nil:
		t.cfgErr = ErrMissingDocument
	}
	if t.cfgErr != nil {
		t.log.Error("Tracker configuration invalid, tracking disabled", logger.Error(t.cfgErr))
		return t
	}

	if t.transport == nil {
		t.transport = transport.Select(doc, nil)
	}
	t.log = t.log.With(logger.String("transport", t.transport.Name()))

	return t
}

// Valid reports whether construction succeeded. An invalid tracker is inert.
func (t *Tracker) Valid() bool {
	return t.cfgErr == nil
}

// IsTracking reports whether listeners are currently registered.
func (t *Tracker) IsTracking() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tracking
}

// Start subscribes to clicks (capture phase) and visibility changes and sends
// a page_view event. Calling Start while tracking logs a warning and does nothing.
func (t *Tracker) Start() {
	if !t.Valid() {
		t.log.Error("Tracker not started", logger.Error(t.cfgErr))
		return
	}

	t.mu.Lock()
	if t.tracking {
		t.mu.Unlock()
		t.log.Warn("Tracker is already running")
		return
	}

	t.unsubscribers = append(t.unsubscribers,
		t.doc.Subscribe(dom.EventClick, t.HandleGlobalClick, dom.ListenerOptions{Capture: true}),
	)
	if !t.cfg.DisableVisibility {
		t.unsubscribers = append(t.unsubscribers,
			t.doc.Subscribe(dom.EventVisibilityChange, t.HandleVisibilityChange, dom.ListenerOptions{}),
		)
	}
	t.tracking = true
	t.mu.Unlock()

	t.log.Info("Analytics tracking started", logger.String("endpoint", t.cfg.APIEndpoint))

	if !t.cfg.DisablePageView {
		t.send(EventPageView, nil)
	}
}

// Stop removes the listeners registered by Start. It is a no-op when idle.
func (t *Tracker) Stop() {
	t.mu.Lock()
	if !t.tracking {
		t.mu.Unlock()
		return
	}
	for _, unsubscribe := range t.unsubscribers {
		if unsubscribe != nil {
			unsubscribe()
		}
	}
	t.unsubscribers = nil
	t.tracking = false
	t.mu.Unlock()

	t.log.Info("Analytics tracking stopped")
}

// Track sends a manual event. An empty name is logged and ignored.
func (t *Tracker) Track(eventName string, data map[string]any) {
	if !t.Valid() {
		t.log.Error("Event not tracked", logger.Error(t.cfgErr), logger.String("event", eventName))
		return
	}
	if eventName == "" {
		t.log.Error("Event not tracked", logger.Error(ErrMissingEventName))
		t.record(func(r Recorder) { r.EventRejected("missing_event_name") })
		return
	}
	t.send(eventName, data)
}

// HandleGlobalClick handles a click anywhere in the document. Clicks whose
// target has no marked inclusive ancestor are ignored.
func (t *Tracker) HandleGlobalClick(ev dom.Event) {
	if !t.Valid() || ev.Target == nil {
		return
	}

	el := dom.Closest(ev.Target, t.cfg.MarkerAttributes...)
	if el == nil {
		return
	}

	name, payload := t.clickPayload(el)
	t.log.Debug("Element clicked with tracking data",
		logger.String("event", name),
		logger.Any("data", payload),
	)
	t.send(name, payload)
}

// clickPayload resolves the event name from the element's dataset and returns
// the remaining data attributes with naming and marker keys removed.
func (t *Tracker) clickPayload(el dom.Element) (string, map[string]any) {
	data := dom.Dataset(el)

	name := ""
	for _, key := range t.cfg.NameKeys {
		if v := data[key]; v != "" && name == "" {
			name = v
		}
		delete(data, key)
	}
	for _, attr := range t.cfg.MarkerAttributes {
		delete(data, dom.DatasetKey(attr))
	}
	if name == "" {
		name = t.cfg.DefaultEventName
	}

	payload := make(map[string]any, len(data))
	for k, v := range data {
		payload[k] = v
	}
	return name, payload
}

// HandleVisibilityChange sends page_hidden with the time spent on the page, or
// page_visible when the page returns to the foreground.
func (t *Tracker) HandleVisibilityChange(dom.Event) {
	if !t.Valid() {
		return
	}

	switch t.doc.VisibilityState() {
	case dom.VisibilityHidden:
		t.send(EventPageHidden, map[string]any{PropDurationMS: t.elapsedMillis()})
	case dom.VisibilityVisible:
		t.send(EventPageVisible, nil)
	}
}

// elapsedMillis is the whole milliseconds since the document time origin,
// never negative.
func (t *Tracker) elapsedMillis() int64 {
	d := t.now().Sub(t.doc.TimeOrigin())
	if d < 0 {
		return 0
	}
	return d.Round(time.Millisecond).Milliseconds()
}

// Wait blocks until no send is in flight, including sends started by other
// goroutines while it waits. Hosts call it before exiting; sends are otherwise
// never awaited.
func (t *Tracker) Wait() {
	t.flightMu.Lock()
	defer t.flightMu.Unlock()
	for t.inflight > 0 {
		t.idle.Wait()
	}
}

func (t *Tracker) beginSend() {
	t.flightMu.Lock()
	t.inflight++
	t.flightMu.Unlock()
}

func (t *Tracker) endSend() {
	t.flightMu.Lock()
	t.inflight--
	if t.inflight == 0 {
		t.idle.Broadcast()
	}
	t.flightMu.Unlock()
}

// send encodes the event and delivers it in the background.
func (t *Tracker) send(name string, payload map[string]any) {
	ev := t.buildEvent(name, payload)

	body, err := json.Marshal(ev)
	if err != nil {
		t.log.Error("Event not encodable", logger.Error(err), logger.String("event", name))
		t.record(func(r Recorder) { r.EventRejected("encode") })
		return
	}

	t.log.Debug("Tracking event",
		logger.String("event", name),
		logger.Any("properties", ev.Properties),
	)

	req := transport.Request{
		Endpoint:  t.cfg.APIEndpoint,
		AccessKey: t.cfg.AccessKey,
		Body:      body,
	}

	t.beginSend()
	go t.deliver(name, req)
}

func (t *Tracker) deliver(name string, req transport.Request) {
	defer t.endSend()
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("transport panic: %v", r)
			t.log.Error("Tracker API error", logger.Error(err), logger.String("event", name))
			t.record(func(rec Recorder) { rec.SendFailed(t.transport.Name(), err) })
		}
	}()

	err := t.transport.Send(t.ctx, req)
	switch {
	case err == nil:
		t.record(func(r Recorder) { r.EventSent(name, t.transport.Name()) })
	case errors.Is(err, transport.ErrBeaconRefused):
		t.log.Debug("Beacon refused", logger.String("event", name))
		t.record(func(r Recorder) { r.SendFailed(t.transport.Name(), err) })
	default:
		t.log.Error("Tracker API error", logger.Error(err), logger.String("event", name))
		t.record(func(r Recorder) { r.SendFailed(t.transport.Name(), err) })
	}
}

func (t *Tracker) record(fn func(Recorder)) {
	if t.recorder != nil {
		fn(t.recorder)
	}
}
