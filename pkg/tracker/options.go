package tracker

import (
	"context"
	"time"

	"github.com/jonesrussell/north-cloud/usage-tracker/pkg/logger"
	"github.com/jonesrussell/north-cloud/usage-tracker/pkg/transport"
)

// Recorder receives delivery outcomes. internal/metrics provides a Prometheus
// implementation; a nil Recorder records nothing.
type Recorder interface {
	EventSent(event, transport string)
	SendFailed(transport string, err error)
	EventRejected(reason string)
}

// Option customizes a Tracker.
type Option func(*Tracker)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(log logger.Logger) Option {
	return func(t *Tracker) {
		if log != nil {
			t.log = log
		}
	}
}

// WithTransport overrides transport selection.
func WithTransport(tr transport.Transport) Option {
	return func(t *Tracker) {
		if tr != nil {
			t.transport = tr
		}
	}
}

// WithRecorder attaches a delivery outcome recorder.
func WithRecorder(r Recorder) Option {
	return func(t *Tracker) {
		t.recorder = r
	}
}

// WithClock replaces the wall clock used for timestamps and durations.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// WithContext sets the context handed to the transport. Its values are kept;
// cancellation does not abort sends that are already in flight.
func WithContext(ctx context.Context) Option {
	return func(t *Tracker) {
		if ctx != nil {
			t.ctx = ctx
		}
	}
}
