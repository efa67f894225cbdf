// Package metrics exposes Prometheus counters for tracker delivery outcomes.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jonesrussell/north-cloud/usage-tracker/pkg/tracker"
	"github.com/jonesrussell/north-cloud/usage-tracker/pkg/transport"
)

const (
	// Namespace is the namespace for all tracker metrics.
	Namespace = "usage_tracker"
	// Subsystem is the subsystem for delivery metrics.
	Subsystem = "events"
)

// Failure reasons used as the "reason" label.
const (
	ReasonRefused = "beacon_refused"
	ReasonStatus  = "status"
	ReasonNetwork = "network"
)

// EventCustom is the "event" label for every name the tracker does not emit
// itself. Click and Track names come from page markup and callers, so they are
// never used as label values.
const EventCustom = "custom"

// Metrics holds the tracker's Prometheus collectors. It implements tracker.Recorder.
type Metrics struct {
	EventsSent     *prometheus.CounterVec
	SendFailures   *prometheus.CounterVec
	EventsRejected *prometheus.CounterVec
}

// New creates and registers the collectors on reg, or on the default
// registerer when reg is nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		EventsSent: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: Subsystem,
				Name:      "sent_total",
				Help:      "Events handed off successfully, by event kind (built-in name or custom) and transport",
			},
			[]string{"event", "transport"},
		),
		SendFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: Subsystem,
				Name:      "send_failures_total",
				Help:      "Events the transport failed to deliver, by transport and reason",
			},
			[]string{"transport", "reason"},
		),
		EventsRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: Subsystem,
				Name:      "rejected_total",
				Help:      "Events dropped before transmission, by reason",
			},
			[]string{"reason"},
		),
	}
}

// EventSent records a successful hand-off.
func (m *Metrics) EventSent(event, transportName string) {
	m.EventsSent.WithLabelValues(eventKind(event), transportName).Inc()
}

func eventKind(event string) string {
	switch event {
	case tracker.EventPageView, tracker.EventPageHidden, tracker.EventPageVisible:
		return event
	default:
		return EventCustom
	}
}

// SendFailed records a failed delivery.
func (m *Metrics) SendFailed(transportName string, err error) {
	m.SendFailures.WithLabelValues(transportName, failureReason(err)).Inc()
}

// EventRejected records an event dropped before sending.
func (m *Metrics) EventRejected(reason string) {
	m.EventsRejected.WithLabelValues(reason).Inc()
}

func failureReason(err error) string {
	var statusErr *transport.StatusError
	switch {
	case errors.Is(err, transport.ErrBeaconRefused):
		return ReasonRefused
	case errors.As(err, &statusErr):
		return ReasonStatus
	default:
		return ReasonNetwork
	}
}
