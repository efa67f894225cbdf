// Package transport delivers encoded tracker events to the collection endpoint.
//
// Two delivery primitives exist: a beacon (fire-and-forget, no headers, no
// feedback) and an HTTP POST carrying the access key as a bearer token. Select
// picks one deterministically from the host's capabilities.
package transport

import (
	"context"
	"errors"
)

// ContentTypeJSON is the media type of every event body.
const ContentTypeJSON = "application/json"

var (
	// ErrBeaconRefused is returned when the host did not queue a beacon.
	ErrBeaconRefused = errors.New("beacon refused by host")
	// ErrEmptyEndpoint is returned when a request has no endpoint.
	ErrEmptyEndpoint = errors.New("endpoint is empty")
)

// Request is one encoded event addressed to a collection endpoint.
type Request struct {
	Endpoint  string
	AccessKey string
	Body      []byte
}

// Transport sends a single request. Implementations must be safe for
// concurrent use; the tracker calls Send from one goroutine per event.
type Transport interface {
	Send(ctx context.Context, req Request) error
	// Name identifies the transport in logs and metrics.
	Name() string
}

// Beaconer is implemented by hosts that offer a fire-and-forget send primitive
// which survives page teardown. SendBeacon reports whether the data was queued.
type Beaconer interface {
	SendBeacon(url, contentType string, body []byte) bool
}

// Select returns a beacon transport when host implements Beaconer and the
// given HTTP transport otherwise. The choice depends only on host's type.
func Select(host any, fallback *HTTPTransport) Transport {
	if b, ok := host.(Beaconer); ok && b != nil {
		return NewBeaconTransport(b)
	}
	if fallback == nil {
		fallback = NewHTTPTransport(nil)
	}
	return fallback
}
