package transport

import "context"

// BeaconTransport hands events to the host's beacon primitive.
type BeaconTransport struct {
	beaconer Beaconer
}

// NewBeaconTransport wraps a host beacon primitive.
func NewBeaconTransport(b Beaconer) *BeaconTransport {
	return &BeaconTransport{beaconer: b}
}

// Name implements Transport.
func (t *BeaconTransport) Name() string { return "beacon" }

// Send queues the body with the host. The access key travels in the body only;
// beacons carry no headers. A refusal is reported as ErrBeaconRefused so it can
// be counted, but there is no delivery feedback beyond that.
func (t *BeaconTransport) Send(_ context.Context, req Request) error {
	if req.Endpoint == "" {
		return ErrEmptyEndpoint
	}
	if !t.beaconer.SendBeacon(req.Endpoint, ContentTypeJSON, req.Body) {
		return ErrBeaconRefused
	}
	return nil
}
