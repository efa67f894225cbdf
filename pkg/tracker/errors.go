package tracker

import "errors"

var (
	// ErrMissingAccessKey is logged when a tracker is constructed without an
	// access key. The tracker stays inert for its whole lifetime.
	ErrMissingAccessKey = errors.New("tracker: an access key is required")
	// ErrMissingDocument is logged when a tracker is constructed without a host
	// document to observe.
	ErrMissingDocument = errors.New("tracker: a host document is required")
	// ErrMissingEventName is logged when Track is called with an empty name.
	ErrMissingEventName = errors.New("tracker: an event name is required for manual tracking")
)
