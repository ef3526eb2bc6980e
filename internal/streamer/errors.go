package streamer

import "errors"

// Sentinel errors returned by the hub's control surface. Handlers map
// these onto HTTP statuses; everything else is a server error.
var (
	// ErrNotFound covers unknown connections, unknown projects, and
	// unsubscribing from a project the connection never subscribed to.
	ErrNotFound = errors.New("not found")

	// ErrBadRequest means the connection exists but has not completed
	// the initialize handshake yet.
	ErrBadRequest = errors.New("stream not initialized")

	// ErrForbidden covers identity mismatches and non-member
	// subscription attempts.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation means the credential presented over the stream
	// channel was rejected.
	ErrValidation = errors.New("invalid credential")
)
