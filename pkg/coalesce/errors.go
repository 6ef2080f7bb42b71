package coalesce

import "errors"

var (
	// ErrTooManySessions is returned by Join when the registry is at its
	// configured capacity and the key has no live session to attach to.
	ErrTooManySessions = errors.New("coalesce: session registry at capacity")

	// ErrNilTransport is returned by Join when the subscriber transport is nil.
	ErrNilTransport = errors.New("coalesce: nil subscriber transport")

	// errSessionClosed reports an attach attempt against a session that has
	// already reached teardown; Join retries with a fresh session.
	errSessionClosed = errors.New("coalesce: session closed")
)
