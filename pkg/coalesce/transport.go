package coalesce

// Close codes passed to SubscriberTransport.Close. They follow the
// WebSocket close-code registry so adapters can forward them unchanged.
const (
	CloseNormal        = 1000
	CloseInternalError = 1011
)

// SubscriberTransport is the per-subscriber connection the broker writes
// to. It is a capability interface owned by the caller; the broker never
// reads from it and never stores anything on it.
//
// Implementations must be safe for concurrent use. Byte slices passed to
// SendText and SendBinary are only valid for the duration of the call and
// must not be retained.
type SubscriberTransport interface {
	// SendText delivers one discrete text frame.
	SendText(data []byte) error

	// SendBinary delivers one discrete binary frame.
	SendBinary(data []byte) error

	// Close closes the transport with the given close code and reason.
	// Close is idempotent.
	Close(code int, reason string) error

	// OnDisconnect registers fn to run once when the remote end goes away.
	// If the transport is already disconnected, fn runs immediately.
	OnDisconnect(fn func())
}
