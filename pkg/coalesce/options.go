package coalesce

import "log/slog"

// defaultChunkSize is the read buffer size for the body streaming loop.
// Chunks are forwarded as read, so this only bounds the frame size, not
// memory per session.
const defaultChunkSize = 32 * 1024

// Option configures a Broker.
type Option func(*options)

type options struct {
	logger      *slog.Logger
	maxSessions int
	chunkSize   int
}

func defaultOptions() *options {
	return &options{
		logger:    slog.New(slog.DiscardHandler),
		chunkSize: defaultChunkSize,
	}
}

// WithLogger sets the broker's logger. Nil loggers are ignored.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.logger = log
		}
	}
}

// WithMaxSessions bounds the number of concurrent sessions; Join fails
// with ErrTooManySessions beyond it. Zero or negative means unbounded.
func WithMaxSessions(n int) Option {
	return func(o *options) { o.maxSessions = n }
}

// WithChunkSize sets the body read buffer size. Values below 1 are ignored.
func WithChunkSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.chunkSize = n
		}
	}
}
