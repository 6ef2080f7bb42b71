package httpserver

import "errors"

var (
	// ErrServer indicates the server failed while starting or serving.
	ErrServer = errors.New("httpserver: server error")
	// ErrShutdown indicates graceful shutdown did not finish in time.
	ErrShutdown = errors.New("httpserver: failed to shutdown gracefully")
)
