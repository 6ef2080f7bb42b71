// Package httpserver wraps net/http with environment-driven configuration,
// graceful shutdown on context cancellation or interrupt/TERM, and a
// liveness probe handler.
package httpserver
