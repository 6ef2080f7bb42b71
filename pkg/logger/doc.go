// Package logger builds configured slog.Logger instances with JSON or
// text output and static service attributes, plus small attribute helpers
// shared across the codebase.
package logger
