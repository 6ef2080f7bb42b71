package logger

import "log/slog"

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// SessionKey records a coalescing key under the key "session_key".
func SessionKey(key string) slog.Attr {
	if key == "" {
		return slog.Attr{}
	}
	return slog.String("session_key", key)
}
