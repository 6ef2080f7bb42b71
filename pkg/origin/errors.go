package origin

import "errors"

var (
	// ErrUnsupportedScheme is returned by the Router when no registered
	// fetcher handles the locator's scheme.
	ErrUnsupportedScheme = errors.New("origin: unsupported locator scheme")
	// ErrInvalidLocator is returned when a locator cannot be parsed.
	ErrInvalidLocator = errors.New("origin: invalid locator")
)
