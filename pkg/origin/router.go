package origin

import (
	"context"
	"fmt"
	"strings"
)

// Router dispatches Fetch calls to scheme-specific fetchers, so one broker
// can serve http(s):// and s3:// locators side by side.
type Router struct {
	fetchers map[string]Fetcher
}

// NewRouter creates an empty router. Register fetchers before use.
func NewRouter() *Router {
	return &Router{fetchers: make(map[string]Fetcher)}
}

// Register binds a fetcher to a locator scheme (without the "://" suffix).
// Registering the same scheme twice replaces the previous fetcher.
func (r *Router) Register(scheme string, f Fetcher) {
	r.fetchers[strings.ToLower(scheme)] = f
}

// Fetch dispatches to the fetcher registered for the locator's scheme.
func (r *Router) Fetch(ctx context.Context, locator, rangeHeader string) (*Response, error) {
	scheme, _, ok := strings.Cut(locator, "://")
	if !ok {
		return nil, fmt.Errorf("%w: %q has no scheme", ErrInvalidLocator, locator)
	}

	f, ok := r.fetchers[strings.ToLower(scheme)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, scheme)
	}

	return f.Fetch(ctx, locator, rangeHeader)
}
