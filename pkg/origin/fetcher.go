package origin

import (
	"context"
	"io"
	"net/http"
)

// Response is the observable part of an origin fetch: the status line,
// the response headers, and a lazily-read body stream. The caller owns
// the body and must close it.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
}

// Fetcher performs a single fetch attempt against a storage origin.
// Implementations make exactly one request per call and never retry;
// retry policy, when wanted, belongs to the caller.
type Fetcher interface {
	// Fetch requests the object identified by locator. When rangeHeader is
	// non-empty it is forwarded verbatim as an HTTP Range header (or the
	// storage-native equivalent), so partial-content responses pass through
	// with their original status.
	Fetch(ctx context.Context, locator, rangeHeader string) (*Response, error)
}
