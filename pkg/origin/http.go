package origin

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// HTTPOptions configures the HTTP fetcher.
type HTTPOptions struct {
	// MaxIdleConnsPerHost sets the maximum idle connections per host.
	// Default: 100
	MaxIdleConnsPerHost int

	// Timeout is the per-request timeout covering the full body read.
	// Zero means no client-side timeout; callers may still bound the
	// fetch through the context.
	Timeout time.Duration
}

// DefaultHTTPOptions returns options with sensible defaults.
func DefaultHTTPOptions() HTTPOptions {
	return HTTPOptions{
		MaxIdleConnsPerHost: 100,
	}
}

// HTTPFetcher fetches objects over plain HTTP(S). It performs exactly one
// request per Fetch call and reports whatever status the origin returned;
// classifying that status is the caller's job.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher creates an HTTP fetcher tuned for streaming large bodies.
// Compression is disabled so Range offsets always refer to raw object bytes.
func NewHTTPFetcher(opts HTTPOptions) *HTTPFetcher {
	transport := &http.Transport{
		MaxIdleConnsPerHost: opts.MaxIdleConnsPerHost,
		MaxIdleConns:        opts.MaxIdleConnsPerHost * 2,
		IdleConnTimeout:     90 * time.Second,
		DisableCompression:  true,
	}

	return &HTTPFetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
		},
	}
}

// Fetch issues a single GET against locator, forwarding rangeHeader when set.
func (f *HTTPFetcher) Fetch(ctx context.Context, locator, rangeHeader string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return nil, fmt.Errorf("origin: create request: %w", err)
	}

	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("origin: http fetch: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       resp.Body,
	}, nil
}
