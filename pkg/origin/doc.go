// Package origin abstracts the storage backends a coalesced stream is
// fetched from. A Fetcher performs exactly one request attempt and exposes
// the origin's status, headers, and a lazily-read body; it never retries
// and never buffers the object.
//
// Two implementations are provided: HTTPFetcher for plain http(s) origins
// and S3Fetcher for S3-compatible storage, plus a Router that dispatches by
// locator scheme. Range headers pass through verbatim in both directions,
// so 206 partial-content semantics are preserved end to end.
package origin
