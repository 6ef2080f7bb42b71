// Package coalesce prevents origin fetch stampedes for streamed objects.
// Concurrent subscribers asking for the same (object locator, byte range)
// pair share one session: a single leader fetch is made against the origin
// and its status, headers, and body chunks are fanned out live to every
// subscriber attached to the session.
//
// A subscriber receives, in order, at most one headers text frame, zero or
// more raw binary body chunks, and exactly one of a done or error text
// frame, after which its transport is closed with a normal close code.
// Subscribers that join after streaming has begun get the headers frame as
// a catch-up but only observe chunks from that point on — there is no
// replay buffer, so a late joiner's body is silently truncated.
//
// Failure containment is asymmetric: an origin-side failure terminates the
// whole session with one bounded error frame per subscriber, while a
// single subscriber's dead transport is pruned silently and never affects
// the others. Subscriber disconnects never cancel the leader fetch; a
// session with zero subscribers runs to completion.
//
// Basic usage:
//
//	broker := coalesce.New(origin.NewHTTPFetcher(origin.DefaultHTTPOptions()))
//
//	// transport implements coalesce.SubscriberTransport
//	if err := broker.Join("https://origin.example/object", "bytes=0-99", transport); err != nil {
//		// registry at capacity; nothing was attached
//	}
package coalesce
