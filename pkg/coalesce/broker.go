package coalesce

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/streamshare/streamshare/pkg/logger"
	"github.com/streamshare/streamshare/pkg/origin"
)

// Broker is the composition root: it groups concurrent subscribers by
// coalescing key, starts exactly one leader fetch per session, and fans
// the origin response out to every attached subscriber as it arrives.
type Broker struct {
	fetcher   origin.Fetcher
	registry  *Registry
	log       *slog.Logger
	chunkSize int

	sessionsCreated   atomic.Int64
	sessionsCompleted atomic.Int64
	sessionsFailed    atomic.Int64
	joinsTotal        atomic.Int64
	joinsCoalesced    atomic.Int64
	bytesFanned       atomic.Int64
}

// New creates a broker that resolves objects through fetcher.
func New(fetcher origin.Fetcher, opts ...Option) *Broker {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt(cfg)
	}

	return &Broker{
		fetcher:   fetcher,
		registry:  NewRegistry(cfg.maxSessions),
		log:       cfg.logger,
		chunkSize: cfg.chunkSize,
	}
}

// Join attaches a subscriber to the session for (objectLocator,
// rangeDescriptor), creating the session and starting its leader fetch
// when none is live. It returns as soon as the subscriber is attached —
// never waiting on the fetch — after sending the headers catch-up frame
// when the snapshot is already known.
//
// rangeDescriptor is the raw Range header value (e.g. "bytes=0-99") or
// empty for the whole object.
func (b *Broker) Join(objectLocator, rangeDescriptor string, t SubscriberTransport) error {
	if t == nil {
		return ErrNilTransport
	}

	key := BuildKey(objectLocator, rangeDescriptor)

	for {
		sess, created, err := b.registry.GetOrCreate(key, objectLocator, rangeDescriptor)
		if err != nil {
			return err
		}

		catchup, added, err := sess.attach(t)
		if errors.Is(err, errSessionClosed) {
			// Lost the race against terminal delivery; the registry hands
			// out a fresh session on the next round.
			continue
		}

		if added {
			b.joinsTotal.Add(1)
			if created {
				b.sessionsCreated.Add(1)
			} else {
				b.joinsCoalesced.Add(1)
			}
		}

		if catchup != nil {
			if err := t.SendText(catchup); err != nil {
				if id, ok := sess.detach(t); ok {
					b.log.Debug("subscriber pruned on catch-up send",
						logger.SessionKey(key),
						slog.String("subscriber_id", id),
						logger.Error(err))
				}
				return nil
			}
			// The session may have finished while the catch-up frame was
			// in flight; delivering the terminal frame is then this join's
			// job, since the finisher's snapshot no longer includes us.
			if terminal := sess.markReady(t); terminal != nil {
				if err := t.SendText(terminal); err != nil {
					b.log.Debug("terminal frame dropped",
						logger.SessionKey(key), logger.Error(err))
				}
				_ = t.Close(CloseNormal, "transfer complete")
				return nil
			}
		}

		if sess.markFetchStarted() {
			b.log.Info("leader fetch starting",
				slog.String("locator", objectLocator),
				slog.String("range", rangeDescriptor))
			go b.runFetch(sess)
		}

		t.OnDisconnect(func() {
			if id, ok := sess.detach(t); ok {
				b.log.Debug("subscriber disconnected",
					logger.SessionKey(key),
					slog.String("subscriber_id", id))
			}
		})
		return nil
	}
}

// Registry exposes the session registry, mainly for tests and stats.
func (b *Broker) Registry() *Registry { return b.registry }

// runFetch is the origin fetch orchestrator: one fetch per session, fully
// owning the Fetching → Streaming → {Completed,Failed} transition. It
// never retries; every exit path ends in exactly one finishSession.
func (b *Broker) runFetch(sess *Session) {
	resp, err := b.fetcher.Fetch(context.Background(), sess.locator, sess.rangeDesc)
	if err != nil {
		b.failSession(sess, http.StatusInternalServerError, err.Error())
		return
	}
	defer resp.Body.Close()

	headers := flattenHeader(resp.Header)
	targets := sess.publishHeaders(resp.StatusCode, headers)
	b.deliverText(sess, targets, encodeHeadersFrame(resp.StatusCode, headers))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b.failSession(sess, resp.StatusCode, readSnippet(resp.Body))
		return
	}

	buf := make([]byte, b.chunkSize)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			b.broadcastBinary(sess, buf[:n])
			b.bytesFanned.Add(int64(n))
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				b.completeSession(sess)
			} else {
				b.failSession(sess, http.StatusInternalServerError, err.Error())
			}
			return
		}
	}
}

// completeSession runs the terminal sequence with a done frame.
func (b *Broker) completeSession(sess *Session) {
	b.finishSession(sess, StateCompleted, 0, "")
	b.sessionsCompleted.Add(1)
	b.log.Info("session completed",
		slog.String("locator", sess.locator),
		slog.String("range", sess.rangeDesc),
		slog.Int64("subscribers", sess.TotalJoined()),
		slog.Duration("duration", time.Since(sess.createdAt)))
}

// failSession runs the terminal sequence with a bounded error frame.
// status is the origin's status, or a 500-equivalent when the failure
// happened below the HTTP layer.
func (b *Broker) failSession(sess *Session, status int, reason string) {
	b.finishSession(sess, StateFailed, status, reason)
	b.sessionsFailed.Add(1)
	b.log.Info("session failed",
		slog.String("locator", sess.locator),
		slog.String("range", sess.rangeDesc),
		slog.Int("status", status),
		slog.String("reason", truncate(reason, maxFailureReason)))
}

// finishSession is the single teardown path. The terminal state, the
// closed flag, and the drained subscriber snapshot are taken in one
// locked step, and the key is released before any delivery, so a
// concurrent Join either lands inside the snapshot and gets the terminal
// frame here, or finds the session closed and starts a fresh one. A
// session never leaves this function resurrectable.
func (b *Broker) finishSession(sess *Session, state State, status int, reason string) {
	targets := sess.finish(state, status, reason)
	b.registry.Release(sess)

	frame := encodeDoneFrame()
	if state == StateFailed {
		frame = encodeErrorFrame(status, reason)
	}
	for _, t := range targets {
		if err := t.SendText(frame); err != nil {
			b.log.Debug("terminal frame dropped",
				logger.SessionKey(sess.key), logger.Error(err))
		}
		_ = t.Close(CloseNormal, "transfer complete")
	}
}

// deliverText sends one text frame to the given transports, pruning any
// subscriber whose delivery fails. A broken subscriber never blocks or
// fails delivery to the rest.
func (b *Broker) deliverText(sess *Session, targets []SubscriberTransport, frame []byte) {
	for _, t := range targets {
		if err := t.SendText(frame); err != nil {
			if id, ok := sess.detach(t); ok {
				b.log.Debug("subscriber pruned on text send",
					logger.SessionKey(sess.key),
					slog.String("subscriber_id", id),
					logger.Error(err))
			}
		}
	}
}

// broadcastBinary sends one body chunk to every fan-out-ready subscriber,
// pruning on delivery failure. The chunk is delivered as raw bytes; the
// buffer is reused by the read loop once every send has returned.
func (b *Broker) broadcastBinary(sess *Session, chunk []byte) {
	for _, t := range sess.snapshot() {
		if err := t.SendBinary(chunk); err != nil {
			if id, ok := sess.detach(t); ok {
				b.log.Debug("subscriber pruned on binary send",
					logger.SessionKey(sess.key),
					slog.String("subscriber_id", id),
					logger.Error(err))
			}
		}
	}
}

// flattenHeader collapses multi-valued headers into the comma-joined form
// used by the headers frame.
func flattenHeader(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, vv := range h {
		out[k] = strings.Join(vv, ", ")
	}
	return out
}

// readSnippet captures a bounded prefix of an origin error body for the
// failure reason, so a large error page never reaches subscribers.
func readSnippet(r io.Reader) string {
	snippet, _ := io.ReadAll(io.LimitReader(r, maxFailureReason))
	return string(snippet)
}
