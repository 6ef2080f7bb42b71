package coalesce

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// maxFailureReason caps the failure reason captured from an origin error
// body and the message carried by an error frame.
const maxFailureReason = 500

// State is the lifecycle phase of a session.
type State int

const (
	// StatePending means the session exists but no leader fetch has started.
	StatePending State = iota
	// StateFetching means the leader fetch is in flight, headers unknown.
	StateFetching
	// StateStreaming means headers are known and body bytes are flowing.
	StateStreaming
	// StateCompleted means the body was delivered in full.
	StateCompleted
	// StateFailed means the origin fetch failed or returned a terminal status.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateFetching:
		return "fetching"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// subscriber is the per-subscriber record kept alongside a transport.
// The transport itself is never mutated or annotated. ready gates binary
// fan-out: a late joiner stays out of chunk broadcasts until its headers
// catch-up frame has actually been written, so a chunk can never overtake
// the headers frame on its transport.
type subscriber struct {
	id          string
	transport   SubscriberTransport
	headersSent bool
	ready       bool
}

// Session tracks one leader fetch and the subscribers sharing it. All
// mutation goes through methods holding the session mutex; the owning
// broker's orchestrator is the only writer of state, status, and headers.
type Session struct {
	key       string
	locator   string
	rangeDesc string
	createdAt time.Time

	mu            sync.Mutex
	subscribers   map[SubscriberTransport]*subscriber
	state         State
	status        int
	headers       map[string]string
	failureReason string
	totalJoined   int64
	fetchStarted  bool
	closed        bool
}

func newSession(key, locator, rangeDesc string) *Session {
	return &Session{
		key:         key,
		locator:     locator,
		rangeDesc:   rangeDesc,
		createdAt:   time.Now(),
		subscribers: make(map[SubscriberTransport]*subscriber),
	}
}

// Key returns the session's coalescing key.
func (s *Session) Key() string { return s.key }

// CreatedAt returns the session's creation time.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// State returns the current lifecycle phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// TotalJoined returns how many distinct subscribers ever attached.
// It never decreases when subscribers leave.
func (s *Session) TotalJoined() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalJoined
}

// SubscriberCount returns the number of currently attached subscribers.
func (s *Session) SubscriberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscribers)
}

// FailureReason returns the bounded failure description, empty unless the
// session reached StateFailed.
func (s *Session) FailureReason() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failureReason
}

// attach adds a transport to the subscriber set. Attaching a transport
// that is already present is a no-op. When the header snapshot is already
// known, the encoded catch-up frame is returned for the caller to deliver
// outside the lock; the subscriber is withheld from binary fan-out until
// markReady confirms that delivery.
func (s *Session) attach(t SubscriberTransport) (catchup []byte, added bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, false, errSessionClosed
	}
	if _, ok := s.subscribers[t]; ok {
		return nil, false, nil
	}

	sub := &subscriber{id: uuid.NewString(), transport: t}
	s.subscribers[t] = sub
	s.totalJoined++

	if s.headers == nil {
		sub.ready = true
		return nil, true, nil
	}

	// Late joiner: the headers catch-up is owed before any chunk.
	sub.headersSent = true
	return encodeHeadersFrame(s.status, s.headers), true, nil
}

// markReady lifts the fan-out exclusion taken out in attach once the
// subscriber's catch-up frame has been written. When the session reached
// its terminal state while that write was in flight, the subscriber is
// removed and handed its terminal frame: delivering it and closing the
// transport is then the caller's job, keeping "exactly one of done or
// error" intact for joins that race the end of a stream.
func (s *Session) markReady(t SubscriberTransport) (terminal []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.subscribers[t]
	if !ok {
		// Detached while the catch-up was in flight; nothing is owed.
		return nil
	}
	if s.closed {
		delete(s.subscribers, t)
		if s.state == StateFailed {
			return encodeErrorFrame(s.status, s.failureReason)
		}
		return encodeDoneFrame()
	}
	sub.ready = true
	return nil
}

// detach removes a transport from the subscriber set, reporting the
// removed subscriber's id. It never touches session state: a session with
// zero subscribers keeps fetching.
func (s *Session) detach(t SubscriberTransport) (id string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.subscribers[t]
	if !ok {
		return "", false
	}
	delete(s.subscribers, t)
	return sub.id, true
}

// markFetchStarted flips the session into StateFetching. Only the first
// caller gets true; the leader fetch is started exactly once.
func (s *Session) markFetchStarted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fetchStarted {
		return false
	}
	s.fetchStarted = true
	s.state = StateFetching
	return true
}

// publishHeaders records the origin's header snapshot, moves the session
// to StateStreaming, and returns the transports that still need the
// headers frame, marking them sent under the same lock.
func (s *Session) publishHeaders(status int, headers map[string]string) []SubscriberTransport {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status = status
	s.headers = headers
	s.state = StateStreaming

	targets := make([]SubscriberTransport, 0, len(s.subscribers))
	for t, sub := range s.subscribers {
		if sub.headersSent {
			continue
		}
		sub.headersSent = true
		targets = append(targets, t)
	}
	return targets
}

// snapshot returns the transports currently eligible for binary fan-out.
// Subscribers whose catch-up frame is still in flight are excluded.
func (s *Session) snapshot() []SubscriberTransport {
	s.mu.Lock()
	defer s.mu.Unlock()

	targets := make([]SubscriberTransport, 0, len(s.subscribers))
	for t, sub := range s.subscribers {
		if !sub.ready {
			continue
		}
		targets = append(targets, t)
	}
	return targets
}

// finish records the terminal state, closes the session to new attaches,
// and drains the subscribers owed a terminal frame, all under one lock
// acquisition, so no join can slip in between the terminal transition and
// teardown. Subscribers whose catch-up is still in flight stay behind;
// their Join call observes the closed session in markReady and finishes
// them itself.
func (s *Session) finish(state State, status int, reason string) []SubscriberTransport {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.state = state
	if state == StateFailed {
		s.status = status
		s.failureReason = truncate(reason, maxFailureReason)
	}

	targets := make([]SubscriberTransport, 0, len(s.subscribers))
	for t, sub := range s.subscribers {
		if !sub.ready {
			continue
		}
		targets = append(targets, t)
		delete(s.subscribers, t)
	}
	return targets
}

// isClosed reports whether the session has reached its terminal state.
func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
