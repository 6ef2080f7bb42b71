package coalesce

import "sync"

// Registry is the process-wide map from coalescing key to live session.
// It starts empty and holds only transient state; nothing survives a
// restart. All operations are safe under arbitrary concurrent use — the
// get-or-create step is the atomicity the whole feature rests on.
type Registry struct {
	mu          sync.Mutex
	sessions    map[string]*Session
	maxSessions int
}

// NewRegistry creates an empty registry. maxSessions bounds the number of
// concurrent sessions; zero or negative means unbounded.
func NewRegistry(maxSessions int) *Registry {
	return &Registry{
		sessions:    make(map[string]*Session),
		maxSessions: maxSessions,
	}
}

// GetOrCreate returns the live session for key, creating it when absent.
// A session that has already reached its terminal state counts as absent
// and is replaced, so joins racing a teardown get a fresh session instead
// of spinning against a dying one. Exactly one caller observes
// created == true per session instance, even under concurrent calls with
// the same key. Returns ErrTooManySessions when a new session would
// exceed the configured capacity.
func (r *Registry) GetOrCreate(key, locator, rangeDesc string) (sess *Session, created bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.sessions[key]
	if exists && !existing.isClosed() {
		return existing, false, nil
	}
	// Replacing a closed session does not grow the map, so the capacity
	// check only applies to genuinely new keys.
	if !exists && r.maxSessions > 0 && len(r.sessions) >= r.maxSessions {
		return nil, false, ErrTooManySessions
	}

	sess = newSession(key, locator, rangeDesc)
	r.sessions[key] = sess
	return sess, true, nil
}

// Get returns the live session for key, if any.
func (r *Registry) Get(key string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[key]
	return sess, ok
}

// Release removes sess from the registry. A newer session registered
// under the same key is left in place, and releasing a session that is
// absent or already released is a no-op.
func (r *Registry) Release(sess *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.sessions[sess.key]; ok && current == sess {
		delete(r.sessions, sess.key)
	}
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
