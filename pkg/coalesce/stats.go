package coalesce

// Stats is a point-in-time snapshot of the broker's dedup accounting.
// JoinsCoalesced counts subscribers that attached to an already-live
// session — each one is an origin fetch that never happened.
type Stats struct {
	ActiveSessions    int   `json:"active_sessions"`
	SessionsCreated   int64 `json:"sessions_created"`
	SessionsCompleted int64 `json:"sessions_completed"`
	SessionsFailed    int64 `json:"sessions_failed"`
	JoinsTotal        int64 `json:"joins_total"`
	JoinsCoalesced    int64 `json:"joins_coalesced"`
	BytesFanned       int64 `json:"bytes_fanned"`
}

// Stats returns a snapshot of the broker's counters.
func (b *Broker) Stats() Stats {
	return Stats{
		ActiveSessions:    b.registry.Len(),
		SessionsCreated:   b.sessionsCreated.Load(),
		SessionsCompleted: b.sessionsCompleted.Load(),
		SessionsFailed:    b.sessionsFailed.Load(),
		JoinsTotal:        b.joinsTotal.Load(),
		JoinsCoalesced:    b.joinsCoalesced.Load(),
		BytesFanned:       b.bytesFanned.Load(),
	}
}
