package plan

import (
	"sync"

	"tenet/internal/constraint"
	"tenet/internal/resolve"
	"tenet/internal/strategy"
)

// Session holds the per-session composition-strategy states, keyed by
// normalized composite id. Strategies are created lazily on first use
// and live for the process lifetime — engine state is never persisted
// across restarts.
type Session struct {
	mu         sync.Mutex
	strategies map[string]strategy.Strategy
}

// NewSession creates an empty session.
func NewSession() *Session {
	return &Session{strategies: make(map[string]strategy.Strategy)}
}

// Strategy returns the session's state machine for the composite,
// creating it from the resolved tree on first use.
func (s *Session) Strategy(c *constraint.Composite, root *resolve.Resolved) (strategy.Strategy, error) {
	key := constraint.Normalize(c.ID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.strategies[key]; ok {
		return st, nil
	}
	st, err := strategy.New(c, root)
	if err != nil {
		return nil, err
	}
	s.strategies[key] = st
	return st, nil
}

// Get returns the existing strategy for a composite id, or nil when
// none has been created in this session.
func (s *Session) Get(id string) strategy.Strategy {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.strategies[constraint.Normalize(id)]
}

// States returns a snapshot of composite id → exhausted flag, for
// status reporting.
func (s *Session) States() map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]bool, len(s.strategies))
	for id, st := range s.strategies {
		out[id] = st.Exhausted()
	}
	return out
}

// Registry maps session ids to their strategy states. One registry per
// server process.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Session returns the session for the id, creating it when absent.
func (r *Registry) Session(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		return s
	}
	s := NewSession()
	r.sessions[id] = s
	return s
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
