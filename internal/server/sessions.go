package server

import (
	"sync"

	"github.com/jonathan/resume-assistant/internal/assistant"
)

// DefaultMaxSessions bounds the number of live chat sessions.
const DefaultMaxSessions = 64

// sessionRegistry holds live chat sessions. When full, the oldest session is
// dropped to make room.
type sessionRegistry struct {
	mu    sync.Mutex
	limit int
	byID  map[string]*assistant.Session
	order []string
}

func newSessionRegistry(limit int) *sessionRegistry {
	if limit <= 0 {
		limit = DefaultMaxSessions
	}
	return &sessionRegistry{limit: limit, byID: make(map[string]*assistant.Session)}
}

// add stores s and returns the ID of an evicted session, if any.
func (r *sessionRegistry) add(s *assistant.Session) (evicted string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.order) >= r.limit {
		evicted = r.order[0]
		r.order = r.order[1:]
		delete(r.byID, evicted)
	}
	r.byID[s.ID()] = s
	r.order = append(r.order, s.ID())
	return evicted
}

func (r *sessionRegistry) get(id string) (*assistant.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	return s, ok
}

func (r *sessionRegistry) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}
