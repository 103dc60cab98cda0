package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry maps session IDs to live sessions.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{sessions: map[string]*Session{}, now: time.Now}
}

// Anonymous returns an empty session that belongs to no registry. Clients
// without a valid cookie get one per request until they log in.
func Anonymous() *Session {
	return newSession("", time.Now())
}

// New creates and registers an empty session.
func (r *Registry) New() *Session {
	s := newSession(uuid.NewString(), r.now())
	r.mu.Lock()
	r.sessions[s.id] = s
	r.mu.Unlock()
	return s
}

// Get returns the session with id, or nil.
func (r *Registry) Get(id string) *Session {
	if id == "" {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[id]
}

// Login replaces old with a new authenticated session under a fresh ID.
// old may be nil or anonymous.
func (r *Registry) Login(old *Session, ident Identity) *Session {
	s := r.New()
	s.Login(ident, r.now())
	if old != nil && old.ID() != "" {
		r.Delete(old.ID())
	}
	return s
}

func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Prune drops unauthenticated sessions created before cutoff and
// authenticated ones whose login happened before cutoff.
func (r *Registry) Prune(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, s := range r.sessions {
		st := s.State()
		ref := st.CreatedAt
		if st.Authenticated {
			ref = st.LoginAt
		}
		if ref.Before(cutoff) {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}
