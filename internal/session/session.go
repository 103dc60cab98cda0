// Package session keeps per-client authentication state in process memory.
//
// A Session starts empty, is populated once by a successful login and is
// reset entirely by logout. Role and permissions are cached at login and
// are not re-read from the credential store afterwards. Nothing here is
// persisted; a restart logs every client out.
package session

import (
	"sync"
	"time"
)

// Identity is what a successful login installs into a session.
type Identity struct {
	Username    string
	Role        string
	Permissions []string
}

// State is a point-in-time copy of a session.
type State struct {
	ID            string
	Authenticated bool
	Username      string
	Role          string
	Permissions   []string
	SelectedPage  string
	CreatedAt     time.Time
	LoginAt       time.Time
}

type Session struct {
	mu sync.Mutex

	id        string
	createdAt time.Time

	authenticated bool
	username      string
	role          string
	permissions   []string
	selectedPage  string
	loginAt       time.Time
}

func newSession(id string, now time.Time) *Session {
	return &Session{id: id, createdAt: now}
}

func (s *Session) ID() string {
	return s.id
}

// Login installs ident. The permission slice is copied.
func (s *Session) Login(ident Identity, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authenticated = true
	s.username = ident.Username
	s.role = ident.Role
	s.permissions = append([]string{}, ident.Permissions...)
	s.selectedPage = ""
	s.loginAt = now
}

// Logout returns the session to its freshly created state. Calling it on an
// already empty session is a no-op.
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authenticated = false
	s.username = ""
	s.role = ""
	s.permissions = nil
	s.selectedPage = ""
	s.loginAt = time.Time{}
}

func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

func (s *Session) Username() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.username
}

func (s *Session) Role() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.role
}

// Permissions returns a copy of the cached permission list.
func (s *Session) Permissions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.permissions...)
}

func (s *Session) SelectedPage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedPage
}

func (s *Session) Select(pageID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedPage = pageID
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		ID:            s.id,
		Authenticated: s.authenticated,
		Username:      s.username,
		Role:          s.role,
		Permissions:   append([]string(nil), s.permissions...),
		SelectedPage:  s.selectedPage,
		CreatedAt:     s.createdAt,
		LoginAt:       s.loginAt,
	}
}
