// Package profile lets a logged-in user change their own display name and
// password. The password is kept in two places in the credential document
// (passwords and profile) and both are always written together.
package profile

import (
	"errors"
	"fmt"

	"github.com/hnrobert/pagegate/internal/credstore"
)

var (
	ErrUnknownUser   = credstore.ErrUnknownUser
	ErrMissingFields = errors.New("name and password are required")
)

type Store interface {
	Snapshot() credstore.Document
	Update(fn func(d *credstore.Document) error) error
}

type Manager struct {
	store Store
}

func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// Get returns the stored profile for username.
func (m *Manager) Get(username string) (credstore.Profile, error) {
	d := m.store.Snapshot()
	p, ok := d.Profile[username]
	if !ok {
		return credstore.Profile{}, fmt.Errorf("%w: %s", ErrUnknownUser, username)
	}
	return p, nil
}

// UpdateOwnProfile overwrites name and password for username. The caller is
// responsible for passing the session's own identity.
func (m *Manager) UpdateOwnProfile(username, name, password string) error {
	if name == "" || password == "" {
		return ErrMissingFields
	}
	return m.store.Update(func(d *credstore.Document) error {
		p, ok := d.Profile[username]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownUser, username)
		}
		p.Name = name
		p.Password = password
		d.Profile[username] = p
		d.Passwords[username] = password
		return nil
	})
}
