// Package admin implements the account operations reserved for the admin
// role: changing another user's role, page permissions and active flag, and
// provisioning new accounts. Every operation is a separate store update.
package admin

import (
	"errors"
	"fmt"

	"github.com/hnrobert/pagegate/internal/access"
	"github.com/hnrobert/pagegate/internal/credstore"
	"github.com/hnrobert/pagegate/internal/pages"
	"github.com/hnrobert/pagegate/internal/session"
)

var (
	ErrDuplicateUser = errors.New("user already exists")
	ErrMissingFields = errors.New("all fields are required")
	ErrInvalidRole   = errors.New("invalid role")
	ErrUnknownUser   = credstore.ErrUnknownUser
)

// Roles lists the assignable roles in display order.
var Roles = []string{credstore.RoleUser, credstore.RoleAdmin}

// Store is the write side of the credential store.
type Store interface {
	Snapshot() credstore.Document
	Update(fn func(d *credstore.Document) error) error
}

// Account is one row of the admin listing.
type Account struct {
	Username    string
	Name        string
	Role        string
	Permissions []string // as stored
	Selectable  []string // stored permissions that exist in the universe
	Active      bool
}

type Manager struct {
	store    Store
	universe pages.Universe
}

func NewManager(store Store, universe pages.Universe) *Manager {
	return &Manager{store: store, universe: universe}
}

// RequireAdmin fails with access.ErrForbidden unless s belongs to an admin.
func RequireAdmin(s *session.Session) error {
	return access.RequireRole(s, credstore.RoleAdmin)
}

func (m *Manager) Universe() pages.Universe {
	return m.universe
}

// Accounts lists every account with a password entry, sorted by username.
func (m *Manager) Accounts() []Account {
	d := m.store.Snapshot()
	out := make([]Account, 0, len(d.Passwords))
	for _, u := range d.Usernames() {
		perms := d.PermissionsOf(u)
		out = append(out, Account{
			Username:    u,
			Name:        d.DisplayName(u),
			Role:        d.RoleOf(u),
			Permissions: perms,
			Selectable:  m.universe.Filter(perms),
			Active:      d.IsActive(u),
		})
	}
	return out
}

// UpdatePermissions replaces username's permissions and role. Page ids
// outside the universe are dropped.
func (m *Manager) UpdatePermissions(username string, perms []string, role string) error {
	if !validRole(role) {
		return fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	filtered := m.universe.Filter(perms)
	return m.store.Update(func(d *credstore.Document) error {
		if !d.HasUser(username) {
			return fmt.Errorf("%w: %s", ErrUnknownUser, username)
		}
		d.Permissions[username] = filtered
		d.Roles[username] = role
		return nil
	})
}

func (m *Manager) UpdateActiveStatus(username string, active bool) error {
	return m.store.Update(func(d *credstore.Document) error {
		if !d.HasUser(username) {
			return fmt.Errorf("%w: %s", ErrUnknownUser, username)
		}
		d.ActiveUsers[username] = active
		return nil
	})
}

// CreateUser provisions an active account with the default permissions.
// An empty role means "user".
func (m *Manager) CreateUser(username, name, password, role string) error {
	if username == "" || name == "" || password == "" {
		return ErrMissingFields
	}
	if role == "" {
		role = credstore.RoleUser
	}
	if !validRole(role) {
		return fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	return m.store.Update(func(d *credstore.Document) error {
		if d.HasUser(username) {
			return fmt.Errorf("%w: %s", ErrDuplicateUser, username)
		}
		d.Passwords[username] = password
		d.Profile[username] = credstore.Profile{Name: name, Password: password}
		d.Roles[username] = role
		d.Permissions[username] = credstore.DefaultPermissions()
		d.ActiveUsers[username] = true
		return nil
	})
}

func validRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}
