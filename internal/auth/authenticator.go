package auth

import (
	"crypto/subtle"
	"errors"

	"github.com/hnrobert/pagegate/internal/credstore"
	"github.com/hnrobert/pagegate/internal/session"
)

var ErrAuthFailure = errors.New("authentication failed")

// Credentials is the read side of the credential store.
type Credentials interface {
	View(fn func(d *credstore.Document))
}

type Authenticator struct {
	creds Credentials
}

func NewAuthenticator(creds Credentials) *Authenticator {
	return &Authenticator{creds: creds}
}

// Authenticate returns the identity to install into a session. It succeeds
// only when the user exists, the password matches and the user is active.
func (a *Authenticator) Authenticate(username, password string) (session.Identity, error) {
	if username == "" || password == "" {
		return session.Identity{}, ErrAuthFailure
	}

	var (
		ident session.Identity
		ok    bool
	)
	a.creds.View(func(d *credstore.Document) {
		stored, exists := d.Passwords[username]
		if !exists {
			// Keep timing close to the known-user path.
			subtle.ConstantTimeCompare([]byte(password), []byte(password))
			return
		}
		match := subtle.ConstantTimeCompare([]byte(password), []byte(stored)) == 1
		if !match || !d.IsActive(username) {
			return
		}
		ok = true
		ident = session.Identity{
			Username:    username,
			Role:        d.RoleOf(username),
			Permissions: d.PermissionsOf(username),
		}
	})
	if !ok {
		return session.Identity{}, ErrAuthFailure
	}
	return ident, nil
}

func HumanAuthError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAuthFailure):
		return "User not known, password incorrect, or user is deactivated."
	default:
		return "Authentication is unavailable right now."
	}
}
