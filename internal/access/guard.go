// Package access holds the checks every page runs before producing output.
//
// Each check returns nil to let the caller continue. A non-nil error means
// the caller must stop handling the request and render nothing but the
// error's message.
package access

import (
	"errors"
	"fmt"

	"github.com/hnrobert/pagegate/internal/session"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

// ForbiddenError names the page or capability that was refused.
type ForbiddenError struct {
	Msg string
}

func (e *ForbiddenError) Error() string { return e.Msg }

func (e *ForbiddenError) Is(target error) bool { return target == ErrForbidden }

// RequireAuthenticated fails unless s has completed a login.
func RequireAuthenticated(s *session.Session) error {
	if s == nil || !s.Authenticated() {
		return ErrUnauthenticated
	}
	return nil
}

// RequirePermission fails unless pageID is one of perms.
func RequirePermission(pageID string, perms []string) error {
	for _, p := range perms {
		if p == pageID {
			return nil
		}
	}
	return &ForbiddenError{Msg: fmt.Sprintf("You do not have permission to access %s.", pageID)}
}

// RequireRole fails unless the session's cached role equals role.
func RequireRole(s *session.Session, role string) error {
	if err := RequireAuthenticated(s); err != nil {
		return err
	}
	if s.Role() != role {
		return &ForbiddenError{Msg: "You don't have permission to access this page."}
	}
	return nil
}

// Message returns the text shown to the user for a guard failure.
func Message(err error) string {
	var fe *ForbiddenError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &fe):
		return fe.Msg
	case errors.Is(err, ErrUnauthenticated):
		return "You need to log in first!"
	case errors.Is(err, ErrForbidden):
		return "You don't have permission to access this page."
	default:
		return err.Error()
	}
}
