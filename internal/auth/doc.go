// Package auth checks submitted credentials against the credential store and
// signs the cookie that ties a browser to its server-side session.
//
// Passwords are stored and compared verbatim (constant time). Every failure,
// whether unknown user, wrong password or inactive account, is reported as
// the same ErrAuthFailure.
package auth
