package auth

import "errors"

var (
	// ErrNotValid reports inputs an authentication flow cannot proceed with.
	ErrNotValid = errors.New("not valid")

	// ErrUnexpected reports a failure in the identity provider
	// or the token machinery itself.
	ErrUnexpected = errors.New("unexpected")
)
