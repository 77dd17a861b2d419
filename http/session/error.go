package session

import "errors"

var (
	// ErrNoUser reports a session naming no user;
	// nobody has authenticated on it yet.
	ErrNoUser = errors.New("no user")

	// ErrNotValid reports a session holding a malformed value,
	// such as a user ID that is not a uint.
	ErrNotValid = errors.New("not valid")
)
