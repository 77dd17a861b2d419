package passkey

import "errors"

var (
	ErrDenied     = errors.New("denied")
	ErrExists     = errors.New("exists")
	ErrNoCeremony = errors.New("no ceremony")
	ErrNotFound   = errors.New("not found")
	ErrNotValid   = errors.New("not valid")
	ErrUnexpected = errors.New("unexpected")
)
