package userrepo

import "errors"

var (
	// ErrNotFound indicates the requested user does not exist.
	ErrNotFound = errors.New("user not found")

	// ErrDuplicateEmail indicates the email is already indexed to another user.
	ErrDuplicateEmail = errors.New("email already registered")
)
