package user

import "errors"

var (
	// ErrNotFound is returned by repositories when no user has the requested id.
	ErrNotFound = errors.New("user not found")

	// ErrInvalidID is wrapped by repositories when an id cannot be parsed by
	// the backend. It is a storage failure, not a missing user.
	ErrInvalidID = errors.New("invalid user id")
)
