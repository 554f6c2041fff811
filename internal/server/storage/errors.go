package storage

import "errors"

// Common storage errors
var (
	// ErrUserNotFound indicates that user was not found in storage
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists indicates that user with this username already exists
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrTokenNotFound indicates that refresh token was not found
	ErrTokenNotFound = errors.New("refresh token not found")

	// ErrEntityNotFound indicates that no entity with the requested id
	// exists for the account
	ErrEntityNotFound = errors.New("entity not found")

	// ErrEntityExists indicates an insert for an id that is already
	// present for the account
	ErrEntityExists = errors.New("entity already exists")

	// ErrStaleWrite indicates that a conditional write matched no row:
	// the stored version advanced past the expected one
	ErrStaleWrite = errors.New("stale write: stored version is newer")
)
