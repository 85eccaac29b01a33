package errors

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnauthorized is a generic sentinel for auth failures.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrLifecycleUnsupported is returned for soft-delete operations on
	// entity kinds that do not track lifecycle fields.
	ErrLifecycleUnsupported = errors.New("lifecycle not supported")
)
