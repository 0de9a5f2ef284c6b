// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across store/repo/service layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates an empty or malformed required field.
	ErrValidation = errors.New("validation")

	// ErrDuplicateUsername indicates a case-insensitive username collision at registration.
	ErrDuplicateUsername = errors.New("username already exists")

	// ErrInvalidCredentials indicates an unknown username or a wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrConfiguration indicates a missing required setting (e.g., tutor API key).
	ErrConfiguration = errors.New("configuration")

	// ErrStorageUnavailable indicates the key-value store could not serve the call (down, full, closed).
	ErrStorageUnavailable = errors.New("storage unavailable")
)
