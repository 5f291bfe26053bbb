package domain

import "errors"

// Cross-cutting sentinel errors. Component-specific sentinels live next to
// their entities (match.go, group.go, user.go).
var (
	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned for malformed or self-contradictory input
	// (e.g. expressing interest in yourself, empty repeat days).
	ErrInvalidInput = errors.New("invalid input")

	// ErrForbidden is returned when the caller is not allowed to act on the entity.
	ErrForbidden = errors.New("forbidden")
)
