package finance

import "errors"

var (
	// ErrNotFound covers both a missing id and an id owned by someone else;
	// callers cannot tell the two apart.
	ErrNotFound = errors.New("finance: not found")
	// ErrInvalidInput is returned for malformed entities.
	ErrInvalidInput = errors.New("finance: invalid input")
)
