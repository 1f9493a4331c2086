package storage

import "errors"

// Common storage errors.
var (
	// ErrNotFound is returned when no snapshot has been saved yet.
	ErrNotFound = errors.New("snapshot not found")
)
