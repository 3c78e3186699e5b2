package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no record file exists for an id.
	ErrNotFound = errors.New("invoice not found")

	// ErrCorrupt is matched by every *CorruptError.
	ErrCorrupt = errors.New("invoice file is corrupt")

	// ErrInvalidID is returned for ids that cannot be mapped to a file name.
	ErrInvalidID = errors.New("invalid invoice id")
)

// CorruptError is returned when a persisted record cannot be parsed or fails
// validation.
type CorruptError struct {
	ID   string
	Path string
	Err  error
}

// Error implements the error interface.
func (e *CorruptError) Error() string {
	return fmt.Sprintf("invoice %s is invalid (%s): %v", e.ID, e.Path, e.Err)
}

// Unwrap returns the parse or validation error.
func (e *CorruptError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrCorrupt) hold.
func (e *CorruptError) Is(target error) bool {
	return target == ErrCorrupt
}
