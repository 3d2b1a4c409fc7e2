package worklist

import (
	"errors"
	"fmt"
)

// Sentinel errors for work list store operations.
var (
	// ErrNotFound indicates the requested source does not exist.
	ErrNotFound = errors.New("work list not found")

	// ErrInvalidFormat indicates the source could not be read as a
	// tabular file with at least one column.
	ErrInvalidFormat = errors.New("invalid work list format")

	// ErrAlreadyExists indicates a save would overwrite an existing list.
	ErrAlreadyExists = errors.New("work list already exists")

	// ErrNoSession indicates no list has been loaded into the session yet.
	ErrNoSession = errors.New("no work list loaded in session")
)

// StoreError wraps store failures with operation context.
type StoreError struct {
	// Op is the operation that failed (e.g., "Load", "Save").
	Op string

	// Source is the list source (path or basename), if applicable.
	Source string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("worklist %s: %s: %v", e.Op, e.Source, e.Err)
	}
	return fmt.Sprintf("worklist %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsNotFound returns true if the error indicates a missing source.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidFormat returns true if the error indicates an unreadable or
// zero-column source.
func IsInvalidFormat(err error) bool {
	return errors.Is(err, ErrInvalidFormat)
}

// IsAlreadyExists returns true if the error indicates an overwrite was
// refused.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}
