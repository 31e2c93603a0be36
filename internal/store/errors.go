package store

import (
	"errors"
	"fmt"
)

// ErrNotFound reports an operation that referenced a rule position
// which no longer exists. The stored list is left untouched; callers
// surface it as "not found", not as a storage failure.
var ErrNotFound = errors.New("rule not found")

// StorageError wraps an underlying persistence failure on read or
// write. There is no partial-success state to reconcile (writes are
// atomic replace-alls), so callers propagate it as a generic failure
// without retrying.
type StorageError struct {
	Op  string // "open", "read rules", "write rules", ...
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a not-found rejection.
// Uses errors.Is to handle wrapped errors.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
