package approval

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the store and the workflow. These are
// exhaustive: anything else coming out of the persistence layer is
// wrapped into a StorageError first. Callers match with errors.Is.
var (
	ErrInvalidRequest    = errors.New("invalid approval request")
	ErrNotFound          = errors.New("approval request not found")
	ErrInvalidTransition = errors.New("approval request already decided")
	ErrAlreadyExpired    = errors.New("approval request expired")
	ErrConflict          = errors.New("approval request changed concurrently")
)

// StorageError wraps an I/O or serialization failure from the
// persistence layer, keeping the attempted operation and request id.
type StorageError struct {
	Op  string
	ID  string
	Err error
}

func (e *StorageError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("approval storage: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("approval storage: %s %s: %v", e.Op, e.ID, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func storageErr(op, id string, err error) error {
	return &StorageError{Op: op, ID: id, Err: err}
}
