package blob

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals that no blob exists under the requested name.
	ErrNotFound = errors.New("blob not found")
	// ErrExists is returned by Put when the name is already taken; blobs are never overwritten.
	ErrExists = errors.New("blob already exists")
	// ErrInvalidName rejects names that are empty or would escape the store root.
	ErrInvalidName = errors.New("invalid blob name")
)

// StorageError wraps a backend failure with the operation and blob name involved.
type StorageError struct {
	Op   string
	Name string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("blob %s %q: %v", e.Op, e.Name, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
