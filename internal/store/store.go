// Package store persists the append-only collection of property records.
package store

import (
	"errors"
	"fmt"

	"elitedashboard/server/internal/models"
)

var (
	ErrStorageRead  = errors.New("storage read failed")
	ErrStorageWrite = errors.New("storage write failed")
)

// Store is the narrow persistence contract used by the HTTP layer.
// Records come back in insertion order; there is no update or delete.
type Store interface {
	List() ([]models.PropertyRecord, error)
	Append(record models.PropertyRecord) error
}

// StorageError describes a failed read or write against the backing storage.
type StorageError struct {
	Op   string
	Path string
	Kind error
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// NewReadError wraps err as a read failure of path.
func NewReadError(op, path string, err error) error {
	return &StorageError{Op: op, Path: path, Kind: ErrStorageRead, Err: err}
}

// NewWriteError wraps err as a write failure of path.
func NewWriteError(op, path string, err error) error {
	return &StorageError{Op: op, Path: path, Kind: ErrStorageWrite, Err: err}
}
