package core

import (
	"errors"
	"fmt"
)

const (
	CodeEmpty      = "empty"
	CodeTooLong    = "too_long"
	CodeURLBlocked = "url_blocked"
)

// ValidationError reports input rejected before any mutation.
type ValidationError struct {
	Code string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Code
}

// Is matches any ValidationError carrying the same code.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	return ok && t.Code == e.Code
}

var (
	ErrEmptyText   = &ValidationError{Code: CodeEmpty}
	ErrTextTooLong = &ValidationError{Code: CodeTooLong}
	ErrURLBlocked  = &ValidationError{Code: CodeURLBlocked}

	ErrNotFound = errors.New("post not found")
	ErrConflict = errors.New("post already exists")
)

// StorageError wraps a failure of the durable store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
