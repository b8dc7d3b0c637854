package service

import (
	"errors"
	"fmt"
)

// Typed failures surfaced to the web layer. Everything else propagates as an
// internal error with the underlying message preserved.
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrValidation      = errors.New("validation failed")
)

// LockedError reports that a list is checked out by another user. It wraps
// ErrConflict for checkout collisions and ErrForbidden for gated mutations.
type LockedError struct {
	LockedBy uint
	Err      error
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("list checked out by user %d", e.LockedBy)
}

func (e *LockedError) Unwrap() error {
	return e.Err
}
