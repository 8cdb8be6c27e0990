package core

import (
	"errors"
	"fmt"
)

// ValidationError is a user-facing rejection. No state is mutated when one is returned.
type ValidationError struct {
	msg string
}

func newValidationError(msg string) *ValidationError {
	return &ValidationError{msg: msg}
}

func (e *ValidationError) Error() string { return e.msg }

var (
	ErrInvalidAmount         = newValidationError("invalid amount")
	ErrEmptyCategory         = newValidationError("empty category")
	ErrEmptyCategoryName     = newValidationError("empty category name")
	ErrDuplicateCategory     = newValidationError("category already exists")
	ErrCategoryNotFound      = newValidationError("category not found")
	ErrEmptyReassignTarget   = newValidationError("empty reassignment target")
	ErrInvalidReassignTarget = newValidationError("invalid reassignment target")
	ErrInvalidType           = newValidationError("invalid transaction type")
	ErrInvalidTheme          = newValidationError("invalid theme")
	ErrInvalidMonth          = newValidationError("invalid month")
	ErrInvalidDate           = newValidationError("invalid date")
	ErrEmptyID               = newValidationError("empty transaction id")
	ErrFutureMonth           = newValidationError("cannot add entries to a future month")
	ErrStaleDeletion         = newValidationError("category deletion request is out of date")
	ErrInvalidAction         = newValidationError("invalid deletion action")
)

// IsValidation reports whether err (or anything it wraps) is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// PersistenceError reports a failed save. The in-memory state stays authoritative.
type PersistenceError struct {
	Slot string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("save %s: %v", e.Slot, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// LoadError reports a failed initial load. Defaults are used for the slot.
type LoadError struct {
	Slot string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Slot, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
