// Package apperr defines the error categories shared by all domain packages.
//
// Domain error types report their category by implementing Is, so callers can
// classify any error with errors.Is(err, apperr.ErrNotFound) without knowing
// the concrete type. Errors matching none of the categories are internal.
package apperr

import "github.com/go-faster/errors"

var (
	// ErrValidation marks malformed or missing input.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a reference to a missing (or malformed) identifier.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks a request that contradicts current state, such as
	// insufficient stock or a duplicate unique field.
	ErrConflict = errors.New("conflict")
)

// ValidationError is a generic validation failure with a client-facing message.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Is reports the validation category.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Validation returns a ValidationError with the given message.
func Validation(msg string) error {
	return &ValidationError{Message: msg}
}

// NotFoundError reports a missing entity of the given kind.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Kind + " not found"
	}
	return e.Kind + " " + e.ID + " not found"
}

// Is reports the not-found category.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NotFound returns a NotFoundError for the entity kind and id.
func NotFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// DuplicateError reports a unique constraint violation on Field.
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string { return e.Field + " already exists" }

// Is reports the conflict category.
func (e *DuplicateError) Is(target error) bool { return target == ErrConflict }

// IsClientError reports whether err belongs to one of the caller-correctable
// categories.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict)
}
