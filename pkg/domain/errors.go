package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is.
var (
	// ErrValidation is returned for malformed or out-of-range input.
	ErrValidation = errors.New("validation error")
	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("resource not found")
	// ErrBusinessLogic is returned for illegal state transitions and
	// violated balance invariants.
	ErrBusinessLogic = errors.New("business rule violation")
	// ErrDatabase is returned for persistence and lock failures.
	ErrDatabase = errors.New("database error")
)

// Error carries a kind sentinel, a caller-facing message and an optional cause.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Message
}

// Is matches the kind sentinel.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// Validation returns a validation error with a formatted message.
func Validation(format string, args ...any) error {
	return &Error{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound returns a not-found error for the named entity.
func NotFound(entity string, id any) error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf("%s with ID %v not found", entity, id)}
}

// BusinessLogic returns a business rule error with a formatted message.
func BusinessLogic(format string, args ...any) error {
	return &Error{Kind: ErrBusinessLogic, Message: fmt.Sprintf(format, args...)}
}

// Database wraps a persistence failure. The message stays generic; the cause
// is kept for logging.
func Database(op string, cause error) error {
	return &Error{Kind: ErrDatabase, Message: "database operation failed: " + op, Err: cause}
}

// IsKnown reports whether err belongs to the taxonomy above.
func IsKnown(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrBusinessLogic) ||
		errors.Is(err, ErrDatabase)
}
