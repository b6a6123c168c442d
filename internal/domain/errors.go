// Package domain defines the error taxonomy shared by services and handlers.
package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the interaction core. Services wrap these with context via
// fmt.Errorf("...: %w", Err*) so handlers can classify with errors.Is.
var (
	// ErrValidation flags malformed or missing input, e.g. an empty comment.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidOperation flags requests that are well-formed but not allowed,
	// e.g. following oneself.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrNotFound flags an unknown target, conversation or notification.
	ErrNotFound = errors.New("not found")

	// ErrForbidden flags access to a resource outside the caller's scope.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict flags a lost uniqueness race; the caller may retry and will
	// observe the committed state of the other writer.
	ErrConflict = errors.New("conflict")

	// ErrStorage flags persistence failures. Never retried by the core.
	ErrStorage = errors.New("storage unavailable")
)

// Validationf wraps ErrValidation with a formatted reason.
func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrValidation)...)
}

// InvalidOperationf wraps ErrInvalidOperation with a formatted reason.
func InvalidOperationf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrInvalidOperation)...)
}

// NotFoundf wraps ErrNotFound with a formatted reason.
func NotFoundf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
}

// Forbiddenf wraps ErrForbidden with a formatted reason.
func Forbiddenf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrForbidden)...)
}

// Storagef wraps ErrStorage around an underlying persistence error.
func Storagef(op string, err error) error {
	return fmt.Errorf("%s: %v: %w", op, err, ErrStorage)
}
