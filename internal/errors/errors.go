package errors

import (
	"errors"
	"fmt"
)

// Domain error taxonomy. Callers match with errors.Is; Map turns them into gRPC codes.
var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidState        = errors.New("invalid state")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrAlreadyExists       = errors.New("already exists")
	ErrConstraintViolation = errors.New("constraint violation")
	ErrPermissionDenied    = errors.New("permission denied")
)

// NotFound wraps ErrNotFound with a formatted subject, e.g. NotFound("profile %d", id).
func NotFound(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
}

// InvalidState wraps ErrInvalidState (self-pair, banned actor, already reviewed...).
func InvalidState(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidState)
}

// Invalid wraps ErrInvalidArgument for rejected input.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidArgument)
}

// Exists wraps ErrAlreadyExists.
func Exists(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrAlreadyExists)
}

// Denied wraps ErrPermissionDenied.
func Denied(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrPermissionDenied)
}

// Is re-exports errors.Is so callers importing this package under its
// default name don't lose the stdlib helpers.
func Is(err, target error) bool { return errors.Is(err, target) }

// As re-exports errors.As.
func As(err error, target any) bool { return errors.As(err, target) }
