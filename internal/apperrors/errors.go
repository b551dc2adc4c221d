// Package apperrors holds the sentinel errors shared by the stores, the core
// services and the HTTP layer. Callers match them with errors.Is.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrDuplicateUsername  = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

var (
	ErrInvalidAddressing = fmt.Errorf("%w: message needs exactly one of recipient or group", ErrValidation)
	ErrEmptyName         = fmt.Errorf("%w: group name is blank", ErrValidation)

	ErrUserNotFound  = fmt.Errorf("user %w", ErrNotFound)
	ErrGroupNotFound = fmt.Errorf("group %w", ErrNotFound)
)

// Validation wraps a free-form validation failure so it still matches ErrValidation.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
