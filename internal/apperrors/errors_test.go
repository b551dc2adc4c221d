package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelHierarchy(t *testing.T) {
	assert.ErrorIs(t, ErrInvalidAddressing, ErrValidation)
	assert.ErrorIs(t, ErrEmptyName, ErrValidation)
	assert.ErrorIs(t, ErrUserNotFound, ErrNotFound)
	assert.ErrorIs(t, ErrGroupNotFound, ErrNotFound)
	assert.False(t, errors.Is(ErrDuplicateUsername, ErrValidation))
	assert.False(t, errors.Is(ErrForbidden, ErrNotFound))
}

func TestValidationWrapsSentinel(t *testing.T) {
	err := Validation("username %q too short", "ab")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), `"ab"`)

	wrapped := fmt.Errorf("signup: %w", err)
	assert.ErrorIs(t, wrapped, ErrValidation)
}
