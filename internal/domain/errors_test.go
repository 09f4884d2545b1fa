package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError(t *testing.T) {
	err := NewValidationError("id", "has invalid format", ErrInvalidID)
	assert.Equal(t, "id has invalid format", err.Error())
	assert.True(t, errors.Is(err, ErrInvalidID))
	assert.False(t, errors.Is(err, ErrValidation))

	def := NewValidationError("prompt", "is required", nil)
	assert.True(t, errors.Is(def, ErrValidation))

	var ve *ValidationError
	assert.True(t, errors.As(error(def), &ve))
	assert.Equal(t, "prompt", ve.Field)
}
