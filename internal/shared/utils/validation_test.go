package utils

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridian-id/veridian/internal/shared/errors"
)

type bindingFixture struct {
	Email string `json:"email" validate:"required,email"`
	Step  string `json:"step" validate:"required,oneof=email sms"`
}

func TestBindingError_FieldMessages(t *testing.T) {
	v := validator.New()

	err := v.Struct(bindingFixture{Email: "not-an-email", Step: "push"})
	require.Error(t, err)

	appErr := BindingError(err)
	require.Equal(t, errors.ErrorTypeValidation, appErr.Type)
	assert.Contains(t, appErr.Message, "must be a valid email address")
	assert.Contains(t, appErr.Message, "must be one of [email sms]")
}

func TestBindingError_RequiredFields(t *testing.T) {
	v := validator.New()

	err := v.Struct(bindingFixture{})
	require.Error(t, err)

	appErr := BindingError(err)
	assert.Contains(t, appErr.Message, "is required")
}

func TestBindingError_NonValidatorError(t *testing.T) {
	appErr := BindingError(assert.AnError)
	require.Equal(t, errors.ErrorTypeValidation, appErr.Type)
	assert.Equal(t, "invalid request body", appErr.Message)
}
