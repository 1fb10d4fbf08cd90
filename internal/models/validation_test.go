package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

var errTestCause = errors.New("bad value")

func TestValidationErrorsIs(t *testing.T) {
	validation := &ValidationErrors{}
	validation.Add("title", errTestCause)

	err := validation.Err()
	require.Error(t, err)
	require.ErrorIs(t, err, errTestCause)
}

func TestValidationErrorsNestedFields(t *testing.T) {
	nested := &ValidationErrors{}
	nested.AddMessage("id", "expected 1, got 2")

	validation := &ValidationErrors{}
	validation.Add("iterations[0]", nested)

	err := validation.Err()
	require.Error(t, err)

	list, ok := err.(*ValidationErrors)
	require.True(t, ok, "expected ValidationErrors type, got %T", err)
	require.Len(t, list.Errors, 1)
	require.Equal(t, "iterations[0].id", list.Errors[0].Field)
}

func TestValidationErrorsEmptyIsNil(t *testing.T) {
	var validation *ValidationErrors
	require.NoError(t, validation.Err())
	require.NoError(t, (&ValidationErrors{}).Err())
}
