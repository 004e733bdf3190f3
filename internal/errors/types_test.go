package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorType_String(t *testing.T) {
	tests := []struct {
		errorType ErrorType
		expected  string
	}{
		{ErrorTypeValidation, "validation"},
		{ErrorTypeNotFound, "not_found"},
		{ErrorTypeStorage, "storage"},
		{ErrorTypeInvalidInput, "invalid_input"},
		{ErrorTypeTimeout, "timeout"},
		{ErrorTypeCorruptData, "corrupt_data"},
		{ErrorTypeNotification, "notification"},
		{ErrorType(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.errorType.String())
		})
	}
}

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name:     "should format error without cause",
			err:      &AppError{Type: ErrorTypeValidation, Message: "name is required"},
			expected: "validation: name is required",
		},
		{
			name:     "should include cause when present",
			err:      &AppError{Type: ErrorTypeStorage, Message: "write failed", Cause: errors.New("disk full")},
			expected: "storage: write failed (caused by: disk full)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestAppError_UnwrapAndIs(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewStorageError("list habits", cause)

	assert.Equal(t, cause, err.Unwrap())
	assert.ErrorIs(t, err, cause)
	assert.True(t, errors.Is(err, &AppError{Type: ErrorTypeStorage, Code: "STORAGE_ERROR"}))
	assert.False(t, errors.Is(err, &AppError{Type: ErrorTypeNotFound, Code: "NOT_FOUND"}))
	assert.False(t, err.Is(errors.New("plain")))
}

func TestAppError_IsMatchesKindWithoutCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		target   *AppError
		expected bool
	}{
		{name: "should match a missing timer by kind", err: NewNotFoundError("running timer", "h-read"), target: &AppError{Type: ErrorTypeNotFound}, expected: true},
		{name: "should match a missing habit by kind", err: NewNotFoundError("habit", "Read"), target: &AppError{Type: ErrorTypeNotFound}, expected: true},
		{name: "should not match another kind", err: NewStorageError("list habits", errors.New("down")), target: &AppError{Type: ErrorTypeNotFound}, expected: false},
		{name: "should not match another code of the same kind", err: NewNotFoundError("habit", "Read"), target: &AppError{Type: ErrorTypeNotFound, Code: "OTHER"}, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, errors.Is(tt.err, tt.target))
		})
	}
}

func TestAppError_Context(t *testing.T) {
	err := &AppError{Type: ErrorTypeValidation}

	_, ok := err.GetContext("missing")
	assert.False(t, ok)

	err.WithContext("habit_id", "abc").WithContext("date", "2024-03-06")

	value, ok := err.GetContext("habit_id")
	assert.True(t, ok)
	assert.Equal(t, "abc", value)
	assert.Len(t, err.Context, 2)
	assert.True(t, err.IsType(ErrorTypeValidation))
}
