package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name            string
		err             *AppError
		expectedType    ErrorType
		expectedCode    string
		expectedMessage string
		contextKey      string
		contextValue    interface{}
	}{
		{
			name:            "validation",
			err:             NewValidationError("tiers must be ascending", cause),
			expectedType:    ErrorTypeValidation,
			expectedCode:    "VALIDATION_FAILED",
			expectedMessage: "tiers must be ascending",
		},
		{
			name:            "not found",
			err:             NewNotFoundError("habit", "h-1"),
			expectedType:    ErrorTypeNotFound,
			expectedCode:    "NOT_FOUND",
			expectedMessage: "habit not found: h-1",
			contextKey:      "identifier",
			contextValue:    "h-1",
		},
		{
			name:            "storage",
			err:             NewStorageError("upsert log entry", cause),
			expectedType:    ErrorTypeStorage,
			expectedCode:    "STORAGE_ERROR",
			expectedMessage: "storage operation failed: upsert log entry",
			contextKey:      "operation",
			contextValue:    "upsert log entry",
		},
		{
			name:            "invalid input",
			err:             NewInvalidInputError("minutes", "abc", "must be a number"),
			expectedType:    ErrorTypeInvalidInput,
			expectedCode:    "INVALID_INPUT",
			expectedMessage: "invalid input for minutes: must be a number",
			contextKey:      "value",
			contextValue:    "abc",
		},
		{
			name:            "timeout",
			err:             NewTimeoutError("list habits", "5s"),
			expectedType:    ErrorTypeTimeout,
			expectedCode:    "TIMEOUT",
			expectedMessage: "operation timed out: list habits",
		},
		{
			name:            "corrupt data",
			err:             NewCorruptDataError("log entry", "h-1/2024-03-06", cause),
			expectedType:    ErrorTypeCorruptData,
			expectedCode:    "CORRUPT_DATA",
			expectedMessage: "corrupt log entry record: h-1/2024-03-06",
			contextKey:      "key",
			contextValue:    "h-1/2024-03-06",
		},
		{
			name:            "notification",
			err:             NewNotificationError("schedule", cause),
			expectedType:    ErrorTypeNotification,
			expectedCode:    "NOTIFICATION_ERROR",
			expectedMessage: "notification schedule failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectedType, tt.err.Type)
			assert.Equal(t, tt.expectedCode, tt.err.Code)
			assert.Equal(t, tt.expectedMessage, tt.err.Message)
			if tt.contextKey != "" {
				value, ok := tt.err.GetContext(tt.contextKey)
				assert.True(t, ok)
				assert.Equal(t, tt.contextValue, value)
			}
		})
	}
}

func TestWrapError(t *testing.T) {
	cause := errors.New("original")

	err := WrapError(cause, ErrorTypeStorage, "wrapped")

	assert.Equal(t, ErrorTypeStorage, err.Type)
	assert.Equal(t, "storage", err.Code)
	assert.ErrorIs(t, err, cause)
}

func TestFromContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 0)
	defer cancel()
	<-ctx.Done()

	err := FromContext("load day", ctx.Err())
	assert.True(t, IsErrorType(err, ErrorTypeTimeout))

	plain := errors.New("plain")
	assert.Equal(t, plain, FromContext("load day", plain))
}

func TestAsAppError(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", NewNotFoundError("habit", "h-1"))

	appErr, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrorTypeNotFound, appErr.Type)
	assert.True(t, IsAppError(wrapped))
	assert.True(t, IsNotFound(wrapped))

	_, ok = AsAppError(errors.New("plain"))
	assert.False(t, ok)
	assert.False(t, IsErrorType(errors.New("plain"), ErrorTypeNotFound))
}

func TestGetUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{name: "validation shows message", err: NewValidationError("name is required", nil), expected: "name is required"},
		{name: "not found shows message", err: NewNotFoundError("habit", "h-1"), expected: "habit not found: h-1"},
		{name: "storage hides details", err: NewStorageError("x", errors.New("disk")), expected: "A storage error occurred. Please try again."},
		{name: "timeout hides details", err: NewTimeoutError("x", "1s"), expected: "The operation timed out. Please try again."},
		{name: "corrupt data is explained", err: NewCorruptDataError("habit", "h-1", nil), expected: "Some stored data could not be read and was skipped."},
		{name: "notification is explained", err: NewNotificationError("schedule", nil), expected: "Reminders could not be scheduled."},
		{name: "plain error passes through", err: errors.New("plain"), expected: "plain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetUserMessage(tt.err))
		})
	}
}

func TestGetErrorCode(t *testing.T) {
	assert.Equal(t, "NOT_FOUND", GetErrorCode(NewNotFoundError("habit", "1")))
	assert.Equal(t, "UNKNOWN_ERROR", GetErrorCode(errors.New("plain")))
}

func TestShouldLogError(t *testing.T) {
	assert.False(t, ShouldLogError(NewValidationError("x", nil)))
	assert.False(t, ShouldLogError(NewNotFoundError("habit", "1")))
	assert.False(t, ShouldLogError(NewInvalidInputError("f", 1, "bad")))
	assert.True(t, ShouldLogError(NewStorageError("x", nil)))
	assert.True(t, ShouldLogError(NewNotificationError("cancel", nil)))
	assert.True(t, ShouldLogError(errors.New("plain")))
}
