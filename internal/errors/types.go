package errors

import (
	"strings"
)

// ErrorType classifies failures by how the engine reacts to them: storage,
// timeout and notification failures degrade to defaults, the rest surface
// to the user.
type ErrorType int

const (
	ErrorTypeValidation ErrorType = iota
	ErrorTypeNotFound
	ErrorTypeStorage
	ErrorTypeInvalidInput
	ErrorTypeTimeout
	ErrorTypeCorruptData
	ErrorTypeNotification
)

var typeNames = [...]string{
	ErrorTypeValidation:   "validation",
	ErrorTypeNotFound:     "not_found",
	ErrorTypeStorage:      "storage",
	ErrorTypeInvalidInput: "invalid_input",
	ErrorTypeTimeout:      "timeout",
	ErrorTypeCorruptData:  "corrupt_data",
	ErrorTypeNotification: "notification",
}

// String returns the snake_case name used in logs and error text
func (et ErrorType) String() string {
	if et < 0 || int(et) >= len(typeNames) {
		return "unknown"
	}
	return typeNames[et]
}

// AppError carries a failure kind, a user-facing message, a stable code and
// the habit, date or field it concerns in Context.
type AppError struct {
	Type    ErrorType
	Message string
	Code    string
	Cause   error
	Context map[string]interface{}
}

// Error renders "kind: message", followed by the cause when there is one
func (e *AppError) Error() string {
	var b strings.Builder
	b.WriteString(e.Type.String())
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteString(")")
	}
	return b.String()
}

// Unwrap exposes the store or notifier error underneath
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches an AppError of the same kind. A target without a code matches
// every code of that kind, so &AppError{Type: ErrorTypeNotFound} catches
// missing habits and missing timers alike.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok || e.Type != t.Type {
		return false
	}
	return t.Code == "" || e.Code == t.Code
}

// IsType reports whether the error is of the given kind
func (e *AppError) IsType(errorType ErrorType) bool {
	return e.Type == errorType
}

// WithContext attaches a detail such as "habit_id" or "date"
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// GetContext returns a detail attached with WithContext
func (e *AppError) GetContext(key string) (interface{}, bool) {
	value, ok := e.Context[key]
	return value, ok
}
