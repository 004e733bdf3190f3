package validation

import (
	"math"
	"testing"

	"habit-tracker/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestValidator_IsNonEmptyString(t *testing.T) {
	validator := NewValidator()

	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{"Empty string", "", false},
		{"Whitespace only", "   ", false},
		{"Tab and newline", "\t\n", false},
		{"Valid string", "hello", true},
		{"String with leading/trailing spaces", "  hello  ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, validator.IsNonEmptyString(tt.input))
		})
	}
}

func TestValidator_IsValidStringLength(t *testing.T) {
	validator := NewValidator()

	tests := []struct {
		name     string
		input    string
		min      int
		max      int
		expected bool
	}{
		{"Empty string, min 1", "", 1, 10, false},
		{"Too long", "very long string", 1, 5, false},
		{"Exactly max", "hello", 1, 5, true},
		{"Counts runes not bytes", "読書する", 1, 4, true},
		{"With leading/trailing spaces", "  hello  ", 1, 5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, validator.IsValidStringLength(tt.input, tt.min, tt.max))
		})
	}
}

func TestValidator_IsValidHabitName(t *testing.T) {
	validator := NewValidator()

	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{"Plain name", "Read", true},
		{"Punctuation and symbols", "Drink water (8 glasses) #health", true},
		{"Unicode letters", "Méditation", true},
		{"Emoji", "Run 🏃", true},
		{"Newline", "Read\nbooks", false},
		{"Tab", "Read\tbooks", false},
		{"NUL", "Read\x00", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, validator.IsValidHabitName(tt.input))
		})
	}
}

func TestValidator_ConfiguredLimits(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Validation.HabitNameMaxLength = 4
	cfg.Validation.MaxMinutes = 90
	validator := NewValidatorWithConfig(cfg)

	assert.True(t, validator.IsValidHabitNameLength("Read"))
	assert.False(t, validator.IsValidHabitNameLength("Reading"))
	assert.True(t, validator.IsValidMinutes(90))
	assert.False(t, validator.IsValidMinutes(91))
	assert.False(t, validator.IsValidMinutes(-1))
}

func TestValidator_IsValidClock(t *testing.T) {
	validator := NewValidator()

	assert.True(t, validator.IsValidClock(0, 0))
	assert.True(t, validator.IsValidClock(23, 59))
	assert.False(t, validator.IsValidClock(24, 0))
	assert.False(t, validator.IsValidClock(7, 60))
	assert.False(t, validator.IsValidClock(-1, 30))
}

func TestValidator_ParseNumber(t *testing.T) {
	validator := NewValidator()

	tests := []struct {
		name     string
		input    string
		expected float64
		ok       bool
	}{
		{"Integer", "12", 12, true},
		{"Decimal with spaces", " 2.5 ", 2.5, true},
		{"Negative", "-3", -3, true},
		{"Words", "twelve", 0, false},
		{"NaN", "NaN", 0, false},
		{"Infinity", "Inf", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := validator.ParseNumber(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestValidator_IsFiniteNonNegative(t *testing.T) {
	validator := NewValidator()

	assert.True(t, validator.IsFiniteNonNegative(0))
	assert.False(t, validator.IsFiniteNonNegative(-0.5))
	assert.False(t, validator.IsFiniteNonNegative(math.NaN()))
	assert.False(t, validator.IsFiniteNonNegative(math.Inf(1)))
}
