package validation

import (
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"habit-tracker/internal/config"
)

// Validator provides common validation utilities
type Validator struct {
	config *config.Config
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{
		config: nil, // Use defaults
	}
}

// NewValidatorWithConfig creates a new validator instance with configuration
func NewValidatorWithConfig(cfg *config.Config) *Validator {
	return &Validator{
		config: cfg,
	}
}

// IsNonEmptyString checks if a string is not empty after trimming whitespace
func (v *Validator) IsNonEmptyString(s string) bool {
	return strings.TrimSpace(s) != ""
}

// IsValidStringLength checks if a string's rune count is within the specified range
func (v *Validator) IsValidStringLength(s string, min, max int) bool {
	length := utf8.RuneCountInString(strings.TrimSpace(s))
	return length >= min && length <= max
}

// IsValidHabitNameLength checks if a habit name length is within configured limits
func (v *Validator) IsValidHabitNameLength(name string) bool {
	return v.IsValidStringLength(name, v.getHabitNameMinLength(), v.getHabitNameMaxLength())
}

// IsValidHabitName rejects control characters; any printable text is allowed
func (v *Validator) IsValidHabitName(name string) bool {
	for _, r := range name {
		if !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}

// IsValidMinutes checks a minute count against the configured ceiling
func (v *Validator) IsValidMinutes(minutes int) bool {
	return minutes >= 0 && minutes <= v.getMaxMinutes()
}

// IsValidClock checks a wall-clock hour and minute
func (v *Validator) IsValidClock(hour, minute int) bool {
	return hour >= 0 && hour <= 23 && minute >= 0 && minute <= 59
}

// IsFiniteNonNegative rejects NaN, infinities and negative numbers
func (v *Validator) IsFiniteNonNegative(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0) && f >= 0
}

// ParseNumber parses user-entered numeric text
func (v *Validator) ParseNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// TrimAndValidateString trims whitespace and returns the cleaned string
func (v *Validator) TrimAndValidateString(s string) string {
	return strings.TrimSpace(s)
}

func (v *Validator) getHabitNameMinLength() int {
	if v.config != nil {
		return v.config.Validation.HabitNameMinLength
	}
	return 1
}

func (v *Validator) getHabitNameMaxLength() int {
	if v.config != nil {
		return v.config.Validation.HabitNameMaxLength
	}
	return 100
}

func (v *Validator) getMaxMinutes() int {
	if v.config != nil {
		return v.config.Validation.MaxMinutes
	}
	return 24 * 60
}

func (v *Validator) getMaxTiers() int {
	if v.config != nil {
		return v.config.Validation.MaxTiers
	}
	return 10
}

func (v *Validator) getMaxReminders() int {
	if v.config != nil {
		return v.config.Validation.MaxReminders
	}
	return 10
}
