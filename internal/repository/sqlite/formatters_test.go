package sqlite

import (
	"database/sql"
	"testing"
	"time"

	"habit-tracker/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTimeForDB(t *testing.T) {
	tests := []struct {
		name     string
		input    time.Time
		expected string
	}{
		{
			name:     "should format UTC time",
			input:    time.Date(2024, 1, 15, 10, 30, 45, 0, time.UTC),
			expected: "2024-01-15T10:30:45Z",
		},
		{
			name:     "should convert offsets to UTC",
			input:    time.Date(2024, 6, 15, 14, 30, 0, 0, time.FixedZone("EST", -5*3600)),
			expected: "2024-06-15T19:30:00Z",
		},
		{
			name:     "should drop sub-second precision",
			input:    time.Date(2024, 3, 10, 9, 15, 30, 123456789, time.UTC),
			expected: "2024-03-10T09:15:30Z",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatTimeForDB(tt.input))
		})
	}
}

func TestFormatTimePtrForDB(t *testing.T) {
	at := time.Date(2024, 1, 15, 10, 30, 45, 0, time.UTC)

	assert.Nil(t, FormatTimePtrForDB(nil))
	assert.Equal(t, "2024-01-15T10:30:45Z", FormatTimePtrForDB(&at))
}

func TestParseTimeFromDB(t *testing.T) {
	tests := []struct {
		name           string
		input          string
		expected       time.Time
		errorAssertion func(t *testing.T, err error)
	}{
		{
			name:     "should parse UTC value",
			input:    "2024-01-15T10:30:45Z",
			expected: time.Date(2024, 1, 15, 10, 30, 45, 0, time.UTC),
			errorAssertion: func(t *testing.T, err error) {
				assert.NoError(t, err)
			},
		},
		{
			name:     "should normalise offsets to UTC",
			input:    "2024-06-15T14:30:00-05:00",
			expected: time.Date(2024, 6, 15, 19, 30, 0, 0, time.UTC),
			errorAssertion: func(t *testing.T, err error) {
				assert.NoError(t, err)
			},
		},
		{
			name:  "should reject legacy sqlite timestamps",
			input: "2024-01-15 10:30:45",
			errorAssertion: func(t *testing.T, err error) {
				assert.Error(t, err)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseTimeFromDB(tt.input)
			tt.errorAssertion(t, err)
			if err == nil {
				assert.True(t, tt.expected.Equal(result))
				assert.Equal(t, time.UTC, result.Location())
			}
		})
	}
}

func TestParseNullTimeFromDB(t *testing.T) {
	got, err := ParseNullTimeFromDB(sql.NullString{})
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = ParseNullTimeFromDB(sql.NullString{String: "2024-01-15T10:30:45Z", Valid: true})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 15, got.Day())

	_, err = ParseNullTimeFromDB(sql.NullString{String: "garbage", Valid: true})
	assert.Error(t, err)
}

func TestDateRoundTrip(t *testing.T) {
	date := domain.NewDate(2024, time.February, 29)

	formatted := FormatDateForDB(date)
	parsed, err := ParseDateFromDB(formatted)

	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", formatted)
	assert.Equal(t, date, parsed)
}
