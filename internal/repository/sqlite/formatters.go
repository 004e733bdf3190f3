package sqlite

import (
	"database/sql"
	"time"

	"habit-tracker/internal/domain"
)

// FormatTimeForDB formats a time.Time value as a UTC RFC3339 string so that
// lexical order in the database matches chronological order
func FormatTimeForDB(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// FormatTimePtrForDB formats a *time.Time value as RFC3339 string, returning nil if the pointer is nil
func FormatTimePtrForDB(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return FormatTimeForDB(*t)
}

// ParseTimeFromDB parses an RFC3339 formatted time string from the database
func ParseTimeFromDB(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// ParseNullTimeFromDB parses a nullable RFC3339 column
func ParseNullTimeFromDB(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := ParseTimeFromDB(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// FormatDateForDB renders a calendar date as YYYY-MM-DD
func FormatDateForDB(d domain.Date) string {
	return d.String()
}

// ParseDateFromDB parses a YYYY-MM-DD column
func ParseDateFromDB(s string) (domain.Date, error) {
	return domain.ParseDate(s)
}
