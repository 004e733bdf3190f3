package sqlite

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestScanner implements the Scanner interface for testing
type TestScanner struct {
	data []interface{}
	err  error
}

func (ts *TestScanner) Scan(dest ...interface{}) error {
	if ts.err != nil {
		return ts.err
	}

	if len(dest) != len(ts.data) {
		return errors.New("mismatch in number of destinations")
	}

	for i, d := range dest {
		switch v := d.(type) {
		case *int64:
			*v = ts.data[i].(int64)
		case *float64:
			*v = ts.data[i].(float64)
		case *bool:
			*v = ts.data[i].(bool)
		case *string:
			*v = ts.data[i].(string)
		case *sql.NullString:
			*v = ts.data[i].(sql.NullString)
		}
	}

	return nil
}

// TestRows implements the Rows interface for testing
type TestRows struct {
	rows  [][]interface{}
	index int
	err   error
}

func (tr *TestRows) Next() bool {
	tr.index++
	return tr.index <= len(tr.rows)
}

func (tr *TestRows) Scan(dest ...interface{}) error {
	return (&TestScanner{data: tr.rows[tr.index-1]}).Scan(dest...)
}

func (tr *TestRows) Err() error {
	return tr.err
}

func habitData(id string) []interface{} {
	return []interface{}{
		id, "Read", "specific_days", int64(42), "timed", "", float64(0), int64(20),
		`[{"threshold":5,"badge":"red"}]`, `[{"hour":7,"minute":30}]`, false,
		sql.NullString{}, "2024-03-04T08:00:00Z", "2024-03-04T08:00:00Z",
	}
}

func TestScanHabit(t *testing.T) {
	tests := []struct {
		name           string
		scanner        *TestScanner
		errorAssertion func(t *testing.T, err error)
	}{
		{
			name:    "should scan every habit column",
			scanner: &TestScanner{data: habitData("h-1")},
			errorAssertion: func(t *testing.T, err error) {
				assert.NoError(t, err)
			},
		},
		{
			name:    "should propagate scanner errors",
			scanner: &TestScanner{err: sql.ErrNoRows},
			errorAssertion: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, sql.ErrNoRows)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			row, err := ScanHabit(tt.scanner)

			// Assert
			tt.errorAssertion(t, err)
			if err == nil {
				assert.Equal(t, "h-1", row.ID)
				assert.Equal(t, int64(42), row.CadenceDays)
				assert.Equal(t, int64(20), row.MinMinutes)
				assert.False(t, row.ArchivedAt.Valid)
			}
		})
	}
}

func TestScanHabits(t *testing.T) {
	rows := &TestRows{rows: [][]interface{}{habitData("h-1"), habitData("h-2")}}

	result, err := ScanHabits(rows)

	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "h-2", result[1].ID)
}

func TestScanHabits_RowsError(t *testing.T) {
	rows := &TestRows{err: errors.New("cursor failed")}

	result, err := ScanHabits(rows)

	assert.EqualError(t, err, "cursor failed")
	assert.Nil(t, result)
}

func TestScanLogEntry(t *testing.T) {
	scanner := &TestScanner{data: []interface{}{
		"h-1", "2024-03-04", true, float64(12.5), "yellow",
		sql.NullString{String: "2024-03-04T09:00:00Z", Valid: true}, "2024-03-04T09:00:00Z",
	}}

	row, err := ScanLogEntry(scanner)

	require.NoError(t, err)
	assert.Equal(t, "2024-03-04", row.Date)
	assert.True(t, row.Completed)
	assert.Equal(t, 12.5, row.Progress)
	assert.True(t, row.CompletedAt.Valid)
}

func TestScanNudgesAndTimers(t *testing.T) {
	nudges, err := ScanNudges(&TestRows{rows: [][]interface{}{{"h-1", "2024-03-04", "2024-03-04T07:30:00Z"}}})
	require.NoError(t, err)
	require.Len(t, nudges, 1)
	assert.Equal(t, "2024-03-04T07:30:00Z", nudges[0].At)

	timers, err := ScanTimers(&TestRows{rows: [][]interface{}{{"h-1", "2024-03-04T07:30:00Z"}}})
	require.NoError(t, err)
	require.Len(t, timers, 1)
	assert.Equal(t, "h-1", timers[0].HabitID)
}
