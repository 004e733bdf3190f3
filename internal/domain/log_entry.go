package domain

import "time"

// LogEntry is the progress record for one habit on one calendar date.
// There is at most one entry per (HabitID, Date).
type LogEntry struct {
	HabitID     string
	Date        Date
	Completed   bool
	Progress    float64
	Badge       string
	CompletedAt *time.Time
	UpdatedAt   time.Time
}

// NewLogEntry returns the zero-progress entry for a habit on a date.
func NewLogEntry(habitID string, date Date) LogEntry {
	return LogEntry{HabitID: habitID, Date: date}
}

// HasBadge reports whether a badge was awarded.
func (e LogEntry) HasBadge() bool {
	return e.Badge != ""
}

// RunningTimer is recoverable state for a timed session that has not been stopped.
type RunningTimer struct {
	HabitID   string
	StartedAt time.Time
}

// Nudge records the instant a reminder was scheduled to fire for a habit on a date.
type Nudge struct {
	HabitID string
	Date    Date
	At      time.Time
}
