package sqlite

import (
	"database/sql"
	"fmt"

	"habit-tracker/internal/domain"
	"habit-tracker/internal/repository"
)

// HabitRow mirrors a row of the habits table
type HabitRow struct {
	ID          string
	Name        string
	CadenceKind string
	CadenceDays int64
	MetricKind  string
	Unit        string
	DailyTarget float64
	MinMinutes  int64
	Tiers       string
	Reminders   string
	Archived    bool
	ArchivedAt  sql.NullString
	CreatedAt   string
	UpdatedAt   string
}

// LogEntryRow mirrors a row of the log_entries table
type LogEntryRow struct {
	HabitID     string
	Date        string
	Completed   bool
	Progress    float64
	Badge       string
	CompletedAt sql.NullString
	UpdatedAt   string
}

// NudgeRow mirrors a row of the nudges table
type NudgeRow struct {
	HabitID string
	Date    string
	At      string
}

// TimerRow mirrors a row of the running_timers table
type TimerRow struct {
	HabitID   string
	StartedAt string
}

// NewHabitRow flattens a habit into column values
func NewHabitRow(h domain.Habit) (HabitRow, error) {
	record := repository.HabitToRecord(h)
	tiers, err := repository.EncodeTiers(record.Tiers)
	if err != nil {
		return HabitRow{}, fmt.Errorf("encode tiers: %w", err)
	}
	reminders, err := repository.EncodeReminders(record.Reminders)
	if err != nil {
		return HabitRow{}, fmt.Errorf("encode reminders: %w", err)
	}
	row := HabitRow{
		ID:          record.ID,
		Name:        record.Name,
		CadenceKind: record.CadenceKind,
		CadenceDays: int64(record.Days),
		MetricKind:  record.MetricKind,
		Unit:        record.Unit,
		DailyTarget: record.DailyTarget,
		MinMinutes:  int64(record.MinMinutes),
		Tiers:       tiers,
		Reminders:   reminders,
		Archived:    record.Archived,
		CreatedAt:   FormatTimeForDB(record.CreatedAt),
		UpdatedAt:   FormatTimeForDB(record.UpdatedAt),
	}
	if record.ArchivedAt != nil {
		row.ArchivedAt = sql.NullString{String: FormatTimeForDB(*record.ArchivedAt), Valid: true}
	}
	return row, nil
}

// ToDomain decodes the row, returning an error for any malformed column
func (r HabitRow) ToDomain() (domain.Habit, error) {
	tiers, err := repository.DecodeTiers(r.Tiers)
	if err != nil {
		return domain.Habit{}, fmt.Errorf("decode tiers: %w", err)
	}
	reminders, err := repository.DecodeReminders(r.Reminders)
	if err != nil {
		return domain.Habit{}, fmt.Errorf("decode reminders: %w", err)
	}
	archivedAt, err := ParseNullTimeFromDB(r.ArchivedAt)
	if err != nil {
		return domain.Habit{}, fmt.Errorf("parse archived_at: %w", err)
	}
	createdAt, err := ParseTimeFromDB(r.CreatedAt)
	if err != nil {
		return domain.Habit{}, fmt.Errorf("parse created_at: %w", err)
	}
	updatedAt, err := ParseTimeFromDB(r.UpdatedAt)
	if err != nil {
		return domain.Habit{}, fmt.Errorf("parse updated_at: %w", err)
	}
	if r.CadenceDays < 0 || r.CadenceDays > int64(domain.EveryWeekday) {
		return domain.Habit{}, fmt.Errorf("cadence days out of range: %d", r.CadenceDays)
	}

	return repository.HabitRecord{
		ID:          r.ID,
		Name:        r.Name,
		CadenceKind: r.CadenceKind,
		Days:        domain.WeekdaySet(r.CadenceDays),
		MetricKind:  r.MetricKind,
		Unit:        r.Unit,
		DailyTarget: r.DailyTarget,
		MinMinutes:  int(r.MinMinutes),
		Tiers:       tiers,
		Reminders:   reminders,
		Archived:    r.Archived,
		ArchivedAt:  archivedAt,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}.ToDomain()
}

// NewLogEntryRow flattens a log entry into column values
func NewLogEntryRow(e domain.LogEntry) LogEntryRow {
	row := LogEntryRow{
		HabitID:   e.HabitID,
		Date:      FormatDateForDB(e.Date),
		Completed: e.Completed,
		Progress:  e.Progress,
		Badge:     e.Badge,
		UpdatedAt: FormatTimeForDB(e.UpdatedAt),
	}
	if e.CompletedAt != nil {
		row.CompletedAt = sql.NullString{String: FormatTimeForDB(*e.CompletedAt), Valid: true}
	}
	return row
}

// ToDomain decodes the row
func (r LogEntryRow) ToDomain() (domain.LogEntry, error) {
	date, err := ParseDateFromDB(r.Date)
	if err != nil {
		return domain.LogEntry{}, fmt.Errorf("parse date: %w", err)
	}
	completedAt, err := ParseNullTimeFromDB(r.CompletedAt)
	if err != nil {
		return domain.LogEntry{}, fmt.Errorf("parse completed_at: %w", err)
	}
	updatedAt, err := ParseTimeFromDB(r.UpdatedAt)
	if err != nil {
		return domain.LogEntry{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return domain.LogEntry{
		HabitID:     r.HabitID,
		Date:        date,
		Completed:   r.Completed,
		Progress:    r.Progress,
		Badge:       r.Badge,
		CompletedAt: completedAt,
		UpdatedAt:   updatedAt,
	}, nil
}

// ToDomain decodes the row
func (r NudgeRow) ToDomain() (domain.Nudge, error) {
	date, err := ParseDateFromDB(r.Date)
	if err != nil {
		return domain.Nudge{}, fmt.Errorf("parse date: %w", err)
	}
	at, err := ParseTimeFromDB(r.At)
	if err != nil {
		return domain.Nudge{}, fmt.Errorf("parse at: %w", err)
	}
	return domain.Nudge{HabitID: r.HabitID, Date: date, At: at}, nil
}

// ToDomain decodes the row
func (r TimerRow) ToDomain() (domain.RunningTimer, error) {
	startedAt, err := ParseTimeFromDB(r.StartedAt)
	if err != nil {
		return domain.RunningTimer{}, fmt.Errorf("parse started_at: %w", err)
	}
	return domain.RunningTimer{HabitID: r.HabitID, StartedAt: startedAt}, nil
}
