package sqlite

// Scanner interface defines the common scanning behavior for both sql.Row and sql.Rows
type Scanner interface {
	Scan(dest ...interface{}) error
}

// Rows interface defines the common behavior for sql.Rows
type Rows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

const habitColumns = `id, name, cadence_kind, cadence_days, metric_kind, unit, daily_target,
	min_minutes, tiers, reminders, archived, archived_at, created_at, updated_at`

const logEntryColumns = `habit_id, date, completed, progress, badge, completed_at, updated_at`

// ScanHabit scans a single habit from a database row
func ScanHabit(scanner Scanner) (*HabitRow, error) {
	row := &HabitRow{}
	err := scanner.Scan(
		&row.ID,
		&row.Name,
		&row.CadenceKind,
		&row.CadenceDays,
		&row.MetricKind,
		&row.Unit,
		&row.DailyTarget,
		&row.MinMinutes,
		&row.Tiers,
		&row.Reminders,
		&row.Archived,
		&row.ArchivedAt,
		&row.CreatedAt,
		&row.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return row, nil
}

// ScanHabits scans multiple habits from database rows
func ScanHabits(rows Rows) ([]*HabitRow, error) {
	return scanAll(rows, ScanHabit)
}

// ScanLogEntry scans a single log entry from a database row
func ScanLogEntry(scanner Scanner) (*LogEntryRow, error) {
	row := &LogEntryRow{}
	err := scanner.Scan(
		&row.HabitID,
		&row.Date,
		&row.Completed,
		&row.Progress,
		&row.Badge,
		&row.CompletedAt,
		&row.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return row, nil
}

// ScanLogEntries scans multiple log entries from database rows
func ScanLogEntries(rows Rows) ([]*LogEntryRow, error) {
	return scanAll(rows, ScanLogEntry)
}

// ScanNudge scans a single nudge from a database row
func ScanNudge(scanner Scanner) (*NudgeRow, error) {
	row := &NudgeRow{}
	if err := scanner.Scan(&row.HabitID, &row.Date, &row.At); err != nil {
		return nil, err
	}
	return row, nil
}

// ScanNudges scans multiple nudges from database rows
func ScanNudges(rows Rows) ([]*NudgeRow, error) {
	return scanAll(rows, ScanNudge)
}

// ScanTimer scans a single running timer from a database row
func ScanTimer(scanner Scanner) (*TimerRow, error) {
	row := &TimerRow{}
	if err := scanner.Scan(&row.HabitID, &row.StartedAt); err != nil {
		return nil, err
	}
	return row, nil
}

// ScanTimers scans multiple running timers from database rows
func ScanTimers(rows Rows) ([]*TimerRow, error) {
	return scanAll(rows, ScanTimer)
}

func scanAll[T any](rows Rows, scan func(Scanner) (*T, error)) ([]*T, error) {
	var results []*T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}
