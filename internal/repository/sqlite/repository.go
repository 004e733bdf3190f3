package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"habit-tracker/internal/domain"
	"habit-tracker/internal/errors"
	"habit-tracker/internal/metrics"
	"habit-tracker/internal/repository"
	"habit-tracker/internal/repository/sqlite/migrations"

	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

const backendName = "sqlite"

// Options tunes a SQLite repository. Zero values fall back to defaults.
type Options struct {
	QueryTimeout   time.Duration
	WriteTimeout   time.Duration
	DirPermissions os.FileMode
	Logger         *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.QueryTimeout <= 0 {
		o.QueryTimeout = 10 * time.Second
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 5 * time.Second
	}
	if o.DirPermissions == 0 {
		o.DirPermissions = 0755
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// SQLiteRepository implements repository.Repository on a single SQLite file
type SQLiteRepository struct {
	db   *sql.DB
	opts Options
	log  *zap.Logger
}

var _ repository.Repository = (*SQLiteRepository)(nil)

// New creates a new SQLite repository instance with default options
func New(dbPath string) (*SQLiteRepository, error) {
	return NewWithOptions(dbPath, Options{})
}

// NewWithOptions opens the database, creating its directory if needed, and
// brings the schema up to date.
func NewWithOptions(dbPath string, opts Options) (*SQLiteRepository, error) {
	opts = opts.withDefaults()

	if dbPath != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(dbPath), opts.DirPermissions); err != nil {
			return nil, errors.NewStorageError("create database directory", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.NewStorageError("open database", err)
	}
	// one writer at a time; also keeps a :memory: database on a single connection
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), opts.WriteTimeout)
	defer cancel()
	if err := migrations.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, errors.NewStorageError("run migrations", err)
	}

	return &SQLiteRepository{
		db:   db,
		opts: opts,
		log:  opts.Logger.With(zap.String("backend", backendName)),
	}, nil
}

// Close closes the database connection
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) observe(operation string) func() {
	start := time.Now()
	return func() { metrics.ObserveStoreOperation(backendName, operation, start) }
}

func (r *SQLiteRepository) readContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.opts.QueryTimeout)
}

func (r *SQLiteRepository) writeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.opts.WriteTimeout)
}

func (r *SQLiteRepository) skipCorrupt(resource, key string, err error) {
	r.log.Warn("skipping unreadable record",
		zap.String("resource", resource),
		zap.String("key", key),
		zap.Error(errors.NewCorruptDataError(resource, key, err)))
}

// ListHabits returns every habit ordered by creation time
func (r *SQLiteRepository) ListHabits(ctx context.Context) ([]domain.Habit, error) {
	defer r.observe("list_habits")()
	ctx, cancel := r.readContext(ctx)
	defer cancel()

	query := `SELECT ` + habitColumns + ` FROM habits ORDER BY created_at ASC, name ASC`
	rows, err := QueryMultiple(ctx, r.db, query, ScanHabits, "habits")
	if err != nil {
		return nil, err
	}

	habits := make([]domain.Habit, 0, len(rows))
	for _, row := range rows {
		habit, err := row.ToDomain()
		if err != nil {
			r.skipCorrupt("habit", row.ID, err)
			continue
		}
		habits = append(habits, habit)
	}
	repository.SortHabits(habits)
	return habits, nil
}

// GetHabit retrieves a habit by ID
func (r *SQLiteRepository) GetHabit(ctx context.Context, id string) (domain.Habit, error) {
	defer r.observe("get_habit")()
	ctx, cancel := r.readContext(ctx)
	defer cancel()

	query := `SELECT ` + habitColumns + ` FROM habits WHERE id = ?`
	row, err := QuerySingle(ctx, r.db, query, ScanHabit, "habit", id, id)
	if err != nil {
		return domain.Habit{}, err
	}
	habit, err := row.ToDomain()
	if err != nil {
		r.skipCorrupt("habit", id, err)
		return domain.Habit{}, errors.NewNotFoundError("habit", id)
	}
	return habit, nil
}

// UpsertHabit inserts the habit or replaces the stored copy
func (r *SQLiteRepository) UpsertHabit(ctx context.Context, habit domain.Habit) error {
	defer r.observe("upsert_habit")()
	ctx, cancel := r.writeContext(ctx)
	defer cancel()

	row, err := NewHabitRow(habit)
	if err != nil {
		return errors.NewStorageError("encode habit", err)
	}

	query := `
	INSERT INTO habits (` + habitColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		name = excluded.name,
		cadence_kind = excluded.cadence_kind,
		cadence_days = excluded.cadence_days,
		metric_kind = excluded.metric_kind,
		unit = excluded.unit,
		daily_target = excluded.daily_target,
		min_minutes = excluded.min_minutes,
		tiers = excluded.tiers,
		reminders = excluded.reminders,
		archived = excluded.archived,
		archived_at = excluded.archived_at,
		created_at = excluded.created_at,
		updated_at = excluded.updated_at`

	return Execute(ctx, r.db, "upsert habit", query,
		row.ID, row.Name, row.CadenceKind, row.CadenceDays, row.MetricKind, row.Unit,
		row.DailyTarget, row.MinMinutes, row.Tiers, row.Reminders, row.Archived,
		row.ArchivedAt, row.CreatedAt, row.UpdatedAt)
}

// DeleteHabit removes a habit and everything recorded against it
func (r *SQLiteRepository) DeleteHabit(ctx context.Context, id string) error {
	defer r.observe("delete_habit")()
	ctx, cancel := r.writeContext(ctx)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return HandleDatabaseError("begin transaction", err)
	}
	defer tx.Rollback()

	if err := ExecuteWithRowsAffected(ctx, tx, `DELETE FROM habits WHERE id = ?`, "habit", id, id); err != nil {
		return err
	}
	for _, query := range []string{
		`DELETE FROM log_entries WHERE habit_id = ?`,
		`DELETE FROM nudges WHERE habit_id = ?`,
		`DELETE FROM running_timers WHERE habit_id = ?`,
	} {
		if err := Execute(ctx, tx, "delete habit", query, id); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return HandleDatabaseError("commit transaction", err)
	}
	return nil
}

// GetLogEntries returns every entry recorded on the given date
func (r *SQLiteRepository) GetLogEntries(ctx context.Context, date domain.Date) ([]domain.LogEntry, error) {
	return r.GetLogEntriesRange(ctx, date, date)
}

// GetLogEntriesRange returns entries with from <= date <= to
func (r *SQLiteRepository) GetLogEntriesRange(ctx context.Context, from, to domain.Date) ([]domain.LogEntry, error) {
	defer r.observe("get_log_entries")()
	ctx, cancel := r.readContext(ctx)
	defer cancel()

	query := `
	SELECT ` + logEntryColumns + `
	FROM log_entries
	WHERE date >= ? AND date <= ?
	ORDER BY date ASC, habit_id ASC`

	rows, err := QueryMultiple(ctx, r.db, query, ScanLogEntries, "log entries", FormatDateForDB(from), FormatDateForDB(to))
	if err != nil {
		return nil, err
	}
	return r.decodeLogEntries(rows), nil
}

// ListLogEntriesForHabit returns a habit's entries in date order
func (r *SQLiteRepository) ListLogEntriesForHabit(ctx context.Context, habitID string) ([]domain.LogEntry, error) {
	defer r.observe("list_log_entries")()
	ctx, cancel := r.readContext(ctx)
	defer cancel()

	query := `
	SELECT ` + logEntryColumns + `
	FROM log_entries
	WHERE habit_id = ?
	ORDER BY date ASC`

	rows, err := QueryMultiple(ctx, r.db, query, ScanLogEntries, "log entries", habitID)
	if err != nil {
		return nil, err
	}
	return r.decodeLogEntries(rows), nil
}

func (r *SQLiteRepository) decodeLogEntries(rows []*LogEntryRow) []domain.LogEntry {
	entries := make([]domain.LogEntry, 0, len(rows))
	for _, row := range rows {
		entry, err := row.ToDomain()
		if err != nil {
			r.skipCorrupt("log entry", row.HabitID+"/"+row.Date, err)
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

// UpsertLogEntry writes the entry for (habit, date), replacing any previous one
func (r *SQLiteRepository) UpsertLogEntry(ctx context.Context, entry domain.LogEntry) error {
	defer r.observe("upsert_log_entry")()
	ctx, cancel := r.writeContext(ctx)
	defer cancel()

	row := NewLogEntryRow(entry)
	query := `
	INSERT INTO log_entries (` + logEntryColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (habit_id, date) DO UPDATE SET
		completed = excluded.completed,
		progress = excluded.progress,
		badge = excluded.badge,
		completed_at = excluded.completed_at,
		updated_at = excluded.updated_at`

	return Execute(ctx, r.db, "upsert log entry", query,
		row.HabitID, row.Date, row.Completed, row.Progress, row.Badge, row.CompletedAt, row.UpdatedAt)
}

// DeleteLogEntry removes the entry for (habit, date) if present
func (r *SQLiteRepository) DeleteLogEntry(ctx context.Context, habitID string, date domain.Date) error {
	defer r.observe("delete_log_entry")()
	ctx, cancel := r.writeContext(ctx)
	defer cancel()

	query := `DELETE FROM log_entries WHERE habit_id = ? AND date = ?`
	return Execute(ctx, r.db, "delete log entry", query, habitID, FormatDateForDB(date))
}

// RecordNudge stores a scheduled reminder; the same instant is stored once
func (r *SQLiteRepository) RecordNudge(ctx context.Context, nudge domain.Nudge) error {
	defer r.observe("record_nudge")()
	ctx, cancel := r.writeContext(ctx)
	defer cancel()

	query := `
	INSERT INTO nudges (habit_id, date, at) VALUES (?, ?, ?)
	ON CONFLICT (habit_id, at) DO UPDATE SET date = excluded.date`

	return Execute(ctx, r.db, "record nudge", query,
		nudge.HabitID, FormatDateForDB(nudge.Date), FormatTimeForDB(nudge.At))
}

// ListNudges returns a habit's nudges by fire time
func (r *SQLiteRepository) ListNudges(ctx context.Context, habitID string) ([]domain.Nudge, error) {
	defer r.observe("list_nudges")()
	ctx, cancel := r.readContext(ctx)
	defer cancel()

	query := `SELECT habit_id, date, at FROM nudges WHERE habit_id = ? ORDER BY at ASC`
	rows, err := QueryMultiple(ctx, r.db, query, ScanNudges, "nudges", habitID)
	if err != nil {
		return nil, err
	}

	nudges := make([]domain.Nudge, 0, len(rows))
	for _, row := range rows {
		nudge, err := row.ToDomain()
		if err != nil {
			r.skipCorrupt("nudge", row.HabitID+"@"+row.At, err)
			continue
		}
		nudges = append(nudges, nudge)
	}
	repository.SortNudges(nudges)
	return nudges, nil
}

// DeleteNudgesFrom drops a habit's nudges scheduled at or after from
func (r *SQLiteRepository) DeleteNudgesFrom(ctx context.Context, habitID string, from time.Time) error {
	defer r.observe("delete_nudges")()
	ctx, cancel := r.writeContext(ctx)
	defer cancel()

	query := `DELETE FROM nudges WHERE habit_id = ? AND at >= ?`
	return Execute(ctx, r.db, "delete nudges", query, habitID, FormatTimeForDB(from))
}

// SaveRunningTimer stores or replaces the running timer for a habit
func (r *SQLiteRepository) SaveRunningTimer(ctx context.Context, timer domain.RunningTimer) error {
	defer r.observe("save_timer")()
	ctx, cancel := r.writeContext(ctx)
	defer cancel()

	query := `
	INSERT INTO running_timers (habit_id, started_at) VALUES (?, ?)
	ON CONFLICT (habit_id) DO UPDATE SET started_at = excluded.started_at`

	return Execute(ctx, r.db, "save running timer", query, timer.HabitID, FormatTimeForDB(timer.StartedAt))
}

// DeleteRunningTimer clears a habit's running timer if one exists
func (r *SQLiteRepository) DeleteRunningTimer(ctx context.Context, habitID string) error {
	defer r.observe("delete_timer")()
	ctx, cancel := r.writeContext(ctx)
	defer cancel()

	return Execute(ctx, r.db, "delete running timer", `DELETE FROM running_timers WHERE habit_id = ?`, habitID)
}

// ListRunningTimers returns all persisted timers
func (r *SQLiteRepository) ListRunningTimers(ctx context.Context) ([]domain.RunningTimer, error) {
	defer r.observe("list_timers")()
	ctx, cancel := r.readContext(ctx)
	defer cancel()

	query := `SELECT habit_id, started_at FROM running_timers ORDER BY habit_id ASC`
	rows, err := QueryMultiple(ctx, r.db, query, ScanTimers, "running timers")
	if err != nil {
		return nil, err
	}

	timers := make([]domain.RunningTimer, 0, len(rows))
	for _, row := range rows {
		timer, err := row.ToDomain()
		if err != nil {
			r.skipCorrupt("running timer", row.HabitID, err)
			continue
		}
		timers = append(timers, timer)
	}
	return timers, nil
}
