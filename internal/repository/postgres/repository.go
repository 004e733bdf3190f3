// Package postgres stores habits in PostgreSQL through a pgx connection pool.
package postgres

import (
	"context"
	_ "embed"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"habit-tracker/internal/domain"
	"habit-tracker/internal/errors"
	"habit-tracker/internal/metrics"
	"habit-tracker/internal/repository"
)

//go:embed schema.sql
var schema string

const backendName = "postgres"

// Options configures the connection pool.
type Options struct {
	DSN          string
	MaxConns     int32
	QueryTimeout time.Duration
	WriteTimeout time.Duration
	Logger       *zap.Logger
}

// Repository implements repository.Repository on PostgreSQL.
type Repository struct {
	db     *pgxpool.Pool
	opts   Options
	logger *zap.Logger
}

var _ repository.Repository = (*Repository)(nil)

// New opens the pool, pings the server and applies the schema.
func New(ctx context.Context, opts Options) (*Repository, error) {
	if opts.QueryTimeout <= 0 {
		opts.QueryTimeout = 10 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 5 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	logger := opts.Logger.With(zap.String("backend", backendName))

	poolCfg, err := pgxpool.ParseConfig(opts.DSN)
	if err != nil {
		logger.Error("Failed to parse db config", zap.Error(err))
		return nil, errors.NewStorageError("parse postgres dsn", err)
	}
	if opts.MaxConns > 0 {
		poolCfg.MaxConns = opts.MaxConns
	}
	poolCfg.MaxConnIdleTime = time.Minute

	connectCtx, cancel := context.WithTimeout(ctx, opts.QueryTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolCfg)
	if err != nil {
		return nil, errors.NewStorageError("connect to postgres", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, errors.NewStorageError("ping postgres", err)
	}
	if _, err := pool.Exec(connectCtx, schema); err != nil {
		pool.Close()
		return nil, errors.NewStorageError("apply postgres schema", err)
	}

	logger.Info("PostgreSQL connection established",
		zap.String("host", poolCfg.ConnConfig.Host),
		zap.String("db", poolCfg.ConnConfig.Database),
	)
	return &Repository{db: pool, opts: opts, logger: logger}, nil
}

func (r *Repository) Close() error {
	r.db.Close()
	return nil
}

func (r *Repository) observe(operation string) func() {
	start := time.Now()
	return func() { metrics.ObserveStoreOperation(backendName, operation, start) }
}

func (r *Repository) fail(operation string, err error) error {
	r.logger.Error("postgres operation failed", zap.String("operation", operation), zap.Error(err))
	if mapped := errors.FromContext(operation, err); mapped != err {
		return mapped
	}
	return errors.NewStorageError(operation, err)
}

func (r *Repository) skipCorrupt(resource, key string, err error) {
	r.logger.Warn("skipping unreadable record",
		zap.String("resource", resource),
		zap.String("key", key),
		zap.Error(errors.NewCorruptDataError(resource, key, err)))
}

func dateParam(d domain.Date) time.Time {
	return d.At(0, 0, time.UTC)
}

func timePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}

const habitColumns = `id, name, cadence_kind, cadence_days, metric_kind, unit, daily_target,
	min_minutes, tiers, reminders, archived, archived_at, created_at, updated_at`

func scanHabit(row pgx.Row) (domain.Habit, string, error) {
	var (
		record    repository.HabitRecord
		days      int32
		minutes   int32
		tiers     string
		reminders string
	)
	err := row.Scan(
		&record.ID,
		&record.Name,
		&record.CadenceKind,
		&days,
		&record.MetricKind,
		&record.Unit,
		&record.DailyTarget,
		&minutes,
		&tiers,
		&reminders,
		&record.Archived,
		&record.ArchivedAt,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return domain.Habit{}, "", err
	}
	if days < 0 || days > int32(domain.EveryWeekday) {
		return domain.Habit{}, record.ID, fmt.Errorf("%w: cadence days out of range: %d", errCorrupt, days)
	}
	record.Days = domain.WeekdaySet(days)
	record.MinMinutes = int(minutes)
	record.ArchivedAt = timePtr(record.ArchivedAt)
	record.CreatedAt = record.CreatedAt.UTC()
	record.UpdatedAt = record.UpdatedAt.UTC()

	if record.Tiers, err = repository.DecodeTiers(tiers); err != nil {
		return domain.Habit{}, record.ID, fmt.Errorf("%w: %v", errCorrupt, err)
	}
	if record.Reminders, err = repository.DecodeReminders(reminders); err != nil {
		return domain.Habit{}, record.ID, fmt.Errorf("%w: %v", errCorrupt, err)
	}
	habit, err := record.ToDomain()
	if err != nil {
		return domain.Habit{}, record.ID, fmt.Errorf("%w: %v", errCorrupt, err)
	}
	return habit, record.ID, nil
}

var errCorrupt = stderrors.New("corrupt record")

func (r *Repository) ListHabits(ctx context.Context) ([]domain.Habit, error) {
	defer r.observe("list_habits")()
	ctx, cancel := context.WithTimeout(ctx, r.opts.QueryTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `SELECT `+habitColumns+` FROM habits ORDER BY created_at ASC, name ASC`)
	if err != nil {
		return nil, r.fail("list habits", err)
	}
	defer rows.Close()

	var habits []domain.Habit
	for rows.Next() {
		habit, id, err := scanHabit(rows)
		if err != nil {
			if !stderrors.Is(err, errCorrupt) {
				return nil, r.fail("scan habit", err)
			}
			r.skipCorrupt("habit", id, err)
			continue
		}
		habits = append(habits, habit)
	}
	if err := rows.Err(); err != nil {
		return nil, r.fail("list habits", err)
	}
	repository.SortHabits(habits)
	return habits, nil
}

func (r *Repository) GetHabit(ctx context.Context, id string) (domain.Habit, error) {
	defer r.observe("get_habit")()
	ctx, cancel := context.WithTimeout(ctx, r.opts.QueryTimeout)
	defer cancel()

	row := r.db.QueryRow(ctx, `SELECT `+habitColumns+` FROM habits WHERE id = $1`, id)
	habit, _, err := scanHabit(row)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return domain.Habit{}, errors.NewNotFoundError("habit", id)
	}
	if err != nil {
		if !stderrors.Is(err, errCorrupt) {
			return domain.Habit{}, r.fail("get habit", err)
		}
		r.skipCorrupt("habit", id, err)
		return domain.Habit{}, errors.NewNotFoundError("habit", id)
	}
	return habit, nil
}

func (r *Repository) UpsertHabit(ctx context.Context, habit domain.Habit) error {
	defer r.observe("upsert_habit")()
	ctx, cancel := context.WithTimeout(ctx, r.opts.WriteTimeout)
	defer cancel()

	record := repository.HabitToRecord(habit)
	tiers, err := repository.EncodeTiers(record.Tiers)
	if err != nil {
		return errors.NewStorageError("encode tiers", err)
	}
	reminders, err := repository.EncodeReminders(record.Reminders)
	if err != nil {
		return errors.NewStorageError("encode reminders", err)
	}

	query := `
        INSERT INTO habits (` + habitColumns + `)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
        ON CONFLICT (id) DO UPDATE SET
            name = EXCLUDED.name,
            cadence_kind = EXCLUDED.cadence_kind,
            cadence_days = EXCLUDED.cadence_days,
            metric_kind = EXCLUDED.metric_kind,
            unit = EXCLUDED.unit,
            daily_target = EXCLUDED.daily_target,
            min_minutes = EXCLUDED.min_minutes,
            tiers = EXCLUDED.tiers,
            reminders = EXCLUDED.reminders,
            archived = EXCLUDED.archived,
            archived_at = EXCLUDED.archived_at,
            created_at = EXCLUDED.created_at,
            updated_at = EXCLUDED.updated_at
    `
	_, err = r.db.Exec(ctx, query,
		record.ID, record.Name, record.CadenceKind, int32(record.Days), record.MetricKind,
		record.Unit, record.DailyTarget, int32(record.MinMinutes), tiers, reminders,
		record.Archived, timePtr(record.ArchivedAt), record.CreatedAt.UTC(), record.UpdatedAt.UTC(),
	)
	if err != nil {
		return r.fail("upsert habit", err)
	}
	r.logger.Debug("Habit upserted", zap.String("id", record.ID))
	return nil
}

func (r *Repository) DeleteHabit(ctx context.Context, id string) error {
	defer r.observe("delete_habit")()
	ctx, cancel := context.WithTimeout(ctx, r.opts.WriteTimeout)
	defer cancel()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return r.fail("begin transaction", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `DELETE FROM habits WHERE id = $1`, id)
	if err != nil {
		return r.fail("delete habit", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.NewNotFoundError("habit", id)
	}
	for _, query := range []string{
		`DELETE FROM log_entries WHERE habit_id = $1`,
		`DELETE FROM nudges WHERE habit_id = $1`,
		`DELETE FROM running_timers WHERE habit_id = $1`,
	} {
		if _, err := tx.Exec(ctx, query, id); err != nil {
			return r.fail("delete habit", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return r.fail("commit transaction", err)
	}
	return nil
}

const logEntryColumns = `habit_id, date, completed, progress, badge, completed_at, updated_at`

func (r *Repository) queryLogEntries(ctx context.Context, operation, query string, args ...any) ([]domain.LogEntry, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, r.fail(operation, err)
	}
	defer rows.Close()

	var entries []domain.LogEntry
	for rows.Next() {
		var (
			entry domain.LogEntry
			date  time.Time
		)
		if err := rows.Scan(&entry.HabitID, &date, &entry.Completed, &entry.Progress, &entry.Badge, &entry.CompletedAt, &entry.UpdatedAt); err != nil {
			return nil, r.fail(operation, err)
		}
		entry.Date = domain.DateOf(date, time.UTC)
		entry.CompletedAt = timePtr(entry.CompletedAt)
		entry.UpdatedAt = entry.UpdatedAt.UTC()
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, r.fail(operation, err)
	}
	repository.SortLogEntries(entries)
	return entries, nil
}

func (r *Repository) GetLogEntries(ctx context.Context, date domain.Date) ([]domain.LogEntry, error) {
	return r.GetLogEntriesRange(ctx, date, date)
}

func (r *Repository) GetLogEntriesRange(ctx context.Context, from, to domain.Date) ([]domain.LogEntry, error) {
	defer r.observe("get_log_entries")()
	ctx, cancel := context.WithTimeout(ctx, r.opts.QueryTimeout)
	defer cancel()

	query := `
        SELECT ` + logEntryColumns + `
        FROM log_entries
        WHERE date BETWEEN $1 AND $2
        ORDER BY date ASC, habit_id ASC
    `
	return r.queryLogEntries(ctx, "get log entries", query, dateParam(from), dateParam(to))
}

func (r *Repository) ListLogEntriesForHabit(ctx context.Context, habitID string) ([]domain.LogEntry, error) {
	defer r.observe("list_log_entries")()
	ctx, cancel := context.WithTimeout(ctx, r.opts.QueryTimeout)
	defer cancel()

	query := `SELECT ` + logEntryColumns + ` FROM log_entries WHERE habit_id = $1 ORDER BY date ASC`
	return r.queryLogEntries(ctx, "list log entries", query, habitID)
}

func (r *Repository) UpsertLogEntry(ctx context.Context, entry domain.LogEntry) error {
	defer r.observe("upsert_log_entry")()
	ctx, cancel := context.WithTimeout(ctx, r.opts.WriteTimeout)
	defer cancel()

	query := `
        INSERT INTO log_entries (` + logEntryColumns + `)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (habit_id, date) DO UPDATE SET
            completed = EXCLUDED.completed,
            progress = EXCLUDED.progress,
            badge = EXCLUDED.badge,
            completed_at = EXCLUDED.completed_at,
            updated_at = EXCLUDED.updated_at
    `
	_, err := r.db.Exec(ctx, query,
		entry.HabitID, dateParam(entry.Date), entry.Completed, entry.Progress, entry.Badge,
		timePtr(entry.CompletedAt), entry.UpdatedAt.UTC(),
	)
	if err != nil {
		return r.fail("upsert log entry", err)
	}
	return nil
}

func (r *Repository) DeleteLogEntry(ctx context.Context, habitID string, date domain.Date) error {
	defer r.observe("delete_log_entry")()
	ctx, cancel := context.WithTimeout(ctx, r.opts.WriteTimeout)
	defer cancel()

	if _, err := r.db.Exec(ctx, `DELETE FROM log_entries WHERE habit_id = $1 AND date = $2`, habitID, dateParam(date)); err != nil {
		return r.fail("delete log entry", err)
	}
	return nil
}

func (r *Repository) RecordNudge(ctx context.Context, nudge domain.Nudge) error {
	defer r.observe("record_nudge")()
	ctx, cancel := context.WithTimeout(ctx, r.opts.WriteTimeout)
	defer cancel()

	query := `
        INSERT INTO nudges (habit_id, date, at) VALUES ($1, $2, $3)
        ON CONFLICT (habit_id, at) DO UPDATE SET date = EXCLUDED.date
    `
	if _, err := r.db.Exec(ctx, query, nudge.HabitID, dateParam(nudge.Date), nudge.At.UTC()); err != nil {
		return r.fail("record nudge", err)
	}
	return nil
}

func (r *Repository) ListNudges(ctx context.Context, habitID string) ([]domain.Nudge, error) {
	defer r.observe("list_nudges")()
	ctx, cancel := context.WithTimeout(ctx, r.opts.QueryTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `SELECT habit_id, date, at FROM nudges WHERE habit_id = $1 ORDER BY at ASC`, habitID)
	if err != nil {
		return nil, r.fail("list nudges", err)
	}
	defer rows.Close()

	nudges := []domain.Nudge{}
	for rows.Next() {
		var (
			nudge domain.Nudge
			date  time.Time
		)
		if err := rows.Scan(&nudge.HabitID, &date, &nudge.At); err != nil {
			return nil, r.fail("list nudges", err)
		}
		nudge.Date = domain.DateOf(date, time.UTC)
		nudge.At = nudge.At.UTC()
		nudges = append(nudges, nudge)
	}
	if err := rows.Err(); err != nil {
		return nil, r.fail("list nudges", err)
	}
	return nudges, nil
}

func (r *Repository) DeleteNudgesFrom(ctx context.Context, habitID string, from time.Time) error {
	defer r.observe("delete_nudges")()
	ctx, cancel := context.WithTimeout(ctx, r.opts.WriteTimeout)
	defer cancel()

	if _, err := r.db.Exec(ctx, `DELETE FROM nudges WHERE habit_id = $1 AND at >= $2`, habitID, from.UTC()); err != nil {
		return r.fail("delete nudges", err)
	}
	return nil
}

func (r *Repository) SaveRunningTimer(ctx context.Context, timer domain.RunningTimer) error {
	defer r.observe("save_timer")()
	ctx, cancel := context.WithTimeout(ctx, r.opts.WriteTimeout)
	defer cancel()

	query := `
        INSERT INTO running_timers (habit_id, started_at) VALUES ($1, $2)
        ON CONFLICT (habit_id) DO UPDATE SET started_at = EXCLUDED.started_at
    `
	if _, err := r.db.Exec(ctx, query, timer.HabitID, timer.StartedAt.UTC()); err != nil {
		return r.fail("save running timer", err)
	}
	return nil
}

func (r *Repository) DeleteRunningTimer(ctx context.Context, habitID string) error {
	defer r.observe("delete_timer")()
	ctx, cancel := context.WithTimeout(ctx, r.opts.WriteTimeout)
	defer cancel()

	if _, err := r.db.Exec(ctx, `DELETE FROM running_timers WHERE habit_id = $1`, habitID); err != nil {
		return r.fail("delete running timer", err)
	}
	return nil
}

func (r *Repository) ListRunningTimers(ctx context.Context) ([]domain.RunningTimer, error) {
	defer r.observe("list_timers")()
	ctx, cancel := context.WithTimeout(ctx, r.opts.QueryTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `SELECT habit_id, started_at FROM running_timers ORDER BY habit_id ASC`)
	if err != nil {
		return nil, r.fail("list running timers", err)
	}
	defer rows.Close()

	var timers []domain.RunningTimer
	for rows.Next() {
		var timer domain.RunningTimer
		if err := rows.Scan(&timer.HabitID, &timer.StartedAt); err != nil {
			return nil, r.fail("list running timers", err)
		}
		timer.StartedAt = timer.StartedAt.UTC()
		timers = append(timers, timer)
	}
	if err := rows.Err(); err != nil {
		return nil, r.fail("list running timers", err)
	}
	return timers, nil
}
