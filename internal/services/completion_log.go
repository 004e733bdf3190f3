package services

import (
	"context"

	"habit-tracker/internal/clock"
	"habit-tracker/internal/domain"
	"habit-tracker/internal/errors"
	"habit-tracker/internal/repository"

	"go.uber.org/zap"
)

// completionLogImpl implements the CompletionLog interface
type completionLogImpl struct {
	repo   repository.Repository
	clock  clock.Clock
	logger *zap.Logger
}

// NewCompletionLog creates a new CompletionLog instance
func NewCompletionLog(repo repository.Repository, c clock.Clock, logger *zap.Logger) CompletionLog {
	return &completionLogImpl{repo: repo, clock: c, logger: logger}
}

// Get returns every entry recorded on date. Storage failures read as an empty day.
func (l *completionLogImpl) Get(ctx context.Context, date domain.Date) []domain.LogEntry {
	entries, err := l.repo.GetLogEntries(ctx, date)
	if Degrade(l.logger, "get_log_entries", err) {
		return nil
	}
	return entries
}

// Entry returns the entry for one habit on date, if any.
func (l *completionLogImpl) Entry(ctx context.Context, habitID string, date domain.Date) (domain.LogEntry, bool) {
	for _, e := range l.Get(ctx, date) {
		if e.HabitID == habitID {
			return e, true
		}
	}
	return domain.LogEntry{}, false
}

// Upsert replaces the entry for (habit, date) or inserts it
func (l *completionLogImpl) Upsert(ctx context.Context, entry domain.LogEntry) error {
	if entry.HabitID == "" || entry.Date.IsZero() {
		return errors.NewInvalidInputError("entry", entry.HabitID, "log entries need a habit id and a date")
	}
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = l.clock.Now()
	}
	if err := l.repo.UpsertLogEntry(ctx, entry); err != nil {
		l.logger.Error("failed to write log entry",
			zap.String("habit_id", entry.HabitID), zap.Stringer("date", entry.Date), zap.Error(err))
		return err
	}
	return nil
}

// RecordProgress adds delta to the day's progress. Negative deltas count as
// zero. The completed flag is the caller's decision; the first transition to
// completed stamps CompletedAt. An empty badge keeps the current one.
func (l *completionLogImpl) RecordProgress(ctx context.Context, habitID string, date domain.Date, delta float64, completed bool, badge string) (domain.LogEntry, error) {
	entry, ok := l.Entry(ctx, habitID, date)
	if !ok {
		entry = domain.NewLogEntry(habitID, date)
	}
	if delta > 0 {
		entry.Progress += delta
	}

	now := l.clock.Now()
	if completed && !entry.Completed {
		entry.CompletedAt = &now
	}
	if !completed {
		entry.CompletedAt = nil
	}
	entry.Completed = completed
	if badge != "" {
		entry.Badge = badge
	}
	entry.UpdatedAt = now

	if err := l.Upsert(ctx, entry); err != nil {
		return domain.LogEntry{}, err
	}
	l.logger.Debug("progress recorded",
		zap.String("habit_id", habitID),
		zap.Stringer("date", date),
		zap.Float64("progress", entry.Progress),
		zap.Bool("completed", entry.Completed))
	return entry, nil
}

// Reset is the explicit user reset: the day goes back to not started.
func (l *completionLogImpl) Reset(ctx context.Context, habitID string, date domain.Date) error {
	if err := l.repo.DeleteLogEntry(ctx, habitID, date); err != nil {
		l.logger.Error("failed to reset log entry", zap.String("habit_id", habitID), zap.Stringer("date", date), zap.Error(err))
		return err
	}
	l.logger.Info("log entry reset", zap.String("habit_id", habitID), zap.Stringer("date", date))
	return nil
}
