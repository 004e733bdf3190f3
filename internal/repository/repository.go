package repository

import (
	"context"
	"time"

	"habit-tracker/internal/domain"
)

// Repository is the persistence contract consumed by the engine.
// Implementations must upsert log entries on (HabitID, Date) and treat
// undecodable records as absent rather than failing the whole read.
type Repository interface {
	// Habit catalog
	ListHabits(ctx context.Context) ([]domain.Habit, error)
	GetHabit(ctx context.Context, id string) (domain.Habit, error)
	UpsertHabit(ctx context.Context, habit domain.Habit) error
	DeleteHabit(ctx context.Context, id string) error

	// Completion log
	GetLogEntries(ctx context.Context, date domain.Date) ([]domain.LogEntry, error)
	GetLogEntriesRange(ctx context.Context, from, to domain.Date) ([]domain.LogEntry, error)
	ListLogEntriesForHabit(ctx context.Context, habitID string) ([]domain.LogEntry, error)
	UpsertLogEntry(ctx context.Context, entry domain.LogEntry) error
	DeleteLogEntry(ctx context.Context, habitID string, date domain.Date) error

	// Scheduled nudges
	RecordNudge(ctx context.Context, nudge domain.Nudge) error
	ListNudges(ctx context.Context, habitID string) ([]domain.Nudge, error)
	DeleteNudgesFrom(ctx context.Context, habitID string, from time.Time) error

	// Recoverable timer state
	SaveRunningTimer(ctx context.Context, timer domain.RunningTimer) error
	DeleteRunningTimer(ctx context.Context, habitID string) error
	ListRunningTimers(ctx context.Context) ([]domain.RunningTimer, error)

	// Utility
	Close() error
}
