// Package repotest holds the behavioural contract every Repository backend must pass.
package repotest

import (
	"context"
	"testing"
	"time"

	"habit-tracker/internal/domain"
	"habit-tracker/internal/errors"
	"habit-tracker/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty repository. It is called once per subtest.
type Factory func(t *testing.T) repository.Repository

var base = time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC) // a Monday

// Habit builds a habit with second-precision UTC timestamps.
func Habit(id, name string, createdOffset time.Duration) domain.Habit {
	created := base.Add(createdOffset)
	return domain.Habit{
		ID:        id,
		Name:      name,
		Cadence:   domain.OnDays(time.Monday, time.Wednesday, time.Friday),
		Metric:    domain.TimedMetric{MinMinutes: 10},
		Tiers:     domain.DefaultTiers(),
		Reminders: []domain.ReminderTime{{Hour: 7, Minute: 30}},
		CreatedAt: created,
		UpdatedAt: created,
	}
}

// Run executes the full contract against the factory.
func Run(t *testing.T, factory Factory) {
	t.Run("habits", func(t *testing.T) { testHabits(t, factory(t)) })
	t.Run("log entries", func(t *testing.T) { testLogEntries(t, factory(t)) })
	t.Run("delete habit cascades", func(t *testing.T) { testDeleteCascades(t, factory(t)) })
	t.Run("nudges", func(t *testing.T) { testNudges(t, factory(t)) })
	t.Run("running timers", func(t *testing.T) { testRunningTimers(t, factory(t)) })
}

func testHabits(t *testing.T, repo repository.Repository) {
	ctx := context.Background()

	habits, err := repo.ListHabits(ctx)
	require.NoError(t, err)
	assert.Empty(t, habits)

	read := Habit("h-read", "Read", time.Hour)
	walk := Habit("h-walk", "Walk", 0)
	walk.Cadence = domain.Daily()
	walk.Metric = domain.CountMetric{Unit: "km", DailyTarget: 3}
	walk.Tiers = nil
	walk.Reminders = nil
	require.NoError(t, repo.UpsertHabit(ctx, read))
	require.NoError(t, repo.UpsertHabit(ctx, walk))

	got, err := repo.GetHabit(ctx, "h-read")
	require.NoError(t, err)
	assert.Equal(t, read.Name, got.Name)
	assert.Equal(t, read.Cadence, got.Cadence)
	assert.Equal(t, read.Metric, got.Metric)
	assert.Equal(t, read.Tiers, got.Tiers)
	assert.Equal(t, read.Reminders, got.Reminders)
	assert.True(t, read.CreatedAt.Equal(got.CreatedAt))
	assert.False(t, got.Archived)
	assert.Nil(t, got.ArchivedAt)

	habits, err = repo.ListHabits(ctx)
	require.NoError(t, err)
	require.Len(t, habits, 2)
	assert.Equal(t, "h-walk", habits[0].ID, "habits should be ordered by creation time")
	assert.Equal(t, domain.CountMetric{Unit: "km", DailyTarget: 3}, habits[0].Metric)
	assert.Empty(t, habits[0].Tiers)

	archivedAt := base.Add(72 * time.Hour)
	read.Name = "Read books"
	read.Archive(archivedAt)
	require.NoError(t, repo.UpsertHabit(ctx, read))

	got, err = repo.GetHabit(ctx, "h-read")
	require.NoError(t, err)
	assert.Equal(t, "Read books", got.Name)
	assert.True(t, got.Archived)
	require.NotNil(t, got.ArchivedAt)
	assert.True(t, archivedAt.Equal(*got.ArchivedAt))

	_, err = repo.GetHabit(ctx, "missing")
	assert.True(t, errors.IsNotFound(err), "expected not found, got %v", err)

	err = repo.DeleteHabit(ctx, "missing")
	assert.True(t, errors.IsNotFound(err), "expected not found, got %v", err)
}

func testLogEntries(t *testing.T, repo repository.Repository) {
	ctx := context.Background()
	require.NoError(t, repo.UpsertHabit(ctx, Habit("h-1", "One", 0)))
	require.NoError(t, repo.UpsertHabit(ctx, Habit("h-2", "Two", time.Minute)))

	monday := domain.DateOf(base, time.UTC)
	completedAt := base.Add(2 * time.Hour)

	first := domain.LogEntry{HabitID: "h-1", Date: monday, Progress: 4, UpdatedAt: base}
	require.NoError(t, repo.UpsertLogEntry(ctx, first))

	second := domain.LogEntry{HabitID: "h-1", Date: monday, Completed: true, Progress: 12, Badge: "yellow", CompletedAt: &completedAt, UpdatedAt: completedAt}
	require.NoError(t, repo.UpsertLogEntry(ctx, second))
	require.NoError(t, repo.UpsertLogEntry(ctx, domain.LogEntry{HabitID: "h-2", Date: monday, Progress: 1, UpdatedAt: base}))
	require.NoError(t, repo.UpsertLogEntry(ctx, domain.LogEntry{HabitID: "h-1", Date: monday.AddDays(2), Progress: 3, UpdatedAt: base}))

	entries, err := repo.GetLogEntries(ctx, monday)
	require.NoError(t, err)
	require.Len(t, entries, 2, "upsert must not duplicate (habit, date)")
	assert.Equal(t, "h-1", entries[0].HabitID)
	assert.True(t, entries[0].Completed)
	assert.Equal(t, 12.0, entries[0].Progress)
	assert.Equal(t, "yellow", entries[0].Badge)
	require.NotNil(t, entries[0].CompletedAt)
	assert.True(t, completedAt.Equal(*entries[0].CompletedAt))
	assert.Equal(t, monday, entries[0].Date)

	empty, err := repo.GetLogEntries(ctx, monday.AddDays(1))
	require.NoError(t, err)
	assert.Empty(t, empty)

	ranged, err := repo.GetLogEntriesRange(ctx, monday, monday.AddDays(2))
	require.NoError(t, err)
	assert.Len(t, ranged, 3, "range should be inclusive on both ends")

	narrow, err := repo.GetLogEntriesRange(ctx, monday.AddDays(1), monday.AddDays(2))
	require.NoError(t, err)
	require.Len(t, narrow, 1)
	assert.Equal(t, monday.AddDays(2), narrow[0].Date)

	forHabit, err := repo.ListLogEntriesForHabit(ctx, "h-1")
	require.NoError(t, err)
	require.Len(t, forHabit, 2)
	assert.Equal(t, monday, forHabit[0].Date)
	assert.Equal(t, monday.AddDays(2), forHabit[1].Date)

	require.NoError(t, repo.DeleteLogEntry(ctx, "h-1", monday.AddDays(2)))
	require.NoError(t, repo.DeleteLogEntry(ctx, "h-1", monday.AddDays(2)), "delete should be idempotent")
	forHabit, err = repo.ListLogEntriesForHabit(ctx, "h-1")
	require.NoError(t, err)
	assert.Len(t, forHabit, 1)
}

func testDeleteCascades(t *testing.T, repo repository.Repository) {
	ctx := context.Background()
	monday := domain.DateOf(base, time.UTC)
	require.NoError(t, repo.UpsertHabit(ctx, Habit("h-1", "One", 0)))
	require.NoError(t, repo.UpsertHabit(ctx, Habit("h-2", "Two", 0)))
	require.NoError(t, repo.UpsertLogEntry(ctx, domain.LogEntry{HabitID: "h-1", Date: monday, Progress: 1, UpdatedAt: base}))
	require.NoError(t, repo.UpsertLogEntry(ctx, domain.LogEntry{HabitID: "h-2", Date: monday, Progress: 1, UpdatedAt: base}))
	require.NoError(t, repo.RecordNudge(ctx, domain.Nudge{HabitID: "h-1", Date: monday, At: base}))
	require.NoError(t, repo.SaveRunningTimer(ctx, domain.RunningTimer{HabitID: "h-1", StartedAt: base}))

	require.NoError(t, repo.DeleteHabit(ctx, "h-1"))

	_, err := repo.GetHabit(ctx, "h-1")
	assert.True(t, errors.IsNotFound(err))
	entries, err := repo.GetLogEntries(ctx, monday)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "h-2", entries[0].HabitID)
	nudges, err := repo.ListNudges(ctx, "h-1")
	require.NoError(t, err)
	assert.Empty(t, nudges)
	timers, err := repo.ListRunningTimers(ctx)
	require.NoError(t, err)
	assert.Empty(t, timers)
}

func testNudges(t *testing.T, repo repository.Repository) {
	ctx := context.Background()
	monday := domain.DateOf(base, time.UTC)
	require.NoError(t, repo.UpsertHabit(ctx, Habit("h-1", "One", 0)))

	late := domain.Nudge{HabitID: "h-1", Date: monday, At: base.Add(10 * time.Hour)}
	early := domain.Nudge{HabitID: "h-1", Date: monday, At: base}
	next := domain.Nudge{HabitID: "h-1", Date: monday.AddDays(2), At: base.Add(48 * time.Hour)}
	require.NoError(t, repo.RecordNudge(ctx, late))
	require.NoError(t, repo.RecordNudge(ctx, early))
	require.NoError(t, repo.RecordNudge(ctx, early), "recording the same nudge twice should not duplicate it")
	require.NoError(t, repo.RecordNudge(ctx, next))

	nudges, err := repo.ListNudges(ctx, "h-1")
	require.NoError(t, err)
	require.Len(t, nudges, 3)
	assert.True(t, early.At.Equal(nudges[0].At))
	assert.True(t, late.At.Equal(nudges[1].At))
	assert.Equal(t, monday.AddDays(2), nudges[2].Date)

	require.NoError(t, repo.DeleteNudgesFrom(ctx, "h-1", base.Add(10*time.Hour)))

	nudges, err = repo.ListNudges(ctx, "h-1")
	require.NoError(t, err)
	require.Len(t, nudges, 1)
	assert.True(t, early.At.Equal(nudges[0].At))

	other, err := repo.ListNudges(ctx, "h-unknown")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func testRunningTimers(t *testing.T, repo repository.Repository) {
	ctx := context.Background()
	require.NoError(t, repo.UpsertHabit(ctx, Habit("h-1", "One", 0)))
	require.NoError(t, repo.UpsertHabit(ctx, Habit("h-2", "Two", 0)))

	require.NoError(t, repo.SaveRunningTimer(ctx, domain.RunningTimer{HabitID: "h-1", StartedAt: base}))
	require.NoError(t, repo.SaveRunningTimer(ctx, domain.RunningTimer{HabitID: "h-1", StartedAt: base.Add(time.Minute)}))
	require.NoError(t, repo.SaveRunningTimer(ctx, domain.RunningTimer{HabitID: "h-2", StartedAt: base}))

	timers, err := repo.ListRunningTimers(ctx)
	require.NoError(t, err)
	require.Len(t, timers, 2)
	byHabit := map[string]time.Time{}
	for _, timer := range timers {
		byHabit[timer.HabitID] = timer.StartedAt
	}
	assert.True(t, base.Add(time.Minute).Equal(byHabit["h-1"]), "saving again should overwrite the start")

	require.NoError(t, repo.DeleteRunningTimer(ctx, "h-1"))
	require.NoError(t, repo.DeleteRunningTimer(ctx, "h-1"), "delete should be idempotent")

	timers, err = repo.ListRunningTimers(ctx)
	require.NoError(t, err)
	require.Len(t, timers, 1)
	assert.Equal(t, "h-2", timers[0].HabitID)
}
