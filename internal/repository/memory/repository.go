package memory

import (
	"context"
	"sync"
	"time"

	"habit-tracker/internal/domain"
	"habit-tracker/internal/errors"
	"habit-tracker/internal/repository"
)

type logKey struct {
	habitID string
	date    domain.Date
}

// Repository keeps everything in process memory. It backs tests and the
// "memory" backend for throwaway sessions.
type Repository struct {
	mu     sync.RWMutex
	habits map[string]domain.Habit
	logs   map[logKey]domain.LogEntry
	nudges map[string]map[int64]domain.Nudge
	timers map[string]domain.RunningTimer
}

var _ repository.Repository = (*Repository)(nil)

// New returns an empty in-memory repository.
func New() *Repository {
	return &Repository{
		habits: make(map[string]domain.Habit),
		logs:   make(map[logKey]domain.LogEntry),
		nudges: make(map[string]map[int64]domain.Nudge),
		timers: make(map[string]domain.RunningTimer),
	}
}

// Close is a no-op.
func (r *Repository) Close() error {
	return nil
}

func (r *Repository) ListHabits(ctx context.Context) ([]domain.Habit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	habits := make([]domain.Habit, 0, len(r.habits))
	for _, h := range r.habits {
		habits = append(habits, cloneHabit(h))
	}
	repository.SortHabits(habits)
	return habits, nil
}

func (r *Repository) GetHabit(ctx context.Context, id string) (domain.Habit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.habits[id]
	if !ok {
		return domain.Habit{}, errors.NewNotFoundError("habit", id)
	}
	return cloneHabit(h), nil
}

func (r *Repository) UpsertHabit(ctx context.Context, habit domain.Habit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.habits[habit.ID] = cloneHabit(habit)
	return nil
}

// DeleteHabit removes the habit along with its log entries, nudges and timer.
func (r *Repository) DeleteHabit(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.habits[id]; !ok {
		return errors.NewNotFoundError("habit", id)
	}
	delete(r.habits, id)
	for key := range r.logs {
		if key.habitID == id {
			delete(r.logs, key)
		}
	}
	delete(r.nudges, id)
	delete(r.timers, id)
	return nil
}

func (r *Repository) GetLogEntries(ctx context.Context, date domain.Date) ([]domain.LogEntry, error) {
	return r.GetLogEntriesRange(ctx, date, date)
}

func (r *Repository) GetLogEntriesRange(ctx context.Context, from, to domain.Date) ([]domain.LogEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var entries []domain.LogEntry
	for key, entry := range r.logs {
		if key.date.Before(from) || key.date.After(to) {
			continue
		}
		entries = append(entries, entry)
	}
	repository.SortLogEntries(entries)
	return entries, nil
}

func (r *Repository) ListLogEntriesForHabit(ctx context.Context, habitID string) ([]domain.LogEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var entries []domain.LogEntry
	for key, entry := range r.logs {
		if key.habitID == habitID {
			entries = append(entries, entry)
		}
	}
	repository.SortLogEntries(entries)
	return entries, nil
}

func (r *Repository) UpsertLogEntry(ctx context.Context, entry domain.LogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logs[logKey{habitID: entry.HabitID, date: entry.Date}] = entry
	return nil
}

func (r *Repository) DeleteLogEntry(ctx context.Context, habitID string, date domain.Date) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.logs, logKey{habitID: habitID, date: date})
	return nil
}

func (r *Repository) RecordNudge(ctx context.Context, nudge domain.Nudge) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	byTime, ok := r.nudges[nudge.HabitID]
	if !ok {
		byTime = make(map[int64]domain.Nudge)
		r.nudges[nudge.HabitID] = byTime
	}
	byTime[nudge.At.UnixNano()] = nudge
	return nil
}

func (r *Repository) ListNudges(ctx context.Context, habitID string) ([]domain.Nudge, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	nudges := make([]domain.Nudge, 0, len(r.nudges[habitID]))
	for _, n := range r.nudges[habitID] {
		nudges = append(nudges, n)
	}
	repository.SortNudges(nudges)
	return nudges, nil
}

func (r *Repository) DeleteNudgesFrom(ctx context.Context, habitID string, from time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for at, n := range r.nudges[habitID] {
		if !n.At.Before(from) {
			delete(r.nudges[habitID], at)
		}
	}
	return nil
}

func (r *Repository) SaveRunningTimer(ctx context.Context, timer domain.RunningTimer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.timers[timer.HabitID] = timer
	return nil
}

func (r *Repository) DeleteRunningTimer(ctx context.Context, habitID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.timers, habitID)
	return nil
}

func (r *Repository) ListRunningTimers(ctx context.Context) ([]domain.RunningTimer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	timers := make([]domain.RunningTimer, 0, len(r.timers))
	for _, t := range r.timers {
		timers = append(timers, t)
	}
	return timers, nil
}

func cloneHabit(h domain.Habit) domain.Habit {
	h.Tiers = append([]domain.Tier(nil), h.Tiers...)
	h.Reminders = append([]domain.ReminderTime(nil), h.Reminders...)
	if h.ArchivedAt != nil {
		at := *h.ArchivedAt
		h.ArchivedAt = &at
	}
	return h
}
