package services

import (
	"context"
	"time"

	"habit-tracker/internal/clock"
	"habit-tracker/internal/domain"
	"habit-tracker/internal/metrics"
	"habit-tracker/internal/repository"

	"go.uber.org/zap"
)

// DefaultStreakHorizon is how many days back a streak walk may look
const DefaultStreakHorizon = 365

type completionKey struct {
	habitID string
	date    domain.Date
}

// CompletionSet indexes completed (habit, date) pairs
type CompletionSet map[completionKey]struct{}

// NewCompletionSet indexes the completed entries among entries.
func NewCompletionSet(entries []domain.LogEntry) CompletionSet {
	set := make(CompletionSet, len(entries))
	for _, e := range entries {
		if e.Completed {
			set[completionKey{habitID: e.HabitID, date: e.Date}] = struct{}{}
		}
	}
	return set
}

// Has reports whether habitID was completed on date.
func (s CompletionSet) Has(habitID string, date domain.Date) bool {
	_, ok := s[completionKey{habitID: habitID, date: date}]
	return ok
}

// ComputeStreaks walks backwards from asOf for at most horizon days.
//
// Days with nothing due are skipped. The overall streak counts days on which
// every due habit was completed and stops at the first day that falls short.
// Each habit's streak counts only the days it was due. The walk ends early
// once the overall streak and every habit streak are broken.
//
// The second return value is the number of days visited.
func ComputeStreaks(habits []domain.Habit, done CompletionSet, asOf domain.Date, horizon int, loc *time.Location) (StreakResult, int) {
	result := StreakResult{PerHabit: make(map[string]int, len(habits))}
	broken := make(map[string]bool, len(habits))
	for _, h := range habits {
		result.PerHabit[h.ID] = 0
	}
	overallBroken := false
	remaining := len(habits)

	walked := 0
	for i := 0; i < horizon; i++ {
		if overallBroken && remaining == 0 {
			break
		}
		walked++
		date := asOf.AddDays(-i)

		due := DueHabits(habits, date, loc)
		if len(due) == 0 {
			continue
		}

		allDone := true
		for _, h := range due {
			completed := done.Has(h.ID, date)
			if !completed {
				allDone = false
			}
			if broken[h.ID] {
				continue
			}
			if completed {
				result.PerHabit[h.ID]++
			} else {
				broken[h.ID] = true
				remaining--
			}
		}

		if !overallBroken {
			if allDone {
				result.Overall++
			} else {
				overallBroken = true
			}
		}
	}
	return result, walked
}

// streakServiceImpl implements the StreakService interface
type streakServiceImpl struct {
	repo    repository.Repository
	clock   clock.Clock
	logger  *zap.Logger
	horizon int
}

// NewStreakService creates a new StreakService instance. A non-positive
// horizon uses DefaultStreakHorizon.
func NewStreakService(repo repository.Repository, c clock.Clock, logger *zap.Logger, horizon int) StreakService {
	if horizon <= 0 {
		horizon = DefaultStreakHorizon
	}
	return &streakServiceImpl{repo: repo, clock: c, logger: logger, horizon: horizon}
}

// Streaks loads the catalog and the horizon's log entries and computes
// streaks as of asOf. Storage failures degrade to zero streaks.
func (s *streakServiceImpl) Streaks(ctx context.Context, asOf domain.Date) StreakResult {
	habits, err := s.repo.ListHabits(ctx)
	if Degrade(s.logger, "list_habits", err) {
		return StreakResult{PerHabit: map[string]int{}}
	}

	from := asOf.AddDays(-(s.horizon - 1))
	entries, err := s.repo.GetLogEntriesRange(ctx, from, asOf)
	if Degrade(s.logger, "get_log_entries_range", err) {
		entries = nil
	}

	start := time.Now()
	result, walked := ComputeStreaks(habits, NewCompletionSet(entries), asOf, s.horizon, s.clock.Location())
	metrics.RecordStreakComputation(time.Since(start), walked)

	s.logger.Debug("streaks computed",
		zap.Stringer("as_of", asOf),
		zap.Int("overall", result.Overall),
		zap.Int("days_walked", walked))
	return result
}
