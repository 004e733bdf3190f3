package services

import (
	"context"
	"time"

	"habit-tracker/internal/domain"
	"habit-tracker/internal/repository"

	"go.uber.org/zap"
)

// DefaultNudgeWindow is how close a completion must be to a nudge to count
const DefaultNudgeWindow = 120 * time.Minute

// NudgeEffectiveness returns the fraction of completions that happened
// within window of a nudge scheduled for the same date. ok is false when
// there are no completions.
func NudgeEffectiveness(entries []domain.LogEntry, nudges []domain.Nudge, window time.Duration) (float64, bool) {
	byDate := make(map[domain.Date][]time.Time)
	for _, n := range nudges {
		byDate[n.Date] = append(byDate[n.Date], n.At)
	}

	completions, nudged := 0, 0
	for _, e := range entries {
		if !e.Completed {
			continue
		}
		completions++
		if e.CompletedAt == nil {
			continue
		}
		for _, at := range byDate[e.Date] {
			if absDuration(e.CompletedAt.Sub(at)) <= window {
				nudged++
				break
			}
		}
	}

	if completions == 0 {
		return 0, false
	}
	return float64(nudged) / float64(completions), true
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// nudgeServiceImpl implements the NudgeService interface
type nudgeServiceImpl struct {
	repo   repository.Repository
	logger *zap.Logger
	window time.Duration
}

// NewNudgeService creates a new NudgeService instance. A non-positive window
// uses DefaultNudgeWindow.
func NewNudgeService(repo repository.Repository, logger *zap.Logger, window time.Duration) NudgeService {
	if window <= 0 {
		window = DefaultNudgeWindow
	}
	return &nudgeServiceImpl{repo: repo, logger: logger, window: window}
}

// Effectiveness correlates a habit's completions with its recorded nudges.
// Unreadable history yields no signal.
func (s *nudgeServiceImpl) Effectiveness(ctx context.Context, habitID string) (float64, bool) {
	entries, err := s.repo.ListLogEntriesForHabit(ctx, habitID)
	if Degrade(s.logger, "list_log_entries", err) {
		return 0, false
	}
	nudges, err := s.repo.ListNudges(ctx, habitID)
	if Degrade(s.logger, "list_nudges", err) {
		nudges = nil
	}
	return NudgeEffectiveness(entries, nudges, s.window)
}
