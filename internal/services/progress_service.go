package services

import (
	"context"

	"habit-tracker/internal/domain"
	"habit-tracker/internal/errors"
	"habit-tracker/internal/metrics"
	"habit-tracker/internal/repository"

	"go.uber.org/zap"
)

// progressServiceImpl implements the ProgressService interface
type progressServiceImpl struct {
	repo   repository.Repository
	log    CompletionLog
	logger *zap.Logger
}

// NewProgressService creates a new ProgressService instance
func NewProgressService(repo repository.Repository, log CompletionLog, logger *zap.Logger) ProgressService {
	return &progressServiceImpl{repo: repo, log: log, logger: logger}
}

// MeetsTarget reports whether accumulated progress completes the day for the habit's metric.
func MeetsTarget(habit domain.Habit, progress float64) bool {
	switch m := habit.Metric.(type) {
	case domain.TimedMetric:
		return progress >= float64(m.MinMinutes)
	case domain.CountMetric:
		if m.DailyTarget <= 0 {
			return progress > 0
		}
		return progress >= m.DailyTarget
	default:
		return progress >= 1
	}
}

// Credit adds delta to the habit's day, then derives completion and badge
// from the new total. A completed day stays completed.
func (p *progressServiceImpl) Credit(ctx context.Context, habit domain.Habit, date domain.Date, delta float64) (domain.LogEntry, error) {
	current, _ := p.log.Entry(ctx, habit.ID, date)
	total := current.Progress
	if delta > 0 {
		total += delta
	}

	completed := current.Completed || MeetsTarget(habit, total)
	badge, _ := Classify(total, habit.Tiers)

	entry, err := p.log.RecordProgress(ctx, habit.ID, date, delta, completed, badge)
	if err != nil {
		return domain.LogEntry{}, err
	}
	metrics.RecordProgress(string(habit.Metric.Kind()), entry.Completed)
	return entry, nil
}

// CheckIn marks a check habit done for the day. Checking twice is a no-op.
func (p *progressServiceImpl) CheckIn(ctx context.Context, habitID string, date domain.Date) (domain.LogEntry, error) {
	habit, err := p.habit(ctx, habitID)
	if err != nil {
		return domain.LogEntry{}, err
	}
	if _, ok := habit.Metric.(domain.CheckMetric); !ok {
		return domain.LogEntry{}, errors.NewInvalidInputError("habit", habit.Name, "only check habits can be checked in")
	}
	if current, ok := p.log.Entry(ctx, habitID, date); ok && current.Completed {
		return current, nil
	}
	return p.Credit(ctx, habit, date, 1)
}

// AddCount adds amount units to a count habit
func (p *progressServiceImpl) AddCount(ctx context.Context, habitID string, date domain.Date, amount float64) (domain.LogEntry, error) {
	habit, err := p.habit(ctx, habitID)
	if err != nil {
		return domain.LogEntry{}, err
	}
	if _, ok := habit.Metric.(domain.CountMetric); !ok {
		return domain.LogEntry{}, errors.NewInvalidInputError("habit", habit.Name, "only count habits accept counts")
	}
	if amount < 0 {
		return domain.LogEntry{}, errors.NewInvalidInputError("amount", amount, "must not be negative")
	}
	return p.Credit(ctx, habit, date, amount)
}

// AddMinutes credits minutes to a timed habit without running a timer
func (p *progressServiceImpl) AddMinutes(ctx context.Context, habitID string, date domain.Date, minutes int) (domain.LogEntry, error) {
	habit, err := p.habit(ctx, habitID)
	if err != nil {
		return domain.LogEntry{}, err
	}
	if !habit.IsTimed() {
		return domain.LogEntry{}, errors.NewInvalidInputError("habit", habit.Name, "only timed habits accept minutes")
	}
	if minutes < 0 {
		return domain.LogEntry{}, errors.NewInvalidInputError("minutes", minutes, "must not be negative")
	}
	return p.Credit(ctx, habit, date, float64(minutes))
}

// Reset clears the day for a habit
func (p *progressServiceImpl) Reset(ctx context.Context, habitID string, date domain.Date) error {
	if _, err := p.habit(ctx, habitID); err != nil {
		return err
	}
	return p.log.Reset(ctx, habitID, date)
}

func (p *progressServiceImpl) habit(ctx context.Context, id string) (domain.Habit, error) {
	habit, err := p.repo.GetHabit(ctx, id)
	if err != nil {
		return domain.Habit{}, err
	}
	if habit.Archived {
		return domain.Habit{}, errors.NewInvalidInputError("habit", habit.Name, "habit is archived")
	}
	return habit, nil
}
