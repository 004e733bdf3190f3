package services

import (
	"context"

	"habit-tracker/internal/clock"
	"habit-tracker/internal/domain"
	"habit-tracker/internal/repository"

	"go.uber.org/zap"
)

// insightsServiceImpl implements the InsightsService interface
type insightsServiceImpl struct {
	repo   repository.Repository
	clock  clock.Clock
	logger *zap.Logger
}

// NewInsightsService creates a new InsightsService instance
func NewInsightsService(repo repository.Repository, c clock.Clock, logger *zap.Logger) InsightsService {
	return &insightsServiceImpl{repo: repo, clock: c, logger: logger}
}

// DailySummaries counts due and completed habits for each date in [from, to]
func (s *insightsServiceImpl) DailySummaries(ctx context.Context, from, to domain.Date) []DailySummary {
	if to.Before(from) {
		return nil
	}
	habits, err := s.repo.ListHabits(ctx)
	if Degrade(s.logger, "list_habits", err) {
		habits = nil
	}
	done := NewCompletionSet(s.entries(ctx, from, to))

	loc := s.clock.Location()
	summaries := make([]DailySummary, 0, to.DaysSince(from)+1)
	for d := from; !d.After(to); d = d.AddDays(1) {
		summary := DailySummary{Date: d}
		for _, h := range DueHabits(habits, d, loc) {
			summary.Due++
			if done.Has(h.ID, d) {
				summary.Completed++
			}
		}
		summaries = append(summaries, summary)
	}
	return summaries
}

// CompletionHours buckets completions in [from, to] by local hour of day
func (s *insightsServiceImpl) CompletionHours(ctx context.Context, from, to domain.Date) [24]int {
	var hours [24]int
	loc := s.clock.Location()
	for _, e := range s.entries(ctx, from, to) {
		if !e.Completed || e.CompletedAt == nil {
			continue
		}
		hours[e.CompletedAt.In(loc).Hour()]++
	}
	return hours
}

// TimeOnTask returns the minutes logged per day for a timed habit, with
// zero-filled gaps.
func (s *insightsServiceImpl) TimeOnTask(ctx context.Context, habitID string, from, to domain.Date) []DailyMinutes {
	if to.Before(from) {
		return nil
	}
	minutes := make(map[domain.Date]float64)
	for _, e := range s.entries(ctx, from, to) {
		if e.HabitID == habitID {
			minutes[e.Date] = e.Progress
		}
	}

	series := make([]DailyMinutes, 0, to.DaysSince(from)+1)
	for d := from; !d.After(to); d = d.AddDays(1) {
		series = append(series, DailyMinutes{Date: d, Minutes: minutes[d]})
	}
	return series
}

func (s *insightsServiceImpl) entries(ctx context.Context, from, to domain.Date) []domain.LogEntry {
	entries, err := s.repo.GetLogEntriesRange(ctx, from, to)
	if Degrade(s.logger, "get_log_entries_range", err) {
		return nil
	}
	return entries
}
