package services

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupInsights(t *testing.T) (*testEnv, InsightsService) {
	t.Helper()
	env := setupEnv(t)
	env.add(t, readHabit(longAgo), dailyHabit("h-walk", longAgo))
	ctx := context.Background()
	mon, tue := date(2024, 3, 4), date(2024, 3, 5)

	require.NoError(t, env.repo.UpsertLogEntry(ctx, completedAt("h-walk", mon, 7, 15)))
	require.NoError(t, env.repo.UpsertLogEntry(ctx, completedAt("h-walk", tue, 7, 45)))
	read := completedAt("h-read", mon, 21, 5)
	read.Progress = 25
	require.NoError(t, env.repo.UpsertLogEntry(ctx, read))
	return env, NewInsightsService(env.repo, env.clock, env.logger)
}

func TestInsightsService_DailySummaries(t *testing.T) {
	// Arrange
	_, service := setupInsights(t)

	// Act
	result := service.DailySummaries(context.Background(), date(2024, 3, 4), date(2024, 3, 6))

	// Assert
	expected := []DailySummary{
		{Date: date(2024, 3, 4), Due: 2, Completed: 2},
		{Date: date(2024, 3, 5), Due: 1, Completed: 1},
		{Date: date(2024, 3, 6), Due: 2, Completed: 0},
	}
	if diff := cmp.Diff(expected, result); diff != "" {
		t.Errorf("DailySummaries() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1.0, result[0].Rate())
	assert.Equal(t, 0.0, DailySummary{}.Rate())
}

func TestInsightsService_DailySummariesEmptyRange(t *testing.T) {
	_, service := setupInsights(t)

	assert.Empty(t, service.DailySummaries(context.Background(), date(2024, 3, 6), date(2024, 3, 4)))
}

func TestInsightsService_CompletionHours(t *testing.T) {
	_, service := setupInsights(t)

	hours := service.CompletionHours(context.Background(), date(2024, 3, 4), date(2024, 3, 6))

	assert.Equal(t, 2, hours[7])
	assert.Equal(t, 1, hours[21])
	total := 0
	for _, n := range hours {
		total += n
	}
	assert.Equal(t, 3, total)
}

func TestInsightsService_TimeOnTask(t *testing.T) {
	_, service := setupInsights(t)

	series := service.TimeOnTask(context.Background(), "h-read", date(2024, 3, 3), date(2024, 3, 5))

	expected := []DailyMinutes{
		{Date: date(2024, 3, 3), Minutes: 0},
		{Date: date(2024, 3, 4), Minutes: 25},
		{Date: date(2024, 3, 5), Minutes: 0},
	}
	assert.Empty(t, cmp.Diff(expected, series))
}

func TestInsightsService_DegradesOnStorageFailure(t *testing.T) {
	env, _ := setupInsights(t)
	service := NewInsightsService(failingRepo{env.repo}, env.clock, env.logger)

	summaries := service.DailySummaries(context.Background(), date(2024, 3, 4), date(2024, 3, 5))

	require.Len(t, summaries, 2)
	assert.Zero(t, summaries[0].Due)
	assert.Equal(t, [24]int{}, service.CompletionHours(context.Background(), date(2024, 3, 4), date(2024, 3, 5)))
}
