package services

import (
	"context"
	"testing"
	"time"

	"habit-tracker/internal/domain"
	"habit-tracker/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countHabit(id string, target float64) domain.Habit {
	h := dailyHabit(id, longAgo)
	h.Metric = domain.CountMetric{Unit: "glasses", DailyTarget: target}
	h.Tiers = []domain.Tier{{Threshold: 4, Badge: "half"}, {Threshold: 8, Badge: "full"}}
	return h
}

func TestMeetsTarget(t *testing.T) {
	tests := []struct {
		name     string
		habit    domain.Habit
		progress float64
		expected bool
	}{
		{name: "should complete check habits at one", habit: dailyHabit("h", longAgo), progress: 1, expected: true},
		{name: "should not complete check habits at zero", habit: dailyHabit("h", longAgo), progress: 0},
		{name: "should complete timed habits at the minimum", habit: readHabit(longAgo), progress: 10, expected: true},
		{name: "should not complete timed habits below the minimum", habit: readHabit(longAgo), progress: 9},
		{name: "should complete count habits at the target", habit: countHabit("h", 8), progress: 8, expected: true},
		{name: "should not complete count habits below the target", habit: countHabit("h", 8), progress: 7.5},
		{name: "should complete targetless count habits on any count", habit: countHabit("h", 0), progress: 0.5, expected: true},
		{name: "should not complete targetless count habits at zero", habit: countHabit("h", 0), progress: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MeetsTarget(tt.habit, tt.progress))
		})
	}
}

func TestProgressService_CheckIn(t *testing.T) {
	// Arrange
	env := setupEnv(t)
	env.add(t, dailyHabit("h-walk", longAgo))
	ctx := context.Background()

	// Act
	first, err := env.progress.CheckIn(ctx, "h-walk", date(2024, 3, 6))
	require.NoError(t, err)
	env.clock.Advance(time.Hour)
	second, err := env.progress.CheckIn(ctx, "h-walk", date(2024, 3, 6))
	require.NoError(t, err)

	// Assert
	assert.True(t, first.Completed)
	assert.Equal(t, 1.0, first.Progress)
	assert.Equal(t, 1.0, second.Progress, "checking in twice should not double count")
	assert.True(t, first.CompletedAt.Equal(*second.CompletedAt))
}

func TestProgressService_AddCount(t *testing.T) {
	// Arrange
	env := setupEnv(t)
	env.add(t, countHabit("h-water", 8))
	ctx := context.Background()
	day := date(2024, 3, 6)

	// Act
	partial, err := env.progress.AddCount(ctx, "h-water", day, 5)
	require.NoError(t, err)
	full, err := env.progress.AddCount(ctx, "h-water", day, 3)
	require.NoError(t, err)

	// Assert
	assert.False(t, partial.Completed)
	assert.Equal(t, "half", partial.Badge)
	assert.True(t, full.Completed)
	assert.Equal(t, 8.0, full.Progress)
	assert.Equal(t, "full", full.Badge)
}

func TestProgressService_RejectsMismatchedInput(t *testing.T) {
	env := setupEnv(t)
	env.add(t, dailyHabit("h-walk", longAgo), countHabit("h-water", 8), readHabit(longAgo))
	archived := dailyHabit("h-old", longAgo)
	archived.Archive(longAgo.Add(24 * time.Hour))
	env.add(t, archived)
	ctx := context.Background()
	day := date(2024, 3, 6)

	tests := []struct {
		name           string
		act            func() error
		errorAssertion func(t *testing.T, err error)
	}{
		{
			name: "should reject check-in on a count habit",
			act: func() error {
				_, err := env.progress.CheckIn(ctx, "h-water", day)
				return err
			},
			errorAssertion: func(t *testing.T, err error) {
				assert.True(t, errors.IsErrorType(err, errors.ErrorTypeInvalidInput))
			},
		},
		{
			name: "should reject counts on a check habit",
			act: func() error {
				_, err := env.progress.AddCount(ctx, "h-walk", day, 1)
				return err
			},
			errorAssertion: func(t *testing.T, err error) {
				assert.True(t, errors.IsErrorType(err, errors.ErrorTypeInvalidInput))
			},
		},
		{
			name: "should reject negative counts",
			act: func() error {
				_, err := env.progress.AddCount(ctx, "h-water", day, -2)
				return err
			},
			errorAssertion: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "negative")
			},
		},
		{
			name: "should reject minutes on an untimed habit",
			act: func() error {
				_, err := env.progress.AddMinutes(ctx, "h-walk", day, 5)
				return err
			},
			errorAssertion: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "timed")
			},
		},
		{
			name: "should reject progress on archived habits",
			act: func() error {
				_, err := env.progress.CheckIn(ctx, "h-old", day)
				return err
			},
			errorAssertion: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "archived")
			},
		},
		{
			name: "should report unknown habits",
			act: func() error {
				return env.progress.Reset(ctx, "missing", day)
			},
			errorAssertion: func(t *testing.T, err error) {
				assert.True(t, errors.IsNotFound(err))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.act()

			require.Error(t, err)
			tt.errorAssertion(t, err)
		})
	}
}

func TestProgressService_AddMinutes(t *testing.T) {
	env := setupEnv(t)
	env.add(t, readHabit(longAgo))

	entry, err := env.progress.AddMinutes(context.Background(), "h-read", date(2024, 3, 6), 16)

	require.NoError(t, err)
	assert.True(t, entry.Completed)
	assert.Equal(t, "green", entry.Badge)
}

func TestProgressService_ResetClearsDay(t *testing.T) {
	env := setupEnv(t)
	env.add(t, dailyHabit("h-walk", longAgo))
	ctx := context.Background()
	_, err := env.progress.CheckIn(ctx, "h-walk", date(2024, 3, 6))
	require.NoError(t, err)

	require.NoError(t, env.progress.Reset(ctx, "h-walk", date(2024, 3, 6)))

	_, ok := env.log.Entry(ctx, "h-walk", date(2024, 3, 6))
	assert.False(t, ok)
}
