package services

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

func setupTimerService(t *testing.T, autoComplete bool) (*testEnv, TimerService) {
	t.Helper()
	env := setupEnv(t)
	env.add(t, readHabit(longAgo), dailyHabit("h-walk", longAgo))
	return env, NewTimerService(env.repo, env.progress, env.clock, env.logger, autoComplete)
}

func TestTimerService_ReadScenario(t *testing.T) {
	// Arrange
	env, service := setupTimerService(t, false)
	ctx := context.Background()

	// Act
	_, err := service.Start(ctx, "h-read")
	require.NoError(t, err)
	env.clock.Advance(12 * time.Minute)
	result, err := service.Stop(ctx, "h-read")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 12, result.Minutes)
	assert.Equal(t, StopManual, result.Reason)
	assert.Equal(t, date(2024, 3, 6), result.Date)

	entries, err := env.repo.GetLogEntries(ctx, date(2024, 3, 6))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Completed)
	assert.Equal(t, 12.0, entries[0].Progress)
	assert.Equal(t, "yellow", entries[0].Badge)
	require.NotNil(t, entries[0].CompletedAt)
	assert.True(t, wednesday.Add(12*time.Minute).Equal(*entries[0].CompletedAt))
}

func TestTimerService_Stop(t *testing.T) {
	tests := []struct {
		name              string
		sessions          []time.Duration
		expectedProgress  float64
		expectedCompleted bool
		expectedBadge     string
	}{
		{name: "should not complete below the minimum", sessions: []time.Duration{4 * time.Minute}, expectedProgress: 4},
		{name: "should award a badge without completing", sessions: []time.Duration{7 * time.Minute}, expectedProgress: 7, expectedBadge: "red"},
		{
			name:              "should complete once sessions accumulate past the minimum",
			sessions:          []time.Duration{6 * time.Minute, 5 * time.Minute},
			expectedProgress:  11,
			expectedCompleted: true,
			expectedBadge:     "yellow",
		},
		{
			name:              "should upgrade the badge on later sessions",
			sessions:          []time.Duration{12 * time.Minute, 20 * time.Minute},
			expectedProgress:  32,
			expectedCompleted: true,
			expectedBadge:     "blue",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			env, service := setupTimerService(t, false)
			ctx := context.Background()

			// Act
			var result SessionResult
			for _, d := range tt.sessions {
				_, err := service.Start(ctx, "h-read")
				require.NoError(t, err)
				env.clock.Advance(d)
				result, err = service.Stop(ctx, "h-read")
				require.NoError(t, err)
			}

			// Assert
			assert.Equal(t, tt.expectedProgress, result.Entry.Progress)
			assert.Equal(t, tt.expectedCompleted, result.Entry.Completed)
			assert.Equal(t, tt.expectedBadge, result.Entry.Badge)
		})
	}
}

func TestTimerService_StartErrors(t *testing.T) {
	tests := []struct {
		name           string
		habitID        string
		errorAssertion func(t *testing.T, err error)
	}{
		{
			name:    "should reject unknown habits",
			habitID: "missing",
			errorAssertion: func(t *testing.T, err error) {
				assert.True(t, errors.IsNotFound(err))
			},
		},
		{
			name:    "should reject habits that are not timed",
			habitID: "h-walk",
			errorAssertion: func(t *testing.T, err error) {
				assert.True(t, errors.IsErrorType(err, errors.ErrorTypeInvalidInput))
				assert.Contains(t, err.Error(), "timed")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, service := setupTimerService(t, false)

			_, err := service.Start(context.Background(), tt.habitID)

			tt.errorAssertion(t, err)
			assert.Empty(t, service.Running())
		})
	}
}

func TestTimerService_StopWithoutStart(t *testing.T) {
	_, service := setupTimerService(t, false)

	_, err := service.Stop(context.Background(), "h-read")

	assert.True(t, errors.IsNotFound(err))
}

func TestTimerService_PersistsAndRestores(t *testing.T) {
	// Arrange
	env, first := setupTimerService(t, false)
	ctx := context.Background()
	_, err := first.Start(ctx, "h-read")
	require.NoError(t, err)

	stored, err := env.repo.ListRunningTimers(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)

	// Act
	env.clock.Advance(15 * time.Minute)
	second := NewTimerService(env.repo, env.progress, env.clock, env.logger, false)
	require.NoError(t, second.Sync(ctx))
	elapsed, ok := second.Elapsed("h-read")
	result, err := second.Stop(ctx, "h-read")

	// Assert
	assert.True(t, ok)
	assert.Equal(t, 15*time.Minute, elapsed)
	require.NoError(t, err)
	assert.Equal(t, 15, result.Minutes)
	assert.Equal(t, "green", result.Entry.Badge)

	stored, err = env.repo.ListRunningTimers(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored, "stopping should clear the persisted timer")
}

func TestTimerService_CreditsStartDate(t *testing.T) {
	// Arrange
	env, service := setupTimerService(t, false)
	ctx := context.Background()
	env.clock.Set(time.Date(2024, 3, 6, 23, 50, 0, 0, time.UTC))

	// Act
	_, err := service.Start(ctx, "h-read")
	require.NoError(t, err)
	env.clock.Advance(20 * time.Minute)
	result, err := service.Stop(ctx, "h-read")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, date(2024, 3, 6), result.Date)
	thursday, err := env.repo.GetLogEntries(ctx, date(2024, 3, 7))
	require.NoError(t, err)
	assert.Empty(t, thursday)
}

func TestTimerService_EvaluateAutoComplete(t *testing.T) {
	tests := []struct {
		name         string
		autoComplete bool
		advance      time.Duration
		expectStop   bool
	}{
		{name: "should keep running below the minimum", autoComplete: true, advance: 9*time.Minute + 59*time.Second},
		{name: "should stop at the minimum", autoComplete: true, advance: 10 * time.Minute, expectStop: true},
		{name: "should never stop when disabled", autoComplete: false, advance: 45 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			env, service := setupTimerService(t, tt.autoComplete)
			ctx := context.Background()
			_, err := service.Start(ctx, "h-read")
			require.NoError(t, err)
			env.clock.Advance(tt.advance)

			// Act
			results := service.EvaluateAutoComplete(ctx)

			// Assert
			if !tt.expectStop {
				assert.Empty(t, results)
				assert.Len(t, service.Running(), 1)
				return
			}
			require.Len(t, results, 1)
			assert.Equal(t, StopAuto, results[0].Reason)
			assert.Equal(t, 10, results[0].Minutes)
			assert.True(t, results[0].Entry.Completed)
			assert.Equal(t, "yellow", results[0].Entry.Badge)
			assert.Empty(t, service.Running())
		})
	}
}

func TestTimerService_StorageFailuresDoNotBlockSessions(t *testing.T) {
	// Arrange
	env := setupEnv(t)
	env.add(t, readHabit(longAgo))
	service := NewTimerService(failingRepo{env.repo}, env.progress, env.clock, env.logger, false)
	ctx := context.Background()

	// Act
	_, err := service.Start(ctx, "h-read")
	require.NoError(t, err)
	env.clock.Advance(11 * time.Minute)
	result, err := service.Stop(ctx, "h-read")

	// Assert
	require.NoError(t, err)
	assert.True(t, result.Entry.Completed)
	assert.Equal(t, 11.0, result.Entry.Progress)
}

// flakyLogRepo fails log writes while fail is set
type flakyLogRepo struct {
	repository.Repository
	fail bool
}

func (r *flakyLogRepo) UpsertLogEntry(ctx context.Context, entry domain.LogEntry) error {
	if r.fail {
		return errStoreDown
	}
	return r.Repository.UpsertLogEntry(ctx, entry)
}

func readProgress(t *testing.T, env *testEnv) float64 {
	t.Helper()
	entry, _ := env.log.Entry(context.Background(), "h-read", date(2024, 3, 6))
	return entry.Progress
}

func TestTimerService_SyncFollowsOtherProcesses(t *testing.T) {
	t.Run("should drop a session stopped elsewhere without crediting it again", func(t *testing.T) {
		// Arrange
		env := setupEnv(t)
		env.add(t, readHabit(longAgo))
		ctx := context.Background()
		watcher := NewTimerService(env.repo, env.progress, env.clock, env.logger, true)
		cli := NewTimerService(env.repo, env.progress, env.clock, env.logger, false)
		_, err := watcher.Start(ctx, "h-read")
		require.NoError(t, err)
		require.NoError(t, cli.Sync(ctx))
		env.clock.Advance(5 * time.Minute)
		_, err = cli.Stop(ctx, "h-read")
		require.NoError(t, err)

		// Act
		env.clock.Advance(6 * time.Minute)
		require.NoError(t, watcher.Sync(ctx))
		results := watcher.EvaluateAutoComplete(ctx)

		// Assert
		assert.Empty(t, results)
		assert.Empty(t, watcher.Running())
		assert.Equal(t, 5.0, readProgress(t, env))
	})

	t.Run("should adopt a session started elsewhere", func(t *testing.T) {
		// Arrange
		env := setupEnv(t)
		env.add(t, readHabit(longAgo))
		ctx := context.Background()
		watcher := NewTimerService(env.repo, env.progress, env.clock, env.logger, true)
		cli := NewTimerService(env.repo, env.progress, env.clock, env.logger, false)
		require.NoError(t, watcher.Sync(ctx))
		_, err := cli.Start(ctx, "h-read")
		require.NoError(t, err)

		// Act
		env.clock.Advance(10 * time.Minute)
		require.NoError(t, watcher.Sync(ctx))
		results := watcher.EvaluateAutoComplete(ctx)

		// Assert
		require.Len(t, results, 1)
		assert.Equal(t, 10, results[0].Minutes)
		assert.True(t, results[0].Entry.Completed)
		stored, err := env.repo.ListRunningTimers(ctx)
		require.NoError(t, err)
		assert.Empty(t, stored)
	})
}

func TestTimerService_StopConfirmsStoredTimer(t *testing.T) {
	tests := []struct {
		name             string
		elsewhere        func(t *testing.T, ctx context.Context, other TimerService, env *testEnv)
		expectedProgress float64
		expectedElapsed  time.Duration
		errorAssertion   func(t *testing.T, err error)
	}{
		{
			name: "should not credit a session stopped by another process",
			elsewhere: func(t *testing.T, ctx context.Context, other TimerService, env *testEnv) {
				_, err := other.Stop(ctx, "h-read")
				require.NoError(t, err)
			},
			expectedProgress: 5,
			errorAssertion: func(t *testing.T, err error) {
				assert.True(t, errors.IsNotFound(err))
			},
		},
		{
			name: "should adopt a session restarted by another process",
			elsewhere: func(t *testing.T, ctx context.Context, other TimerService, env *testEnv) {
				_, err := other.Start(ctx, "h-read")
				require.NoError(t, err)
				env.clock.Advance(4 * time.Minute)
			},
			expectedElapsed: 4 * time.Minute,
			errorAssertion: func(t *testing.T, err error) {
				assert.True(t, errors.IsErrorType(err, errors.ErrorTypeInvalidInput))
				assert.Contains(t, err.Error(), "restarted")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			env, service := setupTimerService(t, false)
			ctx := context.Background()
			other := NewTimerService(env.repo, env.progress, env.clock, env.logger, false)
			_, err := service.Start(ctx, "h-read")
			require.NoError(t, err)
			require.NoError(t, other.Sync(ctx))
			env.clock.Advance(5 * time.Minute)
			tt.elsewhere(t, ctx, other, env)

			// Act
			_, err = service.Stop(ctx, "h-read")

			// Assert
			tt.errorAssertion(t, err)
			assert.Equal(t, tt.expectedProgress, readProgress(t, env))
			elapsed, running := service.Elapsed("h-read")
			assert.Equal(t, tt.expectedElapsed > 0, running)
			assert.Equal(t, tt.expectedElapsed, elapsed)
		})
	}
}

func TestTimerService_FailedCreditKeepsSession(t *testing.T) {
	// Arrange
	env := setupEnv(t)
	env.add(t, readHabit(longAgo))
	repo := &flakyLogRepo{Repository: env.repo, fail: true}
	log := NewCompletionLog(repo, env.clock, env.logger)
	service := NewTimerService(repo, NewProgressService(repo, log, env.logger), env.clock, env.logger, false)
	ctx := context.Background()
	_, err := service.Start(ctx, "h-read")
	require.NoError(t, err)
	env.clock.Advance(20 * time.Minute)

	// Act
	_, err = service.Stop(ctx, "h-read")

	// Assert
	require.ErrorIs(t, err, errStoreDown)
	assert.Len(t, service.Running(), 1)
	stored, err := env.repo.ListRunningTimers(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, 1)

	repo.fail = false
	result, err := service.Stop(ctx, "h-read")
	require.NoError(t, err)
	assert.Equal(t, 20, result.Minutes)
	assert.Equal(t, 20.0, readProgress(t, env))
	assert.Empty(t, service.Running())
}
