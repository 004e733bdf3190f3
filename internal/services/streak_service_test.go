package services

import (
	"context"
	"testing"
	"time"

	"habit-tracker/internal/domain"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var longAgo = time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)

func entriesFor(habitID string, dates ...domain.Date) []domain.LogEntry {
	var entries []domain.LogEntry
	for _, d := range dates {
		entries = append(entries, domain.LogEntry{HabitID: habitID, Date: d, Completed: true, Progress: 1})
	}
	return entries
}

func TestComputeStreaks(t *testing.T) {
	read := readHabit(longAgo)
	walk := dailyHabit("h-walk", longAgo)
	fresh := readHabit(time.Date(2024, 3, 4, 6, 0, 0, 0, time.UTC))

	tests := []struct {
		name     string
		habits   []domain.Habit
		entries  []domain.LogEntry
		asOf     domain.Date
		expected StreakResult
	}{
		{
			name:     "should count three completed due days before a miss",
			habits:   []domain.Habit{read},
			entries:  entriesFor("h-read", date(2024, 3, 8), date(2024, 3, 6), date(2024, 3, 4)),
			asOf:     date(2024, 3, 8),
			expected: StreakResult{Overall: 3, PerHabit: map[string]int{"h-read": 3}},
		},
		{
			name:     "should not break on a day with nothing due",
			habits:   []domain.Habit{read},
			entries:  entriesFor("h-read", date(2024, 3, 6), date(2024, 3, 4)),
			asOf:     date(2024, 3, 7),
			expected: StreakResult{Overall: 2, PerHabit: map[string]int{"h-read": 2}},
		},
		{
			name:     "should not count days before creation as missed",
			habits:   []domain.Habit{fresh},
			entries:  entriesFor("h-read", date(2024, 3, 6), date(2024, 3, 4)),
			asOf:     date(2024, 3, 6),
			expected: StreakResult{Overall: 2, PerHabit: map[string]int{"h-read": 2}},
		},
		{
			name:   "should walk each habit independently",
			habits: []domain.Habit{read, walk},
			entries: append(
				entriesFor("h-walk", date(2024, 3, 6), date(2024, 3, 5), date(2024, 3, 4)),
				entriesFor("h-read", date(2024, 3, 6))...,
			),
			asOf:     date(2024, 3, 6),
			expected: StreakResult{Overall: 2, PerHabit: map[string]int{"h-read": 1, "h-walk": 3}},
		},
		{
			name:     "should break the overall streak when today is incomplete",
			habits:   []domain.Habit{walk},
			entries:  entriesFor("h-walk", date(2024, 3, 5), date(2024, 3, 4)),
			asOf:     date(2024, 3, 6),
			expected: StreakResult{Overall: 0, PerHabit: map[string]int{"h-walk": 0}},
		},
		{
			name:     "should return zeros without habits",
			asOf:     date(2024, 3, 6),
			expected: StreakResult{Overall: 0, PerHabit: map[string]int{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			result, _ := ComputeStreaks(tt.habits, NewCompletionSet(tt.entries), tt.asOf, DefaultStreakHorizon, time.UTC)

			// Assert
			if diff := cmp.Diff(tt.expected, result); diff != "" {
				t.Errorf("ComputeStreaks() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestComputeStreaks_IgnoresIncompleteEntries(t *testing.T) {
	habits := []domain.Habit{dailyHabit("h-walk", longAgo)}
	entries := []domain.LogEntry{
		{HabitID: "h-walk", Date: date(2024, 3, 6), Completed: false, Progress: 3},
		{HabitID: "h-walk", Date: date(2024, 3, 5), Completed: true, Progress: 1},
	}

	result, _ := ComputeStreaks(habits, NewCompletionSet(entries), date(2024, 3, 6), DefaultStreakHorizon, time.UTC)

	assert.Equal(t, 0, result.PerHabit["h-walk"], "an attempted day is not a completed day")
}

func TestComputeStreaks_RoundTrip(t *testing.T) {
	habits := []domain.Habit{readHabit(longAgo)}
	asOf := date(2024, 3, 8)

	for n := 0; n <= 6; n++ {
		var done []domain.Date
		d := asOf
		for len(done) < n {
			if IsDue(habits[0], d, time.UTC) {
				done = append(done, d)
			}
			d = d.AddDays(-1)
		}

		result, _ := ComputeStreaks(habits, NewCompletionSet(entriesFor("h-read", done...)), asOf, DefaultStreakHorizon, time.UTC)

		assert.Equal(t, n, result.PerHabit["h-read"], "n=%d", n)
	}
}

func TestComputeStreaks_IsIdempotent(t *testing.T) {
	habits := []domain.Habit{readHabit(longAgo), dailyHabit("h-walk", longAgo)}
	done := NewCompletionSet(append(
		entriesFor("h-read", date(2024, 3, 6), date(2024, 3, 4)),
		entriesFor("h-walk", date(2024, 3, 6), date(2024, 3, 5))...,
	))

	first, firstWalked := ComputeStreaks(habits, done, date(2024, 3, 6), DefaultStreakHorizon, time.UTC)
	second, secondWalked := ComputeStreaks(habits, done, date(2024, 3, 6), DefaultStreakHorizon, time.UTC)

	assert.Empty(t, cmp.Diff(first, second))
	assert.Equal(t, firstWalked, secondWalked)
}

func TestComputeStreaks_EarlyExit(t *testing.T) {
	tests := []struct {
		name           string
		entries        []domain.LogEntry
		expectedWalked int
	}{
		{name: "should stop after the first day when everything is broken", expectedWalked: 1},
		{
			name:           "should stop on the first miss",
			entries:        entriesFor("h-walk", date(2024, 3, 6), date(2024, 3, 5)),
			expectedWalked: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			habits := []domain.Habit{dailyHabit("h-walk", longAgo)}

			_, walked := ComputeStreaks(habits, NewCompletionSet(tt.entries), date(2024, 3, 6), DefaultStreakHorizon, time.UTC)

			assert.Equal(t, tt.expectedWalked, walked)
		})
	}
}

func TestComputeStreaks_StopsAtHorizon(t *testing.T) {
	habits := []domain.Habit{dailyHabit("h-walk", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))}
	asOf := date(2024, 3, 6)
	var done []domain.Date
	for i := 0; i < 400; i++ {
		done = append(done, asOf.AddDays(-i))
	}

	result, walked := ComputeStreaks(habits, NewCompletionSet(entriesFor("h-walk", done...)), asOf, 30, time.UTC)

	assert.Equal(t, 30, result.Overall)
	assert.Equal(t, 30, result.PerHabit["h-walk"])
	assert.Equal(t, 30, walked)
}

func TestStreakService_Streaks(t *testing.T) {
	// Arrange
	env := setupEnv(t)
	env.add(t, readHabit(longAgo))
	env.complete(t, "h-read", date(2024, 3, 8), date(2024, 3, 6), date(2024, 3, 4))
	service := NewStreakService(env.repo, env.clock, env.logger, 0)

	// Act
	result := service.Streaks(context.Background(), date(2024, 3, 8))

	// Assert
	assert.Equal(t, 3, result.Overall)
	assert.Equal(t, map[string]int{"h-read": 3}, result.PerHabit)
}

func TestStreakService_DegradesOnStorageFailure(t *testing.T) {
	// Arrange
	env := setupEnv(t)
	env.add(t, readHabit(longAgo))
	service := NewStreakService(failingRepo{env.repo}, env.clock, env.logger, 30)

	// Act
	result := service.Streaks(context.Background(), date(2024, 3, 8))

	// Assert
	require.NotNil(t, result.PerHabit)
	assert.Equal(t, 0, result.Overall)
	assert.Empty(t, result.PerHabit)
}
