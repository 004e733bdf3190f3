package services

import (
	"sync"
	"testing"
	"time"

	"habit-tracker/internal/clock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElapsedMinutes(t *testing.T) {
	tests := []struct {
		name     string
		elapsed  time.Duration
		expected int
	}{
		{name: "should round 125 seconds down to 2", elapsed: 125 * time.Second, expected: 2},
		{name: "should round 90 seconds up to 2", elapsed: 90 * time.Second, expected: 2},
		{name: "should round 29 seconds to 0", elapsed: 29 * time.Second, expected: 0},
		{name: "should round 30 seconds to 1", elapsed: 30 * time.Second, expected: 1},
		{name: "should ignore sub-millisecond noise", elapsed: 12*time.Minute + 400*time.Microsecond, expected: 12},
		{name: "should clamp negative durations to 0", elapsed: -5 * time.Minute, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ElapsedMinutes(tt.elapsed))
		})
	}
}

func TestSessionTimer_StartStop(t *testing.T) {
	// Arrange
	c := clock.NewFake(wednesday)
	timer := NewSessionTimer(c)

	// Act
	startedAt := timer.Start("h-read")
	c.Advance(125 * time.Second)
	minutes, gotStart, ok := timer.Stop("h-read")

	// Assert
	require.True(t, ok)
	assert.Equal(t, 2, minutes)
	assert.True(t, startedAt.Equal(gotStart))
	assert.False(t, timer.IsRunning("h-read"), "stop should return the habit to idle")
}

func TestSessionTimer_StopWhenIdle(t *testing.T) {
	timer := NewSessionTimer(clock.NewFake(wednesday))

	minutes, _, ok := timer.Stop("h-read")

	assert.False(t, ok)
	assert.Zero(t, minutes)
}

func TestSessionTimer_RestartOverwritesStart(t *testing.T) {
	// Arrange
	c := clock.NewFake(wednesday)
	timer := NewSessionTimer(c)
	timer.Start("h-read")
	c.Advance(20 * time.Minute)

	// Act
	timer.Start("h-read")
	c.Advance(3 * time.Minute)
	minutes, _, ok := timer.Stop("h-read")

	// Assert
	require.True(t, ok)
	assert.Equal(t, 3, minutes, "elapsed time before the restart is lost")
}

func TestSessionTimer_ElapsedHasNoSideEffects(t *testing.T) {
	// Arrange
	c := clock.NewFake(wednesday)
	timer := NewSessionTimer(c)
	timer.Start("h-read")
	c.Advance(90 * time.Second)

	// Act
	first, ok := timer.Elapsed("h-read")
	second, _ := timer.Elapsed("h-read")

	// Assert
	require.True(t, ok)
	assert.Equal(t, 90*time.Second, first)
	assert.Equal(t, first, second)
	assert.True(t, timer.IsRunning("h-read"))

	_, ok = timer.Elapsed("h-other")
	assert.False(t, ok)
}

func TestSessionTimer_RunningIsSorted(t *testing.T) {
	timer := NewSessionTimer(clock.NewFake(wednesday))
	timer.Start("h-b")
	timer.StartAt("h-a", wednesday.Add(-time.Hour))

	running := timer.Running()

	require.Len(t, running, 2)
	assert.Equal(t, "h-a", running[0].HabitID)
	assert.True(t, wednesday.Add(-time.Hour).Equal(running[0].StartedAt))
	assert.Equal(t, "h-b", running[1].HabitID)
}

func TestSessionTimer_ConcurrentReads(t *testing.T) {
	c := clock.NewFake(wednesday)
	timer := NewSessionTimer(c)
	timer.Start("h-read")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				timer.Elapsed("h-read")
				timer.Running()
			}
		}()
	}
	for j := 0; j < 100; j++ {
		c.Advance(time.Second)
		timer.Start("h-other")
	}
	wg.Wait()

	assert.True(t, timer.IsRunning("h-read"))
}
