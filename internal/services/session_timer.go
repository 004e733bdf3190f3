package services

import (
	"math"
	"sort"
	"sync"
	"time"

	"habit-tracker/internal/clock"
	"habit-tracker/internal/domain"
)

// SessionTimer holds one start instant per running habit. It is safe for
// concurrent use because the display tick reads it from another goroutine.
type SessionTimer struct {
	mu     sync.Mutex
	clock  clock.Clock
	starts map[string]time.Time
}

// NewSessionTimer creates an idle timer
func NewSessionTimer(c clock.Clock) *SessionTimer {
	return &SessionTimer{clock: c, starts: make(map[string]time.Time)}
}

// ElapsedMinutes converts a duration to whole minutes, rounding half up
// and never returning less than zero.
func ElapsedMinutes(d time.Duration) int {
	minutes := math.Round(float64(d.Milliseconds()) / 60000)
	if minutes < 0 {
		return 0
	}
	return int(minutes)
}

// Start records now as the habit's start. Starting again overwrites the
// previous start.
func (s *SessionTimer) Start(habitID string) time.Time {
	now := s.clock.Now()
	s.StartAt(habitID, now)
	return now
}

// StartAt records an explicit start, used when restoring persisted timers.
func (s *SessionTimer) StartAt(habitID string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.starts[habitID] = at
}

// Stop returns the habit to idle and reports the rounded minutes and the
// start instant. ok is false when the habit was not running.
func (s *SessionTimer) Stop(habitID string) (minutes int, startedAt time.Time, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	startedAt, ok = s.starts[habitID]
	if !ok {
		return 0, time.Time{}, false
	}
	delete(s.starts, habitID)
	return ElapsedMinutes(s.clock.Now().Sub(startedAt)), startedAt, true
}

// StartedAt returns the start instant of a running session
func (s *SessionTimer) StartedAt(habitID string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	at, ok := s.starts[habitID]
	return at, ok
}

// Remove drops the session only if it still has the given start, so a
// restart that happened in between survives. It reports whether it removed.
func (s *SessionTimer) Remove(habitID string, startedAt time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	at, ok := s.starts[habitID]
	if !ok || !sameInstant(at, startedAt) {
		return false
	}
	delete(s.starts, habitID)
	return true
}

// sameInstant compares at second precision, the precision stores keep.
func sameInstant(a, b time.Time) bool {
	return a.Truncate(time.Second).Equal(b.Truncate(time.Second))
}

// Elapsed reports time since start without changing state.
func (s *SessionTimer) Elapsed(habitID string) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	startedAt, ok := s.starts[habitID]
	if !ok {
		return 0, false
	}
	elapsed := s.clock.Now().Sub(startedAt)
	if elapsed < 0 {
		elapsed = 0
	}
	return elapsed, true
}

// IsRunning reports whether the habit has an active session
func (s *SessionTimer) IsRunning(habitID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.starts[habitID]
	return ok
}

// Running lists active sessions ordered by habit id
func (s *SessionTimer) Running() []domain.RunningTimer {
	s.mu.Lock()
	defer s.mu.Unlock()

	timers := make([]domain.RunningTimer, 0, len(s.starts))
	for id, at := range s.starts {
		timers = append(timers, domain.RunningTimer{HabitID: id, StartedAt: at})
	}
	sort.Slice(timers, func(i, j int) bool { return timers[i].HabitID < timers[j].HabitID })
	return timers
}
