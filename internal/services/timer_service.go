package services

import (
	"context"
	"sync"
	"time"

	"habit-tracker/internal/clock"
	"habit-tracker/internal/domain"
	"habit-tracker/internal/errors"
	"habit-tracker/internal/metrics"
	"habit-tracker/internal/repository"

	"go.uber.org/zap"
)

// timerServiceImpl implements the TimerService interface
type timerServiceImpl struct {
	repo         repository.Repository
	progress     ProgressService
	timer        *SessionTimer
	clock        clock.Clock
	logger       *zap.Logger
	autoComplete bool

	// stored holds the start of every session known to be in the
	// repository. Sessions whose save failed are absent and live only here.
	mu     sync.Mutex
	stored map[string]time.Time
}

// NewTimerService creates a new TimerService instance. With autoComplete set,
// EvaluateAutoComplete stops sessions once the habit's minimum is reached.
func NewTimerService(repo repository.Repository, progress ProgressService, c clock.Clock, logger *zap.Logger, autoComplete bool) TimerService {
	return &timerServiceImpl{
		repo:         repo,
		progress:     progress,
		timer:        NewSessionTimer(c),
		clock:        c,
		logger:       logger,
		autoComplete: autoComplete,
		stored:       make(map[string]time.Time),
	}
}

// Sync reconciles running sessions with the repository, which other
// processes write too. Stored timers not held here are adopted, and stored
// sessions whose timer disappeared were stopped elsewhere and are dropped.
func (t *timerServiceImpl) Sync(ctx context.Context) error {
	timers, err := t.repo.ListRunningTimers(ctx)
	if err != nil {
		return err
	}
	current := make(map[string]time.Time, len(timers))
	for _, rt := range timers {
		current[rt.HabitID] = rt.StartedAt
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for id, at := range t.stored {
		if _, ok := current[id]; ok {
			continue
		}
		t.timer.Remove(id, at)
		delete(t.stored, id)
		t.logger.Info("running timer stopped elsewhere", zap.String("habit_id", id))
	}
	for id, at := range current {
		if started, ok := t.timer.StartedAt(id); !ok || !sameInstant(started, at) {
			t.timer.StartAt(id, at)
			t.logger.Debug("running timer adopted", zap.String("habit_id", id), zap.Time("started_at", at))
		}
		t.stored[id] = at
	}
	return nil
}

// Start begins a session for a timed habit. A running session is restarted.
func (t *timerServiceImpl) Start(ctx context.Context, habitID string) (domain.RunningTimer, error) {
	habit, err := t.repo.GetHabit(ctx, habitID)
	if err != nil {
		return domain.RunningTimer{}, err
	}
	if habit.Archived {
		return domain.RunningTimer{}, errors.NewInvalidInputError("habit", habit.Name, "habit is archived")
	}
	if !habit.IsTimed() {
		return domain.RunningTimer{}, errors.NewInvalidInputError("habit", habit.Name, "only timed habits can run a timer")
	}

	if t.timer.IsRunning(habitID) {
		t.logger.Info("restarting running timer", zap.String("habit_id", habitID))
	}
	rt := domain.RunningTimer{HabitID: habitID, StartedAt: t.timer.Start(habitID)}
	saveErr := t.repo.SaveRunningTimer(ctx, rt)

	t.mu.Lock()
	if Degrade(t.logger, "save_running_timer", saveErr) {
		delete(t.stored, habitID)
	} else {
		t.stored[habitID] = rt.StartedAt
	}
	t.mu.Unlock()
	return rt, nil
}

// Stop ends a session and credits its minutes to the day it started on
func (t *timerServiceImpl) Stop(ctx context.Context, habitID string) (SessionResult, error) {
	return t.stop(ctx, habitID, StopManual)
}

// stop credits the session before clearing it, so a failed write leaves the
// session running for a retry.
func (t *timerServiceImpl) stop(ctx context.Context, habitID string, reason StopReason) (SessionResult, error) {
	startedAt, ok := t.timer.StartedAt(habitID)
	if !ok {
		return SessionResult{}, errors.NewNotFoundError("running timer", habitID)
	}
	if err := t.confirmStored(ctx, habitID, startedAt); err != nil {
		return SessionResult{}, err
	}

	habit, err := t.repo.GetHabit(ctx, habitID)
	if err != nil {
		return SessionResult{}, err
	}

	minutes := ElapsedMinutes(t.clock.Now().Sub(startedAt))
	date := domain.DateOf(startedAt, t.clock.Location())
	entry, err := t.progress.Credit(ctx, habit, date, float64(minutes))
	if err != nil {
		t.logger.Error("failed to credit session, timer kept running",
			zap.String("habit_id", habitID), zap.Int("minutes", minutes), zap.Error(err))
		return SessionResult{}, err
	}

	t.timer.Remove(habitID, startedAt)
	t.mu.Lock()
	delete(t.stored, habitID)
	t.mu.Unlock()
	Degrade(t.logger, "delete_running_timer", t.repo.DeleteRunningTimer(ctx, habitID))
	metrics.RecordSessionStopped(string(reason), minutes)

	t.logger.Info("session stopped",
		zap.String("habit_id", habitID),
		zap.String("reason", string(reason)),
		zap.Int("minutes", minutes),
		zap.Bool("completed", entry.Completed))

	return SessionResult{
		HabitID:   habitID,
		Date:      date,
		StartedAt: startedAt,
		Minutes:   minutes,
		Reason:    reason,
		Entry:     entry,
	}, nil
}

// confirmStored checks a stored session against the repository before it
// is credited. A timer another process stopped is dropped; one it restarted
// is adopted and nothing is credited. Sessions that never reached the store,
// and unreadable stores, are trusted as held.
func (t *timerServiceImpl) confirmStored(ctx context.Context, habitID string, startedAt time.Time) error {
	t.mu.Lock()
	storedAt, tracked := t.stored[habitID]
	t.mu.Unlock()
	if !tracked || !sameInstant(storedAt, startedAt) {
		return nil
	}

	timers, err := t.repo.ListRunningTimers(ctx)
	if Degrade(t.logger, "list_running_timers", err) {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for _, rt := range timers {
		if rt.HabitID != habitID {
			continue
		}
		if sameInstant(rt.StartedAt, startedAt) {
			return nil
		}
		t.timer.StartAt(habitID, rt.StartedAt)
		t.stored[habitID] = rt.StartedAt
		return errors.NewInvalidInputError("timer", habitID, "the session was restarted by another process")
	}
	t.timer.Remove(habitID, startedAt)
	delete(t.stored, habitID)
	return errors.NewNotFoundError("running timer", habitID)
}

// Elapsed reports the live duration of a running session
func (t *timerServiceImpl) Elapsed(habitID string) (time.Duration, bool) {
	return t.timer.Elapsed(habitID)
}

// Running lists active sessions
func (t *timerServiceImpl) Running() []domain.RunningTimer {
	return t.timer.Running()
}

// EvaluateAutoComplete stops every session that has reached its habit's
// minimum. It does nothing when auto-completion is disabled.
func (t *timerServiceImpl) EvaluateAutoComplete(ctx context.Context) []SessionResult {
	if !t.autoComplete {
		return nil
	}

	var results []SessionResult
	for _, rt := range t.timer.Running() {
		elapsed, ok := t.timer.Elapsed(rt.HabitID)
		if !ok {
			continue
		}
		habit, err := t.repo.GetHabit(ctx, rt.HabitID)
		if Degrade(t.logger, "get_habit", err) {
			continue
		}
		minMinutes := habit.MinMinutes()
		if minMinutes <= 0 || elapsed < time.Duration(minMinutes)*time.Minute {
			continue
		}
		result, err := t.stop(ctx, rt.HabitID, StopAuto)
		if Degrade(t.logger, "auto_complete", err) {
			continue
		}
		results = append(results, result)
	}
	return results
}
