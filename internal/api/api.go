package api

import (
	"context"
	"sort"
	"sync"
	"time"

	"habit-tracker/internal/clock"
	"habit-tracker/internal/config"
	"habit-tracker/internal/domain"
	"habit-tracker/internal/notify"
	"habit-tracker/internal/repository"
	"habit-tracker/internal/services"
	"habit-tracker/internal/validation"

	"go.uber.org/zap"
)

// Options carries the collaborators of an Engine. Only Repo is required.
type Options struct {
	Config *config.Config
	Repo   repository.Repository
	Clock  clock.Clock
	Logger *zap.Logger

	// Notifier receives scheduled reminders. When nil, reminders are
	// computed on demand but nothing is scheduled.
	Notifier services.Notifier
}

// TimerStatus describes a running session for display
type TimerStatus struct {
	Habit     domain.Habit  `json:"habit"`
	StartedAt time.Time     `json:"started_at"`
	Elapsed   time.Duration `json:"elapsed"`
}

// Engine is the single entry point the CLI drives. It resolves habits by
// name or id and keeps scheduled reminders in step with every change.
type Engine struct {
	cfg    *config.Config
	repo   repository.Repository
	clock  clock.Clock
	logger *zap.Logger
	svc    *services.ServiceContainer
	replan bool

	mu      sync.Mutex
	lastDay domain.Date
}

// New wires the services and restores any sessions left running by a
// previous process.
func New(ctx context.Context, opts Options) (*Engine, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.NewConfig()
	}
	c := opts.Clock
	if c == nil {
		c = clock.NewSystem(cfg.Engine.Timezone)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.Discard{}
	}

	repo := opts.Repo
	log := services.NewCompletionLog(repo, c, logger)
	progress := services.NewProgressService(repo, log, logger)
	svc := &services.ServiceContainer{
		Catalog:   services.NewCatalogService(repo, validation.NewHabitValidatorWithConfig(cfg), c, logger, cfg.Engine.ApplyDefaultTiers),
		Log:       log,
		Progress:  progress,
		Streaks:   services.NewStreakService(repo, c, logger, cfg.Engine.StreakHorizonDays),
		Timers:    services.NewTimerService(repo, progress, c, logger, cfg.Engine.AutoComplete),
		Reminders: services.NewReminderService(repo, log, notifier, c, logger, cfg.Engine.ReminderLookaheadDays),
		Nudges:    services.NewNudgeService(repo, logger, cfg.Engine.NudgeWindow),
		Insights:  services.NewInsightsService(repo, c, logger),
	}

	e := &Engine{
		cfg:     cfg,
		repo:    repo,
		clock:   c,
		logger:  logger,
		svc:     svc,
		replan:  opts.Notifier != nil,
		lastDay: clock.Today(c),
	}

	if err := svc.Timers.Sync(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

// Services exposes the underlying service container
func (e *Engine) Services() *services.ServiceContainer {
	return e.svc
}

// Config returns the configuration the engine was built with
func (e *Engine) Config() *config.Config {
	return e.cfg
}

// Clock returns the engine's clock
func (e *Engine) Clock() clock.Clock {
	return e.clock
}

// Today returns the current date in the engine's timezone
func (e *Engine) Today() domain.Date {
	return clock.Today(e.clock)
}

// Close cancels scheduled reminders and closes the repository
func (e *Engine) Close() error {
	if e.replan {
		e.svc.Reminders.CancelAll()
	}
	return e.repo.Close()
}

// ========== Habit catalog ==========

func (e *Engine) CreateHabit(ctx context.Context, spec services.HabitSpec) (domain.Habit, error) {
	habit, err := e.svc.Catalog.CreateHabit(ctx, spec)
	if err != nil {
		return domain.Habit{}, err
	}
	e.replanHabit(ctx, habit)
	return habit, nil
}

// FindHabit resolves a habit by id or name
func (e *Engine) FindHabit(ctx context.Context, ref string) (domain.Habit, error) {
	return e.svc.Catalog.FindHabit(ctx, ref)
}

func (e *Engine) ListHabits(ctx context.Context, includeArchived bool) ([]domain.Habit, error) {
	return e.svc.Catalog.ListHabits(ctx, includeArchived)
}

func (e *Engine) UpdateHabit(ctx context.Context, ref string, update services.HabitUpdate) (domain.Habit, error) {
	habit, err := e.FindHabit(ctx, ref)
	if err != nil {
		return domain.Habit{}, err
	}
	habit, err = e.svc.Catalog.UpdateHabit(ctx, habit.ID, update)
	if err != nil {
		return domain.Habit{}, err
	}
	e.replanHabit(ctx, habit)
	return habit, nil
}

// ArchiveHabit hides a habit. A running session is committed first.
func (e *Engine) ArchiveHabit(ctx context.Context, ref string) (domain.Habit, error) {
	habit, err := e.FindHabit(ctx, ref)
	if err != nil {
		return domain.Habit{}, err
	}
	e.stopIfRunning(ctx, habit.ID)
	habit, err = e.svc.Catalog.ArchiveHabit(ctx, habit.ID)
	if err != nil {
		return domain.Habit{}, err
	}
	e.replanHabit(ctx, habit)
	return habit, nil
}

func (e *Engine) UnarchiveHabit(ctx context.Context, ref string) (domain.Habit, error) {
	habit, err := e.FindHabit(ctx, ref)
	if err != nil {
		return domain.Habit{}, err
	}
	habit, err = e.svc.Catalog.UnarchiveHabit(ctx, habit.ID)
	if err != nil {
		return domain.Habit{}, err
	}
	e.replanHabit(ctx, habit)
	return habit, nil
}

// DeleteHabit removes a habit and its history
func (e *Engine) DeleteHabit(ctx context.Context, ref string) (domain.Habit, error) {
	habit, err := e.FindHabit(ctx, ref)
	if err != nil {
		return domain.Habit{}, err
	}
	e.stopIfRunning(ctx, habit.ID)
	if err := e.svc.Catalog.DeleteHabit(ctx, habit.ID); err != nil {
		return domain.Habit{}, err
	}
	if e.replan {
		e.svc.Reminders.ReplanAll(ctx)
	}
	return habit, nil
}

// ========== Progress ==========

func (e *Engine) CheckIn(ctx context.Context, ref string, date domain.Date) (domain.LogEntry, error) {
	return e.progress(ctx, ref, func(id string) (domain.LogEntry, error) {
		return e.svc.Progress.CheckIn(ctx, id, date)
	})
}

func (e *Engine) AddCount(ctx context.Context, ref string, date domain.Date, amount float64) (domain.LogEntry, error) {
	return e.progress(ctx, ref, func(id string) (domain.LogEntry, error) {
		return e.svc.Progress.AddCount(ctx, id, date, amount)
	})
}

func (e *Engine) AddMinutes(ctx context.Context, ref string, date domain.Date, minutes int) (domain.LogEntry, error) {
	return e.progress(ctx, ref, func(id string) (domain.LogEntry, error) {
		return e.svc.Progress.AddMinutes(ctx, id, date, minutes)
	})
}

// Reset clears a day back to not started
func (e *Engine) Reset(ctx context.Context, ref string, date domain.Date) error {
	_, err := e.progress(ctx, ref, func(id string) (domain.LogEntry, error) {
		return domain.LogEntry{}, e.svc.Progress.Reset(ctx, id, date)
	})
	return err
}

func (e *Engine) progress(ctx context.Context, ref string, apply func(id string) (domain.LogEntry, error)) (domain.LogEntry, error) {
	habit, err := e.FindHabit(ctx, ref)
	if err != nil {
		return domain.LogEntry{}, err
	}
	entry, err := apply(habit.ID)
	if err != nil {
		return domain.LogEntry{}, err
	}
	e.replanHabit(ctx, habit)
	return entry, nil
}

// ========== Timers ==========

func (e *Engine) StartTimer(ctx context.Context, ref string) (domain.RunningTimer, error) {
	habit, err := e.FindHabit(ctx, ref)
	if err != nil {
		return domain.RunningTimer{}, err
	}
	return e.svc.Timers.Start(ctx, habit.ID)
}

func (e *Engine) StopTimer(ctx context.Context, ref string) (services.SessionResult, error) {
	habit, err := e.FindHabit(ctx, ref)
	if err != nil {
		return services.SessionResult{}, err
	}
	result, err := e.svc.Timers.Stop(ctx, habit.ID)
	if err != nil {
		return services.SessionResult{}, err
	}
	e.replanHabit(ctx, habit)
	return result, nil
}

// RunningTimers lists active sessions with their habits. Sessions whose
// habit can no longer be read are skipped.
func (e *Engine) RunningTimers(ctx context.Context) []TimerStatus {
	var out []TimerStatus
	for _, rt := range e.svc.Timers.Running() {
		habit, err := e.svc.Catalog.GetHabit(ctx, rt.HabitID)
		if services.Degrade(e.logger, "get_habit", err) {
			continue
		}
		elapsed, _ := e.svc.Timers.Elapsed(rt.HabitID)
		out = append(out, TimerStatus{Habit: habit, StartedAt: rt.StartedAt, Elapsed: elapsed})
	}
	return out
}

func (e *Engine) stopIfRunning(ctx context.Context, habitID string) {
	if _, running := e.svc.Timers.Elapsed(habitID); !running {
		return
	}
	_, err := e.svc.Timers.Stop(ctx, habitID)
	services.Degrade(e.logger, "stop_timer", err)
}

// ========== Views ==========

// DayView lists the habits due on date with progress and live timers
func (e *Engine) DayView(ctx context.Context, date domain.Date) ([]services.TodayItem, error) {
	habits, err := e.svc.Catalog.ListHabits(ctx, false)
	if err != nil {
		return nil, err
	}
	items := services.BuildDayView(habits, e.svc.Log.Get(ctx, date), date, e.clock.Location())
	for i := range items {
		if elapsed, ok := e.svc.Timers.Elapsed(items[i].Habit.ID); ok {
			items[i].Running = true
			items[i].Elapsed = elapsed
		}
	}
	return items, nil
}

func (e *Engine) Streaks(ctx context.Context, asOf domain.Date) services.StreakResult {
	return e.svc.Streaks.Streaks(ctx, asOf)
}

// UpcomingReminders returns the next trigger of every active habit, in time order
func (e *Engine) UpcomingReminders(ctx context.Context) ([]services.ReminderPayload, error) {
	habits, err := e.svc.Catalog.ListHabits(ctx, false)
	if err != nil {
		return nil, err
	}
	loc := e.clock.Location()
	var out []services.ReminderPayload
	for _, h := range habits {
		at, ok := e.svc.Reminders.PlanNext(ctx, h)
		if !ok {
			continue
		}
		out = append(out, services.ReminderPayload{
			HabitID:   h.ID,
			HabitName: h.Name,
			Date:      domain.DateOf(at, loc),
			At:        at,
		})
	}
	sortPayloads(out)
	return out, nil
}

// ReplanAll schedules reminders for the whole catalog
func (e *Engine) ReplanAll(ctx context.Context) []services.PlannedReminder {
	return e.svc.Reminders.ReplanAll(ctx)
}

// NudgeEffectiveness reports the share of completions that followed a reminder
func (e *Engine) NudgeEffectiveness(ctx context.Context, ref string) (domain.Habit, float64, bool, error) {
	habit, err := e.FindHabit(ctx, ref)
	if err != nil {
		return domain.Habit{}, 0, false, err
	}
	ratio, ok := e.svc.Nudges.Effectiveness(ctx, habit.ID)
	return habit, ratio, ok, nil
}

func (e *Engine) DailySummaries(ctx context.Context, from, to domain.Date) []services.DailySummary {
	return e.svc.Insights.DailySummaries(ctx, from, to)
}

func (e *Engine) CompletionHours(ctx context.Context, from, to domain.Date) [24]int {
	return e.svc.Insights.CompletionHours(ctx, from, to)
}

func (e *Engine) TimeOnTask(ctx context.Context, ref string, from, to domain.Date) ([]services.DailyMinutes, error) {
	habit, err := e.FindHabit(ctx, ref)
	if err != nil {
		return nil, err
	}
	return e.svc.Insights.TimeOnTask(ctx, habit.ID, from, to), nil
}

// ========== Tick ==========

// Tick re-evaluates time-dependent state. Running sessions are first
// reconciled with timers started or stopped by other processes, sessions
// that reached their minimum are committed, and reminders are replanned
// when the day rolls over.
func (e *Engine) Tick(ctx context.Context, now time.Time) {
	services.Degrade(e.logger, "sync_running_timers", e.svc.Timers.Sync(ctx))
	for _, result := range e.svc.Timers.EvaluateAutoComplete(ctx) {
		e.logger.Info("session auto-completed",
			zap.String("habit_id", result.HabitID),
			zap.Int("minutes", result.Minutes))
		if habit, err := e.svc.Catalog.GetHabit(ctx, result.HabitID); err == nil {
			e.replanHabit(ctx, habit)
		}
	}

	today := domain.DateOf(now, e.clock.Location())
	e.mu.Lock()
	rolled := today != e.lastDay
	e.lastDay = today
	e.mu.Unlock()

	if rolled && e.replan {
		e.logger.Info("day rolled over, replanning reminders", zap.Stringer("date", today))
		e.svc.Reminders.ReplanAll(ctx)
	}
}

// ShouldDeliver is consulted when a scheduled reminder fires. It drops
// reminders made stale by progress, archival or deletion recorded since
// they were scheduled, including by other processes.
func (e *Engine) ShouldDeliver(ctx context.Context, p services.ReminderPayload) bool {
	if e.svc.Reminders.Wanted(ctx, p) {
		return true
	}
	e.logger.Info("reminder no longer applies", zap.String("habit_id", p.HabitID), zap.Stringer("date", p.Date))
	return false
}

func (e *Engine) replanHabit(ctx context.Context, habit domain.Habit) {
	if !e.replan {
		return
	}
	e.svc.Reminders.Replan(ctx, []domain.Habit{habit})
}

func sortPayloads(p []services.ReminderPayload) {
	sort.Slice(p, func(i, j int) bool {
		if !p[i].At.Equal(p[j].At) {
			return p[i].At.Before(p[j].At)
		}
		return p[i].HabitName < p[j].HabitName
	})
}
