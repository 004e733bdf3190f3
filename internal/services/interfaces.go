package services

import (
	"context"
	"time"

	"habit-tracker/internal/domain"
)

// DayStatus describes how far a due habit got on a date
type DayStatus string

const (
	StatusNotStarted DayStatus = "not_started" // no log entry
	StatusAttempted  DayStatus = "attempted"   // entry exists, not completed
	StatusCompleted  DayStatus = "completed"
)

// StopReason records why a timed session ended
type StopReason string

const (
	StopManual StopReason = "manual"
	StopAuto   StopReason = "auto"
)

// TodayItem is one due habit on a day view
type TodayItem struct {
	Habit    domain.Habit  `json:"habit"`
	Status   DayStatus     `json:"status"`
	Progress float64       `json:"progress"`
	Badge    string        `json:"badge,omitempty"`
	Running  bool          `json:"running"`
	Elapsed  time.Duration `json:"elapsed"`
}

// StreakResult holds the overall streak and one streak per habit id
type StreakResult struct {
	Overall  int            `json:"overall"`
	PerHabit map[string]int `json:"per_habit"`
}

// SessionResult is a timed session that has been committed to the log
type SessionResult struct {
	HabitID   string          `json:"habit_id"`
	Date      domain.Date     `json:"date"`
	StartedAt time.Time       `json:"started_at"`
	Minutes   int             `json:"minutes"`
	Reason    StopReason      `json:"reason"`
	Entry     domain.LogEntry `json:"entry"`
}

// ReminderPayload is handed to the notifier with every scheduled reminder
type ReminderPayload struct {
	HabitID   string      `json:"habit_id"`
	HabitName string      `json:"habit_name"`
	Date      domain.Date `json:"date"`
	At        time.Time   `json:"at"`
}

// PlannedReminder is a reminder the notifier accepted
type PlannedReminder struct {
	ReminderPayload
	Token string `json:"token"`
}

// DailySummary counts due and completed habits on a date
type DailySummary struct {
	Date      domain.Date `json:"date"`
	Due       int         `json:"due"`
	Completed int         `json:"completed"`
}

// Rate returns the completed fraction, or zero when nothing was due.
func (s DailySummary) Rate() float64 {
	if s.Due == 0 {
		return 0
	}
	return float64(s.Completed) / float64(s.Due)
}

// DailyMinutes is one point of a time-on-task series
type DailyMinutes struct {
	Date    domain.Date `json:"date"`
	Minutes float64     `json:"minutes"`
}

// HabitSpec carries the user-supplied attributes of a new habit
type HabitSpec struct {
	Name      string
	Cadence   domain.Cadence
	Metric    domain.Metric
	Tiers     []domain.Tier
	Reminders []domain.ReminderTime
}

// HabitUpdate carries optional edits. Nil fields are left unchanged.
type HabitUpdate struct {
	Name      *string
	Cadence   *domain.Cadence
	Metric    domain.Metric
	Tiers     *[]domain.Tier
	Reminders *[]domain.ReminderTime
}

// Notifier delivers local reminders. Cancellation is idempotent.
type Notifier interface {
	Schedule(at time.Time, payload ReminderPayload) (string, error)
	Cancel(token string) error
	CancelAll() error
}

// CatalogService owns the lifecycle of habit definitions
type CatalogService interface {
	CreateHabit(ctx context.Context, spec HabitSpec) (domain.Habit, error)
	GetHabit(ctx context.Context, id string) (domain.Habit, error)
	FindHabit(ctx context.Context, ref string) (domain.Habit, error)
	ListHabits(ctx context.Context, includeArchived bool) ([]domain.Habit, error)
	UpdateHabit(ctx context.Context, id string, update HabitUpdate) (domain.Habit, error)
	ArchiveHabit(ctx context.Context, id string) (domain.Habit, error)
	UnarchiveHabit(ctx context.Context, id string) (domain.Habit, error)
	DeleteHabit(ctx context.Context, id string) error
}

// CompletionLog reads and writes per-day progress
type CompletionLog interface {
	Get(ctx context.Context, date domain.Date) []domain.LogEntry
	Entry(ctx context.Context, habitID string, date domain.Date) (domain.LogEntry, bool)
	Upsert(ctx context.Context, entry domain.LogEntry) error
	RecordProgress(ctx context.Context, habitID string, date domain.Date, delta float64, completed bool, badge string) (domain.LogEntry, error)
	Reset(ctx context.Context, habitID string, date domain.Date) error
}

// ProgressService applies metric semantics on top of the completion log
type ProgressService interface {
	Credit(ctx context.Context, habit domain.Habit, date domain.Date, delta float64) (domain.LogEntry, error)
	CheckIn(ctx context.Context, habitID string, date domain.Date) (domain.LogEntry, error)
	AddCount(ctx context.Context, habitID string, date domain.Date, amount float64) (domain.LogEntry, error)
	AddMinutes(ctx context.Context, habitID string, date domain.Date, minutes int) (domain.LogEntry, error)
	Reset(ctx context.Context, habitID string, date domain.Date) error
}

// StreakService computes streaks from stored history
type StreakService interface {
	Streaks(ctx context.Context, asOf domain.Date) StreakResult
}

// TimerService runs timed sessions and commits them to the log
type TimerService interface {
	Sync(ctx context.Context) error
	Start(ctx context.Context, habitID string) (domain.RunningTimer, error)
	Stop(ctx context.Context, habitID string) (SessionResult, error)
	Elapsed(habitID string) (time.Duration, bool)
	Running() []domain.RunningTimer
	EvaluateAutoComplete(ctx context.Context) []SessionResult
}

// ReminderService keeps the notifier in sync with habits and progress
type ReminderService interface {
	Wanted(ctx context.Context, payload ReminderPayload) bool
	PlanNext(ctx context.Context, habit domain.Habit) (time.Time, bool)
	Replan(ctx context.Context, habits []domain.Habit) []PlannedReminder
	ReplanAll(ctx context.Context) []PlannedReminder
	CancelAll()
}

// NudgeService correlates reminders with completions
type NudgeService interface {
	Effectiveness(ctx context.Context, habitID string) (float64, bool)
}

// InsightsService aggregates history for reporting
type InsightsService interface {
	DailySummaries(ctx context.Context, from, to domain.Date) []DailySummary
	CompletionHours(ctx context.Context, from, to domain.Date) [24]int
	TimeOnTask(ctx context.Context, habitID string, from, to domain.Date) []DailyMinutes
}

// ServiceContainer manages all services and their dependencies
type ServiceContainer struct {
	Catalog   CatalogService
	Log       CompletionLog
	Progress  ProgressService
	Streaks   StreakService
	Timers    TimerService
	Reminders ReminderService
	Nudges    NudgeService
	Insights  InsightsService
}
