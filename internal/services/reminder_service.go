package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"habit-tracker/internal/clock"
	"habit-tracker/internal/domain"
	"habit-tracker/internal/errors"
	"habit-tracker/internal/metrics"
	"habit-tracker/internal/repository"

	"go.uber.org/zap"
)

// DefaultReminderLookahead bounds how many days ahead a reminder may roll
const DefaultReminderLookahead = 14

// PlanReminders returns the next trigger of every reminder time configured on
// the habit, earliest first. Each reminder fires today at its wall-clock time
// unless that moment has passed or today is already completed, in which case
// it rolls forward to the next due day it applies on.
func PlanReminders(habit domain.Habit, today domain.Date, completedToday bool, now time.Time, loc *time.Location, lookahead int) []time.Time {
	if loc == nil {
		loc = time.UTC
	}
	if lookahead <= 0 {
		lookahead = DefaultReminderLookahead
	}

	seen := make(map[int64]bool)
	var triggers []time.Time
	for _, r := range habit.Reminders {
		for i := 0; i < lookahead; i++ {
			date := today.AddDays(i)
			if i == 0 && completedToday {
				continue
			}
			if !IsDue(habit, date, loc) || !r.AppliesOn(date.Weekday()) {
				continue
			}
			at := date.At(r.Hour, r.Minute, loc)
			if !at.After(now) {
				continue
			}
			if !seen[at.UnixNano()] {
				seen[at.UnixNano()] = true
				triggers = append(triggers, at)
			}
			break
		}
	}
	sort.Slice(triggers, func(i, j int) bool { return triggers[i].Before(triggers[j]) })
	return triggers
}

// PlanNext returns the earliest upcoming reminder for the habit.
func PlanNext(habit domain.Habit, today domain.Date, todayEntry *domain.LogEntry, now time.Time, loc *time.Location) (time.Time, bool) {
	completed := todayEntry != nil && todayEntry.Completed
	triggers := PlanReminders(habit, today, completed, now, loc, DefaultReminderLookahead)
	if len(triggers) == 0 {
		return time.Time{}, false
	}
	return triggers[0], true
}

// reminderServiceImpl implements the ReminderService interface
type reminderServiceImpl struct {
	repo      repository.Repository
	log       CompletionLog
	notifier  Notifier
	clock     clock.Clock
	logger    *zap.Logger
	lookahead int

	mu     sync.Mutex
	tokens map[string][]string
}

// NewReminderService creates a new ReminderService instance
func NewReminderService(repo repository.Repository, log CompletionLog, notifier Notifier, c clock.Clock, logger *zap.Logger, lookahead int) ReminderService {
	if lookahead <= 0 {
		lookahead = DefaultReminderLookahead
	}
	return &reminderServiceImpl{
		repo:      repo,
		log:       log,
		notifier:  notifier,
		clock:     c,
		logger:    logger,
		lookahead: lookahead,
		tokens:    make(map[string][]string),
	}
}

// PlanNext computes the next trigger for a habit from the current log
func (s *reminderServiceImpl) PlanNext(ctx context.Context, habit domain.Habit) (time.Time, bool) {
	today := clock.Today(s.clock)
	completed := false
	if entry, ok := s.log.Entry(ctx, habit.ID, today); ok {
		completed = entry.Completed
	}
	triggers := PlanReminders(habit, today, completed, s.clock.Now(), s.clock.Location(), s.lookahead)
	if len(triggers) == 0 {
		return time.Time{}, false
	}
	return triggers[0], true
}

// Wanted reports whether a reminder that is about to fire still applies.
// Progress recorded by another process never cancels jobs scheduled here,
// so the habit and the reminder's day are read back at delivery time. A
// store that cannot be read keeps the reminder.
func (s *reminderServiceImpl) Wanted(ctx context.Context, p ReminderPayload) bool {
	habit, err := s.repo.GetHabit(ctx, p.HabitID)
	if errors.IsNotFound(err) {
		return false
	}
	if Degrade(s.logger, "get_habit", err) {
		return true
	}
	if habit.Archived || !IsDue(habit, p.Date, s.clock.Location()) {
		return false
	}
	if entry, ok := s.log.Entry(ctx, p.HabitID, p.Date); ok && entry.Completed {
		return false
	}
	return true
}

// Replan cancels everything scheduled for the given habits and schedules
// their reminders from scratch. Notifier and storage failures are absorbed.
func (s *reminderServiceImpl) Replan(ctx context.Context, habits []domain.Habit) []PlannedReminder {
	now := s.clock.Now()
	loc := s.clock.Location()
	today := domain.DateOf(now, loc)
	done := NewCompletionSet(s.log.Get(ctx, today))

	var planned []PlannedReminder
	for _, habit := range habits {
		s.cancel(habit.ID)
		Degrade(s.logger, "delete_nudges", s.repo.DeleteNudgesFrom(ctx, habit.ID, now))
		if habit.Archived {
			continue
		}

		for _, at := range PlanReminders(habit, today, done.Has(habit.ID, today), now, loc, s.lookahead) {
			payload := ReminderPayload{
				HabitID:   habit.ID,
				HabitName: habit.Name,
				Date:      domain.DateOf(at, loc),
				At:        at,
			}
			token, err := s.notifier.Schedule(at, payload)
			metrics.RecordReminderScheduled(err == nil)
			if Degrade(s.logger, "schedule_reminder", err) {
				continue
			}
			s.remember(habit.ID, token)
			nudge := domain.Nudge{HabitID: habit.ID, Date: payload.Date, At: at}
			Degrade(s.logger, "record_nudge", s.repo.RecordNudge(ctx, nudge))
			planned = append(planned, PlannedReminder{ReminderPayload: payload, Token: token})
		}
	}

	s.logger.Debug("reminders replanned", zap.Int("habits", len(habits)), zap.Int("scheduled", len(planned)))
	return planned
}

// ReplanAll replans the whole catalog and drops tokens of habits that no
// longer exist.
func (s *reminderServiceImpl) ReplanAll(ctx context.Context) []PlannedReminder {
	habits, err := s.repo.ListHabits(ctx)
	if Degrade(s.logger, "list_habits", err) {
		return nil
	}

	known := make(map[string]bool, len(habits))
	for _, h := range habits {
		known[h.ID] = true
	}
	for _, id := range s.trackedHabits() {
		if !known[id] {
			s.cancel(id)
		}
	}
	return s.Replan(ctx, habits)
}

// CancelAll cancels every scheduled reminder
func (s *reminderServiceImpl) CancelAll() {
	Degrade(s.logger, "cancel_all_reminders", s.notifier.CancelAll())
	s.mu.Lock()
	s.tokens = make(map[string][]string)
	s.mu.Unlock()
}

func (s *reminderServiceImpl) cancel(habitID string) {
	s.mu.Lock()
	tokens := s.tokens[habitID]
	delete(s.tokens, habitID)
	s.mu.Unlock()

	for _, token := range tokens {
		Degrade(s.logger, "cancel_reminder", s.notifier.Cancel(token))
	}
}

func (s *reminderServiceImpl) remember(habitID, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[habitID] = append(s.tokens[habitID], token)
}

func (s *reminderServiceImpl) trackedHabits() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.tokens))
	for id := range s.tokens {
		ids = append(ids, id)
	}
	return ids
}
