package notify

import (
	stderrors "errors"
	"sync"
	"time"

	"habit-tracker/internal/clock"
	"habit-tracker/internal/errors"
	"habit-tracker/internal/services"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GocronNotifier schedules one-shot reminder jobs on a gocron scheduler.
// Each job is tagged with its token so it can be cancelled individually.
type GocronNotifier struct {
	scheduler *gocron.Scheduler
	sink      Sink
	clock     clock.Clock
	logger    *zap.Logger

	mu      sync.Mutex
	started bool
}

var _ services.Notifier = (*GocronNotifier)(nil)

// NewGocronNotifier creates a notifier whose jobs fire in the clock's timezone
func NewGocronNotifier(c clock.Clock, sink Sink, logger *zap.Logger) *GocronNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := gocron.NewScheduler(c.Location())
	s.TagsUnique()
	return &GocronNotifier{scheduler: s, sink: sink, clock: c, logger: logger}
}

// Start runs the scheduler in the background
func (n *GocronNotifier) Start() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.started {
		return
	}
	n.scheduler.StartAsync()
	n.started = true
}

// Stop halts the scheduler and waits for running jobs
func (n *GocronNotifier) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.started {
		return
	}
	n.scheduler.Stop()
	n.started = false
}

// Schedule registers a reminder firing once at the given instant
func (n *GocronNotifier) Schedule(at time.Time, payload services.ReminderPayload) (string, error) {
	if !at.After(n.clock.Now()) {
		return "", errors.NewNotificationError("schedule", stderrors.New("trigger time is in the past"))
	}

	token := uuid.NewString()
	_, err := n.scheduler.Every(1).Day().StartAt(at).LimitRunsTo(1).Tag(token).Do(func() {
		deliver(n.sink, payload, n.logger)
	})
	if err != nil {
		return "", errors.NewNotificationError("schedule", err)
	}

	n.logger.Debug("reminder scheduled",
		zap.String("token", token),
		zap.String("habit_id", payload.HabitID),
		zap.Time("at", at))
	return token, nil
}

// Cancel removes a scheduled reminder. Unknown tokens are ignored.
func (n *GocronNotifier) Cancel(token string) error {
	err := n.scheduler.RemoveByTag(token)
	if err != nil && !stderrors.Is(err, gocron.ErrJobNotFoundWithTag) {
		return errors.NewNotificationError("cancel", err)
	}
	return nil
}

// CancelAll removes every scheduled reminder
func (n *GocronNotifier) CancelAll() error {
	n.scheduler.Clear()
	return nil
}

// Pending returns the number of scheduled reminders
func (n *GocronNotifier) Pending() int {
	return n.scheduler.Len()
}
