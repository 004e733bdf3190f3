package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"habit-tracker/internal/clock"
	"habit-tracker/internal/domain"
	"habit-tracker/internal/repository"
	"habit-tracker/internal/repository/memory"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// 2024-03-06 is a Wednesday
var wednesday = time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC)

var errStoreDown = errors.New("store unavailable")

type testEnv struct {
	repo     *memory.Repository
	clock    *clock.Fake
	logger   *zap.Logger
	log      CompletionLog
	progress ProgressService
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	repo := memory.New()
	c := clock.NewFake(wednesday)
	logger := zap.NewNop()
	log := NewCompletionLog(repo, c, logger)
	return &testEnv{
		repo:     repo,
		clock:    c,
		logger:   logger,
		log:      log,
		progress: NewProgressService(repo, log, logger),
	}
}

func (e *testEnv) add(t *testing.T, habits ...domain.Habit) {
	t.Helper()
	for _, h := range habits {
		require.NoError(t, e.repo.UpsertHabit(context.Background(), h))
	}
}

func (e *testEnv) complete(t *testing.T, habitID string, dates ...domain.Date) {
	t.Helper()
	for _, d := range dates {
		at := d.At(12, 0, time.UTC)
		require.NoError(t, e.repo.UpsertLogEntry(context.Background(), domain.LogEntry{
			HabitID: habitID, Date: d, Completed: true, Progress: 1, CompletedAt: &at, UpdatedAt: at,
		}))
	}
}

// readHabit is a Mon/Wed/Fri timed habit with a ten minute minimum
func readHabit(created time.Time) domain.Habit {
	return domain.Habit{
		ID:        "h-read",
		Name:      "Read",
		Cadence:   domain.OnDays(time.Monday, time.Wednesday, time.Friday),
		Metric:    domain.TimedMetric{MinMinutes: 10},
		Tiers:     domain.DefaultTiers(),
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func dailyHabit(id string, created time.Time) domain.Habit {
	return domain.Habit{
		ID:        id,
		Name:      id,
		Cadence:   domain.Daily(),
		Metric:    domain.CheckMetric{},
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func date(year int, month time.Month, day int) domain.Date {
	return domain.NewDate(year, month, day)
}

// failingRepo fails every list, range and bookkeeping call while single
// habit reads and log writes still reach the wrapped store.
type failingRepo struct {
	repository.Repository
}

func (failingRepo) ListHabits(context.Context) ([]domain.Habit, error) {
	return nil, errStoreDown
}
func (failingRepo) GetLogEntries(context.Context, domain.Date) ([]domain.LogEntry, error) {
	return nil, errStoreDown
}
func (failingRepo) GetLogEntriesRange(context.Context, domain.Date, domain.Date) ([]domain.LogEntry, error) {
	return nil, errStoreDown
}
func (failingRepo) ListLogEntriesForHabit(context.Context, string) ([]domain.LogEntry, error) {
	return nil, errStoreDown
}
func (failingRepo) RecordNudge(context.Context, domain.Nudge) error {
	return errStoreDown
}
func (failingRepo) ListNudges(context.Context, string) ([]domain.Nudge, error) {
	return nil, errStoreDown
}
func (failingRepo) DeleteNudgesFrom(context.Context, string, time.Time) error {
	return errStoreDown
}
func (failingRepo) SaveRunningTimer(context.Context, domain.RunningTimer) error {
	return errStoreDown
}
func (failingRepo) DeleteRunningTimer(context.Context, string) error {
	return errStoreDown
}

type fakeNotifier struct {
	mu           sync.Mutex
	seq          int
	scheduled    map[string]ReminderPayload
	cancelled    []string
	cancelAll    int
	failSchedule bool
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{scheduled: make(map[string]ReminderPayload)}
}

func (n *fakeNotifier) Schedule(at time.Time, payload ReminderPayload) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failSchedule {
		return "", errors.New("permission denied")
	}
	n.seq++
	token := fmt.Sprintf("tok-%d", n.seq)
	n.scheduled[token] = payload
	return token, nil
}

func (n *fakeNotifier) Cancel(token string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.scheduled, token)
	n.cancelled = append(n.cancelled, token)
	return nil
}

func (n *fakeNotifier) CancelAll() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.scheduled = make(map[string]ReminderPayload)
	n.cancelAll++
	return nil
}

func (n *fakeNotifier) pending() []ReminderPayload {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []ReminderPayload
	for _, p := range n.scheduled {
		out = append(out, p)
	}
	return out
}
