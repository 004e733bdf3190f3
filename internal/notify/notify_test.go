package notify

import (
	"bytes"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"habit-tracker/internal/clock"
	"habit-tracker/internal/domain"
	"habit-tracker/internal/errors"
	"habit-tracker/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingSink struct {
	mu        sync.Mutex
	delivered []services.ReminderPayload
	err       error
}

func (s *recordingSink) Deliver(p services.ReminderPayload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delivered = append(s.delivered, p)
	return s.err
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.delivered)
}

func payload(at time.Time) services.ReminderPayload {
	return services.ReminderPayload{
		HabitID:   "h-read",
		HabitName: "Read",
		Date:      domain.DateOf(at, time.UTC),
		At:        at,
	}
}

func TestGocronNotifier_Schedule(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name           string
		at             time.Time
		errorAssertion func(t *testing.T, err error)
	}{
		{
			name: "should accept a future trigger",
			at:   now.Add(time.Hour),
			errorAssertion: func(t *testing.T, err error) {
				assert.NoError(t, err)
			},
		},
		{
			name: "should reject a trigger in the past",
			at:   now.Add(-time.Minute),
			errorAssertion: func(t *testing.T, err error) {
				require.Error(t, err)
				assert.True(t, errors.IsErrorType(err, errors.ErrorTypeNotification))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			n := NewGocronNotifier(clock.NewFake(now), &recordingSink{}, zap.NewNop())

			// Act
			token, err := n.Schedule(tt.at, payload(tt.at))

			// Assert
			tt.errorAssertion(t, err)
			if err == nil {
				assert.NotEmpty(t, token)
				assert.Equal(t, 1, n.Pending())
			}
		})
	}
}

func TestGocronNotifier_Cancel(t *testing.T) {
	// Arrange
	now := time.Now().UTC()
	n := NewGocronNotifier(clock.NewFake(now), &recordingSink{}, nil)
	first, err := n.Schedule(now.Add(time.Hour), payload(now.Add(time.Hour)))
	require.NoError(t, err)
	_, err = n.Schedule(now.Add(2*time.Hour), payload(now.Add(2*time.Hour)))
	require.NoError(t, err)

	// Act
	require.NoError(t, n.Cancel(first))
	require.NoError(t, n.Cancel(first), "cancelling twice should be a no-op")
	require.NoError(t, n.Cancel("unknown"))

	// Assert
	assert.Equal(t, 1, n.Pending())

	require.NoError(t, n.CancelAll())
	assert.Equal(t, 0, n.Pending())
}

func TestGocronNotifier_Delivers(t *testing.T) {
	// Arrange
	sink := &recordingSink{}
	n := NewGocronNotifier(clock.NewSystem("UTC"), sink, zap.NewNop())
	at := time.Now().Add(200 * time.Millisecond)
	_, err := n.Schedule(at, payload(at))
	require.NoError(t, err)

	// Act
	n.Start()
	defer n.Stop()

	// Assert
	assert.Eventually(t, func() bool { return sink.count() == 1 }, 3*time.Second, 20*time.Millisecond)
}

func TestGocronNotifier_StartStopIdempotent(t *testing.T) {
	n := NewGocronNotifier(clock.NewSystem("UTC"), &recordingSink{}, nil)

	n.Start()
	n.Start()
	n.Stop()
	n.Stop()
}

func TestWriterSink_Deliver(t *testing.T) {
	// Arrange
	var buf bytes.Buffer
	sink := NewWriterSink(&buf, "")
	at := time.Date(2024, 3, 6, 7, 30, 0, 0, time.UTC)

	// Act
	err := sink.Deliver(payload(at))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "Reminder [07:30]: time for Read\n", buf.String())
}

func TestMultiSink_Deliver(t *testing.T) {
	// Arrange
	failing := &recordingSink{err: stderrors.New("boom")}
	ok := &recordingSink{}
	sinks := MultiSink{failing, ok, NewLogSink(zap.NewNop())}

	// Act
	err := sinks.Deliver(payload(time.Now()))

	// Assert
	assert.EqualError(t, err, "boom")
	assert.Equal(t, 1, ok.count(), "later sinks should still receive the reminder")
}

func TestGuardedSink_Deliver(t *testing.T) {
	tests := []struct {
		name           string
		allow          func(services.ReminderPayload) bool
		expectedCount  int
		errorAssertion func(t *testing.T, err error)
	}{
		{
			name:          "should deliver reminders that still apply",
			allow:         func(services.ReminderPayload) bool { return true },
			expectedCount: 1,
			errorAssertion: func(t *testing.T, err error) {
				assert.NoError(t, err)
			},
		},
		{
			name:  "should hold back reminders that no longer apply",
			allow: func(services.ReminderPayload) bool { return false },
			errorAssertion: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrSuppressed)
			},
		},
		{
			name:          "should deliver everything without a guard",
			expectedCount: 1,
			errorAssertion: func(t *testing.T, err error) {
				assert.NoError(t, err)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			inner := &recordingSink{}
			sink := GuardedSink{Sink: inner, Allow: tt.allow}

			// Act
			err := sink.Deliver(payload(time.Now()))

			// Assert
			tt.errorAssertion(t, err)
			assert.Equal(t, tt.expectedCount, inner.count())
		})
	}
}

func TestGocronNotifier_SkipsSuppressedReminders(t *testing.T) {
	// Arrange
	inner := &recordingSink{}
	var mu sync.Mutex
	checked := 0
	sink := GuardedSink{Sink: inner, Allow: func(services.ReminderPayload) bool {
		mu.Lock()
		defer mu.Unlock()
		checked++
		return false
	}}
	n := NewGocronNotifier(clock.NewSystem("UTC"), sink, zap.NewNop())
	at := time.Now().Add(200 * time.Millisecond)
	_, err := n.Schedule(at, payload(at))
	require.NoError(t, err)

	// Act
	n.Start()
	defer n.Stop()

	// Assert
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return checked == 1
	}, 3*time.Second, 20*time.Millisecond)
	assert.Zero(t, inner.count())
}
