// Package notify delivers scheduled habit reminders.
package notify

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"habit-tracker/internal/metrics"
	"habit-tracker/internal/services"

	"go.uber.org/zap"
)

// Sink receives reminders when they fire
type Sink interface {
	Deliver(payload services.ReminderPayload) error
}

// LogSink writes delivered reminders to a zap logger
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a sink that logs at info level
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Deliver logs the reminder
func (s *LogSink) Deliver(p services.ReminderPayload) error {
	s.logger.Info("habit reminder",
		zap.String("habit_id", p.HabitID),
		zap.String("habit", p.HabitName),
		zap.Stringer("date", p.Date),
		zap.Time("at", p.At))
	return nil
}

// WriterSink prints one line per reminder, for the watch command
type WriterSink struct {
	mu     sync.Mutex
	w      io.Writer
	layout string
}

// NewWriterSink creates a sink printing to w with times in layout
func NewWriterSink(w io.Writer, layout string) *WriterSink {
	if layout == "" {
		layout = "15:04"
	}
	return &WriterSink{w: w, layout: layout}
}

// Deliver prints the reminder
func (s *WriterSink) Deliver(p services.ReminderPayload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintf(s.w, "Reminder [%s]: time for %s\n", p.At.Format(s.layout), p.HabitName)
	return err
}

// MultiSink fans a reminder out to every sink, returning the first error
type MultiSink []Sink

// Deliver calls each sink in order
func (m MultiSink) Deliver(p services.ReminderPayload) error {
	var first error
	for _, s := range m {
		if err := s.Deliver(p); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// ErrSuppressed is returned for reminders a GuardedSink held back
var ErrSuppressed = errors.New("reminder no longer applies")

// GuardedSink hands a reminder to Sink only when Allow accepts it
type GuardedSink struct {
	Sink  Sink
	Allow func(payload services.ReminderPayload) bool
}

// Deliver checks Allow, then delivers
func (g GuardedSink) Deliver(p services.ReminderPayload) error {
	if g.Allow != nil && !g.Allow(p) {
		return ErrSuppressed
	}
	return g.Sink.Deliver(p)
}

func deliver(sink Sink, p services.ReminderPayload, logger *zap.Logger) {
	err := sink.Deliver(p)
	if errors.Is(err, ErrSuppressed) {
		logger.Debug("reminder suppressed", zap.String("habit_id", p.HabitID), zap.Stringer("date", p.Date))
		return
	}
	if err != nil {
		logger.Warn("reminder delivery failed", zap.String("habit_id", p.HabitID), zap.Error(err))
		return
	}
	metrics.IncrementRemindersDelivered()
}
