package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProgressRecorded counts log entry writes by metric kind
	ProgressRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "habit_progress_recorded_total",
			Help: "Total number of progress updates written to the completion log",
		},
		[]string{"kind", "completed"},
	)

	// SessionsStopped counts timed sessions by how they ended
	SessionsStopped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "habit_sessions_stopped_total",
			Help: "Total number of timed sessions stopped",
		},
		[]string{"reason"}, // manual, auto
	)

	// SessionMinutes tracks the length of committed sessions
	SessionMinutes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "habit_session_minutes",
			Help:    "Minutes credited per stopped session",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8), // 1m to ~2h
		},
	)

	// StreakComputeDuration tracks how long a streak walk takes
	StreakComputeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "habit_streak_compute_duration_seconds",
			Help:    "Streak computation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
		},
	)

	// StreakDaysWalked counts calendar days visited by the streak walk
	StreakDaysWalked = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "habit_streak_days_walked",
			Help:    "Days visited before the streak walk stopped",
			Buckets: []float64{1, 7, 30, 90, 180, 365},
		},
	)

	// RemindersScheduled counts reminder schedule attempts by outcome
	RemindersScheduled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "habit_reminders_scheduled_total",
			Help: "Total number of reminder schedule attempts",
		},
		[]string{"status"}, // success, failed
	)

	// RemindersDelivered counts reminders that fired
	RemindersDelivered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "habit_reminders_delivered_total",
			Help: "Total number of reminders delivered to the sink",
		},
	)

	// DegradedCalls counts collaborator failures replaced by a safe default
	DegradedCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "habit_degraded_calls_total",
			Help: "Collaborator calls that failed and fell back to a default",
		},
		[]string{"operation"},
	)

	// StoreOperationDuration tracks repository call latency
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "habit_store_operation_duration_seconds",
			Help:    "Repository operation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"backend", "operation"},
	)
)

// RecordProgress records a completion log write
func RecordProgress(kind string, completed bool) {
	label := "false"
	if completed {
		label = "true"
	}
	ProgressRecorded.WithLabelValues(kind, label).Inc()
}

// RecordSessionStopped records the end of a timed session
func RecordSessionStopped(reason string, minutes int) {
	SessionsStopped.WithLabelValues(reason).Inc()
	SessionMinutes.Observe(float64(minutes))
}

// RecordStreakComputation records one streak walk
func RecordStreakComputation(duration time.Duration, daysWalked int) {
	StreakComputeDuration.Observe(duration.Seconds())
	StreakDaysWalked.Observe(float64(daysWalked))
}

// RecordReminderScheduled records a reminder schedule attempt
func RecordReminderScheduled(ok bool) {
	status := "success"
	if !ok {
		status = "failed"
	}
	RemindersScheduled.WithLabelValues(status).Inc()
}

// IncrementRemindersDelivered records a delivered reminder
func IncrementRemindersDelivered() {
	RemindersDelivered.Inc()
}

// IncrementDegraded records a fallback to a safe default
func IncrementDegraded(operation string) {
	DegradedCalls.WithLabelValues(operation).Inc()
}

// ObserveStoreOperation records repository latency since start
func ObserveStoreOperation(backend, operation string, start time.Time) {
	StoreOperationDuration.WithLabelValues(backend, operation).Observe(time.Since(start).Seconds())
}
