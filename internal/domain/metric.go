package domain

import "fmt"

// MetricKind names the way progress on a habit is measured.
type MetricKind string

const (
	MetricCheck MetricKind = "check"
	MetricCount MetricKind = "count"
	MetricTimed MetricKind = "timed"
)

// Metric is a closed sum type. Exactly one of CheckMetric, CountMetric or TimedMetric.
type Metric interface {
	Kind() MetricKind
	metric()
}

// CheckMetric is a plain done/not-done habit. Progress is 1 when checked.
type CheckMetric struct{}

// CountMetric measures progress in arbitrary units ("glasses", "pages").
// A zero DailyTarget means any positive count completes the day.
type CountMetric struct {
	Unit        string
	DailyTarget float64
}

// TimedMetric measures progress in minutes. The day is complete once
// MinMinutes have been accumulated.
type TimedMetric struct {
	MinMinutes int
}

func (CheckMetric) Kind() MetricKind { return MetricCheck }
func (CountMetric) Kind() MetricKind { return MetricCount }
func (TimedMetric) Kind() MetricKind { return MetricTimed }

func (CheckMetric) metric() {}
func (CountMetric) metric() {}
func (TimedMetric) metric() {}

// MetricFields flattens a metric into storable columns.
func MetricFields(m Metric) (kind MetricKind, unit string, dailyTarget float64, minMinutes int) {
	switch v := m.(type) {
	case CountMetric:
		return MetricCount, v.Unit, v.DailyTarget, 0
	case TimedMetric:
		return MetricTimed, "", 0, v.MinMinutes
	default:
		return MetricCheck, "", 0, 0
	}
}

// MetricFromFields rebuilds a metric from stored columns. Unknown kinds are rejected.
func MetricFromFields(kind string, unit string, dailyTarget float64, minMinutes int) (Metric, error) {
	switch MetricKind(kind) {
	case MetricCheck, "":
		return CheckMetric{}, nil
	case MetricCount:
		return CountMetric{Unit: unit, DailyTarget: dailyTarget}, nil
	case MetricTimed:
		return TimedMetric{MinMinutes: minMinutes}, nil
	default:
		return nil, fmt.Errorf("unknown metric kind %q", kind)
	}
}
