package domain

import (
	"fmt"
	"strings"
	"time"
)

// WeekdaySet is an unordered set of weekdays stored as a bitmask.
type WeekdaySet uint8

// EveryWeekday contains all seven days.
const EveryWeekday WeekdaySet = 1<<7 - 1

// NewWeekdaySet builds a set from the given days. Duplicates collapse.
func NewWeekdaySet(days ...time.Weekday) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		s = s.Add(d)
	}
	return s
}

// Add returns a copy of s that also contains d.
func (s WeekdaySet) Add(d time.Weekday) WeekdaySet {
	if d < time.Sunday || d > time.Saturday {
		return s
	}
	return s | 1<<uint(d)
}

// Contains reports whether d is in the set.
func (s WeekdaySet) Contains(d time.Weekday) bool {
	return s&(1<<uint(d)) != 0
}

// IsEmpty reports whether the set has no days.
func (s WeekdaySet) IsEmpty() bool {
	return s&EveryWeekday == 0
}

// Days returns the members in Sunday-first order.
func (s WeekdaySet) Days() []time.Weekday {
	days := make([]time.Weekday, 0, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.Contains(d) {
			days = append(days, d)
		}
	}
	return days
}

// String renders the set as a comma separated list of short names.
func (s WeekdaySet) String() string {
	names := make([]string, 0, 7)
	for _, d := range s.Days() {
		names = append(names, d.String()[:3])
	}
	return strings.Join(names, ",")
}

// ParseWeekdaySet parses a comma separated list of weekday names ("mon,wed,fri").
// Full names are accepted as well as the shortcuts "weekdays", "weekends" and "daily".
func ParseWeekdaySet(s string) (WeekdaySet, error) {
	var set WeekdaySet
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		switch part {
		case "daily", "all":
			set |= EveryWeekday
			continue
		case "weekdays":
			set |= NewWeekdaySet(time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday)
			continue
		case "weekends":
			set |= NewWeekdaySet(time.Saturday, time.Sunday)
			continue
		}
		day, ok := parseWeekday(part)
		if !ok {
			return 0, fmt.Errorf("unknown weekday %q", part)
		}
		set = set.Add(day)
	}
	return set, nil
}

func parseWeekday(s string) (time.Weekday, bool) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if s == full || s == full[:3] {
			return d, true
		}
	}
	return 0, false
}

// CadenceKind distinguishes daily habits from habits tied to specific weekdays.
type CadenceKind int

const (
	CadenceDaily CadenceKind = iota
	CadenceSpecificDays
)

// String returns the stored name of the kind.
func (k CadenceKind) String() string {
	switch k {
	case CadenceDaily:
		return "daily"
	case CadenceSpecificDays:
		return "specific_days"
	default:
		return "unknown"
	}
}

// ParseCadenceKind is the inverse of CadenceKind.String.
func ParseCadenceKind(s string) (CadenceKind, error) {
	switch s {
	case "daily":
		return CadenceDaily, nil
	case "specific_days":
		return CadenceSpecificDays, nil
	default:
		return 0, fmt.Errorf("unknown cadence kind %q", s)
	}
}

// Cadence determines on which weekdays a habit is due.
type Cadence struct {
	Kind CadenceKind
	Days WeekdaySet
}

// Daily returns the every-day cadence.
func Daily() Cadence {
	return Cadence{Kind: CadenceDaily}
}

// OnDays returns a cadence due only on the given weekdays.
func OnDays(days ...time.Weekday) Cadence {
	return Cadence{Kind: CadenceSpecificDays, Days: NewWeekdaySet(days...)}
}

// Includes reports whether the cadence schedules the given weekday.
// A specific-days cadence with no days selected behaves as daily.
func (c Cadence) Includes(d time.Weekday) bool {
	if c.Kind == CadenceDaily || c.Days.IsEmpty() {
		return true
	}
	return c.Days.Contains(d)
}

// Normalize rewrites an empty specific-days cadence to daily.
func (c Cadence) Normalize() Cadence {
	if c.Kind == CadenceSpecificDays && c.Days.IsEmpty() {
		return Daily()
	}
	if c.Kind == CadenceDaily {
		c.Days = 0
	}
	return c
}

// String renders the cadence for display.
func (c Cadence) String() string {
	if c.Kind == CadenceDaily || c.Days.IsEmpty() {
		return "daily"
	}
	return c.Days.String()
}
