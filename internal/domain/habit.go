package domain

import (
	"fmt"
	"sort"
	"time"
)

// Tier is a milestone: reaching Threshold progress on a day awards Badge.
type Tier struct {
	Threshold float64 `json:"threshold"`
	Badge     string  `json:"badge"`
}

// DefaultTiers are applied to timed habits created without explicit tiers.
func DefaultTiers() []Tier {
	return []Tier{
		{Threshold: 5, Badge: "red"},
		{Threshold: 10, Badge: "yellow"},
		{Threshold: 15, Badge: "green"},
		{Threshold: 30, Badge: "blue"},
	}
}

// SortTiers orders tiers ascending by threshold in place.
func SortTiers(tiers []Tier) {
	sort.SliceStable(tiers, func(i, j int) bool {
		return tiers[i].Threshold < tiers[j].Threshold
	})
}

// ReminderTime is a local wall-clock time at which to nudge the user.
// An empty Days set means every day the habit is due.
type ReminderTime struct {
	Hour   int        `json:"hour"`
	Minute int        `json:"minute"`
	Days   WeekdaySet `json:"days,omitempty"`
}

// ParseReminderTime parses "HH:MM".
func ParseReminderTime(s string) (ReminderTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return ReminderTime{}, fmt.Errorf("invalid reminder time %q: expected HH:MM", s)
	}
	return ReminderTime{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// AppliesOn reports whether the reminder is active on the given weekday.
func (r ReminderTime) AppliesOn(d time.Weekday) bool {
	return r.Days.IsEmpty() || r.Days.Contains(d)
}

// String renders the reminder as HH:MM, followed by its days when restricted.
func (r ReminderTime) String() string {
	if r.Days.IsEmpty() {
		return fmt.Sprintf("%02d:%02d", r.Hour, r.Minute)
	}
	return fmt.Sprintf("%02d:%02d (%s)", r.Hour, r.Minute, r.Days)
}

// Habit is a recurring activity tracked against a cadence.
type Habit struct {
	ID         string
	Name       string
	Cadence    Cadence
	Metric     Metric
	Tiers      []Tier
	Reminders  []ReminderTime
	Archived   bool
	ArchivedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewHabit creates a daily check habit. Callers fill in the remaining attributes.
func NewHabit(name string, createdAt time.Time) Habit {
	return Habit{
		Name:      name,
		Cadence:   Daily(),
		Metric:    CheckMetric{},
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

// Archive marks the habit archived at the given instant.
func (h *Habit) Archive(at time.Time) {
	h.Archived = true
	h.ArchivedAt = &at
	h.UpdatedAt = at
}

// Unarchive clears the archival marker.
func (h *Habit) Unarchive(at time.Time) {
	h.Archived = false
	h.ArchivedAt = nil
	h.UpdatedAt = at
}

// MinMinutes returns the timed threshold, or zero for untimed habits.
func (h Habit) MinMinutes() int {
	if m, ok := h.Metric.(TimedMetric); ok {
		return m.MinMinutes
	}
	return 0
}

// IsTimed reports whether progress is measured in minutes.
func (h Habit) IsTimed() bool {
	_, ok := h.Metric.(TimedMetric)
	return ok
}

// String returns the habit name for display purposes.
func (h Habit) String() string {
	return h.Name
}
