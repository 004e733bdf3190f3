package repository

import (
	"encoding/json"
	"sort"
	"time"

	"habit-tracker/internal/domain"
)

// HabitRecord is the flat storage shape of a habit.
type HabitRecord struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	CadenceKind string                `json:"cadence"`
	Days        domain.WeekdaySet     `json:"days"`
	MetricKind  string                `json:"metric"`
	Unit        string                `json:"unit,omitempty"`
	DailyTarget float64               `json:"daily_target,omitempty"`
	MinMinutes  int                   `json:"min_minutes,omitempty"`
	Tiers       []domain.Tier         `json:"tiers,omitempty"`
	Reminders   []domain.ReminderTime `json:"reminders,omitempty"`
	Archived    bool                  `json:"archived"`
	ArchivedAt  *time.Time            `json:"archived_at,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// HabitToRecord flattens a domain habit.
func HabitToRecord(h domain.Habit) HabitRecord {
	kind, unit, target, minutes := domain.MetricFields(h.Metric)
	return HabitRecord{
		ID:          h.ID,
		Name:        h.Name,
		CadenceKind: h.Cadence.Kind.String(),
		Days:        h.Cadence.Days,
		MetricKind:  string(kind),
		Unit:        unit,
		DailyTarget: target,
		MinMinutes:  minutes,
		Tiers:       h.Tiers,
		Reminders:   h.Reminders,
		Archived:    h.Archived,
		ArchivedAt:  h.ArchivedAt,
		CreatedAt:   h.CreatedAt,
		UpdatedAt:   h.UpdatedAt,
	}
}

// ToDomain rebuilds the habit, rejecting unknown cadence or metric kinds.
func (r HabitRecord) ToDomain() (domain.Habit, error) {
	cadenceKind, err := domain.ParseCadenceKind(r.CadenceKind)
	if err != nil {
		return domain.Habit{}, err
	}
	metric, err := domain.MetricFromFields(r.MetricKind, r.Unit, r.DailyTarget, r.MinMinutes)
	if err != nil {
		return domain.Habit{}, err
	}
	tiers := append([]domain.Tier(nil), r.Tiers...)
	domain.SortTiers(tiers)
	return domain.Habit{
		ID:         r.ID,
		Name:       r.Name,
		Cadence:    domain.Cadence{Kind: cadenceKind, Days: r.Days},
		Metric:     metric,
		Tiers:      tiers,
		Reminders:  append([]domain.ReminderTime(nil), r.Reminders...),
		Archived:   r.Archived,
		ArchivedAt: r.ArchivedAt,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}, nil
}

// EncodeHabit serializes a habit for key-value stores.
func EncodeHabit(h domain.Habit) ([]byte, error) {
	return json.Marshal(HabitToRecord(h))
}

// DecodeHabit is the inverse of EncodeHabit.
func DecodeHabit(data []byte) (domain.Habit, error) {
	var record HabitRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return domain.Habit{}, err
	}
	return record.ToDomain()
}

// LogEntryRecord is the flat storage shape of a log entry.
type LogEntryRecord struct {
	HabitID     string      `json:"habit_id"`
	Date        domain.Date `json:"date"`
	Completed   bool        `json:"completed"`
	Progress    float64     `json:"progress"`
	Badge       string      `json:"badge,omitempty"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// EncodeLogEntry serializes a log entry for key-value stores.
func EncodeLogEntry(e domain.LogEntry) ([]byte, error) {
	return json.Marshal(LogEntryRecord(e))
}

// DecodeLogEntry is the inverse of EncodeLogEntry.
func DecodeLogEntry(data []byte) (domain.LogEntry, error) {
	var record LogEntryRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return domain.LogEntry{}, err
	}
	return domain.LogEntry(record), nil
}

// EncodeTiers renders tiers as a JSON column value.
func EncodeTiers(tiers []domain.Tier) (string, error) {
	if len(tiers) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(tiers)
	return string(b), err
}

// DecodeTiers parses a JSON column value into ascending tiers.
func DecodeTiers(s string) ([]domain.Tier, error) {
	var tiers []domain.Tier
	if s == "" {
		return nil, nil
	}
	if err := json.Unmarshal([]byte(s), &tiers); err != nil {
		return nil, err
	}
	domain.SortTiers(tiers)
	return tiers, nil
}

// EncodeReminders renders reminder times as a JSON column value.
func EncodeReminders(reminders []domain.ReminderTime) (string, error) {
	if len(reminders) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(reminders)
	return string(b), err
}

// DecodeReminders parses a JSON column value into reminder times.
func DecodeReminders(s string) ([]domain.ReminderTime, error) {
	var reminders []domain.ReminderTime
	if s == "" {
		return nil, nil
	}
	if err := json.Unmarshal([]byte(s), &reminders); err != nil {
		return nil, err
	}
	return reminders, nil
}

// SortHabits orders habits by creation time, then name.
func SortHabits(habits []domain.Habit) {
	sort.SliceStable(habits, func(i, j int) bool {
		if !habits[i].CreatedAt.Equal(habits[j].CreatedAt) {
			return habits[i].CreatedAt.Before(habits[j].CreatedAt)
		}
		return habits[i].Name < habits[j].Name
	})
}

// SortLogEntries orders entries by date, then habit id.
func SortLogEntries(entries []domain.LogEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Date != entries[j].Date {
			return entries[i].Date.Before(entries[j].Date)
		}
		return entries[i].HabitID < entries[j].HabitID
	})
}

// SortNudges orders nudges by fire time.
func SortNudges(nudges []domain.Nudge) {
	sort.SliceStable(nudges, func(i, j int) bool {
		return nudges[i].At.Before(nudges[j].At)
	})
}
