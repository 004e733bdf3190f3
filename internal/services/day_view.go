package services

import (
	"time"

	"habit-tracker/internal/domain"
)

// StatusOf derives the day status from an optional log entry
func StatusOf(entry *domain.LogEntry) DayStatus {
	switch {
	case entry == nil:
		return StatusNotStarted
	case entry.Completed:
		return StatusCompleted
	default:
		return StatusAttempted
	}
}

// BuildDayView lists the habits due on date with their progress, in catalog order.
func BuildDayView(habits []domain.Habit, entries []domain.LogEntry, date domain.Date, loc *time.Location) []TodayItem {
	byHabit := make(map[string]domain.LogEntry, len(entries))
	for _, e := range entries {
		if e.Date == date {
			byHabit[e.HabitID] = e
		}
	}

	var items []TodayItem
	for _, h := range DueHabits(habits, date, loc) {
		item := TodayItem{Habit: h, Status: StatusNotStarted}
		if e, ok := byHabit[h.ID]; ok {
			item.Status = StatusOf(&e)
			item.Progress = e.Progress
			item.Badge = e.Badge
		}
		items = append(items, item)
	}
	return items
}
