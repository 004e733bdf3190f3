package services

import (
	"time"

	"habit-tracker/internal/domain"
)

// IsDue reports whether the habit's cadence requires action on date.
// Dates before the creation date are never due. An archived habit stops
// being due on its archival date; earlier dates stay evaluable.
func IsDue(habit domain.Habit, date domain.Date, loc *time.Location) bool {
	if loc == nil {
		loc = time.UTC
	}
	if !habit.CreatedAt.IsZero() && date.Before(domain.DateOf(habit.CreatedAt, loc)) {
		return false
	}
	if habit.Archived {
		if habit.ArchivedAt == nil {
			return false
		}
		if !date.Before(domain.DateOf(*habit.ArchivedAt, loc)) {
			return false
		}
	}
	return habit.Cadence.Includes(date.Weekday())
}

// DueHabits filters habits down to those due on date, preserving order.
func DueHabits(habits []domain.Habit, date domain.Date, loc *time.Location) []domain.Habit {
	var due []domain.Habit
	for _, h := range habits {
		if IsDue(h, date, loc) {
			due = append(due, h)
		}
	}
	return due
}

// NextDueDate returns the first due date on or after from, looking at most
// limit days ahead.
func NextDueDate(habit domain.Habit, from domain.Date, loc *time.Location, limit int) (domain.Date, bool) {
	for i := 0; i < limit; i++ {
		d := from.AddDays(i)
		if IsDue(habit, d, loc) {
			return d, true
		}
	}
	return domain.Date{}, false
}
