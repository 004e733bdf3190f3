package cli

import (
	"context"
	"fmt"

	"habit-tracker/internal/services"
)

// TodayCommand handles the today command
type TodayCommand struct {
	app *App
}

// NewTodayCommand creates a new today command handler
func NewTodayCommand(app *App) *TodayCommand {
	return &TodayCommand{app: app}
}

// Execute prints the habits due on a day with their status. The optional
// argument selects another day.
func (c *TodayCommand) Execute(ctx context.Context, args []string) error {
	engine, err := c.app.Engine(ctx)
	if err != nil {
		return err
	}
	var arg string
	if len(args) > 0 {
		arg = args[0]
	}
	date, err := parseDate(arg, engine.Today())
	if err != nil {
		return NewErrorHandler().HandleSimple(err)
	}

	items, err := engine.DayView(ctx, date)
	if err != nil {
		return NewErrorHandler().Handle("load day", err)
	}

	c.app.printf("%s\n", date.At(0, 0, engine.Clock().Location()).Format(c.app.config.Display.DateFormat))
	if len(items) == 0 {
		c.app.printf("Nothing due\n")
		return nil
	}
	done := 0
	for _, item := range items {
		if item.Status == services.StatusCompleted {
			done++
		}
		line := statusMarker(item.Status) + " " + padRight(item.Habit.Name, 24) + " " + formatProgress(item.Habit, item.Progress)
		if item.Badge != "" {
			line += " [" + item.Badge + "]"
		}
		if item.Running {
			line += " (running " + formatElapsed(item.Elapsed) + ")"
		}
		c.app.printf("  %s\n", line)
	}
	c.app.printf("%d/%d done\n", done, len(items))
	return nil
}

func statusMarker(s services.DayStatus) string {
	switch s {
	case services.StatusCompleted:
		return "[x]"
	case services.StatusAttempted:
		return "[~]"
	default:
		return "[ ]"
	}
}

func padRight(s string, width int) string {
	for len([]rune(s)) < width {
		s += " "
	}
	return s
}

// StreakCommand handles the streak command
type StreakCommand struct {
	app *App
}

// NewStreakCommand creates a new streak command handler
func NewStreakCommand(app *App) *StreakCommand {
	return &StreakCommand{app: app}
}

// Execute prints the overall streak followed by one line per habit
func (c *StreakCommand) Execute(ctx context.Context, args []string) error {
	engine, err := c.app.Engine(ctx)
	if err != nil {
		return err
	}
	var arg string
	if len(args) > 0 {
		arg = args[0]
	}
	asOf, err := parseDate(arg, engine.Today())
	if err != nil {
		return NewErrorHandler().HandleSimple(err)
	}

	result := engine.Streaks(ctx, asOf)
	c.app.printf("Overall: %s\n", days(result.Overall))

	habits, err := engine.ListHabits(ctx, false)
	if err != nil {
		return NewErrorHandler().Handle("list habits", err)
	}
	for _, h := range habits {
		c.app.printf("  %s %s\n", padRight(h.Name, 24), days(result.PerHabit[h.ID]))
	}
	return nil
}

func days(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}
