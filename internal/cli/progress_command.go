package cli

import (
	"context"

	"habit-tracker/internal/domain"
	"habit-tracker/internal/errors"
)

// CheckCommand handles the check command
type CheckCommand struct {
	app          *App
	Date         string
	errorHandler *ErrorHandler
}

// NewCheckCommand creates a new check command handler
func NewCheckCommand(app *App) *CheckCommand {
	return &CheckCommand{app: app, errorHandler: NewErrorHandler()}
}

// Execute marks a check habit done for the day
func (c *CheckCommand) Execute(ctx context.Context, args []string) error {
	engine, habit, err := c.app.resolve(ctx, "check", args)
	if err != nil {
		return err
	}
	date, err := parseDate(c.Date, engine.Today())
	if err != nil {
		return c.errorHandler.HandleSimple(err)
	}
	entry, err := engine.CheckIn(ctx, habit.ID, date)
	if err != nil {
		return c.errorHandler.Handle("check in", err)
	}
	c.app.printEntry(habit, entry)
	return nil
}

// CountCommand handles the count command
type CountCommand struct {
	app          *App
	Date         string
	errorHandler *ErrorHandler
}

// NewCountCommand creates a new count command handler
func NewCountCommand(app *App) *CountCommand {
	return &CountCommand{app: app, errorHandler: NewErrorHandler()}
}

// Execute adds the trailing amount to a count habit
func (c *CountCommand) Execute(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errors.NewInvalidInputError("command", "count", "usage: ht count <habit> <amount>")
	}
	amount, err := c.app.validator.ParseCount(args[len(args)-1])
	if err != nil {
		return c.errorHandler.HandleSimple(err)
	}
	engine, habit, err := c.app.resolve(ctx, "count", args[:len(args)-1])
	if err != nil {
		return err
	}
	date, err := parseDate(c.Date, engine.Today())
	if err != nil {
		return c.errorHandler.HandleSimple(err)
	}
	entry, err := engine.AddCount(ctx, habit.ID, date, amount)
	if err != nil {
		return c.errorHandler.Handle("add count", err)
	}
	c.app.printEntry(habit, entry)
	return nil
}

// LogMinutesCommand handles the log command, which credits minutes to a
// timed habit without running a timer
type LogMinutesCommand struct {
	app          *App
	Date         string
	errorHandler *ErrorHandler
}

// NewLogMinutesCommand creates a new log command handler
func NewLogMinutesCommand(app *App) *LogMinutesCommand {
	return &LogMinutesCommand{app: app, errorHandler: NewErrorHandler()}
}

// Execute credits the trailing number of minutes
func (c *LogMinutesCommand) Execute(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errors.NewInvalidInputError("command", "log", "usage: ht log <habit> <minutes>")
	}
	minutes, err := c.app.validator.ParseMinutes(args[len(args)-1])
	if err != nil {
		return c.errorHandler.HandleSimple(err)
	}
	engine, habit, err := c.app.resolve(ctx, "log", args[:len(args)-1])
	if err != nil {
		return err
	}
	date, err := parseDate(c.Date, engine.Today())
	if err != nil {
		return c.errorHandler.HandleSimple(err)
	}
	entry, err := engine.AddMinutes(ctx, habit.ID, date, minutes)
	if err != nil {
		return c.errorHandler.Handle("log minutes", err)
	}
	c.app.printEntry(habit, entry)
	return nil
}

// ResetCommand handles the reset command
type ResetCommand struct {
	app          *App
	Date         string
	errorHandler *ErrorHandler
}

// NewResetCommand creates a new reset command handler
func NewResetCommand(app *App) *ResetCommand {
	return &ResetCommand{app: app, errorHandler: NewErrorHandler()}
}

// Execute clears the day's progress for a habit
func (c *ResetCommand) Execute(ctx context.Context, args []string) error {
	engine, habit, err := c.app.resolve(ctx, "reset", args)
	if err != nil {
		return err
	}
	date, err := parseDate(c.Date, engine.Today())
	if err != nil {
		return c.errorHandler.HandleSimple(err)
	}
	if err := engine.Reset(ctx, habit.ID, date); err != nil {
		return c.errorHandler.Handle("reset", err)
	}
	c.app.printf("Reset %s for %s\n", habit.Name, date)
	return nil
}

func (a *App) printEntry(habit domain.Habit, entry domain.LogEntry) {
	line := habit.Name + ": " + formatProgress(habit, entry.Progress)
	if entry.Completed {
		line += " (completed)"
	}
	if entry.HasBadge() {
		line += " [" + entry.Badge + "]"
	}
	a.printf("%s\n", line)
}
