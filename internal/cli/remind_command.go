package cli

import (
	"context"
	"math"
)

// RemindPlanCommand handles the remind plan command
type RemindPlanCommand struct {
	app *App
}

// NewRemindPlanCommand creates a new remind plan command handler
func NewRemindPlanCommand(app *App) *RemindPlanCommand {
	return &RemindPlanCommand{app: app}
}

// Execute lists the next reminder of every active habit
func (c *RemindPlanCommand) Execute(ctx context.Context, args []string) error {
	engine, err := c.app.Engine(ctx)
	if err != nil {
		return err
	}
	upcoming, err := engine.UpcomingReminders(ctx)
	if err != nil {
		return NewErrorHandler().Handle("plan reminders", err)
	}
	if len(upcoming) == 0 {
		c.app.printf("No reminders planned\n")
		return nil
	}
	layout := c.app.config.Display.DateFormat + " " + c.app.config.Display.TimeFormat
	for _, p := range upcoming {
		c.app.printf("%s  %s\n", p.At.In(engine.Clock().Location()).Format(layout), p.HabitName)
	}
	return nil
}

// NudgeCommand handles the nudge effectiveness command
type NudgeCommand struct {
	app *App
}

// NewNudgeCommand creates a new nudge effectiveness command handler
func NewNudgeCommand(app *App) *NudgeCommand {
	return &NudgeCommand{app: app}
}

// Execute reports how often completions followed a reminder
func (c *NudgeCommand) Execute(ctx context.Context, args []string) error {
	engine, habit, err := c.app.resolve(ctx, "nudge effectiveness", args)
	if err != nil {
		return err
	}
	_, ratio, ok, err := engine.NudgeEffectiveness(ctx, habit.ID)
	if err != nil {
		return NewErrorHandler().Handle("compute nudge effectiveness", err)
	}
	if !ok {
		c.app.printf("%s: no completions yet\n", habit.Name)
		return nil
	}
	c.app.printf("%s: %d%% of completions followed a reminder\n", habit.Name, int(math.Round(ratio*100)))
	return nil
}
