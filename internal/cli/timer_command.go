package cli

import (
	"context"

	"habit-tracker/internal/api"
	"habit-tracker/internal/domain"
)

// TimerStartCommand handles the timer start command
type TimerStartCommand struct {
	app *App
}

// NewTimerStartCommand creates a new timer start command handler
func NewTimerStartCommand(app *App) *TimerStartCommand {
	return &TimerStartCommand{app: app}
}

// Execute starts a session for a timed habit
func (c *TimerStartCommand) Execute(ctx context.Context, args []string) error {
	engine, habit, err := c.app.resolve(ctx, "timer start", args)
	if err != nil {
		return err
	}
	rt, err := engine.StartTimer(ctx, habit.ID)
	if err != nil {
		return NewErrorHandler().Handle("start timer", err)
	}
	c.app.printf("Started timer for %s at %s\n", habit.Name,
		rt.StartedAt.In(engine.Clock().Location()).Format(c.app.config.Display.TimeFormat))
	return nil
}

// TimerStopCommand handles the timer stop command
type TimerStopCommand struct {
	app *App
}

// NewTimerStopCommand creates a new timer stop command handler
func NewTimerStopCommand(app *App) *TimerStopCommand {
	return &TimerStopCommand{app: app}
}

// Execute stops a session and credits its minutes. Without arguments every
// running session is stopped.
func (c *TimerStopCommand) Execute(ctx context.Context, args []string) error {
	if len(args) > 0 {
		engine, habit, err := c.app.resolve(ctx, "timer stop", args)
		if err != nil {
			return err
		}
		return c.stop(ctx, engine, habit)
	}

	engine, err := c.app.Engine(ctx)
	if err != nil {
		return err
	}
	running := engine.RunningTimers(ctx)
	if len(running) == 0 {
		c.app.printf("No timers running\n")
		return nil
	}
	for _, ts := range running {
		if err := c.stop(ctx, engine, ts.Habit); err != nil {
			return err
		}
	}
	return nil
}

func (c *TimerStopCommand) stop(ctx context.Context, engine *api.Engine, habit domain.Habit) error {
	result, err := engine.StopTimer(ctx, habit.ID)
	if err != nil {
		return NewErrorHandler().Handle("stop timer", err)
	}
	c.app.printf("Stopped timer: %d min credited to %s\n", result.Minutes, result.Date)
	c.app.printEntry(habit, result.Entry)
	return nil
}

// TimerStatusCommand handles the timer status command
type TimerStatusCommand struct {
	app *App
}

// NewTimerStatusCommand creates a new timer status command handler
func NewTimerStatusCommand(app *App) *TimerStatusCommand {
	return &TimerStatusCommand{app: app}
}

// Execute lists running sessions with their elapsed time
func (c *TimerStatusCommand) Execute(ctx context.Context, args []string) error {
	engine, err := c.app.Engine(ctx)
	if err != nil {
		return err
	}
	running := engine.RunningTimers(ctx)
	if len(running) == 0 {
		c.app.printf("No timers running\n")
		return nil
	}
	for _, ts := range running {
		c.app.printf("%s: %s (goal %d min)\n", ts.Habit.Name, formatElapsed(ts.Elapsed), ts.Habit.MinMinutes())
	}
	return nil
}
