package cli

import (
	"context"
	"math"
	"strconv"
	"strings"
)

// InsightsDailyCommand handles the insights daily command
type InsightsDailyCommand struct {
	app *App
}

// NewInsightsDailyCommand creates a new insights daily command handler
func NewInsightsDailyCommand(app *App) *InsightsDailyCommand {
	return &InsightsDailyCommand{app: app}
}

// Execute prints due and completed counts per day. The optional argument
// is a range shorthand, 7d by default.
func (c *InsightsDailyCommand) Execute(ctx context.Context, args []string) error {
	engine, err := c.app.Engine(ctx)
	if err != nil {
		return err
	}
	from, to, err := parseRange(firstArg(args), engine.Today(), 7)
	if err != nil {
		return NewErrorHandler().HandleSimple(err)
	}

	loc := engine.Clock().Location()
	for _, s := range engine.DailySummaries(ctx, from, to) {
		c.app.printf("%s  %d/%d  %3d%%\n",
			s.Date.At(0, 0, loc).Format(c.app.config.Display.DateFormat),
			s.Completed, s.Due, int(math.Round(s.Rate()*100)))
	}
	return nil
}

// InsightsHoursCommand handles the insights hours command
type InsightsHoursCommand struct {
	app *App
}

// NewInsightsHoursCommand creates a new insights hours command handler
func NewInsightsHoursCommand(app *App) *InsightsHoursCommand {
	return &InsightsHoursCommand{app: app}
}

// Execute prints a histogram of completion times by hour of day. The
// optional argument is a range shorthand, 30d by default.
func (c *InsightsHoursCommand) Execute(ctx context.Context, args []string) error {
	engine, err := c.app.Engine(ctx)
	if err != nil {
		return err
	}
	from, to, err := parseRange(firstArg(args), engine.Today(), 30)
	if err != nil {
		return NewErrorHandler().HandleSimple(err)
	}

	hours := engine.CompletionHours(ctx, from, to)
	total := 0
	for hour, n := range hours {
		if n == 0 {
			continue
		}
		total += n
		c.app.printf("%02d:00  %s %d\n", hour, strings.Repeat("#", n), n)
	}
	if total == 0 {
		c.app.printf("No completions in range\n")
	}
	return nil
}

// InsightsTimeCommand handles the insights time command
type InsightsTimeCommand struct {
	app   *App
	Range string
}

// NewInsightsTimeCommand creates a new insights time command handler
func NewInsightsTimeCommand(app *App) *InsightsTimeCommand {
	return &InsightsTimeCommand{app: app}
}

// Execute prints minutes per day for a timed habit
func (c *InsightsTimeCommand) Execute(ctx context.Context, args []string) error {
	engine, habit, err := c.app.resolve(ctx, "insights time", args)
	if err != nil {
		return err
	}
	from, to, err := parseRange(c.Range, engine.Today(), 7)
	if err != nil {
		return NewErrorHandler().HandleSimple(err)
	}
	series, err := engine.TimeOnTask(ctx, habit.ID, from, to)
	if err != nil {
		return NewErrorHandler().Handle("load time on task", err)
	}

	loc := engine.Clock().Location()
	total := 0.0
	for _, p := range series {
		total += p.Minutes
		c.app.printf("%s  %s min\n", p.Date.At(0, 0, loc).Format(c.app.config.Display.DateFormat), strconv.FormatFloat(p.Minutes, 'f', -1, 64))
	}
	c.app.printf("Total: %s min\n", strconv.FormatFloat(total, 'f', -1, 64))
	return nil
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
