package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"habit-tracker/internal/domain"
	"habit-tracker/internal/errors"
	"habit-tracker/internal/services"
)

// HabitOptions holds the habit attributes given as flags. Empty strings
// mean "not given".
type HabitOptions struct {
	Name      string
	Days      string
	Metric    string
	Unit      string
	Target    string
	Minutes   string
	Tiers     string
	Reminders string
}

func (o HabitOptions) metricGiven() bool {
	return o.Metric != "" || o.Unit != "" || o.Target != "" || o.Minutes != ""
}

// ========== habit add ==========

// HabitAddCommand handles the habit add command
type HabitAddCommand struct {
	app          *App
	Options      HabitOptions
	errorHandler *ErrorHandler
}

// NewHabitAddCommand creates a new habit add command handler
func NewHabitAddCommand(app *App) *HabitAddCommand {
	return &HabitAddCommand{app: app, errorHandler: NewErrorHandler()}
}

// Execute creates a habit named after the joined arguments
func (c *HabitAddCommand) Execute(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.NewInvalidInputError("command", "habit add", "usage: ht habit add \"habit name\" [--days mon,wed] [--metric timed --min 10]")
	}
	spec, err := c.app.habitSpec(strings.Join(args, " "), c.Options)
	if err != nil {
		return c.errorHandler.Handle("add habit", err)
	}

	engine, err := c.app.Engine(ctx)
	if err != nil {
		return err
	}
	habit, err := engine.CreateHabit(ctx, spec)
	if err != nil {
		return c.errorHandler.Handle("add habit", err)
	}
	c.app.printf("Added habit: %s (%s, %s)\n", habit.Name, habit.Cadence, describeMetric(habit.Metric))
	return nil
}

func (a *App) habitSpec(name string, o HabitOptions) (services.HabitSpec, error) {
	spec := services.HabitSpec{Name: name, Cadence: domain.Daily()}

	cadence, err := parseCadence(o.Days)
	if err != nil {
		return spec, err
	}
	spec.Cadence = cadence

	spec.Metric, err = a.parseMetric(o, "")
	if err != nil {
		return spec, err
	}
	if spec.Tiers, err = a.validator.ParseTiers(o.Tiers); err != nil {
		return spec, err
	}
	if o.Reminders != "none" {
		if spec.Reminders, err = a.validator.ParseReminders(o.Reminders); err != nil {
			return spec, err
		}
	}
	return spec, nil
}

func parseCadence(days string) (domain.Cadence, error) {
	days = strings.TrimSpace(days)
	if days == "" || strings.EqualFold(days, "daily") {
		return domain.Daily(), nil
	}
	set, err := domain.ParseWeekdaySet(days)
	if err != nil {
		return domain.Cadence{}, errors.NewInvalidInputError("days", days, err.Error())
	}
	return domain.Cadence{Kind: domain.CadenceSpecificDays, Days: set}.Normalize(), nil
}

// parseMetric builds a metric from flags. fallbackKind is used when the
// kind itself was not given.
func (a *App) parseMetric(o HabitOptions, fallbackKind domain.MetricKind) (domain.Metric, error) {
	kind := domain.MetricKind(strings.ToLower(strings.TrimSpace(o.Metric)))
	if kind == "" {
		kind = fallbackKind
	}
	switch kind {
	case "", domain.MetricCheck:
		return domain.CheckMetric{}, nil
	case domain.MetricCount:
		m := domain.CountMetric{Unit: strings.TrimSpace(o.Unit)}
		if o.Target != "" {
			target, err := a.validator.ParseCount(o.Target)
			if err != nil {
				return nil, err
			}
			m.DailyTarget = target
		}
		return m, nil
	case domain.MetricTimed:
		if o.Minutes == "" {
			return nil, errors.NewInvalidInputError("min", "", "timed habits need --min")
		}
		minutes, err := a.validator.ParseMinutes(o.Minutes)
		if err != nil {
			return nil, err
		}
		return domain.TimedMetric{MinMinutes: minutes}, nil
	default:
		return nil, errors.NewInvalidInputError("metric", o.Metric, "must be check, count or timed")
	}
}

// ========== habit list ==========

// HabitListCommand handles the habit list command
type HabitListCommand struct {
	app             *App
	IncludeArchived bool
}

// NewHabitListCommand creates a new habit list command handler
func NewHabitListCommand(app *App) *HabitListCommand {
	return &HabitListCommand{app: app}
}

// Execute prints one line per habit
func (c *HabitListCommand) Execute(ctx context.Context, args []string) error {
	engine, err := c.app.Engine(ctx)
	if err != nil {
		return err
	}
	habits, err := engine.ListHabits(ctx, c.IncludeArchived)
	if err != nil {
		return NewErrorHandler().Handle("list habits", err)
	}
	if len(habits) == 0 {
		c.app.printf("No habits found\n")
		return nil
	}
	for _, h := range habits {
		line := fmt.Sprintf("%-24s %-22s %s", h.Name, h.Cadence, describeMetric(h.Metric))
		if h.Archived {
			line += " [archived]"
		}
		c.app.printf("%s\n", strings.TrimRight(line, " "))
	}
	return nil
}

// ========== habit show ==========

// HabitShowCommand handles the habit show command
type HabitShowCommand struct {
	app *App
}

// NewHabitShowCommand creates a new habit show command handler
func NewHabitShowCommand(app *App) *HabitShowCommand {
	return &HabitShowCommand{app: app}
}

// Execute prints the full definition of one habit
func (c *HabitShowCommand) Execute(ctx context.Context, args []string) error {
	engine, habit, err := c.app.resolve(ctx, "habit show", args)
	if err != nil {
		return err
	}

	c.app.printf("Name:      %s\n", habit.Name)
	c.app.printf("ID:        %s\n", habit.ID)
	c.app.printf("Cadence:   %s\n", habit.Cadence)
	c.app.printf("Metric:    %s\n", describeMetric(habit.Metric))
	if len(habit.Tiers) > 0 {
		c.app.printf("Tiers:     %s\n", describeTiers(habit.Tiers))
	}
	if len(habit.Reminders) > 0 {
		parts := make([]string, len(habit.Reminders))
		for i, r := range habit.Reminders {
			parts[i] = r.String()
		}
		c.app.printf("Reminders: %s\n", strings.Join(parts, ", "))
	}
	c.app.printf("Created:   %s\n", habit.CreatedAt.In(engine.Clock().Location()).Format(c.app.config.Display.DateFormat))
	if habit.Archived {
		c.app.printf("Archived:  yes\n")
		return nil
	}
	if at, ok := engine.Services().Reminders.PlanNext(ctx, habit); ok {
		c.app.printf("Next:      %s\n", at.In(engine.Clock().Location()).Format(c.app.config.Display.DateFormat+" "+c.app.config.Display.TimeFormat))
	}
	return nil
}

// ========== habit edit ==========

// HabitEditCommand handles the habit edit command
type HabitEditCommand struct {
	app          *App
	Options      HabitOptions
	errorHandler *ErrorHandler
}

// NewHabitEditCommand creates a new habit edit command handler
func NewHabitEditCommand(app *App) *HabitEditCommand {
	return &HabitEditCommand{app: app, errorHandler: NewErrorHandler()}
}

// Execute applies the given flags to an existing habit
func (c *HabitEditCommand) Execute(ctx context.Context, args []string) error {
	engine, habit, err := c.app.resolve(ctx, "habit edit", args)
	if err != nil {
		return err
	}

	update, err := c.app.habitUpdate(habit, c.Options)
	if err != nil {
		return c.errorHandler.Handle("edit habit", err)
	}
	habit, err = engine.UpdateHabit(ctx, habit.ID, update)
	if err != nil {
		return c.errorHandler.Handle("edit habit", err)
	}
	c.app.printf("Updated habit: %s (%s, %s)\n", habit.Name, habit.Cadence, describeMetric(habit.Metric))
	return nil
}

func (a *App) habitUpdate(current domain.Habit, o HabitOptions) (services.HabitUpdate, error) {
	var update services.HabitUpdate
	if o.Name != "" {
		name := o.Name
		update.Name = &name
	}
	if o.Days != "" {
		cadence, err := parseCadence(o.Days)
		if err != nil {
			return update, err
		}
		update.Cadence = &cadence
	}
	if o.metricGiven() {
		metric, err := a.parseMetric(o, current.Metric.Kind())
		if err != nil {
			return update, err
		}
		update.Metric = metric
	}
	if o.Tiers != "" {
		var tiers []domain.Tier
		if o.Tiers != "none" {
			parsed, err := a.validator.ParseTiers(o.Tiers)
			if err != nil {
				return update, err
			}
			tiers = parsed
		}
		update.Tiers = &tiers
	}
	if o.Reminders != "" {
		var reminders []domain.ReminderTime
		if o.Reminders != "none" {
			parsed, err := a.validator.ParseReminders(o.Reminders)
			if err != nil {
				return update, err
			}
			reminders = parsed
		}
		update.Reminders = &reminders
	}
	return update, nil
}

// ========== habit archive / unarchive ==========

// HabitArchiveCommand handles the habit archive and unarchive commands
type HabitArchiveCommand struct {
	app     *App
	archive bool
}

// NewHabitArchiveCommand creates a handler that archives, or restores when archive is false
func NewHabitArchiveCommand(app *App, archive bool) *HabitArchiveCommand {
	return &HabitArchiveCommand{app: app, archive: archive}
}

// Execute archives or restores the named habit
func (c *HabitArchiveCommand) Execute(ctx context.Context, args []string) error {
	name := "habit unarchive"
	if c.archive {
		name = "habit archive"
	}
	engine, habit, err := c.app.resolve(ctx, name, args)
	if err != nil {
		return err
	}

	if c.archive {
		if _, err := engine.ArchiveHabit(ctx, habit.ID); err != nil {
			return NewErrorHandler().Handle("archive habit", err)
		}
		c.app.printf("Archived habit: %s\n", habit.Name)
		return nil
	}
	if _, err := engine.UnarchiveHabit(ctx, habit.ID); err != nil {
		return NewErrorHandler().Handle("restore habit", err)
	}
	c.app.printf("Restored habit: %s\n", habit.Name)
	return nil
}

// ========== habit delete ==========

// HabitDeleteCommand handles the habit delete command
type HabitDeleteCommand struct {
	app *App
}

// NewHabitDeleteCommand creates a new habit delete command handler
func NewHabitDeleteCommand(app *App) *HabitDeleteCommand {
	return &HabitDeleteCommand{app: app}
}

// Execute deletes a habit together with its history
func (c *HabitDeleteCommand) Execute(ctx context.Context, args []string) error {
	engine, habit, err := c.app.resolve(ctx, "habit delete", args)
	if err != nil {
		return err
	}
	if _, err := engine.DeleteHabit(ctx, habit.ID); err != nil {
		return NewErrorHandler().Handle("delete habit", err)
	}
	c.app.printf("Deleted habit: %s\n", habit.Name)
	return nil
}

// ========== shared helpers ==========

func describeMetric(m domain.Metric) string {
	switch m := m.(type) {
	case domain.TimedMetric:
		return fmt.Sprintf("timed >= %d min", m.MinMinutes)
	case domain.CountMetric:
		unit := m.Unit
		if unit == "" {
			unit = "count"
		}
		if m.DailyTarget > 0 {
			return fmt.Sprintf("count %s %s/day", strconv.FormatFloat(m.DailyTarget, 'f', -1, 64), unit)
		}
		return "count " + unit
	default:
		return "check"
	}
}

func describeTiers(tiers []domain.Tier) string {
	parts := make([]string, len(tiers))
	for i, t := range tiers {
		parts[i] = strconv.FormatFloat(t.Threshold, 'f', -1, 64) + ":" + t.Badge
	}
	return strings.Join(parts, ", ")
}
