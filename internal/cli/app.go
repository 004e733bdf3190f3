package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"habit-tracker/internal/api"
	"habit-tracker/internal/config"
	"habit-tracker/internal/domain"
	"habit-tracker/internal/errors"
	"habit-tracker/internal/services"
	"habit-tracker/internal/validation"

	"go.uber.org/zap"
)

// EngineOpener builds an engine from configuration. A nil notifier means
// reminders are computed but never scheduled.
type EngineOpener func(ctx context.Context, cfg *config.Config, notifier services.Notifier) (*api.Engine, error)

// App represents the main CLI application
type App struct {
	config    *config.Config
	open      EngineOpener
	logger    *zap.Logger
	out       io.Writer
	validator *validation.HabitValidator
	registry  *CommandRegistry

	engine *api.Engine
}

// NewApp creates a new CLI application. Output goes to out, or stdout when nil.
func NewApp(cfg *config.Config, open EngineOpener, logger *zap.Logger, out io.Writer) *App {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if out == nil {
		out = os.Stdout
	}
	app := &App{
		config:    cfg,
		open:      open,
		logger:    logger,
		out:       out,
		validator: validation.NewHabitValidatorWithConfig(cfg),
	}
	app.registry = NewCommandRegistry(app)
	return app
}

// Engine opens the engine on first use
func (a *App) Engine(ctx context.Context) (*api.Engine, error) {
	if a.engine != nil {
		return a.engine, nil
	}
	engine, err := a.open(ctx, a.config, nil)
	if err != nil {
		return nil, err
	}
	a.engine = engine
	return engine, nil
}

// Close releases the engine if one was opened
func (a *App) Close() error {
	if a.engine == nil {
		return nil
	}
	err := a.engine.Close()
	a.engine = nil
	return err
}

// Run executes a command. Two-word commands such as "habit add" take
// precedence over single-word ones.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%s", a.registry.GetUsage())
	}
	if len(args) > 1 {
		name := args[0] + " " + args[1]
		if a.registry.Has(name) {
			return a.registry.Execute(ctx, name, args[2:])
		}
	}
	return a.registry.Execute(ctx, args[0], args[1:])
}

// resolve opens the engine and finds the habit named by the joined args
func (a *App) resolve(ctx context.Context, command string, args []string) (*api.Engine, domain.Habit, error) {
	if len(args) < 1 {
		return nil, domain.Habit{}, errors.NewInvalidInputError("command", command, fmt.Sprintf("usage: ht %s <habit>", command))
	}
	engine, err := a.Engine(ctx)
	if err != nil {
		return nil, domain.Habit{}, err
	}
	habit, err := engine.FindHabit(ctx, strings.Join(args, " "))
	if err != nil {
		return nil, domain.Habit{}, NewErrorHandler().HandleSimple(err)
	}
	return engine, habit, nil
}

func (a *App) printf(format string, args ...interface{}) {
	fmt.Fprintf(a.out, format, args...)
}

// parseDate accepts "today", "yesterday", a day shorthand such as "3d"
// meaning three days ago, or YYYY-MM-DD.
func parseDate(s string, today domain.Date) (domain.Date, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "today":
		return today, nil
	case "yesterday":
		return today.AddDays(-1), nil
	}
	if days, err := parseDayShorthand(s); err == nil {
		return today.AddDays(-days), nil
	}
	d, err := domain.ParseDate(s)
	if err != nil {
		return domain.Date{}, errors.NewInvalidInputError("date", s, "use today, yesterday, 3d or YYYY-MM-DD")
	}
	return d, nil
}

// parseRange resolves a shorthand like "7d" or "2w" into the inclusive
// range ending today.
func parseRange(s string, today domain.Date, defaultDays int) (domain.Date, domain.Date, error) {
	days := defaultDays
	if s != "" {
		n, err := parseDayShorthand(s)
		if err != nil {
			return domain.Date{}, domain.Date{}, errors.NewInvalidInputError("range", s, "use a shorthand such as 7d, 2w, 3mo or 1y")
		}
		days = n
	}
	if days < 1 {
		days = 1
	}
	return today.AddDays(-(days - 1)), today, nil
}

var dayShorthand = regexp.MustCompile(`^(\d+)(d|w|mo|y)$`)

// parseDayShorthand parses "1d", "2w", "3mo", "1y" into a number of days
func parseDayShorthand(shorthand string) (int, error) {
	matches := dayShorthand.FindStringSubmatch(strings.TrimSpace(shorthand))
	if matches == nil {
		return 0, fmt.Errorf("invalid day format: %s", shorthand)
	}

	value, err := strconv.Atoi(matches[1])
	if err != nil {
		return 0, fmt.Errorf("invalid number in day format: %s", shorthand)
	}

	switch matches[2] {
	case "d":
		return value, nil
	case "w":
		return value * 7, nil
	case "mo":
		return value * 30, nil
	case "y":
		return value * 365, nil
	default:
		return 0, fmt.Errorf("invalid day unit: %s", matches[2])
	}
}

// formatElapsed renders a duration as "1h 05m" or "12m 30s"
func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh %02dm", h, m)
	}
	return fmt.Sprintf("%dm %02ds", m, s)
}

// formatProgress renders progress in the unit of the habit's metric
func formatProgress(h domain.Habit, progress float64) string {
	switch m := h.Metric.(type) {
	case domain.TimedMetric:
		return fmt.Sprintf("%s/%d min", strconv.FormatFloat(progress, 'f', -1, 64), m.MinMinutes)
	case domain.CountMetric:
		unit := m.Unit
		if unit == "" {
			unit = "x"
		}
		if m.DailyTarget > 0 {
			return fmt.Sprintf("%s/%s %s", strconv.FormatFloat(progress, 'f', -1, 64), strconv.FormatFloat(m.DailyTarget, 'f', -1, 64), unit)
		}
		return fmt.Sprintf("%s %s", strconv.FormatFloat(progress, 'f', -1, 64), unit)
	default:
		if progress >= 1 {
			return "done"
		}
		return "-"
	}
}
