package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"habit-tracker/internal/config"

	"github.com/spf13/cobra"
)

// RootCommand represents the base command when called without any subcommands
type RootCommand struct {
	cmd *cobra.Command
	app *App
}

// NewRootCommand creates the root cobra command with global flags
func NewRootCommand(app *App) *RootCommand {
	root := &RootCommand{app: app}

	root.cmd = &cobra.Command{
		Use:   "ht",
		Short: "A command-line habit tracker",
		Long: `Habit Tracker (ht) tracks recurring habits, timed sessions, streaks and reminders.

EXAMPLES:
  ht habit add "Read" --days mon,wed,fri --metric timed --min 10 --remind 07:30
  ht habit add "Water" --metric count --unit glasses --target 8
  ht check "Floss"                         # Mark a check habit done today
  ht count "Water" 2                       # Add two glasses
  ht timer start "Read"                    # Start a timed session
  ht timer stop                            # Stop every running session
  ht today                                 # What is due today
  ht streak                                # Overall and per-habit streaks
  ht insights daily 2w                     # Completion rate for two weeks
  ht watch                                 # Run reminders and auto-complete

CONFIGURATION:
  Priority order: command-line flags > HT_* environment variables > .env > config file > defaults

  Storage:
    HT_DB_BACKEND                          sqlite, memory, redis or postgres (default: sqlite)
    HT_DB_DIR                              Database directory (default: ~/.ht)
    HT_DB_FILENAME                         Database filename (default: ht.db)
    HT_REDIS_ADDR, HT_POSTGRES_DSN         Server backends

  Engine:
    HT_TIMEZONE                            IANA timezone, unknown ids fall back to UTC
    HT_AUTO_COMPLETE                       Stop timers once the goal is reached (default: true)
    HT_NUDGE_WINDOW                        Reminder-to-completion window (default: 2h)
    HT_TICK_INTERVAL                       Watch tick interval (default: 1s)

  Application:
    HT_APP_TIMEOUT                         Command timeout (default: 60s)
    HT_LOG_LEVEL, HT_LOG_FORMAT            Logging (default: warn, console)
    HT_METRICS_ADDR                        Serve /metrics while watching`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return root.applyFlags()
		},
	}

	root.addGlobalFlags()
	root.addSubcommands()

	return root
}

// Execute runs the root command
func (r *RootCommand) Execute() error {
	return r.cmd.Execute()
}

// ExecuteArgs runs the root command with explicit arguments
func (r *RootCommand) ExecuteArgs(args []string) error {
	r.cmd.SetArgs(args)
	return r.cmd.Execute()
}

// addGlobalFlags adds global configuration flags
func (r *RootCommand) addGlobalFlags() {
	flags := r.cmd.PersistentFlags()

	flags.String("db-backend", "", "Storage backend (overrides HT_DB_BACKEND)")
	flags.String("db-dir", "", "Database directory (overrides HT_DB_DIR)")
	flags.String("db-filename", "", "Database filename (overrides HT_DB_FILENAME)")

	flags.String("timezone", "", "IANA timezone (overrides HT_TIMEZONE)")
	flags.Bool("auto-complete", true, "Stop timers at their goal (overrides HT_AUTO_COMPLETE)")
	flags.Duration("nudge-window", 0, "Reminder-to-completion window (overrides HT_NUDGE_WINDOW)")
	flags.Duration("tick-interval", 0, "Watch tick interval (overrides HT_TICK_INTERVAL)")

	flags.Duration("app-timeout", 0, "Command timeout (overrides HT_APP_TIMEOUT)")
	flags.Bool("verbose", false, "Enable verbose output (overrides HT_APP_VERBOSE)")
	flags.String("log-level", "", "Log level (overrides HT_LOG_LEVEL)")
	flags.String("metrics-addr", "", "Metrics listen address for watch (overrides HT_METRICS_ADDR)")
}

// applyFlags copies explicitly set flags onto the configuration
func (r *RootCommand) applyFlags() error {
	if r.app.config == nil {
		return fmt.Errorf("configuration not initialized")
	}
	flags := r.cmd.PersistentFlags()
	var o config.ConfigOverrides

	if flags.Changed("db-backend") {
		v, _ := flags.GetString("db-backend")
		o.DBBackend = &v
	}
	if flags.Changed("db-dir") {
		v, _ := flags.GetString("db-dir")
		o.DBDir = &v
	}
	if flags.Changed("db-filename") {
		v, _ := flags.GetString("db-filename")
		o.DBFilename = &v
	}
	if flags.Changed("timezone") {
		v, _ := flags.GetString("timezone")
		o.Timezone = &v
	}
	if flags.Changed("auto-complete") {
		v, _ := flags.GetBool("auto-complete")
		o.AutoComplete = &v
	}
	if flags.Changed("nudge-window") {
		v, _ := flags.GetDuration("nudge-window")
		o.NudgeWindow = &v
	}
	if flags.Changed("tick-interval") {
		v, _ := flags.GetDuration("tick-interval")
		o.TickInterval = &v
	}
	if flags.Changed("app-timeout") {
		v, _ := flags.GetDuration("app-timeout")
		o.Timeout = &v
	}
	if flags.Changed("verbose") {
		v, _ := flags.GetBool("verbose")
		o.Verbose = &v
	}
	if flags.Changed("log-level") {
		v, _ := flags.GetString("log-level")
		o.LogLevel = &v
	}
	if flags.Changed("metrics-addr") {
		v, _ := flags.GetString("metrics-addr")
		o.MetricsAddr = &v
	}

	o.Apply(r.app.config)
	return r.app.config.Validate()
}

// run executes a registered command with the configured timeout
func (r *RootCommand) run(name string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), r.getAppTimeout())
		defer cancel()
		defer r.app.Close()

		return r.app.registry.Execute(ctx, name, args)
	}
}

// getAppTimeout returns the configured application timeout
func (r *RootCommand) getAppTimeout() time.Duration {
	if r.app.config != nil && r.app.config.Application.Timeout > 0 {
		return r.app.config.Application.Timeout
	}
	return 60 * time.Second
}

func (r *RootCommand) command(name string) Command {
	c, _ := r.app.registry.Get(name)
	return c
}

// addSubcommands adds all CLI subcommands to the root command
func (r *RootCommand) addSubcommands() {
	r.cmd.AddCommand(
		r.habitCommand(),
		r.progressCommand("check", "check <habit>", "Mark a check habit done", cobra.MinimumNArgs(1)),
		r.progressCommand("count", "count <habit> <amount>", "Add to a count habit", cobra.MinimumNArgs(2)),
		r.progressCommand("log", "log <habit> <minutes>", "Credit minutes to a timed habit without a timer", cobra.MinimumNArgs(2)),
		r.progressCommand("reset", "reset <habit>", "Clear a day's progress", cobra.MinimumNArgs(1)),
		r.timerCommand(),
		&cobra.Command{
			Use:   "today [date]",
			Short: "Show habits due today",
			Long:  "Show the habits due on a day with their status. Dates accept today, yesterday, 3d or YYYY-MM-DD.",
			Args:  cobra.MaximumNArgs(1),
			RunE:  r.run("today"),
		},
		&cobra.Command{
			Use:   "streak [date]",
			Short: "Show streaks",
			Args:  cobra.MaximumNArgs(1),
			RunE:  r.run("streak"),
		},
		r.group("remind", "Reminder planning", &cobra.Command{
			Use:   "plan",
			Short: "List the next reminder of every habit",
			Args:  cobra.NoArgs,
			RunE:  r.run("remind plan"),
		}),
		r.group("nudge", "Reminder analysis", &cobra.Command{
			Use:   "effectiveness <habit>",
			Short: "Share of completions that followed a reminder",
			Args:  cobra.MinimumNArgs(1),
			RunE:  r.run("nudge effectiveness"),
		}),
		r.insightsCommand(),
		&cobra.Command{
			Use:   "watch",
			Short: "Run reminders and timer auto-completion until interrupted",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
				defer stop()
				defer r.app.Close()
				return r.app.registry.Execute(ctx, "watch", args)
			},
		},
	)
}

func (r *RootCommand) group(use, short string, children ...*cobra.Command) *cobra.Command {
	parent := &cobra.Command{Use: use, Short: short}
	parent.AddCommand(children...)
	return parent
}

func (r *RootCommand) habitCommand() *cobra.Command {
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a habit",
		Long: `Create a habit. Habits are daily check habits unless told otherwise.

Examples:
  ht habit add "Floss"
  ht habit add "Read" --days mon,wed,fri --metric timed --min 10 --tiers 5:red,10:yellow
  ht habit add "Water" --metric count --unit glasses --target 8 --remind 09:00,15:00`,
		Args: cobra.MinimumNArgs(1),
		RunE: r.run("habit add"),
	}
	addCmd := r.command("habit add").(*HabitAddCommand)
	bindHabitFlags(add, &addCmd.Options, false)

	list := &cobra.Command{
		Use:   "list",
		Short: "List habits",
		Args:  cobra.NoArgs,
		RunE:  r.run("habit list"),
	}
	list.Flags().BoolVar(&r.command("habit list").(*HabitListCommand).IncludeArchived, "all", false, "Include archived habits")

	edit := &cobra.Command{
		Use:   "edit <habit>",
		Short: "Change a habit",
		Long:  `Change a habit. Only the given flags are applied; use "none" to clear tiers or reminders.`,
		Args:  cobra.MinimumNArgs(1),
		RunE:  r.run("habit edit"),
	}
	editCmd := r.command("habit edit").(*HabitEditCommand)
	bindHabitFlags(edit, &editCmd.Options, true)

	return r.group("habit", "Manage habits",
		add,
		list,
		&cobra.Command{Use: "show <habit>", Short: "Show a habit", Args: cobra.MinimumNArgs(1), RunE: r.run("habit show")},
		edit,
		&cobra.Command{Use: "archive <habit>", Short: "Archive a habit", Args: cobra.MinimumNArgs(1), RunE: r.run("habit archive")},
		&cobra.Command{Use: "unarchive <habit>", Short: "Restore an archived habit", Args: cobra.MinimumNArgs(1), RunE: r.run("habit unarchive")},
		&cobra.Command{
			Use:   "delete <habit>",
			Short: "Delete a habit and all its history",
			Long:  "Delete a habit together with its log, reminders and running timer. This cannot be undone.",
			Args:  cobra.MinimumNArgs(1),
			RunE:  r.run("habit delete"),
		},
	)
}

func bindHabitFlags(cmd *cobra.Command, o *HabitOptions, edit bool) {
	flags := cmd.Flags()
	if edit {
		flags.StringVar(&o.Name, "name", "", "New name")
	}
	flags.StringVar(&o.Days, "days", "", "Due weekdays, e.g. mon,wed,fri or weekdays (default daily)")
	flags.StringVar(&o.Metric, "metric", "", "check, count or timed")
	flags.StringVar(&o.Unit, "unit", "", "Unit of a count habit")
	flags.StringVar(&o.Target, "target", "", "Daily target of a count habit")
	flags.StringVar(&o.Minutes, "min", "", "Minimum minutes of a timed habit")
	flags.StringVar(&o.Tiers, "tiers", "", "Badge tiers, e.g. 5:red,10:yellow")
	flags.StringVar(&o.Reminders, "remind", "", "Reminder times, e.g. 07:30,21:00")
}

// progressCommand binds --date onto the named progress handler
func (r *RootCommand) progressCommand(name, use, short string, args cobra.PositionalArgs) *cobra.Command {
	cmd := &cobra.Command{Use: use, Short: short, Args: args, RunE: r.run(name)}
	var date *string
	switch c := r.command(name).(type) {
	case *CheckCommand:
		date = &c.Date
	case *CountCommand:
		date = &c.Date
	case *LogMinutesCommand:
		date = &c.Date
	case *ResetCommand:
		date = &c.Date
	}
	if date != nil {
		cmd.Flags().StringVar(date, "date", "", "Day to record: today, yesterday, 3d or YYYY-MM-DD")
	}
	return cmd
}

func (r *RootCommand) timerCommand() *cobra.Command {
	return r.group("timer", "Timed sessions",
		&cobra.Command{Use: "start <habit>", Short: "Start a session", Args: cobra.MinimumNArgs(1), RunE: r.run("timer start")},
		&cobra.Command{Use: "stop [habit]", Short: "Stop a session, or all of them", RunE: r.run("timer stop")},
		&cobra.Command{Use: "status", Short: "Show running sessions", Args: cobra.NoArgs, RunE: r.run("timer status")},
	)
}

func (r *RootCommand) insightsCommand() *cobra.Command {
	timeCmd := &cobra.Command{
		Use:   "time <habit>",
		Short: "Minutes per day for a timed habit",
		Args:  cobra.MinimumNArgs(1),
		RunE:  r.run("insights time"),
	}
	timeCmd.Flags().StringVar(&r.command("insights time").(*InsightsTimeCommand).Range, "range", "", "Range shorthand such as 7d or 2w (default 7d)")

	return r.group("insights", "History reports",
		&cobra.Command{Use: "daily [range]", Short: "Completion rate per day (default 7d)", Args: cobra.MaximumNArgs(1), RunE: r.run("insights daily")},
		&cobra.Command{Use: "hours [range]", Short: "Completions by hour of day (default 30d)", Args: cobra.MaximumNArgs(1), RunE: r.run("insights hours")},
		timeCmd,
	)
}
