package cli

import (
	"context"
	"sort"
	"strings"

	"habit-tracker/internal/errors"
)

// Command represents a CLI command
type Command interface {
	Execute(ctx context.Context, args []string) error
}

// CommandRegistry manages all available commands
type CommandRegistry struct {
	commands map[string]Command
}

// NewCommandRegistry creates a new command registry
func NewCommandRegistry(app *App) *CommandRegistry {
	registry := &CommandRegistry{
		commands: make(map[string]Command),
	}

	registry.Register("habit add", NewHabitAddCommand(app))
	registry.Register("habit list", NewHabitListCommand(app))
	registry.Register("habit show", NewHabitShowCommand(app))
	registry.Register("habit edit", NewHabitEditCommand(app))
	registry.Register("habit archive", NewHabitArchiveCommand(app, true))
	registry.Register("habit unarchive", NewHabitArchiveCommand(app, false))
	registry.Register("habit delete", NewHabitDeleteCommand(app))
	registry.Register("check", NewCheckCommand(app))
	registry.Register("count", NewCountCommand(app))
	registry.Register("log", NewLogMinutesCommand(app))
	registry.Register("reset", NewResetCommand(app))
	registry.Register("timer start", NewTimerStartCommand(app))
	registry.Register("timer stop", NewTimerStopCommand(app))
	registry.Register("timer status", NewTimerStatusCommand(app))
	registry.Register("today", NewTodayCommand(app))
	registry.Register("streak", NewStreakCommand(app))
	registry.Register("remind plan", NewRemindPlanCommand(app))
	registry.Register("nudge effectiveness", NewNudgeCommand(app))
	registry.Register("insights daily", NewInsightsDailyCommand(app))
	registry.Register("insights hours", NewInsightsHoursCommand(app))
	registry.Register("insights time", NewInsightsTimeCommand(app))
	registry.Register("watch", NewWatchCommand(app))

	return registry
}

// Register adds a command to the registry
func (r *CommandRegistry) Register(name string, command Command) {
	r.commands[name] = command
}

// Has reports whether a command is registered under name
func (r *CommandRegistry) Has(name string) bool {
	_, ok := r.commands[name]
	return ok
}

// Get returns the command registered under name
func (r *CommandRegistry) Get(name string) (Command, bool) {
	c, ok := r.commands[name]
	return c, ok
}

// Execute runs the specified command with the given arguments
func (r *CommandRegistry) Execute(ctx context.Context, commandName string, args []string) error {
	command, exists := r.commands[commandName]
	if !exists {
		return errors.NewInvalidInputError("command", commandName, "unknown command")
	}
	return command.Execute(ctx, args)
}

// Names returns the registered command names in order
func (r *CommandRegistry) Names() []string {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetUsage returns the usage string for the CLI
func (r *CommandRegistry) GetUsage() string {
	return "usage: ht <" + strings.Join(r.Names(), " | ") + ">"
}
