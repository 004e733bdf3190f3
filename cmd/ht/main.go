package main

import (
	"fmt"
	"os"

	"habit-tracker/internal/cli"
	"habit-tracker/internal/config"
	"habit-tracker/internal/logging"
)

func main() {
	// Load configuration from file, .env and environment; flags are applied by the root command
	cfg, err := config.NewLoader().Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(logging.Options{
		Level:  cfg.Application.LogLevel,
		Format: cfg.Application.LogFormat,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	logging.SetDebugLogger(logger)

	app := cli.NewApp(cfg, newEngineOpener(logger), logger, os.Stdout)
	root := cli.NewRootCommand(app)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
