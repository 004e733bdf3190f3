package main

import (
	"context"
	"fmt"

	"habit-tracker/internal/api"
	"habit-tracker/internal/cli"
	"habit-tracker/internal/clock"
	"habit-tracker/internal/config"
	"habit-tracker/internal/logging"
	"habit-tracker/internal/services"

	"go.uber.org/zap"
)

// newEngineOpener returns the opener the CLI uses to build an engine once
// flags have been applied to the configuration
func newEngineOpener(base *zap.Logger) cli.EngineOpener {
	return func(ctx context.Context, cfg *config.Config, notifier services.Notifier) (*api.Engine, error) {
		logger := base
		if l, err := logging.New(logging.Options{Level: cfg.Application.LogLevel, Format: cfg.Application.LogFormat}); err == nil {
			logger = l
			logging.SetDebugLogger(l)
		}

		loc, fellBack := clock.LoadLocation(cfg.Engine.Timezone)
		if fellBack {
			logger.Warn("unknown timezone, using UTC", zap.String("timezone", cfg.Engine.Timezone))
		}

		repo, err := config.CreateRepository(ctx, cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize %s storage: %w", cfg.Database.Backend, err)
		}

		engine, err := api.New(ctx, api.Options{
			Config:   cfg,
			Repo:     repo,
			Clock:    clock.NewSystem(loc.String()),
			Logger:   logger,
			Notifier: notifier,
		})
		if err != nil {
			_ = repo.Close()
			return nil, err
		}
		return engine, nil
	}
}
