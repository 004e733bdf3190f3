package config

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"habit-tracker/internal/repository"
	"habit-tracker/internal/repository/memory"
	"habit-tracker/internal/repository/postgres"
	"habit-tracker/internal/repository/redis"
	"habit-tracker/internal/repository/sqlite"
)

// CreateRepository opens the storage backend selected by the configuration
func CreateRepository(ctx context.Context, config *Config, logger *zap.Logger) (repository.Repository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db := config.Database

	switch db.Backend {
	case BackendSQLite, "":
		repo, err := sqlite.NewWithOptions(config.GetDatabasePath(), sqlite.Options{
			QueryTimeout:   db.QueryTimeout,
			WriteTimeout:   db.WriteTimeout,
			DirPermissions: os.FileMode(db.DirPermissions),
			Logger:         logger,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		return repo, nil

	case BackendMemory:
		return memory.New(), nil

	case BackendRedis:
		repo, err := redis.New(ctx, redis.Options{
			Addr:         config.Redis.Addr,
			Password:     config.Redis.Password,
			DB:           config.Redis.DB,
			KeyPrefix:    config.Redis.KeyPrefix,
			QueryTimeout: db.QueryTimeout,
			WriteTimeout: db.WriteTimeout,
			Logger:       logger,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return repo, nil

	case BackendPostgres:
		repo, err := postgres.New(ctx, postgres.Options{
			DSN:          config.Postgres.DSN,
			MaxConns:     config.Postgres.MaxConns,
			QueryTimeout: db.QueryTimeout,
			WriteTimeout: db.WriteTimeout,
			Logger:       logger,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		return repo, nil

	default:
		return nil, &ConfigError{Field: "database.backend", Message: fmt.Sprintf("unknown backend %q", db.Backend)}
	}
}

// CreateTestRepository creates an in-memory SQLite repository for testing
func CreateTestRepository() (repository.Repository, error) {
	repo, err := sqlite.New(sqlite.MemoryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize test database: %w", err)
	}
	return repo, nil
}
