package config

import (
	"os"
	"path/filepath"
	"time"
)

// Storage backends understood by CreateRepository
const (
	BackendSQLite   = "sqlite"
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config holds all configuration options for the habit tracker
type Config struct {
	Database    DatabaseConfig    `yaml:"database"`
	Redis       RedisConfig       `yaml:"redis"`
	Postgres    PostgresConfig    `yaml:"postgres"`
	Engine      EngineConfig      `yaml:"engine"`
	Validation  ValidationConfig  `yaml:"validation"`
	Display     DisplayConfig     `yaml:"display"`
	Application ApplicationConfig `yaml:"application"`
}

// DatabaseConfig selects and configures the storage backend
type DatabaseConfig struct {
	Backend        string        `yaml:"backend" env:"HT_DB_BACKEND"`
	Dir            string        `yaml:"dir" env:"HT_DB_DIR"`
	Filename       string        `yaml:"filename" env:"HT_DB_FILENAME"`
	QueryTimeout   time.Duration `yaml:"query_timeout" env:"HT_DB_QUERY_TIMEOUT"`
	WriteTimeout   time.Duration `yaml:"write_timeout" env:"HT_DB_WRITE_TIMEOUT"`
	DirPermissions uint32        `yaml:"dir_permissions" env:"HT_DB_DIR_PERMISSIONS"`
}

// RedisConfig holds connection settings for the redis backend
type RedisConfig struct {
	Addr      string `yaml:"addr" env:"HT_REDIS_ADDR"`
	Password  string `yaml:"password" env:"HT_REDIS_PASSWORD"`
	DB        int    `yaml:"db" env:"HT_REDIS_DB"`
	KeyPrefix string `yaml:"key_prefix" env:"HT_REDIS_KEY_PREFIX"`
}

// PostgresConfig holds connection settings for the postgres backend
type PostgresConfig struct {
	DSN      string `yaml:"dsn" env:"HT_POSTGRES_DSN"`
	MaxConns int32  `yaml:"max_conns" env:"HT_POSTGRES_MAX_CONNS"`
}

// EngineConfig tunes the habit progress engine
type EngineConfig struct {
	Timezone              string        `yaml:"timezone" env:"HT_TIMEZONE"`
	StreakHorizonDays     int           `yaml:"streak_horizon_days" env:"HT_STREAK_HORIZON_DAYS"`
	AutoComplete          bool          `yaml:"auto_complete" env:"HT_AUTO_COMPLETE"`
	NudgeWindow           time.Duration `yaml:"nudge_window" env:"HT_NUDGE_WINDOW"`
	TickInterval          time.Duration `yaml:"tick_interval" env:"HT_TICK_INTERVAL"`
	ReminderLookaheadDays int           `yaml:"reminder_lookahead_days" env:"HT_REMINDER_LOOKAHEAD_DAYS"`
	ApplyDefaultTiers     bool          `yaml:"apply_default_tiers" env:"HT_APPLY_DEFAULT_TIERS"`
}

// ValidationConfig holds validation rules configuration
type ValidationConfig struct {
	HabitNameMinLength int `yaml:"habit_name_min_length" env:"HT_VALIDATION_HABIT_NAME_MIN"`
	HabitNameMaxLength int `yaml:"habit_name_max_length" env:"HT_VALIDATION_HABIT_NAME_MAX"`
	MaxMinutes         int `yaml:"max_minutes" env:"HT_VALIDATION_MAX_MINUTES"`
	MaxTiers           int `yaml:"max_tiers" env:"HT_VALIDATION_MAX_TIERS"`
	MaxReminders       int `yaml:"max_reminders" env:"HT_VALIDATION_MAX_REMINDERS"`
}

// DisplayConfig holds display formatting configuration
type DisplayConfig struct {
	DateFormat string `yaml:"date_format" env:"HT_DISPLAY_DATE_FORMAT"`
	TimeFormat string `yaml:"time_format" env:"HT_DISPLAY_TIME_FORMAT"`
}

// ApplicationConfig holds application-level configuration
type ApplicationConfig struct {
	Timeout     time.Duration `yaml:"timeout" env:"HT_APP_TIMEOUT"`
	Verbose     bool          `yaml:"verbose" env:"HT_APP_VERBOSE"`
	LogLevel    string        `yaml:"log_level" env:"HT_LOG_LEVEL"`
	LogFormat   string        `yaml:"log_format" env:"HT_LOG_FORMAT"`
	MetricsAddr string        `yaml:"metrics_addr" env:"HT_METRICS_ADDR"`
}

// NewConfig creates a new configuration with sensible defaults
func NewConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultDBDir := filepath.Join(homeDir, ".ht")

	return &Config{
		Database: DatabaseConfig{
			Backend:        BackendSQLite,
			Dir:            defaultDBDir,
			Filename:       "ht.db",
			QueryTimeout:   10 * time.Second,
			WriteTimeout:   5 * time.Second,
			DirPermissions: 0755,
		},
		Redis: RedisConfig{
			Addr:      "localhost:6379",
			KeyPrefix: "ht",
		},
		Postgres: PostgresConfig{
			MaxConns: 4,
		},
		Engine: EngineConfig{
			StreakHorizonDays:     365,
			AutoComplete:          true,
			NudgeWindow:           120 * time.Minute,
			TickInterval:          time.Second,
			ReminderLookaheadDays: 14,
			ApplyDefaultTiers:     true,
		},
		Validation: ValidationConfig{
			HabitNameMinLength: 1,
			HabitNameMaxLength: 100,
			MaxMinutes:         24 * 60,
			MaxTiers:           10,
			MaxReminders:       10,
		},
		Display: DisplayConfig{
			DateFormat: "Mon 2006-01-02",
			TimeFormat: "15:04",
		},
		Application: ApplicationConfig{
			Timeout:   60 * time.Second,
			LogLevel:  "warn",
			LogFormat: "console",
		},
	}
}

// GetDatabasePath returns the full path to the sqlite database file
func (c *Config) GetDatabasePath() string {
	return filepath.Join(c.Database.Dir, c.Database.Filename)
}

// LoadFromEnvironment loads configuration from HT_* environment variables
func (c *Config) LoadFromEnvironment() error {
	// Database configuration
	if backend := os.Getenv("HT_DB_BACKEND"); backend != "" {
		c.Database.Backend = backend
	}
	if dir := os.Getenv("HT_DB_DIR"); dir != "" {
		c.Database.Dir = dir
	}
	if filename := os.Getenv("HT_DB_FILENAME"); filename != "" {
		c.Database.Filename = filename
	}
	if timeout := os.Getenv("HT_DB_QUERY_TIMEOUT"); timeout != "" {
		c.Database.QueryTimeout = ParseDurationWithFallback(timeout, c.Database.QueryTimeout)
	}
	if timeout := os.Getenv("HT_DB_WRITE_TIMEOUT"); timeout != "" {
		c.Database.WriteTimeout = ParseDurationWithFallback(timeout, c.Database.WriteTimeout)
	}
	if perms := os.Getenv("HT_DB_DIR_PERMISSIONS"); perms != "" {
		c.Database.DirPermissions = ParseUint32WithFallback(perms, 8, c.Database.DirPermissions)
	}

	// Redis configuration
	if addr := os.Getenv("HT_REDIS_ADDR"); addr != "" {
		c.Redis.Addr = addr
	}
	if password := os.Getenv("HT_REDIS_PASSWORD"); password != "" {
		c.Redis.Password = password
	}
	if db := os.Getenv("HT_REDIS_DB"); db != "" {
		c.Redis.DB = ParseIntWithFallback(db, c.Redis.DB)
	}
	if prefix := os.Getenv("HT_REDIS_KEY_PREFIX"); prefix != "" {
		c.Redis.KeyPrefix = prefix
	}

	// Postgres configuration
	if dsn := os.Getenv("HT_POSTGRES_DSN"); dsn != "" {
		c.Postgres.DSN = dsn
	}
	if maxConns := os.Getenv("HT_POSTGRES_MAX_CONNS"); maxConns != "" {
		c.Postgres.MaxConns = int32(ParseIntWithFallback(maxConns, int(c.Postgres.MaxConns)))
	}

	// Engine configuration
	if tz := os.Getenv("HT_TIMEZONE"); tz != "" {
		c.Engine.Timezone = tz
	}
	if horizon := os.Getenv("HT_STREAK_HORIZON_DAYS"); horizon != "" {
		c.Engine.StreakHorizonDays = ParseIntWithFallback(horizon, c.Engine.StreakHorizonDays)
	}
	if auto := os.Getenv("HT_AUTO_COMPLETE"); auto != "" {
		c.Engine.AutoComplete = ParseBoolWithFallback(auto, c.Engine.AutoComplete)
	}
	if window := os.Getenv("HT_NUDGE_WINDOW"); window != "" {
		c.Engine.NudgeWindow = ParseDurationWithFallback(window, c.Engine.NudgeWindow)
	}
	if tick := os.Getenv("HT_TICK_INTERVAL"); tick != "" {
		c.Engine.TickInterval = ParseDurationWithFallback(tick, c.Engine.TickInterval)
	}
	if lookahead := os.Getenv("HT_REMINDER_LOOKAHEAD_DAYS"); lookahead != "" {
		c.Engine.ReminderLookaheadDays = ParseIntWithFallback(lookahead, c.Engine.ReminderLookaheadDays)
	}
	if tiers := os.Getenv("HT_APPLY_DEFAULT_TIERS"); tiers != "" {
		c.Engine.ApplyDefaultTiers = ParseBoolWithFallback(tiers, c.Engine.ApplyDefaultTiers)
	}

	// Validation configuration
	if minLen := os.Getenv("HT_VALIDATION_HABIT_NAME_MIN"); minLen != "" {
		c.Validation.HabitNameMinLength = ParseIntWithFallback(minLen, c.Validation.HabitNameMinLength)
	}
	if maxLen := os.Getenv("HT_VALIDATION_HABIT_NAME_MAX"); maxLen != "" {
		c.Validation.HabitNameMaxLength = ParseIntWithFallback(maxLen, c.Validation.HabitNameMaxLength)
	}
	if maxMinutes := os.Getenv("HT_VALIDATION_MAX_MINUTES"); maxMinutes != "" {
		c.Validation.MaxMinutes = ParseIntWithFallback(maxMinutes, c.Validation.MaxMinutes)
	}
	if maxTiers := os.Getenv("HT_VALIDATION_MAX_TIERS"); maxTiers != "" {
		c.Validation.MaxTiers = ParseIntWithFallback(maxTiers, c.Validation.MaxTiers)
	}
	if maxReminders := os.Getenv("HT_VALIDATION_MAX_REMINDERS"); maxReminders != "" {
		c.Validation.MaxReminders = ParseIntWithFallback(maxReminders, c.Validation.MaxReminders)
	}

	// Display configuration
	if format := os.Getenv("HT_DISPLAY_DATE_FORMAT"); format != "" {
		c.Display.DateFormat = format
	}
	if format := os.Getenv("HT_DISPLAY_TIME_FORMAT"); format != "" {
		c.Display.TimeFormat = format
	}

	// Application configuration
	if timeout := os.Getenv("HT_APP_TIMEOUT"); timeout != "" {
		c.Application.Timeout = ParseDurationWithFallback(timeout, c.Application.Timeout)
	}
	if verbose := os.Getenv("HT_APP_VERBOSE"); verbose != "" {
		c.Application.Verbose = ParseBoolWithFallback(verbose, c.Application.Verbose)
	}
	if level := os.Getenv("HT_LOG_LEVEL"); level != "" {
		c.Application.LogLevel = level
	}
	if format := os.Getenv("HT_LOG_FORMAT"); format != "" {
		c.Application.LogFormat = format
	}
	if addr := os.Getenv("HT_METRICS_ADDR"); addr != "" {
		c.Application.MetricsAddr = addr
	}

	return nil
}

// Validate validates the configuration and returns the first problem found
func (c *Config) Validate() error {
	switch c.Database.Backend {
	case BackendSQLite:
		if c.Database.Dir == "" {
			return &ConfigError{Field: "database.dir", Message: "database directory cannot be empty"}
		}
		if c.Database.Filename == "" {
			return &ConfigError{Field: "database.filename", Message: "database filename cannot be empty"}
		}
	case BackendMemory:
	case BackendRedis:
		if c.Redis.Addr == "" {
			return &ConfigError{Field: "redis.addr", Message: "redis address cannot be empty"}
		}
	case BackendPostgres:
		if c.Postgres.DSN == "" {
			return &ConfigError{Field: "postgres.dsn", Message: "postgres DSN cannot be empty"}
		}
	default:
		return &ConfigError{Field: "database.backend", Message: "backend must be one of sqlite, memory, redis, postgres"}
	}
	if c.Database.QueryTimeout <= 0 {
		return &ConfigError{Field: "database.query_timeout", Message: "query timeout must be positive"}
	}
	if c.Database.WriteTimeout <= 0 {
		return &ConfigError{Field: "database.write_timeout", Message: "write timeout must be positive"}
	}

	// Engine
	if c.Engine.StreakHorizonDays < 1 {
		return &ConfigError{Field: "engine.streak_horizon_days", Message: "streak horizon must be at least 1 day"}
	}
	if c.Engine.NudgeWindow <= 0 {
		return &ConfigError{Field: "engine.nudge_window", Message: "nudge window must be positive"}
	}
	if c.Engine.TickInterval <= 0 {
		return &ConfigError{Field: "engine.tick_interval", Message: "tick interval must be positive"}
	}
	if c.Engine.ReminderLookaheadDays < 1 {
		return &ConfigError{Field: "engine.reminder_lookahead_days", Message: "reminder lookahead must be at least 1 day"}
	}

	// Validation rules
	if c.Validation.HabitNameMinLength < 1 {
		return &ConfigError{Field: "validation.habit_name_min_length", Message: "habit name minimum length must be at least 1"}
	}
	if c.Validation.HabitNameMaxLength < c.Validation.HabitNameMinLength {
		return &ConfigError{Field: "validation.habit_name_max_length", Message: "habit name maximum length must be greater than minimum length"}
	}
	if c.Validation.MaxMinutes <= 0 {
		return &ConfigError{Field: "validation.max_minutes", Message: "max minutes must be positive"}
	}
	if c.Validation.MaxTiers < 1 {
		return &ConfigError{Field: "validation.max_tiers", Message: "max tiers must be at least 1"}
	}
	if c.Validation.MaxReminders < 0 {
		return &ConfigError{Field: "validation.max_reminders", Message: "max reminders cannot be negative"}
	}

	// Display
	if c.Display.DateFormat == "" {
		return &ConfigError{Field: "display.date_format", Message: "date format cannot be empty"}
	}
	if c.Display.TimeFormat == "" {
		return &ConfigError{Field: "display.time_format", Message: "time format cannot be empty"}
	}

	if c.Application.Timeout <= 0 {
		return &ConfigError{Field: "application.timeout", Message: "application timeout must be positive"}
	}

	return nil
}

// ConfigError represents a configuration validation error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
