package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Loader handles loading configuration from multiple sources
type Loader struct {
	config     *Config
	configPath string
	envFile    string
}

// NewLoader creates a new configuration loader.
// The YAML file comes from HT_CONFIG, falling back to ~/.ht/config.yaml when present.
func NewLoader() *Loader {
	envFile := os.Getenv("HT_ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	return &Loader{
		config:     NewConfig(),
		configPath: os.Getenv("HT_CONFIG"),
		envFile:    envFile,
	}
}

// WithConfigFile points the loader at an explicit YAML file
func (l *Loader) WithConfigFile(path string) *Loader {
	l.configPath = path
	return l
}

// Load loads configuration using the cascading strategy:
// 1. Start with defaults
// 2. Override with the YAML config file
// 3. Load .env into the process environment (existing variables win)
// 4. Override with HT_* environment variables
// 5. Override with command line flags (LoadWithOverrides)
func (l *Loader) Load() (*Config, error) {
	if err := l.loadFile(); err != nil {
		return nil, err
	}

	if err := l.loadEnvFile(); err != nil {
		return nil, err
	}

	if err := l.config.LoadFromEnvironment(); err != nil {
		return nil, err
	}

	if err := l.config.Validate(); err != nil {
		return nil, err
	}

	return l.config, nil
}

// LoadWithOverrides loads configuration and applies command line overrides
func (l *Loader) LoadWithOverrides(overrides *ConfigOverrides) (*Config, error) {
	config, err := l.Load()
	if err != nil {
		return nil, err
	}

	if overrides != nil {
		overrides.Apply(config)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (l *Loader) loadFile() error {
	path := l.configPath
	explicit := path != ""
	if !explicit {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		path = filepath.Join(homeDir, ".ht", "config.yaml")
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return nil
		}
		return fmt.Errorf("failed to open config file %s: %w", path, err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(l.config); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (l *Loader) loadEnvFile() error {
	if _, err := os.Stat(l.envFile); err != nil {
		return nil
	}
	if err := godotenv.Load(l.envFile); err != nil {
		return fmt.Errorf("failed to load %s: %w", l.envFile, err)
	}
	return nil
}

// ConfigOverrides holds command line flag overrides
type ConfigOverrides struct {
	// Database overrides
	DBBackend  *string
	DBDir      *string
	DBFilename *string

	// Engine overrides
	Timezone     *string
	AutoComplete *bool
	NudgeWindow  *time.Duration
	TickInterval *time.Duration

	// Application overrides
	Timeout     *time.Duration
	Verbose     *bool
	LogLevel    *string
	MetricsAddr *string
}

// Apply copies every set override onto config
func (o *ConfigOverrides) Apply(config *Config) {
	if o.DBBackend != nil {
		config.Database.Backend = *o.DBBackend
	}
	if o.DBDir != nil {
		config.Database.Dir = *o.DBDir
	}
	if o.DBFilename != nil {
		config.Database.Filename = *o.DBFilename
	}

	if o.Timezone != nil {
		config.Engine.Timezone = *o.Timezone
	}
	if o.AutoComplete != nil {
		config.Engine.AutoComplete = *o.AutoComplete
	}
	if o.NudgeWindow != nil {
		config.Engine.NudgeWindow = *o.NudgeWindow
	}
	if o.TickInterval != nil {
		config.Engine.TickInterval = *o.TickInterval
	}

	if o.Timeout != nil {
		config.Application.Timeout = *o.Timeout
	}
	if o.Verbose != nil {
		config.Application.Verbose = *o.Verbose
	}
	if o.LogLevel != nil {
		config.Application.LogLevel = *o.LogLevel
	}
	if o.MetricsAddr != nil {
		config.Application.MetricsAddr = *o.MetricsAddr
	}
}

// ParseDurationWithFallback parses a duration string with a fallback value
func ParseDurationWithFallback(s string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return fallback
}

// ParseIntWithFallback parses an integer string with a fallback value
func ParseIntWithFallback(s string, fallback int) int {
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	return fallback
}

// ParseBoolWithFallback parses a boolean string with a fallback value
func ParseBoolWithFallback(s string, fallback bool) bool {
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return fallback
}

// ParseUint32WithFallback parses a uint32 string with a fallback value
func ParseUint32WithFallback(s string, base int, fallback uint32) uint32 {
	if u, err := strconv.ParseUint(s, base, 32); err == nil {
		return uint32(u)
	}
	return fallback
}
