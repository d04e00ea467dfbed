package common

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Environment string         `toml:"environment"` // "development" or "production"
	Build       BuildConfig    `toml:"build"`
	Prereq      PrereqConfig   `toml:"prereq"`
	Schedule    ScheduleConfig `toml:"schedule"`
	Storage     StorageConfig  `toml:"storage"`
	Logging     LoggingConfig  `toml:"logging"`
}

// BuildConfig contains the pipeline's paths and execution settings
type BuildConfig struct {
	Prefix      string `toml:"prefix" validate:"required"`    // install prefix shared by all stages
	BuildDir    string `toml:"build_dir" validate:"required"` // scratch directory for source checkouts
	Jobs        int    `toml:"jobs" validate:"min=1"`         // parallel compile workers
	Confirm     bool   `toml:"confirm"`                       // prompt before any mutating action
	Manifest    string `toml:"manifest"`                      // optional toolchain manifest (.toml or .yaml) overriding pinned revisions
	StepTimeout string `toml:"step_timeout"`                  // per-step timeout, e.g. "1h" (empty disables)
}

// PrereqConfig lists the host tools and packages checked before any
// mutation begins
type PrereqConfig struct {
	Commands []string `toml:"commands"` // probed via PATH resolution
	Packages []string `toml:"packages"` // probed via the host pkg-config database
}

// ScheduleConfig enables the cron-driven rebuild watch mode
type ScheduleConfig struct {
	Enabled bool   `toml:"enabled"`
	Cron    string `toml:"cron"` // standard 5-field cron expression
}

// StorageConfig selects and configures the build history store
type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

// LoggingConfig controls the arbor logger
type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs
}

// NewDefaultConfig creates a configuration with default values.
// Only user-facing settings are exposed in quarry.toml; the dependency
// specs themselves default to the pinned toolchain in models.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Build: BuildConfig{
			Prefix:      "./toolchain",
			BuildDir:    "./build",
			Jobs:        runtime.NumCPU(),
			Confirm:     true, // interactive by default; -yes or schedule mode disables
			StepTimeout: "1h",
		},
		Prereq: PrereqConfig{
			Commands: []string{"git", "make", "gcc", "perl", "pkg-config", "autoconf", "automake", "libtool"},
			Packages: []string{"zlib"},
		},
		Schedule: ScheduleConfig{
			Enabled: false,
			Cron:    "0 3 * * *", // nightly refresh when enabled
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05",
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env. Later files override earlier
// files; CLI overrides are applied by the caller on top.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// Validate validates the configuration using go-playground/validator
// plus the checks struct tags cannot express
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging level: %s (must be one of: debug, info, warn, error)", c.Logging.Level)
	}

	if c.Schedule.Enabled {
		parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
		if _, err := parser.Parse(c.Schedule.Cron); err != nil {
			return fmt.Errorf("invalid cron schedule '%s': %w", c.Schedule.Cron, err)
		}
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	// Environment configuration (highest priority: QUARRY_ENV, fallback: GO_ENV)
	if env := os.Getenv("QUARRY_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Build configuration
	if prefix := os.Getenv("QUARRY_PREFIX"); prefix != "" {
		config.Build.Prefix = prefix
	}
	if buildDir := os.Getenv("QUARRY_BUILD_DIR"); buildDir != "" {
		config.Build.BuildDir = buildDir
	}
	if jobs := os.Getenv("QUARRY_JOBS"); jobs != "" {
		if j, err := strconv.Atoi(jobs); err == nil {
			config.Build.Jobs = j
		}
	}
	if manifest := os.Getenv("QUARRY_MANIFEST"); manifest != "" {
		config.Build.Manifest = manifest
	}
	if timeout := os.Getenv("QUARRY_STEP_TIMEOUT"); timeout != "" {
		config.Build.StepTimeout = timeout
	}

	// Schedule configuration
	if cronExpr := os.Getenv("QUARRY_SCHEDULE_CRON"); cronExpr != "" {
		config.Schedule.Cron = cronExpr
	}

	// Storage configuration
	if badgerPath := os.Getenv("QUARRY_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Logging configuration
	if level := os.Getenv("QUARRY_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("QUARRY_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}
}
