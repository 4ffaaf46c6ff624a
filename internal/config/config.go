// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shirou/gopsutil/v3/cpu"

	"github.com/lossrange/lossrange/internal/simulation"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for the results database (always absolute)
	TreesDir string // Directory of tree-definition JSON files (always absolute)

	LogLevel  string
	LogPretty bool

	// Simulation defaults, overridable per run.
	Trials                   int
	MaxConcurrentSimulations int
	TrialParallelism         int
	Seeds                    simulation.Seeds

	// Results cache.
	CacheTTL time.Duration

	// Background jobs.
	SchedulerEnabled bool
	RefreshSchedule  string // cron spec for re-resolving registered trees
	SweepSchedule    string // cron spec for purging expired cache rows
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir, err := ensureDir(getEnv("LOSSRANGE_DATA_DIR", "./data"))
	if err != nil {
		return nil, fmt.Errorf("data directory: %w", err)
	}
	treesDir, err := ensureDir(getEnv("LOSSRANGE_TREES_DIR", filepath.Join(dataDir, "trees")))
	if err != nil {
		return nil, fmt.Errorf("trees directory: %w", err)
	}

	cores := physicalCores()
	cfg := &Config{
		DataDir:                  dataDir,
		TreesDir:                 treesDir,
		LogLevel:                 getEnv("LOSSRANGE_LOG_LEVEL", "info"),
		LogPretty:                getEnvAsBool("LOSSRANGE_LOG_PRETTY", false),
		Trials:                   getEnvAsInt("LOSSRANGE_TRIALS", 100_000),
		MaxConcurrentSimulations: getEnvAsInt("LOSSRANGE_MAX_CONCURRENT_SIMULATIONS", cores),
		TrialParallelism:         getEnvAsInt("LOSSRANGE_TRIAL_PARALLELISM", cores),
		Seeds: simulation.Seeds{
			Entity: getEnvAsUint64("LOSSRANGE_SEED_ENTITY", 0),
			Seed3:  getEnvAsUint64("LOSSRANGE_SEED3", 0),
			Seed4:  getEnvAsUint64("LOSSRANGE_SEED4", 0),
		},
		CacheTTL:         getEnvAsDuration("LOSSRANGE_CACHE_TTL", 24*time.Hour),
		SchedulerEnabled: getEnvAsBool("LOSSRANGE_SCHEDULER_ENABLED", true),
		RefreshSchedule:  getEnv("LOSSRANGE_REFRESH_SCHEDULE", "@hourly"),
		SweepSchedule:    getEnv("LOSSRANGE_SWEEP_SCHEDULE", "@daily"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.Trials < 1 {
		return fmt.Errorf("trials must be positive, got %d", c.Trials)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("cache TTL must be positive, got %s", c.CacheTTL)
	}
	return nil
}

// SimulationConfig builds the engine configuration from the loaded defaults.
func (c *Config) SimulationConfig() simulation.Config {
	return simulation.Config{
		Trials:                   c.Trials,
		MaxConcurrentSimulations: c.MaxConcurrentSimulations,
		TrialParallelism:         c.TrialParallelism,
		Seeds:                    c.Seeds,
	}
}

// ResultsDBPath returns the path of the SQLite results database.
func (c *Config) ResultsDBPath() string {
	return filepath.Join(c.DataDir, "results.db")
}

// physicalCores sizes the default parallelism from the physical core count;
// hyperthread siblings do not help a numerics-bound workload.
func physicalCores() int {
	count, err := cpu.Counts(false)
	if err != nil || count < 1 {
		return runtime.NumCPU()
	}
	return count
}

func ensureDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	return abs, nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsUint64(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if uintVal, err := strconv.ParseUint(value, 10, 64); err == nil {
			return uintVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if dur, err := time.ParseDuration(value); err == nil {
			return dur
		}
	}
	return defaultValue
}
