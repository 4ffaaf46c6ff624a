package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lossrange/lossrange/internal/simulation"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("LOSSRANGE_DATA_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.LogPretty)
	assert.Equal(t, 100_000, cfg.Trials)
	assert.GreaterOrEqual(t, cfg.MaxConcurrentSimulations, 1)
	assert.GreaterOrEqual(t, cfg.TrialParallelism, 1)
	assert.Equal(t, 24*time.Hour, cfg.CacheTTL)
	assert.True(t, cfg.SchedulerEnabled)
	assert.Equal(t, "@hourly", cfg.RefreshSchedule)
	assert.Equal(t, filepath.Join(cfg.DataDir, "trees"), cfg.TreesDir)
	assert.True(t, filepath.IsAbs(cfg.DataDir))
	assert.DirExists(t, cfg.TreesDir)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("LOSSRANGE_DATA_DIR", t.TempDir())
	t.Setenv("LOSSRANGE_TRIALS", "5000")
	t.Setenv("LOSSRANGE_TRIAL_PARALLELISM", "3")
	t.Setenv("LOSSRANGE_SEED_ENTITY", "42")
	t.Setenv("LOSSRANGE_CACHE_TTL", "90m")
	t.Setenv("LOSSRANGE_LOG_PRETTY", "true")
	t.Setenv("LOSSRANGE_SCHEDULER_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Trials)
	assert.Equal(t, 3, cfg.TrialParallelism)
	assert.Equal(t, uint64(42), cfg.Seeds.Entity)
	assert.Equal(t, 90*time.Minute, cfg.CacheTTL)
	assert.True(t, cfg.LogPretty)
	assert.False(t, cfg.SchedulerEnabled)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("LOSSRANGE_DATA_DIR", t.TempDir())
	t.Setenv("LOSSRANGE_TRIALS", "not-a-number")
	t.Setenv("LOSSRANGE_CACHE_TTL", "soon")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 100_000, cfg.Trials)
	assert.Equal(t, 24*time.Hour, cfg.CacheTTL)
}

func TestValidate_RejectsBadValues(t *testing.T) {
	cfg := &Config{Trials: 0, CacheTTL: time.Hour}
	require.Error(t, cfg.Validate())

	cfg = &Config{Trials: 100, CacheTTL: 0}
	require.Error(t, cfg.Validate())

	cfg = &Config{Trials: 100, CacheTTL: time.Hour}
	require.NoError(t, cfg.Validate())
}

func TestSimulationConfig_MapsFields(t *testing.T) {
	cfg := &Config{
		Trials:                   700,
		MaxConcurrentSimulations: 2,
		TrialParallelism:         5,
		Seeds:                    simulation.Seeds{Entity: 9, Seed3: 8, Seed4: 7},
	}

	sim := cfg.SimulationConfig()
	assert.Equal(t, 700, sim.Trials)
	assert.Equal(t, 2, sim.MaxConcurrentSimulations)
	assert.Equal(t, 5, sim.TrialParallelism)
	assert.Equal(t, uint64(9), sim.Seeds.Entity)
}

func TestResultsDBPath(t *testing.T) {
	cfg := &Config{DataDir: "/var/lib/lossrange"}
	assert.Equal(t, filepath.Join("/var/lib/lossrange", "results.db"), cfg.ResultsDBPath())
}
