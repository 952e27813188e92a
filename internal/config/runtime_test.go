package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PLANNER_CONFIG", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 30*time.Second, cfg.SolverTimeLimit)
	assert.Equal(t, 1024, cfg.CacheMaxItems)
	assert.Equal(t, 4096, cfg.ObsBuffer)
	assert.Equal(t, 4, cfg.BatchWorkers)
	assert.Equal(t, 0, cfg.MaxCandidates)
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "planner.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http_addr: ":9090"
solver_time_limit: 5s
solver_gap: 0.02
batch_workers: 8
data_file: /data/catalog.json
log_level: debug
`), 0o600))
	t.Setenv("PLANNER_CONFIG", path)
	t.Setenv("PLANNER_BATCH_WORKERS", "2")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, 5*time.Second, cfg.SolverTimeLimit)
	assert.InDelta(t, 0.02, cfg.SolverGap, 1e-12)
	assert.Equal(t, 2, cfg.BatchWorkers)
	assert.Equal(t, "/data/catalog.json", cfg.DataFile)
	assert.Equal(t, zerolog.DebugLevel, cfg.LogLevel)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("PLANNER_CONFIG", "")
	t.Setenv("PLANNER_CACHE_MAX_ITEMS", "0")
	t.Setenv("PLANNER_OBS_BUFFER", "lots")
	t.Setenv("PLANNER_SOLVER_GAP", "1.5")
	t.Setenv("PLANNER_SOLVER_TIME_LIMIT", "-3s")
	t.Setenv("PLANNER_LOG_LEVEL", "chatty")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 1024, cfg.CacheMaxItems)
	assert.Equal(t, 4096, cfg.ObsBuffer)
	assert.Zero(t, cfg.SolverGap)
	assert.Equal(t, 30*time.Second, cfg.SolverTimeLimit)
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel)
}

func TestLoad_DurationInSeconds(t *testing.T) {
	t.Setenv("PLANNER_CONFIG", "")
	t.Setenv("PLANNER_SOLVER_TIME_LIMIT", "45")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, cfg.SolverTimeLimit)
}

func TestLoad_MissingFileIsAnError(t *testing.T) {
	t.Setenv("PLANNER_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := Load()
	assert.ErrorContains(t, err, "read config file")
}
