package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// Runtime holds the process settings. Every key is read from PLANNER_<KEY>
// or, when PLANNER_CONFIG names a YAML file, from that file; the environment
// wins. A missing, malformed or out-of-range value falls back to its default.
type Runtime struct {
	HTTPAddr        string
	SolverTimeLimit time.Duration
	SolverGap       float64
	CacheMaxItems   int
	ObsBuffer       int
	BatchWorkers    int
	MaxCandidates   int
	DataFile        string
	DataDSN         string
	LogLevel        zerolog.Level
}

const envPrefix = "PLANNER"

func Load() (Runtime, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := os.Getenv(envPrefix + "_CONFIG"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Runtime{}, fmt.Errorf("read config file: %w", err)
		}
	}
	return FromViper(v), nil
}

func FromViper(v *viper.Viper) Runtime {
	return Runtime{
		HTTPAddr:        getString(v, "http_addr", ":8080"),
		SolverTimeLimit: getDuration(v, "solver_time_limit", 30*time.Second),
		SolverGap:       getFloat(v, "solver_gap", 0, 0, 1),
		CacheMaxItems:   getInt(v, "cache_max_items", 1024, 1),
		ObsBuffer:       getInt(v, "obs_buffer", 4096, 1),
		BatchWorkers:    getInt(v, "batch_workers", 4, 1),
		MaxCandidates:   getInt(v, "max_candidates", 0, 0),
		DataFile:        getString(v, "data_file", ""),
		DataDSN:         getString(v, "data_dsn", ""),
		LogLevel:        getLevel(v, "log_level", zerolog.InfoLevel),
	}
}

func getString(v *viper.Viper, key, fallback string) string {
	if s := strings.TrimSpace(v.GetString(key)); s != "" {
		return s
	}
	return fallback
}

func getInt(v *viper.Viper, key string, fallback, min int) int {
	raw := v.GetString(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < min {
		return fallback
	}
	return n
}

// getFloat accepts values in [min, max).
func getFloat(v *viper.Viper, key string, fallback, min, max float64) float64 {
	raw := v.GetString(key)
	if raw == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < min || f >= max {
		return fallback
	}
	return f
}

// getDuration accepts Go durations ("90s") or whole seconds.
func getDuration(v *viper.Viper, key string, fallback time.Duration) time.Duration {
	raw := v.GetString(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		secs, convErr := strconv.Atoi(raw)
		if convErr != nil {
			return fallback
		}
		d = time.Duration(secs) * time.Second
	}
	if d <= 0 {
		return fallback
	}
	return d
}

func getLevel(v *viper.Viper, key string, fallback zerolog.Level) zerolog.Level {
	raw := v.GetString(key)
	if raw == "" {
		return fallback
	}
	l, err := zerolog.ParseLevel(strings.ToLower(raw))
	if err != nil {
		return fallback
	}
	return l
}
