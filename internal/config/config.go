// Package config loads server configuration from YAML, grounded on the
// teacher's DefaultStorageConfig/DefaultConcurrencyConfig pattern of
// CPU-scaled sensible defaults paired with a zero-config constructor.
package config

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds everything the server bootstrap needs beyond the core: the
// Durable Store's checkpoint location, transport listen addresses, worker
// pool sizing, log settings, and the housekeeping schedule.
type Config struct {
	// HTTPAddr is where the JSON HTTP adapter listens.
	HTTPAddr string `yaml:"http_addr"`
	// GRPCAddr is where the gRPC adapter listens.
	GRPCAddr string `yaml:"grpc_addr"`

	// CheckpointDir is the directory the Durable Store checkpoints to. An
	// empty value means pure in-memory operation.
	CheckpointDir string `yaml:"checkpoint_dir"`
	// CheckpointInterval controls how often the store is flushed to disk.
	CheckpointInterval time.Duration `yaml:"checkpoint_interval"`

	// WorkerPoolSize is the number of goroutines the Graph Facade
	// dispatches blocking work onto. Zero selects DefaultPoolSize.
	WorkerPoolSize int `yaml:"worker_pool_size"`

	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string `yaml:"log_level"`
	// LogJSON selects structured JSON log lines over console output.
	LogJSON bool `yaml:"log_json"`

	// HousekeepCron is a standard 5-field cron expression, or a descriptor
	// such as "@every 1m", controlling how often the stats job runs (see
	// internal/housekeep).
	HousekeepCron string `yaml:"housekeep_cron"`
}

// Default returns sensible, CPU-scaled zero-config defaults, mirroring the
// teacher's DefaultStorageConfig(mode) / DefaultConcurrencyConfig() shape.
func Default() Config {
	return Config{
		HTTPAddr:           ":8080",
		GRPCAddr:           ":9090",
		CheckpointDir:      "",
		CheckpointInterval: 30 * time.Second,
		WorkerPoolSize:     runtime.NumCPU(),
		LogLevel:           "info",
		LogJSON:            false,
		HousekeepCron:      "@every 1m",
	}
}

// Load reads a YAML config file, starting from Default() so any field the
// file omits keeps its zero-config value.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}
