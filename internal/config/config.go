// Package config loads the threadkit CLI configuration from JSON.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds the tunables of the demo workloads. It is loaded once at
// startup; command-line flags override individual fields afterwards.
type Config struct {
	// PoolSize is the number of workers in every pool. Must be >= 1.
	PoolSize int `json:"pool_size"`

	// GridSize is the side length of the Mandelbrot grid; one task is
	// submitted per cell.
	GridSize int `json:"grid_size"`

	// MaxIterations caps the escape-time iteration per cell.
	MaxIterations int `json:"max_iterations"`

	// Bailout is the squared magnitude at which a point is considered escaped.
	Bailout float64 `json:"bailout"`

	// TaskCount is the number of message-producing tasks per run.
	TaskCount int `json:"task_count"`

	// Runs is the number of independent pools the messages command runs
	// concurrently.
	Runs int `json:"runs"`

	// DrainTimeout bounds how long a consumer waits for messages.
	// Uses time.Duration JSON encoding (nanoseconds).
	DrainTimeout time.Duration `json:"drain_timeout"`

	// MetricsAddr, when set, serves Prometheus metrics on this address
	// (e.g. ":9090").
	MetricsAddr string `json:"metrics_addr"`

	// MetricsHold keeps the metrics endpoint up for this long after the
	// workload completes so a scraper can collect the final values.
	MetricsHold time.Duration `json:"metrics_hold"`

	// LogLevel is one of "debug", "info", "warn" or "error".
	LogLevel string `json:"log_level"`
}

// LoadConfig reads a JSON file at filename on top of DefaultConfig, so
// fields missing from the file keep their defaults. Unknown fields are
// rejected.
func LoadConfig(filename string) (*Config, error) {
	f, err := os.Open(filename) // #nosec G304 – filename is caller-provided config path
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", filename, err)
	}
	defer f.Close()

	cfg := DefaultConfig()
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode %q: %w", filename, err)
	}
	return cfg, nil
}

// DefaultConfig returns a fresh *Config with the values of the canonical
// workloads: a 78×78 grid, 3000 iterations, bailout 16 and 10 message tasks.
func DefaultConfig() *Config {
	return &Config{
		PoolSize:      4,
		GridSize:      78,
		MaxIterations: 3000,
		Bailout:       16,
		TaskCount:     10,
		Runs:          1,
		DrainTimeout:  30 * time.Second,
		LogLevel:      "info",
	}
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error
	if c.PoolSize < 1 {
		errs = append(errs, fmt.Errorf("pool_size must be >= 1, got %d", c.PoolSize))
	}
	if c.GridSize < 1 {
		errs = append(errs, fmt.Errorf("grid_size must be >= 1, got %d", c.GridSize))
	}
	if c.MaxIterations < 1 {
		errs = append(errs, fmt.Errorf("max_iterations must be >= 1, got %d", c.MaxIterations))
	}
	if c.Bailout <= 0 {
		errs = append(errs, fmt.Errorf("bailout must be > 0, got %v", c.Bailout))
	}
	if c.TaskCount < 0 {
		errs = append(errs, fmt.Errorf("task_count must be >= 0, got %d", c.TaskCount))
	}
	if c.Runs < 1 {
		errs = append(errs, fmt.Errorf("runs must be >= 1, got %d", c.Runs))
	}
	if c.DrainTimeout <= 0 {
		errs = append(errs, fmt.Errorf("drain_timeout must be > 0, got %v", c.DrainTimeout))
	}
	if c.MetricsHold < 0 {
		errs = append(errs, fmt.Errorf("metrics_hold must be >= 0, got %v", c.MetricsHold))
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level %q is not one of debug, info, warn, error", c.LogLevel))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
