// Package config holds the knobs of a training run, read from YAML and
// overridden from the command line.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config captures the runtime knobs for a training run.
type Config struct {
	LayerSizes  []int   `yaml:"layer_sizes"`
	BatchSize   int     `yaml:"batch_size"`
	Epochs      int     `yaml:"epochs"`
	Eta         float64 `yaml:"eta"`
	Seed        int64   `yaml:"seed"`
	Workers     int     `yaml:"workers"` // 0 sizes the pool from the CPU
	DataDir     string  `yaml:"data_dir"`
	Limit       int     `yaml:"limit"` // max training samples, 0 = all
	KeepPartial bool    `yaml:"keep_partial"`
	Checkpoint  string  `yaml:"checkpoint"`
	LogLevel    string  `yaml:"log_level"`
}

// Overrides captures CLI supplied values. Zero values leave the config
// untouched.
type Overrides struct {
	LayerSizes  []int
	BatchSize   int
	Epochs      int
	Eta         float64
	Seed        int64
	Workers     int
	DataDir     string
	Limit       int
	KeepPartial bool
	Checkpoint  string
	LogLevel    string
}

// Default returns the configuration of the reference MNIST run.
func Default() *Config {
	return &Config{
		LayerSizes: []int{784, 30, 10},
		BatchSize:  16,
		Epochs:     10,
		Eta:        0.15,
		DataDir:    "./data",
		LogLevel:   "info",
	}
}

// Load reads a YAML file on top of Default and validates the result.
func Load(path string) (*Config, error) {
	//nolint:gosec // G304: config path is user-provided by design
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyOverrides updates c using any non-zero override.
func (c *Config) ApplyOverrides(o Overrides) {
	if len(o.LayerSizes) > 0 {
		c.LayerSizes = append([]int(nil), o.LayerSizes...)
	}
	if o.BatchSize > 0 {
		c.BatchSize = o.BatchSize
	}
	if o.Epochs > 0 {
		c.Epochs = o.Epochs
	}
	if o.Eta != 0 {
		c.Eta = o.Eta
	}
	if o.Seed != 0 {
		c.Seed = o.Seed
	}
	if o.Workers > 0 {
		c.Workers = o.Workers
	}
	if o.DataDir != "" {
		c.DataDir = o.DataDir
	}
	if o.Limit > 0 {
		c.Limit = o.Limit
	}
	if o.KeepPartial {
		c.KeepPartial = true
	}
	if o.Checkpoint != "" {
		c.Checkpoint = o.Checkpoint
	}
	if o.LogLevel != "" {
		c.LogLevel = o.LogLevel
	}
}

// Validate verifies the config is runnable.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if len(c.LayerSizes) < 2 {
		return fmt.Errorf("layer_sizes needs at least 2 entries (got %v)", c.LayerSizes)
	}
	for i, s := range c.LayerSizes {
		if s <= 0 {
			return fmt.Errorf("layer_sizes[%d] must be > 0 (got %d)", i, s)
		}
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be > 0 (got %d)", c.BatchSize)
	}
	if c.Epochs <= 0 {
		return fmt.Errorf("epochs must be > 0 (got %d)", c.Epochs)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0 (got %d)", c.Workers)
	}
	if c.Limit < 0 {
		return fmt.Errorf("limit must be >= 0 (got %d)", c.Limit)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps a log_level value to a slog level. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("log_level must be debug, info, warn or error (got %q)", s)
	}
}
