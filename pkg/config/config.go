// Package config loads lattice's YAML configuration file: the
// bbolt database path, worker pool size, bucket name, and logging/metrics
// settings.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cuemby/lattice/pkg/errs"
	"github.com/cuemby/lattice/pkg/pool"
)

// Config is the top-level configuration for a lattice handle.
type Config struct {
	// Path is the bbolt database file path. Required.
	Path string `yaml:"path"`

	// Bucket is the bbolt bucket name rows are stored under. Defaults to
	// "kv" when empty.
	Bucket string `yaml:"bucket"`

	// PoolSize is the number of worker goroutines in the pool. Defaults to
	// 2*runtime.NumCPU(), floored at 4, when zero.
	PoolSize int `yaml:"pool_size"`

	// QueueCapacity bounds the worker pool's pending-call queue. Defaults
	// to 1024 when zero.
	QueueCapacity int `yaml:"queue_capacity"`

	LogLevel string `yaml:"log_level"`
	LogJSON  bool   `yaml:"log_json"`

	// MetricsAddr, if non-empty, is the bind address for the Prometheus
	// /metrics and health endpoints (e.g. ":9090").
	MetricsAddr string `yaml:"metrics_addr"`
}

// DefaultPoolSize mirrors pool.DefaultPoolSize: twice the number of CPUs,
// floored at 4.
func DefaultPoolSize() int {
	return pool.DefaultPoolSize()
}

// Defaults returns a copy of cfg with zero-valued fields filled in.
func Defaults(cfg Config) Config {
	if cfg.Bucket == "" {
		cfg.Bucket = "kv"
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = DefaultPoolSize()
	}
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = 1024
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	return cfg
}

// Validate checks the required fields are present.
func (c Config) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("%w: config.path is required", errs.ErrInvalidInput)
	}
	return nil
}

// Load reads and parses a YAML config file, applying defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: reading config file %q: %v", errs.ErrInvalidInput, path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: parsing config file %q: %v", errs.ErrInvalidInput, path, err)
	}
	cfg = Defaults(cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
