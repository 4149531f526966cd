// Package config loads and validates application configuration.
package config

import (
	"fmt"
	"os"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the feature pipeline.
type Config struct {
	Input    InputConfig    `yaml:"input"`
	Features FeaturesConfig `yaml:"features"`
	Split    SplitConfig    `yaml:"split"`
	Output   OutputConfig   `yaml:"output"`
	Storage  StorageConfig  `yaml:"storage"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// InputConfig describes the raw panel source.
type InputConfig struct {
	Path     string `yaml:"path" validate:"required"`
	Extended bool   `yaml:"extended" default:"false"`
	Target   string `yaml:"target" default:"Close" validate:"required"`
}

// FeaturesConfig controls the transform catalog.
type FeaturesConfig struct {
	Momentum string `yaml:"momentum" default:"diff" validate:"oneof=diff smoothed"`
	Workers  int    `yaml:"workers" default:"1" validate:"min=1,max=64"`
}

// SplitConfig controls the time-ordered train/test partition.
type SplitConfig struct {
	TestSize float64 `yaml:"test_size" default:"0.2" validate:"gt=0,lt=1"`
}

// OutputConfig describes where artifacts are written.
type OutputConfig struct {
	Dir string `yaml:"dir" default:"data/processed"`
}

// StorageConfig enables optional persistence backends.
type StorageConfig struct {
	Clickhouse BackendConfig `yaml:"clickhouse"`
	Postgres   BackendConfig `yaml:"postgres"`
}

// BackendConfig is a single storage backend toggle.
type BackendConfig struct {
	Enabled bool   `yaml:"enabled" default:"false"`
	DSN     string `yaml:"dsn"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=trace debug info warn error"`
	Format string `yaml:"format" default:"console" validate:"oneof=console json"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" default:"false"`
	Addr    string `yaml:"addr" default:":9091"`
}

// Load reads, defaults and validates a YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a configuration with defaults applied and no input path.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration against struct constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	if c.Storage.Clickhouse.Enabled && c.Storage.Clickhouse.DSN == "" {
		return fmt.Errorf("validate config: clickhouse enabled without dsn")
	}
	if c.Storage.Postgres.Enabled && c.Storage.Postgres.DSN == "" {
		return fmt.Errorf("validate config: postgres enabled without dsn")
	}
	return nil
}
