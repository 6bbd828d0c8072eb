// Package config loads process settings for the portgraph binaries from the
// environment, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/flowgraph/portgraph/internal/core/reactive"
	"github.com/flowgraph/portgraph/pkg/validation"
	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every variable Load reads.
const EnvPrefix = "PORTGRAPH_"

// Config holds all process configuration
type Config struct {
	LogLevel         string        `json:"log_level" validate:"oneof=debug info warn error"`
	LogFormat        string        `json:"log_format" validate:"oneof=json text"`
	NotifyDepthLimit int           `json:"notify_depth_limit" validate:"min=1"`
	MetricsAddr      string        `json:"metrics_addr" validate:"required,hostname_port"`
	DemoInterval     time.Duration `json:"demo_interval" validate:"min=1ms"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		LogLevel:         "info",
		LogFormat:        "json",
		NotifyDepthLimit: reactive.DefaultMaxDepth,
		MetricsAddr:      ":9090",
		DemoInterval:     time.Second,
	}
}

// Load reads PORTGRAPH_* variables over the defaults. Files are passed to
// godotenv; a missing file is not an error, variables already set in the
// environment win over file contents.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	def := Default()
	var errs []error
	cfg := &Config{
		LogLevel:         getEnvWithDefault("LOG_LEVEL", def.LogLevel),
		LogFormat:        getEnvWithDefault("LOG_FORMAT", def.LogFormat),
		NotifyDepthLimit: getEnvAsInt("NOTIFY_DEPTH_LIMIT", def.NotifyDepthLimit, &errs),
		MetricsAddr:      getEnvWithDefault("METRICS_ADDR", def.MetricsAddr),
		DemoInterval:     getEnvAsDuration("DEMO_INTERVAL", def.DemoInterval, &errs),
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}

	if err := validation.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Helper functions for environment variable parsing

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int, errs *[]error) int {
	valueStr := os.Getenv(EnvPrefix + key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration, errs *[]error) time.Duration {
	valueStr := os.Getenv(EnvPrefix + key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
		return defaultValue
	}
	return value
}
