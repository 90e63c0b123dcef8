// Package config loads fieldlineage CLI configuration from defaults,
// fieldlineage.yaml, FIELDLINEAGE_* environment variables and flags.
package config

import (
	"context"
	"time"
)

// Defaults.
const (
	DefaultDBType      = "mysql"
	DefaultOutput      = "auto"
	DefaultStateFile   = ".fieldlineage/history.db"
	DefaultConcurrency = 4
	DefaultDebounce    = 100 * time.Millisecond
)

// DefaultExtensions are the file extensions the watch command reacts to.
var DefaultExtensions = []string{".sql"}

// Config holds all CLI configuration options.
type Config struct {
	DBType      string      `koanf:"db_type"`
	Output      string      `koanf:"output"`
	StatePath   string      `koanf:"state_path"`
	History     bool        `koanf:"history"`
	Verbose     bool        `koanf:"verbose"`
	Concurrency int         `koanf:"concurrency"`
	Watch       WatchConfig `koanf:"watch"`
}

// WatchConfig configures the watch command.
type WatchConfig struct {
	Extensions []string      `koanf:"extensions"`
	Debounce   time.Duration `koanf:"debounce"`
}

// Default returns a Config populated with default values.
func Default() *Config {
	return &Config{
		DBType:      DefaultDBType,
		Output:      DefaultOutput,
		StatePath:   DefaultStateFile,
		History:     true,
		Concurrency: DefaultConcurrency,
		Watch: WatchConfig{
			Extensions: append([]string(nil), DefaultExtensions...),
			Debounce:   DefaultDebounce,
		},
	}
}

// configKey is used to store the config in context.
type configKey struct{}

// WithConfig returns a copy of ctx carrying cfg.
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext returns the config stored by WithConfig, or Default() when
// there is none.
func FromContext(ctx context.Context) *Config {
	if ctx != nil {
		if c, ok := ctx.Value(configKey{}).(*Config); ok && c != nil {
			return c
		}
	}
	return Default()
}
