// Package config loads the application settings for the geochart CLI:
// HTTP behavior, active language, and render output. Chart
// configuration documents live in internal/chartconfig; this package
// only covers the tool's own knobs.
package config

import "errors"

// Config is the top-level application configuration.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Language string        `mapstructure:"language"`
	HTTP     HTTPConfig    `mapstructure:"http"`
	Render   RenderConfig  `mapstructure:"render"`
	Metrics  MetricsConfig `mapstructure:"metrics"`
}

// HTTPConfig holds fetch transport knobs.
type HTTPConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// RenderConfig holds render output knobs.
type RenderConfig struct {
	Output string `mapstructure:"output"`
	Theme  string `mapstructure:"theme"`
}

// MetricsConfig toggles fetch instrumentation. When enabled, the CLI
// collects per-backend fetch counters and logs them on exit.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Default values applied by LoadConfig.
const (
	DefaultLanguage       = "en"
	DefaultTimeoutSeconds = 30
	DefaultOutput         = "chart.html"
	DefaultTheme          = "dark"
)

// Sentinel errors for configuration validation.
var (
	// ErrInvalidTimeout indicates the HTTP timeout is not positive.
	ErrInvalidTimeout = errors.New("http.timeout_seconds must be positive")
	// ErrEmptyLanguage indicates the language code is empty.
	ErrEmptyLanguage = errors.New("language must be non-empty")
)

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	if c.HTTP.TimeoutSeconds <= 0 {
		return ErrInvalidTimeout
	}

	if c.Language == "" {
		return ErrEmptyLanguage
	}

	return nil
}
