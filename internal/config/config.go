// Package config provides configuration types and defaults for traza.
package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/jcmxo/98-pfm-traza-2025/internal/engine"
	"github.com/jcmxo/98-pfm-traza-2025/internal/log"
	"github.com/jcmxo/98-pfm-traza-2025/internal/tracing"
)

// Config holds all configuration options for traza.
type Config struct {
	// Listen is the address the HTTP API binds to.
	Listen string `yaml:"listen" mapstructure:"listen"`

	// Debug enables file logging when true.
	Debug bool `yaml:"debug" mapstructure:"debug"`

	// LogPath is where the debug log is written. Empty means "traza.log"
	// in the working directory.
	LogPath string `yaml:"log_path" mapstructure:"log_path"`

	Database DatabaseConfig `yaml:"database" mapstructure:"database"`
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	Tracing  tracing.Config `yaml:"tracing" mapstructure:"tracing"`
}

// DatabaseConfig holds ledger storage configuration.
type DatabaseConfig struct {
	// Path is the SQLite database file. The parent directory is created
	// on first open.
	Path string `yaml:"path" mapstructure:"path"`

	// InMemory keeps the whole ledger in process memory instead of
	// SQLite. State is lost on exit; meant for demos and tests.
	InMemory bool `yaml:"in_memory" mapstructure:"in_memory"`
}

// CacheConfig holds traceability cache configuration.
type CacheConfig struct {
	// TraceTTL is how long a traceability result stays cached.
	TraceTTL time.Duration `yaml:"trace_ttl" mapstructure:"trace_ttl"`

	// Disabled bypasses the traceability cache entirely.
	Disabled bool `yaml:"disabled" mapstructure:"disabled"`
}

// MarshalYAML renders durations in their human form ("10m") so the
// emitted YAML round-trips through viper's duration hook.
func (c CacheConfig) MarshalYAML() (any, error) {
	return struct {
		TraceTTL string `yaml:"trace_ttl"`
		Disabled bool   `yaml:"disabled"`
	}{TraceTTL: c.TraceTTL.String(), Disabled: c.Disabled}, nil
}

// DefaultDatabasePath returns the default SQLite database location.
// Returns ~/.traza/traza.db or a relative fallback if home dir unavailable.
func DefaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".traza", "traza.db")
	}
	return filepath.Join(home, ".traza", "traza.db")
}

// DefaultTracesFilePath returns the default path for trace file export.
// Returns ~/.traza/traces/traces.jsonl or empty string if home dir unavailable.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".traza", "traces", "traces.jsonl")
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Listen:  "localhost:8311",
		Debug:   false,
		LogPath: "",
		Database: DatabaseConfig{
			Path:     DefaultDatabasePath(),
			InMemory: false,
		},
		Cache: CacheConfig{
			TraceTTL: engine.DefaultTraceCacheTTL,
			Disabled: false,
		},
		Tracing: tracing.DefaultConfig(),
	}
}

// Validate checks the config for values that cannot work at runtime.
func (c Config) Validate() error {
	if _, _, err := net.SplitHostPort(c.Listen); err != nil {
		return fmt.Errorf("invalid listen address %q: %w", c.Listen, err)
	}
	if !c.Database.InMemory && c.Database.Path == "" {
		return fmt.Errorf("database.path is required unless database.in_memory is set")
	}
	if c.Cache.TraceTTL < 0 {
		return fmt.Errorf("cache.trace_ttl must not be negative")
	}
	return nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# Traza Configuration

# Address the HTTP API binds to
listen: localhost:8311

# Write a debug log file
debug: false
# log_path: traza.log

# Ledger storage
database:
  # SQLite database file (parent directory is created on first open)
  # path: ~/.traza/traza.db
  #
  # Keep the ledger in process memory instead (state lost on exit)
  in_memory: false

# Traceability result cache
cache:
  trace_ttl: 10m
  disabled: false

# OpenTelemetry tracing
# tracing:
#   enabled: true
#   exporter: file          # file, stdout, otlp, or none
#   file_path: ~/.traza/traces/traces.jsonl
#   otlp_endpoint: localhost:4317
#   sample_rate: 1.0        # 0.0 to 1.0
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
