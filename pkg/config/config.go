// Package config holds the YAML-backed settings that shape a run:
// where files land on disk, a worker count (validated and reported, but
// not read by the materializer, which processes files one at a time),
// whether continuous export stays subscribed to the EventBus, and how
// logging is configured. Grounded on the teacher's pkg/config/config.go
// (Config/Default/Validate) with the sync-specific fields replaced by
// export-specific ones.
package config

import "github.com/mirrorkit/photomirror/pkg/logging"

// Config is the top-level application configuration.
type Config struct {
	Export     ExportConfig     `yaml:"export"`
	Continuous ContinuousConfig `yaml:"continuous"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ExportConfig controls where and how files are written to disk.
type ExportConfig struct {
	// RootDir is the local directory the library is mirrored into.
	RootDir string `yaml:"root_dir"`
	// Workers is a worker count that Validate checks. The materializer
	// does not read it: the ExportFiles phase downloads and writes files
	// one at a time.
	Workers int `yaml:"workers"`
	// BandwidthLimitBytesPerSec throttles every download when > 0.
	BandwidthLimitBytesPerSec int64 `yaml:"bandwidth_limit_bytes_per_sec"`
}

// ContinuousConfig controls the always-on reconciliation loop.
type ContinuousConfig struct {
	Enabled bool `yaml:"enabled"`
	// DebounceMillis coalesces bursts of local-filesystem-change events
	// into a single reconciliation run.
	DebounceMillis int `yaml:"debounce_millis"`
}

// LoggingConfig controls where and how structured logs are written.
type LoggingConfig struct {
	Format     string `yaml:"format"` // "json" or "text"
	Level      string `yaml:"level"`  // "debug", "info", "warn", "error"
	File       string `yaml:"file"`   // empty = logging disabled
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Export: ExportConfig{
			RootDir:                   "",
			Workers:                   4,
			BandwidthLimitBytesPerSec: 0,
		},
		Continuous: ContinuousConfig{
			Enabled:        false,
			DebounceMillis: 500,
		},
		Logging: LoggingConfig{
			Format:     "json",
			Level:      "info",
			File:       "",
			MaxSizeMB:  50,
			MaxBackups: 3,
		},
	}
}

// ValidationError reports a single invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Validate checks the configuration for values the rest of the engine
// cannot operate on.
func (c *Config) Validate() error {
	if c.Export.RootDir == "" {
		return &ValidationError{Field: "export.root_dir", Message: "must be set"}
	}
	if c.Export.Workers < 1 {
		return &ValidationError{Field: "export.workers", Message: "must be at least 1"}
	}
	if c.Export.BandwidthLimitBytesPerSec < 0 {
		return &ValidationError{Field: "export.bandwidth_limit_bytes_per_sec", Message: "must not be negative"}
	}
	if c.Continuous.DebounceMillis < 0 {
		return &ValidationError{Field: "continuous.debounce_millis", Message: "must not be negative"}
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return &ValidationError{Field: "logging.format", Message: "must be 'json' or 'text'"}
	}
	if !validLevel(c.Logging.Level) {
		return &ValidationError{Field: "logging.level", Message: "must be 'debug', 'info', 'warn', or 'error'"}
	}

	return nil
}

func validLevel(s string) bool {
	switch s {
	case "debug", "DEBUG", "info", "INFO", "warn", "WARN", "warning", "WARNING", "error", "ERROR":
		return true
	default:
		return false
	}
}

// ResolveLogLevel parses Logging.Level, defaulting to info for anything
// Validate would already have rejected.
func (c *Config) ResolveLogLevel() logging.Level {
	return logging.ParseLevel(c.Logging.Level)
}
