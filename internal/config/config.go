// Package config provides configuration loading for the kvlog command.
//
// Configuration is loaded from a single YAML file specified by:
//   - the --config flag passed to the command, or
//   - the KVLOG_CONFIG environment variable.
//
// Without either, the defaults apply. Command line flags override values of the file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/backbone81/durable-kv/internal/wal"
)

// EnvironmentVariable names the environment variable which points to the configuration file.
const EnvironmentVariable = "KVLOG_CONFIG"

// Supported log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config is the configuration of the kvlog command.
type Config struct {
	// LogPath is the operation log of the store.
	// Default: operations.log
	LogPath string `yaml:"log_path"`

	// SnapshotPath is where snapshots of the state are published.
	// Default: state.snapshot
	SnapshotPath string `yaml:"snapshot_path"`

	// DirectorySync enables flushing the directory after publishing a file.
	// Default: true
	DirectorySync bool `yaml:"directory_sync"`

	// SyncPolicy is the sync policy of the log writer. Values: "none", "immediate"
	// Default: immediate
	SyncPolicy string `yaml:"sync_policy"`

	// LogLevel is the minimum level of diagnostic output. Values: "debug", "info", "warn", "error"
	// Default: info
	LogLevel string `yaml:"log_level"`

	// LogFormat is the format of diagnostic output. Values: "text", "json"
	// Default: text
	LogFormat string `yaml:"log_format"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		LogPath:       "operations.log",
		SnapshotPath:  "state.snapshot",
		DirectorySync: true,
		SyncPolicy:    wal.DefaultSyncPolicy.String(),
		LogLevel:      "info",
		LogFormat:     LogFormatText,
	}
}

// Load loads the configuration from path. An empty path falls back to the KVLOG_CONFIG environment variable, and
// to the defaults if that is not set either.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvironmentVariable)
	}
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile loads the configuration from a specific file path. Keys missing in the file keep their default value.
// Unknown keys are rejected.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // The path is provided by the user on purpose.
	if err != nil {
		return nil, fmt.Errorf("reading config file %q: %w", path, err)
	}

	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config file %q: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %q: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.LogPath == "" {
		errs = append(errs, errors.New("log_path is required"))
	}
	if c.SnapshotPath == "" {
		errs = append(errs, errors.New("snapshot_path is required"))
	}
	if _, err := wal.ParseSyncPolicyType(c.SyncPolicy); err != nil {
		errs = append(errs, fmt.Errorf("sync_policy must be one of: %v", wal.SyncPolicyTypes))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	if c.LogFormat != LogFormatText && c.LogFormat != LogFormatJSON {
		errs = append(errs, fmt.Errorf("log_format must be one of: %v", []string{LogFormatText, LogFormatJSON}))
	}

	return errors.Join(errs...)
}

// SyncPolicyType returns the parsed sync policy.
func (c *Config) SyncPolicyType() (wal.SyncPolicyType, error) {
	return wal.ParseSyncPolicyType(c.SyncPolicy)
}

// Level returns the parsed log level.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, err
	}
	return level, nil
}

// NewLogger returns a logger writing to writer in the configured format and level.
func (c *Config) NewLogger(writer io.Writer) (*slog.Logger, error) {
	level, err := c.Level()
	if err != nil {
		return nil, err
	}
	options := &slog.HandlerOptions{
		Level: level,
	}
	switch c.LogFormat {
	case LogFormatText:
		return slog.New(slog.NewTextHandler(writer, options)), nil
	case LogFormatJSON:
		return slog.New(slog.NewJSONHandler(writer, options)), nil
	default:
		return nil, fmt.Errorf("unsupported log format %q", c.LogFormat)
	}
}
