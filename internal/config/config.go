// Package config loads the sqlexpress CLI configuration.
//
// Configuration comes from, in increasing priority: built-in defaults, a
// YAML file, SQLEXPRESS_* environment variables, and command-line flags
// (applied by the caller).
package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "github.com/FocuswithJustin/sqlexpress/core/errors"
	"github.com/FocuswithJustin/sqlexpress/core/sqlite"
	"github.com/FocuswithJustin/sqlexpress/internal/validation"
)

// Config is the root configuration structure.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Output   OutputConfig   `yaml:"output"`
}

// DatabaseConfig contains connection settings.
type DatabaseConfig struct {
	Path          string `yaml:"path"`
	Mode          string `yaml:"mode"` // ro, rw, rwc or memory
	BusyTimeoutMS int    `yaml:"busy_timeout_ms"`
	ExtendedCodes bool   `yaml:"extended_codes"`
	StmtCache     int    `yaml:"stmt_cache"`
}

// LoggingConfig contains log settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Trace  bool   `yaml:"trace"` // log every statement event at debug level
}

// MetricsConfig controls the statement metrics dump.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// OutputConfig controls terminal rendering.
type OutputConfig struct {
	Color string `yaml:"color"`     // auto, always or never
	Null  string `yaml:"null_text"` // text printed for NULL cells
}

// Default returns a Config with the built-in defaults.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:          sqlite.Memory,
			Mode:          "rwc",
			ExtendedCodes: true,
			StmtCache:     sqlite.DefaultStmtCacheSize,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
		},
		Output: OutputConfig{
			Color: "auto",
			Null:  "NULL",
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides and validates the result. An empty path skips the
// file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return nil, apperrors.NewNotFound("config", path, err)
		case err != nil:
			return nil, apperrors.NewIO("read", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, &apperrors.ParseError{Format: "YAML", Path: path, Message: err.Error(), Err: err}
		}
	}

	if err := applyEnvOverrides(cfg, os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, apperrors.Wrap(err, "validating config")
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Variables follow the pattern SQLEXPRESS_SECTION_KEY.
func applyEnvOverrides(cfg *Config, getenv func(string) string) error {
	if v := getenv("SQLEXPRESS_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := getenv("SQLEXPRESS_DATABASE_MODE"); v != "" {
		cfg.Database.Mode = v
	}
	if v := getenv("SQLEXPRESS_DATABASE_BUSY_TIMEOUT_MS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return &apperrors.ValidationError{Field: "SQLEXPRESS_DATABASE_BUSY_TIMEOUT_MS", Value: v, Message: "not an integer", Err: err}
		}
		cfg.Database.BusyTimeoutMS = n
	}
	if v := getenv("SQLEXPRESS_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := getenv("SQLEXPRESS_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := getenv("SQLEXPRESS_OUTPUT_COLOR"); v != "" {
		cfg.Output.Color = v
	}
	return nil
}

// Validate checks the configuration. Every problem is reported as a
// *apperrors.ValidationError; several are joined together.
func (c *Config) Validate() error {
	var errs []error
	invalid := func(field, value, msg string) {
		errs = append(errs, &apperrors.ValidationError{Field: field, Value: value, Message: msg})
	}

	if err := validation.ValidatePath(c.Database.Path); err != nil {
		invalid("database.path", c.Database.Path, err.Error())
	}
	if _, err := c.OpenFlags(); err != nil {
		invalid("database.mode", c.Database.Mode, "must be ro, rw, rwc or memory")
	}
	if c.Database.BusyTimeoutMS < 0 {
		invalid("database.busy_timeout_ms", strconv.Itoa(c.Database.BusyTimeoutMS), "must not be negative")
	}
	if c.Database.StmtCache < 0 {
		invalid("database.stmt_cache", strconv.Itoa(c.Database.StmtCache), "must not be negative")
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		invalid("logging.level", c.Logging.Level, "must be debug, info, warn or error")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		invalid("logging.format", c.Logging.Format, "must be json or text")
	}
	switch c.Output.Color {
	case "auto", "always", "never":
	default:
		invalid("output.color", c.Output.Color, "must be auto, always or never")
	}

	return errors.Join(errs...)
}

// OpenFlags translates Database.Mode into open flags.
func (c *Config) OpenFlags() (sqlite.OpenFlags, error) {
	switch c.Database.Mode {
	case "ro":
		return sqlite.OpenReadOnly, nil
	case "rw":
		return sqlite.OpenReadWrite, nil
	case "rwc", "", "memory":
		return sqlite.OpenDefault, nil
	}
	return 0, apperrors.NewValidation("database.mode", "unknown mode "+strconv.Quote(c.Database.Mode))
}

// Location returns the path to open, which is Memory in memory mode.
func (c *Config) Location() string {
	if c.Database.Mode == "memory" {
		return sqlite.Memory
	}
	return c.Database.Path
}

// BusyTimeout returns the busy timeout as a Duration.
func (c *Config) BusyTimeout() time.Duration {
	return time.Duration(c.Database.BusyTimeoutMS) * time.Millisecond
}

// Options returns the sqlite.Open options the configuration implies.
func (c *Config) Options() []sqlite.Option {
	opts := []sqlite.Option{
		sqlite.WithExtendedCodes(c.Database.ExtendedCodes),
		sqlite.WithStmtCacheSize(c.Database.StmtCache),
	}
	if d := c.BusyTimeout(); d > 0 {
		opts = append(opts, sqlite.WithBusyTimeout(d))
	}
	return opts
}
