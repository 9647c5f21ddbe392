// Package config loads the dbinit configuration file.
//
// The file is YAML. ${VAR} references are expanded from the environment
// before decoding so secrets can stay out of the file:
//
//	database:
//	  driver: mysql
//	  dsn: ${DBINIT_DSN}
//	bootstrap:
//	  timeout: 2m
package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/koustreak/dbinit/internal/database"
	"github.com/koustreak/dbinit/internal/errs"
	"github.com/koustreak/dbinit/internal/filestore"
	"github.com/koustreak/dbinit/internal/logger"
	"go.yaml.in/yaml/v3"
)

// Config is the root configuration.
type Config struct {
	Log       LogConfig       `yaml:"log"`
	Database  database.Config `yaml:"database"`
	Bootstrap BootstrapConfig `yaml:"bootstrap"`
	Server    ServerConfig    `yaml:"server"`
	Report    ReportConfig    `yaml:"report"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"` // json or console
	TimeFormat string `yaml:"time_format"`
}

type BootstrapConfig struct {
	// Timeout bounds the whole startup hook.
	Timeout time.Duration `yaml:"timeout"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// ReportConfig controls publishing bootstrap reports to object storage.
type ReportConfig struct {
	Enabled bool             `yaml:"enabled"`
	Prefix  string           `yaml:"prefix"`
	Store   filestore.Config `yaml:"store"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:      "info",
			Format:     "json",
			TimeFormat: "rfc3339",
		},
		Database: *database.DefaultConfig(""),
		Bootstrap: BootstrapConfig{
			Timeout: 2 * time.Minute,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Report: ReportConfig{
			Prefix: "dbinit/reports",
			Store:  *filestore.DefaultConfig("localhost:9000", "", ""),
		},
	}
}

// Load reads the file at path over Default. An empty path returns the
// defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	if err := Parse(raw, cfg); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// Parse expands environment references in raw and decodes it into cfg.
// Keys absent from raw keep their current values.
func Parse(raw []byte, cfg *Config) error {
	expanded := os.ExpandEnv(string(raw))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return errs.Wrap(errs.ErrKindInvalidInput, "invalid yaml", err)
	}
	return nil
}

var levels = map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}

// Validate checks everything except the database section, which is
// validated when a connection is attempted so that a dry run needs no DSN.
func (c *Config) Validate() error {
	if !levels[c.Log.Level] {
		return errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		return errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("log.format %q is not json or console", c.Log.Format))
	}
	if c.Bootstrap.Timeout <= 0 {
		return errs.New(errs.ErrKindInvalidInput, "bootstrap.timeout must be positive")
	}
	if c.Server.Addr == "" {
		return errs.New(errs.ErrKindInvalidInput, "server.addr is required")
	}
	if c.Report.Enabled {
		if err := c.Report.Store.Validate(); err != nil {
			return fmt.Errorf("report.store: %w", err)
		}
	}
	return nil
}

// Logger builds the logger described by the log section, writing to out.
func (c *Config) Logger(out io.Writer) *logger.Logger {
	return logger.New(&logger.Config{
		Level:      c.Log.Level,
		Format:     c.Log.Format,
		TimeFormat: c.Log.TimeFormat,
		Output:     out,
	})
}
