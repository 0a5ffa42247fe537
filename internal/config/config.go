// Package config loads runtime settings from an optional .env file, an
// optional YAML file and PAGEBUILDER_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// Config is the runtime configuration.
type Config struct {
	DataDir        string        `yaml:"data_dir"`
	DBDriver       string        `yaml:"db_driver"` // sqlite, postgres, mysql or mongodb
	DBDSN          string        `yaml:"db_dsn"`    // sqlite: file path, default <data_dir>/pagebuilder.db
	TemplatesDir   string        `yaml:"templates_dir"`
	AutosaveDelay  time.Duration `yaml:"autosave_delay"`
	MaxRevisions   int           `yaml:"max_revisions"`
	PruneSchedule  string        `yaml:"prune_schedule"` // cron spec, "off" disables pruning
	LogLevel       string        `yaml:"log_level"`
	WatchTemplates bool          `yaml:"watch_templates"`
	SanitizeInput  bool          `yaml:"sanitize_input"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".local", "share", "pagebuilder")
	return Config{
		DataDir:        dataDir,
		DBDriver:       "sqlite",
		AutosaveDelay:  30 * time.Second,
		MaxRevisions:   50,
		PruneSchedule:  "@hourly",
		LogLevel:       "info",
		WatchTemplates: true,
		SanitizeInput:  true,
	}
}

// Load builds the configuration. A missing .env or YAML file is not an
// error; a malformed one is.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path := os.Getenv("PAGEBUILDER_CONFIG"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.mergeEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	cfg.fillDerived()
	return cfg, cfg.Validate()
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) mergeEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("PAGEBUILDER_DATA_DIR", &c.DataDir)
	str("PAGEBUILDER_DB_DRIVER", &c.DBDriver)
	str("PAGEBUILDER_DB_DSN", &c.DBDSN)
	str("PAGEBUILDER_TEMPLATES_DIR", &c.TemplatesDir)
	str("PAGEBUILDER_LOG_LEVEL", &c.LogLevel)
	str("PAGEBUILDER_PRUNE_SCHEDULE", &c.PruneSchedule)

	if v, ok := lookup("PAGEBUILDER_AUTOSAVE_DELAY"); ok && v != "" {
		d, err := cast.ToDurationE(v)
		if err != nil {
			return fmt.Errorf("PAGEBUILDER_AUTOSAVE_DELAY: %w", err)
		}
		c.AutosaveDelay = d
	}
	if v, ok := lookup("PAGEBUILDER_MAX_REVISIONS"); ok && v != "" {
		n, err := cast.ToIntE(v)
		if err != nil {
			return fmt.Errorf("PAGEBUILDER_MAX_REVISIONS: %w", err)
		}
		c.MaxRevisions = n
	}
	if v, ok := lookup("PAGEBUILDER_WATCH_TEMPLATES"); ok && v != "" {
		b, err := cast.ToBoolE(v)
		if err != nil {
			return fmt.Errorf("PAGEBUILDER_WATCH_TEMPLATES: %w", err)
		}
		c.WatchTemplates = b
	}
	return nil
}

func (c *Config) fillDerived() {
	c.DBDriver = strings.ToLower(c.DBDriver)
	if strings.EqualFold(c.PruneSchedule, "off") {
		c.PruneSchedule = ""
	}
	if c.DBDSN == "" && c.DBDriver == "sqlite" {
		c.DBDSN = filepath.Join(c.DataDir, "pagebuilder.db")
	}
	if c.TemplatesDir == "" {
		c.TemplatesDir = filepath.Join(c.DataDir, "templates")
	}
}

// Validate reports settings that cannot work.
func (c Config) Validate() error {
	switch c.DBDriver {
	case "sqlite", "postgres", "mysql", "mongodb":
	default:
		return fmt.Errorf("unsupported db driver %q", c.DBDriver)
	}
	if c.DBDSN == "" {
		return fmt.Errorf("db dsn is required for driver %s", c.DBDriver)
	}
	if c.AutosaveDelay < 0 {
		return fmt.Errorf("autosave delay must not be negative")
	}
	if c.MaxRevisions < 0 {
		return fmt.Errorf("max revisions must not be negative")
	}
	return nil
}

// SlogLevel maps LogLevel to a slog level, info when unrecognized.
func (c Config) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
