// Package config loads server configuration from a TOML file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the server configuration. Every field has a default so an
// absent config file is valid.
type Config struct {
	// Port is the HTTP listen port.
	Port int `toml:"port"`
	// DBPath is the SQLite database path; ":memory:" for ephemeral runs.
	DBPath string `toml:"db_path"`
	// CalendarTimezone is the single fixed IANA timezone used for all
	// day and week boundaries, regardless of client locale.
	CalendarTimezone string `toml:"calendar_timezone"`
	// PollIntervalSeconds is the live-sync pull fallback cadence.
	PollIntervalSeconds int `toml:"poll_interval_seconds"`
	// CORSOrigins lists allowed browser origins.
	CORSOrigins []string `toml:"cors_origins"`
}

// Default returns the configuration used when no file is provided.
func Default() Config {
	return Config{
		Port:                8080,
		DBPath:              "miehair.db",
		CalendarTimezone:    "Asia/Ho_Chi_Minh",
		PollIntervalSeconds: 60,
		CORSOrigins:         []string{"http://localhost:5173", "http://localhost:8080"},
	}
}

// Load reads the TOML file at path, applying defaults for absent
// fields. An empty path returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be 1-65535, got %d", c.Port)
	}
	if c.PollIntervalSeconds <= 0 {
		return fmt.Errorf("poll_interval_seconds must be positive, got %d", c.PollIntervalSeconds)
	}
	if _, err := time.LoadLocation(c.CalendarTimezone); err != nil {
		return fmt.Errorf("calendar_timezone: %w", err)
	}
	return nil
}

// PollInterval returns the pull fallback cadence as a duration.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}
