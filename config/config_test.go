package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/czprofess-design/MieHair/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "miehair.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "Asia/Ho_Chi_Minh", cfg.CalendarTimezone)
	assert.Equal(t, time.Minute, cfg.PollInterval())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
port = 9090
poll_interval_seconds = 15
cors_origins = ["https://salon.example.com"]
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 15*time.Second, cfg.PollInterval())
	assert.Equal(t, []string{"https://salon.example.com"}, cfg.CORSOrigins)
	// Absent fields keep their defaults.
	assert.Equal(t, "miehair.db", cfg.DBPath)
	assert.Equal(t, "Asia/Ho_Chi_Minh", cfg.CalendarTimezone)
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := config.Load(filepath.Join(t.TempDir(), "nope.toml"))
		assert.Error(t, err)
	})

	t.Run("bad port", func(t *testing.T) {
		_, err := config.Load(writeConfig(t, "port = -1"))
		assert.Error(t, err)
	})

	t.Run("bad poll interval", func(t *testing.T) {
		_, err := config.Load(writeConfig(t, "poll_interval_seconds = 0"))
		assert.Error(t, err)
	})

	t.Run("unknown timezone", func(t *testing.T) {
		_, err := config.Load(writeConfig(t, `calendar_timezone = "Mars/Olympus"`))
		assert.Error(t, err)
	})
}
