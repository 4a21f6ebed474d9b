package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, k := range []string{"PORT", "STORE_DRIVER", "AUTH_REQUIRED", "APP_TIMEZONE", "MANUAL_LOOKBACK_DAYS", "LOG_LEVEL", "CORS_ORIGINS", "DEFAULT_USER_ID"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DriverMongo, cfg.StoreDriver)
	assert.False(t, cfg.AuthRequired)
	assert.Equal(t, "60c72b2f9f1b2c0015b8d4f4", cfg.DefaultUserID.Hex())
	assert.Equal(t, "Asia/Ho_Chi_Minh", cfg.Location.String())
	assert.Equal(t, 30*24*time.Hour, cfg.ManualLookback)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
}

func TestLoadOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STORE_DRIVER", "SQLite")
	t.Setenv("AUTH_REQUIRED", "true")
	t.Setenv("MANUAL_LOOKBACK_DAYS", "7")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CORS_ORIGINS", "http://localhost:5173, https://app.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.StoreDriver)
	assert.True(t, cfg.AuthRequired)
	assert.Equal(t, 7*24*time.Hour, cfg.ManualLookback)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, []string{"http://localhost:5173", "https://app.example.com"}, cfg.CORSOrigins)
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"STORE_DRIVER":         "postgres",
		"AUTH_REQUIRED":        "maybe",
		"DEFAULT_USER_ID":      "not-an-id",
		"APP_TIMEZONE":         "Mars/Olympus",
		"MANUAL_LOOKBACK_DAYS": "-1",
		"LOG_LEVEL":            "loud",
	}
	for k, v := range cases {
		t.Run(k, func(t *testing.T) {
			t.Chdir(t.TempDir())
			t.Setenv(k, v)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
