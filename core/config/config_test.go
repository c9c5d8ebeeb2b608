package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "leaflet", cfg.Server.Provider)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "providers", cfg.Database.Table)
	assert.Equal(t, "sdk/", cfg.Storage.SDKPrefix)
	assert.Equal(t, "sdk/mapkit.core.js", cfg.SDK.Locator)
	assert.Equal(t, 10000, cfg.SDK.TimeoutMs)
	assert.True(t, cfg.Geolocation.Enabled)
	assert.InDelta(t, 40.4168, cfg.Geolocation.Latitude, 1e-9)
	assert.Equal(t, "memory", cfg.Feed.Transport)
	assert.True(t, cfg.Feed.RequireActive)
	assert.Equal(t, "main", cfg.Map.Surface)
	assert.InDelta(t, 0.2, cfg.Map.Padding, 1e-9)
	assert.InDelta(t, 14, cfg.Map.SelfZoom, 1e-9)
}

func TestLoadConfig_Environment(t *testing.T) {
	t.Setenv("SERVER_PROVIDER", "mapkit")
	t.Setenv("FEED_TRANSPORT", "nats")
	t.Setenv("FEED_URL", "nats://localhost:4222")
	t.Setenv("MAP_VIEWPORT_WIDTH", "1024")
	t.Setenv("GEOLOCATION_ENABLED", "false")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "mapkit", cfg.Server.Provider)
	assert.Equal(t, "nats", cfg.Feed.Transport)
	assert.Equal(t, "nats://localhost:4222", cfg.Feed.URL)
	assert.Equal(t, 1024, cfg.Map.Width)
	assert.False(t, cfg.Geolocation.Enabled)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SDK_TOKEN=from-dotenv\nLOG_FORMAT=console\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("SDK_TOKEN")
		os.Unsetenv("LOG_FORMAT")
	})

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.SDK.Token)
	assert.Equal(t, "console", cfg.Log.Format)
}
