package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.App.HTTPPort)
	assert.Equal(t, 30*time.Second, cfg.App.ShutdownTimeout)
	assert.Equal(t, 60.0, cfg.Render.MaxFPS)
	assert.Equal(t, 33*time.Millisecond, cfg.Render.PulseInterval)
	assert.Equal(t, 5, cfg.Render.ParticleThreshold)
	assert.Equal(t, 7.5, cfg.Layout.SpawnExtent)
	assert.Equal(t, 5.0, cfg.Camera.MinDistance)
	assert.Equal(t, 80.0, cfg.Camera.MaxDistance)
	assert.Equal(t, 10*time.Second, cfg.Resolver.Timeout)
	assert.False(t, cfg.NATS.Enabled)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte("app:\n  http_port: 9999\nrender:\n  max_fps: 30\nlayout:\n  radius: 12\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o600))

	v := viper.New()
	v.AddConfigPath(dir)
	cfg, err := LoadWith(v)
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.App.HTTPPort)
	assert.Equal(t, 30.0, cfg.Render.MaxFPS)
	assert.Equal(t, 12.0, cfg.Layout.Radius)
	assert.Equal(t, 5.0, cfg.Layout.VerticalAmplitude)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("NATS_URL", "nats://example:4222")
	t.Setenv("APP_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "nats://example:4222", cfg.NATS.URL)
	assert.Equal(t, "debug", cfg.App.LogLevel)
}
