package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnvDefaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 30, cfg.HotWindowDays)
	assert.Equal(t, 730, cfg.ColdWindowDays)
	assert.Equal(t, 1000, cfg.DefaultRowLimit)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, time.Second, cfg.RetryDelay)
	assert.Equal(t, 10*time.Second, cfg.RetryMaxDelay)
	assert.Equal(t, 5, cfg.BreakerThreshold)
	assert.Equal(t, 60*time.Second, cfg.BreakerCooldown)
	assert.Equal(t, 300*time.Second, cfg.CacheTTL)
	assert.Equal(t, 300*time.Second, cfg.QueryTimeout)
	assert.Equal(t, 8, cfg.DefaultPartitions)
	assert.Equal(t, time.Hour, cfg.MetricsRetention)
	assert.False(t, cfg.HasS3Config())
	assert.NotEmpty(t, cfg.Warnings, "missing S3 config should produce a warning")
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("HOT_WINDOW_DAYS", "7")
	t.Setenv("COLD_WINDOW_DAYS", "90")
	t.Setenv("CACHE_TTL", "2m")
	t.Setenv("QUERY_TIMEOUT", "120")
	t.Setenv("LISTEN_ADDR", ":9999")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.HotWindowDays)
	assert.Equal(t, 90, cfg.ColdWindowDays)
	assert.Equal(t, 2*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 120*time.Second, cfg.QueryTimeout, "bare integers are read as seconds")
	assert.Equal(t, ":9999", cfg.ListenAddr)
}

func TestLoadFromEnvRetentionInvariant(t *testing.T) {
	t.Setenv("HOT_WINDOW_DAYS", "100")
	t.Setenv("COLD_WINDOW_DAYS", "30")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HOT_WINDOW_DAYS")
}

func TestLoadFromEnvRejectsZeroRetries(t *testing.T) {
	t.Setenv("MAX_RETRIES", "0")
	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAX_RETRIES")
}

func TestLoadFromEnvProductionCORSWildcard(t *testing.T) {
	t.Setenv("ENV", "production")
	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CORS")

	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com")
	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, []string{"https://app.example.com"}, cfg.CORSAllowedOrigins)
}

func TestS3Config(t *testing.T) {
	t.Setenv("KEY_ID", "k")
	t.Setenv("SECRET", "s")
	t.Setenv("ENDPOINT", "s3.example.com")
	t.Setenv("REGION", "eu-central-1")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.HasS3Config())
	assert.Empty(t, cfg.Warnings)
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		c := &Config{LogLevel: tt.level}
		assert.Equal(t, tt.want, c.SlogLevel(), "level %q", tt.level)
	}
}
