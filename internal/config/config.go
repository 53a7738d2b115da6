// Package config handles application configuration and environment loading.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the immutable configuration for the tiered query layer.
// Constructed once at process start and passed explicitly to every component
// constructor; no component reads ambient global state.
type Config struct {
	ListenAddr string // HTTP listen address (default ":8080")
	LogLevel   string // log level: debug, info, warn, error (default "info")
	Env        string // environment: "development" (default) or "production"

	HotDBPath  string // path to the SQLite hot-tier file
	ColdDBPath string // path to the DuckDB cold-tier file ("" = in-memory)

	// Retention windows, in days back from now. Hot must not exceed cold.
	HotWindowDays  int
	ColdWindowDays int

	// Query execution.
	QueryTimeout    time.Duration
	DefaultRowLimit int

	// Retry / backoff.
	MaxRetries    int
	RetryDelay    time.Duration
	RetryMaxDelay time.Duration

	// Circuit breaker.
	BreakerThreshold int
	BreakerCooldown  time.Duration

	// Materialization cache.
	CacheTTL time.Duration

	// Repartitioning.
	DefaultPartitions int

	// Metrics.
	MetricsRetention time.Duration

	// Rate limiting.
	RateLimitRPS   float64
	RateLimitBurst int

	// CORS.
	CORSAllowedOrigins []string

	// S3 fields are optional — nil when not configured. Used for cold-tier
	// object access and post-repartition layout verification.
	S3KeyID    *string
	S3Secret   *string
	S3Endpoint *string
	S3Region   *string
	S3Bucket   *string

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsProduction returns true when the server is running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// HasS3Config returns true if all required S3 fields are set.
func (c *Config) HasS3Config() bool {
	return c.S3KeyID != nil && c.S3Secret != nil &&
		c.S3Endpoint != nil && c.S3Region != nil
}

// LoadFromEnv loads configuration from environment variables. S3 variables
// are optional — the app can start without them.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		ListenAddr: os.Getenv("LISTEN_ADDR"),
		LogLevel:   os.Getenv("LOG_LEVEL"),
		Env:        os.Getenv("ENV"),
		HotDBPath:  os.Getenv("HOT_DB_PATH"),
		ColdDBPath: os.Getenv("COLD_DB_PATH"),

		HotWindowDays:     parseIntEnvDefault("HOT_WINDOW_DAYS", 30),
		ColdWindowDays:    parseIntEnvDefault("COLD_WINDOW_DAYS", 730),
		DefaultRowLimit:   parseIntEnvDefault("DEFAULT_ROW_LIMIT", 1000),
		MaxRetries:        parseIntEnvDefault("MAX_RETRIES", 3),
		BreakerThreshold:  parseIntEnvDefault("BREAKER_THRESHOLD", 5),
		DefaultPartitions: parseIntEnvDefault("DEFAULT_PARTITIONS", 8),

		QueryTimeout:     parseDurationEnvDefault("QUERY_TIMEOUT", 300*time.Second),
		RetryDelay:       parseDurationEnvDefault("RETRY_DELAY", time.Second),
		RetryMaxDelay:    parseDurationEnvDefault("RETRY_MAX_DELAY", 10*time.Second),
		BreakerCooldown:  parseDurationEnvDefault("BREAKER_COOLDOWN", 60*time.Second),
		CacheTTL:         parseDurationEnvDefault("CACHE_TTL", 300*time.Second),
		MetricsRetention: parseDurationEnvDefault("METRICS_RETENTION_SECONDS", 3600*time.Second),
	}

	// Rate limiting
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimitRPS = f
		}
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitBurst = n
		}
	}

	// S3 fields are optional — only set if present
	if v := os.Getenv("KEY_ID"); v != "" {
		cfg.S3KeyID = &v
	}
	if v := os.Getenv("SECRET"); v != "" {
		cfg.S3Secret = &v
	}
	if v := os.Getenv("ENDPOINT"); v != "" {
		cfg.S3Endpoint = &v
	}
	if v := os.Getenv("REGION"); v != "" {
		cfg.S3Region = &v
	}
	if v := os.Getenv("BUCKET"); v != "" {
		cfg.S3Bucket = &v
	}

	// CORS
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		cfg.CORSAllowedOrigins = origins
	}

	// Defaults
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.HotDBPath == "" {
		cfg.HotDBPath = "tierquery_hot.sqlite"
	}
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = 100
	}
	if cfg.RateLimitBurst == 0 {
		cfg.RateLimitBurst = 200
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}

	// Validation
	if cfg.HotWindowDays < 0 || cfg.ColdWindowDays < 0 {
		return nil, fmt.Errorf("retention windows must be non-negative (HOT_WINDOW_DAYS=%d COLD_WINDOW_DAYS=%d)", cfg.HotWindowDays, cfg.ColdWindowDays)
	}
	if cfg.HotWindowDays > cfg.ColdWindowDays {
		return nil, fmt.Errorf("HOT_WINDOW_DAYS (%d) must not exceed COLD_WINDOW_DAYS (%d)", cfg.HotWindowDays, cfg.ColdWindowDays)
	}
	if cfg.MaxRetries < 1 {
		return nil, fmt.Errorf("MAX_RETRIES must be at least 1, got %d", cfg.MaxRetries)
	}
	if cfg.DefaultPartitions < 1 {
		return nil, fmt.Errorf("DEFAULT_PARTITIONS must be positive, got %d", cfg.DefaultPartitions)
	}
	if !cfg.HasS3Config() {
		cfg.Warnings = append(cfg.Warnings, "S3 is not configured — cold-tier object access and layout verification are disabled")
	}

	// Production mode: permissive defaults are fatal errors.
	if cfg.IsProduction() {
		if len(cfg.CORSAllowedOrigins) == 1 && cfg.CORSAllowedOrigins[0] == "*" {
			return nil, fmt.Errorf("CORS wildcard (*) is not allowed in production (ENV=production)")
		}
	}

	return cfg, nil
}

func parseIntEnvDefault(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return n
}

// parseDurationEnvDefault accepts Go duration strings ("30s", "5m") and, for
// compatibility with older deployments, bare integers interpreted as seconds.
func parseDurationEnvDefault(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return defaultVal
}
