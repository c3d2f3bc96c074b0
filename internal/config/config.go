package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Dairy     DairyAPIConfig
	Cache     CacheConfig
	Poller    PollerConfig
	Reconcile ReconcileConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// DairyAPIConfig contains the upstream dairy API endpoint and credentials.
type DairyAPIConfig struct {
	BaseURL     string
	Token       string
	Timeout     time.Duration
	ReadRetries int
}

// CacheConfig controls the read cache windows and the optional Redis backend.
// An empty RedisAddr selects the in-process store.
type CacheConfig struct {
	RedisAddr string
	RedisDB   int
	Freshness time.Duration
	Retention time.Duration
}

// PollerConfig bounds the PDF availability polling loop.
type PollerConfig struct {
	Interval    time.Duration
	MaxAttempts int
}

// ReconcileConfig holds the payment reconciliation sweep schedule.
type ReconcileConfig struct {
	CronSchedule string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env files are acceptable when configuration comes from the
		// environment directly.
		_ = godotenv.Load()
	}

	env := new(envReader)
	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Dairy: DairyAPIConfig{
			BaseURL:     os.Getenv("DAIRY_API_BASE_URL"),
			Token:       os.Getenv("DAIRY_API_TOKEN"),
			Timeout:     env.duration("DAIRY_API_TIMEOUT", 15*time.Second),
			ReadRetries: env.integer("DAIRY_API_READ_RETRIES", 2),
		},
		Cache: CacheConfig{
			RedisAddr: os.Getenv("REDIS_ADDR"),
			RedisDB:   env.integer("REDIS_DB", 0),
			Freshness: env.duration("CACHE_FRESHNESS_WINDOW", 30*time.Second),
			Retention: env.duration("CACHE_RETENTION_WINDOW", 5*time.Minute),
		},
		Poller: PollerConfig{
			Interval:    env.duration("PDF_POLL_INTERVAL", 3*time.Second),
			MaxAttempts: env.integer("PDF_POLL_MAX_ATTEMPTS", 10),
		},
		Reconcile: ReconcileConfig{
			CronSchedule: getenvWithDefault("RECONCILE_CRON_SCHEDULE", "*/5 * * * *"),
		},
	}
	if env.err != nil {
		return nil, env.err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated and the
// tunables stay in a sane range.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch {
	case c.Dairy.BaseURL == "":
		return errors.New("DAIRY_API_BASE_URL must be provided")
	case c.Dairy.Token == "":
		return errors.New("DAIRY_API_TOKEN must be provided")
	}

	if c.Dairy.Timeout <= 0 {
		return errors.New("DAIRY_API_TIMEOUT must be positive")
	}
	if c.Dairy.ReadRetries < 0 {
		return errors.New("DAIRY_API_READ_RETRIES must not be negative")
	}

	if c.Cache.Freshness <= 0 || c.Cache.Retention <= 0 {
		return errors.New("cache windows must be positive")
	}
	if c.Cache.Retention < c.Cache.Freshness {
		return errors.New("CACHE_RETENTION_WINDOW must not be shorter than CACHE_FRESHNESS_WINDOW")
	}

	if c.Poller.Interval <= 0 {
		return errors.New("PDF_POLL_INTERVAL must be positive")
	}
	if c.Poller.MaxAttempts < 1 {
		return errors.New("PDF_POLL_MAX_ATTEMPTS must be at least 1")
	}

	if c.Reconcile.CronSchedule == "" {
		return errors.New("RECONCILE_CRON_SCHEDULE must be provided")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// envReader parses optional environment overrides, remembering the first
// malformed value so Load rejects it instead of silently using a default.
type envReader struct {
	err error
}

func (r *envReader) duration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		r.fail(fmt.Errorf("%s: invalid duration %q", key, value))
		return fallback
	}
	return parsed
}

func (r *envReader) integer(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		r.fail(fmt.Errorf("%s: invalid integer %q", key, value))
		return fallback
	}
	return parsed
}

func (r *envReader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}
