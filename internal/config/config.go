package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Header table attached to every fetch, see LoadHeaders.
	HeadersFile string

	// Fetching
	FetchTimeout   time.Duration
	FetchMaxBytes  int64
	FetchUserAgent string

	// Build workers
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("WEBINCLUDE_API_KEY"),

		HeadersFile: os.Getenv("WEBINCLUDE_HEADERS_FILE"),

		FetchTimeout:   envDuration("FETCH_TIMEOUT", 30*time.Second),
		FetchMaxBytes:  envInt64("FETCH_MAX_BYTES", 10<<20),
		FetchUserAgent: envOr("FETCH_USER_AGENT", "webinclude/1.0"),

		WorkerCount:  envInt("WORKER_COUNT", 4),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 50<<20),

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),
	}

	if cfg.FetchTimeout < 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 50 << 20
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

// Validate checks the settings the HTTP server cannot run without.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("WEBINCLUDE_API_KEY is required")
	}
	if c.HeadersFile != "" {
		if _, err := os.Stat(c.HeadersFile); err != nil {
			return fmt.Errorf("WEBINCLUDE_HEADERS_FILE: %w", err)
		}
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
