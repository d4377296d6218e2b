package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App struct {
		Environment     string
		LogLevel        string
		LogDir          string
		HTTPAddr        string
		ShutdownTimeout time.Duration
	}

	Cache struct {
		Backend string
		TTL     time.Duration
	}

	Redis struct {
		Addr           string
		Password       string
		DB             int
		KeyPrefix      string
		ConnectTimeout time.Duration
	}

	Upstream struct {
		BaseURL       string
		Timeout       time.Duration
		DefaultQuery  string
		RatePerMinute int
		RateLimiter   string
	}

	Stream struct {
		Period       time.Duration
		WriteTimeout time.Duration
		Heartbeat    time.Duration
	}
}

const (
	CacheBackendRedis  = "redis"
	CacheBackendMemory = "memory"

	RateLimiterLocal = "local"
	RateLimiterRedis = "redis"
)

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	// App settings
	cfg.App.Environment = getEnvOrDefault("APP_ENV", "production")
	cfg.App.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")
	cfg.App.LogDir = getEnvOrDefault("LOG_DIR", "logs")
	cfg.App.HTTPAddr = getEnvOrDefault("HTTP_ADDR", ":8000")
	cfg.App.ShutdownTimeout = getEnvAsSecondsOrDefault("SHUTDOWN_TIMEOUT_SECS", 15)

	// Cache settings
	cfg.Cache.Backend = strings.ToLower(getEnvOrDefault("CACHE_BACKEND", CacheBackendRedis))
	cfg.Cache.TTL = getEnvAsSecondsOrDefault("CACHE_TTL_SECS", 30)

	// Redis settings
	cfg.Redis.Addr = getEnvOrDefault("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")
	cfg.Redis.DB = getEnvAsIntOrDefault("REDIS_DB", 0)
	cfg.Redis.KeyPrefix = getEnvOrDefault("REDIS_KEY_PREFIX", "tokens:")
	cfg.Redis.ConnectTimeout = getEnvAsSecondsOrDefault("REDIS_CONNECT_TIMEOUT_SECS", 30)

	// Upstream settings
	cfg.Upstream.BaseURL = getEnvOrDefault("UPSTREAM_BASE_URL", "https://api.dexscreener.com")
	cfg.Upstream.Timeout = getEnvAsSecondsOrDefault("UPSTREAM_TIMEOUT_SECS", 10)
	cfg.Upstream.DefaultQuery = getEnvOrDefault("UPSTREAM_DEFAULT_QUERY", "solana")
	cfg.Upstream.RatePerMinute = getEnvAsIntOrDefault("UPSTREAM_RATE_PER_MINUTE", 300)
	cfg.Upstream.RateLimiter = strings.ToLower(getEnvOrDefault("UPSTREAM_RATE_LIMITER", RateLimiterLocal))

	// Stream settings
	cfg.Stream.Period = getEnvAsSecondsOrDefault("BROADCAST_PERIOD_SECS", 10)
	cfg.Stream.WriteTimeout = getEnvAsSecondsOrDefault("WS_WRITE_TIMEOUT_SECS", 10)
	cfg.Stream.Heartbeat = getEnvAsSecondsOrDefault("WS_HEARTBEAT_SECS", 30)

	if cfg.Upstream.RatePerMinute <= 0 {
		cfg.Upstream.RatePerMinute = 300
	}

	switch cfg.Cache.Backend {
	case CacheBackendRedis, CacheBackendMemory:
	default:
		return nil, fmt.Errorf("invalid CACHE_BACKEND %q: must be %q or %q",
			cfg.Cache.Backend, CacheBackendRedis, CacheBackendMemory)
	}
	switch cfg.Upstream.RateLimiter {
	case RateLimiterLocal, RateLimiterRedis:
	default:
		return nil, fmt.Errorf("invalid UPSTREAM_RATE_LIMITER %q: must be %q or %q",
			cfg.Upstream.RateLimiter, RateLimiterLocal, RateLimiterRedis)
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvAsSecondsOrDefault ignores non-positive values.
func getEnvAsSecondsOrDefault(key string, defaultSecs int) time.Duration {
	secs := getEnvAsIntOrDefault(key, defaultSecs)
	if secs <= 0 {
		secs = defaultSecs
	}
	return time.Duration(secs) * time.Second
}
