package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"CACHE_TTL_SECS", "BROADCAST_PERIOD_SECS", "UPSTREAM_TIMEOUT_SECS", "CACHE_BACKEND"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Cache.TTL != 30*time.Second {
		t.Errorf("expected ttl 30s, got %v", cfg.Cache.TTL)
	}
	if cfg.Stream.Period != 10*time.Second {
		t.Errorf("expected period 10s, got %v", cfg.Stream.Period)
	}
	if cfg.Upstream.Timeout != 10*time.Second {
		t.Errorf("expected upstream timeout 10s, got %v", cfg.Upstream.Timeout)
	}
	if cfg.Cache.Backend != CacheBackendRedis {
		t.Errorf("expected redis backend, got %q", cfg.Cache.Backend)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CACHE_TTL_SECS", "5")
	t.Setenv("BROADCAST_PERIOD_SECS", "2")
	t.Setenv("UPSTREAM_TIMEOUT_SECS", "not-a-number")
	t.Setenv("WS_HEARTBEAT_SECS", "-4")
	t.Setenv("CACHE_BACKEND", CacheBackendMemory)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Cache.TTL != 5*time.Second {
		t.Errorf("expected ttl 5s, got %v", cfg.Cache.TTL)
	}
	if cfg.Stream.Period != 2*time.Second {
		t.Errorf("expected period 2s, got %v", cfg.Stream.Period)
	}
	if cfg.Upstream.Timeout != 10*time.Second {
		t.Errorf("invalid value should fall back to 10s, got %v", cfg.Upstream.Timeout)
	}
	if cfg.Stream.Heartbeat != 30*time.Second {
		t.Errorf("negative value should fall back to 30s, got %v", cfg.Stream.Heartbeat)
	}
	if cfg.Cache.Backend != CacheBackendMemory {
		t.Errorf("expected memory backend, got %q", cfg.Cache.Backend)
	}
}

func TestLoadNormalisesBackendCase(t *testing.T) {
	t.Setenv("CACHE_BACKEND", "Redis")
	t.Setenv("UPSTREAM_RATE_LIMITER", "LOCAL")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Cache.Backend != CacheBackendRedis {
		t.Errorf("expected redis backend, got %q", cfg.Cache.Backend)
	}
	if cfg.Upstream.RateLimiter != RateLimiterLocal {
		t.Errorf("expected local limiter, got %q", cfg.Upstream.RateLimiter)
	}
}

func TestLoadRejectsUnknownBackends(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"cache backend typo", "CACHE_BACKEND", "redsi"},
		{"unknown cache backend", "CACHE_BACKEND", "memcached"},
		{"unknown rate limiter", "UPSTREAM_RATE_LIMITER", "global"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CACHE_BACKEND", "")
			t.Setenv("UPSTREAM_RATE_LIMITER", "")
			t.Setenv(tt.key, tt.value)

			cfg, err := Load()
			if err == nil {
				t.Fatalf("expected error for %s=%q, got config %+v", tt.key, tt.value, cfg)
			}
			if !strings.Contains(err.Error(), tt.key) {
				t.Errorf("expected error to name %s, got %v", tt.key, err)
			}
		})
	}
}
