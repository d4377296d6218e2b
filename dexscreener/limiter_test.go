package dexscreener

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLocalLimiter(t *testing.T) {
	l := NewLocalLimiter(60)

	if err := l.Wait(context.Background()); err != nil {
		t.Fatalf("first wait should pass: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx); err == nil {
		t.Error("second wait within the same second should exceed the deadline")
	}
}

func TestBurstFor(t *testing.T) {
	if got := burstFor(300); got != 5 {
		t.Errorf("expected burst 5, got %d", got)
	}
	if got := burstFor(10); got != 1 {
		t.Errorf("expected burst 1, got %d", got)
	}
}

func TestUnlimitedHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := (Unlimited{}).Wait(ctx); err == nil {
		t.Error("expected cancelled context error")
	}
}

func TestRedisLimiterFallsBackToLocal(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	mr.Close()

	core, logs := observer.New(zap.WarnLevel)
	l := NewRedisLimiter(rdb, "tokens:ratelimit:upstream", 60, zap.New(core).Sugar())

	if err := l.Wait(context.Background()); err != nil {
		t.Fatalf("first wait should pass on the local budget: %v", err)
	}
	if logs.FilterMessage("Shared rate limiter unavailable, using local budget").Len() != 1 {
		t.Errorf("expected a fallback warning, got %v", logs.All())
	}

	// The local budget of one request per second is now spent.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx); err == nil {
		t.Error("second wait within the same second should exceed the deadline")
	}
}

func TestRedisLimiterHonoursCancellation(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	mr.Close()

	l := NewRedisLimiter(rdb, "tokens:ratelimit:upstream", 60, zap.NewNop().Sugar())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.Wait(ctx); err == nil {
		t.Error("expected cancelled context error")
	}
}
