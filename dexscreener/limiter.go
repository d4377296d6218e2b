package dexscreener

import (
	"context"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Limiter blocks until one more upstream request fits the budget.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Unlimited never waits.
type Unlimited struct{}

func (Unlimited) Wait(ctx context.Context) error { return ctx.Err() }

// LocalLimiter enforces the budget inside one process.
type LocalLimiter struct {
	limiter *rate.Limiter
}

func NewLocalLimiter(perMinute int) *LocalLimiter {
	return &LocalLimiter{
		limiter: rate.NewLimiter(rate.Limit(float64(perMinute)/60), burstFor(perMinute)),
	}
}

func (l *LocalLimiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// RedisLimiter shares the budget between every instance using the same
// Redis key. When Redis cannot answer it falls back to a local limiter.
type RedisLimiter struct {
	limiter  *redis_rate.Limiter
	key      string
	limit    redis_rate.Limit
	fallback *LocalLimiter
	log      *zap.SugaredLogger
}

func NewRedisLimiter(rdb *redis.Client, key string, perMinute int, log *zap.SugaredLogger) *RedisLimiter {
	return &RedisLimiter{
		limiter: redis_rate.NewLimiter(rdb),
		key:     key,
		limit: redis_rate.Limit{
			Rate:   perMinute,
			Period: time.Minute,
			Burst:  burstFor(perMinute),
		},
		fallback: NewLocalLimiter(perMinute),
		log:      log,
	}
}

func (r *RedisLimiter) Wait(ctx context.Context) error {
	for {
		res, err := r.limiter.Allow(ctx, r.key, r.limit)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.log.Warnw("Shared rate limiter unavailable, using local budget", "error", err)
			return r.fallback.Wait(ctx)
		}
		if res.Allowed > 0 {
			return nil
		}

		timer := time.NewTimer(res.RetryAfter)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func burstFor(perMinute int) int {
	if b := perMinute / 60; b > 1 {
		return b
	}
	return 1
}
