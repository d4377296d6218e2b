package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dexscreener_stream/api"
	"dexscreener_stream/config"
	"dexscreener_stream/dexscreener"
	"dexscreener_stream/fetcher"
	"dexscreener_stream/monitoring"
	"dexscreener_stream/store"
	"dexscreener_stream/utils"
	"dexscreener_stream/ws"

	"github.com/cenkalti/backoff/v4"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(cfg.App.LogLevel, cfg.App.LogDir)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		utils.Error(err, "Server exited with error")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) error {
	health := monitoring.NewRegistry()

	var rdb *redis.Client
	if cfg.Cache.Backend == config.CacheBackendRedis || cfg.Upstream.RateLimiter == config.RateLimiterRedis {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		waitForRedis(ctx, rdb, cfg.Redis.ConnectTimeout, logger)
	}

	// Record store
	var records store.Store
	switch cfg.Cache.Backend {
	case config.CacheBackendMemory:
		records = store.NewMemoryStore()
	case config.CacheBackendRedis:
		redisStore := store.NewRedisStore(rdb, cfg.Redis.KeyPrefix)
		health.Register("cache", redisStore.Ping)
		records = redisStore
	default:
		return fmt.Errorf("unsupported cache backend %q", cfg.Cache.Backend)
	}

	// Upstream client
	var limiter dexscreener.Limiter = dexscreener.NewLocalLimiter(cfg.Upstream.RatePerMinute)
	if cfg.Upstream.RateLimiter == config.RateLimiterRedis {
		limiter = dexscreener.NewRedisLimiter(rdb, cfg.Redis.KeyPrefix+"ratelimit:upstream", cfg.Upstream.RatePerMinute, logger)
	}
	upstream := dexscreener.NewClient(dexscreener.Options{
		BaseURL: cfg.Upstream.BaseURL,
		Timeout: cfg.Upstream.Timeout,
		Limiter: limiter,
		Logger:  logger,
	})
	health.Register("upstream", upstream.Health)

	f := fetcher.New(records, upstream, cfg.Cache.TTL, cfg.Upstream.DefaultQuery, logger)

	hub := ws.NewHub(f, ws.Options{
		Period:       cfg.Stream.Period,
		WriteTimeout: cfg.Stream.WriteTimeout,
		Heartbeat:    cfg.Stream.Heartbeat,
		Logger:       logger,
	})

	handler := api.NewHandler(f, hub.ServeWS, health, logger)
	server := &http.Server{
		Addr:              cfg.App.HTTPAddr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	monitoring.StartMetricsCollection(ctx, 5*time.Second)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Infow("HTTP server starting",
			"addr", cfg.App.HTTPAddr,
			"cache", cfg.Cache.Backend,
			"ttl", cfg.Cache.TTL,
			"period", cfg.Stream.Period)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Infow("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()

		// Streaming connections are hijacked, so the server does not track them.
		if err := hub.Shutdown(shutdownCtx); err != nil {
			logger.Warnw("Streaming sessions did not stop in time", "error", err)
		}
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// waitForRedis pings with exponential backoff. Giving up is not fatal: the
// cache is optional and every request degrades to the upstream.
func waitForRedis(ctx context.Context, rdb *redis.Client, budget time.Duration, logger *zap.SugaredLogger) {
	operation := func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		return rdb.Ping(pingCtx).Err()
	}

	retry := backoff.WithContext(utils.NewExponentialBackoff(budget), ctx)
	err := backoff.RetryNotify(operation, retry, func(err error, d time.Duration) {
		logger.Warnw("Redis not reachable, retrying", "error", err, "retry_in", d)
	})
	if err != nil {
		logger.Errorw("Redis unreachable, continuing without a working cache", "error", err)
		return
	}
	logger.Infow("Redis connected")
}
