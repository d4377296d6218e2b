// Package fetcher reads token records cache-aside: the store is consulted
// first and the upstream feed only on a miss.
package fetcher

import (
	"context"
	"time"

	"dexscreener_stream/metrics"
	"dexscreener_stream/models"
	"dexscreener_stream/store"

	"go.uber.org/zap"
)

// Upstream is the subset of the feed client the fetcher needs.
type Upstream interface {
	FetchOne(ctx context.Context, address string) (models.Record, error)
	FetchAll(ctx context.Context, query string) ([]models.Record, error)
}

type Fetcher struct {
	store    store.Store
	upstream Upstream
	ttl      time.Duration
	query    string
	log      *zap.SugaredLogger
}

func New(s store.Store, upstream Upstream, ttl time.Duration, query string, log *zap.SugaredLogger) *Fetcher {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Fetcher{
		store:    s,
		upstream: upstream,
		ttl:      ttl,
		query:    query,
		log:      log,
	}
}

// GetOne returns a fresh cached record without touching the network, or
// fetches, caches and returns it. Upstream errors are returned as is; stale
// cache data is never served in their place.
//
// Cache failures only cost the caching: a failed read is treated as a miss
// and a failed write is logged.
func (f *Fetcher) GetOne(ctx context.Context, address string) (models.Record, error) {
	rec, ok, err := f.store.Get(ctx, address)
	switch {
	case err != nil:
		metrics.CacheLookup(metrics.CacheError)
		f.log.Warnw("Cache read failed, going upstream", "address", address, "error", err)
	case ok:
		metrics.CacheLookup(metrics.CacheHit)
		return rec, nil
	default:
		metrics.CacheLookup(metrics.CacheMiss)
	}

	rec, err = f.upstream.FetchOne(ctx, address)
	if err != nil {
		return models.Record{}, err
	}

	f.put(ctx, address, rec)
	return rec, nil
}

// GetAll always asks the upstream for the default market query and
// refreshes the cache with every result.
func (f *Fetcher) GetAll(ctx context.Context) ([]models.Record, error) {
	records, err := f.upstream.FetchAll(ctx, f.query)
	if err != nil {
		return nil, err
	}

	for _, rec := range records {
		f.put(ctx, rec.Address, rec)
	}
	return records, nil
}

func (f *Fetcher) put(ctx context.Context, address string, rec models.Record) {
	if err := f.store.Put(ctx, address, rec, f.ttl); err != nil {
		metrics.CacheWriteError()
		f.log.Warnw("Cache write failed", "address", address, "error", err)
	}
}
