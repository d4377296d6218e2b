// Package store holds the last known Record of every token together with a
// freshness deadline.
package store

import (
	"context"
	"errors"
	"time"

	"dexscreener_stream/models"
)

var (
	// ErrUnavailable wraps any failure to reach the cache backend.
	ErrUnavailable = errors.New("cache unavailable")
	// ErrCorrupt is returned when a stored value cannot be decoded.
	ErrCorrupt = errors.New("cache entry corrupt")
)

// Store is safe for concurrent use.
//
// Get reports ok only while the entry is fresh. Expired entries are not
// evicted; they stay listed by Keys until overwritten.
type Store interface {
	Get(ctx context.Context, address string) (models.Record, bool, error)
	Put(ctx context.Context, address string, rec models.Record, ttl time.Duration) error
	Keys(ctx context.Context) ([]string, error)
}
