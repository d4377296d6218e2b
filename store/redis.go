package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"dexscreener_stream/models"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps records as JSON strings with a native Redis expiry. Every
// address written is also added to an index set so Keys can list entries
// whose value has already expired.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

var _ Store = (*RedisStore)(nil)

func (r *RedisStore) recordKey(address string) string { return r.prefix + "record:" + address }
func (r *RedisStore) indexKey() string { return r.prefix + "records" }

func (r *RedisStore) Get(ctx context.Context, address string) (models.Record, bool, error) {
	data, err := r.client.Get(ctx, r.recordKey(address)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.Record{}, false, nil
		}
		return models.Record{}, false, fmt.Errorf("%w: get %s: %v", ErrUnavailable, address, err)
	}

	var rec models.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return models.Record{}, false, fmt.Errorf("%w: %s: %v", ErrCorrupt, address, err)
	}
	return rec, true, nil
}

func (r *RedisStore) Put(ctx context.Context, address string, rec models.Record, ttl time.Duration) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.recordKey(address), data, ttl)
		pipe.SAdd(ctx, r.indexKey(), address)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: put %s: %v", ErrUnavailable, address, err)
	}
	return nil
}

func (r *RedisStore) Keys(ctx context.Context) ([]string, error) {
	keys, err := r.client.SMembers(ctx, r.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: keys: %v", ErrUnavailable, err)
	}
	sort.Strings(keys)
	return keys, nil
}

// Ping is used by the health check.
func (r *RedisStore) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
