package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"dexscreener_stream/models"
)

type entry struct {
	record    models.Record
	expiresAt time.Time
}

// MemoryStore keeps entries in a process-local map.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// WithClock replaces the wall clock, for tests.
func (m *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	m.now = now
	return m
}

var _ Store = (*MemoryStore)(nil)

func (m *MemoryStore) Get(ctx context.Context, address string) (models.Record, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[address]
	if !ok || !m.now().Before(e.expiresAt) {
		return models.Record{}, false, nil
	}
	return e.record, true, nil
}

func (m *MemoryStore) Put(ctx context.Context, address string, rec models.Record, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[address] = entry{record: rec, expiresAt: m.now().Add(ttl)}
	return nil
}

func (m *MemoryStore) Keys(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	m.mu.RUnlock()

	sort.Strings(keys)
	return keys, nil
}

// ExpiresAt returns the deadline of an entry, fresh or not.
func (m *MemoryStore) ExpiresAt(address string) (time.Time, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[address]
	return e.expiresAt, ok
}
