package redis

import (
	"context"
	"time"

	"github.com/wonny/optiondesk/internal/contracts"
)

// SnapshotStore caches published ticker snapshots.
// Implements contracts.SnapshotCache.
type SnapshotStore struct {
	cache *Cache
	ttl   time.Duration
}

// NewSnapshotStore creates a snapshot store on top of the cache helper
func NewSnapshotStore(cache *Cache, ttl time.Duration) *SnapshotStore {
	if ttl <= 0 {
		ttl = TTLSnapshot
	}
	return &SnapshotStore{cache: cache, ttl: ttl}
}

// GetSnapshot returns the cached snapshot for symbol, if any
func (s *SnapshotStore) GetSnapshot(ctx context.Context, symbol string) (*contracts.TickerSnapshot, bool, error) {
	var snapshot contracts.TickerSnapshot
	found, err := s.cache.Get(ctx, SnapshotKey(symbol), &snapshot)
	if err != nil || !found {
		return nil, false, err
	}
	return &snapshot, true, nil
}

// SetSnapshot stores a snapshot under its symbol
func (s *SnapshotStore) SetSnapshot(ctx context.Context, snapshot *contracts.TickerSnapshot) error {
	return s.cache.Set(ctx, SnapshotKey(snapshot.Symbol), snapshot, s.ttl)
}

// Invalidate drops the cached snapshot for symbol
func (s *SnapshotStore) Invalidate(ctx context.Context, symbol string) error {
	return s.cache.Delete(ctx, SnapshotKey(symbol))
}
