// Package cache keeps published snapshots in process memory.
// REDIS_ENABLED=false 일 때 pkg/redis SnapshotStore 대신 사용
package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/wonny/optiondesk/internal/contracts"
	"github.com/wonny/optiondesk/pkg/logger"
)

var _ contracts.SnapshotCache = (*SnapshotCache)(nil)

// SnapshotCache is an in-memory TTL cache of ticker snapshots
// ⭐ SSOT: 프로세스 내 스냅샷 캐싱은 이 구조체에서만
type SnapshotCache struct {
	mu        sync.RWMutex
	snapshots map[string]*contracts.TickerSnapshot
	ttl       time.Duration
	now       func() time.Time
	logger    *logger.Logger
}

// NewSnapshotCache creates a new snapshot cache
func NewSnapshotCache(ttl time.Duration, log *logger.Logger) *SnapshotCache {
	return &SnapshotCache{
		snapshots: make(map[string]*contracts.TickerSnapshot),
		ttl:       ttl,
		now:       time.Now,
		logger:    log,
	}
}

// WithClock overrides the clock used for staleness (tests)
func (c *SnapshotCache) WithClock(now func() time.Time) *SnapshotCache {
	c.now = now
	return c
}

func (c *SnapshotCache) isStale(s *contracts.TickerSnapshot) bool {
	return c.now().Sub(s.GeneratedAt) > c.ttl
}

// GetSnapshot returns a fresh snapshot; stale entries count as a miss
func (c *SnapshotCache) GetSnapshot(ctx context.Context, symbol string) (*contracts.TickerSnapshot, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snapshot, exists := c.snapshots[strings.ToUpper(symbol)]
	if !exists || c.isStale(snapshot) {
		return nil, false, nil
	}
	return snapshot, true, nil
}

// SetSnapshot stores a snapshot.
// 이미 더 최신 스냅샷이 있으면 무시 (동시 Refresh 경합)
func (c *SnapshotCache) SetSnapshot(ctx context.Context, snapshot *contracts.TickerSnapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := strings.ToUpper(snapshot.Symbol)
	if existing, exists := c.snapshots[key]; exists && snapshot.GeneratedAt.Before(existing.GeneratedAt) {
		c.logger.WithFields(map[string]interface{}{
			"symbol":   key,
			"new_time": snapshot.GeneratedAt,
			"old_time": existing.GeneratedAt,
		}).Debug("Rejected older snapshot")
		return nil
	}

	c.snapshots[key] = snapshot
	return nil
}

// Delete removes a symbol from cache
func (c *SnapshotCache) Delete(symbol string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.snapshots, strings.ToUpper(symbol))
}

// Len returns the number of snapshots in cache
func (c *SnapshotCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.snapshots)
}

// CleanStale removes stale snapshots from cache
func (c *SnapshotCache) CleanStale() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for symbol, snapshot := range c.snapshots {
		if c.isStale(snapshot) {
			delete(c.snapshots, symbol)
			count++
		}
	}

	if count > 0 {
		c.logger.WithField("count", count).Info("Cleaned stale snapshots from cache")
	}

	return count
}

// Stats returns cache statistics
func (c *SnapshotCache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := Stats{TotalCount: len(c.snapshots)}
	for _, snapshot := range c.snapshots {
		if c.isStale(snapshot) {
			stats.StaleCount++
		}
		stats.ContractCount += len(snapshot.Chain)
	}
	stats.FreshCount = stats.TotalCount - stats.StaleCount

	return stats
}

// Stats represents cache statistics
type Stats struct {
	TotalCount    int `json:"total_count"`
	FreshCount    int `json:"fresh_count"`
	StaleCount    int `json:"stale_count"`
	ContractCount int `json:"contract_count"`
}
