package cache

import (
	"context"
	"sync"
	"time"

	"github.com/bms/backend/internal/domain/collection"
)

// MemoryStageCache caches the active collection stages in process memory
// with a TTL. Suitable for single-instance deployments; a multi-instance
// deployment should use the Redis cache so invalidations are shared.
type MemoryStageCache struct {
	repo collection.StageRepository
	ttl  time.Duration

	mu        sync.RWMutex
	stages    []*collection.CollectionStage
	fetchedAt time.Time
}

// NewMemoryStageCache creates a MemoryStageCache backed by the given repository.
func NewMemoryStageCache(repo collection.StageRepository, ttl time.Duration) *MemoryStageCache {
	return &MemoryStageCache{repo: repo, ttl: ttl}
}

// ActiveStages returns the active stages, refreshing from the repository
// when the cached copy has expired.
func (c *MemoryStageCache) ActiveStages(ctx context.Context) ([]*collection.CollectionStage, error) {
	c.mu.RLock()
	if c.stages != nil && time.Since(c.fetchedAt) < c.ttl {
		stages := c.stages
		c.mu.RUnlock()
		return stages, nil
	}
	c.mu.RUnlock()

	stages, err := c.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.stages = stages
	c.fetchedAt = time.Now()
	c.mu.Unlock()

	return stages, nil
}

// Invalidate drops the cached copy so the next read hits the repository.
func (c *MemoryStageCache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	c.stages = nil
	c.mu.Unlock()
	return nil
}
