package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bms/backend/internal/domain/collection"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const stageCacheKey = "collection:active_stages"

// RedisStageCache caches the active collection stages in Redis so every
// instance sees the same configuration and invalidations propagate.
type RedisStageCache struct {
	client *redis.Client
	repo   collection.StageRepository
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisStageCache creates a RedisStageCache with an existing Redis client.
// The caller retains ownership of the client and is responsible for closing it.
func NewRedisStageCache(client *redis.Client, repo collection.StageRepository, ttl time.Duration, logger *zap.Logger) *RedisStageCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStageCache{client: client, repo: repo, ttl: ttl, logger: logger}
}

// ActiveStages returns the active stages, reading through to the repository
// on a cache miss. Cache failures degrade to a repository read rather than
// failing the caller.
func (c *RedisStageCache) ActiveStages(ctx context.Context) ([]*collection.CollectionStage, error) {
	data, err := c.client.Get(ctx, stageCacheKey).Bytes()
	if err == nil {
		var stages []*collection.CollectionStage
		if jsonErr := json.Unmarshal(data, &stages); jsonErr == nil {
			return stages, nil
		}
		// Corrupted entry; drop it and fall through to the repository
		_ = c.client.Del(ctx, stageCacheKey)
	} else if err != redis.Nil {
		c.logger.Warn("stage cache read failed, falling back to database", zap.Error(err))
	}

	stages, err := c.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(stages); err == nil {
		if err := c.client.Set(ctx, stageCacheKey, data, c.ttl).Err(); err != nil {
			c.logger.Warn("stage cache write failed", zap.Error(err))
		}
	}

	return stages, nil
}

// Invalidate removes the cached stage list.
func (c *RedisStageCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, stageCacheKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate stage cache: %w", err)
	}
	return nil
}
