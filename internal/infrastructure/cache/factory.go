package cache

import (
	"context"
	"fmt"
	"time"

	appcollection "github.com/bms/backend/internal/application/collection"
	"github.com/bms/backend/internal/domain/collection"
	"github.com/bms/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// StageCache combines the read and invalidation sides of the stage cache.
type StageCache interface {
	appcollection.StageProvider
	appcollection.StageCacheInvalidator
}

// NewStageCache creates the stage cache selected by configuration.
// Backend "redis" connects to the configured Redis instance and falls back
// to the in-memory cache when Redis is unreachable; anything else uses the
// in-memory cache directly.
func NewStageCache(cfg config.Config, repo collection.StageRepository, logger *zap.Logger) StageCache {
	if cfg.Cache.Backend != "redis" {
		return NewMemoryStageCache(repo, cfg.Cache.TTL)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis unavailable, falling back to in-memory stage cache. "+
			"Stage invalidations will not propagate across instances.",
			zap.Error(err),
		)
		_ = client.Close()
		return NewMemoryStageCache(repo, cfg.Cache.TTL)
	}

	logger.Info("using Redis stage cache")
	return NewRedisStageCache(client, repo, cfg.Cache.TTL, logger)
}

// Ensure both implementations satisfy StageCache
var (
	_ StageCache = (*MemoryStageCache)(nil)
	_ StageCache = (*RedisStageCache)(nil)
)
