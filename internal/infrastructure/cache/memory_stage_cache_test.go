package cache

import (
	"context"
	"testing"
	"time"

	"github.com/bms/backend/internal/domain/collection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStageRepository counts ListActive calls so tests can observe
// whether a read hit the cache or the repository.
type countingStageRepository struct {
	collection.StageRepository
	stages []*collection.CollectionStage
	calls  int
}

func (r *countingStageRepository) ListActive(_ context.Context) ([]*collection.CollectionStage, error) {
	r.calls++
	return r.stages, nil
}

func activeStage(t *testing.T, number, daysOverdue int) *collection.CollectionStage {
	t.Helper()
	stage, err := collection.NewCollectionStage(number, "Reminder", daysOverdue, collection.ActionTypeEmailReminder, "")
	require.NoError(t, err)
	return stage
}

func TestMemoryStageCache_ActiveStages(t *testing.T) {
	t.Run("serves repeated reads from cache", func(t *testing.T) {
		repo := &countingStageRepository{stages: []*collection.CollectionStage{activeStage(t, 1, 15)}}
		c := NewMemoryStageCache(repo, time.Minute)

		first, err := c.ActiveStages(context.Background())
		require.NoError(t, err)
		second, err := c.ActiveStages(context.Background())
		require.NoError(t, err)

		assert.Len(t, first, 1)
		assert.Len(t, second, 1)
		assert.Equal(t, 1, repo.calls)
	})

	t.Run("refreshes after TTL expiry", func(t *testing.T) {
		repo := &countingStageRepository{stages: []*collection.CollectionStage{activeStage(t, 1, 15)}}
		c := NewMemoryStageCache(repo, time.Nanosecond)

		_, err := c.ActiveStages(context.Background())
		require.NoError(t, err)
		time.Sleep(time.Millisecond)
		_, err = c.ActiveStages(context.Background())
		require.NoError(t, err)

		assert.Equal(t, 2, repo.calls)
	})
}

func TestMemoryStageCache_Invalidate(t *testing.T) {
	t.Run("forces the next read through to the repository", func(t *testing.T) {
		repo := &countingStageRepository{stages: []*collection.CollectionStage{activeStage(t, 1, 15)}}
		c := NewMemoryStageCache(repo, time.Hour)

		_, err := c.ActiveStages(context.Background())
		require.NoError(t, err)
		require.NoError(t, c.Invalidate(context.Background()))

		stages, err := c.ActiveStages(context.Background())
		require.NoError(t, err)

		assert.Len(t, stages, 1)
		assert.Equal(t, 2, repo.calls)
	})
}

func TestMemoryStageCache_ReflectsRepositoryChanges(t *testing.T) {
	t.Run("new stage visible after invalidation", func(t *testing.T) {
		repo := &countingStageRepository{stages: []*collection.CollectionStage{activeStage(t, 1, 15)}}
		c := NewMemoryStageCache(repo, time.Hour)

		stages, err := c.ActiveStages(context.Background())
		require.NoError(t, err)
		require.Len(t, stages, 1)

		repo.stages = append(repo.stages, activeStage(t, 2, 30))

		// Still cached
		stages, err = c.ActiveStages(context.Background())
		require.NoError(t, err)
		assert.Len(t, stages, 1)

		require.NoError(t, c.Invalidate(context.Background()))
		stages, err = c.ActiveStages(context.Background())
		require.NoError(t, err)
		assert.Len(t, stages, 2)
	})
}
