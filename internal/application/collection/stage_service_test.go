package collection

import (
	"context"
	"testing"

	"github.com/bms/backend/internal/domain/collection"
	"github.com/bms/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockStageRepository struct {
	mock.Mock
}

func (m *MockStageRepository) Save(ctx context.Context, stage *collection.CollectionStage) error {
	args := m.Called(ctx, stage)
	return args.Error(0)
}

func (m *MockStageRepository) FindByID(ctx context.Context, id uuid.UUID) (*collection.CollectionStage, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*collection.CollectionStage), args.Error(1)
}

func (m *MockStageRepository) FindByStageNumber(ctx context.Context, stageNumber int) (*collection.CollectionStage, error) {
	args := m.Called(ctx, stageNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*collection.CollectionStage), args.Error(1)
}

func (m *MockStageRepository) List(ctx context.Context) ([]*collection.CollectionStage, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*collection.CollectionStage), args.Error(1)
}

func (m *MockStageRepository) ListActive(ctx context.Context) ([]*collection.CollectionStage, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*collection.CollectionStage), args.Error(1)
}

func (m *MockStageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockStageCache struct {
	mock.Mock
}

func (m *MockStageCache) Invalidate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func TestStageService_CreateStage(t *testing.T) {
	t.Run("creates and invalidates cache", func(t *testing.T) {
		stageRepo := new(MockStageRepository)
		cache := new(MockStageCache)
		stageRepo.On("FindByStageNumber", mock.Anything, 1).Return(nil, nil)
		stageRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
		cache.On("Invalidate", mock.Anything).Return(nil)

		svc := NewStageService(stageRepo, cache, zap.NewNop())
		resp, err := svc.CreateStage(context.Background(), CreateStageRequest{
			StageNumber: 1,
			Name:        "First reminder",
			DaysOverdue: 15,
			ActionType:  "email_reminder",
		})
		require.NoError(t, err)
		assert.Equal(t, 1, resp.StageNumber)
		assert.True(t, resp.IsActive)
		cache.AssertExpectations(t)
	})

	t.Run("duplicate stage number", func(t *testing.T) {
		stageRepo := new(MockStageRepository)
		existing, err := collection.NewCollectionStage(1, "First reminder", 15, collection.ActionTypeEmailReminder, "")
		require.NoError(t, err)
		stageRepo.On("FindByStageNumber", mock.Anything, 1).Return(existing, nil)

		svc := NewStageService(stageRepo, nil, zap.NewNop())
		_, err = svc.CreateStage(context.Background(), CreateStageRequest{
			StageNumber: 1,
			Name:        "Another",
			DaysOverdue: 10,
			ActionType:  "email_reminder",
		})
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "ALREADY_EXISTS", domainErr.Code)
	})
}

func TestStageService_UpdateStage(t *testing.T) {
	stageRepo := new(MockStageRepository)
	cache := new(MockStageCache)
	stage, err := collection.NewCollectionStage(2, "Formal notice", 30, collection.ActionTypeFormalNotice, "")
	require.NoError(t, err)

	stageRepo.On("FindByID", mock.Anything, stage.ID).Return(stage, nil)
	stageRepo.On("Save", mock.Anything, stage).Return(nil)
	cache.On("Invalidate", mock.Anything).Return(nil)

	svc := NewStageService(stageRepo, cache, zap.NewNop())
	resp, err := svc.UpdateStage(context.Background(), stage.ID, UpdateStageRequest{
		Name:        "Formal notice",
		DaysOverdue: 45,
		ActionType:  "formal_notice",
		IsActive:    false,
	})
	require.NoError(t, err)
	assert.Equal(t, 45, resp.DaysOverdue)
	assert.False(t, resp.IsActive)
	cache.AssertExpectations(t)
}

func TestStageService_DeleteStage(t *testing.T) {
	stageRepo := new(MockStageRepository)
	id := uuid.New()
	stageRepo.On("FindByID", mock.Anything, id).Return(nil, nil)

	svc := NewStageService(stageRepo, nil, zap.NewNop())
	err := svc.DeleteStage(context.Background(), id)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "NOT_FOUND", domainErr.Code)
}
