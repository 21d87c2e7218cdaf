package collection

import (
	"context"
	"time"

	"github.com/bms/backend/internal/domain/collection"
	"github.com/bms/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StageCacheInvalidator drops any cached stage configuration after a write
type StageCacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// StageService manages the collection stage configuration
type StageService struct {
	stageRepo collection.StageRepository
	cache     StageCacheInvalidator
	logger    *zap.Logger
}

// NewStageService creates a new StageService
func NewStageService(stageRepo collection.StageRepository, cache StageCacheInvalidator, logger *zap.Logger) *StageService {
	return &StageService{stageRepo: stageRepo, cache: cache, logger: logger}
}

// CreateStageRequest represents a request to create a collection stage
type CreateStageRequest struct {
	StageNumber     int    `json:"stage_number" binding:"required,min=1"`
	Name            string `json:"name" binding:"required"`
	DaysOverdue     int    `json:"days_overdue" binding:"min=0"`
	ActionType      string `json:"action_type" binding:"required"`
	MessageTemplate string `json:"message_template"`
}

// UpdateStageRequest represents a request to update a collection stage
type UpdateStageRequest struct {
	Name            string `json:"name" binding:"required"`
	DaysOverdue     int    `json:"days_overdue" binding:"min=0"`
	ActionType      string `json:"action_type" binding:"required"`
	MessageTemplate string `json:"message_template"`
	IsActive        bool   `json:"is_active"`
}

// StageResponse represents a collection stage in API responses
type StageResponse struct {
	ID              uuid.UUID `json:"id"`
	StageNumber     int       `json:"stage_number"`
	Name            string    `json:"name"`
	DaysOverdue     int       `json:"days_overdue"`
	ActionType      string    `json:"action_type"`
	MessageTemplate string    `json:"message_template,omitempty"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// CreateStage creates a collection stage. Stage numbers are unique.
func (s *StageService) CreateStage(ctx context.Context, req CreateStageRequest) (*StageResponse, error) {
	existing, err := s.stageRepo.FindByStageNumber(ctx, req.StageNumber)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "A stage with this number already exists")
	}

	stage, err := collection.NewCollectionStage(req.StageNumber, req.Name, req.DaysOverdue, collection.ActionType(req.ActionType), req.MessageTemplate)
	if err != nil {
		return nil, err
	}
	if err := s.stageRepo.Save(ctx, stage); err != nil {
		return nil, err
	}
	s.invalidateCache(ctx)
	return toStageResponse(stage), nil
}

// UpdateStage updates a collection stage
func (s *StageService) UpdateStage(ctx context.Context, id uuid.UUID, req UpdateStageRequest) (*StageResponse, error) {
	stage, err := s.stageRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if stage == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Collection stage not found")
	}

	if err := stage.Update(req.Name, req.DaysOverdue, collection.ActionType(req.ActionType), req.MessageTemplate, req.IsActive); err != nil {
		return nil, err
	}
	if err := s.stageRepo.Save(ctx, stage); err != nil {
		return nil, err
	}
	s.invalidateCache(ctx)
	return toStageResponse(stage), nil
}

// DeleteStage removes a collection stage
func (s *StageService) DeleteStage(ctx context.Context, id uuid.UUID) error {
	stage, err := s.stageRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if stage == nil {
		return shared.NewDomainError("NOT_FOUND", "Collection stage not found")
	}
	if err := s.stageRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateCache(ctx)
	return nil
}

// ListStages lists all stages ordered by stage number
func (s *StageService) ListStages(ctx context.Context) ([]*StageResponse, error) {
	stages, err := s.stageRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	responses := make([]*StageResponse, len(stages))
	for i, st := range stages {
		responses[i] = toStageResponse(st)
	}
	return responses, nil
}

func (s *StageService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("failed to invalidate stage cache", zap.Error(err))
	}
}

func toStageResponse(st *collection.CollectionStage) *StageResponse {
	return &StageResponse{
		ID:              st.ID,
		StageNumber:     st.StageNumber,
		Name:            st.Name,
		DaysOverdue:     st.DaysOverdue,
		ActionType:      st.ActionType.String(),
		MessageTemplate: st.MessageTemplate,
		IsActive:        st.IsActive,
		CreatedAt:       st.CreatedAt,
		UpdatedAt:       st.UpdatedAt,
	}
}
