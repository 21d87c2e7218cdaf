package persistence

import (
	"context"
	"errors"

	"github.com/bms/backend/internal/domain/collection"
	"github.com/bms/backend/internal/domain/shared"
	"github.com/bms/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const pgForeignKeyViolation = "23503"

// GormStageRepository implements StageRepository using GORM
type GormStageRepository struct {
	db *gorm.DB
}

// NewGormStageRepository creates a new GormStageRepository
func NewGormStageRepository(db *gorm.DB) *GormStageRepository {
	return &GormStageRepository{db: db}
}

// Save creates or updates a collection stage
func (r *GormStageRepository) Save(ctx context.Context, stage *collection.CollectionStage) error {
	model := models.CollectionStageModelFromDomain(stage)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(model).Error
}

// FindByID finds a stage by ID, returning nil when it does not exist
func (r *GormStageRepository) FindByID(ctx context.Context, id uuid.UUID) (*collection.CollectionStage, error) {
	var model models.CollectionStageModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByStageNumber finds a stage by its number, returning nil when none exists
func (r *GormStageRepository) FindByStageNumber(ctx context.Context, stageNumber int) (*collection.CollectionStage, error) {
	var model models.CollectionStageModel
	if err := r.db.WithContext(ctx).First(&model, "stage_number = ?", stageNumber).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// List returns all stages ordered by stage number ascending
func (r *GormStageRepository) List(ctx context.Context) ([]*collection.CollectionStage, error) {
	var modelList []models.CollectionStageModel
	if err := r.db.WithContext(ctx).Order("stage_number ASC").Find(&modelList).Error; err != nil {
		return nil, err
	}
	return toStages(modelList), nil
}

// ListActive returns active stages ordered by stage number ascending
func (r *GormStageRepository) ListActive(ctx context.Context) ([]*collection.CollectionStage, error) {
	var modelList []models.CollectionStageModel
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("stage_number ASC").
		Find(&modelList).Error; err != nil {
		return nil, err
	}
	return toStages(modelList), nil
}

// Delete removes a stage by ID. A stage that apartments or log entries still
// reference cannot be removed; the foreign key violation surfaces as a
// STAGE_IN_USE domain error.
func (r *GormStageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Delete(&models.CollectionStageModel{}, "id = ?", id).Error
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
		return shared.NewDomainError("STAGE_IN_USE", "Stage is referenced by apartments or log entries; deactivate it instead")
	}
	return err
}

func toStages(modelList []models.CollectionStageModel) []*collection.CollectionStage {
	stages := make([]*collection.CollectionStage, len(modelList))
	for i := range modelList {
		stages[i] = modelList[i].ToDomain()
	}
	return stages
}
