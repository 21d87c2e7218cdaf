package persistence

import (
	"context"
	"errors"

	"github.com/bms/backend/internal/domain/property"
	"github.com/bms/backend/internal/domain/shared"
	"github.com/bms/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormApartmentRepository implements ApartmentRepository using GORM
type GormApartmentRepository struct {
	db *gorm.DB
}

// NewGormApartmentRepository creates a new GormApartmentRepository
func NewGormApartmentRepository(db *gorm.DB) *GormApartmentRepository {
	return &GormApartmentRepository{db: db}
}

// Save creates or updates an apartment without a version check
func (r *GormApartmentRepository) Save(ctx context.Context, apartment *property.Apartment) error {
	model := models.ApartmentModelFromDomain(apartment)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(model).Error
}

// SaveWithLock persists the apartment with an optimistic version check.
// Balance-carrying updates go through here; a concurrent writer loses with
// shared.ErrConcurrencyConflict instead of silently overwriting. The check
// runs against the version the aggregate was loaded at, so a logical
// operation may mutate it more than once before saving.
func (r *GormApartmentRepository) SaveWithLock(ctx context.Context, apartment *property.Apartment) error {
	model := models.ApartmentModelFromDomain(apartment)
	result := r.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", apartment.ID, apartment.LoadedVersion()).
		Select("*").Omit("created_at").
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	apartment.MarkLoaded()
	return nil
}

// FindByID finds an apartment by ID, returning nil when it does not exist
func (r *GormApartmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*property.Apartment, error) {
	var model models.ApartmentModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByBuildingID returns a building's apartments ordered by unit number.
// Expense splits assign remainder cents by this order, so it must be stable.
func (r *GormApartmentRepository) FindByBuildingID(ctx context.Context, buildingID uuid.UUID) ([]*property.Apartment, error) {
	var modelList []models.ApartmentModel
	if err := r.db.WithContext(ctx).
		Where("building_id = ?", buildingID).
		Order("unit_number ASC").
		Find(&modelList).Error; err != nil {
		return nil, err
	}
	return toApartments(modelList), nil
}

// CountByBuildingID counts the apartments in a building
func (r *GormApartmentRepository) CountByBuildingID(ctx context.Context, buildingID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ApartmentModel{}).
		Where("building_id = ?", buildingID).
		Count(&count).Error
	return count, err
}

// FindInCollectionScope returns apartments with a negative balance or an
// assigned collection stage
func (r *GormApartmentRepository) FindInCollectionScope(ctx context.Context) ([]*property.Apartment, error) {
	var modelList []models.ApartmentModel
	if err := r.db.WithContext(ctx).
		Where("balance < 0 OR collection_stage_id IS NOT NULL").
		Order("balance ASC").
		Find(&modelList).Error; err != nil {
		return nil, err
	}
	return toApartments(modelList), nil
}

// FindWithSubscription returns apartments with a positive subscription amount
func (r *GormApartmentRepository) FindWithSubscription(ctx context.Context) ([]*property.Apartment, error) {
	var modelList []models.ApartmentModel
	if err := r.db.WithContext(ctx).
		Where("subscription_amount > 0").
		Find(&modelList).Error; err != nil {
		return nil, err
	}
	return toApartments(modelList), nil
}

func toApartments(modelList []models.ApartmentModel) []*property.Apartment {
	apartments := make([]*property.Apartment, len(modelList))
	for i := range modelList {
		apartments[i] = modelList[i].ToDomain()
	}
	return apartments
}
