package persistence

import (
	"context"

	"github.com/bms/backend/internal/domain/collection"
	"github.com/bms/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormLogRepository implements LogRepository using GORM
type GormLogRepository struct {
	db *gorm.DB
}

// NewGormLogRepository creates a new GormLogRepository
func NewGormLogRepository(db *gorm.DB) *GormLogRepository {
	return &GormLogRepository{db: db}
}

// Save appends a log entry
func (r *GormLogRepository) Save(ctx context.Context, entry *collection.LogEntry) error {
	model := models.CollectionLogModelFromDomain(entry)
	return r.db.WithContext(ctx).Create(model).Error
}

// Find returns log entries newest first along with the total match count
func (r *GormLogRepository) Find(ctx context.Context, filter collection.LogFilter) ([]*collection.LogEntry, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.CollectionLogModel{})
	if filter.ApartmentID != nil {
		query = query.Where("apartment_id = ?", *filter.ApartmentID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var modelList []models.CollectionLogModel
	if err := query.Order("created_at DESC").Find(&modelList).Error; err != nil {
		return nil, 0, err
	}

	entries := make([]*collection.LogEntry, len(modelList))
	for i := range modelList {
		entries[i] = modelList[i].ToDomain()
	}
	return entries, total, nil
}

// ExistsForStage reports whether an apartment already has an entry for a stage
func (r *GormLogRepository) ExistsForStage(ctx context.Context, apartmentID, stageID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.CollectionLogModel{}).
		Where("apartment_id = ? AND stage_id = ?", apartmentID, stageID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
