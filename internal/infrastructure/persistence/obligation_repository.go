package persistence

import (
	"context"
	"errors"

	"github.com/bms/backend/internal/domain/billing"
	"github.com/bms/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormObligationRepository implements ObligationRepository using GORM
type GormObligationRepository struct {
	db *gorm.DB
}

// NewGormObligationRepository creates a new GormObligationRepository
func NewGormObligationRepository(db *gorm.DB) *GormObligationRepository {
	return &GormObligationRepository{db: db}
}

// Save creates or updates an obligation
func (r *GormObligationRepository) Save(ctx context.Context, obligation *billing.Obligation) error {
	model := models.ObligationModelFromDomain(obligation)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(model).Error
}

// CreateBatch inserts all obligations in a single statement
func (r *GormObligationRepository) CreateBatch(ctx context.Context, obligations []*billing.Obligation) error {
	if len(obligations) == 0 {
		return nil
	}
	modelList := make([]*models.ObligationModel, len(obligations))
	for i, o := range obligations {
		modelList[i] = models.ObligationModelFromDomain(o)
	}
	return r.db.WithContext(ctx).Create(&modelList).Error
}

// FindByID finds an obligation by ID, returning nil when it does not exist
func (r *GormObligationRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Obligation, error) {
	var model models.ObligationModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByApartmentID returns all obligations for an apartment, oldest due date first
func (r *GormObligationRepository) FindByApartmentID(ctx context.Context, apartmentID uuid.UUID) ([]*billing.Obligation, error) {
	var modelList []models.ObligationModel
	if err := r.db.WithContext(ctx).
		Where("apartment_id = ?", apartmentID).
		Order("due_date ASC, created_at ASC").
		Find(&modelList).Error; err != nil {
		return nil, err
	}
	return toObligations(modelList), nil
}

// FindUnpaidByApartmentID returns obligations with remaining > 0, oldest due date first
func (r *GormObligationRepository) FindUnpaidByApartmentID(ctx context.Context, apartmentID uuid.UUID) ([]*billing.Obligation, error) {
	var modelList []models.ObligationModel
	if err := r.db.WithContext(ctx).
		Where("apartment_id = ? AND amount_paid < amount", apartmentID).
		Order("due_date ASC, created_at ASC").
		Find(&modelList).Error; err != nil {
		return nil, err
	}
	return toObligations(modelList), nil
}

// FindByExpenseID returns the obligations an expense fanned out into
func (r *GormObligationRepository) FindByExpenseID(ctx context.Context, expenseID uuid.UUID) ([]*billing.Obligation, error) {
	var modelList []models.ObligationModel
	if err := r.db.WithContext(ctx).
		Where("expense_id = ?", expenseID).
		Find(&modelList).Error; err != nil {
		return nil, err
	}
	return toObligations(modelList), nil
}

// DeleteByExpenseID removes all obligations tied to an expense
func (r *GormObligationRepository) DeleteByExpenseID(ctx context.Context, expenseID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.ObligationModel{}, "expense_id = ?", expenseID).Error
}

// SubscriptionExists reports whether the subscription due for the period has
// already been materialized for the apartment
func (r *GormObligationRepository) SubscriptionExists(ctx context.Context, apartmentID uuid.UUID, period string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ObligationModel{}).
		Where("apartment_id = ? AND kind = ? AND period = ?", apartmentID, billing.ObligationKindSubscription, period).
		Count(&count).Error
	return count > 0, err
}

func toObligations(modelList []models.ObligationModel) []*billing.Obligation {
	obligations := make([]*billing.Obligation, len(modelList))
	for i := range modelList {
		obligations[i] = modelList[i].ToDomain()
	}
	return obligations
}
