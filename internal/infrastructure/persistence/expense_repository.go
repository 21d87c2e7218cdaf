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

// GormExpenseRepository implements ExpenseRepository using GORM
type GormExpenseRepository struct {
	db *gorm.DB
}

// NewGormExpenseRepository creates a new GormExpenseRepository
func NewGormExpenseRepository(db *gorm.DB) *GormExpenseRepository {
	return &GormExpenseRepository{db: db}
}

// Save creates or updates an expense
func (r *GormExpenseRepository) Save(ctx context.Context, expense *billing.Expense) error {
	model := models.ExpenseModelFromDomain(expense)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(model).Error
}

// FindByID finds an expense by ID, returning nil when it does not exist
func (r *GormExpenseRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Expense, error) {
	var model models.ExpenseModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByBuildingID returns a building's expenses with filtering and pagination,
// newest date first, along with the total match count
func (r *GormExpenseRepository) FindByBuildingID(ctx context.Context, buildingID uuid.UUID, filter billing.ExpenseFilter) ([]*billing.Expense, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ExpenseModel{}).Where("building_id = ?", buildingID)

	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.FromDate != nil {
		query = query.Where("date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("date <= ?", *filter.ToDate)
	}
	if filter.Recurring != nil {
		query = query.Where("is_recurring = ?", *filter.Recurring)
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

	var modelList []models.ExpenseModel
	if err := query.Order("date DESC, created_at DESC").Find(&modelList).Error; err != nil {
		return nil, 0, err
	}
	return toExpenses(modelList), total, nil
}

// FindRecurringTemplates returns all recurring templates across buildings
func (r *GormExpenseRepository) FindRecurringTemplates(ctx context.Context) ([]*billing.Expense, error) {
	var modelList []models.ExpenseModel
	if err := r.db.WithContext(ctx).
		Where("is_recurring = ?", true).
		Find(&modelList).Error; err != nil {
		return nil, err
	}
	return toExpenses(modelList), nil
}

// FindInstancesByParentID returns the generated instances of a recurring template
func (r *GormExpenseRepository) FindInstancesByParentID(ctx context.Context, parentID uuid.UUID) ([]*billing.Expense, error) {
	var modelList []models.ExpenseModel
	if err := r.db.WithContext(ctx).
		Where("parent_expense_id = ?", parentID).
		Order("date ASC").
		Find(&modelList).Error; err != nil {
		return nil, err
	}
	return toExpenses(modelList), nil
}

// Delete removes an expense
func (r *GormExpenseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.ExpenseModel{}, "id = ?", id).Error
}

func toExpenses(modelList []models.ExpenseModel) []*billing.Expense {
	expenses := make([]*billing.Expense, len(modelList))
	for i := range modelList {
		expenses[i] = modelList[i].ToDomain()
	}
	return expenses
}
