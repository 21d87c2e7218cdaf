package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ExpenseRepository defines persistence operations for expenses
type ExpenseRepository interface {
	Save(ctx context.Context, expense *Expense) error
	FindByID(ctx context.Context, id uuid.UUID) (*Expense, error)
	FindByBuildingID(ctx context.Context, buildingID uuid.UUID, filter ExpenseFilter) ([]*Expense, int64, error)
	// FindRecurringTemplates returns all recurring templates across buildings.
	FindRecurringTemplates(ctx context.Context) ([]*Expense, error)
	FindInstancesByParentID(ctx context.Context, parentID uuid.UUID) ([]*Expense, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ExpenseFilter defines filtering options for expense queries
type ExpenseFilter struct {
	Category  string
	FromDate  *time.Time
	ToDate    *time.Time
	Recurring *bool
	Page      int
	PageSize  int
}

// ObligationRepository defines persistence operations for obligations
type ObligationRepository interface {
	Save(ctx context.Context, obligation *Obligation) error
	CreateBatch(ctx context.Context, obligations []*Obligation) error
	FindByID(ctx context.Context, id uuid.UUID) (*Obligation, error)
	// FindByApartmentID returns all obligations for an apartment, oldest due date first.
	FindByApartmentID(ctx context.Context, apartmentID uuid.UUID) ([]*Obligation, error)
	// FindUnpaidByApartmentID returns obligations with remaining > 0, oldest due date first.
	FindUnpaidByApartmentID(ctx context.Context, apartmentID uuid.UUID) ([]*Obligation, error)
	FindByExpenseID(ctx context.Context, expenseID uuid.UUID) ([]*Obligation, error)
	DeleteByExpenseID(ctx context.Context, expenseID uuid.UUID) error
	// SubscriptionExists reports whether the subscription due for the period
	// has already been materialized for the apartment.
	SubscriptionExists(ctx context.Context, apartmentID uuid.UUID, period string) (bool, error)
}

// PaymentRepository defines persistence operations for payments
type PaymentRepository interface {
	Save(ctx context.Context, payment *Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	FindByApartmentID(ctx context.Context, apartmentID uuid.UUID, filter PaymentFilter) ([]*Payment, int64, error)
}

// PaymentFilter defines filtering options for payment queries
type PaymentFilter struct {
	Month           string
	IncludeCanceled bool
	Page            int
	PageSize        int
}
