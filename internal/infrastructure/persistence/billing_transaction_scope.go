package persistence

import (
	"context"

	appbilling "github.com/bms/backend/internal/application/billing"
	"github.com/bms/backend/internal/domain/billing"
	"github.com/bms/backend/internal/domain/property"
	"gorm.io/gorm"
)

// GormBillingTransactionScope implements the billing TransactionScope using
// GORM transactions. It provides atomic execution of multiple repository
// operations.
type GormBillingTransactionScope struct {
	db *gorm.DB
}

// NewGormBillingTransactionScope creates a new GormBillingTransactionScope.
func NewGormBillingTransactionScope(db *gorm.DB) *GormBillingTransactionScope {
	return &GormBillingTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormBillingTransactionScope) Execute(ctx context.Context, fn func(repos appbilling.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormBillingRepositories{tx: tx}
		return fn(repos)
	})
}

// gormBillingRepositories provides access to the ledger repositories within a transaction.
type gormBillingRepositories struct {
	tx *gorm.DB
}

// ApartmentRepo returns the apartment repository scoped to the current transaction.
func (r *gormBillingRepositories) ApartmentRepo() property.ApartmentRepository {
	return NewGormApartmentRepository(r.tx)
}

// ExpenseRepo returns the expense repository scoped to the current transaction.
func (r *gormBillingRepositories) ExpenseRepo() billing.ExpenseRepository {
	return NewGormExpenseRepository(r.tx)
}

// ObligationRepo returns the obligation repository scoped to the current transaction.
func (r *gormBillingRepositories) ObligationRepo() billing.ObligationRepository {
	return NewGormObligationRepository(r.tx)
}

// PaymentRepo returns the payment repository scoped to the current transaction.
func (r *gormBillingRepositories) PaymentRepo() billing.PaymentRepository {
	return NewGormPaymentRepository(r.tx)
}

// Ensure GormBillingTransactionScope implements TransactionScope
var _ appbilling.TransactionScope = (*GormBillingTransactionScope)(nil)

// Ensure gormBillingRepositories implements TransactionalRepositories
var _ appbilling.TransactionalRepositories = (*gormBillingRepositories)(nil)
