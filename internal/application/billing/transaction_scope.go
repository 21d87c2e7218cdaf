package billing

import (
	"context"

	"github.com/bms/backend/internal/domain/billing"
	"github.com/bms/backend/internal/domain/property"
)

// TransactionScope provides transactional access to the ledger repositories.
// When a function runs within a scope, all repository operations share one
// database transaction and commit or roll back atomically. Every ledger
// mutation (expense creation, payment recording, cancellation) goes through
// a scope so apartment balances and obligation rows can never diverge.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the ledger repositories within
// a transaction. All repositories returned share the same underlying
// database transaction.
//
// Aggregate boundary notes:
//   - Apartment is the balance carrier; its cached Balance only changes
//     together with the obligation or payment rows that explain the change.
//   - Obligation rows are the ledger lines; expense shares reference their
//     expense, subscription dues reference a period key.
//   - Payment stores its realized allocation list as part of the aggregate,
//     so cancellation can revert exactly what was applied.
type TransactionalRepositories interface {
	ApartmentRepo() property.ApartmentRepository
	ExpenseRepo() billing.ExpenseRepository
	ObligationRepo() billing.ObligationRepository
	PaymentRepo() billing.PaymentRepository
}

// NoOpTransactionScope is a transaction scope without real transactions.
// Useful in tests where the repositories are mocks.
type NoOpTransactionScope struct {
	apartmentRepo  property.ApartmentRepository
	expenseRepo    billing.ExpenseRepository
	obligationRepo billing.ObligationRepository
	paymentRepo    billing.PaymentRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	apartmentRepo property.ApartmentRepository,
	expenseRepo billing.ExpenseRepository,
	obligationRepo billing.ObligationRepository,
	paymentRepo billing.PaymentRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		apartmentRepo:  apartmentRepo,
		expenseRepo:    expenseRepo,
		obligationRepo: obligationRepo,
		paymentRepo:    paymentRepo,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// ApartmentRepo returns the apartment repository.
func (s *NoOpTransactionScope) ApartmentRepo() property.ApartmentRepository {
	return s.apartmentRepo
}

// ExpenseRepo returns the expense repository.
func (s *NoOpTransactionScope) ExpenseRepo() billing.ExpenseRepository {
	return s.expenseRepo
}

// ObligationRepo returns the obligation repository.
func (s *NoOpTransactionScope) ObligationRepo() billing.ObligationRepository {
	return s.obligationRepo
}

// PaymentRepo returns the payment repository.
func (s *NoOpTransactionScope) PaymentRepo() billing.PaymentRepository {
	return s.paymentRepo
}
