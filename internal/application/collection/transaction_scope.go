package collection

import (
	"context"

	"github.com/bms/backend/internal/domain/collection"
	"github.com/bms/backend/internal/domain/property"
)

// TransactionScope provides transactional access to the repositories a
// collection scan mutates. A stage transition and its audit log entry are
// written atomically; an apartment is never on a stage the log doesn't know
// about.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the collection repositories
// within a transaction.
type TransactionalRepositories interface {
	ApartmentRepo() property.ApartmentRepository
	LogRepo() collection.LogRepository
}

// NoOpTransactionScope is a transaction scope without real transactions,
// used in tests with mock repositories.
type NoOpTransactionScope struct {
	apartmentRepo property.ApartmentRepository
	logRepo       collection.LogRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(apartmentRepo property.ApartmentRepository, logRepo collection.LogRepository) *NoOpTransactionScope {
	return &NoOpTransactionScope{apartmentRepo: apartmentRepo, logRepo: logRepo}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// ApartmentRepo returns the apartment repository.
func (s *NoOpTransactionScope) ApartmentRepo() property.ApartmentRepository {
	return s.apartmentRepo
}

// LogRepo returns the collection log repository.
func (s *NoOpTransactionScope) LogRepo() collection.LogRepository {
	return s.logRepo
}
