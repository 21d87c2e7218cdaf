package persistence

import (
	"context"

	appcollection "github.com/bms/backend/internal/application/collection"
	"github.com/bms/backend/internal/domain/collection"
	"github.com/bms/backend/internal/domain/property"
	"gorm.io/gorm"
)

// GormCollectionTransactionScope implements the collection TransactionScope
// using GORM transactions. A stage transition and its log entry commit or
// roll back together.
type GormCollectionTransactionScope struct {
	db *gorm.DB
}

// NewGormCollectionTransactionScope creates a new GormCollectionTransactionScope.
func NewGormCollectionTransactionScope(db *gorm.DB) *GormCollectionTransactionScope {
	return &GormCollectionTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
func (s *GormCollectionTransactionScope) Execute(ctx context.Context, fn func(repos appcollection.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormCollectionRepositories{tx: tx}
		return fn(repos)
	})
}

// gormCollectionRepositories provides access to the collection repositories within a transaction.
type gormCollectionRepositories struct {
	tx *gorm.DB
}

// ApartmentRepo returns the apartment repository scoped to the current transaction.
func (r *gormCollectionRepositories) ApartmentRepo() property.ApartmentRepository {
	return NewGormApartmentRepository(r.tx)
}

// LogRepo returns the collection log repository scoped to the current transaction.
func (r *gormCollectionRepositories) LogRepo() collection.LogRepository {
	return NewGormLogRepository(r.tx)
}

// Ensure GormCollectionTransactionScope implements TransactionScope
var _ appcollection.TransactionScope = (*GormCollectionTransactionScope)(nil)

// Ensure gormCollectionRepositories implements TransactionalRepositories
var _ appcollection.TransactionalRepositories = (*gormCollectionRepositories)(nil)
