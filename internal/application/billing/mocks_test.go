package billing

import (
	"context"

	"github.com/bms/backend/internal/domain/billing"
	"github.com/bms/backend/internal/domain/property"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// =============================================================================
// Mock Repositories
// =============================================================================

type MockBuildingRepository struct {
	mock.Mock
}

func (m *MockBuildingRepository) Save(ctx context.Context, building *property.Building) error {
	args := m.Called(ctx, building)
	return args.Error(0)
}

func (m *MockBuildingRepository) FindByID(ctx context.Context, id uuid.UUID) (*property.Building, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*property.Building), args.Error(1)
}

func (m *MockBuildingRepository) List(ctx context.Context) ([]*property.Building, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*property.Building), args.Error(1)
}

type MockApartmentRepository struct {
	mock.Mock
}

func (m *MockApartmentRepository) Save(ctx context.Context, apartment *property.Apartment) error {
	args := m.Called(ctx, apartment)
	return args.Error(0)
}

func (m *MockApartmentRepository) SaveWithLock(ctx context.Context, apartment *property.Apartment) error {
	args := m.Called(ctx, apartment)
	return args.Error(0)
}

func (m *MockApartmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*property.Apartment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*property.Apartment), args.Error(1)
}

func (m *MockApartmentRepository) FindByBuildingID(ctx context.Context, buildingID uuid.UUID) ([]*property.Apartment, error) {
	args := m.Called(ctx, buildingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*property.Apartment), args.Error(1)
}

func (m *MockApartmentRepository) CountByBuildingID(ctx context.Context, buildingID uuid.UUID) (int64, error) {
	args := m.Called(ctx, buildingID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockApartmentRepository) FindInCollectionScope(ctx context.Context) ([]*property.Apartment, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*property.Apartment), args.Error(1)
}

func (m *MockApartmentRepository) FindWithSubscription(ctx context.Context) ([]*property.Apartment, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*property.Apartment), args.Error(1)
}

type MockExpenseRepository struct {
	mock.Mock
}

func (m *MockExpenseRepository) Save(ctx context.Context, expense *billing.Expense) error {
	args := m.Called(ctx, expense)
	return args.Error(0)
}

func (m *MockExpenseRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Expense, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Expense), args.Error(1)
}

func (m *MockExpenseRepository) FindByBuildingID(ctx context.Context, buildingID uuid.UUID, filter billing.ExpenseFilter) ([]*billing.Expense, int64, error) {
	args := m.Called(ctx, buildingID, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*billing.Expense), args.Get(1).(int64), args.Error(2)
}

func (m *MockExpenseRepository) FindRecurringTemplates(ctx context.Context) ([]*billing.Expense, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*billing.Expense), args.Error(1)
}

func (m *MockExpenseRepository) FindInstancesByParentID(ctx context.Context, parentID uuid.UUID) ([]*billing.Expense, error) {
	args := m.Called(ctx, parentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*billing.Expense), args.Error(1)
}

func (m *MockExpenseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockObligationRepository struct {
	mock.Mock
}

func (m *MockObligationRepository) Save(ctx context.Context, obligation *billing.Obligation) error {
	args := m.Called(ctx, obligation)
	return args.Error(0)
}

func (m *MockObligationRepository) CreateBatch(ctx context.Context, obligations []*billing.Obligation) error {
	args := m.Called(ctx, obligations)
	return args.Error(0)
}

func (m *MockObligationRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Obligation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Obligation), args.Error(1)
}

func (m *MockObligationRepository) FindByApartmentID(ctx context.Context, apartmentID uuid.UUID) ([]*billing.Obligation, error) {
	args := m.Called(ctx, apartmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*billing.Obligation), args.Error(1)
}

func (m *MockObligationRepository) FindUnpaidByApartmentID(ctx context.Context, apartmentID uuid.UUID) ([]*billing.Obligation, error) {
	args := m.Called(ctx, apartmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*billing.Obligation), args.Error(1)
}

func (m *MockObligationRepository) FindByExpenseID(ctx context.Context, expenseID uuid.UUID) ([]*billing.Obligation, error) {
	args := m.Called(ctx, expenseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*billing.Obligation), args.Error(1)
}

func (m *MockObligationRepository) DeleteByExpenseID(ctx context.Context, expenseID uuid.UUID) error {
	args := m.Called(ctx, expenseID)
	return args.Error(0)
}

func (m *MockObligationRepository) SubscriptionExists(ctx context.Context, apartmentID uuid.UUID, period string) (bool, error) {
	args := m.Called(ctx, apartmentID, period)
	return args.Bool(0), args.Error(1)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Save(ctx context.Context, payment *billing.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByApartmentID(ctx context.Context, apartmentID uuid.UUID, filter billing.PaymentFilter) ([]*billing.Payment, int64, error) {
	args := m.Called(ctx, apartmentID, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*billing.Payment), args.Get(1).(int64), args.Error(2)
}

// =============================================================================
// Test fixtures
// =============================================================================

type serviceMocks struct {
	buildingRepo   *MockBuildingRepository
	apartmentRepo  *MockApartmentRepository
	expenseRepo    *MockExpenseRepository
	obligationRepo *MockObligationRepository
	paymentRepo    *MockPaymentRepository
	txScope        *NoOpTransactionScope
}

func newServiceMocks() *serviceMocks {
	m := &serviceMocks{
		buildingRepo:   new(MockBuildingRepository),
		apartmentRepo:  new(MockApartmentRepository),
		expenseRepo:    new(MockExpenseRepository),
		obligationRepo: new(MockObligationRepository),
		paymentRepo:    new(MockPaymentRepository),
	}
	m.txScope = NewNoOpTransactionScope(m.apartmentRepo, m.expenseRepo, m.obligationRepo, m.paymentRepo)
	return m
}

func (m *serviceMocks) assertExpectations(t mock.TestingT) {
	m.buildingRepo.AssertExpectations(t)
	m.apartmentRepo.AssertExpectations(t)
	m.expenseRepo.AssertExpectations(t)
	m.obligationRepo.AssertExpectations(t)
	m.paymentRepo.AssertExpectations(t)
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}
