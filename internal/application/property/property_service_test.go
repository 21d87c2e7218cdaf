package property

import (
	"context"
	"testing"

	"github.com/bms/backend/internal/domain/property"
	"github.com/bms/backend/internal/domain/shared"
	"github.com/bms/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

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
	return args.Get(0).([]*property.Apartment), args.Error(1)
}

func (m *MockApartmentRepository) CountByBuildingID(ctx context.Context, buildingID uuid.UUID) (int64, error) {
	args := m.Called(ctx, buildingID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockApartmentRepository) FindInCollectionScope(ctx context.Context) ([]*property.Apartment, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*property.Apartment), args.Error(1)
}

func (m *MockApartmentRepository) FindWithSubscription(ctx context.Context) ([]*property.Apartment, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*property.Apartment), args.Error(1)
}

func newTestService() (*PropertyService, *MockBuildingRepository, *MockApartmentRepository) {
	buildingRepo := new(MockBuildingRepository)
	apartmentRepo := new(MockApartmentRepository)
	return NewPropertyService(buildingRepo, apartmentRepo), buildingRepo, apartmentRepo
}

func testBuilding(t *testing.T) *property.Building {
	t.Helper()
	b, err := property.NewBuilding("Parkside", "12 Elm Street")
	require.NoError(t, err)
	return b
}

func testApartment(t *testing.T, buildingID uuid.UUID, unit string) *property.Apartment {
	t.Helper()
	a, err := property.NewApartment(buildingID, unit, "Robin Clarke", valueobject.NewMoneyEUR(decimal.NewFromInt(50)))
	require.NoError(t, err)
	return a
}

func TestPropertyService_CreateBuilding(t *testing.T) {
	t.Run("creates and persists building", func(t *testing.T) {
		service, buildingRepo, _ := newTestService()
		buildingRepo.On("Save", mock.Anything, mock.AnythingOfType("*property.Building")).Return(nil)

		resp, err := service.CreateBuilding(context.Background(), CreateBuildingRequest{
			Name:    "Parkside",
			Address: "12 Elm Street",
		})

		require.NoError(t, err)
		assert.Equal(t, "Parkside", resp.Name)
		assert.Equal(t, int64(0), resp.ApartmentCount)
		buildingRepo.AssertExpectations(t)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		service, buildingRepo, _ := newTestService()

		_, err := service.CreateBuilding(context.Background(), CreateBuildingRequest{Address: "12 Elm Street"})

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		buildingRepo.AssertNotCalled(t, "Save")
	})
}

func TestPropertyService_GetBuilding(t *testing.T) {
	t.Run("returns building with apartment count", func(t *testing.T) {
		service, buildingRepo, apartmentRepo := newTestService()
		building := testBuilding(t)
		buildingRepo.On("FindByID", mock.Anything, building.ID).Return(building, nil)
		apartmentRepo.On("CountByBuildingID", mock.Anything, building.ID).Return(int64(12), nil)

		resp, err := service.GetBuilding(context.Background(), building.ID)

		require.NoError(t, err)
		assert.Equal(t, building.ID, resp.ID)
		assert.Equal(t, int64(12), resp.ApartmentCount)
	})

	t.Run("unknown building", func(t *testing.T) {
		service, buildingRepo, _ := newTestService()
		buildingRepo.On("FindByID", mock.Anything, mock.Anything).Return(nil, nil)

		_, err := service.GetBuilding(context.Background(), uuid.New())

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "NOT_FOUND", domainErr.Code)
	})
}

func TestPropertyService_CreateApartment(t *testing.T) {
	t.Run("creates apartment in existing building", func(t *testing.T) {
		service, buildingRepo, apartmentRepo := newTestService()
		building := testBuilding(t)
		buildingRepo.On("FindByID", mock.Anything, building.ID).Return(building, nil)
		apartmentRepo.On("Save", mock.Anything, mock.AnythingOfType("*property.Apartment")).Return(nil)

		resp, err := service.CreateApartment(context.Background(), CreateApartmentRequest{
			BuildingID:         building.ID,
			UnitNumber:         "3B",
			OccupantName:       "Robin Clarke",
			SubscriptionAmount: decimal.NewFromInt(50),
		})

		require.NoError(t, err)
		assert.Equal(t, "3B", resp.UnitNumber)
		assert.True(t, resp.Balance.IsZero())
		assert.Nil(t, resp.CollectionStageID)
		apartmentRepo.AssertExpectations(t)
	})

	t.Run("unknown building", func(t *testing.T) {
		service, buildingRepo, apartmentRepo := newTestService()
		buildingRepo.On("FindByID", mock.Anything, mock.Anything).Return(nil, nil)

		_, err := service.CreateApartment(context.Background(), CreateApartmentRequest{
			BuildingID:   uuid.New(),
			UnitNumber:   "3B",
			OccupantName: "Robin Clarke",
		})

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "NOT_FOUND", domainErr.Code)
		apartmentRepo.AssertNotCalled(t, "Save")
	})
}

func TestPropertyService_ListApartments(t *testing.T) {
	service, _, apartmentRepo := newTestService()
	buildingID := uuid.New()
	apartments := []*property.Apartment{
		testApartment(t, buildingID, "1A"),
		testApartment(t, buildingID, "1B"),
	}
	apartmentRepo.On("FindByBuildingID", mock.Anything, buildingID).Return(apartments, nil)

	resp, err := service.ListApartments(context.Background(), buildingID)

	require.NoError(t, err)
	require.Len(t, resp, 2)
	assert.Equal(t, "1A", resp[0].UnitNumber)
	assert.Equal(t, "1B", resp[1].UnitNumber)
}

func TestPropertyService_UpdateSubscription(t *testing.T) {
	t.Run("changes the subscription amount", func(t *testing.T) {
		service, _, apartmentRepo := newTestService()
		apartment := testApartment(t, uuid.New(), "2C")
		apartmentRepo.On("FindByID", mock.Anything, apartment.ID).Return(apartment, nil)
		apartmentRepo.On("SaveWithLock", mock.Anything, apartment).Return(nil)

		resp, err := service.UpdateSubscription(context.Background(), apartment.ID, UpdateSubscriptionRequest{
			SubscriptionAmount: decimal.NewFromInt(75),
		})

		require.NoError(t, err)
		assert.True(t, resp.SubscriptionAmount.Equal(decimal.NewFromInt(75)))
		apartmentRepo.AssertExpectations(t)
	})

	t.Run("negative amount rejected", func(t *testing.T) {
		service, _, apartmentRepo := newTestService()
		apartment := testApartment(t, uuid.New(), "2C")
		apartmentRepo.On("FindByID", mock.Anything, apartment.ID).Return(apartment, nil)

		_, err := service.UpdateSubscription(context.Background(), apartment.ID, UpdateSubscriptionRequest{
			SubscriptionAmount: decimal.NewFromInt(-5),
		})

		require.Error(t, err)
		apartmentRepo.AssertNotCalled(t, "SaveWithLock")
	})

	t.Run("concurrent modification surfaces conflict", func(t *testing.T) {
		service, _, apartmentRepo := newTestService()
		apartment := testApartment(t, uuid.New(), "2C")
		apartmentRepo.On("FindByID", mock.Anything, apartment.ID).Return(apartment, nil)
		apartmentRepo.On("SaveWithLock", mock.Anything, apartment).Return(shared.ErrConcurrencyConflict)

		_, err := service.UpdateSubscription(context.Background(), apartment.ID, UpdateSubscriptionRequest{
			SubscriptionAmount: decimal.NewFromInt(75),
		})

		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	})
}
