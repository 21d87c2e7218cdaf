package property

import (
	"context"
	"time"

	"github.com/bms/backend/internal/domain/property"
	"github.com/bms/backend/internal/domain/shared"
	"github.com/bms/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PropertyService manages buildings and apartments
type PropertyService struct {
	buildingRepo  property.BuildingRepository
	apartmentRepo property.ApartmentRepository
}

// NewPropertyService creates a new PropertyService
func NewPropertyService(buildingRepo property.BuildingRepository, apartmentRepo property.ApartmentRepository) *PropertyService {
	return &PropertyService{buildingRepo: buildingRepo, apartmentRepo: apartmentRepo}
}

// CreateBuildingRequest represents a request to create a building
type CreateBuildingRequest struct {
	Name    string `json:"name" binding:"required"`
	Address string `json:"address" binding:"required"`
}

// BuildingResponse represents a building in API responses
type BuildingResponse struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Address        string    `json:"address"`
	ApartmentCount int64     `json:"apartment_count"`
	CreatedAt      time.Time `json:"created_at"`
}

// CreateApartmentRequest represents a request to create an apartment
type CreateApartmentRequest struct {
	BuildingID         uuid.UUID       `json:"building_id" binding:"required"`
	UnitNumber         string          `json:"unit_number" binding:"required"`
	OccupantName       string          `json:"occupant_name" binding:"required"`
	SubscriptionAmount decimal.Decimal `json:"subscription_amount"`
}

// UpdateSubscriptionRequest represents a request to change an apartment's subscription
type UpdateSubscriptionRequest struct {
	SubscriptionAmount decimal.Decimal `json:"subscription_amount"`
}

// ApartmentResponse represents an apartment in API responses
type ApartmentResponse struct {
	ID                 uuid.UUID       `json:"id"`
	BuildingID         uuid.UUID       `json:"building_id"`
	UnitNumber         string          `json:"unit_number"`
	OccupantName       string          `json:"occupant_name"`
	SubscriptionAmount decimal.Decimal `json:"subscription_amount"`
	Balance            decimal.Decimal `json:"balance"`
	CollectionStageID  *uuid.UUID      `json:"collection_stage_id,omitempty"`
	DebtSince          *time.Time      `json:"debt_since,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
}

// CreateBuilding creates a building
func (s *PropertyService) CreateBuilding(ctx context.Context, req CreateBuildingRequest) (*BuildingResponse, error) {
	building, err := property.NewBuilding(req.Name, req.Address)
	if err != nil {
		return nil, err
	}
	if err := s.buildingRepo.Save(ctx, building); err != nil {
		return nil, err
	}
	return toBuildingResponse(building, 0), nil
}

// GetBuilding gets a building by ID
func (s *PropertyService) GetBuilding(ctx context.Context, id uuid.UUID) (*BuildingResponse, error) {
	building, err := s.buildingRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if building == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Building not found")
	}
	count, err := s.apartmentRepo.CountByBuildingID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toBuildingResponse(building, count), nil
}

// ListBuildings lists all buildings
func (s *PropertyService) ListBuildings(ctx context.Context) ([]*BuildingResponse, error) {
	buildings, err := s.buildingRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	responses := make([]*BuildingResponse, len(buildings))
	for i, b := range buildings {
		count, err := s.apartmentRepo.CountByBuildingID(ctx, b.ID)
		if err != nil {
			return nil, err
		}
		responses[i] = toBuildingResponse(b, count)
	}
	return responses, nil
}

// CreateApartment creates an apartment in a building
func (s *PropertyService) CreateApartment(ctx context.Context, req CreateApartmentRequest) (*ApartmentResponse, error) {
	building, err := s.buildingRepo.FindByID(ctx, req.BuildingID)
	if err != nil {
		return nil, err
	}
	if building == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Building not found")
	}

	apartment, err := property.NewApartment(req.BuildingID, req.UnitNumber, req.OccupantName, valueobject.NewMoneyEUR(req.SubscriptionAmount))
	if err != nil {
		return nil, err
	}
	if err := s.apartmentRepo.Save(ctx, apartment); err != nil {
		return nil, err
	}
	return toApartmentResponse(apartment), nil
}

// GetApartment gets an apartment by ID
func (s *PropertyService) GetApartment(ctx context.Context, id uuid.UUID) (*ApartmentResponse, error) {
	apartment, err := s.apartmentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if apartment == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Apartment not found")
	}
	return toApartmentResponse(apartment), nil
}

// ListApartments lists a building's apartments ordered by unit number
func (s *PropertyService) ListApartments(ctx context.Context, buildingID uuid.UUID) ([]*ApartmentResponse, error) {
	apartments, err := s.apartmentRepo.FindByBuildingID(ctx, buildingID)
	if err != nil {
		return nil, err
	}
	responses := make([]*ApartmentResponse, len(apartments))
	for i, a := range apartments {
		responses[i] = toApartmentResponse(a)
	}
	return responses, nil
}

// UpdateSubscription changes an apartment's monthly subscription amount.
// Takes effect from the next billing period; already materialized dues keep
// the amount they were billed at.
func (s *PropertyService) UpdateSubscription(ctx context.Context, id uuid.UUID, req UpdateSubscriptionRequest) (*ApartmentResponse, error) {
	apartment, err := s.apartmentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if apartment == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Apartment not found")
	}
	if err := apartment.SetSubscriptionAmount(valueobject.NewMoneyEUR(req.SubscriptionAmount)); err != nil {
		return nil, err
	}
	if err := s.apartmentRepo.SaveWithLock(ctx, apartment); err != nil {
		return nil, err
	}
	return toApartmentResponse(apartment), nil
}

func toBuildingResponse(b *property.Building, apartmentCount int64) *BuildingResponse {
	return &BuildingResponse{
		ID:             b.ID,
		Name:           b.Name,
		Address:        b.Address,
		ApartmentCount: apartmentCount,
		CreatedAt:      b.CreatedAt,
	}
}

func toApartmentResponse(a *property.Apartment) *ApartmentResponse {
	return &ApartmentResponse{
		ID:                 a.ID,
		BuildingID:         a.BuildingID,
		UnitNumber:         a.UnitNumber,
		OccupantName:       a.OccupantName,
		SubscriptionAmount: a.SubscriptionAmount,
		Balance:            a.Balance,
		CollectionStageID:  a.CollectionStageID,
		DebtSince:          a.DebtSince,
		CreatedAt:          a.CreatedAt,
	}
}
