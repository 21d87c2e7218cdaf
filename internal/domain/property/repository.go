package property

import (
	"context"

	"github.com/google/uuid"
)

// BuildingRepository defines persistence operations for buildings
type BuildingRepository interface {
	Save(ctx context.Context, building *Building) error
	FindByID(ctx context.Context, id uuid.UUID) (*Building, error)
	List(ctx context.Context) ([]*Building, error)
}

// ApartmentRepository defines persistence operations for apartments
type ApartmentRepository interface {
	Save(ctx context.Context, apartment *Apartment) error
	// SaveWithLock persists the apartment with an optimistic version check.
	// Returns shared.ErrConcurrencyConflict when the row was modified concurrently.
	SaveWithLock(ctx context.Context, apartment *Apartment) error
	FindByID(ctx context.Context, id uuid.UUID) (*Apartment, error)
	// FindByBuildingID returns the building's apartments ordered by unit number ascending.
	// The order is load-bearing: expense splits assign remainder cents by it.
	FindByBuildingID(ctx context.Context, buildingID uuid.UUID) ([]*Apartment, error)
	CountByBuildingID(ctx context.Context, buildingID uuid.UUID) (int64, error)
	// FindInCollectionScope returns apartments with a negative balance or an
	// assigned collection stage, the working set of a collection scan.
	FindInCollectionScope(ctx context.Context) ([]*Apartment, error)
	// FindWithSubscription returns apartments with a positive subscription amount.
	FindWithSubscription(ctx context.Context) ([]*Apartment, error)
}
