package property

import (
	"github.com/bms/backend/internal/domain/shared"
)

// Building represents a managed building aggregate root.
// Apartments belong to exactly one building; building-level expenses are
// split across the building's apartments.
type Building struct {
	shared.BaseAggregateRoot
	Name    string
	Address string
}

// NewBuilding creates a new building
func NewBuilding(name, address string) (*Building, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Building name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_NAME", "Building name cannot exceed 200 characters")
	}

	return &Building{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Address:           address,
	}, nil
}

// Rename updates the building name
func (b *Building) Rename(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Building name cannot be empty")
	}
	b.Name = name
	b.IncrementVersion()
	return nil
}
