package models

import (
	"time"

	"github.com/bms/backend/internal/domain/property"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BuildingModel is the persistence model for the Building aggregate root.
type BuildingModel struct {
	AggregateModel
	Name    string `gorm:"type:varchar(200);not null"`
	Address string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (BuildingModel) TableName() string {
	return "buildings"
}

// ToDomain converts the persistence model to a domain Building
func (m *BuildingModel) ToDomain() *property.Building {
	return &property.Building{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Name:              m.Name,
		Address:           m.Address,
	}
}

// BuildingModelFromDomain creates a persistence model from a domain Building
func BuildingModelFromDomain(b *property.Building) *BuildingModel {
	m := &BuildingModel{
		Name:    b.Name,
		Address: b.Address,
	}
	m.FromDomainAggregateRoot(b.BaseAggregateRoot)
	return m
}

// ApartmentModel is the persistence model for the Apartment aggregate root.
type ApartmentModel struct {
	AggregateModel
	BuildingID         uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_apartment_building_unit,priority:1"`
	UnitNumber         string          `gorm:"type:varchar(20);not null;uniqueIndex:idx_apartment_building_unit,priority:2"`
	OccupantName       string          `gorm:"type:varchar(200);not null"`
	SubscriptionAmount decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Balance            decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0;index"`
	CollectionStageID  *uuid.UUID      `gorm:"type:uuid;index"`
	DebtSince          *time.Time
}

// TableName returns the table name for GORM
func (ApartmentModel) TableName() string {
	return "apartments"
}

// ToDomain converts the persistence model to a domain Apartment
func (m *ApartmentModel) ToDomain() *property.Apartment {
	return &property.Apartment{
		BaseAggregateRoot:  m.ToDomainAggregateRoot(),
		BuildingID:         m.BuildingID,
		UnitNumber:         m.UnitNumber,
		OccupantName:       m.OccupantName,
		SubscriptionAmount: m.SubscriptionAmount,
		Balance:            m.Balance,
		CollectionStageID:  m.CollectionStageID,
		DebtSince:          m.DebtSince,
	}
}

// ApartmentModelFromDomain creates a persistence model from a domain Apartment
func ApartmentModelFromDomain(a *property.Apartment) *ApartmentModel {
	m := &ApartmentModel{
		BuildingID:         a.BuildingID,
		UnitNumber:         a.UnitNumber,
		OccupantName:       a.OccupantName,
		SubscriptionAmount: a.SubscriptionAmount,
		Balance:            a.Balance,
		CollectionStageID:  a.CollectionStageID,
		DebtSince:          a.DebtSince,
	}
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	return m
}
