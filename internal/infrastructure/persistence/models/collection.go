package models

import (
	"github.com/bms/backend/internal/domain/collection"
	"github.com/google/uuid"
)

// CollectionStageModel is the persistence model for the CollectionStage aggregate root.
type CollectionStageModel struct {
	AggregateModel
	StageNumber     int                   `gorm:"not null;uniqueIndex"`
	Name            string                `gorm:"type:varchar(200);not null"`
	DaysOverdue     int                   `gorm:"not null"`
	ActionType      collection.ActionType `gorm:"type:varchar(30);not null"`
	MessageTemplate string                `gorm:"type:text"`
	IsActive        bool                  `gorm:"not null;default:true;index"`
}

// TableName returns the table name for GORM
func (CollectionStageModel) TableName() string {
	return "collection_stages"
}

// ToDomain converts the persistence model to a domain CollectionStage
func (m *CollectionStageModel) ToDomain() *collection.CollectionStage {
	return &collection.CollectionStage{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		StageNumber:       m.StageNumber,
		Name:              m.Name,
		DaysOverdue:       m.DaysOverdue,
		ActionType:        m.ActionType,
		MessageTemplate:   m.MessageTemplate,
		IsActive:          m.IsActive,
	}
}

// CollectionStageModelFromDomain creates a persistence model from a domain CollectionStage
func CollectionStageModelFromDomain(s *collection.CollectionStage) *CollectionStageModel {
	m := &CollectionStageModel{
		StageNumber:     s.StageNumber,
		Name:            s.Name,
		DaysOverdue:     s.DaysOverdue,
		ActionType:      s.ActionType,
		MessageTemplate: s.MessageTemplate,
		IsActive:        s.IsActive,
	}
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	return m
}

// CollectionLogModel is the persistence model for collection log entries.
// Rows are append-only.
type CollectionLogModel struct {
	BaseModel
	ApartmentID uuid.UUID             `gorm:"type:uuid;not null;index"`
	StageID     uuid.UUID             `gorm:"type:uuid;not null;index"`
	StageNumber int                   `gorm:"not null"`
	ActionType  collection.ActionType `gorm:"type:varchar(30);not null"`
	Details     string                `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (CollectionLogModel) TableName() string {
	return "collection_log"
}

// ToDomain converts the persistence model to a domain LogEntry
func (m *CollectionLogModel) ToDomain() *collection.LogEntry {
	return &collection.LogEntry{
		BaseEntity:  m.BaseModel.ToDomain(),
		ApartmentID: m.ApartmentID,
		StageID:     m.StageID,
		StageNumber: m.StageNumber,
		ActionType:  m.ActionType,
		Details:     m.Details,
	}
}

// CollectionLogModelFromDomain creates a persistence model from a domain LogEntry
func CollectionLogModelFromDomain(e *collection.LogEntry) *CollectionLogModel {
	m := &CollectionLogModel{
		ApartmentID: e.ApartmentID,
		StageID:     e.StageID,
		StageNumber: e.StageNumber,
		ActionType:  e.ActionType,
		Details:     e.Details,
	}
	m.FromDomainBaseEntity(e.BaseEntity)
	return m
}
