package collection

import (
	"github.com/bms/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// LogEntry is the immutable audit record of one collection action taken
// against one apartment. Entries are append-only; nothing updates them.
type LogEntry struct {
	shared.BaseEntity
	ApartmentID uuid.UUID
	StageID     uuid.UUID
	StageNumber int
	ActionType  ActionType
	Details     string
}

// NewLogEntry records that a stage action was taken for an apartment
func NewLogEntry(apartmentID uuid.UUID, stage *CollectionStage, details string) (*LogEntry, error) {
	if apartmentID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_APARTMENT", "Apartment ID cannot be empty")
	}
	if stage == nil {
		return nil, shared.NewDomainError("INVALID_STAGE", "Collection stage cannot be nil")
	}

	return &LogEntry{
		BaseEntity:  shared.NewBaseEntity(),
		ApartmentID: apartmentID,
		StageID:     stage.ID,
		StageNumber: stage.StageNumber,
		ActionType:  stage.ActionType,
		Details:     details,
	}, nil
}
