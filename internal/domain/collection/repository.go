package collection

import (
	"context"

	"github.com/google/uuid"
)

// StageRepository defines the persistence interface for collection stages
type StageRepository interface {
	Save(ctx context.Context, stage *CollectionStage) error
	FindByID(ctx context.Context, id uuid.UUID) (*CollectionStage, error)
	FindByStageNumber(ctx context.Context, stageNumber int) (*CollectionStage, error)
	// List returns all stages ordered by stage number ascending
	List(ctx context.Context) ([]*CollectionStage, error)
	// ListActive returns active stages ordered by stage number ascending
	ListActive(ctx context.Context) ([]*CollectionStage, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// LogFilter narrows collection log queries
type LogFilter struct {
	ApartmentID *uuid.UUID
	Page        int
	PageSize    int
}

// LogRepository defines the persistence interface for the collection audit log
type LogRepository interface {
	Save(ctx context.Context, entry *LogEntry) error
	// Find returns entries newest first along with the total match count
	Find(ctx context.Context, filter LogFilter) ([]*LogEntry, int64, error)
	// ExistsForStage reports whether an apartment already has an entry for a stage
	ExistsForStage(ctx context.Context, apartmentID, stageID uuid.UUID) (bool, error)
}
