package collection

import (
	"context"

	"github.com/bms/backend/internal/domain/collection"
	"github.com/google/uuid"
)

// Notification carries everything a delivery channel needs to contact an
// occupant about a collection stage action.
type Notification struct {
	ApartmentID     uuid.UUID
	UnitNumber      string
	OccupantName    string
	StageNumber     int
	StageName       string
	ActionType      collection.ActionType
	MessageTemplate string
	Balance         string
	DaysOverdue     int
}

// Notifier delivers collection notifications. Delivery is best-effort and
// happens after the stage transition has committed: a failed delivery never
// rolls back the escalation, the log entry is the source of truth.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// NoOpNotifier discards notifications
type NoOpNotifier struct{}

// Notify implements Notifier
func (NoOpNotifier) Notify(context.Context, Notification) error { return nil }
