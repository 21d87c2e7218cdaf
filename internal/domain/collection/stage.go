package collection

import (
	"time"

	"github.com/bms/backend/internal/domain/shared"
)

// ActionType names the action triggered when an apartment enters a stage
type ActionType string

const (
	ActionTypeEmailReminder ActionType = "email_reminder"
	ActionTypeFormalNotice  ActionType = "formal_notice"
	ActionTypeFinalWarning  ActionType = "final_warning"
	ActionTypeCustom        ActionType = "custom"
)

// IsValid returns true if the action type is valid
func (a ActionType) IsValid() bool {
	switch a {
	case ActionTypeEmailReminder, ActionTypeFormalNotice, ActionTypeFinalWarning, ActionTypeCustom:
		return true
	}
	return false
}

// String returns the string representation of ActionType
func (a ActionType) String() string {
	return string(a)
}

// CollectionStage is one configurable escalation step for overdue apartments.
// Stages are ordered by StageNumber; an apartment only ever moves to a higher
// stage, never back, until its debt clears.
type CollectionStage struct {
	shared.BaseAggregateRoot
	StageNumber     int
	Name            string
	DaysOverdue     int // threshold: stage applies once the debt is at least this old
	ActionType      ActionType
	MessageTemplate string
	IsActive        bool
}

// NewCollectionStage creates a collection stage
func NewCollectionStage(stageNumber int, name string, daysOverdue int, actionType ActionType, messageTemplate string) (*CollectionStage, error) {
	if stageNumber <= 0 {
		return nil, shared.NewDomainError("INVALID_STAGE_NUMBER", "Stage number must be positive")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Stage name cannot be empty")
	}
	if daysOverdue < 0 {
		return nil, shared.NewDomainError("INVALID_THRESHOLD", "Days overdue threshold cannot be negative")
	}
	if !actionType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ACTION_TYPE", "Unknown collection action type")
	}

	return &CollectionStage{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		StageNumber:       stageNumber,
		Name:              name,
		DaysOverdue:       daysOverdue,
		ActionType:        actionType,
		MessageTemplate:   messageTemplate,
		IsActive:          true,
	}, nil
}

// Update replaces the editable fields of the stage
func (s *CollectionStage) Update(name string, daysOverdue int, actionType ActionType, messageTemplate string, isActive bool) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Stage name cannot be empty")
	}
	if daysOverdue < 0 {
		return shared.NewDomainError("INVALID_THRESHOLD", "Days overdue threshold cannot be negative")
	}
	if !actionType.IsValid() {
		return shared.NewDomainError("INVALID_ACTION_TYPE", "Unknown collection action type")
	}

	s.Name = name
	s.DaysOverdue = daysOverdue
	s.ActionType = actionType
	s.MessageTemplate = messageTemplate
	s.IsActive = isActive
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
	return nil
}

// Applies returns true when the debt is old enough to reach this stage
func (s *CollectionStage) Applies(daysOverdue int) bool {
	return s.IsActive && daysOverdue >= s.DaysOverdue
}

// NextStage picks the stage an apartment should escalate to, or nil if it
// stays where it is. Candidates are active stages whose threshold the debt
// age has reached and whose number is strictly above the current one; the
// highest such stage wins, so a long-overdue apartment skips intermediate
// steps rather than walking them one scan at a time.
func NextStage(stages []*CollectionStage, currentNumber int, daysOverdue int) *CollectionStage {
	var best *CollectionStage
	for _, s := range stages {
		if !s.Applies(daysOverdue) {
			continue
		}
		if s.StageNumber <= currentNumber {
			continue
		}
		if best == nil || s.StageNumber > best.StageNumber {
			best = s
		}
	}
	return best
}
