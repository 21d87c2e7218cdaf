package collection

import (
	"context"
	"fmt"
	"time"

	"github.com/bms/backend/internal/domain/collection"
	"github.com/bms/backend/internal/domain/property"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StageProvider supplies the active collection stages for a scan.
// Implementations may cache; stage configuration changes rarely and a scan
// reads it for every indebted apartment.
type StageProvider interface {
	ActiveStages(ctx context.Context) ([]*collection.CollectionStage, error)
}

// CollectionService runs the debt-escalation scan over all apartments in
// collection scope.
type CollectionService struct {
	txScope       TransactionScope
	apartmentRepo property.ApartmentRepository
	stages        StageProvider
	stageRepo     collection.StageRepository
	logRepo       collection.LogRepository
	notifier      Notifier
	logger        *zap.Logger
}

// NewCollectionService creates a new CollectionService
func NewCollectionService(
	txScope TransactionScope,
	apartmentRepo property.ApartmentRepository,
	stages StageProvider,
	stageRepo collection.StageRepository,
	logRepo collection.LogRepository,
	notifier Notifier,
	logger *zap.Logger,
) *CollectionService {
	return &CollectionService{
		txScope:       txScope,
		apartmentRepo: apartmentRepo,
		stages:        stages,
		stageRepo:     stageRepo,
		logRepo:       logRepo,
		notifier:      notifier,
		logger:        logger,
	}
}

// ProcessCollectionsResponse summarizes one collection scan
type ProcessCollectionsResponse struct {
	ProcessedCount   int `json:"processed_count"`
	ActionsTriggered int `json:"actions_triggered"`
}

// LogEntryResponse represents a collection log entry in API responses
type LogEntryResponse struct {
	ID          uuid.UUID `json:"id"`
	ApartmentID uuid.UUID `json:"apartment_id"`
	StageID     uuid.UUID `json:"stage_id"`
	StageNumber int       `json:"stage_number"`
	ActionType  string    `json:"action_type"`
	Details     string    `json:"details"`
	CreatedAt   time.Time `json:"created_at"`
}

// LogListFilter defines filtering options for collection log queries
type LogListFilter struct {
	ApartmentID *uuid.UUID `form:"apartment_id"`
	Page        int        `form:"page"`
	PageSize    int        `form:"page_size"`
}

// ProcessCollections scans every apartment in collection scope once.
//
// An apartment with a restored balance exits collection entirely: stage and
// debt timestamp are cleared together. An indebted apartment first gets its
// debt timestamp stamped if missing, then escalates to the highest active
// stage its debt age has reached, provided that stage is above its current
// one. Stages only move forward. Each escalation writes exactly one audit
// log entry in the same transaction; at most one transition happens per
// apartment per scan. Notifications go out after commit, best-effort.
func (s *CollectionService) ProcessCollections(ctx context.Context, now time.Time) (*ProcessCollectionsResponse, error) {
	apartments, err := s.apartmentRepo.FindInCollectionScope(ctx)
	if err != nil {
		return nil, err
	}

	activeStages, err := s.stages.ActiveStages(ctx)
	if err != nil {
		return nil, err
	}
	stageNumbers := make(map[uuid.UUID]int, len(activeStages))
	for _, st := range activeStages {
		stageNumbers[st.ID] = st.StageNumber
	}

	resp := &ProcessCollectionsResponse{}
	for _, apt := range apartments {
		triggered, err := s.processApartment(ctx, apt, activeStages, stageNumbers, now)
		if err != nil {
			// one stuck apartment must not stall the whole scan
			s.logger.Error("collection scan failed for apartment",
				zap.String("apartment_id", apt.ID.String()),
				zap.Error(err))
			continue
		}
		resp.ProcessedCount++
		if triggered {
			resp.ActionsTriggered++
		}
	}

	s.logger.Info("collection scan finished",
		zap.Int("processed", resp.ProcessedCount),
		zap.Int("actions", resp.ActionsTriggered))
	return resp, nil
}

func (s *CollectionService) processApartment(ctx context.Context, apt *property.Apartment, activeStages []*collection.CollectionStage, stageNumbers map[uuid.UUID]int, now time.Time) (bool, error) {
	if !apt.IsInDebt() {
		if !apt.InCollection() && apt.DebtSince == nil {
			return false, nil
		}
		apt.ExitCollection()
		return false, s.apartmentRepo.SaveWithLock(ctx, apt)
	}

	if apt.DebtSince == nil {
		apt.MarkDebtSince(now)
	}

	currentNumber, err := s.currentStageNumber(ctx, apt, stageNumbers)
	if err != nil {
		return false, err
	}
	if currentNumber < 0 {
		// the referenced stage no longer exists; leave the apartment where it
		// is rather than restart it from the bottom
		s.logger.Warn("apartment references unknown collection stage",
			zap.String("apartment_id", apt.ID.String()),
			zap.String("stage_id", apt.CollectionStageID.String()))
		return false, s.apartmentRepo.SaveWithLock(ctx, apt)
	}

	next := collection.NextStage(activeStages, currentNumber, apt.DaysOverdue(now))
	if next == nil {
		// no escalation, but a freshly stamped debt timestamp still persists
		return false, s.apartmentRepo.SaveWithLock(ctx, apt)
	}

	daysOverdue := apt.DaysOverdue(now)
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := apt.AdvanceToStage(next.ID); err != nil {
			return err
		}
		if err := repos.ApartmentRepo().SaveWithLock(ctx, apt); err != nil {
			return err
		}

		details := fmt.Sprintf("Escalated to stage %d (%s) after %d days overdue, balance %s",
			next.StageNumber, next.Name, daysOverdue, apt.Balance.StringFixed(2))
		entry, err := collection.NewLogEntry(apt.ID, next, details)
		if err != nil {
			return err
		}
		return repos.LogRepo().Save(ctx, entry)
	})
	if err != nil {
		return false, err
	}

	s.notify(apt, next, daysOverdue)
	return true, nil
}

// currentStageNumber resolves the apartment's current stage number for the
// forward-only comparison. A stage that was deactivated after the apartment
// reached it is no longer in the active set, but its number still anchors the
// comparison, so it is looked up from storage. Returns -1 when the stage row
// is gone entirely.
func (s *CollectionService) currentStageNumber(ctx context.Context, apt *property.Apartment, stageNumbers map[uuid.UUID]int) (int, error) {
	if apt.CollectionStageID == nil {
		return 0, nil
	}
	if n, ok := stageNumbers[*apt.CollectionStageID]; ok {
		return n, nil
	}
	stage, err := s.stageRepo.FindByID(ctx, *apt.CollectionStageID)
	if err != nil {
		return 0, err
	}
	if stage == nil {
		return -1, nil
	}
	return stage.StageNumber, nil
}

// notify delivers the stage notification without blocking the scan
func (s *CollectionService) notify(apt *property.Apartment, stage *collection.CollectionStage, daysOverdue int) {
	n := Notification{
		ApartmentID:     apt.ID,
		UnitNumber:      apt.UnitNumber,
		OccupantName:    apt.OccupantName,
		StageNumber:     stage.StageNumber,
		StageName:       stage.Name,
		ActionType:      stage.ActionType,
		MessageTemplate: stage.MessageTemplate,
		Balance:         apt.Balance.StringFixed(2),
		DaysOverdue:     daysOverdue,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.notifier.Notify(ctx, n); err != nil {
			s.logger.Warn("collection notification failed",
				zap.String("apartment_id", n.ApartmentID.String()),
				zap.Int("stage", n.StageNumber),
				zap.Error(err))
		}
	}()
}

// ListLog returns collection log entries, newest first
func (s *CollectionService) ListLog(ctx context.Context, filter LogListFilter) ([]*LogEntryResponse, int64, error) {
	entries, total, err := s.logRepo.Find(ctx, collection.LogFilter{
		ApartmentID: filter.ApartmentID,
		Page:        filter.Page,
		PageSize:    filter.PageSize,
	})
	if err != nil {
		return nil, 0, err
	}

	responses := make([]*LogEntryResponse, len(entries))
	for i, e := range entries {
		responses[i] = &LogEntryResponse{
			ID:          e.ID,
			ApartmentID: e.ApartmentID,
			StageID:     e.StageID,
			StageNumber: e.StageNumber,
			ActionType:  e.ActionType.String(),
			Details:     e.Details,
			CreatedAt:   e.CreatedAt,
		}
	}
	return responses, total, nil
}
