package collection

import (
	"context"
	"testing"
	"time"

	"github.com/bms/backend/internal/domain/collection"
	"github.com/bms/backend/internal/domain/property"
	"github.com/bms/backend/internal/domain/shared"
	"github.com/bms/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// =============================================================================
// Mocks
// =============================================================================

type MockApartmentRepository struct {
	mock.Mock
}

func (m *MockApartmentRepository) Save(ctx context.Context, apartment *property.Apartment) error {
	args := m.Called(ctx, apartment)
	return args.Error(0)
}

func (m *MockApartmentRepository) SaveWithLock(ctx context.Context, apartment *property.Apartment) error {
	args := m.Called(ctx, apartment)
	return args.Error(0)
}

func (m *MockApartmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*property.Apartment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*property.Apartment), args.Error(1)
}

func (m *MockApartmentRepository) FindByBuildingID(ctx context.Context, buildingID uuid.UUID) ([]*property.Apartment, error) {
	args := m.Called(ctx, buildingID)
	return args.Get(0).([]*property.Apartment), args.Error(1)
}

func (m *MockApartmentRepository) CountByBuildingID(ctx context.Context, buildingID uuid.UUID) (int64, error) {
	args := m.Called(ctx, buildingID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockApartmentRepository) FindInCollectionScope(ctx context.Context) ([]*property.Apartment, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*property.Apartment), args.Error(1)
}

func (m *MockApartmentRepository) FindWithSubscription(ctx context.Context) ([]*property.Apartment, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*property.Apartment), args.Error(1)
}

type MockLogRepository struct {
	mock.Mock
}

func (m *MockLogRepository) Save(ctx context.Context, entry *collection.LogEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockLogRepository) Find(ctx context.Context, filter collection.LogFilter) ([]*collection.LogEntry, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*collection.LogEntry), args.Get(1).(int64), args.Error(2)
}

func (m *MockLogRepository) ExistsForStage(ctx context.Context, apartmentID, stageID uuid.UUID) (bool, error) {
	args := m.Called(ctx, apartmentID, stageID)
	return args.Bool(0), args.Error(1)
}

// versionedApartmentRepo enforces the same optimistic lock predicate as the
// GORM repository: a write succeeds only while the caller holds the stored
// version it read, no matter how often the aggregate was touched in memory
// since then.
type versionedApartmentRepo struct {
	MockApartmentRepository
	apt           *property.Apartment
	storedVersion int
	saves         int
}

func (r *versionedApartmentRepo) FindInCollectionScope(context.Context) ([]*property.Apartment, error) {
	return []*property.Apartment{r.apt}, nil
}

func (r *versionedApartmentRepo) SaveWithLock(_ context.Context, apt *property.Apartment) error {
	if apt.LoadedVersion() != r.storedVersion {
		return shared.ErrConcurrencyConflict
	}
	r.storedVersion = apt.GetVersion()
	apt.MarkLoaded()
	r.saves++
	return nil
}

type staticStageProvider struct {
	stages []*collection.CollectionStage
}

func (p staticStageProvider) ActiveStages(context.Context) ([]*collection.CollectionStage, error) {
	return p.stages, nil
}

type recordingNotifier struct {
	ch chan Notification
}

func (n *recordingNotifier) Notify(_ context.Context, notification Notification) error {
	n.ch <- notification
	return nil
}

// =============================================================================
// Fixtures
// =============================================================================

func testStages(t *testing.T) []*collection.CollectionStage {
	s1, err := collection.NewCollectionStage(1, "First reminder", 15, collection.ActionTypeEmailReminder, "")
	require.NoError(t, err)
	s2, err := collection.NewCollectionStage(2, "Formal notice", 30, collection.ActionTypeFormalNotice, "")
	require.NoError(t, err)
	s3, err := collection.NewCollectionStage(3, "Final warning", 60, collection.ActionTypeFinalWarning, "")
	require.NoError(t, err)
	return []*collection.CollectionStage{s1, s2, s3}
}

func overdueApartment(t *testing.T, debt float64, since time.Time) *property.Apartment {
	apt, err := property.NewApartment(uuid.New(), "1", "Occupant", valueobject.ZeroEUR())
	require.NoError(t, err)
	require.NoError(t, apt.Debit(valueobject.NewMoneyEURFromFloat(debt)))
	apt.MarkDebtSince(since)
	return apt
}

func newCollectionService(apartmentRepo *MockApartmentRepository, logRepo *MockLogRepository, stages []*collection.CollectionStage, notifier Notifier) *CollectionService {
	return newCollectionServiceWithStageRepo(apartmentRepo, new(MockStageRepository), logRepo, stages, notifier)
}

func newCollectionServiceWithStageRepo(apartmentRepo property.ApartmentRepository, stageRepo collection.StageRepository, logRepo collection.LogRepository, stages []*collection.CollectionStage, notifier Notifier) *CollectionService {
	if notifier == nil {
		notifier = NoOpNotifier{}
	}
	txScope := NewNoOpTransactionScope(apartmentRepo, logRepo)
	return NewCollectionService(txScope, apartmentRepo, staticStageProvider{stages}, stageRepo, logRepo, notifier, zap.NewNop())
}

// =============================================================================
// Tests
// =============================================================================

func TestCollectionService_ProcessCollections_Escalates(t *testing.T) {
	stages := testStages(t)
	now := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	apt := overdueApartment(t, 200, now.AddDate(0, 0, -20))

	apartmentRepo := new(MockApartmentRepository)
	logRepo := new(MockLogRepository)
	apartmentRepo.On("FindInCollectionScope", mock.Anything).Return([]*property.Apartment{apt}, nil)
	apartmentRepo.On("SaveWithLock", mock.Anything, apt).Return(nil)

	var logged *collection.LogEntry
	logRepo.On("Save", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		logged = args.Get(1).(*collection.LogEntry)
	}).Return(nil)

	svc := newCollectionService(apartmentRepo, logRepo, stages, nil)
	resp, err := svc.ProcessCollections(context.Background(), now)
	require.NoError(t, err)

	assert.Equal(t, 1, resp.ProcessedCount)
	assert.Equal(t, 1, resp.ActionsTriggered)
	require.NotNil(t, apt.CollectionStageID)
	assert.Equal(t, stages[0].ID, *apt.CollectionStageID)

	require.NotNil(t, logged)
	assert.Equal(t, apt.ID, logged.ApartmentID)
	assert.Equal(t, 1, logged.StageNumber)
	assert.Equal(t, collection.ActionTypeEmailReminder, logged.ActionType)
}

func TestCollectionService_ProcessCollections_SkipsToHighestApplicable(t *testing.T) {
	stages := testStages(t)
	now := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	// 90 days overdue, never escalated before: goes straight to stage 3
	apt := overdueApartment(t, 500, now.AddDate(0, 0, -90))

	apartmentRepo := new(MockApartmentRepository)
	logRepo := new(MockLogRepository)
	apartmentRepo.On("FindInCollectionScope", mock.Anything).Return([]*property.Apartment{apt}, nil)
	apartmentRepo.On("SaveWithLock", mock.Anything, apt).Return(nil)
	logRepo.On("Save", mock.Anything, mock.MatchedBy(func(e *collection.LogEntry) bool {
		return e.StageNumber == 3
	})).Return(nil)

	svc := newCollectionService(apartmentRepo, logRepo, stages, nil)
	resp, err := svc.ProcessCollections(context.Background(), now)
	require.NoError(t, err)

	assert.Equal(t, 1, resp.ActionsTriggered)
	assert.Equal(t, stages[2].ID, *apt.CollectionStageID)
	logRepo.AssertExpectations(t)
}

func TestCollectionService_ProcessCollections_NoRepeatAtSameStage(t *testing.T) {
	stages := testStages(t)
	now := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	apt := overdueApartment(t, 200, now.AddDate(0, 0, -20))
	require.NoError(t, apt.AdvanceToStage(stages[0].ID))

	apartmentRepo := new(MockApartmentRepository)
	logRepo := new(MockLogRepository)
	apartmentRepo.On("FindInCollectionScope", mock.Anything).Return([]*property.Apartment{apt}, nil)
	apartmentRepo.On("SaveWithLock", mock.Anything, apt).Return(nil)

	svc := newCollectionService(apartmentRepo, logRepo, stages, nil)
	resp, err := svc.ProcessCollections(context.Background(), now)
	require.NoError(t, err)

	// still 20 days overdue, already at stage 1: nothing to do
	assert.Equal(t, 1, resp.ProcessedCount)
	assert.Zero(t, resp.ActionsTriggered)
	logRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	assert.Equal(t, stages[0].ID, *apt.CollectionStageID)
}

func TestCollectionService_ProcessCollections_StampsDebtSince(t *testing.T) {
	stages := testStages(t)
	now := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	apt, err := property.NewApartment(uuid.New(), "1", "Occupant", valueobject.ZeroEUR())
	require.NoError(t, err)
	require.NoError(t, apt.Debit(valueobject.NewMoneyEURFromFloat(100)))
	require.Nil(t, apt.DebtSince)

	apartmentRepo := new(MockApartmentRepository)
	logRepo := new(MockLogRepository)
	apartmentRepo.On("FindInCollectionScope", mock.Anything).Return([]*property.Apartment{apt}, nil)
	apartmentRepo.On("SaveWithLock", mock.Anything, apt).Return(nil)

	svc := newCollectionService(apartmentRepo, logRepo, stages, nil)
	resp, err := svc.ProcessCollections(context.Background(), now)
	require.NoError(t, err)

	// fresh debt: timestamp stamped, no stage reached yet
	require.NotNil(t, apt.DebtSince)
	assert.Equal(t, now, *apt.DebtSince)
	assert.Nil(t, apt.CollectionStageID)
	assert.Zero(t, resp.ActionsTriggered)
}

func TestCollectionService_ProcessCollections_ExitsOnRestoredBalance(t *testing.T) {
	stages := testStages(t)
	now := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	apt := overdueApartment(t, 200, now.AddDate(0, 0, -40))
	require.NoError(t, apt.AdvanceToStage(stages[1].ID))
	require.NoError(t, apt.Credit(valueobject.NewMoneyEURFromFloat(200)))

	apartmentRepo := new(MockApartmentRepository)
	logRepo := new(MockLogRepository)
	apartmentRepo.On("FindInCollectionScope", mock.Anything).Return([]*property.Apartment{apt}, nil)
	apartmentRepo.On("SaveWithLock", mock.Anything, apt).Return(nil)

	svc := newCollectionService(apartmentRepo, logRepo, stages, nil)
	resp, err := svc.ProcessCollections(context.Background(), now)
	require.NoError(t, err)

	assert.Nil(t, apt.CollectionStageID)
	assert.Nil(t, apt.DebtSince)
	assert.Zero(t, resp.ActionsTriggered)
	logRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCollectionService_ProcessCollections_Notifies(t *testing.T) {
	stages := testStages(t)
	now := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	apt := overdueApartment(t, 200, now.AddDate(0, 0, -35))

	apartmentRepo := new(MockApartmentRepository)
	logRepo := new(MockLogRepository)
	apartmentRepo.On("FindInCollectionScope", mock.Anything).Return([]*property.Apartment{apt}, nil)
	apartmentRepo.On("SaveWithLock", mock.Anything, apt).Return(nil)
	logRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

	notifier := &recordingNotifier{ch: make(chan Notification, 1)}
	svc := newCollectionService(apartmentRepo, logRepo, stages, notifier)
	_, err := svc.ProcessCollections(context.Background(), now)
	require.NoError(t, err)

	select {
	case n := <-notifier.ch:
		assert.Equal(t, apt.ID, n.ApartmentID)
		assert.Equal(t, 2, n.StageNumber)
		assert.Equal(t, collection.ActionTypeFormalNotice, n.ActionType)
		assert.Equal(t, 35, n.DaysOverdue)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a notification")
	}
}

func TestCollectionService_ProcessCollections_LockSurvivesMultipleTouches(t *testing.T) {
	now := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	// a zero-day stage applies the moment the debt timestamp lands, so one
	// scan both stamps the timestamp and advances the stage
	stage, err := collection.NewCollectionStage(1, "Immediate reminder", 0, collection.ActionTypeEmailReminder, "")
	require.NoError(t, err)

	apt, err := property.NewApartment(uuid.New(), "1", "Occupant", valueobject.ZeroEUR())
	require.NoError(t, err)
	require.NoError(t, apt.Debit(valueobject.NewMoneyEURFromFloat(150)))
	require.Nil(t, apt.DebtSince)
	apt.MarkLoaded()
	repo := &versionedApartmentRepo{apt: apt, storedVersion: apt.GetVersion()}

	logRepo := new(MockLogRepository)
	var logged *collection.LogEntry
	logRepo.On("Save", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		logged = args.Get(1).(*collection.LogEntry)
	}).Return(nil)

	svc := newCollectionServiceWithStageRepo(repo, new(MockStageRepository), logRepo, []*collection.CollectionStage{stage}, nil)
	resp, err := svc.ProcessCollections(context.Background(), now)
	require.NoError(t, err)

	assert.Equal(t, 1, resp.ProcessedCount)
	assert.Equal(t, 1, resp.ActionsTriggered)
	assert.Equal(t, 1, repo.saves)
	require.NotNil(t, apt.DebtSince)
	require.NotNil(t, apt.CollectionStageID)
	assert.Equal(t, stage.ID, *apt.CollectionStageID)
	require.NotNil(t, logged)
	assert.Equal(t, 1, logged.StageNumber)
}

func TestCollectionService_ProcessCollections_DeactivatedStageStillAnchors(t *testing.T) {
	stages := testStages(t)
	now := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	apt := overdueApartment(t, 500, now.AddDate(0, 0, -90))
	require.NoError(t, apt.AdvanceToStage(stages[2].ID))
	require.NoError(t, stages[2].Update(stages[2].Name, stages[2].DaysOverdue, stages[2].ActionType, stages[2].MessageTemplate, false))

	apartmentRepo := new(MockApartmentRepository)
	logRepo := new(MockLogRepository)
	stageRepo := new(MockStageRepository)
	apartmentRepo.On("FindInCollectionScope", mock.Anything).Return([]*property.Apartment{apt}, nil)
	apartmentRepo.On("SaveWithLock", mock.Anything, apt).Return(nil)
	stageRepo.On("FindByID", mock.Anything, stages[2].ID).Return(stages[2], nil)

	// only stages 1 and 2 remain active; the apartment sits at the
	// deactivated stage 3 and must not slide back down
	svc := newCollectionServiceWithStageRepo(apartmentRepo, stageRepo, logRepo, stages[:2], nil)
	resp, err := svc.ProcessCollections(context.Background(), now)
	require.NoError(t, err)

	assert.Equal(t, 1, resp.ProcessedCount)
	assert.Zero(t, resp.ActionsTriggered)
	assert.Equal(t, stages[2].ID, *apt.CollectionStageID)
	logRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCollectionService_ProcessCollections_MissingStageRowSkipsEscalation(t *testing.T) {
	stages := testStages(t)
	now := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	apt := overdueApartment(t, 500, now.AddDate(0, 0, -90))
	ghost := uuid.New()
	require.NoError(t, apt.AdvanceToStage(ghost))

	apartmentRepo := new(MockApartmentRepository)
	logRepo := new(MockLogRepository)
	stageRepo := new(MockStageRepository)
	apartmentRepo.On("FindInCollectionScope", mock.Anything).Return([]*property.Apartment{apt}, nil)
	apartmentRepo.On("SaveWithLock", mock.Anything, apt).Return(nil)
	stageRepo.On("FindByID", mock.Anything, ghost).Return(nil, nil)

	svc := newCollectionServiceWithStageRepo(apartmentRepo, stageRepo, logRepo, stages, nil)
	resp, err := svc.ProcessCollections(context.Background(), now)
	require.NoError(t, err)

	assert.Equal(t, 1, resp.ProcessedCount)
	assert.Zero(t, resp.ActionsTriggered)
	assert.Equal(t, ghost, *apt.CollectionStageID)
	logRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}
