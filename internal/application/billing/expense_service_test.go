package billing

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bms/backend/internal/domain/billing"
	"github.com/bms/backend/internal/domain/property"
	"github.com/bms/backend/internal/domain/shared"
	"github.com/bms/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testBuilding(t *testing.T) *property.Building {
	b, err := property.NewBuilding("Test Building", "1 Main St")
	require.NoError(t, err)
	return b
}

func testApartments(t *testing.T, buildingID uuid.UUID, count int) []*property.Apartment {
	apartments := make([]*property.Apartment, count)
	for i := range apartments {
		apt, err := property.NewApartment(buildingID, fmt.Sprintf("%d", i+1), "Occupant", valueobject.ZeroEUR())
		require.NoError(t, err)
		apartments[i] = apt
	}
	return apartments
}

func newExpenseService(m *serviceMocks) *ExpenseService {
	return NewExpenseService(m.txScope, m.buildingRepo, m.expenseRepo, testLogger())
}

func TestExpenseService_CreateExpense_EvenSplit(t *testing.T) {
	m := newServiceMocks()
	building := testBuilding(t)
	apartments := testApartments(t, building.ID, 3)

	m.buildingRepo.On("FindByID", mock.Anything, building.ID).Return(building, nil)
	m.apartmentRepo.On("FindByBuildingID", mock.Anything, building.ID).Return(apartments, nil)
	m.apartmentRepo.On("SaveWithLock", mock.Anything, mock.Anything).Return(nil).Times(3)
	m.expenseRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

	var created []*billing.Obligation
	m.obligationRepo.On("CreateBatch", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		created = args.Get(1).([]*billing.Obligation)
	}).Return(nil)

	svc := newExpenseService(m)
	resp, err := svc.CreateExpense(context.Background(), CreateExpenseRequest{
		BuildingID:  building.ID,
		Description: "Roof repair",
		Amount:      decimal.NewFromInt(300),
		Date:        time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.SharesCreated)

	require.Len(t, created, 3)
	for i, o := range created {
		assert.Equal(t, apartments[i].ID, o.ApartmentID)
		assert.Equal(t, "100.00", o.Amount.StringFixed(2))
		assert.Equal(t, "-100.00", apartments[i].Balance.StringFixed(2))
	}
	m.assertExpectations(t)
}

func TestExpenseService_CreateExpense_UnevenSplit(t *testing.T) {
	m := newServiceMocks()
	building := testBuilding(t)
	apartments := testApartments(t, building.ID, 3)

	m.buildingRepo.On("FindByID", mock.Anything, building.ID).Return(building, nil)
	m.apartmentRepo.On("FindByBuildingID", mock.Anything, building.ID).Return(apartments, nil)
	m.apartmentRepo.On("SaveWithLock", mock.Anything, mock.Anything).Return(nil).Times(3)
	m.expenseRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

	var created []*billing.Obligation
	m.obligationRepo.On("CreateBatch", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		created = args.Get(1).([]*billing.Obligation)
	}).Return(nil)

	svc := newExpenseService(m)
	_, err := svc.CreateExpense(context.Background(), CreateExpenseRequest{
		BuildingID:  building.ID,
		Description: "Elevator inspection",
		Amount:      decimal.NewFromInt(100),
		Date:        time.Now(),
	})
	require.NoError(t, err)

	// first apartment by unit number absorbs the remainder cent
	require.Len(t, created, 3)
	assert.Equal(t, "33.34", created[0].Amount.StringFixed(2))
	assert.Equal(t, "33.33", created[1].Amount.StringFixed(2))
	assert.Equal(t, "33.33", created[2].Amount.StringFixed(2))

	total := decimal.Zero
	for _, o := range created {
		total = total.Add(o.Amount)
	}
	assert.Equal(t, "100.00", total.StringFixed(2))
}

func TestExpenseService_CreateExpense_TargetedApartment(t *testing.T) {
	m := newServiceMocks()
	building := testBuilding(t)
	apartments := testApartments(t, building.ID, 1)
	target := apartments[0]

	m.buildingRepo.On("FindByID", mock.Anything, building.ID).Return(building, nil)
	m.apartmentRepo.On("FindByID", mock.Anything, target.ID).Return(target, nil)
	m.apartmentRepo.On("SaveWithLock", mock.Anything, target).Return(nil)
	m.expenseRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

	var created []*billing.Obligation
	m.obligationRepo.On("CreateBatch", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		created = args.Get(1).([]*billing.Obligation)
	}).Return(nil)

	svc := newExpenseService(m)
	resp, err := svc.CreateExpense(context.Background(), CreateExpenseRequest{
		BuildingID:        building.ID,
		Description:       "Broken window",
		Amount:            decimal.RequireFromString("85.50"),
		Date:              time.Now(),
		TargetApartmentID: &target.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.SharesCreated)
	require.Len(t, created, 1)
	assert.Equal(t, "85.50", created[0].Amount.StringFixed(2))
	assert.Equal(t, "-85.50", target.Balance.StringFixed(2))
}

func TestExpenseService_CreateExpense_TargetInOtherBuilding(t *testing.T) {
	m := newServiceMocks()
	building := testBuilding(t)
	stranger := testApartments(t, uuid.New(), 1)[0]

	m.buildingRepo.On("FindByID", mock.Anything, building.ID).Return(building, nil)
	m.apartmentRepo.On("FindByID", mock.Anything, stranger.ID).Return(stranger, nil)

	svc := newExpenseService(m)
	_, err := svc.CreateExpense(context.Background(), CreateExpenseRequest{
		BuildingID:        building.ID,
		Description:       "x",
		Amount:            decimal.NewFromInt(10),
		Date:              time.Now(),
		TargetApartmentID: &stranger.ID,
	})
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "APARTMENT_NOT_IN_BUILDING", domainErr.Code)
}

func TestExpenseService_CreateExpense_NoApartments(t *testing.T) {
	m := newServiceMocks()
	building := testBuilding(t)

	m.buildingRepo.On("FindByID", mock.Anything, building.ID).Return(building, nil)
	m.apartmentRepo.On("FindByBuildingID", mock.Anything, building.ID).Return([]*property.Apartment{}, nil)

	svc := newExpenseService(m)
	_, err := svc.CreateExpense(context.Background(), CreateExpenseRequest{
		BuildingID:  building.ID,
		Description: "x",
		Amount:      decimal.NewFromInt(10),
		Date:        time.Now(),
	})
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "NO_APARTMENTS", domainErr.Code)
}

func TestExpenseService_CreateExpense_RecurringStoresTemplateOnly(t *testing.T) {
	m := newServiceMocks()
	building := testBuilding(t)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	m.buildingRepo.On("FindByID", mock.Anything, building.ID).Return(building, nil)
	m.expenseRepo.On("Save", mock.Anything, mock.MatchedBy(func(e *billing.Expense) bool {
		return e.IsTemplate()
	})).Return(nil)

	svc := newExpenseService(m)
	resp, err := svc.CreateExpense(context.Background(), CreateExpenseRequest{
		BuildingID:         building.ID,
		Description:        "Cleaning",
		Amount:             decimal.NewFromInt(120),
		Date:               start,
		IsRecurring:        true,
		RecurringType:      "MONTHLY",
		RecurringStartDate: &start,
	})
	require.NoError(t, err)
	assert.True(t, resp.IsRecurring)
	assert.Equal(t, 0, resp.SharesCreated)
	// no obligations, no balance mutations
	m.obligationRepo.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
	m.apartmentRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
}

func TestExpenseService_DeleteExpense(t *testing.T) {
	newBilledExpense := func(t *testing.T, buildingID uuid.UUID) *billing.Expense {
		e, err := billing.NewExpense(buildingID, "Roof repair", valueobject.NewMoneyEURFromFloat(200), time.Now(), "", nil)
		require.NoError(t, err)
		return e
	}

	t.Run("restores balances and removes rows", func(t *testing.T) {
		m := newServiceMocks()
		building := testBuilding(t)
		apartments := testApartments(t, building.ID, 2)
		expense := newBilledExpense(t, building.ID)

		obligations := make([]*billing.Obligation, 2)
		for i, apt := range apartments {
			o, err := billing.NewExpenseShare(apt.ID, expense.ID, expense.Description, valueobject.NewMoneyEURFromFloat(100), expense.Date)
			require.NoError(t, err)
			require.NoError(t, apt.Debit(valueobject.NewMoneyEURFromFloat(100)))
			obligations[i] = o
		}

		m.expenseRepo.On("FindByID", mock.Anything, expense.ID).Return(expense, nil)
		m.obligationRepo.On("FindByExpenseID", mock.Anything, expense.ID).Return(obligations, nil)
		for _, apt := range apartments {
			m.apartmentRepo.On("FindByID", mock.Anything, apt.ID).Return(apt, nil)
		}
		m.apartmentRepo.On("SaveWithLock", mock.Anything, mock.Anything).Return(nil).Times(2)
		m.obligationRepo.On("DeleteByExpenseID", mock.Anything, expense.ID).Return(nil)
		m.expenseRepo.On("Delete", mock.Anything, expense.ID).Return(nil)

		svc := newExpenseService(m)
		require.NoError(t, svc.DeleteExpense(context.Background(), expense.ID))

		for _, apt := range apartments {
			assert.True(t, apt.Balance.IsZero(), "balance should be restored")
		}
		m.assertExpectations(t)
	})

	t.Run("refused when a share has payments", func(t *testing.T) {
		m := newServiceMocks()
		building := testBuilding(t)
		apartments := testApartments(t, building.ID, 1)
		expense := newBilledExpense(t, building.ID)

		o, err := billing.NewExpenseShare(apartments[0].ID, expense.ID, expense.Description, valueobject.NewMoneyEURFromFloat(200), expense.Date)
		require.NoError(t, err)
		require.NoError(t, o.ApplyPayment(valueobject.NewMoneyEURFromFloat(50)))

		m.expenseRepo.On("FindByID", mock.Anything, expense.ID).Return(expense, nil)
		m.obligationRepo.On("FindByExpenseID", mock.Anything, expense.ID).Return([]*billing.Obligation{o}, nil)

		svc := newExpenseService(m)
		err = svc.DeleteExpense(context.Background(), expense.ID)
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "HAS_PAYMENTS", domainErr.Code)
		m.expenseRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("template deletion keeps instances", func(t *testing.T) {
		m := newServiceMocks()
		building := testBuilding(t)
		start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		tpl, err := billing.NewRecurringExpense(building.ID, "Cleaning", valueobject.NewMoneyEURFromFloat(120), "", nil, billing.RecurringTypeMonthly, start, nil)
		require.NoError(t, err)

		m.expenseRepo.On("FindByID", mock.Anything, tpl.ID).Return(tpl, nil)
		m.expenseRepo.On("Delete", mock.Anything, tpl.ID).Return(nil)

		svc := newExpenseService(m)
		require.NoError(t, svc.DeleteExpense(context.Background(), tpl.ID))
		m.obligationRepo.AssertNotCalled(t, "FindByExpenseID", mock.Anything, mock.Anything)
	})

	t.Run("not found", func(t *testing.T) {
		m := newServiceMocks()
		id := uuid.New()
		m.expenseRepo.On("FindByID", mock.Anything, id).Return(nil, nil)

		svc := newExpenseService(m)
		err := svc.DeleteExpense(context.Background(), id)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "NOT_FOUND", domainErr.Code)
	})
}

func TestExpenseService_MaterializeRecurring(t *testing.T) {
	m := newServiceMocks()
	building := testBuilding(t)
	apartments := testApartments(t, building.ID, 2)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tpl, err := billing.NewRecurringExpense(building.ID, "Cleaning", valueobject.NewMoneyEURFromFloat(120), "services", nil, billing.RecurringTypeMonthly, start, nil)
	require.NoError(t, err)

	// January was already materialized, February and March are owed
	january, err := tpl.Instantiate(start)
	require.NoError(t, err)

	m.expenseRepo.On("FindRecurringTemplates", mock.Anything).Return([]*billing.Expense{tpl}, nil)
	m.expenseRepo.On("FindInstancesByParentID", mock.Anything, tpl.ID).Return([]*billing.Expense{january}, nil)
	m.apartmentRepo.On("FindByBuildingID", mock.Anything, building.ID).Return(apartments, nil)
	m.apartmentRepo.On("SaveWithLock", mock.Anything, mock.Anything).Return(nil)
	m.expenseRepo.On("Save", mock.Anything, mock.MatchedBy(func(e *billing.Expense) bool {
		return e.IsInstance() && *e.ParentExpenseID == tpl.ID
	})).Return(nil).Times(2)
	m.obligationRepo.On("CreateBatch", mock.Anything, mock.Anything).Return(nil).Times(2)

	svc := newExpenseService(m)
	created, err := svc.MaterializeRecurring(context.Background(), time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 2, created)
	m.assertExpectations(t)
}
