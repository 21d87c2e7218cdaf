package billing

import (
	"context"
	"time"

	"github.com/bms/backend/internal/domain/billing"
	"github.com/bms/backend/internal/domain/property"
	"github.com/bms/backend/internal/domain/shared"
	"github.com/bms/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ExpenseService creates building expenses and fans them out into per-apartment
// obligations. Splitting and balance debits happen in one transaction, so a
// partially billed expense never becomes visible.
type ExpenseService struct {
	txScope      TransactionScope
	buildingRepo property.BuildingRepository
	expenseRepo  billing.ExpenseRepository
	logger       *zap.Logger
}

// NewExpenseService creates a new ExpenseService
func NewExpenseService(
	txScope TransactionScope,
	buildingRepo property.BuildingRepository,
	expenseRepo billing.ExpenseRepository,
	logger *zap.Logger,
) *ExpenseService {
	return &ExpenseService{
		txScope:      txScope,
		buildingRepo: buildingRepo,
		expenseRepo:  expenseRepo,
		logger:       logger,
	}
}

// CreateExpenseRequest represents a request to create an expense
type CreateExpenseRequest struct {
	BuildingID         uuid.UUID       `json:"building_id" binding:"required"`
	Description        string          `json:"description" binding:"required"`
	Amount             decimal.Decimal `json:"amount" binding:"required"`
	Date               time.Time       `json:"date" binding:"required"`
	Category           string          `json:"category"`
	TargetApartmentID  *uuid.UUID      `json:"target_apartment_id"`
	IsRecurring        bool            `json:"is_recurring"`
	RecurringType      string          `json:"recurring_type"`
	RecurringStartDate *time.Time      `json:"recurring_start_date"`
	RecurringEndDate   *time.Time      `json:"recurring_end_date"`
}

// ExpenseResponse represents an expense in API responses
type ExpenseResponse struct {
	ID                 uuid.UUID       `json:"id"`
	BuildingID         uuid.UUID       `json:"building_id"`
	Description        string          `json:"description"`
	Amount             decimal.Decimal `json:"amount"`
	Date               time.Time       `json:"date"`
	Category           string          `json:"category,omitempty"`
	TargetApartmentID  *uuid.UUID      `json:"target_apartment_id,omitempty"`
	IsRecurring        bool            `json:"is_recurring"`
	RecurringType      string          `json:"recurring_type,omitempty"`
	RecurringStartDate *time.Time      `json:"recurring_start_date,omitempty"`
	RecurringEndDate   *time.Time      `json:"recurring_end_date,omitempty"`
	ParentExpenseID    *uuid.UUID      `json:"parent_expense_id,omitempty"`
	SharesCreated      int             `json:"shares_created"`
	CreatedAt          time.Time       `json:"created_at"`
}

// ExpenseListFilter defines filtering options for expense list queries
type ExpenseListFilter struct {
	Category  string     `form:"category"`
	FromDate  *time.Time `form:"from_date"`
	ToDate    *time.Time `form:"to_date"`
	Recurring *bool      `form:"recurring"`
	Page      int        `form:"page"`
	PageSize  int        `form:"page_size"`
}

// CreateExpense creates an expense and bills it.
//
// A whole-building expense is split equally across the building's apartments
// ordered by unit number; remainder cents go to the first apartments, so the
// shares always sum to the expense amount exactly. A targeted expense is
// billed to one apartment in full. A recurring request only stores the
// template; the scheduler bills dated instances later.
func (s *ExpenseService) CreateExpense(ctx context.Context, req CreateExpenseRequest) (*ExpenseResponse, error) {
	building, err := s.buildingRepo.FindByID(ctx, req.BuildingID)
	if err != nil {
		return nil, err
	}
	if building == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Building not found")
	}

	amount := valueobject.NewMoneyEUR(req.Amount)

	if req.IsRecurring {
		if req.RecurringStartDate == nil {
			return nil, shared.NewDomainError("INVALID_RECURRING_RANGE", "Recurring start date is required")
		}
		template, err := billing.NewRecurringExpense(
			req.BuildingID, req.Description, amount, req.Category, req.TargetApartmentID,
			billing.RecurringType(req.RecurringType), *req.RecurringStartDate, req.RecurringEndDate,
		)
		if err != nil {
			return nil, err
		}
		if err := s.expenseRepo.Save(ctx, template); err != nil {
			return nil, err
		}
		return toExpenseResponse(template, 0), nil
	}

	expense, err := billing.NewExpense(req.BuildingID, req.Description, amount, req.Date, req.Category, req.TargetApartmentID)
	if err != nil {
		return nil, err
	}

	shares, err := s.billExpense(ctx, expense)
	if err != nil {
		return nil, err
	}

	s.logger.Info("expense created",
		zap.String("expense_id", expense.ID.String()),
		zap.String("building_id", expense.BuildingID.String()),
		zap.String("amount", expense.Amount.StringFixed(2)),
		zap.Int("shares", shares))

	return toExpenseResponse(expense, shares), nil
}

// billExpense persists the expense together with its shares and balance
// debits in a single transaction. Returns the number of shares created.
func (s *ExpenseService) billExpense(ctx context.Context, expense *billing.Expense) (int, error) {
	var shares int
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		apartments, err := s.resolveTargets(ctx, repos, expense)
		if err != nil {
			return err
		}

		parts, err := expense.AmountMoney().Allocate(len(apartments))
		if err != nil {
			return err
		}

		obligations := make([]*billing.Obligation, 0, len(apartments))
		for i, apt := range apartments {
			obligation, err := billing.NewExpenseShare(apt.ID, expense.ID, expense.Description, parts[i], expense.Date)
			if err != nil {
				return err
			}
			obligations = append(obligations, obligation)

			if err := apt.Debit(parts[i]); err != nil {
				return err
			}
			if err := repos.ApartmentRepo().SaveWithLock(ctx, apt); err != nil {
				return err
			}
		}

		if err := repos.ExpenseRepo().Save(ctx, expense); err != nil {
			return err
		}
		if err := repos.ObligationRepo().CreateBatch(ctx, obligations); err != nil {
			return err
		}

		shares = len(obligations)
		return nil
	})
	return shares, err
}

// resolveTargets returns the apartments an expense bills, ordered by unit
// number. The order decides which apartments absorb remainder cents.
func (s *ExpenseService) resolveTargets(ctx context.Context, repos TransactionalRepositories, expense *billing.Expense) ([]*property.Apartment, error) {
	if expense.TargetApartmentID != nil {
		apt, err := repos.ApartmentRepo().FindByID(ctx, *expense.TargetApartmentID)
		if err != nil {
			return nil, err
		}
		if apt == nil {
			return nil, shared.NewDomainError("NOT_FOUND", "Target apartment not found")
		}
		if apt.BuildingID != expense.BuildingID {
			return nil, shared.NewDomainError("APARTMENT_NOT_IN_BUILDING", "Target apartment belongs to a different building")
		}
		return []*property.Apartment{apt}, nil
	}

	apartments, err := repos.ApartmentRepo().FindByBuildingID(ctx, expense.BuildingID)
	if err != nil {
		return nil, err
	}
	if len(apartments) == 0 {
		return nil, shared.NewDomainError("NO_APARTMENTS", "Building has no apartments to bill")
	}
	return apartments, nil
}

// GetExpense gets an expense by ID
func (s *ExpenseService) GetExpense(ctx context.Context, id uuid.UUID) (*ExpenseResponse, error) {
	expense, err := s.expenseRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if expense == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Expense not found")
	}
	return toExpenseResponse(expense, 0), nil
}

// ListExpenses lists a building's expenses
func (s *ExpenseService) ListExpenses(ctx context.Context, buildingID uuid.UUID, filter ExpenseListFilter) ([]*ExpenseResponse, int64, error) {
	expenses, total, err := s.expenseRepo.FindByBuildingID(ctx, buildingID, billing.ExpenseFilter{
		Category:  filter.Category,
		FromDate:  filter.FromDate,
		ToDate:    filter.ToDate,
		Recurring: filter.Recurring,
		Page:      filter.Page,
		PageSize:  filter.PageSize,
	})
	if err != nil {
		return nil, 0, err
	}

	responses := make([]*ExpenseResponse, len(expenses))
	for i, e := range expenses {
		responses[i] = toExpenseResponse(e, 0)
	}
	return responses, total, nil
}

// DeleteExpense removes an expense and rolls its billing back.
//
// Deletion is refused once any share has received a payment: the shares are
// part of the payment audit trail at that point, and silently forgiving paid
// amounts would corrupt it. Callers cancel the payments first if they really
// want the expense gone. Deleting a recurring template only stops future
// instances; already billed instances stay.
func (s *ExpenseService) DeleteExpense(ctx context.Context, id uuid.UUID) error {
	return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		expense, err := repos.ExpenseRepo().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if expense == nil {
			return shared.NewDomainError("NOT_FOUND", "Expense not found")
		}

		if expense.IsTemplate() {
			return repos.ExpenseRepo().Delete(ctx, id)
		}

		obligations, err := repos.ObligationRepo().FindByExpenseID(ctx, id)
		if err != nil {
			return err
		}
		for _, o := range obligations {
			if o.HasPayments() {
				return shared.NewDomainError("HAS_PAYMENTS", "Expense has paid shares; cancel the payments first")
			}
		}

		for _, o := range obligations {
			apt, err := repos.ApartmentRepo().FindByID(ctx, o.ApartmentID)
			if err != nil {
				return err
			}
			if apt == nil {
				return shared.NewDomainError("NOT_FOUND", "Apartment not found")
			}
			if err := apt.Credit(valueobject.NewMoneyEUR(o.Amount)); err != nil {
				return err
			}
			if err := repos.ApartmentRepo().SaveWithLock(ctx, apt); err != nil {
				return err
			}
		}

		if err := repos.ObligationRepo().DeleteByExpenseID(ctx, id); err != nil {
			return err
		}
		return repos.ExpenseRepo().Delete(ctx, id)
	})
}

// MaterializeRecurring bills every recurring template occurrence that is due
// and not yet materialized. Idempotent: each period is billed at most once,
// keyed by the instance's period under the template's cadence.
func (s *ExpenseService) MaterializeRecurring(ctx context.Context, now time.Time) (int, error) {
	templates, err := s.expenseRepo.FindRecurringTemplates(ctx)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, tpl := range templates {
		instances, err := s.expenseRepo.FindInstancesByParentID(ctx, tpl.ID)
		if err != nil {
			return created, err
		}
		existing := make(map[string]bool, len(instances))
		for _, inst := range instances {
			existing[tpl.RecurringType.PeriodKey(inst.Date)] = true
		}

		for _, date := range tpl.OccurrencesUntil(now) {
			if existing[tpl.RecurringType.PeriodKey(date)] {
				continue
			}
			instance, err := tpl.Instantiate(date)
			if err != nil {
				return created, err
			}
			if _, err := s.billExpense(ctx, instance); err != nil {
				s.logger.Error("failed to materialize recurring expense",
					zap.String("template_id", tpl.ID.String()),
					zap.Time("occurrence", date),
					zap.Error(err))
				return created, err
			}
			created++
		}
	}
	return created, nil
}

func toExpenseResponse(e *billing.Expense, shares int) *ExpenseResponse {
	return &ExpenseResponse{
		ID:                 e.ID,
		BuildingID:         e.BuildingID,
		Description:        e.Description,
		Amount:             e.Amount,
		Date:               e.Date,
		Category:           e.Category,
		TargetApartmentID:  e.TargetApartmentID,
		IsRecurring:        e.IsRecurring,
		RecurringType:      e.RecurringType.String(),
		RecurringStartDate: e.RecurringStartDate,
		RecurringEndDate:   e.RecurringEndDate,
		ParentExpenseID:    e.ParentExpenseID,
		SharesCreated:      shares,
		CreatedAt:          e.CreatedAt,
	}
}
