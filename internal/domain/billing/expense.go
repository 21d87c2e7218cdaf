package billing

import (
	"time"

	"github.com/bms/backend/internal/domain/shared"
	"github.com/bms/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RecurringType represents the cadence of a recurring expense template
type RecurringType string

const (
	RecurringTypeMonthly RecurringType = "MONTHLY"
	RecurringTypeYearly  RecurringType = "YEARLY"
)

// IsValid returns true if the recurring type is valid
func (t RecurringType) IsValid() bool {
	return t == RecurringTypeMonthly || t == RecurringTypeYearly
}

// String returns the string representation of RecurringType
func (t RecurringType) String() string {
	return string(t)
}

// PeriodKey returns the materialization key for a date under this cadence.
// Monthly expenses use "2006-01", yearly use "2006". An instance exists for a
// period exactly when a child expense with that key exists.
func (t RecurringType) PeriodKey(date time.Time) string {
	if t == RecurringTypeYearly {
		return date.Format("2006")
	}
	return date.Format("2006-01")
}

// Occurrence returns the nth occurrence date (zero-based) for a template
// anchored at start. Occurrences stay anchored to the start's day of month;
// when a month is too short the day clamps to its last day, so a template
// starting January 31 falls due on February 28, March 31 and so on instead
// of drifting past short months.
func (t RecurringType) Occurrence(start time.Time, n int) time.Time {
	if t == RecurringTypeYearly {
		y := start.Year() + n
		return time.Date(y, start.Month(), clampDay(y, start.Month(), start.Day()),
			start.Hour(), start.Minute(), start.Second(), start.Nanosecond(), start.Location())
	}
	months := int(start.Month()) - 1 + n
	y := start.Year() + months/12
	m := time.Month(months%12 + 1)
	return time.Date(y, m, clampDay(y, m, start.Day()),
		start.Hour(), start.Minute(), start.Second(), start.Nanosecond(), start.Location())
}

// clampDay limits day to the length of the given month
func clampDay(year int, month time.Month, day int) int {
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > last {
		return last
	}
	return day
}

// Expense represents a building-level cost entry.
//
// Three shapes share the struct: a one-time expense, a recurring template
// (IsRecurring set, never billed directly), and a generated instance of a
// template (ParentExpenseID set, billed like a one-time expense).
type Expense struct {
	shared.BaseAggregateRoot
	BuildingID         uuid.UUID
	Description        string
	Amount             decimal.Decimal
	Date               time.Time
	Category           string
	TargetApartmentID  *uuid.UUID // nil means split across the whole building
	IsRecurring        bool
	RecurringType      RecurringType
	RecurringStartDate *time.Time
	RecurringEndDate   *time.Time
	ParentExpenseID    *uuid.UUID
}

// NewExpense creates a one-time expense
func NewExpense(buildingID uuid.UUID, description string, amount valueobject.Money, date time.Time, category string, targetApartmentID *uuid.UUID) (*Expense, error) {
	if err := validateExpenseInput(buildingID, description, amount); err != nil {
		return nil, err
	}

	return &Expense{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		BuildingID:        buildingID,
		Description:       description,
		Amount:            amount.Amount(),
		Date:              date,
		Category:          category,
		TargetApartmentID: targetApartmentID,
	}, nil
}

// NewRecurringExpense creates a recurring expense template.
// Templates never carry obligations themselves; the scheduler materializes
// dated instances via Instantiate.
func NewRecurringExpense(buildingID uuid.UUID, description string, amount valueobject.Money, category string, targetApartmentID *uuid.UUID, recurringType RecurringType, start time.Time, end *time.Time) (*Expense, error) {
	if err := validateExpenseInput(buildingID, description, amount); err != nil {
		return nil, err
	}
	if !recurringType.IsValid() {
		return nil, shared.NewDomainError("INVALID_RECURRING_TYPE", "Recurring type must be MONTHLY or YEARLY")
	}
	if end != nil && end.Before(start) {
		return nil, shared.NewDomainError("INVALID_RECURRING_RANGE", "Recurring end date cannot precede start date")
	}

	return &Expense{
		BaseAggregateRoot:  shared.NewBaseAggregateRoot(),
		BuildingID:         buildingID,
		Description:        description,
		Amount:             amount.Amount(),
		Date:               start,
		Category:           category,
		TargetApartmentID:  targetApartmentID,
		IsRecurring:        true,
		RecurringType:      recurringType,
		RecurringStartDate: &start,
		RecurringEndDate:   end,
	}, nil
}

func validateExpenseInput(buildingID uuid.UUID, description string, amount valueobject.Money) error {
	if buildingID == uuid.Nil {
		return shared.NewDomainError("INVALID_BUILDING", "Building ID cannot be empty")
	}
	if description == "" {
		return shared.NewDomainError("INVALID_DESCRIPTION", "Expense description cannot be empty")
	}
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Expense amount must be positive")
	}
	return nil
}

// IsTemplate returns true if this expense is a recurring template
func (e *Expense) IsTemplate() bool {
	return e.IsRecurring
}

// IsInstance returns true if this expense was generated from a template
func (e *Expense) IsInstance() bool {
	return e.ParentExpenseID != nil
}

// AmountMoney returns the expense amount as Money
func (e *Expense) AmountMoney() valueobject.Money {
	return valueobject.NewMoneyEUR(e.Amount)
}

// Instantiate creates a concrete dated instance from a recurring template
func (e *Expense) Instantiate(date time.Time) (*Expense, error) {
	if !e.IsTemplate() {
		return nil, shared.NewDomainError("NOT_A_TEMPLATE", "Only recurring templates can be instantiated")
	}

	parentID := e.ID
	return &Expense{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		BuildingID:        e.BuildingID,
		Description:       e.Description,
		Amount:            e.Amount,
		Date:              date,
		Category:          e.Category,
		TargetApartmentID: e.TargetApartmentID,
		ParentExpenseID:   &parentID,
	}, nil
}

// OccurrencesUntil lists the occurrence dates the template owes up to and
// including now, bounded by the recurring end date. Callers skip dates whose
// period has already been materialized.
func (e *Expense) OccurrencesUntil(now time.Time) []time.Time {
	if !e.IsTemplate() || e.RecurringStartDate == nil {
		return nil
	}

	var out []time.Time
	start := *e.RecurringStartDate
	for n := 0; ; n++ {
		d := e.RecurringType.Occurrence(start, n)
		if d.After(now) {
			break
		}
		if e.RecurringEndDate != nil && d.After(*e.RecurringEndDate) {
			break
		}
		out = append(out, d)
	}
	return out
}
