package property

import (
	"time"

	"github.com/bms/backend/internal/domain/shared"
	"github.com/bms/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Apartment represents a single unit inside a building.
//
// Balance is the cached running figure for the unit: negative means debt,
// positive means prepaid credit. Every mutating billing operation must update
// it in the same atomic unit as the ledger rows it touches; the balance is
// derived state, never an independent source of truth.
type Apartment struct {
	shared.BaseAggregateRoot
	BuildingID         uuid.UUID
	UnitNumber         string
	OccupantName       string
	SubscriptionAmount decimal.Decimal // recurring monthly due, zero disables subscription billing
	Balance            decimal.Decimal // signed cached balance
	CollectionStageID  *uuid.UUID      // highest collection stage reached, nil when not in collection
	DebtSince          *time.Time      // start of the current continuous negative-balance period
}

// NewApartment creates a new apartment in the given building
func NewApartment(buildingID uuid.UUID, unitNumber, occupantName string, subscription valueobject.Money) (*Apartment, error) {
	if buildingID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_BUILDING", "Building ID cannot be empty")
	}
	if unitNumber == "" {
		return nil, shared.NewDomainError("INVALID_UNIT_NUMBER", "Unit number cannot be empty")
	}
	if subscription.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Subscription amount cannot be negative")
	}

	return &Apartment{
		BaseAggregateRoot:  shared.NewBaseAggregateRoot(),
		BuildingID:         buildingID,
		UnitNumber:         unitNumber,
		OccupantName:       occupantName,
		SubscriptionAmount: subscription.Amount(),
		Balance:            decimal.Zero,
	}, nil
}

// Credit increases the apartment balance (payment applied or charge reversed)
func (a *Apartment) Credit(amount valueobject.Money) error {
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Credit amount must be positive")
	}
	a.Balance = a.Balance.Add(amount.Amount())
	a.touch()
	return nil
}

// Debit decreases the apartment balance (obligation created or payment reversed)
func (a *Apartment) Debit(amount valueobject.Money) error {
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Debit amount must be positive")
	}
	a.Balance = a.Balance.Sub(amount.Amount())
	a.touch()
	return nil
}

// BalanceMoney returns the cached balance as Money
func (a *Apartment) BalanceMoney() valueobject.Money {
	return valueobject.NewMoneyEUR(a.Balance)
}

// SubscriptionMoney returns the recurring monthly due as Money
func (a *Apartment) SubscriptionMoney() valueobject.Money {
	return valueobject.NewMoneyEUR(a.SubscriptionAmount)
}

// SetSubscriptionAmount updates the recurring monthly due
func (a *Apartment) SetSubscriptionAmount(amount valueobject.Money) error {
	if amount.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Subscription amount cannot be negative")
	}
	a.SubscriptionAmount = amount.Amount()
	a.touch()
	return nil
}

// IsInDebt returns true if the cached balance is negative
func (a *Apartment) IsInDebt() bool {
	return a.Balance.IsNegative()
}

// MarkDebtSince records the start of the current debt period if not already set
func (a *Apartment) MarkDebtSince(at time.Time) {
	if a.DebtSince != nil {
		return
	}
	a.DebtSince = &at
	a.touch()
}

// DaysOverdue returns whole days elapsed since the debt period started (0 when not in debt)
func (a *Apartment) DaysOverdue(now time.Time) int {
	if a.DebtSince == nil {
		return 0
	}
	d := int(now.Sub(*a.DebtSince).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}

// AdvanceToStage moves the apartment to the given collection stage
func (a *Apartment) AdvanceToStage(stageID uuid.UUID) error {
	if stageID == uuid.Nil {
		return shared.NewDomainError("INVALID_STAGE", "Stage ID cannot be empty")
	}
	a.CollectionStageID = &stageID
	a.touch()
	return nil
}

// ExitCollection clears the collection stage and debt-since marker.
// Called when the balance has recovered to zero or above.
func (a *Apartment) ExitCollection() {
	a.CollectionStageID = nil
	a.DebtSince = nil
	a.touch()
}

// InCollection returns true if the apartment currently holds a collection stage
func (a *Apartment) InCollection() bool {
	return a.CollectionStageID != nil
}

func (a *Apartment) touch() {
	a.UpdatedAt = time.Now()
	a.IncrementVersion()
}
