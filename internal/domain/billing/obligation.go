package billing

import (
	"fmt"
	"time"

	"github.com/bms/backend/internal/domain/shared"
	"github.com/bms/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ObligationKind distinguishes expense shares from subscription dues
type ObligationKind string

const (
	ObligationKindExpenseShare ObligationKind = "EXPENSE_SHARE"
	ObligationKindSubscription ObligationKind = "SUBSCRIPTION"
)

// IsValid returns true if the obligation kind is valid
func (k ObligationKind) IsValid() bool {
	return k == ObligationKindExpenseShare || k == ObligationKindSubscription
}

// String returns the string representation of ObligationKind
func (k ObligationKind) String() string {
	return string(k)
}

// Obligation is a single ledger line: an amount one apartment owes.
// Invariant: 0 <= AmountPaid <= Amount. AmountPaid only decreases when a
// payment applied to it is canceled.
type Obligation struct {
	shared.BaseAggregateRoot
	ApartmentID uuid.UUID
	Kind        ObligationKind
	ExpenseID   *uuid.UUID // set for expense shares, nil for subscription dues
	Period      string     // subscription period key ("2006-01"), empty for expense shares
	Description string
	Amount      decimal.Decimal
	AmountPaid  decimal.Decimal
	DueDate     time.Time // ordering key for oldest-first allocation
}

// NewExpenseShare creates an obligation tying one expense to one apartment
func NewExpenseShare(apartmentID, expenseID uuid.UUID, description string, amount valueobject.Money, dueDate time.Time) (*Obligation, error) {
	if apartmentID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_APARTMENT", "Apartment ID cannot be empty")
	}
	if expenseID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_EXPENSE", "Expense ID cannot be empty")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Obligation amount must be positive")
	}

	return &Obligation{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ApartmentID:       apartmentID,
		Kind:              ObligationKindExpenseShare,
		ExpenseID:         &expenseID,
		Description:       description,
		Amount:            amount.Amount(),
		AmountPaid:        decimal.Zero,
		DueDate:           dueDate,
	}, nil
}

// NewSubscriptionDue creates the materialized subscription obligation for one period
func NewSubscriptionDue(apartmentID uuid.UUID, period string, amount valueobject.Money, dueDate time.Time) (*Obligation, error) {
	if apartmentID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_APARTMENT", "Apartment ID cannot be empty")
	}
	if period == "" {
		return nil, shared.NewDomainError("INVALID_PERIOD", "Subscription period cannot be empty")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Obligation amount must be positive")
	}

	return &Obligation{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ApartmentID:       apartmentID,
		Kind:              ObligationKindSubscription,
		Period:            period,
		Description:       fmt.Sprintf("Subscription %s", period),
		Amount:            amount.Amount(),
		AmountPaid:        decimal.Zero,
		DueDate:           dueDate,
	}, nil
}

// Remaining returns the unpaid part of the obligation
func (o *Obligation) Remaining() decimal.Decimal {
	return o.Amount.Sub(o.AmountPaid)
}

// RemainingMoney returns the unpaid part as Money
func (o *Obligation) RemainingMoney() valueobject.Money {
	return valueobject.NewMoneyEUR(o.Remaining())
}

// IsSettled returns true when nothing remains to pay
func (o *Obligation) IsSettled() bool {
	return o.Remaining().IsZero()
}

// HasPayments returns true if any amount was ever applied and not reverted
func (o *Obligation) HasPayments() bool {
	return o.AmountPaid.IsPositive()
}

// ApplyPayment increases AmountPaid by the given amount.
// The amount must not exceed the remaining obligation; callers clamp first.
func (o *Obligation) ApplyPayment(amount valueobject.Money) error {
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Applied amount must be positive")
	}
	if amount.Amount().GreaterThan(o.Remaining()) {
		return shared.NewDomainError("EXCEEDS_REMAINING", fmt.Sprintf("Applied amount %s exceeds remaining %s", amount.StringFixed(2), o.Remaining().StringFixed(2)))
	}

	o.AmountPaid = o.AmountPaid.Add(amount.Amount())
	o.touch()
	return nil
}

// RevertPayment decreases AmountPaid by the given amount (payment cancellation)
func (o *Obligation) RevertPayment(amount valueobject.Money) error {
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Reverted amount must be positive")
	}
	if amount.Amount().GreaterThan(o.AmountPaid) {
		return shared.NewDomainError("EXCEEDS_PAID", fmt.Sprintf("Reverted amount %s exceeds paid %s", amount.StringFixed(2), o.AmountPaid.StringFixed(2)))
	}

	o.AmountPaid = o.AmountPaid.Sub(amount.Amount())
	o.touch()
	return nil
}

func (o *Obligation) touch() {
	o.UpdatedAt = time.Now()
	o.IncrementVersion()
}
