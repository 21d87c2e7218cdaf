package billing

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/bms/backend/internal/domain/shared"
	"github.com/bms/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Allocation records part of a payment applied to a specific obligation.
// It is a value object within the Payment aggregate, stored as JSONB.
type Allocation struct {
	ObligationID uuid.UUID       `json:"obligation_id"`
	Amount       decimal.Decimal `json:"amount"`
}

// Allocations is a slice of Allocation that implements GORM Scanner/Valuer for JSONB storage
type Allocations []Allocation

// Value implements driver.Valuer interface for GORM to store as JSONB
func (a Allocations) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	return json.Marshal(a)
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (a *Allocations) Scan(value interface{}) error {
	if value == nil {
		*a = Allocations{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan Allocations: unsupported type")
	}

	if len(bytes) == 0 {
		*a = Allocations{}
		return nil
	}

	return json.Unmarshal(bytes, a)
}

// Total returns the sum of all allocated amounts
func (a Allocations) Total() decimal.Decimal {
	total := decimal.Zero
	for _, alloc := range a {
		total = total.Add(alloc.Amount)
	}
	return total
}

// Payment represents money received for an apartment.
//
// The stored allocation list is the realized one (after server-side clamping),
// so the record is always internally consistent: Allocations.Total() never
// exceeds Amount, and the difference is the free-credit portion.
type Payment struct {
	shared.BaseAggregateRoot
	ApartmentID uuid.UUID
	Amount      decimal.Decimal
	Month       string // billing month, "2006-01"
	Remark      string
	Allocations Allocations
	IsCanceled  bool
	CanceledAt  *time.Time
	PaidAt      time.Time
}

// NewPayment creates a new payment for an apartment
func NewPayment(apartmentID uuid.UUID, amount valueobject.Money, month string) (*Payment, error) {
	if apartmentID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_APARTMENT", "Apartment ID cannot be empty")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if _, err := time.Parse("2006-01", month); err != nil {
		return nil, shared.NewDomainError("INVALID_MONTH", "Billing month must be in YYYY-MM format")
	}

	return &Payment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ApartmentID:       apartmentID,
		Amount:            amount.Amount(),
		Month:             month,
		Allocations:       Allocations{},
		PaidAt:            time.Now(),
	}, nil
}

// WithRemark sets the remark on the payment
func (p *Payment) WithRemark(remark string) *Payment {
	p.Remark = remark
	return p
}

// AmountMoney returns the payment amount as Money
func (p *Payment) AmountMoney() valueobject.Money {
	return valueobject.NewMoneyEUR(p.Amount)
}

// SetAllocations records the realized allocation list.
// The total must not exceed the payment amount and every entry must be positive.
func (p *Payment) SetAllocations(allocations Allocations) error {
	for _, a := range allocations {
		if a.ObligationID == uuid.Nil {
			return shared.NewDomainError("INVALID_ALLOCATION", "Allocation obligation ID cannot be empty")
		}
		if !a.Amount.IsPositive() {
			return shared.NewDomainError("INVALID_ALLOCATION", "Allocation amount must be positive")
		}
	}
	if allocations.Total().GreaterThan(p.Amount) {
		return shared.NewDomainError("ALLOCATION_EXCEEDS_PAYMENT", "Allocated total exceeds payment amount")
	}

	p.Allocations = allocations
	return nil
}

// Unallocated returns the free-credit portion of the payment
func (p *Payment) Unallocated() decimal.Decimal {
	return p.Amount.Sub(p.Allocations.Total())
}

// UnallocatedMoney returns the free-credit portion as Money
func (p *Payment) UnallocatedMoney() valueobject.Money {
	return valueobject.NewMoneyEUR(p.Unallocated())
}

// Cancel marks the payment as canceled. Returns false when the payment was
// already canceled; cancellation is permanent, there is no un-cancel.
func (p *Payment) Cancel() bool {
	if p.IsCanceled {
		return false
	}
	now := time.Now()
	p.IsCanceled = true
	p.CanceledAt = &now
	p.UpdatedAt = now
	p.IncrementVersion()
	return true
}
