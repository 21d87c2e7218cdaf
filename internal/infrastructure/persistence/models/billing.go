package models

import (
	"time"

	"github.com/bms/backend/internal/domain/billing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExpenseModel is the persistence model for the Expense aggregate root.
// One-time expenses, recurring templates and generated instances share the
// table, distinguished by is_recurring and parent_expense_id.
type ExpenseModel struct {
	AggregateModel
	BuildingID         uuid.UUID             `gorm:"type:uuid;not null;index"`
	Description        string                `gorm:"type:varchar(500);not null"`
	Amount             decimal.Decimal       `gorm:"type:decimal(18,2);not null"`
	Date               time.Time             `gorm:"not null;index"`
	Category           string                `gorm:"type:varchar(100);index"`
	TargetApartmentID  *uuid.UUID            `gorm:"type:uuid;index"`
	IsRecurring        bool                  `gorm:"not null;default:false;index"`
	RecurringType      billing.RecurringType `gorm:"type:varchar(10)"`
	RecurringStartDate *time.Time
	RecurringEndDate   *time.Time
	ParentExpenseID    *uuid.UUID `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (ExpenseModel) TableName() string {
	return "expenses"
}

// ToDomain converts the persistence model to a domain Expense
func (m *ExpenseModel) ToDomain() *billing.Expense {
	return &billing.Expense{
		BaseAggregateRoot:  m.ToDomainAggregateRoot(),
		BuildingID:         m.BuildingID,
		Description:        m.Description,
		Amount:             m.Amount,
		Date:               m.Date,
		Category:           m.Category,
		TargetApartmentID:  m.TargetApartmentID,
		IsRecurring:        m.IsRecurring,
		RecurringType:      m.RecurringType,
		RecurringStartDate: m.RecurringStartDate,
		RecurringEndDate:   m.RecurringEndDate,
		ParentExpenseID:    m.ParentExpenseID,
	}
}

// ExpenseModelFromDomain creates a persistence model from a domain Expense
func ExpenseModelFromDomain(e *billing.Expense) *ExpenseModel {
	m := &ExpenseModel{
		BuildingID:         e.BuildingID,
		Description:        e.Description,
		Amount:             e.Amount,
		Date:               e.Date,
		Category:           e.Category,
		TargetApartmentID:  e.TargetApartmentID,
		IsRecurring:        e.IsRecurring,
		RecurringType:      e.RecurringType,
		RecurringStartDate: e.RecurringStartDate,
		RecurringEndDate:   e.RecurringEndDate,
		ParentExpenseID:    e.ParentExpenseID,
	}
	m.FromDomainAggregateRoot(e.BaseAggregateRoot)
	return m
}

// ObligationModel is the persistence model for the Obligation aggregate root.
type ObligationModel struct {
	AggregateModel
	ApartmentID uuid.UUID              `gorm:"type:uuid;not null;index"`
	Kind        billing.ObligationKind `gorm:"type:varchar(20);not null;index"`
	ExpenseID   *uuid.UUID             `gorm:"type:uuid;index"`
	Period      string                 `gorm:"type:varchar(10);index"`
	Description string                 `gorm:"type:varchar(500);not null"`
	Amount      decimal.Decimal        `gorm:"type:decimal(18,2);not null"`
	AmountPaid  decimal.Decimal        `gorm:"type:decimal(18,2);not null;default:0"`
	DueDate     time.Time              `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (ObligationModel) TableName() string {
	return "obligations"
}

// ToDomain converts the persistence model to a domain Obligation
func (m *ObligationModel) ToDomain() *billing.Obligation {
	return &billing.Obligation{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		ApartmentID:       m.ApartmentID,
		Kind:              m.Kind,
		ExpenseID:         m.ExpenseID,
		Period:            m.Period,
		Description:       m.Description,
		Amount:            m.Amount,
		AmountPaid:        m.AmountPaid,
		DueDate:           m.DueDate,
	}
}

// ObligationModelFromDomain creates a persistence model from a domain Obligation
func ObligationModelFromDomain(o *billing.Obligation) *ObligationModel {
	m := &ObligationModel{
		ApartmentID: o.ApartmentID,
		Kind:        o.Kind,
		ExpenseID:   o.ExpenseID,
		Period:      o.Period,
		Description: o.Description,
		Amount:      o.Amount,
		AmountPaid:  o.AmountPaid,
		DueDate:     o.DueDate,
	}
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	return m
}

// PaymentModel is the persistence model for the Payment aggregate root.
// The realized allocation list is stored as JSONB inside the row, so a
// payment and its allocations live and die together.
type PaymentModel struct {
	AggregateModel
	ApartmentID uuid.UUID           `gorm:"type:uuid;not null;index"`
	Amount      decimal.Decimal     `gorm:"type:decimal(18,2);not null"`
	Month       string              `gorm:"type:varchar(7);not null;index"`
	Remark      string              `gorm:"type:text"`
	Allocations billing.Allocations `gorm:"type:jsonb;default:'[]'"`
	IsCanceled  bool                `gorm:"not null;default:false;index"`
	CanceledAt  *time.Time
	PaidAt      time.Time `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment
func (m *PaymentModel) ToDomain() *billing.Payment {
	return &billing.Payment{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		ApartmentID:       m.ApartmentID,
		Amount:            m.Amount,
		Month:             m.Month,
		Remark:            m.Remark,
		Allocations:       m.Allocations,
		IsCanceled:        m.IsCanceled,
		CanceledAt:        m.CanceledAt,
		PaidAt:            m.PaidAt,
	}
}

// PaymentModelFromDomain creates a persistence model from a domain Payment
func PaymentModelFromDomain(p *billing.Payment) *PaymentModel {
	m := &PaymentModel{
		ApartmentID: p.ApartmentID,
		Amount:      p.Amount,
		Month:       p.Month,
		Remark:      p.Remark,
		Allocations: p.Allocations,
		IsCanceled:  p.IsCanceled,
		CanceledAt:  p.CanceledAt,
		PaidAt:      p.PaidAt,
	}
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	return m
}
