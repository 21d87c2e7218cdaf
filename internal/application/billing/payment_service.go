package billing

import (
	"context"
	"time"

	"github.com/bms/backend/internal/domain/billing"
	"github.com/bms/backend/internal/domain/shared"
	"github.com/bms/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PaymentService records and cancels apartment payments.
//
// The server is the authority on allocation amounts: requested allocations
// are clamped to what each obligation still owes, never errored, and the
// payment stores the realized list. The apartment balance always moves by
// the full payment amount, in both directions.
type PaymentService struct {
	txScope TransactionScope
	logger  *zap.Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(txScope TransactionScope, logger *zap.Logger) *PaymentService {
	return &PaymentService{txScope: txScope, logger: logger}
}

// AllocationRequest is one requested (obligation, amount) pair of a payment
type AllocationRequest struct {
	ObligationID uuid.UUID       `json:"obligation_id" binding:"required"`
	Amount       decimal.Decimal `json:"amount" binding:"required"`
}

// RecordPaymentRequest represents a request to record a payment
type RecordPaymentRequest struct {
	ApartmentID uuid.UUID           `json:"apartment_id" binding:"required"`
	Amount      decimal.Decimal     `json:"amount" binding:"required"`
	Month       string              `json:"month" binding:"required,billing_month"`
	Remark      string              `json:"remark"`
	Allocations []AllocationRequest `json:"allocations"`
}

// AllocationResponse is one realized allocation in API responses
type AllocationResponse struct {
	ObligationID uuid.UUID       `json:"obligation_id"`
	Amount       decimal.Decimal `json:"amount"`
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID          uuid.UUID            `json:"id"`
	ApartmentID uuid.UUID            `json:"apartment_id"`
	Amount      decimal.Decimal      `json:"amount"`
	Month       string               `json:"month"`
	Remark      string               `json:"remark,omitempty"`
	Allocations []AllocationResponse `json:"allocations"`
	Unallocated decimal.Decimal      `json:"unallocated"`
	IsCanceled  bool                 `json:"is_canceled"`
	NewBalance  decimal.Decimal      `json:"new_balance"`
	PaidAt      time.Time            `json:"paid_at"`
	CanceledAt  *time.Time           `json:"canceled_at,omitempty"`
}

// PaymentListFilter defines filtering options for payment list queries
type PaymentListFilter struct {
	Month           string `form:"month"`
	IncludeCanceled bool   `form:"include_canceled"`
	Page            int    `form:"page"`
	PageSize        int    `form:"page_size"`
}

// RecordPayment records a payment and applies its allocations.
//
// Each requested allocation is clamped to the obligation's current remaining
// amount; clamped-to-zero entries are dropped. The unallocated remainder is
// free credit. The whole amount credits the apartment balance either way.
func (s *PaymentService) RecordPayment(ctx context.Context, req RecordPaymentRequest) (*PaymentResponse, error) {
	amount := valueobject.NewMoneyEUR(req.Amount)

	var response *PaymentResponse
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		apt, err := repos.ApartmentRepo().FindByID(ctx, req.ApartmentID)
		if err != nil {
			return err
		}
		if apt == nil {
			return shared.NewDomainError("NOT_FOUND", "Apartment not found")
		}

		payment, err := billing.NewPayment(req.ApartmentID, amount, req.Month)
		if err != nil {
			return err
		}
		payment.WithRemark(req.Remark)

		realized, err := s.applyAllocations(ctx, repos, payment, req.Allocations)
		if err != nil {
			return err
		}
		if err := payment.SetAllocations(realized); err != nil {
			return err
		}

		if err := apt.Credit(amount); err != nil {
			return err
		}
		if err := repos.ApartmentRepo().SaveWithLock(ctx, apt); err != nil {
			return err
		}
		if err := repos.PaymentRepo().Save(ctx, payment); err != nil {
			return err
		}

		response = toPaymentResponse(payment, apt.Balance)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment recorded",
		zap.String("payment_id", response.ID.String()),
		zap.String("apartment_id", req.ApartmentID.String()),
		zap.String("amount", req.Amount.StringFixed(2)),
		zap.Int("allocations", len(response.Allocations)))

	return response, nil
}

// applyAllocations clamps and applies the requested allocations, returning
// the realized list. Allocation amounts never exceed an obligation's
// remaining or the payment total, no matter what the caller asked for.
func (s *PaymentService) applyAllocations(ctx context.Context, repos TransactionalRepositories, payment *billing.Payment, requests []AllocationRequest) (billing.Allocations, error) {
	realized := billing.Allocations{}
	budget := payment.Amount

	for _, req := range requests {
		obligation, err := repos.ObligationRepo().FindByID(ctx, req.ObligationID)
		if err != nil {
			return nil, err
		}
		if obligation == nil {
			return nil, shared.NewDomainError("NOT_FOUND", "Allocated obligation not found")
		}
		if obligation.ApartmentID != payment.ApartmentID {
			return nil, shared.NewDomainError("INVALID_ALLOCATION", "Obligation belongs to a different apartment")
		}

		applied := decimal.Min(req.Amount, obligation.Remaining(), budget)
		if !applied.IsPositive() {
			continue
		}

		if err := obligation.ApplyPayment(valueobject.NewMoneyEUR(applied)); err != nil {
			return nil, err
		}
		if err := repos.ObligationRepo().Save(ctx, obligation); err != nil {
			return nil, err
		}

		realized = append(realized, billing.Allocation{ObligationID: obligation.ID, Amount: applied})
		budget = budget.Sub(applied)
	}
	return realized, nil
}

// CancelPayment reverses a payment in full.
//
// Every allocation is reverted on its obligation and the apartment balance
// drops by the original payment amount, allocated and free-credit portions
// alike. Canceling an already-canceled payment is a no-op returning the
// unchanged record; cancellation is permanent.
func (s *PaymentService) CancelPayment(ctx context.Context, paymentID uuid.UUID) (*PaymentResponse, error) {
	var response *PaymentResponse
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		payment, err := repos.PaymentRepo().FindByID(ctx, paymentID)
		if err != nil {
			return err
		}
		if payment == nil {
			return shared.NewDomainError("NOT_FOUND", "Payment not found")
		}

		apt, err := repos.ApartmentRepo().FindByID(ctx, payment.ApartmentID)
		if err != nil {
			return err
		}
		if apt == nil {
			return shared.NewDomainError("NOT_FOUND", "Apartment not found")
		}

		if !payment.Cancel() {
			response = toPaymentResponse(payment, apt.Balance)
			return nil
		}

		for _, alloc := range payment.Allocations {
			obligation, err := repos.ObligationRepo().FindByID(ctx, alloc.ObligationID)
			if err != nil {
				return err
			}
			if obligation == nil {
				return shared.NewDomainError("NOT_FOUND", "Allocated obligation not found")
			}
			if err := obligation.RevertPayment(valueobject.NewMoneyEUR(alloc.Amount)); err != nil {
				return err
			}
			if err := repos.ObligationRepo().Save(ctx, obligation); err != nil {
				return err
			}
		}

		if err := apt.Debit(payment.AmountMoney()); err != nil {
			return err
		}
		if err := repos.ApartmentRepo().SaveWithLock(ctx, apt); err != nil {
			return err
		}
		if err := repos.PaymentRepo().Save(ctx, payment); err != nil {
			return err
		}

		s.logger.Info("payment canceled",
			zap.String("payment_id", payment.ID.String()),
			zap.String("apartment_id", payment.ApartmentID.String()),
			zap.String("amount", payment.Amount.StringFixed(2)))

		response = toPaymentResponse(payment, apt.Balance)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return response, nil
}

// GetPayment gets a payment by ID
func (s *PaymentService) GetPayment(ctx context.Context, id uuid.UUID) (*PaymentResponse, error) {
	var response *PaymentResponse
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		payment, err := repos.PaymentRepo().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if payment == nil {
			return shared.NewDomainError("NOT_FOUND", "Payment not found")
		}
		response = toPaymentResponse(payment, decimal.Zero)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return response, nil
}

// ListPayments lists an apartment's payments, newest first
func (s *PaymentService) ListPayments(ctx context.Context, apartmentID uuid.UUID, filter PaymentListFilter) ([]*PaymentResponse, int64, error) {
	var responses []*PaymentResponse
	var total int64
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		payments, count, err := repos.PaymentRepo().FindByApartmentID(ctx, apartmentID, billing.PaymentFilter{
			Month:           filter.Month,
			IncludeCanceled: filter.IncludeCanceled,
			Page:            filter.Page,
			PageSize:        filter.PageSize,
		})
		if err != nil {
			return err
		}
		total = count
		responses = make([]*PaymentResponse, len(payments))
		for i, p := range payments {
			responses[i] = toPaymentResponse(p, decimal.Zero)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return responses, total, nil
}

func toPaymentResponse(p *billing.Payment, balance decimal.Decimal) *PaymentResponse {
	allocs := make([]AllocationResponse, len(p.Allocations))
	for i, a := range p.Allocations {
		allocs[i] = AllocationResponse{ObligationID: a.ObligationID, Amount: a.Amount}
	}
	return &PaymentResponse{
		ID:          p.ID,
		ApartmentID: p.ApartmentID,
		Amount:      p.Amount,
		Month:       p.Month,
		Remark:      p.Remark,
		Allocations: allocs,
		Unallocated: p.Unallocated(),
		IsCanceled:  p.IsCanceled,
		NewBalance:  balance,
		PaidAt:      p.PaidAt,
		CanceledAt:  p.CanceledAt,
	}
}
