package billing

import (
	"context"
	"time"

	"github.com/bms/backend/internal/domain/billing"
	"github.com/bms/backend/internal/domain/property"
	"github.com/bms/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// LedgerService exposes the per-apartment ledger: what is owed, what was
// owed, and the running balance. It also materializes monthly subscription
// dues into real obligation rows.
type LedgerService struct {
	txScope        TransactionScope
	apartmentRepo  property.ApartmentRepository
	obligationRepo billing.ObligationRepository
	logger         *zap.Logger
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(
	txScope TransactionScope,
	apartmentRepo property.ApartmentRepository,
	obligationRepo billing.ObligationRepository,
	logger *zap.Logger,
) *LedgerService {
	return &LedgerService{
		txScope:        txScope,
		apartmentRepo:  apartmentRepo,
		obligationRepo: obligationRepo,
		logger:         logger,
	}
}

// UnpaidObligationResponse is one line of the unpaid ledger view.
// Synthetic entries represent the current period's subscription due before it
// is materialized: they carry no obligation ID and cannot receive allocations.
type UnpaidObligationResponse struct {
	ObligationID *uuid.UUID      `json:"obligation_id,omitempty"`
	Kind         string          `json:"kind"`
	Description  string          `json:"description"`
	Amount       decimal.Decimal `json:"amount"`
	AmountPaid   decimal.Decimal `json:"amount_paid"`
	Remaining    decimal.Decimal `json:"remaining"`
	DueDate      time.Time       `json:"due_date"`
	Synthetic    bool            `json:"synthetic"`
}

// ObligationResponse represents a persisted obligation in API responses
type ObligationResponse struct {
	ID          uuid.UUID       `json:"id"`
	ApartmentID uuid.UUID       `json:"apartment_id"`
	Kind        string          `json:"kind"`
	ExpenseID   *uuid.UUID      `json:"expense_id,omitempty"`
	Period      string          `json:"period,omitempty"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	AmountPaid  decimal.Decimal `json:"amount_paid"`
	Remaining   decimal.Decimal `json:"remaining"`
	DueDate     time.Time       `json:"due_date"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ApartmentLedgerResponse is the unpaid ledger view for one apartment
type ApartmentLedgerResponse struct {
	ApartmentID uuid.UUID                   `json:"apartment_id"`
	Balance     decimal.Decimal             `json:"balance"`
	TotalOwed   decimal.Decimal             `json:"total_owed"`
	Obligations []*UnpaidObligationResponse `json:"obligations"`
}

// ListUnpaidObligations returns the apartment's open ledger lines, oldest
// due date first. When the current period's subscription due has not been
// materialized yet, a synthetic entry for it is interleaved at its due date
// so the caller sees the full picture of what the apartment owes today.
func (s *LedgerService) ListUnpaidObligations(ctx context.Context, apartmentID uuid.UUID, now time.Time) (*ApartmentLedgerResponse, error) {
	apt, err := s.apartmentRepo.FindByID(ctx, apartmentID)
	if err != nil {
		return nil, err
	}
	if apt == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Apartment not found")
	}

	unpaid, err := s.obligationRepo.FindUnpaidByApartmentID(ctx, apartmentID)
	if err != nil {
		return nil, err
	}

	entries := make([]*UnpaidObligationResponse, 0, len(unpaid)+1)
	for _, o := range unpaid {
		id := o.ID
		entries = append(entries, &UnpaidObligationResponse{
			ObligationID: &id,
			Kind:         o.Kind.String(),
			Description:  o.Description,
			Amount:       o.Amount,
			AmountPaid:   o.AmountPaid,
			Remaining:    o.Remaining(),
			DueDate:      o.DueDate,
		})
	}

	if synthetic, err := s.syntheticSubscriptionDue(ctx, apt, now); err != nil {
		return nil, err
	} else if synthetic != nil {
		entries = insertByDueDate(entries, synthetic)
	}

	totalOwed := decimal.Zero
	for _, e := range entries {
		totalOwed = totalOwed.Add(e.Remaining)
	}

	return &ApartmentLedgerResponse{
		ApartmentID: apartmentID,
		Balance:     apt.Balance,
		TotalOwed:   totalOwed,
		Obligations: entries,
	}, nil
}

// syntheticSubscriptionDue builds the virtual current-period subscription
// entry, or nil when the apartment has no subscription or the period has
// already been materialized as a real obligation.
func (s *LedgerService) syntheticSubscriptionDue(ctx context.Context, apt *property.Apartment, now time.Time) (*UnpaidObligationResponse, error) {
	if !apt.SubscriptionAmount.IsPositive() {
		return nil, nil
	}

	period := now.Format("2006-01")
	exists, err := s.obligationRepo.SubscriptionExists(ctx, apt.ID, period)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, nil
	}

	dueDate := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return &UnpaidObligationResponse{
		Kind:        billing.ObligationKindSubscription.String(),
		Description: "Subscription " + period,
		Amount:      apt.SubscriptionAmount,
		AmountPaid:  decimal.Zero,
		Remaining:   apt.SubscriptionAmount,
		DueDate:     dueDate,
		Synthetic:   true,
	}, nil
}

// insertByDueDate keeps the oldest-first ordering when adding an entry
func insertByDueDate(entries []*UnpaidObligationResponse, entry *UnpaidObligationResponse) []*UnpaidObligationResponse {
	for i, e := range entries {
		if entry.DueDate.Before(e.DueDate) {
			entries = append(entries[:i], append([]*UnpaidObligationResponse{entry}, entries[i:]...)...)
			return entries
		}
	}
	return append(entries, entry)
}

// ListObligationHistory returns all obligations ever recorded for an
// apartment, oldest due date first, settled ones included.
func (s *LedgerService) ListObligationHistory(ctx context.Context, apartmentID uuid.UUID) ([]*ObligationResponse, error) {
	apt, err := s.apartmentRepo.FindByID(ctx, apartmentID)
	if err != nil {
		return nil, err
	}
	if apt == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Apartment not found")
	}

	obligations, err := s.obligationRepo.FindByApartmentID(ctx, apartmentID)
	if err != nil {
		return nil, err
	}

	responses := make([]*ObligationResponse, len(obligations))
	for i, o := range obligations {
		responses[i] = &ObligationResponse{
			ID:          o.ID,
			ApartmentID: o.ApartmentID,
			Kind:        o.Kind.String(),
			ExpenseID:   o.ExpenseID,
			Period:      o.Period,
			Description: o.Description,
			Amount:      o.Amount,
			AmountPaid:  o.AmountPaid,
			Remaining:   o.Remaining(),
			DueDate:     o.DueDate,
			CreatedAt:   o.CreatedAt,
		}
	}
	return responses, nil
}

// BillSubscriptions materializes the current period's subscription due for
// every apartment with a subscription amount. Idempotent per (apartment,
// period): a period already billed is skipped. Returns the number of dues
// created.
func (s *LedgerService) BillSubscriptions(ctx context.Context, now time.Time) (int, error) {
	apartments, err := s.apartmentRepo.FindWithSubscription(ctx)
	if err != nil {
		return 0, err
	}

	period := now.Format("2006-01")
	dueDate := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	created := 0
	for _, apt := range apartments {
		exists, err := s.obligationRepo.SubscriptionExists(ctx, apt.ID, period)
		if err != nil {
			return created, err
		}
		if exists {
			continue
		}

		aptID := apt.ID
		err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			fresh, err := repos.ApartmentRepo().FindByID(ctx, aptID)
			if err != nil {
				return err
			}
			if fresh == nil || !fresh.SubscriptionAmount.IsPositive() {
				return nil
			}

			due, err := billing.NewSubscriptionDue(fresh.ID, period, fresh.SubscriptionMoney(), dueDate)
			if err != nil {
				return err
			}
			if err := fresh.Debit(fresh.SubscriptionMoney()); err != nil {
				return err
			}
			if err := repos.ApartmentRepo().SaveWithLock(ctx, fresh); err != nil {
				return err
			}
			return repos.ObligationRepo().Save(ctx, due)
		})
		if err != nil {
			s.logger.Error("failed to bill subscription",
				zap.String("apartment_id", apt.ID.String()),
				zap.String("period", period),
				zap.Error(err))
			return created, err
		}
		created++
	}

	if created > 0 {
		s.logger.Info("subscription dues billed",
			zap.String("period", period),
			zap.Int("count", created))
	}
	return created, nil
}

// GetBalance returns the apartment's cached balance
func (s *LedgerService) GetBalance(ctx context.Context, apartmentID uuid.UUID) (decimal.Decimal, error) {
	apt, err := s.apartmentRepo.FindByID(ctx, apartmentID)
	if err != nil {
		return decimal.Zero, err
	}
	if apt == nil {
		return decimal.Zero, shared.NewDomainError("NOT_FOUND", "Apartment not found")
	}
	return apt.Balance, nil
}
