package billing

import (
	"testing"
	"time"

	"github.com/bms/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExpenseShare(t *testing.T) {
	apartmentID := uuid.New()
	expenseID := uuid.New()

	t.Run("valid", func(t *testing.T) {
		o, err := NewExpenseShare(apartmentID, expenseID, "Roof repair", valueobject.NewMoneyEURFromFloat(100), time.Now())
		require.NoError(t, err)
		assert.Equal(t, ObligationKindExpenseShare, o.Kind)
		assert.Equal(t, expenseID, *o.ExpenseID)
		assert.True(t, o.AmountPaid.IsZero())
		assert.False(t, o.IsSettled())
		assert.False(t, o.HasPayments())
	})

	t.Run("validation", func(t *testing.T) {
		_, err := NewExpenseShare(uuid.Nil, expenseID, "x", valueobject.NewMoneyEURFromFloat(1), time.Now())
		assert.Error(t, err)
		_, err = NewExpenseShare(apartmentID, uuid.Nil, "x", valueobject.NewMoneyEURFromFloat(1), time.Now())
		assert.Error(t, err)
		_, err = NewExpenseShare(apartmentID, expenseID, "x", valueobject.ZeroEUR(), time.Now())
		assert.Error(t, err)
	})
}

func TestNewSubscriptionDue(t *testing.T) {
	apartmentID := uuid.New()

	o, err := NewSubscriptionDue(apartmentID, "2026-03", valueobject.NewMoneyEURFromFloat(50), time.Now())
	require.NoError(t, err)
	assert.Equal(t, ObligationKindSubscription, o.Kind)
	assert.Nil(t, o.ExpenseID)
	assert.Equal(t, "2026-03", o.Period)
	assert.Equal(t, "Subscription 2026-03", o.Description)

	_, err = NewSubscriptionDue(apartmentID, "", valueobject.NewMoneyEURFromFloat(50), time.Now())
	assert.Error(t, err)
}

func TestObligation_ApplyPayment(t *testing.T) {
	newShare := func(t *testing.T, amount float64) *Obligation {
		o, err := NewExpenseShare(uuid.New(), uuid.New(), "x", valueobject.NewMoneyEURFromFloat(amount), time.Now())
		require.NoError(t, err)
		return o
	}

	t.Run("partial then full", func(t *testing.T) {
		o := newShare(t, 100)

		require.NoError(t, o.ApplyPayment(valueobject.NewMoneyEURFromFloat(40)))
		assert.Equal(t, "60", o.Remaining().String())
		assert.True(t, o.HasPayments())
		assert.False(t, o.IsSettled())

		require.NoError(t, o.ApplyPayment(valueobject.NewMoneyEURFromFloat(60)))
		assert.True(t, o.IsSettled())
	})

	t.Run("exceeds remaining", func(t *testing.T) {
		o := newShare(t, 100)
		err := o.ApplyPayment(valueobject.NewMoneyEURFromFloat(100.01))
		assert.Error(t, err)
		assert.True(t, o.AmountPaid.IsZero())
	})

	t.Run("non-positive", func(t *testing.T) {
		o := newShare(t, 100)
		assert.Error(t, o.ApplyPayment(valueobject.ZeroEUR()))
		assert.Error(t, o.ApplyPayment(valueobject.NewMoneyEURFromFloat(-5)))
	})
}

func TestObligation_RevertPayment(t *testing.T) {
	o, err := NewExpenseShare(uuid.New(), uuid.New(), "x", valueobject.NewMoneyEURFromFloat(100), time.Now())
	require.NoError(t, err)
	require.NoError(t, o.ApplyPayment(valueobject.NewMoneyEURFromFloat(70)))

	t.Run("exceeds paid", func(t *testing.T) {
		assert.Error(t, o.RevertPayment(valueobject.NewMoneyEURFromFloat(80)))
	})

	t.Run("full reversal", func(t *testing.T) {
		require.NoError(t, o.RevertPayment(valueobject.NewMoneyEURFromFloat(70)))
		assert.True(t, o.AmountPaid.IsZero())
		assert.Equal(t, "100", o.Remaining().String())
		assert.False(t, o.HasPayments())
	})
}
