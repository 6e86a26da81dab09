package invoicing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestDecide_Confirm(t *testing.T) {
	t.Run("draft with items decrements stock and books remaining", func(t *testing.T) {
		d, err := Decide(TransitionInput{
			Current: StatusDraft, Transition: TransitionConfirm,
			Total: dec("200"), Paid: dec("0"), ItemCount: 1,
		})
		require.NoError(t, err)
		assert.Equal(t, StatusConfirmed, d.Next)
		assert.True(t, d.Has(EffectDecrementStock))
		e, ok := d.Effect(EffectIncreaseBalance)
		require.True(t, ok)
		assert.True(t, e.Amount.Equal(dec("200")))
	})

	t.Run("zero items rejected", func(t *testing.T) {
		_, err := Decide(TransitionInput{Current: StatusDraft, Transition: TransitionConfirm})
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("already confirmed is a no-op", func(t *testing.T) {
		for _, s := range []InvoiceStatus{StatusConfirmed, StatusPaid, StatusPartiallyPaid, StatusOverdue} {
			d, err := Decide(TransitionInput{Current: s, Transition: TransitionConfirm, ItemCount: 1})
			require.NoError(t, err)
			assert.True(t, d.NoOp)
			assert.Empty(t, d.Effects)
			assert.Equal(t, s, d.Next)
		}
	})

	t.Run("cancelled cannot be confirmed", func(t *testing.T) {
		_, err := Decide(TransitionInput{Current: StatusCancelled, Transition: TransitionConfirm, ItemCount: 1})
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})

	t.Run("zero total books nothing", func(t *testing.T) {
		d, err := Decide(TransitionInput{Current: StatusDraft, Transition: TransitionConfirm, Total: dec("0"), ItemCount: 1})
		require.NoError(t, err)
		assert.False(t, d.Has(EffectIncreaseBalance))
	})
}

func TestDecide_Unconfirm(t *testing.T) {
	t.Run("unpaid confirmed invoice releases effects", func(t *testing.T) {
		d, err := Decide(TransitionInput{
			Current: StatusConfirmed, Transition: TransitionUnconfirm,
			Total: dec("50"), StockApplied: true, BalanceApplied: dec("50"),
		})
		require.NoError(t, err)
		assert.Equal(t, StatusDraft, d.Next)
		assert.True(t, d.Has(EffectRestoreStock))
		e, _ := d.Effect(EffectDecreaseBalance)
		assert.True(t, e.Amount.Equal(dec("50")))
	})

	t.Run("payments block unconfirm", func(t *testing.T) {
		_, err := Decide(TransitionInput{Current: StatusPartiallyPaid, Transition: TransitionUnconfirm, Total: dec("50"), Paid: dec("20")})
		assert.ErrorIs(t, err, ErrHasPayments)
	})

	t.Run("draft is a no-op", func(t *testing.T) {
		d, err := Decide(TransitionInput{Current: StatusDraft, Transition: TransitionUnconfirm})
		require.NoError(t, err)
		assert.True(t, d.NoOp)
	})

	t.Run("cancelled is rejected", func(t *testing.T) {
		_, err := Decide(TransitionInput{Current: StatusCancelled, Transition: TransitionUnconfirm})
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})
}

func TestDecide_Edit(t *testing.T) {
	_, err := Decide(TransitionInput{Current: StatusDraft, Transition: TransitionEdit})
	assert.NoError(t, err)

	_, err = Decide(TransitionInput{Current: StatusConfirmed, Transition: TransitionEdit})
	assert.ErrorIs(t, err, ErrInvoiceNotEditable)
}

func TestDecide_AddPayment(t *testing.T) {
	base := TransitionInput{Current: StatusConfirmed, Transition: TransitionAddPayment, Total: dec("50"), Paid: dec("0")}

	t.Run("partial payment", func(t *testing.T) {
		in := base
		in.Amount = dec("20")
		d, err := Decide(in)
		require.NoError(t, err)
		assert.Equal(t, StatusPartiallyPaid, d.Next)
		e, _ := d.Effect(EffectDecreaseBalance)
		assert.True(t, e.Amount.Equal(dec("20")))
	})

	t.Run("exact remaining goes straight to paid", func(t *testing.T) {
		in := base
		in.Amount = dec("50")
		d, err := Decide(in)
		require.NoError(t, err)
		assert.Equal(t, StatusPaid, d.Next)
	})

	t.Run("over remaining rejected", func(t *testing.T) {
		in := base
		in.Paid = dec("20")
		in.Amount = dec("30.01")
		_, err := Decide(in)
		assert.ErrorIs(t, err, ErrAmountExceedsRemaining)
	})

	t.Run("non-positive rejected", func(t *testing.T) {
		in := base
		in.Amount = dec("0")
		_, err := Decide(in)
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("draft and cancelled are not payable", func(t *testing.T) {
		for _, s := range []InvoiceStatus{StatusDraft, StatusCancelled} {
			in := base
			in.Current = s
			in.Amount = dec("10")
			_, err := Decide(in)
			assert.ErrorIs(t, err, ErrInvoiceNotPayable)
		}
	})

	t.Run("overdue invoices are payable", func(t *testing.T) {
		in := base
		in.Current = StatusOverdue
		in.Amount = dec("10")
		d, err := Decide(in)
		require.NoError(t, err)
		assert.Equal(t, StatusPartiallyPaid, d.Next)
	})
}

func TestDecide_DeletePayment(t *testing.T) {
	t.Run("recomputes status from remaining", func(t *testing.T) {
		d, err := Decide(TransitionInput{Current: StatusPaid, Transition: TransitionDeletePayment, Total: dec("50"), Paid: dec("50"), Amount: dec("30")})
		require.NoError(t, err)
		assert.Equal(t, StatusPartiallyPaid, d.Next)
		e, _ := d.Effect(EffectIncreaseBalance)
		assert.True(t, e.Amount.Equal(dec("30")))

		d, err = Decide(TransitionInput{Current: StatusPartiallyPaid, Transition: TransitionDeletePayment, Total: dec("50"), Paid: dec("20"), Amount: dec("20")})
		require.NoError(t, err)
		assert.Equal(t, StatusConfirmed, d.Next)
	})

	t.Run("cancelled invoice rejected", func(t *testing.T) {
		_, err := Decide(TransitionInput{Current: StatusCancelled, Transition: TransitionDeletePayment, Amount: dec("1")})
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})

	t.Run("cannot drive paid negative", func(t *testing.T) {
		_, err := Decide(TransitionInput{Current: StatusPartiallyPaid, Transition: TransitionDeletePayment, Total: dec("50"), Paid: dec("10"), Amount: dec("20")})
		assert.Error(t, err)
	})
}

func TestDecide_Delete(t *testing.T) {
	d, err := Decide(TransitionInput{Current: StatusPartiallyPaid, Transition: TransitionDelete, Total: dec("50"), Paid: dec("20"), StockApplied: true, BalanceApplied: dec("30")})
	require.NoError(t, err)
	assert.True(t, d.Has(EffectRestoreStock))
	assert.True(t, d.Has(EffectRemoveInvoice))
	e, _ := d.Effect(EffectDecreaseBalance)
	assert.True(t, e.Amount.Equal(dec("30")))

	d, err = Decide(TransitionInput{Current: StatusDraft, Transition: TransitionDelete})
	require.NoError(t, err)
	assert.False(t, d.Has(EffectRestoreStock))
	assert.False(t, d.Has(EffectDecreaseBalance))
}

func TestDecide_Cancel(t *testing.T) {
	d, err := Decide(TransitionInput{Current: StatusConfirmed, Transition: TransitionCancel, StockApplied: true, BalanceApplied: dec("50")})
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, d.Next)
	assert.True(t, d.Has(EffectRestoreStock))

	_, err = Decide(TransitionInput{Current: StatusPartiallyPaid, Transition: TransitionCancel, Paid: dec("1")})
	assert.ErrorIs(t, err, ErrHasPayments)

	d, err = Decide(TransitionInput{Current: StatusCancelled, Transition: TransitionCancel})
	require.NoError(t, err)
	assert.True(t, d.NoOp)

	_, err = Decide(TransitionInput{Current: StatusDraft, Transition: TransitionCancel})
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestDecide_UnknownInput(t *testing.T) {
	_, err := Decide(TransitionInput{Current: InvoiceStatus(42), Transition: TransitionConfirm})
	assert.Error(t, err)

	_, err = Decide(TransitionInput{Current: StatusDraft, Transition: Transition("archive")})
	assert.Error(t, err)
}
