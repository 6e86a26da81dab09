package invoicing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/domain/shared"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTenantID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

func newTestInvoice(t *testing.T, items ...ItemInput) *Invoice {
	t.Helper()
	inv, err := NewInvoice(testTenantID, NewInvoiceInput{
		CustomerID:   uuid.New(),
		CustomerName: "Acme Trading",
		Date:         time.Date(2026, 3, 14, 15, 30, 0, 0, time.UTC),
		PaymentType:  PaymentTypeCredit,
		Currency:     "USD",
		Items:        items,
	})
	require.NoError(t, err)
	return inv
}

func productLine(price, qty string) ItemInput {
	id := uuid.New()
	return ItemInput{ProductID: &id, Name: "Widget", Quantity: dec(qty), Price: dec(price)}
}

func assertInvariants(t *testing.T, inv *Invoice) {
	t.Helper()
	require.NoError(t, inv.CheckInvariants())
	assert.True(t, inv.RemainingAmount.Equal(inv.TotalAmount.Sub(inv.PaidAmount)))
	assert.False(t, inv.PaidAmount.IsNegative())
	assert.False(t, inv.PaidAmount.GreaterThan(inv.TotalAmount))
}

// =============================================================================
// Creation and items
// =============================================================================

func TestNewInvoice(t *testing.T) {
	t.Run("creates draft with derived totals", func(t *testing.T) {
		inv := newTestInvoice(t, productLine("100", "2"), ItemInput{Name: "Delivery", Quantity: dec("1"), Price: dec("15.5")})

		assert.Equal(t, StatusDraft, inv.Status)
		assert.True(t, inv.TotalAmount.Equal(dec("215.5")))
		assert.True(t, inv.PaidAmount.IsZero())
		assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), inv.Date)
		assert.Equal(t, 1, inv.Version)
		assertInvariants(t, inv)

		events := inv.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeInvoiceCreated, events[0].EventType())
	})

	t.Run("requires a customer", func(t *testing.T) {
		_, err := NewInvoice(testTenantID, NewInvoiceInput{Items: []ItemInput{productLine("1", "1")}})
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("rejects unknown payment type", func(t *testing.T) {
		_, err := NewInvoice(testTenantID, NewInvoiceInput{CustomerID: uuid.New(), PaymentType: "barter"})
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("rejects non-positive quantity and negative price", func(t *testing.T) {
		_, err := NewInvoice(testTenantID, NewInvoiceInput{CustomerID: uuid.New(), Items: []ItemInput{{Name: "x", Quantity: dec("0"), Price: dec("1")}}})
		assert.ErrorIs(t, err, shared.ErrValidation)

		_, err = NewInvoice(testTenantID, NewInvoiceInput{CustomerID: uuid.New(), Items: []ItemInput{{Name: "x", Quantity: dec("1"), Price: dec("-1")}}})
		assert.ErrorIs(t, err, shared.ErrValidation)
	})
}

func TestNewInvoiceItem(t *testing.T) {
	item, err := NewInvoiceItem(ItemInput{Name: " Bolt ", Quantity: dec("3"), Price: dec("0.335")})
	require.NoError(t, err)
	assert.Equal(t, "Bolt", item.Name)
	assert.True(t, item.Total.Equal(dec("1.01")))
	assert.True(t, item.Unit.Equals(valueobject.PieceUnit()))
	assert.Nil(t, item.ProductID)

	nilID := uuid.Nil
	item, err = NewInvoiceItem(ItemInput{ProductID: &nilID, Name: "Ad-hoc", Quantity: dec("1"), Price: dec("0")})
	require.NoError(t, err)
	assert.Nil(t, item.ProductID)
}

func TestInvoice_StockLines(t *testing.T) {
	id := uuid.New()
	inv := newTestInvoice(t,
		ItemInput{ProductID: &id, Name: "A", Quantity: dec("2"), Price: dec("1")},
		ItemInput{Name: "Service", Quantity: dec("1"), Price: dec("10")},
		ItemInput{ProductID: &id, Name: "A again", Quantity: dec("3"), Price: dec("1")},
	)

	lines := inv.StockLines()
	require.Len(t, lines, 1)
	assert.Equal(t, id, lines[0].ProductID)
	assert.True(t, lines[0].Quantity.Equal(dec("5")))
}

// =============================================================================
// Editing
// =============================================================================

func TestInvoice_Update(t *testing.T) {
	t.Run("draft can be edited", func(t *testing.T) {
		inv := newTestInvoice(t, productLine("10", "1"))
		notes := "rush order"
		err := inv.Update(UpdateInput{ReplaceItems: true, Items: []ItemInput{productLine("25", "4")}, Notes: &notes})
		require.NoError(t, err)
		assert.True(t, inv.TotalAmount.Equal(dec("100")))
		assert.Equal(t, "rush order", inv.Notes)
		assertInvariants(t, inv)
	})

	t.Run("confirmed invoice is not editable", func(t *testing.T) {
		inv := newTestInvoice(t, productLine("10", "1"))
		_, err := inv.Confirm()
		require.NoError(t, err)

		err = inv.Update(UpdateInput{ReplaceItems: true, Items: []ItemInput{productLine("1", "1")}})
		assert.ErrorIs(t, err, ErrInvoiceNotEditable)
		assert.True(t, inv.TotalAmount.Equal(dec("10")))
	})

	t.Run("nil customer rejected", func(t *testing.T) {
		inv := newTestInvoice(t, productLine("10", "1"))
		nilID := uuid.Nil
		assert.ErrorIs(t, inv.Update(UpdateInput{CustomerID: &nilID}), shared.ErrValidation)
	})
}

// =============================================================================
// Confirm / unconfirm
// =============================================================================

func TestInvoice_ConfirmUnconfirm(t *testing.T) {
	t.Run("confirm books the receivable once", func(t *testing.T) {
		inv := newTestInvoice(t, productLine("50", "1"))

		d, err := inv.Confirm()
		require.NoError(t, err)
		assert.False(t, d.NoOp)
		assert.Equal(t, StatusConfirmed, inv.Status)
		assert.True(t, inv.StockApplied)
		assert.True(t, inv.BalanceApplied.Equal(dec("50")))
		require.NotNil(t, inv.ConfirmedAt)

		d, err = inv.Confirm()
		require.NoError(t, err)
		assert.True(t, d.NoOp)
		assert.True(t, inv.BalanceApplied.Equal(dec("50")))
	})

	t.Run("empty invoice cannot be confirmed", func(t *testing.T) {
		inv := newTestInvoice(t)
		_, err := inv.Confirm()
		assert.ErrorIs(t, err, shared.ErrValidation)
		assert.Equal(t, StatusDraft, inv.Status)
	})

	t.Run("unconfirm releases what confirm booked", func(t *testing.T) {
		inv := newTestInvoice(t, productLine("50", "1"))
		_, err := inv.Confirm()
		require.NoError(t, err)

		d, err := inv.Unconfirm()
		require.NoError(t, err)
		e, ok := d.Effect(EffectDecreaseBalance)
		require.True(t, ok)
		assert.True(t, e.Amount.Equal(dec("50")))
		assert.True(t, d.Has(EffectRestoreStock))
		assert.Equal(t, StatusDraft, inv.Status)
		assert.False(t, inv.StockApplied)
		assert.True(t, inv.BalanceApplied.IsZero())
		assert.Nil(t, inv.ConfirmedAt)
	})
}

// =============================================================================
// Payments: scenarios
// =============================================================================

func TestInvoice_Scenarios(t *testing.T) {
	t.Run("A: cash invoice paid in full at creation", func(t *testing.T) {
		inv := newTestInvoice(t, productLine("100", "2"))
		_, err := inv.Confirm()
		require.NoError(t, err)
		_, _, err = inv.RecordPayment(PaymentInput{Amount: dec("200")})
		require.NoError(t, err)

		assert.True(t, inv.TotalAmount.Equal(dec("200")))
		assert.True(t, inv.PaidAmount.Equal(dec("200")))
		assert.True(t, inv.RemainingAmount.IsZero())
		assert.Equal(t, StatusPaid, inv.Status)
		assert.True(t, inv.BalanceApplied.IsZero())
		assertInvariants(t, inv)
	})

	inv := newTestInvoice(t, productLine("50", "1"))

	t.Run("B: credit invoice fully unpaid", func(t *testing.T) {
		_, err := inv.Confirm()
		require.NoError(t, err)
		assert.True(t, inv.RemainingAmount.Equal(dec("50")))
		assert.Equal(t, StatusConfirmed, inv.Status)
		assertInvariants(t, inv)
	})

	var second *Payment
	t.Run("C: payments move through partially paid to paid", func(t *testing.T) {
		_, d, err := inv.RecordPayment(PaymentInput{Amount: dec("20"), Method: PaymentMethodCash})
		require.NoError(t, err)
		assert.Equal(t, StatusPartiallyPaid, inv.Status)
		assert.Equal(t, StatusPartiallyPaid, d.Next)
		assert.True(t, inv.RemainingAmount.Equal(dec("30")))

		second, _, err = inv.RecordPayment(PaymentInput{Amount: dec("30"), Method: PaymentMethodBankTransfer})
		require.NoError(t, err)
		assert.Equal(t, StatusPaid, inv.Status)
		assert.True(t, inv.RemainingAmount.IsZero())
		assertInvariants(t, inv)
	})

	t.Run("D: unconfirm rejected while payments exist", func(t *testing.T) {
		_, err := inv.Unconfirm()
		assert.ErrorIs(t, err, ErrHasPayments)
		assert.Equal(t, StatusPaid, inv.Status)
	})

	t.Run("E: reversing the second payment restores partial state", func(t *testing.T) {
		reversed, d, err := inv.ReversePayment(second.ID)
		require.NoError(t, err)
		assert.Equal(t, PaymentStatusReversed, reversed.Status)
		e, _ := d.Effect(EffectIncreaseBalance)
		assert.True(t, e.Amount.Equal(dec("30")))

		assert.True(t, inv.PaidAmount.Equal(dec("20")))
		assert.True(t, inv.RemainingAmount.Equal(dec("30")))
		assert.Equal(t, StatusPartiallyPaid, inv.Status)
		assert.True(t, inv.BalanceApplied.Equal(dec("30")))
		assert.Equal(t, 2, inv.Ledger.Len(), "reversed entries stay in the ledger")
		assert.Len(t, inv.Ledger.Active(), 1)
		assertInvariants(t, inv)
	})

	t.Run("reversing twice is a no-op", func(t *testing.T) {
		_, d, err := inv.ReversePayment(second.ID)
		require.NoError(t, err)
		assert.True(t, d.NoOp)
		assert.True(t, inv.PaidAmount.Equal(dec("20")))
	})

	t.Run("unknown payment", func(t *testing.T) {
		_, _, err := inv.ReversePayment(uuid.New())
		assert.ErrorIs(t, err, ErrPaymentNotFound)
	})
}

func TestInvoice_RecordPayment_Rejections(t *testing.T) {
	t.Run("over-payment leaves state unchanged", func(t *testing.T) {
		inv := newTestInvoice(t, productLine("50", "1"))
		_, err := inv.Confirm()
		require.NoError(t, err)
		events := len(inv.GetDomainEvents())

		_, _, err = inv.RecordPayment(PaymentInput{Amount: dec("50.01")})
		assert.ErrorIs(t, err, ErrAmountExceedsRemaining)
		assert.True(t, inv.PaidAmount.IsZero())
		assert.Equal(t, StatusConfirmed, inv.Status)
		assert.Equal(t, 0, inv.Ledger.Len())
		assert.Len(t, inv.GetDomainEvents(), events)
	})

	t.Run("draft invoice not payable", func(t *testing.T) {
		inv := newTestInvoice(t, productLine("50", "1"))
		_, _, err := inv.RecordPayment(PaymentInput{Amount: dec("10")})
		assert.ErrorIs(t, err, ErrInvoiceNotPayable)
	})

	t.Run("cancelled invoice not payable", func(t *testing.T) {
		inv := newTestInvoice(t, productLine("50", "1"))
		_, err := inv.Confirm()
		require.NoError(t, err)
		_, err = inv.Cancel()
		require.NoError(t, err)

		_, _, err = inv.RecordPayment(PaymentInput{Amount: dec("10")})
		assert.ErrorIs(t, err, ErrInvoiceNotPayable)
	})

	t.Run("more than two decimals rejected", func(t *testing.T) {
		inv := newTestInvoice(t, productLine("50", "1"))
		_, err := inv.Confirm()
		require.NoError(t, err)
		_, _, err = inv.RecordPayment(PaymentInput{Amount: dec("10.005")})
		assert.ErrorIs(t, err, shared.ErrValidation)
	})
}

func TestInvoice_PrepareDelete(t *testing.T) {
	inv := newTestInvoice(t, productLine("50", "1"))
	_, err := inv.Confirm()
	require.NoError(t, err)
	_, _, err = inv.RecordPayment(PaymentInput{Amount: dec("20")})
	require.NoError(t, err)

	d, err := inv.PrepareDelete()
	require.NoError(t, err)
	assert.True(t, d.Has(EffectRestoreStock))
	e, _ := d.Effect(EffectDecreaseBalance)
	assert.True(t, e.Amount.Equal(dec("30")), "confirm booked 50, payment took 20")
	assert.True(t, d.Has(EffectRemoveInvoice))
}

func TestInvoice_CheckInvariants(t *testing.T) {
	inv := newTestInvoice(t, productLine("50", "1"))
	inv.TotalAmount = dec("49")
	assert.Error(t, inv.CheckInvariants())
}
