package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	appinvoicing "github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/application/invoicing"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/domain/invoicing"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/domain/ledger"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/domain/shared"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/infrastructure/lock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormTransactionScope_RollsBackEverything(t *testing.T) {
	db := newTestDB(t)
	scope := NewGormTransactionScope(db, true)
	ctx := context.Background()
	tenantID, customerID, productID := uuid.New(), uuid.New(), uuid.New()
	inv := newConfirmedInvoice(t, tenantID, customerID, &productID, 10)
	boom := errors.New("boom")

	err := scope.Execute(ctx, func(repos appinvoicing.TransactionalRepositories) error {
		require.NoError(t, repos.InvoiceRepo().Save(ctx, inv))
		require.NoError(t, repos.StockPort().Decrement(ctx, tenantID, inv.StockLines()))
		require.NoError(t, repos.BalancePort().Increase(ctx, tenantID, customerID, inv.TotalAmount))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = NewGormInvoiceRepository(db).FindByIDForTenant(ctx, tenantID, inv.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	_, err = NewGormStockLedger(db, true).FindStock(ctx, tenantID, productID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	_, err = NewGormBalanceLedger(db).FindBalance(ctx, tenantID, customerID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormTransactionScope_Commits(t *testing.T) {
	db := newTestDB(t)
	scope := NewGormTransactionScope(db, true)
	ctx := context.Background()
	tenantID, customerID := uuid.New(), uuid.New()

	err := scope.Execute(ctx, func(repos appinvoicing.TransactionalRepositories) error {
		return repos.BalancePort().Increase(ctx, tenantID, customerID, decimal.NewFromInt(12))
	})
	require.NoError(t, err)

	b, err := NewGormBalanceLedger(db).FindBalance(ctx, tenantID, customerID)
	require.NoError(t, err)
	assert.True(t, b.Balance.Equal(decimal.NewFromInt(12)))
}

// newSQLService wires the reconciliation service over sqlite
func newSQLService(t *testing.T, allowNegative bool) (*appinvoicing.ReconciliationService, *GormStockLedger, *GormBalanceLedger) {
	t.Helper()
	db := newTestDB(t)
	svc := appinvoicing.NewReconciliationService(
		NewGormTransactionScope(db, allowNegative),
		NewGormInvoiceRepository(db),
		NewGormPaymentRepository(db),
		NewGormActivityRepository(db),
		lock.NewKeyedMutex(time.Second),
		appinvoicing.Config{ConflictRetries: 3, DefaultCurrency: "EGP"},
	)
	return svc, NewGormStockLedger(db, allowNegative), NewGormBalanceLedger(db)
}

func TestReconciliationService_SQLRoundTrip(t *testing.T) {
	svc, stock, balances := newSQLService(t, true)
	ctx := context.Background()
	tc := shared.TenantContext{TenantID: uuid.New(), UserID: uuid.New()}
	customerID, productID := uuid.New(), uuid.New()

	opening := newStock(t, tc.TenantID, productID, 10)
	require.NoError(t, stock.SaveStock(ctx, opening))

	created, err := svc.CreateInvoice(ctx, tc, appinvoicing.CreateInvoiceRequest{
		CustomerID:   customerID,
		CustomerName: "Acme",
		Type:         "credit",
		Items: []appinvoicing.ItemRequest{
			{ProductID: &productID, Name: "Widget", Quantity: decimal.NewFromInt(4), Price: decimal.NewFromInt(25)},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int(invoicing.StatusConfirmed), created.Status)
	assert.Equal(t, "EGP", created.Currency)
	assertStockQty(t, stock, tc.TenantID, productID, "6")
	assertBalanceOf(t, balances, tc.TenantID, customerID, "100")

	paid, err := svc.AddPayment(ctx, tc, created.ID, appinvoicing.AddPaymentRequest{Amount: decimal.NewFromInt(60), IdempotencyKey: "pay-1"})
	require.NoError(t, err)
	assert.Equal(t, int(invoicing.StatusPartiallyPaid), paid.Invoice.Status)
	assertBalanceOf(t, balances, tc.TenantID, customerID, "40")

	replay, err := svc.AddPayment(ctx, tc, created.ID, appinvoicing.AddPaymentRequest{Amount: decimal.NewFromInt(60), IdempotencyKey: "pay-1"})
	require.NoError(t, err)
	assert.Equal(t, paid.Payment.ID, replay.Payment.ID)
	assertBalanceOf(t, balances, tc.TenantID, customerID, "40")

	_, err = svc.AddPayment(ctx, tc, created.ID, appinvoicing.AddPaymentRequest{Amount: decimal.NewFromInt(41)})
	assert.ErrorIs(t, err, invoicing.ErrAmountExceedsRemaining)

	settled, err := svc.AddPayment(ctx, tc, created.ID, appinvoicing.AddPaymentRequest{Amount: decimal.NewFromInt(40)})
	require.NoError(t, err)
	assert.Equal(t, int(invoicing.StatusPaid), settled.Invoice.Status)
	assert.True(t, settled.Invoice.RemainingAmount.IsZero())
	assertBalanceOf(t, balances, tc.TenantID, customerID, "0")

	reversed, err := svc.DeletePayment(ctx, tc, created.ID, settled.Payment.ID)
	require.NoError(t, err)
	assert.Equal(t, int(invoicing.StatusPartiallyPaid), reversed.Status)
	assertBalanceOf(t, balances, tc.TenantID, customerID, "40")

	payments, err := svc.ListInvoicePayments(ctx, tc, created.ID, true)
	require.NoError(t, err)
	assert.Len(t, payments, 2)

	require.NoError(t, svc.DeleteInvoice(ctx, tc, created.ID))
	assertStockQty(t, stock, tc.TenantID, productID, "10")
	assertBalanceOf(t, balances, tc.TenantID, customerID, "0")

	_, err = svc.GetInvoice(ctx, tc, created.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestReconciliationService_SQLInsufficientStockRollsBack(t *testing.T) {
	svc, stock, balances := newSQLService(t, false)
	ctx := context.Background()
	tc := shared.TenantContext{TenantID: uuid.New()}
	customerID, productID := uuid.New(), uuid.New()
	require.NoError(t, stock.SaveStock(ctx, newStock(t, tc.TenantID, productID, 1)))

	_, err := svc.CreateInvoice(ctx, tc, appinvoicing.CreateInvoiceRequest{
		CustomerID: customerID,
		Type:       "cash",
		Items: []appinvoicing.ItemRequest{
			{ProductID: &productID, Name: "Widget", Quantity: decimal.NewFromInt(2), Price: decimal.NewFromInt(5)},
		},
	})
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)

	assertStockQty(t, stock, tc.TenantID, productID, "1")
	_, err = balances.FindBalance(ctx, tc.TenantID, customerID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	list, err := svc.ListInvoices(ctx, tc, appinvoicing.ListInvoicesRequest{})
	require.NoError(t, err)
	assert.Zero(t, list.Total)
}

func newStock(t *testing.T, tenantID, productID uuid.UUID, qty int64) *ledger.ProductStock {
	t.Helper()
	s := ledger.NewProductStock(tenantID, productID)
	require.NoError(t, s.Set(decimal.NewFromInt(qty)))
	return s
}

func assertStockQty(t *testing.T, l *GormStockLedger, tenantID, productID uuid.UUID, want string) {
	t.Helper()
	s, err := l.FindStock(context.Background(), tenantID, productID)
	require.NoError(t, err)
	assert.True(t, s.Quantity.Equal(decimal.RequireFromString(want)), "stock %s, want %s", s.Quantity, want)
}

func assertBalanceOf(t *testing.T, l *GormBalanceLedger, tenantID, customerID uuid.UUID, want string) {
	t.Helper()
	b, err := l.FindBalance(context.Background(), tenantID, customerID)
	require.NoError(t, err)
	assert.True(t, b.Balance.Equal(decimal.RequireFromString(want)), "balance %s, want %s", b.Balance, want)
}
