package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/domain/invoicing"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/domain/ledger"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormStockLedger(t *testing.T) {
	ctx := context.Background()
	tenantID, productA, productB := uuid.New(), uuid.New(), uuid.New()

	t.Run("decrement and restore several products", func(t *testing.T) {
		l := NewGormStockLedger(newTestDB(t), true)
		stock := ledger.NewProductStock(tenantID, productA)
		require.NoError(t, stock.Set(decimal.NewFromInt(10)))
		require.NoError(t, l.SaveStock(ctx, stock))

		lines := []invoicing.StockLine{
			{ProductID: productB, Quantity: decimal.NewFromInt(2)},
			{ProductID: productA, Quantity: decimal.RequireFromString("3.5")},
		}
		require.NoError(t, l.Decrement(ctx, tenantID, lines))

		a, err := l.FindStock(ctx, tenantID, productA)
		require.NoError(t, err)
		assert.True(t, a.Quantity.Equal(decimal.RequireFromString("6.5")))
		b, err := l.FindStock(ctx, tenantID, productB)
		require.NoError(t, err)
		assert.True(t, b.Quantity.Equal(decimal.NewFromInt(-2)), "missing rows start at zero")

		require.NoError(t, l.Restore(ctx, tenantID, lines))
		a, err = l.FindStock(ctx, tenantID, productA)
		require.NoError(t, err)
		assert.True(t, a.Quantity.Equal(decimal.NewFromInt(10)))
	})

	t.Run("negative stock disallowed", func(t *testing.T) {
		l := NewGormStockLedger(newTestDB(t), false)
		stock := ledger.NewProductStock(tenantID, productA)
		require.NoError(t, stock.Set(decimal.NewFromInt(1)))
		require.NoError(t, l.SaveStock(ctx, stock))

		err := l.Decrement(ctx, tenantID, []invoicing.StockLine{
			{ProductID: productA, Quantity: decimal.NewFromInt(1)},
			{ProductID: productB, Quantity: decimal.NewFromInt(1)},
		})
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)

		a, err := l.FindStock(ctx, tenantID, productA)
		require.NoError(t, err)
		assert.True(t, a.Quantity.Equal(decimal.NewFromInt(1)), "failed decrement leaves no partial change")
	})

	t.Run("find missing row", func(t *testing.T) {
		l := NewGormStockLedger(newTestDB(t), true)
		_, err := l.FindStock(ctx, tenantID, productA)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormBalanceLedger(t *testing.T) {
	l := NewGormBalanceLedger(newTestDB(t))
	ctx := context.Background()
	tenantID, customerID := uuid.New(), uuid.New()

	_, err := l.FindBalance(ctx, tenantID, customerID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	require.NoError(t, l.Increase(ctx, tenantID, customerID, decimal.NewFromInt(100)))
	require.NoError(t, l.Decrease(ctx, tenantID, customerID, decimal.RequireFromString("30.25")))

	b, err := l.FindBalance(ctx, tenantID, customerID)
	require.NoError(t, err)
	assert.True(t, b.Balance.Equal(decimal.RequireFromString("69.75")))

	require.NoError(t, l.Decrease(ctx, tenantID, customerID, decimal.NewFromInt(80)))
	b, err = l.FindBalance(ctx, tenantID, customerID)
	require.NoError(t, err)
	assert.True(t, b.Balance.Equal(decimal.RequireFromString("-10.25")), "customer credit is a negative balance")

	assert.ErrorIs(t, l.Increase(ctx, tenantID, customerID, decimal.NewFromInt(-1)), shared.ErrValidation)

	_, err = l.FindBalance(ctx, uuid.New(), customerID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
