package ledger

import (
	"context"

	"github.com/google/uuid"
)

// BalanceRepository reads and writes customer balances.
// Find returns shared.ErrNotFound when the customer has no balance row yet.
type BalanceRepository interface {
	FindBalance(ctx context.Context, tenantID, customerID uuid.UUID) (*CustomerBalance, error)
	SaveBalance(ctx context.Context, balance *CustomerBalance) error
}

// StockRepository reads and writes product stock rows
type StockRepository interface {
	FindStock(ctx context.Context, tenantID, productID uuid.UUID) (*ProductStock, error)
	SaveStock(ctx context.Context, stock *ProductStock) error
}
