package invoicing

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockLine is a quantity change for one product
type StockLine struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// StockPort adjusts product quantities on hand
type StockPort interface {
	Decrement(ctx context.Context, tenantID uuid.UUID, lines []StockLine) error
	Restore(ctx context.Context, tenantID uuid.UUID, lines []StockLine) error
}

// CustomerBalancePort adjusts a customer's running receivable
type CustomerBalancePort interface {
	Increase(ctx context.Context, tenantID, customerID uuid.UUID, amount decimal.Decimal) error
	Decrease(ctx context.Context, tenantID, customerID uuid.UUID, amount decimal.Decimal) error
}
