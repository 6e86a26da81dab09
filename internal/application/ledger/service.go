package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/domain/ledger"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/domain/shared"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// BalanceResponse is a customer's running balance
type BalanceResponse struct {
	CustomerID uuid.UUID       `json:"customerId"`
	Balance    decimal.Decimal `json:"balance"`
	UpdatedAt  *time.Time      `json:"updatedAt,omitempty"`
}

// StockResponse is a product's quantity on hand
type StockResponse struct {
	ProductID uuid.UUID       `json:"productId"`
	Quantity  decimal.Decimal `json:"quantity"`
	UpdatedAt *time.Time      `json:"updatedAt,omitempty"`
}

// SetStockRequest overwrites a product's stock level
type SetStockRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
}

// LedgerService exposes the customer balance and product stock ledgers
// the invoice lifecycle writes to
type LedgerService struct {
	balances ledger.BalanceRepository
	stock    ledger.StockRepository
}

// NewLedgerService creates the service
func NewLedgerService(balances ledger.BalanceRepository, stock ledger.StockRepository) *LedgerService {
	return &LedgerService{balances: balances, stock: stock}
}

// GetCustomerBalance returns the balance of a customer; customers without
// any invoice have a zero balance
func (s *LedgerService) GetCustomerBalance(ctx context.Context, tc shared.TenantContext, customerID uuid.UUID) (*BalanceResponse, error) {
	if err := tc.Validate(); err != nil {
		return nil, err
	}
	if customerID == uuid.Nil {
		return nil, shared.ErrValidation.WithDetail("customerId", "customer is required")
	}

	b, err := s.balances.FindBalance(ctx, tc.TenantID, customerID)
	if errors.Is(err, shared.ErrNotFound) {
		return &BalanceResponse{CustomerID: customerID, Balance: decimal.Zero}, nil
	}
	if err != nil {
		return nil, err
	}
	updated := b.UpdatedAt
	return &BalanceResponse{CustomerID: customerID, Balance: b.Balance, UpdatedAt: &updated}, nil
}

// GetProductStock returns the quantity on hand of a product
func (s *LedgerService) GetProductStock(ctx context.Context, tc shared.TenantContext, productID uuid.UUID) (*StockResponse, error) {
	if err := tc.Validate(); err != nil {
		return nil, err
	}
	if productID == uuid.Nil {
		return nil, shared.ErrValidation.WithDetail("productId", "product is required")
	}

	st, err := s.stock.FindStock(ctx, tc.TenantID, productID)
	if errors.Is(err, shared.ErrNotFound) {
		return &StockResponse{ProductID: productID, Quantity: decimal.Zero}, nil
	}
	if err != nil {
		return nil, err
	}
	return toStockResponse(st), nil
}

// SetProductStock records a stock take
func (s *LedgerService) SetProductStock(ctx context.Context, tc shared.TenantContext, productID uuid.UUID, req SetStockRequest) (*StockResponse, error) {
	if err := tc.Validate(); err != nil {
		return nil, err
	}
	if productID == uuid.Nil {
		return nil, shared.ErrValidation.WithDetail("productId", "product is required")
	}

	st, err := s.stock.FindStock(ctx, tc.TenantID, productID)
	if errors.Is(err, shared.ErrNotFound) {
		st, err = ledger.NewProductStock(tc.TenantID, productID), nil
	}
	if err != nil {
		return nil, err
	}
	previous := st.Quantity
	if err := st.Set(req.Quantity); err != nil {
		return nil, err
	}
	if err := s.stock.SaveStock(ctx, st); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("product stock set",
		zap.String("product_id", productID.String()),
		zap.String("previous", previous.String()),
		zap.String("quantity", st.Quantity.String()),
	)
	return toStockResponse(st), nil
}

func toStockResponse(st *ledger.ProductStock) *StockResponse {
	updated := st.UpdatedAt
	return &StockResponse{ProductID: st.ProductID, Quantity: st.Quantity, UpdatedAt: &updated}
}
