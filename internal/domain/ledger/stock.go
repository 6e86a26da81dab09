package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/domain/shared"
)

// ProductStock is the quantity on hand of one product
type ProductStock struct {
	TenantID  uuid.UUID
	ProductID uuid.UUID
	Quantity  decimal.Decimal
	UpdatedAt time.Time
}

// NewProductStock creates an empty stock row
func NewProductStock(tenantID, productID uuid.UUID) *ProductStock {
	return &ProductStock{
		TenantID:  tenantID,
		ProductID: productID,
		Quantity:  decimal.Zero,
		UpdatedAt: time.Now(),
	}
}

// Decrement removes quantity. With allowNegative false it fails with
// INSUFFICIENT_STOCK instead of going below zero.
func (s *ProductStock) Decrement(qty decimal.Decimal, allowNegative bool) error {
	if !qty.IsPositive() {
		return shared.ErrValidation.WithMessage("quantity must be greater than zero")
	}
	next := s.Quantity.Sub(qty)
	if next.IsNegative() && !allowNegative {
		return shared.ErrInsufficientStock.
			WithDetail("productId", s.ProductID.String()).
			WithDetail("available", s.Quantity.String())
	}
	s.Quantity = next
	s.UpdatedAt = time.Now()
	return nil
}

// Restore puts quantity back
func (s *ProductStock) Restore(qty decimal.Decimal) error {
	if !qty.IsPositive() {
		return shared.ErrValidation.WithMessage("quantity must be greater than zero")
	}
	s.Quantity = s.Quantity.Add(qty)
	s.UpdatedAt = time.Now()
	return nil
}

// Set overwrites the quantity on hand, used for stock takes
func (s *ProductStock) Set(qty decimal.Decimal) error {
	if qty.IsNegative() {
		return shared.ErrValidation.WithMessage("quantity cannot be negative")
	}
	s.Quantity = qty
	s.UpdatedAt = time.Now()
	return nil
}
