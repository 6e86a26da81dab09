package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/domain/shared"
)

// CustomerBalance is the running receivable of one customer.
// A negative balance means the customer holds credit.
type CustomerBalance struct {
	TenantID   uuid.UUID
	CustomerID uuid.UUID
	Balance    decimal.Decimal
	UpdatedAt  time.Time
}

// NewCustomerBalance creates a zero balance
func NewCustomerBalance(tenantID, customerID uuid.UUID) *CustomerBalance {
	return &CustomerBalance{
		TenantID:   tenantID,
		CustomerID: customerID,
		Balance:    decimal.Zero,
		UpdatedAt:  time.Now(),
	}
}

// Increase adds a receivable amount
func (b *CustomerBalance) Increase(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return shared.ErrValidation.WithMessage("balance increase cannot be negative")
	}
	b.Balance = b.Balance.Add(amount)
	b.UpdatedAt = time.Now()
	return nil
}

// Decrease removes a receivable amount
func (b *CustomerBalance) Decrease(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return shared.ErrValidation.WithMessage("balance decrease cannot be negative")
	}
	b.Balance = b.Balance.Sub(amount)
	b.UpdatedAt = time.Now()
	return nil
}
