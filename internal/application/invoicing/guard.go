package invoicing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/domain/shared"
)

// MutationGuard serializes mutations per key. Acquire blocks until the key
// is free, the guard's wait bound expires, or ctx is done.
type MutationGuard interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// ErrInvoiceBusy is returned when the guard cannot be acquired in time
var ErrInvoiceBusy = shared.NewRetryableError("INVOICE_BUSY", "Invoice is being modified by another request; retry the operation")

// InvoiceLockKey is the guard key of one invoice
func InvoiceLockKey(tenantID, invoiceID uuid.UUID) string {
	return fmt.Sprintf("invoice:%s:%s", tenantID, invoiceID)
}

// PaymentLockKey is the guard key of an on-account payment
func PaymentLockKey(tenantID, paymentID uuid.UUID) string {
	return fmt.Sprintf("payment:%s:%s", tenantID, paymentID)
}
