package invoicing

import (
	"context"

	"github.com/google/uuid"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/domain/shared"
)

// InvoiceRepository persists invoices together with their items and ledger
type InvoiceRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Invoice, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	// Save inserts a new invoice
	Save(ctx context.Context, invoice *Invoice) error
	// SaveWithLock updates an invoice if its stored version still matches
	SaveWithLock(ctx context.Context, invoice *Invoice) error
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error
}

// PaymentRepository reads payments and persists on-account receipts
type PaymentRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Payment, error)
	FindByIdempotencyKey(ctx context.Context, tenantID uuid.UUID, key string) (*Payment, error)
	FindByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID, includeReversed bool) ([]Payment, error)
	FindByCustomer(ctx context.Context, tenantID, customerID uuid.UUID, filter shared.Filter) ([]Payment, error)
	CountByCustomer(ctx context.Context, tenantID, customerID uuid.UUID, filter shared.Filter) (int64, error)
	// Save inserts or updates a payment that has no invoice
	Save(ctx context.Context, payment *Payment) error
}

// ActivityRepository stores the invoice audit trail
type ActivityRepository interface {
	Save(ctx context.Context, activity *Activity) error
	FindByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]Activity, error)
}
