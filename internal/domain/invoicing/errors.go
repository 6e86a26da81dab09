package invoicing

import (
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/domain/shared"
)

// Error kinds surfaced by the reconciliation engine
var (
	ErrInvoiceNotFound        = shared.ErrNotFound.WithMessage("Invoice not found")
	ErrPaymentNotFound        = shared.NewDomainError("PAYMENT_NOT_FOUND", "Payment not found")
	ErrInvoiceNotEditable     = shared.NewDomainError("INVOICE_NOT_EDITABLE", "Only draft invoices can be edited; unconfirm the invoice first")
	ErrHasPayments            = shared.NewDomainError("HAS_PAYMENTS", "Invoice has payments; delete its payments first")
	ErrAmountExceedsRemaining = shared.NewDomainError("AMOUNT_EXCEEDS_REMAINING", "Payment amount exceeds the remaining amount")
	ErrInvoiceNotPayable      = shared.NewDomainError("INVOICE_NOT_PAYABLE", "Payments can only be recorded against confirmed invoices")
	ErrInvalidTransition      = shared.ErrInvalidState.WithMessage("Invoice status does not allow this operation")
	ErrPortUnavailable        = shared.NewRetryableError("PORT_UNAVAILABLE", "A dependent ledger is unavailable; retry the operation")
)

// NewValidationError builds a VALIDATION_ERROR naming the offending field
func NewValidationError(field, message string) *shared.DomainError {
	return shared.ErrValidation.WithMessage(message).WithDetail(field, message)
}
