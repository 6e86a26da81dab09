package invoicing

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod is how a payment was received
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodCheque       PaymentMethod = "cheque"
	PaymentMethodMobileWallet PaymentMethod = "mobile_wallet"
	PaymentMethodOther        PaymentMethod = "other"
)

// IsValid checks if the payment method is known
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodCard,
		PaymentMethodCheque, PaymentMethodMobileWallet, PaymentMethodOther:
		return true
	}
	return false
}

// PaymentStatus is the ledger state of a payment
type PaymentStatus string

const (
	PaymentStatusActive   PaymentStatus = "active"
	PaymentStatusReversed PaymentStatus = "reversed"
)

// Payment is one ledger entry. InvoiceID is nil for on-account receipts.
type Payment struct {
	ID             uuid.UUID
	TenantID       uuid.UUID
	InvoiceID      *uuid.UUID
	CustomerID     uuid.UUID
	Amount         decimal.Decimal
	Date           time.Time
	Method         PaymentMethod
	Notes          string
	Status         PaymentStatus
	ReversedAt     *time.Time
	IdempotencyKey string
	CreatedBy      *uuid.UUID
	CreatedAt      time.Time
}

// PaymentInput carries caller-supplied payment fields
type PaymentInput struct {
	Amount         decimal.Decimal
	Date           time.Time
	Method         PaymentMethod
	Notes          string
	IdempotencyKey string
	CreatedBy      uuid.UUID
}

// NewPayment validates input and creates an active payment
func NewPayment(tenantID, customerID uuid.UUID, invoiceID *uuid.UUID, in PaymentInput) (*Payment, error) {
	if customerID == uuid.Nil {
		return nil, NewValidationError("customerId", "customer is required")
	}
	if !in.Amount.IsPositive() {
		return nil, NewValidationError("amount", "payment amount must be greater than zero")
	}
	if !in.Amount.Equal(RoundMoney(in.Amount)) {
		return nil, NewValidationError("amount", "payment amount cannot have more than 2 decimal places")
	}

	method := PaymentMethod(strings.ToLower(strings.TrimSpace(string(in.Method))))
	if method == "" {
		method = PaymentMethodCash
	}
	if !method.IsValid() {
		return nil, NewValidationError("paymentMethod", "unknown payment method "+string(in.Method))
	}

	date := in.Date
	if date.IsZero() {
		date = time.Now()
	}

	p := &Payment{
		ID:             uuid.New(),
		TenantID:       tenantID,
		InvoiceID:      invoiceID,
		CustomerID:     customerID,
		Amount:         in.Amount,
		Date:           date,
		Method:         method,
		Notes:          in.Notes,
		Status:         PaymentStatusActive,
		IdempotencyKey: strings.TrimSpace(in.IdempotencyKey),
		CreatedAt:      time.Now(),
	}
	if in.CreatedBy != uuid.Nil {
		createdBy := in.CreatedBy
		p.CreatedBy = &createdBy
	}
	return p, nil
}

// IsActive reports whether the payment counts towards paid amounts
func (p *Payment) IsActive() bool {
	return p.Status == PaymentStatusActive
}

// Reverse marks the payment reversed. It returns false if it already was.
func (p *Payment) Reverse(at time.Time) bool {
	if !p.IsActive() {
		return false
	}
	p.Status = PaymentStatusReversed
	p.ReversedAt = &at
	return true
}

// PaymentLedger is the append-only payment history of one invoice.
// Entries are never removed; a deleted payment stays as a reversed entry.
type PaymentLedger struct {
	entries []Payment
}

// NewPaymentLedger builds a ledger from stored entries
func NewPaymentLedger(entries []Payment) PaymentLedger {
	return PaymentLedger{entries: append([]Payment(nil), entries...)}
}

// Entries returns a copy of every entry, reversed ones included
func (l PaymentLedger) Entries() []Payment {
	return append([]Payment(nil), l.entries...)
}

// Active returns the entries that count towards the paid amount
func (l PaymentLedger) Active() []Payment {
	active := make([]Payment, 0, len(l.entries))
	for _, p := range l.entries {
		if p.IsActive() {
			active = append(active, p)
		}
	}
	return active
}

// PaidTotal is Σ active amounts
func (l PaymentLedger) PaidTotal() decimal.Decimal {
	total := decimal.Zero
	for _, p := range l.entries {
		if p.IsActive() {
			total = total.Add(p.Amount)
		}
	}
	return total
}

// Len returns the number of entries
func (l PaymentLedger) Len() int {
	return len(l.entries)
}

// Find returns the entry with the given id
func (l PaymentLedger) Find(id uuid.UUID) (Payment, bool) {
	for _, p := range l.entries {
		if p.ID == id {
			return p, true
		}
	}
	return Payment{}, false
}

func (l *PaymentLedger) append(p Payment) {
	l.entries = append(l.entries, p)
}

func (l *PaymentLedger) reverse(id uuid.UUID, at time.Time) (Payment, error) {
	for i := range l.entries {
		if l.entries[i].ID == id {
			l.entries[i].Reverse(at)
			return l.entries[i], nil
		}
	}
	return Payment{}, ErrPaymentNotFound
}
