package invoicing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/domain/shared"
)

// Event type constants
const (
	EventTypeInvoiceCreated     = "InvoiceCreated"
	EventTypeInvoiceUpdated     = "InvoiceUpdated"
	EventTypeInvoiceConfirmed   = "InvoiceConfirmed"
	EventTypeInvoiceUnconfirmed = "InvoiceUnconfirmed"
	EventTypeInvoiceCancelled   = "InvoiceCancelled"
	EventTypeInvoiceDeleted     = "InvoiceDeleted"
	EventTypePaymentRecorded    = "PaymentRecorded"
	EventTypePaymentReversed    = "PaymentReversed"
)

// InvoiceEventTypes lists every event the invoice aggregate emits
func InvoiceEventTypes() []string {
	return []string{
		EventTypeInvoiceCreated,
		EventTypeInvoiceUpdated,
		EventTypeInvoiceConfirmed,
		EventTypeInvoiceUnconfirmed,
		EventTypeInvoiceCancelled,
		EventTypeInvoiceDeleted,
		EventTypePaymentRecorded,
		EventTypePaymentReversed,
	}
}

// InvoiceSnapshot is the monetary state carried by every invoice event
type InvoiceSnapshot struct {
	CustomerID      uuid.UUID       `json:"customer_id"`
	Status          InvoiceStatus   `json:"status"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	PaidAmount      decimal.Decimal `json:"paid_amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
}

func snapshotOf(inv *Invoice) InvoiceSnapshot {
	return InvoiceSnapshot{
		CustomerID:      inv.CustomerID,
		Status:          inv.Status,
		TotalAmount:     inv.TotalAmount,
		PaidAmount:      inv.PaidAmount,
		RemainingAmount: inv.RemainingAmount,
	}
}

// InvoiceEvent is implemented by all invoice events
type InvoiceEvent interface {
	shared.DomainEvent
	Snapshot() InvoiceSnapshot
}

// InvoiceCreatedEvent is raised when an invoice is created
type InvoiceCreatedEvent struct {
	shared.BaseDomainEvent
	InvoiceSnapshot
	PaymentType PaymentType `json:"payment_type"`
	ItemCount   int         `json:"item_count"`
}

// NewInvoiceCreatedEvent creates an InvoiceCreatedEvent
func NewInvoiceCreatedEvent(inv *Invoice) *InvoiceCreatedEvent {
	return &InvoiceCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceCreated, AggregateTypeInvoice, inv.ID, inv.TenantID),
		InvoiceSnapshot: snapshotOf(inv),
		PaymentType:     inv.PaymentType,
		ItemCount:       len(inv.Items),
	}
}

// InvoiceUpdatedEvent is raised when a draft invoice is edited
type InvoiceUpdatedEvent struct {
	shared.BaseDomainEvent
	InvoiceSnapshot
	ItemCount int `json:"item_count"`
}

// NewInvoiceUpdatedEvent creates an InvoiceUpdatedEvent
func NewInvoiceUpdatedEvent(inv *Invoice) *InvoiceUpdatedEvent {
	return &InvoiceUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceUpdated, AggregateTypeInvoice, inv.ID, inv.TenantID),
		InvoiceSnapshot: snapshotOf(inv),
		ItemCount:       len(inv.Items),
	}
}

// InvoiceConfirmedEvent is raised when stock and balance effects are applied
type InvoiceConfirmedEvent struct {
	shared.BaseDomainEvent
	InvoiceSnapshot
	StockLines     []StockLine     `json:"stock_lines"`
	BalanceApplied decimal.Decimal `json:"balance_applied"`
}

// NewInvoiceConfirmedEvent creates an InvoiceConfirmedEvent
func NewInvoiceConfirmedEvent(inv *Invoice) *InvoiceConfirmedEvent {
	return &InvoiceConfirmedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceConfirmed, AggregateTypeInvoice, inv.ID, inv.TenantID),
		InvoiceSnapshot: snapshotOf(inv),
		StockLines:      inv.StockLines(),
		BalanceApplied:  inv.BalanceApplied,
	}
}

// InvoiceUnconfirmedEvent is raised when an invoice returns to Draft
type InvoiceUnconfirmedEvent struct {
	shared.BaseDomainEvent
	InvoiceSnapshot
	BalanceReleased decimal.Decimal `json:"balance_released"`
}

// NewInvoiceUnconfirmedEvent creates an InvoiceUnconfirmedEvent
func NewInvoiceUnconfirmedEvent(inv *Invoice, released decimal.Decimal) *InvoiceUnconfirmedEvent {
	return &InvoiceUnconfirmedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceUnconfirmed, AggregateTypeInvoice, inv.ID, inv.TenantID),
		InvoiceSnapshot: snapshotOf(inv),
		BalanceReleased: released,
	}
}

// InvoiceCancelledEvent is raised when an invoice is cancelled
type InvoiceCancelledEvent struct {
	shared.BaseDomainEvent
	InvoiceSnapshot
	BalanceReleased decimal.Decimal `json:"balance_released"`
}

// NewInvoiceCancelledEvent creates an InvoiceCancelledEvent
func NewInvoiceCancelledEvent(inv *Invoice, released decimal.Decimal) *InvoiceCancelledEvent {
	return &InvoiceCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceCancelled, AggregateTypeInvoice, inv.ID, inv.TenantID),
		InvoiceSnapshot: snapshotOf(inv),
		BalanceReleased: released,
	}
}

// InvoiceDeletedEvent is raised before an invoice is removed
type InvoiceDeletedEvent struct {
	shared.BaseDomainEvent
	InvoiceSnapshot
	PaymentCount int `json:"payment_count"`
}

// NewInvoiceDeletedEvent creates an InvoiceDeletedEvent
func NewInvoiceDeletedEvent(inv *Invoice) *InvoiceDeletedEvent {
	return &InvoiceDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceDeleted, AggregateTypeInvoice, inv.ID, inv.TenantID),
		InvoiceSnapshot: snapshotOf(inv),
		PaymentCount:    inv.Ledger.Len(),
	}
}

// PaymentRecordedEvent is raised when a payment is appended to an invoice ledger
type PaymentRecordedEvent struct {
	shared.BaseDomainEvent
	InvoiceSnapshot
	PaymentID uuid.UUID       `json:"payment_id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    PaymentMethod   `json:"method"`
}

// NewPaymentRecordedEvent creates a PaymentRecordedEvent
func NewPaymentRecordedEvent(inv *Invoice, p *Payment) *PaymentRecordedEvent {
	return &PaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentRecorded, AggregateTypeInvoice, inv.ID, inv.TenantID),
		InvoiceSnapshot: snapshotOf(inv),
		PaymentID:       p.ID,
		Amount:          p.Amount,
		Method:          p.Method,
	}
}

// PaymentReversedEvent is raised when a payment is logically deleted
type PaymentReversedEvent struct {
	shared.BaseDomainEvent
	InvoiceSnapshot
	PaymentID uuid.UUID       `json:"payment_id"`
	Amount    decimal.Decimal `json:"amount"`
}

// NewPaymentReversedEvent creates a PaymentReversedEvent
func NewPaymentReversedEvent(inv *Invoice, p *Payment) *PaymentReversedEvent {
	return &PaymentReversedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentReversed, AggregateTypeInvoice, inv.ID, inv.TenantID),
		InvoiceSnapshot: snapshotOf(inv),
		PaymentID:       p.ID,
		Amount:          p.Amount,
	}
}

// Snapshot implementations

func (e *InvoiceCreatedEvent) Snapshot() InvoiceSnapshot     { return e.InvoiceSnapshot }
func (e *InvoiceUpdatedEvent) Snapshot() InvoiceSnapshot     { return e.InvoiceSnapshot }
func (e *InvoiceConfirmedEvent) Snapshot() InvoiceSnapshot   { return e.InvoiceSnapshot }
func (e *InvoiceUnconfirmedEvent) Snapshot() InvoiceSnapshot { return e.InvoiceSnapshot }
func (e *InvoiceCancelledEvent) Snapshot() InvoiceSnapshot   { return e.InvoiceSnapshot }
func (e *InvoiceDeletedEvent) Snapshot() InvoiceSnapshot     { return e.InvoiceSnapshot }
func (e *PaymentRecordedEvent) Snapshot() InvoiceSnapshot    { return e.InvoiceSnapshot }
func (e *PaymentReversedEvent) Snapshot() InvoiceSnapshot    { return e.InvoiceSnapshot }
