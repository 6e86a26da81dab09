package invoicing

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Activity is one audit trail entry derived from an invoice event
type Activity struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	InvoiceID  uuid.UUID
	EventID    uuid.UUID
	EventType  string
	Summary    string
	Payload    json.RawMessage
	OccurredAt time.Time
}

// NewActivity builds an audit entry from an invoice event
func NewActivity(event InvoiceEvent) (*Activity, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", event.EventType(), err)
	}
	return &Activity{
		ID:         uuid.New(),
		TenantID:   event.TenantID(),
		InvoiceID:  event.AggregateID(),
		EventID:    event.EventID(),
		EventType:  event.EventType(),
		Summary:    summarize(event),
		Payload:    payload,
		OccurredAt: event.OccurredAt(),
	}, nil
}

func summarize(event InvoiceEvent) string {
	s := event.Snapshot()
	switch e := event.(type) {
	case *InvoiceCreatedEvent:
		return fmt.Sprintf("created (%s) total %s", e.PaymentType, s.TotalAmount.StringFixed(MoneyScale))
	case *InvoiceUpdatedEvent:
		return fmt.Sprintf("updated, %d items, total %s", e.ItemCount, s.TotalAmount.StringFixed(MoneyScale))
	case *InvoiceConfirmedEvent:
		return fmt.Sprintf("confirmed, receivable %s", e.BalanceApplied.StringFixed(MoneyScale))
	case *InvoiceUnconfirmedEvent:
		return fmt.Sprintf("unconfirmed, released %s", e.BalanceReleased.StringFixed(MoneyScale))
	case *InvoiceCancelledEvent:
		return fmt.Sprintf("cancelled, released %s", e.BalanceReleased.StringFixed(MoneyScale))
	case *InvoiceDeletedEvent:
		return fmt.Sprintf("deleted with %d payments", e.PaymentCount)
	case *PaymentRecordedEvent:
		return fmt.Sprintf("payment %s received by %s, remaining %s", e.Amount.StringFixed(MoneyScale), e.Method, s.RemainingAmount.StringFixed(MoneyScale))
	case *PaymentReversedEvent:
		return fmt.Sprintf("payment %s reversed, remaining %s", e.Amount.StringFixed(MoneyScale), s.RemainingAmount.StringFixed(MoneyScale))
	}
	return event.EventType()
}
