package invoicing

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/domain/invoicing"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/domain/shared/valueobject"
)

// ==================== Requests ====================

// ItemRequest is one invoice line as sent by callers
type ItemRequest struct {
	ProductID *uuid.UUID       `json:"productId"`
	Name      string           `json:"name"`
	Quantity  decimal.Decimal  `json:"quantity"`
	Price     decimal.Decimal  `json:"price"`
	Unit      valueobject.Unit `json:"unit"`
}

// CreateInvoiceRequest creates an invoice that is immediately confirmed.
// PaidAmount nil means full payment for cash invoices and zero for credit.
// TotalAmount is derived from the items; when sent it must match.
type CreateInvoiceRequest struct {
	CustomerID    uuid.UUID        `json:"customerId"`
	CustomerName  string           `json:"customerName"`
	Date          *Date            `json:"date"`
	Type          string           `json:"type"`
	Items         []ItemRequest    `json:"items"`
	TotalAmount   *decimal.Decimal `json:"totalAmount"`
	PaidAmount    *decimal.Decimal `json:"paidAmount"`
	PaymentMethod string           `json:"paymentMethod"`
	Notes         string           `json:"notes"`
}

// UpdateInvoiceRequest edits a Draft invoice. Nil fields are unchanged.
// TotalAmount and PaidAmount are derived; when sent they must match.
type UpdateInvoiceRequest struct {
	CustomerID   *uuid.UUID       `json:"customerId"`
	CustomerName *string          `json:"customerName"`
	Date         *Date            `json:"date"`
	Items        *[]ItemRequest   `json:"items"`
	Notes        *string          `json:"notes"`
	TotalAmount  *decimal.Decimal `json:"totalAmount"`
	PaidAmount   *decimal.Decimal `json:"paidAmount"`
}

// AddPaymentRequest records a payment against an invoice
type AddPaymentRequest struct {
	Amount         decimal.Decimal `json:"amount"`
	Date           *Date           `json:"date"`
	PaymentMethod  string          `json:"paymentMethod"`
	Notes          string          `json:"notes"`
	IdempotencyKey string          `json:"-"`
}

// CreatePaymentRequest records a payment with or without an invoice.
// PaymentType, when sent, must be cash or credit; it is checked but not stored.
type CreatePaymentRequest struct {
	InvoiceID      *uuid.UUID      `json:"invoiceId"`
	CustomerID     uuid.UUID       `json:"customerId"`
	Amount         decimal.Decimal `json:"amount"`
	Date           *Date           `json:"date"`
	PaymentMethod  string          `json:"paymentMethod"`
	PaymentType    string          `json:"paymentType"`
	Notes          string          `json:"notes"`
	IdempotencyKey string          `json:"-"`
}

// ListInvoicesRequest filters the invoice list
type ListInvoicesRequest struct {
	Status     *invoicing.InvoiceStatus
	CustomerID *uuid.UUID
	Page       int
	PageSize   int
	OrderBy    string
	OrderDir   string
}

// ==================== Responses ====================

// InvoiceItemResponse is one line of an invoice
type InvoiceItemResponse struct {
	ID        uuid.UUID        `json:"id"`
	ProductID *uuid.UUID       `json:"productId,omitempty"`
	Name      string           `json:"name"`
	Quantity  decimal.Decimal  `json:"quantity"`
	Price     decimal.Decimal  `json:"price"`
	Unit      valueobject.Unit `json:"unit"`
	Total     decimal.Decimal  `json:"total"`
}

// PaymentResponse is one ledger entry
type PaymentResponse struct {
	ID            uuid.UUID       `json:"id"`
	InvoiceID     *uuid.UUID      `json:"invoiceId,omitempty"`
	CustomerID    uuid.UUID       `json:"customerId"`
	Amount        decimal.Decimal `json:"amount"`
	Date          time.Time       `json:"date"`
	PaymentMethod string          `json:"paymentMethod"`
	Notes         string          `json:"notes,omitempty"`
	Status        string          `json:"status"`
	ReversedAt    *time.Time      `json:"reversedAt,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// InvoiceResponse is the full invoice view
type InvoiceResponse struct {
	ID              uuid.UUID             `json:"id"`
	CustomerID      uuid.UUID             `json:"customerId"`
	CustomerName    string                `json:"customerName"`
	Date            time.Time             `json:"date"`
	Type            string                `json:"type"`
	Currency        string                `json:"currency"`
	Items           []InvoiceItemResponse `json:"items"`
	TotalAmount     decimal.Decimal       `json:"totalAmount"`
	PaidAmount      decimal.Decimal       `json:"paidAmount"`
	RemainingAmount decimal.Decimal       `json:"remainingAmount"`
	Status          int                   `json:"status"`
	StatusName      string                `json:"statusName"`
	Notes           string                `json:"notes"`
	Payments        []PaymentResponse     `json:"payments"`
	ConfirmedAt     *time.Time            `json:"confirmedAt,omitempty"`
	CancelledAt     *time.Time            `json:"cancelledAt,omitempty"`
	Version         int                   `json:"version"`
	CreatedAt       time.Time             `json:"createdAt"`
	UpdatedAt       time.Time             `json:"updatedAt"`
}

// PaymentResult pairs a payment with the invoice it settled, if any
type PaymentResult struct {
	Payment PaymentResponse  `json:"payment"`
	Invoice *InvoiceResponse `json:"invoice,omitempty"`
}

// ActivityResponse is one audit trail entry
type ActivityResponse struct {
	ID         uuid.UUID `json:"id"`
	EventType  string    `json:"eventType"`
	Summary    string    `json:"summary"`
	OccurredAt time.Time `json:"occurredAt"`
}

// ToInvoiceResponse converts the aggregate to its response view
func ToInvoiceResponse(inv *invoicing.Invoice) InvoiceResponse {
	items := make([]InvoiceItemResponse, len(inv.Items))
	for i, item := range inv.Items {
		items[i] = InvoiceItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			Price:     item.Price,
			Unit:      item.Unit,
			Total:     item.Total,
		}
	}

	return InvoiceResponse{
		ID:              inv.ID,
		CustomerID:      inv.CustomerID,
		CustomerName:    inv.CustomerName,
		Date:            inv.Date,
		Type:            string(inv.PaymentType),
		Currency:        inv.Currency,
		Items:           items,
		TotalAmount:     inv.TotalAmount,
		PaidAmount:      inv.PaidAmount,
		RemainingAmount: inv.RemainingAmount,
		Status:          int(inv.Status),
		StatusName:      inv.Status.String(),
		Notes:           inv.Notes,
		Payments:        ToPaymentResponses(inv.Payments()),
		ConfirmedAt:     inv.ConfirmedAt,
		CancelledAt:     inv.CancelledAt,
		Version:         inv.Version,
		CreatedAt:       inv.CreatedAt,
		UpdatedAt:       inv.UpdatedAt,
	}
}

// ToPaymentResponse converts a ledger entry
func ToPaymentResponse(p invoicing.Payment) PaymentResponse {
	return PaymentResponse{
		ID:            p.ID,
		InvoiceID:     p.InvoiceID,
		CustomerID:    p.CustomerID,
		Amount:        p.Amount,
		Date:          p.Date,
		PaymentMethod: string(p.Method),
		Notes:         p.Notes,
		Status:        string(p.Status),
		ReversedAt:    p.ReversedAt,
		CreatedAt:     p.CreatedAt,
	}
}

// ToPaymentResponses converts a list of ledger entries
func ToPaymentResponses(payments []invoicing.Payment) []PaymentResponse {
	out := make([]PaymentResponse, len(payments))
	for i, p := range payments {
		out[i] = ToPaymentResponse(p)
	}
	return out
}

func toItemInputs(items []ItemRequest) []invoicing.ItemInput {
	inputs := make([]invoicing.ItemInput, len(items))
	for i, item := range items {
		inputs[i] = invoicing.ItemInput{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			Price:     item.Price,
			Unit:      item.Unit,
		}
	}
	return inputs
}

// dateLayout is the calendar-day form accepted alongside RFC 3339
const dateLayout = "2006-01-02"

// Date is a request date sent either as "2024-01-15" or as an RFC 3339
// timestamp.
type Date struct {
	time.Time
}

// UnmarshalJSON accepts a calendar day or an RFC 3339 timestamp
func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		d.Time = t
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("date %q: want YYYY-MM-DD or RFC 3339", s)
	}
	d.Time = t
	return nil
}

// MarshalJSON writes the calendar day
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

// timePtr returns nil when no date was sent
func (d *Date) timePtr() *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}

func dateOrZero(d *Date) time.Time {
	if d == nil {
		return time.Time{}
	}
	return d.Time
}
