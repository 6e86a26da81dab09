package invoicing

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/domain/shared"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/domain/shared/valueobject"
)

// AggregateTypeInvoice is the aggregate type used in events
const AggregateTypeInvoice = "Invoice"

// PaymentType is how the customer settles the invoice at creation
type PaymentType string

const (
	PaymentTypeCash   PaymentType = "cash"
	PaymentTypeCredit PaymentType = "credit"
)

// IsValid checks if the payment type is known
func (t PaymentType) IsValid() bool {
	return t == PaymentTypeCash || t == PaymentTypeCredit
}

// InvoiceItem is one line of an invoice. Items have no lifecycle of their own.
type InvoiceItem struct {
	ID        uuid.UUID
	ProductID *uuid.UUID
	Name      string
	Quantity  decimal.Decimal
	Price     decimal.Decimal
	Unit      valueobject.Unit
	Total     decimal.Decimal
}

// ItemInput carries caller-supplied line fields
type ItemInput struct {
	ProductID *uuid.UUID
	Name      string
	Quantity  decimal.Decimal
	Price     decimal.Decimal
	Unit      valueobject.Unit
}

// NewInvoiceItem validates input and computes the line total
func NewInvoiceItem(in ItemInput) (InvoiceItem, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return InvoiceItem{}, NewValidationError("items.name", "item name is required")
	}
	if !in.Quantity.IsPositive() {
		return InvoiceItem{}, NewValidationError("items.quantity", "item quantity must be greater than zero")
	}
	if in.Price.IsNegative() {
		return InvoiceItem{}, NewValidationError("items.price", "item price cannot be negative")
	}

	unit := in.Unit
	if unit.IsZero() {
		unit = valueobject.PieceUnit()
	}
	var productID *uuid.UUID
	if in.ProductID != nil && *in.ProductID != uuid.Nil {
		id := *in.ProductID
		productID = &id
	}

	return InvoiceItem{
		ID:        uuid.New(),
		ProductID: productID,
		Name:      name,
		Quantity:  in.Quantity,
		Price:     in.Price,
		Unit:      unit,
		Total:     LineTotal(in.Quantity, in.Price),
	}, nil
}

// Invoice is the aggregate root of the reconciliation engine.
//
// TotalAmount, PaidAmount, RemainingAmount and Status are projections of the
// items and the payment ledger and are recomputed on every mutation.
// StockApplied and BalanceApplied record which ledger effects the invoice
// currently holds so that they can be reversed exactly.
type Invoice struct {
	shared.TenantAggregateRoot
	CustomerID      uuid.UUID
	CustomerName    string
	Date            time.Time
	PaymentType     PaymentType
	Currency        string
	Items           []InvoiceItem
	TotalAmount     decimal.Decimal
	PaidAmount      decimal.Decimal
	RemainingAmount decimal.Decimal
	Status          InvoiceStatus
	Notes           string
	StockApplied    bool
	BalanceApplied  decimal.Decimal
	ConfirmedAt     *time.Time
	CancelledAt     *time.Time
	Ledger          PaymentLedger
}

// NewInvoiceInput carries the fields of a new invoice
type NewInvoiceInput struct {
	CustomerID   uuid.UUID
	CustomerName string
	Date         time.Time
	PaymentType  PaymentType
	Currency     string
	Items        []ItemInput
	Notes        string
	CreatedBy    uuid.UUID
}

// NewInvoice creates a Draft invoice
func NewInvoice(tenantID uuid.UUID, in NewInvoiceInput) (*Invoice, error) {
	if tenantID == uuid.Nil {
		return nil, NewValidationError("tenantId", "tenant is required")
	}
	if in.CustomerID == uuid.Nil {
		return nil, NewValidationError("customerId", "customer is required")
	}
	paymentType := in.PaymentType
	if paymentType == "" {
		paymentType = PaymentTypeCredit
	}
	if !paymentType.IsValid() {
		return nil, NewValidationError("type", "invoice type must be cash or credit")
	}
	items, err := buildItems(in.Items)
	if err != nil {
		return nil, err
	}

	decision, err := Decide(TransitionInput{Current: StatusDraft, Transition: TransitionCreate})
	if err != nil {
		return nil, err
	}

	inv := &Invoice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		CustomerID:          in.CustomerID,
		CustomerName:        strings.TrimSpace(in.CustomerName),
		Date:                businessDate(in.Date),
		PaymentType:         paymentType,
		Currency:            in.Currency,
		Items:               items,
		Status:              decision.Next,
		Notes:               in.Notes,
		BalanceApplied:      decimal.Zero,
	}
	inv.SetCreatedBy(in.CreatedBy)
	inv.recalculate()

	inv.AddDomainEvent(NewInvoiceCreatedEvent(inv))
	return inv, nil
}

// UpdateInput carries a partial draft edit; nil fields are left unchanged
type UpdateInput struct {
	CustomerID   *uuid.UUID
	CustomerName *string
	Date         *time.Time
	Items        []ItemInput
	ReplaceItems bool
	Notes        *string
}

// Update edits a Draft invoice
func (inv *Invoice) Update(in UpdateInput) error {
	if _, err := inv.decide(TransitionEdit, decimal.Zero); err != nil {
		return err
	}

	if in.CustomerID != nil {
		if *in.CustomerID == uuid.Nil {
			return NewValidationError("customerId", "customer is required")
		}
		inv.CustomerID = *in.CustomerID
	}
	if in.CustomerName != nil {
		inv.CustomerName = strings.TrimSpace(*in.CustomerName)
	}
	if in.Date != nil {
		inv.Date = businessDate(*in.Date)
	}
	if in.ReplaceItems {
		items, err := buildItems(in.Items)
		if err != nil {
			return err
		}
		inv.Items = items
	}
	if in.Notes != nil {
		inv.Notes = *in.Notes
	}

	inv.recalculate()
	inv.Touch()
	inv.AddDomainEvent(NewInvoiceUpdatedEvent(inv))
	return nil
}

// Confirm commits a Draft invoice against stock and the customer balance.
// The returned decision lists the ledger effects the caller must apply.
func (inv *Invoice) Confirm() (Decision, error) {
	decision, err := inv.decide(TransitionConfirm, decimal.Zero)
	if err != nil || decision.NoOp {
		return decision, err
	}

	now := time.Now()
	inv.Status = decision.Next
	inv.StockApplied = true
	if e, ok := decision.Effect(EffectIncreaseBalance); ok {
		inv.BalanceApplied = inv.BalanceApplied.Add(e.Amount)
	}
	inv.ConfirmedAt = &now
	inv.Touch()

	inv.AddDomainEvent(NewInvoiceConfirmedEvent(inv))
	return decision, nil
}

// Unconfirm moves a confirmed invoice back to Draft, releasing its effects
func (inv *Invoice) Unconfirm() (Decision, error) {
	decision, err := inv.decide(TransitionUnconfirm, decimal.Zero)
	if err != nil || decision.NoOp {
		return decision, err
	}

	released := inv.BalanceApplied
	inv.Status = decision.Next
	inv.releaseEffects()
	inv.ConfirmedAt = nil
	inv.Touch()

	inv.AddDomainEvent(NewInvoiceUnconfirmedEvent(inv, released))
	return decision, nil
}

// Cancel terminates an unpaid invoice, releasing its effects
func (inv *Invoice) Cancel() (Decision, error) {
	decision, err := inv.decide(TransitionCancel, decimal.Zero)
	if err != nil || decision.NoOp {
		return decision, err
	}

	released := inv.BalanceApplied
	now := time.Now()
	inv.Status = decision.Next
	inv.releaseEffects()
	inv.CancelledAt = &now
	inv.Touch()

	inv.AddDomainEvent(NewInvoiceCancelledEvent(inv, released))
	return decision, nil
}

// RecordPayment appends a payment to the ledger
func (inv *Invoice) RecordPayment(in PaymentInput) (*Payment, Decision, error) {
	invoiceID := inv.ID
	payment, err := NewPayment(inv.TenantID, inv.CustomerID, &invoiceID, in)
	if err != nil {
		return nil, Decision{}, err
	}

	decision, err := inv.decide(TransitionAddPayment, payment.Amount)
	if err != nil {
		return nil, Decision{}, err
	}

	inv.Ledger.append(*payment)
	inv.recalculate()
	inv.Status = decision.Next
	inv.BalanceApplied = inv.BalanceApplied.Sub(payment.Amount)
	inv.Touch()

	inv.AddDomainEvent(NewPaymentRecordedEvent(inv, payment))
	return payment, decision, nil
}

// ReversePayment logically deletes a payment. Reversing an already reversed
// payment is a no-op.
func (inv *Invoice) ReversePayment(paymentID uuid.UUID) (*Payment, Decision, error) {
	existing, ok := inv.Ledger.Find(paymentID)
	if !ok {
		return nil, Decision{}, ErrPaymentNotFound
	}
	if !existing.IsActive() {
		return &existing, noOp(inv.Status), nil
	}

	decision, err := inv.decide(TransitionDeletePayment, existing.Amount)
	if err != nil {
		return nil, Decision{}, err
	}

	reversed, err := inv.Ledger.reverse(paymentID, time.Now())
	if err != nil {
		return nil, Decision{}, err
	}
	inv.recalculate()
	inv.Status = decision.Next
	inv.BalanceApplied = inv.BalanceApplied.Add(reversed.Amount)
	inv.Touch()

	inv.AddDomainEvent(NewPaymentReversedEvent(inv, &reversed))
	return &reversed, decision, nil
}

// PrepareDelete returns the effects to reverse before the invoice is removed
func (inv *Invoice) PrepareDelete() (Decision, error) {
	decision, err := inv.decide(TransitionDelete, decimal.Zero)
	if err != nil {
		return decision, err
	}
	inv.AddDomainEvent(NewInvoiceDeletedEvent(inv))
	return decision, nil
}

// StockLines returns per-product quantities; items without a product are skipped
func (inv *Invoice) StockLines() []StockLine {
	index := make(map[uuid.UUID]int)
	lines := make([]StockLine, 0, len(inv.Items))
	for _, item := range inv.Items {
		if item.ProductID == nil {
			continue
		}
		if i, ok := index[*item.ProductID]; ok {
			lines[i].Quantity = lines[i].Quantity.Add(item.Quantity)
			continue
		}
		index[*item.ProductID] = len(lines)
		lines = append(lines, StockLine{ProductID: *item.ProductID, Quantity: item.Quantity})
	}
	return lines
}

// Payments returns every ledger entry
func (inv *Invoice) Payments() []Payment {
	return inv.Ledger.Entries()
}

// CheckInvariants verifies the monetary projections against items and ledger
func (inv *Invoice) CheckInvariants() error {
	total := SumItems(inv.Items)
	paid := inv.Ledger.PaidTotal()
	switch {
	case !inv.TotalAmount.Equal(total):
		return ErrInvalidTransition.WithMessage("total amount does not match item totals")
	case !inv.PaidAmount.Equal(paid):
		return ErrInvalidTransition.WithMessage("paid amount does not match active payments")
	case paid.IsNegative() || paid.GreaterThan(total):
		return ErrAmountExceedsRemaining.WithMessage("paid amount must be between zero and the total")
	case !inv.RemainingAmount.Equal(Remaining(total, paid)):
		return ErrInvalidTransition.WithMessage("remaining amount does not match total minus paid")
	}
	return nil
}

func (inv *Invoice) decide(t Transition, amount decimal.Decimal) (Decision, error) {
	return Decide(TransitionInput{
		Current:        inv.Status,
		Transition:     t,
		Total:          inv.TotalAmount,
		Paid:           inv.PaidAmount,
		Amount:         amount,
		ItemCount:      len(inv.Items),
		StockApplied:   inv.StockApplied,
		BalanceApplied: inv.BalanceApplied,
	})
}

func (inv *Invoice) releaseEffects() {
	inv.StockApplied = false
	inv.BalanceApplied = decimal.Zero
}

func (inv *Invoice) recalculate() {
	inv.TotalAmount = SumItems(inv.Items)
	inv.PaidAmount = inv.Ledger.PaidTotal()
	inv.RemainingAmount = Remaining(inv.TotalAmount, inv.PaidAmount)
}

func buildItems(inputs []ItemInput) ([]InvoiceItem, error) {
	items := make([]InvoiceItem, 0, len(inputs))
	for _, in := range inputs {
		item, err := NewInvoiceItem(in)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// businessDate keeps only the calendar day
func businessDate(t time.Time) time.Time {
	if t.IsZero() {
		t = time.Now()
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
