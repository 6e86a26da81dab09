package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/domain/invoicing"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/domain/shared/valueobject"
)

// InvoiceModel is the persistence model for the Invoice aggregate root.
type InvoiceModel struct {
	TenantAggregateModel
	CustomerID      uuid.UUID               `gorm:"type:uuid;not null;index:idx_invoice_tenant_customer,priority:2"`
	CustomerName    string                  `gorm:"type:varchar(200);not null;default:''"`
	Date            time.Time               `gorm:"type:date;not null"`
	PaymentType     invoicing.PaymentType   `gorm:"type:varchar(10);not null"`
	Currency        string                  `gorm:"type:varchar(3);not null"`
	Items           []InvoiceItemModel      `gorm:"foreignKey:InvoiceID;references:ID"`
	Payments        []PaymentModel          `gorm:"foreignKey:InvoiceID;references:ID"`
	TotalAmount     decimal.Decimal         `gorm:"type:decimal(18,2);not null;default:0"`
	PaidAmount      decimal.Decimal         `gorm:"type:decimal(18,2);not null;default:0"`
	RemainingAmount decimal.Decimal         `gorm:"type:decimal(18,2);not null;default:0"`
	Status          invoicing.InvoiceStatus `gorm:"type:smallint;not null;default:0;index"`
	Notes           string                  `gorm:"type:text"`
	StockApplied    bool                    `gorm:"not null;default:false"`
	BalanceApplied  decimal.Decimal         `gorm:"type:decimal(18,2);not null;default:0"`
	ConfirmedAt     *time.Time
	CancelledAt     *time.Time
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice.
// Items and Payments must be preloaded.
func (m *InvoiceModel) ToDomain() *invoicing.Invoice {
	inv := &invoicing.Invoice{
		TenantAggregateRoot: m.TenantAggregateRoot(),
		CustomerID:          m.CustomerID,
		CustomerName:        m.CustomerName,
		Date:                m.Date,
		PaymentType:         m.PaymentType,
		Currency:            m.Currency,
		Items:               make([]invoicing.InvoiceItem, len(m.Items)),
		TotalAmount:         m.TotalAmount,
		PaidAmount:          m.PaidAmount,
		RemainingAmount:     m.RemainingAmount,
		Status:              m.Status,
		Notes:               m.Notes,
		StockApplied:        m.StockApplied,
		BalanceApplied:      m.BalanceApplied,
		ConfirmedAt:         m.ConfirmedAt,
		CancelledAt:         m.CancelledAt,
	}
	for i := range m.Items {
		inv.Items[i] = m.Items[i].ToDomain()
	}
	payments := make([]invoicing.Payment, len(m.Payments))
	for i := range m.Payments {
		payments[i] = m.Payments[i].ToDomain()
	}
	inv.Ledger = invoicing.NewPaymentLedger(payments)
	return inv
}

// FromDomain populates the persistence model from a domain Invoice
func (m *InvoiceModel) FromDomain(inv *invoicing.Invoice) {
	m.FromDomainTenantAggregateRoot(inv.TenantAggregateRoot)
	m.CustomerID = inv.CustomerID
	m.CustomerName = inv.CustomerName
	m.Date = inv.Date
	m.PaymentType = inv.PaymentType
	m.Currency = inv.Currency
	m.TotalAmount = inv.TotalAmount
	m.PaidAmount = inv.PaidAmount
	m.RemainingAmount = inv.RemainingAmount
	m.Status = inv.Status
	m.Notes = inv.Notes
	m.StockApplied = inv.StockApplied
	m.BalanceApplied = inv.BalanceApplied
	m.ConfirmedAt = inv.ConfirmedAt
	m.CancelledAt = inv.CancelledAt

	m.Items = make([]InvoiceItemModel, len(inv.Items))
	for i := range inv.Items {
		m.Items[i] = InvoiceItemModelFromDomain(inv.ID, i, inv.Items[i])
	}
	entries := inv.Ledger.Entries()
	m.Payments = make([]PaymentModel, len(entries))
	for i := range entries {
		m.Payments[i] = *PaymentModelFromDomain(&entries[i])
	}
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice
func InvoiceModelFromDomain(inv *invoicing.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(inv)
	return m
}

// InvoiceItemModel is the persistence model for one invoice line
type InvoiceItemModel struct {
	ID         uuid.UUID       `gorm:"type:uuid;primary_key"`
	InvoiceID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	Position   int             `gorm:"not null;default:0"`
	ProductID  *uuid.UUID      `gorm:"type:uuid;index"`
	Name       string          `gorm:"type:varchar(200);not null"`
	Quantity   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Price      decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	UnitName   string          `gorm:"type:varchar(50);not null"`
	UnitSymbol string          `gorm:"type:varchar(20);not null;default:''"`
	Total      decimal.Decimal `gorm:"type:decimal(18,2);not null"`
}

// TableName returns the table name for GORM
func (InvoiceItemModel) TableName() string {
	return "invoice_items"
}

// ToDomain converts the persistence model to a domain InvoiceItem
func (m *InvoiceItemModel) ToDomain() invoicing.InvoiceItem {
	unit, err := valueobject.NewUnit(m.UnitName, m.UnitSymbol)
	if err != nil {
		unit = valueobject.PieceUnit()
	}
	return invoicing.InvoiceItem{
		ID:        m.ID,
		ProductID: m.ProductID,
		Name:      m.Name,
		Quantity:  m.Quantity,
		Price:     m.Price,
		Unit:      unit,
		Total:     m.Total,
	}
}

// InvoiceItemModelFromDomain creates an item row at the given position
func InvoiceItemModelFromDomain(invoiceID uuid.UUID, position int, item invoicing.InvoiceItem) InvoiceItemModel {
	return InvoiceItemModel{
		ID:         item.ID,
		InvoiceID:  invoiceID,
		Position:   position,
		ProductID:  item.ProductID,
		Name:       item.Name,
		Quantity:   item.Quantity,
		Price:      item.Price,
		UnitName:   item.Unit.Name(),
		UnitSymbol: item.Unit.Symbol(),
		Total:      item.Total,
	}
}

// PaymentModel is the persistence model for a payment ledger entry.
// InvoiceID is NULL for on-account receipts. IdempotencyKey is NULL when the
// caller sent none, so the unique index only binds real keys.
type PaymentModel struct {
	ID             uuid.UUID               `gorm:"type:uuid;primary_key"`
	TenantID       uuid.UUID               `gorm:"type:uuid;not null;index:idx_payment_tenant_customer,priority:1;uniqueIndex:idx_payment_tenant_idempotency,priority:1"`
	InvoiceID      *uuid.UUID              `gorm:"type:uuid;index"`
	CustomerID     uuid.UUID               `gorm:"type:uuid;not null;index:idx_payment_tenant_customer,priority:2"`
	Amount         decimal.Decimal         `gorm:"type:decimal(18,2);not null"`
	Date           time.Time               `gorm:"not null"`
	Method         invoicing.PaymentMethod `gorm:"type:varchar(20);not null"`
	Notes          string                  `gorm:"type:text"`
	Status         invoicing.PaymentStatus `gorm:"type:varchar(10);not null;default:'active'"`
	ReversedAt     *time.Time
	IdempotencyKey *string    `gorm:"type:varchar(128);uniqueIndex:idx_payment_tenant_idempotency,priority:2"`
	CreatedBy      *uuid.UUID `gorm:"type:uuid"`
	CreatedAt      time.Time  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment
func (m *PaymentModel) ToDomain() invoicing.Payment {
	p := invoicing.Payment{
		ID:         m.ID,
		TenantID:   m.TenantID,
		InvoiceID:  m.InvoiceID,
		CustomerID: m.CustomerID,
		Amount:     m.Amount,
		Date:       m.Date,
		Method:     m.Method,
		Notes:      m.Notes,
		Status:     m.Status,
		ReversedAt: m.ReversedAt,
		CreatedBy:  m.CreatedBy,
		CreatedAt:  m.CreatedAt,
	}
	if m.IdempotencyKey != nil {
		p.IdempotencyKey = *m.IdempotencyKey
	}
	return p
}

// PaymentModelFromDomain creates a persistence model from a domain Payment
func PaymentModelFromDomain(p *invoicing.Payment) *PaymentModel {
	m := &PaymentModel{
		ID:         p.ID,
		TenantID:   p.TenantID,
		InvoiceID:  p.InvoiceID,
		CustomerID: p.CustomerID,
		Amount:     p.Amount,
		Date:       p.Date,
		Method:     p.Method,
		Notes:      p.Notes,
		Status:     p.Status,
		ReversedAt: p.ReversedAt,
		CreatedBy:  p.CreatedBy,
		CreatedAt:  p.CreatedAt,
	}
	if p.IdempotencyKey != "" {
		key := p.IdempotencyKey
		m.IdempotencyKey = &key
	}
	return m
}

// InvoiceActivityModel is one audit trail row. It has no foreign key to
// invoices because the trail outlives deleted invoices.
type InvoiceActivityModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key"`
	TenantID   uuid.UUID `gorm:"type:uuid;not null;index:idx_activity_tenant_invoice,priority:1"`
	InvoiceID  uuid.UUID `gorm:"type:uuid;not null;index:idx_activity_tenant_invoice,priority:2"`
	EventID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	EventType  string    `gorm:"type:varchar(50);not null"`
	Summary    string    `gorm:"type:varchar(500);not null"`
	Payload    string    `gorm:"type:text"`
	OccurredAt time.Time `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (InvoiceActivityModel) TableName() string {
	return "invoice_activities"
}

// ToDomain converts the persistence model to a domain Activity
func (m *InvoiceActivityModel) ToDomain() invoicing.Activity {
	return invoicing.Activity{
		ID:         m.ID,
		TenantID:   m.TenantID,
		InvoiceID:  m.InvoiceID,
		EventID:    m.EventID,
		EventType:  m.EventType,
		Summary:    m.Summary,
		Payload:    []byte(m.Payload),
		OccurredAt: m.OccurredAt,
	}
}

// InvoiceActivityModelFromDomain creates a persistence model from a domain Activity
func InvoiceActivityModelFromDomain(a *invoicing.Activity) *InvoiceActivityModel {
	return &InvoiceActivityModel{
		ID:         a.ID,
		TenantID:   a.TenantID,
		InvoiceID:  a.InvoiceID,
		EventID:    a.EventID,
		EventType:  a.EventType,
		Summary:    a.Summary,
		Payload:    string(a.Payload),
		OccurredAt: a.OccurredAt,
	}
}
