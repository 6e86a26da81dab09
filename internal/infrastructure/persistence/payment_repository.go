package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/domain/invoicing"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/domain/shared"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPaymentRepository implements PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByIDForTenant finds a payment by id
func (r *GormPaymentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*invoicing.Payment, error) {
	return r.first(r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id))
}

// FindByIdempotencyKey finds the payment recorded for a client key
func (r *GormPaymentRepository) FindByIdempotencyKey(ctx context.Context, tenantID uuid.UUID, key string) (*invoicing.Payment, error) {
	if key == "" {
		return nil, shared.ErrNotFound
	}
	return r.first(r.db.WithContext(ctx).Where("tenant_id = ? AND idempotency_key = ?", tenantID, key))
}

func (r *GormPaymentRepository) first(query *gorm.DB) (*invoicing.Payment, error) {
	var model models.PaymentModel
	if err := query.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	p := model.ToDomain()
	return &p, nil
}

// FindByInvoice lists the payment ledger of an invoice, oldest first
func (r *GormPaymentRepository) FindByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID, includeReversed bool) ([]invoicing.Payment, error) {
	query := r.db.WithContext(ctx).Where("tenant_id = ? AND invoice_id = ?", tenantID, invoiceID)
	if !includeReversed {
		query = query.Where("status = ?", invoicing.PaymentStatusActive)
	}
	var rows []models.PaymentModel
	if err := query.Order("created_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toPayments(rows), nil
}

// FindByCustomer finds a page of a customer's payments, receipts included
func (r *GormPaymentRepository) FindByCustomer(ctx context.Context, tenantID, customerID uuid.UUID, filter shared.Filter) ([]invoicing.Payment, error) {
	query := r.db.WithContext(ctx).
		Where("tenant_id = ? AND customer_id = ?", tenantID, customerID).
		Order(orderClause(filter.OrderBy, filter.OrderDir, PaymentSortFields, "date"))
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	var rows []models.PaymentModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toPayments(rows), nil
}

// CountByCustomer counts a customer's payments
func (r *GormPaymentRepository) CountByCustomer(ctx context.Context, tenantID, customerID uuid.UUID, _ shared.Filter) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.PaymentModel{}).
		Where("tenant_id = ? AND customer_id = ?", tenantID, customerID).
		Count(&count).Error
	return count, err
}

// Save inserts or updates an on-account receipt
func (r *GormPaymentRepository) Save(ctx context.Context, p *invoicing.Payment) error {
	if p.InvoiceID != nil {
		return shared.ErrValidation.WithMessage("invoice payments are saved with their invoice")
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "reversed_at", "notes"}),
	}).Create(models.PaymentModelFromDomain(p)).Error
}

func toPayments(rows []models.PaymentModel) []invoicing.Payment {
	out := make([]invoicing.Payment, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out
}

// Ensure GormPaymentRepository implements PaymentRepository
var _ invoicing.PaymentRepository = (*GormPaymentRepository)(nil)
