package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/domain/invoicing"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/domain/shared"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInvoiceRepository implements InvoiceRepository using GORM.
// An invoice is stored across invoices, invoice_items and payments.
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

func (r *GormInvoiceRepository) withGraph(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") })
}

// FindByIDForTenant finds an invoice with its items and payment ledger
func (r *GormInvoiceRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*invoicing.Invoice, error) {
	var model models.InvoiceModel
	err := r.withGraph(r.db.WithContext(ctx)).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant finds a page of invoices
func (r *GormInvoiceRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]invoicing.Invoice, error) {
	var rows []models.InvoiceModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.InvoiceModel{}), tenantID, filter).
		Order(orderClause(filter.OrderBy, filter.OrderDir, InvoiceSortFields, "created_at"))
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	if err := r.withGraph(query).Find(&rows).Error; err != nil {
		return nil, err
	}

	invoices := make([]invoicing.Invoice, len(rows))
	for i := range rows {
		invoices[i] = *rows[i].ToDomain()
	}
	return invoices, nil
}

// CountForTenant counts invoices matching the filter
func (r *GormInvoiceRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.InvoiceModel{}), tenantID, filter).
		Count(&count).Error
	return count, err
}

func (r *GormInvoiceRepository) applyFilter(query *gorm.DB, tenantID uuid.UUID, filter shared.Filter) *gorm.DB {
	query = query.Where("tenant_id = ?", tenantID)
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}
	if customerID, ok := filter.Filters["customer_id"]; ok {
		query = query.Where("customer_id = ?", customerID)
	}
	return query
}

// Save inserts a new invoice with its items and payments
func (r *GormInvoiceRepository) Save(ctx context.Context, inv *invoicing.Invoice) error {
	model := models.InvoiceModelFromDomain(inv)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(model).Error; err != nil {
			return err
		}
		return saveInvoiceChildren(tx, model)
	})
}

// SaveWithLock updates an invoice if its stored version still matches.
// A mismatch or a concurrent update returns shared.ErrConcurrencyConflict.
func (r *GormInvoiceRepository) SaveWithLock(ctx context.Context, inv *invoicing.Invoice) error {
	model := models.InvoiceModelFromDomain(inv)
	next := inv.Version + 1

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var versions []int
		if err := tx.Model(&models.InvoiceModel{}).
			Where("tenant_id = ? AND id = ?", inv.TenantID, inv.ID).
			Pluck("version", &versions).Error; err != nil {
			return err
		}
		if len(versions) == 0 {
			return shared.ErrNotFound
		}
		if versions[0] != inv.Version {
			return shared.ErrConcurrencyConflict.WithDetail("id", inv.ID.String())
		}

		updatedAt := inv.UpdatedAt
		if updatedAt.IsZero() {
			updatedAt = time.Now()
		}
		result := tx.Model(&models.InvoiceModel{}).
			Where("tenant_id = ? AND id = ? AND version = ?", inv.TenantID, inv.ID, inv.Version).
			Updates(map[string]interface{}{
				"customer_id":      model.CustomerID,
				"customer_name":    model.CustomerName,
				"date":             model.Date,
				"total_amount":     model.TotalAmount,
				"paid_amount":      model.PaidAmount,
				"remaining_amount": model.RemainingAmount,
				"status":           model.Status,
				"notes":            model.Notes,
				"stock_applied":    model.StockApplied,
				"balance_applied":  model.BalanceApplied,
				"confirmed_at":     model.ConfirmedAt,
				"cancelled_at":     model.CancelledAt,
				"version":          next,
				"updated_at":       updatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict.WithDetail("id", inv.ID.String())
		}
		return saveInvoiceChildren(tx, model)
	})
	if err != nil {
		return err
	}
	inv.Version = next
	return nil
}

// saveInvoiceChildren replaces the items and upserts the payment ledger.
// Payments are append-only, so only their reversal columns change.
func saveInvoiceChildren(tx *gorm.DB, model *models.InvoiceModel) error {
	if err := tx.Where("invoice_id = ?", model.ID).Delete(&models.InvoiceItemModel{}).Error; err != nil {
		return err
	}
	if len(model.Items) > 0 {
		if err := tx.Create(&model.Items).Error; err != nil {
			return err
		}
	}
	if len(model.Payments) == 0 {
		return nil
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "reversed_at"}),
	}).Create(&model.Payments).Error
}

// DeleteForTenant removes an invoice with its items and payments.
// The activity trail is kept.
func (r *GormInvoiceRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.InvoiceModel{}).
			Where("tenant_id = ? AND id = ?", tenantID, id).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return shared.ErrNotFound
		}
		if err := tx.Where("invoice_id = ?", id).Delete(&models.InvoiceItemModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("tenant_id = ? AND invoice_id = ?", tenantID, id).Delete(&models.PaymentModel{}).Error; err != nil {
			return err
		}
		return tx.Where("tenant_id = ? AND id = ?", tenantID, id).Delete(&models.InvoiceModel{}).Error
	})
}

// Ensure GormInvoiceRepository implements InvoiceRepository
var _ invoicing.InvoiceRepository = (*GormInvoiceRepository)(nil)
