package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/domain/invoicing"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormActivityRepository implements ActivityRepository using GORM
type GormActivityRepository struct {
	db *gorm.DB
}

// NewGormActivityRepository creates a new GormActivityRepository
func NewGormActivityRepository(db *gorm.DB) *GormActivityRepository {
	return &GormActivityRepository{db: db}
}

// Save stores an activity. A second row for the same event is ignored.
func (r *GormActivityRepository) Save(ctx context.Context, a *invoicing.Activity) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "event_id"}}, DoNothing: true}).
		Create(models.InvoiceActivityModelFromDomain(a)).Error
}

// FindByInvoice lists the trail of an invoice, oldest first
func (r *GormActivityRepository) FindByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]invoicing.Activity, error) {
	var rows []models.InvoiceActivityModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND invoice_id = ?", tenantID, invoiceID).
		Order("occurred_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]invoicing.Activity, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// Ensure GormActivityRepository implements ActivityRepository
var _ invoicing.ActivityRepository = (*GormActivityRepository)(nil)
