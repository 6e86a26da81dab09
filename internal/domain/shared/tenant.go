package shared

import (
	"github.com/google/uuid"
)

// TenantContext is the explicit caller context passed into every service call
type TenantContext struct {
	TenantID    uuid.UUID
	UserID      uuid.UUID
	Currency    string
	Permissions []string
}

// NewTenantContext builds a TenantContext for a tenant and currency
func NewTenantContext(tenantID uuid.UUID, currency string) TenantContext {
	return TenantContext{TenantID: tenantID, Currency: currency}
}

// Validate rejects a context without a tenant
func (tc TenantContext) Validate() error {
	if tc.TenantID == uuid.Nil {
		return ErrValidation.WithDetail("tenantId", "tenant is required")
	}
	return nil
}
