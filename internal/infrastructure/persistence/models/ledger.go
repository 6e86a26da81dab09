package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/domain/ledger"
)

// CustomerBalanceModel is the running receivable of one customer
type CustomerBalanceModel struct {
	TenantID   uuid.UUID       `gorm:"type:uuid;primaryKey"`
	CustomerID uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Balance    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	UpdatedAt  time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CustomerBalanceModel) TableName() string {
	return "customer_balances"
}

// ToDomain converts the persistence model to a domain CustomerBalance
func (m *CustomerBalanceModel) ToDomain() *ledger.CustomerBalance {
	return &ledger.CustomerBalance{
		TenantID:   m.TenantID,
		CustomerID: m.CustomerID,
		Balance:    m.Balance,
		UpdatedAt:  m.UpdatedAt,
	}
}

// CustomerBalanceModelFromDomain creates a persistence model from a domain CustomerBalance
func CustomerBalanceModelFromDomain(b *ledger.CustomerBalance) *CustomerBalanceModel {
	return &CustomerBalanceModel{
		TenantID:   b.TenantID,
		CustomerID: b.CustomerID,
		Balance:    b.Balance,
		UpdatedAt:  b.UpdatedAt,
	}
}

// ProductStockModel is the quantity on hand of one product
type ProductStockModel struct {
	TenantID  uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ProductID uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Quantity  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	UpdatedAt time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProductStockModel) TableName() string {
	return "product_stocks"
}

// ToDomain converts the persistence model to a domain ProductStock
func (m *ProductStockModel) ToDomain() *ledger.ProductStock {
	return &ledger.ProductStock{
		TenantID:  m.TenantID,
		ProductID: m.ProductID,
		Quantity:  m.Quantity,
		UpdatedAt: m.UpdatedAt,
	}
}

// ProductStockModelFromDomain creates a persistence model from a domain ProductStock
func ProductStockModelFromDomain(s *ledger.ProductStock) *ProductStockModel {
	return &ProductStockModel{
		TenantID:  s.TenantID,
		ProductID: s.ProductID,
		Quantity:  s.Quantity,
		UpdatedAt: s.UpdatedAt,
	}
}

// AllModels returns every model, in dependency order, for AutoMigrate in tests
func AllModels() []interface{} {
	return []interface{}{
		&InvoiceModel{},
		&InvoiceItemModel{},
		&PaymentModel{},
		&InvoiceActivityModel{},
		&CustomerBalanceModel{},
		&ProductStockModel{},
	}
}
