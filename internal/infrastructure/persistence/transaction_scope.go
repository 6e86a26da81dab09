package persistence

import (
	"context"

	appinvoicing "github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/application/invoicing"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/domain/invoicing"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// Invoice rows, payments and both ledgers commit or roll back together.
type GormTransactionScope struct {
	db                 *gorm.DB
	allowNegativeStock bool
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB, allowNegativeStock bool) *GormTransactionScope {
	return &GormTransactionScope{db: db, allowNegativeStock: allowNegativeStock}
}

// Execute runs fn within a database transaction.
// If fn returns an error, the transaction is rolled back.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appinvoicing.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx, allowNegativeStock: s.allowNegativeStock})
	})
}

// gormTransactionalRepositories hands out repositories bound to one transaction
type gormTransactionalRepositories struct {
	tx                 *gorm.DB
	allowNegativeStock bool
}

func (r *gormTransactionalRepositories) InvoiceRepo() invoicing.InvoiceRepository {
	return NewGormInvoiceRepository(r.tx)
}

func (r *gormTransactionalRepositories) PaymentRepo() invoicing.PaymentRepository {
	return NewGormPaymentRepository(r.tx)
}

func (r *gormTransactionalRepositories) StockPort() invoicing.StockPort {
	return NewGormStockLedger(r.tx, r.allowNegativeStock)
}

func (r *gormTransactionalRepositories) BalancePort() invoicing.CustomerBalancePort {
	return NewGormBalanceLedger(r.tx)
}

var (
	_ appinvoicing.TransactionScope          = (*GormTransactionScope)(nil)
	_ appinvoicing.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
)
