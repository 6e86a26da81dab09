package invoicing

import (
	"context"

	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/domain/invoicing"
)

// TransactionScope runs reconciliation work in one database transaction.
// If fn returns an error, everything written through repos is rolled back.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories gives access to repositories and ledger ports
// that share the surrounding transaction
type TransactionalRepositories interface {
	InvoiceRepo() invoicing.InvoiceRepository
	PaymentRepo() invoicing.PaymentRepository
	StockPort() invoicing.StockPort
	BalancePort() invoicing.CustomerBalancePort
}
