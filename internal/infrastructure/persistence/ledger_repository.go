package persistence

import (
	"bytes"
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/domain/invoicing"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/domain/ledger"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/domain/shared"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// upsertAll writes a ledger row, replacing the stored one
var upsertAll = clause.OnConflict{UpdateAll: true}

// GormStockLedger keeps product_stocks. It is both the invoicing StockPort
// and the ledger StockRepository. Rows are locked FOR UPDATE before they
// change so concurrent invoices on the same product serialize.
type GormStockLedger struct {
	db            *gorm.DB
	allowNegative bool
}

// NewGormStockLedger creates a stock ledger. With allowNegative false a
// decrement below zero fails with INSUFFICIENT_STOCK.
func NewGormStockLedger(db *gorm.DB, allowNegative bool) *GormStockLedger {
	return &GormStockLedger{db: db, allowNegative: allowNegative}
}

// FindStock reads a stock row
func (l *GormStockLedger) FindStock(ctx context.Context, tenantID, productID uuid.UUID) (*ledger.ProductStock, error) {
	var model models.ProductStockModel
	err := l.db.WithContext(ctx).
		Where("tenant_id = ? AND product_id = ?", tenantID, productID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// SaveStock upserts a stock row
func (l *GormStockLedger) SaveStock(ctx context.Context, stock *ledger.ProductStock) error {
	return l.db.WithContext(ctx).Clauses(upsertAll).Create(models.ProductStockModelFromDomain(stock)).Error
}

// Decrement removes the quantities of the lines
func (l *GormStockLedger) Decrement(ctx context.Context, tenantID uuid.UUID, lines []invoicing.StockLine) error {
	return l.adjust(ctx, tenantID, lines, func(s *ledger.ProductStock, qty decimal.Decimal) error {
		return s.Decrement(qty, l.allowNegative)
	})
}

// Restore puts the quantities of the lines back
func (l *GormStockLedger) Restore(ctx context.Context, tenantID uuid.UUID, lines []invoicing.StockLine) error {
	return l.adjust(ctx, tenantID, lines, func(s *ledger.ProductStock, qty decimal.Decimal) error {
		return s.Restore(qty)
	})
}

func (l *GormStockLedger) adjust(ctx context.Context, tenantID uuid.UUID, lines []invoicing.StockLine, apply func(*ledger.ProductStock, decimal.Decimal) error) error {
	// lock rows in product order so two invoices never wait on each other
	sorted := append([]invoicing.StockLine(nil), lines...)
	sort.Slice(sorted, func(i, j int) bool {
		return bytes.Compare(sorted[i].ProductID[:], sorted[j].ProductID[:]) < 0
	})

	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, line := range sorted {
			var model models.ProductStockModel
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("tenant_id = ? AND product_id = ?", tenantID, line.ProductID).
				First(&model).Error
			stock := model.ToDomain()
			if errors.Is(err, gorm.ErrRecordNotFound) {
				stock, err = ledger.NewProductStock(tenantID, line.ProductID), nil
			}
			if err != nil {
				return err
			}
			if err := apply(stock, line.Quantity); err != nil {
				return err
			}
			if err := tx.Clauses(upsertAll).Create(models.ProductStockModelFromDomain(stock)).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GormBalanceLedger keeps customer_balances. It is both the invoicing
// CustomerBalancePort and the ledger BalanceRepository.
type GormBalanceLedger struct {
	db *gorm.DB
}

// NewGormBalanceLedger creates a balance ledger
func NewGormBalanceLedger(db *gorm.DB) *GormBalanceLedger {
	return &GormBalanceLedger{db: db}
}

// FindBalance reads a balance row
func (l *GormBalanceLedger) FindBalance(ctx context.Context, tenantID, customerID uuid.UUID) (*ledger.CustomerBalance, error) {
	var model models.CustomerBalanceModel
	err := l.db.WithContext(ctx).
		Where("tenant_id = ? AND customer_id = ?", tenantID, customerID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// SaveBalance upserts a balance row
func (l *GormBalanceLedger) SaveBalance(ctx context.Context, balance *ledger.CustomerBalance) error {
	return l.db.WithContext(ctx).Clauses(upsertAll).Create(models.CustomerBalanceModelFromDomain(balance)).Error
}

// Increase adds amount to the customer's balance
func (l *GormBalanceLedger) Increase(ctx context.Context, tenantID, customerID uuid.UUID, amount decimal.Decimal) error {
	return l.adjust(ctx, tenantID, customerID, func(b *ledger.CustomerBalance) error {
		return b.Increase(amount)
	})
}

// Decrease subtracts amount from the customer's balance
func (l *GormBalanceLedger) Decrease(ctx context.Context, tenantID, customerID uuid.UUID, amount decimal.Decimal) error {
	return l.adjust(ctx, tenantID, customerID, func(b *ledger.CustomerBalance) error {
		return b.Decrease(amount)
	})
}

func (l *GormBalanceLedger) adjust(ctx context.Context, tenantID, customerID uuid.UUID, apply func(*ledger.CustomerBalance) error) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model models.CustomerBalanceModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("tenant_id = ? AND customer_id = ?", tenantID, customerID).
			First(&model).Error
		balance := model.ToDomain()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			balance, err = ledger.NewCustomerBalance(tenantID, customerID), nil
		}
		if err != nil {
			return err
		}
		if err := apply(balance); err != nil {
			return err
		}
		return tx.Clauses(upsertAll).Create(models.CustomerBalanceModelFromDomain(balance)).Error
	})
}

var (
	_ invoicing.StockPort           = (*GormStockLedger)(nil)
	_ ledger.StockRepository        = (*GormStockLedger)(nil)
	_ invoicing.CustomerBalancePort = (*GormBalanceLedger)(nil)
	_ ledger.BalanceRepository      = (*GormBalanceLedger)(nil)
)
