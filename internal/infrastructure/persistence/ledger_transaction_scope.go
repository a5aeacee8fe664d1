package persistence

import (
	"context"

	"github.com/sitemanager/backend/internal/domain/ledger"
	"github.com/sitemanager/backend/internal/domain/site"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn within a database transaction.
// If fn returns an error, or panics, the transaction is rolled back.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos ledger.Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepositories{db: tx})
	})
}

// NewRepositories returns repositories bound to db outside any transaction
func NewRepositories(db *gorm.DB) ledger.Repositories {
	return &gormRepositories{db: db}
}

// gormRepositories provides every ledger repository on one handle
type gormRepositories struct {
	db *gorm.DB
}

func (r *gormRepositories) Charges() ledger.ChargeRepository {
	return NewGormChargeRepository(r.db)
}

func (r *gormRepositories) Expenses() ledger.ExpenseRepository {
	return NewGormExpenseRepository(r.db)
}

func (r *gormRepositories) Receipts() ledger.ReceiptRepository {
	return NewGormReceiptRepository(r.db)
}

func (r *gormRepositories) Payments() ledger.PaymentRepository {
	return NewGormPaymentRepository(r.db)
}

func (r *gormRepositories) CashAccounts() ledger.CashAccountRepository {
	return NewGormCashAccountRepository(r.db)
}

func (r *gormRepositories) Accounts() ledger.AccountRepository {
	return NewGormAccountRepository(r.db)
}

func (r *gormRepositories) Apartments() ledger.ApartmentRepository {
	return NewGormApartmentRepository(r.db)
}

func (r *gormRepositories) Vendors() ledger.VendorRepository {
	return NewGormVendorRepository(r.db)
}

func (r *gormRepositories) Templates() ledger.TemplateRepository {
	return NewGormTemplateRepository(r.db)
}

func (r *gormRepositories) Sequences() ledger.SequenceRepository {
	return NewGormSequenceRepository(r.db)
}

func (r *gormRepositories) Sites() site.SiteRepository {
	return NewGormSiteRepository(r.db)
}

func (r *gormRepositories) Purge() ledger.PurgeRepository {
	return NewGormPurgeRepository(r.db)
}

// Ensure GormTransactionScope implements TransactionScope
var _ ledger.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormRepositories implements Repositories
var _ ledger.Repositories = (*gormRepositories)(nil)
