package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sitemanager/backend/internal/domain/shared"
	"github.com/sitemanager/backend/internal/domain/site"
)

// Every scoped repository method takes the TenantContext explicitly and
// never sees rows of another site. Rows of another site are reported as
// not found.

// ChargeKey identifies the single charge an apartment may carry per
// account, period and type.
type ChargeKey struct {
	ApartmentID uuid.UUID
	AccountID   uuid.UUID
	Period      string
	ChargeType  ChargeType
}

// ChargeFilter narrows charge listings
type ChargeFilter struct {
	shared.Filter
	ApartmentID *uuid.UUID
	Period      string
	ChargeType  ChargeType
	OnlyUnpaid  bool
}

// ChargeRepository persists charges
type ChargeRepository interface {
	FindByID(ctx context.Context, tc site.TenantContext, id uuid.UUID) (*Charge, error)
	// FindByIDForUpdate reads the charge holding a row lock until the transaction ends
	FindByIDForUpdate(ctx context.Context, tc site.TenantContext, id uuid.UUID) (*Charge, error)
	// FindByIDsForUpdate locks several charges in ascending ID order
	FindByIDsForUpdate(ctx context.Context, tc site.TenantContext, ids []uuid.UUID) ([]Charge, error)
	List(ctx context.Context, tc site.TenantContext, filter ChargeFilter) ([]Charge, int64, error)
	Exists(ctx context.Context, tc site.TenantContext, key ChargeKey) (bool, error)
	Create(ctx context.Context, tc site.TenantContext, c *Charge) error
	// CreateIfAbsent inserts unless the ChargeKey is taken; reports whether a row was written
	CreateIfAbsent(ctx context.Context, tc site.TenantContext, c *Charge) (bool, error)
	// SavePaidState writes paid_amount and status
	SavePaidState(ctx context.Context, tc site.TenantContext, c *Charge) error
	SaveAmount(ctx context.Context, tc site.TenantContext, c *Charge) error
	Delete(ctx context.Context, tc site.TenantContext, id uuid.UUID) error
}

// ExpenseFilter narrows expense listings
type ExpenseFilter struct {
	shared.Filter
	VendorID   *uuid.UUID
	Status     ExpenseStatus
	OnlyUnpaid bool
}

// ExpenseRepository persists expenses
type ExpenseRepository interface {
	FindByID(ctx context.Context, tc site.TenantContext, id uuid.UUID) (*Expense, error)
	FindByIDForUpdate(ctx context.Context, tc site.TenantContext, id uuid.UUID) (*Expense, error)
	FindByIDsForUpdate(ctx context.Context, tc site.TenantContext, ids []uuid.UUID) ([]Expense, error)
	List(ctx context.Context, tc site.TenantContext, filter ExpenseFilter) ([]Expense, int64, error)
	Create(ctx context.Context, tc site.TenantContext, e *Expense) error
	SavePaidState(ctx context.Context, tc site.TenantContext, e *Expense) error
	SaveAmount(ctx context.Context, tc site.TenantContext, e *Expense) error
	Delete(ctx context.Context, tc site.TenantContext, id uuid.UUID) error
}

// DocumentQuery selects receipts or payments of a cash account by date.
// From and To are inclusive; Before is exclusive. Nil bounds are open.
type DocumentQuery struct {
	From   *time.Time
	To     *time.Time
	Before *time.Time
}

// ReceiptRepository persists receipts with their items
type ReceiptRepository interface {
	Create(ctx context.Context, tc site.TenantContext, r *Receipt) error
	FindByID(ctx context.Context, tc site.TenantContext, id uuid.UUID) (*Receipt, error)
	Delete(ctx context.Context, tc site.TenantContext, id uuid.UUID) error
	// ItemAmountsForCharge returns every allocated amount for the charge in creation order
	ItemAmountsForCharge(ctx context.Context, tc site.TenantContext, chargeID uuid.UUID) ([]decimal.Decimal, error)
	// ListByCashAccount returns receipts ordered by paid_at, created_at, id
	ListByCashAccount(ctx context.Context, tc site.TenantContext, cashAccountID uuid.UUID, q DocumentQuery) ([]Receipt, error)
}

// PaymentRepository persists payments with their items
type PaymentRepository interface {
	Create(ctx context.Context, tc site.TenantContext, p *Payment) error
	FindByID(ctx context.Context, tc site.TenantContext, id uuid.UUID) (*Payment, error)
	Delete(ctx context.Context, tc site.TenantContext, id uuid.UUID) error
	ItemAmountsForExpense(ctx context.Context, tc site.TenantContext, expenseID uuid.UUID) ([]decimal.Decimal, error)
	ListByCashAccount(ctx context.Context, tc site.TenantContext, cashAccountID uuid.UUID, q DocumentQuery) ([]Payment, error)
}

// CashAccountRepository persists cash and bank accounts
type CashAccountRepository interface {
	FindByID(ctx context.Context, tc site.TenantContext, id uuid.UUID) (*CashAccount, error)
	List(ctx context.Context, tc site.TenantContext) ([]CashAccount, error)
	Create(ctx context.Context, tc site.TenantContext, a *CashAccount) error
}

// AccountRepository persists chart-of-accounts lines
type AccountRepository interface {
	FindByID(ctx context.Context, tc site.TenantContext, id uuid.UUID) (*Account, error)
	Create(ctx context.Context, tc site.TenantContext, a *Account) error
}

// ApartmentRepository persists apartments and their residents
type ApartmentRepository interface {
	FindByID(ctx context.Context, tc site.TenantContext, id uuid.UUID) (*Apartment, error)
	// FindByIDs returns the apartments of the site among ids; unknown ids are dropped
	FindByIDs(ctx context.Context, tc site.TenantContext, ids []uuid.UUID) ([]Apartment, error)
	ListActive(ctx context.Context, tc site.TenantContext) ([]Apartment, error)
	Create(ctx context.Context, tc site.TenantContext, a *Apartment) error
	SetActive(ctx context.Context, tc site.TenantContext, id uuid.UUID, active bool) error
	AddResident(ctx context.Context, tc site.TenantContext, r Resident) error
}

// VendorRepository persists vendors
type VendorRepository interface {
	FindByID(ctx context.Context, tc site.TenantContext, id uuid.UUID) (*Vendor, error)
	Create(ctx context.Context, tc site.TenantContext, v *Vendor) error
}

// TemplateRepository persists recurring templates
type TemplateRepository interface {
	CreateAidat(ctx context.Context, tc site.TenantContext, t *TemplateAidat) error
	CreateExpense(ctx context.Context, tc site.TenantContext, t *TemplateExpense) error
	ListActiveAidat(ctx context.Context, tc site.TenantContext) ([]TemplateAidat, error)
	ListActiveExpense(ctx context.Context, tc site.TenantContext) ([]TemplateExpense, error)
	FindExpenseByID(ctx context.Context, tc site.TenantContext, id uuid.UUID) (*TemplateExpense, error)
	SetAidatActive(ctx context.Context, tc site.TenantContext, id uuid.UUID, active bool) error
	SetExpenseActive(ctx context.Context, tc site.TenantContext, id uuid.UUID, active bool) error
	SaveAidatProgress(ctx context.Context, tc site.TenantContext, t *TemplateAidat) error
	// AdvanceExpenseWatermark moves last_generated_at from prev to next.
	// Returns false when another run already moved it.
	AdvanceExpenseWatermark(ctx context.Context, tc site.TenantContext, id uuid.UUID, prev *time.Time, next time.Time) (bool, error)
}

// SequenceRepository hands out document numbers
type SequenceRepository interface {
	// Next returns the next counter value for the site and kind.
	// Must run in a transaction; values are never handed out twice.
	Next(ctx context.Context, tc site.TenantContext, kind DocumentKind) (int64, error)
}

// PurgeTarget names a table cleared by a site purge
type PurgeTarget string

const (
	PurgeReceiptItems       PurgeTarget = "receipt_items"
	PurgeReceipts           PurgeTarget = "receipts"
	PurgePaymentItems       PurgeTarget = "payment_items"
	PurgePayments           PurgeTarget = "payments"
	PurgeCharges            PurgeTarget = "charges"
	PurgeExpenses           PurgeTarget = "expenses"
	PurgeTemplateAidatUnits PurgeTarget = "template_aidat_apartments"
	PurgeTemplateAidat      PurgeTarget = "template_aidats"
	PurgeTemplateExpenses   PurgeTarget = "template_expenses"
	PurgeApartmentResidents PurgeTarget = "apartment_residents"
	PurgeApartments         PurgeTarget = "apartments"
	PurgeCashAccounts       PurgeTarget = "cash_accounts"
	PurgeAccounts           PurgeTarget = "accounts"
	PurgeVendors            PurgeTarget = "vendors"
	PurgeDocumentSequences  PurgeTarget = "document_sequences"
)

// PurgeRepository deletes across the tenant boundary. Its queries are
// explicit about the site they target and bypass site scoping.
type PurgeRepository interface {
	DeleteAll(ctx context.Context, target PurgeTarget, siteID uuid.UUID) (int64, error)
	UnassignUsers(ctx context.Context, siteID uuid.UUID) (int64, error)
	DeleteSite(ctx context.Context, siteID uuid.UUID) (int64, error)
}

// Repositories groups the repositories bound to one database handle
type Repositories interface {
	Charges() ChargeRepository
	Expenses() ExpenseRepository
	Receipts() ReceiptRepository
	Payments() PaymentRepository
	CashAccounts() CashAccountRepository
	Accounts() AccountRepository
	Apartments() ApartmentRepository
	Vendors() VendorRepository
	Templates() TemplateRepository
	Sequences() SequenceRepository
	Sites() site.SiteRepository
	Purge() PurgeRepository
}

// TransactionScope runs fn inside one database transaction. The
// repositories passed to fn share it; fn returning an error rolls back.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos Repositories) error) error
}
