package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sitemanager/backend/internal/domain/ledger"
	"github.com/sitemanager/backend/internal/domain/site"
	"github.com/sitemanager/backend/internal/infrastructure/persistence/models"
	"github.com/sitemanager/backend/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
)

// GormPaymentRepository implements PaymentRepository using GORM
type GormPaymentRepository struct {
	sdb *tenant.SiteDB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{sdb: tenant.NewSiteDB(db)}
}

// Create inserts a payment with its items
func (r *GormPaymentRepository) Create(ctx context.Context, tc site.TenantContext, p *ledger.Payment) error {
	p.SiteID = tc.SiteID
	return r.sdb.Session(ctx).Create(models.PaymentModelFromDomain(p)).Error
}

// FindByID finds a payment of the site with its items
func (r *GormPaymentRepository) FindByID(ctx context.Context, tc site.TenantContext, id uuid.UUID) (*ledger.Payment, error) {
	var model models.PaymentModel
	if err := r.sdb.For(ctx, tc).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "Payment")
	}
	return model.ToDomain(), nil
}

// Delete removes a payment of the site and its items
func (r *GormPaymentRepository) Delete(ctx context.Context, tc site.TenantContext, id uuid.UUID) error {
	var count int64
	if err := r.sdb.For(ctx, tc).Model(&models.PaymentModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return notFound(gorm.ErrRecordNotFound, "Payment")
	}
	if err := r.sdb.Session(ctx).Delete(&models.PaymentItemModel{}, "payment_id = ?", id).Error; err != nil {
		return err
	}
	res := r.sdb.For(ctx, tc).Delete(&models.PaymentModel{}, "id = ?", id)
	return expectOne(res, "Payment")
}

// ItemAmountsForExpense returns all amounts allocated to the expense in creation order
func (r *GormPaymentRepository) ItemAmountsForExpense(ctx context.Context, tc site.TenantContext, expenseID uuid.UUID) ([]decimal.Decimal, error) {
	var amounts []decimal.Decimal
	err := r.sdb.Session(ctx).
		Table("payment_items").
		Joins("JOIN payments ON payments.id = payment_items.payment_id").
		Scopes(tenant.QualifiedSiteScope("payments", tc)).
		Where("payment_items.expense_id = ?", expenseID).
		Order("payment_items.created_at ASC, payment_items.id ASC").
		Pluck("payment_items.amount", &amounts).Error
	return amounts, err
}

// ListByCashAccount returns payments of a cash account ordered by date then creation
func (r *GormPaymentRepository) ListByCashAccount(ctx context.Context, tc site.TenantContext, cashAccountID uuid.UUID, q ledger.DocumentQuery) ([]ledger.Payment, error) {
	query := applyDocumentQuery(r.sdb.For(ctx, tc).Where("cash_account_id = ?", cashAccountID), q)
	var paymentModels []models.PaymentModel
	if err := query.Order("paid_at ASC, created_at ASC, id ASC").Find(&paymentModels).Error; err != nil {
		return nil, err
	}
	payments := make([]ledger.Payment, len(paymentModels))
	for i := range paymentModels {
		payments[i] = *paymentModels[i].ToDomain()
	}
	return payments, nil
}

// Ensure GormPaymentRepository implements PaymentRepository
var _ ledger.PaymentRepository = (*GormPaymentRepository)(nil)
