package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sitemanager/backend/internal/domain/ledger"
	"github.com/sitemanager/backend/internal/domain/shared/valueobject"
	"github.com/sitemanager/backend/internal/domain/site"
	"github.com/sitemanager/backend/internal/infrastructure/persistence/models"
	"github.com/sitemanager/backend/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
)

// GormReceiptRepository implements ReceiptRepository using GORM
type GormReceiptRepository struct {
	sdb *tenant.SiteDB
}

// NewGormReceiptRepository creates a new GormReceiptRepository
func NewGormReceiptRepository(db *gorm.DB) *GormReceiptRepository {
	return &GormReceiptRepository{sdb: tenant.NewSiteDB(db)}
}

// Create inserts a receipt with its items
func (r *GormReceiptRepository) Create(ctx context.Context, tc site.TenantContext, receipt *ledger.Receipt) error {
	receipt.SiteID = tc.SiteID
	return r.sdb.Session(ctx).Create(models.ReceiptModelFromDomain(receipt)).Error
}

// FindByID finds a receipt of the site with its items
func (r *GormReceiptRepository) FindByID(ctx context.Context, tc site.TenantContext, id uuid.UUID) (*ledger.Receipt, error) {
	var model models.ReceiptModel
	if err := r.sdb.For(ctx, tc).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "Receipt")
	}
	return model.ToDomain(), nil
}

// Delete removes a receipt of the site and its items
func (r *GormReceiptRepository) Delete(ctx context.Context, tc site.TenantContext, id uuid.UUID) error {
	var count int64
	if err := r.sdb.For(ctx, tc).Model(&models.ReceiptModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return notFound(gorm.ErrRecordNotFound, "Receipt")
	}
	if err := r.sdb.Session(ctx).Delete(&models.ReceiptItemModel{}, "receipt_id = ?", id).Error; err != nil {
		return err
	}
	res := r.sdb.For(ctx, tc).Delete(&models.ReceiptModel{}, "id = ?", id)
	return expectOne(res, "Receipt")
}

// ItemAmountsForCharge returns all amounts allocated to the charge in creation order
func (r *GormReceiptRepository) ItemAmountsForCharge(ctx context.Context, tc site.TenantContext, chargeID uuid.UUID) ([]decimal.Decimal, error) {
	var amounts []decimal.Decimal
	err := r.sdb.Session(ctx).
		Table("receipt_items").
		Joins("JOIN receipts ON receipts.id = receipt_items.receipt_id").
		Scopes(tenant.QualifiedSiteScope("receipts", tc)).
		Where("receipt_items.charge_id = ?", chargeID).
		Order("receipt_items.created_at ASC, receipt_items.id ASC").
		Pluck("receipt_items.amount", &amounts).Error
	return amounts, err
}

// ListByCashAccount returns receipts of a cash account ordered by date then creation
func (r *GormReceiptRepository) ListByCashAccount(ctx context.Context, tc site.TenantContext, cashAccountID uuid.UUID, q ledger.DocumentQuery) ([]ledger.Receipt, error) {
	query := applyDocumentQuery(r.sdb.For(ctx, tc).Where("cash_account_id = ?", cashAccountID), q)
	var receiptModels []models.ReceiptModel
	if err := query.Order("paid_at ASC, created_at ASC, id ASC").Find(&receiptModels).Error; err != nil {
		return nil, err
	}
	receipts := make([]ledger.Receipt, len(receiptModels))
	for i := range receiptModels {
		receipts[i] = *receiptModels[i].ToDomain()
	}
	return receipts, nil
}

// applyDocumentQuery restricts paid_at to the query bounds
func applyDocumentQuery(query *gorm.DB, q ledger.DocumentQuery) *gorm.DB {
	if q.From != nil {
		query = query.Where("paid_at >= ?", valueobject.DateOnly(*q.From))
	}
	if q.To != nil {
		query = query.Where("paid_at <= ?", valueobject.DateOnly(*q.To))
	}
	if q.Before != nil {
		query = query.Where("paid_at < ?", valueobject.DateOnly(*q.Before))
	}
	return query
}

// Ensure GormReceiptRepository implements ReceiptRepository
var _ ledger.ReceiptRepository = (*GormReceiptRepository)(nil)
