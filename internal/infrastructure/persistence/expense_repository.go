package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sitemanager/backend/internal/domain/ledger"
	"github.com/sitemanager/backend/internal/domain/site"
	"github.com/sitemanager/backend/internal/infrastructure/persistence/models"
	"github.com/sitemanager/backend/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
)

// GormExpenseRepository implements ExpenseRepository using GORM
type GormExpenseRepository struct {
	sdb *tenant.SiteDB
}

// NewGormExpenseRepository creates a new GormExpenseRepository
func NewGormExpenseRepository(db *gorm.DB) *GormExpenseRepository {
	return &GormExpenseRepository{sdb: tenant.NewSiteDB(db)}
}

// FindByID finds an expense of the site by ID
func (r *GormExpenseRepository) FindByID(ctx context.Context, tc site.TenantContext, id uuid.UUID) (*ledger.Expense, error) {
	var model models.ExpenseModel
	if err := r.sdb.For(ctx, tc).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "Expense")
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds an expense and locks its row
func (r *GormExpenseRepository) FindByIDForUpdate(ctx context.Context, tc site.TenantContext, id uuid.UUID) (*ledger.Expense, error) {
	var model models.ExpenseModel
	if err := forUpdate(r.sdb.For(ctx, tc)).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "Expense")
	}
	return model.ToDomain(), nil
}

// FindByIDsForUpdate locks the given expenses in ascending ID order
func (r *GormExpenseRepository) FindByIDsForUpdate(ctx context.Context, tc site.TenantContext, ids []uuid.UUID) ([]ledger.Expense, error) {
	var expenseModels []models.ExpenseModel
	if err := forUpdate(r.sdb.For(ctx, tc)).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&expenseModels).Error; err != nil {
		return nil, err
	}
	expenses := make([]ledger.Expense, len(expenseModels))
	for i := range expenseModels {
		expenses[i] = *expenseModels[i].ToDomain()
	}
	return expenses, nil
}

// List returns a page of expenses and the total count
func (r *GormExpenseRepository) List(ctx context.Context, tc site.TenantContext, filter ledger.ExpenseFilter) ([]ledger.Expense, int64, error) {
	query := r.sdb.For(ctx, tc).Model(&models.ExpenseModel{})
	if filter.VendorID != nil {
		query = query.Where("vendor_id = ?", *filter.VendorID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.OnlyUnpaid {
		query = query.Where("paid_amount < amount")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var expenseModels []models.ExpenseModel
	if err := paginate(query, filter.Filter).
		Order(expenseSort.orderBy(filter.OrderBy, filter.OrderDir)).
		Find(&expenseModels).Error; err != nil {
		return nil, 0, err
	}
	expenses := make([]ledger.Expense, len(expenseModels))
	for i := range expenseModels {
		expenses[i] = *expenseModels[i].ToDomain()
	}
	return expenses, total, nil
}

// Create inserts an expense for the site
func (r *GormExpenseRepository) Create(ctx context.Context, tc site.TenantContext, e *ledger.Expense) error {
	e.SiteID = tc.SiteID
	return r.sdb.Session(ctx).Create(models.ExpenseModelFromDomain(e)).Error
}

// SavePaidState writes the recomputed paid amount and status
func (r *GormExpenseRepository) SavePaidState(ctx context.Context, tc site.TenantContext, e *ledger.Expense) error {
	res := r.sdb.For(ctx, tc).Model(&models.ExpenseModel{}).
		Where("id = ?", e.ID).
		Updates(map[string]any{
			"paid_amount": e.PaidAmount,
			"status":      e.Status,
			"updated_at":  time.Now().UTC(),
		})
	return expectOne(res, "Expense")
}

// SaveAmount writes the face amount and status
func (r *GormExpenseRepository) SaveAmount(ctx context.Context, tc site.TenantContext, e *ledger.Expense) error {
	res := r.sdb.For(ctx, tc).Model(&models.ExpenseModel{}).
		Where("id = ? AND paid_amount = 0", e.ID).
		Updates(map[string]any{
			"amount":     e.Amount,
			"status":     e.Status,
			"updated_at": time.Now().UTC(),
		})
	return expectOne(res, "Expense")
}

// Delete removes an expense of the site
func (r *GormExpenseRepository) Delete(ctx context.Context, tc site.TenantContext, id uuid.UUID) error {
	res := r.sdb.For(ctx, tc).Delete(&models.ExpenseModel{}, "id = ?", id)
	return expectOne(res, "Expense")
}

// Ensure GormExpenseRepository implements ExpenseRepository
var _ ledger.ExpenseRepository = (*GormExpenseRepository)(nil)
