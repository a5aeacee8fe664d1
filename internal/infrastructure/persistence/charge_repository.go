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
	"gorm.io/gorm/clause"
)

// GormChargeRepository implements ChargeRepository using GORM
type GormChargeRepository struct {
	sdb *tenant.SiteDB
}

// NewGormChargeRepository creates a new GormChargeRepository
func NewGormChargeRepository(db *gorm.DB) *GormChargeRepository {
	return &GormChargeRepository{sdb: tenant.NewSiteDB(db)}
}

// FindByID finds a charge of the site by ID
func (r *GormChargeRepository) FindByID(ctx context.Context, tc site.TenantContext, id uuid.UUID) (*ledger.Charge, error) {
	var model models.ChargeModel
	if err := r.sdb.For(ctx, tc).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "Charge")
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds a charge and locks its row
func (r *GormChargeRepository) FindByIDForUpdate(ctx context.Context, tc site.TenantContext, id uuid.UUID) (*ledger.Charge, error) {
	var model models.ChargeModel
	if err := forUpdate(r.sdb.For(ctx, tc)).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "Charge")
	}
	return model.ToDomain(), nil
}

// FindByIDsForUpdate locks the given charges in ascending ID order so that
// concurrent multi-charge collections cannot deadlock.
func (r *GormChargeRepository) FindByIDsForUpdate(ctx context.Context, tc site.TenantContext, ids []uuid.UUID) ([]ledger.Charge, error) {
	var chargeModels []models.ChargeModel
	if err := forUpdate(r.sdb.For(ctx, tc)).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&chargeModels).Error; err != nil {
		return nil, err
	}
	charges := make([]ledger.Charge, len(chargeModels))
	for i := range chargeModels {
		charges[i] = *chargeModels[i].ToDomain()
	}
	return charges, nil
}

// List returns a page of charges and the total count
func (r *GormChargeRepository) List(ctx context.Context, tc site.TenantContext, filter ledger.ChargeFilter) ([]ledger.Charge, int64, error) {
	query := r.sdb.For(ctx, tc).Model(&models.ChargeModel{})
	if filter.ApartmentID != nil {
		query = query.Where("apartment_id = ?", *filter.ApartmentID)
	}
	if filter.Period != "" {
		query = query.Where("period = ?", filter.Period)
	}
	if filter.ChargeType != "" {
		query = query.Where("charge_type = ?", filter.ChargeType)
	}
	if filter.OnlyUnpaid {
		query = query.Where("paid_amount < amount")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var chargeModels []models.ChargeModel
	if err := paginate(query, filter.Filter).
		Order(chargeSort.orderBy(filter.OrderBy, filter.OrderDir)).
		Find(&chargeModels).Error; err != nil {
		return nil, 0, err
	}
	charges := make([]ledger.Charge, len(chargeModels))
	for i := range chargeModels {
		charges[i] = *chargeModels[i].ToDomain()
	}
	return charges, total, nil
}

// Exists reports whether a charge already occupies key
func (r *GormChargeRepository) Exists(ctx context.Context, tc site.TenantContext, key ledger.ChargeKey) (bool, error) {
	var count int64
	err := r.sdb.For(ctx, tc).Model(&models.ChargeModel{}).
		Where("apartment_id = ? AND account_id = ? AND period = ? AND charge_type = ?",
			key.ApartmentID, key.AccountID, key.Period, key.ChargeType).
		Count(&count).Error
	return count > 0, err
}

// Create inserts a charge for the site
func (r *GormChargeRepository) Create(ctx context.Context, tc site.TenantContext, c *ledger.Charge) error {
	c.SiteID = tc.SiteID
	return r.sdb.Session(ctx).Create(models.ChargeModelFromDomain(c)).Error
}

// CreateIfAbsent inserts unless the unique charge key is already taken
func (r *GormChargeRepository) CreateIfAbsent(ctx context.Context, tc site.TenantContext, c *ledger.Charge) (bool, error) {
	c.SiteID = tc.SiteID
	res := r.sdb.Session(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(models.ChargeModelFromDomain(c))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// SavePaidState writes the recomputed paid amount and status
func (r *GormChargeRepository) SavePaidState(ctx context.Context, tc site.TenantContext, c *ledger.Charge) error {
	res := r.sdb.For(ctx, tc).Model(&models.ChargeModel{}).
		Where("id = ?", c.ID).
		Updates(map[string]any{
			"paid_amount": c.PaidAmount,
			"status":      c.Status,
			"updated_at":  time.Now().UTC(),
		})
	return expectOne(res, "Charge")
}

// SaveAmount writes the face amount and status
func (r *GormChargeRepository) SaveAmount(ctx context.Context, tc site.TenantContext, c *ledger.Charge) error {
	res := r.sdb.For(ctx, tc).Model(&models.ChargeModel{}).
		Where("id = ? AND paid_amount = 0", c.ID).
		Updates(map[string]any{
			"amount":     c.Amount,
			"status":     c.Status,
			"updated_at": time.Now().UTC(),
		})
	return expectOne(res, "Charge")
}

// Delete removes a charge of the site
func (r *GormChargeRepository) Delete(ctx context.Context, tc site.TenantContext, id uuid.UUID) error {
	res := r.sdb.For(ctx, tc).Delete(&models.ChargeModel{}, "id = ?", id)
	return expectOne(res, "Charge")
}

// Ensure GormChargeRepository implements ChargeRepository
var _ ledger.ChargeRepository = (*GormChargeRepository)(nil)
