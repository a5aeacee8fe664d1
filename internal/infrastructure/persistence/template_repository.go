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

// GormTemplateRepository implements TemplateRepository using GORM
type GormTemplateRepository struct {
	sdb *tenant.SiteDB
}

// NewGormTemplateRepository creates a new GormTemplateRepository
func NewGormTemplateRepository(db *gorm.DB) *GormTemplateRepository {
	return &GormTemplateRepository{sdb: tenant.NewSiteDB(db)}
}

// CreateAidat inserts a dues template with its selected apartments
func (r *GormTemplateRepository) CreateAidat(ctx context.Context, tc site.TenantContext, t *ledger.TemplateAidat) error {
	t.SiteID = tc.SiteID
	return r.sdb.Session(ctx).Create(models.TemplateAidatModelFromDomain(t)).Error
}

// CreateExpense inserts an expense template
func (r *GormTemplateRepository) CreateExpense(ctx context.Context, tc site.TenantContext, t *ledger.TemplateExpense) error {
	t.SiteID = tc.SiteID
	return r.sdb.Session(ctx).Create(models.TemplateExpenseModelFromDomain(t)).Error
}

// ListActiveAidat returns active dues templates with their apartment sets
func (r *GormTemplateRepository) ListActiveAidat(ctx context.Context, tc site.TenantContext) ([]ledger.TemplateAidat, error) {
	var templateModels []models.TemplateAidatModel
	if err := r.sdb.For(ctx, tc).
		Preload("Apartments").
		Where("is_active = ?", true).
		Order("created_at ASC, id ASC").
		Find(&templateModels).Error; err != nil {
		return nil, err
	}
	templates := make([]ledger.TemplateAidat, len(templateModels))
	for i := range templateModels {
		templates[i] = *templateModels[i].ToDomain()
	}
	return templates, nil
}

// ListActiveExpense returns active expense templates
func (r *GormTemplateRepository) ListActiveExpense(ctx context.Context, tc site.TenantContext) ([]ledger.TemplateExpense, error) {
	var templateModels []models.TemplateExpenseModel
	if err := r.sdb.For(ctx, tc).
		Where("is_active = ?", true).
		Order("created_at ASC, id ASC").
		Find(&templateModels).Error; err != nil {
		return nil, err
	}
	templates := make([]ledger.TemplateExpense, len(templateModels))
	for i := range templateModels {
		templates[i] = *templateModels[i].ToDomain()
	}
	return templates, nil
}

// FindExpenseByID finds an expense template of the site
func (r *GormTemplateRepository) FindExpenseByID(ctx context.Context, tc site.TenantContext, id uuid.UUID) (*ledger.TemplateExpense, error) {
	var model models.TemplateExpenseModel
	if err := r.sdb.For(ctx, tc).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "Expense template")
	}
	return model.ToDomain(), nil
}

// SetAidatActive activates or deactivates a dues template
func (r *GormTemplateRepository) SetAidatActive(ctx context.Context, tc site.TenantContext, id uuid.UUID, active bool) error {
	res := r.sdb.For(ctx, tc).Model(&models.TemplateAidatModel{}).
		Where("id = ?", id).
		Updates(map[string]any{"is_active": active, "updated_at": time.Now().UTC()})
	return expectOne(res, "Dues template")
}

// SetExpenseActive activates or deactivates an expense template
func (r *GormTemplateRepository) SetExpenseActive(ctx context.Context, tc site.TenantContext, id uuid.UUID, active bool) error {
	res := r.sdb.For(ctx, tc).Model(&models.TemplateExpenseModel{}).
		Where("id = ?", id).
		Updates(map[string]any{"is_active": active, "updated_at": time.Now().UTC()})
	return expectOne(res, "Expense template")
}

// SaveAidatProgress stores the last generated period of a dues template
func (r *GormTemplateRepository) SaveAidatProgress(ctx context.Context, tc site.TenantContext, t *ledger.TemplateAidat) error {
	res := r.sdb.For(ctx, tc).Model(&models.TemplateAidatModel{}).
		Where("id = ?", t.ID).
		Updates(map[string]any{
			"last_generated_period": t.LastGeneratedPeriod,
			"updated_at":            time.Now().UTC(),
		})
	return expectOne(res, "Dues template")
}

// AdvanceExpenseWatermark moves last_generated_at with a compare-and-set
func (r *GormTemplateRepository) AdvanceExpenseWatermark(ctx context.Context, tc site.TenantContext, id uuid.UUID, prev *time.Time, next time.Time) (bool, error) {
	query := r.sdb.For(ctx, tc).Model(&models.TemplateExpenseModel{}).Where("id = ?", id)
	if prev == nil {
		query = query.Where("last_generated_at IS NULL")
	} else {
		query = query.Where("last_generated_at = ?", prev.UTC())
	}
	res := query.Updates(map[string]any{
		"last_generated_at": next.UTC().Truncate(time.Microsecond),
		"updated_at":        time.Now().UTC(),
	})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Ensure GormTemplateRepository implements TemplateRepository
var _ ledger.TemplateRepository = (*GormTemplateRepository)(nil)
