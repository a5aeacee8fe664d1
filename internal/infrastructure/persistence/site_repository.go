package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sitemanager/backend/internal/domain/shared"
	"github.com/sitemanager/backend/internal/domain/site"
	"github.com/sitemanager/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormSiteRepository implements SiteRepository using GORM.
// Sites are the tenant root and are not site-scoped.
type GormSiteRepository struct {
	db *gorm.DB
}

// NewGormSiteRepository creates a new GormSiteRepository
func NewGormSiteRepository(db *gorm.DB) *GormSiteRepository {
	return &GormSiteRepository{db: db}
}

// FindByID finds a site by ID, including soft-deleted ones
func (r *GormSiteRepository) FindByID(ctx context.Context, id uuid.UUID) (*site.Site, error) {
	var model models.SiteModel
	if err := r.db.WithContext(ctx).Unscoped().First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "Site")
	}
	return model.ToDomain(), nil
}

// FindByIDOrName resolves a site by UUID or exact name, including soft-deleted ones
func (r *GormSiteRepository) FindByIDOrName(ctx context.Context, idOrName string) (*site.Site, error) {
	idOrName = strings.TrimSpace(idOrName)
	if idOrName == "" {
		return nil, shared.NewValidationError("INVALID_SITE", "site", "Site id or name is required")
	}
	if id, err := uuid.Parse(idOrName); err == nil {
		s, err := r.FindByID(ctx, id)
		if err == nil || !shared.IsNotFound(err) {
			return s, err
		}
	}

	var siteModels []models.SiteModel
	if err := r.db.WithContext(ctx).Unscoped().
		Where("name = ?", idOrName).
		Limit(2).
		Find(&siteModels).Error; err != nil {
		return nil, err
	}
	switch len(siteModels) {
	case 0:
		return nil, shared.NewNotFoundError("Site")
	case 1:
		return siteModels[0].ToDomain(), nil
	default:
		return nil, shared.NewConflictError("AMBIGUOUS_SITE", "More than one site is named "+idOrName+"; use its id")
	}
}

// ListActive returns active, non-deleted sites ordered by name
func (r *GormSiteRepository) ListActive(ctx context.Context) ([]site.Site, error) {
	var siteModels []models.SiteModel
	if err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("name ASC, id ASC").
		Find(&siteModels).Error; err != nil {
		return nil, err
	}
	sites := make([]site.Site, len(siteModels))
	for i := range siteModels {
		sites[i] = *siteModels[i].ToDomain()
	}
	return sites, nil
}

// Save inserts or updates a site
func (r *GormSiteRepository) Save(ctx context.Context, s *site.Site) error {
	return r.db.WithContext(ctx).Save(models.SiteModelFromDomain(s)).Error
}

// SaveUser inserts or updates a user's site assignment
func (r *GormSiteRepository) SaveUser(ctx context.Context, u *site.User) error {
	return r.db.WithContext(ctx).Save(models.UserModelFromDomain(u)).Error
}

// FindUser finds a user by ID
func (r *GormSiteRepository) FindUser(ctx context.Context, id uuid.UUID) (*site.User, error) {
	var model models.UserModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("User")
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Ensure GormSiteRepository implements SiteRepository
var _ site.SiteRepository = (*GormSiteRepository)(nil)
