package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sitemanager/backend/internal/domain/ledger"
	"github.com/sitemanager/backend/internal/domain/shared"
	"github.com/sitemanager/backend/internal/domain/site"
	"github.com/sitemanager/backend/internal/infrastructure/persistence/models"
	"github.com/sitemanager/backend/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
)

// GormCashAccountRepository implements CashAccountRepository using GORM
type GormCashAccountRepository struct {
	sdb *tenant.SiteDB
}

// NewGormCashAccountRepository creates a new GormCashAccountRepository
func NewGormCashAccountRepository(db *gorm.DB) *GormCashAccountRepository {
	return &GormCashAccountRepository{sdb: tenant.NewSiteDB(db)}
}

// FindByID finds a cash account of the site
func (r *GormCashAccountRepository) FindByID(ctx context.Context, tc site.TenantContext, id uuid.UUID) (*ledger.CashAccount, error) {
	var model models.CashAccountModel
	if err := r.sdb.For(ctx, tc).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "Cash account")
	}
	return model.ToDomain(), nil
}

// List returns the site's cash accounts ordered by name
func (r *GormCashAccountRepository) List(ctx context.Context, tc site.TenantContext) ([]ledger.CashAccount, error) {
	var accountModels []models.CashAccountModel
	if err := r.sdb.For(ctx, tc).Order("name ASC, id ASC").Find(&accountModels).Error; err != nil {
		return nil, err
	}
	accounts := make([]ledger.CashAccount, len(accountModels))
	for i := range accountModels {
		accounts[i] = *accountModels[i].ToDomain()
	}
	return accounts, nil
}

// Create inserts a cash account for the site
func (r *GormCashAccountRepository) Create(ctx context.Context, tc site.TenantContext, a *ledger.CashAccount) error {
	a.SiteID = tc.SiteID
	return r.sdb.Session(ctx).Create(models.CashAccountModelFromDomain(a)).Error
}

// GormAccountRepository implements AccountRepository using GORM
type GormAccountRepository struct {
	sdb *tenant.SiteDB
}

// NewGormAccountRepository creates a new GormAccountRepository
func NewGormAccountRepository(db *gorm.DB) *GormAccountRepository {
	return &GormAccountRepository{sdb: tenant.NewSiteDB(db)}
}

// FindByID finds an account of the site
func (r *GormAccountRepository) FindByID(ctx context.Context, tc site.TenantContext, id uuid.UUID) (*ledger.Account, error) {
	var model models.AccountModel
	if err := r.sdb.For(ctx, tc).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "Account")
	}
	return model.ToDomain(), nil
}

// Create inserts an account for the site
func (r *GormAccountRepository) Create(ctx context.Context, tc site.TenantContext, a *ledger.Account) error {
	a.SiteID = tc.SiteID
	return r.sdb.Session(ctx).Create(models.AccountModelFromDomain(a)).Error
}

// GormApartmentRepository implements ApartmentRepository using GORM
type GormApartmentRepository struct {
	sdb *tenant.SiteDB
}

// NewGormApartmentRepository creates a new GormApartmentRepository
func NewGormApartmentRepository(db *gorm.DB) *GormApartmentRepository {
	return &GormApartmentRepository{sdb: tenant.NewSiteDB(db)}
}

// FindByID finds an apartment of the site with its residents
func (r *GormApartmentRepository) FindByID(ctx context.Context, tc site.TenantContext, id uuid.UUID) (*ledger.Apartment, error) {
	var model models.ApartmentModel
	if err := r.sdb.For(ctx, tc).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "Apartment")
	}
	var residentModels []models.ApartmentResidentModel
	if err := r.sdb.Session(ctx).
		Where("apartment_id = ?", id).
		Order("start_date ASC, created_at ASC").
		Find(&residentModels).Error; err != nil {
		return nil, err
	}
	apartment := model.ToDomain()
	for i := range residentModels {
		apartment.Residents = append(apartment.Residents, residentModels[i].ToDomain())
	}
	return apartment, nil
}

// FindByIDs returns the site's apartments among ids
func (r *GormApartmentRepository) FindByIDs(ctx context.Context, tc site.TenantContext, ids []uuid.UUID) ([]ledger.Apartment, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var apartmentModels []models.ApartmentModel
	if err := r.sdb.For(ctx, tc).
		Where("id IN ?", ids).
		Order("block ASC, number ASC, id ASC").
		Find(&apartmentModels).Error; err != nil {
		return nil, err
	}
	return apartmentsToDomain(apartmentModels), nil
}

// ListActive returns the site's active apartments
func (r *GormApartmentRepository) ListActive(ctx context.Context, tc site.TenantContext) ([]ledger.Apartment, error) {
	var apartmentModels []models.ApartmentModel
	if err := r.sdb.For(ctx, tc).
		Where("is_active = ?", true).
		Order("block ASC, number ASC, id ASC").
		Find(&apartmentModels).Error; err != nil {
		return nil, err
	}
	return apartmentsToDomain(apartmentModels), nil
}

func apartmentsToDomain(apartmentModels []models.ApartmentModel) []ledger.Apartment {
	apartments := make([]ledger.Apartment, len(apartmentModels))
	for i := range apartmentModels {
		apartments[i] = *apartmentModels[i].ToDomain()
	}
	return apartments
}

// Create inserts an apartment for the site
func (r *GormApartmentRepository) Create(ctx context.Context, tc site.TenantContext, a *ledger.Apartment) error {
	a.SiteID = tc.SiteID
	return r.sdb.Session(ctx).Create(models.ApartmentModelFromDomain(a)).Error
}

// SetActive activates or deactivates an apartment
func (r *GormApartmentRepository) SetActive(ctx context.Context, tc site.TenantContext, id uuid.UUID, active bool) error {
	res := r.sdb.For(ctx, tc).Model(&models.ApartmentModel{}).
		Where("id = ?", id).
		Updates(map[string]any{"is_active": active, "updated_at": time.Now().UTC()})
	return expectOne(res, "Apartment")
}

// AddResident records an owner or tenant relation for an apartment of the site
func (r *GormApartmentRepository) AddResident(ctx context.Context, tc site.TenantContext, res ledger.Resident) error {
	if !res.RelationType.IsValid() {
		return shared.NewValidationError("INVALID_RELATION_TYPE", "relation_type", "Relation type must be owner or tenant")
	}
	var count int64
	if err := r.sdb.For(ctx, tc).Model(&models.ApartmentModel{}).Where("id = ?", res.ApartmentID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return shared.NewNotFoundError("Apartment")
	}
	return r.sdb.Session(ctx).Create(&models.ApartmentResidentModel{
		ID:           uuid.New(),
		ApartmentID:  res.ApartmentID,
		UserID:       res.UserID,
		RelationType: res.RelationType,
		StartDate:    res.StartDate,
		EndDate:      res.EndDate,
		CreatedAt:    time.Now().UTC(),
	}).Error
}

// GormVendorRepository implements VendorRepository using GORM
type GormVendorRepository struct {
	sdb *tenant.SiteDB
}

// NewGormVendorRepository creates a new GormVendorRepository
func NewGormVendorRepository(db *gorm.DB) *GormVendorRepository {
	return &GormVendorRepository{sdb: tenant.NewSiteDB(db)}
}

// FindByID finds a vendor of the site
func (r *GormVendorRepository) FindByID(ctx context.Context, tc site.TenantContext, id uuid.UUID) (*ledger.Vendor, error) {
	var model models.VendorModel
	if err := r.sdb.For(ctx, tc).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "Vendor")
	}
	return model.ToDomain(), nil
}

// Create inserts a vendor for the site
func (r *GormVendorRepository) Create(ctx context.Context, tc site.TenantContext, v *ledger.Vendor) error {
	v.SiteID = tc.SiteID
	return r.sdb.Session(ctx).Create(models.VendorModelFromDomain(v)).Error
}

var (
	_ ledger.CashAccountRepository = (*GormCashAccountRepository)(nil)
	_ ledger.AccountRepository     = (*GormAccountRepository)(nil)
	_ ledger.ApartmentRepository   = (*GormApartmentRepository)(nil)
	_ ledger.VendorRepository      = (*GormVendorRepository)(nil)
)
