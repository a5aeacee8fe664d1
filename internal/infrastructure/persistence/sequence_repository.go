package persistence

import (
	"context"
	"time"

	"github.com/sitemanager/backend/internal/domain/ledger"
	"github.com/sitemanager/backend/internal/domain/site"
	"github.com/sitemanager/backend/internal/infrastructure/persistence/models"
	"github.com/sitemanager/backend/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSequenceRepository hands out per-site document numbers from
// document_sequences rows locked for the rest of the transaction.
type GormSequenceRepository struct {
	sdb *tenant.SiteDB
}

// NewGormSequenceRepository creates a new GormSequenceRepository
func NewGormSequenceRepository(db *gorm.DB) *GormSequenceRepository {
	return &GormSequenceRepository{sdb: tenant.NewSiteDB(db)}
}

// Next increments and returns the counter for the site and kind
func (r *GormSequenceRepository) Next(ctx context.Context, tc site.TenantContext, kind ledger.DocumentKind) (int64, error) {
	if err := tc.Require(); err != nil {
		return 0, err
	}
	now := time.Now().UTC()

	// Seed the row; a concurrent seeder blocks on the primary key and then does nothing.
	if err := r.sdb.Session(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.DocumentSequenceModel{SiteID: tc.SiteID, Kind: kind, LastValue: 0, UpdatedAt: now}).Error; err != nil {
		return 0, err
	}

	var seq models.DocumentSequenceModel
	if err := forUpdate(r.sdb.For(ctx, tc)).
		Where("kind = ?", kind).
		First(&seq).Error; err != nil {
		return 0, err
	}

	next := seq.LastValue + 1
	if err := r.sdb.For(ctx, tc).Model(&models.DocumentSequenceModel{}).
		Where("kind = ?", kind).
		Updates(map[string]any{"last_value": next, "updated_at": now}).Error; err != nil {
		return 0, err
	}
	return next, nil
}

// Ensure GormSequenceRepository implements SequenceRepository
var _ ledger.SequenceRepository = (*GormSequenceRepository)(nil)
