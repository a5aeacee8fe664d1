// Package tenant restricts GORM queries to a single site.
//
// Scoping is explicit: callers pass the site.TenantContext they act in and
// get back a *gorm.DB filtered on site_id. There are no global callbacks.
// Cross-site work (site purge) uses Unscoped and names its site in every query.
//
// Usage:
//
//	sdb := tenant.NewSiteDB(gormDB)
//	sdb.For(ctx, tc).Find(&charges) // WHERE site_id = '...'
package tenant

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sitemanager/backend/internal/domain/site"
	"gorm.io/gorm"
)

// SiteColumn is the tenant discriminator column on every scoped table
const SiteColumn = "site_id"

// ErrSiteRequired is added to the query when no site was resolved
var ErrSiteRequired = errors.New("site_id is required for scoped queries")

// SiteScope applies site filtering to GORM queries
func SiteScope(tc site.TenantContext) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if tc.SiteID == uuid.Nil {
			_ = db.AddError(ErrSiteRequired)
			return db
		}
		return db.Where(SiteColumn+" = ?", tc.SiteID)
	}
}

// QualifiedSiteScope applies site filtering on a named table, for joins
func QualifiedSiteScope(table string, tc site.TenantContext) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if tc.SiteID == uuid.Nil {
			_ = db.AddError(ErrSiteRequired)
			return db
		}
		return db.Where(table+"."+SiteColumn+" = ?", tc.SiteID)
	}
}

// SiteDB wraps GORM DB with explicit site scoping
type SiteDB struct {
	db *gorm.DB
}

// NewSiteDB creates a new SiteDB
func NewSiteDB(db *gorm.DB) *SiteDB {
	return &SiteDB{db: db}
}

// For returns a session scoped to the site of tc
func (s *SiteDB) For(ctx context.Context, tc site.TenantContext) *gorm.DB {
	return s.db.WithContext(ctx).Scopes(SiteScope(tc))
}

// Session returns an unfiltered session bound to ctx. Callers add their
// own site condition; used for inserts and joined queries.
func (s *SiteDB) Session(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// Unscoped returns the underlying DB without any site scoping.
// Only the cross-site purge path uses it.
func (s *SiteDB) Unscoped(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// DB returns the wrapped handle
func (s *SiteDB) DB() *gorm.DB {
	return s.db
}
