package persistence

import (
	"errors"

	"github.com/sitemanager/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// forUpdate adds a row lock held until the surrounding transaction ends.
// The SQLite dialect drops the clause; its writers are serialized anyway.
func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// notFound maps gorm.ErrRecordNotFound to a domain NotFound for resource
func notFound(err error, resource string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.NewNotFoundError(resource)
	}
	return err
}

// expectOne returns NotFound when a write matched no row of the site
func expectOne(res *gorm.DB, resource string) error {
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return shared.NewNotFoundError(resource)
	}
	return nil
}

// paginate applies page and size from a filter
func paginate(query *gorm.DB, filter shared.Filter) *gorm.DB {
	return query.Offset(filter.Offset()).Limit(filter.Limit())
}
