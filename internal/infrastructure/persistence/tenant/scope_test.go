package tenant

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/sitemanager/backend/internal/domain/site"
	"github.com/sitemanager/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// TestModel is a simple model for testing site scoping
type TestModel struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	SiteID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name   string    `gorm:"size:100"`
}

func (TestModel) TableName() string {
	return "test_models"
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	m := testutil.NewMockDB(t)
	return m.DB, m.Mock, m.SqlDB
}

func TestSiteScope(t *testing.T) {
	siteID := uuid.New()

	t.Run("applies site filter to query", func(t *testing.T) {
		db, mock, mockDB := setupMockDB(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "test_models" WHERE site_id = \$1`).
			WithArgs(siteID.String()).
			WillReturnRows(sqlmock.NewRows([]string{"id", "site_id", "name"}))

		var results []TestModel
		err := db.Scopes(SiteScope(site.TenantContext{SiteID: siteID})).Find(&results).Error
		require.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("errors without a site", func(t *testing.T) {
		db, _, mockDB := setupMockDB(t)
		defer mockDB.Close()

		var results []TestModel
		err := db.Scopes(SiteScope(site.TenantContext{})).Find(&results).Error
		assert.ErrorIs(t, err, ErrSiteRequired)
	})
}

func TestQualifiedSiteScope(t *testing.T) {
	db, mock, mockDB := setupMockDB(t)
	defer mockDB.Close()
	siteID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "test_models" WHERE test_models.site_id = \$1`).
		WithArgs(siteID.String()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "site_id", "name"}))

	var results []TestModel
	err := db.Table("test_models").
		Scopes(QualifiedSiteScope("test_models", site.TenantContext{SiteID: siteID})).
		Find(&results).Error
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSiteDB_For(t *testing.T) {
	db, mock, mockDB := setupMockDB(t)
	defer mockDB.Close()

	sdb := NewSiteDB(db)
	siteID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "test_models" WHERE name = \$1 AND site_id = \$2`).
		WithArgs("A-1", siteID.String()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "site_id", "name"}).AddRow(uuid.New().String(), siteID.String(), "A-1"))

	var results []TestModel
	err := sdb.For(context.Background(), site.TenantContext{SiteID: siteID}).
		Where("name = ?", "A-1").Find(&results).Error
	require.NoError(t, err)
	assert.Len(t, results, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Same(t, db, sdb.DB())
}
