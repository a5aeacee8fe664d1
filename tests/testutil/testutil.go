// Package testutil provides shared helpers for the site ledger tests:
// in-memory SQLite and sqlmock databases and seeded site fixtures.
package testutil

import (
	"database/sql"
	"strconv"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sitemanager/backend/internal/domain/ledger"
	"github.com/sitemanager/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MockDB is a GORM Postgres handle over sqlmock. Pings are monitored, so
// tests that ping must expect them.
type MockDB struct {
	DB    *gorm.DB
	Mock  sqlmock.Sqlmock
	SqlDB *sql.DB
}

// NewMockDB opens a mock Postgres database that is closed on test cleanup
func NewMockDB(t *testing.T) *MockDB {
	t.Helper()

	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err, "Failed to create sqlmock")
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB, DriverName: "postgres"}), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
	})
	require.NoError(t, err, "Failed to open GORM connection")

	return &MockDB{DB: db, Mock: mock, SqlDB: sqlDB}
}

// ExpectationsWereMet fails the test on unmet database expectations
func (m *MockDB) ExpectationsWereMet(t *testing.T) {
	t.Helper()
	require.NoError(t, m.Mock.ExpectationsWereMet(), "Unmet database expectations")
}

// NewSQLiteDB opens a private in-memory SQLite database with every ledger
// table migrated. A single connection keeps the database alive and
// serializes writers.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err, "Failed to open SQLite")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...), "Failed to migrate SQLite schema")
	return db
}

// SiteFixture is a seeded site with the rows most ledger tests need
type SiteFixture struct {
	SiteID        uuid.UUID
	AccountID     uuid.UUID
	ExpenseAcctID uuid.UUID
	CashAccountID uuid.UUID
	BankAccountID uuid.UUID
	VendorID      uuid.UUID
	ApartmentIDs  []uuid.UUID
}

// SeedSite inserts an active site with an income and an expense account,
// a cash box, a bank account, one vendor and the given number of active
// apartments numbered 1..n in block A.
func SeedSite(t *testing.T, db *gorm.DB, name string, apartments int) *SiteFixture {
	t.Helper()

	now := time.Now().UTC()
	f := &SiteFixture{
		SiteID:        uuid.New(),
		AccountID:     uuid.New(),
		ExpenseAcctID: uuid.New(),
		CashAccountID: uuid.New(),
		BankAccountID: uuid.New(),
		VendorID:      uuid.New(),
	}
	base := func(id uuid.UUID) models.BaseModel {
		return models.BaseModel{ID: id, CreatedAt: now, UpdatedAt: now}
	}
	scoped := func(id uuid.UUID) models.SiteScopedModel {
		return models.SiteScopedModel{BaseModel: base(id), SiteID: f.SiteID}
	}

	rows := []any{
		&models.SiteModel{BaseModel: base(f.SiteID), Name: name, Active: true},
		&models.AccountModel{SiteScopedModel: scoped(f.AccountID), Code: "600", Name: "Aidat", Type: ledger.AccountTypeIncome, IsActive: true},
		&models.AccountModel{SiteScopedModel: scoped(f.ExpenseAcctID), Code: "770", Name: "Genel Gider", Type: ledger.AccountTypeExpense, IsActive: true},
		&models.CashAccountModel{SiteScopedModel: scoped(f.CashAccountID), Name: "Kasa", Type: ledger.CashAccountTypeCash, OpeningBalance: decimal.Zero, IsActive: true},
		&models.CashAccountModel{SiteScopedModel: scoped(f.BankAccountID), Name: "Banka", Type: ledger.CashAccountTypeBank, OpeningBalance: decimal.Zero, IsActive: true},
		&models.VendorModel{SiteScopedModel: scoped(f.VendorID), Name: "Temizlik Ltd", IsActive: true},
	}
	for i := 1; i <= apartments; i++ {
		id := uuid.New()
		f.ApartmentIDs = append(f.ApartmentIDs, id)
		rows = append(rows, &models.ApartmentModel{
			SiteScopedModel: scoped(id),
			Block:           "A",
			Number:          strconv.Itoa(i),
			Area:            decimal.Zero,
			LandShare:       decimal.Zero,
			IsActive:        true,
		})
	}
	for _, row := range rows {
		require.NoError(t, db.Create(row).Error)
	}
	return f
}

// FixedClock returns a clock function that always reports now
func FixedClock(now time.Time) func() time.Time {
	return func() time.Time { return now }
}

// Money parses a decimal literal and fails the test on bad input
func Money(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}
