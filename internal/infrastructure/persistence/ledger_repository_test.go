package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sitemanager/backend/internal/domain/ledger"
	"github.com/sitemanager/backend/internal/domain/shared"
	"github.com/sitemanager/backend/internal/domain/shared/valueobject"
	"github.com/sitemanager/backend/internal/domain/site"
	"github.com/sitemanager/backend/internal/infrastructure/persistence/models"
	"github.com/sitemanager/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var jan2024 = valueobject.Period{Year: 2024, Month: time.January}

func newCharge(t *testing.T, f *testutil.SiteFixture, apartment int, amount string) *ledger.Charge {
	t.Helper()
	c, err := ledger.NewCharge(f.SiteID, f.ApartmentIDs[apartment], f.AccountID, ledger.ChargeTypeAidat,
		jan2024, jan2024.Day(15), testutil.Money(t, amount), "Ocak aidatı")
	require.NoError(t, err)
	return c
}

func countRows(t *testing.T, db *gorm.DB, model any, siteID uuid.UUID) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Where("site_id = ?", siteID).Count(&n).Error)
	return n
}

func TestGormChargeRepository_CreateIfAbsent(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	f := testutil.SeedSite(t, db, "Gül Sitesi", 1)
	repo := NewGormChargeRepository(db)
	ctx := context.Background()
	tc := site.SystemContext(f.SiteID)

	created, err := repo.CreateIfAbsent(ctx, tc, newCharge(t, f, 0, "500"))
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.CreateIfAbsent(ctx, tc, newCharge(t, f, 0, "500"))
	require.NoError(t, err)
	assert.False(t, created, "same apartment, account, period and type must not be inserted twice")

	exists, err := repo.Exists(ctx, tc, ledger.ChargeKey{
		ApartmentID: f.ApartmentIDs[0], AccountID: f.AccountID, Period: "2024-01", ChargeType: ledger.ChargeTypeAidat,
	})
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, int64(1), countRows(t, db, &models.ChargeModel{}, f.SiteID))
}

func TestGormChargeRepository_TenantIsolation(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	a := testutil.SeedSite(t, db, "A", 1)
	b := testutil.SeedSite(t, db, "B", 1)
	repo := NewGormChargeRepository(db)
	ctx := context.Background()

	charge := newCharge(t, a, 0, "500")
	require.NoError(t, repo.Create(ctx, site.SystemContext(a.SiteID), charge))

	_, err := repo.FindByID(ctx, site.SystemContext(b.SiteID), charge.ID)
	assert.True(t, shared.IsNotFound(err))

	err = repo.Delete(ctx, site.SystemContext(b.SiteID), charge.ID)
	assert.True(t, shared.IsNotFound(err))

	_, err = repo.FindByID(ctx, site.TenantContext{}, charge.ID)
	assert.Error(t, err)

	found, err := repo.FindByIDForUpdate(ctx, site.SystemContext(a.SiteID), charge.ID)
	require.NoError(t, err)
	assert.True(t, found.Amount.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, "2024-01", found.Period)
}

func TestGormChargeRepository_PaidStateAndAmount(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	f := testutil.SeedSite(t, db, "Gül Sitesi", 2)
	repo := NewGormChargeRepository(db)
	ctx := context.Background()
	tc := site.SystemContext(f.SiteID)
	today := jan2024.Day(10)

	paid := newCharge(t, f, 0, "500")
	open := newCharge(t, f, 1, "500")
	require.NoError(t, repo.Create(ctx, tc, paid))
	require.NoError(t, repo.Create(ctx, tc, open))

	require.NoError(t, paid.ApplyPaidAmount(testutil.Money(t, "200"), today))
	require.NoError(t, repo.SavePaidState(ctx, tc, paid))

	reloaded, err := repo.FindByID(ctx, tc, paid.ID)
	require.NoError(t, err)
	assert.Equal(t, "200.00", reloaded.PaidAmount.StringFixed(2))

	paid.Amount = testutil.Money(t, "600")
	err = repo.SaveAmount(ctx, tc, paid)
	assert.True(t, shared.IsNotFound(err), "amount of a partially paid charge is locked")

	open.Amount = testutil.Money(t, "650")
	require.NoError(t, repo.SaveAmount(ctx, tc, open))

	unpaid, total, err := repo.List(ctx, tc, ledger.ChargeFilter{Filter: shared.DefaultFilter(), OnlyUnpaid: true})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, unpaid, 2)

	locked, err := repo.FindByIDsForUpdate(ctx, tc, []uuid.UUID{open.ID, paid.ID})
	require.NoError(t, err)
	require.Len(t, locked, 2)
	assert.True(t, locked[0].ID.String() < locked[1].ID.String())
}

func TestGormReceiptRepository_ItemsAndListing(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	f := testutil.SeedSite(t, db, "Gül Sitesi", 1)
	other := testutil.SeedSite(t, db, "Lale Sitesi", 1)
	charges := NewGormChargeRepository(db)
	receipts := NewGormReceiptRepository(db)
	ctx := context.Background()
	tc := site.SystemContext(f.SiteID)

	charge := newCharge(t, f, 0, "500")
	require.NoError(t, charges.Create(ctx, tc, charge))

	in := ledger.DocumentInput{CashAccountID: f.CashAccountID, Method: ledger.PaymentMethodCash, PaidAt: jan2024.Day(5)}
	first, err := ledger.NewReceipt(f.SiteID, f.ApartmentIDs[0], in, []ledger.Allocation{{TargetID: charge.ID, Amount: testutil.Money(t, "200")}})
	require.NoError(t, err)
	first.ReceiptNumber = "MKB-2024-000001"
	require.NoError(t, receipts.Create(ctx, tc, first))

	in.PaidAt = jan2024.Day(6)
	second, err := ledger.NewReceipt(f.SiteID, f.ApartmentIDs[0], in, []ledger.Allocation{{TargetID: charge.ID, Amount: testutil.Money(t, "300")}})
	require.NoError(t, err)
	second.ReceiptNumber = "MKB-2024-000002"
	require.NoError(t, receipts.Create(ctx, tc, second))

	amounts, err := receipts.ItemAmountsForCharge(ctx, tc, charge.ID)
	require.NoError(t, err)
	assert.Equal(t, "500.00", valueobject.SumMoney(amounts).StringFixed(2))

	amounts, err = receipts.ItemAmountsForCharge(ctx, site.SystemContext(other.SiteID), charge.ID)
	require.NoError(t, err)
	assert.Empty(t, amounts)

	found, err := receipts.FindByID(ctx, tc, first.ID)
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	assert.Equal(t, charge.ID, found.Items[0].ChargeID)

	to := jan2024.Day(5)
	listed, err := receipts.ListByCashAccount(ctx, tc, f.CashAccountID, ledger.DocumentQuery{To: &to})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "MKB-2024-000001", listed[0].ReceiptNumber)

	require.NoError(t, receipts.Delete(ctx, tc, first.ID))
	amounts, err = receipts.ItemAmountsForCharge(ctx, tc, charge.ID)
	require.NoError(t, err)
	assert.Equal(t, "300.00", valueobject.SumMoney(amounts).StringFixed(2))

	assert.True(t, shared.IsNotFound(receipts.Delete(ctx, site.SystemContext(other.SiteID), second.ID)))
}

func TestGormSequenceRepository_Next(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	a := testutil.SeedSite(t, db, "A", 0)
	b := testutil.SeedSite(t, db, "B", 0)
	repo := NewGormSequenceRepository(db)
	ctx := context.Background()

	next := func(siteID uuid.UUID, kind ledger.DocumentKind) int64 {
		n, err := repo.Next(ctx, site.SystemContext(siteID), kind)
		require.NoError(t, err)
		return n
	}

	assert.Equal(t, int64(1), next(a.SiteID, ledger.DocumentReceipt))
	assert.Equal(t, int64(2), next(a.SiteID, ledger.DocumentReceipt))
	assert.Equal(t, int64(1), next(a.SiteID, ledger.DocumentPayment))
	assert.Equal(t, int64(1), next(b.SiteID, ledger.DocumentReceipt))
	assert.Equal(t, int64(3), next(a.SiteID, ledger.DocumentReceipt))

	_, err := repo.Next(ctx, site.TenantContext{}, ledger.DocumentReceipt)
	assert.ErrorIs(t, err, shared.ErrNoTenantContext)
}

func TestGormTemplateRepository(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	f := testutil.SeedSite(t, db, "Gül Sitesi", 3)
	repo := NewGormTemplateRepository(db)
	ctx := context.Background()
	tc := site.SystemContext(f.SiteID)

	t.Run("selected apartments round-trip", func(t *testing.T) {
		tpl, err := ledger.NewTemplateAidat(f.SiteID, "Aidat", testutil.Money(t, "750"), 10, f.AccountID,
			ledger.TemplateScopeSelected, f.ApartmentIDs[:2])
		require.NoError(t, err)
		require.NoError(t, repo.CreateAidat(ctx, tc, tpl))

		active, err := repo.ListActiveAidat(ctx, tc)
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.ElementsMatch(t, f.ApartmentIDs[:2], active[0].ApartmentIDs)

		tpl.MarkGenerated(jan2024)
		require.NoError(t, repo.SaveAidatProgress(ctx, tc, tpl))
		require.NoError(t, repo.SetAidatActive(ctx, tc, tpl.ID, false))

		active, err = repo.ListActiveAidat(ctx, tc)
		require.NoError(t, err)
		assert.Empty(t, active)
	})

	t.Run("expense watermark is compare-and-set", func(t *testing.T) {
		tpl, err := ledger.NewTemplateExpense(f.SiteID, "Temizlik", testutil.Money(t, "1200"), 5,
			ledger.RecurrenceMonthly, &f.VendorID, f.ExpenseAcctID)
		require.NoError(t, err)
		require.NoError(t, repo.CreateExpense(ctx, tc, tpl))

		first := time.Date(2024, 1, 1, 3, 0, 0, 0, time.UTC)
		ok, err := repo.AdvanceExpenseWatermark(ctx, tc, tpl.ID, nil, first)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.AdvanceExpenseWatermark(ctx, tc, tpl.ID, nil, first)
		require.NoError(t, err)
		assert.False(t, ok, "a second run starting from the old watermark loses")

		stored, err := repo.FindExpenseByID(ctx, tc, tpl.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.LastGeneratedAt)
		assert.True(t, stored.LastGeneratedAt.Equal(first))

		ok, err = repo.AdvanceExpenseWatermark(ctx, tc, tpl.ID, stored.LastGeneratedAt, first.AddDate(0, 1, 0))
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestGormSiteRepository_FindByIDOrName(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	f := testutil.SeedSite(t, db, "Gül Sitesi", 0)
	testutil.SeedSite(t, db, "Çınar", 0)
	testutil.SeedSite(t, db, "Çınar", 0)
	repo := NewGormSiteRepository(db)
	ctx := context.Background()

	byID, err := repo.FindByIDOrName(ctx, f.SiteID.String())
	require.NoError(t, err)
	assert.Equal(t, "Gül Sitesi", byID.Name)

	byName, err := repo.FindByIDOrName(ctx, "  Gül Sitesi ")
	require.NoError(t, err)
	assert.Equal(t, f.SiteID, byName.ID)

	_, err = repo.FindByIDOrName(ctx, "Çınar")
	assert.True(t, shared.IsConflict(err))

	_, err = repo.FindByIDOrName(ctx, "missing")
	assert.True(t, shared.IsNotFound(err))

	require.NoError(t, db.Delete(&models.SiteModel{}, "id = ?", f.SiteID).Error)
	deleted, err := repo.FindByIDOrName(ctx, "Gül Sitesi")
	require.NoError(t, err, "soft-deleted sites stay resolvable")
	assert.True(t, deleted.IsDeleted())

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 2)
}

func TestGormPurgeRepository_RemovesOnlyTargetSite(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	a := testutil.SeedSite(t, db, "A", 2)
	b := testutil.SeedSite(t, db, "B", 2)
	ctx := context.Background()

	for _, f := range []*testutil.SiteFixture{a, b} {
		tc := site.SystemContext(f.SiteID)
		charge := newCharge(t, f, 0, "500")
		require.NoError(t, NewGormChargeRepository(db).Create(ctx, tc, charge))
		receipt, err := ledger.NewReceipt(f.SiteID, f.ApartmentIDs[0],
			ledger.DocumentInput{CashAccountID: f.CashAccountID, Method: ledger.PaymentMethodCash, PaidAt: jan2024.Day(3)},
			[]ledger.Allocation{{TargetID: charge.ID, Amount: testutil.Money(t, "500")}})
		require.NoError(t, err)
		receipt.ReceiptNumber = "MKB-2024-000001"
		require.NoError(t, NewGormReceiptRepository(db).Create(ctx, tc, receipt))
		tpl, err := ledger.NewTemplateAidat(f.SiteID, "Aidat", testutil.Money(t, "500"), 1, f.AccountID,
			ledger.TemplateScopeSelected, f.ApartmentIDs)
		require.NoError(t, err)
		require.NoError(t, NewGormTemplateRepository(db).CreateAidat(ctx, tc, tpl))
		_, err = NewGormSequenceRepository(db).Next(ctx, tc, ledger.DocumentReceipt)
		require.NoError(t, err)
		siteID := f.SiteID
		require.NoError(t, db.Create(models.UserModelFromDomain(&site.User{
			BaseEntity: shared.NewBaseEntity(), Name: "Yönetici", Email: f.SiteID.String() + "@example.com", SiteID: &siteID,
		})).Error)
	}

	err := NewGormTransactionScope(db).Execute(ctx, func(repos ledger.Repositories) error {
		purge := repos.Purge()
		for _, target := range []ledger.PurgeTarget{
			ledger.PurgeReceiptItems, ledger.PurgeReceipts, ledger.PurgePaymentItems, ledger.PurgePayments,
			ledger.PurgeCharges, ledger.PurgeExpenses, ledger.PurgeTemplateAidatUnits, ledger.PurgeTemplateAidat,
			ledger.PurgeTemplateExpenses, ledger.PurgeApartmentResidents, ledger.PurgeApartments,
			ledger.PurgeCashAccounts, ledger.PurgeAccounts, ledger.PurgeVendors, ledger.PurgeDocumentSequences,
		} {
			if _, err := purge.DeleteAll(ctx, target, a.SiteID); err != nil {
				return err
			}
		}
		if _, err := purge.UnassignUsers(ctx, a.SiteID); err != nil {
			return err
		}
		n, err := purge.DeleteSite(ctx, a.SiteID)
		assert.Equal(t, int64(1), n)
		return err
	})
	require.NoError(t, err)

	for _, model := range []any{&models.ChargeModel{}, &models.ReceiptModel{}, &models.ApartmentModel{},
		&models.TemplateAidatModel{}, &models.DocumentSequenceModel{}, &models.UserModel{}} {
		assert.Zero(t, countRows(t, db, model, a.SiteID))
		assert.NotZero(t, countRows(t, db, model, b.SiteID))
	}

	var items int64
	require.NoError(t, db.Model(&models.ReceiptItemModel{}).Count(&items).Error)
	assert.Equal(t, int64(1), items)
	var pivots int64
	require.NoError(t, db.Model(&models.TemplateAidatApartmentModel{}).Count(&pivots).Error)
	assert.Equal(t, int64(2), pivots)

	var sites int64
	require.NoError(t, db.Unscoped().Model(&models.SiteModel{}).Where("id = ?", a.SiteID).Count(&sites).Error)
	assert.Zero(t, sites)

	_, err = NewGormPurgeRepository(db).DeleteAll(ctx, ledger.PurgeTarget("users"), b.SiteID)
	assert.Error(t, err)
}
