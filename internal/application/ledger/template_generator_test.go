package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sitemanager/backend/internal/domain/ledger"
	"github.com/sitemanager/backend/internal/domain/shared"
	"github.com/sitemanager/backend/internal/domain/site"
	"github.com/sitemanager/backend/internal/infrastructure/persistence/models"
	"github.com/sitemanager/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func (h *harness) generator(lock shared.RunLock) *TemplateGenerator {
	return NewTemplateGenerator(h.scope, h.repos, lock, h.opts, nil)
}

func (h *harness) aidatTemplate(amount string, scope ledger.TemplateScope, apartmentIDs ...uuid.UUID) *ledger.TemplateAidat {
	h.t.Helper()
	tpl, err := h.templates.CreateAidat(h.ctx, h.tc, CreateAidatTemplateRequest{
		Name:         "Aidat",
		Amount:       h.money(amount),
		DueDay:       15,
		AccountID:    h.fixture.AccountID,
		Scope:        scope,
		ApartmentIDs: apartmentIDs,
	})
	require.NoError(h.t, err)
	return tpl
}

func (h *harness) expenseTemplate(name string, period ledger.RecurrencePeriod) *ledger.TemplateExpense {
	h.t.Helper()
	vendor := h.fixture.VendorID
	tpl, err := h.templates.CreateExpense(h.ctx, h.tc, CreateExpenseTemplateRequest{
		Name:      name,
		Amount:    h.money("1200.00"),
		DueDay:    5,
		Period:    period,
		VendorID:  &vendor,
		AccountID: h.fixture.ExpenseAcctID,
	})
	require.NoError(h.t, err)
	return tpl
}

// createdAt moves a template's creation stamp, which anchors its first interval
func (h *harness) createdAt(tpl *ledger.TemplateExpense, at time.Time) {
	h.t.Helper()
	require.NoError(h.t, h.db.Model(&models.TemplateExpenseModel{}).
		Where("id = ?", tpl.ID).Update("created_at", at.UTC()).Error)
	tpl.CreatedAt = at.UTC()
}

func TestTemplateGenerator_GenerateMonthlyCharges(t *testing.T) {
	h := newHarness(t, 3)
	tpl := h.aidatTemplate("750.00", ledger.TemplateScopeAll)
	gen := h.generator(nil)

	report, err := gen.GenerateMonthlyCharges(h.ctx, "2025-03")
	require.NoError(t, err)
	assert.Equal(t, 3, report.Created)
	assert.Equal(t, 0, report.Skipped)
	assert.Equal(t, 1, report.Sites)

	var charges []models.ChargeModel
	require.NoError(t, h.db.Where("site_id = ?", h.fixture.SiteID).Find(&charges).Error)
	require.Len(t, charges, 3)
	for _, c := range charges {
		assert.Equal(t, "2025-03", c.Period)
		assert.Equal(t, ledger.ChargeTypeAidat, c.ChargeType)
		assert.True(t, c.Amount.Equal(h.money("750.00")))
		assert.True(t, c.PaidAmount.IsZero())
		assert.Equal(t, time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC), c.DueDate.UTC())
		require.NotNil(t, c.TemplateID)
		assert.Equal(t, tpl.ID, *c.TemplateID)
	}

	var stored models.TemplateAidatModel
	require.NoError(t, h.db.First(&stored, "id = ?", tpl.ID).Error)
	assert.Equal(t, "2025-03", stored.LastGeneratedPeriod)

	again, err := gen.GenerateMonthlyCharges(h.ctx, "2025-03")
	require.NoError(t, err)
	assert.Equal(t, 0, again.Created)
	assert.Equal(t, 3, again.Skipped)
	assert.Equal(t, int64(3), h.count(&models.ChargeModel{}, "site_id = ?", h.fixture.SiteID))
}

func TestTemplateGenerator_InvalidPeriod(t *testing.T) {
	h := newHarness(t, 1)
	gen := h.generator(nil)

	for _, p := range []string{"2025-3", "2025-00", "2025-13", "25-03", "2025/03", ""} {
		_, err := gen.GenerateMonthlyCharges(h.ctx, p)
		assert.True(t, shared.IsValidation(err), p)
	}
}

func TestTemplateGenerator_SelectedScopeAndDeactivation(t *testing.T) {
	h := newHarness(t, 3)
	ids := h.fixture.ApartmentIDs
	selected := h.aidatTemplate("300.00", ledger.TemplateScopeSelected, ids[0], ids[1])
	gen := h.generator(nil)

	report, err := gen.GenerateMonthlyCharges(h.ctx, "2025-03")
	require.NoError(t, err)
	assert.Equal(t, 2, report.Created)

	// A deactivated apartment keeps its March charge but gets no April charge.
	require.NoError(t, h.refs.SetApartmentActive(h.ctx, h.tc, ids[1], false))
	report, err = gen.GenerateMonthlyCharges(h.ctx, "2025-04")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Created)
	assert.Equal(t, int64(1), h.count(&models.ChargeModel{}, "apartment_id = ? AND period = ?", ids[1], "2025-03"))
	assert.Equal(t, int64(0), h.count(&models.ChargeModel{}, "apartment_id = ? AND period = ?", ids[1], "2025-04"))
	assert.Equal(t, int64(0), h.count(&models.ChargeModel{}, "apartment_id = ?", ids[2]))

	require.NoError(t, h.templates.SetAidatActive(h.ctx, h.tc, selected.ID, false))
	report, err = gen.GenerateMonthlyCharges(h.ctx, "2025-05")
	require.NoError(t, err)
	assert.Equal(t, 0, report.Created)
	assert.Equal(t, int64(0), h.count(&models.ChargeModel{}, "period = ?", "2025-05"))
}

func TestTemplateGenerator_AllActiveSites(t *testing.T) {
	h := newHarness(t, 2)
	h.aidatTemplate("500.00", ledger.TemplateScopeAll)

	other := testutil.SeedSite(t, h.db, "Deniz Sitesi", 4)
	otherTC := site.TenantContext{SiteID: other.SiteID, ActorID: uuid.New()}
	_, err := h.templates.CreateAidat(h.ctx, otherTC, CreateAidatTemplateRequest{
		Name: "Aidat", Amount: h.money("400.00"), DueDay: 1, AccountID: other.AccountID, Scope: ledger.TemplateScopeAll,
	})
	require.NoError(t, err)

	inactive := testutil.SeedSite(t, h.db, "Kapalı Site", 2)
	require.NoError(t, h.db.Model(&models.SiteModel{}).Where("id = ?", inactive.SiteID).Update("active", false).Error)

	report, err := h.generator(nil).GenerateMonthlyCharges(h.ctx, "2025-03")
	require.NoError(t, err)
	assert.Equal(t, 2, report.Sites)
	assert.Equal(t, 6, report.Created)
	assert.Equal(t, int64(2), h.count(&models.ChargeModel{}, "site_id = ?", h.fixture.SiteID))
	assert.Equal(t, int64(4), h.count(&models.ChargeModel{}, "site_id = ?", other.SiteID))
}

func TestTemplateGenerator_FailureIsolation(t *testing.T) {
	h := newHarness(t, 2)
	good := h.aidatTemplate("500.00", ledger.TemplateScopeAll)
	broken := h.aidatTemplate("600.00", ledger.TemplateScopeAll)
	// Corrupt a stored template so its expansion fails validation.
	require.NoError(t, h.db.Model(&models.TemplateAidatModel{}).Where("id = ?", broken.ID).Update("due_day", 31).Error)

	report, err := h.generator(nil).GenerateMonthlyCharges(h.ctx, "2025-03")
	require.Error(t, err)
	assert.True(t, shared.IsFatal(err))
	require.NotNil(t, report)
	assert.Equal(t, 2, report.Created)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, broken.ID, report.Failures[0].TemplateID)
	assert.Equal(t, int64(2), h.count(&models.ChargeModel{}, "template_id = ?", good.ID))
	assert.Equal(t, int64(0), h.count(&models.ChargeModel{}, "template_id = ?", broken.ID))
}

func TestTemplateGenerator_RunLock(t *testing.T) {
	t.Run("held elsewhere is a no-op", func(t *testing.T) {
		h := newHarness(t, 2)
		h.aidatTemplate("500.00", ledger.TemplateScopeAll)
		lock := new(MockRunLock)
		lock.On("TryAcquire", mock.Anything, JobMonthlyCharges, DefaultLockTTL).Return(nil, false, nil)

		report, err := h.generator(lock).GenerateMonthlyCharges(h.ctx, "2025-03")
		assert.ErrorIs(t, err, shared.ErrRunInProgress)
		assert.Nil(t, report)
		assert.Equal(t, int64(0), h.count(&models.ChargeModel{}, "site_id = ?", h.fixture.SiteID))
		lock.AssertExpectations(t)
	})

	t.Run("released after the run", func(t *testing.T) {
		h := newHarness(t, 1)
		released := false
		release := func(context.Context) error {
			released = true
			return nil
		}
		lock := new(MockRunLock)
		lock.On("TryAcquire", mock.Anything, JobRecurringExpenses, 5*time.Minute).Return(release, true, nil)

		gen := h.generator(lock)
		gen.SetLockTTL(5 * time.Minute)
		_, err := gen.GenerateRecurringExpenses(h.ctx)
		require.NoError(t, err)
		assert.True(t, released)
		lock.AssertExpectations(t)
	})

	t.Run("lock backend failure is fatal", func(t *testing.T) {
		h := newHarness(t, 1)
		lock := new(MockRunLock)
		lock.On("TryAcquire", mock.Anything, JobMonthlyCharges, DefaultLockTTL).Return(nil, false, errors.New("connection refused"))

		_, err := h.generator(lock).GenerateMonthlyCharges(h.ctx, "2025-03")
		assert.True(t, shared.IsFatal(err))
	})
}

func TestTemplateGenerator_GenerateRecurringExpenses(t *testing.T) {
	h := newHarness(t, 1)
	monthly := h.expenseTemplate("Temizlik", ledger.RecurrenceMonthly)
	h.createdAt(monthly, time.Date(2025, time.February, 3, 8, 0, 0, 0, time.UTC))
	quarterly := h.expenseTemplate("Asansör bakım", ledger.RecurrenceQuarterly)
	h.createdAt(quarterly, time.Date(2024, time.December, 20, 8, 0, 0, 0, time.UTC))
	yearly := h.expenseTemplate("Sigorta", ledger.RecurrenceYearly)
	h.createdAt(yearly, testNow)
	gen := h.generator(nil)

	report, err := gen.GenerateRecurringExpenses(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Created)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, int64(0), h.count(&models.ExpenseModel{}, "template_id = ?", yearly.ID))

	var first models.ExpenseModel
	require.NoError(t, h.db.First(&first, "template_id = ?", monthly.ID).Error)
	assert.True(t, first.Amount.Equal(h.money("1200.00")))
	assert.Equal(t, time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC), first.DueDate.UTC())
	assert.Equal(t, h.fixture.VendorID, *first.VendorID)

	// Same month again: nothing is due.
	h.setNow(testNow.Add(10 * 24 * time.Hour))
	report, err = gen.GenerateRecurringExpenses(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Created)
	assert.Equal(t, 3, report.Skipped)

	// Next month: only the monthly one.
	h.setNow(time.Date(2025, time.April, 1, 6, 0, 0, 0, time.UTC))
	report, err = gen.GenerateRecurringExpenses(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Created)
	assert.Equal(t, int64(2), h.count(&models.ExpenseModel{}, "template_id = ?", monthly.ID))
	assert.Equal(t, int64(1), h.count(&models.ExpenseModel{}, "template_id = ?", quarterly.ID))

	// Three months after its last generation the quarterly one is due again.
	h.setNow(time.Date(2025, time.June, 1, 6, 0, 0, 0, time.UTC))
	report, err = gen.GenerateRecurringExpenses(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Created)
	assert.Equal(t, int64(2), h.count(&models.ExpenseModel{}, "template_id = ?", quarterly.ID))

	require.NoError(t, h.templates.SetExpenseActive(h.ctx, h.tc, monthly.ID, false))
	h.setNow(time.Date(2025, time.July, 1, 6, 0, 0, 0, time.UTC))
	report, err = gen.GenerateRecurringExpenses(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Created)

	// A year after creation the yearly one fires for the first time.
	h.setNow(time.Date(2026, time.March, 2, 6, 0, 0, 0, time.UTC))
	report, err = gen.GenerateRecurringExpenses(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Created)
	assert.Equal(t, int64(1), h.count(&models.ExpenseModel{}, "template_id = ?", yearly.ID))
}

func TestTemplateGenerator_RecurringExpenseFirstInterval(t *testing.T) {
	tests := []struct {
		period ledger.RecurrencePeriod
		months int
	}{
		{ledger.RecurrenceMonthly, 1},
		{ledger.RecurrenceQuarterly, 3},
		{ledger.RecurrenceYearly, 12},
	}
	for _, tt := range tests {
		t.Run(string(tt.period), func(t *testing.T) {
			h := newHarness(t, 1)
			tpl := h.expenseTemplate("Bakım", tt.period)
			h.createdAt(tpl, testNow)
			gen := h.generator(nil)

			report, err := gen.GenerateRecurringExpenses(h.ctx)
			require.NoError(t, err)
			assert.Equal(t, 0, report.Created, "no expense in the creation month")

			h.setNow(testNow.AddDate(0, tt.months-1, 0))
			report, err = gen.GenerateRecurringExpenses(h.ctx)
			require.NoError(t, err)
			assert.Equal(t, 0, report.Created, "interval has not elapsed")

			h.setNow(testNow.AddDate(0, tt.months, 0))
			report, err = gen.GenerateRecurringExpenses(h.ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, report.Created)
			assert.Equal(t, int64(1), h.count(&models.ExpenseModel{}, "template_id = ?", tpl.ID))
		})
	}
}

func TestTemplateGenerator_RecurringExpenseWatermarkRace(t *testing.T) {
	h := newHarness(t, 1)
	tpl := h.expenseTemplate("Temizlik", ledger.RecurrenceMonthly)

	// Another run already advanced the watermark after this one loaded the template.
	moved, err := h.repos.Templates().AdvanceExpenseWatermark(h.ctx, h.tc, tpl.ID, nil, testNow)
	require.NoError(t, err)
	require.True(t, moved)

	created, err := h.generator(nil).expandExpense(h.ctx, h.tc, tpl, testNow)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int64(0), h.count(&models.ExpenseModel{}, "template_id = ?", tpl.ID))
}
