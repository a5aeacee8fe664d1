package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sitemanager/backend/internal/domain/ledger"
	"github.com/sitemanager/backend/internal/domain/site"
	"github.com/sitemanager/backend/internal/infrastructure/persistence"
	"github.com/sitemanager/backend/internal/infrastructure/persistence/models"
	"github.com/sitemanager/backend/tests/testutil"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// testNow is a Monday in March 2025, 09:00 UTC
var testNow = time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)

type harness struct {
	t       *testing.T
	ctx     context.Context
	db      *gorm.DB
	repos   ledger.Repositories
	scope   *persistence.GormTransactionScope
	fixture *testutil.SiteFixture
	tc      site.TenantContext
	opts    Options
	clock   *time.Time

	alloc     *AllocationService
	cash      *CashLedgerService
	templates *TemplateService
	refs      *ReferenceService
}

func newHarness(t *testing.T, apartments int) *harness {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	h := &harness{
		t:     t,
		ctx:   context.Background(),
		db:    db,
		repos: persistence.NewRepositories(db),
		scope: persistence.NewGormTransactionScope(db),
	}
	now := testNow
	h.clock = &now
	h.opts = Options{Location: time.UTC, Clock: func() time.Time { return *h.clock }}
	h.fixture = testutil.SeedSite(t, db, "Güneş Sitesi", apartments)
	h.tc = site.TenantContext{SiteID: h.fixture.SiteID, ActorID: uuid.New()}

	h.alloc = NewAllocationService(h.scope, h.repos, h.opts, nil)
	h.cash = NewCashLedgerService(h.repos, nil)
	h.templates = NewTemplateService(h.scope, h.repos, nil)
	h.refs = NewReferenceService(h.repos)
	return h
}

func (h *harness) setNow(t time.Time) {
	*h.clock = t
}

func (h *harness) money(s string) decimal.Decimal {
	return testutil.Money(h.t, s)
}

// charge creates a charge for apartment idx of the fixture
func (h *harness) charge(idx int, amount, period string, dueDay int) *ChargeDTO {
	h.t.Helper()
	p, err := parsePeriod(period)
	require.NoError(h.t, err)
	c, err := h.alloc.CreateCharge(h.ctx, h.tc, CreateChargeRequest{
		ApartmentID: h.fixture.ApartmentIDs[idx],
		AccountID:   h.fixture.AccountID,
		ChargeType:  ledger.ChargeTypeAidat,
		Period:      period,
		DueDate:     p.Day(dueDay),
		Amount:      h.money(amount),
		Description: "Aidat " + period,
	})
	require.NoError(h.t, err)
	return c
}

func (h *harness) expense(amount string, due time.Time) *ExpenseDTO {
	h.t.Helper()
	vendor := h.fixture.VendorID
	e, err := h.alloc.CreateExpense(h.ctx, h.tc, CreateExpenseRequest{
		VendorID:    &vendor,
		AccountID:   h.fixture.ExpenseAcctID,
		ExpenseDate: due,
		DueDate:     due,
		Amount:      h.money(amount),
		Description: "Temizlik",
	})
	require.NoError(h.t, err)
	return e
}

func (h *harness) collect(chargeID uuid.UUID, amount string) (*ReceiptDTO, error) {
	return h.alloc.Collect(h.ctx, h.tc, CollectRequest{
		ChargeID:      chargeID,
		CashAccountID: h.fixture.CashAccountID,
		Method:        ledger.PaymentMethodCash,
		PaidAt:        testNow,
		Amount:        h.money(amount),
	})
}

func (h *harness) pay(expenseID uuid.UUID, amount string) (*PaymentDTO, error) {
	return h.alloc.Pay(h.ctx, h.tc, PayRequest{
		ExpenseID:     expenseID,
		CashAccountID: h.fixture.CashAccountID,
		Method:        ledger.PaymentMethodBankTransfer,
		PaidAt:        testNow,
		Amount:        h.money(amount),
	})
}

func (h *harness) reloadCharge(id uuid.UUID) *ledger.Charge {
	h.t.Helper()
	c, err := h.repos.Charges().FindByID(h.ctx, h.tc, id)
	require.NoError(h.t, err)
	return c
}

func (h *harness) reloadExpense(id uuid.UUID) *ledger.Expense {
	h.t.Helper()
	e, err := h.repos.Expenses().FindByID(h.ctx, h.tc, id)
	require.NoError(h.t, err)
	return e
}

// itemSum sums receipt items of a charge straight from the table
func (h *harness) itemSum(chargeID uuid.UUID) decimal.Decimal {
	h.t.Helper()
	var items []models.ReceiptItemModel
	require.NoError(h.t, h.db.Where("charge_id = ?", chargeID).Find(&items).Error)
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.Amount)
	}
	return sum
}

func (h *harness) count(model any, where string, args ...any) int64 {
	h.t.Helper()
	var n int64
	require.NoError(h.t, h.db.Model(model).Where(where, args...).Count(&n).Error)
	return n
}

// MockRunLock is a mock implementation of shared.RunLock
type MockRunLock struct {
	mock.Mock
}

func (m *MockRunLock) TryAcquire(ctx context.Context, name string, ttl time.Duration) (func(context.Context) error, bool, error) {
	args := m.Called(ctx, name, ttl)
	release, _ := args.Get(0).(func(context.Context) error)
	return release, args.Bool(1), args.Error(2)
}
