package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sitemanager/backend/internal/domain/ledger"
	"github.com/sitemanager/backend/internal/domain/shared"
	"github.com/sitemanager/backend/internal/domain/site"
	"github.com/sitemanager/backend/internal/infrastructure/persistence/models"
	"github.com/sitemanager/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocationService_Collect_PartialReceipts(t *testing.T) {
	h := newHarness(t, 1)
	c := h.charge(0, "1500.00", "2025-03", 20)

	r1, err := h.collect(c.ID, "500.00")
	require.NoError(t, err)
	r2, err := h.collect(c.ID, "700.00")
	require.NoError(t, err)

	assert.Equal(t, "MKB-2025-000001", r1.ReceiptNumber)
	assert.Equal(t, "MKB-2025-000002", r2.ReceiptNumber)
	assert.True(t, r1.TotalAmount.Equal(h.money("500")))
	assert.Equal(t, h.tc.ActorID, *r1.CreatedBy)

	stored := h.reloadCharge(c.ID)
	assert.True(t, stored.PaidAmount.Equal(h.money("1200.00")), stored.PaidAmount.String())
	assert.True(t, stored.Remaining().Equal(h.money("300.00")))
	assert.Equal(t, ledger.ChargeStatusOpen, stored.Status)
	assert.True(t, h.itemSum(c.ID).Equal(stored.PaidAmount))
}

func TestAllocationService_Collect_Boundary(t *testing.T) {
	t.Run("exact remaining marks paid", func(t *testing.T) {
		h := newHarness(t, 1)
		c := h.charge(0, "750.00", "2025-03", 20)

		_, err := h.collect(c.ID, "750.00")
		require.NoError(t, err)

		stored := h.reloadCharge(c.ID)
		assert.Equal(t, ledger.ChargeStatusPaid, stored.Status)
		assert.True(t, stored.Remaining().IsZero())
	})

	t.Run("one cent short stays open before due date", func(t *testing.T) {
		h := newHarness(t, 1)
		c := h.charge(0, "750.00", "2025-03", 20)

		_, err := h.collect(c.ID, "749.99")
		require.NoError(t, err)

		stored := h.reloadCharge(c.ID)
		assert.Equal(t, ledger.ChargeStatusOpen, stored.Status)
		assert.True(t, stored.Remaining().Equal(h.money("0.01")))
	})

	t.Run("one cent short past due date is overdue", func(t *testing.T) {
		h := newHarness(t, 1)
		c := h.charge(0, "750.00", "2025-02", 5)

		_, err := h.collect(c.ID, "749.99")
		require.NoError(t, err)

		assert.Equal(t, ledger.ChargeStatusOverdue, h.reloadCharge(c.ID).Status)
	})
}

func TestAllocationService_Collect_Rejections(t *testing.T) {
	h := newHarness(t, 2)
	c := h.charge(0, "100.00", "2025-03", 20)

	t.Run("exceeds remaining", func(t *testing.T) {
		_, err := h.collect(c.ID, "100.01")
		require.Error(t, err)
		assert.True(t, shared.IsValidation(err))
		de, _ := shared.AsDomainError(err)
		assert.Equal(t, ledger.CodeExceedsRemaining, de.Code)
	})

	t.Run("zero amount", func(t *testing.T) {
		_, err := h.collect(c.ID, "0")
		assert.True(t, shared.IsValidation(err))
	})

	t.Run("three decimals", func(t *testing.T) {
		_, err := h.collect(c.ID, "1.005")
		assert.True(t, shared.IsValidation(err))
	})

	t.Run("unknown charge", func(t *testing.T) {
		_, err := h.collect(uuid.New(), "10")
		assert.True(t, shared.IsNotFound(err))
	})

	t.Run("cash account of another site", func(t *testing.T) {
		other := testutil.SeedSite(t, h.db, "Deniz Sitesi", 1)
		_, err := h.alloc.Collect(h.ctx, h.tc, CollectRequest{
			ChargeID:      c.ID,
			CashAccountID: other.CashAccountID,
			Method:        ledger.PaymentMethodCash,
			PaidAt:        testNow,
			Amount:        h.money("10"),
		})
		assert.True(t, shared.IsNotFound(err))
	})

	t.Run("no tenant context", func(t *testing.T) {
		_, err := h.alloc.Collect(h.ctx, site.TenantContext{}, CollectRequest{ChargeID: c.ID})
		assert.ErrorIs(t, err, shared.ErrNoTenantContext)
	})

	// Nothing above may have written a receipt or advanced the counter.
	assert.Equal(t, int64(0), h.count(&models.ReceiptModel{}, "site_id = ?", h.fixture.SiteID))
	assert.True(t, h.reloadCharge(c.ID).PaidAmount.IsZero())
	r, err := h.collect(c.ID, "100.00")
	require.NoError(t, err)
	assert.Equal(t, "MKB-2025-000001", r.ReceiptNumber)
}

func TestAllocationService_CollectMany(t *testing.T) {
	h := newHarness(t, 2)
	jan := h.charge(0, "500.00", "2025-01", 15)
	feb := h.charge(0, "500.00", "2025-02", 15)
	neighbour := h.charge(1, "500.00", "2025-02", 15)

	r, err := h.alloc.CollectMany(h.ctx, h.tc, CollectManyRequest{
		CashAccountID: h.fixture.BankAccountID,
		Method:        ledger.PaymentMethodBankTransfer,
		PaidAt:        testNow,
		Items: []AllocationInput{
			{TargetID: jan.ID, Amount: h.money("500.00")},
			{TargetID: feb.ID, Amount: h.money("250.00")},
		},
	})
	require.NoError(t, err)
	assert.True(t, r.TotalAmount.Equal(h.money("750.00")))
	assert.Len(t, r.Items, 2)
	assert.Equal(t, h.fixture.ApartmentIDs[0], r.ApartmentID)
	assert.Equal(t, ledger.ChargeStatusPaid, h.reloadCharge(jan.ID).Status)
	assert.True(t, h.reloadCharge(feb.ID).PaidAmount.Equal(h.money("250.00")))

	t.Run("charges of different apartments", func(t *testing.T) {
		_, err := h.alloc.CollectMany(h.ctx, h.tc, CollectManyRequest{
			CashAccountID: h.fixture.CashAccountID,
			Method:        ledger.PaymentMethodCash,
			PaidAt:        testNow,
			Items: []AllocationInput{
				{TargetID: feb.ID, Amount: h.money("10")},
				{TargetID: neighbour.ID, Amount: h.money("10")},
			},
		})
		require.Error(t, err)
		de, ok := shared.AsDomainError(err)
		require.True(t, ok)
		assert.Equal(t, "APARTMENT_MISMATCH", de.Code)
	})

	t.Run("one item over remaining rejects the whole receipt", func(t *testing.T) {
		_, err := h.alloc.CollectMany(h.ctx, h.tc, CollectManyRequest{
			CashAccountID: h.fixture.CashAccountID,
			Method:        ledger.PaymentMethodCash,
			PaidAt:        testNow,
			Items: []AllocationInput{
				{TargetID: feb.ID, Amount: h.money("250.01")},
			},
		})
		assert.True(t, shared.IsValidation(err))
		assert.True(t, h.reloadCharge(feb.ID).PaidAmount.Equal(h.money("250.00")))
	})

	t.Run("duplicate target", func(t *testing.T) {
		_, err := h.alloc.CollectMany(h.ctx, h.tc, CollectManyRequest{
			CashAccountID: h.fixture.CashAccountID,
			Method:        ledger.PaymentMethodCash,
			PaidAt:        testNow,
			Items: []AllocationInput{
				{TargetID: feb.ID, Amount: h.money("1")},
				{TargetID: feb.ID, Amount: h.money("1")},
			},
		})
		assert.True(t, shared.IsValidation(err))
	})
}

func TestAllocationService_RecalculateCharge(t *testing.T) {
	h := newHarness(t, 1)
	c := h.charge(0, "1000.00", "2025-03", 20)
	_, err := h.collect(c.ID, "400.00")
	require.NoError(t, err)

	// Drift the cached column; recalculation restores it from items.
	require.NoError(t, h.db.Model(&models.ChargeModel{}).Where("id = ?", c.ID).
		Updates(map[string]any{"paid_amount": h.money("999.00"), "status": ledger.ChargeStatusPaid}).Error)

	first, err := h.alloc.RecalculateCharge(h.ctx, h.tc, c.ID)
	require.NoError(t, err)
	second, err := h.alloc.RecalculateCharge(h.ctx, h.tc, c.ID)
	require.NoError(t, err)

	assert.True(t, first.PaidAmount.Equal(h.money("400.00")))
	assert.True(t, second.PaidAmount.Equal(first.PaidAmount))
	assert.Equal(t, ledger.ChargeStatusOpen.String(), second.Status)
	assert.Equal(t, ledger.ChargeStatusOpen, h.reloadCharge(c.ID).Status)
}

func TestAllocationService_VoidReceipt(t *testing.T) {
	h := newHarness(t, 1)
	c := h.charge(0, "300.00", "2025-03", 20)
	r1, err := h.collect(c.ID, "100.00")
	require.NoError(t, err)
	_, err = h.collect(c.ID, "200.00")
	require.NoError(t, err)
	require.Equal(t, ledger.ChargeStatusPaid, h.reloadCharge(c.ID).Status)

	require.NoError(t, h.alloc.VoidReceipt(h.ctx, h.tc, r1.ID))

	stored := h.reloadCharge(c.ID)
	assert.True(t, stored.PaidAmount.Equal(h.money("200.00")))
	assert.Equal(t, ledger.ChargeStatusOpen, stored.Status)
	assert.True(t, h.itemSum(c.ID).Equal(stored.PaidAmount))

	// Voided numbers are not reused.
	r3, err := h.collect(c.ID, "50.00")
	require.NoError(t, err)
	assert.Equal(t, "MKB-2025-000003", r3.ReceiptNumber)

	assert.True(t, shared.IsNotFound(h.alloc.VoidReceipt(h.ctx, h.tc, r1.ID)))
}

func TestAllocationService_DeleteCharge(t *testing.T) {
	h := newHarness(t, 1)
	paid := h.charge(0, "100.00", "2025-02", 10)
	unpaid := h.charge(0, "100.00", "2025-03", 10)
	_, err := h.collect(paid.ID, "10.00")
	require.NoError(t, err)

	err = h.alloc.DeleteCharge(h.ctx, h.tc, paid.ID)
	require.Error(t, err)
	assert.True(t, shared.IsConflict(err))
	de, _ := shared.AsDomainError(err)
	assert.Equal(t, ledger.CodeHasPayments, de.Code)

	require.NoError(t, h.alloc.DeleteCharge(h.ctx, h.tc, unpaid.ID))
	assert.Equal(t, int64(0), h.count(&models.ChargeModel{}, "id = ?", unpaid.ID))
	assert.True(t, shared.IsNotFound(h.alloc.DeleteCharge(h.ctx, h.tc, unpaid.ID)))
}

func TestAllocationService_UpdateChargeAmount(t *testing.T) {
	h := newHarness(t, 1)
	c := h.charge(0, "100.00", "2025-03", 20)

	updated, err := h.alloc.UpdateChargeAmount(h.ctx, h.tc, c.ID, h.money("120.00"))
	require.NoError(t, err)
	assert.True(t, updated.Amount.Equal(h.money("120.00")))

	_, err = h.collect(c.ID, "20.00")
	require.NoError(t, err)

	_, err = h.alloc.UpdateChargeAmount(h.ctx, h.tc, c.ID, h.money("150.00"))
	require.Error(t, err)
	de, _ := shared.AsDomainError(err)
	assert.Equal(t, ledger.CodeAmountLocked, de.Code)

	// Resubmitting the stored amount is not a change.
	_, err = h.alloc.UpdateChargeAmount(h.ctx, h.tc, c.ID, h.money("120.00"))
	assert.NoError(t, err)
}

func TestAllocationService_CreateCharge_Duplicate(t *testing.T) {
	h := newHarness(t, 1)
	h.charge(0, "100.00", "2025-03", 20)

	_, err := h.alloc.CreateCharge(h.ctx, h.tc, CreateChargeRequest{
		ApartmentID: h.fixture.ApartmentIDs[0],
		AccountID:   h.fixture.AccountID,
		ChargeType:  ledger.ChargeTypeAidat,
		Period:      "2025-03",
		DueDate:     testNow,
		Amount:      h.money("100.00"),
	})
	assert.True(t, shared.IsConflict(err))

	_, err = h.alloc.CreateCharge(h.ctx, h.tc, CreateChargeRequest{
		ApartmentID: h.fixture.ApartmentIDs[0],
		AccountID:   h.fixture.AccountID,
		ChargeType:  ledger.ChargeTypeAidat,
		Period:      "2025-3",
		DueDate:     testNow,
		Amount:      h.money("100.00"),
	})
	assert.True(t, shared.IsValidation(err))
}

func TestAllocationService_CreateBulkCharges(t *testing.T) {
	h := newHarness(t, 10)
	for i := 0; i < 3; i++ {
		h.charge(i, "500.00", "2025-03", 10)
	}

	req := BulkChargesRequest{
		ApartmentIDs: h.fixture.ApartmentIDs,
		AccountID:    h.fixture.AccountID,
		ChargeType:   ledger.ChargeTypeAidat,
		Period:       "2025-03",
		DueDate:      time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC),
		Amount:       h.money("500.00"),
		Description:  "Mart aidatı",
	}
	result, err := h.alloc.CreateBulkCharges(h.ctx, h.tc, req)
	require.NoError(t, err)
	assert.Equal(t, 7, result.Created)
	assert.Equal(t, 3, result.Skipped)
	assert.Equal(t, int64(10), h.count(&models.ChargeModel{}, "site_id = ? AND period = ?", h.fixture.SiteID, "2025-03"))

	again, err := h.alloc.CreateBulkCharges(h.ctx, h.tc, req)
	require.NoError(t, err)
	assert.Equal(t, BulkResult{Created: 0, Skipped: 10}, *again)

	t.Run("invalid period", func(t *testing.T) {
		bad := req
		bad.Period = "2025-13"
		_, err := h.alloc.CreateBulkCharges(h.ctx, h.tc, bad)
		assert.True(t, shared.IsValidation(err))
	})

	t.Run("apartment of another site", func(t *testing.T) {
		other := testutil.SeedSite(t, h.db, "Deniz Sitesi", 1)
		bad := req
		bad.Period = "2025-04"
		bad.ApartmentIDs = []uuid.UUID{h.fixture.ApartmentIDs[0], other.ApartmentIDs[0]}
		_, err := h.alloc.CreateBulkCharges(h.ctx, h.tc, bad)
		assert.True(t, shared.IsNotFound(err))
		assert.Equal(t, int64(0), h.count(&models.ChargeModel{}, "period = ?", "2025-04"))
	})
}

func TestAllocationService_ApartmentBalance(t *testing.T) {
	h := newHarness(t, 1)
	feb := h.charge(0, "500.00", "2025-02", 10)
	h.charge(0, "500.00", "2025-03", 20)
	_, err := h.collect(feb.ID, "200.00")
	require.NoError(t, err)

	ownerID := uuid.New()
	start := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, h.refs.AddResident(h.ctx, h.tc, h.fixture.ApartmentIDs[0], ownerID, ledger.RelationOwner, &start, nil))

	balance, err := h.alloc.ApartmentBalance(h.ctx, h.tc, h.fixture.ApartmentIDs[0])
	require.NoError(t, err)
	assert.True(t, balance.OpenBalance.Equal(h.money("800.00")), balance.OpenBalance.String())
	require.Len(t, balance.Charges, 2)
	assert.Equal(t, "2025-02", balance.Charges[0].Period)
	assert.Equal(t, ledger.ChargeStatusOverdue.String(), balance.Charges[0].Status)
	assert.Equal(t, ledger.ChargeStatusOpen.String(), balance.Charges[1].Status)
	require.NotNil(t, balance.OwnerID)
	assert.Equal(t, ownerID, *balance.OwnerID)
	assert.Nil(t, balance.TenantID)
}

func TestAllocationService_Pay_PartialPayments(t *testing.T) {
	h := newHarness(t, 1)
	e := h.expense("5000.00", time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC))

	p1, err := h.pay(e.ID, "2000.00")
	require.NoError(t, err)
	_, err = h.pay(e.ID, "1500.00")
	require.NoError(t, err)

	assert.Equal(t, "ODM-2025-000001", p1.PaymentNumber)
	stored := h.reloadExpense(e.ID)
	assert.True(t, stored.PaidAmount.Equal(h.money("3500.00")))
	assert.Equal(t, ledger.ExpenseStatusPartial, stored.Status)

	_, err = h.pay(e.ID, "1500.01")
	assert.True(t, shared.IsValidation(err))

	_, err = h.pay(e.ID, "1500.00")
	require.NoError(t, err)
	assert.Equal(t, ledger.ExpenseStatusPaid, h.reloadExpense(e.ID).Status)
}

func TestAllocationService_PayMany_VendorMismatch(t *testing.T) {
	h := newHarness(t, 1)
	due := time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC)
	e1 := h.expense("100.00", due)
	other, err := h.refs.CreateVendor(h.ctx, h.tc, "Asansör AŞ")
	require.NoError(t, err)
	e2, err := h.alloc.CreateExpense(h.ctx, h.tc, CreateExpenseRequest{
		VendorID:    &other.ID,
		AccountID:   h.fixture.ExpenseAcctID,
		ExpenseDate: due,
		Amount:      h.money("100.00"),
	})
	require.NoError(t, err)

	_, err = h.alloc.PayMany(h.ctx, h.tc, PayManyRequest{
		CashAccountID: h.fixture.CashAccountID,
		Method:        ledger.PaymentMethodCash,
		PaidAt:        testNow,
		Items: []AllocationInput{
			{TargetID: e1.ID, Amount: h.money("100.00")},
			{TargetID: e2.ID, Amount: h.money("100.00")},
		},
	})
	require.Error(t, err)
	de, _ := shared.AsDomainError(err)
	assert.Equal(t, "VENDOR_MISMATCH", de.Code)
}

func TestAllocationService_VoidPayment_And_DeleteExpense(t *testing.T) {
	h := newHarness(t, 1)
	e := h.expense("800.00", time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC))
	p, err := h.pay(e.ID, "300.00")
	require.NoError(t, err)

	assert.True(t, shared.IsConflict(h.alloc.DeleteExpense(h.ctx, h.tc, e.ID)))
	_, err = h.alloc.UpdateExpenseAmount(h.ctx, h.tc, e.ID, h.money("900.00"))
	assert.True(t, shared.IsConflict(err))

	require.NoError(t, h.alloc.VoidPayment(h.ctx, h.tc, p.ID))
	stored := h.reloadExpense(e.ID)
	assert.True(t, stored.PaidAmount.IsZero())
	assert.Equal(t, ledger.ExpenseStatusUnpaid, stored.Status)

	recalculated, err := h.alloc.RecalculateExpense(h.ctx, h.tc, e.ID)
	require.NoError(t, err)
	assert.True(t, recalculated.PaidAmount.IsZero())

	updated, err := h.alloc.UpdateExpenseAmount(h.ctx, h.tc, e.ID, h.money("900.00"))
	require.NoError(t, err)
	assert.True(t, updated.Amount.Equal(h.money("900.00")))

	require.NoError(t, h.alloc.DeleteExpense(h.ctx, h.tc, e.ID))
	assert.Equal(t, int64(0), h.count(&models.ExpenseModel{}, "id = ?", e.ID))
}

func TestAllocationService_TenantIsolation(t *testing.T) {
	h := newHarness(t, 1)
	c := h.charge(0, "100.00", "2025-03", 20)
	other := testutil.SeedSite(t, h.db, "Deniz Sitesi", 1)
	intruder := site.TenantContext{SiteID: other.SiteID, ActorID: uuid.New()}

	_, err := h.alloc.Collect(h.ctx, intruder, CollectRequest{
		ChargeID:      c.ID,
		CashAccountID: other.CashAccountID,
		Method:        ledger.PaymentMethodCash,
		PaidAt:        testNow,
		Amount:        h.money("10"),
	})
	assert.True(t, shared.IsNotFound(err))
	assert.True(t, shared.IsNotFound(h.alloc.DeleteCharge(h.ctx, intruder, c.ID)))
	_, err = h.alloc.RecalculateCharge(h.ctx, intruder, c.ID)
	assert.True(t, shared.IsNotFound(err))
}
