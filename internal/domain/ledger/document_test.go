package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sitemanager/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDocumentNumber(t *testing.T) {
	assert.Equal(t, "MKB-2025-000001", FormatDocumentNumber(DefaultReceiptPrefix, 2025, 1))
	assert.Equal(t, "ODM-2026-123456", FormatDocumentNumber(DefaultPaymentPrefix, 2026, 123456))
}

func TestNewReceipt(t *testing.T) {
	in := DocumentInput{
		CashAccountID: uuid.New(),
		Method:        PaymentMethodCash,
		PaidAt:        time.Date(2025, 3, 5, 14, 0, 0, 0, time.UTC),
	}
	c1, c2 := uuid.New(), uuid.New()

	r, err := NewReceipt(uuid.New(), uuid.New(), in, []Allocation{
		{TargetID: c1, Amount: money("500.00")},
		{TargetID: c2, Amount: money("250.50")},
	})
	require.NoError(t, err)
	assert.True(t, r.TotalAmount.Equal(money("750.50")))
	assert.Len(t, r.Items, 2)
	assert.Equal(t, r.ID, r.Items[0].ReceiptID)
	assert.Equal(t, time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC), r.PaidAt)

	_, err = NewReceipt(uuid.New(), uuid.New(), in, []Allocation{
		{TargetID: c1, Amount: money("1")},
		{TargetID: c1, Amount: money("2")},
	})
	assert.True(t, shared.IsValidation(err))

	_, err = NewReceipt(uuid.New(), uuid.New(), in, nil)
	assert.True(t, shared.IsValidation(err))

	bad := in
	bad.Method = "barter"
	_, err = NewReceipt(uuid.New(), uuid.New(), bad, []Allocation{{TargetID: c1, Amount: money("1")}})
	assert.True(t, shared.IsValidation(err))
}

func TestNewPayment(t *testing.T) {
	in := DocumentInput{CashAccountID: uuid.New(), Method: PaymentMethodBankTransfer, PaidAt: time.Now()}
	p, err := NewPayment(uuid.New(), nil, in, []Allocation{{TargetID: uuid.New(), Amount: money("2000")}})
	require.NoError(t, err)
	assert.True(t, p.TotalAmount.Equal(money("2000")))
	assert.Equal(t, p.ID, p.Items[0].PaymentID)

	_, err = NewPayment(uuid.New(), nil, in, []Allocation{{TargetID: uuid.New(), Amount: money("0")}})
	assert.True(t, shared.IsValidation(err))
}
