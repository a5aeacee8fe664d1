package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func attributeKey(k string) attribute.Key { return attribute.Key(k) }

func TestNewLedgerMetrics_NilMeter(t *testing.T) {
	_, err := NewLedgerMetrics(nil)
	assert.ErrorIs(t, err, ErrMeterNil)
}

func TestLedgerMetrics(t *testing.T) {
	mp, reader := newManualMeter(t)
	lm, err := NewLedgerMetrics(mp.Meter(TracerName))
	require.NoError(t, err)

	lm.RecordReceipt("site-a", 150.10)
	lm.RecordReceipt("site-a", 49.90)
	lm.RecordReceipt("site-b", 10)
	lm.RecordPayment("site-a", 25.5)
	lm.RecordGeneration("charges:generate-monthly", 12, 3, 0)
	lm.RecordGeneration("expenses:generate-recurring", 1, 0, 2)

	rm := collect(t, reader)
	assert.Equal(t, int64(2), sumWhere(t, rm, "ledger_receipts_total", map[string]string{"site_id": "site-a"}))
	assert.Equal(t, int64(20000), sumWhere(t, rm, "ledger_receipts_amount_total", map[string]string{"site_id": "site-a"}))
	assert.Equal(t, int64(1000), sumWhere(t, rm, "ledger_receipts_amount_total", map[string]string{"site_id": "site-b"}))
	assert.Equal(t, int64(1), sumWhere(t, rm, "ledger_payments_total", nil))
	assert.Equal(t, int64(2550), sumWhere(t, rm, "ledger_payments_amount_total", nil))

	assert.Equal(t, int64(12), sumWhere(t, rm, "ledger_generated_rows_total",
		map[string]string{"job": "charges:generate-monthly", "result": "created"}))
	assert.Equal(t, int64(3), sumWhere(t, rm, "ledger_generated_rows_total",
		map[string]string{"job": "charges:generate-monthly", "result": "skipped"}))
	assert.Equal(t, int64(2), sumWhere(t, rm, "ledger_generation_failures_total",
		map[string]string{"job": "expenses:generate-recurring"}))
}
