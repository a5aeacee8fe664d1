package telemetry

import (
	"context"
	"errors"
	"math"

	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when no meter is supplied.
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// LedgerMetrics counts money movements and generation runs.
// Amounts are recorded in kuruş so the counters stay integral.
type LedgerMetrics struct {
	receiptsTotal    metric.Int64Counter
	receiptsAmount   metric.Int64Counter
	paymentsTotal    metric.Int64Counter
	paymentsAmount   metric.Int64Counter
	generatedRows    metric.Int64Counter
	generationFailed metric.Int64Counter
}

// NewLedgerMetrics registers the ledger instruments on meter.
func NewLedgerMetrics(meter metric.Meter) (*LedgerMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	in := NewInstruments(meter)
	lm := &LedgerMetrics{
		receiptsTotal:    in.Counter("ledger_receipts_total", "Receipts recorded", "{receipts}"),
		receiptsAmount:   in.Counter("ledger_receipts_amount_total", "Money collected in kuruş", "{kurus}"),
		paymentsTotal:    in.Counter("ledger_payments_total", "Payments recorded", "{payments}"),
		paymentsAmount:   in.Counter("ledger_payments_amount_total", "Money paid out in kuruş", "{kurus}"),
		generatedRows:    in.Counter("ledger_generated_rows_total", "Charges or expenses handled by generation runs", "{rows}"),
		generationFailed: in.Counter("ledger_generation_failures_total", "Templates that failed to expand", "{templates}"),
	}
	if err := in.Err(); err != nil {
		return nil, err
	}
	return lm, nil
}

// RecordReceipt counts one receipt of total lira for siteID.
func (lm *LedgerMetrics) RecordReceipt(siteID string, total float64) {
	ctx := context.Background()
	site := metric.WithAttributes(AttrSiteID.String(siteID))
	lm.receiptsTotal.Add(ctx, 1, site)
	lm.receiptsAmount.Add(ctx, toKurus(total), site)
}

// RecordPayment counts one payment of total lira for siteID.
func (lm *LedgerMetrics) RecordPayment(siteID string, total float64) {
	ctx := context.Background()
	site := metric.WithAttributes(AttrSiteID.String(siteID))
	lm.paymentsTotal.Add(ctx, 1, site)
	lm.paymentsAmount.Add(ctx, toKurus(total), site)
}

// RecordGeneration counts the outcome of one generation run.
func (lm *LedgerMetrics) RecordGeneration(job string, created, skipped, failed int) {
	ctx := context.Background()
	lm.generatedRows.Add(ctx, int64(created), metric.WithAttributes(AttrJob.String(job), AttrResult.String("created")))
	lm.generatedRows.Add(ctx, int64(skipped), metric.WithAttributes(AttrJob.String(job), AttrResult.String("skipped")))
	if failed > 0 {
		lm.generationFailed.Add(ctx, int64(failed), metric.WithAttributes(AttrJob.String(job)))
	}
}

func toKurus(lira float64) int64 {
	return int64(math.Round(lira * 100))
}
