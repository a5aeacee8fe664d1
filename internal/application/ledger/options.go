package ledger

import (
	"time"

	"github.com/sitemanager/backend/internal/domain/ledger"
	"github.com/sitemanager/backend/internal/domain/shared/valueobject"
)

// DefaultTimezone is the location "today" and generation periods are read in
const DefaultTimezone = "Europe/Istanbul"

// Options carries the settings shared by the ledger services
type Options struct {
	ReceiptPrefix string
	PaymentPrefix string
	Location      *time.Location
	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time
}

// DefaultOptions returns MKB/ODM numbering in Europe/Istanbul.
// Falls back to UTC if the zone database is unavailable.
func DefaultOptions() Options {
	loc, err := time.LoadLocation(DefaultTimezone)
	if err != nil {
		loc = time.UTC
	}
	return Options{
		ReceiptPrefix: ledger.DefaultReceiptPrefix,
		PaymentPrefix: ledger.DefaultPaymentPrefix,
		Location:      loc,
		Clock:         time.Now,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.ReceiptPrefix == "" {
		o.ReceiptPrefix = d.ReceiptPrefix
	}
	if o.PaymentPrefix == "" {
		o.PaymentPrefix = d.PaymentPrefix
	}
	if o.Location == nil {
		o.Location = d.Location
	}
	if o.Clock == nil {
		o.Clock = d.Clock
	}
	return o
}

// now returns the current time in the configured location
func (o Options) now() time.Time {
	return o.Clock().In(o.Location)
}

// today returns the current calendar date in the configured location
func (o Options) today() time.Time {
	return valueobject.DateOnly(o.now())
}

// MetricsRecorder receives ledger counters. Implementations must be safe
// for concurrent use.
type MetricsRecorder interface {
	RecordReceipt(siteID string, total float64)
	RecordPayment(siteID string, total float64)
	RecordGeneration(job string, created, skipped, failed int)
}

type noopMetrics struct{}

func (noopMetrics) RecordReceipt(string, float64)          {}
func (noopMetrics) RecordPayment(string, float64)          {}
func (noopMetrics) RecordGeneration(string, int, int, int) {}
