package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sitemanager/backend/internal/domain/shared"
	"github.com/sitemanager/backend/internal/domain/shared/valueobject"
)

// Default document number prefixes
const (
	DefaultReceiptPrefix = "MKB"
	DefaultPaymentPrefix = "ODM"
)

// FormatDocumentNumber renders PREFIX-YYYY-NNNNNN
func FormatDocumentNumber(prefix string, year int, seq int64) string {
	return fmt.Sprintf("%s-%04d-%06d", prefix, year, seq)
}

// Allocation assigns part of a document total to one charge or expense
type Allocation struct {
	TargetID uuid.UUID
	Amount   decimal.Decimal
}

// ValidateAllocations checks that allocs is non-empty, targets each charge or
// expense once and carries positive two-decimal amounts.
func ValidateAllocations(allocs []Allocation) error {
	if len(allocs) == 0 {
		return shared.NewValidationError("NO_ALLOCATIONS", "items", "At least one allocation is required")
	}
	seen := make(map[uuid.UUID]struct{}, len(allocs))
	for _, a := range allocs {
		if a.TargetID == uuid.Nil {
			return shared.NewValidationError("INVALID_TARGET", "items", "Allocation target is required")
		}
		if _, dup := seen[a.TargetID]; dup {
			return shared.NewValidationError("DUPLICATE_TARGET", "items", "Each charge or expense may appear only once per document")
		}
		seen[a.TargetID] = struct{}{}
		if err := validateNewAmount("amount", a.Amount); err != nil {
			return err
		}
	}
	return nil
}

// DocumentInput holds the header fields of a receipt or payment
type DocumentInput struct {
	CashAccountID uuid.UUID
	Method        PaymentMethod
	PaidAt        time.Time
	Description   string
}

func (in DocumentInput) validate() error {
	if in.CashAccountID == uuid.Nil {
		return shared.NewValidationError("INVALID_CASH_ACCOUNT", "cash_account_id", "Cash account is required")
	}
	if !in.Method.IsValid() {
		return shared.NewValidationError("INVALID_PAYMENT_METHOD", "method", "Unknown payment method")
	}
	if in.PaidAt.IsZero() {
		return shared.NewValidationError("INVALID_PAID_AT", "paid_at", "Payment date is required")
	}
	return nil
}

// Receipt records money collected from one apartment
type Receipt struct {
	shared.SiteEntity
	ReceiptNumber string
	ApartmentID   uuid.UUID
	CashAccountID uuid.UUID
	Method        PaymentMethod
	PaidAt        time.Time
	TotalAmount   decimal.Decimal
	Description   string
	CreatedBy     *uuid.UUID
	Items         []ReceiptItem
}

// ReceiptItem allocates part of a receipt to a charge
type ReceiptItem struct {
	shared.BaseEntity
	ReceiptID uuid.UUID
	ChargeID  uuid.UUID
	Amount    decimal.Decimal
}

// NewReceipt builds an unnumbered receipt whose total is the sum of its items
func NewReceipt(siteID, apartmentID uuid.UUID, in DocumentInput, allocs []Allocation) (*Receipt, error) {
	if apartmentID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_APARTMENT", "apartment_id", "Apartment is required")
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	if err := ValidateAllocations(allocs); err != nil {
		return nil, err
	}

	r := &Receipt{
		SiteEntity:    shared.NewSiteEntity(siteID),
		ApartmentID:   apartmentID,
		CashAccountID: in.CashAccountID,
		Method:        in.Method,
		PaidAt:        valueobject.DateOnly(in.PaidAt),
		Description:   in.Description,
	}
	amounts := make([]decimal.Decimal, 0, len(allocs))
	for _, a := range allocs {
		r.Items = append(r.Items, ReceiptItem{
			BaseEntity: shared.NewBaseEntity(),
			ReceiptID:  r.ID,
			ChargeID:   a.TargetID,
			Amount:     a.Amount,
		})
		amounts = append(amounts, a.Amount)
	}
	r.TotalAmount = valueobject.SumMoney(amounts)
	return r, nil
}

// Payment records money paid out to a vendor
type Payment struct {
	shared.SiteEntity
	PaymentNumber string
	VendorID      *uuid.UUID
	CashAccountID uuid.UUID
	Method        PaymentMethod
	PaidAt        time.Time
	TotalAmount   decimal.Decimal
	Description   string
	CreatedBy     *uuid.UUID
	Items         []PaymentItem
}

// PaymentItem allocates part of a payment to an expense
type PaymentItem struct {
	shared.BaseEntity
	PaymentID uuid.UUID
	ExpenseID uuid.UUID
	Amount    decimal.Decimal
}

// NewPayment builds an unnumbered payment whose total is the sum of its items
func NewPayment(siteID uuid.UUID, vendorID *uuid.UUID, in DocumentInput, allocs []Allocation) (*Payment, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if err := ValidateAllocations(allocs); err != nil {
		return nil, err
	}

	p := &Payment{
		SiteEntity:    shared.NewSiteEntity(siteID),
		VendorID:      vendorID,
		CashAccountID: in.CashAccountID,
		Method:        in.Method,
		PaidAt:        valueobject.DateOnly(in.PaidAt),
		Description:   in.Description,
	}
	amounts := make([]decimal.Decimal, 0, len(allocs))
	for _, a := range allocs {
		p.Items = append(p.Items, PaymentItem{
			BaseEntity: shared.NewBaseEntity(),
			PaymentID:  p.ID,
			ExpenseID:  a.TargetID,
			Amount:     a.Amount,
		})
		amounts = append(amounts, a.Amount)
	}
	p.TotalAmount = valueobject.SumMoney(amounts)
	return p, nil
}
