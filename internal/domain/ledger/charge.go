package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sitemanager/backend/internal/domain/shared"
	"github.com/sitemanager/backend/internal/domain/shared/valueobject"
)

// Charge is a receivable owed by an apartment.
// PaidAmount is only ever set from the sum of receipt items.
type Charge struct {
	shared.SiteEntity
	ApartmentID uuid.UUID
	AccountID   uuid.UUID
	ChargeType  ChargeType
	Period      string
	DueDate     time.Time
	Amount      decimal.Decimal
	PaidAmount  decimal.Decimal
	Status      ChargeStatus
	Description string
	TemplateID  *uuid.UUID
}

// NewCharge creates an unpaid charge
func NewCharge(
	siteID, apartmentID, accountID uuid.UUID,
	chargeType ChargeType,
	period valueobject.Period,
	dueDate time.Time,
	amount decimal.Decimal,
	description string,
) (*Charge, error) {
	if apartmentID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_APARTMENT", "apartment_id", "Apartment is required")
	}
	if accountID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_ACCOUNT", "account_id", "Account is required")
	}
	if !chargeType.IsValid() {
		return nil, shared.NewValidationError("INVALID_CHARGE_TYPE", "charge_type", "Unknown charge type")
	}
	if dueDate.IsZero() {
		return nil, shared.NewValidationError("INVALID_DUE_DATE", "due_date", "Due date is required")
	}
	if err := validateNewAmount("amount", amount); err != nil {
		return nil, err
	}

	c := &Charge{
		SiteEntity:  shared.NewSiteEntity(siteID),
		ApartmentID: apartmentID,
		AccountID:   accountID,
		ChargeType:  chargeType,
		Period:      period.String(),
		DueDate:     valueobject.DateOnly(dueDate),
		Amount:      amount,
		PaidAmount:  decimal.Zero,
		Description: description,
	}
	c.Status = c.DeriveStatus(c.DueDate)
	return c, nil
}

// Remaining returns amount - paid_amount
func (c *Charge) Remaining() decimal.Decimal {
	return c.Amount.Sub(c.PaidAmount)
}

// DeriveStatus computes the status as of today (a date)
func (c *Charge) DeriveStatus(today time.Time) ChargeStatus {
	if !c.Remaining().IsPositive() {
		return ChargeStatusPaid
	}
	if c.DueDate.Before(valueobject.DateOnly(today)) {
		return ChargeStatusOverdue
	}
	return ChargeStatusOpen
}

// IsPaid reports whether nothing remains to be collected
func (c *Charge) IsPaid() bool {
	return !c.Remaining().IsPositive()
}

// CheckAllocation validates collecting amount against the current remaining balance
func (c *Charge) CheckAllocation(amount decimal.Decimal) error {
	return validateAllocation(amount, c.Remaining())
}

// ApplyPaidAmount stores a recomputed paid amount and refreshes the status.
// It fails without mutating the charge when allocations exceed the amount.
func (c *Charge) ApplyPaidAmount(paid decimal.Decimal, today time.Time) error {
	if err := validatePaidAmount(paid, c.Amount); err != nil {
		return err
	}
	c.PaidAmount = paid
	c.Status = c.DeriveStatus(today)
	c.Touch()
	return nil
}

// ChangeAmount updates the face amount. Locked once anything is collected.
func (c *Charge) ChangeAmount(amount decimal.Decimal, today time.Time) error {
	if amount.Equal(c.Amount) {
		return nil
	}
	if c.PaidAmount.IsPositive() {
		return shared.NewConflictError(CodeAmountLocked, "Amount cannot change after payments were recorded")
	}
	if err := validateNewAmount("amount", amount); err != nil {
		return err
	}
	c.Amount = amount
	c.Status = c.DeriveStatus(today)
	c.Touch()
	return nil
}

// CheckDeletable rejects deleting a charge with recorded payments
func (c *Charge) CheckDeletable() error {
	if c.PaidAmount.IsPositive() {
		return shared.NewConflictError(CodeHasPayments, "Cannot delete a receivable with recorded payments")
	}
	return nil
}

// RefreshStatus recomputes the cached status as of today
func (c *Charge) RefreshStatus(today time.Time) {
	c.Status = c.DeriveStatus(today)
}
