package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sitemanager/backend/internal/domain/shared"
	"github.com/sitemanager/backend/internal/domain/shared/valueobject"
)

// Expense is a payable owed to a vendor
type Expense struct {
	shared.SiteEntity
	VendorID    *uuid.UUID
	AccountID   uuid.UUID
	ExpenseDate time.Time
	DueDate     time.Time
	Amount      decimal.Decimal
	PaidAmount  decimal.Decimal
	Status      ExpenseStatus
	Description string
	TemplateID  *uuid.UUID
}

// NewExpense creates an unpaid expense
func NewExpense(
	siteID uuid.UUID,
	vendorID *uuid.UUID,
	accountID uuid.UUID,
	expenseDate, dueDate time.Time,
	amount decimal.Decimal,
	description string,
) (*Expense, error) {
	if accountID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_ACCOUNT", "account_id", "Account is required")
	}
	if expenseDate.IsZero() {
		return nil, shared.NewValidationError("INVALID_EXPENSE_DATE", "expense_date", "Expense date is required")
	}
	if dueDate.IsZero() {
		dueDate = expenseDate
	}
	if err := validateNewAmount("amount", amount); err != nil {
		return nil, err
	}
	e := &Expense{
		SiteEntity:  shared.NewSiteEntity(siteID),
		VendorID:    vendorID,
		AccountID:   accountID,
		ExpenseDate: valueobject.DateOnly(expenseDate),
		DueDate:     valueobject.DateOnly(dueDate),
		Amount:      amount,
		PaidAmount:  decimal.Zero,
		Description: description,
	}
	e.Status = e.DeriveStatus()
	return e, nil
}

// Remaining returns amount - paid_amount
func (e *Expense) Remaining() decimal.Decimal {
	return e.Amount.Sub(e.PaidAmount)
}

// DeriveStatus computes the status from the paid amount
func (e *Expense) DeriveStatus() ExpenseStatus {
	switch {
	case !e.Remaining().IsPositive():
		return ExpenseStatusPaid
	case e.PaidAmount.IsPositive():
		return ExpenseStatusPartial
	default:
		return ExpenseStatusUnpaid
	}
}

// IsOverdue reports whether an unsettled expense is past its due date
func (e *Expense) IsOverdue(today time.Time) bool {
	return e.Remaining().IsPositive() && e.DueDate.Before(valueobject.DateOnly(today))
}

// CheckAllocation validates paying amount against the current remaining balance
func (e *Expense) CheckAllocation(amount decimal.Decimal) error {
	return validateAllocation(amount, e.Remaining())
}

// ApplyPaidAmount stores a recomputed paid amount and refreshes the status
func (e *Expense) ApplyPaidAmount(paid decimal.Decimal) error {
	if err := validatePaidAmount(paid, e.Amount); err != nil {
		return err
	}
	e.PaidAmount = paid
	e.Status = e.DeriveStatus()
	e.Touch()
	return nil
}

// ChangeAmount updates the face amount. Locked once anything is paid.
func (e *Expense) ChangeAmount(amount decimal.Decimal) error {
	if amount.Equal(e.Amount) {
		return nil
	}
	if e.PaidAmount.IsPositive() {
		return shared.NewConflictError(CodeAmountLocked, "Amount cannot change after payments were recorded")
	}
	if err := validateNewAmount("amount", amount); err != nil {
		return err
	}
	e.Amount = amount
	e.Status = e.DeriveStatus()
	e.Touch()
	return nil
}

// CheckDeletable rejects deleting an expense with recorded payments
func (e *Expense) CheckDeletable() error {
	if e.PaidAmount.IsPositive() {
		return shared.NewConflictError(CodeHasPayments, "Cannot delete a payable with recorded payments")
	}
	return nil
}
