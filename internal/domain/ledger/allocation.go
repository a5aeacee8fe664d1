package ledger

import (
	"github.com/shopspring/decimal"
	"github.com/sitemanager/backend/internal/domain/shared"
	"github.com/sitemanager/backend/internal/domain/shared/valueobject"
)

// Error codes shared by receivables and payables
const (
	CodeInvalidAmount    = "INVALID_AMOUNT"
	CodeExceedsRemaining = "EXCEEDS_REMAINING"
	CodeOverallocated    = "OVERALLOCATED"
	CodeHasPayments      = "HAS_PAYMENTS"
	CodeAmountLocked     = "AMOUNT_LOCKED"
)

// validateNewAmount checks a face amount for a charge, expense or template
func validateNewAmount(field string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return shared.NewValidationError(CodeInvalidAmount, field, "Amount must be greater than zero")
	}
	if !valueobject.HasMoneyScale(amount) {
		return shared.NewValidationError(CodeInvalidAmount, field, "Amount cannot have more than two decimal places")
	}
	return nil
}

// validateAllocation checks an allocation against the remaining balance
func validateAllocation(amount, remaining decimal.Decimal) error {
	if err := validateNewAmount("amount", amount); err != nil {
		return err
	}
	if amount.GreaterThan(remaining) {
		return shared.NewValidationError(CodeExceedsRemaining, "amount",
			"Amount exceeds remaining balance of "+valueobject.FormatMoney(remaining))
	}
	return nil
}

// validatePaidAmount enforces 0 <= paid <= amount
func validatePaidAmount(paid, amount decimal.Decimal) error {
	if paid.IsNegative() {
		return shared.NewConflictError(CodeOverallocated, "Paid amount cannot be negative")
	}
	if paid.GreaterThan(amount) {
		return shared.NewConflictError(CodeOverallocated,
			"Allocations total "+valueobject.FormatMoney(paid)+" exceeding amount "+valueobject.FormatMoney(amount))
	}
	return nil
}
