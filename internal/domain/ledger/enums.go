package ledger

// AccountType classifies a chart-of-accounts line
type AccountType string

const (
	AccountTypeIncome    AccountType = "income"
	AccountTypeExpense   AccountType = "expense"
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
)

// IsValid checks if the account type is known
func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypeIncome, AccountTypeExpense, AccountTypeAsset, AccountTypeLiability:
		return true
	}
	return false
}

// ChargeType is the origin of a receivable
type ChargeType string

const (
	ChargeTypeAidat          ChargeType = "aidat"
	ChargeTypeOther          ChargeType = "other"
	ChargeTypeOpeningBalance ChargeType = "opening_balance"
	ChargeTypeTransfer       ChargeType = "transfer"
)

// IsValid checks if the charge type is known
func (t ChargeType) IsValid() bool {
	switch t {
	case ChargeTypeAidat, ChargeTypeOther, ChargeTypeOpeningBalance, ChargeTypeTransfer:
		return true
	}
	return false
}

// ChargeStatus is derived from paid amount and due date
type ChargeStatus string

const (
	ChargeStatusOpen    ChargeStatus = "open"
	ChargeStatusPaid    ChargeStatus = "paid"
	ChargeStatusOverdue ChargeStatus = "overdue"
)

// String returns the string representation of ChargeStatus
func (s ChargeStatus) String() string {
	return string(s)
}

// ExpenseStatus is derived from paid amount
type ExpenseStatus string

const (
	ExpenseStatusUnpaid  ExpenseStatus = "unpaid"
	ExpenseStatusPartial ExpenseStatus = "partial"
	ExpenseStatusPaid    ExpenseStatus = "paid"
)

// String returns the string representation of ExpenseStatus
func (s ExpenseStatus) String() string {
	return string(s)
}

// CashAccountType distinguishes physical cash from bank accounts
type CashAccountType string

const (
	CashAccountTypeCash CashAccountType = "cash"
	CashAccountTypeBank CashAccountType = "bank"
)

// IsValid checks if the cash account type is known
func (t CashAccountType) IsValid() bool {
	return t == CashAccountTypeCash || t == CashAccountTypeBank
}

// PaymentMethod is how money changed hands
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCreditCard   PaymentMethod = "credit_card"
	PaymentMethodCheck        PaymentMethod = "check"
	PaymentMethodOther        PaymentMethod = "other"
)

// IsValid checks if the payment method is known
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodCreditCard,
		PaymentMethodCheck, PaymentMethodOther:
		return true
	}
	return false
}

// TemplateScope selects which apartments a dues template bills
type TemplateScope string

const (
	TemplateScopeAll      TemplateScope = "all"
	TemplateScopeSelected TemplateScope = "selected"
)

// IsValid checks if the scope is known
func (s TemplateScope) IsValid() bool {
	return s == TemplateScopeAll || s == TemplateScopeSelected
}

// RecurrencePeriod is the cadence of an expense template
type RecurrencePeriod string

const (
	RecurrenceMonthly   RecurrencePeriod = "monthly"
	RecurrenceQuarterly RecurrencePeriod = "quarterly"
	RecurrenceYearly    RecurrencePeriod = "yearly"
)

// Months returns the cadence length in calendar months, or 0 if unknown
func (p RecurrencePeriod) Months() int {
	switch p {
	case RecurrenceMonthly:
		return 1
	case RecurrenceQuarterly:
		return 3
	case RecurrenceYearly:
		return 12
	}
	return 0
}

// IsValid checks if the period is known
func (p RecurrencePeriod) IsValid() bool {
	return p.Months() > 0
}

// RelationType is how a user relates to an apartment
type RelationType string

const (
	RelationOwner  RelationType = "owner"
	RelationTenant RelationType = "tenant"
)

// IsValid checks if the relation type is known
func (r RelationType) IsValid() bool {
	return r == RelationOwner || r == RelationTenant
}

// DocumentKind names a numbering sequence
type DocumentKind string

const (
	DocumentReceipt DocumentKind = "receipt"
	DocumentPayment DocumentKind = "payment"
)
