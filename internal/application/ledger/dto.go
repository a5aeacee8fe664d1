package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sitemanager/backend/internal/domain/ledger"
	"github.com/sitemanager/backend/internal/domain/shared"
	"go.uber.org/multierr"
)

// AllocationInput assigns part of a document to one charge or expense
type AllocationInput struct {
	TargetID uuid.UUID
	Amount   decimal.Decimal
}

// CollectRequest collects money against a single charge
type CollectRequest struct {
	ChargeID      uuid.UUID
	CashAccountID uuid.UUID
	Method        ledger.PaymentMethod
	PaidAt        time.Time
	Amount        decimal.Decimal
	Description   string
}

// CollectManyRequest collects one receipt spread over several charges of
// the same apartment. A nil ApartmentID is taken from the charges.
type CollectManyRequest struct {
	ApartmentID   uuid.UUID
	CashAccountID uuid.UUID
	Method        ledger.PaymentMethod
	PaidAt        time.Time
	Description   string
	Items         []AllocationInput
}

// PayRequest pays a single expense
type PayRequest struct {
	ExpenseID     uuid.UUID
	CashAccountID uuid.UUID
	Method        ledger.PaymentMethod
	PaidAt        time.Time
	Amount        decimal.Decimal
	Description   string
}

// PayManyRequest pays several expenses of one vendor with one payment.
// A nil VendorID is taken from the expenses.
type PayManyRequest struct {
	VendorID      *uuid.UUID
	CashAccountID uuid.UUID
	Method        ledger.PaymentMethod
	PaidAt        time.Time
	Description   string
	Items         []AllocationInput
}

// CreateChargeRequest creates one charge
type CreateChargeRequest struct {
	ApartmentID uuid.UUID
	AccountID   uuid.UUID
	ChargeType  ledger.ChargeType
	Period      string
	DueDate     time.Time
	Amount      decimal.Decimal
	Description string
}

// BulkChargesRequest creates the same charge for many apartments
type BulkChargesRequest struct {
	ApartmentIDs []uuid.UUID
	AccountID    uuid.UUID
	ChargeType   ledger.ChargeType
	Period       string
	DueDate      time.Time
	Amount       decimal.Decimal
	Description  string
}

// BulkResult reports how many rows a bulk or generation step wrote
type BulkResult struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}

// CreateExpenseRequest creates one expense
type CreateExpenseRequest struct {
	VendorID    *uuid.UUID
	AccountID   uuid.UUID
	ExpenseDate time.Time
	DueDate     time.Time
	Amount      decimal.Decimal
	Description string
}

// ChargeDTO is a charge with its derived fields
type ChargeDTO struct {
	ID          uuid.UUID       `json:"id"`
	ApartmentID uuid.UUID       `json:"apartment_id"`
	AccountID   uuid.UUID       `json:"account_id"`
	ChargeType  string          `json:"charge_type"`
	Period      string          `json:"period"`
	DueDate     time.Time       `json:"due_date"`
	Amount      decimal.Decimal `json:"amount"`
	PaidAmount  decimal.Decimal `json:"paid_amount"`
	Remaining   decimal.Decimal `json:"remaining"`
	Status      string          `json:"status"`
	Description string          `json:"description,omitempty"`
	TemplateID  *uuid.UUID      `json:"template_id,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

func toChargeDTO(c *ledger.Charge) ChargeDTO {
	return ChargeDTO{
		ID:          c.ID,
		ApartmentID: c.ApartmentID,
		AccountID:   c.AccountID,
		ChargeType:  string(c.ChargeType),
		Period:      c.Period,
		DueDate:     c.DueDate,
		Amount:      c.Amount,
		PaidAmount:  c.PaidAmount,
		Remaining:   c.Remaining(),
		Status:      c.Status.String(),
		Description: c.Description,
		TemplateID:  c.TemplateID,
		CreatedAt:   c.CreatedAt,
	}
}

// ExpenseDTO is an expense with its derived fields
type ExpenseDTO struct {
	ID          uuid.UUID       `json:"id"`
	VendorID    *uuid.UUID      `json:"vendor_id,omitempty"`
	AccountID   uuid.UUID       `json:"account_id"`
	ExpenseDate time.Time       `json:"expense_date"`
	DueDate     time.Time       `json:"due_date"`
	Amount      decimal.Decimal `json:"amount"`
	PaidAmount  decimal.Decimal `json:"paid_amount"`
	Remaining   decimal.Decimal `json:"remaining"`
	Status      string          `json:"status"`
	Overdue     bool            `json:"overdue"`
	Description string          `json:"description,omitempty"`
	TemplateID  *uuid.UUID      `json:"template_id,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

func toExpenseDTO(e *ledger.Expense, today time.Time) ExpenseDTO {
	return ExpenseDTO{
		ID:          e.ID,
		VendorID:    e.VendorID,
		AccountID:   e.AccountID,
		ExpenseDate: e.ExpenseDate,
		DueDate:     e.DueDate,
		Amount:      e.Amount,
		PaidAmount:  e.PaidAmount,
		Remaining:   e.Remaining(),
		Status:      e.Status.String(),
		Overdue:     e.IsOverdue(today),
		Description: e.Description,
		TemplateID:  e.TemplateID,
		CreatedAt:   e.CreatedAt,
	}
}

// DocumentItemDTO is one allocation line of a receipt or payment
type DocumentItemDTO struct {
	TargetID uuid.UUID       `json:"target_id"`
	Amount   decimal.Decimal `json:"amount"`
}

// ReceiptDTO is a stored receipt
type ReceiptDTO struct {
	ID            uuid.UUID         `json:"id"`
	ReceiptNumber string            `json:"receipt_number"`
	ApartmentID   uuid.UUID         `json:"apartment_id"`
	CashAccountID uuid.UUID         `json:"cash_account_id"`
	Method        string            `json:"method"`
	PaidAt        time.Time         `json:"paid_at"`
	TotalAmount   decimal.Decimal   `json:"total_amount"`
	Description   string            `json:"description,omitempty"`
	CreatedBy     *uuid.UUID        `json:"created_by,omitempty"`
	Items         []DocumentItemDTO `json:"items"`
}

func toReceiptDTO(r *ledger.Receipt) *ReceiptDTO {
	dto := &ReceiptDTO{
		ID:            r.ID,
		ReceiptNumber: r.ReceiptNumber,
		ApartmentID:   r.ApartmentID,
		CashAccountID: r.CashAccountID,
		Method:        string(r.Method),
		PaidAt:        r.PaidAt,
		TotalAmount:   r.TotalAmount,
		Description:   r.Description,
		CreatedBy:     r.CreatedBy,
		Items:         make([]DocumentItemDTO, 0, len(r.Items)),
	}
	for _, item := range r.Items {
		dto.Items = append(dto.Items, DocumentItemDTO{TargetID: item.ChargeID, Amount: item.Amount})
	}
	return dto
}

// PaymentDTO is a stored payment
type PaymentDTO struct {
	ID            uuid.UUID         `json:"id"`
	PaymentNumber string            `json:"payment_number"`
	VendorID      *uuid.UUID        `json:"vendor_id,omitempty"`
	CashAccountID uuid.UUID         `json:"cash_account_id"`
	Method        string            `json:"method"`
	PaidAt        time.Time         `json:"paid_at"`
	TotalAmount   decimal.Decimal   `json:"total_amount"`
	Description   string            `json:"description,omitempty"`
	CreatedBy     *uuid.UUID        `json:"created_by,omitempty"`
	Items         []DocumentItemDTO `json:"items"`
}

func toPaymentDTO(p *ledger.Payment) *PaymentDTO {
	dto := &PaymentDTO{
		ID:            p.ID,
		PaymentNumber: p.PaymentNumber,
		VendorID:      p.VendorID,
		CashAccountID: p.CashAccountID,
		Method:        string(p.Method),
		PaidAt:        p.PaidAt,
		TotalAmount:   p.TotalAmount,
		Description:   p.Description,
		CreatedBy:     p.CreatedBy,
		Items:         make([]DocumentItemDTO, 0, len(p.Items)),
	}
	for _, item := range p.Items {
		dto.Items = append(dto.Items, DocumentItemDTO{TargetID: item.ExpenseID, Amount: item.Amount})
	}
	return dto
}

// ApartmentBalance lists an apartment's charges and what it still owes
type ApartmentBalance struct {
	ApartmentID uuid.UUID       `json:"apartment_id"`
	Label       string          `json:"label"`
	OwnerID     *uuid.UUID      `json:"owner_id,omitempty"`
	TenantID    *uuid.UUID      `json:"tenant_id,omitempty"`
	OpenBalance decimal.Decimal `json:"open_balance"`
	Charges     []ChargeDTO     `json:"charges"`
}

// Direction tells whether a statement line adds to or takes from the balance
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// StatementLine is one receipt or payment in a statement
type StatementLine struct {
	Date           time.Time       `json:"date"`
	DocumentID     uuid.UUID       `json:"document_id"`
	DocumentNumber string          `json:"document_number"`
	Description    string          `json:"description,omitempty"`
	Direction      Direction       `json:"direction"`
	Amount         decimal.Decimal `json:"amount"`
	RunningBalance decimal.Decimal `json:"running_balance"`
	createdAt      time.Time
}

// Statement is the movement of a cash account over an inclusive date range
type Statement struct {
	CashAccountID  uuid.UUID       `json:"cash_account_id"`
	From           time.Time       `json:"from"`
	To             time.Time       `json:"to"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	Lines          []StatementLine `json:"transactions"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
}

// TemplateFailure is a template that could not be expanded
type TemplateFailure struct {
	SiteID     uuid.UUID `json:"site_id"`
	TemplateID uuid.UUID `json:"template_id"`
	Name       string    `json:"name"`
	Err        error     `json:"-"`
}

// GenerationReport summarizes one generation run across all active sites
type GenerationReport struct {
	Job      string            `json:"job"`
	Period   string            `json:"period,omitempty"`
	Sites    int               `json:"sites"`
	Created  int               `json:"created"`
	Skipped  int               `json:"skipped"`
	Failures []TemplateFailure `json:"failures,omitempty"`
}

// Err combines the template failures into one fatal error, or nil
func (r *GenerationReport) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	var combined error
	for _, f := range r.Failures {
		combined = multierr.Append(combined, f.Err)
	}
	return shared.NewFatalError("GENERATION_FAILED", r.Job+": some templates failed", combined)
}

// PurgeReport lists what a site purge removed
type PurgeReport struct {
	SiteID          uuid.UUID                    `json:"site_id"`
	SiteName        string                       `json:"site_name"`
	Deleted         map[ledger.PurgeTarget]int64 `json:"deleted"`
	UsersUnassigned int64                        `json:"users_unassigned"`
}
