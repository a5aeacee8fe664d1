package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	app "github.com/sitemanager/backend/internal/application/ledger"
	"github.com/sitemanager/backend/internal/domain/ledger"
	"github.com/sitemanager/backend/internal/domain/shared"
	"github.com/sitemanager/backend/internal/domain/shared/valueobject"
)

// DateLayout is the wire format of every calendar date
const DateLayout = "2006-01-02"

// Amounts travel as decimal strings ("1250.50") so no float rounding
// happens before they reach the ledger.

// AllocationBody assigns part of a document to one charge or expense
type AllocationBody struct {
	TargetID string `json:"target_id" binding:"required,uuid"`
	Amount   string `json:"amount" binding:"required"`
}

// CollectBody collects money against one charge
type CollectBody struct {
	ChargeID      string `json:"charge_id" binding:"required,uuid"`
	CashAccountID string `json:"cash_account_id" binding:"required,uuid"`
	Method        string `json:"method" binding:"required"`
	PaidAt        string `json:"paid_at" binding:"required"`
	Amount        string `json:"amount" binding:"required"`
	Description   string `json:"description" binding:"max=500"`
}

// ToRequest converts the body into the service request
func (b CollectBody) ToRequest() (app.CollectRequest, error) {
	var (
		req  app.CollectRequest
		errs parseErrors
	)
	req.ChargeID = errs.uuid("charge_id", b.ChargeID)
	req.CashAccountID = errs.uuid("cash_account_id", b.CashAccountID)
	req.PaidAt = errs.date("paid_at", b.PaidAt)
	req.Amount = errs.amount("amount", b.Amount)
	req.Method = ledger.PaymentMethod(b.Method)
	req.Description = strings.TrimSpace(b.Description)
	return req, errs.first()
}

// CollectManyBody collects one receipt over several charges of an apartment
type CollectManyBody struct {
	ApartmentID   string           `json:"apartment_id" binding:"omitempty,uuid"`
	CashAccountID string           `json:"cash_account_id" binding:"required,uuid"`
	Method        string           `json:"method" binding:"required"`
	PaidAt        string           `json:"paid_at" binding:"required"`
	Description   string           `json:"description" binding:"max=500"`
	Items         []AllocationBody `json:"items" binding:"required,min=1,dive"`
}

// ToRequest converts the body into the service request
func (b CollectManyBody) ToRequest() (app.CollectManyRequest, error) {
	var (
		req  app.CollectManyRequest
		errs parseErrors
	)
	if b.ApartmentID != "" {
		req.ApartmentID = errs.uuid("apartment_id", b.ApartmentID)
	}
	req.CashAccountID = errs.uuid("cash_account_id", b.CashAccountID)
	req.PaidAt = errs.date("paid_at", b.PaidAt)
	req.Method = ledger.PaymentMethod(b.Method)
	req.Description = strings.TrimSpace(b.Description)
	req.Items = errs.items(b.Items)
	return req, errs.first()
}

// PayBody pays one expense
type PayBody struct {
	ExpenseID     string `json:"expense_id" binding:"required,uuid"`
	CashAccountID string `json:"cash_account_id" binding:"required,uuid"`
	Method        string `json:"method" binding:"required"`
	PaidAt        string `json:"paid_at" binding:"required"`
	Amount        string `json:"amount" binding:"required"`
	Description   string `json:"description" binding:"max=500"`
}

// ToRequest converts the body into the service request
func (b PayBody) ToRequest() (app.PayRequest, error) {
	var (
		req  app.PayRequest
		errs parseErrors
	)
	req.ExpenseID = errs.uuid("expense_id", b.ExpenseID)
	req.CashAccountID = errs.uuid("cash_account_id", b.CashAccountID)
	req.PaidAt = errs.date("paid_at", b.PaidAt)
	req.Amount = errs.amount("amount", b.Amount)
	req.Method = ledger.PaymentMethod(b.Method)
	req.Description = strings.TrimSpace(b.Description)
	return req, errs.first()
}

// PayManyBody pays several expenses of one vendor
type PayManyBody struct {
	VendorID      string           `json:"vendor_id" binding:"omitempty,uuid"`
	CashAccountID string           `json:"cash_account_id" binding:"required,uuid"`
	Method        string           `json:"method" binding:"required"`
	PaidAt        string           `json:"paid_at" binding:"required"`
	Description   string           `json:"description" binding:"max=500"`
	Items         []AllocationBody `json:"items" binding:"required,min=1,dive"`
}

// ToRequest converts the body into the service request
func (b PayManyBody) ToRequest() (app.PayManyRequest, error) {
	var (
		req  app.PayManyRequest
		errs parseErrors
	)
	req.VendorID = errs.optionalUUID("vendor_id", b.VendorID)
	req.CashAccountID = errs.uuid("cash_account_id", b.CashAccountID)
	req.PaidAt = errs.date("paid_at", b.PaidAt)
	req.Method = ledger.PaymentMethod(b.Method)
	req.Description = strings.TrimSpace(b.Description)
	req.Items = errs.items(b.Items)
	return req, errs.first()
}

// CreateChargeBody creates one charge
type CreateChargeBody struct {
	ApartmentID string `json:"apartment_id" binding:"required,uuid"`
	AccountID   string `json:"account_id" binding:"required,uuid"`
	ChargeType  string `json:"charge_type" binding:"required"`
	Period      string `json:"period" binding:"required,period"`
	DueDate     string `json:"due_date" binding:"required"`
	Amount      string `json:"amount" binding:"required"`
	Description string `json:"description" binding:"max=500"`
}

// ToRequest converts the body into the service request
func (b CreateChargeBody) ToRequest() (app.CreateChargeRequest, error) {
	var (
		req  app.CreateChargeRequest
		errs parseErrors
	)
	req.ApartmentID = errs.uuid("apartment_id", b.ApartmentID)
	req.AccountID = errs.uuid("account_id", b.AccountID)
	req.ChargeType = ledger.ChargeType(b.ChargeType)
	req.Period = b.Period
	req.DueDate = errs.date("due_date", b.DueDate)
	req.Amount = errs.amount("amount", b.Amount)
	req.Description = strings.TrimSpace(b.Description)
	return req, errs.first()
}

// BulkChargesBody creates the same charge for many apartments
type BulkChargesBody struct {
	ApartmentIDs []string `json:"apartment_ids" binding:"required,min=1,dive,uuid"`
	AccountID    string   `json:"account_id" binding:"required,uuid"`
	ChargeType   string   `json:"charge_type" binding:"required"`
	Period       string   `json:"period" binding:"required,period"`
	DueDate      string   `json:"due_date" binding:"required"`
	Amount       string   `json:"amount" binding:"required"`
	Description  string   `json:"description" binding:"max=500"`
}

// ToRequest converts the body into the service request
func (b BulkChargesBody) ToRequest() (app.BulkChargesRequest, error) {
	var (
		req  app.BulkChargesRequest
		errs parseErrors
	)
	req.ApartmentIDs = make([]uuid.UUID, 0, len(b.ApartmentIDs))
	for i, id := range b.ApartmentIDs {
		req.ApartmentIDs = append(req.ApartmentIDs, errs.uuid(fmt.Sprintf("apartment_ids[%d]", i), id))
	}
	req.AccountID = errs.uuid("account_id", b.AccountID)
	req.ChargeType = ledger.ChargeType(b.ChargeType)
	req.Period = b.Period
	req.DueDate = errs.date("due_date", b.DueDate)
	req.Amount = errs.amount("amount", b.Amount)
	req.Description = strings.TrimSpace(b.Description)
	return req, errs.first()
}

// CreateExpenseBody creates one expense
type CreateExpenseBody struct {
	VendorID    string `json:"vendor_id" binding:"omitempty,uuid"`
	AccountID   string `json:"account_id" binding:"required,uuid"`
	ExpenseDate string `json:"expense_date" binding:"required"`
	DueDate     string `json:"due_date" binding:"required"`
	Amount      string `json:"amount" binding:"required"`
	Description string `json:"description" binding:"max=500"`
}

// ToRequest converts the body into the service request
func (b CreateExpenseBody) ToRequest() (app.CreateExpenseRequest, error) {
	var (
		req  app.CreateExpenseRequest
		errs parseErrors
	)
	req.VendorID = errs.optionalUUID("vendor_id", b.VendorID)
	req.AccountID = errs.uuid("account_id", b.AccountID)
	req.ExpenseDate = errs.date("expense_date", b.ExpenseDate)
	req.DueDate = errs.date("due_date", b.DueDate)
	req.Amount = errs.amount("amount", b.Amount)
	req.Description = strings.TrimSpace(b.Description)
	return req, errs.first()
}

// UpdateAmountBody changes the amount of an unpaid charge or expense
type UpdateAmountBody struct {
	Amount string `json:"amount" binding:"required"`
}

// Parse returns the new amount
func (b UpdateAmountBody) Parse() (decimal.Decimal, error) {
	var errs parseErrors
	amount := errs.amount("amount", b.Amount)
	return amount, errs.first()
}

// StatementQuery is the inclusive date range of a statement
type StatementQuery struct {
	From string `form:"from" binding:"required"`
	To   string `form:"to" binding:"required"`
}

// Parse returns the range bounds
func (q StatementQuery) Parse() (from, to time.Time, err error) {
	var errs parseErrors
	from = errs.date("from", q.From)
	to = errs.date("to", q.To)
	return from, to, errs.first()
}

// ParseID parses a path identifier
func ParseID(field, s string) (uuid.UUID, error) {
	var errs parseErrors
	id := errs.uuid(field, s)
	return id, errs.first()
}

// parseErrors keeps the first conversion failure so a body is converted in
// one pass.
type parseErrors struct {
	err error
}

func (p *parseErrors) first() error { return p.err }

func (p *parseErrors) add(err error) {
	if p.err == nil {
		p.err = err
	}
}

func (p *parseErrors) uuid(field, s string) uuid.UUID {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil || id == uuid.Nil {
		p.add(shared.NewValidationError(ErrCodeInvalidID, field, field+" must be a valid UUID"))
		return uuid.Nil
	}
	return id
}

func (p *parseErrors) optionalUUID(field, s string) *uuid.UUID {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	id := p.uuid(field, s)
	if id == uuid.Nil {
		return nil
	}
	return &id
}

func (p *parseErrors) date(field, s string) time.Time {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		p.add(shared.NewValidationError(ErrCodeInvalidDate, field, field+" must be a date in YYYY-MM-DD format"))
		return time.Time{}
	}
	return valueobject.DateOnly(t)
}

func (p *parseErrors) amount(field, s string) decimal.Decimal {
	d, err := valueobject.ParseMoney(strings.TrimSpace(s))
	if err != nil {
		p.add(shared.NewValidationError(ErrCodeInvalidAmount, field, field+" must be a decimal with at most two fractional digits"))
		return decimal.Zero
	}
	return d
}

func (p *parseErrors) items(items []AllocationBody) []app.AllocationInput {
	out := make([]app.AllocationInput, 0, len(items))
	for i, item := range items {
		out = append(out, app.AllocationInput{
			TargetID: p.uuid(fmt.Sprintf("items[%d].target_id", i), item.TargetID),
			Amount:   p.amount(fmt.Sprintf("items[%d].amount", i), item.Amount),
		})
	}
	return out
}
