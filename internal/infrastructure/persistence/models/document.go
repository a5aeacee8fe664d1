package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sitemanager/backend/internal/domain/ledger"
	"github.com/sitemanager/backend/internal/domain/shared"
)

// ReceiptModel is the persistence model for receipts.
// Receipt numbers are unique within a site.
type ReceiptModel struct {
	BaseModel
	SiteID        uuid.UUID            `gorm:"type:uuid;not null;uniqueIndex:uq_receipts_number,priority:1"`
	ReceiptNumber string               `gorm:"type:varchar(32);not null;uniqueIndex:uq_receipts_number,priority:2"`
	ApartmentID   uuid.UUID            `gorm:"type:uuid;not null;index"`
	CashAccountID uuid.UUID            `gorm:"type:uuid;not null;index:idx_receipts_cash_paid,priority:1"`
	Method        ledger.PaymentMethod `gorm:"type:varchar(20);not null"`
	PaidAt        time.Time            `gorm:"type:date;not null;index:idx_receipts_cash_paid,priority:2"`
	TotalAmount   decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	Description   string               `gorm:"type:varchar(500)"`
	CreatedBy     *uuid.UUID           `gorm:"type:uuid"`
	Items         []ReceiptItemModel   `gorm:"foreignKey:ReceiptID"`
}

// TableName returns the table name for GORM
func (ReceiptModel) TableName() string {
	return "receipts"
}

// ToDomain converts the model to a domain Receipt
func (m *ReceiptModel) ToDomain() *ledger.Receipt {
	r := &ledger.Receipt{
		SiteEntity:    shared.SiteEntity{BaseEntity: m.BaseModel.ToDomain(), SiteID: m.SiteID},
		ReceiptNumber: m.ReceiptNumber,
		ApartmentID:   m.ApartmentID,
		CashAccountID: m.CashAccountID,
		Method:        m.Method,
		PaidAt:        m.PaidAt.UTC(),
		TotalAmount:   m.TotalAmount,
		Description:   m.Description,
		CreatedBy:     m.CreatedBy,
	}
	for i := range m.Items {
		r.Items = append(r.Items, m.Items[i].ToDomain())
	}
	return r
}

// ReceiptModelFromDomain creates a model from a domain Receipt, items included
func ReceiptModelFromDomain(r *ledger.Receipt) *ReceiptModel {
	m := &ReceiptModel{
		SiteID:        r.SiteID,
		ReceiptNumber: r.ReceiptNumber,
		ApartmentID:   r.ApartmentID,
		CashAccountID: r.CashAccountID,
		Method:        r.Method,
		PaidAt:        r.PaidAt,
		TotalAmount:   r.TotalAmount,
		Description:   r.Description,
		CreatedBy:     r.CreatedBy,
	}
	m.FromDomainBaseEntity(r.BaseEntity)
	for i := range r.Items {
		m.Items = append(m.Items, *ReceiptItemModelFromDomain(&r.Items[i]))
	}
	return m
}

// ReceiptItemModel allocates part of a receipt to a charge
type ReceiptItemModel struct {
	BaseModel
	ReceiptID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ChargeID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,2);not null"`
}

// TableName returns the table name for GORM
func (ReceiptItemModel) TableName() string {
	return "receipt_items"
}

// ToDomain converts the model to a domain ReceiptItem
func (m *ReceiptItemModel) ToDomain() ledger.ReceiptItem {
	return ledger.ReceiptItem{
		BaseEntity: m.BaseModel.ToDomain(),
		ReceiptID:  m.ReceiptID,
		ChargeID:   m.ChargeID,
		Amount:     m.Amount,
	}
}

// ReceiptItemModelFromDomain creates a model from a domain ReceiptItem
func ReceiptItemModelFromDomain(i *ledger.ReceiptItem) *ReceiptItemModel {
	m := &ReceiptItemModel{ReceiptID: i.ReceiptID, ChargeID: i.ChargeID, Amount: i.Amount}
	m.FromDomainBaseEntity(i.BaseEntity)
	return m
}

// PaymentModel is the persistence model for outgoing payments
type PaymentModel struct {
	BaseModel
	SiteID        uuid.UUID            `gorm:"type:uuid;not null;uniqueIndex:uq_payments_number,priority:1"`
	PaymentNumber string               `gorm:"type:varchar(32);not null;uniqueIndex:uq_payments_number,priority:2"`
	VendorID      *uuid.UUID           `gorm:"type:uuid;index"`
	CashAccountID uuid.UUID            `gorm:"type:uuid;not null;index:idx_payments_cash_paid,priority:1"`
	Method        ledger.PaymentMethod `gorm:"type:varchar(20);not null"`
	PaidAt        time.Time            `gorm:"type:date;not null;index:idx_payments_cash_paid,priority:2"`
	TotalAmount   decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	Description   string               `gorm:"type:varchar(500)"`
	CreatedBy     *uuid.UUID           `gorm:"type:uuid"`
	Items         []PaymentItemModel   `gorm:"foreignKey:PaymentID"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the model to a domain Payment
func (m *PaymentModel) ToDomain() *ledger.Payment {
	p := &ledger.Payment{
		SiteEntity:    shared.SiteEntity{BaseEntity: m.BaseModel.ToDomain(), SiteID: m.SiteID},
		PaymentNumber: m.PaymentNumber,
		VendorID:      m.VendorID,
		CashAccountID: m.CashAccountID,
		Method:        m.Method,
		PaidAt:        m.PaidAt.UTC(),
		TotalAmount:   m.TotalAmount,
		Description:   m.Description,
		CreatedBy:     m.CreatedBy,
	}
	for i := range m.Items {
		p.Items = append(p.Items, m.Items[i].ToDomain())
	}
	return p
}

// PaymentModelFromDomain creates a model from a domain Payment, items included
func PaymentModelFromDomain(p *ledger.Payment) *PaymentModel {
	m := &PaymentModel{
		SiteID:        p.SiteID,
		PaymentNumber: p.PaymentNumber,
		VendorID:      p.VendorID,
		CashAccountID: p.CashAccountID,
		Method:        p.Method,
		PaidAt:        p.PaidAt,
		TotalAmount:   p.TotalAmount,
		Description:   p.Description,
		CreatedBy:     p.CreatedBy,
	}
	m.FromDomainBaseEntity(p.BaseEntity)
	for i := range p.Items {
		m.Items = append(m.Items, *PaymentItemModelFromDomain(&p.Items[i]))
	}
	return m
}

// PaymentItemModel allocates part of a payment to an expense
type PaymentItemModel struct {
	BaseModel
	PaymentID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ExpenseID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,2);not null"`
}

// TableName returns the table name for GORM
func (PaymentItemModel) TableName() string {
	return "payment_items"
}

// ToDomain converts the model to a domain PaymentItem
func (m *PaymentItemModel) ToDomain() ledger.PaymentItem {
	return ledger.PaymentItem{
		BaseEntity: m.BaseModel.ToDomain(),
		PaymentID:  m.PaymentID,
		ExpenseID:  m.ExpenseID,
		Amount:     m.Amount,
	}
}

// PaymentItemModelFromDomain creates a model from a domain PaymentItem
func PaymentItemModelFromDomain(i *ledger.PaymentItem) *PaymentItemModel {
	m := &PaymentItemModel{PaymentID: i.PaymentID, ExpenseID: i.ExpenseID, Amount: i.Amount}
	m.FromDomainBaseEntity(i.BaseEntity)
	return m
}

// DocumentSequenceModel holds the last number handed out per site and document kind
type DocumentSequenceModel struct {
	SiteID    uuid.UUID           `gorm:"type:uuid;primaryKey"`
	Kind      ledger.DocumentKind `gorm:"type:varchar(20);primaryKey"`
	LastValue int64               `gorm:"not null"`
	UpdatedAt time.Time           `gorm:"not null"`
}

// TableName returns the table name for GORM
func (DocumentSequenceModel) TableName() string {
	return "document_sequences"
}
