package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sitemanager/backend/internal/domain/ledger"
)

// AccountModel is the persistence model for chart-of-accounts lines
type AccountModel struct {
	SiteScopedModel
	Code     string             `gorm:"type:varchar(50)"`
	Name     string             `gorm:"type:varchar(200);not null"`
	Type     ledger.AccountType `gorm:"type:varchar(20);not null"`
	IsActive bool               `gorm:"not null"`
}

// TableName returns the table name for GORM
func (AccountModel) TableName() string {
	return "accounts"
}

// ToDomain converts the model to a domain Account
func (m *AccountModel) ToDomain() *ledger.Account {
	return &ledger.Account{
		SiteEntity: m.ToDomainSiteEntity(),
		Code:       m.Code,
		Name:       m.Name,
		Type:       m.Type,
		IsActive:   m.IsActive,
	}
}

// AccountModelFromDomain creates a model from a domain Account
func AccountModelFromDomain(a *ledger.Account) *AccountModel {
	m := &AccountModel{Code: a.Code, Name: a.Name, Type: a.Type, IsActive: a.IsActive}
	m.FromDomainSiteEntity(a.SiteEntity)
	return m
}

// ApartmentModel is the persistence model for apartments
type ApartmentModel struct {
	SiteScopedModel
	Block     string          `gorm:"type:varchar(20)"`
	Floor     int             `gorm:"not null"`
	Number    string          `gorm:"type:varchar(20);not null"`
	Area      decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	LandShare decimal.Decimal `gorm:"type:decimal(10,4);not null"`
	IsActive  bool            `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (ApartmentModel) TableName() string {
	return "apartments"
}

// ToDomain converts the model to a domain Apartment
func (m *ApartmentModel) ToDomain() *ledger.Apartment {
	return &ledger.Apartment{
		SiteEntity: m.ToDomainSiteEntity(),
		Block:      m.Block,
		Floor:      m.Floor,
		Number:     m.Number,
		Area:       m.Area,
		LandShare:  m.LandShare,
		IsActive:   m.IsActive,
	}
}

// ApartmentModelFromDomain creates a model from a domain Apartment
func ApartmentModelFromDomain(a *ledger.Apartment) *ApartmentModel {
	m := &ApartmentModel{
		Block:     a.Block,
		Floor:     a.Floor,
		Number:    a.Number,
		Area:      a.Area,
		LandShare: a.LandShare,
		IsActive:  a.IsActive,
	}
	m.FromDomainSiteEntity(a.SiteEntity)
	return m
}

// ApartmentResidentModel is the time-bounded user pivot of an apartment
type ApartmentResidentModel struct {
	ID           uuid.UUID           `gorm:"type:uuid;primary_key"`
	ApartmentID  uuid.UUID           `gorm:"type:uuid;not null;index"`
	UserID       uuid.UUID           `gorm:"type:uuid;not null;index"`
	RelationType ledger.RelationType `gorm:"type:varchar(20);not null"`
	StartDate    *time.Time          `gorm:"type:date"`
	EndDate      *time.Time          `gorm:"type:date"`
	CreatedAt    time.Time           `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ApartmentResidentModel) TableName() string {
	return "apartment_residents"
}

// ToDomain converts the model to a domain Resident
func (m *ApartmentResidentModel) ToDomain() ledger.Resident {
	return ledger.Resident{
		ApartmentID:  m.ApartmentID,
		UserID:       m.UserID,
		RelationType: m.RelationType,
		StartDate:    m.StartDate,
		EndDate:      m.EndDate,
	}
}

// VendorModel is the persistence model for vendors
type VendorModel struct {
	SiteScopedModel
	Name     string `gorm:"type:varchar(200);not null"`
	TaxID    string `gorm:"type:varchar(50)"`
	Phone    string `gorm:"type:varchar(50)"`
	IsActive bool   `gorm:"not null"`
}

// TableName returns the table name for GORM
func (VendorModel) TableName() string {
	return "vendors"
}

// ToDomain converts the model to a domain Vendor
func (m *VendorModel) ToDomain() *ledger.Vendor {
	return &ledger.Vendor{
		SiteEntity: m.ToDomainSiteEntity(),
		Name:       m.Name,
		TaxID:      m.TaxID,
		Phone:      m.Phone,
		IsActive:   m.IsActive,
	}
}

// VendorModelFromDomain creates a model from a domain Vendor
func VendorModelFromDomain(v *ledger.Vendor) *VendorModel {
	m := &VendorModel{Name: v.Name, TaxID: v.TaxID, Phone: v.Phone, IsActive: v.IsActive}
	m.FromDomainSiteEntity(v.SiteEntity)
	return m
}

// CashAccountModel is the persistence model for cash and bank accounts
type CashAccountModel struct {
	SiteScopedModel
	Name           string                 `gorm:"type:varchar(200);not null"`
	Type           ledger.CashAccountType `gorm:"type:varchar(10);not null"`
	IBAN           string                 `gorm:"type:varchar(34)"`
	OpeningBalance decimal.Decimal        `gorm:"type:decimal(18,2);not null"`
	IsActive       bool                   `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CashAccountModel) TableName() string {
	return "cash_accounts"
}

// ToDomain converts the model to a domain CashAccount
func (m *CashAccountModel) ToDomain() *ledger.CashAccount {
	return &ledger.CashAccount{
		SiteEntity:     m.ToDomainSiteEntity(),
		Name:           m.Name,
		Type:           m.Type,
		IBAN:           m.IBAN,
		OpeningBalance: m.OpeningBalance,
		IsActive:       m.IsActive,
	}
}

// CashAccountModelFromDomain creates a model from a domain CashAccount
func CashAccountModelFromDomain(a *ledger.CashAccount) *CashAccountModel {
	m := &CashAccountModel{
		Name:           a.Name,
		Type:           a.Type,
		IBAN:           a.IBAN,
		OpeningBalance: a.OpeningBalance,
		IsActive:       a.IsActive,
	}
	m.FromDomainSiteEntity(a.SiteEntity)
	return m
}

// ChargeModel is the persistence model for receivables.
// (apartment_id, account_id, period, charge_type) is unique.
type ChargeModel struct {
	SiteScopedModel
	ApartmentID uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:uq_charges_key,priority:1"`
	AccountID   uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:uq_charges_key,priority:2"`
	Period      string              `gorm:"type:varchar(7);not null;uniqueIndex:uq_charges_key,priority:3"`
	ChargeType  ledger.ChargeType   `gorm:"type:varchar(20);not null;uniqueIndex:uq_charges_key,priority:4"`
	DueDate     time.Time           `gorm:"type:date;not null;index"`
	Amount      decimal.Decimal     `gorm:"type:decimal(18,2);not null"`
	PaidAmount  decimal.Decimal     `gorm:"type:decimal(18,2);not null"`
	Status      ledger.ChargeStatus `gorm:"type:varchar(20);not null;index"`
	Description string              `gorm:"type:varchar(500)"`
	TemplateID  *uuid.UUID          `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (ChargeModel) TableName() string {
	return "charges"
}

// ToDomain converts the model to a domain Charge
func (m *ChargeModel) ToDomain() *ledger.Charge {
	return &ledger.Charge{
		SiteEntity:  m.ToDomainSiteEntity(),
		ApartmentID: m.ApartmentID,
		AccountID:   m.AccountID,
		ChargeType:  m.ChargeType,
		Period:      m.Period,
		DueDate:     m.DueDate.UTC(),
		Amount:      m.Amount,
		PaidAmount:  m.PaidAmount,
		Status:      m.Status,
		Description: m.Description,
		TemplateID:  m.TemplateID,
	}
}

// ChargeModelFromDomain creates a model from a domain Charge
func ChargeModelFromDomain(c *ledger.Charge) *ChargeModel {
	m := &ChargeModel{
		ApartmentID: c.ApartmentID,
		AccountID:   c.AccountID,
		ChargeType:  c.ChargeType,
		Period:      c.Period,
		DueDate:     c.DueDate,
		Amount:      c.Amount,
		PaidAmount:  c.PaidAmount,
		Status:      c.Status,
		Description: c.Description,
		TemplateID:  c.TemplateID,
	}
	m.FromDomainSiteEntity(c.SiteEntity)
	return m
}

// ExpenseModel is the persistence model for payables
type ExpenseModel struct {
	SiteScopedModel
	VendorID    *uuid.UUID           `gorm:"type:uuid;index"`
	AccountID   uuid.UUID            `gorm:"type:uuid;not null;index"`
	ExpenseDate time.Time            `gorm:"type:date;not null"`
	DueDate     time.Time            `gorm:"type:date;not null;index"`
	Amount      decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	PaidAmount  decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	Status      ledger.ExpenseStatus `gorm:"type:varchar(20);not null;index"`
	Description string               `gorm:"type:varchar(500)"`
	TemplateID  *uuid.UUID           `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (ExpenseModel) TableName() string {
	return "expenses"
}

// ToDomain converts the model to a domain Expense
func (m *ExpenseModel) ToDomain() *ledger.Expense {
	return &ledger.Expense{
		SiteEntity:  m.ToDomainSiteEntity(),
		VendorID:    m.VendorID,
		AccountID:   m.AccountID,
		ExpenseDate: m.ExpenseDate.UTC(),
		DueDate:     m.DueDate.UTC(),
		Amount:      m.Amount,
		PaidAmount:  m.PaidAmount,
		Status:      m.Status,
		Description: m.Description,
		TemplateID:  m.TemplateID,
	}
}

// ExpenseModelFromDomain creates a model from a domain Expense
func ExpenseModelFromDomain(e *ledger.Expense) *ExpenseModel {
	m := &ExpenseModel{
		VendorID:    e.VendorID,
		AccountID:   e.AccountID,
		ExpenseDate: e.ExpenseDate,
		DueDate:     e.DueDate,
		Amount:      e.Amount,
		PaidAmount:  e.PaidAmount,
		Status:      e.Status,
		Description: e.Description,
		TemplateID:  e.TemplateID,
	}
	m.FromDomainSiteEntity(e.SiteEntity)
	return m
}
