package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sitemanager/backend/internal/domain/ledger"
)

// TemplateAidatModel is the persistence model for recurring dues templates
type TemplateAidatModel struct {
	SiteScopedModel
	Name                string                        `gorm:"type:varchar(200);not null"`
	Amount              decimal.Decimal               `gorm:"type:decimal(18,2);not null"`
	DueDay              int                           `gorm:"not null"`
	AccountID           uuid.UUID                     `gorm:"type:uuid;not null"`
	Scope               ledger.TemplateScope          `gorm:"type:varchar(20);not null"`
	IsActive            bool                          `gorm:"not null;index"`
	LastGeneratedPeriod string                        `gorm:"type:varchar(7)"`
	Apartments          []TemplateAidatApartmentModel `gorm:"foreignKey:TemplateID"`
}

// TableName returns the table name for GORM
func (TemplateAidatModel) TableName() string {
	return "template_aidats"
}

// ToDomain converts the model to a domain TemplateAidat
func (m *TemplateAidatModel) ToDomain() *ledger.TemplateAidat {
	t := &ledger.TemplateAidat{
		SiteEntity:          m.ToDomainSiteEntity(),
		Name:                m.Name,
		Amount:              m.Amount,
		DueDay:              m.DueDay,
		AccountID:           m.AccountID,
		Scope:               m.Scope,
		IsActive:            m.IsActive,
		LastGeneratedPeriod: m.LastGeneratedPeriod,
	}
	for _, a := range m.Apartments {
		t.ApartmentIDs = append(t.ApartmentIDs, a.ApartmentID)
	}
	return t
}

// TemplateAidatModelFromDomain creates a model from a domain TemplateAidat
func TemplateAidatModelFromDomain(t *ledger.TemplateAidat) *TemplateAidatModel {
	m := &TemplateAidatModel{
		Name:                t.Name,
		Amount:              t.Amount,
		DueDay:              t.DueDay,
		AccountID:           t.AccountID,
		Scope:               t.Scope,
		IsActive:            t.IsActive,
		LastGeneratedPeriod: t.LastGeneratedPeriod,
	}
	m.FromDomainSiteEntity(t.SiteEntity)
	for _, id := range t.ApartmentIDs {
		m.Apartments = append(m.Apartments, TemplateAidatApartmentModel{TemplateID: t.ID, ApartmentID: id})
	}
	return m
}

// TemplateAidatApartmentModel is the selected-apartment pivot of a dues template
type TemplateAidatApartmentModel struct {
	TemplateID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	ApartmentID uuid.UUID `gorm:"type:uuid;primaryKey"`
}

// TableName returns the table name for GORM
func (TemplateAidatApartmentModel) TableName() string {
	return "template_aidat_apartments"
}

// TemplateExpenseModel is the persistence model for recurring expense templates
type TemplateExpenseModel struct {
	SiteScopedModel
	Name            string                  `gorm:"type:varchar(200);not null"`
	Amount          decimal.Decimal         `gorm:"type:decimal(18,2);not null"`
	DueDay          int                     `gorm:"not null"`
	Period          ledger.RecurrencePeriod `gorm:"type:varchar(20);not null"`
	VendorID        *uuid.UUID              `gorm:"type:uuid"`
	AccountID       uuid.UUID               `gorm:"type:uuid;not null"`
	IsActive        bool                    `gorm:"not null;index"`
	LastGeneratedAt *time.Time
}

// TableName returns the table name for GORM
func (TemplateExpenseModel) TableName() string {
	return "template_expenses"
}

// ToDomain converts the model to a domain TemplateExpense
func (m *TemplateExpenseModel) ToDomain() *ledger.TemplateExpense {
	t := &ledger.TemplateExpense{
		SiteEntity: m.ToDomainSiteEntity(),
		Name:       m.Name,
		Amount:     m.Amount,
		DueDay:     m.DueDay,
		Period:     m.Period,
		VendorID:   m.VendorID,
		AccountID:  m.AccountID,
		IsActive:   m.IsActive,
	}
	if m.LastGeneratedAt != nil {
		ts := m.LastGeneratedAt.UTC()
		t.LastGeneratedAt = &ts
	}
	return t
}

// TemplateExpenseModelFromDomain creates a model from a domain TemplateExpense
func TemplateExpenseModelFromDomain(t *ledger.TemplateExpense) *TemplateExpenseModel {
	m := &TemplateExpenseModel{
		Name:            t.Name,
		Amount:          t.Amount,
		DueDay:          t.DueDay,
		Period:          t.Period,
		VendorID:        t.VendorID,
		AccountID:       t.AccountID,
		IsActive:        t.IsActive,
		LastGeneratedAt: t.LastGeneratedAt,
	}
	m.FromDomainSiteEntity(t.SiteEntity)
	return m
}

// All returns every model in foreign-key friendly creation order
func All() []any {
	return []any{
		&SiteModel{},
		&UserModel{},
		&AccountModel{},
		&ApartmentModel{},
		&ApartmentResidentModel{},
		&VendorModel{},
		&CashAccountModel{},
		&ChargeModel{},
		&ExpenseModel{},
		&ReceiptModel{},
		&ReceiptItemModel{},
		&PaymentModel{},
		&PaymentItemModel{},
		&TemplateAidatModel{},
		&TemplateAidatApartmentModel{},
		&TemplateExpenseModel{},
		&DocumentSequenceModel{},
	}
}
