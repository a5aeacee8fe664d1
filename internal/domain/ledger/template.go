package ledger

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sitemanager/backend/internal/domain/shared"
	"github.com/sitemanager/backend/internal/domain/shared/valueobject"
)

// Due days stop at 28 so every month has the day
const (
	MinDueDay = 1
	MaxDueDay = 28
)

func validateDueDay(day int) error {
	if day < MinDueDay || day > MaxDueDay {
		return shared.NewValidationError("INVALID_DUE_DAY", "due_day", "Due day must be between 1 and 28")
	}
	return nil
}

// TemplateAidat defines monthly dues billed to apartments
type TemplateAidat struct {
	shared.SiteEntity
	Name                string
	Amount              decimal.Decimal
	DueDay              int
	AccountID           uuid.UUID
	Scope               TemplateScope
	ApartmentIDs        []uuid.UUID
	IsActive            bool
	LastGeneratedPeriod string
}

// NewTemplateAidat creates an active dues template
func NewTemplateAidat(siteID uuid.UUID, name string, amount decimal.Decimal, dueDay int, accountID uuid.UUID, scope TemplateScope, apartmentIDs []uuid.UUID) (*TemplateAidat, error) {
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewValidationError("INVALID_NAME", "name", "Template name cannot be empty")
	}
	if err := validateNewAmount("amount", amount); err != nil {
		return nil, err
	}
	if err := validateDueDay(dueDay); err != nil {
		return nil, err
	}
	if accountID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_ACCOUNT", "account_id", "Account is required")
	}
	if !scope.IsValid() {
		return nil, shared.NewValidationError("INVALID_SCOPE", "scope", "Scope must be all or selected")
	}
	if scope == TemplateScopeSelected && len(apartmentIDs) == 0 {
		return nil, shared.NewValidationError("INVALID_SCOPE", "apartment_ids", "Selected scope requires at least one apartment")
	}
	if scope == TemplateScopeAll {
		apartmentIDs = nil
	}
	return &TemplateAidat{
		SiteEntity:   shared.NewSiteEntity(siteID),
		Name:         strings.TrimSpace(name),
		Amount:       amount,
		DueDay:       dueDay,
		AccountID:    accountID,
		Scope:        scope,
		ApartmentIDs: apartmentIDs,
		IsActive:     true,
	}, nil
}

// Validate re-checks a template loaded from storage before it is expanded
func (t *TemplateAidat) Validate() error {
	if err := validateNewAmount("amount", t.Amount); err != nil {
		return err
	}
	return validateDueDay(t.DueDay)
}

// TargetApartments filters the site's active apartments down to the ones
// this template bills.
func (t *TemplateAidat) TargetApartments(active []Apartment) []Apartment {
	if t.Scope == TemplateScopeAll {
		return active
	}
	selected := make(map[uuid.UUID]struct{}, len(t.ApartmentIDs))
	for _, id := range t.ApartmentIDs {
		selected[id] = struct{}{}
	}
	targets := make([]Apartment, 0, len(t.ApartmentIDs))
	for _, a := range active {
		if _, ok := selected[a.ID]; ok && a.IsActive {
			targets = append(targets, a)
		}
	}
	return targets
}

// DueDate returns the due date within period
func (t *TemplateAidat) DueDate(period valueobject.Period) time.Time {
	return period.Day(t.DueDay)
}

// NewCharge builds the dues charge for one apartment in period
func (t *TemplateAidat) NewCharge(apartmentID uuid.UUID, period valueobject.Period) (*Charge, error) {
	c, err := NewCharge(t.SiteID, apartmentID, t.AccountID, ChargeTypeAidat, period, t.DueDate(period), t.Amount, t.Name+" "+period.String())
	if err != nil {
		return nil, err
	}
	id := t.ID
	c.TemplateID = &id
	return c, nil
}

// MarkGenerated advances the last generated period. Older periods never move it back.
func (t *TemplateAidat) MarkGenerated(period valueobject.Period) {
	if t.LastGeneratedPeriod == "" || period.String() > t.LastGeneratedPeriod {
		t.LastGeneratedPeriod = period.String()
		t.Touch()
	}
}

// TemplateExpense defines a recurring payable
type TemplateExpense struct {
	shared.SiteEntity
	Name            string
	Amount          decimal.Decimal
	DueDay          int
	Period          RecurrencePeriod
	VendorID        *uuid.UUID
	AccountID       uuid.UUID
	IsActive        bool
	LastGeneratedAt *time.Time
}

// NewTemplateExpense creates an active recurring expense template
func NewTemplateExpense(siteID uuid.UUID, name string, amount decimal.Decimal, dueDay int, period RecurrencePeriod, vendorID *uuid.UUID, accountID uuid.UUID) (*TemplateExpense, error) {
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewValidationError("INVALID_NAME", "name", "Template name cannot be empty")
	}
	if err := validateNewAmount("amount", amount); err != nil {
		return nil, err
	}
	if err := validateDueDay(dueDay); err != nil {
		return nil, err
	}
	if !period.IsValid() {
		return nil, shared.NewValidationError("INVALID_PERIOD", "period", "Period must be monthly, quarterly or yearly")
	}
	if accountID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_ACCOUNT", "account_id", "Account is required")
	}
	return &TemplateExpense{
		SiteEntity: shared.NewSiteEntity(siteID),
		Name:       strings.TrimSpace(name),
		Amount:     amount,
		DueDay:     dueDay,
		Period:     period,
		VendorID:   vendorID,
		AccountID:  accountID,
		IsActive:   true,
	}, nil
}

// Validate re-checks a template loaded from storage before it is expanded
func (t *TemplateExpense) Validate() error {
	if err := validateNewAmount("amount", t.Amount); err != nil {
		return err
	}
	if !t.Period.IsValid() {
		return shared.NewValidationError("INVALID_PERIOD", "period", "Period must be monthly, quarterly or yearly")
	}
	return validateDueDay(t.DueDay)
}

// IsDue reports whether an expense should be generated at now.
// A template is due once at least Period.Months() calendar months separate
// the anchor month from the current month, both read in now's location.
// The anchor is the last generation, or creation when it never generated.
func (t *TemplateExpense) IsDue(now time.Time) bool {
	if !t.IsActive || !t.Period.IsValid() {
		return false
	}
	anchor := t.CreatedAt
	if t.LastGeneratedAt != nil {
		anchor = *t.LastGeneratedAt
	}
	elapsed := valueobject.PeriodOf(now).MonthsSince(valueobject.PeriodOf(anchor.In(now.Location())))
	return elapsed >= t.Period.Months()
}

// NewExpense builds the expense for the month containing now
func (t *TemplateExpense) NewExpense(now time.Time) (*Expense, error) {
	period := valueobject.PeriodOf(now)
	e, err := NewExpense(t.SiteID, t.VendorID, t.AccountID, valueobject.DateOnly(now), period.Day(t.DueDay), t.Amount, t.Name+" "+period.String())
	if err != nil {
		return nil, err
	}
	id := t.ID
	e.TemplateID = &id
	return e, nil
}
