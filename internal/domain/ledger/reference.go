package ledger

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sitemanager/backend/internal/domain/shared"
	"github.com/sitemanager/backend/internal/domain/shared/valueobject"
)

// Account is a chart-of-accounts line used to categorize charges and expenses
type Account struct {
	shared.SiteEntity
	Code     string
	Name     string
	Type     AccountType
	IsActive bool
}

// NewAccount creates an active account
func NewAccount(siteID uuid.UUID, code, name string, accountType AccountType) (*Account, error) {
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewValidationError("INVALID_NAME", "name", "Account name cannot be empty")
	}
	if !accountType.IsValid() {
		return nil, shared.NewValidationError("INVALID_ACCOUNT_TYPE", "type", "Account type must be income, expense, asset or liability")
	}
	return &Account{
		SiteEntity: shared.NewSiteEntity(siteID),
		Code:       strings.TrimSpace(code),
		Name:       strings.TrimSpace(name),
		Type:       accountType,
		IsActive:   true,
	}, nil
}

// Apartment is a unit within a site
type Apartment struct {
	shared.SiteEntity
	Block     string
	Floor     int
	Number    string
	Area      decimal.Decimal // m²
	LandShare decimal.Decimal
	IsActive  bool
	Residents []Resident
}

// NewApartment creates an active apartment
func NewApartment(siteID uuid.UUID, block string, floor int, number string) (*Apartment, error) {
	if strings.TrimSpace(number) == "" {
		return nil, shared.NewValidationError("INVALID_NUMBER", "number", "Apartment number cannot be empty")
	}
	return &Apartment{
		SiteEntity: shared.NewSiteEntity(siteID),
		Block:      strings.TrimSpace(block),
		Floor:      floor,
		Number:     strings.TrimSpace(number),
		Area:       decimal.Zero,
		LandShare:  decimal.Zero,
		IsActive:   true,
	}, nil
}

// Label returns a display label like "A-12"
func (a *Apartment) Label() string {
	if a.Block == "" {
		return a.Number
	}
	return a.Block + "-" + a.Number
}

// Resident is a time-bounded owner or tenant relation between a user and an apartment
type Resident struct {
	ApartmentID  uuid.UUID
	UserID       uuid.UUID
	RelationType RelationType
	StartDate    *time.Time
	EndDate      *time.Time
}

// CurrentResident returns the most recent relation of the given type that
// has no end date, or nil if there is none.
func CurrentResident(residents []Resident, relation RelationType) *Resident {
	var current *Resident
	for i := range residents {
		r := &residents[i]
		if r.RelationType != relation || r.EndDate != nil {
			continue
		}
		if current == nil || startOf(r).After(startOf(current)) {
			current = r
		}
	}
	return current
}

func startOf(r *Resident) time.Time {
	if r.StartDate == nil {
		return time.Time{}
	}
	return *r.StartDate
}

// Vendor is a supplier billed via expenses
type Vendor struct {
	shared.SiteEntity
	Name     string
	TaxID    string
	Phone    string
	IsActive bool
}

// NewVendor creates an active vendor
func NewVendor(siteID uuid.UUID, name string) (*Vendor, error) {
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewValidationError("INVALID_NAME", "name", "Vendor name cannot be empty")
	}
	return &Vendor{
		SiteEntity: shared.NewSiteEntity(siteID),
		Name:       strings.TrimSpace(name),
		IsActive:   true,
	}, nil
}

// CashAccount holds money. Its balance is always derived from receipts
// and payments; only the opening balance is stored.
type CashAccount struct {
	shared.SiteEntity
	Name           string
	Type           CashAccountType
	IBAN           string
	OpeningBalance decimal.Decimal
	IsActive       bool
}

// NewCashAccount creates a cash or bank account with a fixed opening balance
func NewCashAccount(siteID uuid.UUID, name string, accountType CashAccountType, openingBalance decimal.Decimal) (*CashAccount, error) {
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewValidationError("INVALID_NAME", "name", "Cash account name cannot be empty")
	}
	if !accountType.IsValid() {
		return nil, shared.NewValidationError("INVALID_CASH_ACCOUNT_TYPE", "type", "Cash account type must be cash or bank")
	}
	if !valueobject.HasMoneyScale(openingBalance) {
		return nil, shared.NewValidationError("INVALID_AMOUNT", "opening_balance", "Opening balance cannot have more than two decimal places")
	}
	return &CashAccount{
		SiteEntity:     shared.NewSiteEntity(siteID),
		Name:           strings.TrimSpace(name),
		Type:           accountType,
		OpeningBalance: openingBalance,
		IsActive:       true,
	}, nil
}
