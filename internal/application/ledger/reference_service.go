package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sitemanager/backend/internal/domain/ledger"
	"github.com/sitemanager/backend/internal/domain/shared"
	"github.com/sitemanager/backend/internal/domain/shared/valueobject"
	"github.com/sitemanager/backend/internal/domain/site"
)

// ReferenceService maintains the reference data ledger rows point at:
// accounts, cash accounts, vendors, apartments and their residents.
type ReferenceService struct {
	repos ledger.Repositories
}

// NewReferenceService creates a new ReferenceService
func NewReferenceService(repos ledger.Repositories) *ReferenceService {
	return &ReferenceService{repos: repos}
}

// CreateAccount adds a chart-of-accounts line
func (s *ReferenceService) CreateAccount(ctx context.Context, tc site.TenantContext, code, name string, accountType ledger.AccountType) (*ledger.Account, error) {
	if err := tc.Require(); err != nil {
		return nil, err
	}
	a, err := ledger.NewAccount(tc.SiteID, code, name, accountType)
	if err != nil {
		return nil, err
	}
	if err := s.repos.Accounts().Create(ctx, tc, a); err != nil {
		return nil, err
	}
	return a, nil
}

// CreateCashAccount adds a cash or bank account with its opening balance
func (s *ReferenceService) CreateCashAccount(ctx context.Context, tc site.TenantContext, name string, accountType ledger.CashAccountType, openingBalance decimal.Decimal) (*ledger.CashAccount, error) {
	if err := tc.Require(); err != nil {
		return nil, err
	}
	a, err := ledger.NewCashAccount(tc.SiteID, name, accountType, openingBalance)
	if err != nil {
		return nil, err
	}
	if err := s.repos.CashAccounts().Create(ctx, tc, a); err != nil {
		return nil, err
	}
	return a, nil
}

// CreateVendor adds a supplier
func (s *ReferenceService) CreateVendor(ctx context.Context, tc site.TenantContext, name string) (*ledger.Vendor, error) {
	if err := tc.Require(); err != nil {
		return nil, err
	}
	v, err := ledger.NewVendor(tc.SiteID, name)
	if err != nil {
		return nil, err
	}
	if err := s.repos.Vendors().Create(ctx, tc, v); err != nil {
		return nil, err
	}
	return v, nil
}

// CreateApartment adds a unit to the site
func (s *ReferenceService) CreateApartment(ctx context.Context, tc site.TenantContext, block string, floor int, number string) (*ledger.Apartment, error) {
	if err := tc.Require(); err != nil {
		return nil, err
	}
	a, err := ledger.NewApartment(tc.SiteID, block, floor, number)
	if err != nil {
		return nil, err
	}
	if err := s.repos.Apartments().Create(ctx, tc, a); err != nil {
		return nil, err
	}
	return a, nil
}

// SetApartmentActive toggles an apartment. Inactive apartments are left
// out of later generations; their existing charges stay.
func (s *ReferenceService) SetApartmentActive(ctx context.Context, tc site.TenantContext, id uuid.UUID, active bool) error {
	if err := tc.Require(); err != nil {
		return err
	}
	return s.repos.Apartments().SetActive(ctx, tc, id, active)
}

// AddResident links a user to an apartment as owner or tenant
func (s *ReferenceService) AddResident(ctx context.Context, tc site.TenantContext, apartmentID, userID uuid.UUID, relation ledger.RelationType, start, end *time.Time) error {
	if err := tc.Require(); err != nil {
		return err
	}
	if !relation.IsValid() {
		return shared.NewValidationError("INVALID_RELATION", "relation_type", "Relation must be owner or tenant")
	}
	if start != nil && end != nil && end.Before(*start) {
		return shared.NewValidationError("INVALID_RANGE", "end_date", "End date cannot be before start date")
	}
	if _, err := s.repos.Apartments().FindByID(ctx, tc, apartmentID); err != nil {
		return err
	}
	return s.repos.Apartments().AddResident(ctx, tc, ledger.Resident{
		ApartmentID:  apartmentID,
		UserID:       userID,
		RelationType: relation,
		StartDate:    dateRef(start),
		EndDate:      dateRef(end),
	})
}

func dateRef(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := valueobject.DateOnly(*t)
	return &d
}
