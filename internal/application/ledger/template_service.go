package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sitemanager/backend/internal/domain/ledger"
	"github.com/sitemanager/backend/internal/domain/shared"
	"github.com/sitemanager/backend/internal/domain/site"
	"go.uber.org/zap"
)

// TemplateService manages recurring templates of a site
type TemplateService struct {
	scope  ledger.TransactionScope
	repos  ledger.Repositories
	logger *zap.Logger
}

// NewTemplateService creates a new TemplateService
func NewTemplateService(scope ledger.TransactionScope, repos ledger.Repositories, logger *zap.Logger) *TemplateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TemplateService{scope: scope, repos: repos, logger: logger}
}

// CreateAidatTemplateRequest defines a monthly dues template
type CreateAidatTemplateRequest struct {
	Name         string
	Amount       decimal.Decimal
	DueDay       int
	AccountID    uuid.UUID
	Scope        ledger.TemplateScope
	ApartmentIDs []uuid.UUID
}

// CreateExpenseTemplateRequest defines a recurring expense template
type CreateExpenseTemplateRequest struct {
	Name      string
	Amount    decimal.Decimal
	DueDay    int
	Period    ledger.RecurrencePeriod
	VendorID  *uuid.UUID
	AccountID uuid.UUID
}

// CreateAidat stores a dues template after checking its references
func (s *TemplateService) CreateAidat(ctx context.Context, tc site.TenantContext, req CreateAidatTemplateRequest) (*ledger.TemplateAidat, error) {
	if err := tc.Require(); err != nil {
		return nil, err
	}
	var tpl *ledger.TemplateAidat
	err := s.scope.Execute(ctx, func(repos ledger.Repositories) error {
		if _, err := repos.Accounts().FindByID(ctx, tc, req.AccountID); err != nil {
			return err
		}
		t, err := ledger.NewTemplateAidat(tc.SiteID, req.Name, req.Amount, req.DueDay, req.AccountID, req.Scope, dedupe(req.ApartmentIDs))
		if err != nil {
			return err
		}
		if len(t.ApartmentIDs) > 0 {
			found, err := repos.Apartments().FindByIDs(ctx, tc, t.ApartmentIDs)
			if err != nil {
				return err
			}
			if len(found) != len(t.ApartmentIDs) {
				return shared.NewNotFoundError("Apartment")
			}
		}
		if err := repos.Templates().CreateAidat(ctx, tc, t); err != nil {
			return err
		}
		tpl = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Aidat template created",
		zap.String("site_id", tc.SiteID.String()),
		zap.String("template_id", tpl.ID.String()),
		zap.String("scope", string(tpl.Scope)),
	)
	return tpl, nil
}

// CreateExpense stores a recurring expense template after checking its references
func (s *TemplateService) CreateExpense(ctx context.Context, tc site.TenantContext, req CreateExpenseTemplateRequest) (*ledger.TemplateExpense, error) {
	if err := tc.Require(); err != nil {
		return nil, err
	}
	var tpl *ledger.TemplateExpense
	err := s.scope.Execute(ctx, func(repos ledger.Repositories) error {
		if _, err := repos.Accounts().FindByID(ctx, tc, req.AccountID); err != nil {
			return err
		}
		if req.VendorID != nil {
			if _, err := repos.Vendors().FindByID(ctx, tc, *req.VendorID); err != nil {
				return err
			}
		}
		t, err := ledger.NewTemplateExpense(tc.SiteID, req.Name, req.Amount, req.DueDay, req.Period, req.VendorID, req.AccountID)
		if err != nil {
			return err
		}
		if err := repos.Templates().CreateExpense(ctx, tc, t); err != nil {
			return err
		}
		tpl = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tpl, nil
}

// SetAidatActive activates or deactivates a dues template from the next run on
func (s *TemplateService) SetAidatActive(ctx context.Context, tc site.TenantContext, id uuid.UUID, active bool) error {
	if err := tc.Require(); err != nil {
		return err
	}
	return s.repos.Templates().SetAidatActive(ctx, tc, id, active)
}

// SetExpenseActive activates or deactivates an expense template from the next run on
func (s *TemplateService) SetExpenseActive(ctx context.Context, tc site.TenantContext, id uuid.UUID, active bool) error {
	if err := tc.Require(); err != nil {
		return err
	}
	return s.repos.Templates().SetExpenseActive(ctx, tc, id, active)
}
