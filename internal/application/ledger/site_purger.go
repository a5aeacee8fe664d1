package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/sitemanager/backend/internal/domain/ledger"
	"github.com/sitemanager/backend/internal/domain/shared"
	"github.com/sitemanager/backend/internal/domain/site"
	"github.com/sitemanager/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// PurgeOrder lists the site's tables children first
var PurgeOrder = []ledger.PurgeTarget{
	ledger.PurgeReceiptItems,
	ledger.PurgeReceipts,
	ledger.PurgePaymentItems,
	ledger.PurgePayments,
	ledger.PurgeCharges,
	ledger.PurgeExpenses,
	ledger.PurgeTemplateAidatUnits,
	ledger.PurgeTemplateAidat,
	ledger.PurgeTemplateExpenses,
	ledger.PurgeApartmentResidents,
	ledger.PurgeApartments,
	ledger.PurgeCashAccounts,
	ledger.PurgeAccounts,
	ledger.PurgeVendors,
	ledger.PurgeDocumentSequences,
}

// SitePurger irreversibly deletes a site and everything that references it.
// It works across the tenant boundary and is meant for operators only.
type SitePurger struct {
	scope  ledger.TransactionScope
	repos  ledger.Repositories
	logger *zap.Logger
}

// NewSitePurger creates a new SitePurger
func NewSitePurger(scope ledger.TransactionScope, repos ledger.Repositories, logger *zap.Logger) *SitePurger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SitePurger{scope: scope, repos: repos, logger: logger}
}

// Resolve finds a site by ID or exact name, soft-deleted sites included
func (p *SitePurger) Resolve(ctx context.Context, idOrName string) (*site.Site, error) {
	return p.repos.Sites().FindByIDOrName(ctx, idOrName)
}

// Purge deletes the site in one transaction. Users of the site are kept
// but left without a site. On failure nothing is deleted.
func (p *SitePurger) Purge(ctx context.Context, siteID uuid.UUID) (*PurgeReport, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "site_purger", "purge")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrSiteID, siteID.String())

	report := &PurgeReport{SiteID: siteID, Deleted: make(map[ledger.PurgeTarget]int64, len(PurgeOrder))}
	err := p.scope.Execute(ctx, func(repos ledger.Repositories) error {
		st, err := repos.Sites().FindByID(ctx, siteID)
		if err != nil {
			return err
		}
		report.SiteName = st.Name

		purge := repos.Purge()
		for _, target := range PurgeOrder {
			n, err := purge.DeleteAll(ctx, target, siteID)
			if err != nil {
				return err
			}
			report.Deleted[target] = n
		}
		if report.UsersUnassigned, err = purge.UnassignUsers(ctx, siteID); err != nil {
			return err
		}
		n, err := purge.DeleteSite(ctx, siteID)
		if err != nil {
			return err
		}
		if n != 1 {
			return shared.NewNotFoundError("Site")
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		if shared.IsNotFound(err) {
			return nil, err
		}
		p.logger.Error("Site purge failed, rolled back",
			zap.String("site_id", siteID.String()),
			zap.Error(err),
		)
		return nil, shared.NewFatalError("PURGE_FAILED", "Site purge failed and was rolled back", err)
	}

	fields := []zap.Field{
		zap.String("site_id", siteID.String()),
		zap.String("site_name", report.SiteName),
		zap.Int64("users_unassigned", report.UsersUnassigned),
	}
	for _, target := range PurgeOrder {
		fields = append(fields, zap.Int64(string(target), report.Deleted[target]))
	}
	p.logger.Info("Site purged", fields...)
	return report, nil
}
