package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sitemanager/backend/internal/domain/ledger"
	"github.com/sitemanager/backend/internal/infrastructure/persistence/models"
	"github.com/sitemanager/backend/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
)

// purgeStatements holds the unscoped DELETE for every purge target.
// Pivot and item tables have no site_id and are reached through their parent.
var purgeStatements = map[ledger.PurgeTarget]string{
	ledger.PurgeReceiptItems:       "DELETE FROM receipt_items WHERE receipt_id IN (SELECT id FROM receipts WHERE site_id = ?)",
	ledger.PurgeReceipts:           "DELETE FROM receipts WHERE site_id = ?",
	ledger.PurgePaymentItems:       "DELETE FROM payment_items WHERE payment_id IN (SELECT id FROM payments WHERE site_id = ?)",
	ledger.PurgePayments:           "DELETE FROM payments WHERE site_id = ?",
	ledger.PurgeCharges:            "DELETE FROM charges WHERE site_id = ?",
	ledger.PurgeExpenses:           "DELETE FROM expenses WHERE site_id = ?",
	ledger.PurgeTemplateAidatUnits: "DELETE FROM template_aidat_apartments WHERE template_id IN (SELECT id FROM template_aidats WHERE site_id = ?)",
	ledger.PurgeTemplateAidat:      "DELETE FROM template_aidats WHERE site_id = ?",
	ledger.PurgeTemplateExpenses:   "DELETE FROM template_expenses WHERE site_id = ?",
	ledger.PurgeApartmentResidents: "DELETE FROM apartment_residents WHERE apartment_id IN (SELECT id FROM apartments WHERE site_id = ?)",
	ledger.PurgeApartments:         "DELETE FROM apartments WHERE site_id = ?",
	ledger.PurgeCashAccounts:       "DELETE FROM cash_accounts WHERE site_id = ?",
	ledger.PurgeAccounts:           "DELETE FROM accounts WHERE site_id = ?",
	ledger.PurgeVendors:            "DELETE FROM vendors WHERE site_id = ?",
	ledger.PurgeDocumentSequences:  "DELETE FROM document_sequences WHERE site_id = ?",
}

// GormPurgeRepository deletes a site's rows across the tenant boundary
type GormPurgeRepository struct {
	sdb *tenant.SiteDB
}

// NewGormPurgeRepository creates a new GormPurgeRepository
func NewGormPurgeRepository(db *gorm.DB) *GormPurgeRepository {
	return &GormPurgeRepository{sdb: tenant.NewSiteDB(db)}
}

// DeleteAll removes every row of target belonging to siteID
func (r *GormPurgeRepository) DeleteAll(ctx context.Context, target ledger.PurgeTarget, siteID uuid.UUID) (int64, error) {
	stmt, ok := purgeStatements[target]
	if !ok {
		return 0, fmt.Errorf("unknown purge target %q", target)
	}
	res := r.sdb.Unscoped(ctx).Exec(stmt, siteID)
	return res.RowsAffected, res.Error
}

// UnassignUsers clears site_id on the site's users
func (r *GormPurgeRepository) UnassignUsers(ctx context.Context, siteID uuid.UUID) (int64, error) {
	res := r.sdb.Unscoped(ctx).Model(&models.UserModel{}).
		Where("site_id = ?", siteID).
		Updates(map[string]any{"site_id": nil, "updated_at": time.Now().UTC()})
	return res.RowsAffected, res.Error
}

// DeleteSite hard-deletes the site row, soft-deleted or not
func (r *GormPurgeRepository) DeleteSite(ctx context.Context, siteID uuid.UUID) (int64, error) {
	res := r.sdb.Unscoped(ctx).Unscoped().Delete(&models.SiteModel{}, "id = ?", siteID)
	return res.RowsAffected, res.Error
}

// Ensure GormPurgeRepository implements PurgeRepository
var _ ledger.PurgeRepository = (*GormPurgeRepository)(nil)
