package site

import (
	"context"

	"github.com/google/uuid"
)

// SiteRepository reads sites. Lookups include soft-deleted rows.
type SiteRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Site, error)
	// FindByIDOrName resolves a site by UUID text or exact name
	FindByIDOrName(ctx context.Context, idOrName string) (*Site, error)
	// ListActive returns active, non-deleted sites ordered by name
	ListActive(ctx context.Context) ([]Site, error)
	Save(ctx context.Context, s *Site) error
}
