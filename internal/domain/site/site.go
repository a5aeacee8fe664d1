package site

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sitemanager/backend/internal/domain/shared"
)

// Site is the tenant root. Every ledger row carries its ID.
type Site struct {
	shared.BaseEntity
	Name      string
	Active    bool
	DeletedAt *time.Time
}

// NewSite creates an active site
func NewSite(name string) (*Site, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewValidationError("INVALID_SITE_NAME", "name", "Site name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewValidationError("INVALID_SITE_NAME", "name", "Site name cannot exceed 200 characters")
	}
	return &Site{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		Active:     true,
	}, nil
}

// IsDeleted reports whether the site was soft-deleted
func (s *Site) IsDeleted() bool {
	return s.DeletedAt != nil
}

// User is the part of an account the ledger needs: its site assignment.
type User struct {
	shared.BaseEntity
	Name         string
	Email        string
	SiteID       *uuid.UUID
	IsSuperAdmin bool
}
