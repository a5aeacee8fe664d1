package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity carries identity and audit timestamps. Timestamps are UTC.
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBaseEntity returns an entity with a fresh ID stamped now
func NewBaseEntity() BaseEntity {
	now := time.Now().UTC()
	return BaseEntity{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
}

// Touch bumps UpdatedAt
func (e *BaseEntity) Touch() {
	e.UpdatedAt = time.Now().UTC()
}

// SiteEntity is embedded by every row owned by a single site
type SiteEntity struct {
	BaseEntity
	SiteID uuid.UUID
}

func NewSiteEntity(siteID uuid.UUID) SiteEntity {
	return SiteEntity{BaseEntity: NewBaseEntity(), SiteID: siteID}
}

