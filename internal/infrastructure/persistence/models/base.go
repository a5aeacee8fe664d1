package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/sitemanager/backend/internal/domain/shared"
)

// BaseModel provides common persistence fields for all models.
// It maps to the domain's BaseEntity.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// ToDomain converts BaseModel to domain BaseEntity
func (m *BaseModel) ToDomain() shared.BaseEntity {
	return shared.BaseEntity{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomainBaseEntity populates BaseModel from domain BaseEntity
func (m *BaseModel) FromDomainBaseEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}

// SiteScopedModel adds the owning site to BaseModel
type SiteScopedModel struct {
	BaseModel
	SiteID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// ToDomainSiteEntity converts SiteScopedModel to domain SiteEntity
func (m *SiteScopedModel) ToDomainSiteEntity() shared.SiteEntity {
	return shared.SiteEntity{
		BaseEntity: m.BaseModel.ToDomain(),
		SiteID:     m.SiteID,
	}
}

// FromDomainSiteEntity populates SiteScopedModel from domain SiteEntity
func (m *SiteScopedModel) FromDomainSiteEntity(e shared.SiteEntity) {
	m.FromDomainBaseEntity(e.BaseEntity)
	m.SiteID = e.SiteID
}
