package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/sitemanager/backend/internal/domain/site"
	"gorm.io/gorm"
)

// SiteModel is the persistence model for the sites table
type SiteModel struct {
	BaseModel
	Name      string         `gorm:"type:varchar(200);not null;index"`
	Active    bool           `gorm:"not null"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// TableName returns the table name for GORM
func (SiteModel) TableName() string {
	return "sites"
}

// ToDomain converts the model to a domain Site
func (m *SiteModel) ToDomain() *site.Site {
	s := &site.Site{
		BaseEntity: m.BaseModel.ToDomain(),
		Name:       m.Name,
		Active:     m.Active,
	}
	if m.DeletedAt.Valid {
		t := m.DeletedAt.Time
		s.DeletedAt = &t
	}
	return s
}

// FromDomain populates the model from a domain Site
func (m *SiteModel) FromDomain(s *site.Site) {
	m.FromDomainBaseEntity(s.BaseEntity)
	m.Name = s.Name
	m.Active = s.Active
	m.DeletedAt = gorm.DeletedAt{}
	if s.DeletedAt != nil {
		m.DeletedAt = gorm.DeletedAt{Time: *s.DeletedAt, Valid: true}
	}
}

// SiteModelFromDomain creates a model from a domain Site
func SiteModelFromDomain(s *site.Site) *SiteModel {
	m := &SiteModel{}
	m.FromDomain(s)
	return m
}

// UserModel is the part of the users table the ledger touches
type UserModel struct {
	BaseModel
	Name         string     `gorm:"type:varchar(200);not null"`
	Email        string     `gorm:"type:varchar(200);not null;uniqueIndex"`
	SiteID       *uuid.UUID `gorm:"type:uuid;index"`
	IsSuperAdmin bool       `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the model to a domain User
func (m *UserModel) ToDomain() *site.User {
	return &site.User{
		BaseEntity:   m.BaseModel.ToDomain(),
		Name:         m.Name,
		Email:        m.Email,
		SiteID:       m.SiteID,
		IsSuperAdmin: m.IsSuperAdmin,
	}
}

// UserModelFromDomain creates a model from a domain User
func UserModelFromDomain(u *site.User) *UserModel {
	m := &UserModel{
		Name:         u.Name,
		Email:        u.Email,
		SiteID:       u.SiteID,
		IsSuperAdmin: u.IsSuperAdmin,
	}
	m.FromDomainBaseEntity(u.BaseEntity)
	if m.CreatedAt.IsZero() {
		now := time.Now().UTC()
		m.CreatedAt, m.UpdatedAt = now, now
	}
	return m
}
