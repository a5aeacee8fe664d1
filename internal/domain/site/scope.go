package site

import (
	"github.com/google/uuid"
	"github.com/sitemanager/backend/internal/domain/shared"
)

// Role distinguishes regular site users from platform operators
type Role string

const (
	RoleUser       Role = "user"
	RoleSuperAdmin Role = "super_admin"
)

// Actor is whoever is performing an operation
type Actor struct {
	UserID uuid.UUID
	Role   Role
	// SiteID is the user's own site. Nil for unassigned users.
	SiteID *uuid.UUID
	// SelectedSiteID is the site a super-admin picked for the session.
	SelectedSiteID *uuid.UUID
}

// IsSuperAdmin reports whether the actor bypasses the forced site restriction
func (a *Actor) IsSuperAdmin() bool {
	return a.Role == RoleSuperAdmin
}

// ActorSource exposes the current actor without forcing it to be loaded.
// HasActor must be cheap and free of side effects so that background jobs
// and query hooks can call it outside of any request.
type ActorSource interface {
	HasActor() bool
	Actor() *Actor
}

// ResolveActingSiteID returns the site every scoped query should be
// restricted to, or nil when no default scoping applies.
func ResolveActingSiteID(src ActorSource) *uuid.UUID {
	if src == nil || !src.HasActor() {
		return nil
	}
	actor := src.Actor()
	if actor == nil {
		return nil
	}
	if actor.IsSuperAdmin() {
		return actor.SelectedSiteID
	}
	return actor.SiteID
}

// TenantContext is passed explicitly into every scoped repository and
// service call.
type TenantContext struct {
	SiteID  uuid.UUID
	ActorID uuid.UUID
	System  bool
}

// NewTenantContext resolves the tenant context for src.
// Returns ErrNoTenantContext when no site can be resolved.
func NewTenantContext(src ActorSource) (TenantContext, error) {
	siteID := ResolveActingSiteID(src)
	if siteID == nil || *siteID == uuid.Nil {
		return TenantContext{}, shared.ErrNoTenantContext
	}
	return TenantContext{SiteID: *siteID, ActorID: src.Actor().UserID}, nil
}

// SystemContext is the tenant context used by scheduled jobs acting on
// behalf of a site.
func SystemContext(siteID uuid.UUID) TenantContext {
	return TenantContext{SiteID: siteID, System: true}
}

// Require validates that the context carries a site
func (tc TenantContext) Require() error {
	if tc.SiteID == uuid.Nil {
		return shared.ErrNoTenantContext
	}
	return nil
}

// staticSource is an ActorSource for an already-loaded actor
type staticSource struct {
	actor *Actor
}

// StaticActor wraps an already-loaded actor. A nil actor means unauthenticated.
func StaticActor(a *Actor) ActorSource {
	return staticSource{actor: a}
}

func (s staticSource) HasActor() bool { return s.actor != nil }
func (s staticSource) Actor() *Actor  { return s.actor }
