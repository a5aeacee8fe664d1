package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sitemanager/backend/internal/domain/shared"
	"github.com/sitemanager/backend/internal/domain/site"
	"github.com/sitemanager/backend/internal/infrastructure/logger"
	"github.com/sitemanager/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

const (
	// SiteHeaderKey carries the site a super-admin selected for the session
	SiteHeaderKey    = "X-Site-ID"
	TenantContextKey = "tenant_context"
	ActingSiteIDKey  = "acting_site_id"
)

// SiteMiddlewareConfig holds configuration for site resolution
type SiteMiddlewareConfig struct {
	// Sites, when set, rejects a selected site that is deleted or inactive
	Sites site.SiteRepository
	// SkipPaths are paths that don't require a site (e.g., health check)
	SkipPaths []string
	Logger    *zap.Logger
}

// DefaultSiteConfig returns default site middleware configuration
func DefaultSiteConfig() SiteMiddlewareConfig {
	return SiteMiddlewareConfig{
		SkipPaths: []string{"/health", "/ready", "/api/v1/health"},
	}
}

// SiteMiddleware resolves the acting site with default configuration
func SiteMiddleware() gin.HandlerFunc {
	return SiteMiddlewareWithConfig(DefaultSiteConfig())
}

// SiteMiddlewareWithConfig resolves the tenant context of the request.
// Regular users act on the site in their token and the X-Site-ID header
// is ignored for them. Super-admins act on the site named by X-Site-ID.
// Must run after the JWT middleware.
func SiteMiddlewareWithConfig(cfg SiteMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skipPath := range cfg.SkipPaths {
			if path == skipPath {
				c.Next()
				return
			}
		}

		actor := GetJWTActor(c)
		if actor == nil {
			abortWithError(c, shared.ErrNoTenantContext)
			return
		}

		acting := *actor
		if acting.IsSuperAdmin() {
			selected, ok := selectedSite(c)
			if !ok {
				return
			}
			acting.SelectedSiteID = selected
		}

		tc, err := site.NewTenantContext(site.StaticActor(&acting))
		if err != nil {
			if cfg.Logger != nil {
				cfg.Logger.Warn("No acting site for request",
					zap.String("user_id", acting.UserID.String()),
					zap.String("role", string(acting.Role)),
					zap.String("path", path),
				)
			}
			abortWithError(c, err)
			return
		}

		if acting.IsSuperAdmin() && cfg.Sites != nil {
			s, err := cfg.Sites.FindByID(c.Request.Context(), tc.SiteID)
			if err != nil {
				abortWithError(c, err)
				return
			}
			if s.IsDeleted() || !s.Active {
				abortWithError(c, shared.NewNotFoundError("site"))
				return
			}
		}

		c.Set(TenantContextKey, tc)
		c.Set(ActingSiteIDKey, tc.SiteID.String())

		ctx := c.Request.Context()
		ctx, _ = logger.WithSiteID(ctx, logger.FromContext(ctx), tc.SiteID.String())
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// selectedSite parses X-Site-ID. A missing header yields nil so that
// NewTenantContext reports the missing site.
func selectedSite(c *gin.Context) (*uuid.UUID, bool) {
	raw := strings.TrimSpace(c.GetHeader(SiteHeaderKey))
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewFieldErrorResponse(
			dto.ErrCodeInvalidSiteID, "X-Site-ID must be a valid UUID", SiteHeaderKey, RequestIDFromContext(c)))
		return nil, false
	}
	return &id, true
}

func abortWithError(c *gin.Context, err error) {
	code, message := dto.ErrCodeInternal, "An unexpected error occurred"
	if de, ok := shared.AsDomainError(err); ok && de.Kind != shared.KindFatal {
		code, message = de.Code, de.Message
	}
	c.AbortWithStatusJSON(dto.StatusForError(err),
		dto.NewErrorResponseWithRequestID(code, message, RequestIDFromContext(c)))
}

// GetTenantContext retrieves the resolved tenant context
func GetTenantContext(c *gin.Context) (site.TenantContext, bool) {
	if v, exists := c.Get(TenantContextKey); exists {
		if tc, ok := v.(site.TenantContext); ok {
			return tc, true
		}
	}
	return site.TenantContext{}, false
}

// GetActingSiteID returns the acting site as text, or empty
func GetActingSiteID(c *gin.Context) string {
	return c.GetString(ActingSiteIDKey)
}
