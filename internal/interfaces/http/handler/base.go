package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sitemanager/backend/internal/domain/shared"
	"github.com/sitemanager/backend/internal/domain/site"
	"github.com/sitemanager/backend/internal/infrastructure/logger"
	"github.com/sitemanager/backend/internal/interfaces/http/dto"
	"github.com/sitemanager/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the given status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, middleware.RequestIDFromContext(c)))
}

// HandleError converts err into the response envelope. Domain errors keep
// their code, message and field; fatal and unknown errors are logged and
// answered with a generic 500.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	requestID := middleware.RequestIDFromContext(c)
	status := dto.StatusForError(err)

	de, ok := shared.AsDomainError(err)
	if !ok || de.Kind == shared.KindFatal {
		_ = c.Error(err)
		logger.L(c.Request.Context()).Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(status, dto.NewErrorResponseWithRequestID(dto.ErrCodeInternal, "An unexpected error occurred", requestID))
		return
	}

	c.JSON(status, dto.NewFieldErrorResponse(de.Code, de.Message, de.Field, requestID))
}

// bindJSON binds the request body and answers 400 on failure
func (h *BaseHandler) bindJSON(c *gin.Context, body any) bool {
	if err := c.ShouldBindJSON(body); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// bindQuery binds query parameters and answers 400 on failure
func (h *BaseHandler) bindQuery(c *gin.Context, query any) bool {
	if err := c.ShouldBindQuery(query); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// tenant returns the tenant context resolved by the site middleware
func (h *BaseHandler) tenant(c *gin.Context) (site.TenantContext, bool) {
	tc, ok := middleware.GetTenantContext(c)
	if !ok {
		h.HandleError(c, shared.ErrNoTenantContext)
		return site.TenantContext{}, false
	}
	return tc, true
}

// pathID parses the :id path parameter
func (h *BaseHandler) pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := dto.ParseID("id", c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return uuid.Nil, false
	}
	return id, true
}
