package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sitemanager/backend/internal/interfaces/http/dto"
)

// DefaultBodyLimit bounds ledger request bodies. A collectMany with a few
// hundred items stays well below it.
const DefaultBodyLimit int64 = 1 << 20

// BodyLimit returns a middleware that limits request body size.
// A non-positive limit means DefaultBodyLimit.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	if maxBytes <= 0 {
		maxBytes = DefaultBodyLimit
	}
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeRequestTooLarge,
				"Request body exceeds maximum allowed size",
				RequestIDFromContext(c),
			))
			return
		}

		// Bodies without Content-Length are cut off while streaming.
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
