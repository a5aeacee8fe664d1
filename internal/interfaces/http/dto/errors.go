package dto

import (
	"net/http"

	"github.com/sitemanager/backend/internal/domain/shared"
)

// Error codes produced by the HTTP layer itself. Domain errors keep their
// own codes (OVERPAYMENT, AMOUNT_LOCKED...).
const (
	ErrCodeInternal        = "INTERNAL_ERROR"
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeInvalidJSON     = "INVALID_JSON"
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeInvalidID       = "INVALID_ID"
	ErrCodeInvalidDate     = "INVALID_DATE"
	ErrCodeInvalidAmount   = "INVALID_AMOUNT"
	ErrCodeInvalidSiteID   = "INVALID_SITE_ID"
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeTokenExpired    = "TOKEN_EXPIRED"
	ErrCodeTokenInvalid    = "INVALID_TOKEN"
	ErrCodeTokenNotValid   = "TOKEN_NOT_VALID"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
	ErrCodeRateLimited     = "RATE_LIMIT_EXCEEDED"
)

// KindHTTPStatus maps error kinds to HTTP status codes
var KindHTTPStatus = map[shared.ErrorKind]int{
	shared.KindValidation:   http.StatusBadRequest,
	shared.KindConflict:     http.StatusConflict,
	shared.KindNotFound:     http.StatusNotFound,
	shared.KindFatal:        http.StatusInternalServerError,
	shared.KindUnauthorized: http.StatusUnauthorized,
}

// StatusForKind returns the HTTP status for kind, 500 when unknown
func StatusForKind(kind shared.ErrorKind) int {
	if status, ok := KindHTTPStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// StatusForError classifies err the way HandleError does
func StatusForError(err error) int {
	return StatusForKind(shared.KindOf(err))
}
