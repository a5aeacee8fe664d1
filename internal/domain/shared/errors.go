package shared

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a domain error for the caller
type ErrorKind string

const (
	KindValidation   ErrorKind = "VALIDATION"
	KindConflict     ErrorKind = "CONFLICT"
	KindNotFound     ErrorKind = "NOT_FOUND"
	KindFatal        ErrorKind = "FATAL"
	KindUnauthorized ErrorKind = "UNAUTHORIZED"
)

// DomainError represents a domain-level error
type DomainError struct {
	Kind    ErrorKind `json:"kind"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Field   string    `json:"field,omitempty"`
	cause   error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Is matches domain errors by kind and code so sentinel comparisons
// survive field-specific copies.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(kind ErrorKind, code, message string) *DomainError {
	return &DomainError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates a client-correctable error bound to an input field
func NewValidationError(code, field, message string) *DomainError {
	return &DomainError{Kind: KindValidation, Code: code, Field: field, Message: message}
}

// NewConflictError creates an error for an operation rejected by current state
func NewConflictError(code, message string) *DomainError {
	return NewDomainError(KindConflict, code, message)
}

// NewNotFoundError creates a not-found error for the named resource
func NewNotFoundError(resource string) *DomainError {
	return NewDomainError(KindNotFound, "NOT_FOUND", resource+" not found")
}

// NewFatalError wraps an infrastructure failure that aborted a unit of work
func NewFatalError(code, message string, cause error) *DomainError {
	return &DomainError{Kind: KindFatal, Code: code, Message: message, cause: cause}
}

// Common domain errors
var (
	ErrNotFound        = NewDomainError(KindNotFound, "NOT_FOUND", "Resource not found")
	ErrInvalidInput    = NewDomainError(KindValidation, "INVALID_INPUT", "Invalid input provided")
	ErrNoTenantContext = NewDomainError(KindUnauthorized, "NO_TENANT_CONTEXT", "An authenticated actor with a site is required")
	ErrInvalidState    = NewDomainError(KindConflict, "INVALID_STATE", "Operation not allowed in current state")
)

// KindOf returns the kind of the first DomainError in err's chain.
// Errors that are not domain errors are reported as fatal.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindFatal
}

// AsDomainError extracts the first DomainError in err's chain
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	ok := errors.As(err, &de)
	return de, ok
}

func IsValidation(err error) bool { return err != nil && KindOf(err) == KindValidation }
func IsConflict(err error) bool   { return err != nil && KindOf(err) == KindConflict }
func IsNotFound(err error) bool   { return err != nil && KindOf(err) == KindNotFound }
func IsFatal(err error) bool      { return err != nil && KindOf(err) == KindFatal }
