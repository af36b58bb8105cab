package shared

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details []ErrorDetail  `json:"details,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// ErrorDetail pinpoints one failing field, row or chassis number
type ErrorDetail struct {
	Field   string `json:"field,omitempty"`
	Row     int    `json:"row,omitempty"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is matches domain errors by code so wrapped sentinels compare equal
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithDetails returns a copy of the error carrying the given details
func (e *DomainError) WithDetails(details ...ErrorDetail) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: append(append([]ErrorDetail{}, e.Details...), details...),
		Meta:    e.Meta,
	}
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Error codes
const (
	CodeValidation  = "VALIDATION_ERROR"
	CodeConflict    = "CONFLICT"
	CodeNotFound    = "NOT_FOUND"
	CodeIntegrity   = "INTEGRITY_VIOLATION"
	CodeInvalid     = "INVALID_INPUT"
	CodeState       = "INVALID_STATE"
	CodeExists      = "ALREADY_EXISTS"
	CodeConcurrency = "CONCURRENCY_CONFLICT"
)

// Common domain errors
var (
	ErrValidation          = NewDomainError(CodeValidation, "Validation failed")
	ErrConflict            = NewDomainError(CodeConflict, "Conflicting concurrent update, retry the request")
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrIntegrity           = NewDomainError(CodeIntegrity, "Stored data violates an integrity invariant")
	ErrAlreadyExists       = NewDomainError(CodeExists, "Resource already exists")
	ErrInvalidInput        = NewDomainError(CodeInvalid, "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError(CodeConcurrency, "Resource was modified by another process")
	ErrInvalidState        = NewDomainError(CodeState, "Operation not allowed in current state")
)

// NewValidationError builds a VALIDATION_ERROR with a formatted message
func NewValidationError(format string, args ...any) *DomainError {
	return NewDomainError(CodeValidation, fmt.Sprintf(format, args...))
}

// NewNotFoundError builds a NOT_FOUND error naming the missing resource
func NewNotFoundError(resource string) *DomainError {
	return NewDomainError(CodeNotFound, resource+" not found")
}

// AsDomainError extracts the first DomainError in err's chain
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
