package domain

import (
	"errors"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
type HTTPError interface {
	error
	StatusCode() int
}

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// ErrConfirmationRequired is returned by destructive operations
	// that were issued without explicit user confirmation.
	ErrConfirmationRequired = errors.New("confirmation required")
)

// StoreError reports a failed round trip to the hosted store or identity
// provider. The message is what the caller displays next to the retry
// affordance; the cause stays available to errors.Is/As.
type StoreError struct {
	Op    string
	Cause error
}

func (e *StoreError) Error() string {
	if e.Cause == nil {
		return e.Op + " failed"
	}
	return e.Op + ": " + e.Cause.Error()
}

func (e *StoreError) Unwrap() error { return e.Cause }

// StatusCode implements HTTPError
func (e *StoreError) StatusCode() int { return http.StatusBadGateway }

// ConflictError represents a resource conflict with details about the existing resource
type ConflictError struct {
	Message      string // Human-readable error message
	ResourceType string // Type of resource (course, batch, profile)
	ResourceID   string // ID of the existing/conflicting resource
}

// Error implements the error interface
func (e *ConflictError) Error() string {
	return e.Message
}

// StatusCode implements the HTTPError interface
func (e *ConflictError) StatusCode() int {
	return http.StatusConflict
}

// Is allows errors.Is() to match against ErrConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}
