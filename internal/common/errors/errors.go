// Package errors provides standardized error handling for the verification pipeline.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Ground-truth store errors. Always contained per entity, never escalated
	// as a pipeline failure.
	ErrCodeLookupFailed             ErrorCode = "LOOKUP_FAILED"
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"

	// Cache errors. Recovered by disabling the cache for the current call.
	ErrCodeCacheUnavailable ErrorCode = "CACHE_UNAVAILABLE"

	// The only error that rejects a verification call.
	ErrCodeMalformedInput ErrorCode = "MALFORMED_INPUT"

	// Deadline errors produce partial results, not failures.
	ErrCodeTimeoutExceeded ErrorCode = "TIMEOUT_EXCEEDED"

	// Side channels: failures here never affect the verification outcome.
	ErrCodeAuditIndexFailed ErrorCode = "AUDIT_INDEX_FAILED"
	ErrCodeAlertSendFailed  ErrorCode = "ALERT_SEND_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewLookupFailedError creates a retryable ground-truth lookup error.
func NewLookupFailedError(entityType, entity string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLookupFailed,
		Message:   "Ground-truth store lookup failed",
		Details:   fmt.Sprintf("entityType: %s, entity: %s, error: %s", entityType, entity, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCacheUnavailableError creates a retryable cache store error.
func NewCacheUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCacheUnavailable,
		Message:   "Cache store unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewMalformedInputError creates a non-retryable input rejection.
func NewMalformedInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMalformedInput,
		Message:   "Response text rejected",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewTimeoutExceededError creates a timeout error for a verification stage.
func NewTimeoutExceededError(stage string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTimeoutExceeded,
		Message:   "Verification deadline exceeded",
		Details:   fmt.Sprintf("stage: %s", stage),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAuditIndexFailedError creates a retryable audit indexing error.
func NewAuditIndexFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAuditIndexFailed,
		Message:   "Audit event indexing failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAlertSendFailedError creates a retryable alert delivery error.
func NewAlertSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAlertSendFailed,
		Message:   "Alert delivery failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// IsRejection reports whether the error must abort the verification call.
// Everything else degrades into lower confidence instead.
func IsRejection(err error) bool {
	stdErr, ok := err.(*StandardError)
	return ok && stdErr.Code == ErrCodeMalformedInput
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "LOOKUP") || strings.Contains(codeStr, "DATABASE"):
		return "STORE"
	case strings.Contains(codeStr, "CACHE"):
		return "CACHE"
	case strings.Contains(codeStr, "INPUT"):
		return "INPUT"
	case strings.Contains(codeStr, "TIMEOUT"):
		return "TIMEOUT"
	case strings.Contains(codeStr, "AUDIT") || strings.Contains(codeStr, "ALERT"):
		return "SIDE_CHANNEL"
	default:
		return "OTHER"
	}
}
