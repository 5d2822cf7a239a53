package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/feral-file/ff-editions/internal/domain"
)

// ErrorCode represents a standardized error code
type ErrorCode string

const (
	// Client errors (4xx)
	ErrCodeBadRequest       ErrorCode = "bad_request"
	ErrCodeNotFound         ErrorCode = "not_found"
	ErrCodeValidationFailed ErrorCode = "validation_failed"
	ErrCodeUnauthorized     ErrorCode = "unauthorized"
	ErrCodeForbidden        ErrorCode = "forbidden"
	ErrCodeConflict         ErrorCode = "conflict"
	ErrCodeRateLimited      ErrorCode = "rate_limited"
	ErrCodePayloadTooLarge  ErrorCode = "payload_too_large"

	// Server errors (5xx)
	ErrCodeInternalError    ErrorCode = "internal_error"
	ErrCodeChainUnavailable ErrorCode = "chain_unavailable"
)

// APIError represents a structured API error that carries error code and details
type APIError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`

	// Rate limit rejections only
	Reason            domain.RateLimitReason `json:"reason,omitempty"`
	ResetAt           *time.Time             `json:"reset_at,omitempty"`
	RetryAfterSeconds int                    `json:"retry_after_seconds,omitempty"`
}

func (e *APIError) Error() string {
	jsonErr, _ := json.Marshal(e)
	return string(jsonErr)
}

// Response is the envelope every error is written in
type Response struct {
	Error *APIError `json:"error"`
}

// Error constructors for common error types
func NewBadRequestError(message string, details ...string) *APIError {
	return &APIError{
		Code:    ErrCodeBadRequest,
		Message: message,
		Details: strings.Join(details, ", "),
	}
}

func NewNotFoundError(message string, details ...string) *APIError {
	return &APIError{
		Code:    ErrCodeNotFound,
		Message: message,
		Details: strings.Join(details, ", "),
	}
}

func NewValidationError(details ...string) *APIError {
	return &APIError{
		Code:    ErrCodeValidationFailed,
		Message: "Validation failed",
		Details: strings.Join(details, ", "),
	}
}

func NewUnauthorizedError(message string, details ...string) *APIError {
	return &APIError{
		Code:    ErrCodeUnauthorized,
		Message: message,
		Details: strings.Join(details, ", "),
	}
}

func NewForbiddenError(message string, details ...string) *APIError {
	return &APIError{
		Code:    ErrCodeForbidden,
		Message: message,
		Details: strings.Join(details, ", "),
	}
}

func NewConflictError(message string, details ...string) *APIError {
	return &APIError{
		Code:    ErrCodeConflict,
		Message: message,
		Details: strings.Join(details, ", "),
	}
}

func NewPayloadTooLargeError(limit int64) *APIError {
	return &APIError{
		Code:    ErrCodePayloadTooLarge,
		Message: fmt.Sprintf("Request body exceeds %d bytes", limit),
	}
}

func NewInternalError(message string, details ...string) *APIError {
	return &APIError{
		Code:    ErrCodeInternalError,
		Message: message,
		Details: strings.Join(details, ", "),
	}
}

func NewChainUnavailableError(details ...string) *APIError {
	return &APIError{
		Code:    ErrCodeChainUnavailable,
		Message: "Blockchain temporarily unavailable, retry later",
		Details: strings.Join(details, ", "),
	}
}

// NewRateLimitedError builds the body of a 429 response
func NewRateLimitedError(reason domain.RateLimitReason, retryAfter time.Duration, resetAt time.Time) *APIError {
	seconds := int((retryAfter + time.Second - 1) / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	reset := resetAt.UTC()
	return &APIError{
		Code:              ErrCodeRateLimited,
		Message:           "Too many attempts",
		Reason:            reason,
		ResetAt:           &reset,
		RetryAfterSeconds: seconds,
	}
}

// FromDomainError maps a service error to its HTTP status and body. Errors outside the
// domain taxonomy map to 500.
func FromDomainError(err error) (int, *APIError) {
	switch {
	case errors.Is(err, domain.ErrPostNotFound),
		errors.Is(err, domain.ErrPurchaseNotFound),
		errors.Is(err, domain.ErrCollectionNotFound):
		return http.StatusNotFound, NewNotFoundError(err.Error())
	case errors.Is(err, domain.ErrNotOwner):
		return http.StatusForbidden, NewForbiddenError("Record belongs to another user")
	case errors.Is(err, domain.ErrWrongPostKind),
		errors.Is(err, domain.ErrInvalidSignature),
		errors.Is(err, domain.ErrInvalidWallet),
		errors.Is(err, domain.ErrMissingWallet):
		return http.StatusUnprocessableEntity, NewValidationError(err.Error())
	case errors.Is(err, domain.ErrCancelNotAllowed),
		errors.Is(err, domain.ErrSignatureConflict),
		errors.Is(err, domain.ErrInvalidStatusTransition):
		return http.StatusConflict, NewConflictError(err.Error())
	case errors.Is(err, domain.ErrTransientChain):
		return http.StatusServiceUnavailable, NewChainUnavailableError()
	default:
		return http.StatusInternalServerError, NewInternalError("Internal server error")
	}
}
