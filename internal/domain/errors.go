package domain

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInternalError  = errors.New("internal error")
	ErrProductInvalid = errors.New("product must be 'stl' or 'lra'")
)

// Upstream (loan API) errors
var (
	ErrCustomerNotFound    = errors.New("customer not found")
	ErrUpstreamUnavailable = errors.New("loan API unavailable")
	ErrUpstreamTimeout     = errors.New("loan API request timed out")
)

// DefaultUpstreamMessage is shown when the loan API rejects a request without a message
const DefaultUpstreamMessage = "The loan service rejected the request"

// UpstreamError is a request the loan API answered with a 4xx/5xx status
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("loan API returned %d: %s", e.StatusCode, e.Message)
}

// NewUpstreamError builds an UpstreamError, falling back to the generic message
func NewUpstreamError(statusCode int, message string) *UpstreamError {
	if message == "" {
		message = DefaultUpstreamMessage
	}
	return &UpstreamError{StatusCode: statusCode, Message: message}
}

// IsValidationError reports whether err is a client-side validation failure that
// must be rejected before any request reaches the loan API
func IsValidationError(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

var validationErrors = []error{
	ErrInvalidInput,
	ErrProductInvalid,
	ErrPrincipalInvalid,
	ErrPrincipalTooLarge,
	ErrRateInvalid,
	ErrRateTooLarge,
	ErrTermInvalid,
	ErrFileChargeRateInvalid,
	ErrFrequencyInvalid,
	ErrPaymentAmountInvalid,
	ErrPaymentAmountTooLarge,
	ErrPaymentTypeInvalid,
	ErrEmiIndexRequired,
	ErrEmiIndexNotAllowed,
	ErrCustomerIDRequired,
	ErrIdempotencyKeyInvalid,
}
