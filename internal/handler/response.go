package handler

import (
	"errors"
	"net/http"

	"github.com/dafibh/loandesk/loandesk-backend/internal/domain"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// ProblemDetails represents an RFC 7807 Problem Details response
type ProblemDetails struct {
	Type     string            `json:"type"`
	Title    string            `json:"title"`
	Status   int               `json:"status"`
	Detail   string            `json:"detail,omitempty"`
	Instance string            `json:"instance,omitempty"`
	Errors   []ValidationError `json:"errors,omitempty"`
}

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error types
const (
	ErrorTypeValidation   = "https://loandesk.app/errors/validation"
	ErrorTypeNotFound     = "https://loandesk.app/errors/not-found"
	ErrorTypeUnauthorized = "https://loandesk.app/errors/unauthorized"
	ErrorTypeConflict     = "https://loandesk.app/errors/conflict"
	ErrorTypeInternal     = "https://loandesk.app/errors/internal"
	ErrorTypeUpstream     = "https://loandesk.app/errors/upstream"
	ErrorTypeUnavailable  = "https://loandesk.app/errors/unavailable"
	ErrorTypeTimeout      = "https://loandesk.app/errors/timeout"
)

func problem(c echo.Context, status int, errorType, title, detail string) error {
	return c.JSON(status, ProblemDetails{
		Type:     errorType,
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewValidationError creates a validation error response
func NewValidationError(c echo.Context, detail string, errors []ValidationError) error {
	return c.JSON(http.StatusBadRequest, ProblemDetails{
		Type:     ErrorTypeValidation,
		Title:    "Validation Error",
		Status:   http.StatusBadRequest,
		Detail:   detail,
		Instance: c.Request().URL.Path,
		Errors:   errors,
	})
}

// NewNotFoundError creates a not found error response
func NewNotFoundError(c echo.Context, detail string) error {
	return problem(c, http.StatusNotFound, ErrorTypeNotFound, "Not Found", detail)
}

// NewUnauthorizedError creates an unauthorized error response
func NewUnauthorizedError(c echo.Context, detail string) error {
	return problem(c, http.StatusUnauthorized, ErrorTypeUnauthorized, "Unauthorized", detail)
}

// NewConflictError creates a conflict error response
func NewConflictError(c echo.Context, detail string) error {
	return problem(c, http.StatusConflict, ErrorTypeConflict, "Conflict", detail)
}

// NewInternalError creates an internal error response
func NewInternalError(c echo.Context, detail string) error {
	return problem(c, http.StatusInternalServerError, ErrorTypeInternal, "Internal Server Error", detail)
}

// NewBadGatewayError reports a request the loan API rejected. detail is the loan
// API's own message.
func NewBadGatewayError(c echo.Context, detail string) error {
	return problem(c, http.StatusBadGateway, ErrorTypeUpstream, "Loan Service Error", detail)
}

// NewServiceUnavailableError creates a service unavailable error response
func NewServiceUnavailableError(c echo.Context, detail string) error {
	return problem(c, http.StatusServiceUnavailable, ErrorTypeUnavailable, "Service Unavailable", detail)
}

// NewGatewayTimeoutError creates a gateway timeout error response
func NewGatewayTimeoutError(c echo.Context, detail string) error {
	return problem(c, http.StatusGatewayTimeout, ErrorTypeTimeout, "Gateway Timeout", detail)
}

// fieldErrors maps validation sentinels to the request field they concern
var fieldErrors = map[error]ValidationError{
	domain.ErrProductInvalid:        {Field: "product", Message: "Product must be 'stl' or 'lra'"},
	domain.ErrPrincipalInvalid:      {Field: "principal", Message: "Must be a positive amount"},
	domain.ErrPrincipalTooLarge:     {Field: "principal", Message: "Must be at most 100000000"},
	domain.ErrRateInvalid:           {Field: "rate", Message: "Must be non-negative"},
	domain.ErrRateTooLarge:          {Field: "rate", Message: "Must be at most 100"},
	domain.ErrTermInvalid:           {Field: "term", Message: "Term is out of range"},
	domain.ErrFileChargeRateInvalid: {Field: "fileChargeRate", Message: "Must be between 0 and 1"},
	domain.ErrPaymentAmountInvalid:  {Field: "amount", Message: "Must be a positive amount"},
	domain.ErrPaymentAmountTooLarge: {Field: "amount", Message: "Must be at most 100000000"},
	domain.ErrPaymentTypeInvalid:    {Field: "paymentType", Message: "Must be 'emi' or 'full'"},
	domain.ErrEmiIndexRequired:      {Field: "emiIndex", Message: "Required for emi payments"},
	domain.ErrEmiIndexNotAllowed:    {Field: "emiIndex", Message: "Not allowed for full payments"},
	domain.ErrEmiIndexOutOfRange:    {Field: "emiIndex", Message: "Not part of the schedule"},
	domain.ErrCustomerIDRequired:    {Field: "customerId", Message: "Customer ID is required"},
	domain.ErrIdempotencyKeyInvalid: {Field: "Idempotency-Key", Message: "Must be 8 to 128 characters"},
}

func validationFields(err error) []ValidationError {
	for target, field := range fieldErrors {
		if errors.Is(err, target) {
			return []ValidationError{field}
		}
	}
	return nil
}

// respondServiceError maps a service error to its problem response. Errors that
// map to no known condition are logged and reported as internal with fallback.
func respondServiceError(c echo.Context, err error, fallback string) error {
	var upstreamErr *domain.UpstreamError

	switch {
	case domain.IsValidationError(err), errors.Is(err, domain.ErrEmiIndexOutOfRange):
		return NewValidationError(c, "Validation failed", validationFields(err))
	case errors.Is(err, domain.ErrCustomerNotFound):
		return NewNotFoundError(c, "Customer not found")
	case errors.Is(err, domain.ErrAttemptNotFound):
		return NewNotFoundError(c, "Collection attempt not found")
	case errors.Is(err, domain.ErrCollectionInFlight):
		return NewConflictError(c, "A collection for this customer is already in progress")
	case errors.Is(err, domain.ErrAttemptConflict):
		return NewConflictError(c, "Idempotency key was already used for a different collection")
	case errors.Is(err, domain.ErrEmiAlreadyPaid):
		return NewConflictError(c, "This EMI is already paid")
	case errors.As(err, &upstreamErr):
		return NewBadGatewayError(c, upstreamErr.Message)
	case errors.Is(err, domain.ErrUpstreamTimeout):
		return NewGatewayTimeoutError(c, "The loan service did not respond in time")
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		return NewServiceUnavailableError(c, "The loan service is unavailable")
	}

	log.Error().Err(err).Str("path", c.Request().URL.Path).Msg(fallback)
	return NewInternalError(c, fallback)
}
