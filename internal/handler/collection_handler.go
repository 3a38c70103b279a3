package handler

import (
	"net/http"
	"strings"

	"github.com/dafibh/loandesk/loandesk-backend/internal/domain"
	"github.com/dafibh/loandesk/loandesk-backend/internal/middleware"
	"github.com/dafibh/loandesk/loandesk-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// IdempotencyKeyHeader carries the client's key for a collection submission
const IdempotencyKeyHeader = "Idempotency-Key"

// CollectionHandler handles payment collection requests
type CollectionHandler struct {
	collector *service.PaymentCollector
}

// NewCollectionHandler creates a new CollectionHandler
func NewCollectionHandler(collector *service.PaymentCollector) *CollectionHandler {
	return &CollectionHandler{collector: collector}
}

// CollectPaymentRequest represents the collect payment request body
type CollectPaymentRequest struct {
	Amount      string `json:"amount"`
	PaymentType string `json:"paymentType"`
	EmiIndex    *int   `json:"emiIndex,omitempty"`
}

// CollectionAttemptResponse represents a journaled collection attempt
type CollectionAttemptResponse struct {
	IdempotencyKey string  `json:"idempotencyKey"`
	Product        string  `json:"product"`
	CustomerID     string  `json:"customerId"`
	Amount         string  `json:"amount"`
	PaymentType    string  `json:"paymentType"`
	EmiIndex       *int    `json:"emiIndex,omitempty"`
	Status         string  `json:"status"`
	FailureReason  *string `json:"failureReason,omitempty"`
	StaffID        string  `json:"staffId"`
	CreatedAt      string  `json:"createdAt"`
	UpdatedAt      string  `json:"updatedAt"`
}

// CollectPaymentResponse represents the state after a collection
type CollectPaymentResponse struct {
	IdempotencyKey string                     `json:"idempotencyKey"`
	Replayed       bool                       `json:"replayed"`
	PayoffSettled  *bool                      `json:"payoffSettled,omitempty"`
	Attempt        *CollectionAttemptResponse `json:"attempt,omitempty"`
	// Customer is omitted when the payment landed but the refetch failed
	Customer *CustomerResponse `json:"customer,omitempty"`
}

// CollectPayment records an EMI or full payment with the loan API
// @Summary Collect payment
// @Description Forwards the payment to the loan API and returns the refetched customer. Send an Idempotency-Key header to make retries safe.
// @Tags collections
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param product path string true "Product (stl or lra)"
// @Param id path string true "Customer ID"
// @Param Idempotency-Key header string false "Client idempotency key (8-128 chars)"
// @Param request body CollectPaymentRequest true "Payment"
// @Success 200 {object} CollectPaymentResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Failure 429 {object} ProblemDetails
// @Failure 502 {object} ProblemDetails
// @Failure 503 {object} ProblemDetails
// @Failure 504 {object} ProblemDetails
// @Router /customers/{product}/{id}/collect [post]
func (h *CollectionHandler) CollectPayment(c echo.Context) error {
	staffID := middleware.GetStaffID(c)
	if staffID == "" {
		return NewUnauthorizedError(c, "Staff identity required")
	}

	product, err := domain.ParseProduct(c.Param("product"))
	if err != nil {
		return respondServiceError(c, err, "Failed to collect payment")
	}

	var req CollectPaymentRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	amount, fieldErr := parseDecimalField(req.Amount, "amount")
	if fieldErr != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{*fieldErr})
	}

	result, err := h.collector.Collect(c.Request().Context(), staffID, domain.CollectPaymentRequest{
		Product:        product,
		CustomerID:     c.Param("id"),
		Amount:         amount,
		PaymentType:    domain.PaymentType(strings.ToLower(strings.TrimSpace(req.PaymentType))),
		EmiIndex:       req.EmiIndex,
		IdempotencyKey: strings.TrimSpace(c.Request().Header.Get(IdempotencyKeyHeader)),
	})
	if err != nil {
		return respondServiceError(c, err, "Failed to collect payment")
	}

	c.Response().Header().Set(IdempotencyKeyHeader, result.IdempotencyKey)

	response := CollectPaymentResponse{
		IdempotencyKey: result.IdempotencyKey,
		Replayed:       result.Replayed,
		PayoffSettled:  result.PayoffSettled,
	}
	if result.Attempt != nil {
		attempt := toAttemptResponse(result.Attempt)
		response.Attempt = &attempt
	}
	if result.Customer != nil {
		customer := toCustomerResponse(result.Customer)
		response.Customer = &customer
	}

	return c.JSON(http.StatusOK, response)
}

// GetAttempt returns the journal entry for an idempotency key
// @Summary Get collection attempt
// @Description Lets a client that lost the response learn whether its collection went through
// @Tags collections
// @Produce json
// @Security BearerAuth
// @Param key path string true "Idempotency key"
// @Success 200 {object} CollectionAttemptResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /collections/{key} [get]
func (h *CollectionHandler) GetAttempt(c echo.Context) error {
	attempt, err := h.collector.GetAttempt(c.Request().Context(), c.Param("key"))
	if err != nil {
		return respondServiceError(c, err, "Failed to get collection attempt")
	}
	return c.JSON(http.StatusOK, toAttemptResponse(attempt))
}

func toAttemptResponse(a *domain.CollectionAttempt) CollectionAttemptResponse {
	return CollectionAttemptResponse{
		IdempotencyKey: a.IdempotencyKey,
		Product:        string(a.Product),
		CustomerID:     a.CustomerID,
		Amount:         a.Amount.StringFixed(2),
		PaymentType:    string(a.PaymentType),
		EmiIndex:       a.EmiIndex,
		Status:         string(a.Status),
		FailureReason:  a.FailureReason,
		StaffID:        a.StaffID,
		CreatedAt:      a.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:      a.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
