package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrPaymentAmountInvalid  = errors.New("payment amount must be positive")
	ErrPaymentAmountTooLarge = errors.New("payment amount exceeds the maximum loan amount")
	ErrPaymentTypeInvalid    = errors.New("payment type must be 'emi' or 'full'")
	ErrEmiIndexRequired      = errors.New("emi index is required for emi payments")
	ErrEmiIndexNotAllowed    = errors.New("emi index is not allowed for full payments")
	ErrEmiIndexOutOfRange    = errors.New("emi index is not part of the schedule")
	ErrEmiAlreadyPaid        = errors.New("emi is already paid")
	ErrCustomerIDRequired    = errors.New("customer ID is required")
	ErrIdempotencyKeyInvalid = errors.New("idempotency key must be 8 to 128 characters")
	ErrCollectionInFlight    = errors.New("a collection for this customer is already in progress")
	ErrAttemptNotFound       = errors.New("collection attempt not found")
	ErrAttemptConflict       = errors.New("idempotency key was already used for a different collection")
)

const (
	MinIdempotencyKeyLength = 8
	MaxIdempotencyKeyLength = 128
)

// PaymentType selects a single installment or a full payoff
type PaymentType string

const (
	PaymentTypeEMI  PaymentType = "emi"
	PaymentTypeFull PaymentType = "full"
)

// CollectPaymentRequest is a collection intent sent to the loan API
type CollectPaymentRequest struct {
	Product        Product
	CustomerID     string
	Amount         decimal.Decimal
	PaymentType    PaymentType
	EmiIndex       *int
	IdempotencyKey string
}

func (r *CollectPaymentRequest) Validate() error {
	if !r.Product.Valid() {
		return ErrProductInvalid
	}
	if strings.TrimSpace(r.CustomerID) == "" {
		return ErrCustomerIDRequired
	}
	if r.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrPaymentAmountInvalid
	}
	if r.Amount.GreaterThan(MaxPrincipal) {
		return ErrPaymentAmountTooLarge
	}
	switch r.PaymentType {
	case PaymentTypeEMI:
		if r.EmiIndex == nil || *r.EmiIndex < 0 {
			return ErrEmiIndexRequired
		}
	case PaymentTypeFull:
		if r.EmiIndex != nil {
			return ErrEmiIndexNotAllowed
		}
	default:
		return ErrPaymentTypeInvalid
	}
	if r.IdempotencyKey != "" {
		if l := len(r.IdempotencyKey); l < MinIdempotencyKeyLength || l > MaxIdempotencyKeyLength {
			return ErrIdempotencyKeyInvalid
		}
	}
	return nil
}

// AttemptStatus is the journal state of a collection attempt
type AttemptStatus string

const (
	AttemptStatusPending   AttemptStatus = "pending"
	AttemptStatusSucceeded AttemptStatus = "succeeded"
	AttemptStatusFailed    AttemptStatus = "failed"

	// AttemptStatusUnconfirmed means the request may have reached the loan API but
	// no answer came back. A retry checks the loan API before sending again.
	AttemptStatusUnconfirmed AttemptStatus = "unconfirmed"
)

// CollectionAttempt journals one submission so a retried request with the same
// idempotency key is never collected twice
type CollectionAttempt struct {
	IdempotencyKey string          `json:"idempotencyKey"`
	Product        Product         `json:"product"`
	CustomerID     string          `json:"customerId"`
	Amount         decimal.Decimal `json:"amount"`
	PaymentType    PaymentType     `json:"paymentType"`
	EmiIndex       *int            `json:"emiIndex,omitempty"`
	Status         AttemptStatus   `json:"status"`
	FailureReason  *string         `json:"failureReason,omitempty"`
	StaffID        string          `json:"staffId"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// Matches reports whether the attempt describes the same collection as req
func (a *CollectionAttempt) Matches(req CollectPaymentRequest) bool {
	if a.Product != req.Product || a.CustomerID != req.CustomerID || a.PaymentType != req.PaymentType {
		return false
	}
	if !a.Amount.Equal(req.Amount) {
		return false
	}
	if (a.EmiIndex == nil) != (req.EmiIndex == nil) {
		return false
	}
	return a.EmiIndex == nil || *a.EmiIndex == *req.EmiIndex
}

type CollectionAttemptRepository interface {
	Create(ctx context.Context, attempt *CollectionAttempt) (*CollectionAttempt, error)
	GetByKey(ctx context.Context, key string) (*CollectionAttempt, error)
	MarkSucceeded(ctx context.Context, key string) (*CollectionAttempt, error)
	MarkFailed(ctx context.Context, key string, reason string) (*CollectionAttempt, error)
	MarkUnconfirmed(ctx context.Context, key string, reason string) (*CollectionAttempt, error)
	// ListPendingBefore returns attempts still pending that were created before t
	ListPendingBefore(ctx context.Context, t time.Time) ([]*CollectionAttempt, error)
	// DeleteBefore removes attempts created before t and returns how many were removed
	DeleteBefore(ctx context.Context, t time.Time) (int64, error)
}
