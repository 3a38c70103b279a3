package service

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/dafibh/loandesk/loandesk-backend/internal/domain"
	"github.com/dafibh/loandesk/loandesk-backend/internal/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// CollectionResult is the authoritative state after a collection
type CollectionResult struct {
	IdempotencyKey string
	Attempt        *domain.CollectionAttempt
	// Replayed is true when the key had already been collected and nothing was re-sent
	Replayed bool
	// PayoffSettled is set for full payments: remaining balance zero and every EMI paid
	PayoffSettled *bool
	// Customer is nil when the post-collection refetch failed
	Customer *CustomerView
}

// CollectionRecordedPayload is broadcast to connected staff after a collection
type CollectionRecordedPayload struct {
	Product        domain.Product     `json:"product"`
	CustomerID     string             `json:"customerId"`
	PaymentType    domain.PaymentType `json:"paymentType"`
	EmiIndex       *int               `json:"emiIndex,omitempty"`
	Amount         decimal.Decimal    `json:"amount"`
	IdempotencyKey string             `json:"idempotencyKey"`
	StaffID        string             `json:"staffId"`
}

// PaymentCollector forwards collection intents to the loan API. It never does
// arithmetic on balances: after every collection it drops its view of the customer
// and refetches the authoritative state.
type PaymentCollector struct {
	api            domain.LoanAPI
	attempts       domain.CollectionAttemptRepository
	store          *AccountStore
	clock          domain.Clock
	policy         PenaltyPolicy
	eventPublisher websocket.EventPublisher
	newKey         func() string

	mu       sync.Mutex
	inFlight map[accountKey]struct{}
}

// NewPaymentCollector creates a new PaymentCollector
func NewPaymentCollector(api domain.LoanAPI, attempts domain.CollectionAttemptRepository, store *AccountStore, clock domain.Clock, policy PenaltyPolicy) *PaymentCollector {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &PaymentCollector{
		api:      api,
		attempts: attempts,
		store:    store,
		clock:    clock,
		policy:   policy,
		newKey:   uuid.NewString,
		inFlight: make(map[accountKey]struct{}),
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (c *PaymentCollector) SetEventPublisher(publisher websocket.EventPublisher) {
	c.eventPublisher = publisher
}

// publishEvent publishes a WebSocket event if a publisher is configured
func (c *PaymentCollector) publishEvent(product domain.Product, event websocket.Event) {
	if c.eventPublisher != nil {
		c.eventPublisher.Publish(string(product), event)
	}
}

// Collect records a payment with the loan API.
// Only one collection per customer may be in flight; a second one fails with
// ErrCollectionInFlight. A request whose idempotency key already succeeded is not
// re-sent, and a key whose earlier send went unanswered is only re-sent after the
// loan API shows the payment was not applied.
func (c *PaymentCollector) Collect(ctx context.Context, staffID string, req domain.CollectPaymentRequest) (*CollectionResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	key := accountKey{product: req.Product, customerID: req.CustomerID}
	if !c.acquire(key) {
		return nil, domain.ErrCollectionInFlight
	}
	defer c.release(key)

	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.newKey()
	}

	attempt, err := c.attempts.GetByKey(ctx, req.IdempotencyKey)
	switch {
	case err == nil:
		if !attempt.Matches(req) {
			return nil, domain.ErrAttemptConflict
		}
		switch attempt.Status {
		case domain.AttemptStatusSucceeded:
			return c.replay(ctx, req, attempt)
		case domain.AttemptStatusPending, domain.AttemptStatusUnconfirmed:
			// another process may have died mid-send, or the last answer was lost
			result, applied, err := c.resolveUnconfirmed(ctx, staffID, req)
			if err != nil || applied {
				return result, err
			}
		}
	case errors.Is(err, domain.ErrAttemptNotFound):
		attempt = nil
	default:
		return nil, err
	}

	if req.PaymentType == domain.PaymentTypeEMI {
		if err := c.checkInstallment(ctx, req); err != nil {
			return nil, err
		}
	}

	if attempt == nil {
		attempt, err = c.attempts.Create(ctx, &domain.CollectionAttempt{
			IdempotencyKey: req.IdempotencyKey,
			Product:        req.Product,
			CustomerID:     req.CustomerID,
			Amount:         req.Amount,
			PaymentType:    req.PaymentType,
			EmiIndex:       req.EmiIndex,
			Status:         domain.AttemptStatusPending,
			StaffID:        staffID,
		})
		if err != nil {
			return nil, err
		}
	}

	logger := log.With().
		Str("product", string(req.Product)).
		Str("customer_id", req.CustomerID).
		Str("payment_type", string(req.PaymentType)).
		Str("idempotency_key", req.IdempotencyKey).
		Str("staff_id", staffID).
		Logger()

	// Journal writes after the send must land even if the caller has gone away
	journalCtx := context.WithoutCancel(ctx)

	if err := c.api.CollectPayment(ctx, req); err != nil {
		// whatever we hold for the customer may no longer match the loan API
		c.store.Invalidate(req.Product, req.CustomerID)

		if isUnconfirmed(err) {
			if _, markErr := c.attempts.MarkUnconfirmed(journalCtx, req.IdempotencyKey, err.Error()); markErr != nil {
				logger.Error().Err(markErr).Msg("Failed to journal unconfirmed collection")
			}
			logger.Warn().Err(err).Msg("Collection outcome unknown")
			return nil, err
		}

		if _, markErr := c.attempts.MarkFailed(journalCtx, req.IdempotencyKey, err.Error()); markErr != nil {
			logger.Error().Err(markErr).Msg("Failed to journal failed collection")
		}
		logger.Warn().Err(err).Msg("Collection rejected")
		return nil, err
	}

	if updated, markErr := c.attempts.MarkSucceeded(journalCtx, req.IdempotencyKey); markErr != nil {
		logger.Error().Err(markErr).Msg("Failed to journal successful collection")
	} else {
		attempt = updated
	}

	logger.Info().Str("amount", req.Amount.String()).Msg("Payment collected")
	c.publishRecorded(staffID, req)

	result := &CollectionResult{IdempotencyKey: req.IdempotencyKey, Attempt: attempt}
	c.attachCustomer(journalCtx, req, result)
	return result, nil
}

// resolveUnconfirmed asks the loan API whether an unanswered collection was
// applied. When it was, the attempt is marked succeeded and a replayed result is
// returned; otherwise the collection still has to be sent.
func (c *PaymentCollector) resolveUnconfirmed(ctx context.Context, staffID string, req domain.CollectPaymentRequest) (*CollectionResult, bool, error) {
	snap, err := c.store.Refresh(ctx, req.Product, req.CustomerID)
	if err != nil {
		return nil, false, err
	}
	if !collectionApplied(req, snap) {
		return nil, false, nil
	}

	attempt, err := c.attempts.MarkSucceeded(context.WithoutCancel(ctx), req.IdempotencyKey)
	if err != nil {
		return nil, false, err
	}

	log.Info().
		Str("customer_id", req.CustomerID).
		Str("idempotency_key", req.IdempotencyKey).
		Msg("Unconfirmed collection found applied, not re-sending")
	c.publishRecorded(staffID, req)

	result := &CollectionResult{IdempotencyKey: req.IdempotencyKey, Attempt: attempt, Replayed: true}
	c.describe(req, snap, result)
	return result, true, nil
}

// collectionApplied reports whether snap already shows the effect of req
func collectionApplied(req domain.CollectPaymentRequest, snap *domain.AccountSnapshot) bool {
	switch req.PaymentType {
	case domain.PaymentTypeEMI:
		entry := domain.FindEntry(snap.Schedule, *req.EmiIndex)
		return entry != nil && entry.IsPaid()
	case domain.PaymentTypeFull:
		return snap.Account != nil && snap.Account.RemainingAmount.IsZero()
	}
	return false
}

// isUnconfirmed reports whether a send error leaves the outcome unknown: the
// request may have been applied even though no answer arrived
func isUnconfirmed(err error) bool {
	if errors.Is(err, domain.ErrUpstreamTimeout) ||
		errors.Is(err, domain.ErrUpstreamUnavailable) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var upstreamErr *domain.UpstreamError
	return errors.As(err, &upstreamErr) && upstreamErr.StatusCode >= http.StatusInternalServerError
}

func (c *PaymentCollector) publishRecorded(staffID string, req domain.CollectPaymentRequest) {
	c.publishEvent(req.Product, websocket.CollectionRecorded(CollectionRecordedPayload{
		Product:        req.Product,
		CustomerID:     req.CustomerID,
		PaymentType:    req.PaymentType,
		EmiIndex:       req.EmiIndex,
		Amount:         req.Amount,
		IdempotencyKey: req.IdempotencyKey,
		StaffID:        staffID,
	}))
}

// GetAttempt returns the journal entry for an idempotency key
func (c *PaymentCollector) GetAttempt(ctx context.Context, key string) (*domain.CollectionAttempt, error) {
	if l := len(key); l < domain.MinIdempotencyKeyLength || l > domain.MaxIdempotencyKeyLength {
		return nil, domain.ErrIdempotencyKeyInvalid
	}
	return c.attempts.GetByKey(ctx, key)
}

func (c *PaymentCollector) replay(ctx context.Context, req domain.CollectPaymentRequest, attempt *domain.CollectionAttempt) (*CollectionResult, error) {
	log.Info().
		Str("customer_id", req.CustomerID).
		Str("idempotency_key", req.IdempotencyKey).
		Msg("Collection already recorded, returning current state")

	result := &CollectionResult{IdempotencyKey: req.IdempotencyKey, Attempt: attempt, Replayed: true}
	c.attachCustomer(ctx, req, result)
	return result, nil
}

// checkInstallment rejects EMI collections the authoritative schedule cannot accept
func (c *PaymentCollector) checkInstallment(ctx context.Context, req domain.CollectPaymentRequest) error {
	snap, err := c.store.Get(ctx, req.Product, req.CustomerID)
	if err != nil {
		return err
	}
	entry := domain.FindEntry(snap.Schedule, *req.EmiIndex)
	if entry == nil {
		return domain.ErrEmiIndexOutOfRange
	}
	if entry.IsPaid() {
		return domain.ErrEmiAlreadyPaid
	}
	return nil
}

// attachCustomer replaces the customer view with a full refetch
func (c *PaymentCollector) attachCustomer(ctx context.Context, req domain.CollectPaymentRequest, result *CollectionResult) {
	snap, err := c.store.Refresh(ctx, req.Product, req.CustomerID)
	if err != nil {
		log.Warn().Err(err).
			Str("customer_id", req.CustomerID).
			Msg("Collection recorded but refetch failed")
		return
	}
	c.describe(req, snap, result)
}

// describe fills the customer view and, for full payments, whether the loan closed
func (c *PaymentCollector) describe(req domain.CollectPaymentRequest, snap *domain.AccountSnapshot, result *CollectionResult) {
	result.Customer = buildCustomerView(snap, c.clock, c.policy)

	if req.PaymentType == domain.PaymentTypeFull {
		settled := snap.Account != nil && snap.Account.RemainingAmount.IsZero() && domain.AllPaid(snap.Schedule)
		result.PayoffSettled = &settled
		if !settled {
			log.Warn().
				Str("customer_id", req.CustomerID).
				Str("idempotency_key", req.IdempotencyKey).
				Msg("Full payoff recorded but loan API still shows an outstanding balance")
		}
	}
}

func (c *PaymentCollector) acquire(key accountKey) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.inFlight[key]; busy {
		return false
	}
	c.inFlight[key] = struct{}{}
	return true
}

func (c *PaymentCollector) release(key accountKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inFlight, key)
}
