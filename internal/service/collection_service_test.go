package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dafibh/loandesk/loandesk-backend/internal/domain"
	"github.com/dafibh/loandesk/loandesk-backend/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collectorFixture struct {
	collector *PaymentCollector
	api       *testutil.MockLoanAPI
	attempts  *testutil.MockCollectionAttemptRepository
	store     *AccountStore
	publisher *testutil.MockPublisher
}

func setupCollector(t *testing.T) *collectorFixture {
	t.Helper()

	api := testutil.NewMockLoanAPI()
	api.AddCustomer(lraCustomer("C-1"))
	attempts := testutil.NewMockCollectionAttemptRepository()
	clock := domain.FixedClock{T: testNow}
	store := NewAccountStore(api, clock, time.Minute)
	publisher := testutil.NewMockPublisher()

	collector := NewPaymentCollector(api, attempts, store, clock, DefaultPenaltyPolicy())
	collector.SetEventPublisher(publisher)

	return &collectorFixture{
		collector: collector,
		api:       api,
		attempts:  attempts,
		store:     store,
		publisher: publisher,
	}
}

func emiRequest(index int, key string) domain.CollectPaymentRequest {
	return domain.CollectPaymentRequest{
		Product:        domain.ProductLRA,
		CustomerID:     "C-1",
		Amount:         decimal.NewFromInt(4667),
		PaymentType:    domain.PaymentTypeEMI,
		EmiIndex:       intPtr(index),
		IdempotencyKey: key,
	}
}

func TestPaymentCollector_CollectEMI(t *testing.T) {
	f := setupCollector(t)

	result, err := f.collector.Collect(context.Background(), "auth0|staff", emiRequest(1, ""))
	require.NoError(t, err)

	assert.NotEmpty(t, result.IdempotencyKey)
	assert.False(t, result.Replayed)
	assert.Nil(t, result.PayoffSettled)

	require.NotNil(t, result.Attempt)
	assert.Equal(t, domain.AttemptStatusSucceeded, result.Attempt.Status)
	assert.Equal(t, "auth0|staff", result.Attempt.StaffID)

	// the generated key was forwarded
	require.Equal(t, 1, f.api.CollectCount())
	assert.Equal(t, result.IdempotencyKey, f.api.Collected[0].IdempotencyKey)

	// state comes from the refetch, not local arithmetic
	require.NotNil(t, result.Customer)
	assert.Equal(t, domain.EmiStatusPaid, result.Customer.Schedule[1].Status)
	assert.Equal(t, "4666", result.Customer.Account.RemainingAmount.String())
	assert.Equal(t, 2, result.Customer.Summary.PaidCount)

	events := f.publisher.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "lra", events[0].Topic)
	assert.Equal(t, "collection.recorded", events[0].Event.Type)
	payload, ok := events[0].Event.Payload.(CollectionRecordedPayload)
	require.True(t, ok)
	assert.Equal(t, "C-1", payload.CustomerID)
}

func TestPaymentCollector_ValidationNeverReachesAPI(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(r *domain.CollectPaymentRequest)
		expectedErr error
	}{
		{"zero amount", func(r *domain.CollectPaymentRequest) { r.Amount = decimal.Zero }, domain.ErrPaymentAmountInvalid},
		{"negative amount", func(r *domain.CollectPaymentRequest) { r.Amount = decimal.NewFromInt(-5) }, domain.ErrPaymentAmountInvalid},
		{"huge amount", func(r *domain.CollectPaymentRequest) { r.Amount = decimal.New(1, 9) }, domain.ErrPaymentAmountTooLarge},
		{"emi without index", func(r *domain.CollectPaymentRequest) { r.EmiIndex = nil }, domain.ErrEmiIndexRequired},
		{"full with index", func(r *domain.CollectPaymentRequest) { r.PaymentType = domain.PaymentTypeFull }, domain.ErrEmiIndexNotAllowed},
		{"unknown type", func(r *domain.CollectPaymentRequest) { r.PaymentType = "partial" }, domain.ErrPaymentTypeInvalid},
		{"short key", func(r *domain.CollectPaymentRequest) { r.IdempotencyKey = "abc" }, domain.ErrIdempotencyKeyInvalid},
		{"no customer", func(r *domain.CollectPaymentRequest) { r.CustomerID = " " }, domain.ErrCustomerIDRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupCollector(t)
			req := emiRequest(1, "")
			tt.mutate(&req)

			_, err := f.collector.Collect(context.Background(), "auth0|staff", req)

			assert.ErrorIs(t, err, tt.expectedErr)
			assert.Zero(t, f.api.CollectCount())
			assert.Empty(t, f.attempts.Attempts)
		})
	}
}

func TestPaymentCollector_RejectsPaidOrUnknownInstallment(t *testing.T) {
	f := setupCollector(t)

	_, err := f.collector.Collect(context.Background(), "auth0|staff", emiRequest(0, ""))
	assert.ErrorIs(t, err, domain.ErrEmiAlreadyPaid)

	_, err = f.collector.Collect(context.Background(), "auth0|staff", emiRequest(7, ""))
	assert.ErrorIs(t, err, domain.ErrEmiIndexOutOfRange)

	assert.Zero(t, f.api.CollectCount())
}

func TestPaymentCollector_UpstreamRejectionLeavesStateUntouched(t *testing.T) {
	f := setupCollector(t)
	f.api.CollectErr = domain.NewUpstreamError(400, "Customer account is frozen")

	_, err := f.collector.Collect(context.Background(), "auth0|staff", emiRequest(1, "retry-key-0001"))

	var upstreamErr *domain.UpstreamError
	require.True(t, errors.As(err, &upstreamErr))
	assert.Equal(t, "Customer account is frozen", upstreamErr.Message)

	attempt, err := f.attempts.GetByKey(context.Background(), "retry-key-0001")
	require.NoError(t, err)
	assert.Equal(t, domain.AttemptStatusFailed, attempt.Status)
	require.NotNil(t, attempt.FailureReason)
	assert.Contains(t, *attempt.FailureReason, "frozen")

	snap, err := f.store.Get(context.Background(), domain.ProductLRA, "C-1")
	require.NoError(t, err)
	assert.Equal(t, domain.EmiStatusPending, snap.Schedule[1].Status)
	assert.Equal(t, "9333", snap.Account.RemainingAmount.String())

	assert.Empty(t, f.publisher.Events())
}

func TestPaymentCollector_RetryAfterRejectionWithSameKey(t *testing.T) {
	f := setupCollector(t)
	f.api.CollectErr = domain.NewUpstreamError(422, "Amount does not match the EMI")

	_, err := f.collector.Collect(context.Background(), "auth0|staff", emiRequest(1, "retry-key-0002"))
	require.Error(t, err)

	f.api.CollectErr = nil
	result, err := f.collector.Collect(context.Background(), "auth0|staff", emiRequest(1, "retry-key-0002"))
	require.NoError(t, err)

	// a rejected collection was never applied, so sending again is safe
	assert.False(t, result.Replayed)
	assert.Equal(t, domain.AttemptStatusSucceeded, result.Attempt.Status)
	assert.Equal(t, 2, f.api.CollectCount())
}

// landThenTimeOut applies the EMI upstream and then loses the answer
func landThenTimeOut(f *collectorFixture, index int) func(req domain.CollectPaymentRequest) error {
	return func(req domain.CollectPaymentRequest) error {
		schedule := f.api.Schedules["lra/C-1"]
		schedule[index].Status = domain.EmiStatusPaid
		account := f.api.Accounts["lra/C-1"]
		account.PaidEmis++
		account.RemainingAmount = account.RemainingAmount.Sub(req.Amount)
		return domain.ErrUpstreamTimeout
	}
}

func TestPaymentCollector_TimeoutAfterLandingIsNotResent(t *testing.T) {
	f := setupCollector(t)
	f.api.CollectFn = landThenTimeOut(f, 1)

	_, err := f.collector.Collect(context.Background(), "auth0|staff", emiRequest(1, "retry-key-9999"))
	require.ErrorIs(t, err, domain.ErrUpstreamTimeout)

	attempt, err := f.attempts.GetByKey(context.Background(), "retry-key-9999")
	require.NoError(t, err)
	assert.Equal(t, domain.AttemptStatusUnconfirmed, attempt.Status)

	f.api.CollectFn = nil
	result, err := f.collector.Collect(context.Background(), "auth0|staff", emiRequest(1, "retry-key-9999"))
	require.NoError(t, err)

	assert.Equal(t, 1, f.api.CollectCount())
	assert.True(t, result.Replayed)
	assert.Equal(t, domain.AttemptStatusSucceeded, result.Attempt.Status)
	require.NotNil(t, result.Customer)
	assert.Equal(t, domain.EmiStatusPaid, result.Customer.Schedule[1].Status)
	assert.Equal(t, "4666", result.Customer.Account.RemainingAmount.String())

	events := f.publisher.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "collection.recorded", events[0].Event.Type)
}

func TestPaymentCollector_UnappliedTimeoutIsResent(t *testing.T) {
	f := setupCollector(t)
	f.api.CollectErr = domain.ErrUpstreamTimeout

	_, err := f.collector.Collect(context.Background(), "auth0|staff", emiRequest(1, "retry-key-0003"))
	require.ErrorIs(t, err, domain.ErrUpstreamTimeout)

	f.api.CollectErr = nil
	result, err := f.collector.Collect(context.Background(), "auth0|staff", emiRequest(1, "retry-key-0003"))
	require.NoError(t, err)

	assert.False(t, result.Replayed)
	assert.Equal(t, domain.AttemptStatusSucceeded, result.Attempt.Status)
	assert.Equal(t, 2, f.api.CollectCount())
}

func TestPaymentCollector_ServerErrorLeavesOutcomeUnknown(t *testing.T) {
	f := setupCollector(t)
	f.api.CollectErr = domain.NewUpstreamError(500, "")

	_, err := f.collector.Collect(context.Background(), "auth0|staff", emiRequest(1, "retry-key-0004"))
	require.Error(t, err)

	attempt, err := f.attempts.GetByKey(context.Background(), "retry-key-0004")
	require.NoError(t, err)
	assert.Equal(t, domain.AttemptStatusUnconfirmed, attempt.Status)
}

func TestPaymentCollector_UnconfirmedFullPayoffNotResent(t *testing.T) {
	f := setupCollector(t)
	full := domain.CollectPaymentRequest{
		Product:        domain.ProductLRA,
		CustomerID:     "C-1",
		Amount:         decimal.NewFromInt(9333),
		PaymentType:    domain.PaymentTypeFull,
		IdempotencyKey: "payoff-key-0001",
	}
	f.api.CollectFn = func(req domain.CollectPaymentRequest) error {
		for i := range f.api.Schedules["lra/C-1"] {
			f.api.Schedules["lra/C-1"][i].Status = domain.EmiStatusPaid
		}
		f.api.Accounts["lra/C-1"].RemainingAmount = decimal.Zero
		return context.Canceled
	}

	_, err := f.collector.Collect(context.Background(), "auth0|staff", full)
	require.ErrorIs(t, err, context.Canceled)

	f.api.CollectFn = nil
	result, err := f.collector.Collect(context.Background(), "auth0|staff", full)
	require.NoError(t, err)

	assert.Equal(t, 1, f.api.CollectCount())
	assert.True(t, result.Replayed)
	require.NotNil(t, result.PayoffSettled)
	assert.True(t, *result.PayoffSettled)
}

func TestPaymentCollector_FailedCollectionDropsCachedCustomer(t *testing.T) {
	f := setupCollector(t)

	_, err := f.store.Get(context.Background(), domain.ProductLRA, "C-1")
	require.NoError(t, err)
	f.api.CollectFn = landThenTimeOut(f, 1)

	_, err = f.collector.Collect(context.Background(), "auth0|staff", emiRequest(1, "retry-key-0005"))
	require.ErrorIs(t, err, domain.ErrUpstreamTimeout)

	snap, err := f.store.Get(context.Background(), domain.ProductLRA, "C-1")
	require.NoError(t, err)
	assert.Equal(t, domain.EmiStatusPaid, snap.Schedule[1].Status)
	assert.Equal(t, "4666", snap.Account.RemainingAmount.String())
}

func TestPaymentCollector_ReplaysSucceededKey(t *testing.T) {
	f := setupCollector(t)

	_, err := f.collector.Collect(context.Background(), "auth0|staff", emiRequest(1, "double-click-01"))
	require.NoError(t, err)

	result, err := f.collector.Collect(context.Background(), "auth0|staff", emiRequest(1, "double-click-01"))
	require.NoError(t, err)

	assert.True(t, result.Replayed)
	assert.Equal(t, 1, f.api.CollectCount())
	require.NotNil(t, result.Customer)
	assert.Equal(t, domain.EmiStatusPaid, result.Customer.Schedule[1].Status)
	assert.Len(t, f.publisher.Events(), 1)
}

func TestPaymentCollector_KeyReusedForDifferentCollection(t *testing.T) {
	f := setupCollector(t)

	_, err := f.collector.Collect(context.Background(), "auth0|staff", emiRequest(1, "reused-key-001"))
	require.NoError(t, err)

	_, err = f.collector.Collect(context.Background(), "auth0|staff", emiRequest(2, "reused-key-001"))
	assert.ErrorIs(t, err, domain.ErrAttemptConflict)
	assert.Equal(t, 1, f.api.CollectCount())
}

func TestPaymentCollector_OneCollectionInFlightPerCustomer(t *testing.T) {
	f := setupCollector(t)
	f.api.CollectStarted = make(chan struct{}, 1)
	f.api.CollectRelease = make(chan struct{})

	type outcome struct {
		result *CollectionResult
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := f.collector.Collect(context.Background(), "auth0|staff", emiRequest(1, ""))
		done <- outcome{result, err}
	}()

	select {
	case <-f.api.CollectStarted:
	case <-time.After(2 * time.Second):
		t.Fatal("first collection never reached the loan API")
	}

	_, err := f.collector.Collect(context.Background(), "auth0|other", emiRequest(1, ""))
	assert.ErrorIs(t, err, domain.ErrCollectionInFlight)

	close(f.api.CollectRelease)
	first := <-done
	require.NoError(t, first.err)
	assert.Equal(t, 1, f.api.CollectCount())

	// the guard is released afterwards
	_, err = f.collector.Collect(context.Background(), "auth0|staff", emiRequest(2, ""))
	assert.NoError(t, err)
}

func TestPaymentCollector_FullPayoffSettled(t *testing.T) {
	f := setupCollector(t)

	result, err := f.collector.Collect(context.Background(), "auth0|staff", domain.CollectPaymentRequest{
		Product:     domain.ProductLRA,
		CustomerID:  "C-1",
		Amount:      decimal.NewFromInt(9333),
		PaymentType: domain.PaymentTypeFull,
	})
	require.NoError(t, err)

	require.NotNil(t, result.PayoffSettled)
	assert.True(t, *result.PayoffSettled)
	assert.True(t, result.Customer.Account.RemainingAmount.IsZero())
	assert.Equal(t, 3, result.Customer.Summary.PaidCount)
}

func TestPaymentCollector_FullPayoffNotReflected(t *testing.T) {
	f := setupCollector(t)
	// the loan API acknowledges but does not close the loan
	f.api.CollectFn = func(req domain.CollectPaymentRequest) error { return nil }

	result, err := f.collector.Collect(context.Background(), "auth0|staff", domain.CollectPaymentRequest{
		Product:     domain.ProductLRA,
		CustomerID:  "C-1",
		Amount:      decimal.NewFromInt(9333),
		PaymentType: domain.PaymentTypeFull,
	})
	require.NoError(t, err)

	require.NotNil(t, result.PayoffSettled)
	assert.False(t, *result.PayoffSettled)
}

func TestPaymentCollector_RefetchFailureStillSucceeds(t *testing.T) {
	f := setupCollector(t)

	// warm the store so the installment check passes, then break reads
	_, err := f.store.Get(context.Background(), domain.ProductLRA, "C-1")
	require.NoError(t, err)
	f.api.GetCustomerErr = domain.ErrUpstreamUnavailable

	result, err := f.collector.Collect(context.Background(), "auth0|staff", emiRequest(1, ""))
	require.NoError(t, err)

	assert.Nil(t, result.Customer)
	assert.Equal(t, domain.AttemptStatusSucceeded, result.Attempt.Status)
}

func TestPaymentCollector_GetAttempt(t *testing.T) {
	f := setupCollector(t)

	_, err := f.collector.GetAttempt(context.Background(), "short")
	assert.ErrorIs(t, err, domain.ErrIdempotencyKeyInvalid)

	_, err = f.collector.GetAttempt(context.Background(), "unknown-key-01")
	assert.ErrorIs(t, err, domain.ErrAttemptNotFound)

	_, err = f.collector.Collect(context.Background(), "auth0|staff", emiRequest(1, "lookup-key-01"))
	require.NoError(t, err)

	attempt, err := f.collector.GetAttempt(context.Background(), "lookup-key-01")
	require.NoError(t, err)
	assert.Equal(t, domain.AttemptStatusSucceeded, attempt.Status)
	assert.Equal(t, "C-1", attempt.CustomerID)
}
