package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dafibh/loandesk/loandesk-backend/internal/domain"
	"github.com/dafibh/loandesk/loandesk-backend/internal/websocket"
	"github.com/shopspring/decimal"
)

func accountKey(product domain.Product, customerID string) string {
	return string(product) + "/" + customerID
}

// MockLoanAPI is an in-memory implementation of domain.LoanAPI
type MockLoanAPI struct {
	mu sync.Mutex

	Accounts  map[string]*domain.CustomerLoanAccount
	Schedules map[string][]domain.EmiScheduleEntry
	Overdue   map[domain.Product]*domain.OverdueList

	GetCustomerErr error
	GetScheduleErr error
	CollectErr     error
	OverdueErr     map[domain.Product]error

	// CollectFn replaces the default collect behaviour, which marks the EMI (or
	// every EMI for a full payment) paid and reduces the balance
	CollectFn func(req domain.CollectPaymentRequest) error
	// BeforeGetCustomer runs on every GetCustomer call, outside the lock
	BeforeGetCustomer func(product domain.Product, customerID string)
	// CollectStarted receives once per CollectPayment call when non-nil
	CollectStarted chan struct{}
	// CollectRelease blocks CollectPayment until closed when non-nil
	CollectRelease chan struct{}

	GetCustomerCalls int
	GetScheduleCalls int
	Collected        []domain.CollectPaymentRequest
}

// NewMockLoanAPI creates a new MockLoanAPI
func NewMockLoanAPI() *MockLoanAPI {
	return &MockLoanAPI{
		Accounts:   make(map[string]*domain.CustomerLoanAccount),
		Schedules:  make(map[string][]domain.EmiScheduleEntry),
		Overdue:    make(map[domain.Product]*domain.OverdueList),
		OverdueErr: make(map[domain.Product]error),
	}
}

// AddCustomer stores an account and its schedule
func (m *MockLoanAPI) AddCustomer(account *domain.CustomerLoanAccount, schedule []domain.EmiScheduleEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := accountKey(account.Product, account.ID)
	m.Accounts[key] = account
	m.Schedules[key] = schedule
}

// CollectCount returns how many payments reached the API
func (m *MockLoanAPI) CollectCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Collected)
}

// GetCustomer returns a copy of the stored account
func (m *MockLoanAPI) GetCustomer(ctx context.Context, product domain.Product, customerID string) (*domain.CustomerLoanAccount, error) {
	if m.BeforeGetCustomer != nil {
		m.BeforeGetCustomer(product, customerID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetCustomerCalls++
	if m.GetCustomerErr != nil {
		return nil, m.GetCustomerErr
	}
	account, ok := m.Accounts[accountKey(product, customerID)]
	if !ok {
		return nil, domain.ErrCustomerNotFound
	}
	out := *account
	return &out, nil
}

// GetSchedule returns a copy of the stored schedule
func (m *MockLoanAPI) GetSchedule(ctx context.Context, product domain.Product, customerID string) ([]domain.EmiScheduleEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetScheduleCalls++
	if m.GetScheduleErr != nil {
		return nil, m.GetScheduleErr
	}
	schedule, ok := m.Schedules[accountKey(product, customerID)]
	if !ok {
		return nil, domain.ErrCustomerNotFound
	}
	out := make([]domain.EmiScheduleEntry, len(schedule))
	copy(out, schedule)
	return out, nil
}

// CollectPayment records the request and applies it to the stored customer
func (m *MockLoanAPI) CollectPayment(ctx context.Context, req domain.CollectPaymentRequest) error {
	if m.CollectStarted != nil {
		m.CollectStarted <- struct{}{}
	}
	if m.CollectRelease != nil {
		select {
		case <-m.CollectRelease:
		case <-ctx.Done():
			return domain.ErrUpstreamTimeout
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Collected = append(m.Collected, req)
	if m.CollectFn != nil {
		return m.CollectFn(req)
	}
	if m.CollectErr != nil {
		return m.CollectErr
	}

	key := accountKey(req.Product, req.CustomerID)
	account, ok := m.Accounts[key]
	if !ok {
		return domain.ErrCustomerNotFound
	}

	paidAt := time.Now()
	schedule := m.Schedules[key]
	for i := range schedule {
		if schedule[i].IsPaid() {
			continue
		}
		if req.PaymentType == domain.PaymentTypeFull || (req.EmiIndex != nil && schedule[i].Index == *req.EmiIndex) {
			schedule[i].Status = domain.EmiStatusPaid
			schedule[i].PaidDate = &paidAt
			account.PaidEmis++
		}
	}

	account.TotalPaid = account.TotalPaid.Add(req.Amount)
	account.RemainingAmount = decimal.Max(account.RemainingAmount.Sub(req.Amount), decimal.Zero)
	if req.PaymentType == domain.PaymentTypeFull {
		account.RemainingAmount = decimal.Zero
		account.Status = domain.AccountStatusClosed
	}
	return nil
}

// GetOverdue returns the stored list for the product
func (m *MockLoanAPI) GetOverdue(ctx context.Context, product domain.Product) (*domain.OverdueList, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.OverdueErr[product]; err != nil {
		return nil, err
	}
	if list, ok := m.Overdue[product]; ok {
		return list, nil
	}
	return &domain.OverdueList{Product: product, Total: decimal.Zero}, nil
}

// MockCollectionAttemptRepository is an in-memory journal
type MockCollectionAttemptRepository struct {
	mu       sync.Mutex
	Attempts map[string]*domain.CollectionAttempt
	Now      func() time.Time

	CreateErr        error
	MarkSucceededErr error
}

// NewMockCollectionAttemptRepository creates a new MockCollectionAttemptRepository
func NewMockCollectionAttemptRepository() *MockCollectionAttemptRepository {
	return &MockCollectionAttemptRepository{
		Attempts: make(map[string]*domain.CollectionAttempt),
		Now:      time.Now,
	}
}

// Create stores a new attempt
func (m *MockCollectionAttemptRepository) Create(ctx context.Context, attempt *domain.CollectionAttempt) (*domain.CollectionAttempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	if _, exists := m.Attempts[attempt.IdempotencyKey]; exists {
		return nil, domain.ErrAttemptConflict
	}
	stored := *attempt
	now := m.Now()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	m.Attempts[stored.IdempotencyKey] = &stored
	out := stored
	return &out, nil
}

// GetByKey retrieves an attempt
func (m *MockCollectionAttemptRepository) GetByKey(ctx context.Context, key string) (*domain.CollectionAttempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	attempt, ok := m.Attempts[key]
	if !ok {
		return nil, domain.ErrAttemptNotFound
	}
	out := *attempt
	return &out, nil
}

// MarkSucceeded transitions an attempt to succeeded
func (m *MockCollectionAttemptRepository) MarkSucceeded(ctx context.Context, key string) (*domain.CollectionAttempt, error) {
	if m.MarkSucceededErr != nil {
		return nil, m.MarkSucceededErr
	}
	return m.setStatus(key, domain.AttemptStatusSucceeded, nil)
}

// MarkFailed transitions an attempt to failed unless it already succeeded
func (m *MockCollectionAttemptRepository) MarkFailed(ctx context.Context, key string, reason string) (*domain.CollectionAttempt, error) {
	return m.setStatus(key, domain.AttemptStatusFailed, &reason)
}

// MarkUnconfirmed transitions an attempt to unconfirmed unless it already succeeded
func (m *MockCollectionAttemptRepository) MarkUnconfirmed(ctx context.Context, key string, reason string) (*domain.CollectionAttempt, error) {
	return m.setStatus(key, domain.AttemptStatusUnconfirmed, &reason)
}

func (m *MockCollectionAttemptRepository) setStatus(key string, status domain.AttemptStatus, reason *string) (*domain.CollectionAttempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	attempt, ok := m.Attempts[key]
	if !ok {
		return nil, domain.ErrAttemptNotFound
	}
	if attempt.Status != domain.AttemptStatusSucceeded {
		attempt.Status = status
		attempt.FailureReason = reason
		attempt.UpdatedAt = m.Now()
	}
	out := *attempt
	return &out, nil
}

// ListPendingBefore returns pending attempts created before t, oldest first
func (m *MockCollectionAttemptRepository) ListPendingBefore(ctx context.Context, t time.Time) ([]*domain.CollectionAttempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.CollectionAttempt
	for _, a := range m.Attempts {
		if a.Status == domain.AttemptStatusPending && a.CreatedAt.Before(t) {
			copied := *a
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// DeleteBefore removes finished attempts created before t
func (m *MockCollectionAttemptRepository) DeleteBefore(ctx context.Context, t time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var deleted int64
	for key, a := range m.Attempts {
		if a.Status != domain.AttemptStatusPending && a.CreatedAt.Before(t) {
			delete(m.Attempts, key)
			deleted++
		}
	}
	return deleted, nil
}

// PublishedEvent is one event seen by MockPublisher
type PublishedEvent struct {
	Topic string
	Event websocket.Event
}

// MockPublisher records published events
type MockPublisher struct {
	mu     sync.Mutex
	events []PublishedEvent
}

// NewMockPublisher creates a new MockPublisher
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

// Publish records the event
func (m *MockPublisher) Publish(topic string, event websocket.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, PublishedEvent{Topic: topic, Event: event})
}

// Events returns a copy of everything published so far
func (m *MockPublisher) Events() []PublishedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]PublishedEvent, len(m.events))
	copy(out, m.events)
	return out
}

// ManualClock is a domain.Clock that only moves when told to
type ManualClock struct {
	mu sync.Mutex
	t  time.Time
}

// NewManualClock creates a ManualClock reading t
func NewManualClock(t time.Time) *ManualClock {
	return &ManualClock{t: t}
}

// Now returns the current manual time
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

// Advance moves the clock forward by d
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
