package service

import (
	"context"
	"sync"
	"time"

	"github.com/dafibh/loandesk/loandesk-backend/internal/domain"
	"github.com/rs/zerolog/log"
)

// DefaultAccountCacheTTL bounds how long a snapshot is served without refetching
const DefaultAccountCacheTTL = 30 * time.Second

// maxStaleRetries is how many times Get refetches when an invalidation lands
// while its fetch was in flight
const maxStaleRetries = 2

type accountKey struct {
	product    domain.Product
	customerID string
}

type accountEntry struct {
	// invalidatedAt is the store generation of the last invalidation of this key
	invalidatedAt uint64
	snapshot      *domain.AccountSnapshot
	// loading counts fetches in flight; the entry is kept while any are
	loading int
}

// AccountStore is the single local view of authoritative loan API state, keyed by
// customer. It only ever replaces snapshots wholesale; a fetch that started before
// an invalidation of the same key is never stored.
// It is safe for concurrent use.
type AccountStore struct {
	api        domain.LoanAPI
	clock      domain.Clock
	ttl        time.Duration
	mu         sync.Mutex
	generation uint64
	entries    map[accountKey]*accountEntry
	lastPrune  time.Time
}

// NewAccountStore creates a new AccountStore
func NewAccountStore(api domain.LoanAPI, clock domain.Clock, ttl time.Duration) *AccountStore {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	if ttl <= 0 {
		ttl = DefaultAccountCacheTTL
	}
	return &AccountStore{
		api:     api,
		clock:   clock,
		ttl:     ttl,
		entries: make(map[accountKey]*accountEntry),
	}
}

// Get returns the customer's snapshot, fetching it when missing or expired
func (s *AccountStore) Get(ctx context.Context, product domain.Product, customerID string) (*domain.AccountSnapshot, error) {
	key := accountKey{product: product, customerID: customerID}

	s.mu.Lock()
	now := s.clock.Now()
	if now.Sub(s.lastPrune) >= s.ttl {
		s.pruneLocked(now)
	}
	if e, ok := s.entries[key]; ok && e.snapshot != nil && now.Sub(e.snapshot.FetchedAt) < s.ttl {
		snap := copySnapshot(e.snapshot)
		s.mu.Unlock()
		return snap, nil
	}
	s.mu.Unlock()

	return s.load(ctx, key)
}

// Refresh invalidates the customer and fetches fresh state
func (s *AccountStore) Refresh(ctx context.Context, product domain.Product, customerID string) (*domain.AccountSnapshot, error) {
	s.Invalidate(product, customerID)
	return s.load(ctx, accountKey{product: product, customerID: customerID})
}

// Invalidate drops the customer's snapshot. Fetches already in flight for the
// customer will not be stored.
func (s *AccountStore) Invalidate(product domain.Product, customerID string) {
	key := accountKey{product: product, customerID: customerID}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	e := s.entryLocked(key)
	e.invalidatedAt = s.generation
	e.snapshot = nil
}

func (s *AccountStore) load(ctx context.Context, key accountKey) (*domain.AccountSnapshot, error) {
	s.mu.Lock()
	s.entryLocked(key).loading++
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.entryLocked(key).loading--
		s.mu.Unlock()
	}()

	var snap *domain.AccountSnapshot
	for attempt := 0; attempt <= maxStaleRetries; attempt++ {
		s.mu.Lock()
		startGen := s.generation
		s.mu.Unlock()

		fetched, err := s.fetch(ctx, key)
		if err != nil {
			return nil, err
		}
		snap = fetched

		s.mu.Lock()
		e := s.entryLocked(key)
		if e.invalidatedAt <= startGen {
			e.snapshot = snap
			s.mu.Unlock()
			return copySnapshot(snap), nil
		}
		s.mu.Unlock()

		log.Debug().
			Str("product", string(key.product)).
			Str("customer_id", key.customerID).
			Int("attempt", attempt+1).
			Msg("Discarded stale account snapshot")
	}

	// Still racing with writers; hand back the latest fetch without caching it
	return copySnapshot(snap), nil
}

func (s *AccountStore) entryLocked(key accountKey) *accountEntry {
	e, ok := s.entries[key]
	if !ok {
		e = &accountEntry{}
		s.entries[key] = e
	}
	return e
}

// pruneLocked drops entries that hold no live snapshot and have no fetch in flight,
// so the map does not grow with every customer ever looked at
func (s *AccountStore) pruneLocked(now time.Time) {
	s.lastPrune = now
	for key, e := range s.entries {
		if e.loading > 0 {
			continue
		}
		if e.snapshot == nil || now.Sub(e.snapshot.FetchedAt) >= s.ttl {
			delete(s.entries, key)
		}
	}
}

func (s *AccountStore) fetch(ctx context.Context, key accountKey) (*domain.AccountSnapshot, error) {
	account, err := s.api.GetCustomer(ctx, key.product, key.customerID)
	if err != nil {
		return nil, err
	}
	schedule, err := s.api.GetSchedule(ctx, key.product, key.customerID)
	if err != nil {
		return nil, err
	}
	return &domain.AccountSnapshot{
		Account:   account,
		Schedule:  schedule,
		FetchedAt: s.clock.Now(),
	}, nil
}

func copySnapshot(snap *domain.AccountSnapshot) *domain.AccountSnapshot {
	if snap == nil {
		return nil
	}
	out := &domain.AccountSnapshot{FetchedAt: snap.FetchedAt}
	if snap.Account != nil {
		account := *snap.Account
		out.Account = &account
	}
	out.Schedule = make([]domain.EmiScheduleEntry, len(snap.Schedule))
	copy(out.Schedule, snap.Schedule)
	return out
}
