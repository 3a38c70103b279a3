package service

import (
	"context"
	"sync"
	"time"

	"github.com/dafibh/loandesk/loandesk-backend/internal/domain"
	"github.com/dafibh/loandesk/loandesk-backend/internal/websocket"
	"github.com/rs/zerolog"
)

// UnconfirmedReason is recorded on attempts that never got an answer from the loan API
const UnconfirmedReason = "no confirmation from loan API; retry with the same idempotency key"

// JournalWorker is a background worker that tidies the collection journal.
// Attempts left pending past StaleAfter (the process died mid-request, or the
// journal write after the send failed) are marked unconfirmed, so a retry with the
// same key checks the loan API before re-sending, and the customer's cached state
// is dropped. Finished attempts older than
// Retention are deleted.
type JournalWorker struct {
	attempts       domain.CollectionAttemptRepository
	store          *AccountStore
	clock          domain.Clock
	eventPublisher websocket.EventPublisher
	logger         zerolog.Logger
	interval       time.Duration
	staleAfter     time.Duration
	retention      time.Duration
	stopCh         chan struct{}
	doneCh         chan struct{}
	mu             sync.Mutex
	running        bool
}

// JournalWorkerConfig holds configuration for the journal worker
type JournalWorkerConfig struct {
	Interval   time.Duration
	StaleAfter time.Duration
	Retention  time.Duration
}

// SweepResult summarises one sweep
type SweepResult struct {
	Expired int
	Deleted int64
}

// DefaultJournalWorkerConfig returns sensible defaults
func DefaultJournalWorkerConfig() JournalWorkerConfig {
	return JournalWorkerConfig{
		Interval:   5 * time.Minute,
		StaleAfter: 10 * time.Minute,
		Retention:  90 * 24 * time.Hour,
	}
}

// NewJournalWorker creates a new journal worker
func NewJournalWorker(
	attempts domain.CollectionAttemptRepository,
	store *AccountStore,
	clock domain.Clock,
	logger zerolog.Logger,
	config JournalWorkerConfig,
) *JournalWorker {
	defaults := DefaultJournalWorkerConfig()
	if config.Interval <= 0 {
		config.Interval = defaults.Interval
	}
	if config.StaleAfter <= 0 {
		config.StaleAfter = defaults.StaleAfter
	}
	if config.Retention <= 0 {
		config.Retention = defaults.Retention
	}
	if clock == nil {
		clock = domain.SystemClock{}
	}

	return &JournalWorker{
		attempts:   attempts,
		store:      store,
		clock:      clock,
		logger:     logger.With().Str("component", "journal_worker").Logger(),
		interval:   config.Interval,
		staleAfter: config.StaleAfter,
		retention:  config.Retention,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (w *JournalWorker) SetEventPublisher(publisher websocket.EventPublisher) {
	w.eventPublisher = publisher
}

// Start begins the periodic sweep
func (w *JournalWorker) Start(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info().
		Dur("interval", w.interval).
		Dur("stale_after", w.staleAfter).
		Dur("retention", w.retention).
		Msg("Starting journal worker")

	go w.run(ctx)
}

// Stop gracefully stops the worker
func (w *JournalWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()

	w.logger.Info().Msg("Stopping journal worker")
	close(w.stopCh)
	<-w.doneCh
	w.logger.Info().Msg("Journal worker stopped")
}

// IsRunning returns whether the worker is currently running
func (w *JournalWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *JournalWorker) run(ctx context.Context) {
	defer close(w.doneCh)
	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	w.Sweep(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep runs one pass over the journal
func (w *JournalWorker) Sweep(ctx context.Context) SweepResult {
	var result SweepResult
	now := w.clock.Now()

	stale, err := w.attempts.ListPendingBefore(ctx, now.Add(-w.staleAfter))
	if err != nil {
		w.logger.Error().Err(err).Msg("Failed to list pending collection attempts")
	}

	for _, attempt := range stale {
		if ctx.Err() != nil {
			return result
		}

		if _, err := w.attempts.MarkUnconfirmed(ctx, attempt.IdempotencyKey, UnconfirmedReason); err != nil {
			w.logger.Error().
				Err(err).
				Str("idempotency_key", attempt.IdempotencyKey).
				Msg("Failed to expire collection attempt")
			continue
		}
		result.Expired++

		// The payment may have landed; drop whatever we hold for the customer
		if w.store != nil {
			w.store.Invalidate(attempt.Product, attempt.CustomerID)
		}
		if w.eventPublisher != nil {
			w.eventPublisher.Publish(string(attempt.Product), websocket.CustomerInvalidated(map[string]string{
				"product":        string(attempt.Product),
				"customerId":     attempt.CustomerID,
				"idempotencyKey": attempt.IdempotencyKey,
			}))
		}

		w.logger.Warn().
			Str("idempotency_key", attempt.IdempotencyKey).
			Str("product", string(attempt.Product)).
			Str("customer_id", attempt.CustomerID).
			Time("created_at", attempt.CreatedAt).
			Msg("Collection attempt never confirmed")
	}

	deleted, err := w.attempts.DeleteBefore(ctx, now.Add(-w.retention))
	if err != nil {
		w.logger.Error().Err(err).Msg("Failed to purge collection journal")
	}
	result.Deleted = deleted

	w.logger.Debug().
		Int("expired", result.Expired).
		Int64("deleted", result.Deleted).
		Msg("Journal sweep finished")
	return result
}
