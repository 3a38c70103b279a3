package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dafibh/loandesk/loandesk-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const attemptColumns = `idempotency_key, product, customer_id, amount, payment_type,
	emi_index, status, failure_reason, staff_id, created_at, updated_at`

// CollectionAttemptRepository implements domain.CollectionAttemptRepository using PostgreSQL
type CollectionAttemptRepository struct {
	pool *pgxpool.Pool
}

// NewCollectionAttemptRepository creates a new CollectionAttemptRepository
func NewCollectionAttemptRepository(pool *pgxpool.Pool) *CollectionAttemptRepository {
	return &CollectionAttemptRepository{pool: pool}
}

// Create journals a new pending attempt
func (r *CollectionAttemptRepository) Create(ctx context.Context, attempt *domain.CollectionAttempt) (*domain.CollectionAttempt, error) {
	amount, err := decimalToPgNumeric(attempt.Amount)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO collection_attempts (
			idempotency_key, product, customer_id, amount, payment_type,
			emi_index, status, staff_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + attemptColumns

	row := r.pool.QueryRow(ctx, query,
		attempt.IdempotencyKey, string(attempt.Product), attempt.CustomerID, amount,
		string(attempt.PaymentType), intPtrToInt4(attempt.EmiIndex),
		string(domain.AttemptStatusPending), attempt.StaffID,
	)
	created, err := scanAttempt(row)
	if err != nil {
		if isPgUniqueViolation(err) {
			return nil, domain.ErrAttemptConflict
		}
		return nil, fmt.Errorf("create collection attempt: %w", err)
	}
	return created, nil
}

// GetByKey retrieves an attempt by its idempotency key
func (r *CollectionAttemptRepository) GetByKey(ctx context.Context, key string) (*domain.CollectionAttempt, error) {
	query := `SELECT ` + attemptColumns + ` FROM collection_attempts WHERE idempotency_key = $1`

	attempt, err := scanAttempt(r.pool.QueryRow(ctx, query, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAttemptNotFound
		}
		return nil, fmt.Errorf("get collection attempt: %w", err)
	}
	return attempt, nil
}

// MarkSucceeded records that the loan API accepted the collection
func (r *CollectionAttemptRepository) MarkSucceeded(ctx context.Context, key string) (*domain.CollectionAttempt, error) {
	return r.setStatus(ctx, key, domain.AttemptStatusSucceeded, nil)
}

// MarkFailed records that the loan API rejected the collection
func (r *CollectionAttemptRepository) MarkFailed(ctx context.Context, key string, reason string) (*domain.CollectionAttempt, error) {
	return r.setStatus(ctx, key, domain.AttemptStatusFailed, &reason)
}

// MarkUnconfirmed records that the collection may or may not have been applied
func (r *CollectionAttemptRepository) MarkUnconfirmed(ctx context.Context, key string, reason string) (*domain.CollectionAttempt, error) {
	return r.setStatus(ctx, key, domain.AttemptStatusUnconfirmed, &reason)
}

func (r *CollectionAttemptRepository) setStatus(ctx context.Context, key string, status domain.AttemptStatus, reason *string) (*domain.CollectionAttempt, error) {
	// a succeeded attempt is final
	query := `
		UPDATE collection_attempts
		SET status = $2, failure_reason = $3, updated_at = NOW()
		WHERE idempotency_key = $1 AND status <> 'succeeded'
		RETURNING ` + attemptColumns

	attempt, err := scanAttempt(r.pool.QueryRow(ctx, query, key, string(status), reason))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return r.GetByKey(ctx, key)
		}
		return nil, fmt.Errorf("update collection attempt: %w", err)
	}
	return attempt, nil
}

// ListPendingBefore returns attempts still pending that were created before t, oldest first
func (r *CollectionAttemptRepository) ListPendingBefore(ctx context.Context, t time.Time) ([]*domain.CollectionAttempt, error) {
	query := `
		SELECT ` + attemptColumns + `
		FROM collection_attempts
		WHERE status = 'pending' AND created_at < $1
		ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, t)
	if err != nil {
		return nil, fmt.Errorf("list pending collection attempts: %w", err)
	}
	defer rows.Close()

	var attempts []*domain.CollectionAttempt
	for rows.Next() {
		attempt, err := scanAttempt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan collection attempt: %w", err)
		}
		attempts = append(attempts, attempt)
	}
	return attempts, rows.Err()
}

// DeleteBefore removes finished attempts created before t. Pending attempts are kept.
func (r *CollectionAttemptRepository) DeleteBefore(ctx context.Context, t time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM collection_attempts WHERE created_at < $1 AND status <> 'pending'`, t)
	if err != nil {
		return 0, fmt.Errorf("delete collection attempts: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanAttempt(row pgx.Row) (*domain.CollectionAttempt, error) {
	var (
		a           domain.CollectionAttempt
		product     string
		paymentType string
		status      string
		amount      pgtype.Numeric
		emiIndex    pgtype.Int4
		reason      pgtype.Text
	)
	err := row.Scan(
		&a.IdempotencyKey, &product, &a.CustomerID, &amount, &paymentType,
		&emiIndex, &status, &reason, &a.StaffID, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.Product = domain.Product(product)
	a.PaymentType = domain.PaymentType(paymentType)
	a.Status = domain.AttemptStatus(status)
	a.Amount = pgNumericToDecimal(amount)
	if emiIndex.Valid {
		idx := int(emiIndex.Int32)
		a.EmiIndex = &idx
	}
	if reason.Valid {
		a.FailureReason = &reason.String
	}
	return &a, nil
}

func intPtrToInt4(v *int) pgtype.Int4 {
	if v == nil {
		return pgtype.Int4{}
	}
	return pgtype.Int4{Int32: int32(*v), Valid: true}
}

func decimalToPgNumeric(d decimal.Decimal) (pgtype.Numeric, error) {
	var num pgtype.Numeric
	if err := num.Scan(d.String()); err != nil {
		return pgtype.Numeric{}, err
	}
	return num, nil
}

func pgNumericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}

func isPgUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
