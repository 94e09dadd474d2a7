package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/herdpool/herdpool/internal/domain"
	"github.com/herdpool/herdpool/internal/usecase"
)

// IntentRepository implements usecase.IntentRepository.
type IntentRepository struct {
	pool *pgxpool.Pool
}

// NewIntentRepository creates a new IntentRepository.
func NewIntentRepository(pool *pgxpool.Pool) *IntentRepository {
	return &IntentRepository{pool: pool}
}

const intentColumns = `id, user_id, email, reference, action, method, status, group_id, slots, amount, created_at, consumed_at`

// Create stages a pending payment intent.
func (r *IntentRepository) Create(ctx context.Context, intent *domain.PaymentIntent) error {
	query := `
		INSERT INTO payment_intents
			(id, user_id, email, reference, action, method, status, group_id, slots, amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.pool.Exec(ctx, query,
		intent.ID,
		intent.UserID,
		intent.Email,
		intent.Reference,
		string(intent.Action),
		string(intent.Method),
		string(intent.Status),
		intent.GroupID,
		intent.Slots,
		decimalToNumeric(intent.Amount),
		timeToPgTimestamptz(intent.CreatedAt),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation {
			return domain.ErrReferenceAlreadyUsed
		}
		return err
	}

	return nil
}

// GetByReference retrieves an intent by its payment reference.
func (r *IntentRepository) GetByReference(ctx context.Context, reference string) (*domain.PaymentIntent, error) {
	query := `SELECT ` + intentColumns + ` FROM payment_intents WHERE reference = $1`

	intent, err := scanIntent(r.pool.QueryRow(ctx, query, reference))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUnknownReference
		}
		return nil, err
	}

	return intent, nil
}

// Consume flips a pending intent to consumed inside the caller's
// transaction. A replay finds zero pending rows and fails.
func (r *IntentRepository) Consume(ctx context.Context, tx usecase.Transaction, reference string, consumedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		UPDATE payment_intents
		SET status = 'consumed', consumed_at = $2
		WHERE reference = $1 AND status = 'pending'
	`

	tag, err := pgxTx.Exec(ctx, query, reference, timeToPgTimestamptz(consumedAt))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrReferenceAlreadyUsed
	}

	return nil
}

// ExpireBefore expires pending intents created before cutoff.
func (r *IntentRepository) ExpireBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		UPDATE payment_intents
		SET status = 'expired'
		WHERE status = 'pending' AND created_at < $1
	`

	tag, err := r.pool.Exec(ctx, query, timeToPgTimestamptz(cutoff))
	if err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}

func scanIntent(row pgx.Row) (*domain.PaymentIntent, error) {
	var (
		intent   domain.PaymentIntent
		amount   pgtype.Numeric
		created  pgtype.Timestamptz
		consumed pgtype.Timestamptz
	)

	err := row.Scan(
		&intent.ID,
		&intent.UserID,
		&intent.Email,
		&intent.Reference,
		&intent.Action,
		&intent.Method,
		&intent.Status,
		&intent.GroupID,
		&intent.Slots,
		&amount,
		&created,
		&consumed,
	)
	if err != nil {
		return nil, err
	}

	intent.Amount = numericToDecimal(amount)
	intent.CreatedAt = created.Time
	if consumed.Valid {
		t := consumed.Time
		intent.ConsumedAt = &t
	}

	return &intent, nil
}
