package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/herdpool/herdpool/internal/domain"
	"github.com/herdpool/herdpool/internal/usecase"
)

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	pool *pgxpool.Pool
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(pool *pgxpool.Pool) *EntryRepository {
	return &EntryRepository{pool: pool}
}

const entryColumns = `id, user_id, direction, amount, counterparty_wallet_id, reference, channel, status, description, balance_before, balance_after, created_at`

// Create appends a ledger entry inside a transaction. The partial unique
// index on (reference) over successful entries rejects a reference replay.
func (r *EntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		INSERT INTO ledger_entries
			(id, user_id, direction, amount, counterparty_wallet_id, reference, channel, status, description, balance_before, balance_after, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := pgxTx.Exec(ctx, query,
		entry.ID,
		entry.UserID,
		string(entry.Direction),
		decimalToNumeric(entry.Amount),
		entry.CounterpartyWalletID,
		entry.Reference,
		string(entry.Channel),
		string(entry.Status),
		entry.Description,
		decimalToNumeric(entry.WalletBalanceBefore),
		decimalToNumeric(entry.WalletBalanceAfter),
		timeToPgTimestamptz(entry.CreatedAt),
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

// GetByReference retrieves the successful entry backing a reference.
func (r *EntryRepository) GetByReference(ctx context.Context, reference string) (*domain.LedgerEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE reference = $1 AND status = 'success'`

	entry, err := scanEntry(r.pool.QueryRow(ctx, query, reference))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEntryNotFound
		}
		return nil, err
	}

	return entry, nil
}

// ListByUser lists a user's entries, newest first.
func (r *EntryRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.LedgerEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM ledger_entries
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.LedgerEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

func scanEntry(row pgx.Row) (*domain.LedgerEntry, error) {
	var (
		entry         domain.LedgerEntry
		counterparty  pgtype.Text
		amount        pgtype.Numeric
		before, after pgtype.Numeric
		created       pgtype.Timestamptz
	)

	err := row.Scan(
		&entry.ID,
		&entry.UserID,
		&entry.Direction,
		&amount,
		&counterparty,
		&entry.Reference,
		&entry.Channel,
		&entry.Status,
		&entry.Description,
		&before,
		&after,
		&created,
	)
	if err != nil {
		return nil, err
	}

	entry.CounterpartyWalletID = counterparty.String
	entry.Amount = numericToDecimal(amount)
	entry.WalletBalanceBefore = numericToDecimal(before)
	entry.WalletBalanceAfter = numericToDecimal(after)
	entry.CreatedAt = created.Time

	return &entry, nil
}
