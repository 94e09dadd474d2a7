package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/herdpool/herdpool/internal/domain"
	"github.com/herdpool/herdpool/internal/usecase"
)

const pgErrUniqueViolation = "23505"

// WalletRepository implements usecase.WalletRepository.
type WalletRepository struct {
	pool *pgxpool.Pool
}

// NewWalletRepository creates a new WalletRepository.
func NewWalletRepository(pool *pgxpool.Pool) *WalletRepository {
	return &WalletRepository{pool: pool}
}

const walletColumns = `id, user_id, balance, currency, version, created_at, updated_at`

// Create inserts a new wallet. The unique index on user_id enforces one
// wallet per user.
func (r *WalletRepository) Create(ctx context.Context, wallet *domain.Wallet) error {
	query := `
		INSERT INTO wallets (id, user_id, balance, currency, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		wallet.ID,
		wallet.UserID,
		decimalToNumeric(wallet.Balance),
		wallet.Currency,
		wallet.Version,
		timeToPgTimestamptz(wallet.CreatedAt),
		timeToPgTimestamptz(wallet.UpdatedAt),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation {
			return domain.ErrWalletExists
		}
		return err
	}

	return nil
}

// GetByUserID retrieves a wallet by owning user.
func (r *WalletRepository) GetByUserID(ctx context.Context, userID string) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = $1`

	wallet, err := scanWallet(r.pool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrWalletNotFound
		}
		return nil, err
	}

	return wallet, nil
}

// GetByUserIDForUpdate retrieves a wallet with a FOR UPDATE lock.
func (r *WalletRepository) GetByUserIDForUpdate(ctx context.Context, tx usecase.Transaction, userID string) (*domain.Wallet, error) {
	pgxTx := tx.(*Tx).PgxTx()

	query := `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = $1 FOR UPDATE`

	wallet, err := scanWallet(pgxTx.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrWalletNotFound
		}
		return nil, err
	}

	return wallet, nil
}

// UpdateBalance updates the balance of a wallet and bumps its version.
func (r *WalletRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		UPDATE wallets
		SET balance = $2, version = version + 1, updated_at = $3
		WHERE id = $1
	`

	tag, err := pgxTx.Exec(ctx, query, id, decimalToNumeric(balance), timeToPgTimestamptz(updatedAt))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrWalletNotFound
	}

	return nil
}

// SumEntries totals the successful wallet-channel entries for a user.
func (r *WalletRepository) SumEntries(ctx context.Context, userID string) (decimal.Decimal, decimal.Decimal, error) {
	query := `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE direction = 'credit'), 0),
			COALESCE(SUM(amount) FILTER (WHERE direction = 'debit'), 0)
		FROM ledger_entries
		WHERE user_id = $1 AND status = 'success' AND channel = 'wallet'
	`

	var credits, debits pgtype.Numeric
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&credits, &debits); err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	return numericToDecimal(credits), numericToDecimal(debits), nil
}

func scanWallet(row pgx.Row) (*domain.Wallet, error) {
	var (
		wallet             domain.Wallet
		balance            pgtype.Numeric
		created, updated   pgtype.Timestamptz
	)

	err := row.Scan(
		&wallet.ID,
		&wallet.UserID,
		&balance,
		&wallet.Currency,
		&wallet.Version,
		&created,
		&updated,
	)
	if err != nil {
		return nil, err
	}

	wallet.Balance = numericToDecimal(balance)
	wallet.CreatedAt = created.Time
	wallet.UpdatedAt = updated.Time

	return &wallet, nil
}
