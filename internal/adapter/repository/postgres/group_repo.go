package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/herdpool/herdpool/internal/domain"
	"github.com/herdpool/herdpool/internal/usecase"
)

// GroupRepository implements usecase.GroupRepository.
type GroupRepository struct {
	pool *pgxpool.Pool
}

// NewGroupRepository creates a new GroupRepository.
func NewGroupRepository(pool *pgxpool.Pool) *GroupRepository {
	return &GroupRepository{pool: pool}
}

const groupColumns = `id, livestock_id, creator_id, total_slots, slot_price, slots_taken, slots_left, amount_settled, amount_left, status, funding_method, reference, version, created_at, updated_at`

// Create inserts a drafted group.
func (r *GroupRepository) Create(ctx context.Context, group *domain.Group) error {
	query := `
		INSERT INTO groups
			(id, livestock_id, creator_id, total_slots, slot_price, slots_taken, slots_left, amount_settled, amount_left, status, funding_method, reference, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NULLIF($11, ''), NULLIF($12, ''), $13, $14, $15)
	`

	_, err := r.pool.Exec(ctx, query,
		group.ID,
		group.LivestockID,
		group.CreatorID,
		group.TotalSlots,
		decimalToNumeric(group.SlotPrice),
		group.SlotsTaken,
		group.SlotsLeft,
		decimalToNumeric(group.AmountSettled),
		decimalToNumeric(group.AmountLeft),
		string(group.Status),
		string(group.FundingMethod),
		group.Reference,
		group.Version,
		timeToPgTimestamptz(group.CreatedAt),
		timeToPgTimestamptz(group.UpdatedAt),
	)

	return err
}

// GetByID retrieves a group by ID.
func (r *GroupRepository) GetByID(ctx context.Context, id string) (*domain.Group, error) {
	query := `SELECT ` + groupColumns + ` FROM groups WHERE id = $1`

	group, err := scanGroup(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrGroupNotFound
		}
		return nil, err
	}

	return group, nil
}

// GetByIDForUpdate retrieves a group with a FOR UPDATE lock. The lock is held
// for the duration of the settlement transaction so availability checks and
// counter movement happen as one unit.
func (r *GroupRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Group, error) {
	pgxTx := tx.(*Tx).PgxTx()

	query := `SELECT ` + groupColumns + ` FROM groups WHERE id = $1 FOR UPDATE`

	group, err := scanGroup(pgxTx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrGroupNotFound
		}
		return nil, err
	}

	return group, nil
}

// Update writes the mutable group fields and bumps the version.
func (r *GroupRepository) Update(ctx context.Context, tx usecase.Transaction, group *domain.Group) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		UPDATE groups
		SET slots_taken = $2,
			slots_left = $3,
			amount_settled = $4,
			amount_left = $5,
			status = $6,
			funding_method = NULLIF($7, ''),
			reference = NULLIF($8, ''),
			version = version + 1,
			updated_at = $9
		WHERE id = $1
	`

	tag, err := pgxTx.Exec(ctx, query,
		group.ID,
		group.SlotsTaken,
		group.SlotsLeft,
		decimalToNumeric(group.AmountSettled),
		decimalToNumeric(group.AmountLeft),
		string(group.Status),
		string(group.FundingMethod),
		group.Reference,
		timeToPgTimestamptz(group.UpdatedAt),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrGroupNotFound
	}

	return nil
}

// Delete removes a group row.
func (r *GroupRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	pgxTx := tx.(*Tx).PgxTx()

	tag, err := pgxTx.Exec(ctx, `DELETE FROM groups WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrGroupNotFound
	}

	return nil
}

// List lists groups, optionally filtered by status, newest first.
func (r *GroupRepository) List(ctx context.Context, status domain.GroupStatus, limit, offset int) ([]*domain.Group, error) {
	query := `
		SELECT ` + groupColumns + `
		FROM groups
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, string(status), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []*domain.Group
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}

	return groups, rows.Err()
}

// CancelDraftsBefore cancels pending groups drafted before cutoff.
func (r *GroupRepository) CancelDraftsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		UPDATE groups
		SET status = 'cancelled', version = version + 1, updated_at = now()
		WHERE status = 'pending' AND created_at < $1
	`

	tag, err := r.pool.Exec(ctx, query, timeToPgTimestamptz(cutoff))
	if err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}

func scanGroup(row pgx.Row) (*domain.Group, error) {
	var (
		group            domain.Group
		slotPrice        pgtype.Numeric
		settled, left    pgtype.Numeric
		method, ref      pgtype.Text
		created, updated pgtype.Timestamptz
	)

	err := row.Scan(
		&group.ID,
		&group.LivestockID,
		&group.CreatorID,
		&group.TotalSlots,
		&slotPrice,
		&group.SlotsTaken,
		&group.SlotsLeft,
		&settled,
		&left,
		&group.Status,
		&method,
		&ref,
		&group.Version,
		&created,
		&updated,
	)
	if err != nil {
		return nil, err
	}

	group.SlotPrice = numericToDecimal(slotPrice)
	group.AmountSettled = numericToDecimal(settled)
	group.AmountLeft = numericToDecimal(left)
	group.FundingMethod = domain.FundingMethod(method.String)
	group.Reference = ref.String
	group.CreatedAt = created.Time
	group.UpdatedAt = updated.Time

	return &group, nil
}
