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

// ParticipationRepository implements usecase.ParticipationRepository.
type ParticipationRepository struct {
	pool *pgxpool.Pool
}

// NewParticipationRepository creates a new ParticipationRepository.
func NewParticipationRepository(pool *pgxpool.Pool) *ParticipationRepository {
	return &ParticipationRepository{pool: pool}
}

const participationColumns = `id, group_id, user_id, slots, status, reference, joined_at`

// Create inserts a participation. The unique index on (group_id, user_id)
// enforces one stake per user per group.
func (r *ParticipationRepository) Create(ctx context.Context, tx usecase.Transaction, participation *domain.Participation) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		INSERT INTO participations (id, group_id, user_id, slots, status, reference, joined_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := pgxTx.Exec(ctx, query,
		participation.ID,
		participation.GroupID,
		participation.UserID,
		participation.Slots,
		string(participation.Status),
		participation.Reference,
		timeToPgTimestamptz(participation.JoinedAt),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation {
			return domain.ErrAlreadyMember
		}
		return err
	}

	return nil
}

// GetByGroupAndUser retrieves a user's stake in a group.
func (r *ParticipationRepository) GetByGroupAndUser(ctx context.Context, groupID, userID string) (*domain.Participation, error) {
	query := `SELECT ` + participationColumns + ` FROM participations WHERE group_id = $1 AND user_id = $2`

	participation, err := scanParticipation(r.pool.QueryRow(ctx, query, groupID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrParticipationNotFound
		}
		return nil, err
	}

	return participation, nil
}

// ListByGroup lists a group's participations in join order.
func (r *ParticipationRepository) ListByGroup(ctx context.Context, groupID string, limit, offset int) ([]*domain.Participation, error) {
	query := `
		SELECT ` + participationColumns + `
		FROM participations
		WHERE group_id = $1
		ORDER BY joined_at
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, groupID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var participations []*domain.Participation
	for rows.Next() {
		participation, err := scanParticipation(rows)
		if err != nil {
			return nil, err
		}
		participations = append(participations, participation)
	}

	return participations, rows.Err()
}

// CountOthers counts participations in a group held by anyone but creatorID.
func (r *ParticipationRepository) CountOthers(ctx context.Context, groupID, creatorID string) (int64, error) {
	query := `SELECT COUNT(*) FROM participations WHERE group_id = $1 AND user_id <> $2`

	var n int64
	if err := r.pool.QueryRow(ctx, query, groupID, creatorID).Scan(&n); err != nil {
		return 0, err
	}

	return n, nil
}

func scanParticipation(row pgx.Row) (*domain.Participation, error) {
	var (
		participation domain.Participation
		joined        pgtype.Timestamptz
	)

	err := row.Scan(
		&participation.ID,
		&participation.GroupID,
		&participation.UserID,
		&participation.Slots,
		&participation.Status,
		&participation.Reference,
		&joined,
	)
	if err != nil {
		return nil, err
	}

	participation.JoinedAt = joined.Time

	return &participation, nil
}
