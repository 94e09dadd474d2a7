package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/herdpool/herdpool/internal/domain"
	"github.com/herdpool/herdpool/internal/usecase"
)

// AuditRepository implements usecase.AuditRepository.
type AuditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

const auditInsert = `
	INSERT INTO audit_logs
		(id, user_id, action, resource_type, resource_id, ip_address, request_id,
		 before_state, after_state, status, error_message, created_at)
	VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), $8, $9, $10, NULLIF($11, ''), $12)
`

// Create inserts an audit log entry outside any transaction. Failures here
// must not fail the audited operation, so callers log and move on.
func (r *AuditRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	args, err := auditArgs(log)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, auditInsert, args...)

	return err
}

// CreateTx inserts an audit log entry within the caller's transaction.
func (r *AuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	pgxTx := tx.(*Tx).PgxTx()

	args, err := auditArgs(log)
	if err != nil {
		return err
	}

	_, err = pgxTx.Exec(ctx, auditInsert, args...)

	return err
}

// GetByResourceID retrieves audit logs for a resource, newest first.
func (r *AuditRepository) GetByResourceID(ctx context.Context, resourceType, resourceID string) ([]*domain.AuditLog, error) {
	query := `
		SELECT id, user_id, action, resource_type, resource_id, ip_address, request_id,
		       before_state, after_state, status, error_message, created_at
		FROM audit_logs
		WHERE resource_type = $1 AND resource_id = $2
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, resourceType, resourceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*domain.AuditLog
	for rows.Next() {
		log, err := scanAuditLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}

	return logs, rows.Err()
}

func auditArgs(log *domain.AuditLog) ([]any, error) {
	var before, after []byte
	var err error

	if log.BeforeState != nil {
		before, err = json.Marshal(log.BeforeState)
		if err != nil {
			return nil, err
		}
	}
	if log.AfterState != nil {
		after, err = json.Marshal(log.AfterState)
		if err != nil {
			return nil, err
		}
	}

	return []any{
		log.ID,
		log.UserID,
		log.Action,
		log.ResourceType,
		log.ResourceID,
		log.IPAddress,
		log.RequestID,
		before,
		after,
		log.Status,
		log.ErrorMessage,
		timeToPgTimestamptz(log.CreatedAt),
	}, nil
}

func scanAuditLog(row pgx.Row) (*domain.AuditLog, error) {
	var (
		log           domain.AuditLog
		ip, req, msg  pgtype.Text
		before, after []byte
		created       pgtype.Timestamptz
	)

	err := row.Scan(
		&log.ID,
		&log.UserID,
		&log.Action,
		&log.ResourceType,
		&log.ResourceID,
		&ip,
		&req,
		&before,
		&after,
		&log.Status,
		&msg,
		&created,
	)
	if err != nil {
		return nil, err
	}

	log.IPAddress = ip.String
	log.RequestID = req.String
	log.ErrorMessage = msg.String
	log.CreatedAt = created.Time
	if len(before) > 0 {
		if err := json.Unmarshal(before, &log.BeforeState); err != nil {
			return nil, err
		}
	}
	if len(after) > 0 {
		if err := json.Unmarshal(after, &log.AfterState); err != nil {
			return nil, err
		}
	}

	return &log, nil
}
