package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mwbrandt/masseplan/internal/domain"
	"github.com/mwbrandt/masseplan/internal/usecase"
)

// AuditRepository implements usecase.AuditRepository. Rows are append-only;
// there is no update or delete path.
type AuditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

const auditColumns = `
	id, entry_id, case_id, action, field_changes, reason, actor, created_at
`

// Create appends an audit row outside any transaction.
func (r *AuditRepository) Create(ctx context.Context, log *domain.AuditLogEntry) error {
	return r.insert(ctx, r.pool, log)
}

// CreateTx appends an audit row inside the caller's transaction, so the row
// commits or rolls back together with the entry change it documents.
func (r *AuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, log *domain.AuditLogEntry) error {
	return r.insert(ctx, queryable(r.pool, tx), log)
}

func (r *AuditRepository) insert(ctx context.Context, q dbtx, log *domain.AuditLogEntry) error {
	changesJSON, err := json.Marshal(log.FieldChanges)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO audit_log (` + auditColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = q.Exec(ctx, query,
		log.ID,
		log.EntryID,
		log.CaseID,
		log.Action,
		changesJSON,
		log.Reason,
		log.Actor,
		log.CreatedAt,
	)

	return err
}

// List retrieves audit rows matching a filter, newest first.
func (r *AuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLogEntry, error) {
	query := `SELECT ` + auditColumns + ` FROM audit_log WHERE 1=1`
	args := []any{}

	if filter.CaseID != "" {
		args = append(args, filter.CaseID)
		query += fmt.Sprintf(` AND case_id = $%d`, len(args))
	}
	if filter.EntryID != "" {
		args = append(args, filter.EntryID)
		query += fmt.Sprintf(` AND entry_id = $%d`, len(args))
	}
	if filter.Action != "" {
		args = append(args, filter.Action)
		query += fmt.Sprintf(` AND action = $%d`, len(args))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		query += fmt.Sprintf(` AND created_at >= $%d`, len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		query += fmt.Sprintf(` AND created_at <= $%d`, len(args))
	}

	query += ` ORDER BY created_at DESC, id DESC`

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*domain.AuditLogEntry
	for rows.Next() {
		log, err := scanAuditLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}

	return logs, rows.Err()
}

func scanAuditLog(row pgx.Row) (*domain.AuditLogEntry, error) {
	var (
		log         domain.AuditLogEntry
		changesJSON []byte
	)

	err := row.Scan(
		&log.ID,
		&log.EntryID,
		&log.CaseID,
		&log.Action,
		&changesJSON,
		&log.Reason,
		&log.Actor,
		&log.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if changesJSON != nil {
		if err := json.Unmarshal(changesJSON, &log.FieldChanges); err != nil {
			return nil, err
		}
	}

	return &log, nil
}
