package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mwbrandt/masseplan/internal/domain"
)

// CounterpartyRepository implements usecase.CounterpartyRepository.
type CounterpartyRepository struct {
	pool *pgxpool.Pool
}

// NewCounterpartyRepository creates a new CounterpartyRepository.
func NewCounterpartyRepository(pool *pgxpool.Pool) *CounterpartyRepository {
	return &CounterpartyRepository{pool: pool}
}

// ListByCase retrieves all counterparties of a case.
func (r *CounterpartyRepository) ListByCase(ctx context.Context, caseID string) ([]*domain.Counterparty, error) {
	query := `
		SELECT id, case_id, name, category, created_at
		FROM counterparties
		WHERE case_id = $1
		ORDER BY name, id
	`

	rows, err := r.pool.Query(ctx, query, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counterparties []*domain.Counterparty
	for rows.Next() {
		var cp domain.Counterparty
		if err := rows.Scan(&cp.ID, &cp.CaseID, &cp.Name, &cp.Category, &cp.CreatedAt); err != nil {
			return nil, err
		}
		counterparties = append(counterparties, &cp)
	}

	return counterparties, rows.Err()
}
