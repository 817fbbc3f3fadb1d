package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mwbrandt/masseplan/internal/domain"
)

// CaseRepository implements usecase.CaseRepository.
type CaseRepository struct {
	pool *pgxpool.Pool
}

// NewCaseRepository creates a new CaseRepository.
func NewCaseRepository(pool *pgxpool.Pool) *CaseRepository {
	return &CaseRepository{pool: pool}
}

// GetByID retrieves a case by ID.
func (r *CaseRepository) GetByID(ctx context.Context, id string) (*domain.Case, error) {
	query := `SELECT id, name, opening_date, created_at, updated_at FROM cases WHERE id = $1`

	var c domain.Case
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&c.ID,
		&c.Name,
		&c.OpeningDate,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCaseNotFound
		}
		return nil, err
	}

	return &c, nil
}
