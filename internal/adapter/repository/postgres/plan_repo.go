package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mwbrandt/masseplan/internal/domain"
)

// PlanRepository implements usecase.PlanRepository.
type PlanRepository struct {
	pool *pgxpool.Pool
}

// NewPlanRepository creates a new PlanRepository.
func NewPlanRepository(pool *pgxpool.Pool) *PlanRepository {
	return &PlanRepository{pool: pool}
}

// GetByID retrieves a plan configuration by ID.
func (r *PlanRepository) GetByID(ctx context.Context, id string) (*domain.PlanConfig, error) {
	query := `
		SELECT id, case_id, name, start_date, period_type, period_count,
		       opening_balance_cents, created_at, updated_at
		FROM liquidity_plans
		WHERE id = $1
	`

	var plan domain.PlanConfig
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&plan.ID,
		&plan.CaseID,
		&plan.Name,
		&plan.StartDate,
		&plan.PeriodType,
		&plan.PeriodCount,
		&plan.OpeningBalanceCents,
		&plan.CreatedAt,
		&plan.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPlanNotFound
		}
		return nil, err
	}

	return &plan, nil
}
