package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mwbrandt/masseplan/internal/domain"
)

// EffectRepository implements usecase.EffectRepository.
type EffectRepository struct {
	pool *pgxpool.Pool
}

// NewEffectRepository creates a new EffectRepository.
func NewEffectRepository(pool *pgxpool.Pool) *EffectRepository {
	return &EffectRepository{pool: pool}
}

const effectColumns = `
	id, case_id, plan_id, name, description, effect_type, effect_group,
	is_active, estate_allocation, estate_ratio, breakdown, created_at, updated_at
`

// GetByID retrieves an effect by ID.
func (r *EffectRepository) GetByID(ctx context.Context, id string) (*domain.InsolvencyEffect, error) {
	query := `SELECT ` + effectColumns + ` FROM insolvency_effects WHERE id = $1`

	effect, err := scanEffect(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEffectNotFound
		}
		return nil, err
	}

	return effect, nil
}

// GetByIDs retrieves effects by id within one case. Effects from other cases
// are filtered out, so a short result signals an unknown or foreign id.
func (r *EffectRepository) GetByIDs(ctx context.Context, caseID string, ids []string) ([]*domain.InsolvencyEffect, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT ` + effectColumns + `
		FROM insolvency_effects
		WHERE case_id = $1 AND id = ANY($2)
		ORDER BY created_at, id
	`

	return r.list(ctx, query, caseID, ids)
}

// ListByPlan retrieves all effects attached to a plan.
func (r *EffectRepository) ListByPlan(ctx context.Context, planID string) ([]*domain.InsolvencyEffect, error) {
	query := `
		SELECT ` + effectColumns + `
		FROM insolvency_effects
		WHERE plan_id = $1
		ORDER BY created_at, id
	`

	return r.list(ctx, query, planID)
}

func (r *EffectRepository) list(ctx context.Context, query string, args ...any) ([]*domain.InsolvencyEffect, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var effects []*domain.InsolvencyEffect
	for rows.Next() {
		effect, err := scanEffect(rows)
		if err != nil {
			return nil, err
		}
		effects = append(effects, effect)
	}

	return effects, rows.Err()
}

func scanEffect(row pgx.Row) (*domain.InsolvencyEffect, error) {
	var (
		effect        domain.InsolvencyEffect
		ratio         pgtype.Numeric
		breakdownJSON []byte
	)

	err := row.Scan(
		&effect.ID,
		&effect.CaseID,
		&effect.PlanID,
		&effect.Name,
		&effect.Description,
		&effect.EffectType,
		&effect.EffectGroup,
		&effect.IsActive,
		&effect.EstateAllocation,
		&ratio,
		&breakdownJSON,
		&effect.CreatedAt,
		&effect.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	effect.EstateRatio = numericToDecimal(ratio)
	if breakdownJSON != nil {
		if err := json.Unmarshal(breakdownJSON, &effect.Breakdown); err != nil {
			return nil, err
		}
	}

	return &effect, nil
}
