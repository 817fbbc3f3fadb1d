package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mwbrandt/masseplan/internal/domain"
)

// SplitRuleRepository implements usecase.SplitRuleRepository.
type SplitRuleRepository struct {
	pool *pgxpool.Pool
}

// NewSplitRuleRepository creates a new SplitRuleRepository.
func NewSplitRuleRepository(pool *pgxpool.Pool) *SplitRuleRepository {
	return &SplitRuleRepository{pool: pool}
}

// ListByCase retrieves the contract split rules of a case. Order matters: the
// resolver picks the first applicable rule, so older rules win ties.
func (r *SplitRuleRepository) ListByCase(ctx context.Context, caseID string) ([]*domain.ContractSplitRule, error) {
	query := `
		SELECT id, case_id, counterparty_category, valid_from, valid_to,
		       neu_ratio, note, created_at
		FROM contract_split_rules
		WHERE case_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.pool.Query(ctx, query, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []*domain.ContractSplitRule
	for rows.Next() {
		var (
			rule  domain.ContractSplitRule
			ratio pgtype.Numeric
		)
		err := rows.Scan(
			&rule.ID,
			&rule.CaseID,
			&rule.CounterpartyCategory,
			&rule.ValidFrom,
			&rule.ValidTo,
			&ratio,
			&rule.Note,
			&rule.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		rule.NeuRatio = numericToDecimal(ratio)
		rules = append(rules, &rule)
	}

	return rules, rows.Err()
}
