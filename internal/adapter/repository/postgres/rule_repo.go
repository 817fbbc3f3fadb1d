package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mwbrandt/masseplan/internal/domain"
)

// RuleRepository implements usecase.RuleRepository.
type RuleRepository struct {
	pool *pgxpool.Pool
}

// NewRuleRepository creates a new RuleRepository.
func NewRuleRepository(pool *pgxpool.Pool) *RuleRepository {
	return &RuleRepository{pool: pool}
}

const ruleColumns = `
	id, case_id, name, is_active, priority,
	match_field, match_type, match_value,
	suggested_category, suggested_legal_bucket,
	assign_bank_account_id, assign_counterparty_id, assign_location_id,
	confidence_bonus, service_rule,
	created_at, updated_at
`

// Create inserts a new classification rule.
func (r *RuleRepository) Create(ctx context.Context, rule *domain.ClassificationRule) error {
	query := `
		INSERT INTO classification_rules (` + ruleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err := r.pool.Exec(ctx, query,
		rule.ID,
		rule.CaseID,
		rule.Name,
		rule.IsActive,
		rule.Priority,
		rule.MatchField,
		rule.MatchType,
		rule.MatchValue,
		rule.SuggestedCategory,
		rule.SuggestedLegalBucket,
		rule.AssignBankAccountID,
		rule.AssignCounterpartyID,
		rule.AssignLocationID,
		rule.ConfidenceBonus,
		rule.ServiceRule,
		rule.CreatedAt,
		rule.UpdatedAt,
	)

	return err
}

// GetByID retrieves a rule by ID.
func (r *RuleRepository) GetByID(ctx context.Context, id string) (*domain.ClassificationRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM classification_rules WHERE id = $1`

	rule, err := scanRule(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRuleNotFound
		}
		return nil, err
	}

	return rule, nil
}

// ListActiveByCase retrieves the active rules of a case in priority order.
// Priority ties break on creation time so the match order stays stable.
func (r *RuleRepository) ListActiveByCase(ctx context.Context, caseID string) ([]*domain.ClassificationRule, error) {
	query := `
		SELECT ` + ruleColumns + `
		FROM classification_rules
		WHERE case_id = $1 AND is_active
		ORDER BY priority, created_at, id
	`

	return r.list(ctx, query, caseID)
}

// ListByCase retrieves all rules of a case, active and inactive.
func (r *RuleRepository) ListByCase(ctx context.Context, caseID string) ([]*domain.ClassificationRule, error) {
	query := `
		SELECT ` + ruleColumns + `
		FROM classification_rules
		WHERE case_id = $1
		ORDER BY priority, created_at, id
	`

	return r.list(ctx, query, caseID)
}

// Update rewrites the mutable fields of a rule.
func (r *RuleRepository) Update(ctx context.Context, rule *domain.ClassificationRule) error {
	query := `
		UPDATE classification_rules SET
			name = $2, is_active = $3, priority = $4,
			match_field = $5, match_type = $6, match_value = $7,
			suggested_category = $8, suggested_legal_bucket = $9,
			assign_bank_account_id = $10, assign_counterparty_id = $11,
			assign_location_id = $12,
			confidence_bonus = $13, service_rule = $14, updated_at = $15
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		rule.ID,
		rule.Name,
		rule.IsActive,
		rule.Priority,
		rule.MatchField,
		rule.MatchType,
		rule.MatchValue,
		rule.SuggestedCategory,
		rule.SuggestedLegalBucket,
		rule.AssignBankAccountID,
		rule.AssignCounterpartyID,
		rule.AssignLocationID,
		rule.ConfidenceBonus,
		rule.ServiceRule,
		rule.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRuleNotFound
	}

	return nil
}

// Deactivate soft-disables a rule. The row stays so past suggestions remain
// explainable.
func (r *RuleRepository) Deactivate(ctx context.Context, id string, updatedAt time.Time) error {
	query := `UPDATE classification_rules SET is_active = false, updated_at = $2 WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, updatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRuleNotFound
	}

	return nil
}

func (r *RuleRepository) list(ctx context.Context, query string, args ...any) ([]*domain.ClassificationRule, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []*domain.ClassificationRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}

	return rules, rows.Err()
}

func scanRule(row pgx.Row) (*domain.ClassificationRule, error) {
	var rule domain.ClassificationRule

	err := row.Scan(
		&rule.ID,
		&rule.CaseID,
		&rule.Name,
		&rule.IsActive,
		&rule.Priority,
		&rule.MatchField,
		&rule.MatchType,
		&rule.MatchValue,
		&rule.SuggestedCategory,
		&rule.SuggestedLegalBucket,
		&rule.AssignBankAccountID,
		&rule.AssignCounterpartyID,
		&rule.AssignLocationID,
		&rule.ConfidenceBonus,
		&rule.ServiceRule,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &rule, nil
}
