package usecase

import (
	"context"
	"time"

	"github.com/mwbrandt/masseplan/internal/domain"
)

// RuleUseCase manages the case's classification rule set. Malformed patterns
// are rejected here, at save time, so the matcher never sees one.
type RuleUseCase struct {
	ruleRepo RuleRepository
	idGen    IDGenerator
}

// NewRuleUseCase creates a new RuleUseCase.
func NewRuleUseCase(ruleRepo RuleRepository, idGen IDGenerator) *RuleUseCase {
	return &RuleUseCase{
		ruleRepo: ruleRepo,
		idGen:    idGen,
	}
}

// CreateRuleInput represents input for creating a classification rule.
type CreateRuleInput struct {
	CaseID   string
	Name     string
	Priority int

	MatchField domain.MatchField
	MatchType  domain.MatchType
	MatchValue string

	SuggestedCategory    string
	SuggestedLegalBucket domain.LegalBucket
	AssignBankAccountID  *string
	AssignCounterpartyID *string
	AssignLocationID     *string
	ConfidenceBonus      float64
	ServiceRule          domain.ServiceDateRule
}

// CreateRule validates and stores a new rule.
func (uc *RuleUseCase) CreateRule(ctx context.Context, input CreateRuleInput) (*domain.ClassificationRule, error) {
	now := time.Now().UTC()

	rule := &domain.ClassificationRule{
		ID:                   uc.idGen.Generate(),
		CaseID:               input.CaseID,
		Name:                 input.Name,
		IsActive:             true,
		Priority:             input.Priority,
		MatchField:           input.MatchField,
		MatchType:            input.MatchType,
		MatchValue:           input.MatchValue,
		SuggestedCategory:    input.SuggestedCategory,
		SuggestedLegalBucket: input.SuggestedLegalBucket,
		AssignBankAccountID:  input.AssignBankAccountID,
		AssignCounterpartyID: input.AssignCounterpartyID,
		AssignLocationID:     input.AssignLocationID,
		ConfidenceBonus:      input.ConfidenceBonus,
		ServiceRule:          input.ServiceRule,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if err := rule.Validate(); err != nil {
		return nil, err
	}

	if err := uc.ruleRepo.Create(ctx, rule); err != nil {
		return nil, err
	}

	return rule, nil
}

// UpdateRuleInput carries a sparse rule edit. Nil fields are left unchanged.
type UpdateRuleInput struct {
	Name       *string
	Priority   *int
	MatchField *domain.MatchField
	MatchType  *domain.MatchType
	MatchValue *string

	SuggestedCategory    *string
	SuggestedLegalBucket *domain.LegalBucket
	ConfidenceBonus      *float64
	ServiceRule          *domain.ServiceDateRule
}

// UpdateRule applies a sparse edit and revalidates the result.
func (uc *RuleUseCase) UpdateRule(ctx context.Context, id string, input UpdateRuleInput) (*domain.ClassificationRule, error) {
	rule, err := uc.ruleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		rule.Name = *input.Name
	}
	if input.Priority != nil {
		rule.Priority = *input.Priority
	}
	if input.MatchField != nil {
		rule.MatchField = *input.MatchField
	}
	if input.MatchType != nil {
		rule.MatchType = *input.MatchType
	}
	if input.MatchValue != nil {
		rule.MatchValue = *input.MatchValue
	}
	if input.SuggestedCategory != nil {
		rule.SuggestedCategory = *input.SuggestedCategory
	}
	if input.SuggestedLegalBucket != nil {
		rule.SuggestedLegalBucket = *input.SuggestedLegalBucket
	}
	if input.ConfidenceBonus != nil {
		rule.ConfidenceBonus = *input.ConfidenceBonus
	}
	if input.ServiceRule != nil {
		rule.ServiceRule = *input.ServiceRule
	}

	if err := rule.Validate(); err != nil {
		return nil, err
	}

	rule.UpdatedAt = time.Now().UTC()

	if err := uc.ruleRepo.Update(ctx, rule); err != nil {
		return nil, err
	}

	return rule, nil
}

// DeactivateRule soft-disables a rule. Rules are never deleted; their match
// history must stay explainable.
func (uc *RuleUseCase) DeactivateRule(ctx context.Context, id string) error {
	if _, err := uc.ruleRepo.GetByID(ctx, id); err != nil {
		return err
	}

	return uc.ruleRepo.Deactivate(ctx, id, time.Now().UTC())
}

// ListRules returns every rule of a case, active or not.
func (uc *RuleUseCase) ListRules(ctx context.Context, caseID string) ([]*domain.ClassificationRule, error) {
	return uc.ruleRepo.ListByCase(ctx, caseID)
}
