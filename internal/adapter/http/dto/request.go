package dto

import (
	"time"

	"github.com/mwbrandt/masseplan/internal/domain"
	"github.com/mwbrandt/masseplan/internal/usecase"
)

// ClassifyRequest selects entries for a classification run. An empty entry
// id list means all unreviewed entries of the case.
type ClassifyRequest struct {
	EntryIDs []string `json:"entry_ids,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *ClassifyRequest) ToUseCaseInput(caseID string) usecase.ClassifyBatchInput {
	return usecase.ClassifyBatchInput{
		CaseID:   caseID,
		EntryIDs: r.EntryIDs,
	}
}

// AllocateRequest selects entries for an estate allocation run. An empty
// entry id list means all IST entries of the case.
type AllocateRequest struct {
	EntryIDs []string `json:"entry_ids,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *AllocateRequest) ToUseCaseInput(caseID string) usecase.ResolveAllocationInput {
	return usecase.ResolveAllocationInput{
		CaseID:   caseID,
		EntryIDs: r.EntryIDs,
	}
}

// TransferEffectsRequest selects the effects to materialize into PLAN
// entries.
type TransferEffectsRequest struct {
	EffectIDs []string `json:"effect_ids"`
}

// ToUseCaseInput converts to use case input.
func (r *TransferEffectsRequest) ToUseCaseInput(caseID string) usecase.TransferEffectsInput {
	return usecase.TransferEffectsInput{
		CaseID:    caseID,
		EffectIDs: r.EffectIDs,
	}
}

// CreateRuleRequest represents a request to create a classification rule.
type CreateRuleRequest struct {
	Name                 string  `json:"name"`
	Priority             int     `json:"priority"`
	MatchField           string  `json:"match_field"`
	MatchType            string  `json:"match_type"`
	MatchValue           string  `json:"match_value"`
	SuggestedCategory    string  `json:"suggested_category"`
	SuggestedLegalBucket string  `json:"suggested_legal_bucket"`
	AssignBankAccountID  *string `json:"assign_bank_account_id,omitempty"`
	AssignCounterpartyID *string `json:"assign_counterparty_id,omitempty"`
	AssignLocationID     *string `json:"assign_location_id,omitempty"`
	ConfidenceBonus      float64 `json:"confidence_bonus"`
	ServiceRule          string  `json:"service_rule,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateRuleRequest) ToUseCaseInput(caseID string) usecase.CreateRuleInput {
	return usecase.CreateRuleInput{
		CaseID:               caseID,
		Name:                 r.Name,
		Priority:             r.Priority,
		MatchField:           domain.MatchField(r.MatchField),
		MatchType:            domain.MatchType(r.MatchType),
		MatchValue:           r.MatchValue,
		SuggestedCategory:    r.SuggestedCategory,
		SuggestedLegalBucket: domain.LegalBucket(r.SuggestedLegalBucket),
		AssignBankAccountID:  r.AssignBankAccountID,
		AssignCounterpartyID: r.AssignCounterpartyID,
		AssignLocationID:     r.AssignLocationID,
		ConfidenceBonus:      r.ConfidenceBonus,
		ServiceRule:          domain.ServiceDateRule(r.ServiceRule),
	}
}

// UpdateRuleRequest carries a sparse rule edit. Absent fields are left
// unchanged.
type UpdateRuleRequest struct {
	Name                 *string  `json:"name,omitempty"`
	Priority             *int     `json:"priority,omitempty"`
	MatchField           *string  `json:"match_field,omitempty"`
	MatchType            *string  `json:"match_type,omitempty"`
	MatchValue           *string  `json:"match_value,omitempty"`
	SuggestedCategory    *string  `json:"suggested_category,omitempty"`
	SuggestedLegalBucket *string  `json:"suggested_legal_bucket,omitempty"`
	ConfidenceBonus      *float64 `json:"confidence_bonus,omitempty"`
	ServiceRule          *string  `json:"service_rule,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *UpdateRuleRequest) ToUseCaseInput() usecase.UpdateRuleInput {
	input := usecase.UpdateRuleInput{
		Name:              r.Name,
		Priority:          r.Priority,
		MatchValue:        r.MatchValue,
		SuggestedCategory: r.SuggestedCategory,
		ConfidenceBonus:   r.ConfidenceBonus,
	}
	if r.MatchField != nil {
		f := domain.MatchField(*r.MatchField)
		input.MatchField = &f
	}
	if r.MatchType != nil {
		t := domain.MatchType(*r.MatchType)
		input.MatchType = &t
	}
	if r.SuggestedLegalBucket != nil {
		b := domain.LegalBucket(*r.SuggestedLegalBucket)
		input.SuggestedLegalBucket = &b
	}
	if r.ServiceRule != nil {
		s := domain.ServiceDateRule(*r.ServiceRule)
		input.ServiceRule = &s
	}
	return input
}

// ConfirmRequest represents a request to confirm an entry.
type ConfirmRequest struct {
	Actor string `json:"actor"`
}

// ToUseCaseInput converts to use case input.
func (r *ConfirmRequest) ToUseCaseInput(entryID string) usecase.ConfirmInput {
	return usecase.ConfirmInput{
		EntryID: entryID,
		Actor:   r.Actor,
	}
}

// AdjustRequest represents a request to adjust an entry. Absent change
// fields are left untouched.
type AdjustRequest struct {
	Actor  string `json:"actor"`
	Reason string `json:"reason"`

	AmountCents      *int64     `json:"amount_cents,omitempty"`
	TransactionDate  *time.Time `json:"transaction_date,omitempty"`
	Category         *string    `json:"category,omitempty"`
	LegalBucket      *string    `json:"legal_bucket,omitempty"`
	Note             *string    `json:"note,omitempty"`
	BankAccountID    *string    `json:"bank_account_id,omitempty"`
	CounterpartyID   *string    `json:"counterparty_id,omitempty"`
	LocationID       *string    `json:"location_id,omitempty"`
	EstateAllocation *string    `json:"estate_allocation,omitempty"`
	EstateRatio      *string    `json:"estate_ratio,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *AdjustRequest) ToUseCaseInput(entryID string) usecase.AdjustInput {
	changes := usecase.AdjustChanges{
		AmountCents:     r.AmountCents,
		TransactionDate: r.TransactionDate,
		Category:        r.Category,
		Note:            r.Note,
		BankAccountID:   r.BankAccountID,
		CounterpartyID:  r.CounterpartyID,
		LocationID:      r.LocationID,
		EstateRatio:     r.EstateRatio,
	}
	if r.LegalBucket != nil {
		b := domain.LegalBucket(*r.LegalBucket)
		changes.LegalBucket = &b
	}
	if r.EstateAllocation != nil {
		a := domain.EstateAllocation(*r.EstateAllocation)
		changes.EstateAllocation = &a
	}
	return usecase.AdjustInput{
		EntryID: entryID,
		Actor:   r.Actor,
		Reason:  r.Reason,
		Changes: changes,
	}
}
