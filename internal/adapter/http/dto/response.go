package dto

import (
	"time"

	"github.com/mwbrandt/masseplan/internal/domain"
	"github.com/mwbrandt/masseplan/internal/usecase"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// DateRangeResponse represents an inclusive date interval.
type DateRangeResponse struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func dateRangeFromDomain(r *domain.DateRange) *DateRangeResponse {
	if r == nil {
		return nil
	}
	return &DateRangeResponse{
		Start: r.Start.Format("2006-01-02"),
		End:   r.End.Format("2006-01-02"),
	}
}

// SuggestionResponse represents a classification suggestion.
type SuggestionResponse struct {
	Category       string  `json:"category"`
	LegalBucket    string  `json:"legal_bucket"`
	BankAccountID  *string `json:"bank_account_id,omitempty"`
	CounterpartyID *string `json:"counterparty_id,omitempty"`
	LocationID     *string `json:"location_id,omitempty"`
	RuleID         string  `json:"rule_id"`
	Reason         string  `json:"reason"`
	Confidence     float64 `json:"confidence"`
}

// EntryResponse represents a ledger entry.
type EntryResponse struct {
	ID              string `json:"id"`
	CaseID          string `json:"case_id"`
	TransactionDate string `json:"transaction_date"`
	AmountCents     int64  `json:"amount_cents"`
	FlowType        string `json:"flow_type"`
	Description     string `json:"description"`
	Note            string `json:"note,omitempty"`
	ValueType       string `json:"value_type"`

	LegalBucket string `json:"legal_bucket"`
	Category    string `json:"category,omitempty"`

	BankAccountID          *string `json:"bank_account_id,omitempty"`
	CounterpartyID         *string `json:"counterparty_id,omitempty"`
	LocationID             *string `json:"location_id,omitempty"`
	TransferPartnerEntryID *string `json:"transfer_partner_entry_id,omitempty"`

	EstateAllocation string `json:"estate_allocation"`
	EstateRatio      string `json:"estate_ratio"`
	AllocationSource string `json:"allocation_source,omitempty"`
	AllocationNote   string `json:"allocation_note,omitempty"`

	Suggestion             *SuggestionResponse `json:"suggestion,omitempty"`
	ServicePeriod          *DateRangeResponse  `json:"service_period,omitempty"`
	SuggestedServicePeriod *DateRangeResponse  `json:"suggested_service_period,omitempty"`

	ReviewStatus        string     `json:"review_status"`
	ReviewedBy          string     `json:"reviewed_by,omitempty"`
	ReviewedAt          *time.Time `json:"reviewed_at,omitempty"`
	ChangeReason        string     `json:"change_reason,omitempty"`
	PreviousAmountCents *int64     `json:"previous_amount_cents,omitempty"`

	SourceEffectID *string `json:"source_effect_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EntryFromDomain converts a domain entry to a response.
func EntryFromDomain(e *domain.LedgerEntry) *EntryResponse {
	resp := &EntryResponse{
		ID:                     e.ID,
		CaseID:                 e.CaseID,
		TransactionDate:        e.TransactionDate.Format("2006-01-02"),
		AmountCents:            e.AmountCents,
		FlowType:               string(e.FlowType()),
		Description:            e.Description,
		Note:                   e.Note,
		ValueType:              string(e.ValueType),
		LegalBucket:            string(e.LegalBucket),
		Category:               e.Category,
		BankAccountID:          e.BankAccountID,
		CounterpartyID:         e.CounterpartyID,
		LocationID:             e.LocationID,
		TransferPartnerEntryID: e.TransferPartnerEntryID,
		EstateAllocation:       string(e.EstateAllocation),
		EstateRatio:            e.EstateRatio.String(),
		AllocationSource:       string(e.AllocationSource),
		AllocationNote:         e.AllocationNote,
		ServicePeriod:          dateRangeFromDomain(e.ServicePeriod),
		SuggestedServicePeriod: dateRangeFromDomain(e.SuggestedServicePeriod),
		ReviewStatus:           string(e.ReviewStatus),
		ReviewedBy:             e.ReviewedBy,
		ReviewedAt:             e.ReviewedAt,
		ChangeReason:           e.ChangeReason,
		PreviousAmountCents:    e.PreviousAmountCents,
		SourceEffectID:         e.SourceEffectID,
		CreatedAt:              e.CreatedAt,
		UpdatedAt:              e.UpdatedAt,
	}

	if e.Suggestion != nil {
		resp.Suggestion = &SuggestionResponse{
			Category:       e.Suggestion.Category,
			LegalBucket:    string(e.Suggestion.LegalBucket),
			BankAccountID:  e.Suggestion.BankAccountID,
			CounterpartyID: e.Suggestion.CounterpartyID,
			LocationID:     e.Suggestion.LocationID,
			RuleID:         e.Suggestion.RuleID,
			Reason:         e.Suggestion.Reason,
			Confidence:     e.Suggestion.Confidence,
		}
	}

	return resp
}

// EntriesFromDomain converts a slice of domain entries.
func EntriesFromDomain(entries []*domain.LedgerEntry) []*EntryResponse {
	out := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		out[i] = EntryFromDomain(e)
	}
	return out
}

// RuleResponse represents a classification rule.
type RuleResponse struct {
	ID                   string    `json:"id"`
	CaseID               string    `json:"case_id"`
	Name                 string    `json:"name"`
	IsActive             bool      `json:"is_active"`
	Priority             int       `json:"priority"`
	MatchField           string    `json:"match_field"`
	MatchType            string    `json:"match_type"`
	MatchValue           string    `json:"match_value"`
	SuggestedCategory    string    `json:"suggested_category"`
	SuggestedLegalBucket string    `json:"suggested_legal_bucket"`
	AssignBankAccountID  *string   `json:"assign_bank_account_id,omitempty"`
	AssignCounterpartyID *string   `json:"assign_counterparty_id,omitempty"`
	AssignLocationID     *string   `json:"assign_location_id,omitempty"`
	ConfidenceBonus      float64   `json:"confidence_bonus"`
	ServiceRule          string    `json:"service_rule,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// RuleFromDomain converts a domain rule to a response.
func RuleFromDomain(r *domain.ClassificationRule) *RuleResponse {
	return &RuleResponse{
		ID:                   r.ID,
		CaseID:               r.CaseID,
		Name:                 r.Name,
		IsActive:             r.IsActive,
		Priority:             r.Priority,
		MatchField:           string(r.MatchField),
		MatchType:            string(r.MatchType),
		MatchValue:           r.MatchValue,
		SuggestedCategory:    r.SuggestedCategory,
		SuggestedLegalBucket: string(r.SuggestedLegalBucket),
		AssignBankAccountID:  r.AssignBankAccountID,
		AssignCounterpartyID: r.AssignCounterpartyID,
		AssignLocationID:     r.AssignLocationID,
		ConfidenceBonus:      r.ConfidenceBonus,
		ServiceRule:          string(r.ServiceRule),
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
	}
}

// RulesFromDomain converts a slice of domain rules.
func RulesFromDomain(rules []*domain.ClassificationRule) []*RuleResponse {
	out := make([]*RuleResponse, len(rules))
	for i, r := range rules {
		out[i] = RuleFromDomain(r)
	}
	return out
}

// AuditLogResponse represents one audit trail row.
type AuditLogResponse struct {
	ID           string                        `json:"id"`
	EntryID      string                        `json:"entry_id"`
	CaseID       string                        `json:"case_id"`
	Action       string                        `json:"action"`
	FieldChanges map[string]domain.FieldChange `json:"field_changes,omitempty"`
	Reason       string                        `json:"reason,omitempty"`
	Actor        string                        `json:"actor"`
	CreatedAt    time.Time                     `json:"created_at"`
}

// AuditLogsFromDomain converts a slice of audit rows.
func AuditLogsFromDomain(logs []*domain.AuditLogEntry) []*AuditLogResponse {
	out := make([]*AuditLogResponse, len(logs))
	for i, l := range logs {
		out[i] = &AuditLogResponse{
			ID:           l.ID,
			EntryID:      l.EntryID,
			CaseID:       l.CaseID,
			Action:       string(l.Action),
			FieldChanges: l.FieldChanges,
			Reason:       l.Reason,
			Actor:        l.Actor,
			CreatedAt:    l.CreatedAt,
		}
	}
	return out
}

// ClassifyResponse reports a classification run.
type ClassifyResponse struct {
	Classified int `json:"classified"`
	Unchanged  int `json:"unchanged"`
	Errors     int `json:"errors"`
}

// ClassifyFromResult converts a use case result.
func ClassifyFromResult(r *usecase.ClassifyBatchResult) *ClassifyResponse {
	return &ClassifyResponse{
		Classified: r.Classified,
		Unchanged:  r.Unchanged,
		Errors:     r.Errors,
	}
}

// AllocateResponse reports an estate allocation run.
type AllocateResponse struct {
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
}

// AllocateFromResult converts a use case result.
func AllocateFromResult(r *usecase.ResolveAllocationResult) *AllocateResponse {
	return &AllocateResponse{
		Updated: r.Updated,
		Skipped: r.Skipped,
		Errors:  r.Errors,
	}
}

// TransferEffectsResponse reports an effect transfer run.
type TransferEffectsResponse struct {
	Created int `json:"created"`
	Deleted int `json:"deleted"`
	Skipped int `json:"skipped"`
}

// TransferEffectsFromResult converts a use case result.
func TransferEffectsFromResult(r *usecase.TransferEffectsResult) *TransferEffectsResponse {
	return &TransferEffectsResponse{
		Created: r.Created,
		Deleted: r.Deleted,
		Skipped: r.Skipped,
	}
}

// ReviewStatsResponse reports review progress for a case.
type ReviewStatsResponse struct {
	Unreviewed int `json:"unreviewed"`
	Confirmed  int `json:"confirmed"`
	Adjusted   int `json:"adjusted"`
}

// ClassificationStatsResponse reports suggestion coverage for a case.
type ClassificationStatsResponse struct {
	Total          int            `json:"total"`
	Suggested      int            `json:"suggested"`
	Unsuggested    int            `json:"unsuggested"`
	ByLegalBucket  map[string]int `json:"by_legal_bucket"`
	HighConfidence int            `json:"high_confidence"`
	LowConfidence  int            `json:"low_confidence"`
}

// ClassificationStatsFromResult converts a use case result.
func ClassificationStatsFromResult(s *usecase.ClassificationStats) *ClassificationStatsResponse {
	byBucket := make(map[string]int, len(s.ByLegalBucket))
	for bucket, count := range s.ByLegalBucket {
		byBucket[string(bucket)] = count
	}
	return &ClassificationStatsResponse{
		Total:          s.Total,
		Suggested:      s.Suggested,
		Unsuggested:    s.Unsuggested,
		ByLegalBucket:  byBucket,
		HighConfidence: s.HighConfidence,
		LowConfidence:  s.LowConfidence,
	}
}
