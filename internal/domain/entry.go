package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ValueType distinguishes realized cash movements from forecast lines.
type ValueType string

const (
	ValueTypeIST  ValueType = "IST"
	ValueTypePLAN ValueType = "PLAN"
)

// FlowType is derived from the amount sign and never stored.
type FlowType string

const (
	FlowInflow  FlowType = "INFLOW"
	FlowOutflow FlowType = "OUTFLOW"
)

// LegalBucket is the coarse legal classification of a ledger entry.
type LegalBucket string

const (
	BucketMasse       LegalBucket = "MASSE"
	BucketAbsonderung LegalBucket = "ABSONDERUNG"
	BucketNeutral     LegalBucket = "NEUTRAL"
	BucketUnknown     LegalBucket = "UNKNOWN"
)

// ReviewStatus tracks the human-review lifecycle of an entry.
type ReviewStatus string

const (
	ReviewUnreviewed ReviewStatus = "UNREVIEWED"
	ReviewConfirmed  ReviewStatus = "CONFIRMED"
	ReviewAdjusted   ReviewStatus = "ADJUSTED"
)

// DateRange is an inclusive calendar-date interval.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NormalizedFields is the fixed vocabulary of import fields that
// classification rules match against.
type NormalizedFields struct {
	Description      string
	LocationHint     string
	CounterpartyHint string
	OperatorID       string
	BillingPeriod    string
	CategoryHint     string
	AccountName      string
	PayerID          string
	ExternalRef      string
}

// Suggestion is a non-binding classification proposal attached to an entry.
// A nil Suggestion means no rule matched; it is kept structurally separate
// from the authoritative fields and never overwrites them.
type Suggestion struct {
	Category       string
	LegalBucket    LegalBucket
	BankAccountID  *string
	CounterpartyID *string
	LocationID     *string
	RuleID         string
	Reason         string
	Confidence     float64
	ServiceRule    ServiceDateRule
}

// LedgerEntry is the single source of truth for a cash movement.
type LedgerEntry struct {
	ID              string
	CaseID          string
	TransactionDate time.Time
	AmountCents     int64
	Description     string
	Note            string
	ValueType       ValueType

	LegalBucket LegalBucket
	Category    string

	BankAccountID          *string
	CounterpartyID         *string
	LocationID             *string
	TransferPartnerEntryID *string

	EstateAllocation EstateAllocation
	EstateRatio      decimal.Decimal
	AllocationSource AllocationSource
	AllocationNote   string

	Suggestion             *Suggestion
	ServiceDate            *time.Time
	ServicePeriod          *DateRange
	SuggestedServicePeriod *DateRange

	ReviewStatus        ReviewStatus
	ReviewedBy          string
	ReviewedAt          *time.Time
	ChangeReason        string
	PreviousAmountCents *int64

	SourceEffectID *string

	Normalized NormalizedFields

	CreatedAt time.Time
	CreatedBy string
	UpdatedAt time.Time
}

// FlowType derives the flow direction from the amount sign.
func (e *LedgerEntry) FlowType() FlowType {
	if e.AmountCents < 0 {
		return FlowOutflow
	}
	return FlowInflow
}

// IsInternalTransfer reports whether the entry is one half of a transfer
// pair. Paired entries cancel out and are excluded from aggregation.
func (e *LedgerEntry) IsInternalTransfer() bool {
	return e.TransferPartnerEntryID != nil
}

// EffectiveCategory returns the authoritative category, falling back to the
// suggested one for unreviewed entries when includeSuggested is set.
func (e *LedgerEntry) EffectiveCategory(includeSuggested bool) string {
	if e.Category != "" {
		return e.Category
	}
	if includeSuggested && e.ReviewStatus == ReviewUnreviewed && e.Suggestion != nil {
		return e.Suggestion.Category
	}
	return ""
}

// EffectiveLegalBucket returns the authoritative legal bucket, falling back
// to the suggested one for unreviewed entries when includeSuggested is set.
func (e *LedgerEntry) EffectiveLegalBucket(includeSuggested bool) LegalBucket {
	if e.LegalBucket != BucketUnknown && e.LegalBucket != "" {
		return e.LegalBucket
	}
	if includeSuggested && e.ReviewStatus == ReviewUnreviewed && e.Suggestion != nil && e.Suggestion.LegalBucket != "" {
		return e.Suggestion.LegalBucket
	}
	return BucketUnknown
}

// NormalizedValue returns the entry's value for a rule match field.
// AMOUNT_RANGE rules do not go through here; they test the amount directly.
func (e *LedgerEntry) NormalizedValue(field MatchField) string {
	switch field {
	case MatchFieldDescription:
		if e.Normalized.Description != "" {
			return e.Normalized.Description
		}
		return e.Description
	case MatchFieldLocationHint:
		return e.Normalized.LocationHint
	case MatchFieldCounterpartyHint:
		return e.Normalized.CounterpartyHint
	case MatchFieldOperatorID:
		return e.Normalized.OperatorID
	case MatchFieldBillingPeriod:
		return e.Normalized.BillingPeriod
	case MatchFieldCategoryHint:
		return e.Normalized.CategoryHint
	case MatchFieldAccountName:
		return e.Normalized.AccountName
	case MatchFieldPayerID:
		return e.Normalized.PayerID
	case MatchFieldExternalRef:
		return e.Normalized.ExternalRef
	default:
		return ""
	}
}

// EntryFilter narrows ledger queries. Zero values mean "no filter".
type EntryFilter struct {
	CaseID           string
	IDs              []string
	ValueType        ValueType
	ReviewStatus     ReviewStatus
	WithoutSuggested bool
	From             *time.Time
	To               *time.Time
	Limit            int
	Offset           int
}
