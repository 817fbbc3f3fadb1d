package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MatchField names a normalized import field a rule can match against.
type MatchField string

const (
	MatchFieldDescription      MatchField = "description"
	MatchFieldLocationHint     MatchField = "location_hint"
	MatchFieldCounterpartyHint MatchField = "counterparty_hint"
	MatchFieldOperatorID       MatchField = "operator_id"
	MatchFieldBillingPeriod    MatchField = "billing_period"
	MatchFieldCategoryHint     MatchField = "category_hint"
	MatchFieldAccountName      MatchField = "account_name"
	MatchFieldPayerID          MatchField = "payer_id"
	MatchFieldExternalRef      MatchField = "external_ref"
	MatchFieldAmount           MatchField = "amount"
)

// MatchFields lists every valid match field.
var MatchFields = []MatchField{
	MatchFieldDescription,
	MatchFieldLocationHint,
	MatchFieldCounterpartyHint,
	MatchFieldOperatorID,
	MatchFieldBillingPeriod,
	MatchFieldCategoryHint,
	MatchFieldAccountName,
	MatchFieldPayerID,
	MatchFieldExternalRef,
	MatchFieldAmount,
}

// MatchType is the closed set of matcher variants.
type MatchType string

const (
	MatchContains    MatchType = "CONTAINS"
	MatchStartsWith  MatchType = "STARTS_WITH"
	MatchEndsWith    MatchType = "ENDS_WITH"
	MatchEquals      MatchType = "EQUALS"
	MatchRegex       MatchType = "REGEX"
	MatchAmountRange MatchType = "AMOUNT_RANGE"
)

// baseConfidence per match type; exact matches score higher than substring
// matches, amount ranges lowest.
var baseConfidence = map[MatchType]float64{
	MatchEquals:      0.9,
	MatchStartsWith:  0.8,
	MatchEndsWith:    0.8,
	MatchRegex:       0.75,
	MatchContains:    0.7,
	MatchAmountRange: 0.6,
}

// ServiceDateRule derives a suggested service period from the transaction
// date. It is a second, orthogonal suggestion dimension: a payment in month M
// may pertain to services rendered in month M-1.
type ServiceDateRule string

const (
	ServiceRuleNone            ServiceDateRule = ""
	ServiceRuleTransactionDate ServiceDateRule = "TRANSACTION_DATE"
	ServiceRulePreviousMonth   ServiceDateRule = "PREVIOUS_MONTH"
)

// DeriveServicePeriod applies a service date rule to a transaction date.
// Returns nil when the rule is empty.
func DeriveServicePeriod(rule ServiceDateRule, transactionDate time.Time) *DateRange {
	switch rule {
	case ServiceRuleTransactionDate:
		d := truncateDay(transactionDate)
		return &DateRange{Start: d, End: d}
	case ServiceRulePreviousMonth:
		firstOfMonth := time.Date(transactionDate.Year(), transactionDate.Month(), 1, 0, 0, 0, 0, time.UTC)
		start := firstOfMonth.AddDate(0, -1, 0)
		end := firstOfMonth.AddDate(0, 0, -1)
		return &DateRange{Start: start, End: end}
	default:
		return nil
	}
}

// ClassificationRule is an ordered, user-maintained matcher producing
// classification suggestions. Deactivation is a soft flag; rules are never
// deleted so match history stays explainable.
type ClassificationRule struct {
	ID       string
	CaseID   string
	Name     string
	IsActive bool
	Priority int

	MatchField MatchField
	MatchType  MatchType
	MatchValue string

	SuggestedCategory    string
	SuggestedLegalBucket LegalBucket
	AssignBankAccountID  *string
	AssignCounterpartyID *string
	AssignLocationID     *string
	ConfidenceBonus      float64
	ServiceRule          ServiceDateRule

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate rejects malformed rules at save time so matching never has to
// deal with unparseable patterns.
func (r *ClassificationRule) Validate() error {
	if !validMatchField(r.MatchField) {
		return fmt.Errorf("%w: %q", ErrUnknownMatchField, r.MatchField)
	}

	switch r.MatchType {
	case MatchContains, MatchStartsWith, MatchEndsWith, MatchEquals:
		if strings.TrimSpace(r.MatchValue) == "" {
			return fmt.Errorf("%w: empty pattern", ErrInvalidMatchValue)
		}
	case MatchRegex:
		if _, err := regexp.Compile("(?i)" + r.MatchValue); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidMatchValue, err)
		}
	case MatchAmountRange:
		if _, err := parseAmountRange(r.MatchValue); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidMatchValue, err)
		}
		if r.MatchField != MatchFieldAmount {
			return fmt.Errorf("%w: AMOUNT_RANGE requires the amount field", ErrInvalidRule)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMatchType, r.MatchType)
	}

	if r.ConfidenceBonus < 0 || r.ConfidenceBonus > 1 {
		return fmt.Errorf("%w: confidence bonus out of range", ErrInvalidRule)
	}

	return nil
}

// Matches tests the rule against an entry. Text matchers are
// case-insensitive; AMOUNT_RANGE tests the absolute amount in currency
// units. Returns the matched value for the suggestion reason.
func (r *ClassificationRule) Matches(entry *LedgerEntry) (bool, string) {
	if r.MatchType == MatchAmountRange {
		rng, err := parseAmountRange(r.MatchValue)
		if err != nil {
			return false, ""
		}
		amount := decimal.New(entry.AmountCents, -2).Abs()
		if rng.contains(amount) {
			return true, amount.StringFixed(2)
		}
		return false, ""
	}

	value := entry.NormalizedValue(r.MatchField)
	if value == "" {
		return false, ""
	}

	lowerValue := strings.ToLower(strings.TrimSpace(value))
	lowerPattern := strings.ToLower(strings.TrimSpace(r.MatchValue))

	var matched bool
	switch r.MatchType {
	case MatchEquals:
		matched = lowerValue == lowerPattern
	case MatchContains:
		matched = strings.Contains(lowerValue, lowerPattern)
	case MatchStartsWith:
		matched = strings.HasPrefix(lowerValue, lowerPattern)
	case MatchEndsWith:
		matched = strings.HasSuffix(lowerValue, lowerPattern)
	case MatchRegex:
		re, err := regexp.Compile("(?i)" + r.MatchValue)
		if err != nil {
			return false, ""
		}
		matched = re.MatchString(value)
	}

	if matched {
		return true, value
	}
	return false, ""
}

// Confidence is the base confidence for the match type plus the rule's
// bonus, capped at 1.
func (r *ClassificationRule) Confidence() float64 {
	c := baseConfidence[r.MatchType] + r.ConfidenceBonus
	if c > 1 {
		return 1
	}
	return c
}

// BuildSuggestion assembles the suggestion payload for a matched entry.
func (r *ClassificationRule) BuildSuggestion(matchedValue string) *Suggestion {
	return &Suggestion{
		Category:       r.SuggestedCategory,
		LegalBucket:    r.SuggestedLegalBucket,
		BankAccountID:  r.AssignBankAccountID,
		CounterpartyID: r.AssignCounterpartyID,
		LocationID:     r.AssignLocationID,
		RuleID:         r.ID,
		Reason:         fmt.Sprintf("rule %q: %s %s %q (matched %q)", r.Name, r.MatchField, r.MatchType, r.MatchValue, matchedValue),
		Confidence:     r.Confidence(),
		ServiceRule:    r.ServiceRule,
	}
}

func validMatchField(f MatchField) bool {
	for _, m := range MatchFields {
		if m == f {
			return true
		}
	}
	return false
}

// amountRange is a closed interval over absolute currency amounts.
// Nil bounds are open ends.
type amountRange struct {
	min *decimal.Decimal
	max *decimal.Decimal
	// strict flags make the corresponding bound exclusive (">x" / "<x").
	minStrict bool
	maxStrict bool
}

func (a amountRange) contains(v decimal.Decimal) bool {
	if a.min != nil {
		if a.minStrict && v.LessThanOrEqual(*a.min) {
			return false
		}
		if !a.minStrict && v.LessThan(*a.min) {
			return false
		}
	}
	if a.max != nil {
		if a.maxStrict && v.GreaterThanOrEqual(*a.max) {
			return false
		}
		if !a.maxStrict && v.GreaterThan(*a.max) {
			return false
		}
	}
	return true
}

// parseAmountRange accepts "min-max", ">x", ">=x", "<x" and "<=x" where the
// bounds are currency amounts.
func parseAmountRange(pattern string) (amountRange, error) {
	trimmed := strings.TrimSpace(pattern)
	if trimmed == "" {
		return amountRange{}, fmt.Errorf("empty amount range")
	}

	parseBound := func(s string) (*decimal.Decimal, error) {
		d, err := decimal.NewFromString(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("bad amount %q", s)
		}
		return &d, nil
	}

	switch {
	case strings.HasPrefix(trimmed, ">="):
		min, err := parseBound(trimmed[2:])
		if err != nil {
			return amountRange{}, err
		}
		return amountRange{min: min}, nil
	case strings.HasPrefix(trimmed, "<="):
		max, err := parseBound(trimmed[2:])
		if err != nil {
			return amountRange{}, err
		}
		return amountRange{max: max}, nil
	case strings.HasPrefix(trimmed, ">"):
		min, err := parseBound(trimmed[1:])
		if err != nil {
			return amountRange{}, err
		}
		return amountRange{min: min, minStrict: true}, nil
	case strings.HasPrefix(trimmed, "<"):
		max, err := parseBound(trimmed[1:])
		if err != nil {
			return amountRange{}, err
		}
		return amountRange{max: max, maxStrict: true}, nil
	}

	parts := strings.SplitN(trimmed, "-", 2)
	if len(parts) != 2 {
		return amountRange{}, fmt.Errorf("expected min-max, got %q", pattern)
	}

	min, err := parseBound(parts[0])
	if err != nil {
		return amountRange{}, err
	}
	max, err := parseBound(parts[1])
	if err != nil {
		return amountRange{}, err
	}
	if min.GreaterThan(*max) {
		return amountRange{}, fmt.Errorf("min %s exceeds max %s", min, max)
	}

	return amountRange{min: min, max: max}, nil
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
