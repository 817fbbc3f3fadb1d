package domain

import "errors"

var (
	// Entry errors
	ErrEntryNotFound = errors.New("ledger entry not found")
	ErrCaseNotFound  = errors.New("case not found")
	ErrPlanNotFound  = errors.New("plan not found")

	// Rule errors
	ErrRuleNotFound       = errors.New("classification rule not found")
	ErrInvalidRule        = errors.New("invalid classification rule")
	ErrInvalidMatchValue  = errors.New("invalid match value for match type")
	ErrUnknownMatchField  = errors.New("unknown match field")
	ErrUnknownMatchType   = errors.New("unknown match type")

	// Period errors
	ErrOutOfPlanRange = errors.New("transaction date outside plan period range")

	// Allocation errors
	ErrInvalidRatio = errors.New("estate ratio must be between 0 and 1")

	// Effect errors
	ErrEffectNotFound = errors.New("insolvency effect not found")

	// Governance errors
	ErrReasonRequired    = errors.New("adjustment requires a non-empty reason")
	ErrNoFieldChanges    = errors.New("adjustment requires at least one field change")
	ErrInvalidTransition = errors.New("invalid review status transition")
)
