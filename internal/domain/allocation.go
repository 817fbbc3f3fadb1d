package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EstateAllocation assigns a cash movement to the pre- or post-opening
// insolvency estate.
type EstateAllocation string

const (
	EstateAltmasse EstateAllocation = "ALTMASSE"
	EstateNeumasse EstateAllocation = "NEUMASSE"
	EstateMixed    EstateAllocation = "MIXED"
	EstateUnknown  EstateAllocation = "UNKNOWN"
)

// AllocationSource records how an allocation was decided. Every allocation
// must stay traceable for audit purposes; a date default reached without a
// resolvable counterparty is recorded separately so it remains
// distinguishable from a confidently resolved one.
type AllocationSource string

const (
	AllocationDateDefault         AllocationSource = "DATE_DEFAULT"
	AllocationContractRule        AllocationSource = "CONTRACT_RULE"
	AllocationUnknownCounterparty AllocationSource = "UNKNOWN_COUNTERPARTY"
	AllocationManual              AllocationSource = "MANUAL"
	AllocationEffect              AllocationSource = "EFFECT"
)

// ratioScale keeps fractional ratios at 12 decimal digits, well past the
// required 6, so day-count fractions like 28/31 survive round trips.
const ratioScale = 12

// AllocationResult is the resolver's decision for one entry.
type AllocationResult struct {
	Allocation EstateAllocation
	// Ratio is the Neumasse share in [0,1].
	Ratio  decimal.Decimal
	Source AllocationSource
	Note   string
}

// Equal reports whether two results carry the same decision. Used for
// idempotence checks: re-running the resolver on an unchanged entry must be
// a no-op.
func (r AllocationResult) Equal(other AllocationResult) bool {
	return r.Allocation == other.Allocation &&
		r.Ratio.Equal(other.Ratio) &&
		r.Source == other.Source
}

// AllocationFromRatio derives the estate bucket from a Neumasse ratio:
// 0 is fully Altmasse, 1 fully Neumasse, anything strictly between is MIXED.
func AllocationFromRatio(ratio decimal.Decimal) EstateAllocation {
	switch {
	case ratio.IsZero():
		return EstateAltmasse
	case ratio.Equal(decimal.NewFromInt(1)):
		return EstateNeumasse
	default:
		return EstateMixed
	}
}

// RatioFromDays builds an exact day-count fraction (neuDays / totalDays)
// without accumulating binary floating point error.
func RatioFromDays(neuDays, totalDays int) decimal.Decimal {
	if totalDays <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(neuDays)).
		DivRound(decimal.NewFromInt(int64(totalDays)), ratioScale)
}

// ProRataResult allocates by the share of a service period's days falling on
// or after the opening date. The service period, not the payment date,
// decides which estate earned the movement: a rent invoice covering the
// opening month splits day-exact. Both period bounds are inclusive. An
// inverted period cannot be allocated and reports false.
func ProRataResult(openingDate time.Time, period DateRange) (AllocationResult, bool) {
	start := truncateDay(period.Start)
	end := truncateDay(period.End)
	if end.Before(start) {
		return AllocationResult{}, false
	}

	totalDays := daysInclusive(start, end)

	neuStart := truncateDay(openingDate)
	if neuStart.Before(start) {
		neuStart = start
	}

	neuDays := 0
	if !end.Before(neuStart) {
		neuDays = daysInclusive(neuStart, end)
	}

	ratio := RatioFromDays(neuDays, totalDays)

	return AllocationResult{
		Allocation: AllocationFromRatio(ratio),
		Ratio:      ratio,
		Source:     AllocationDateDefault,
		Note:       "pro rata over service period",
	}, true
}

func daysInclusive(start, end time.Time) int {
	return int(end.Sub(start).Hours()/24) + 1
}

// SplitAmount divides an amount between the two estates. Rounding to cents
// happens exactly once, on the Neumasse share, using banker's rounding; the
// Altmasse share is the remainder so both shares always sum to the amount.
func SplitAmount(amountCents int64, ratio decimal.Decimal) (neuCents, altCents int64) {
	amount := decimal.NewFromInt(amountCents)
	neu := amount.Mul(ratio).RoundBank(0)
	neuCents = neu.IntPart()
	altCents = amountCents - neuCents
	return neuCents, altCents
}

// ContractSplitRule is a counterparty-class override for the estate split,
// valid inside a date window. A ratio strictly between 0 and 1 marks the
// movement as MIXED.
type ContractSplitRule struct {
	ID                   string
	CaseID               string
	CounterpartyCategory string
	ValidFrom            time.Time
	ValidTo              time.Time
	NeuRatio             decimal.Decimal
	Note                 string
	CreatedAt            time.Time
}

// AppliesTo reports whether the rule covers the given counterparty category
// and transaction date. The window is inclusive on both ends.
func (c *ContractSplitRule) AppliesTo(category string, transactionDate time.Time) bool {
	if c.CounterpartyCategory != category {
		return false
	}
	d := truncateDay(transactionDate)
	return !d.Before(truncateDay(c.ValidFrom)) && !d.After(truncateDay(c.ValidTo))
}

// Result builds the allocation decision carried by this rule.
func (c *ContractSplitRule) Result() AllocationResult {
	return AllocationResult{
		Allocation: AllocationFromRatio(c.NeuRatio),
		Ratio:      c.NeuRatio,
		Source:     AllocationContractRule,
		Note:       c.Note,
	}
}
