package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EffectType determines the sign of the ledger entries an effect produces.
type EffectType string

const (
	EffectInflow  EffectType = "INFLOW"
	EffectOutflow EffectType = "OUTFLOW"
)

// PeriodAmount is one slot of an effect's per-period breakdown.
type PeriodAmount struct {
	PeriodIndex int
	AmountCents int64
}

// InsolvencyEffect is a one-off, period-anchored plan line such as a
// procedural cost. It is not itself part of the ledger; the transfer engine
// materializes it into PLAN entries, each stamped with the effect's id for
// lineage.
type InsolvencyEffect struct {
	ID          string
	CaseID      string
	PlanID      string
	Name        string
	Description string
	EffectType  EffectType
	EffectGroup string
	IsActive    bool

	// Estate inheritance for the generated PLAN entries. A zero Allocation
	// defaults to NEUMASSE with ratio 1.
	EstateAllocation EstateAllocation
	EstateRatio      decimal.Decimal

	Breakdown []PeriodAmount

	CreatedAt time.Time
	UpdatedAt time.Time
}

// InheritedAllocation returns the allocation the generated entries carry.
func (e *InsolvencyEffect) InheritedAllocation() AllocationResult {
	allocation := e.EstateAllocation
	ratio := e.EstateRatio
	if allocation == "" {
		allocation = EstateNeumasse
		ratio = decimal.NewFromInt(1)
	}
	return AllocationResult{
		Allocation: allocation,
		Ratio:      ratio,
		Source:     AllocationEffect,
		Note:       "inherited from effect " + e.Name,
	}
}

// NonZeroPeriods returns the breakdown slots that materialize into entries,
// in period order.
func (e *InsolvencyEffect) NonZeroPeriods() []PeriodAmount {
	out := make([]PeriodAmount, 0, len(e.Breakdown))
	for _, p := range e.Breakdown {
		if p.AmountCents != 0 {
			out = append(out, p)
		}
	}
	return out
}

// SignedAmount applies the effect type to a breakdown amount: outflows
// become negative ledger amounts regardless of the sign stored on the
// breakdown.
func (e *InsolvencyEffect) SignedAmount(amountCents int64) int64 {
	abs := amountCents
	if abs < 0 {
		abs = -abs
	}
	if e.EffectType == EffectOutflow {
		return -abs
	}
	return abs
}
