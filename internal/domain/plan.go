package domain

import (
	"fmt"
	"time"
)

// PeriodType selects the granularity of the liquidity plan grid.
type PeriodType string

const (
	PeriodWeekly  PeriodType = "WEEKLY"
	PeriodMonthly PeriodType = "MONTHLY"
)

// PlanConfig holds the liquidity plan parameters the engines need.
type PlanConfig struct {
	ID                  string
	CaseID              string
	Name                string
	StartDate           time.Time
	PeriodType          PeriodType
	PeriodCount         int
	OpeningBalanceCents int64
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// PeriodIndex maps a transaction date to a zero-based period offset.
// Weekly plans divide elapsed days by seven; monthly plans use the calendar
// month difference so variable month lengths are respected. Dates before the
// plan start or beyond the period count return ErrOutOfPlanRange; callers
// decide whether to exclude or flag such entries, nothing is clamped.
func (p *PlanConfig) PeriodIndex(transactionDate time.Time) (int, error) {
	txDate := truncateDay(transactionDate)
	start := truncateDay(p.StartDate)

	if txDate.Before(start) {
		return 0, fmt.Errorf("%w: %s before plan start %s", ErrOutOfPlanRange,
			txDate.Format("2006-01-02"), start.Format("2006-01-02"))
	}

	var index int
	switch p.PeriodType {
	case PeriodWeekly:
		days := int(txDate.Sub(start).Hours() / 24)
		index = days / 7
	case PeriodMonthly:
		index = (txDate.Year()-start.Year())*12 + int(txDate.Month()) - int(start.Month())
	default:
		return 0, fmt.Errorf("unknown period type %q", p.PeriodType)
	}

	if index >= p.PeriodCount {
		return 0, fmt.Errorf("%w: %s maps to period %d of %d", ErrOutOfPlanRange,
			txDate.Format("2006-01-02"), index, p.PeriodCount)
	}

	return index, nil
}

// PeriodStartDate returns the first day of a period.
func (p *PlanConfig) PeriodStartDate(periodIndex int) time.Time {
	start := truncateDay(p.StartDate)
	if p.PeriodType == PeriodWeekly {
		return start.AddDate(0, 0, periodIndex*7)
	}
	return start.AddDate(0, periodIndex, 0)
}

// PeriodEndDate returns the last day of a period (inclusive).
func (p *PlanConfig) PeriodEndDate(periodIndex int) time.Time {
	if p.PeriodType == PeriodWeekly {
		return p.PeriodStartDate(periodIndex).AddDate(0, 0, 6)
	}
	return p.PeriodStartDate(periodIndex + 1).AddDate(0, 0, -1)
}

// PeriodLabel renders a short display label: ISO calendar week for weekly
// plans ("KW 07"), abbreviated month for monthly plans ("Jan 26").
func (p *PlanConfig) PeriodLabel(periodIndex int) string {
	start := p.PeriodStartDate(periodIndex)
	if p.PeriodType == PeriodWeekly {
		_, week := start.ISOWeek()
		return fmt.Sprintf("KW %02d", week)
	}
	return fmt.Sprintf("%s %02d", start.Format("Jan"), start.Year()%100)
}
