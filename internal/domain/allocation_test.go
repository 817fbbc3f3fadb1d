package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestSplitAmount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		amountCents int64
		ratio       string
		wantNeu     int64
		wantAlt     int64
	}{
		{name: "fully neumasse", amountCents: 10000, ratio: "1", wantNeu: 10000, wantAlt: 0},
		{name: "fully altmasse", amountCents: 10000, ratio: "0", wantNeu: 0, wantAlt: 10000},
		{name: "even split", amountCents: 10000, ratio: "0.5", wantNeu: 5000, wantAlt: 5000},
		{name: "half cent rounds to even down", amountCents: 101, ratio: "0.5", wantNeu: 50, wantAlt: 51},
		{name: "half cent rounds to even up", amountCents: 103, ratio: "0.5", wantNeu: 52, wantAlt: 51},
		{name: "negative amount keeps sum", amountCents: -101, ratio: "0.5", wantNeu: -50, wantAlt: -51},
		{name: "day-count fraction", amountCents: 31000, ratio: "0.903225806452", wantNeu: 28000, wantAlt: 3000},
		{name: "zero amount", amountCents: 0, ratio: "0.7", wantNeu: 0, wantAlt: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ratio := decimal.RequireFromString(tt.ratio)
			neu, alt := SplitAmount(tt.amountCents, ratio)

			if neu != tt.wantNeu || alt != tt.wantAlt {
				t.Fatalf("SplitAmount(%d, %s) = (%d, %d), want (%d, %d)",
					tt.amountCents, tt.ratio, neu, alt, tt.wantNeu, tt.wantAlt)
			}
			if neu+alt != tt.amountCents {
				t.Fatalf("shares %d + %d do not sum to %d", neu, alt, tt.amountCents)
			}
		})
	}
}

func TestRatioFromDays(t *testing.T) {
	t.Parallel()

	if got := RatioFromDays(0, 31); !got.IsZero() {
		t.Fatalf("0/31 = %s, want 0", got)
	}
	if got := RatioFromDays(31, 31); !got.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("31/31 = %s, want 1", got)
	}
	if got := RatioFromDays(28, 31); got.StringFixed(6) != "0.903226" {
		t.Fatalf("28/31 = %s", got)
	}
	if got := RatioFromDays(5, 0); !got.IsZero() {
		t.Fatalf("n/0 = %s, want 0", got)
	}
}

func TestProRataResult(t *testing.T) {
	t.Parallel()

	opening := date(2026, time.February, 1)

	tests := []struct {
		name      string
		period    DateRange
		wantRatio string
		wantAlloc EstateAllocation
		wantOK    bool
	}{
		{
			name:      "fully before opening",
			period:    DateRange{Start: date(2026, time.January, 1), End: date(2026, time.January, 31)},
			wantRatio: "0", wantAlloc: EstateAltmasse, wantOK: true,
		},
		{
			name:      "fully after opening",
			period:    DateRange{Start: date(2026, time.February, 1), End: date(2026, time.February, 28)},
			wantRatio: "1", wantAlloc: EstateNeumasse, wantOK: true,
		},
		{
			name:      "straddling split by days",
			period:    DateRange{Start: date(2026, time.January, 22), End: date(2026, time.February, 10)},
			wantRatio: "0.5", wantAlloc: EstateMixed, wantOK: true,
		},
		{
			name:      "single day counts inclusively",
			period:    DateRange{Start: date(2026, time.February, 1), End: date(2026, time.February, 1)},
			wantRatio: "1", wantAlloc: EstateNeumasse, wantOK: true,
		},
		{
			name:   "inverted period is rejected",
			period: DateRange{Start: date(2026, time.February, 10), End: date(2026, time.February, 1)},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, ok := ProRataResult(opening, tt.period)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if !result.Ratio.Equal(decimal.RequireFromString(tt.wantRatio)) {
				t.Fatalf("ratio = %s, want %s", result.Ratio, tt.wantRatio)
			}
			if result.Allocation != tt.wantAlloc {
				t.Fatalf("allocation = %s, want %s", result.Allocation, tt.wantAlloc)
			}
			if result.Source != AllocationDateDefault {
				t.Fatalf("source = %s", result.Source)
			}
		})
	}
}

func TestAllocationFromRatio(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ratio string
		want  EstateAllocation
	}{
		{"0", EstateAltmasse},
		{"1", EstateNeumasse},
		{"1.000", EstateNeumasse},
		{"0.5", EstateMixed},
		{"0.999999", EstateMixed},
	}

	for _, tt := range tests {
		if got := AllocationFromRatio(decimal.RequireFromString(tt.ratio)); got != tt.want {
			t.Fatalf("AllocationFromRatio(%s) = %s, want %s", tt.ratio, got, tt.want)
		}
	}
}

func TestContractSplitRule_AppliesTo(t *testing.T) {
	t.Parallel()

	rule := &ContractSplitRule{
		CounterpartyCategory: "KV",
		ValidFrom:            date(2026, time.January, 1),
		ValidTo:              date(2026, time.March, 31),
		NeuRatio:             decimal.RequireFromString("0.6"),
	}

	tests := []struct {
		name     string
		category string
		day      time.Time
		want     bool
	}{
		{"inside window", "KV", date(2026, time.February, 10), true},
		{"first day inclusive", "KV", date(2026, time.January, 1), true},
		{"last day inclusive", "KV", date(2026, time.March, 31), true},
		{"before window", "KV", date(2025, time.December, 31), false},
		{"after window", "KV", date(2026, time.April, 1), false},
		{"other category", "Vermieter", date(2026, time.February, 10), false},
		{"time of day ignored", "KV", time.Date(2026, time.March, 31, 23, 59, 0, 0, time.UTC), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rule.AppliesTo(tt.category, tt.day); got != tt.want {
				t.Fatalf("AppliesTo(%q, %s) = %v, want %v", tt.category, tt.day, got, tt.want)
			}
		})
	}
}

func TestContractSplitRule_Result(t *testing.T) {
	t.Parallel()

	rule := &ContractSplitRule{NeuRatio: decimal.RequireFromString("0.6"), Note: "contract split 60/40"}
	result := rule.Result()

	if result.Allocation != EstateMixed {
		t.Fatalf("allocation = %s, want MIXED", result.Allocation)
	}
	if result.Source != AllocationContractRule {
		t.Fatalf("source = %s, want CONTRACT_RULE", result.Source)
	}
	if !result.Ratio.Equal(rule.NeuRatio) {
		t.Fatalf("ratio = %s, want %s", result.Ratio, rule.NeuRatio)
	}
}

func TestAllocationResult_Equal(t *testing.T) {
	t.Parallel()

	a := AllocationResult{Allocation: EstateMixed, Ratio: decimal.RequireFromString("0.50"), Source: AllocationContractRule}
	b := AllocationResult{Allocation: EstateMixed, Ratio: decimal.RequireFromString("0.5"), Source: AllocationContractRule, Note: "different note"}

	if !a.Equal(b) {
		t.Fatal("results differing only in scale and note must compare equal")
	}

	c := b
	c.Source = AllocationManual
	if a.Equal(c) {
		t.Fatal("results with different sources must not compare equal")
	}
}
