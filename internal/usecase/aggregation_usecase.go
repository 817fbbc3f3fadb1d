package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/mwbrandt/masseplan/internal/domain"
)

// uncategorizedLabel groups entries without a confirmed or suggested
// category so they still show up in the forecast table.
const uncategorizedLabel = "UNCATEGORIZED"

// AggregationUseCase computes the period-indexed forecast table. The
// computation is a pure function of the fetched entry set and the plan
// parameters; results are cached under a hash of exactly those inputs.
type AggregationUseCase struct {
	entryRepo EntryRepository
	planRepo  PlanRepository
	cache     Cache
}

// NewAggregationUseCase creates a new AggregationUseCase.
func NewAggregationUseCase(entryRepo EntryRepository, planRepo PlanRepository, cache Cache) *AggregationUseCase {
	return &AggregationUseCase{
		entryRepo: entryRepo,
		planRepo:  planRepo,
		cache:     cache,
	}
}

// AggregateInput represents input for an aggregation run.
type AggregateInput struct {
	CaseID string
	PlanID string
	From   *time.Time
	To     *time.Time
	// IncludeSuggested lets unconfirmed suggestions fill in category and
	// legal bucket for unreviewed entries.
	IncludeSuggested bool
}

// CategoryBucket is the per-(period, category) aggregate, split by estate.
type CategoryBucket struct {
	Category      string             `json:"category"`
	LegalBucket   domain.LegalBucket `json:"legalBucket"`
	Source        domain.ValueType   `json:"source"`
	AltmasseCents int64              `json:"altmasseCents"`
	NeumasseCents int64              `json:"neumasseCents"`
	TotalCents    int64              `json:"totalCents"`
	EntryCount    int                `json:"entryCount"`
}

// PeriodAggregate is one period row of the forecast table.
type PeriodAggregate struct {
	PeriodIndex         int              `json:"periodIndex"`
	Label               string           `json:"label"`
	StartDate           time.Time        `json:"startDate"`
	EndDate             time.Time        `json:"endDate"`
	OpeningBalanceCents int64            `json:"openingBalanceCents"`
	ClosingBalanceCents int64            `json:"closingBalanceCents"`
	InflowCents         int64            `json:"inflowCents"`
	OutflowCents        int64            `json:"outflowCents"`
	NetCents            int64            `json:"netCents"`
	Categories          []CategoryBucket `json:"categories"`
}

// AggregationResult is the full forecast table plus the run's diagnostics.
// It is a pure function of its inputs: two runs over the same data produce
// byte-identical results, which is what makes the hash-keyed cache sound.
type AggregationResult struct {
	PlanID      string            `json:"planId"`
	DataHash    string            `json:"dataHash"`
	Periods     []PeriodAggregate `json:"periods"`
	Warnings    []string          `json:"warnings,omitempty"`
	PlanIgnored int               `json:"planIgnored"`
}

// Aggregate builds the forecast table for a plan. Internal transfers are
// excluded, out-of-range entries are reported as warnings, and PLAN data is
// suppressed per (period, category) wherever IST data exists.
func (uc *AggregationUseCase) Aggregate(ctx context.Context, input AggregateInput) (*AggregationResult, error) {
	plan, err := uc.planRepo.GetByID(ctx, input.PlanID)
	if err != nil {
		return nil, err
	}

	entries, err := uc.entryRepo.List(ctx, domain.EntryFilter{
		CaseID: input.CaseID,
		From:   input.From,
		To:     input.To,
	})
	if err != nil {
		return nil, err
	}

	hash := dataHash(entries, plan, input.IncludeSuggested)
	cacheKey := fmt.Sprintf("aggregation:%s:%s:%s", input.CaseID, input.PlanID, hash)

	if cached, err := uc.cache.Get(ctx, cacheKey); err == nil && cached != nil {
		var result AggregationResult
		if err := json.Unmarshal(cached, &result); err == nil {
			return &result, nil
		}
	}

	result := uc.compute(entries, plan, input.IncludeSuggested)
	result.DataHash = hash

	if payload, err := json.Marshal(result); err == nil {
		// Cache write failures degrade to recomputation, nothing else.
		_ = uc.cache.Set(ctx, cacheKey, payload, AggregationCacheTTL)
	}

	return result, nil
}

type bucketKey struct {
	category    string
	legalBucket domain.LegalBucket
	source      domain.ValueType
}

func (uc *AggregationUseCase) compute(entries []*domain.LedgerEntry, plan *domain.PlanConfig, includeSuggested bool) *AggregationResult {
	result := &AggregationResult{
		PlanID: plan.ID,
	}

	// First pass: note where IST data exists, per (period, category).
	// PLAN entries in those slots are excluded entirely, not netted.
	istPresence := make(map[int]map[string]bool)
	periodOf := make(map[string]int, len(entries))

	for _, entry := range entries {
		if entry.IsInternalTransfer() {
			continue
		}

		index, err := plan.PeriodIndex(entry.TransactionDate)
		if err != nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("entry %s excluded: %v", entry.ID, err))
			continue
		}
		periodOf[entry.ID] = index

		if entry.ValueType == domain.ValueTypeIST {
			category := effectiveCategoryLabel(entry, includeSuggested)
			if istPresence[index] == nil {
				istPresence[index] = make(map[string]bool)
			}
			istPresence[index][category] = true
		}
	}

	// Second pass: per-period reduction. Periods are independent here; the
	// balance carry comes after.
	type periodAccumulator struct {
		buckets map[bucketKey]*CategoryBucket
		inflow  int64
		outflow int64
		net     int64
	}
	accumulators := make(map[int]*periodAccumulator)

	for _, entry := range entries {
		if entry.IsInternalTransfer() {
			continue
		}

		index, ok := periodOf[entry.ID]
		if !ok {
			continue
		}

		category := effectiveCategoryLabel(entry, includeSuggested)

		if entry.ValueType == domain.ValueTypePLAN && istPresence[index][category] {
			result.PlanIgnored++
			continue
		}

		acc := accumulators[index]
		if acc == nil {
			acc = &periodAccumulator{buckets: make(map[bucketKey]*CategoryBucket)}
			accumulators[index] = acc
		}

		key := bucketKey{
			category:    category,
			legalBucket: entry.EffectiveLegalBucket(includeSuggested),
			source:      entry.ValueType,
		}
		bucket := acc.buckets[key]
		if bucket == nil {
			bucket = &CategoryBucket{
				Category:    key.category,
				LegalBucket: key.legalBucket,
				Source:      key.source,
			}
			acc.buckets[key] = bucket
		}

		neu, alt := domain.SplitAmount(entry.AmountCents, entry.EstateRatio)
		bucket.NeumasseCents += neu
		bucket.AltmasseCents += alt
		bucket.TotalCents += entry.AmountCents
		bucket.EntryCount++

		acc.net += entry.AmountCents
		if entry.AmountCents >= 0 {
			acc.inflow += entry.AmountCents
		} else {
			acc.outflow += -entry.AmountCents
		}
	}

	// Balance carry: a strictly sequential fold seeded with the plan's
	// opening balance. Closing of period k is opening of period k+1.
	result.Periods = make([]PeriodAggregate, 0, plan.PeriodCount)
	balance := plan.OpeningBalanceCents

	for index := 0; index < plan.PeriodCount; index++ {
		period := PeriodAggregate{
			PeriodIndex:         index,
			Label:               plan.PeriodLabel(index),
			StartDate:           plan.PeriodStartDate(index),
			EndDate:             plan.PeriodEndDate(index),
			OpeningBalanceCents: balance,
		}

		if acc := accumulators[index]; acc != nil {
			period.InflowCents = acc.inflow
			period.OutflowCents = acc.outflow
			period.NetCents = acc.net
			period.Categories = sortedBuckets(acc.buckets)
		}

		balance += period.NetCents
		period.ClosingBalanceCents = balance

		result.Periods = append(result.Periods, period)
	}

	sort.Strings(result.Warnings)

	return result
}

func effectiveCategoryLabel(entry *domain.LedgerEntry, includeSuggested bool) string {
	if category := entry.EffectiveCategory(includeSuggested); category != "" {
		return category
	}
	return uncategorizedLabel
}

func sortedBuckets(buckets map[bucketKey]*CategoryBucket) []CategoryBucket {
	keys := make([]bucketKey, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].category != keys[j].category {
			return keys[i].category < keys[j].category
		}
		if keys[i].legalBucket != keys[j].legalBucket {
			return keys[i].legalBucket < keys[j].legalBucket
		}
		return keys[i].source < keys[j].source
	})

	out := make([]CategoryBucket, 0, len(keys))
	for _, key := range keys {
		out = append(out, *buckets[key])
	}

	return out
}

// dataHash fingerprints everything the aggregation depends on. Identical
// input data always maps to the same key, so the cache can never serve a
// result for data that has since changed.
func dataHash(entries []*domain.LedgerEntry, plan *domain.PlanConfig, includeSuggested bool) string {
	lines := make([]string, 0, len(entries)+1)
	for _, entry := range entries {
		lines = append(lines, fmt.Sprintf("%s:%d:%d", entry.ID, entry.AmountCents, entry.UpdatedAt.UnixNano()))
	}
	sort.Strings(lines)

	h := sha256.New()
	for _, line := range lines {
		fmt.Fprintln(h, line)
	}
	fmt.Fprintf(h, "plan:%s:%s:%d:%d:%t\n",
		plan.StartDate.Format("2006-01-02"), plan.PeriodType, plan.PeriodCount,
		plan.OpeningBalanceCents, includeSuggested)

	return hex.EncodeToString(h.Sum(nil))
}
