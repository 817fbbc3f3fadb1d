package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mwbrandt/masseplan/internal/domain"
)

// AllocationUseCase assigns every realized cash movement to the pre- or
// post-opening estate.
type AllocationUseCase struct {
	entryRepo        EntryRepository
	caseRepo         CaseRepository
	counterpartyRepo CounterpartyRepository
	splitRuleRepo    SplitRuleRepository
	auditRepo        AuditRepository
	idGen            IDGenerator
}

// NewAllocationUseCase creates a new AllocationUseCase.
func NewAllocationUseCase(
	entryRepo EntryRepository,
	caseRepo CaseRepository,
	counterpartyRepo CounterpartyRepository,
	splitRuleRepo SplitRuleRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
) *AllocationUseCase {
	return &AllocationUseCase{
		entryRepo:        entryRepo,
		caseRepo:         caseRepo,
		counterpartyRepo: counterpartyRepo,
		splitRuleRepo:    splitRuleRepo,
		auditRepo:        auditRepo,
		idGen:            idGen,
	}
}

// ResolveAllocationInput represents input for an allocation run. An empty
// EntryIDs list means "all entries of the case".
type ResolveAllocationInput struct {
	CaseID   string
	EntryIDs []string
}

// ResolveAllocationResult reports what an allocation run did.
type ResolveAllocationResult struct {
	Updated int
	Skipped int
	Errors  int
}

// ResolveEstateAllocation computes the estate split for each selected entry.
// Manual allocations are sticky and PLAN entries with effect lineage inherit
// from their effect, so both are skipped. Re-running over unchanged entries
// is a no-op.
func (uc *AllocationUseCase) ResolveEstateAllocation(ctx context.Context, input ResolveAllocationInput) (*ResolveAllocationResult, error) {
	caseRecord, err := uc.caseRepo.GetByID(ctx, input.CaseID)
	if err != nil {
		return nil, err
	}

	splitRules, err := uc.splitRuleRepo.ListByCase(ctx, input.CaseID)
	if err != nil {
		return nil, err
	}

	categories, err := uc.counterpartyCategories(ctx, input.CaseID)
	if err != nil {
		return nil, err
	}

	entries, err := uc.entryRepo.List(ctx, domain.EntryFilter{
		CaseID: input.CaseID,
		IDs:    input.EntryIDs,
	})
	if err != nil {
		return nil, err
	}

	result := &ResolveAllocationResult{}
	now := time.Now().UTC()

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		// Lineage-tagged PLAN entries inherit their allocation from the
		// generating effect; the transfer engine owns them.
		if entry.ValueType == domain.ValueTypePLAN && entry.SourceEffectID != nil {
			result.Skipped++
			continue
		}

		// A human decision is never overwritten.
		if entry.AllocationSource == domain.AllocationManual {
			result.Skipped++
			continue
		}

		decision := uc.resolve(caseRecord, splitRules, categories, entry)

		current := domain.AllocationResult{
			Allocation: entry.EstateAllocation,
			Ratio:      entry.EstateRatio,
			Source:     entry.AllocationSource,
		}
		if decision.Equal(current) {
			result.Skipped++
			continue
		}

		if err := uc.entryRepo.UpdateAllocation(ctx, entry.ID, decision, now); err != nil {
			result.Errors++
			continue
		}

		changes := domain.ChangeSet{}
		changes.Record("estateAllocation", string(entry.EstateAllocation), string(decision.Allocation))
		changes.Record("estateRatio", entry.EstateRatio.String(), decision.Ratio.String())
		changes.Record("allocationSource", string(entry.AllocationSource), string(decision.Source))

		if err := uc.auditRepo.Create(ctx, &domain.AuditLogEntry{
			ID:           uc.idGen.Generate(),
			EntryID:      entry.ID,
			CaseID:       entry.CaseID,
			Action:       domain.AuditActionAllocated,
			FieldChanges: changes,
			Reason:       decision.Note,
			Actor:        "system",
			CreatedAt:    now,
		}); err != nil {
			result.Errors++
			continue
		}

		result.Updated++
	}

	return result, nil
}

// resolve applies the allocation cascade: a matching contractual split rule
// wins, an entry with a known service period is pro-rated day-exact over
// that period, everything else falls back to the opening-date cutoff.
// Without a resolvable counterparty the fallback decision is kept but
// tagged as the lower-confidence path. PLAN entries without effect lineage
// are planned post-opening values and default to the Neumasse.
func (uc *AllocationUseCase) resolve(
	caseRecord *domain.Case,
	splitRules []*domain.ContractSplitRule,
	categories map[string]string,
	entry *domain.LedgerEntry,
) domain.AllocationResult {
	if entry.ValueType == domain.ValueTypePLAN {
		return domain.AllocationResult{
			Allocation: domain.EstateNeumasse,
			Ratio:      decimal.NewFromInt(1),
			Source:     domain.AllocationDateDefault,
			Note:       "planned value defaults to Neumasse",
		}
	}

	category, resolvable := uc.counterpartyCategory(categories, entry)

	if resolvable {
		for _, rule := range splitRules {
			if rule.AppliesTo(category, entry.TransactionDate) {
				return rule.Result()
			}
		}
	}

	decision, decided := domain.AllocationResult{}, false
	if entry.ServicePeriod != nil {
		decision, decided = domain.ProRataResult(caseRecord.OpeningDate, *entry.ServicePeriod)
	}
	if !decided {
		decision = dateDefault(caseRecord.OpeningDate, entry.TransactionDate)
	}

	if !resolvable {
		decision.Source = domain.AllocationUnknownCounterparty
	}

	return decision
}

func (uc *AllocationUseCase) counterpartyCategories(ctx context.Context, caseID string) (map[string]string, error) {
	counterparties, err := uc.counterpartyRepo.ListByCase(ctx, caseID)
	if err != nil {
		return nil, err
	}

	m := make(map[string]string, len(counterparties))
	for _, cp := range counterparties {
		m[cp.ID] = cp.Category
	}

	return m, nil
}

func (uc *AllocationUseCase) counterpartyCategory(categories map[string]string, entry *domain.LedgerEntry) (string, bool) {
	if entry.CounterpartyID == nil {
		return "", false
	}

	category, ok := categories[*entry.CounterpartyID]
	if !ok {
		return "", false
	}

	return category, true
}

// dateDefault implements the opening-date cutoff: cash effects dated before
// the opening belong fully to the Altmasse, everything from the opening day
// on fully to the Neumasse.
func dateDefault(openingDate, transactionDate time.Time) domain.AllocationResult {
	if transactionDate.Before(openingDate) {
		return domain.AllocationResult{
			Allocation: domain.EstateAltmasse,
			Ratio:      decimal.Zero,
			Source:     domain.AllocationDateDefault,
		}
	}

	return domain.AllocationResult{
		Allocation: domain.EstateNeumasse,
		Ratio:      decimal.NewFromInt(1),
		Source:     domain.AllocationDateDefault,
	}
}
