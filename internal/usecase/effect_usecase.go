package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/mwbrandt/masseplan/internal/domain"
)

// EffectUseCase materializes insolvency effects into PLAN ledger entries.
// Generated entries carry the effect's id as lineage; nothing without that
// lineage is ever touched.
type EffectUseCase struct {
	txManager  TransactionManager
	entryRepo  EntryRepository
	effectRepo EffectRepository
	planRepo   PlanRepository
	auditRepo  AuditRepository
	idGen      IDGenerator
}

// NewEffectUseCase creates a new EffectUseCase.
func NewEffectUseCase(
	txManager TransactionManager,
	entryRepo EntryRepository,
	effectRepo EffectRepository,
	planRepo PlanRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
) *EffectUseCase {
	return &EffectUseCase{
		txManager:  txManager,
		entryRepo:  entryRepo,
		effectRepo: effectRepo,
		planRepo:   planRepo,
		auditRepo:  auditRepo,
		idGen:      idGen,
	}
}

// TransferEffectsInput represents input for a transfer run.
type TransferEffectsInput struct {
	CaseID    string
	EffectIDs []string
}

// TransferEffectsResult reports what a transfer run did. Skipped counts
// effects whose ledger entries already match their current definition.
type TransferEffectsResult struct {
	Created int
	Deleted int
	Skipped int
}

// TransferEffects brings the lineage-tagged ledger entries of each effect in
// line with the effect's current breakdown. The desired entry set is diffed
// against the existing one and only the difference is deleted and created,
// so re-transferring an unchanged effect is a no-op. Each effect commits in
// its own transaction; a failure mid-run leaves earlier effects transferred
// and is reported to the caller.
func (uc *EffectUseCase) TransferEffects(ctx context.Context, input TransferEffectsInput) (*TransferEffectsResult, error) {
	effects, err := uc.effectRepo.GetByIDs(ctx, input.CaseID, input.EffectIDs)
	if err != nil {
		return nil, err
	}

	if len(effects) != len(input.EffectIDs) {
		return nil, domain.ErrEffectNotFound
	}

	result := &TransferEffectsResult{}

	for _, effect := range effects {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		created, deleted, err := uc.transferEffect(ctx, effect)
		if err != nil {
			return result, fmt.Errorf("transfer effect %s: %w", effect.ID, err)
		}

		if created == 0 && deleted == 0 {
			result.Skipped++
			continue
		}

		result.Created += created
		result.Deleted += deleted
	}

	return result, nil
}

func (uc *EffectUseCase) transferEffect(ctx context.Context, effect *domain.InsolvencyEffect) (created, deleted int, err error) {
	plan, err := uc.planRepo.GetByID(ctx, effect.PlanID)
	if err != nil {
		return 0, 0, err
	}

	existing, err := uc.entryRepo.ListBySourceEffect(ctx, effect.ID)
	if err != nil {
		return 0, 0, err
	}

	desired := uc.desiredEntries(effect, plan)

	toCreate, toDelete := diffLineage(existing, desired)
	if len(toCreate) == 0 && len(toDelete) == 0 {
		return 0, 0, nil
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return 0, 0, err
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()

	if len(toDelete) > 0 {
		ids := make([]string, 0, len(toDelete))
		for _, entry := range toDelete {
			ids = append(ids, entry.ID)
		}
		if err := uc.entryRepo.DeleteByIDs(ctx, tx, ids); err != nil {
			return 0, 0, err
		}
	}

	for _, entry := range toCreate {
		entry.CreatedAt = now
		entry.UpdatedAt = now
		if err := uc.entryRepo.Create(ctx, tx, entry); err != nil {
			return 0, 0, err
		}
	}

	changes := domain.ChangeSet{}
	changes.Record("entriesCreated", "", fmt.Sprintf("%d", len(toCreate)))
	changes.Record("entriesDeleted", "", fmt.Sprintf("%d", len(toDelete)))

	if err := uc.auditRepo.CreateTx(ctx, tx, &domain.AuditLogEntry{
		ID:           uc.idGen.Generate(),
		EntryID:      effect.ID,
		CaseID:       effect.CaseID,
		Action:       domain.AuditActionTransferred,
		FieldChanges: changes,
		Reason:       fmt.Sprintf("effect %q transferred to plan %s", effect.Name, effect.PlanID),
		Actor:        "system",
		CreatedAt:    now,
	}); err != nil {
		return 0, 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, err
	}

	return len(toCreate), len(toDelete), nil
}

// desiredEntries builds the PLAN entries an effect should currently have:
// one per non-zero breakdown period, dated at the period start, carrying the
// effect's inherited estate allocation.
func (uc *EffectUseCase) desiredEntries(effect *domain.InsolvencyEffect, plan *domain.PlanConfig) []*domain.LedgerEntry {
	if !effect.IsActive {
		return nil
	}

	allocation := effect.InheritedAllocation()
	category := effect.EffectGroup
	if category == "" {
		category = effect.Name
	}

	periods := effect.NonZeroPeriods()
	entries := make([]*domain.LedgerEntry, 0, len(periods))

	for _, period := range periods {
		if period.PeriodIndex < 0 || period.PeriodIndex >= plan.PeriodCount {
			continue
		}

		effectID := effect.ID
		entries = append(entries, &domain.LedgerEntry{
			ID:               uc.idGen.Generate(),
			CaseID:           effect.CaseID,
			TransactionDate:  plan.PeriodStartDate(period.PeriodIndex),
			AmountCents:      effect.SignedAmount(period.AmountCents),
			Description:      effect.Name,
			ValueType:        domain.ValueTypePLAN,
			LegalBucket:      domain.BucketMasse,
			Category:         category,
			EstateAllocation: allocation.Allocation,
			EstateRatio:      allocation.Ratio,
			AllocationSource: allocation.Source,
			AllocationNote:   allocation.Note,
			ReviewStatus:     domain.ReviewUnreviewed,
			SourceEffectID:   &effectID,
			CreatedBy:        "system",
		})
	}

	return entries
}

// diffLineage matches existing lineage entries to the desired set by
// transaction date and amount. A matched pair whose materialized fields
// still agree is left alone; a pair that diverged (the effect was renamed,
// regrouped or its estate inheritance changed) is rewritten, and the rest
// is the minimal delete/insert set.
func diffLineage(existing, desired []*domain.LedgerEntry) (toCreate, toDelete []*domain.LedgerEntry) {
	type slot struct {
		date   string
		amount int64
	}

	unmatched := make(map[slot][]*domain.LedgerEntry)
	for _, entry := range existing {
		key := slot{date: entry.TransactionDate.Format("2006-01-02"), amount: entry.AmountCents}
		unmatched[key] = append(unmatched[key], entry)
	}

	for _, entry := range desired {
		key := slot{date: entry.TransactionDate.Format("2006-01-02"), amount: entry.AmountCents}
		if stack := unmatched[key]; len(stack) > 0 {
			match := stack[len(stack)-1]
			unmatched[key] = stack[:len(stack)-1]

			if sameMaterialization(match, entry) {
				continue
			}

			toDelete = append(toDelete, match)
		}
		toCreate = append(toCreate, entry)
	}

	for _, stack := range unmatched {
		toDelete = append(toDelete, stack...)
	}

	return toCreate, toDelete
}

// sameMaterialization reports whether an existing lineage entry still
// carries everything the effect's current definition would write into it.
func sameMaterialization(existing, desired *domain.LedgerEntry) bool {
	return existing.Description == desired.Description &&
		existing.Category == desired.Category &&
		existing.LegalBucket == desired.LegalBucket &&
		existing.EstateAllocation == desired.EstateAllocation &&
		existing.EstateRatio.Equal(desired.EstateRatio) &&
		existing.AllocationSource == desired.AllocationSource &&
		existing.AllocationNote == desired.AllocationNote
}
