package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/mwbrandt/masseplan/internal/domain"
)

// ClassificationUseCase produces categorization suggestions from the case's
// rule set. It only ever writes the suggestion fields; authoritative fields
// change through review governance alone.
type ClassificationUseCase struct {
	entryRepo EntryRepository
	ruleRepo  RuleRepository
	auditRepo AuditRepository
	idGen     IDGenerator
}

// NewClassificationUseCase creates a new ClassificationUseCase.
func NewClassificationUseCase(
	entryRepo EntryRepository,
	ruleRepo RuleRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
) *ClassificationUseCase {
	return &ClassificationUseCase{
		entryRepo: entryRepo,
		ruleRepo:  ruleRepo,
		auditRepo: auditRepo,
		idGen:     idGen,
	}
}

// ClassifyBatchInput represents input for a classification run. An empty
// EntryIDs list means "all unreviewed entries of the case".
type ClassifyBatchInput struct {
	CaseID   string
	EntryIDs []string
}

// ClassifyBatchResult reports what a classification run did.
type ClassifyBatchResult struct {
	Classified int
	Unchanged  int
	Errors     int
}

// ClassifyBatch matches each selected entry against the active rules in
// priority order; the first matching rule wins. A per-entry failure is
// counted and the batch continues.
func (uc *ClassificationUseCase) ClassifyBatch(ctx context.Context, input ClassifyBatchInput) (*ClassifyBatchResult, error) {
	rules, err := uc.ruleRepo.ListActiveByCase(ctx, input.CaseID)
	if err != nil {
		return nil, err
	}

	filter := domain.EntryFilter{CaseID: input.CaseID, IDs: input.EntryIDs}
	if len(input.EntryIDs) == 0 {
		filter.ReviewStatus = domain.ReviewUnreviewed
	}

	entries, err := uc.entryRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	result := &ClassifyBatchResult{}
	now := time.Now().UTC()

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		classified, err := uc.classifyEntry(ctx, rules, entry, now)
		if err != nil {
			result.Errors++
			continue
		}

		if classified {
			result.Classified++
		} else {
			result.Unchanged++
		}
	}

	return result, nil
}

func (uc *ClassificationUseCase) classifyEntry(
	ctx context.Context,
	rules []*domain.ClassificationRule,
	entry *domain.LedgerEntry,
	now time.Time,
) (bool, error) {
	var suggestion *domain.Suggestion
	var servicePeriod *domain.DateRange

	for _, rule := range rules {
		matched, matchedValue := rule.Matches(entry)
		if !matched {
			continue
		}

		suggestion = rule.BuildSuggestion(matchedValue)
		servicePeriod = domain.DeriveServicePeriod(rule.ServiceRule, entry.TransactionDate)
		break
	}

	// No rule matched: the entry stays suggestion-free and surfaces as
	// needing manual triage.
	if suggestion == nil {
		return false, nil
	}

	if sameSuggestion(entry.Suggestion, suggestion) && samePeriod(entry.SuggestedServicePeriod, servicePeriod) {
		return false, nil
	}

	if err := uc.entryRepo.UpdateSuggestion(ctx, entry.ID, suggestion, servicePeriod, now); err != nil {
		return false, fmt.Errorf("update suggestion for entry %s: %w", entry.ID, err)
	}

	changes := domain.ChangeSet{}
	if entry.Suggestion != nil {
		changes.Record("suggestedCategory", entry.Suggestion.Category, suggestion.Category)
		changes.Record("suggestedLegalBucket", string(entry.Suggestion.LegalBucket), string(suggestion.LegalBucket))
		changes.Record("suggestedByRule", entry.Suggestion.RuleID, suggestion.RuleID)
	} else {
		changes.Record("suggestedCategory", "", suggestion.Category)
		changes.Record("suggestedLegalBucket", "", string(suggestion.LegalBucket))
		changes.Record("suggestedByRule", "", suggestion.RuleID)
	}

	if err := uc.auditRepo.Create(ctx, &domain.AuditLogEntry{
		ID:           uc.idGen.Generate(),
		EntryID:      entry.ID,
		CaseID:       entry.CaseID,
		Action:       domain.AuditActionClassified,
		FieldChanges: changes,
		Reason:       suggestion.Reason,
		Actor:        "system",
		CreatedAt:    now,
	}); err != nil {
		return false, err
	}

	return true, nil
}

// ReclassifyUnreviewed clears the suggestions of every unreviewed entry and
// runs a fresh batch, so rule edits propagate without touching reviewed
// entries.
func (uc *ClassificationUseCase) ReclassifyUnreviewed(ctx context.Context, caseID string) (*ClassifyBatchResult, error) {
	entries, err := uc.entryRepo.List(ctx, domain.EntryFilter{
		CaseID:       caseID,
		ReviewStatus: domain.ReviewUnreviewed,
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	result := &ClassifyBatchResult{}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if entry.Suggestion == nil {
			continue
		}

		if err := uc.entryRepo.UpdateSuggestion(ctx, entry.ID, nil, nil, now); err != nil {
			result.Errors++
		}
	}

	batch, err := uc.ClassifyBatch(ctx, ClassifyBatchInput{CaseID: caseID})
	if err != nil {
		return result, err
	}

	batch.Errors += result.Errors

	return batch, nil
}

// ClassificationStats is a read model over the suggestion state of a case.
type ClassificationStats struct {
	Total          int
	Suggested      int
	Unsuggested    int
	ByLegalBucket  map[domain.LegalBucket]int
	HighConfidence int
	LowConfidence  int
}

// highConfidenceThreshold separates suggestions a reviewer can wave through
// from ones worth a closer look.
const highConfidenceThreshold = 0.8

// Stats summarizes suggestion coverage for the unreviewed entries of a case.
func (uc *ClassificationUseCase) Stats(ctx context.Context, caseID string) (*ClassificationStats, error) {
	entries, err := uc.entryRepo.List(ctx, domain.EntryFilter{
		CaseID:       caseID,
		ReviewStatus: domain.ReviewUnreviewed,
	})
	if err != nil {
		return nil, err
	}

	stats := &ClassificationStats{
		ByLegalBucket: make(map[domain.LegalBucket]int),
	}

	for _, entry := range entries {
		stats.Total++

		if entry.Suggestion == nil {
			stats.Unsuggested++
			continue
		}

		stats.Suggested++
		stats.ByLegalBucket[entry.Suggestion.LegalBucket]++

		if entry.Suggestion.Confidence >= highConfidenceThreshold {
			stats.HighConfidence++
		} else {
			stats.LowConfidence++
		}
	}

	return stats, nil
}

func sameSuggestion(a, b *domain.Suggestion) bool {
	if a == nil || b == nil {
		return a == b
	}

	return a.Category == b.Category &&
		a.LegalBucket == b.LegalBucket &&
		a.RuleID == b.RuleID &&
		a.Confidence == b.Confidence &&
		samePtr(a.BankAccountID, b.BankAccountID) &&
		samePtr(a.CounterpartyID, b.CounterpartyID) &&
		samePtr(a.LocationID, b.LocationID)
}

func samePtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}

	return *a == *b
}

func samePeriod(a, b *domain.DateRange) bool {
	if a == nil || b == nil {
		return a == b
	}

	return a.Start.Equal(b.Start) && a.End.Equal(b.End)
}
