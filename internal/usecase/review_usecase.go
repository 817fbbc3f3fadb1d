package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mwbrandt/masseplan/internal/domain"
)

// ReviewUseCase runs the human-review lifecycle. It is the only writer of an
// entry's authoritative classification and allocation fields; every
// transition appends one audit row inside the same transaction.
type ReviewUseCase struct {
	txManager TransactionManager
	entryRepo EntryRepository
	auditRepo AuditRepository
	idGen     IDGenerator
}

// NewReviewUseCase creates a new ReviewUseCase.
func NewReviewUseCase(
	txManager TransactionManager,
	entryRepo EntryRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
) *ReviewUseCase {
	return &ReviewUseCase{
		txManager: txManager,
		entryRepo: entryRepo,
		auditRepo: auditRepo,
		idGen:     idGen,
	}
}

// ConfirmInput represents input for confirming an entry.
type ConfirmInput struct {
	EntryID string
	Actor   string
}

// Confirm accepts an entry as correct. A populated suggestion is promoted
// into the authoritative fields; the suggestion itself stays in place so the
// decision remains traceable. Without a suggestion the entry is confirmed
// as-is.
func (uc *ReviewUseCase) Confirm(ctx context.Context, input ConfirmInput) (*domain.LedgerEntry, error) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	entry, err := uc.entryRepo.GetByIDForUpdate(ctx, tx, input.EntryID)
	if err != nil {
		return nil, err
	}

	if entry.ReviewStatus != domain.ReviewUnreviewed {
		return nil, fmt.Errorf("%w: cannot confirm %s entry", domain.ErrInvalidTransition, entry.ReviewStatus)
	}

	now := time.Now().UTC()
	changes := domain.ChangeSet{}

	if s := entry.Suggestion; s != nil {
		if s.Category != "" {
			changes.Record("category", entry.Category, s.Category)
			entry.Category = s.Category
		}
		if s.LegalBucket != "" {
			changes.Record("legalBucket", string(entry.LegalBucket), string(s.LegalBucket))
			entry.LegalBucket = s.LegalBucket
		}
		if s.BankAccountID != nil {
			changes.Record("bankAccountId", entry.BankAccountID, s.BankAccountID)
			entry.BankAccountID = s.BankAccountID
		}
		if s.CounterpartyID != nil {
			changes.Record("counterpartyId", entry.CounterpartyID, s.CounterpartyID)
			entry.CounterpartyID = s.CounterpartyID
		}
		if s.LocationID != nil {
			changes.Record("locationId", entry.LocationID, s.LocationID)
			entry.LocationID = s.LocationID
		}
		if entry.SuggestedServicePeriod != nil {
			entry.ServicePeriod = entry.SuggestedServicePeriod
			changes.Record("servicePeriod", "", formatDateRange(entry.SuggestedServicePeriod))
		}
	}

	changes.Record("reviewStatus", string(entry.ReviewStatus), string(domain.ReviewConfirmed))
	entry.ReviewStatus = domain.ReviewConfirmed
	entry.ReviewedBy = input.Actor
	entry.ReviewedAt = &now
	entry.UpdatedAt = now

	if err := uc.entryRepo.Update(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err := uc.auditRepo.CreateTx(ctx, tx, &domain.AuditLogEntry{
		ID:           uc.idGen.Generate(),
		EntryID:      entry.ID,
		CaseID:       entry.CaseID,
		Action:       domain.AuditActionConfirmed,
		FieldChanges: changes,
		Actor:        input.Actor,
		CreatedAt:    now,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return entry, nil
}

// AdjustChanges is the sparse set of corrections an adjustment may carry.
// Nil fields are left unchanged.
type AdjustChanges struct {
	AmountCents      *int64
	TransactionDate  *time.Time
	Category         *string
	LegalBucket      *domain.LegalBucket
	Note             *string
	BankAccountID    *string
	CounterpartyID   *string
	LocationID       *string
	EstateAllocation *domain.EstateAllocation
	EstateRatio      *string
}

// AdjustInput represents input for adjusting an entry.
type AdjustInput struct {
	EntryID string
	Actor   string
	Reason  string
	Changes AdjustChanges
}

// Adjust corrects an entry. The reason is mandatory, at least one field must
// change, and the previous amount is snapshotted when the amount changes. An
// adjusted estate split becomes a manual allocation and is sticky from then
// on.
func (uc *ReviewUseCase) Adjust(ctx context.Context, input AdjustInput) (*domain.LedgerEntry, error) {
	if strings.TrimSpace(input.Reason) == "" {
		return nil, domain.ErrReasonRequired
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	entry, err := uc.entryRepo.GetByIDForUpdate(ctx, tx, input.EntryID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	changes := domain.ChangeSet{}

	if err := uc.applyAdjustments(entry, input.Changes, changes); err != nil {
		return nil, err
	}

	if len(changes) == 0 {
		return nil, domain.ErrNoFieldChanges
	}

	changes.Record("reviewStatus", string(entry.ReviewStatus), string(domain.ReviewAdjusted))
	entry.ReviewStatus = domain.ReviewAdjusted
	entry.ReviewedBy = input.Actor
	entry.ReviewedAt = &now
	entry.ChangeReason = input.Reason
	entry.UpdatedAt = now

	if err := uc.entryRepo.Update(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err := uc.auditRepo.CreateTx(ctx, tx, &domain.AuditLogEntry{
		ID:           uc.idGen.Generate(),
		EntryID:      entry.ID,
		CaseID:       entry.CaseID,
		Action:       domain.AuditActionAdjusted,
		FieldChanges: changes,
		Reason:       input.Reason,
		Actor:        input.Actor,
		CreatedAt:    now,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return entry, nil
}

func (uc *ReviewUseCase) applyAdjustments(entry *domain.LedgerEntry, in AdjustChanges, changes domain.ChangeSet) error {
	if in.AmountCents != nil && *in.AmountCents != entry.AmountCents {
		previous := entry.AmountCents
		changes.Record("amountCents", fmt.Sprintf("%d", previous), fmt.Sprintf("%d", *in.AmountCents))
		entry.PreviousAmountCents = &previous
		entry.AmountCents = *in.AmountCents
	}
	if in.TransactionDate != nil {
		changes.Record("transactionDate", entry.TransactionDate, *in.TransactionDate)
		entry.TransactionDate = *in.TransactionDate
	}
	if in.Category != nil {
		changes.Record("category", entry.Category, *in.Category)
		entry.Category = *in.Category
	}
	if in.LegalBucket != nil {
		changes.Record("legalBucket", string(entry.LegalBucket), string(*in.LegalBucket))
		entry.LegalBucket = *in.LegalBucket
	}
	if in.Note != nil {
		changes.Record("note", entry.Note, *in.Note)
		entry.Note = *in.Note
	}
	if in.BankAccountID != nil {
		changes.Record("bankAccountId", entry.BankAccountID, in.BankAccountID)
		entry.BankAccountID = in.BankAccountID
	}
	if in.CounterpartyID != nil {
		changes.Record("counterpartyId", entry.CounterpartyID, in.CounterpartyID)
		entry.CounterpartyID = in.CounterpartyID
	}
	if in.LocationID != nil {
		changes.Record("locationId", entry.LocationID, in.LocationID)
		entry.LocationID = in.LocationID
	}

	estateChanged := false
	if in.EstateAllocation != nil {
		changes.Record("estateAllocation", string(entry.EstateAllocation), string(*in.EstateAllocation))
		entry.EstateAllocation = *in.EstateAllocation
		estateChanged = true
	}
	if in.EstateRatio != nil {
		ratio, err := parseRatio(*in.EstateRatio)
		if err != nil {
			return err
		}
		changes.Record("estateRatio", entry.EstateRatio.String(), ratio.String())
		entry.EstateRatio = ratio
		estateChanged = true
	}
	if estateChanged {
		changes.Record("allocationSource", string(entry.AllocationSource), string(domain.AllocationManual))
		entry.AllocationSource = domain.AllocationManual
	}

	return nil
}

// GetEntry returns one entry.
func (uc *ReviewUseCase) GetEntry(ctx context.Context, id string) (*domain.LedgerEntry, error) {
	return uc.entryRepo.GetByID(ctx, id)
}

// ListEntries returns entries matching a filter, with capped paging.
func (uc *ReviewUseCase) ListEntries(ctx context.Context, filter domain.EntryFilter) ([]*domain.LedgerEntry, error) {
	if filter.Limit <= 0 {
		filter.Limit = DefaultListLimit
	}
	if filter.Limit > MaxListLimit {
		filter.Limit = MaxListLimit
	}

	return uc.entryRepo.List(ctx, filter)
}

// AuditTrail returns audit rows matching a filter, with capped paging.
func (uc *ReviewUseCase) AuditTrail(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLogEntry, error) {
	if filter.Limit <= 0 {
		filter.Limit = DefaultListLimit
	}
	if filter.Limit > MaxListLimit {
		filter.Limit = MaxListLimit
	}

	return uc.auditRepo.List(ctx, filter)
}

// ReviewStats is a read model over the review state of a case.
type ReviewStats struct {
	Unreviewed int
	Confirmed  int
	Adjusted   int
}

// Stats counts entries per review status.
func (uc *ReviewUseCase) Stats(ctx context.Context, caseID string) (*ReviewStats, error) {
	entries, err := uc.entryRepo.List(ctx, domain.EntryFilter{CaseID: caseID})
	if err != nil {
		return nil, err
	}

	stats := &ReviewStats{}
	for _, entry := range entries {
		switch entry.ReviewStatus {
		case domain.ReviewConfirmed:
			stats.Confirmed++
		case domain.ReviewAdjusted:
			stats.Adjusted++
		default:
			stats.Unreviewed++
		}
	}

	return stats, nil
}

func parseRatio(s string) (decimal.Decimal, error) {
	ratio, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", domain.ErrInvalidRatio, s)
	}
	if ratio.IsNegative() || ratio.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.Zero, fmt.Errorf("%w: %s", domain.ErrInvalidRatio, ratio)
	}

	return ratio, nil
}

func formatDateRange(r *domain.DateRange) string {
	if r == nil {
		return ""
	}
	return r.Start.Format("2006-01-02") + ".." + r.End.Format("2006-01-02")
}
