package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mwbrandt/masseplan/internal/domain"
	"github.com/mwbrandt/masseplan/internal/usecase"
)

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	pool *pgxpool.Pool
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(pool *pgxpool.Pool) *EntryRepository {
	return &EntryRepository{pool: pool}
}

const entryColumns = `
	id, case_id, transaction_date, amount_cents, description, note,
	value_type, legal_bucket, category,
	bank_account_id, counterparty_id, location_id, transfer_partner_entry_id,
	estate_allocation, estate_ratio, allocation_source, allocation_note,
	suggestion, service_date,
	service_period_start, service_period_end,
	suggested_period_start, suggested_period_end,
	review_status, reviewed_by, reviewed_at, change_reason, previous_amount_cents,
	source_effect_id, normalized,
	created_at, created_by, updated_at
`

// Create inserts a new ledger entry.
func (r *EntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	suggestionJSON, normalizedJSON, err := marshalEntryJSON(entry)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO ledger_entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26,
		        $27, $28, $29, $30, $31, $32, $33)
	`

	periodStart, periodEnd := rangeBounds(entry.ServicePeriod)
	suggestedStart, suggestedEnd := rangeBounds(entry.SuggestedServicePeriod)

	_, err = queryable(r.pool, tx).Exec(ctx, query,
		entry.ID,
		entry.CaseID,
		entry.TransactionDate,
		entry.AmountCents,
		entry.Description,
		entry.Note,
		entry.ValueType,
		entry.LegalBucket,
		entry.Category,
		entry.BankAccountID,
		entry.CounterpartyID,
		entry.LocationID,
		entry.TransferPartnerEntryID,
		entry.EstateAllocation,
		decimalToNumeric(entry.EstateRatio),
		entry.AllocationSource,
		entry.AllocationNote,
		suggestionJSON,
		entry.ServiceDate,
		periodStart,
		periodEnd,
		suggestedStart,
		suggestedEnd,
		entry.ReviewStatus,
		entry.ReviewedBy,
		entry.ReviewedAt,
		entry.ChangeReason,
		entry.PreviousAmountCents,
		entry.SourceEffectID,
		normalizedJSON,
		entry.CreatedAt,
		entry.CreatedBy,
		entry.UpdatedAt,
	)

	return err
}

// GetByID retrieves an entry by ID.
func (r *EntryRepository) GetByID(ctx context.Context, id string) (*domain.LedgerEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE id = $1`

	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

// GetByIDForUpdate retrieves an entry with a row lock inside a transaction.
func (r *EntryRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.LedgerEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE id = $1 FOR UPDATE`

	return r.scanOne(queryable(r.pool, tx).QueryRow(ctx, query, id))
}

// List retrieves entries matching a filter, ordered by transaction date.
func (r *EntryRepository) List(ctx context.Context, filter domain.EntryFilter) ([]*domain.LedgerEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE 1=1`
	args := []any{}

	if filter.CaseID != "" {
		args = append(args, filter.CaseID)
		query += fmt.Sprintf(` AND case_id = $%d`, len(args))
	}
	if len(filter.IDs) > 0 {
		args = append(args, filter.IDs)
		query += fmt.Sprintf(` AND id = ANY($%d)`, len(args))
	}
	if filter.ValueType != "" {
		args = append(args, filter.ValueType)
		query += fmt.Sprintf(` AND value_type = $%d`, len(args))
	}
	if filter.ReviewStatus != "" {
		args = append(args, filter.ReviewStatus)
		query += fmt.Sprintf(` AND review_status = $%d`, len(args))
	}
	if filter.WithoutSuggested {
		query += ` AND suggestion IS NULL`
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		query += fmt.Sprintf(` AND transaction_date >= $%d`, len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		query += fmt.Sprintf(` AND transaction_date <= $%d`, len(args))
	}

	query += ` ORDER BY transaction_date, id`

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanAll(rows)
}

// Update rewrites all mutable fields of an entry.
func (r *EntryRepository) Update(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	suggestionJSON, normalizedJSON, err := marshalEntryJSON(entry)
	if err != nil {
		return err
	}

	query := `
		UPDATE ledger_entries SET
			transaction_date = $2, amount_cents = $3, description = $4, note = $5,
			value_type = $6, legal_bucket = $7, category = $8,
			bank_account_id = $9, counterparty_id = $10, location_id = $11,
			transfer_partner_entry_id = $12,
			estate_allocation = $13, estate_ratio = $14, allocation_source = $15,
			allocation_note = $16,
			suggestion = $17, service_date = $18,
			service_period_start = $19, service_period_end = $20,
			suggested_period_start = $21, suggested_period_end = $22,
			review_status = $23, reviewed_by = $24, reviewed_at = $25,
			change_reason = $26, previous_amount_cents = $27,
			normalized = $28, updated_at = $29
		WHERE id = $1
	`

	periodStart, periodEnd := rangeBounds(entry.ServicePeriod)
	suggestedStart, suggestedEnd := rangeBounds(entry.SuggestedServicePeriod)

	tag, err := queryable(r.pool, tx).Exec(ctx, query,
		entry.ID,
		entry.TransactionDate,
		entry.AmountCents,
		entry.Description,
		entry.Note,
		entry.ValueType,
		entry.LegalBucket,
		entry.Category,
		entry.BankAccountID,
		entry.CounterpartyID,
		entry.LocationID,
		entry.TransferPartnerEntryID,
		entry.EstateAllocation,
		decimalToNumeric(entry.EstateRatio),
		entry.AllocationSource,
		entry.AllocationNote,
		suggestionJSON,
		entry.ServiceDate,
		periodStart,
		periodEnd,
		suggestedStart,
		suggestedEnd,
		entry.ReviewStatus,
		entry.ReviewedBy,
		entry.ReviewedAt,
		entry.ChangeReason,
		entry.PreviousAmountCents,
		normalizedJSON,
		entry.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEntryNotFound
	}

	return nil
}

// UpdateSuggestion rewrites the suggestion fields of one entry in a single
// statement, so concurrent runs can never interleave a partial write.
func (r *EntryRepository) UpdateSuggestion(ctx context.Context, id string, suggestion *domain.Suggestion, servicePeriod *domain.DateRange, updatedAt time.Time) error {
	var suggestionJSON []byte
	if suggestion != nil {
		var err error
		suggestionJSON, err = json.Marshal(suggestion)
		if err != nil {
			return err
		}
	}

	periodStart, periodEnd := rangeBounds(servicePeriod)

	query := `
		UPDATE ledger_entries
		SET suggestion = $2, suggested_period_start = $3, suggested_period_end = $4, updated_at = $5
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, id, suggestionJSON, periodStart, periodEnd, updatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEntryNotFound
	}

	return nil
}

// UpdateAllocation rewrites the estate allocation of one entry in a single
// statement.
func (r *EntryRepository) UpdateAllocation(ctx context.Context, id string, result domain.AllocationResult, updatedAt time.Time) error {
	query := `
		UPDATE ledger_entries
		SET estate_allocation = $2, estate_ratio = $3, allocation_source = $4,
		    allocation_note = $5, updated_at = $6
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, id,
		result.Allocation, decimalToNumeric(result.Ratio), result.Source, result.Note, updatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEntryNotFound
	}

	return nil
}

// ListBySourceEffect retrieves the lineage entries of one effect.
func (r *EntryRepository) ListBySourceEffect(ctx context.Context, effectID string) ([]*domain.LedgerEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE source_effect_id = $1 ORDER BY transaction_date, id`

	rows, err := r.pool.Query(ctx, query, effectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanAll(rows)
}

// DeleteByIDs removes entries by id.
func (r *EntryRepository) DeleteByIDs(ctx context.Context, tx usecase.Transaction, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	_, err := queryable(r.pool, tx).Exec(ctx, `DELETE FROM ledger_entries WHERE id = ANY($1)`, ids)

	return err
}

func (r *EntryRepository) scanOne(row pgx.Row) (*domain.LedgerEntry, error) {
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEntryNotFound
		}
		return nil, err
	}

	return entry, nil
}

func (r *EntryRepository) scanAll(rows pgx.Rows) ([]*domain.LedgerEntry, error) {
	var entries []*domain.LedgerEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

func scanEntry(row pgx.Row) (*domain.LedgerEntry, error) {
	var (
		entry          domain.LedgerEntry
		ratio          pgtype.Numeric
		suggestionJSON []byte
		normalizedJSON []byte
		periodStart    *time.Time
		periodEnd      *time.Time
		suggestedStart *time.Time
		suggestedEnd   *time.Time
	)

	err := row.Scan(
		&entry.ID,
		&entry.CaseID,
		&entry.TransactionDate,
		&entry.AmountCents,
		&entry.Description,
		&entry.Note,
		&entry.ValueType,
		&entry.LegalBucket,
		&entry.Category,
		&entry.BankAccountID,
		&entry.CounterpartyID,
		&entry.LocationID,
		&entry.TransferPartnerEntryID,
		&entry.EstateAllocation,
		&ratio,
		&entry.AllocationSource,
		&entry.AllocationNote,
		&suggestionJSON,
		&entry.ServiceDate,
		&periodStart,
		&periodEnd,
		&suggestedStart,
		&suggestedEnd,
		&entry.ReviewStatus,
		&entry.ReviewedBy,
		&entry.ReviewedAt,
		&entry.ChangeReason,
		&entry.PreviousAmountCents,
		&entry.SourceEffectID,
		&normalizedJSON,
		&entry.CreatedAt,
		&entry.CreatedBy,
		&entry.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.EstateRatio = numericToDecimal(ratio)
	entry.ServicePeriod = rangeFromBounds(periodStart, periodEnd)
	entry.SuggestedServicePeriod = rangeFromBounds(suggestedStart, suggestedEnd)

	if suggestionJSON != nil {
		var suggestion domain.Suggestion
		if err := json.Unmarshal(suggestionJSON, &suggestion); err != nil {
			return nil, err
		}
		entry.Suggestion = &suggestion
	}
	if normalizedJSON != nil {
		if err := json.Unmarshal(normalizedJSON, &entry.Normalized); err != nil {
			return nil, err
		}
	}

	return &entry, nil
}

func marshalEntryJSON(entry *domain.LedgerEntry) (suggestionJSON, normalizedJSON []byte, err error) {
	if entry.Suggestion != nil {
		suggestionJSON, err = json.Marshal(entry.Suggestion)
		if err != nil {
			return nil, nil, err
		}
	}

	normalizedJSON, err = json.Marshal(entry.Normalized)
	if err != nil {
		return nil, nil, err
	}

	return suggestionJSON, normalizedJSON, nil
}

func rangeBounds(r *domain.DateRange) (start, end *time.Time) {
	if r == nil {
		return nil, nil
	}
	return &r.Start, &r.End
}

func rangeFromBounds(start, end *time.Time) *domain.DateRange {
	if start == nil || end == nil {
		return nil
	}
	return &domain.DateRange{Start: *start, End: *end}
}
