package usecase

import (
	"context"
	"time"

	"github.com/mwbrandt/masseplan/internal/domain"
)

// EntryRepository defines data access for ledger entries.
type EntryRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.LedgerEntry) error
	GetByID(ctx context.Context, id string) (*domain.LedgerEntry, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.LedgerEntry, error)
	List(ctx context.Context, filter domain.EntryFilter) ([]*domain.LedgerEntry, error)
	Update(ctx context.Context, tx Transaction, entry *domain.LedgerEntry) error
	// UpdateSuggestion atomically rewrites the suggestion fields of one entry.
	UpdateSuggestion(ctx context.Context, id string, suggestion *domain.Suggestion, servicePeriod *domain.DateRange, updatedAt time.Time) error
	// UpdateAllocation atomically rewrites the estate allocation of one entry.
	UpdateAllocation(ctx context.Context, id string, result domain.AllocationResult, updatedAt time.Time) error
	ListBySourceEffect(ctx context.Context, effectID string) ([]*domain.LedgerEntry, error)
	DeleteByIDs(ctx context.Context, tx Transaction, ids []string) error
}

// RuleRepository defines data access for classification rules.
type RuleRepository interface {
	Create(ctx context.Context, rule *domain.ClassificationRule) error
	GetByID(ctx context.Context, id string) (*domain.ClassificationRule, error)
	// ListActiveByCase returns active rules in ascending priority order.
	ListActiveByCase(ctx context.Context, caseID string) ([]*domain.ClassificationRule, error)
	ListByCase(ctx context.Context, caseID string) ([]*domain.ClassificationRule, error)
	Update(ctx context.Context, rule *domain.ClassificationRule) error
	Deactivate(ctx context.Context, id string, updatedAt time.Time) error
}

// EffectRepository defines data access for insolvency effects.
type EffectRepository interface {
	GetByID(ctx context.Context, id string) (*domain.InsolvencyEffect, error)
	GetByIDs(ctx context.Context, caseID string, ids []string) ([]*domain.InsolvencyEffect, error)
	ListByPlan(ctx context.Context, planID string) ([]*domain.InsolvencyEffect, error)
}

// AuditRepository defines data access for the append-only audit trail.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLogEntry) error
	CreateTx(ctx context.Context, tx Transaction, log *domain.AuditLogEntry) error
	List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLogEntry, error)
}

// PlanRepository defines data access for liquidity plan configurations.
type PlanRepository interface {
	GetByID(ctx context.Context, id string) (*domain.PlanConfig, error)
}

// CaseRepository defines data access for insolvency cases.
type CaseRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Case, error)
}

// CounterpartyRepository defines data access for counterparties.
type CounterpartyRepository interface {
	ListByCase(ctx context.Context, caseID string) ([]*domain.Counterparty, error)
}

// SplitRuleRepository defines data access for contractual estate split rules.
type SplitRuleRepository interface {
	ListByCase(ctx context.Context, caseID string) ([]*domain.ContractSplitRule, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
