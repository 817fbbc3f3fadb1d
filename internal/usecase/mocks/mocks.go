package mocks

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/mwbrandt/masseplan/internal/domain"
	"github.com/mwbrandt/masseplan/internal/usecase"
)

// MockEntryRepository is a mock implementation of EntryRepository backed by
// an in-memory map. Every method can be overridden via its Func field.
type MockEntryRepository struct {
	mu      sync.RWMutex
	entries map[string]*domain.LedgerEntry

	CreateFunc             func(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error
	GetByIDFunc            func(ctx context.Context, id string) (*domain.LedgerEntry, error)
	GetByIDForUpdateFunc   func(ctx context.Context, tx usecase.Transaction, id string) (*domain.LedgerEntry, error)
	ListFunc               func(ctx context.Context, filter domain.EntryFilter) ([]*domain.LedgerEntry, error)
	UpdateFunc             func(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error
	UpdateSuggestionFunc   func(ctx context.Context, id string, suggestion *domain.Suggestion, servicePeriod *domain.DateRange, updatedAt time.Time) error
	UpdateAllocationFunc   func(ctx context.Context, id string, result domain.AllocationResult, updatedAt time.Time) error
	ListBySourceEffectFunc func(ctx context.Context, effectID string) ([]*domain.LedgerEntry, error)
	DeleteByIDsFunc        func(ctx context.Context, tx usecase.Transaction, ids []string) error
}

func NewMockEntryRepository() *MockEntryRepository {
	return &MockEntryRepository{
		entries: make(map[string]*domain.LedgerEntry),
	}
}

// Seed inserts entries directly, bypassing Create overrides.
func (m *MockEntryRepository) Seed(entries ...*domain.LedgerEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		m.entries[e.ID] = e
	}
}

func (m *MockEntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[entry.ID] = entry
	return nil
}

func (m *MockEntryRepository) GetByID(ctx context.Context, id string) (*domain.LedgerEntry, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.entries[id]; ok {
		return e, nil
	}
	return nil, domain.ErrEntryNotFound
}

func (m *MockEntryRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.LedgerEntry, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockEntryRepository) List(ctx context.Context, filter domain.EntryFilter) ([]*domain.LedgerEntry, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	wanted := make(map[string]bool, len(filter.IDs))
	for _, id := range filter.IDs {
		wanted[id] = true
	}

	var out []*domain.LedgerEntry
	for _, e := range m.entries {
		if filter.CaseID != "" && e.CaseID != filter.CaseID {
			continue
		}
		if len(wanted) > 0 && !wanted[e.ID] {
			continue
		}
		if filter.ValueType != "" && e.ValueType != filter.ValueType {
			continue
		}
		if filter.ReviewStatus != "" && e.ReviewStatus != filter.ReviewStatus {
			continue
		}
		if filter.WithoutSuggested && e.Suggestion != nil {
			continue
		}
		if filter.From != nil && e.TransactionDate.Before(*filter.From) {
			continue
		}
		if filter.To != nil && e.TransactionDate.After(*filter.To) {
			continue
		}
		out = append(out, e)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockEntryRepository) Update(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, tx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[entry.ID]; !ok {
		return domain.ErrEntryNotFound
	}
	m.entries[entry.ID] = entry
	return nil
}

func (m *MockEntryRepository) UpdateSuggestion(ctx context.Context, id string, suggestion *domain.Suggestion, servicePeriod *domain.DateRange, updatedAt time.Time) error {
	if m.UpdateSuggestionFunc != nil {
		return m.UpdateSuggestionFunc(ctx, id, suggestion, servicePeriod, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return domain.ErrEntryNotFound
	}
	e.Suggestion = suggestion
	e.SuggestedServicePeriod = servicePeriod
	e.UpdatedAt = updatedAt
	return nil
}

func (m *MockEntryRepository) UpdateAllocation(ctx context.Context, id string, result domain.AllocationResult, updatedAt time.Time) error {
	if m.UpdateAllocationFunc != nil {
		return m.UpdateAllocationFunc(ctx, id, result, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return domain.ErrEntryNotFound
	}
	e.EstateAllocation = result.Allocation
	e.EstateRatio = result.Ratio
	e.AllocationSource = result.Source
	e.AllocationNote = result.Note
	e.UpdatedAt = updatedAt
	return nil
}

func (m *MockEntryRepository) ListBySourceEffect(ctx context.Context, effectID string) ([]*domain.LedgerEntry, error) {
	if m.ListBySourceEffectFunc != nil {
		return m.ListBySourceEffectFunc(ctx, effectID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.LedgerEntry
	for _, e := range m.entries {
		if e.SourceEffectID != nil && *e.SourceEffectID == effectID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockEntryRepository) DeleteByIDs(ctx context.Context, tx usecase.Transaction, ids []string) error {
	if m.DeleteByIDsFunc != nil {
		return m.DeleteByIDsFunc(ctx, tx, ids)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.entries, id)
	}
	return nil
}

// MockRuleRepository is a mock implementation of RuleRepository.
type MockRuleRepository struct {
	mu    sync.RWMutex
	rules map[string]*domain.ClassificationRule

	CreateFunc           func(ctx context.Context, rule *domain.ClassificationRule) error
	GetByIDFunc          func(ctx context.Context, id string) (*domain.ClassificationRule, error)
	ListActiveByCaseFunc func(ctx context.Context, caseID string) ([]*domain.ClassificationRule, error)
	ListByCaseFunc       func(ctx context.Context, caseID string) ([]*domain.ClassificationRule, error)
	UpdateFunc           func(ctx context.Context, rule *domain.ClassificationRule) error
	DeactivateFunc       func(ctx context.Context, id string, updatedAt time.Time) error
}

func NewMockRuleRepository() *MockRuleRepository {
	return &MockRuleRepository{
		rules: make(map[string]*domain.ClassificationRule),
	}
}

func (m *MockRuleRepository) Seed(rules ...*domain.ClassificationRule) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range rules {
		m.rules[r.ID] = r
	}
}

func (m *MockRuleRepository) Create(ctx context.Context, rule *domain.ClassificationRule) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, rule)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules[rule.ID] = rule
	return nil
}

func (m *MockRuleRepository) GetByID(ctx context.Context, id string) (*domain.ClassificationRule, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.rules[id]; ok {
		return r, nil
	}
	return nil, domain.ErrRuleNotFound
}

func (m *MockRuleRepository) ListActiveByCase(ctx context.Context, caseID string) ([]*domain.ClassificationRule, error) {
	if m.ListActiveByCaseFunc != nil {
		return m.ListActiveByCaseFunc(ctx, caseID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.ClassificationRule
	for _, r := range m.rules {
		if r.CaseID == caseID && r.IsActive {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out, nil
}

func (m *MockRuleRepository) ListByCase(ctx context.Context, caseID string) ([]*domain.ClassificationRule, error) {
	if m.ListByCaseFunc != nil {
		return m.ListByCaseFunc(ctx, caseID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.ClassificationRule
	for _, r := range m.rules {
		if r.CaseID == caseID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out, nil
}

func (m *MockRuleRepository) Update(ctx context.Context, rule *domain.ClassificationRule) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, rule)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rules[rule.ID]; !ok {
		return domain.ErrRuleNotFound
	}
	m.rules[rule.ID] = rule
	return nil
}

func (m *MockRuleRepository) Deactivate(ctx context.Context, id string, updatedAt time.Time) error {
	if m.DeactivateFunc != nil {
		return m.DeactivateFunc(ctx, id, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rules[id]
	if !ok {
		return domain.ErrRuleNotFound
	}
	r.IsActive = false
	r.UpdatedAt = updatedAt
	return nil
}

// MockEffectRepository is a mock implementation of EffectRepository.
type MockEffectRepository struct {
	mu      sync.RWMutex
	effects map[string]*domain.InsolvencyEffect

	GetByIDFunc    func(ctx context.Context, id string) (*domain.InsolvencyEffect, error)
	GetByIDsFunc   func(ctx context.Context, caseID string, ids []string) ([]*domain.InsolvencyEffect, error)
	ListByPlanFunc func(ctx context.Context, planID string) ([]*domain.InsolvencyEffect, error)
}

func NewMockEffectRepository() *MockEffectRepository {
	return &MockEffectRepository{
		effects: make(map[string]*domain.InsolvencyEffect),
	}
}

func (m *MockEffectRepository) Seed(effects ...*domain.InsolvencyEffect) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range effects {
		m.effects[e.ID] = e
	}
}

func (m *MockEffectRepository) GetByID(ctx context.Context, id string) (*domain.InsolvencyEffect, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.effects[id]; ok {
		return e, nil
	}
	return nil, domain.ErrEffectNotFound
}

func (m *MockEffectRepository) GetByIDs(ctx context.Context, caseID string, ids []string) ([]*domain.InsolvencyEffect, error) {
	if m.GetByIDsFunc != nil {
		return m.GetByIDsFunc(ctx, caseID, ids)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.InsolvencyEffect
	for _, id := range ids {
		if e, ok := m.effects[id]; ok && e.CaseID == caseID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MockEffectRepository) ListByPlan(ctx context.Context, planID string) ([]*domain.InsolvencyEffect, error) {
	if m.ListByPlanFunc != nil {
		return m.ListByPlanFunc(ctx, planID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.InsolvencyEffect
	for _, e := range m.effects {
		if e.PlanID == planID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// MockAuditRepository is a mock implementation of AuditRepository. Appended
// rows are retained for assertions.
type MockAuditRepository struct {
	mu   sync.RWMutex
	logs []*domain.AuditLogEntry

	CreateFunc   func(ctx context.Context, log *domain.AuditLogEntry) error
	CreateTxFunc func(ctx context.Context, tx usecase.Transaction, log *domain.AuditLogEntry) error
	ListFunc     func(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLogEntry, error)
}

func NewMockAuditRepository() *MockAuditRepository {
	return &MockAuditRepository{}
}

func (m *MockAuditRepository) Create(ctx context.Context, log *domain.AuditLogEntry) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, log)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, log)
	return nil
}

func (m *MockAuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, log *domain.AuditLogEntry) error {
	if m.CreateTxFunc != nil {
		return m.CreateTxFunc(ctx, tx, log)
	}
	return m.Create(ctx, log)
}

func (m *MockAuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLogEntry, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.AuditLogEntry
	for _, l := range m.logs {
		if filter.CaseID != "" && l.CaseID != filter.CaseID {
			continue
		}
		if filter.EntryID != "" && l.EntryID != filter.EntryID {
			continue
		}
		if filter.Action != "" && l.Action != filter.Action {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

// Logs returns a snapshot of everything appended so far.
func (m *MockAuditRepository) Logs() []*domain.AuditLogEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.AuditLogEntry, len(m.logs))
	copy(out, m.logs)
	return out
}

// MockPlanRepository is a mock implementation of PlanRepository.
type MockPlanRepository struct {
	mu    sync.RWMutex
	plans map[string]*domain.PlanConfig

	GetByIDFunc func(ctx context.Context, id string) (*domain.PlanConfig, error)
}

func NewMockPlanRepository() *MockPlanRepository {
	return &MockPlanRepository{
		plans: make(map[string]*domain.PlanConfig),
	}
}

func (m *MockPlanRepository) Seed(plans ...*domain.PlanConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range plans {
		m.plans[p.ID] = p
	}
}

func (m *MockPlanRepository) GetByID(ctx context.Context, id string) (*domain.PlanConfig, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.plans[id]; ok {
		return p, nil
	}
	return nil, domain.ErrPlanNotFound
}

// MockCaseRepository is a mock implementation of CaseRepository.
type MockCaseRepository struct {
	mu    sync.RWMutex
	cases map[string]*domain.Case

	GetByIDFunc func(ctx context.Context, id string) (*domain.Case, error)
}

func NewMockCaseRepository() *MockCaseRepository {
	return &MockCaseRepository{
		cases: make(map[string]*domain.Case),
	}
}

func (m *MockCaseRepository) Seed(cases ...*domain.Case) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range cases {
		m.cases[c.ID] = c
	}
}

func (m *MockCaseRepository) GetByID(ctx context.Context, id string) (*domain.Case, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.cases[id]; ok {
		return c, nil
	}
	return nil, domain.ErrCaseNotFound
}

// MockCounterpartyRepository is a mock implementation of
// CounterpartyRepository.
type MockCounterpartyRepository struct {
	mu             sync.RWMutex
	counterparties []*domain.Counterparty

	ListByCaseFunc func(ctx context.Context, caseID string) ([]*domain.Counterparty, error)
}

func NewMockCounterpartyRepository() *MockCounterpartyRepository {
	return &MockCounterpartyRepository{}
}

func (m *MockCounterpartyRepository) Seed(counterparties ...*domain.Counterparty) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counterparties = append(m.counterparties, counterparties...)
}

func (m *MockCounterpartyRepository) ListByCase(ctx context.Context, caseID string) ([]*domain.Counterparty, error) {
	if m.ListByCaseFunc != nil {
		return m.ListByCaseFunc(ctx, caseID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Counterparty
	for _, cp := range m.counterparties {
		if cp.CaseID == caseID {
			out = append(out, cp)
		}
	}
	return out, nil
}

// MockSplitRuleRepository is a mock implementation of SplitRuleRepository.
type MockSplitRuleRepository struct {
	mu    sync.RWMutex
	rules []*domain.ContractSplitRule

	ListByCaseFunc func(ctx context.Context, caseID string) ([]*domain.ContractSplitRule, error)
}

func NewMockSplitRuleRepository() *MockSplitRuleRepository {
	return &MockSplitRuleRepository{}
}

func (m *MockSplitRuleRepository) Seed(rules ...*domain.ContractSplitRule) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, rules...)
}

func (m *MockSplitRuleRepository) ListByCase(ctx context.Context, caseID string) ([]*domain.ContractSplitRule, error) {
	if m.ListByCaseFunc != nil {
		return m.ListByCaseFunc(ctx, caseID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.ContractSplitRule
	for _, r := range m.rules {
		if r.CaseID == caseID {
			out = append(out, r)
		}
	}
	return out, nil
}

// MockTransaction is a mock implementation of Transaction.
type MockTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error

	Committed  bool
	RolledBack bool
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx)
	}
	m.Committed = true
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	if !m.Committed {
		m.RolledBack = true
	}
	return nil
}

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	return &MockTransaction{}, nil
}

// MockIDGenerator is a mock implementation of IDGenerator producing
// sequential ids.
type MockIDGenerator struct {
	mu      sync.Mutex
	counter int

	GenerateFunc func() string
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return "id-" + strconv.Itoa(m.counter)
}
