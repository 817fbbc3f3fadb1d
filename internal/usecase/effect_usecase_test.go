package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mwbrandt/masseplan/internal/domain"
	"github.com/mwbrandt/masseplan/internal/usecase"
	"github.com/mwbrandt/masseplan/internal/usecase/mocks"
)

func newEffectFixture() (*usecase.EffectUseCase, *mocks.MockEntryRepository, *mocks.MockEffectRepository, *mocks.MockPlanRepository) {
	entryRepo := mocks.NewMockEntryRepository()
	effectRepo := mocks.NewMockEffectRepository()
	planRepo := mocks.NewMockPlanRepository()
	planRepo.Seed(&domain.PlanConfig{
		ID:          "plan-1",
		CaseID:      "case-1",
		StartDate:   time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
		PeriodType:  domain.PeriodMonthly,
		PeriodCount: 6,
	})

	uc := usecase.NewEffectUseCase(
		mocks.NewMockTransactionManager(),
		entryRepo,
		effectRepo,
		planRepo,
		mocks.NewMockAuditRepository(),
		mocks.NewMockIDGenerator(),
	)
	return uc, entryRepo, effectRepo, planRepo
}

func procedureCosts() *domain.InsolvencyEffect {
	return &domain.InsolvencyEffect{
		ID:          "effect-1",
		CaseID:      "case-1",
		PlanID:      "plan-1",
		Name:        "Verfahrenskosten",
		EffectType:  domain.EffectOutflow,
		EffectGroup: "Verfahrenskosten",
		IsActive:    true,
		Breakdown: []domain.PeriodAmount{
			{PeriodIndex: 0, AmountCents: 50000},
			{PeriodIndex: 1, AmountCents: 0},
			{PeriodIndex: 2, AmountCents: 75000},
		},
	}
}

func TestEffectUseCase_TransferCreatesPlanEntries(t *testing.T) {
	uc, entryRepo, effectRepo, _ := newEffectFixture()
	effectRepo.Seed(procedureCosts())

	result, err := uc.TransferEffects(context.Background(), usecase.TransferEffectsInput{
		CaseID:    "case-1",
		EffectIDs: []string{"effect-1"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Created != 2 || result.Deleted != 0 || result.Skipped != 0 {
		t.Fatalf("result = %+v", result)
	}

	entries, _ := entryRepo.ListBySourceEffect(context.Background(), "effect-1")
	if len(entries) != 2 {
		t.Fatalf("expected 2 lineage entries, got %d", len(entries))
	}
	for _, e := range entries {
		if e.ValueType != domain.ValueTypePLAN {
			t.Fatalf("entry %s value type = %s", e.ID, e.ValueType)
		}
		if e.AmountCents >= 0 {
			t.Fatalf("outflow effect must produce negative amounts, got %d", e.AmountCents)
		}
		if e.EstateAllocation != domain.EstateNeumasse || !e.EstateRatio.Equal(decimal.NewFromInt(1)) {
			t.Fatalf("entry %s must inherit the default NEUMASSE allocation", e.ID)
		}
		if e.AllocationSource != domain.AllocationEffect {
			t.Fatalf("allocation source = %s", e.AllocationSource)
		}
	}
}

func TestEffectUseCase_RetransferUnchangedIsNoop(t *testing.T) {
	uc, _, effectRepo, _ := newEffectFixture()
	effectRepo.Seed(procedureCosts())

	input := usecase.TransferEffectsInput{CaseID: "case-1", EffectIDs: []string{"effect-1"}}

	if _, err := uc.TransferEffects(context.Background(), input); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, err := uc.TransferEffects(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Created != 0 || second.Deleted != 0 || second.Skipped != 1 {
		t.Fatalf("re-transfer must be a no-op: %+v", second)
	}
}

func TestEffectUseCase_RetransferAfterEdit(t *testing.T) {
	uc, entryRepo, effectRepo, _ := newEffectFixture()
	effect := procedureCosts()
	effectRepo.Seed(effect)

	input := usecase.TransferEffectsInput{CaseID: "case-1", EffectIDs: []string{"effect-1"}}

	if _, err := uc.TransferEffects(context.Background(), input); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Drop one period to zero and change the other's amount.
	effect.Breakdown = []domain.PeriodAmount{
		{PeriodIndex: 0, AmountCents: 60000},
		{PeriodIndex: 2, AmountCents: 0},
	}

	result, err := uc.TransferEffects(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Created != 1 || result.Deleted != 2 {
		t.Fatalf("result = %+v", result)
	}

	entries, _ := entryRepo.ListBySourceEffect(context.Background(), "effect-1")
	if len(entries) != 1 {
		t.Fatalf("expected exactly the new breakdown, got %d entries", len(entries))
	}
	if entries[0].AmountCents != -60000 {
		t.Fatalf("amount = %d", entries[0].AmountCents)
	}
}

func TestEffectUseCase_RetransferAfterAllocationEdit(t *testing.T) {
	uc, entryRepo, effectRepo, _ := newEffectFixture()
	effect := procedureCosts()
	effectRepo.Seed(effect)

	input := usecase.TransferEffectsInput{CaseID: "case-1", EffectIDs: []string{"effect-1"}}

	if _, err := uc.TransferEffects(context.Background(), input); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Same breakdown, changed estate inheritance. The dates and amounts
	// still match, so the lineage entries must be rewritten, not skipped.
	effect.EstateAllocation = domain.EstateMixed
	effect.EstateRatio = domain.RatioFromDays(1, 3)

	result, err := uc.TransferEffects(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Created != 2 || result.Deleted != 2 || result.Skipped != 0 {
		t.Fatalf("allocation edit must rewrite the lineage entries: %+v", result)
	}

	entries, _ := entryRepo.ListBySourceEffect(context.Background(), "effect-1")
	if len(entries) != 2 {
		t.Fatalf("expected 2 lineage entries, got %d", len(entries))
	}
	for _, e := range entries {
		if e.EstateAllocation != domain.EstateMixed {
			t.Fatalf("entry %s allocation = %s", e.ID, e.EstateAllocation)
		}
		if !e.EstateRatio.Equal(domain.RatioFromDays(1, 3)) {
			t.Fatalf("entry %s ratio = %s", e.ID, e.EstateRatio)
		}
	}
}

func TestEffectUseCase_RetransferAfterRename(t *testing.T) {
	uc, entryRepo, effectRepo, _ := newEffectFixture()
	effect := procedureCosts()
	effectRepo.Seed(effect)

	input := usecase.TransferEffectsInput{CaseID: "case-1", EffectIDs: []string{"effect-1"}}

	if _, err := uc.TransferEffects(context.Background(), input); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	effect.EffectGroup = "Massekosten"

	result, err := uc.TransferEffects(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Created != 2 || result.Deleted != 2 {
		t.Fatalf("regroup must rewrite the lineage entries: %+v", result)
	}

	entries, _ := entryRepo.ListBySourceEffect(context.Background(), "effect-1")
	for _, e := range entries {
		if e.Category != "Massekosten" {
			t.Fatalf("entry %s category = %q", e.ID, e.Category)
		}
	}
}

func TestEffectUseCase_NeverTouchesForeignEntries(t *testing.T) {
	uc, entryRepo, effectRepo, _ := newEffectFixture()
	effectRepo.Seed(procedureCosts())

	manual := &domain.LedgerEntry{
		ID:              "manual-1",
		CaseID:          "case-1",
		TransactionDate: time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
		AmountCents:     -50000,
		ValueType:       domain.ValueTypeIST,
	}
	entryRepo.Seed(manual)

	if _, err := uc.TransferEffects(context.Background(), usecase.TransferEffectsInput{
		CaseID:    "case-1",
		EffectIDs: []string{"effect-1"},
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := entryRepo.GetByID(context.Background(), "manual-1"); err != nil {
		t.Fatal("entry without lineage was deleted")
	}
}

func TestEffectUseCase_InactiveEffectRemovesEntries(t *testing.T) {
	uc, entryRepo, effectRepo, _ := newEffectFixture()
	effect := procedureCosts()
	effectRepo.Seed(effect)

	input := usecase.TransferEffectsInput{CaseID: "case-1", EffectIDs: []string{"effect-1"}}

	if _, err := uc.TransferEffects(context.Background(), input); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	effect.IsActive = false

	result, err := uc.TransferEffects(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Deleted != 2 || result.Created != 0 {
		t.Fatalf("result = %+v", result)
	}

	entries, _ := entryRepo.ListBySourceEffect(context.Background(), "effect-1")
	if len(entries) != 0 {
		t.Fatalf("inactive effect must leave no lineage entries, got %d", len(entries))
	}
}

func TestEffectUseCase_UnknownEffect(t *testing.T) {
	uc, _, _, _ := newEffectFixture()

	_, err := uc.TransferEffects(context.Background(), usecase.TransferEffectsInput{
		CaseID:    "case-1",
		EffectIDs: []string{"missing"},
	})
	if !errors.Is(err, domain.ErrEffectNotFound) {
		t.Fatalf("expected ErrEffectNotFound, got %v", err)
	}
}
