package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/mwbrandt/masseplan/internal/domain"
	"github.com/mwbrandt/masseplan/internal/usecase"
	"github.com/mwbrandt/masseplan/internal/usecase/mocks"
)

func newRuleFixture() (*usecase.RuleUseCase, *mocks.MockRuleRepository) {
	ruleRepo := mocks.NewMockRuleRepository()
	uc := usecase.NewRuleUseCase(ruleRepo, mocks.NewMockIDGenerator())
	return uc, ruleRepo
}

func TestRuleUseCase_CreateRule(t *testing.T) {
	uc, ruleRepo := newRuleFixture()

	rule, err := uc.CreateRule(context.Background(), usecase.CreateRuleInput{
		CaseID:               "case-1",
		Name:                 "Mietzahlungen",
		Priority:             10,
		MatchField:           domain.MatchFieldDescription,
		MatchType:            domain.MatchContains,
		MatchValue:           "Miete",
		SuggestedCategory:    "Miete",
		SuggestedLegalBucket: domain.BucketNeutral,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rule.ID == "" {
		t.Fatal("rule id not assigned")
	}
	if !rule.IsActive {
		t.Fatal("new rules start active")
	}

	stored, err := ruleRepo.GetByID(context.Background(), rule.ID)
	if err != nil {
		t.Fatalf("rule not persisted: %v", err)
	}
	if stored.MatchValue != "Miete" {
		t.Fatalf("stored rule = %+v", stored)
	}
}

func TestRuleUseCase_CreateRuleRejectsBadPattern(t *testing.T) {
	uc, _ := newRuleFixture()

	_, err := uc.CreateRule(context.Background(), usecase.CreateRuleInput{
		CaseID:     "case-1",
		Name:       "kaputt",
		MatchField: domain.MatchFieldDescription,
		MatchType:  domain.MatchRegex,
		MatchValue: "([unclosed",
	})
	if !errors.Is(err, domain.ErrInvalidMatchValue) {
		t.Fatalf("expected ErrInvalidMatchValue, got %v", err)
	}
}

func TestRuleUseCase_UpdateRuleRevalidates(t *testing.T) {
	uc, _ := newRuleFixture()

	rule, err := uc.CreateRule(context.Background(), usecase.CreateRuleInput{
		CaseID:     "case-1",
		Name:       "Mietzahlungen",
		MatchField: domain.MatchFieldDescription,
		MatchType:  domain.MatchContains,
		MatchValue: "Miete",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := "([unclosed"
	regex := domain.MatchRegex
	_, err = uc.UpdateRule(context.Background(), rule.ID, usecase.UpdateRuleInput{
		MatchType:  &regex,
		MatchValue: &bad,
	})
	if !errors.Is(err, domain.ErrInvalidMatchValue) {
		t.Fatalf("expected ErrInvalidMatchValue, got %v", err)
	}

	newValue := "Kaltmiete"
	updated, err := uc.UpdateRule(context.Background(), rule.ID, usecase.UpdateRuleInput{MatchValue: &newValue})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.MatchValue != "Kaltmiete" {
		t.Fatalf("updated rule = %+v", updated)
	}
}

func TestRuleUseCase_DeactivateIsSoft(t *testing.T) {
	uc, ruleRepo := newRuleFixture()

	rule, err := uc.CreateRule(context.Background(), usecase.CreateRuleInput{
		CaseID:     "case-1",
		Name:       "Mietzahlungen",
		MatchField: domain.MatchFieldDescription,
		MatchType:  domain.MatchContains,
		MatchValue: "Miete",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := uc.DeactivateRule(context.Background(), rule.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Deactivated rules stay queryable but stop matching.
	stored, err := ruleRepo.GetByID(context.Background(), rule.ID)
	if err != nil {
		t.Fatalf("deactivated rule must not be deleted: %v", err)
	}
	if stored.IsActive {
		t.Fatal("rule still active")
	}

	active, _ := ruleRepo.ListActiveByCase(context.Background(), "case-1")
	if len(active) != 0 {
		t.Fatalf("deactivated rule still listed as active")
	}
}

func TestRuleUseCase_DeactivateUnknownRule(t *testing.T) {
	uc, _ := newRuleFixture()

	err := uc.DeactivateRule(context.Background(), "missing")
	if !errors.Is(err, domain.ErrRuleNotFound) {
		t.Fatalf("expected ErrRuleNotFound, got %v", err)
	}
}
