package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mwbrandt/masseplan/internal/adapter/http/dto"
	"github.com/mwbrandt/masseplan/internal/adapter/http/handler"
	"github.com/mwbrandt/masseplan/internal/domain"
	"github.com/mwbrandt/masseplan/internal/usecase"
	"github.com/mwbrandt/masseplan/internal/usecase/mocks"
)

type routerFixture struct {
	entryRepo *mocks.MockEntryRepository
	ruleRepo  *mocks.MockRuleRepository
	auditRepo *mocks.MockAuditRepository
	router    http.Handler
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()

	entryRepo := mocks.NewMockEntryRepository()
	ruleRepo := mocks.NewMockRuleRepository()
	effectRepo := mocks.NewMockEffectRepository()
	auditRepo := mocks.NewMockAuditRepository()
	planRepo := mocks.NewMockPlanRepository()
	caseRepo := mocks.NewMockCaseRepository()
	counterpartyRepo := mocks.NewMockCounterpartyRepository()
	splitRuleRepo := mocks.NewMockSplitRuleRepository()
	txManager := mocks.NewMockTransactionManager()
	idGen := mocks.NewMockIDGenerator()

	reviewUC := usecase.NewReviewUseCase(txManager, entryRepo, auditRepo, idGen)
	ruleUC := usecase.NewRuleUseCase(ruleRepo, idGen)
	classificationUC := usecase.NewClassificationUseCase(entryRepo, ruleRepo, auditRepo, idGen)
	allocationUC := usecase.NewAllocationUseCase(entryRepo, caseRepo, counterpartyRepo, splitRuleRepo, auditRepo, idGen)
	effectUC := usecase.NewEffectUseCase(txManager, entryRepo, effectRepo, planRepo, auditRepo, idGen)
	aggregationUC := usecase.NewAggregationUseCase(entryRepo, planRepo, noopCache{})

	planRepo.Seed(&domain.PlanConfig{
		ID:          "plan-1",
		CaseID:      "case-1",
		StartDate:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		PeriodType:  domain.PeriodMonthly,
		PeriodCount: 3,
	})
	caseRepo.Seed(&domain.Case{
		ID:          "case-1",
		OpeningDate: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	})

	router := NewRouter(RouterConfig{
		EntryHandler:  handler.NewEntryHandler(reviewUC),
		RuleHandler:   handler.NewRuleHandler(ruleUC),
		EngineHandler: handler.NewEngineHandler(classificationUC, allocationUC, effectUC, aggregationUC, nil),
		HealthHandler: handler.NewHealthHandler(nil, nil),
	})

	return &routerFixture{
		entryRepo: entryRepo,
		ruleRepo:  ruleRepo,
		auditRepo: auditRepo,
		router:    router,
	}
}

type noopCache struct{}

func (noopCache) Get(ctx context.Context, key string) ([]byte, error) { return nil, nil }
func (noopCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return nil
}
func (noopCache) Delete(ctx context.Context, key string) error { return nil }

func seedEntry(f *routerFixture, id string) {
	f.entryRepo.Seed(&domain.LedgerEntry{
		ID:              id,
		CaseID:          "case-1",
		TransactionDate: time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		AmountCents:     -123456,
		Description:     "Miete Januar 2026",
		ValueType:       domain.ValueTypeIST,
		LegalBucket:     domain.BucketUnknown,
		EstateRatio:     decimal.Zero,
		ReviewStatus:    domain.ReviewUnreviewed,
	})
}

func TestRouterHealth(t *testing.T) {
	f := newRouterFixture(t)

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRouterListEntries(t *testing.T) {
	f := newRouterFixture(t)
	seedEntry(f, "e-1")
	seedEntry(f, "e-2")

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cases/case-1/entries", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var entries []*dto.EntryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].FlowType != "OUTFLOW" {
		t.Fatalf("expected derived flow type OUTFLOW, got %s", entries[0].FlowType)
	}
}

func TestRouterGetEntryNotFound(t *testing.T) {
	f := newRouterFixture(t)

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/entries/missing", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestRouterCreateRuleValidation(t *testing.T) {
	f := newRouterFixture(t)

	body, _ := json.Marshal(dto.CreateRuleRequest{
		Name:       "bad",
		MatchField: "description",
		MatchType:  "REGEX",
		MatchValue: "([unclosed",
	})

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/cases/case-1/rules", bytes.NewReader(body)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid regex, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRouterClassifyAndConfirm(t *testing.T) {
	f := newRouterFixture(t)
	seedEntry(f, "e-1")
	f.ruleRepo.Seed(&domain.ClassificationRule{
		ID:                   "r-1",
		CaseID:               "case-1",
		Name:                 "Miete",
		IsActive:             true,
		Priority:             10,
		MatchField:           domain.MatchFieldDescription,
		MatchType:            domain.MatchContains,
		MatchValue:           "miete",
		SuggestedCategory:    "Miete",
		SuggestedLegalBucket: domain.BucketMasse,
	})

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/cases/case-1/classify", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var classifyResp dto.ClassifyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &classifyResp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if classifyResp.Classified != 1 {
		t.Fatalf("expected 1 classified entry, got %d", classifyResp.Classified)
	}

	body, _ := json.Marshal(dto.ConfirmRequest{Actor: "reviewer"})
	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/entries/e-1/confirm", bytes.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var entry dto.EntryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &entry); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if entry.ReviewStatus != "CONFIRMED" || entry.Category != "Miete" {
		t.Fatalf("expected confirmed Miete entry, got status=%s category=%s", entry.ReviewStatus, entry.Category)
	}
}

func TestRouterAdjustWithoutReason(t *testing.T) {
	f := newRouterFixture(t)
	seedEntry(f, "e-1")

	amount := int64(-110000)
	body, _ := json.Marshal(dto.AdjustRequest{
		Actor:       "reviewer",
		AmountCents: &amount,
	})

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/entries/e-1/adjust", bytes.NewReader(body)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing reason, got %d", rec.Code)
	}
}

func TestRouterAggregate(t *testing.T) {
	f := newRouterFixture(t)
	seedEntry(f, "e-1")

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cases/case-1/plans/plan-1/aggregation", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result usecase.AggregationResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(result.Periods) != 3 {
		t.Fatalf("expected 3 periods, got %d", len(result.Periods))
	}
}

func TestRouterAggregateUnknownPlan(t *testing.T) {
	f := newRouterFixture(t)

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cases/case-1/plans/missing/aggregation", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
