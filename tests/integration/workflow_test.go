package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	adaptershttp "github.com/mwbrandt/masseplan/internal/adapter/http"
	"github.com/mwbrandt/masseplan/internal/adapter/http/dto"
	"github.com/mwbrandt/masseplan/internal/adapter/http/handler"
	"github.com/mwbrandt/masseplan/internal/adapter/repository/postgres"
	redisrepo "github.com/mwbrandt/masseplan/internal/adapter/repository/redis"
	"github.com/mwbrandt/masseplan/internal/domain"
	infraredis "github.com/mwbrandt/masseplan/internal/infrastructure/redis"
	"github.com/mwbrandt/masseplan/internal/usecase"
	"github.com/mwbrandt/masseplan/tests/testutil"
)

func newTestRouter(t *testing.T, testDB *testutil.TestDB) http.Handler {
	t.Helper()

	ctx := context.Background()
	pool := testDB.Pool

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}
	redisClient, err := infraredis.NewClient(ctx, redisURL)
	if err != nil {
		t.Fatalf("failed to connect to redis: %v", err)
	}
	t.Cleanup(func() { redisClient.Close() })

	txManager := postgres.NewTxManager(pool)
	entryRepo := postgres.NewEntryRepository(pool)
	ruleRepo := postgres.NewRuleRepository(pool)
	effectRepo := postgres.NewEffectRepository(pool)
	planRepo := postgres.NewPlanRepository(pool)
	caseRepo := postgres.NewCaseRepository(pool)
	counterpartyRepo := postgres.NewCounterpartyRepository(pool)
	splitRuleRepo := postgres.NewSplitRuleRepository(pool)
	auditRepo := postgres.NewAuditRepository(pool)
	idGen := postgres.NewULIDGenerator()
	cache := redisrepo.NewCache(redisClient)

	reviewUC := usecase.NewReviewUseCase(txManager, entryRepo, auditRepo, idGen)
	ruleUC := usecase.NewRuleUseCase(ruleRepo, idGen)
	classificationUC := usecase.NewClassificationUseCase(entryRepo, ruleRepo, auditRepo, idGen)
	allocationUC := usecase.NewAllocationUseCase(entryRepo, caseRepo, counterpartyRepo, splitRuleRepo, auditRepo, idGen)
	effectUC := usecase.NewEffectUseCase(txManager, entryRepo, effectRepo, planRepo, auditRepo, idGen)
	aggregationUC := usecase.NewAggregationUseCase(entryRepo, planRepo, cache)

	return adaptershttp.NewRouter(adaptershttp.RouterConfig{
		EntryHandler:  handler.NewEntryHandler(reviewUC),
		RuleHandler:   handler.NewRuleHandler(ruleUC),
		EngineHandler: handler.NewEngineHandler(classificationUC, allocationUC, effectUC, aggregationUC, nil),
		HealthHandler: handler.NewHealthHandler(pool, redisClient),
	})
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	r := httptest.NewRequest(method, path, reader)
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	return w
}

func TestReviewWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	router := newTestRouter(t, testDB)

	opening := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	testCase := testDB.CreateTestCase(ctx, "workflow case", opening)
	plan := testDB.CreateTestPlan(ctx, testCase.ID, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), domain.PeriodMonthly, 3, 100_000)

	// One entry before the opening date, one after. The rent rule below
	// should match both by description.
	preOpening := testDB.CreateTestEntry(ctx, testCase.ID, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), -80_000, "Miete Januar Filiale Nord")
	postOpening := testDB.CreateTestEntry(ctx, testCase.ID, time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC), -80_000, "Miete Februar Filiale Nord")

	t.Run("create rule", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/v1/cases/"+testCase.ID+"/rules", dto.CreateRuleRequest{
			Name:                 "rent",
			Priority:             10,
			MatchField:           "description",
			MatchType:            "CONTAINS",
			MatchValue:           "Miete",
			SuggestedCategory:    "Miete",
			SuggestedLegalBucket: "MASSE",
		})

		if w.Code != http.StatusCreated {
			t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
		}

		var resp dto.RuleResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if !resp.IsActive {
			t.Error("expected created rule to be active")
		}
	})

	t.Run("classify entries", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/v1/cases/"+testCase.ID+"/classify", nil)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
		}

		var resp dto.ClassifyResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if resp.Classified != 2 {
			t.Errorf("expected 2 classified entries, got %d", resp.Classified)
		}
		if resp.Errors != 0 {
			t.Errorf("expected no errors, got %d", resp.Errors)
		}
	})

	t.Run("confirm promotes suggestion", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/v1/entries/"+postOpening.ID+"/confirm", dto.ConfirmRequest{
			Actor: "sachbearbeiter",
		})

		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
		}

		var resp dto.EntryResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if resp.ReviewStatus != string(domain.ReviewConfirmed) {
			t.Errorf("expected review status CONFIRMED, got %s", resp.ReviewStatus)
		}
		if resp.Category != "Miete" {
			t.Errorf("expected category Miete, got %q", resp.Category)
		}
		if resp.LegalBucket != string(domain.BucketMasse) {
			t.Errorf("expected legal bucket MASSE, got %s", resp.LegalBucket)
		}
	})

	t.Run("allocate by opening date", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/v1/cases/"+testCase.ID+"/allocate", nil)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
		}

		var resp dto.AllocateResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if resp.Updated != 2 {
			t.Errorf("expected 2 updated entries, got %d", resp.Updated)
		}

		get := doJSON(t, router, http.MethodGet, "/api/v1/entries/"+preOpening.ID, nil)
		if get.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d: %s", http.StatusOK, get.Code, get.Body.String())
		}
		var entry dto.EntryResponse
		if err := json.Unmarshal(get.Body.Bytes(), &entry); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if entry.EstateAllocation != string(domain.EstateAltmasse) {
			t.Errorf("expected pre-opening entry to be ALTMASSE, got %s", entry.EstateAllocation)
		}
	})

	t.Run("transfer effects creates plan entries", func(t *testing.T) {
		effect := testDB.CreateTestEffect(ctx, testCase.ID, plan.ID, "Masseverbindlichkeit", domain.EffectOutflow, []domain.PeriodAmount{
			{PeriodIndex: 0, AmountCents: 10_000},
			{PeriodIndex: 2, AmountCents: 5_000},
		})

		w := doJSON(t, router, http.MethodPost, "/api/v1/cases/"+testCase.ID+"/effects/transfer", dto.TransferEffectsRequest{
			EffectIDs: []string{effect.ID},
		})

		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
		}

		var resp dto.TransferEffectsResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if resp.Created != 2 {
			t.Errorf("expected 2 created plan entries, got %d", resp.Created)
		}
	})

	t.Run("aggregate plan", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/v1/cases/"+testCase.ID+"/plans/"+plan.ID+"/aggregation", nil)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
		}

		var result usecase.AggregationResult
		if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if len(result.Periods) != 3 {
			t.Fatalf("expected 3 periods, got %d", len(result.Periods))
		}
		if result.Periods[0].OpeningBalanceCents != 100_000 {
			t.Errorf("expected opening balance 100000, got %d", result.Periods[0].OpeningBalanceCents)
		}

		// Period 0 carries the January IST entry plus the transferred
		// effect outflow.
		if result.Periods[0].OutflowCents != 90_000 {
			t.Errorf("expected period 0 outflow 90000, got %d", result.Periods[0].OutflowCents)
		}
		for i := 1; i < len(result.Periods); i++ {
			prev := result.Periods[i-1]
			cur := result.Periods[i]
			if cur.OpeningBalanceCents != prev.ClosingBalanceCents {
				t.Errorf("period %d opening %d does not chain from period %d closing %d",
					i, cur.OpeningBalanceCents, i-1, prev.ClosingBalanceCents)
			}
		}
	})

	t.Run("audit trail records the run", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/v1/entries/"+postOpening.ID+"/audit", nil)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
		}

		var logs []dto.AuditLogResponse
		if err := json.Unmarshal(w.Body.Bytes(), &logs); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if len(logs) < 2 {
			t.Errorf("expected at least classify and confirm audit entries, got %d", len(logs))
		}
	})
}

func TestAdjustWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	router := newTestRouter(t, testDB)

	opening := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	testCase := testDB.CreateTestCase(ctx, "adjust case", opening)
	entry := testDB.CreateTestEntry(ctx, testCase.ID, time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC), -12_345, "Beraterhonorar")

	t.Run("adjust requires a reason", func(t *testing.T) {
		category := "Beratung"
		w := doJSON(t, router, http.MethodPost, "/api/v1/entries/"+entry.ID+"/adjust", dto.AdjustRequest{
			Actor:    "sachbearbeiter",
			Category: &category,
		})

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status %d, got %d: %s", http.StatusBadRequest, w.Code, w.Body.String())
		}
	})

	t.Run("adjust with reason", func(t *testing.T) {
		category := "Beratung"
		bucket := "MASSE"
		w := doJSON(t, router, http.MethodPost, "/api/v1/entries/"+entry.ID+"/adjust", dto.AdjustRequest{
			Actor:       "sachbearbeiter",
			Reason:      "manuell geprueft",
			Category:    &category,
			LegalBucket: &bucket,
		})

		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
		}

		var resp dto.EntryResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if resp.ReviewStatus != string(domain.ReviewAdjusted) {
			t.Errorf("expected review status ADJUSTED, got %s", resp.ReviewStatus)
		}
		if resp.Category != "Beratung" {
			t.Errorf("expected category Beratung, got %q", resp.Category)
		}
	})

	t.Run("review stats reflect the adjustment", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/v1/cases/"+testCase.ID+"/review/stats", nil)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
		}

		var stats dto.ReviewStatsResponse
		if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if stats.Adjusted != 1 {
			t.Errorf("expected 1 adjusted entry, got %d", stats.Adjusted)
		}
	})
}
