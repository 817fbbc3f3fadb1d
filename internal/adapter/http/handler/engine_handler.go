package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mwbrandt/masseplan/internal/adapter/http/dto"
	"github.com/mwbrandt/masseplan/internal/infrastructure/metrics"
	"github.com/mwbrandt/masseplan/internal/usecase"
)

// EngineHandler exposes the batch engines: classification, estate
// allocation, effect transfer and plan aggregation.
type EngineHandler struct {
	classificationUC *usecase.ClassificationUseCase
	allocationUC     *usecase.AllocationUseCase
	effectUC         *usecase.EffectUseCase
	aggregationUC    *usecase.AggregationUseCase
	metrics          *metrics.Metrics
}

// NewEngineHandler creates a new EngineHandler. Metrics may be nil in tests.
func NewEngineHandler(
	classificationUC *usecase.ClassificationUseCase,
	allocationUC *usecase.AllocationUseCase,
	effectUC *usecase.EffectUseCase,
	aggregationUC *usecase.AggregationUseCase,
	m *metrics.Metrics,
) *EngineHandler {
	return &EngineHandler{
		classificationUC: classificationUC,
		allocationUC:     allocationUC,
		effectUC:         effectUC,
		aggregationUC:    aggregationUC,
		metrics:          m,
	}
}

// Classify runs the rule engine over selected entries. An empty body means
// all unreviewed entries of the case.
func (h *EngineHandler) Classify(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "caseID")
	if caseID == "" {
		writeError(w, http.StatusBadRequest, "missing case ID", "")
		return
	}

	var req dto.ClassifyRequest
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result, err := h.classificationUC.ClassifyBatch(r.Context(), req.ToUseCaseInput(caseID))
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to classify entries", err.Error())

		return
	}

	if h.metrics != nil {
		h.metrics.ClassificationRuns.Inc()
		h.metrics.EntriesClassified.Add(float64(result.Classified))
		h.metrics.EntriesUnchanged.Add(float64(result.Unchanged))
		if result.Errors > 0 {
			h.metrics.ClassificationErrors.WithLabelValues(caseID).Add(float64(result.Errors))
		}
	}

	writeJSON(w, http.StatusOK, dto.ClassifyFromResult(result))
}

// Reclassify clears and rebuilds the suggestions of all unreviewed entries.
func (h *EngineHandler) Reclassify(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "caseID")
	if caseID == "" {
		writeError(w, http.StatusBadRequest, "missing case ID", "")
		return
	}

	result, err := h.classificationUC.ReclassifyUnreviewed(r.Context(), caseID)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to reclassify entries", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.ClassifyFromResult(result))
}

// ClassificationStats reports suggestion coverage for a case.
func (h *EngineHandler) ClassificationStats(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "caseID")
	if caseID == "" {
		writeError(w, http.StatusBadRequest, "missing case ID", "")
		return
	}

	stats, err := h.classificationUC.Stats(r.Context(), caseID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute classification stats", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ClassificationStatsFromResult(stats))
}

// Allocate runs the estate allocation resolver over selected entries. An
// empty body means all IST entries of the case.
func (h *EngineHandler) Allocate(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "caseID")
	if caseID == "" {
		writeError(w, http.StatusBadRequest, "missing case ID", "")
		return
	}

	var req dto.AllocateRequest
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result, err := h.allocationUC.ResolveEstateAllocation(r.Context(), req.ToUseCaseInput(caseID))
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to resolve allocations", err.Error())

		return
	}

	if h.metrics != nil {
		h.metrics.AllocationRuns.Inc()
	}

	writeJSON(w, http.StatusOK, dto.AllocateFromResult(result))
}

// TransferEffects materializes the selected effects into PLAN entries.
func (h *EngineHandler) TransferEffects(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "caseID")
	if caseID == "" {
		writeError(w, http.StatusBadRequest, "missing case ID", "")
		return
	}

	var req dto.TransferEffectsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result, err := h.effectUC.TransferEffects(r.Context(), req.ToUseCaseInput(caseID))
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to transfer effects", err.Error())

		return
	}

	if h.metrics != nil {
		h.metrics.EffectTransferRuns.Inc()
		h.metrics.EffectEntriesCreated.Add(float64(result.Created))
		h.metrics.EffectEntriesDeleted.Add(float64(result.Deleted))
	}

	writeJSON(w, http.StatusOK, dto.TransferEffectsFromResult(result))
}

// Aggregate builds the forecast table for a plan.
func (h *EngineHandler) Aggregate(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "caseID")
	planID := chi.URLParam(r, "planID")
	if caseID == "" || planID == "" {
		writeError(w, http.StatusBadRequest, "missing case or plan ID", "")
		return
	}

	result, err := h.aggregationUC.Aggregate(r.Context(), usecase.AggregateInput{
		CaseID:           caseID,
		PlanID:           planID,
		From:             parseDateQuery(r, "from"),
		To:               parseDateQuery(r, "to"),
		IncludeSuggested: r.URL.Query().Get("include_suggested") == "true",
	})
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to aggregate plan", err.Error())

		return
	}

	if h.metrics != nil {
		h.metrics.AggregationRuns.Inc()
	}

	writeJSON(w, http.StatusOK, result)
}

// decodeOptional decodes a JSON body, treating an empty body as the zero
// request.
func decodeOptional(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == io.EOF {
		return nil
	}
	return err
}
