package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mwbrandt/masseplan/internal/adapter/http/dto"
	"github.com/mwbrandt/masseplan/internal/domain"
	"github.com/mwbrandt/masseplan/internal/usecase"
)

// EntryHandler handles ledger entry and review HTTP requests.
type EntryHandler struct {
	reviewUC *usecase.ReviewUseCase
}

// NewEntryHandler creates a new EntryHandler.
func NewEntryHandler(reviewUC *usecase.ReviewUseCase) *EntryHandler {
	return &EntryHandler{reviewUC: reviewUC}
}

// ListByCase lists the entries of a case.
func (h *EntryHandler) ListByCase(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "caseID")
	if caseID == "" {
		writeError(w, http.StatusBadRequest, "missing case ID", "")
		return
	}

	filter := domain.EntryFilter{
		CaseID:       caseID,
		ValueType:    domain.ValueType(r.URL.Query().Get("value_type")),
		ReviewStatus: domain.ReviewStatus(r.URL.Query().Get("review_status")),
		From:         parseDateQuery(r, "from"),
		To:           parseDateQuery(r, "to"),
		Limit:        parseIntQuery(r, "limit", 0),
		Offset:       parseIntQuery(r, "offset", 0),
	}

	entries, err := h.reviewUC.ListEntries(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list entries", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.EntriesFromDomain(entries))
}

// Get retrieves an entry by ID.
func (h *EntryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing entry ID", "")
		return
	}

	entry, err := h.reviewUC.GetEntry(r.Context(), id)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to get entry", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.EntryFromDomain(entry))
}

// Confirm marks an entry as reviewed, promoting its suggestion if present.
func (h *EntryHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing entry ID", "")
		return
	}

	var req dto.ConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	entry, err := h.reviewUC.Confirm(r.Context(), req.ToUseCaseInput(id))
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to confirm entry", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.EntryFromDomain(entry))
}

// Adjust corrects an entry with a mandatory reason.
func (h *EntryHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing entry ID", "")
		return
	}

	var req dto.AdjustRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	entry, err := h.reviewUC.Adjust(r.Context(), req.ToUseCaseInput(id))
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to adjust entry", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.EntryFromDomain(entry))
}

// AuditTrail lists the audit rows of one entry, newest first.
func (h *EntryHandler) AuditTrail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing entry ID", "")
		return
	}

	logs, err := h.reviewUC.AuditTrail(r.Context(), domain.AuditFilter{
		EntryID: id,
		Limit:   parseIntQuery(r, "limit", 0),
		Offset:  parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list audit trail", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.AuditLogsFromDomain(logs))
}

// CaseAuditTrail lists the audit rows of a case, newest first.
func (h *EntryHandler) CaseAuditTrail(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "caseID")
	if caseID == "" {
		writeError(w, http.StatusBadRequest, "missing case ID", "")
		return
	}

	logs, err := h.reviewUC.AuditTrail(r.Context(), domain.AuditFilter{
		CaseID: caseID,
		Action: domain.AuditAction(r.URL.Query().Get("action")),
		Limit:  parseIntQuery(r, "limit", 0),
		Offset: parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list audit trail", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.AuditLogsFromDomain(logs))
}

// ReviewStats reports review progress for a case.
func (h *EntryHandler) ReviewStats(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "caseID")
	if caseID == "" {
		writeError(w, http.StatusBadRequest, "missing case ID", "")
		return
	}

	stats, err := h.reviewUC.Stats(r.Context(), caseID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute review stats", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ReviewStatsResponse{
		Unreviewed: stats.Unreviewed,
		Confirmed:  stats.Confirmed,
		Adjusted:   stats.Adjusted,
	})
}
