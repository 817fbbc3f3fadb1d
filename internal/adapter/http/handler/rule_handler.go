package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mwbrandt/masseplan/internal/adapter/http/dto"
	"github.com/mwbrandt/masseplan/internal/usecase"
)

// RuleHandler handles classification rule HTTP requests.
type RuleHandler struct {
	ruleUC *usecase.RuleUseCase
}

// NewRuleHandler creates a new RuleHandler.
func NewRuleHandler(ruleUC *usecase.RuleUseCase) *RuleHandler {
	return &RuleHandler{ruleUC: ruleUC}
}

// Create creates a new rule.
func (h *RuleHandler) Create(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "caseID")
	if caseID == "" {
		writeError(w, http.StatusBadRequest, "missing case ID", "")
		return
	}

	var req dto.CreateRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	rule, err := h.ruleUC.CreateRule(r.Context(), req.ToUseCaseInput(caseID))
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to create rule", err.Error())

		return
	}

	writeJSON(w, http.StatusCreated, dto.RuleFromDomain(rule))
}

// List lists all rules of a case.
func (h *RuleHandler) List(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "caseID")
	if caseID == "" {
		writeError(w, http.StatusBadRequest, "missing case ID", "")
		return
	}

	rules, err := h.ruleUC.ListRules(r.Context(), caseID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list rules", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.RulesFromDomain(rules))
}

// Update applies a sparse edit to a rule.
func (h *RuleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing rule ID", "")
		return
	}

	var req dto.UpdateRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	rule, err := h.ruleUC.UpdateRule(r.Context(), id, req.ToUseCaseInput())
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to update rule", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.RuleFromDomain(rule))
}

// Deactivate soft-disables a rule.
func (h *RuleHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing rule ID", "")
		return
	}

	if err := h.ruleUC.DeactivateRule(r.Context(), id); err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to deactivate rule", err.Error())

		return
	}

	w.WriteHeader(http.StatusNoContent)
}
