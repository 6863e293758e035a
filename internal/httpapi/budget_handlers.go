package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"pennywise.org/internal/audit"
	"pennywise.org/internal/finance"
	"pennywise.org/internal/ids"
)

type budgetRequest struct {
	Category string `json:"category"`
	Limit    int64  `json:"limit"`
}

func (a *API) handleBudgetsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.createBudget(w, r)
	case http.MethodGet:
		a.listBudgets(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleBudgetResource(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/budgets/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}
	switch r.Method {
	case http.MethodPut:
		a.updateBudget(w, r, id)
	case http.MethodDelete:
		a.deleteBudget(w, r, id)
	default:
		methodNotAllowed(w, r, http.MethodPut, http.MethodDelete)
	}
}

func validateBudget(req budgetRequest) error {
	if strings.TrimSpace(req.Category) == "" {
		return errors.New("category is required")
	}
	if req.Limit <= 0 {
		return errors.New("limit must be greater than zero")
	}
	return nil
}

func (a *API) createBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateBudget(req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	b := &finance.Budget{
		ID:       ids.New(),
		UserID:   currentUser(r),
		Category: strings.TrimSpace(req.Category),
		Limit:    req.Limit,
	}
	if err := a.finance.Budgets(r.Context()).Create(r.Context(), b); err != nil {
		writeError(w, r, http.StatusInternalServerError, "could not create budget")
		return
	}

	_ = audit.LogEvent(r.Context(), "finance.budget.create", map[string]any{
		"budget_id": b.ID,
		"category":  b.Category,
	})

	writeJSON(w, http.StatusCreated, map[string]any{"budget": b})
}

func (a *API) listBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := a.finance.Budgets(r.Context()).ListByUser(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "could not list budgets")
		return
	}
	writeJSON(w, http.StatusOK, budgets)
}

func (a *API) updateBudget(w http.ResponseWriter, r *http.Request, id string) {
	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateBudget(req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	b, err := a.finance.Budgets(r.Context()).Update(r.Context(), currentUser(r), id,
		strings.TrimSpace(req.Category), req.Limit)
	if err != nil {
		if errors.Is(err, finance.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "budget not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "could not update budget")
		return
	}

	_ = audit.LogEvent(r.Context(), "finance.budget.update", map[string]any{
		"budget_id": b.ID,
	})

	writeJSON(w, http.StatusOK, b)
}

func (a *API) deleteBudget(w http.ResponseWriter, r *http.Request, id string) {
	if err := a.finance.Budgets(r.Context()).Delete(r.Context(), currentUser(r), id); err != nil {
		if errors.Is(err, finance.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "budget not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "could not delete budget")
		return
	}

	_ = audit.LogEvent(r.Context(), "finance.budget.delete", map[string]any{
		"budget_id": id,
	})

	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
