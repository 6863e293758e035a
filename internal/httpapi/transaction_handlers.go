package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"pennywise.org/internal/audit"
	"pennywise.org/internal/finance"
	"pennywise.org/internal/ids"
)

type transactionRequest struct {
	Description string `json:"description"`
	Amount      int64  `json:"amount"`
	Type        string `json:"type"`
	Category    string `json:"category"`
	OccurredAt  string `json:"occurredAt,omitempty"`
}

type rangeRequest struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

func (a *API) handleTransactionsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.createTransaction(w, r)
	case http.MethodGet:
		a.listTransactions(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleTransactionResource(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/transactions/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}
	switch r.Method {
	case http.MethodPut:
		a.updateTransaction(w, r, id)
	case http.MethodDelete:
		a.deleteTransaction(w, r, id)
	default:
		methodNotAllowed(w, r, http.MethodPut, http.MethodDelete)
	}
}

// parseDate accepts RFC3339 timestamps and bare dates.
func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

func buildTransaction(req transactionRequest) (finance.Transaction, error) {
	var t finance.Transaction
	if strings.TrimSpace(req.Description) == "" {
		return t, errors.New("description is required")
	}
	if req.Amount <= 0 {
		return t, errors.New("amount must be greater than zero")
	}
	if !finance.ValidType(req.Type) {
		return t, errors.New("type must be income or expense")
	}
	if strings.TrimSpace(req.Category) == "" {
		return t, errors.New("category is required")
	}
	occurred := time.Now().UTC()
	if req.OccurredAt != "" {
		parsed, err := parseDate(req.OccurredAt)
		if err != nil {
			return t, errors.New("occurredAt must be an RFC3339 timestamp or YYYY-MM-DD date")
		}
		occurred = parsed
	}
	t = finance.Transaction{
		Description: strings.TrimSpace(req.Description),
		Amount:      req.Amount,
		Type:        req.Type,
		Category:    strings.TrimSpace(req.Category),
		OccurredAt:  occurred,
	}
	return t, nil
}

func (a *API) createTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	t, err := buildTransaction(req)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	t.ID = ids.New()
	t.UserID = currentUser(r)

	if err := a.finance.Transactions(r.Context()).Create(r.Context(), &t); err != nil {
		writeError(w, r, http.StatusInternalServerError, "could not create transaction")
		return
	}

	_ = audit.LogEvent(r.Context(), "finance.transaction.create", map[string]any{
		"transaction_id": t.ID,
		"type":           t.Type,
	})

	writeJSON(w, http.StatusCreated, map[string]any{"transaction": t})
}

func (a *API) listTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := a.finance.Transactions(r.Context()).ListByUser(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "could not list transactions")
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

func (a *API) handleTransactionsInRange(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req rangeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	from, err := parseDate(req.StartDate)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "startDate must be an RFC3339 timestamp or YYYY-MM-DD date")
		return
	}
	to, err := parseDate(req.EndDate)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "endDate must be an RFC3339 timestamp or YYYY-MM-DD date")
		return
	}
	if to.Before(from) {
		writeError(w, r, http.StatusBadRequest, "endDate must not be before startDate")
		return
	}

	txs, err := a.finance.Transactions(r.Context()).ListInRange(r.Context(), currentUser(r), from, to)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "could not list transactions")
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

func (a *API) updateTransaction(w http.ResponseWriter, r *http.Request, id string) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	upd, err := buildTransaction(req)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	t, err := a.finance.Transactions(r.Context()).Update(r.Context(), currentUser(r), id, upd)
	if err != nil {
		if errors.Is(err, finance.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "transaction not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "could not update transaction")
		return
	}

	_ = audit.LogEvent(r.Context(), "finance.transaction.update", map[string]any{
		"transaction_id": t.ID,
	})

	writeJSON(w, http.StatusOK, t)
}

func (a *API) deleteTransaction(w http.ResponseWriter, r *http.Request, id string) {
	if err := a.finance.Transactions(r.Context()).Delete(r.Context(), currentUser(r), id); err != nil {
		if errors.Is(err, finance.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "transaction not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "could not delete transaction")
		return
	}

	_ = audit.LogEvent(r.Context(), "finance.transaction.delete", map[string]any{
		"transaction_id": id,
	})

	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
