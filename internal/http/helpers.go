package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"fintrack/internal/core"
)

const dateLayout = "2006-01-02"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeFieldError(w http.ResponseWriter, field, msg string) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": msg, "field": field})
}

// identity resolves the acting user from the X-User-ID header. The header
// is trusted; authenticating it is the proxy's job, not ours.
func identity(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.Header.Get("X-User-ID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusUnauthorized, "missing or invalid X-User-ID header")
		return 0, false
	}
	return id, true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusNotFound, "not found")
		return 0, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// writeServiceError maps domain errors onto HTTP responses. Validation
// failures carry the offending field; ownership mismatches look identical
// to missing records.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrInvalidDate):
		writeFieldError(w, "date", err.Error())
	case errors.Is(err, core.ErrInvalidAmount):
		writeFieldError(w, "amount", err.Error())
	case errors.Is(err, core.ErrEmptyCategory):
		writeFieldError(w, "category", err.Error())
	case errors.Is(err, core.ErrInvalidType):
		writeFieldError(w, "transaction_type", err.Error())
	case errors.Is(err, core.ErrInvalidCurrency):
		writeFieldError(w, "currency", err.Error())
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		slog.ErrorContext(r.Context(), "request failed",
			"method", r.Method, "url", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

type txResponse struct {
	ID          int64  `json:"id,omitempty"`
	FallbackID  string `json:"fallback_id,omitempty"`
	Date        string `json:"date"`
	Amount      string `json:"amount"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category"`
	Type        string `json:"transaction_type"`
	Currency    string `json:"currency"`
}

func toTxResponse(tx core.Transaction) txResponse {
	return txResponse{
		ID:          tx.ID,
		FallbackID:  tx.FallbackID,
		Date:        tx.Date.Format(dateLayout),
		Amount:      tx.Amount.String(),
		Description: tx.Description,
		Category:    tx.Category,
		Type:        string(tx.Type),
		Currency:    tx.Currency,
	}
}

type budgetResponse struct {
	ID       int64  `json:"id"`
	Category string `json:"category"`
	Currency string `json:"currency"`
	Amount   string `json:"amount"`
}

func toBudgetResponse(b core.Budget) budgetResponse {
	return budgetResponse{
		ID:       b.ID,
		Category: b.Category,
		Currency: b.Currency,
		Amount:   b.Amount.String(),
	}
}

type statusResponse struct {
	budgetResponse
	Spent      string `json:"spent"`
	Remaining  string `json:"remaining"`
	Percentage int    `json:"percentage"`
	Overspent  string `json:"overspent"`
	Tier       string `json:"tier"`
}

func toStatusResponse(st core.BudgetStatus) statusResponse {
	return statusResponse{
		budgetResponse: toBudgetResponse(st.Budget),
		Spent:          st.Spent.String(),
		Remaining:      st.Remaining.String(),
		Percentage:     st.Percentage,
		Overspent:      st.Overspent.String(),
		Tier:           string(st.Tier),
	}
}

type categoryResponse struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Active bool   `json:"is_active"`
}

func toCategoryResponse(c core.Category) categoryResponse {
	return categoryResponse{ID: c.ID, Name: c.Name, Type: string(c.Type), Active: c.Active}
}
