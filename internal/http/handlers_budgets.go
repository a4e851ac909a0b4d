package http

import (
	"net/http"

	"fintrack/internal/core"
)

type budgetInput struct {
	Category string `json:"category"`
	Currency string `json:"currency"`
	Amount   string `json:"amount"`
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	owner, ok := identity(w, r)
	if !ok {
		return
	}

	budgets, err := s.deps.Budgets.List(r.Context(), owner)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]budgetResponse, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, toBudgetResponse(b))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpsertBudget(w http.ResponseWriter, r *http.Request) {
	owner, ok := identity(w, r)
	if !ok {
		return
	}

	var input budgetInput
	if !decodeBody(w, r, &input) {
		return
	}

	amount, err := core.ParseAmount(input.Amount)
	if err != nil {
		writeFieldError(w, "amount", err.Error())
		return
	}

	b, err := s.deps.Budgets.Upsert(r.Context(), owner, input.Category, input.Currency, amount)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetResponse(b))
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	owner, ok := identity(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := s.deps.Budgets.Delete(r.Context(), owner, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBudgetStatus(w http.ResponseWriter, r *http.Request) {
	owner, ok := identity(w, r)
	if !ok {
		return
	}

	statuses, err := s.deps.Budgets.Statuses(r.Context(), owner)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]statusResponse, 0, len(statuses))
	for _, st := range statuses {
		out = append(out, toStatusResponse(st))
	}
	writeJSON(w, http.StatusOK, out)
}
