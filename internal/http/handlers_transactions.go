package http

import (
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	owner, ok := identity(w, r)
	if !ok {
		return
	}

	typ := core.TxType(r.URL.Query().Get("type"))
	if typ == "" {
		typ = core.Expense
	}
	if !typ.Valid() {
		writeFieldError(w, "type", core.ErrInvalidType.Error())
		return
	}

	txs, err := s.deps.Transactions.List(r.Context(), owner, typ)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]txResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toTxResponse(tx))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	owner, ok := identity(w, r)
	if !ok {
		return
	}

	var input services.TxInput
	if !decodeBody(w, r, &input) {
		return
	}

	saved, err := s.deps.Transactions.Create(r.Context(), owner, input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTxResponse(saved))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	owner, ok := identity(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var input services.TxInput
	if !decodeBody(w, r, &input) {
		return
	}

	updated, err := s.deps.Transactions.Update(r.Context(), owner, id, input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTxResponse(updated))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	owner, ok := identity(w, r)
	if !ok {
		return
	}

	// The key may be a numeric primary id or a fallback-only generated id.
	key := r.PathValue("id")
	if key == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	if err := s.deps.Transactions.Delete(r.Context(), owner, key); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
