package http

import (
	"net/http"

	"fintrack/internal/core"
)

type categoryInput struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	owner, ok := identity(w, r)
	if !ok {
		return
	}

	cats, err := s.deps.Categories.ListCategories(r.Context(), owner)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]categoryResponse, 0, len(cats))
	for _, c := range cats {
		out = append(out, toCategoryResponse(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	owner, ok := identity(w, r)
	if !ok {
		return
	}

	var input categoryInput
	if !decodeBody(w, r, &input) {
		return
	}

	typ := core.TxType(input.Type)
	if typ == "" {
		typ = core.Expense
	}
	if !typ.Valid() {
		writeFieldError(w, "type", core.ErrInvalidType.Error())
		return
	}

	// Creating an existing name (in any casing) returns the existing
	// category; the operation is idempotent.
	cat, err := s.deps.Categories.ResolveOrCreateCategory(r.Context(), owner, input.Name, typ)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryResponse(cat))
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	owner, ok := identity(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := s.deps.Categories.DeleteCategory(r.Context(), owner, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
