package http

import "net/http"

func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	owner, ok := identity(w, r)
	if !ok {
		return
	}

	summaries, err := s.deps.Reports.MonthlyTotals(r.Context(), owner)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleCategoryReport(w http.ResponseWriter, r *http.Request) {
	owner, ok := identity(w, r)
	if !ok {
		return
	}

	totals, err := s.deps.Reports.CategoryBreakdown(r.Context(), owner)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, totals)
}
