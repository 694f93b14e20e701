package http

import (
	"net/http"

	"budgetwise/internal/core"
)

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request, user core.User) {
	report, err := s.deps.Reports.Build(r.Context(), user)
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request, user core.User) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		writeServiceError(w, r, err, "")
		return
	}

	reply, err := s.deps.Reports.Chat(r.Context(), user, p.Get("query"), p.Value("financialData"))
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"response": reply})
}

func (s *Server) handleBalanceTrend(w http.ResponseWriter, r *http.Request, user core.User) {
	days, err := ParseDays(r.URL.Query())
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}

	chart, err := s.deps.Trends.Chart(r.Context(), user.ID, days)
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, chart)
}
