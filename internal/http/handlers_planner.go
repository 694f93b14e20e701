package http

import (
	"net/http"

	"budgetwise/internal/core"
)

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request, user core.User) {
	goals, err := s.deps.Planner.ListGoals(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	if goals == nil {
		goals = []core.SavingsGoal{}
	}
	writeJSON(w, http.StatusOK, map[string][]core.SavingsGoal{"goals": goals})
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request, user core.User) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		writeServiceError(w, r, err, "")
		return
	}

	targetRaw := p.First("target_amount", "target")
	if p.Get("name") == "" || targetRaw == "" {
		writeServiceError(w, r, core.ErrMissingFields, "")
		return
	}
	target, err := core.ParseAmount(targetRaw)
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	var deadline *core.Date
	if d, err := p.OptionalDate("deadline"); err != nil {
		writeServiceError(w, r, err, "")
		return
	} else if !d.IsZero() {
		deadline = &d
	}

	goal, err := s.deps.Planner.CreateGoal(r.Context(), user.ID, p.Get("name"), target, deadline)
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Savings goal created successfully",
		"goal":    goal,
	})
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request, user core.User) {
	budgets, err := s.deps.Planner.ListBudgets(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	if budgets == nil {
		budgets = []core.Budget{}
	}
	writeJSON(w, http.StatusOK, map[string][]core.Budget{"budgets": budgets})
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request, user core.User) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		writeServiceError(w, r, err, "")
		return
	}

	limitRaw := p.First("limit", "amount")
	if p.Get("category") == "" || limitRaw == "" {
		writeServiceError(w, r, core.ErrMissingFields, "")
		return
	}
	limit, err := core.ParseAmount(limitRaw)
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}

	budget, err := s.deps.Planner.CreateBudget(r.Context(), user.ID, p.Get("category"), limit, p.Get("period"))
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Budget created successfully",
		"budget":  budget,
	})
}

func (s *Server) handleAchievements(w http.ResponseWriter, r *http.Request, user core.User) {
	achievements, err := s.deps.Notifications.Achievements(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	if achievements == nil {
		achievements = []core.Achievement{}
	}
	writeJSON(w, http.StatusOK, map[string][]core.Achievement{"achievements": achievements})
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request, user core.User) {
	notifications, groups, err := s.deps.Notifications.List(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	if notifications == nil {
		notifications = []core.Notification{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"notifications": notifications,
		"groups":        groups,
	})
}

func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request, user core.User) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Notification not found")
		return
	}
	if err := s.deps.Notifications.MarkRead(r.Context(), user.ID, id); err != nil {
		writeServiceError(w, r, err, "Notification not found")
		return
	}
	writeMessage(w, http.StatusOK, "Notification marked as read")
}
