package http

import (
	"net/http"

	"budgetwise/internal/services"
)

type loginResponse struct {
	Message  string `json:"message"`
	Username string `json:"username"`
	UserID   int64  `json:"user_id"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		writeServiceError(w, r, errMalformedBody, "")
		return
	}

	_, err := s.deps.Auth.Register(r.Context(), services.RegisterInput{
		Username: p.Get("username"),
		Email:    p.Get("email"),
		Password: p.Get("password"),
		FullName: p.Get("full_name"),
		Currency: p.Get("currency"),
	})
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	writeMessage(w, http.StatusCreated, "Registration successful")
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		writeServiceError(w, r, errMalformedBody, "")
		return
	}

	user, err := s.deps.Auth.Login(r.Context(), p.Get("username"), p.Get("password"))
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		Message:  "Login successful",
		Username: user.Username,
		UserID:   user.ID,
	})
}
