package http

import (
	"net/http"
	"strings"
)

type registerInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

type userResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// handleRegister creates a user record. This is deliberately minimal:
// passwords and sessions belong to whatever fronts this service.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var input registerInput
	if !decodeBody(w, r, &input) {
		return
	}

	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)
	if input.Username == "" {
		writeFieldError(w, "username", "username is required")
		return
	}
	if input.Email == "" || !strings.Contains(input.Email, "@") {
		writeFieldError(w, "email", "a valid email is required")
		return
	}

	u, err := s.deps.Users.CreateUser(r.Context(), input.Username, input.Email)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, userResponse{ID: u.ID, Username: u.Username, Email: u.Email})
}
