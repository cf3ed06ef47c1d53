package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"applynest/internal/middleware"
	"applynest/internal/models"
	"applynest/internal/websocket"
)

// RegisterUserRequest represents a request to register a new user
type RegisterUserRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// LoginRequest represents a request to log in a user
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by registration and login.
type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// HandleUserRegistration handles requests to register a new user
func (s *Server) HandleUserRegistration() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Metrics.IncrementRequests("/user/register")
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req RegisterUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}

		user, token, err := s.Sessions.Register(r.Context(), req.FirstName, req.LastName, req.Email, req.Password)
		if err != nil {
			s.respondError(w, err)
			return
		}
		s.respondJSON(w, http.StatusCreated, &AuthResponse{Token: token, User: user})
	}
}

// HandleUserLogin handles requests to log in a user
func (s *Server) HandleUserLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Metrics.IncrementRequests("/user/login")
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}

		user, token, err := s.Sessions.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			s.respondError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, &AuthResponse{Token: token, User: user})
	}
}

// HandleUserLogout signs the caller out so subscribers see the
// anonymous transition.
func (s *Server) HandleUserLogout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Metrics.IncrementRequests("/user/logout")
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		userID := middleware.GetUserIDFromContext(r.Context())
		s.Sessions.Logout(userID)
		s.Hub.SendEventToUser(userID, websocket.Event{Type: websocket.EventAuthState, Payload: nil})
		s.respondJSON(w, http.StatusOK, map[string]bool{"loggedOut": true})
	}
}

// HandleCurrentUser resolves the caller's bearer token to a profile.
// Anonymous callers get a null user rather than an error.
func (s *Server) HandleCurrentUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Metrics.IncrementRequests("/user/me")
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		userID := middleware.GetUserIDFromContext(r.Context())
		if userID == uuid.Nil {
			s.respondJSON(w, http.StatusOK, map[string]interface{}{"user": nil})
			return
		}
		user, err := s.Store.GetUser(r.Context(), userID)
		if err != nil {
			s.respondError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, map[string]interface{}{"user": user})
	}
}
