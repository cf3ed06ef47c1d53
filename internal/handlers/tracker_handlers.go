package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"applynest/internal/middleware"
	"applynest/internal/models"
	"applynest/internal/utils"
)

// SaveUniversityRequest represents a request to add a university to
// the caller's application tracker.
type SaveUniversityRequest struct {
	Name        string   `json:"name"`
	City        string   `json:"city"`
	ProgramName string   `json:"programName"`
	Deadline    *string  `json:"deadline,omitempty"`
	Tuition     *float64 `json:"tuition,omitempty"`
}

// HandleUniversities serves the caller's tracked universities.
func (s *Server) HandleUniversities() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Metrics.IncrementRequests("/tracker/universities")
		switch r.Method {
		case http.MethodGet:
			s.listUniversities(w, r)
		case http.MethodPost:
			s.saveUniversity(w, r)
		case http.MethodDelete:
			s.deleteUniversity(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

func (s *Server) listUniversities(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	universities, err := s.Store.UniversitiesByUser(r.Context(), userID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, universities)
}

func (s *Server) saveUniversity(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())

	var req SaveUniversityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		s.respondError(w, utils.NewValidationError("university name is required"))
		return
	}

	var deadline *time.Time
	if req.Deadline != nil {
		parsed, err := time.Parse("2006-01-02", *req.Deadline)
		if err != nil {
			s.respondError(w, utils.NewValidationError("deadline must be YYYY-MM-DD"))
			return
		}
		deadline = &parsed
	}

	uni := &models.University{
		ID:          uuid.New(),
		UserID:      userID,
		Name:        req.Name,
		City:        req.City,
		ProgramName: req.ProgramName,
		Deadline:    deadline,
		Tuition:     req.Tuition,
	}
	if err := s.Store.SaveUniversity(r.Context(), uni); err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, uni)
}

func (s *Server) deleteUniversity(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	id, err := uuid.Parse(r.URL.Query().Get("id"))
	if err != nil {
		http.Error(w, "Invalid university ID format", http.StatusBadRequest)
		return
	}

	rows, err := s.Store.DeleteUniversity(r.Context(), id, userID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	if rows == 0 {
		s.respondError(w, utils.NewNotFoundError("university"))
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
