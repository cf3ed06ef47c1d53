package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/asynkron/protoactor-go/actor"

	"applynest/internal/database"
	"applynest/internal/directory"
	"applynest/internal/session"
	"applynest/internal/utils"
	"applynest/internal/websocket"
)

// Server holds all server dependencies, including the actor system and
// the per-post mutation supervisor.
type Server struct {
	System         *actor.ActorSystem
	Context        *actor.RootContext
	MutatorPID     *actor.PID
	Store          database.Store
	Sessions       *session.Provider
	Directory      *directory.Client
	Hub            *websocket.Hub
	Metrics        *utils.MetricsCollector
	Logger         *slog.Logger
	RequestTimeout time.Duration
}

// NewServer creates a new Server instance with the given components
func NewServer(
	system *actor.ActorSystem,
	context *actor.RootContext,
	mutatorPID *actor.PID,
	store database.Store,
	sessions *session.Provider,
	dir *directory.Client,
	hub *websocket.Hub,
	metrics *utils.MetricsCollector,
	logger *slog.Logger,
) *Server {
	return &Server{
		System:         system,
		Context:        context,
		MutatorPID:     mutatorPID,
		Store:          store,
		Sessions:       sessions,
		Directory:      dir,
		Hub:            hub,
		Metrics:        metrics,
		Logger:         logger,
		RequestTimeout: 5 * time.Second,
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

func (s *Server) respondError(w http.ResponseWriter, err error) {
	s.Metrics.IncrementErrors()
	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		s.respondJSON(w, utils.AppErrorToHTTPStatus(appErr.Code), map[string]string{
			"error": appErr.Message,
			"code":  appErr.Code,
		})
		return
	}
	s.Logger.Error("unhandled error", "error", err)
	s.respondJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "internal server error",
	})
}

// HandleHealth handles health check requests.
func (s *Server) HandleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.respondJSON(w, http.StatusOK, map[string]interface{}{
			"status":      "healthy",
			"uptime":      s.Metrics.Uptime().String(),
			"server_time": time.Now(),
		})
	}
}
