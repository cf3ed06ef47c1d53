package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"applynest/internal/directory"
	"applynest/internal/middleware"
	"applynest/internal/utils"
)

// HandleUniversitySearch proxies name lookups to the public university
// directory. Signed-in callers search within their own session, so a
// response superseded by one of their newer queries comes back as 409
// and the client knows to keep its current results. One user's search
// never supersedes another's.
func (s *Server) HandleUniversitySearch() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Metrics.IncrementRequests("/universities/search")
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		name := r.URL.Query().Get("name")
		userID := middleware.GetUserIDFromContext(r.Context())

		start := time.Now()
		var results []directory.University
		var err error
		if userID != uuid.Nil {
			results, err = s.Directory.SessionFor(userID.String()).Search(r.Context(), name)
		} else {
			results, err = s.Directory.Search(r.Context(), name)
		}
		s.Metrics.AddOperationLatency("directory_search", time.Since(start))
		if err != nil {
			if utils.IsErrorCode(err, utils.ErrStaleRequest) {
				s.respondJSON(w, http.StatusConflict, map[string]string{
					"error": "superseded by a newer search",
				})
				return
			}
			s.respondError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, results)
	}
}
