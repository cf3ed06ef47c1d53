package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"applynest/internal/engine/actors"
	"applynest/internal/middleware"
	"applynest/internal/utils"
	"applynest/internal/websocket"
)

// CreateCommentRequest represents a request to comment on a post. A
// nil parentId makes a top-level comment, otherwise a reply.
type CreateCommentRequest struct {
	PostID   string  `json:"postId"`
	ParentID *string `json:"parentId,omitempty"`
	Content  string  `json:"content"`
}

// HandleComment creates comments and replies through the post's
// mutator actor.
func (s *Server) HandleComment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Metrics.IncrementRequests("/forum/comment")
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req CreateCommentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}

		postID, err := uuid.Parse(req.PostID)
		if err != nil {
			http.Error(w, "Invalid post ID format", http.StatusBadRequest)
			return
		}
		var parentID *uuid.UUID
		if req.ParentID != nil {
			parsed, err := uuid.Parse(*req.ParentID)
			if err != nil {
				http.Error(w, "Invalid parent comment ID format", http.StatusBadRequest)
				return
			}
			parentID = &parsed
		}
		userID := middleware.GetUserIDFromContext(r.Context())

		start := time.Now()
		future := s.Context.RequestFuture(s.MutatorPID, &actors.AddCommentMsg{
			PostID:   postID,
			UserID:   userID,
			ParentID: parentID,
			Content:  req.Content,
		}, s.RequestTimeout)

		result, err := future.Result()
		s.Metrics.AddOperationLatency("post_mutation", time.Since(start))
		if err != nil {
			s.respondError(w, utils.NewAppError(utils.ErrMutatorTimeout, "post mutation timed out", err))
			return
		}
		if appErr, ok := result.(*utils.AppError); ok {
			s.respondError(w, appErr)
			return
		}

		s.Hub.BroadcastEvent(websocket.Event{Type: websocket.EventCommentAdded, Payload: result})
		s.respondJSON(w, http.StatusCreated, result)
	}
}
