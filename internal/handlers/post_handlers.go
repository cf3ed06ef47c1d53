package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"applynest/internal/engine/actors"
	"applynest/internal/forum"
	"applynest/internal/middleware"
	"applynest/internal/models"
	"applynest/internal/utils"
	"applynest/internal/websocket"
)

// CreatePostRequest represents a request to create a new post
type CreatePostRequest struct {
	Title          string `json:"title"`
	Content        string `json:"content"`
	Category       string `json:"category"`
	UniversityName string `json:"universityName"`
	ProgramName    string `json:"programName"`
	ImageURL       string `json:"imageUrl"`
}

// PostListResponse carries the annotated listing plus the IDs the
// requesting user has liked, so the client can render like state
// without a per-post query.
type PostListResponse struct {
	Posts        []*models.Post `json:"posts"`
	LikedPostIDs []uuid.UUID    `json:"likedPostIds"`
}

// HandlePosts serves the forum listing and post creation.
func (s *Server) HandlePosts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Metrics.IncrementRequests("/forum/posts")
		switch r.Method {
		case http.MethodGet:
			s.listPosts(w, r)
		case http.MethodPost:
			s.createPost(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

func (s *Server) listPosts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserIDFromContext(ctx)

	category := models.CategoryAll
	if raw := r.URL.Query().Get("category"); raw != "" {
		category = models.Category(raw)
	}
	sortKey := forum.SortNewest
	if raw := r.URL.Query().Get("sort"); raw != "" {
		sortKey = forum.SortKey(raw)
	}
	search := r.URL.Query().Get("search")

	start := time.Now()
	index := forum.NewLikeIndex(userID)
	if err := index.Load(ctx, s.Store); err != nil {
		s.respondError(w, err)
		return
	}

	engine := forum.NewListEngine(s.Store, index, s.Logger)
	if err := engine.SetSort(sortKey); err != nil {
		s.respondError(w, err)
		return
	}
	if err := engine.SetCategory(ctx, category); err != nil {
		s.respondError(w, err)
		return
	}
	if search != "" {
		if err := engine.SetSearch(ctx, search); err != nil {
			s.respondError(w, err)
			return
		}
	}

	posts := engine.Posts()
	s.Metrics.AddOperationLatency("post_list", time.Since(start))

	liked := make([]uuid.UUID, 0, len(posts))
	for _, p := range posts {
		if index.Has(p.ID) {
			liked = append(liked, p.ID)
		}
	}
	s.respondJSON(w, http.StatusOK, &PostListResponse{Posts: posts, LikedPostIDs: liked})
}

func (s *Server) createPost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserIDFromContext(ctx)
	if userID == uuid.Nil {
		s.respondError(w, utils.NewUnauthorizedError("sign in to create posts"))
		return
	}

	var req CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.Title == "" || req.Content == "" {
		s.respondError(w, utils.NewValidationError("title and content are required"))
		return
	}
	category := models.Category(req.Category)
	if !category.Valid() {
		s.respondError(w, utils.NewValidationError("unknown category"))
		return
	}

	post := &models.Post{
		ID:             uuid.New(),
		Title:          req.Title,
		Content:        req.Content,
		Category:       category,
		UniversityName: req.UniversityName,
		ProgramName:    req.ProgramName,
		ImageURL:       req.ImageURL,
		UserID:         userID,
	}
	if err := s.Store.SavePost(ctx, post); err != nil {
		s.respondError(w, err)
		return
	}

	s.Hub.BroadcastEvent(websocket.Event{Type: websocket.EventPostCreated, Payload: post})
	s.respondJSON(w, http.StatusCreated, post)
}

// HandlePostDetail serves one post's detail view and its edit and
// delete operations. Mutations go through the post's mutator actor.
func (s *Server) HandlePostDetail() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Metrics.IncrementRequests("/forum/post")
		postID, err := uuid.Parse(r.URL.Query().Get("id"))
		if err != nil {
			http.Error(w, "Invalid post ID format", http.StatusBadRequest)
			return
		}

		switch r.Method {
		case http.MethodGet:
			s.getPostDetail(w, r, postID)
		case http.MethodPut:
			s.editPost(w, r, postID)
		case http.MethodDelete:
			s.deletePost(w, r, postID)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// PostDetailResponse is the full detail view payload.
type PostDetailResponse struct {
	State    forum.DetailState `json:"state"`
	Post     *models.Post      `json:"post,omitempty"`
	Comments []*forum.Node     `json:"comments,omitempty"`
	Liked    bool              `json:"liked"`
}

func (s *Server) getPostDetail(w http.ResponseWriter, r *http.Request, postID uuid.UUID) {
	ctx := r.Context()
	userID := middleware.GetUserIDFromContext(ctx)

	start := time.Now()
	ctrl := forum.NewDetailController(s.Store, userID, s.Logger)
	if err := ctrl.Load(ctx, postID); err != nil {
		s.respondError(w, err)
		return
	}
	s.Metrics.AddOperationLatency("post_detail", time.Since(start))
	if ctrl.State() == forum.StateNotFound {
		s.respondJSON(w, http.StatusNotFound, &PostDetailResponse{State: forum.StateNotFound})
		return
	}
	s.respondJSON(w, http.StatusOK, &PostDetailResponse{
		State:    ctrl.State(),
		Post:     ctrl.Post(),
		Comments: ctrl.Forest(),
		Liked:    ctrl.Liked(),
	})
}

func (s *Server) editPost(w http.ResponseWriter, r *http.Request, postID uuid.UUID) {
	userID := middleware.GetUserIDFromContext(r.Context())

	var req CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.Title == "" || req.Content == "" {
		s.respondError(w, utils.NewValidationError("title and content are required"))
		return
	}
	category := models.Category(req.Category)
	if !category.Valid() {
		s.respondError(w, utils.NewValidationError("unknown category"))
		return
	}

	start := time.Now()
	future := s.Context.RequestFuture(s.MutatorPID, &actors.EditPostMsg{
		Post: &models.Post{
			ID:             postID,
			Title:          req.Title,
			Content:        req.Content,
			Category:       category,
			UniversityName: req.UniversityName,
			ProgramName:    req.ProgramName,
			ImageURL:       req.ImageURL,
		},
		UserID: userID,
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
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) deletePost(w http.ResponseWriter, r *http.Request, postID uuid.UUID) {
	userID := middleware.GetUserIDFromContext(r.Context())
	confirmed := r.URL.Query().Get("confirm") == "true"

	start := time.Now()
	future := s.Context.RequestFuture(s.MutatorPID, &actors.DeletePostMsg{
		PostID:    postID,
		UserID:    userID,
		Confirmed: confirmed,
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

	s.Hub.BroadcastEvent(websocket.Event{
		Type:    websocket.EventPostDeleted,
		Payload: map[string]uuid.UUID{"postId": postID},
	})
	s.respondJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// HandlePostLike toggles the caller's like on a post.
func (s *Server) HandlePostLike() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Metrics.IncrementRequests("/forum/post/like")
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		postID, err := uuid.Parse(r.URL.Query().Get("id"))
		if err != nil {
			http.Error(w, "Invalid post ID format", http.StatusBadRequest)
			return
		}
		userID := middleware.GetUserIDFromContext(r.Context())

		start := time.Now()
		future := s.Context.RequestFuture(s.MutatorPID, &actors.ToggleLikeMsg{
			PostID: postID,
			UserID: userID,
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

		toggled := result.(*actors.ToggleLikeResult)
		s.Hub.BroadcastEvent(websocket.Event{Type: websocket.EventPostLiked, Payload: toggled})
		s.respondJSON(w, http.StatusOK, toggled)
	}
}
