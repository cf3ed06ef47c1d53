package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"

	"applynest/internal/database"
	"applynest/internal/directory"
	"applynest/internal/engine/actors"
	"applynest/internal/forum"
	"applynest/internal/middleware"
	"applynest/internal/models"
	"applynest/internal/session"
	"applynest/internal/utils"
	"applynest/internal/websocket"
)

func newTestServer(t *testing.T) (*Server, *database.MemStore) {
	t.Helper()
	store := database.NewMemStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	system := actor.NewActorSystem()
	props := actor.PropsFromProducer(func() actor.Actor {
		return actors.NewMutationSupervisor(store, logger)
	})
	mutatorPID := system.Root.Spawn(props)

	sessions := session.NewProvider(store, "test-secret", logger)
	hub := websocket.NewHub(logger)
	go hub.Run()

	metrics := utils.NewMetricsCollector(prometheus.NewRegistry())
	dir := directory.NewClient("http://directory.invalid", logger)

	return NewServer(system, system.Root, mutatorPID, store, sessions, dir, hub, metrics, logger), store
}

func registerUser(t *testing.T, s *Server, email string) (uuid.UUID, string) {
	t.Helper()
	user, token, err := s.Sessions.Register(context.Background(), "Ada", "Chen", email, "correct-horse1")
	assert.NoError(t, err)
	return user.ID, token
}

func doJSON(t *testing.T, handler http.HandlerFunc, method, target string, body interface{}, userID uuid.UUID) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		assert.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, target, reader)
	if userID != uuid.Nil {
		req = req.WithContext(middleware.SetUserIDInContext(req.Context(), userID))
	}
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestRegistrationAndLoginEndpoints(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doJSON(t, server.HandleUserRegistration(), http.MethodPost, "/user/register", RegisterUserRequest{
		FirstName: "Ada", LastName: "Chen", Email: "ada@example.edu", Password: "correct-horse1",
	}, uuid.Nil)
	assert.Equal(t, http.StatusCreated, rec.Code)

	var auth AuthResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &auth))
	assert.NotEmpty(t, auth.Token)
	assert.Equal(t, "ada@example.edu", auth.User.Email)

	rec = doJSON(t, server.HandleUserLogin(), http.MethodPost, "/user/login", LoginRequest{
		Email: "ada@example.edu", Password: "wrong",
	}, uuid.Nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, server.HandleUserLogin(), http.MethodPost, "/user/login", LoginRequest{
		Email: "ada@example.edu", Password: "correct-horse1",
	}, uuid.Nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateAndListPosts(t *testing.T) {
	server, _ := newTestServer(t)
	userID, _ := registerUser(t, server, "ada@example.edu")

	rec := doJSON(t, server.HandlePosts(), http.MethodPost, "/forum/posts", CreatePostRequest{
		Title:          "Essay tips",
		Content:        "Start early.",
		Category:       "essay",
		UniversityName: "University of Florida",
	}, userID)
	assert.Equal(t, http.StatusCreated, rec.Code)

	var created models.Post
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, userID, created.UserID)

	// Anonymous creation is rejected.
	rec = doJSON(t, server.HandlePosts(), http.MethodPost, "/forum/posts", CreatePostRequest{
		Title: "x", Content: "y", Category: "essay",
	}, uuid.Nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Unknown categories are rejected.
	rec = doJSON(t, server.HandlePosts(), http.MethodPost, "/forum/posts", CreatePostRequest{
		Title: "x", Content: "y", Category: "rants",
	}, userID)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, server.HandlePosts(), http.MethodGet, "/forum/posts?category=essay", nil, uuid.Nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var listing PostListResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
	assert.Len(t, listing.Posts, 1)
	assert.Equal(t, 0, listing.Posts[0].LikesCount)
	assert.Equal(t, 0, listing.Posts[0].CommentsCount)
	assert.Len(t, listing.LikedPostIDs, 0)
}

func TestLikeToggleEndpoint(t *testing.T) {
	server, store := newTestServer(t)
	userID, _ := registerUser(t, server, "ada@example.edu")

	post := &models.Post{
		ID: uuid.New(), Title: "Likeable", Content: "body",
		Category: models.CategoryAdvice, UserID: uuid.New(),
	}
	assert.NoError(t, store.SavePost(context.Background(), post))

	target := fmt.Sprintf("/forum/post/like?id=%s", post.ID)

	rec := doJSON(t, server.HandlePostLike(), http.MethodPost, target, nil, userID)
	assert.Equal(t, http.StatusOK, rec.Code)
	var toggled actors.ToggleLikeResult
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &toggled))
	assert.True(t, toggled.Liked)
	assert.Equal(t, 1, toggled.LikesCount)

	rec = doJSON(t, server.HandlePostLike(), http.MethodPost, target, nil, userID)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &toggled))
	assert.False(t, toggled.Liked)
	assert.Equal(t, 0, toggled.LikesCount)

	// Anonymous toggles are rejected.
	rec = doJSON(t, server.HandlePostLike(), http.MethodPost, target, nil, uuid.Nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCommentAndDetailEndpoints(t *testing.T) {
	server, store := newTestServer(t)
	userID, _ := registerUser(t, server, "ada@example.edu")

	post := &models.Post{
		ID: uuid.New(), Title: "Thread", Content: "body",
		Category: models.CategoryQuestion, UserID: userID,
	}
	assert.NoError(t, store.SavePost(context.Background(), post))

	rec := doJSON(t, server.HandleComment(), http.MethodPost, "/forum/comment", CreateCommentRequest{
		PostID: post.ID.String(), Content: "first!",
	}, userID)
	assert.Equal(t, http.StatusCreated, rec.Code)
	var top models.Comment
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &top))

	parentID := top.ID.String()
	rec = doJSON(t, server.HandleComment(), http.MethodPost, "/forum/comment", CreateCommentRequest{
		PostID: post.ID.String(), ParentID: &parentID, Content: "welcome",
	}, userID)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, server.HandlePostDetail(), http.MethodGet,
		fmt.Sprintf("/forum/post?id=%s", post.ID), nil, userID)
	assert.Equal(t, http.StatusOK, rec.Code)

	var detail PostDetailResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Equal(t, forum.StateLoaded, detail.State)
	assert.Equal(t, 2, detail.Post.CommentsCount)
	assert.Len(t, detail.Comments, 1)
	assert.Len(t, detail.Comments[0].Replies, 1)

	// A missing post reports the terminal not-found state.
	rec = doJSON(t, server.HandlePostDetail(), http.MethodGet,
		fmt.Sprintf("/forum/post?id=%s", uuid.New()), nil, uuid.Nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeletePostEndpoint(t *testing.T) {
	server, store := newTestServer(t)
	ownerID, _ := registerUser(t, server, "owner@example.edu")
	otherID, _ := registerUser(t, server, "other@example.edu")

	post := &models.Post{
		ID: uuid.New(), Title: "Mine", Content: "body",
		Category: models.CategoryAdvice, UserID: ownerID,
	}
	assert.NoError(t, store.SavePost(context.Background(), post))
	assert.NoError(t, store.SaveComment(context.Background(), &models.Comment{
		ID: uuid.New(), PostID: post.ID, UserID: otherID, Content: "keep me",
	}))

	target := fmt.Sprintf("/forum/post?id=%s&confirm=true", post.ID)

	// Not the owner: nothing deleted, comment intact.
	rec := doJSON(t, server.HandlePostDetail(), http.MethodDelete, target, nil, otherID)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	comments, err := store.GetPostComments(context.Background(), post.ID)
	assert.NoError(t, err)
	assert.Len(t, comments, 1)

	// Unconfirmed deletion is rejected.
	rec = doJSON(t, server.HandlePostDetail(), http.MethodDelete,
		fmt.Sprintf("/forum/post?id=%s", post.ID), nil, ownerID)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// The owner's confirmed delete cascades.
	rec = doJSON(t, server.HandlePostDetail(), http.MethodDelete, target, nil, ownerID)
	assert.Equal(t, http.StatusOK, rec.Code)
	_, err = store.GetPost(context.Background(), post.ID)
	assert.True(t, utils.IsErrorCode(err, utils.ErrNotFound))
	comments, err = store.GetPostComments(context.Background(), post.ID)
	assert.NoError(t, err)
	assert.Len(t, comments, 0)
}

func TestTrackerEndpoints(t *testing.T) {
	server, _ := newTestServer(t)
	userID, _ := registerUser(t, server, "ada@example.edu")

	deadline := "2027-01-15"
	rec := doJSON(t, server.HandleUniversities(), http.MethodPost, "/tracker/universities", SaveUniversityRequest{
		Name: "University of Florida", City: "Gainesville", ProgramName: "CS", Deadline: &deadline,
	}, userID)
	assert.Equal(t, http.StatusCreated, rec.Code)

	var saved models.University
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &saved))
	assert.Equal(t, userID, saved.UserID)

	rec = doJSON(t, server.HandleUniversities(), http.MethodGet, "/tracker/universities", nil, userID)
	assert.Equal(t, http.StatusOK, rec.Code)
	var listed []*models.University
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	assert.Len(t, listed, 1)

	// Another user cannot delete it.
	rec = doJSON(t, server.HandleUniversities(), http.MethodDelete,
		fmt.Sprintf("/tracker/universities?id=%s", saved.ID), nil, uuid.New())
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, server.HandleUniversities(), http.MethodDelete,
		fmt.Sprintf("/tracker/universities?id=%s", saved.ID), nil, userID)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUniversitySearchEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"name": "University of Florida", "country": "United States"}]`))
	}))
	defer upstream.Close()
	server.Directory = directory.NewClient(upstream.URL,
		slog.New(slog.NewTextHandler(io.Discard, nil)))

	rec := doJSON(t, server.HandleUniversitySearch(), http.MethodGet,
		"/universities/search?name=florida", nil, uuid.Nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var results []directory.University
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	assert.Len(t, results, 1)
	assert.Equal(t, "University of Florida", results[0].Name)

	// Signed-in callers go through their own search session.
	userID, _ := registerUser(t, server, "ada@example.edu")
	rec = doJSON(t, server.HandleUniversitySearch(), http.MethodGet,
		"/universities/search?name=florida", nil, userID)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUniversitySearchesByDifferentUsersDoNotInterfere(t *testing.T) {
	server, _ := newTestServer(t)
	adaID, _ := registerUser(t, server, "ada@example.edu")
	benID, _ := registerUser(t, server, "ben@example.edu")

	slowArrived := make(chan struct{})
	release := make(chan struct{})
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("name") == "florida" {
			close(slowArrived)
			<-release
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"name": "Somewhere", "country": "US"}]`))
	}))
	defer upstream.Close()
	server.Directory = directory.NewClient(upstream.URL,
		slog.New(slog.NewTextHandler(io.Discard, nil)))

	done := make(chan int, 1)
	go func() {
		rec := doJSON(t, server.HandleUniversitySearch(), http.MethodGet,
			"/universities/search?name=florida", nil, adaID)
		done <- rec.Code
	}()

	// Ben searches while Ada's query is still in flight. Neither
	// search supersedes the other.
	<-slowArrived
	rec := doJSON(t, server.HandleUniversitySearch(), http.MethodGet,
		"/universities/search?name=georgia", nil, benID)
	assert.Equal(t, http.StatusOK, rec.Code)

	close(release)
	assert.Equal(t, http.StatusOK, <-done)
}

func TestOperationLatencyRecorded(t *testing.T) {
	server, _ := newTestServer(t)
	registry := prometheus.NewRegistry()
	server.Metrics = utils.NewMetricsCollector(registry)

	rec := doJSON(t, server.HandlePosts(), http.MethodGet, "/forum/posts", nil, uuid.Nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	families, err := registry.Gather()
	assert.NoError(t, err)
	operations := map[string]bool{}
	for _, family := range families {
		if family.GetName() != "applynest_operation_duration_seconds" {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "operation" {
					operations[label.GetValue()] = true
				}
			}
		}
	}
	assert.True(t, operations["post_list"])
}
