package forum

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"applynest/internal/database"
	"applynest/internal/models"
	"applynest/internal/utils"
)

func TestDetailControllerLoad(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemStore()
	post := seedPost(t, store, "decisions thread", models.CategoryQuestion, time.Now())

	userID := uuid.New()
	assert.NoError(t, store.InsertLike(ctx, post.ID, userID))
	assert.NoError(t, store.InsertLike(ctx, post.ID, uuid.New()))
	assert.NoError(t, store.SaveComment(ctx, &models.Comment{
		ID: uuid.New(), PostID: post.ID, UserID: uuid.New(), Content: "congrats",
	}))

	ctrl := NewDetailController(store, userID, testLogger())
	assert.Equal(t, StateLoading, ctrl.State())
	assert.NoError(t, ctrl.Load(ctx, post.ID))

	assert.Equal(t, StateLoaded, ctrl.State())
	assert.Equal(t, 2, ctrl.Post().LikesCount)
	assert.Equal(t, 1, ctrl.Post().CommentsCount)
	assert.True(t, ctrl.Liked())
	assert.Len(t, ctrl.Forest(), 1)
}

func TestDetailControllerLoadNotFound(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemStore()

	ctrl := NewDetailController(store, uuid.New(), testLogger())
	assert.NoError(t, ctrl.Load(ctx, uuid.New()))
	assert.Equal(t, StateNotFound, ctrl.State())
	assert.Nil(t, ctrl.Post())

	// Not-found is terminal for mutations.
	err := ctrl.ToggleLike(ctx)
	assert.True(t, utils.IsErrorCode(err, utils.ErrNotFound))
	_, err = ctrl.AddComment(ctx, "hello")
	assert.True(t, utils.IsErrorCode(err, utils.ErrNotFound))
}

func TestDetailControllerToggleLike(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemStore()
	post := seedPost(t, store, "likeable", models.CategoryAdvice, time.Now())

	ctrl := NewDetailController(store, uuid.New(), testLogger())
	assert.NoError(t, ctrl.Load(ctx, post.ID))

	assert.NoError(t, ctrl.ToggleLike(ctx))
	assert.True(t, ctrl.Liked())
	assert.Equal(t, 1, ctrl.Post().LikesCount)

	assert.NoError(t, ctrl.ToggleLike(ctx))
	assert.False(t, ctrl.Liked())
	assert.Equal(t, 0, ctrl.Post().LikesCount)
}

func TestDetailControllerToggleLikeAnonymous(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemStore()
	post := seedPost(t, store, "likeable", models.CategoryAdvice, time.Now())

	stored := 0
	store.ForceErr = func(op string) error {
		if op == "InsertLike" || op == "DeleteLike" {
			stored++
		}
		return nil
	}

	ctrl := NewDetailController(store, uuid.Nil, testLogger())
	assert.NoError(t, ctrl.Load(ctx, post.ID))

	err := ctrl.ToggleLike(ctx)
	assert.True(t, utils.IsErrorCode(err, utils.ErrUnauthorized))
	assert.Equal(t, 0, stored)
}

func TestDetailControllerToggleLikeResyncOnError(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemStore()
	post := seedPost(t, store, "likeable", models.CategoryAdvice, time.Now())

	ctrl := NewDetailController(store, uuid.New(), testLogger())
	assert.NoError(t, ctrl.Load(ctx, post.ID))

	store.ForceErr = func(op string) error {
		if op == "InsertLike" {
			return errors.New("connection reset")
		}
		return nil
	}
	err := ctrl.ToggleLike(ctx)
	assert.True(t, utils.IsErrorCode(err, utils.ErrDatabase))
	assert.False(t, ctrl.Liked())
	assert.Equal(t, 0, ctrl.Post().LikesCount)
}

func TestDetailControllerAddCommentAndReply(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemStore()
	post := seedPost(t, store, "thread", models.CategoryQuestion, time.Now())

	ctrl := NewDetailController(store, uuid.New(), testLogger())
	assert.NoError(t, ctrl.Load(ctx, post.ID))

	top, err := ctrl.AddComment(ctx, "  first!  ")
	assert.NoError(t, err)
	assert.Equal(t, "first!", top.Content)
	assert.Nil(t, top.ParentCommentID)

	reply, err := ctrl.AddReply(ctx, top.ID, "welcome")
	assert.NoError(t, err)
	assert.Equal(t, top.ID, *reply.ParentCommentID)

	forest := ctrl.Forest()
	assert.Len(t, forest, 1)
	assert.Equal(t, "first!", forest[0].Content)
	assert.Len(t, forest[0].Replies, 1)
	assert.Equal(t, "welcome", forest[0].Replies[0].Content)
	assert.Equal(t, 2, ctrl.Post().CommentsCount)
}

func TestDetailControllerAddCommentValidation(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemStore()
	post := seedPost(t, store, "thread", models.CategoryQuestion, time.Now())

	saves := 0
	store.ForceErr = func(op string) error {
		if op == "SaveComment" {
			saves++
		}
		return nil
	}

	ctrl := NewDetailController(store, uuid.New(), testLogger())
	assert.NoError(t, ctrl.Load(ctx, post.ID))

	_, err := ctrl.AddComment(ctx, "   ")
	assert.True(t, utils.IsErrorCode(err, utils.ErrInvalidInput))
	assert.Equal(t, 0, saves)

	anon := NewDetailController(store, uuid.Nil, testLogger())
	assert.NoError(t, anon.Load(ctx, post.ID))
	_, err = anon.AddComment(ctx, "hello")
	assert.True(t, utils.IsErrorCode(err, utils.ErrUnauthorized))
	assert.Equal(t, 0, saves)
}
