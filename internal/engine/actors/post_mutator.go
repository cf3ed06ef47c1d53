package actors

import (
	stdctx "context"
	"log/slog"
	"strings"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"

	"applynest/internal/database"
	"applynest/internal/models"
	"applynest/internal/utils"
)

// Message types for post mutations. Every message names the acting
// user explicitly; the actors never consult ambient session state.
type (
	ToggleLikeMsg struct {
		PostID uuid.UUID `json:"postId"`
		UserID uuid.UUID `json:"userId"`
	}

	AddCommentMsg struct {
		PostID   uuid.UUID  `json:"postId"`
		UserID   uuid.UUID  `json:"userId"`
		ParentID *uuid.UUID `json:"parentId,omitempty"`
		Content  string     `json:"content"`
	}

	EditPostMsg struct {
		Post   *models.Post `json:"post"`
		UserID uuid.UUID    `json:"userId"`
	}

	DeletePostMsg struct {
		PostID    uuid.UUID `json:"postId"`
		UserID    uuid.UUID `json:"userId"`
		Confirmed bool      `json:"confirmed"`
	}
)

// ToggleLikeResult reports the user's like state and the recomputed
// count after a toggle.
type ToggleLikeResult struct {
	PostID     uuid.UUID `json:"postId"`
	Liked      bool      `json:"liked"`
	LikesCount int       `json:"likesCount"`
}

// PostMutatorActor serializes the mutations of a single post. All
// likes, comments, edits and the delete for one post funnel through one
// actor, so two toggles for the same (post, user) pair can never
// interleave.
type PostMutatorActor struct {
	postID uuid.UUID
	store  database.Store
	logger *slog.Logger
}

func NewPostMutatorActor(postID uuid.UUID, store database.Store, logger *slog.Logger) actor.Actor {
	return &PostMutatorActor{
		postID: postID,
		store:  store,
		logger: logger,
	}
}

func (a *PostMutatorActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *actor.Started:
		a.logger.Debug("post mutator started", "post_id", a.postID)

	case *ToggleLikeMsg:
		a.handleToggleLike(context, msg)

	case *AddCommentMsg:
		a.handleAddComment(context, msg)

	case *EditPostMsg:
		a.handleEditPost(context, msg)

	case *DeletePostMsg:
		a.handleDeletePost(context, msg)
	}
}

func (a *PostMutatorActor) handleToggleLike(context actor.Context, msg *ToggleLikeMsg) {
	ctx, cancel := stdctx.WithTimeout(stdctx.Background(), 5*time.Second)
	defer cancel()

	if msg.UserID == uuid.Nil {
		context.Respond(utils.NewUnauthorizedError("sign in to like posts"))
		return
	}

	liked, err := a.store.HasLiked(ctx, msg.PostID, msg.UserID)
	if err != nil {
		context.Respond(utils.NewAppError(utils.ErrDatabase, "failed to read like state", err))
		return
	}

	if liked {
		err = a.store.DeleteLike(ctx, msg.PostID, msg.UserID)
	} else {
		err = a.store.InsertLike(ctx, msg.PostID, msg.UserID)
		if utils.IsErrorCode(err, utils.ErrDuplicate) {
			// Lost a race with an earlier toggle for the same pair;
			// the like exists, which is the state we wanted.
			err = nil
		}
	}
	if err != nil {
		context.Respond(utils.NewAppError(utils.ErrDatabase, "failed to update like", err))
		return
	}

	count, err := a.store.CountLikes(ctx, msg.PostID)
	if err != nil {
		context.Respond(utils.NewAppError(utils.ErrDatabase, "failed to recount likes", err))
		return
	}

	context.Respond(&ToggleLikeResult{
		PostID:     msg.PostID,
		Liked:      !liked,
		LikesCount: count,
	})
}

func (a *PostMutatorActor) handleAddComment(context actor.Context, msg *AddCommentMsg) {
	ctx, cancel := stdctx.WithTimeout(stdctx.Background(), 5*time.Second)
	defer cancel()

	if msg.UserID == uuid.Nil {
		context.Respond(utils.NewUnauthorizedError("sign in to comment"))
		return
	}
	content := strings.TrimSpace(msg.Content)
	if content == "" {
		context.Respond(utils.NewValidationError("comment content is required"))
		return
	}

	comment := &models.Comment{
		ID:              uuid.New(),
		PostID:          msg.PostID,
		UserID:          msg.UserID,
		ParentCommentID: msg.ParentID,
		Content:         content,
	}
	if err := a.store.SaveComment(ctx, comment); err != nil {
		context.Respond(utils.NewAppError(utils.ErrDatabase, "failed to save comment", err))
		return
	}
	context.Respond(comment)
}

func (a *PostMutatorActor) handleEditPost(context actor.Context, msg *EditPostMsg) {
	ctx, cancel := stdctx.WithTimeout(stdctx.Background(), 5*time.Second)
	defer cancel()

	if msg.UserID == uuid.Nil {
		context.Respond(utils.NewUnauthorizedError("sign in to edit posts"))
		return
	}
	post := msg.Post
	post.ID = a.postID
	post.UserID = msg.UserID

	rows, err := a.store.UpdatePost(ctx, post)
	if err != nil {
		context.Respond(utils.NewAppError(utils.ErrDatabase, "failed to update post", err))
		return
	}
	if rows == 0 {
		context.Respond(utils.NewAppError(utils.ErrForbidden, "post not found or not owned by user", nil))
		return
	}
	context.Respond(post)
}

// handleDeletePost removes the post row scoped by owner. The comments
// and likes go with it through the foreign keys; an unowned post means
// zero rows touched anywhere.
func (a *PostMutatorActor) handleDeletePost(context actor.Context, msg *DeletePostMsg) {
	ctx, cancel := stdctx.WithTimeout(stdctx.Background(), 5*time.Second)
	defer cancel()

	if msg.UserID == uuid.Nil {
		context.Respond(utils.NewUnauthorizedError("sign in to delete posts"))
		return
	}
	if !msg.Confirmed {
		context.Respond(utils.NewValidationError("deletion requires confirmation"))
		return
	}

	rows, err := a.store.DeletePost(ctx, msg.PostID, msg.UserID)
	if err != nil {
		context.Respond(utils.NewAppError(utils.ErrDatabase, "failed to delete post", err))
		return
	}
	if rows == 0 {
		context.Respond(utils.NewAppError(utils.ErrForbidden, "post not found or not owned by user", nil))
		return
	}

	a.logger.Info("post deleted", "post_id", msg.PostID, "user_id", msg.UserID)
	context.Respond(true)
}
