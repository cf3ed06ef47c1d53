package forum

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"applynest/internal/database"
	"applynest/internal/models"
	"applynest/internal/utils"
)

// DetailState tracks the lifecycle of a post detail view.
type DetailState string

const (
	StateLoading  DetailState = "loading"
	StateLoaded   DetailState = "loaded"
	StateNotFound DetailState = "not_found"
)

// DetailController drives a single post's detail view: the post itself,
// its comment forest, the live like count and whether the current user
// has liked it. A controller built with uuid.Nil serves an anonymous
// visitor.
//
// Once a load lands in StateNotFound the state is terminal; mutations
// are rejected until a fresh controller is built.
type DetailController struct {
	store  database.Store
	logger *slog.Logger
	userID uuid.UUID

	mu     sync.Mutex
	state  DetailState
	post   *models.Post
	forest []*Node
	liked  bool
}

func NewDetailController(store database.Store, userID uuid.UUID, logger *slog.Logger) *DetailController {
	return &DetailController{
		store:  store,
		logger: logger,
		userID: userID,
		state:  StateLoading,
	}
}

func (c *DetailController) State() DetailState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *DetailController) Post() *models.Post {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.post
}

func (c *DetailController) Forest() []*Node {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.forest
}

func (c *DetailController) Liked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.liked
}

// Load fetches the post and, if it exists, its like count, comment
// forest and the user's like flag concurrently. A missing post settles
// the controller in StateNotFound without error.
func (c *DetailController) Load(ctx context.Context, postID uuid.UUID) error {
	post, err := c.store.GetPost(ctx, postID)
	if err != nil {
		if utils.IsErrorCode(err, utils.ErrNotFound) {
			c.mu.Lock()
			c.state = StateNotFound
			c.post = nil
			c.forest = nil
			c.mu.Unlock()
			return nil
		}
		return err
	}

	var (
		likeCount int
		comments  []*models.Comment
		liked     bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		likeCount, err = c.store.CountLikes(gctx, postID)
		return err
	})
	g.Go(func() error {
		var err error
		comments, err = c.store.GetPostComments(gctx, postID)
		return err
	})
	if c.userID != uuid.Nil {
		g.Go(func() error {
			var err error
			liked, err = c.store.HasLiked(gctx, postID, c.userID)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	post.LikesCount = likeCount
	post.CommentsCount = len(comments)

	c.mu.Lock()
	c.state = StateLoaded
	c.post = post
	c.forest = BuildForest(comments)
	c.liked = liked
	c.mu.Unlock()
	return nil
}

// ToggleLike flips the user's like on the loaded post. The flag and
// count flip locally first; on success the count is reconciled from the
// store, on failure both are resynchronized.
func (c *DetailController) ToggleLike(ctx context.Context) error {
	if c.userID == uuid.Nil {
		return utils.NewUnauthorizedError("sign in to like posts")
	}
	c.mu.Lock()
	if c.state != StateLoaded {
		c.mu.Unlock()
		return utils.NewNotFoundError("post")
	}
	postID := c.post.ID
	wasLiked := c.liked
	c.liked = !wasLiked
	if wasLiked {
		c.post.LikesCount--
		if c.post.LikesCount < 0 {
			c.post.LikesCount = 0
		}
	} else {
		c.post.LikesCount++
	}
	c.mu.Unlock()

	var err error
	if wasLiked {
		err = c.store.DeleteLike(ctx, postID, c.userID)
	} else {
		err = c.store.InsertLike(ctx, postID, c.userID)
	}
	if err != nil {
		c.logger.Warn("like toggle failed, resyncing detail",
			"post_id", postID, "user_id", c.userID, "error", err)
		c.resyncLikes(ctx, postID)
		return utils.NewAppError(utils.ErrDatabase, "failed to update like", err)
	}

	if count, cerr := c.store.CountLikes(ctx, postID); cerr == nil {
		c.mu.Lock()
		if c.state == StateLoaded && c.post.ID == postID {
			c.post.LikesCount = count
		}
		c.mu.Unlock()
	}
	return nil
}

func (c *DetailController) resyncLikes(ctx context.Context, postID uuid.UUID) {
	count, err := c.store.CountLikes(ctx, postID)
	if err != nil {
		c.logger.Error("like count resync failed", "post_id", postID, "error", err)
		return
	}
	liked, err := c.store.HasLiked(ctx, postID, c.userID)
	if err != nil {
		c.logger.Error("like flag resync failed", "post_id", postID, "error", err)
		return
	}
	c.mu.Lock()
	if c.state == StateLoaded && c.post.ID == postID {
		c.post.LikesCount = count
		c.liked = liked
	}
	c.mu.Unlock()
}

// AddComment appends a top-level comment to the loaded post.
func (c *DetailController) AddComment(ctx context.Context, content string) (*models.Comment, error) {
	return c.addComment(ctx, nil, content)
}

// AddReply appends a reply under an existing comment.
func (c *DetailController) AddReply(ctx context.Context, parentID uuid.UUID, content string) (*models.Comment, error) {
	return c.addComment(ctx, &parentID, content)
}

func (c *DetailController) addComment(ctx context.Context, parentID *uuid.UUID, content string) (*models.Comment, error) {
	if c.userID == uuid.Nil {
		return nil, utils.NewUnauthorizedError("sign in to comment")
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, utils.NewValidationError("comment content is required")
	}

	c.mu.Lock()
	if c.state != StateLoaded {
		c.mu.Unlock()
		return nil, utils.NewNotFoundError("post")
	}
	postID := c.post.ID
	c.mu.Unlock()

	comment := &models.Comment{
		ID:              uuid.New(),
		PostID:          postID,
		UserID:          c.userID,
		ParentCommentID: parentID,
		Content:         content,
	}
	if err := c.store.SaveComment(ctx, comment); err != nil {
		return nil, err
	}
	if err := c.refetchForest(ctx, postID); err != nil {
		// The comment is persisted; a failed refresh only leaves the
		// view one mutation behind.
		c.logger.Warn("comment forest refresh failed", "post_id", postID, "error", err)
	}
	return comment, nil
}

// refetchForest rebuilds the comment forest from the store after a
// mutation. The forest is never patched in place.
func (c *DetailController) refetchForest(ctx context.Context, postID uuid.UUID) error {
	comments, err := c.store.GetPostComments(ctx, postID)
	if err != nil {
		return err
	}
	c.mu.Lock()
	if c.state == StateLoaded && c.post.ID == postID {
		c.forest = BuildForest(comments)
		c.post.CommentsCount = len(comments)
	}
	c.mu.Unlock()
	return nil
}
