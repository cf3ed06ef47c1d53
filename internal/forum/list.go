package forum

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"applynest/internal/database"
	"applynest/internal/models"
	"applynest/internal/utils"
)

// SortKey selects the ordering of a post listing.
type SortKey string

const (
	SortNewest    SortKey = "newest"
	SortOldest    SortKey = "oldest"
	SortMostLiked SortKey = "most_liked"
)

func (k SortKey) Valid() bool {
	switch k {
	case SortNewest, SortOldest, SortMostLiked:
		return true
	}
	return false
}

// ListEngine maintains a filtered, sorted, count-annotated view of the
// post listing. Changing category or search triggers a fetch; changing
// the sort key only reorders what is already held.
//
// Fetches carry a generation token: a response that arrives after a
// newer fetch has started is discarded, so the view never regresses to
// stale filter results.
type ListEngine struct {
	store  database.Store
	index  *LikeIndex
	logger *slog.Logger

	gen atomic.Uint64

	mu       sync.Mutex
	category models.Category
	search   string
	sortKey  SortKey
	posts    []*models.Post
}

func NewListEngine(store database.Store, index *LikeIndex, logger *slog.Logger) *ListEngine {
	return &ListEngine{
		store:    store,
		index:    index,
		logger:   logger,
		category: models.CategoryAll,
		sortKey:  SortNewest,
		posts:    []*models.Post{},
	}
}

// Posts returns a snapshot of the current listing.
func (e *ListEngine) Posts() []*models.Post {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*models.Post, len(e.posts))
	copy(out, e.posts)
	return out
}

func (e *ListEngine) Category() models.Category {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.category
}

func (e *ListEngine) Sort() SortKey {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sortKey
}

// SetCategory changes the category filter and refetches the listing.
func (e *ListEngine) SetCategory(ctx context.Context, category models.Category) error {
	if category != models.CategoryAll && !category.Valid() {
		return utils.NewValidationError("unknown category")
	}
	e.mu.Lock()
	e.category = category
	e.mu.Unlock()
	return e.fetch(ctx)
}

// SetSearch changes the search query and refetches the listing.
func (e *ListEngine) SetSearch(ctx context.Context, query string) error {
	e.mu.Lock()
	e.search = query
	e.mu.Unlock()
	return e.fetch(ctx)
}

// SetSort reorders the held posts under the new key without touching
// the store.
func (e *ListEngine) SetSort(key SortKey) error {
	if !key.Valid() {
		return utils.NewValidationError("unknown sort key")
	}
	e.mu.Lock()
	e.sortKey = key
	e.sortLocked()
	e.mu.Unlock()
	return nil
}

// Refresh refetches the listing under the current filters.
func (e *ListEngine) Refresh(ctx context.Context) error {
	return e.fetch(ctx)
}

func (e *ListEngine) fetch(ctx context.Context) error {
	gen := e.gen.Add(1)

	e.mu.Lock()
	category, search := e.category, e.search
	e.mu.Unlock()

	posts, err := e.store.SearchPosts(ctx, category, search)
	if err != nil {
		return err
	}
	if err := e.annotateCounts(ctx, posts); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gen.Load() != gen {
		// A newer fetch has started; this response is stale.
		return nil
	}
	e.posts = posts
	e.sortLocked()
	return nil
}

// annotateCounts fills the derived like and comment counts from a
// single aggregated query per kind. Posts absent from a count map have
// zero of that kind.
func (e *ListEngine) annotateCounts(ctx context.Context, posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	likes, err := e.store.LikeCountsByPost(ctx, ids)
	if err != nil {
		return err
	}
	comments, err := e.store.CommentCountsByPost(ctx, ids)
	if err != nil {
		return err
	}
	for _, p := range posts {
		p.LikesCount = likes[p.ID]
		p.CommentsCount = comments[p.ID]
	}
	return nil
}

// sortLocked orders e.posts under the active key. Caller holds e.mu.
// Sorting is stable so that posts tied on likes keep their newest-first
// order from the store.
func (e *ListEngine) sortLocked() {
	switch e.sortKey {
	case SortOldest:
		sort.SliceStable(e.posts, func(i, j int) bool {
			return e.posts[i].CreatedAt.Before(e.posts[j].CreatedAt)
		})
	case SortMostLiked:
		sort.SliceStable(e.posts, func(i, j int) bool {
			return e.posts[i].LikesCount > e.posts[j].LikesCount
		})
	default:
		sort.SliceStable(e.posts, func(i, j int) bool {
			return e.posts[i].CreatedAt.After(e.posts[j].CreatedAt)
		})
	}
}

// ToggleLike flips the current user's like on a post. The local view is
// updated before the store round-trip so the listing reacts
// immediately; if the store rejects the write, the view and like index
// are resynchronized from the store.
func (e *ListEngine) ToggleLike(ctx context.Context, postID uuid.UUID) error {
	if e.index == nil || e.index.UserID() == uuid.Nil {
		return utils.NewUnauthorizedError("sign in to like posts")
	}
	userID := e.index.UserID()

	liked := e.index.Has(postID)
	if liked {
		e.index.remove(postID)
		e.adjustLikeCount(postID, -1)
	} else {
		e.index.add(postID)
		e.adjustLikeCount(postID, +1)
	}

	var err error
	if liked {
		err = e.store.DeleteLike(ctx, postID, userID)
	} else {
		err = e.store.InsertLike(ctx, postID, userID)
	}
	if err == nil {
		return nil
	}

	e.logger.Warn("like toggle failed, resyncing listing",
		"post_id", postID, "user_id", userID, "error", err)
	if rerr := e.fetch(ctx); rerr != nil {
		e.logger.Error("listing resync failed", "error", rerr)
	}
	if rerr := e.index.Load(ctx, e.store); rerr != nil {
		e.logger.Error("like index resync failed", "error", rerr)
	}
	return utils.NewAppError(utils.ErrDatabase, "failed to update like", err)
}

func (e *ListEngine) adjustLikeCount(postID uuid.UUID, delta int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, p := range e.posts {
		if p.ID == postID {
			p.LikesCount += delta
			if p.LikesCount < 0 {
				p.LikesCount = 0
			}
			if e.sortKey == SortMostLiked {
				e.sortLocked()
			}
			return
		}
	}
}
