package forum

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"applynest/internal/database"
)

// LikeIndex holds the set of posts the current user has liked. An index
// built with uuid.Nil represents an anonymous visitor and stays empty.
type LikeIndex struct {
	userID uuid.UUID

	mu    sync.RWMutex
	liked map[uuid.UUID]bool
}

func NewLikeIndex(userID uuid.UUID) *LikeIndex {
	return &LikeIndex{
		userID: userID,
		liked:  make(map[uuid.UUID]bool),
	}
}

func (ix *LikeIndex) UserID() uuid.UUID {
	return ix.userID
}

// Load replaces the index contents with the user's likes from the
// store. For an anonymous index this is a no-op.
func (ix *LikeIndex) Load(ctx context.Context, store database.Store) error {
	if ix.userID == uuid.Nil {
		return nil
	}
	ids, err := store.LikedPostIDs(ctx, ix.userID)
	if err != nil {
		return err
	}
	liked := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		liked[id] = true
	}
	ix.mu.Lock()
	ix.liked = liked
	ix.mu.Unlock()
	return nil
}

func (ix *LikeIndex) Has(postID uuid.UUID) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.liked[postID]
}

func (ix *LikeIndex) add(postID uuid.UUID) {
	ix.mu.Lock()
	ix.liked[postID] = true
	ix.mu.Unlock()
}

func (ix *LikeIndex) remove(postID uuid.UUID) {
	ix.mu.Lock()
	delete(ix.liked, postID)
	ix.mu.Unlock()
}
