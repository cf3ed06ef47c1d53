package models

import (
	"time"

	"github.com/google/uuid"
)

// Like records a user's endorsement of a post. Identity is the
// (post, user) pair; the store enforces at most one row per pair.
type Like struct {
	PostID    uuid.UUID `json:"postId" db:"post_id"`
	UserID    uuid.UUID `json:"userId" db:"user_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
