package models

import (
	"time"

	"github.com/google/uuid"
)

// Comment is a reply to a post, or to another comment when
// ParentCommentID is set. Comments for one post form a forest.
type Comment struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	PostID          uuid.UUID  `json:"postId" db:"post_id"`
	UserID          uuid.UUID  `json:"userId" db:"user_id"`
	Content         string     `json:"content" db:"content"`
	ParentCommentID *uuid.UUID `json:"parentCommentId,omitempty" db:"parent_comment_id"` // nil for top-level comments
	CreatedAt       time.Time  `json:"createdAt" db:"created_at"`
}
