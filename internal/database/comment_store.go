// internal/database/comment_store.go
package database

import (
	"context"
	"time"

	"applynest/internal/models"
	"applynest/internal/utils"

	"github.com/google/uuid"
)

// SaveComment inserts a new comment. No counter maintenance happens here:
// comment counts are recomputed from this table on read.
func (p *PostgresDB) SaveComment(ctx context.Context, comment *models.Comment) error {
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO comments (id, post_id, user_id, content, parent_comment_id, created_at)
		VALUES (:id, :post_id, :user_id, :content, :parent_comment_id, :created_at)
	`
	_, err := p.DB.NamedExecContext(ctx, query, comment)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to save comment", err)
	}
	return nil
}

// GetPostComments fetches all comments for a post in ascending creation
// order, the shape the thread builder expects.
func (p *PostgresDB) GetPostComments(ctx context.Context, postID uuid.UUID) ([]*models.Comment, error) {
	query := `
		SELECT id, post_id, user_id, content, parent_comment_id, created_at
		FROM comments
		WHERE post_id = $1
		ORDER BY created_at ASC
	`
	comments := []*models.Comment{}
	err := p.DB.SelectContext(ctx, &comments, query, postID)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query post comments", err)
	}
	return comments, nil
}
