// internal/database/like_store.go
package database

import (
	"context"
	"database/sql"
	"fmt"

	"applynest/internal/utils"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// InsertLike records a like for (postID, userID). The primary key makes a
// second like from the same user a duplicate error.
func (p *PostgresDB) InsertLike(ctx context.Context, postID, userID uuid.UUID) error {
	query := `INSERT INTO likes (post_id, user_id, created_at) VALUES ($1, $2, NOW())`
	_, err := p.DB.ExecContext(ctx, query, postID, userID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return utils.NewAppError(utils.ErrDuplicate, fmt.Sprintf("post %s already liked", postID), err)
		}
		return utils.NewAppError(utils.ErrDatabase, "failed to insert like", err)
	}
	return nil
}

// DeleteLike removes the like row for (postID, userID). Scoping by both
// identifiers means a user can only remove their own like.
func (p *PostgresDB) DeleteLike(ctx context.Context, postID, userID uuid.UUID) error {
	query := `DELETE FROM likes WHERE post_id = $1 AND user_id = $2`
	_, err := p.DB.ExecContext(ctx, query, postID, userID)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to delete like", err)
	}
	return nil
}

// HasLiked reports whether userID has liked postID.
func (p *PostgresDB) HasLiked(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM likes WHERE post_id = $1 AND user_id = $2)`
	err := p.DB.GetContext(ctx, &exists, query, postID, userID)
	if err != nil && err != sql.ErrNoRows {
		return false, utils.NewAppError(utils.ErrDatabase, "failed to query like status", err)
	}
	return exists, nil
}

// LikedPostIDs fetches every post ID the user has liked, for seeding the
// in-memory like index.
func (p *PostgresDB) LikedPostIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	query := `SELECT post_id FROM likes WHERE user_id = $1`
	err := p.DB.SelectContext(ctx, &ids, query, userID)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query liked posts", err)
	}
	return ids, nil
}
