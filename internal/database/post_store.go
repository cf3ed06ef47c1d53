// internal/database/post_store.go
package database

import (
	"context"
	"database/sql"
	"time"

	"applynest/internal/models"
	"applynest/internal/utils"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// SavePost inserts a new post.
func (p *PostgresDB) SavePost(ctx context.Context, post *models.Post) error {
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO posts (id, title, content, category, university_name, program_name, image_url, user_id, created_at)
		VALUES (:id, :title, :content, :category, :university_name, :program_name, :image_url, :user_id, :created_at)
	`
	_, err := p.DB.NamedExecContext(ctx, query, post)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to save post", err)
	}
	return nil
}

// UpdatePost updates a post's editable fields, scoped by both post and
// owning-user identifier. Returns the number of rows affected; zero means
// the post does not exist or is owned by someone else.
func (p *PostgresDB) UpdatePost(ctx context.Context, post *models.Post) (int64, error) {
	query := `
		UPDATE posts
		SET title = :title,
			content = :content,
			category = :category,
			university_name = :university_name,
			program_name = :program_name,
			image_url = :image_url
		WHERE id = :id AND user_id = :user_id
	`
	result, err := p.DB.NamedExecContext(ctx, query, post)
	if err != nil {
		return 0, utils.NewAppError(utils.ErrDatabase, "failed to update post", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, utils.NewAppError(utils.ErrDatabase, "failed to get rows affected after update", err)
	}
	return rowsAffected, nil
}

// DeletePost deletes a post scoped by (post id, owning user id). Comments
// and likes referencing the post are removed by the schema's ON DELETE
// CASCADE foreign keys. Zero rows affected means the acting user does not
// own the post (or it is already gone); nothing else is touched in that
// case because the cascade only fires on the post row itself.
func (p *PostgresDB) DeletePost(ctx context.Context, postID, userID uuid.UUID) (int64, error) {
	query := `DELETE FROM posts WHERE id = $1 AND user_id = $2`
	result, err := p.DB.ExecContext(ctx, query, postID, userID)
	if err != nil {
		return 0, utils.NewAppError(utils.ErrDatabase, "failed to delete post", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, utils.NewAppError(utils.ErrDatabase, "failed to get rows affected after delete", err)
	}
	return rowsAffected, nil
}

// GetPost fetches a post by its ID. The caller is responsible for count
// enrichment; the row comes back with zero counters.
func (p *PostgresDB) GetPost(ctx context.Context, postID uuid.UUID) (*models.Post, error) {
	query := `
		SELECT id, title, content, category, university_name, program_name, image_url, user_id, created_at
		FROM posts
		WHERE id = $1
	`
	var post models.Post
	err := p.DB.GetContext(ctx, &post, query, postID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, utils.NewAppError(utils.ErrNotFound, "post not found", err)
		}
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query post by id", err)
	}
	return &post, nil
}

// SearchPosts fetches posts matching a category filter and an optional
// free-text search. CategoryAll disables the category filter. A non-empty
// search requires a case-insensitive substring match on title, content,
// or university name.
func (p *PostgresDB) SearchPosts(ctx context.Context, category models.Category, search string) ([]*models.Post, error) {
	query := `
		SELECT id, title, content, category, university_name, program_name, image_url, user_id, created_at
		FROM posts
	`
	var clauses []string
	var args []interface{}

	if category != models.CategoryAll {
		clauses = append(clauses, `category = ?`)
		args = append(args, category)
	}
	if search != "" {
		clauses = append(clauses, `(title ILIKE ? OR content ILIKE ? OR university_name ILIKE ?)`)
		pattern := "%" + search + "%"
		args = append(args, pattern, pattern, pattern)
	}

	for i, clause := range clauses {
		if i == 0 {
			query += " WHERE " + clause
		} else {
			query += " AND " + clause
		}
	}
	query += " ORDER BY created_at DESC"
	query = p.DB.Rebind(query)

	posts := []*models.Post{}
	err := p.DB.SelectContext(ctx, &posts, query, args...)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query posts", err)
	}
	return posts, nil
}

// LikeCountsByPost returns a map from post ID to like count for the given
// set of posts, computed with a GROUP BY aggregation. Posts with no likes
// are absent from the map.
func (p *PostgresDB) LikeCountsByPost(ctx context.Context, postIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	return p.countByPost(ctx, `SELECT post_id, count(*) AS n FROM likes WHERE post_id IN (?) GROUP BY post_id`, postIDs)
}

// CommentCountsByPost is the comment-table counterpart of LikeCountsByPost.
func (p *PostgresDB) CommentCountsByPost(ctx context.Context, postIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	return p.countByPost(ctx, `SELECT post_id, count(*) AS n FROM comments WHERE post_id IN (?) GROUP BY post_id`, postIDs)
}

func (p *PostgresDB) countByPost(ctx context.Context, baseQuery string, postIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	counts := make(map[uuid.UUID]int, len(postIDs))
	if len(postIDs) == 0 {
		return counts, nil
	}

	query, args, err := sqlx.In(baseQuery, postIDs)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to build count query", err)
	}
	query = p.DB.Rebind(query)

	rows := []struct {
		PostID uuid.UUID `db:"post_id"`
		N      int       `db:"n"`
	}{}
	if err := p.DB.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query counts by post", err)
	}
	for _, row := range rows {
		counts[row.PostID] = row.N
	}
	return counts, nil
}

// CountLikes returns the live like count for a single post.
func (p *PostgresDB) CountLikes(ctx context.Context, postID uuid.UUID) (int, error) {
	var n int
	err := p.DB.GetContext(ctx, &n, `SELECT count(*) FROM likes WHERE post_id = $1`, postID)
	if err != nil {
		return 0, utils.NewAppError(utils.ErrDatabase, "failed to count likes", err)
	}
	return n, nil
}
