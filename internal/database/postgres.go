// internal/database/postgres.go
package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"applynest/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Store defines the operations the application issues against the remote
// table store. PostgreSQL is the only backend.
type Store interface {
	// Connection
	Close(ctx context.Context) error

	// User methods
	SaveUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)

	// Post methods
	SavePost(ctx context.Context, post *models.Post) error
	UpdatePost(ctx context.Context, post *models.Post) (int64, error)
	DeletePost(ctx context.Context, postID, userID uuid.UUID) (int64, error)
	GetPost(ctx context.Context, postID uuid.UUID) (*models.Post, error)
	SearchPosts(ctx context.Context, category models.Category, search string) ([]*models.Post, error)

	// Derived counters; recomputed from the likes/comments tables on
	// every read, never stored on the post row.
	LikeCountsByPost(ctx context.Context, postIDs []uuid.UUID) (map[uuid.UUID]int, error)
	CommentCountsByPost(ctx context.Context, postIDs []uuid.UUID) (map[uuid.UUID]int, error)
	CountLikes(ctx context.Context, postID uuid.UUID) (int, error)

	// Like methods
	InsertLike(ctx context.Context, postID, userID uuid.UUID) error
	DeleteLike(ctx context.Context, postID, userID uuid.UUID) error
	HasLiked(ctx context.Context, postID, userID uuid.UUID) (bool, error)
	LikedPostIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)

	// Comment methods
	SaveComment(ctx context.Context, comment *models.Comment) error
	GetPostComments(ctx context.Context, postID uuid.UUID) ([]*models.Comment, error)

	// Tracker methods
	SaveUniversity(ctx context.Context, uni *models.University) error
	UniversitiesByUser(ctx context.Context, userID uuid.UUID) ([]*models.University, error)
	DeleteUniversity(ctx context.Context, id, userID uuid.UUID) (int64, error)
}

var _ Store = (*PostgresDB)(nil)

// PostgresDB represents a PostgreSQL database connection
type PostgresDB struct {
	DB     *sqlx.DB
	logger *slog.Logger
}

// NewPostgresDB creates a new PostgreSQL database connection
func NewPostgresDB(connectionString string, logger *slog.Logger) (*PostgresDB, error) {
	db, err := sqlx.Connect("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %v", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping PostgreSQL: %v", err)
	}

	logger.Info("connected to PostgreSQL")

	return &PostgresDB{DB: db, logger: logger}, nil
}

// Close closes the database connection
func (p *PostgresDB) Close(ctx context.Context) error {
	p.logger.Info("closing PostgreSQL connection")
	return p.DB.Close()
}

// InitializeTables creates all necessary tables if they don't exist.
// Comments and likes carry ON DELETE CASCADE foreign keys to posts, so
// deleting a post removes its dependents in one statement instead of the
// three-step client-side order.
func (p *PostgresDB) InitializeTables(ctx context.Context) error {
	// Users table
	_, err := p.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			first_name VARCHAR(100) NOT NULL,
			last_name VARCHAR(100) NOT NULL,
			email VARCHAR(100) UNIQUE NOT NULL,
			password_hash VARCHAR(100) NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create users table: %v", err)
	}

	// Posts table. likes_count/comments_count are intentionally absent:
	// they are derived from the likes/comments tables at read time.
	_, err = p.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS posts (
			id UUID PRIMARY KEY,
			title VARCHAR(300) NOT NULL,
			content TEXT NOT NULL,
			category VARCHAR(20) NOT NULL,
			university_name VARCHAR(200) NOT NULL DEFAULT '',
			program_name VARCHAR(200) NOT NULL DEFAULT '',
			image_url VARCHAR(500) NOT NULL DEFAULT '',
			user_id UUID NOT NULL REFERENCES users(id),
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create posts table: %v", err)
	}

	// Comments table
	_, err = p.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS comments (
			id UUID PRIMARY KEY,
			post_id UUID NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
			user_id UUID NOT NULL REFERENCES users(id),
			content TEXT NOT NULL,
			parent_comment_id UUID REFERENCES comments(id) ON DELETE CASCADE,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create comments table: %v", err)
	}

	// Likes table: composite identity, one row per (post, user)
	_, err = p.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS likes (
			post_id UUID NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
			user_id UUID NOT NULL REFERENCES users(id),
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			PRIMARY KEY (post_id, user_id)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create likes table: %v", err)
	}

	// Universities table (application tracker)
	_, err = p.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS universities (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id),
			name VARCHAR(200) NOT NULL,
			city VARCHAR(200) NOT NULL,
			program_name VARCHAR(200) NOT NULL,
			deadline DATE,
			tuition NUMERIC(12, 2),
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create universities table: %v", err)
	}

	_, err = p.DB.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_comments_post_id ON comments(post_id);
		CREATE INDEX IF NOT EXISTS idx_likes_user_id ON likes(user_id);
		CREATE INDEX IF NOT EXISTS idx_universities_user_id ON universities(user_id);
	`)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %v", err)
	}

	return nil
}
