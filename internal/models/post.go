package models

import (
	"time"

	"github.com/google/uuid"
)

// Category classifies a forum post.
type Category string

const (
	CategoryAdvice     Category = "advice"
	CategoryEssay      Category = "essay"
	CategoryExperience Category = "experience"
	CategoryQuestion   Category = "question"

	// CategoryAll is a filter value only, never stored on a post.
	CategoryAll Category = "all"
)

// Valid reports whether c names a storable post category.
func (c Category) Valid() bool {
	switch c {
	case CategoryAdvice, CategoryEssay, CategoryExperience, CategoryQuestion:
		return true
	}
	return false
}

// Post is a forum topic. LikesCount and CommentsCount are derived at read
// time from the likes and comments tables; they are never stored.
type Post struct {
	ID             uuid.UUID `json:"id" db:"id"`
	Title          string    `json:"title" db:"title"`
	Content        string    `json:"content" db:"content"`
	Category       Category  `json:"category" db:"category"`
	UniversityName string    `json:"universityName,omitempty" db:"university_name"`
	ProgramName    string    `json:"programName,omitempty" db:"program_name"`
	ImageURL       string    `json:"imageUrl,omitempty" db:"image_url"`
	UserID         uuid.UUID `json:"userId" db:"user_id"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`

	LikesCount    int `json:"likesCount" db:"likes_count"`
	CommentsCount int `json:"commentsCount" db:"comments_count"`
}
