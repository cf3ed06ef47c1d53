package forum

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"applynest/internal/models"
)

func comment(id, parent *uuid.UUID, at time.Time, content string) *models.Comment {
	c := &models.Comment{
		ID:        uuid.New(),
		PostID:    uuid.New(),
		UserID:    uuid.New(),
		Content:   content,
		CreatedAt: at,
	}
	if id != nil {
		c.ID = *id
	}
	c.ParentCommentID = parent
	return c
}

func TestBuildForestEmpty(t *testing.T) {
	forest := BuildForest(nil)
	assert.NotNil(t, forest)
	assert.Len(t, forest, 0)
}

func TestBuildForestThreeLevelChain(t *testing.T) {
	base := time.Now()
	rootID := uuid.New()
	childID := uuid.New()

	root := comment(&rootID, nil, base, "root")
	child := comment(&childID, &rootID, base.Add(time.Minute), "child")
	grandchild := comment(nil, &childID, base.Add(2*time.Minute), "grandchild")

	forest := BuildForest([]*models.Comment{root, child, grandchild})

	assert.Len(t, forest, 1)
	assert.Equal(t, "root", forest[0].Content)
	assert.Len(t, forest[0].Replies, 1)
	assert.Equal(t, "child", forest[0].Replies[0].Content)
	assert.Len(t, forest[0].Replies[0].Replies, 1)
	assert.Equal(t, "grandchild", forest[0].Replies[0].Replies[0].Content)
	assert.Equal(t, 3, CountNodes(forest))
}

func TestBuildForestSiblingOrderPreserved(t *testing.T) {
	base := time.Now()
	rootID := uuid.New()
	root := comment(&rootID, nil, base, "root")
	first := comment(nil, &rootID, base.Add(time.Minute), "first reply")
	second := comment(nil, &rootID, base.Add(2*time.Minute), "second reply")

	forest := BuildForest([]*models.Comment{root, first, second})

	assert.Len(t, forest, 1)
	replies := forest[0].Replies
	assert.Len(t, replies, 2)
	assert.Equal(t, "first reply", replies[0].Content)
	assert.Equal(t, "second reply", replies[1].Content)
}

func TestBuildForestDropsOrphans(t *testing.T) {
	base := time.Now()
	missingParent := uuid.New()
	root := comment(nil, nil, base, "root")
	orphan := comment(nil, &missingParent, base.Add(time.Minute), "orphan")

	forest := BuildForest([]*models.Comment{root, orphan})

	// The orphan is dropped, not promoted to top level.
	assert.Len(t, forest, 1)
	assert.Equal(t, "root", forest[0].Content)
	assert.Len(t, forest[0].Replies, 0)
	assert.Equal(t, 1, CountNodes(forest))
}

func TestBuildForestMultipleRoots(t *testing.T) {
	base := time.Now()
	a := comment(nil, nil, base, "a")
	b := comment(nil, nil, base.Add(time.Minute), "b")

	forest := BuildForest([]*models.Comment{a, b})

	assert.Len(t, forest, 2)
	assert.Equal(t, "a", forest[0].Content)
	assert.Equal(t, "b", forest[1].Content)
}
