package database

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"applynest/internal/models"
	"applynest/internal/utils"
)

type likeKey struct {
	postID uuid.UUID
	userID uuid.UUID
}

// MemStore is an in-memory Store implementation backing tests and local
// development. It mirrors the PostgresDB semantics: derived counts are
// recomputed on every read, and deleting a post cascades to its
// comments and likes.
//
// ForceErr, when set, is consulted before every operation with the
// operation name ("InsertLike", "SearchPosts", ...) and lets tests
// inject failures.
type MemStore struct {
	mu           sync.Mutex
	users        map[uuid.UUID]*models.User
	posts        map[uuid.UUID]*models.Post
	comments     map[uuid.UUID]*models.Comment
	likes        map[likeKey]time.Time
	universities map[uuid.UUID]*models.University

	ForceErr func(op string) error
}

var _ Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{
		users:        make(map[uuid.UUID]*models.User),
		posts:        make(map[uuid.UUID]*models.Post),
		comments:     make(map[uuid.UUID]*models.Comment),
		likes:        make(map[likeKey]time.Time),
		universities: make(map[uuid.UUID]*models.University),
	}
}

func (m *MemStore) fail(op string) error {
	if m.ForceErr != nil {
		return m.ForceErr(op)
	}
	return nil
}

func (m *MemStore) Close(ctx context.Context) error { return nil }

func (m *MemStore) SaveUser(ctx context.Context, user *models.User) error {
	if err := m.fail("SaveUser"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, user.Email) {
			return utils.NewAppError(utils.ErrUserAlreadyExists, "email already registered", nil)
		}
	}
	cp := *user
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	m.users[cp.ID] = &cp
	return nil
}

func (m *MemStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if err := m.fail("GetUserByEmail"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, utils.NewAppError(utils.ErrUserNotFound, "user not found", nil)
}

func (m *MemStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if err := m.fail("GetUser"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, utils.NewAppError(utils.ErrUserNotFound, "user not found", nil)
	}
	cp := *u
	return &cp, nil
}

func (m *MemStore) SavePost(ctx context.Context, post *models.Post) error {
	if err := m.fail("SavePost"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now()
	}
	cp := *post
	m.posts[cp.ID] = &cp
	return nil
}

func (m *MemStore) UpdatePost(ctx context.Context, post *models.Post) (int64, error) {
	if err := m.fail("UpdatePost"); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.posts[post.ID]
	if !ok || existing.UserID != post.UserID {
		return 0, nil
	}
	existing.Title = post.Title
	existing.Content = post.Content
	existing.Category = post.Category
	existing.UniversityName = post.UniversityName
	existing.ProgramName = post.ProgramName
	existing.ImageURL = post.ImageURL
	return 1, nil
}

func (m *MemStore) DeletePost(ctx context.Context, postID, userID uuid.UUID) (int64, error) {
	if err := m.fail("DeletePost"); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[postID]
	if !ok || p.UserID != userID {
		return 0, nil
	}
	delete(m.posts, postID)
	for id, c := range m.comments {
		if c.PostID == postID {
			delete(m.comments, id)
		}
	}
	for k := range m.likes {
		if k.postID == postID {
			delete(m.likes, k)
		}
	}
	return 1, nil
}

func (m *MemStore) GetPost(ctx context.Context, postID uuid.UUID) (*models.Post, error) {
	if err := m.fail("GetPost"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[postID]
	if !ok {
		return nil, utils.NewNotFoundError("post")
	}
	cp := *p
	return &cp, nil
}

func (m *MemStore) SearchPosts(ctx context.Context, category models.Category, search string) ([]*models.Post, error) {
	if err := m.fail("SearchPosts"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	needle := strings.ToLower(strings.TrimSpace(search))
	var out []*models.Post
	for _, p := range m.posts {
		if category != models.CategoryAll && p.Category != category {
			continue
		}
		if needle != "" {
			if !strings.Contains(strings.ToLower(p.Title), needle) &&
				!strings.Contains(strings.ToLower(p.Content), needle) &&
				!strings.Contains(strings.ToLower(p.UniversityName), needle) {
				continue
			}
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if out == nil {
		out = []*models.Post{}
	}
	return out, nil
}

func (m *MemStore) LikeCountsByPost(ctx context.Context, postIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	if err := m.fail("LikeCountsByPost"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	wanted := make(map[uuid.UUID]bool, len(postIDs))
	for _, id := range postIDs {
		wanted[id] = true
	}
	counts := make(map[uuid.UUID]int)
	for k := range m.likes {
		if wanted[k.postID] {
			counts[k.postID]++
		}
	}
	return counts, nil
}

func (m *MemStore) CommentCountsByPost(ctx context.Context, postIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	if err := m.fail("CommentCountsByPost"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	wanted := make(map[uuid.UUID]bool, len(postIDs))
	for _, id := range postIDs {
		wanted[id] = true
	}
	counts := make(map[uuid.UUID]int)
	for _, c := range m.comments {
		if wanted[c.PostID] {
			counts[c.PostID]++
		}
	}
	return counts, nil
}

func (m *MemStore) CountLikes(ctx context.Context, postID uuid.UUID) (int, error) {
	if err := m.fail("CountLikes"); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k := range m.likes {
		if k.postID == postID {
			n++
		}
	}
	return n, nil
}

func (m *MemStore) InsertLike(ctx context.Context, postID, userID uuid.UUID) error {
	if err := m.fail("InsertLike"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	k := likeKey{postID: postID, userID: userID}
	if _, ok := m.likes[k]; ok {
		return utils.NewAppError(utils.ErrDuplicate, "post already liked", nil)
	}
	m.likes[k] = time.Now()
	return nil
}

func (m *MemStore) DeleteLike(ctx context.Context, postID, userID uuid.UUID) error {
	if err := m.fail("DeleteLike"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.likes, likeKey{postID: postID, userID: userID})
	return nil
}

func (m *MemStore) HasLiked(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	if err := m.fail("HasLiked"); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.likes[likeKey{postID: postID, userID: userID}]
	return ok, nil
}

func (m *MemStore) LikedPostIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	if err := m.fail("LikedPostIDs"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []uuid.UUID
	for k := range m.likes {
		if k.userID == userID {
			out = append(out, k.postID)
		}
	}
	return out, nil
}

func (m *MemStore) SaveComment(ctx context.Context, comment *models.Comment) error {
	if err := m.fail("SaveComment"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now()
	}
	cp := *comment
	m.comments[cp.ID] = &cp
	return nil
}

func (m *MemStore) GetPostComments(ctx context.Context, postID uuid.UUID) ([]*models.Comment, error) {
	if err := m.fail("GetPostComments"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Comment
	for _, c := range m.comments {
		if c.PostID == postID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemStore) SaveUniversity(ctx context.Context, uni *models.University) error {
	if err := m.fail("SaveUniversity"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if uni.CreatedAt.IsZero() {
		uni.CreatedAt = time.Now()
	}
	cp := *uni
	m.universities[cp.ID] = &cp
	return nil
}

func (m *MemStore) UniversitiesByUser(ctx context.Context, userID uuid.UUID) ([]*models.University, error) {
	if err := m.fail("UniversitiesByUser"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.University
	for _, u := range m.universities {
		if u.UserID == userID {
			cp := *u
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.Deadline == nil && b.Deadline == nil:
			return a.CreatedAt.Before(b.CreatedAt)
		case a.Deadline == nil:
			return false
		case b.Deadline == nil:
			return true
		case a.Deadline.Equal(*b.Deadline):
			return a.CreatedAt.Before(b.CreatedAt)
		default:
			return a.Deadline.Before(*b.Deadline)
		}
	})
	if out == nil {
		out = []*models.University{}
	}
	return out, nil
}

func (m *MemStore) DeleteUniversity(ctx context.Context, id, userID uuid.UUID) (int64, error) {
	if err := m.fail("DeleteUniversity"); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.universities[id]
	if !ok || u.UserID != userID {
		return 0, nil
	}
	delete(m.universities, id)
	return 1, nil
}
