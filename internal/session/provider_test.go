package session

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"applynest/internal/database"
	"applynest/internal/models"
	"applynest/internal/utils"
)

func newTestProvider() (*Provider, *database.MemStore) {
	store := database.NewMemStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewProvider(store, "test-secret", logger), store
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	provider, _ := newTestProvider()

	user, token, err := provider.Register(ctx, "Ada", "Chen", "ada@example.edu", "correct-horse1")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "ada@example.edu", user.Email)
	assert.NotEqual(t, "correct-horse1", user.HashedPassword)

	// Email uniqueness, case-insensitive.
	_, _, err = provider.Register(ctx, "Ben", "Ruiz", "ADA@example.edu", "different1")
	assert.True(t, utils.IsErrorCode(err, utils.ErrUserAlreadyExists))

	logged, token, err := provider.Login(ctx, "Ada@example.edu", "correct-horse1")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, user.ID, logged.ID)

	_, _, err = provider.Login(ctx, "ada@example.edu", "wrong")
	assert.True(t, utils.IsErrorCode(err, utils.ErrInvalidCredentials))
	_, _, err = provider.Login(ctx, "nobody@example.edu", "correct-horse1")
	assert.True(t, utils.IsErrorCode(err, utils.ErrInvalidCredentials))
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	provider, _ := newTestProvider()

	_, _, err := provider.Register(ctx, "", "", "x@y.edu", "longenough")
	assert.True(t, utils.IsErrorCode(err, utils.ErrInvalidInput))

	_, _, err = provider.Register(ctx, "A", "B", "x@y.edu", "short")
	assert.True(t, utils.IsErrorCode(err, utils.ErrInvalidInput))
}

func TestCurrentUser(t *testing.T) {
	ctx := context.Background()
	provider, _ := newTestProvider()

	user, token, err := provider.Register(ctx, "Ada", "Chen", "ada@example.edu", "correct-horse1")
	assert.NoError(t, err)

	resolved, err := provider.CurrentUser(ctx, token)
	assert.NoError(t, err)
	assert.Equal(t, user.ID, resolved.ID)

	// Anonymous: no token, no user, no error.
	resolved, err = provider.CurrentUser(ctx, "")
	assert.NoError(t, err)
	assert.Nil(t, resolved)

	_, err = provider.CurrentUser(ctx, "not-a-token")
	assert.True(t, utils.IsErrorCode(err, utils.ErrInvalidToken))
}

func TestTokenRoundTrip(t *testing.T) {
	provider, _ := newTestProvider()
	userID := uuid.New()

	token, err := provider.GenerateToken(userID)
	assert.NoError(t, err)

	claims, err := provider.ValidateToken(token)
	assert.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)

	// A token signed under a different secret is rejected.
	other := NewProvider(database.NewMemStore(), "other-secret",
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestAuthStateSubscription(t *testing.T) {
	ctx := context.Background()
	provider, _ := newTestProvider()

	var events []*models.User
	sub := provider.OnAuthStateChange(func(u *models.User) {
		events = append(events, u)
	})

	user, _, err := provider.Register(ctx, "Ada", "Chen", "ada@example.edu", "correct-horse1")
	assert.NoError(t, err)
	_, _, err = provider.Login(ctx, "ada@example.edu", "correct-horse1")
	assert.NoError(t, err)
	provider.Logout(user.ID)

	assert.Len(t, events, 3)
	assert.Equal(t, user.ID, events[0].ID)
	assert.Equal(t, user.ID, events[1].ID)
	assert.Nil(t, events[2])

	sub.Unsubscribe()
	sub.Unsubscribe()
	provider.Logout(user.ID)
	assert.Len(t, events, 3)
}
