// internal/session/provider.go
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"applynest/internal/database"
	"applynest/internal/models"
	"applynest/internal/utils"
)

const tokenExpiration = 24 * time.Hour

// Claims represents the JWT claims for our application
type Claims struct {
	UserID uuid.UUID `json:"user_id"`
	jwt.RegisteredClaims
}

// Provider owns authentication: registering and logging in users,
// minting and validating tokens, and telling subscribers when the
// signed-in user changes.
type Provider struct {
	store  database.Store
	secret []byte
	logger *slog.Logger

	mu          sync.Mutex
	nextSubID   int
	subscribers map[int]func(*models.User)
}

func NewProvider(store database.Store, secret string, logger *slog.Logger) *Provider {
	return &Provider{
		store:       store,
		secret:      []byte(secret),
		logger:      logger,
		subscribers: make(map[int]func(*models.User)),
	}
}

// Subscription is a handle to an auth state listener. Unsubscribe is
// idempotent.
type Subscription struct {
	id   int
	p    *Provider
	once sync.Once
}

func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.p.mu.Lock()
		delete(s.p.subscribers, s.id)
		s.p.mu.Unlock()
	})
}

// OnAuthStateChange registers fn to be called with the user on login
// and registration and with nil on logout.
func (p *Provider) OnAuthStateChange(fn func(*models.User)) *Subscription {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextSubID++
	id := p.nextSubID
	p.subscribers[id] = fn
	return &Subscription{id: id, p: p}
}

func (p *Provider) notify(user *models.User) {
	p.mu.Lock()
	fns := make([]func(*models.User), 0, len(p.subscribers))
	for _, fn := range p.subscribers {
		fns = append(fns, fn)
	}
	p.mu.Unlock()
	for _, fn := range fns {
		fn(user)
	}
}

// Register creates a user with a bcrypt password hash and signs them in.
func (p *Provider) Register(ctx context.Context, firstName, lastName, email, password string) (*models.User, string, error) {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	email = strings.TrimSpace(strings.ToLower(email))
	if firstName == "" || email == "" || password == "" {
		return nil, "", utils.NewValidationError("first name, email and password are required")
	}
	if len(password) < 8 {
		return nil, "", utils.NewValidationError("password must be at least 8 characters")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", utils.NewAppError(utils.ErrInvalidInput, "failed to hash password", err)
	}

	user := &models.User{
		ID:             uuid.New(),
		FirstName:      firstName,
		LastName:       lastName,
		Email:          email,
		HashedPassword: string(hashed),
	}
	if err := p.store.SaveUser(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := p.GenerateToken(user.ID)
	if err != nil {
		return nil, "", err
	}

	p.logger.Info("user registered", "user_id", user.ID, "email", user.Email)
	p.notify(user)
	return user, token, nil
}

// Login verifies credentials and mints a token. A missing user and a
// wrong password produce the same error.
func (p *Provider) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := p.store.GetUserByEmail(ctx, email)
	if err != nil {
		if utils.IsErrorCode(err, utils.ErrUserNotFound) {
			return nil, "", utils.NewAppError(utils.ErrInvalidCredentials, "invalid email or password", nil)
		}
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		return nil, "", utils.NewAppError(utils.ErrInvalidCredentials, "invalid email or password", nil)
	}

	token, err := p.GenerateToken(user.ID)
	if err != nil {
		return nil, "", err
	}

	p.logger.Info("user logged in", "user_id", user.ID)
	p.notify(user)
	return user, token, nil
}

// Logout has no server-side token state to clear; it exists to fan the
// signed-out transition to subscribers.
func (p *Provider) Logout(userID uuid.UUID) {
	p.logger.Info("user logged out", "user_id", userID)
	p.notify(nil)
}

// CurrentUser resolves a bearer token to its user. An empty token means
// an anonymous visitor and returns (nil, nil).
func (p *Provider) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	if strings.TrimSpace(token) == "" {
		return nil, nil
	}
	claims, err := p.ValidateToken(token)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrInvalidToken, "invalid or expired token", err)
	}
	return p.store.GetUser(ctx, claims.UserID)
}

// GenerateToken creates a new JWT token for the given user ID
func (p *Provider) GenerateToken(userID uuid.UUID) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenExpiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "applynest-api",
			Subject:   userID.String(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(p.secret)
}

// ValidateToken validates the provided JWT token
func (p *Provider) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return p.secret, nil
		},
	)
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}
