package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/loyalty/internal/logger"
	"github.com/loyalty/internal/model"
	"github.com/loyalty/internal/repository"
	"github.com/loyalty/internal/storage"
	"github.com/loyalty/internal/token"
	"github.com/matthewhartstonge/argon2"
)

var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrUserDisabled        = errors.New("user disabled")
	ErrRateLimitExceeded   = errors.New("rate limit exceeded")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

// UserRepo is the part of the user repository the auth service needs.
type UserRepo interface {
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

// LoginResult is the full token pair plus profile, in the login response shape.
type LoginResult struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	TokenType    string        `json:"token_type"`
	ExpiresIn    int           `json:"expires_in"`
	User         model.Profile `json:"user"`
}

// RefreshResult carries the rotated token pair.
type RefreshResult struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// AuthService checks credentials and issues token pairs. Refresh tokens are
// opaque ids kept in the token store; access tokens are stateless JWTs.
type AuthService struct {
	users      UserRepo
	store      storage.TokenStore
	issuer     *token.Issuer
	refreshTTL time.Duration
	argon      argon2.Config
}

func NewAuthService(users UserRepo, store storage.TokenStore, issuer *token.Issuer, refreshTTL time.Duration) *AuthService {
	return &AuthService{
		users:      users,
		store:      store,
		issuer:     issuer,
		refreshTTL: refreshTTL,
		argon:      argon2.DefaultConfig(),
	}
}

// HashPassword produces the encoded argon2 hash stored in users.password_hash.
func (s *AuthService) HashPassword(password string) (string, error) {
	encoded, err := s.argon.HashEncoded([]byte(password))
	if err != nil {
		return "", fmt.Errorf("authService.HashPassword: %w", err)
	}
	return string(encoded), nil
}

// Login verifies the credentials and issues a fresh token pair.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	allowed, err := s.store.CheckLoginRateLimit(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("authService.Login rate limit: %w", err)
	}
	if !allowed {
		return nil, ErrRateLimitExceeded
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("authService.Login get user: %w", err)
	}
	if user.DisabledAt != nil {
		return nil, ErrUserDisabled
	}

	ok, err := argon2.VerifyEncoded([]byte(password), []byte(user.PasswordHash))
	if err != nil {
		return nil, fmt.Errorf("authService.Login verify: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	pair, err := s.issuePair(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	logger.Infof("login user_id=%d", user.ID)
	return &LoginResult{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
		ExpiresIn:    pair.ExpiresIn,
		User:         user.ToProfile(),
	}, nil
}

// Refresh rotates the refresh token and issues a new access token.
// The presented token is revoked even when the caller retries: a refresh
// token is single-use.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	userID, err := s.store.GetRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("authService.Refresh lookup: %w", err)
	}
	if userID == 0 {
		return nil, ErrInvalidRefreshToken
	}
	if err := s.store.DeleteRefreshToken(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("authService.Refresh revoke: %w", err)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("authService.Refresh get user: %w", err)
	}
	if user.DisabledAt != nil {
		return nil, ErrUserDisabled
	}
	return s.issuePair(ctx, user.ID)
}

// Logout revokes the refresh token. Unknown tokens are a no-op.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if err := s.store.DeleteRefreshToken(ctx, refreshToken); err != nil {
		return fmt.Errorf("authService.Logout: %w", err)
	}
	return nil
}

func (s *AuthService) issuePair(ctx context.Context, userID int64) (*RefreshResult, error) {
	access, err := s.issuer.Issue(userID)
	if err != nil {
		return nil, fmt.Errorf("authService issue access: %w", err)
	}
	refresh := uuid.New().String()
	if err := s.store.SetRefreshToken(ctx, refresh, userID, s.refreshTTL); err != nil {
		return nil, fmt.Errorf("authService store refresh: %w", err)
	}
	return &RefreshResult{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    token.Type,
		ExpiresIn:    int(s.issuer.TTL().Seconds()),
	}, nil
}
