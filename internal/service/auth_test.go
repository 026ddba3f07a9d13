package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/loyalty/internal/model"
	"github.com/loyalty/internal/repository"
	"github.com/loyalty/internal/service"
	"github.com/loyalty/internal/storage/memory"
	"github.com/loyalty/internal/token"
	"github.com/stretchr/testify/require"
)

type fakeUserRepo struct {
	byEmail map[string]*model.User
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	u, ok := f.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id int64) (*model.User, error) {
	for _, u := range f.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func newAuthService(t *testing.T, users ...*model.User) (*service.AuthService, *fakeUserRepo) {
	t.Helper()
	repo := &fakeUserRepo{byEmail: make(map[string]*model.User)}
	iss := token.NewIssuer("test-secret", "loyalty", 15*time.Minute)
	svc := service.NewAuthService(repo, memory.New(), iss, 24*time.Hour)
	for _, u := range users {
		hash, err := svc.HashPassword("hunter22")
		require.NoError(t, err)
		u.PasswordHash = hash
		repo.byEmail[strings.ToLower(u.Email)] = u
	}
	return svc, repo
}

func TestAuthService_Login(t *testing.T) {
	user := &model.User{ID: 1, Email: "ana@example.com", FullName: "Ana Torres", TotalPoints: 1200}
	svc, _ := newAuthService(t, user)

	t.Run("success", func(t *testing.T) {
		res, err := svc.Login(context.Background(), "ana@example.com", "hunter22")
		require.NoError(t, err)
		require.NotEmpty(t, res.AccessToken)
		require.NotEmpty(t, res.RefreshToken)
		require.Equal(t, "bearer", res.TokenType)
		require.Equal(t, 900, res.ExpiresIn)
		require.Equal(t, int64(1), res.User.ID)
		require.Equal(t, "ana@example.com", res.User.Email)
		require.Equal(t, "Ana Torres", res.User.FullName)
		require.Equal(t, 1200, res.User.TotalPoints)
	})

	t.Run("email is case insensitive", func(t *testing.T) {
		_, err := svc.Login(context.Background(), "Ana@Example.COM", "hunter22")
		require.NoError(t, err)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(context.Background(), "ana@example.com", "nope")
		require.ErrorIs(t, err, service.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(context.Background(), "ghost@example.com", "hunter22")
		require.ErrorIs(t, err, service.ErrInvalidCredentials)
	})
}

func TestAuthService_Login_Disabled(t *testing.T) {
	now := time.Now()
	user := &model.User{ID: 2, Email: "off@example.com", FullName: "Off", DisabledAt: &now}
	svc, _ := newAuthService(t, user)

	_, err := svc.Login(context.Background(), "off@example.com", "hunter22")
	require.ErrorIs(t, err, service.ErrUserDisabled)
}

func TestAuthService_Login_RateLimit(t *testing.T) {
	user := &model.User{ID: 3, Email: "busy@example.com", FullName: "Busy"}
	svc, _ := newAuthService(t, user)

	for i := 0; i < 10; i++ {
		_, err := svc.Login(context.Background(), "busy@example.com", "nope")
		require.ErrorIs(t, err, service.ErrInvalidCredentials)
	}
	_, err := svc.Login(context.Background(), "busy@example.com", "hunter22")
	require.ErrorIs(t, err, service.ErrRateLimitExceeded)
}

func TestAuthService_Refresh(t *testing.T) {
	user := &model.User{ID: 4, Email: "ana@example.com", FullName: "Ana"}
	svc, _ := newAuthService(t, user)

	res, err := svc.Login(context.Background(), "ana@example.com", "hunter22")
	require.NoError(t, err)

	rotated, err := svc.Refresh(context.Background(), res.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, rotated.AccessToken)
	require.NotEqual(t, res.RefreshToken, rotated.RefreshToken)

	// Single-use: the old refresh token is gone after rotation.
	_, err = svc.Refresh(context.Background(), res.RefreshToken)
	require.ErrorIs(t, err, service.ErrInvalidRefreshToken)
}

func TestAuthService_Refresh_Unknown(t *testing.T) {
	svc, _ := newAuthService(t)
	_, err := svc.Refresh(context.Background(), "never-issued")
	require.ErrorIs(t, err, service.ErrInvalidRefreshToken)
}

func TestAuthService_Logout(t *testing.T) {
	user := &model.User{ID: 5, Email: "ana@example.com", FullName: "Ana"}
	svc, _ := newAuthService(t, user)

	res, err := svc.Login(context.Background(), "ana@example.com", "hunter22")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), res.RefreshToken))
	_, err = svc.Refresh(context.Background(), res.RefreshToken)
	require.ErrorIs(t, err, service.ErrInvalidRefreshToken)

	// Logging out twice, or with an empty token, is a no-op.
	require.NoError(t, svc.Logout(context.Background(), res.RefreshToken))
	require.NoError(t, svc.Logout(context.Background(), ""))
}
