package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/loyalty/internal/handler"
	"github.com/loyalty/internal/middleware"
	"github.com/loyalty/internal/model"
	"github.com/loyalty/internal/repository"
	"github.com/loyalty/internal/service"
	"github.com/loyalty/internal/storage/memory"
	"github.com/loyalty/internal/token"
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

func newAuthRouter(t *testing.T) (*chi.Mux, *token.Issuer) {
	t.Helper()
	repo := &fakeUserRepo{byEmail: make(map[string]*model.User)}
	iss := token.NewIssuer("test-secret", "loyalty", 15*time.Minute)
	svc := service.NewAuthService(repo, memory.New(), iss, 24*time.Hour)

	hash, err := svc.HashPassword("hunter22")
	require.NoError(t, err)
	repo.byEmail["ana@example.com"] = &model.User{
		ID:           42,
		Email:        "ana@example.com",
		FullName:     "Ana Souza",
		IsAdmin:      true,
		TotalPoints:  1250,
		PasswordHash: hash,
	}

	authH := handler.NewAuthHandler(svc)
	r := chi.NewRouter()
	r.Post("/api/auth/login", authH.Login)
	r.Post("/api/auth/refresh", authH.Refresh)
	r.Post("/api/auth/logout", authH.Logout)
	return r, iss
}

func postJSON(t *testing.T, r http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestLoginEndpointSuccess(t *testing.T) {
	r, iss := newAuthRouter(t)

	rec := postJSON(t, r, "/api/auth/login", `{"email":"ana@example.com","password":"hunter22"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		TokenType    string `json:"token_type"`
		ExpiresIn    int    `json:"expires_in"`
		User         struct {
			ID          int64  `json:"id"`
			Email       string `json:"email"`
			FullName    string `json:"full_name"`
			IsAdmin     bool   `json:"is_admin"`
			TotalPoints int    `json:"total_points"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	require.NotEmpty(t, body.AccessToken)
	require.NotEmpty(t, body.RefreshToken)
	require.Equal(t, "bearer", body.TokenType)
	require.Equal(t, 900, body.ExpiresIn)
	require.Equal(t, int64(42), body.User.ID)
	require.Equal(t, "ana@example.com", body.User.Email)
	require.Equal(t, "Ana Souza", body.User.FullName)
	require.True(t, body.User.IsAdmin)
	require.Equal(t, 1250, body.User.TotalPoints)

	// The access token must verify against the issuer.
	uid, err := iss.Parse(body.AccessToken)
	require.NoError(t, err)
	require.Equal(t, int64(42), uid)
}

func TestLoginEndpointWrongPassword(t *testing.T) {
	r, _ := newAuthRouter(t)

	rec := postJSON(t, r, "/api/auth/login", `{"email":"ana@example.com","password":"nope"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "invalid email or password", body["message"])
}

func TestLoginEndpointValidation(t *testing.T) {
	r, _ := newAuthRouter(t)

	for name, payload := range map[string]string{
		"malformed":     `{not json`,
		"missing email": `{"password":"hunter22"}`,
		"bad email":     `{"email":"not-an-email","password":"hunter22"}`,
		"no password":   `{"email":"ana@example.com"}`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := postJSON(t, r, "/api/auth/login", payload)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.NotEmpty(t, body["message"])
		})
	}
}

func TestRefreshEndpointRotation(t *testing.T) {
	r, _ := newAuthRouter(t)

	rec := postJSON(t, r, "/api/auth/login", `{"email":"ana@example.com","password":"hunter22"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var login struct {
		RefreshToken string `json:"refresh_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))

	rec = postJSON(t, r, "/api/auth/refresh", `{"refresh_token":"`+login.RefreshToken+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var refreshed struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &refreshed))
	require.NotEmpty(t, refreshed.AccessToken)
	require.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// The presented token is single-use.
	rec = postJSON(t, r, "/api/auth/refresh", `{"refresh_token":"`+login.RefreshToken+`"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutEndpoint(t *testing.T) {
	r, _ := newAuthRouter(t)

	rec := postJSON(t, r, "/api/auth/login", `{"email":"ana@example.com","password":"hunter22"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var login struct {
		RefreshToken string `json:"refresh_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))

	rec = postJSON(t, r, "/api/auth/logout", `{"refresh_token":"`+login.RefreshToken+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = postJSON(t, r, "/api/auth/refresh", `{"refresh_token":"`+login.RefreshToken+`"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBearerAuthMiddleware(t *testing.T) {
	iss := token.NewIssuer("test-secret", "loyalty", 15*time.Minute)

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(middleware.BearerAuth(iss))
		r.Get("/api/me", func(w http.ResponseWriter, req *http.Request) {
			uid := middleware.GetUserID(req.Context())
			w.Write([]byte(`{"id":` + strconv.FormatInt(uid, 10) + `}`))
		})
	})

	t.Run("missing token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, "unauthorized", body["message"])
	})

	t.Run("valid token", func(t *testing.T) {
		tok, err := iss.Issue(7)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `{"id":7}`, rec.Body.String())
	})

	t.Run("query token for websocket", func(t *testing.T) {
		tok, err := iss.Issue(7)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/me?access_token="+tok, nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

