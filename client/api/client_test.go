package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoginSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/auth/login", r.URL.Path)

		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "ana@example.com", body.Email)
		require.Equal(t, "hunter22", body.Password)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"access_token": "at-1",
			"refresh_token": "rt-1",
			"token_type": "bearer",
			"expires_in": 900,
			"user": {"id": 42, "email": "ana@example.com", "full_name": "Ana Souza", "is_admin": true, "total_points": 1250}
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	res, err := c.Login(context.Background(), "ana@example.com", "hunter22")
	require.NoError(t, err)

	require.Equal(t, "at-1", res.AccessToken)
	require.Equal(t, "rt-1", res.RefreshToken)
	require.Equal(t, "bearer", res.TokenType)
	require.Equal(t, 900, res.ExpiresIn)
	require.Equal(t, int64(42), res.User.ID)
	require.Equal(t, "ana@example.com", res.User.Email)
	require.Equal(t, "Ana Souza", res.User.FullName)
	require.True(t, res.User.IsAdmin)
	require.Equal(t, 1250, res.User.TotalPoints)
}

func TestLoginRejectedWithMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"invalid credentials"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Login(context.Background(), "ana@example.com", "wrong")
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, KindRejected, apiErr.Kind)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	require.Equal(t, "invalid credentials", apiErr.Message)
	require.Equal(t, "invalid credentials", err.Error())
}

func TestLoginRejectedNonJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Internal Server Error"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Login(context.Background(), "ana@example.com", "pw")

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, KindRejected, apiErr.Kind)
	require.Equal(t, MsgUnknown, apiErr.Message)
}

func TestLoginRejectedJSONWithoutMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"something else"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Login(context.Background(), "ana@example.com", "pw")

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, MsgUnknown, apiErr.Message)
}

func TestLoginMalformedSuccessBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json at all"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Login(context.Background(), "ana@example.com", "pw")

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, KindBadResponse, apiErr.Kind)
	require.Equal(t, MsgBadBody, apiErr.Message)
}

func TestLoginTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithTimeout(50*time.Millisecond))
	_, err := c.Login(context.Background(), "ana@example.com", "pw")

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, KindTimeout, apiErr.Kind)
	require.Equal(t, MsgTimeout, apiErr.Message)
}

func TestLoginDeadlineExceeded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	c := NewClient(srv.URL)
	_, err := c.Login(ctx, "ana@example.com", "pw")

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, KindTimeout, apiErr.Kind)
	require.Equal(t, MsgTimeout, apiErr.Message)
}

func TestLoginConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(url)
	_, err := c.Login(context.Background(), "ana@example.com", "pw")

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, KindConnection, apiErr.Kind)
	require.Equal(t, MsgConnection, apiErr.Message)
}

func TestLoginCancellationPassesThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	c := NewClient(srv.URL)
	_, err := c.Login(ctx, "ana@example.com", "pw")
	require.ErrorIs(t, err, context.Canceled)

	var apiErr *Error
	require.False(t, errors.As(err, &apiErr))
}

func TestMe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/me", r.URL.Path)
		require.Equal(t, "Bearer at-1", r.Header.Get("Authorization"))
		w.Write([]byte(`{"id": 42, "email": "ana@example.com", "full_name": "Ana Souza", "is_admin": false, "total_points": 300}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	profile, err := c.Me(context.Background(), "at-1")
	require.NoError(t, err)
	require.Equal(t, int64(42), profile.ID)
	require.Equal(t, 300, profile.TotalPoints)
}

func TestRefresh(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/auth/refresh", r.URL.Path)
		var body struct {
			RefreshToken string `json:"refresh_token"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "rt-1", body.RefreshToken)
		w.Write([]byte(`{"access_token": "at-2", "token_type": "bearer", "expires_in": 900}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	res, err := c.Refresh(context.Background(), "rt-1")
	require.NoError(t, err)
	require.Equal(t, "at-2", res.AccessToken)
}
