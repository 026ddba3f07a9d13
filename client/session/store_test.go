package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/loyalty/client/session/prefs/memory"
)

func newReadyStore(t *testing.T, p *memory.Client) *Store {
	t.Helper()
	s := New(p)
	select {
	case <-s.Ready():
	case <-time.After(time.Second):
		t.Fatal("store did not finish initial load")
	}
	return s
}

func TestSaveLoginResultPublishesSession(t *testing.T) {
	// Identity present, zero balance, only the access token set.
	s := newReadyStore(t, memory.New())

	err := s.SaveLoginResult(context.Background(), Session{
		UserID:      7,
		Email:       "ana@example.com",
		FullName:    "Ana Souza",
		TotalPoints: 0,
		AccessToken: "abc",
	})
	require.NoError(t, err)

	require.True(t, s.IsLoggedIn())
	cur := s.Current()
	require.NotNil(t, cur)
	require.Equal(t, 0, cur.TotalPoints)
	require.Equal(t, "abc", cur.AccessToken)
}

func TestUpdateAccessTokenKeepsIdentity(t *testing.T) {
	s := newReadyStore(t, memory.New())
	require.NoError(t, s.SaveLoginResult(context.Background(), Session{
		UserID:      7,
		Email:       "ana@example.com",
		FullName:    "Ana Souza",
		AccessToken: "abc",
	}))

	require.NoError(t, s.UpdateAccessToken(context.Background(), "xyz"))

	cur := s.Current()
	require.NotNil(t, cur)
	require.Equal(t, "xyz", cur.AccessToken)
	require.Equal(t, "xyz", s.AccessToken().Get())
	require.Equal(t, int64(7), cur.UserID)
	require.Equal(t, "ana@example.com", cur.Email)
	require.Equal(t, "Ana Souza", cur.FullName)
}

func TestClearPublishesAbsent(t *testing.T) {
	s := newReadyStore(t, memory.New())
	require.NoError(t, s.SaveLoginResult(context.Background(), Session{
		UserID:      7,
		Email:       "ana@example.com",
		FullName:    "Ana Souza",
		AccessToken: "abc",
	}))

	require.NoError(t, s.Clear(context.Background()))

	require.False(t, s.IsLoggedIn())
	require.Nil(t, s.Current())
}

func TestClearWithoutSessionIsIdempotent(t *testing.T) {
	s := newReadyStore(t, memory.New())

	require.NoError(t, s.Clear(context.Background()))
	require.NoError(t, s.Clear(context.Background()))
	require.False(t, s.IsLoggedIn())
	require.Nil(t, s.Current())
}

func TestReloadReconstructsSession(t *testing.T) {
	p := memory.New()
	first := newReadyStore(t, p)

	saved := Session{
		UserID:       42,
		Email:        "ana@example.com",
		FullName:     "Ana Souza",
		IsAdmin:      true,
		TotalPoints:  1250,
		AccessToken:  "at-1",
		RefreshToken: "rt-1",
		TokenType:    "bearer",
		ExpiresIn:    900,
	}
	require.NoError(t, first.SaveLoginResult(context.Background(), saved))

	// A fresh store over the same durable storage sees the same session.
	second := newReadyStore(t, p)
	cur := second.Current()
	require.NotNil(t, cur)
	require.Equal(t, saved, *cur)
	require.True(t, second.IsLoggedIn())
}

func TestLoadPublishesTokenWithoutFullIdentity(t *testing.T) {
	p := memory.New()
	require.NoError(t, p.Save(context.Background(), map[string]string{
		"access_token": "orphan-token",
	}))

	s := newReadyStore(t, p)
	require.True(t, s.IsLoggedIn())
	require.Nil(t, s.Current())
}

func TestStorageFailurePropagates(t *testing.T) {
	p := memory.New()
	s := newReadyStore(t, p)

	boom := errors.New("disk full")
	p.Fail = boom

	err := s.SaveLoginResult(context.Background(), Session{
		UserID:      7,
		Email:       "ana@example.com",
		FullName:    "Ana Souza",
		AccessToken: "abc",
	})
	require.ErrorIs(t, err, boom)

	// A failed durable write must not change what observers see.
	require.False(t, s.IsLoggedIn())
	require.Nil(t, s.Current())

	require.ErrorIs(t, s.UpdateAccessToken(context.Background(), "xyz"), boom)
	require.ErrorIs(t, s.Clear(context.Background()), boom)
}

func TestSessionObservableDelivery(t *testing.T) {
	s := newReadyStore(t, memory.New())
	ch, cancel := s.Session().Subscribe()
	defer cancel()

	require.Nil(t, recvSession(t, ch))

	require.NoError(t, s.SaveLoginResult(context.Background(), Session{
		UserID:      7,
		Email:       "ana@example.com",
		FullName:    "Ana Souza",
		AccessToken: "abc",
	}))

	got := recvSession(t, ch)
	require.NotNil(t, got)
	require.Equal(t, int64(7), got.UserID)
}

func recvSession(t *testing.T, ch <-chan *Session) *Session {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for session")
		panic("unreachable")
	}
}
