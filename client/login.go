// Package client is the SDK facade: it wires the login call into the
// session store and exposes the login progress as an observable state.
package client

import (
	"context"
	"errors"
	"sync"

	"github.com/loyalty/client/api"
	"github.com/loyalty/client/session"
)

// LoginState is the phase of the login orchestration.
type LoginState int

const (
	StateIdle LoginState = iota
	StateInProgress
	StateSucceeded
	StateFailed
)

// LoginStatus is the published orchestration state. Result is set only
// in StateSucceeded, ErrMessage only in StateFailed.
type LoginStatus struct {
	State      LoginState
	Result     *api.LoginResponse
	ErrMessage string
}

// LoginController drives a single login at a time. A Submit while one
// is already in progress is ignored.
type LoginController struct {
	api   *api.Client
	store *session.Store

	status *session.Value[LoginStatus]

	mu       sync.Mutex
	inFlight bool
}

func NewLoginController(apiClient *api.Client, store *session.Store) *LoginController {
	return &LoginController{
		api:    apiClient,
		store:  store,
		status: session.NewValue(LoginStatus{State: StateIdle}),
	}
}

// Status exposes the observable login state.
func (c *LoginController) Status() *session.Value[LoginStatus] { return c.status }

// Submit runs the login flow: call the endpoint, persist the result,
// publish Succeeded or Failed. Returns false when a login is already
// in flight and this submit was ignored. A persistence failure after a
// successful call is reported as Failed: storage is the source of
// truth, so the user must not appear logged in when it disagrees.
func (c *LoginController) Submit(ctx context.Context, email, password string) bool {
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return false
	}
	c.inFlight = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.inFlight = false
		c.mu.Unlock()
	}()

	c.status.Set(LoginStatus{State: StateInProgress})

	res, err := c.api.Login(ctx, email, password)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// Caller abandoned the attempt; nothing was persisted.
			c.status.Set(LoginStatus{State: StateIdle})
			return true
		}
		c.status.Set(LoginStatus{State: StateFailed, ErrMessage: err.Error()})
		return true
	}

	sess := session.Session{
		UserID:       res.User.ID,
		Email:        res.User.Email,
		FullName:     res.User.FullName,
		IsAdmin:      res.User.IsAdmin,
		TotalPoints:  res.User.TotalPoints,
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		TokenType:    res.TokenType,
		ExpiresIn:    res.ExpiresIn,
	}
	if err := c.store.SaveLoginResult(ctx, sess); err != nil {
		c.status.Set(LoginStatus{State: StateFailed, ErrMessage: err.Error()})
		return true
	}

	c.status.Set(LoginStatus{State: StateSucceeded, Result: res})
	return true
}

// ClearError transitions Failed back to Idle. No-op in other states.
func (c *LoginController) ClearError() {
	if c.status.Get().State == StateFailed {
		c.status.Set(LoginStatus{State: StateIdle})
	}
}

// RefreshAccessToken exchanges the stored refresh token for a new
// token pair and persists it. Refresh tokens are single-use on the
// server, so the session is overwritten wholesale with the rotated
// pair; identity fields are carried over unchanged.
func (c *LoginController) RefreshAccessToken(ctx context.Context) error {
	cur := c.store.Current()
	if cur == nil || cur.RefreshToken == "" {
		return errors.New("no refresh token available")
	}
	res, err := c.api.Refresh(ctx, cur.RefreshToken)
	if err != nil {
		return err
	}

	next := *cur
	next.AccessToken = res.AccessToken
	if res.RefreshToken != "" {
		next.RefreshToken = res.RefreshToken
	}
	if res.TokenType != "" {
		next.TokenType = res.TokenType
	}
	if res.ExpiresIn != 0 {
		next.ExpiresIn = res.ExpiresIn
	}
	return c.store.SaveLoginResult(ctx, next)
}
