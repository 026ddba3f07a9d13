// Package api is the HTTP client for the loyalty service. Every
// failure collapses into a single user-presentable message; raw
// transport or server detail is wrapped but never surfaced.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// Fixed user-facing failure messages.
const (
	MsgTimeout    = "request timed out, check your network connection or contact support."
	MsgConnection = "could not establish connection, check your network or contact support."
	MsgBadBody    = "unexpected server response"
	MsgUnknown    = "unknown error"
)

const maxErrorBody = 64 << 10

// ErrorKind classifies a failed call.
type ErrorKind int

const (
	// KindTimeout covers connect, read and overall deadline expiry.
	KindTimeout ErrorKind = iota + 1
	// KindConnection covers refused connections, DNS failures and
	// other transport I/O errors.
	KindConnection
	// KindRejected is a non-2xx response from the server.
	KindRejected
	// KindBadResponse is a 2xx response whose body failed to decode.
	KindBadResponse
)

// Error carries the user-facing message for a failed call. Message is
// safe to show verbatim; the wrapped cause is for logs only.
type Error struct {
	Kind    ErrorKind
	Message string
	// StatusCode is set for KindRejected.
	StatusCode int

	cause error
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.cause }

// UserPayload is the identity record embedded in a login response.
type UserPayload struct {
	ID          int64  `json:"id"`
	Email       string `json:"email"`
	FullName    string `json:"full_name"`
	IsAdmin     bool   `json:"is_admin"`
	TotalPoints int    `json:"total_points"`
}

// LoginResponse is the success body of the login call.
type LoginResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	TokenType    string      `json:"token_type"`
	ExpiresIn    int         `json:"expires_in"`
	User         UserPayload `json:"user"`
}

// RefreshResponse is the success body of the token refresh call. The
// server rotates refresh tokens, so a new one is returned alongside
// the access token.
type RefreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login issues exactly one POST to /api/auth/login. No retries, no
// session side effects.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	body := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{Email: email, Password: password}

	var out LoginResponse
	if err := c.post(ctx, "/api/auth/login", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Refresh exchanges a refresh token for a new access token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*RefreshResponse, error) {
	body := struct {
		RefreshToken string `json:"refresh_token"`
	}{RefreshToken: refreshToken}

	var out RefreshResponse
	if err := c.post(ctx, "/api/auth/refresh", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me fetches the profile for the given access token.
func (c *Client) Me(ctx context.Context, accessToken string) (*UserPayload, error) {
	var out UserPayload
	if err := c.get(ctx, "/api/me", accessToken, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return &Error{Kind: KindBadResponse, Message: MsgBadBody, cause: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return &Error{Kind: KindConnection, Message: MsgConnection, cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path, accessToken string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return &Error{Kind: KindConnection, Message: MsgConnection, cause: err}
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &Error{Kind: KindBadResponse, Message: MsgBadBody, cause: err}
		}
		return nil
	}

	return rejection(resp)
}

// classifyTransport maps a transport failure onto one of the two fixed
// message families. Caller-initiated cancellation is passed through so
// it is never shown as a network problem.
func classifyTransport(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Message: MsgTimeout, cause: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindTimeout, Message: MsgTimeout, cause: err}
	}
	return &Error{Kind: KindConnection, Message: MsgConnection, cause: err}
}

// rejection extracts the server's message field from a non-2xx body,
// falling back to a fixed string when the body is not usable.
func rejection(resp *http.Response) error {
	data, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := MsgUnknown
	if readErr == nil {
		var envelope struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(data, &envelope); err == nil && envelope.Message != "" {
			msg = envelope.Message
		}
	}
	return &Error{
		Kind:       KindRejected,
		Message:    msg,
		StatusCode: resp.StatusCode,
		cause:      fmt.Errorf("server returned status %d", resp.StatusCode),
	}
}
