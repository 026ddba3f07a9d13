package storage

import (
	"context"
	"time"
)

// TokenStore keeps refresh tokens and login attempt counters.
// Implementations: redis.Client, memory.Client (for -dev without Redis).
type TokenStore interface {
	SetRefreshToken(ctx context.Context, tokenID string, userID int64, ttl time.Duration) error
	// GetRefreshToken returns the owning user id, or 0 if the token is unknown or expired.
	GetRefreshToken(ctx context.Context, tokenID string) (int64, error)
	DeleteRefreshToken(ctx context.Context, tokenID string) error
	// CheckLoginRateLimit counts a login attempt for the email and reports whether it is allowed.
	CheckLoginRateLimit(ctx context.Context, email string) (allowed bool, err error)
	Close() error
}
