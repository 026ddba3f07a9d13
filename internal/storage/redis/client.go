package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Login rate limit: 10 attempts / 10 minutes per email.
const (
	LoginRateLimitWindow = 600 * time.Second
	LoginRateLimitMax    = 10
)

type Client struct {
	cli *redis.Client
}

func New(ctx context.Context, url string) (*Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis parse url: %w", err)
	}
	cli := redis.NewClient(opts)
	if err := cli.Ping(ctx).Err(); err != nil {
		if closeErr := cli.Close(); closeErr != nil {
			return nil, fmt.Errorf("redis ping: %w (close: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Client{cli: cli}, nil
}

func (c *Client) Close() error {
	return c.cli.Close()
}

// SetRefreshToken stores refresh:{tokenID} -> userID with the token's TTL.
func (c *Client) SetRefreshToken(ctx context.Context, tokenID string, userID int64, ttl time.Duration) error {
	return c.cli.Set(ctx, "refresh:"+tokenID, strconv.FormatInt(userID, 10), ttl).Err()
}

// GetRefreshToken returns 0 when the key is missing (expired or revoked).
func (c *Client) GetRefreshToken(ctx context.Context, tokenID string) (int64, error) {
	val, err := c.cli.Get(ctx, "refresh:"+tokenID).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("redis refresh token value: %w", err)
	}
	return id, nil
}

// DeleteRefreshToken revokes a token (logout, rotation).
func (c *Client) DeleteRefreshToken(ctx context.Context, tokenID string) error {
	return c.cli.Del(ctx, "refresh:"+tokenID).Err()
}

// CheckLoginRateLimit checks login_limit:{email}: at most LoginRateLimitMax attempts per window.
func (c *Client) CheckLoginRateLimit(ctx context.Context, email string) (allowed bool, err error) {
	key := "login_limit:" + email
	n, err := c.cli.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if n == 1 {
		c.cli.Expire(ctx, key, LoginRateLimitWindow)
	}
	return n <= int64(LoginRateLimitMax), nil
}
