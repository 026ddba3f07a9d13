// Package memory is an in-memory prefs backend for tests.
package memory

import (
	"context"
	"sync"
)

type Client struct {
	mu     sync.Mutex
	values map[string]string

	// Fail, when set, is returned from every operation. Used to test
	// storage failure propagation.
	Fail error
}

func New() *Client {
	return &Client{values: map[string]string{}}
}

func (c *Client) Load(ctx context.Context) (map[string]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Fail != nil {
		return nil, c.Fail
	}
	out := make(map[string]string, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out, nil
}

func (c *Client) Save(ctx context.Context, values map[string]string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Fail != nil {
		return c.Fail
	}
	next := make(map[string]string, len(values))
	for k, v := range values {
		next[k] = v
	}
	c.values = next
	return nil
}

func (c *Client) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Fail != nil {
		return c.Fail
	}
	c.values = map[string]string{}
	return nil
}
