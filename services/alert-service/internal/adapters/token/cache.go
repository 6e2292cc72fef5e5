// Package token caches OAuth bearer tokens for adapters whose providers require them.
package token

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	// DefaultMargin is how long before expiry a token stops being reused.
	DefaultMargin = 60 * time.Second
	// DefaultLifetime is assumed when the provider omits expires_in.
	DefaultLifetime = time.Hour
)

// Fetcher obtains a fresh token and its lifetime.
type Fetcher func(ctx context.Context) (token string, lifetime time.Duration, err error)

// Cache holds one token per adapter instance. Concurrent callers that find the token
// stale share a single refresh.
type Cache struct {
	fetch  Fetcher
	margin time.Duration
	now    func() time.Time

	mu     sync.RWMutex
	token  string
	expiry time.Time

	group singleflight.Group
}

// NewCache creates a cache around fetch. A non-positive margin uses DefaultMargin.
func NewCache(fetch Fetcher, margin time.Duration) *Cache {
	if margin <= 0 {
		margin = DefaultMargin
	}
	return &Cache{fetch: fetch, margin: margin, now: time.Now}
}

// Token returns a cached token while now < expiry - margin, refreshing otherwise.
func (c *Cache) Token(ctx context.Context) (string, error) {
	if tok, ok := c.cached(); ok {
		return tok, nil
	}

	v, err, shared := c.group.Do("token", func() (any, error) {
		if tok, ok := c.cached(); ok {
			return tok, nil
		}
		tok, lifetime, err := c.fetch(ctx)
		if err != nil {
			return "", err
		}
		if tok == "" {
			return "", fmt.Errorf("provider returned an empty token")
		}
		if lifetime <= 0 {
			lifetime = DefaultLifetime
		}

		c.mu.Lock()
		c.token = tok
		c.expiry = c.now().Add(lifetime)
		c.mu.Unlock()

		slog.Debug("Refreshed access token", "lifetime", lifetime)
		return tok, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to refresh access token: %w", err)
	}
	if shared {
		slog.Debug("Shared in-flight token refresh")
	}
	return v.(string), nil
}

// Invalidate drops the cached token, e.g. after the provider rejects it.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.token = ""
	c.expiry = time.Time{}
	c.mu.Unlock()
}

func (c *Cache) cached() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.token != "" && c.now().Before(c.expiry.Add(-c.margin)) {
		return c.token, true
	}
	return "", false
}
