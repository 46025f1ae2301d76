// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"context"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/osbuild/image-builder-mcp/pkg/logger"
)

// tokenExpiryMargin is subtracted from every cached token lifetime so a
// token close to expiry never gets attached to a request that might outlive
// it.
const tokenExpiryMargin = 5 * time.Minute

// TokenProvider is the downstream source for fresh access tokens.
type TokenProvider interface {
	Token(ctx context.Context, creds *Credentials) (*oauth2.Token, error)
}

// TokenRequestRecorder counts token endpoint round trips.
type TokenRequestRecorder interface {
	RecordTokenRequest(ctx context.Context, outcome string)
}

// cacheEntry holds one cached access token.
type cacheEntry struct {
	accessToken string
	expiresAt   time.Time
}

// TokenCache caches access tokens per credential fingerprint so each service
// account pays for at most one token round trip per token lifetime. A cache
// hit performs no I/O.
//
// Bearer credentials bypass the cache entirely: the caller already holds the
// token, and storing it would only widen its blast radius.
type TokenCache struct {
	mu       sync.Mutex
	entries  map[string]cacheEntry
	provider TokenProvider
	now      func() time.Time
	margin   time.Duration
	recorder TokenRequestRecorder
}

// CacheOption configures a TokenCache.
type CacheOption func(*TokenCache)

// WithCacheClock sets the clock used for expiry decisions. Tests use this to
// control time.
func WithCacheClock(now func() time.Time) CacheOption {
	return func(c *TokenCache) {
		c.now = now
	}
}

// WithExpiryMargin overrides the safety margin applied to token lifetimes.
func WithExpiryMargin(margin time.Duration) CacheOption {
	return func(c *TokenCache) {
		c.margin = margin
	}
}

// WithTokenRequestRecorder sets the metrics recorder for token round trips.
func WithTokenRequestRecorder(recorder TokenRequestRecorder) CacheOption {
	return func(c *TokenCache) {
		c.recorder = recorder
	}
}

// NewTokenCache creates a TokenCache backed by the given provider.
func NewTokenCache(provider TokenProvider, opts ...CacheOption) *TokenCache {
	c := &TokenCache{
		entries:  make(map[string]cacheEntry),
		provider: provider,
		now:      time.Now,
		margin:   tokenExpiryMargin,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AccessToken returns a token for the credentials, fetching a fresh one when
// none is cached or the cached one is within the expiry margin.
func (c *TokenCache) AccessToken(ctx context.Context, creds *Credentials) (string, error) {
	if creds.IsBearer() {
		return creds.BearerToken, nil
	}

	key := creds.Fingerprint()
	if token, ok := c.cached(key); ok {
		return token, nil
	}

	// Fetch without holding the lock: a slow identity provider must not
	// stall sessions using other credentials. Two goroutines refreshing
	// the same pair at once both succeed and the last write wins, which
	// is harmless since both tokens are valid.
	token, err := c.provider.Token(ctx, creds)
	if err != nil {
		c.record(ctx, "error")
		return "", err
	}
	c.record(ctx, "success")

	c.mu.Lock()
	c.entries[key] = cacheEntry{accessToken: token.AccessToken, expiresAt: token.Expiry}
	c.mu.Unlock()

	logger.Debugw("Fetched fresh access token", "fingerprint", key[:8], "expires_at", token.Expiry)
	return token.AccessToken, nil
}

// cached returns a live cached token for the fingerprint. The expiry margin
// is applied here, on read, so a token close to its end counts as already
// expired. Tokens without a known expiry are never served from cache.
func (c *TokenCache) cached(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return "", false
	}
	if entry.expiresAt.IsZero() || !c.now().Add(c.margin).Before(entry.expiresAt) {
		return "", false
	}
	return entry.accessToken, true
}

// Invalidate drops the cached token for the credentials so the next
// AccessToken call fetches a fresh one. Called when the API rejects a token
// mid-lifetime, for example after server-side revocation.
func (c *TokenCache) Invalidate(creds *Credentials) {
	if creds.IsBearer() {
		return
	}
	c.mu.Lock()
	delete(c.entries, creds.Fingerprint())
	c.mu.Unlock()
}

func (c *TokenCache) record(ctx context.Context, outcome string) {
	if c.recorder != nil {
		c.recorder.RecordTokenRequest(ctx, outcome)
	}
}
