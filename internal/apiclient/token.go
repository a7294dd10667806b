package apiclient

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const defaultTokenSkew = 30 * time.Second

// TokenFetcher issues fresh access tokens.
type TokenFetcher interface {
	AccessToken(ctx context.Context) (string, error)
}

// TokenManager caches the bearer token and refreshes it once it is about to
// expire. The exp claim is read without verifying the signature; the client
// holds no key and only needs to know when to ask again. Tokens without an
// exp claim are kept until Invalidate.
type TokenManager struct {
	fetcher TokenFetcher
	skew    time.Duration
	now     func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func NewTokenManager(fetcher TokenFetcher, skew time.Duration) *TokenManager {
	if skew < 0 {
		skew = defaultTokenSkew
	}
	return &TokenManager{fetcher: fetcher, skew: skew, now: time.Now}
}

// Token returns the cached token, fetching a new one when none is cached or
// the cached one expires within the skew window.
func (m *TokenManager) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token != "" && !m.expiringLocked() {
		return m.token, nil
	}

	token, err := m.fetcher.AccessToken(ctx)
	if err != nil {
		return "", err
	}
	m.token = token
	m.expiresAt = tokenExpiry(token)
	return token, nil
}

// Invalidate drops the cached token so the next call fetches a new one.
func (m *TokenManager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.expiresAt = time.Time{}
}

// ExpiresAt reports the cached token's expiry, zero when unknown.
func (m *TokenManager) ExpiresAt() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.expiresAt
}

func (m *TokenManager) expiringLocked() bool {
	if m.expiresAt.IsZero() {
		return false
	}
	return !m.now().Add(m.skew).Before(m.expiresAt)
}

func tokenExpiry(token string) time.Time {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
