package apiclient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sequenceFetcher struct {
	tokens []string
	err    error
	calls  int
}

func (f *sequenceFetcher) AccessToken(_ context.Context) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	token := f.tokens[f.calls%len(f.tokens)]
	f.calls++
	return token, nil
}

func signedToken(t *testing.T, expiresAt time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "learner",
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}).SignedString([]byte("backend-secret"))
	require.NoError(t, err)
	return token
}

func TestTokenManagerCachesUntilExpiry(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	first := signedToken(t, now.Add(time.Hour))
	second := signedToken(t, now.Add(2*time.Hour))
	fetcher := &sequenceFetcher{tokens: []string{first, second}}

	manager := NewTokenManager(fetcher, time.Minute)
	manager.now = func() time.Time { return now }

	got, err := manager.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, got)
	assert.True(t, manager.ExpiresAt().Equal(now.Add(time.Hour)))

	got, err = manager.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, got)
	assert.Equal(t, 1, fetcher.calls)

	manager.now = func() time.Time { return now.Add(59*time.Minute + 30*time.Second) }
	got, err = manager.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, second, got, "token inside the skew window must be refreshed")
	assert.Equal(t, 2, fetcher.calls)
}

func TestTokenManagerOpaqueTokenKeptUntilInvalidate(t *testing.T) {
	t.Parallel()

	fetcher := &sequenceFetcher{tokens: []string{"opaque-1", "opaque-2"}}
	manager := NewTokenManager(fetcher, -1)
	assert.Equal(t, defaultTokenSkew, manager.skew)

	for i := 0; i < 3; i++ {
		got, err := manager.Token(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "opaque-1", got)
	}
	assert.True(t, manager.ExpiresAt().IsZero())

	manager.Invalidate()
	got, err := manager.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "opaque-2", got)
}

func TestTokenManagerPropagatesFetchError(t *testing.T) {
	t.Parallel()

	fetchErr := errors.New("backend down")
	manager := NewTokenManager(&sequenceFetcher{err: fetchErr}, 0)

	_, err := manager.Token(context.Background())
	assert.ErrorIs(t, err, fetchErr)
}
