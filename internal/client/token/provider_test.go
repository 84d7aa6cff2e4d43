package token

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSessions struct {
	cookie *http.Cookie
}

func (f *fakeSessions) SessionCookie() (*http.Cookie, bool) {
	if f.cookie == nil {
		return nil, false
	}
	return f.cookie, true
}

func issuingServer(t *testing.T, issued *int32, token string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/api/auth/token", r.URL.Path)

		if _, err := r.Cookie("taskdeck_session"); err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		atomic.AddInt32(issued, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":"` + token + `"}`))
	}))
}

func TestTokenIsCachedWithinTTL(t *testing.T) {
	var issued int32
	server := issuingServer(t, &issued, "jwt-1")
	defer server.Close()

	sessions := &fakeSessions{cookie: &http.Cookie{Name: "taskdeck_session", Value: "abc"}}
	provider := NewProvider(server.URL, sessions)

	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	provider.now = func() time.Time { return now }

	for i := 0; i < 5; i++ {
		token, ok := provider.Token(context.Background())
		require.True(t, ok)
		assert.Equal(t, "jwt-1", token)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&issued))
}

func TestTokenReissuedAfterTTL(t *testing.T) {
	var issued int32
	server := issuingServer(t, &issued, "jwt-1")
	defer server.Close()

	sessions := &fakeSessions{cookie: &http.Cookie{Name: "taskdeck_session", Value: "abc"}}
	provider := NewProvider(server.URL, sessions)

	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	provider.now = func() time.Time { return now }

	_, ok := provider.Token(context.Background())
	require.True(t, ok)

	now = now.Add(DefaultTTL + time.Second)
	_, ok = provider.Token(context.Background())
	require.True(t, ok)

	assert.Equal(t, int32(2), atomic.LoadInt32(&issued))
}

func TestClearCacheForcesReissue(t *testing.T) {
	var issued int32
	server := issuingServer(t, &issued, "jwt-1")
	defer server.Close()

	sessions := &fakeSessions{cookie: &http.Cookie{Name: "taskdeck_session", Value: "abc"}}
	provider := NewProvider(server.URL, sessions)

	_, ok := provider.Token(context.Background())
	require.True(t, ok)

	provider.ClearCache()

	_, ok = provider.Token(context.Background())
	require.True(t, ok)

	assert.Equal(t, int32(2), atomic.LoadInt32(&issued))
}

func TestNoSessionMeansNoToken(t *testing.T) {
	var issued int32
	server := issuingServer(t, &issued, "jwt-1")
	defer server.Close()

	provider := NewProvider(server.URL, &fakeSessions{})

	token, ok := provider.Token(context.Background())
	assert.False(t, ok)
	assert.Empty(t, token)
	assert.Zero(t, atomic.LoadInt32(&issued))
}

func TestIssuanceFailureClearsCache(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	sessions := &fakeSessions{cookie: &http.Cookie{Name: "taskdeck_session", Value: "stale"}}
	provider := NewProvider(server.URL, sessions)
	provider.token = "previously-cached"
	provider.fetchedAt = time.Now().Add(-DefaultTTL - time.Minute)

	token, ok := provider.Token(context.Background())
	assert.False(t, ok)
	assert.Empty(t, token)
	assert.Empty(t, provider.token)
}
