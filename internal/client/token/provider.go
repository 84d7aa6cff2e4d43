// Package token caches the short-lived bearer credential the task API
// wants. The cache is a plain TTL optimization: a stale-but-unexpired
// token may still be presented after the underlying session changed.
package token

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// DefaultTTL is the freshness window of a cached token.
const DefaultTTL = 5 * time.Minute

const issueEndpoint = "/api/auth/token"

// SessionSource supplies the session cookie that authenticates the
// issuance endpoint. A false return means no active session.
type SessionSource interface {
	SessionCookie() (*http.Cookie, bool)
}

// Provider fetches and caches bearer tokens. It is an injected
// dependency of the API client, never a package global, so tests can
// substitute the session source and clock.
type Provider struct {
	baseURL  string
	sessions SessionSource

	httpClient *http.Client
	ttl        time.Duration
	now        func() time.Time

	mu        sync.Mutex
	token     string
	fetchedAt time.Time
}

func NewProvider(baseURL string, sessions SessionSource) *Provider {
	return &Provider{
		baseURL:  baseURL,
		sessions: sessions,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		ttl: DefaultTTL,
		now: time.Now,
	}
}

// Token returns a bearer credential for the current session, reusing
// the cached one while it is fresh. It never fails: any problem
// (no session, issuance error, malformed body) clears the cache and
// reports absence.
func (p *Provider) Token(ctx context.Context) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token != "" && p.now().Sub(p.fetchedAt) < p.ttl {
		return p.token, true
	}

	cookie, ok := p.sessions.SessionCookie()
	if !ok {
		p.reset()
		return "", false
	}

	token, ok := p.issue(ctx, cookie)
	if !ok {
		p.reset()
		return "", false
	}

	p.token = token
	p.fetchedAt = p.now()
	return token, true
}

// ClearCache drops the cached token so the next Token call re-derives
// it from scratch. Called on sign-out.
func (p *Provider) ClearCache() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
}

func (p *Provider) reset() {
	p.token = ""
	p.fetchedAt = time.Time{}
}

func (p *Provider) issue(ctx context.Context, cookie *http.Cookie) (string, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+issueEndpoint, nil)
	if err != nil {
		return "", false
	}
	req.AddCookie(cookie)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", false
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", false
	}
	if body.Token == "" {
		return "", false
	}
	return body.Token, true
}
