package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client signs in and out against the identity endpoints and keeps
// the Store in sync with the cookie the server issues.
type Client struct {
	baseURL    string
	store      *Store
	httpClient *http.Client
}

func NewClient(baseURL string, store *Store) *Client {
	return &Client{
		baseURL: baseURL,
		store:   store,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type authUserBody struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	ExpiresAt time.Time `json:"session_expires_at"`
}

// Login authenticates with email and password and persists the
// resulting session.
func (c *Client) Login(ctx context.Context, email, password string) (*State, error) {
	body := map[string]string{"email": email, "password": password}
	return c.authenticate(ctx, "/api/auth/login", body)
}

// Signup registers a new account; the server opens a session right
// away, which is persisted like a login.
func (c *Client) Signup(ctx context.Context, email, password, name string) (*State, error) {
	body := map[string]string{"email": email, "password": password, "name": name}
	return c.authenticate(ctx, "/api/auth/signup", body)
}

// Logout invalidates the server-side session and clears the local
// state. A missing local session is not an error.
func (c *Client) Logout(ctx context.Context) error {
	state, ok := c.store.Current()
	if ok {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/auth/logout", nil)
		if err != nil {
			return err
		}
		req.AddCookie(&http.Cookie{Name: CookieName, Value: state.Cookie})

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("logout request failed: %w", err)
		}
		_ = resp.Body.Close()
	}

	return c.store.Clear()
}

func (c *Client) authenticate(ctx context.Context, endpoint string, body map[string]string) (*State, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("auth failed (%d): %s", resp.StatusCode, string(raw))
	}

	var cookie string
	for _, c := range resp.Cookies() {
		if c.Name == CookieName {
			cookie = c.Value
			break
		}
	}
	if cookie == "" {
		return nil, fmt.Errorf("server did not set the %s cookie", CookieName)
	}

	var user authUserBody
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("failed to parse auth response: %w", err)
	}

	state := &State{
		Cookie:    cookie,
		ExpiresAt: user.ExpiresAt,
		User: User{
			ID:    user.ID,
			Email: user.Email,
			Name:  user.Name,
		},
	}
	if err := c.store.Save(state); err != nil {
		return nil, err
	}
	return state, nil
}
