// Package session keeps the CLI's login state: the session cookie the
// server set and the user it belongs to, persisted in the user's
// config directory.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// CookieName matches the cookie the server sets on login.
const CookieName = "taskdeck_session"

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type State struct {
	Cookie    string    `json:"cookie"`
	ExpiresAt time.Time `json:"expires_at"`
	User      User      `json:"user"`
}

// Store is the file-backed session state. The zero value is not
// usable; construct it with NewStore or NewStoreAt.
type Store struct {
	path string

	mu    sync.RWMutex
	state *State
}

// NewStore opens the default store under ~/.config/taskdeck and loads
// any existing state.
func NewStore() (*Store, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".config", "taskdeck")
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	s := NewStoreAt(filepath.Join(configDir, "session.json"))
	_ = s.load()
	return s, nil
}

func NewStoreAt(path string) *Store {
	return &Store{path: path}
}

// Current returns the stored session if it exists and has not
// expired.
func (s *Store) Current() (*State, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state == nil || s.state.Cookie == "" {
		return nil, false
	}
	if !s.state.ExpiresAt.IsZero() && time.Now().After(s.state.ExpiresAt) {
		return nil, false
	}
	state := *s.state
	return &state, true
}

// SessionCookie satisfies the token provider's session source.
func (s *Store) SessionCookie() (*http.Cookie, bool) {
	state, ok := s.Current()
	if !ok {
		return nil, false
	}
	return &http.Cookie{Name: CookieName, Value: state.Cookie}, true
}

// Save persists the state to disk and keeps it in memory.
func (s *Store) Save(state *State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	encoded, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := os.WriteFile(s.path, encoded, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}

	s.state = state
	return nil
}

// Clear forgets the session in memory and on disk.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = nil
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

func (s *Store) load() error {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}

	state := new(State)
	if err := json.Unmarshal(raw, state); err != nil {
		return err
	}

	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	return nil
}
