package session

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testState(expiresAt time.Time) *State {
	return &State{
		Cookie:    "opaque-session",
		ExpiresAt: expiresAt,
		User:      User{ID: "u1", Email: "user@example.com"},
	}
}

func TestStoreSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	store := NewStoreAt(path)
	require.NoError(t, store.Save(testState(time.Now().Add(time.Hour))))

	reloaded := NewStoreAt(path)
	require.NoError(t, reloaded.load())

	state, ok := reloaded.Current()
	require.True(t, ok)
	assert.Equal(t, "opaque-session", state.Cookie)
	assert.Equal(t, "user@example.com", state.User.Email)
}

func TestCurrentRejectsExpiredSession(t *testing.T) {
	store := NewStoreAt(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, store.Save(testState(time.Now().Add(-time.Minute))))

	_, ok := store.Current()
	assert.False(t, ok)

	_, ok = store.SessionCookie()
	assert.False(t, ok)
}

func TestSessionCookieMatchesServerName(t *testing.T) {
	store := NewStoreAt(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, store.Save(testState(time.Now().Add(time.Hour))))

	cookie, ok := store.SessionCookie()
	require.True(t, ok)
	assert.Equal(t, CookieName, cookie.Name)
	assert.Equal(t, "opaque-session", cookie.Value)
}

func TestClearForgetsSession(t *testing.T) {
	store := NewStoreAt(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, store.Save(testState(time.Now().Add(time.Hour))))
	require.NoError(t, store.Clear())

	_, ok := store.Current()
	assert.False(t, ok)

	// Clearing an already-missing file is not an error.
	assert.NoError(t, store.Clear())
}
