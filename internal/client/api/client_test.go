package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticTokens struct {
	token string
}

func (s *staticTokens) Token(ctx context.Context) (string, bool) {
	return s.token, s.token != ""
}

func TestBearerHeaderAttachedWhenTokenAvailable(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[],"total":0,"limit":100,"offset":0}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, &staticTokens{token: "jwt-abc"})
	_, err := client.List(context.Background(), ListParams{})
	require.NoError(t, err)
	assert.Equal(t, "Bearer jwt-abc", gotAuth)
}

func TestRequestProceedsWithoutToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error_code":"UNAUTHORIZED","message":"not authenticated"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, &staticTokens{})
	_, err := client.List(context.Background(), ListParams{})
	require.Error(t, err)
	assert.Empty(t, gotAuth)

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.Unauthenticated)
	assert.Equal(t, "UNAUTHORIZED", apiErr.Code)
}

func TestListBuildsQueryParameters(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		require.Equal(t, "/api/todos", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[],"total":0,"limit":10,"offset":20}`))
	}))
	defer server.Close()

	completed := true
	client := NewClient(server.URL, &staticTokens{token: "jwt"})
	page, err := client.List(context.Background(), ListParams{Completed: &completed, Limit: 10, Offset: 20})
	require.NoError(t, err)
	assert.Equal(t, "completed=true&limit=10&offset=20", gotQuery)
	assert.Equal(t, 10, page.Limit)
	assert.Equal(t, 20, page.Offset)
}

func TestDeleteAcceptsNoContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/api/todos/t1", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(server.URL, &staticTokens{token: "jwt"})
	assert.NoError(t, client.Delete(context.Background(), "t1"))
}

func TestErrorCodeSynthesizedFromStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, &staticTokens{token: "jwt"})
	_, err := client.Get(context.Background(), "t1")

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "HTTP_502", apiErr.Code)
	assert.Equal(t, http.StatusText(http.StatusBadGateway), apiErr.Message)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.False(t, apiErr.Unauthenticated)
}

func TestDetailNestedErrorBodyIsUnwrapped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":{"error_code":"TASK_NOT_FOUND","message":"task not found"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, &staticTokens{token: "jwt"})
	_, err := client.Get(context.Background(), "missing")

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "TASK_NOT_FOUND", apiErr.Code)
	assert.Equal(t, "task not found", apiErr.Message)
}

func TestExpiredTokenMarksUnauthenticated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error_code":"TOKEN_EXPIRED","message":"token has expired"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, &staticTokens{token: "stale"})
	_, err := client.Toggle(context.Background(), "t1")

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.Unauthenticated)
	assert.Equal(t, "TOKEN_EXPIRED", apiErr.Code)
}

func TestTransportFailureIsNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(server.URL, &staticTokens{token: "jwt"})
	_, err := client.List(context.Background(), ListParams{})

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, CodeNetworkError, apiErr.Code)
	assert.Zero(t, apiErr.Status)
}

func TestMalformedErrorBodyIsNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<html>gateway error</html>`))
	}))
	defer server.Close()

	client := NewClient(server.URL, &staticTokens{token: "jwt"})
	_, err := client.Get(context.Background(), "t1")

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, CodeNetworkError, apiErr.Code)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
}
