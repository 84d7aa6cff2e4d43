// Package api is the typed client for the task API. Every call makes
// exactly one network attempt and reports failures as *Error; retry
// policy belongs to the caller.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultClientTimeout is the default timeout for API requests.
const DefaultClientTimeout = 10 * time.Second

// TokenSource yields the bearer credential attached to requests. A
// false return means the call proceeds unauthenticated and the server
// is expected to reject it.
type TokenSource interface {
	Token(ctx context.Context) (string, bool)
}

// Client wraps HTTP calls to the task API.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
}

func NewClient(baseURL string, tokens TokenSource) *Client {
	return &Client{
		baseURL: baseURL,
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: DefaultClientTimeout,
		},
	}
}

// List fetches one page of tasks.
func (c *Client) List(ctx context.Context, params ListParams) (*TaskPage, error) {
	query := url.Values{}
	if params.Completed != nil {
		query.Set("completed", strconv.FormatBool(*params.Completed))
	}
	if params.Limit > 0 {
		query.Set("limit", strconv.Itoa(params.Limit))
	}
	if params.Offset > 0 {
		query.Set("offset", strconv.Itoa(params.Offset))
	}

	endpoint := "/todos"
	if encoded := query.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	page := new(TaskPage)
	err := c.do(ctx, http.MethodGet, endpoint, nil, page)
	if err != nil {
		return nil, err
	}
	return page, nil
}

// Create makes a new task with the given title.
func (c *Client) Create(ctx context.Context, title string) (*Task, error) {
	body := map[string]string{"title": title}

	task := new(Task)
	err := c.do(ctx, http.MethodPost, "/todos", body, task)
	if err != nil {
		return nil, err
	}
	return task, nil
}

// Get fetches a single task.
func (c *Client) Get(ctx context.Context, id string) (*Task, error) {
	task := new(Task)
	err := c.do(ctx, http.MethodGet, "/todos/"+id, nil, task)
	if err != nil {
		return nil, err
	}
	return task, nil
}

// Update applies the non-nil fields of update to the task.
func (c *Client) Update(ctx context.Context, id string, update TaskUpdate) (*Task, error) {
	task := new(Task)
	err := c.do(ctx, http.MethodPut, "/todos/"+id, update, task)
	if err != nil {
		return nil, err
	}
	return task, nil
}

// Toggle flips the completion status of the task.
func (c *Client) Toggle(ctx context.Context, id string) (*Task, error) {
	task := new(Task)
	err := c.do(ctx, http.MethodPatch, "/todos/"+id+"/complete", nil, task)
	if err != nil {
		return nil, err
	}
	return task, nil
}

// Delete removes the task. The server answers 204 on success.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/todos/"+id, nil, nil)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return &Error{Code: CodeUnknownError, Message: "failed to encode request body"}
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/api"+endpoint, reader)
	if err != nil {
		return &Error{Code: CodeUnknownError, Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	if token, ok := c.tokens.Token(ctx); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Code: CodeNetworkError, Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Code: CodeNetworkError, Message: "failed to read response body", Status: resp.StatusCode}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || resp.StatusCode == http.StatusNoContent || len(raw) == 0 {
			return nil
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return &Error{Code: CodeNetworkError, Message: "failed to parse response body", Status: resp.StatusCode}
		}
		return nil
	}

	return parseError(resp.StatusCode, raw)
}

// errorBody is the server's error shape; some frameworks nest it
// under a detail key, so both layouts are accepted.
type errorBody struct {
	ErrorCode string         `json:"error_code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details"`
	Detail    *struct {
		ErrorCode string         `json:"error_code"`
		Message   string         `json:"message"`
		Details   map[string]any `json:"details"`
	} `json:"detail"`
}

func parseError(status int, raw []byte) *Error {
	apiErr := &Error{
		Status:          status,
		Unauthenticated: status == http.StatusUnauthorized,
	}

	var parsed errorBody
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &parsed); err != nil {
			apiErr.Code = CodeNetworkError
			apiErr.Message = "failed to parse error response"
			return apiErr
		}
	}
	if parsed.Detail != nil {
		parsed.ErrorCode = parsed.Detail.ErrorCode
		parsed.Message = parsed.Detail.Message
		parsed.Details = parsed.Detail.Details
	}

	apiErr.Code = parsed.ErrorCode
	if apiErr.Code == "" {
		apiErr.Code = "HTTP_" + strconv.Itoa(status)
	}
	apiErr.Message = parsed.Message
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	apiErr.Details = parsed.Details

	switch apiErr.Code {
	case "UNAUTHORIZED", "INVALID_TOKEN", "TOKEN_EXPIRED":
		apiErr.Unauthenticated = true
	}
	return apiErr
}
