package api

import (
	"fmt"
	"time"
)

// Task mirrors the task resource returned by the server.
type Task struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TaskPage is one page of the task list plus the total count of the
// filtered set.
type TaskPage struct {
	Items  []Task `json:"items"`
	Total  int    `json:"total"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

// ListParams narrows and pages the task list. A nil Completed means
// no completion filter.
type ListParams struct {
	Completed *bool
	Limit     int
	Offset    int
}

// TaskUpdate carries the mutable task fields; nil fields are left
// untouched by the server.
type TaskUpdate struct {
	Title     *string `json:"title,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

// Synthesized error codes for failures that never reached a
// structured server response.
const (
	CodeNetworkError = "NETWORK_ERROR"
	CodeUnknownError = "UNKNOWN_ERROR"
)

// Error is the single failure shape every client call reports.
// Unauthenticated is set at this boundary (from the HTTP status and
// the server's error code) so callers never have to inspect message
// text to recognize an expired credential.
type Error struct {
	Code            string
	Message         string
	Details         map[string]any
	Status          int // HTTP status, 0 when the call never completed
	Unauthenticated bool
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}
