package services

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/taskdeck/taskdeck/internal/models"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserAlreadyExists    = errors.New("user already exists")
	ErrUserPasswordMismatch = errors.New("user password mismatch")
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionExpired       = errors.New("session expired")
	ErrTaskNotFound         = errors.New("task not found")
)

type AuthService interface {
	// Register creates a user with the given email, password and
	// display name, hashes the password and opens a fresh session.
	//
	// It returns ErrUserAlreadyExists if the email is taken.
	Register(ctx context.Context, params RegisterParams) (*AuthResult, error)

	// Login authenticates the user by email and password. All prior
	// sessions of the user are replaced by the new one.
	//
	// It returns ErrUserNotFound if the email is unknown or
	// ErrUserPasswordMismatch if the password doesn't match.
	Login(ctx context.Context, params LoginParams) (*AuthResult, error)

	// Logout deletes the session identified by the given opaque
	// session token. Unknown tokens are not an error.
	Logout(ctx context.Context, sessionToken string) error

	// SessionByToken resolves an opaque session token to the session
	// and its owning user.
	//
	// It returns ErrSessionNotFound for unknown tokens and
	// ErrSessionExpired for sessions past their expiry.
	SessionByToken(ctx context.Context, sessionToken string) (*SessionInfo, error)

	// IssueAPIToken signs a short-lived bearer token for the given
	// user, carrying sub, email and name claims.
	IssueAPIToken(user *models.User) (string, time.Time, error)

	// VerifyAPIToken parses and validates a bearer token. It returns
	// jwt.ErrTokenExpired (wrapped) for expired tokens.
	VerifyAPIToken(token string) (*APITokenClaims, error)
}

type TaskService interface {
	// CreateTask inserts a new incomplete task owned by userID. The
	// title must already be validated by the caller.
	CreateTask(ctx context.Context, userID, title string) (*models.Task, error)

	// ListTasks returns one page of the user's tasks, newest first,
	// optionally filtered by completion status. Total counts the
	// whole filtered set, not the page.
	ListTasks(ctx context.Context, params ListTasksParams) (*TaskPage, error)

	// GetTask returns a single task. Tasks owned by other users are
	// reported as ErrTaskNotFound.
	GetTask(ctx context.Context, userID, taskID string) (*models.Task, error)

	// UpdateTask applies the non-nil fields of params to the task and
	// refreshes updated_at.
	UpdateTask(ctx context.Context, params UpdateTaskParams) (*models.Task, error)

	// ToggleTask flips the completion status of the task.
	ToggleTask(ctx context.Context, userID, taskID string) (*models.Task, error)

	// DeleteTask removes the task permanently.
	DeleteTask(ctx context.Context, userID, taskID string) error
}

type RegisterParams struct {
	Email    string
	Password string
	Name     string
}

type LoginParams struct {
	Email    string
	Password string
}

type AuthResult struct {
	User             models.User
	SessionToken     string
	SessionExpiresAt time.Time
}

type SessionInfo struct {
	Session models.Session
	User    models.User
}

// APITokenClaims is the payload of the bearer tokens issued by
// IssueAPIToken: registered claims plus the user's email and name.
type APITokenClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type ListTasksParams struct {
	UserID    string
	Completed *bool
	Limit     int
	Offset    int
}

type TaskPage struct {
	Items  []*models.Task
	Total  int
	Limit  int
	Offset int
}

type UpdateTaskParams struct {
	ID        string
	UserID    string
	Title     *string
	Completed *bool
}
