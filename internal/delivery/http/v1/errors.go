package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error codes shared with the API clients. Everything the server
// rejects carries one of these in the error_code field.
const (
	codeUnauthorized    = "UNAUTHORIZED"
	codeInvalidToken    = "INVALID_TOKEN"
	codeTokenExpired    = "TOKEN_EXPIRED"
	codeTaskNotFound    = "TASK_NOT_FOUND"
	codeValidationError = "VALIDATION_ERROR"
	codeUserExists      = "USER_EXISTS"
	codeInternalError   = "INTERNAL_ERROR"
)

type errorBody struct {
	ErrorCode string         `json:"error_code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
}

func abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, errorBody{
		ErrorCode: code,
		Message:   message,
	})
}

func abortWithDetails(c *gin.Context, status int, code, message string, details map[string]any) {
	c.AbortWithStatusJSON(status, errorBody{
		ErrorCode: code,
		Message:   message,
		Details:   details,
	})
}

func abortInternal(c *gin.Context) {
	abort(c, http.StatusInternalServerError, codeInternalError, http.StatusText(http.StatusInternalServerError))
}
