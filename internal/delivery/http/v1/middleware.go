package v1

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	userIDCtxKey    = "user_id"
	userEmailCtxKey = "user_email"
	userNameCtxKey  = "user_name"
)

// HandleAuthMiddleware guards the task API. It accepts only a valid
// bearer token issued by the token endpoint and puts the token's user
// identity into the request context.
func (h *handlerImpl) HandleAuthMiddleware(c *gin.Context) {
	const authHeader = "Authorization"
	header := c.GetHeader(authHeader)
	if header == "" {
		h.logger.Error().Msg("authorization header required")
		abort(c, http.StatusUnauthorized, codeUnauthorized, "authorization header required")
		return
	}

	const bearerPrefix = "Bearer"
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != bearerPrefix {
		h.logger.Error().Msg("invalid authorization header")
		abort(c, http.StatusUnauthorized, codeUnauthorized, "invalid authorization header")
		return
	}

	claims, err := h.auth.VerifyAPIToken(parts[1])
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			h.logger.Error().
				Err(err).
				Msg("token expired")
			abort(c, http.StatusUnauthorized, codeTokenExpired, "token has expired")
			return
		}

		h.logger.Error().
			Err(err).
			Msg("failed to verify token")
		abort(c, http.StatusUnauthorized, codeInvalidToken, "invalid token")
		return
	}

	if claims.Subject == "" {
		h.logger.Error().Msg("token has no subject")
		abort(c, http.StatusUnauthorized, codeInvalidToken, "invalid token")
		return
	}

	c.Set(userIDCtxKey, claims.Subject)
	c.Set(userEmailCtxKey, claims.Email)
	c.Set(userNameCtxKey, claims.Name)
	c.Next()
}

func getStringFromContext(c *gin.Context, key string) (string, bool) {
	value, exists := c.Get(key)
	if !exists {
		return "", false
	}
	str, ok := value.(string)
	return str, ok
}

// currentUserID aborts with 401 when the auth middleware didn't run.
func (h *handlerImpl) currentUserID(c *gin.Context) (string, bool) {
	userID, ok := getStringFromContext(c, userIDCtxKey)
	if !ok || userID == "" {
		h.logger.Error().Msg("no user id found in context")
		abort(c, http.StatusUnauthorized, codeUnauthorized, "not authenticated")
		return "", false
	}
	return userID, true
}
