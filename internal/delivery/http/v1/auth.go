package v1

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/taskdeck/taskdeck/internal/services"
)

// SessionCookie is the name of the session cookie set on login and
// checked (presence only) by the page guards.
const SessionCookie = "taskdeck_session"

type signupRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6,max=255"`
	Name     string `json:"name" binding:"max=255"`
}

func (h *handlerImpl) HandleSignup(c *gin.Context) {
	var req signupRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind request body")
		abort(c, http.StatusBadRequest, codeValidationError, "invalid request body")
		return
	}
	h.logger.Info().
		Str("email", req.Email).
		Msg("signup request")

	result, err := h.auth.Register(c, services.RegisterParams{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to register user")
		if errors.Is(err, services.ErrUserAlreadyExists) {
			abort(c, http.StatusConflict, codeUserExists, services.ErrUserAlreadyExists.Error())
			return
		}
		abortInternal(c)
		return
	}

	setSessionCookie(c, result.SessionToken, time.Until(result.SessionExpiresAt))
	c.JSON(http.StatusCreated, newUserResponse(result))
}

type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	ExpiresAt time.Time `json:"session_expires_at"`
}

func newUserResponse(result *services.AuthResult) userResponse {
	return userResponse{
		ID:        result.User.ID,
		Email:     result.User.Email,
		Name:      result.User.Name,
		ExpiresAt: result.SessionExpiresAt,
	}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6,max=255"`
}

func (h *handlerImpl) HandleLogin(c *gin.Context) {
	var req loginRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind request body")
		abort(c, http.StatusBadRequest, codeValidationError, "invalid request body")
		return
	}

	result, err := h.auth.Login(c, services.LoginParams{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to login")
		switch {
		case errors.Is(err, services.ErrUserNotFound),
			errors.Is(err, services.ErrUserPasswordMismatch):
			abort(c, http.StatusUnauthorized, codeUnauthorized, "invalid email or password")
		default:
			abortInternal(c)
		}
		return
	}

	setSessionCookie(c, result.SessionToken, time.Until(result.SessionExpiresAt))
	c.JSON(http.StatusOK, newUserResponse(result))
}

func (h *handlerImpl) HandleLogout(c *gin.Context) {
	sessionToken, err := c.Cookie(SessionCookie)
	if err == nil && sessionToken != "" {
		err = h.auth.Logout(c, sessionToken)
		if err != nil {
			h.logger.Error().
				Err(err).
				Msg("failed to logout")
			abortInternal(c)
			return
		}
	}

	clearSessionCookie(c)
	c.Status(http.StatusNoContent)
}

type issueTokenResponse struct {
	Token string `json:"token"`
}

// HandleIssueToken exchanges a valid session cookie for a bearer
// token the task API accepts.
func (h *handlerImpl) HandleIssueToken(c *gin.Context) {
	sessionToken, err := c.Cookie(SessionCookie)
	if err != nil || sessionToken == "" {
		h.logger.Error().Msg("no session cookie")
		abort(c, http.StatusUnauthorized, codeUnauthorized, "not authenticated")
		return
	}

	info, err := h.auth.SessionByToken(c, sessionToken)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to resolve session")
		switch {
		case errors.Is(err, services.ErrSessionNotFound),
			errors.Is(err, services.ErrSessionExpired):
			abort(c, http.StatusUnauthorized, codeUnauthorized, "not authenticated")
		default:
			abortInternal(c)
		}
		return
	}

	token, _, err := h.auth.IssueAPIToken(&info.User)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to issue api token")
		abortInternal(c)
		return
	}

	c.JSON(http.StatusOK, issueTokenResponse{Token: token})
}

func setSessionCookie(c *gin.Context, token string, maxAge time.Duration) {
	const secure, httpOnly = false, true
	c.SetCookie(SessionCookie, token, int(maxAge.Seconds()),
		"/", "", secure, httpOnly)
}

func clearSessionCookie(c *gin.Context) {
	c.SetCookie(SessionCookie, "", -1,
		"/", "", false, true)
}
