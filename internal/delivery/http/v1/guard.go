package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// The guards are a routing hint, not a security boundary: they check
// only that the session cookie exists. The cookie is validated when
// the page exchanges it for a bearer token at the token endpoint.

// HandleSessionGuard redirects visitors without a session cookie to
// the login page.
func (h *handlerImpl) HandleSessionGuard(c *gin.Context) {
	if !hasSessionCookie(c) {
		c.Redirect(http.StatusFound, "/login")
		c.Abort()
		return
	}
	c.Next()
}

// HandleGuestGuard redirects already signed-in visitors away from the
// auth pages to the dashboard.
func (h *handlerImpl) HandleGuestGuard(c *gin.Context) {
	if hasSessionCookie(c) {
		c.Redirect(http.StatusFound, "/dashboard")
		c.Abort()
		return
	}
	c.Next()
}

func hasSessionCookie(c *gin.Context) bool {
	value, err := c.Cookie(SessionCookie)
	return err == nil && value != ""
}

func (h *handlerImpl) HandleLoginPage(c *gin.Context) {
	renderPage(c, "Sign in", `
<form method="post" action="/api/auth/login" class="auth">
  <label>Email <input type="email" name="email" required></label>
  <label>Password <input type="password" name="password" required></label>
  <button type="submit">Sign in</button>
  <p>No account? <a href="/signup">Sign up</a></p>
</form>`)
}

func (h *handlerImpl) HandleSignupPage(c *gin.Context) {
	renderPage(c, "Sign up", `
<form method="post" action="/api/auth/signup" class="auth">
  <label>Name <input type="text" name="name"></label>
  <label>Email <input type="email" name="email" required></label>
  <label>Password <input type="password" name="password" required minlength="6"></label>
  <button type="submit">Create account</button>
  <p>Have an account? <a href="/login">Sign in</a></p>
</form>`)
}

func (h *handlerImpl) HandleDashboardPage(c *gin.Context) {
	renderPage(c, "Dashboard", `
<nav><a href="/dashboard/tasks">Tasks</a></nav>
<p>Welcome back.</p>`)
}

func (h *handlerImpl) HandleTasksPage(c *gin.Context) {
	renderPage(c, "Tasks", `
<div id="app" data-api-base="/api"></div>
<noscript>This page requires JavaScript.</noscript>`)
}

func renderPage(c *gin.Context, title, body string) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, `<!doctype html>
<html>
<head><meta charset="utf-8"><title>taskdeck - %s</title></head>
<body>
<header><h1>%s</h1></header>
%s
</body>
</html>`, title, title, body)
}
