package middleware

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// Session keys shared between the middleware and the login handlers.
const (
	SessionUsername = "username"
	SessionBackURL  = "backUrl"
	SessionNewUser  = "newUser"
	SessionState    = "oauth_state"
)

// RequireIdentity requires an authenticated session. Unauthenticated
// requests are sent to the login entry point with the current URL stashed
// as the back URL so a successful login returns the user where they were.
func RequireIdentity(loginPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		username := session.Get(SessionUsername)

		if username == nil {
			session.Set(SessionBackURL, c.Request.URL.String())
			_ = session.Save()
			c.Redirect(http.StatusFound, loginPath)
			c.Abort()
			return
		}

		c.Set("username", username)
		c.Next()
	}
}
