package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/conductionnl/commonground-gateway/internal/config"
	"github.com/conductionnl/commonground-gateway/internal/middleware"
	"github.com/conductionnl/commonground-gateway/internal/services"
	"github.com/conductionnl/commonground-gateway/internal/util"
)

// sessionDomainKeys are the application-state keys a logout must clear in
// addition to the identity keys, so a fresh login starts from a clean slate.
var sessionDomainKeys = []string{"requestType", "request", "user", "employee", "contact"}

var (
	errStateMismatch = errors.New("handlers: callback state does not match session")
	errTokenUnbound  = errors.New("handlers: credential no longer bound to a user token")
)

type AuthHandler struct {
	authenticator *services.Authenticator
	cfg           *config.Config
}

func NewAuthHandler(authenticator *services.Authenticator, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authenticator: authenticator,
		cfg:           cfg,
	}
}

// Login starts the external login: it mints a CSRF state, stashes it and an
// optional back URL in the session, and redirects to the provider.
func (h *AuthHandler) Login(c *gin.Context) {
	session := sessions.Default(c)

	state := uuid.New().String()
	session.Set(middleware.SessionState, state)

	if backURL := c.Query("backUrl"); util.IsRedirectSafe(backURL) {
		session.Set(middleware.SessionBackURL, backURL)
	}

	if err := session.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save session"})
		return
	}

	c.Redirect(http.StatusFound, h.authenticator.AuthCodeURL(c.Request, state))
}

// Callback completes the external login: state check, code exchange,
// resolution, identity assembly, and a final verification that the credential
// is still bound to a token. Any failure sends the user back to the
// login entry point; nothing about the failure leaks into the redirect.
func (h *AuthHandler) Callback(c *gin.Context) {
	session := sessions.Default(c)

	attempt := &services.Attempt{
		RemoteAddr: c.ClientIP(),
	}
	if backURL, ok := session.Get(middleware.SessionBackURL).(string); ok {
		attempt.BackURL = backURL
	}

	if !h.authenticator.Supports(c.Request) {
		c.Redirect(http.StatusFound, h.authenticator.Start())
		return
	}

	storedState, _ := session.Get(middleware.SessionState).(string)
	if storedState == "" || storedState != c.Query("state") {
		log.Printf("[Auth] State mismatch on callback from %s", c.ClientIP())
		c.Redirect(http.StatusFound, h.authenticator.OnFailure(attempt, errStateMismatch))
		return
	}

	cred, err := h.authenticator.Credentials(c.Request.Context(), c.Request, attempt)
	if err != nil {
		c.Redirect(http.StatusFound, h.authenticator.OnFailure(attempt, err))
		return
	}

	ident, err := h.authenticator.User(c.Request.Context(), cred, attempt)
	if err != nil {
		c.Redirect(http.StatusFound, h.authenticator.OnFailure(attempt, err))
		return
	}

	bound, err := h.authenticator.Check(c.Request.Context(), cred)
	if err != nil {
		c.Redirect(http.StatusFound, h.authenticator.OnFailure(attempt, err))
		return
	}
	if !bound {
		c.Redirect(http.StatusFound, h.authenticator.OnFailure(attempt, errTokenUnbound))
		return
	}

	target := h.authenticator.OnSuccess(attempt)

	session.Set(middleware.SessionUsername, ident.Username)
	session.Delete(middleware.SessionState)
	session.Delete(middleware.SessionBackURL)
	if err := session.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save session"})
		return
	}

	c.Redirect(http.StatusFound, target)
}

// Logout clears the identity and application state from the session and
// sends the user to the default landing page.
func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)

	session.Delete(middleware.SessionUsername)
	session.Delete(middleware.SessionNewUser)
	session.Delete(middleware.SessionBackURL)
	session.Delete(middleware.SessionState)
	for _, key := range sessionDomainKeys {
		session.Delete(key)
	}

	if err := session.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save session"})
		return
	}

	c.Redirect(http.StatusFound, util.JoinPath(h.cfg.AppSubpath, h.cfg.DefaultLandingPath))
}
