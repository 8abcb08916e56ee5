package services

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/conductionnl/commonground-gateway/internal/config"
	"github.com/conductionnl/commonground-gateway/internal/core"
	"github.com/conductionnl/commonground-gateway/internal/identity"
	"github.com/conductionnl/commonground-gateway/internal/idin"
	"github.com/conductionnl/commonground-gateway/internal/models"
	"github.com/conductionnl/commonground-gateway/internal/resolver"
	"github.com/conductionnl/commonground-gateway/internal/util"
)

// checkinScope grants the authenticated principal read access to checkins.
const checkinScope = "scope.chin.checkins.read"

// CodeExchanger is the slice of the external gateway the authenticator
// consumes.
type CodeExchanger interface {
	AuthCodeURL(state, redirectURI string) string
	ExchangeCode(ctx context.Context, code, redirectURI string) (*idin.Credential, error)
}

// Attempt carries per-attempt state across the authentication lifecycle:
// the last username seen, the page the user came from, and whether this
// attempt minted a brand-new account.
type Attempt struct {
	LastUsername string
	BackURL      string
	RemoteAddr   string

	newUser bool
}

// MarkNewUser flags the attempt as having created a new account.
func (a *Attempt) MarkNewUser() { a.newUser = true }

// ConsumeNewUser reports and clears the new-user flag. It fires at most
// once per attempt so the profile-completion redirect happens exactly once.
func (a *Attempt) ConsumeNewUser() bool {
	v := a.newUser
	a.newUser = false
	return v
}

// Authenticator drives the external-login lifecycle: recognizing callback
// requests, exchanging codes, resolving and assembling identities, and
// deciding redirect targets.
type Authenticator struct {
	gateway   CodeExchanger
	resolver  resolver.UserResolver
	assembler identity.Assembler
	loginLog  *LoginLogService
	metrics   core.MetricsRecorder
	cfg       *config.Config
}

func NewAuthenticator(
	gateway CodeExchanger,
	res resolver.UserResolver,
	assembler identity.Assembler,
	loginLog *LoginLogService,
	metrics core.MetricsRecorder,
	cfg *config.Config,
) *Authenticator {
	return &Authenticator{
		gateway:   gateway,
		resolver:  res,
		assembler: assembler,
		loginLog:  loginLog,
		metrics:   metrics,
		cfg:       cfg,
	}
}

// Supports reports whether the request is an external-login callback this
// authenticator should handle: a GET on the callback route carrying an
// authorization code.
func (a *Authenticator) Supports(req *http.Request) bool {
	if req.Method != http.MethodGet {
		return false
	}
	if req.URL.Path != util.JoinPath(a.cfg.AppSubpath, a.cfg.CallbackPath) {
		return false
	}
	return req.URL.Query().Get("code") != ""
}

// AuthCodeURL returns the provider authorization URL for the given state,
// with the callback derived from the incoming request.
func (a *Authenticator) AuthCodeURL(req *http.Request, state string) string {
	return a.gateway.AuthCodeURL(state, a.redirectURI(req))
}

// Credentials exchanges the request's authorization code for an external
// credential. The attempt records the subject as the last username tried
// so a failure can still be attributed.
func (a *Authenticator) Credentials(ctx context.Context, req *http.Request, attempt *Attempt) (*idin.Credential, error) {
	code := req.URL.Query().Get("code")
	if code == "" {
		return nil, fmt.Errorf("%w: no authorization code on request", idin.ErrExternalAuth)
	}

	start := time.Now()
	cred, err := a.gateway.ExchangeCode(ctx, code, a.redirectURI(req))
	a.metrics.RecordCodeExchange(err == nil, time.Since(start))
	if err != nil {
		return nil, err
	}

	attempt.LastUsername = cred.SubjectID
	return cred, nil
}

// User resolves the credential to an internal user and assembles the full
// identity. A successful login is audited best-effort; the audit write
// never delays or fails the login.
func (a *Authenticator) User(ctx context.Context, cred *idin.Credential, attempt *Attempt) (*identity.Identity, error) {
	resolution, err := a.resolver.Resolve(ctx, cred)
	if err != nil {
		return nil, err
	}
	if resolution.NewUser {
		a.metrics.RecordNewUser()
		attempt.MarkNewUser()
	}

	ident, err := a.assembler.Assemble(ctx, identity.TypeIdin, identity.Subject{
		Username: cred.SubjectID,
	})
	if err != nil {
		return nil, err
	}

	ident.Roles = identity.WithRole(ident.Roles, checkinScope)

	a.loginLog.Log(LoginLogEntry{
		Address: attempt.RemoteAddr,
		Method:  models.LoginMethodIdin,
		Status:  "200",
	})
	a.metrics.RecordLogin(true)

	log.Printf("[Auth] Login succeeded for subject=%s newUser=%v", cred.SubjectID, resolution.NewUser)
	return ident, nil
}

// Check re-verifies that the credential is still bound to an internal
// token. A missing binding means unauthenticated, not an error.
func (a *Authenticator) Check(ctx context.Context, cred *idin.Credential) (bool, error) {
	return a.resolver.HasToken(ctx, cred)
}

// OnSuccess decides where a freshly authenticated user lands. A new
// account goes to profile completion, otherwise a safe stored back URL
// wins, otherwise the default landing page.
func (a *Authenticator) OnSuccess(attempt *Attempt) string {
	if attempt.ConsumeNewUser() {
		return util.JoinPath(a.cfg.AppSubpath, a.cfg.ProfileCompletionPath)
	}
	if util.IsRedirectSafe(attempt.BackURL) {
		return attempt.BackURL
	}
	return util.JoinPath(a.cfg.AppSubpath, a.cfg.DefaultLandingPath)
}

// OnFailure counts the failed attempt and sends the user back to the login
// entry point. The audit trail records successful logins only.
func (a *Authenticator) OnFailure(attempt *Attempt, cause error) string {
	a.metrics.RecordLogin(false)

	log.Printf("[Auth] Login failed for username=%s: %v", attempt.LastUsername, cause)
	return a.Start()
}

// Start returns the login entry point an unauthenticated user is sent to.
func (a *Authenticator) Start() string {
	return util.JoinPath(a.cfg.AppSubpath, a.cfg.LoginPath)
}

// redirectURI rebuilds the callback URI from the incoming request, forcing
// https and stripping the query so the exchange sees the registered URI.
func (a *Authenticator) redirectURI(req *http.Request) string {
	host := req.Host
	if fwd := req.Header.Get("X-Forwarded-Host"); fwd != "" {
		host = fwd
	}
	u := url.URL{
		Scheme: "https",
		Host:   host,
		Path:   util.JoinPath(a.cfg.AppSubpath, a.cfg.CallbackPath),
	}
	return u.String()
}
