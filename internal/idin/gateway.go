package idin

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/conductionnl/commonground-gateway/internal/config"
)

// subjectClaim is the userinfo field carrying the stable IDIN consumer
// identifier (the consumer BIN).
const subjectClaim = "consumer.bin"

var (
	// ErrExternalAuth indicates the code exchange or userinfo fetch failed.
	// It is terminal for the login attempt; the flow is never retried.
	ErrExternalAuth = errors.New("idin: external authentication failed")

	// ErrMissingSubject indicates the provider profile carried no subject
	// identifier.
	ErrMissingSubject = errors.New("idin: userinfo missing subject identifier")
)

// Credential is the normalized result of a successful external login:
// the provider's stable subject identifier, scoped to one login attempt.
type Credential struct {
	SubjectID string
}

// Gateway performs the OAuth2 authorization-code exchange and profile fetch
// against the external OIDC provider (Signicat/IDIN).
type Gateway struct {
	conf        *oauth2.Config
	httpClient  *http.Client
	userinfoURL string
}

// NewGateway creates a gateway from configuration. The client credentials
// are sent as confidential basic auth on the token endpoint; all provider
// calls share one short-timeout HTTP client.
func NewGateway(cfg *config.Config) *Gateway {
	// #nosec G402 -- InsecureSkipVerify is user-configurable for development/testing
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.IdinInsecureSkipVerify,
		},
	}

	return &Gateway{
		conf: &oauth2.Config{
			ClientID:     cfg.IdinClientID,
			ClientSecret: cfg.IdinClientSecret,
			Scopes:       []string{"openid"},
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.IdinIssuerURL + "/oidc/authorize",
				TokenURL:  cfg.IdinIssuerURL + "/oidc/token",
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		httpClient: &http.Client{
			Timeout:   cfg.IdinTimeout,
			Transport: transport,
		},
		userinfoURL: cfg.IdinIssuerURL + "/oidc/userinfo",
	}
}

// AuthCodeURL returns the provider authorization URL for the given CSRF
// state and callback URI.
func (g *Gateway) AuthCodeURL(state, redirectURI string) string {
	return g.conf.AuthCodeURL(state, oauth2.SetAuthURLParam("redirect_uri", redirectURI))
}

// ExchangeCode trades the authorization code for a provider access token,
// fetches the userinfo profile with it, and extracts the stable subject
// identifier. Any failure along the way fails the whole operation.
func (g *Gateway) ExchangeCode(ctx context.Context, code, redirectURI string) (*Credential, error) {
	// Route the oauth2 transport through our short-timeout client.
	ctx = context.WithValue(ctx, oauth2.HTTPClient, g.httpClient)

	token, err := g.conf.Exchange(ctx, code, oauth2.SetAuthURLParam("redirect_uri", redirectURI))
	if err != nil {
		return nil, fmt.Errorf("%w: token exchange: %v", ErrExternalAuth, err)
	}

	subject, err := g.fetchSubject(ctx, token)
	if err != nil {
		return nil, err
	}

	return &Credential{SubjectID: subject}, nil
}

// fetchSubject GETs the userinfo endpoint with the bearer token and pulls
// the subject claim out of the profile.
func (g *Gateway) fetchSubject(ctx context.Context, token *oauth2.Token) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userinfoURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExternalAuth, err)
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: userinfo: %v", ErrExternalAuth, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}
		return "", fmt.Errorf("%w: userinfo: HTTP %d - %s", ErrExternalAuth, resp.StatusCode, bodyPreview)
	}

	var profile map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return "", fmt.Errorf("%w: userinfo: %v", ErrExternalAuth, err)
	}

	subject, _ := profile[subjectClaim].(string)
	if subject == "" {
		return "", ErrMissingSubject
	}
	return subject, nil
}
