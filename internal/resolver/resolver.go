package resolver

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"

	"github.com/conductionnl/commonground-gateway/internal/commonground"
	"github.com/conductionnl/commonground-gateway/internal/config"
	"github.com/conductionnl/commonground-gateway/internal/idin"
)

var (
	// ErrResolutionFailed wraps any failure of the find-or-create chain.
	// No partial-success state is exposed to the caller.
	ErrResolutionFailed = errors.New("resolver: identity resolution failed")

	// ErrNoProvider indicates no idin provider row is configured for the
	// application.
	ErrNoProvider = errors.New("resolver: no idin provider configured for application")

	// ErrUsernameTaken is returned by Register when the username is in use.
	ErrUsernameTaken = errors.New("resolver: username already taken")
)

// Resolution is the outcome of binding an external credential to an
// internal user: the canonical user and token records plus whether this
// resolution created a brand-new user.
type Resolution struct {
	User    commonground.Resource
	Token   commonground.Resource
	NewUser bool
}

// UserResolver is the contract the authentication orchestrator consumes.
type UserResolver interface {
	Resolve(ctx context.Context, cred *idin.Credential) (*Resolution, error)
	HasToken(ctx context.Context, cred *idin.Credential) (bool, error)
}

// Resolver is the find-or-create state machine binding external subjects
// to internal Person + User + Token triples.
type Resolver struct {
	cg            commonground.ResourceClient
	applicationID string
}

var _ UserResolver = (*Resolver)(nil)

func New(cg commonground.ResourceClient, applicationID string) *Resolver {
	return &Resolver{cg: cg, applicationID: applicationID}
}

// Resolve binds the external subject to an internal user, creating the
// Person, User, and Token records lazily on first login. Any failing
// microservice call is fatal for the whole resolution.
func (r *Resolver) Resolve(ctx context.Context, cred *idin.Credential) (*Resolution, error) {
	provider, err := r.idinProvider(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResolutionFailed, err)
	}

	tokens, err := r.findTokens(ctx, cred.SubjectID, provider.String("name"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResolutionFailed, err)
	}

	// Bound already: the token leads straight to its user.
	if len(tokens) > 0 {
		token := tokens[0]
		userURL, err := r.cg.ResolveURL(commonground.Descriptor{
			Component: config.ComponentUserCredential,
			Type:      "users",
			ID:        token.String("user", "id"),
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrResolutionFailed, err)
		}
		user, err := r.cg.Get(ctx, userURL)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrResolutionFailed, err)
		}
		return &Resolution{User: user, Token: token}, nil
	}

	// No token yet. Reuse an existing user with this username before
	// creating a fresh person + user pair.
	user, newUser, err := r.findOrCreateUser(ctx, cred.SubjectID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResolutionFailed, err)
	}

	if _, err := r.cg.Create(ctx,
		commonground.Descriptor{Component: config.ComponentUserCredential, Type: "tokens"},
		map[string]any{
			"token":    cred.SubjectID,
			"user":     "users/" + user.ID(),
			"provider": "providers/" + provider.ID(),
		},
	); err != nil {
		return nil, fmt.Errorf("%w: token create: %v", ErrResolutionFailed, err)
	}

	// Re-query for the canonical token record. This also reconciles a
	// concurrent first login for the same subject: both attempts land on
	// the first record the store returns for the natural key.
	tokens, err = r.findTokens(ctx, cred.SubjectID, provider.String("name"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResolutionFailed, err)
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: token created but not found on re-query", ErrResolutionFailed)
	}
	if len(tokens) > 1 {
		log.Printf("[Resolver] Duplicate tokens for subject=%s, binding to first", cred.SubjectID)
	}

	return &Resolution{User: user, Token: tokens[0], NewUser: newUser}, nil
}

// HasToken re-verifies that a token exists for the credential. A missing
// token is a silent no-match, not an error.
func (r *Resolver) HasToken(ctx context.Context, cred *idin.Credential) (bool, error) {
	provider, err := r.idinProvider(ctx)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrResolutionFailed, err)
	}
	tokens, err := r.findTokens(ctx, cred.SubjectID, provider.String("name"))
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrResolutionFailed, err)
	}
	return len(tokens) > 0, nil
}

// idinProvider looks up the idin provider row configured for this
// application.
func (r *Resolver) idinProvider(ctx context.Context) (commonground.Resource, error) {
	providers, err := r.cg.List(ctx,
		commonground.Descriptor{Component: config.ComponentUserCredential, Type: "providers"},
		url.Values{
			"type":        []string{"idin"},
			"application": []string{r.applicationID},
		},
	)
	if err != nil {
		return nil, err
	}
	if len(providers) == 0 {
		return nil, ErrNoProvider
	}
	return providers[0], nil
}

func (r *Resolver) findTokens(ctx context.Context, subjectID, providerName string) ([]commonground.Resource, error) {
	return r.cg.List(ctx,
		commonground.Descriptor{Component: config.ComponentUserCredential, Type: "tokens"},
		url.Values{
			"token":         []string{subjectID},
			"provider.name": []string{providerName},
		},
	)
}

// findOrCreateUser reuses an existing user with the subject's username, or
// creates a new person + user pair. The person's names default to the
// subject id because the external profile carries no richer data.
func (r *Resolver) findOrCreateUser(ctx context.Context, subjectID string) (commonground.Resource, bool, error) {
	users, err := r.cg.List(ctx,
		commonground.Descriptor{Component: config.ComponentUserCredential, Type: "users"},
		url.Values{"username": []string{subjectID}},
	)
	if err != nil {
		return nil, false, err
	}
	if len(users) > 0 {
		return users[0], false, nil
	}

	applicationURL, err := r.cg.ResolveURL(commonground.Descriptor{
		Component: config.ComponentApplication,
		Type:      "applications",
		ID:        r.applicationID,
	})
	if err != nil {
		return nil, false, err
	}

	person, err := r.cg.Create(ctx,
		commonground.Descriptor{Component: config.ComponentContact, Type: "people"},
		map[string]any{
			"name":       subjectID,
			"givenName":  subjectID,
			"familyName": subjectID,
		},
	)
	if err != nil {
		return nil, false, fmt.Errorf("person create: %w", err)
	}

	user, err := r.cg.Create(ctx,
		commonground.Descriptor{Component: config.ComponentUserCredential, Type: "users"},
		map[string]any{
			"username":     subjectID,
			"password":     subjectID,
			"person":       person.IRI(),
			"organization": applicationURL,
		},
	)
	if err != nil {
		return nil, false, fmt.Errorf("user create: %w", err)
	}

	log.Printf("[Resolver] New user created for subject=%s", subjectID)
	return user, true, nil
}

// RegisterInput is the payload for a self-service registration.
type RegisterInput struct {
	GivenName  string
	FamilyName string
	Username   string
	Password   string
}

// Register creates a person + user pair for a locally registered account.
// The username is an email address and must be free.
func (r *Resolver) Register(ctx context.Context, in RegisterInput) (commonground.Resource, error) {
	users, err := r.cg.List(ctx,
		commonground.Descriptor{Component: config.ComponentUserCredential, Type: "users"},
		url.Values{"username": []string{in.Username}},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResolutionFailed, err)
	}
	if len(users) > 0 {
		return nil, ErrUsernameTaken
	}

	applicationURL, err := r.cg.ResolveURL(commonground.Descriptor{
		Component: config.ComponentApplication,
		Type:      "applications",
		ID:        r.applicationID,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResolutionFailed, err)
	}

	person, err := r.cg.Create(ctx,
		commonground.Descriptor{Component: config.ComponentContact, Type: "people"},
		map[string]any{
			"givenName":  in.GivenName,
			"familyName": in.FamilyName,
			"emails": []map[string]any{
				{"name": "primary", "email": in.Username},
			},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: person create: %v", ErrResolutionFailed, err)
	}

	user, err := r.cg.Create(ctx,
		commonground.Descriptor{Component: config.ComponentUserCredential, Type: "users"},
		map[string]any{
			"username":     in.Username,
			"password":     in.Password,
			"person":       person.IRI(),
			"organization": applicationURL,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: user create: %v", ErrResolutionFailed, err)
	}

	return user, nil
}
