package identity

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/conductionnl/commonground-gateway/internal/commonground"
	"github.com/conductionnl/commonground-gateway/internal/config"
	"github.com/conductionnl/commonground-gateway/internal/core"
	"github.com/conductionnl/commonground-gateway/internal/kvk"
)

// ErrIdentityNotFound indicates no backing record exists for the subject.
var ErrIdentityNotFound = errors.New("identity: not found")

// Subject is the input to an assembly: the internal references gathered
// during resolution, interpreted according to the declared identity type.
type Subject struct {
	Username     string
	Person       string // person resource URL
	Organization string // registry branch number for organization identities
}

// Assembler is the contract the authentication orchestrator consumes.
type Assembler interface {
	Assemble(ctx context.Context, typ Type, subj Subject) (*Identity, error)
}

// Provider assembles a full identity for a resolved internal user,
// dispatching on the declared identity type.
type Provider struct {
	cg        commonground.ResourceClient
	registry  kvk.CompanyLookup
	cityNames *CityNameSource
}

var _ Assembler = (*Provider)(nil)

func NewProvider(cg commonground.ResourceClient, registry kvk.CompanyLookup, cityNames *CityNameSource) *Provider {
	return &Provider{
		cg:        cg,
		registry:  registry,
		cityNames: cityNames,
	}
}

// Assemble fetches the type's source of truth, aggregates roles, and
// determines residency. Unknown types never reach the dispatch: callers
// hold a parsed Type, and the default arm guards against new variants.
func (p *Provider) Assemble(ctx context.Context, typ Type, subj Subject) (*Identity, error) {
	switch typ {
	case TypePerson:
		return p.assemblePerson(ctx, subj)
	case TypeOrganization:
		return p.assembleOrganization(ctx, subj)
	case TypeUser:
		return p.assembleUser(ctx, subj)
	case TypeIdin:
		return p.assembleIdin(ctx, subj)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, typ)
	}
}

// Refresh re-assembles an identity previously produced by this provider.
func (p *Provider) Refresh(ctx context.Context, ident *Identity) (*Identity, error) {
	if ident == nil {
		return nil, ErrUnsupportedSubject
	}
	if _, err := ParseType(string(ident.Type)); err != nil {
		return nil, fmt.Errorf("%w: type %q", ErrUnsupportedSubject, ident.Type)
	}
	return p.Assemble(ctx, ident.Type, Subject{
		Username:     ident.Username,
		Person:       ident.Person,
		Organization: ident.Organization,
	})
}

func (p *Provider) assemblePerson(ctx context.Context, subj Subject) (*Identity, error) {
	person, err := p.cg.Get(ctx, subj.Person)
	if err != nil {
		return nil, err
	}

	roles := WithRole(WithReadScopes(person.Roles()), RoleUser)

	resident, err := p.resident(ctx, person.String("verblijfplaats", "woonplaatsnaam"))
	if err != nil {
		return nil, err
	}

	return &Identity{
		DisplayName: person.String("naam", "voornamen") + " " + person.String("naam", "geslachtsnaam"),
		Username:    person.ID(),
		Person:      person.IRI(),
		Roles:       roles,
		Type:        TypePerson,
		Resident:    resident,
	}, nil
}

func (p *Provider) assembleOrganization(ctx context.Context, subj Subject) (*Identity, error) {
	company, err := p.registry.LookupCompany(ctx, subj.Organization)
	if err != nil {
		return nil, err
	}

	person, err := p.cg.Get(ctx, subj.Person)
	if err != nil {
		return nil, err
	}

	roles := WithRole(WithReadScopes(person.Roles()), RoleUser)

	var city string
	if len(company.Addresses) > 0 {
		city = company.Addresses[0].City
	}
	resident, err := p.resident(ctx, city)
	if err != nil {
		return nil, err
	}

	return &Identity{
		DisplayName:  company.TradeNames.BusinessName,
		Username:     person.ID(),
		Person:       person.IRI(),
		Organization: subj.Organization,
		BranchNumber: company.BranchNumber,
		Roles:        roles,
		Type:         TypeOrganization,
		Resident:     resident,
	}, nil
}

func (p *Provider) assembleUser(ctx context.Context, subj Subject) (*Identity, error) {
	users, err := p.cg.List(ctx,
		commonground.Descriptor{Component: config.ComponentUserCredential, Type: "users"},
		url.Values{"username": []string{subj.Username}},
	)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("%w: user %q", ErrIdentityNotFound, subj.Username)
	}
	user := users[0]

	return &Identity{
		DisplayName:  user.String("username"),
		Username:     user.String("username"),
		Person:       user.String("person"),
		Organization: user.String("organization"),
		Roles:        WithRole(user.Roles(), RoleUser),
		Type:         TypeUser,
	}, nil
}

func (p *Provider) assembleIdin(ctx context.Context, subj Subject) (*Identity, error) {
	providers, err := p.cg.List(ctx,
		commonground.Descriptor{Component: config.ComponentUserCredential, Type: "providers"},
		url.Values{"name": []string{"idin"}},
	)
	if err != nil {
		return nil, err
	}
	if len(providers) == 0 {
		return nil, fmt.Errorf("%w: no idin provider configured", ErrIdentityNotFound)
	}

	tokens, err := p.cg.List(ctx,
		commonground.Descriptor{Component: config.ComponentUserCredential, Type: "tokens"},
		url.Values{
			"token":         []string{subj.Username},
			"provider.name": []string{providers[0].String("name")},
		},
	)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: no token for %q", ErrIdentityNotFound, subj.Username)
	}

	user, err := p.cg.Get(ctx, tokens[0].String("user", "@id"))
	if err != nil {
		return nil, err
	}

	return &Identity{
		DisplayName: user.String("username"),
		Username:    user.String("username"),
		Person:      user.String("person"),
		Roles:       WithRole(user.Roles(), RoleUser),
		Type:        TypeIdin,
	}, nil
}

// resident matches a registered city against the application's configured
// city names. No configured list means an explicit false. A match anywhere
// in the list wins; later non-matches never revert it.
func (p *Provider) resident(ctx context.Context, city string) (bool, error) {
	names, err := p.cityNames.Get(ctx)
	if err != nil {
		return false, err
	}
	for _, name := range names {
		if city == name {
			return true, nil
		}
	}
	return false, nil
}

// CityNameSource resolves the application's configured resident city names,
// cached because the application resource changes rarely and residency runs
// on every person/organization assembly.
type CityNameSource struct {
	cg    commonground.ResourceClient
	cache core.Cache[[]string]
	ttl   time.Duration
}

func NewCityNameSource(cg commonground.ResourceClient, cache core.Cache[[]string], ttl time.Duration) *CityNameSource {
	return &CityNameSource{cg: cg, cache: cache, ttl: ttl}
}

const cityNamesCacheKey = "application:cityNames"

func (s *CityNameSource) Get(ctx context.Context) ([]string, error) {
	return s.cache.GetWithFetch(ctx, cityNamesCacheKey, s.ttl,
		func(ctx context.Context, _ string) ([]string, error) {
			application, err := s.cg.Application(ctx)
			if err != nil {
				return nil, err
			}
			names := application.Strings("defaultConfiguration", "configuration", "cityNames")
			if names == nil {
				// Cache the absence too: no configured list is a valid state.
				return []string{}, nil
			}
			return names, nil
		},
	)
}
