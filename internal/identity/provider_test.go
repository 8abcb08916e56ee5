package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/conductionnl/commonground-gateway/internal/cache"
	"github.com/conductionnl/commonground-gateway/internal/commonground"
	"github.com/conductionnl/commonground-gateway/internal/kvk"
	"github.com/conductionnl/commonground-gateway/internal/mocks"
)

func newTestProvider(cg *mocks.MockResourceClient, registry *mocks.MockCompanyLookup) *Provider {
	cityNames := NewCityNameSource(cg, cache.NewMemoryCache[[]string](), time.Minute)
	return NewProvider(cg, registry, cityNames)
}

func applicationWithCities(cities ...any) commonground.Resource {
	return commonground.Resource{
		"id": "app-1",
		"defaultConfiguration": map[string]any{
			"configuration": map[string]any{
				"cityNames": cities,
			},
		},
	}
}

func TestProvider_AssemblePerson_Resident(t *testing.T) {
	ctrl := gomock.NewController(t)
	cg := mocks.NewMockResourceClient(ctrl)
	registry := mocks.NewMockCompanyLookup(ctrl)

	person := commonground.Resource{
		"id":  "p1",
		"@id": "https://cc.example.org/people/p1",
		"naam": map[string]any{
			"voornamen":     "Jan",
			"geslachtsnaam": "Jansen",
		},
		"verblijfplaats": map[string]any{
			"woonplaatsnaam": "Zuid-Drecht",
		},
	}

	cg.EXPECT().Get(gomock.Any(), "https://cc.example.org/people/p1").Return(person, nil)
	cg.EXPECT().Application(gomock.Any()).Return(applicationWithCities("Zuid-Drecht", "Utrecht"), nil)

	ident, err := newTestProvider(cg, registry).Assemble(context.Background(), TypePerson, Subject{
		Person: "https://cc.example.org/people/p1",
	})
	require.NoError(t, err)

	assert.Equal(t, "Jan Jansen", ident.DisplayName)
	assert.Equal(t, "p1", ident.Username)
	assert.Equal(t, TypePerson, ident.Type)
	assert.True(t, ident.Resident)
	assert.Contains(t, ident.Roles, RoleUser)
	assert.Contains(t, ident.Roles, "scope.vrc.requests.read")
	assert.Len(t, ident.Roles, 7)
}

func TestProvider_AssemblePerson_ResidentLaterListEntry(t *testing.T) {
	ctrl := gomock.NewController(t)
	cg := mocks.NewMockResourceClient(ctrl)
	registry := mocks.NewMockCompanyLookup(ctrl)

	person := commonground.Resource{
		"id":  "p1",
		"@id": "https://cc.example.org/people/p1",
		"verblijfplaats": map[string]any{
			"woonplaatsnaam": "Zuid-Drecht",
		},
	}

	cg.EXPECT().Get(gomock.Any(), gomock.Any()).Return(person, nil)
	// A match anywhere in the configured list counts, not just the first entry.
	cg.EXPECT().Application(gomock.Any()).Return(applicationWithCities("Amsterdam", "Zuid-Drecht"), nil)

	ident, err := newTestProvider(cg, registry).Assemble(context.Background(), TypePerson, Subject{
		Person: "https://cc.example.org/people/p1",
	})
	require.NoError(t, err)
	assert.True(t, ident.Resident)
}

func TestProvider_AssemblePerson_NotResident(t *testing.T) {
	ctrl := gomock.NewController(t)
	cg := mocks.NewMockResourceClient(ctrl)
	registry := mocks.NewMockCompanyLookup(ctrl)

	person := commonground.Resource{
		"id":  "p1",
		"@id": "https://cc.example.org/people/p1",
		"verblijfplaats": map[string]any{
			"woonplaatsnaam": "Amsterdam",
		},
	}

	cg.EXPECT().Get(gomock.Any(), gomock.Any()).Return(person, nil)
	cg.EXPECT().Application(gomock.Any()).Return(applicationWithCities("Zuid-Drecht"), nil)

	ident, err := newTestProvider(cg, registry).Assemble(context.Background(), TypePerson, Subject{
		Person: "https://cc.example.org/people/p1",
	})
	require.NoError(t, err)
	assert.False(t, ident.Resident)
}

func TestProvider_AssemblePerson_NoConfiguredCityList(t *testing.T) {
	ctrl := gomock.NewController(t)
	cg := mocks.NewMockResourceClient(ctrl)
	registry := mocks.NewMockCompanyLookup(ctrl)

	person := commonground.Resource{
		"id": "p1",
		"verblijfplaats": map[string]any{
			"woonplaatsnaam": "Zuid-Drecht",
		},
	}

	cg.EXPECT().Get(gomock.Any(), gomock.Any()).Return(person, nil)
	// Application without a configured city list: residency is always false.
	cg.EXPECT().Application(gomock.Any()).Return(commonground.Resource{"id": "app-1"}, nil)

	ident, err := newTestProvider(cg, registry).Assemble(context.Background(), TypePerson, Subject{
		Person: "https://cc.example.org/people/p1",
	})
	require.NoError(t, err)
	assert.False(t, ident.Resident)
}

func TestProvider_AssembleOrganization(t *testing.T) {
	ctrl := gomock.NewController(t)
	cg := mocks.NewMockResourceClient(ctrl)
	registry := mocks.NewMockCompanyLookup(ctrl)

	registry.EXPECT().LookupCompany(gomock.Any(), "000000012345").Return(&kvk.Company{
		BranchNumber: "000000012345",
		TradeNames:   kvk.TradeNames{BusinessName: "Bakkerij De Vries"},
		Addresses:    []kvk.Address{{City: "Zuid-Drecht"}},
	}, nil)
	cg.EXPECT().Get(gomock.Any(), "https://cc.example.org/people/p1").Return(commonground.Resource{
		"id":  "p1",
		"@id": "https://cc.example.org/people/p1",
	}, nil)
	cg.EXPECT().Application(gomock.Any()).Return(applicationWithCities("Zuid-Drecht"), nil)

	ident, err := newTestProvider(cg, registry).Assemble(context.Background(), TypeOrganization, Subject{
		Person:       "https://cc.example.org/people/p1",
		Organization: "000000012345",
	})
	require.NoError(t, err)

	assert.Equal(t, "Bakkerij De Vries", ident.DisplayName)
	assert.Equal(t, "000000012345", ident.BranchNumber)
	assert.Equal(t, TypeOrganization, ident.Type)
	assert.True(t, ident.Resident)
	assert.Contains(t, ident.Roles, RoleUser)
}

func TestProvider_AssembleOrganization_CompanyNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	cg := mocks.NewMockResourceClient(ctrl)
	registry := mocks.NewMockCompanyLookup(ctrl)

	registry.EXPECT().LookupCompany(gomock.Any(), "000000000000").
		Return(nil, kvk.ErrCompanyNotFound)

	_, err := newTestProvider(cg, registry).Assemble(context.Background(), TypeOrganization, Subject{
		Organization: "000000000000",
	})
	assert.ErrorIs(t, err, kvk.ErrCompanyNotFound)
}

func TestProvider_AssembleUser(t *testing.T) {
	ctrl := gomock.NewController(t)
	cg := mocks.NewMockResourceClient(ctrl)
	registry := mocks.NewMockCompanyLookup(ctrl)

	cg.EXPECT().List(gomock.Any(), gomock.Any(), gomock.Any()).Return([]commonground.Resource{
		{
			"id":       "u1",
			"username": "jan@example.org",
			"person":   "https://cc.example.org/people/p1",
			"roles":    []any{"ROLE_ADMIN"},
		},
	}, nil)

	ident, err := newTestProvider(cg, registry).Assemble(context.Background(), TypeUser, Subject{
		Username: "jan@example.org",
	})
	require.NoError(t, err)

	assert.Equal(t, "jan@example.org", ident.Username)
	assert.Equal(t, TypeUser, ident.Type)
	assert.Contains(t, ident.Roles, "ROLE_ADMIN")
	assert.Contains(t, ident.Roles, RoleUser)
}

func TestProvider_AssembleUser_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	cg := mocks.NewMockResourceClient(ctrl)
	registry := mocks.NewMockCompanyLookup(ctrl)

	cg.EXPECT().List(gomock.Any(), gomock.Any(), gomock.Any()).Return([]commonground.Resource{}, nil)

	_, err := newTestProvider(cg, registry).Assemble(context.Background(), TypeUser, Subject{
		Username: "nobody@example.org",
	})
	assert.ErrorIs(t, err, ErrIdentityNotFound)
}

func TestProvider_AssembleIdin(t *testing.T) {
	ctrl := gomock.NewController(t)
	cg := mocks.NewMockResourceClient(ctrl)
	registry := mocks.NewMockCompanyLookup(ctrl)

	providers := []commonground.Resource{{"id": "prov1", "name": "idin"}}
	tokens := []commonground.Resource{
		{
			"id":    "t1",
			"token": "FANTASYBANK1234567890",
			"user": map[string]any{
				"@id": "https://uc.example.org/users/u1",
			},
		},
	}
	user := commonground.Resource{
		"id":       "u1",
		"username": "FANTASYBANK1234567890",
		"person":   "https://cc.example.org/people/p1",
	}

	gomock.InOrder(
		cg.EXPECT().List(gomock.Any(), gomock.Any(), gomock.Any()).Return(providers, nil),
		cg.EXPECT().List(gomock.Any(), gomock.Any(), gomock.Any()).Return(tokens, nil),
		cg.EXPECT().Get(gomock.Any(), "https://uc.example.org/users/u1").Return(user, nil),
	)

	ident, err := newTestProvider(cg, registry).Assemble(context.Background(), TypeIdin, Subject{
		Username: "FANTASYBANK1234567890",
	})
	require.NoError(t, err)

	assert.Equal(t, "FANTASYBANK1234567890", ident.Username)
	assert.Equal(t, TypeIdin, ident.Type)
	assert.Contains(t, ident.Roles, RoleUser)
}

func TestProvider_Assemble_UnknownType(t *testing.T) {
	ctrl := gomock.NewController(t)
	cg := mocks.NewMockResourceClient(ctrl)
	registry := mocks.NewMockCompanyLookup(ctrl)

	_, err := newTestProvider(cg, registry).Assemble(context.Background(), Type("machine"), Subject{})
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestProvider_Refresh_UnsupportedType(t *testing.T) {
	ctrl := gomock.NewController(t)
	cg := mocks.NewMockResourceClient(ctrl)
	registry := mocks.NewMockCompanyLookup(ctrl)
	p := newTestProvider(cg, registry)

	_, err := p.Refresh(context.Background(), nil)
	assert.ErrorIs(t, err, ErrUnsupportedSubject)

	_, err = p.Refresh(context.Background(), &Identity{Type: Type("machine")})
	assert.ErrorIs(t, err, ErrUnsupportedSubject)
}

func TestCityNameSource_CachesApplication(t *testing.T) {
	ctrl := gomock.NewController(t)
	cg := mocks.NewMockResourceClient(ctrl)

	// One backend fetch serves repeated reads within the TTL.
	cg.EXPECT().Application(gomock.Any()).Return(applicationWithCities("Zuid-Drecht"), nil).Times(1)

	source := NewCityNameSource(cg, cache.NewMemoryCache[[]string](), time.Minute)

	for i := 0; i < 3; i++ {
		names, err := source.Get(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"Zuid-Drecht"}, names)
	}
}
