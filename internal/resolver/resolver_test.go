package resolver

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/conductionnl/commonground-gateway/internal/commonground"
	"github.com/conductionnl/commonground-gateway/internal/config"
	"github.com/conductionnl/commonground-gateway/internal/idin"
	"github.com/conductionnl/commonground-gateway/internal/mocks"
)

const testApplicationID = "app-1"

var (
	providersDescriptor = commonground.Descriptor{Component: config.ComponentUserCredential, Type: "providers"}
	tokensDescriptor    = commonground.Descriptor{Component: config.ComponentUserCredential, Type: "tokens"}
	usersDescriptor     = commonground.Descriptor{Component: config.ComponentUserCredential, Type: "users"}
	peopleDescriptor    = commonground.Descriptor{Component: config.ComponentContact, Type: "people"}
)

func providerFilter() url.Values {
	return url.Values{
		"type":        []string{"idin"},
		"application": []string{testApplicationID},
	}
}

func tokenFilter(subjectID string) url.Values {
	return url.Values{
		"token":         []string{subjectID},
		"provider.name": []string{"idin"},
	}
}

func idinProvider() commonground.Resource {
	return commonground.Resource{"id": "prov-1", "name": "idin"}
}

func TestResolver_Resolve_FirstLogin(t *testing.T) {
	ctrl := gomock.NewController(t)
	cg := mocks.NewMockResourceClient(ctrl)
	cred := &idin.Credential{SubjectID: "FANTASYBANK1234567890"}

	cg.EXPECT().List(gomock.Any(), providersDescriptor, providerFilter()).
		Return([]commonground.Resource{idinProvider()}, nil)

	// No token yet and no user with this username.
	cg.EXPECT().List(gomock.Any(), tokensDescriptor, tokenFilter(cred.SubjectID)).
		Return([]commonground.Resource{}, nil)
	cg.EXPECT().List(gomock.Any(), usersDescriptor, url.Values{"username": []string{cred.SubjectID}}).
		Return([]commonground.Resource{}, nil)

	cg.EXPECT().ResolveURL(commonground.Descriptor{
		Component: config.ComponentApplication, Type: "applications", ID: testApplicationID,
	}).Return("https://wrc.example.org/applications/app-1", nil)

	cg.EXPECT().Create(gomock.Any(), peopleDescriptor, map[string]any{
		"name":       cred.SubjectID,
		"givenName":  cred.SubjectID,
		"familyName": cred.SubjectID,
	}).Return(commonground.Resource{"id": "p1", "@id": "https://cc.example.org/people/p1"}, nil)

	cg.EXPECT().Create(gomock.Any(), usersDescriptor, map[string]any{
		"username":     cred.SubjectID,
		"password":     cred.SubjectID,
		"person":       "https://cc.example.org/people/p1",
		"organization": "https://wrc.example.org/applications/app-1",
	}).Return(commonground.Resource{"id": "u1", "username": cred.SubjectID}, nil)

	cg.EXPECT().Create(gomock.Any(), tokensDescriptor, map[string]any{
		"token":    cred.SubjectID,
		"user":     "users/u1",
		"provider": "providers/prov-1",
	}).Return(commonground.Resource{"id": "t1"}, nil)

	// Re-query binds the canonical token record.
	cg.EXPECT().List(gomock.Any(), tokensDescriptor, tokenFilter(cred.SubjectID)).
		Return([]commonground.Resource{{"id": "t1", "token": cred.SubjectID}}, nil)

	res, err := New(cg, testApplicationID).Resolve(context.Background(), cred)
	require.NoError(t, err)

	assert.True(t, res.NewUser)
	assert.Equal(t, "u1", res.User.ID())
	assert.Equal(t, "t1", res.Token.ID())
}

func TestResolver_Resolve_ExistingToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	cg := mocks.NewMockResourceClient(ctrl)
	cred := &idin.Credential{SubjectID: "FANTASYBANK1234567890"}

	cg.EXPECT().List(gomock.Any(), providersDescriptor, providerFilter()).
		Return([]commonground.Resource{idinProvider()}, nil)
	cg.EXPECT().List(gomock.Any(), tokensDescriptor, tokenFilter(cred.SubjectID)).
		Return([]commonground.Resource{
			{"id": "t1", "token": cred.SubjectID, "user": map[string]any{"id": "u1"}},
		}, nil)
	cg.EXPECT().ResolveURL(commonground.Descriptor{
		Component: config.ComponentUserCredential, Type: "users", ID: "u1",
	}).Return("https://uc.example.org/users/u1", nil)
	cg.EXPECT().Get(gomock.Any(), "https://uc.example.org/users/u1").
		Return(commonground.Resource{"id": "u1", "username": cred.SubjectID}, nil)

	res, err := New(cg, testApplicationID).Resolve(context.Background(), cred)
	require.NoError(t, err)

	assert.False(t, res.NewUser)
	assert.Equal(t, "u1", res.User.ID())
	assert.Equal(t, "t1", res.Token.ID())
}

func TestResolver_Resolve_ExistingUserWithoutToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	cg := mocks.NewMockResourceClient(ctrl)
	cred := &idin.Credential{SubjectID: "FANTASYBANK1234567890"}

	cg.EXPECT().List(gomock.Any(), providersDescriptor, providerFilter()).
		Return([]commonground.Resource{idinProvider()}, nil)
	cg.EXPECT().List(gomock.Any(), tokensDescriptor, tokenFilter(cred.SubjectID)).
		Return([]commonground.Resource{}, nil)

	// The username exists already: the user is reused, no person is created.
	cg.EXPECT().List(gomock.Any(), usersDescriptor, url.Values{"username": []string{cred.SubjectID}}).
		Return([]commonground.Resource{{"id": "u1", "username": cred.SubjectID}}, nil)

	cg.EXPECT().Create(gomock.Any(), tokensDescriptor, map[string]any{
		"token":    cred.SubjectID,
		"user":     "users/u1",
		"provider": "providers/prov-1",
	}).Return(commonground.Resource{"id": "t1"}, nil)

	cg.EXPECT().List(gomock.Any(), tokensDescriptor, tokenFilter(cred.SubjectID)).
		Return([]commonground.Resource{{"id": "t1", "token": cred.SubjectID}}, nil)

	res, err := New(cg, testApplicationID).Resolve(context.Background(), cred)
	require.NoError(t, err)

	assert.False(t, res.NewUser)
	assert.Equal(t, "u1", res.User.ID())
}

func TestResolver_Resolve_NoProvider(t *testing.T) {
	ctrl := gomock.NewController(t)
	cg := mocks.NewMockResourceClient(ctrl)

	cg.EXPECT().List(gomock.Any(), providersDescriptor, providerFilter()).
		Return([]commonground.Resource{}, nil)

	_, err := New(cg, testApplicationID).Resolve(context.Background(), &idin.Credential{SubjectID: "x"})
	assert.ErrorIs(t, err, ErrResolutionFailed)
	assert.ErrorContains(t, err, "no idin provider")
}

func TestResolver_HasToken(t *testing.T) {
	tests := []struct {
		name   string
		tokens []commonground.Resource
		want   bool
	}{
		{name: "token exists", tokens: []commonground.Resource{{"id": "t1"}}, want: true},
		{name: "no token", tokens: []commonground.Resource{}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			cg := mocks.NewMockResourceClient(ctrl)

			cg.EXPECT().List(gomock.Any(), providersDescriptor, providerFilter()).
				Return([]commonground.Resource{idinProvider()}, nil)
			cg.EXPECT().List(gomock.Any(), tokensDescriptor, tokenFilter("subj")).
				Return(tt.tokens, nil)

			got, err := New(cg, testApplicationID).HasToken(context.Background(), &idin.Credential{SubjectID: "subj"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolver_Register(t *testing.T) {
	ctrl := gomock.NewController(t)
	cg := mocks.NewMockResourceClient(ctrl)

	cg.EXPECT().List(gomock.Any(), usersDescriptor, url.Values{"username": []string{"jan@example.org"}}).
		Return([]commonground.Resource{}, nil)
	cg.EXPECT().ResolveURL(commonground.Descriptor{
		Component: config.ComponentApplication, Type: "applications", ID: testApplicationID,
	}).Return("https://wrc.example.org/applications/app-1", nil)
	cg.EXPECT().Create(gomock.Any(), peopleDescriptor, map[string]any{
		"givenName":  "Jan",
		"familyName": "Jansen",
		"emails": []map[string]any{
			{"name": "primary", "email": "jan@example.org"},
		},
	}).Return(commonground.Resource{"id": "p1", "@id": "https://cc.example.org/people/p1"}, nil)
	cg.EXPECT().Create(gomock.Any(), usersDescriptor, map[string]any{
		"username":     "jan@example.org",
		"password":     "hunter2hunter2",
		"person":       "https://cc.example.org/people/p1",
		"organization": "https://wrc.example.org/applications/app-1",
	}).Return(commonground.Resource{"id": "u1", "username": "jan@example.org"}, nil)

	user, err := New(cg, testApplicationID).Register(context.Background(), RegisterInput{
		GivenName:  "Jan",
		FamilyName: "Jansen",
		Username:   "jan@example.org",
		Password:   "hunter2hunter2",
	})
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID())
}

func TestResolver_Register_UsernameTaken(t *testing.T) {
	ctrl := gomock.NewController(t)
	cg := mocks.NewMockResourceClient(ctrl)

	cg.EXPECT().List(gomock.Any(), usersDescriptor, url.Values{"username": []string{"jan@example.org"}}).
		Return([]commonground.Resource{{"id": "u1"}}, nil)

	_, err := New(cg, testApplicationID).Register(context.Background(), RegisterInput{
		GivenName:  "Jan",
		FamilyName: "Jansen",
		Username:   "jan@example.org",
		Password:   "hunter2hunter2",
	})
	assert.ErrorIs(t, err, ErrUsernameTaken)
}
