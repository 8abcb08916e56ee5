package commonground

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResource_String(t *testing.T) {
	r := Resource{
		"id":  "1234",
		"@id": "/people/1234",
		"naam": map[string]any{
			"voornamen":       "Jan",
			"geslachtsnaam":   "Jansen",
			"aantalKinderen":  float64(2),
			"verblijfplaats":  nil,
		},
	}

	assert.Equal(t, "1234", r.ID())
	assert.Equal(t, "/people/1234", r.IRI())
	assert.Equal(t, "Jan", r.String("naam", "voornamen"))
	assert.Equal(t, "", r.String("naam", "onbekend"))
	assert.Equal(t, "", r.String("naam", "aantalKinderen"), "non-string leaf is empty")
	assert.Equal(t, "", r.String("naam", "voornamen", "deeper"), "walking past a leaf is empty")
	assert.Equal(t, "", r.String("missing"))
}

func TestResource_Strings(t *testing.T) {
	r := Resource{
		"defaultConfiguration": map[string]any{
			"configuration": map[string]any{
				"cityNames": []any{"Utrecht", "Zuid-Drecht", float64(7)},
			},
		},
	}

	assert.Equal(t, []string{"Utrecht", "Zuid-Drecht"},
		r.Strings("defaultConfiguration", "configuration", "cityNames"))
	assert.Nil(t, r.Strings("defaultConfiguration", "configuration", "missing"))
}

func TestResource_Roles(t *testing.T) {
	withRoles := Resource{"roles": []any{"ROLE_USER"}}
	assert.Equal(t, []string{"ROLE_USER"}, withRoles.Roles())

	withoutRoles := Resource{}
	assert.NotNil(t, withoutRoles.Roles())
	assert.Empty(t, withoutRoles.Roles())
}
