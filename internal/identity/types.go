package identity

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrUnknownType indicates an identity type outside the closed set.
	ErrUnknownType = errors.New("identity: unknown identity type")

	// ErrUnsupportedSubject indicates a subject representation this package
	// does not recognize (e.g. refreshing an identity of the wrong kind).
	ErrUnsupportedSubject = errors.New("identity: unsupported subject")
)

// Type is the closed set of identity kinds this gateway can assemble.
type Type string

const (
	TypePerson       Type = "person"
	TypeOrganization Type = "organization"
	TypeUser         Type = "user"
	TypeIdin         Type = "idin"
)

// ParseType validates a type tag against the closed set.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypePerson, TypeOrganization, TypeUser, TypeIdin:
		return Type(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
	}
}

// RoleUser is the coarse grant every resolved identity carries.
const RoleUser = "ROLE_USER"

// readScopes are the fine-grained read grants added for person and
// organization identities.
var readScopes = []string{
	"scope.vrc.requests.read",
	"scope.orc.orders.read",
	"scope.cmc.messages.read",
	"scope.bc.invoices.read",
	"scope.arc.events.read",
	"scope.irc.assents.read",
}

// Identity is the fully resolved output of an assembly: constructed fresh
// per request and never persisted.
type Identity struct {
	DisplayName  string
	Username     string
	Person       string // person resource URL, when the type carries one
	Organization string // organization reference, when the type carries one
	BranchNumber string // registry branch number for organization identities
	Roles        []string
	Type         Type
	Resident     bool
}

// WithRole returns a copy of the role set with the role appended if absent.
// Role sets are treated as immutable values; fetched resources are never
// mutated in place.
func WithRole(roles []string, role string) []string {
	out := slices.Clone(roles)
	if out == nil {
		out = []string{}
	}
	if !slices.Contains(out, role) {
		out = append(out, role)
	}
	return out
}

// WithReadScopes returns a copy of the role set with the fixed read scopes
// appended.
func WithReadScopes(roles []string) []string {
	out := slices.Clone(roles)
	if out == nil {
		out = []string{}
	}
	return append(out, readScopes...)
}
