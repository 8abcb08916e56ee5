package commonground

import "fmt"

// Descriptor addresses a resource on one of the CommonGround components
// without hardcoding URLs. ID is optional; without it the descriptor
// addresses the collection.
type Descriptor struct {
	Component string // component name, e.g. "uc", "cc", "wrc"
	Type      string // resource type, e.g. "users", "tokens", "people"
	ID        string // optional resource id
}

func (d Descriptor) String() string {
	if d.ID == "" {
		return fmt.Sprintf("%s/%s", d.Component, d.Type)
	}
	return fmt.Sprintf("%s/%s/%s", d.Component, d.Type, d.ID)
}
