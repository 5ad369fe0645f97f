package rbac

import "strings"

// ResourceKind names a class of records.
type ResourceKind string

// Resource kinds rendered by the admin UI.
const (
	ResourceClients    ResourceKind = "clients"
	ResourceContacts   ResourceKind = "contacts"
	ResourceEmployees  ResourceKind = "employees"
	ResourceBusinesses ResourceKind = "businesses"
	ResourcePipelines  ResourceKind = "pipelines"
)

// ResourceKinds lists every known resource kind.
var ResourceKinds = []ResourceKind{ //nolint:gochecknoglobals
	ResourceClients, ResourceContacts, ResourceEmployees, ResourceBusinesses, ResourcePipelines,
}

// ParseResourceKind returns the kind named s.
func ParseResourceKind(s string) (ResourceKind, bool) {
	for _, k := range ResourceKinds {
		if string(k) == strings.ToLower(s) {
			return k, true
		}
	}

	return "", false
}

// Capabilities tells whether record affordances are rendered for a resource.
type Capabilities struct {
	Resource  ResourceKind `json:"resource"`
	CanView   bool         `json:"canView"`
	CanCreate bool         `json:"canCreate"`
	CanEdit   bool         `json:"canEdit"`
	CanDelete bool         `json:"canDelete"`
}

// Resolve folds the role's flags into capabilities. An action is enabled when
// any of its scopes is set; which rows are visible is enforced by the database.
// A nil role yields no capabilities.
func Resolve(role *Role, kind ResourceKind) Capabilities {
	caps := Capabilities{Resource: kind}
	if role == nil {
		return caps
	}

	caps.CanView = role.Flags.Any(ActionView)
	caps.CanCreate = role.Flags.Any(ActionCreate)
	caps.CanEdit = role.Flags.Any(ActionEdit)
	caps.CanDelete = role.Flags.Any(ActionDelete)

	return caps
}

// Allows reports whether the capability for action is enabled.
func (c Capabilities) Allows(action Action) bool {
	switch action {
	case ActionView:
		return c.CanView
	case ActionCreate:
		return c.CanCreate
	case ActionEdit:
		return c.CanEdit
	case ActionDelete:
		return c.CanDelete
	default:
		return false
	}
}
