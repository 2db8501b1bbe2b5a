// Package rbac holds the static role-permission table for a pet shop.
//
// The table is parsed from the embedded roles.yaml once at init and never
// changes afterwards. Lookups are literal membership: there is no role
// inheritance and no wildcard.
package rbac

import (
	_ "embed"
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"
)

// Role is a staff role within a shop.
type Role string

const (
	RoleOwner     Role = "owner"
	RoleAdmin     Role = "admin"
	RoleGroomer   Role = "groomer"
	RoleAttendant Role = "attendant"
)

// Permission is a flat capability string.
type Permission string

const (
	ManageShop         Permission = "manage_shop"
	ManageSettings     Permission = "manage_settings"
	ManageStaff        Permission = "manage_staff"
	ManageClients      Permission = "manage_clients"
	ManagePets         Permission = "manage_pets"
	ManageServices     Permission = "manage_services"
	ManageAppointments Permission = "manage_appointments"
	ViewClients        Permission = "view_clients"
	ViewReports        Permission = "view_reports"
	ViewDashboard      Permission = "view_dashboard"
)

// DefaultRole is assigned when a user has no profile row yet.
const DefaultRole = RoleAttendant

//go:embed roles.yaml
var rolesYAML []byte

type document struct {
	Roles map[Role][]Permission `yaml:"roles"`
}

var table map[Role][]Permission

func init() {
	t, err := parse(rolesYAML)
	if err != nil {
		panic(err)
	}
	table = t
}

func parse(data []byte) (map[Role][]Permission, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("rbac: parse roles: %w", err)
	}
	for _, r := range Roles() {
		if _, ok := doc.Roles[r]; !ok {
			return nil, fmt.Errorf("rbac: role %q missing from table", r)
		}
	}
	for r := range doc.Roles {
		if !r.Valid() {
			return nil, fmt.Errorf("rbac: unknown role %q in table", r)
		}
	}
	return doc.Roles, nil
}

// Roles lists every role, most privileged first.
func Roles() []Role {
	return []Role{RoleOwner, RoleAdmin, RoleGroomer, RoleAttendant}
}

// Valid reports whether r is one of the four known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleGroomer, RoleAttendant:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// ParseRole returns the Role named by s.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("rbac: unknown role %q", s)
	}
	return r, nil
}

// HasPermission reports whether p is listed for role. Unknown roles have
// no permissions.
func HasPermission(role Role, p Permission) bool {
	return slices.Contains(table[role], p)
}

// Permissions returns a copy of the role's permission list. Unknown roles
// return an empty, non-nil slice.
func Permissions(role Role) []Permission {
	perms := table[role]
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}

// HasAny reports whether have contains at least one of required. A nil
// have is treated as empty.
func HasAny(have []Permission, required ...Permission) bool {
	for _, want := range required {
		if slices.Contains(have, want) {
			return true
		}
	}
	return false
}

// CanAssign reports whether a user holding actor may hand out target when
// inviting staff. Owners may create any role but owner; admins may create
// groomers and attendants.
func CanAssign(actor, target Role) bool {
	switch actor {
	case RoleOwner:
		return target == RoleAdmin || target == RoleGroomer || target == RoleAttendant
	case RoleAdmin:
		return target == RoleGroomer || target == RoleAttendant
	}
	return false
}
