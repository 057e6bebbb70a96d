package domain

import "strings"

// Role is the closed set of portal roles. The zero value is RoleUnknown and is
// never granted access to anything.
type Role uint8

const (
	RoleUnknown Role = iota
	RoleCustomer
	RoleAgent
	RoleAdmin
)

// Roles lists every assignable role in display order.
var Roles = []Role{RoleCustomer, RoleAgent, RoleAdmin}

// ParseRole maps the wire representation used by the auth service
// ("CUSTOMER", "AGENT", "ADMIN", any case) to a Role.
func ParseRole(s string) (Role, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CUSTOMER":
		return RoleCustomer, true
	case "AGENT":
		return RoleAgent, true
	case "ADMIN":
		return RoleAdmin, true
	default:
		return RoleUnknown, false
	}
}

// String returns the wire representation of the role.
func (r Role) String() string {
	switch r {
	case RoleCustomer:
		return "CUSTOMER"
	case RoleAgent:
		return "AGENT"
	case RoleAdmin:
		return "ADMIN"
	case RoleUnknown:
		return "UNKNOWN"
	default:
		return "UNKNOWN"
	}
}

// Slug is the lower-case path segment under which the role's pages live.
func (r Role) Slug() string {
	switch r {
	case RoleCustomer:
		return "customer"
	case RoleAgent:
		return "agent"
	case RoleAdmin:
		return "admin"
	case RoleUnknown:
		return ""
	default:
		return ""
	}
}

// DefaultDashboard is where a session of this role lands after login and
// where the route guard sends it when it asks for a page of another role.
func (r Role) DefaultDashboard() string {
	switch r {
	case RoleCustomer:
		return "/customer/dashboard"
	case RoleAgent:
		return "/agent/dashboard"
	case RoleAdmin:
		return "/admin/dashboard"
	case RoleUnknown:
		return LoginPath
	default:
		return LoginPath
	}
}

// Valid reports whether r is one of the assignable roles.
func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleAgent || r == RoleAdmin
}

// MarshalText encodes the role as its wire string.
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText decodes a wire string. Unknown values decode to RoleUnknown
// without error; callers check Valid.
func (r *Role) UnmarshalText(b []byte) error {
	*r, _ = ParseRole(string(b))
	return nil
}
