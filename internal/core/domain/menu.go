package domain

import "strings"

// LoginPath is the unauthenticated entry point of the portal.
const LoginPath = "/login"

// NavEntry is one item of the navigation rail.
type NavEntry struct {
	Label string
	Icon  string
	Route string
}

var menus = map[Role][]NavEntry{
	RoleCustomer: {
		{Label: "Profile", Icon: "user", Route: "/customer/profile"},
		{Label: "Browse Policies", Icon: "book", Route: "/customer/policies/browse"},
		{Label: "My Policies", Icon: "file-text", Route: "/customer/policies"},
		{Label: "File a Claim", Icon: "plus-circle", Route: "/customer/claims/new"},
		{Label: "My Claims", Icon: "list", Route: "/customer/claims"},
	},
	RoleAgent: {
		{Label: "Dashboard", Icon: "home", Route: "/agent/dashboard"},
		{Label: "Claims Queue", Icon: "inbox", Route: "/agent/claims"},
		{Label: "Customers", Icon: "users", Route: "/agent/customers"},
		{Label: "Profile", Icon: "user", Route: "/agent/profile"},
	},
	RoleAdmin: {
		{Label: "Dashboard", Icon: "home", Route: "/admin/dashboard"},
		{Label: "Customers", Icon: "users", Route: "/admin/customers"},
		{Label: "Agents", Icon: "briefcase", Route: "/admin/agents"},
		{Label: "Policy Templates", Icon: "layers", Route: "/admin/policies"},
		{Label: "Claims", Icon: "inbox", Route: "/admin/claims"},
	},
}

// MenuFor returns the navigation entries visible to role, in display order.
// The returned slice is a copy. An unknown role gets an empty menu.
func MenuFor(r Role) []NavEntry {
	entries := menus[r]
	out := make([]NavEntry, len(entries))
	copy(out, entries)
	return out
}

// ActiveEntry returns the index of the entry matching path: an exact route
// match wins, otherwise the longest route that prefixes path on a segment
// boundary. It returns -1 when nothing matches.
func ActiveEntry(entries []NavEntry, path string) int {
	best, bestLen := -1, 0
	for i, e := range entries {
		if e.Route == path {
			return i
		}
		if strings.HasPrefix(path, e.Route+"/") && len(e.Route) > bestLen {
			best, bestLen = i, len(e.Route)
		}
	}
	return best
}
