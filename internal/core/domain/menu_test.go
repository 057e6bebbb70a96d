package domain

import "testing"

func TestMenuFor_CustomerOrder(t *testing.T) {
	want := []string{"Profile", "Browse Policies", "My Policies", "File a Claim", "My Claims"}
	got := MenuFor(RoleCustomer)
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(got))
	}
	for i, e := range got {
		if e.Label != want[i] {
			t.Fatalf("entry %d: expected %q, got %q", i, want[i], e.Label)
		}
	}
}

func TestMenuFor_UnknownRoleIsEmpty(t *testing.T) {
	if got := MenuFor(RoleUnknown); len(got) != 0 {
		t.Fatalf("expected empty menu, got %+v", got)
	}
}

func TestMenuFor_ReturnsCopy(t *testing.T) {
	m := MenuFor(RoleAgent)
	m[0].Label = "changed"
	if MenuFor(RoleAgent)[0].Label != "Dashboard" {
		t.Fatalf("registry was mutated through returned slice")
	}
}

func TestMenuFor_RoutesStayUnderRolePrefix(t *testing.T) {
	for _, r := range Roles {
		for _, e := range MenuFor(r) {
			if len(e.Route) < len(r.Slug())+2 || e.Route[1:len(r.Slug())+1] != r.Slug() {
				t.Fatalf("%s entry %q routes outside its prefix: %s", r, e.Label, e.Route)
			}
		}
	}
}

func TestActiveEntry(t *testing.T) {
	entries := MenuFor(RoleCustomer)

	cases := map[string]int{
		"/customer/profile":         0,
		"/customer/policies/browse": 1,
		"/customer/policies":        2,
		"/customer/claims/new":      3,
		"/customer/claims":          4,
		"/customer/claims/C-12":     4,
		"/customer/dashboard":       -1,
		"/customer/profiles":        -1,
	}
	for path, want := range cases {
		if got := ActiveEntry(entries, path); got != want {
			t.Fatalf("ActiveEntry(%q) = %d, want %d", path, got, want)
		}
	}
}
