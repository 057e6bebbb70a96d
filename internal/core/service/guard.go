package service

import (
	"net/url"
	"strings"

	"github.com/insureline/portal/internal/core/domain"
)

// GuardOutcome is the result of evaluating a navigation against the session.
type GuardOutcome uint8

const (
	// GuardPending means storage could not confirm the session yet. Nothing
	// is rendered and nobody is redirected.
	GuardPending GuardOutcome = iota
	GuardUnauthenticated
	GuardWrongRole
	GuardAuthorized
)

func (o GuardOutcome) String() string {
	switch o {
	case GuardPending:
		return "pending"
	case GuardUnauthenticated:
		return "unauthenticated"
	case GuardWrongRole:
		return "wrong_role"
	case GuardAuthorized:
		return "authorized"
	default:
		return "unknown"
	}
}

// Decision tells the HTTP layer what to do with a navigation.
type Decision struct {
	Outcome  GuardOutcome
	Location string          // redirect target, set for unauthenticated and wrong role
	Session  *domain.Session // set when authorized
}

// Decide evaluates a navigation to target. An empty required list admits
// any authenticated role.
func Decide(state domain.SessionState, required []domain.Role, target string) Decision {
	if state.Pending {
		return Decision{Outcome: GuardPending}
	}
	sess := state.Session
	if sess == nil || !sess.Role.Valid() {
		return Decision{Outcome: GuardUnauthenticated, Location: LoginRedirect(target)}
	}
	if len(required) > 0 && !hasRole(required, sess.Role) {
		return Decision{Outcome: GuardWrongRole, Location: sess.Role.DefaultDashboard()}
	}
	return Decision{Outcome: GuardAuthorized, Session: sess}
}

func hasRole(roles []domain.Role, r domain.Role) bool {
	for _, x := range roles {
		if x == r {
			return true
		}
	}
	return false
}

// LoginRedirect builds the login URL that returns to target afterwards.
func LoginRedirect(target string) string {
	next := SafeNext(target)
	if next == "" {
		return domain.LoginPath
	}
	return domain.LoginPath + "?" + url.Values{"next": {next}}.Encode()
}

// SafeNext returns target when it is a local absolute path the portal may
// redirect to, and "" otherwise.
func SafeNext(target string) string {
	if target == "" || !strings.HasPrefix(target, "/") {
		return ""
	}
	if strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return ""
	}
	u, err := url.Parse(target)
	if err != nil || u.IsAbs() || u.Host != "" {
		return ""
	}
	if u.Path == domain.LoginPath || u.Path == "/logout" {
		return ""
	}
	return target
}

// PostLoginLocation picks where a freshly logged-in session goes: back to
// next if the role may see it, otherwise the role's default dashboard.
func PostLoginLocation(sess *domain.Session, next string) string {
	dest := sess.Role.DefaultDashboard()
	next = SafeNext(next)
	if next == "" {
		return dest
	}
	if owner := RoleForPath(next); owner.Valid() && owner != sess.Role {
		return dest
	}
	return next
}

// RoleForPath returns the role whose page tree contains path, or
// RoleUnknown for shared paths.
func RoleForPath(path string) domain.Role {
	for _, r := range domain.Roles {
		prefix := "/" + r.Slug()
		if path == prefix || strings.HasPrefix(path, prefix+"/") || strings.HasPrefix(path, prefix+"?") {
			return r
		}
	}
	return domain.RoleUnknown
}
