package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/insureline/portal/internal/api/handler"
	"github.com/insureline/portal/internal/core/domain"
)

type fixedSessions struct {
	state domain.SessionState
}

func (s fixedSessions) Login(context.Context, string, string, string) (*domain.Session, error) {
	return nil, domain.ErrInvalidCredentials
}
func (s fixedSessions) Logout(context.Context, string) error { return nil }
func (s fixedSessions) Forget(context.Context, string) {}
func (s fixedSessions) IsAuthenticated(context.Context, string) bool { return s.state.Session != nil }
func (s fixedSessions) CurrentUser(string) (*domain.Session, bool) {
	return s.state.Session, s.state.Session != nil
}
func (s fixedSessions) Resolve(context.Context, string) domain.SessionState { return s.state }

func newTestRouter(t *testing.T, state domain.SessionState) http.Handler {
	t.Helper()
	reg := prometheus.NewRegistry()
	e, err := NewRouter(Dependencies{
		Sessions:   fixedSessions{state: state},
		Checks:     map[string]handler.Check{"redis": func(context.Context) error { return nil }},
		Registerer: reg,
		Gatherer:   reg,
		Log:        zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("router: %v", err)
	}
	return e
}

func do(h http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestRouter_Unauthenticated(t *testing.T) {
	h := newTestRouter(t, domain.SessionState{})

	tests := []struct {
		target string
		code   int
		loc    string
	}{
		{"/health", http.StatusOK, ""},
		{"/health/ready", http.StatusOK, ""},
		{"/login", http.StatusOK, ""},
		{"/", http.StatusSeeOther, "/login"},
		{"/agent/claims?status=PENDING", http.StatusSeeOther, "/login?next=%2Fagent%2Fclaims%3Fstatus%3DPENDING"},
		{"/api/session", http.StatusUnauthorized, ""},
	}
	for _, tc := range tests {
		rec := do(h, http.MethodGet, tc.target)
		if rec.Code != tc.code || rec.Header().Get("Location") != tc.loc {
			t.Fatalf("%s: expected %d %q, got %d %q", tc.target, tc.code, tc.loc, rec.Code, rec.Header().Get("Location"))
		}
	}
}

func TestRouter_WrongRoleGoesHome(t *testing.T) {
	sess := &domain.Session{ID: "u1", Username: "carol", Role: domain.RoleCustomer, Token: "tok"}
	h := newTestRouter(t, domain.SessionState{Session: sess})

	rec := do(h, http.MethodGet, "/admin/agents")
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/customer/dashboard" {
		t.Fatalf("expected customer dashboard, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestRouter_PendingShowsWaitingPage(t *testing.T) {
	h := newTestRouter(t, domain.SessionState{Pending: true})

	rec := do(h, http.MethodGet, "/customer/claims")
	if rec.Code != http.StatusServiceUnavailable || rec.Header().Get("Retry-After") != "1" {
		t.Fatalf("expected waiting page, got %d", rec.Code)
	}
}

func TestRouter_Metrics(t *testing.T) {
	h := newTestRouter(t, domain.SessionState{})
	do(h, http.MethodGet, "/login")

	rec := do(h, http.MethodGet, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected metrics endpoint, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "portal_requests_total") {
		t.Fatalf("expected request counter from the router registry, got %s", rec.Body.String())
	}
}
