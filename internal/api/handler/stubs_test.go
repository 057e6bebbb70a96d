package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/insureline/portal/internal/api/middleware"
	"github.com/insureline/portal/internal/api/web"
	"github.com/insureline/portal/internal/core/domain"
)

type stubSessions struct {
	mu        sync.Mutex
	state     domain.SessionState
	loginFn   func(ctx context.Context, sid, email, password string) (*domain.Session, error)
	loggedIn  []string
	loggedOut []string
	forgotten []string
}

func (s *stubSessions) Login(ctx context.Context, sid, email, password string) (*domain.Session, error) {
	s.mu.Lock()
	s.loggedIn = append(s.loggedIn, sid)
	s.mu.Unlock()
	return s.loginFn(ctx, sid, email, password)
}

func (s *stubSessions) Logout(_ context.Context, sid string) error {
	s.mu.Lock()
	s.loggedOut = append(s.loggedOut, sid)
	s.mu.Unlock()
	return nil
}

func (s *stubSessions) Forget(_ context.Context, sid string) {
	s.mu.Lock()
	s.forgotten = append(s.forgotten, sid)
	s.mu.Unlock()
}

func (s *stubSessions) IsAuthenticated(context.Context, string) bool {
	return s.state.Session != nil
}

func (s *stubSessions) CurrentUser(string) (*domain.Session, bool) {
	return s.state.Session, s.state.Session != nil
}

func (s *stubSessions) Resolve(context.Context, string) domain.SessionState {
	return s.state
}

type stubAuth struct {
	getUserFn   func(id string) (*domain.Profile, error)
	updated     *domain.ProfileUpdate
	updateErr   error
	customers   []domain.Profile
	customerErr error
	agents      []domain.Profile
}

func (s *stubAuth) Login(context.Context, string, string) (*domain.LoginGrant, error) {
	return nil, domain.ErrInvalidCredentials
}

func (s *stubAuth) GetUser(_ context.Context, _ string, id string) (*domain.Profile, error) {
	if s.getUserFn == nil {
		return nil, &domain.RemoteError{Service: "auth", Status: 404}
	}
	return s.getUserFn(id)
}

func (s *stubAuth) UpdateProfile(_ context.Context, _ string, _ string, u domain.ProfileUpdate) error {
	s.updated = &u
	return s.updateErr
}

func (s *stubAuth) ListCustomers(context.Context, string) ([]domain.Profile, error) {
	return s.customers, s.customerErr
}

func (s *stubAuth) ListAgents(context.Context, string) ([]domain.Profile, error) {
	return s.agents, nil
}

type stubPolicy struct {
	templates   []domain.PolicyTemplate
	templateErr error
	policies    []domain.Policy
	policyErr   error
	applied     *domain.PolicyApplication
	applyErr    error
}

func (s *stubPolicy) ListTemplates(context.Context, string) ([]domain.PolicyTemplate, error) {
	return s.templates, s.templateErr
}

func (s *stubPolicy) ListCustomerPolicies(context.Context, string, string) ([]domain.Policy, error) {
	return s.policies, s.policyErr
}

func (s *stubPolicy) Apply(_ context.Context, _ string, app domain.PolicyApplication) (*domain.PolicyBinding, error) {
	s.applied = &app
	if s.applyErr != nil {
		return nil, s.applyErr
	}
	return &domain.PolicyBinding{AgentAssigned: "ag-7"}, nil
}

type stubClaims struct {
	mu       sync.Mutex
	claims   []domain.Claim
	listErr  error
	failures int // ListByCustomer fails this many times before answering
	filed   *domain.ClaimFiling
	fileErr error
	decided map[string]domain.ClaimDecision
}

func (s *stubClaims) File(_ context.Context, _ string, f domain.ClaimFiling) (string, error) {
	s.filed = &f
	if s.fileErr != nil {
		return "", s.fileErr
	}
	return "c-new", nil
}

func (s *stubClaims) ListByCustomer(context.Context, string, string) ([]domain.Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		return nil, &domain.RemoteError{Service: "claims", Status: http.StatusBadGateway}
	}
	return s.claims, s.listErr
}

func (s *stubClaims) ListAll(context.Context, string) ([]domain.Claim, error) {
	return s.claims, s.listErr
}

func (s *stubClaims) Decide(_ context.Context, _ string, id string, d domain.ClaimDecision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.decided == nil {
		s.decided = map[string]domain.ClaimDecision{}
	}
	s.decided[id] = d
	return nil
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Renderer = web.MustRenderer()
	e.Validator = NewValidator()
	return e
}

func sessionOf(role domain.Role) *domain.Session {
	return &domain.Session{ID: "u1", Username: "alice", Role: role, Token: "tok", Email: "alice@example.com"}
}

// call runs h behind the session middleware and guard, the way the router
// mounts it.
func call(e *echo.Echo, sessions *stubSessions, method, target string, form url.Values, h echo.HandlerFunc, roles ...domain.Role) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: "sid-old"})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	chain := middleware.Session(sessions)(middleware.Guard(nil, roles...)(h))
	if err := chain(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}
