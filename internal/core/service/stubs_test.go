package service

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/insureline/portal/internal/core/domain"
)

const testJWTSecret = "jwt-test-secret"

func mintToken(exp time.Time) string {
	claims := jwt.RegisteredClaims{Subject: "u1", ExpiresAt: jwt.NewNumericDate(exp)}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	if err != nil {
		panic(err)
	}
	return s
}

type memStorage struct {
	mu      sync.Mutex
	records map[string]domain.PersistedSession
	err     error
	saveErr error
}

func newMemStorage() *memStorage {
	return &memStorage{records: make(map[string]domain.PersistedSession)}
}

func (m *memStorage) Save(_ context.Context, key string, rec domain.PersistedSession, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.records[key] = rec
	return nil
}

func (m *memStorage) Load(_ context.Context, key string) (domain.PersistedSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return domain.PersistedSession{}, m.err
	}
	rec, ok := m.records[key]
	if !ok {
		return domain.PersistedSession{}, domain.ErrNoSession
	}
	return rec, nil
}

func (m *memStorage) HasToken(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	rec, ok := m.records[key]
	return ok && rec.Token != "", nil
}

func (m *memStorage) Clear(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	delete(m.records, key)
	return nil
}

func (m *memStorage) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

type stubAuth struct {
	mu      sync.Mutex
	calls   int
	loginFn func(ctx context.Context, email, password string) (*domain.LoginGrant, error)

	customers []domain.Profile
	agents    []domain.Profile
	listErr   error
}

func (s *stubAuth) Login(ctx context.Context, email, password string) (*domain.LoginGrant, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.loginFn(ctx, email, password)
}

func (s *stubAuth) GetUser(context.Context, string, string) (*domain.Profile, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return nil, &domain.RemoteError{Service: "auth", Status: 404}
}

func (s *stubAuth) UpdateProfile(context.Context, string, string, domain.ProfileUpdate) error {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return nil
}

func (s *stubAuth) ListCustomers(context.Context, string) ([]domain.Profile, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.customers, s.listErr
}

func (s *stubAuth) ListAgents(context.Context, string) ([]domain.Profile, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.agents, s.listErr
}

func (s *stubAuth) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubPolicy struct {
	templates    []domain.PolicyTemplate
	policies     []domain.Policy
	templatesErr error
	policiesErr  error
}

func (s *stubPolicy) ListTemplates(context.Context, string) ([]domain.PolicyTemplate, error) {
	return s.templates, s.templatesErr
}

func (s *stubPolicy) ListCustomerPolicies(context.Context, string, string) ([]domain.Policy, error) {
	return s.policies, s.policiesErr
}

func (s *stubPolicy) Apply(context.Context, string, domain.PolicyApplication) (*domain.PolicyBinding, error) {
	return &domain.PolicyBinding{}, nil
}

type stubClaims struct {
	claims []domain.Claim
	err    error
}

func (s *stubClaims) File(context.Context, string, domain.ClaimFiling) (string, error) {
	return "c-new", nil
}

func (s *stubClaims) ListByCustomer(context.Context, string, string) ([]domain.Claim, error) {
	return s.claims, s.err
}

func (s *stubClaims) ListAll(context.Context, string) ([]domain.Claim, error) {
	return s.claims, s.err
}

func (s *stubClaims) Decide(context.Context, string, string, domain.ClaimDecision) error {
	return nil
}

type recordingSink struct {
	mu     sync.Mutex
	events []domain.AuditEvent
}

func (r *recordingSink) Record(ev domain.AuditEvent) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recordingSink) kinds() []domain.AuditKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.AuditKind, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Kind
	}
	return out
}
