package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/insureline/portal/internal/core/domain"
	"github.com/insureline/portal/internal/core/ports"
)

const defaultRehydrateTimeout = 2 * time.Second

// SessionConfig carries the session store settings.
type SessionConfig struct {
	// Secret keys the MAC that turns cookie values into storage keys.
	Secret []byte
	// TTL caps how long a session lives regardless of token expiry.
	TTL time.Duration
	// JWTSecret, when set, is used to verify auth service tokens.
	JWTSecret string
	// RehydrateTimeout bounds each durable storage lookup done on behalf
	// of a request.
	RehydrateTimeout time.Duration
}

// SessionService is the single source of truth for who is logged in behind
// each browser session. Durable storage holds the token and identity; the
// in-memory map holds sessions this process has already seen.
type SessionService struct {
	storage ports.SessionStorage
	auth    ports.AuthGateway
	audit   ports.AuditSink
	tokens  *TokenValidator
	keys    sessionKeyer
	timeout time.Duration
	now     func() time.Time
	log     zerolog.Logger

	mu       sync.RWMutex
	sessions map[string]*domain.Session
}

func NewSessionService(
	storage ports.SessionStorage,
	auth ports.AuthGateway,
	audit ports.AuditSink,
	cfg SessionConfig,
	log zerolog.Logger,
) *SessionService {
	timeout := cfg.RehydrateTimeout
	if timeout <= 0 {
		timeout = defaultRehydrateTimeout
	}
	return &SessionService{
		storage:  storage,
		auth:     auth,
		audit:    audit,
		tokens:   NewTokenValidator(cfg.JWTSecret, cfg.TTL),
		keys:     newSessionKeyer(cfg.Secret),
		timeout:  timeout,
		now:      time.Now,
		log:      log,
		sessions: make(map[string]*domain.Session),
	}
}

// Login exchanges credentials with the auth service and, on success, binds
// the resulting session to sid. On any failure nothing is written and any
// session already bound to sid is left as it was.
func (s *SessionService) Login(ctx context.Context, sid, email, password string) (*domain.Session, error) {
	key := s.keys.key(sid)

	sess, err := s.exchange(ctx, email, password)
	if err != nil {
		s.record(domain.AuditEvent{Kind: domain.AuditLoginFailed, SessionKey: key, Email: email, Reason: err.Error()})
		s.log.Info().Err(err).Str("email", email).Msg("login failed")
		return nil, fmt.Errorf("login: %w", err)
	}

	identity, err := json.Marshal(domain.IdentityOf(sess))
	if err != nil {
		return nil, fmt.Errorf("login: encode identity: %w", err)
	}

	ttl := sess.ExpiresAt.Sub(s.now())
	rec := domain.PersistedSession{Token: sess.Token, Identity: identity}
	if err := s.storage.Save(ctx, key, rec, ttl); err != nil {
		s.record(domain.AuditEvent{Kind: domain.AuditLoginFailed, SessionKey: key, Email: email, Reason: "persist session"})
		s.log.Error().Err(err).Str("user_id", sess.ID).Msg("failed to persist session")
		return nil, fmt.Errorf("login: persist session: %w", err)
	}

	s.remember(key, sess)
	s.record(domain.AuditEvent{Kind: domain.AuditLoginSucceeded, SessionKey: key, UserID: sess.ID, Role: sess.Role, Email: sess.Email})
	s.log.Info().Str("user_id", sess.ID).Str("role", sess.Role.String()).Msg("login succeeded")

	return clone(sess), nil
}

func (s *SessionService) exchange(ctx context.Context, email, password string) (*domain.Session, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	grant, err := s.auth.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	role, ok := domain.ParseRole(grant.Role)
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedRole, grant.Role)
	}
	if grant.ID == "" {
		return nil, fmt.Errorf("%w: missing user id", domain.ErrInvalidToken)
	}

	expiresAt, err := s.tokens.Expiry(grant.Token, s.now())
	if err != nil {
		return nil, err
	}

	contact := grant.Email
	if contact == "" {
		contact = strings.TrimSpace(email)
	}

	return &domain.Session{
		ID:        grant.ID.String(),
		Username:  grant.Username,
		Role:      role,
		Phone:     grant.Phone,
		Email:     contact,
		Token:     grant.Token,
		ExpiresAt: expiresAt,
	}, nil
}

// Logout destroys the session bound to sid, in memory and in storage.
func (s *SessionService) Logout(ctx context.Context, sid string) error {
	key := s.keys.key(sid)
	sess := s.drop(key)

	ev := domain.AuditEvent{Kind: domain.AuditLogout, SessionKey: key}
	if sess != nil {
		ev.UserID, ev.Role, ev.Email = sess.ID, sess.Role, sess.Email
	}
	s.record(ev)

	if err := s.storage.Clear(ctx, key); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// Forget drops whatever is bound to sid without recording a logout. It is
// used for the previous id when a login rotates the session cookie.
func (s *SessionService) Forget(ctx context.Context, sid string) {
	if sid == "" {
		return
	}
	key := s.keys.key(sid)
	s.drop(key)
	if err := s.storage.Clear(ctx, key); err != nil {
		s.log.Warn().Err(err).Msg("failed to clear rotated session")
	}
}

// IsAuthenticated reports whether sid has an in-memory session that has not
// expired and whose token is still present in durable storage.
func (s *SessionService) IsAuthenticated(ctx context.Context, sid string) bool {
	key := s.keys.key(sid)

	sess, ok := s.cached(key)
	if !ok {
		return false
	}
	if sess.Expired(s.now()) {
		s.discard(ctx, key, sess, "expired")
		return false
	}

	has, err := s.storage.HasToken(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Msg("token lookup failed")
		return false
	}
	if !has {
		s.drop(key)
		return false
	}
	return true
}

// CurrentUser returns the in-memory session bound to sid.
func (s *SessionService) CurrentUser(sid string) (*domain.Session, bool) {
	sess, ok := s.cached(s.keys.key(sid))
	if !ok || sess.Expired(s.now()) {
		return nil, false
	}
	return clone(sess), true
}

// Rehydrate rebuilds the session bound to sid from durable storage. A
// record that cannot be decoded is cleared and reported as ErrNoSession, so
// a second attempt behaves the same. Storage failures are reported as
// ErrSessionPending.
func (s *SessionService) Rehydrate(ctx context.Context, sid string) (*domain.Session, error) {
	return s.rehydrate(ctx, s.keys.key(sid))
}

func (s *SessionService) rehydrate(ctx context.Context, key string) (*domain.Session, error) {
	rec, err := s.storage.Load(ctx, key)
	if errors.Is(err, domain.ErrNoSession) {
		return nil, domain.ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSessionPending, err)
	}

	sess, err := s.decode(rec)
	if err != nil {
		s.discard(ctx, key, nil, err.Error())
		return nil, domain.ErrNoSession
	}

	s.remember(key, sess)
	return clone(sess), nil
}

func (s *SessionService) decode(rec domain.PersistedSession) (*domain.Session, error) {
	if rec.Token == "" || len(rec.Identity) == 0 {
		return nil, errors.New("incomplete session record")
	}

	var id domain.Identity
	if err := json.Unmarshal(rec.Identity, &id); err != nil {
		return nil, fmt.Errorf("decode identity: %w", err)
	}
	role, ok := domain.ParseRole(id.Role)
	if !ok || id.ID == "" {
		return nil, errors.New("identity missing id or role")
	}

	now := s.now()
	expiresAt, err := s.tokens.Expiry(rec.Token, now)
	if err != nil {
		return nil, err
	}
	if !id.ExpiresAt.IsZero() && id.ExpiresAt.Before(expiresAt) {
		expiresAt = id.ExpiresAt
	}
	if !now.Before(expiresAt) {
		return nil, errors.New("session expired")
	}

	return &domain.Session{
		ID:        id.ID,
		Username:  id.Username,
		Role:      role,
		Phone:     id.Phone,
		Email:     id.Email,
		Token:     rec.Token,
		ExpiresAt: expiresAt,
	}, nil
}

// Resolve reports the session state the route guard acts on. Each storage
// lookup is bounded by the rehydrate timeout; a lookup that cannot complete
// yields a pending state rather than an unauthenticated one.
func (s *SessionService) Resolve(ctx context.Context, sid string) domain.SessionState {
	if sid == "" {
		return domain.SessionState{}
	}
	key := s.keys.key(sid)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if sess, ok := s.cached(key); ok {
		if sess.Expired(s.now()) {
			s.discard(ctx, key, sess, "expired")
			return domain.SessionState{}
		}
		has, err := s.storage.HasToken(ctx, key)
		if err != nil {
			s.log.Warn().Err(err).Msg("session storage unavailable")
			return domain.SessionState{Pending: true}
		}
		if !has {
			s.drop(key)
			return domain.SessionState{}
		}
		return domain.SessionState{Session: clone(sess)}
	}

	sess, err := s.rehydrate(ctx, key)
	switch {
	case err == nil:
		return domain.SessionState{Session: sess}
	case errors.Is(err, domain.ErrSessionPending):
		s.log.Warn().Err(err).Msg("session rehydration pending")
		return domain.SessionState{Pending: true}
	default:
		return domain.SessionState{}
	}
}

// Sweep evicts in-memory sessions that expired before now. Durable entries
// expire on their own TTL.
func (s *SessionService) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for key, sess := range s.sessions {
		if sess.Expired(now) {
			delete(s.sessions, key)
			n++
		}
	}
	return n
}

// StartJanitor sweeps expired sessions every interval until ctx is done.
func (s *SessionService) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.log.Info().Msg("session janitor stopped")
				return
			case <-ticker.C:
				if n := s.Sweep(s.now()); n > 0 {
					s.log.Debug().Int("count", n).Msg("expired sessions evicted")
				}
			}
		}
	}()
}

// Active returns the number of sessions held in memory.
func (s *SessionService) Active() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *SessionService) discard(ctx context.Context, key string, sess *domain.Session, reason string) {
	s.drop(key)
	if err := s.storage.Clear(ctx, key); err != nil {
		s.log.Warn().Err(err).Msg("failed to clear discarded session")
	}

	ev := domain.AuditEvent{Kind: domain.AuditSessionDiscarded, SessionKey: key, Reason: reason}
	if sess != nil {
		ev.UserID, ev.Role = sess.ID, sess.Role
	}
	s.record(ev)
	s.log.Info().Str("reason", reason).Msg("session discarded")
}

func (s *SessionService) cached(key string) (*domain.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[key]
	return sess, ok
}

func (s *SessionService) remember(key string, sess *domain.Session) {
	s.mu.Lock()
	s.sessions[key] = clone(sess)
	s.mu.Unlock()
}

func (s *SessionService) drop(key string) *domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.sessions[key]
	delete(s.sessions, key)
	return sess
}

func (s *SessionService) record(ev domain.AuditEvent) {
	if s.audit == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = s.now().UTC()
	}
	s.audit.Record(ev)
}

func clone(sess *domain.Session) *domain.Session {
	if sess == nil {
		return nil
	}
	c := *sess
	return &c
}
