package domain

import "time"

// Session is the authenticated actor behind one browser session. It is owned
// by the session service; everything else receives read-only copies.
type Session struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session's token is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Identity is the JSON record persisted next to the bearer token.
type Identity struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Phone     string    `json:"phonenumber,omitempty"`
	Email     string    `json:"email,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IdentityOf builds the persisted identity record for s.
func IdentityOf(s *Session) Identity {
	return Identity{
		ID:        s.ID,
		Username:  s.Username,
		Role:      s.Role.String(),
		Phone:     s.Phone,
		Email:     s.Email,
		ExpiresAt: s.ExpiresAt,
	}
}

// PersistedSession is the pair of durable entries kept per browser session.
// Both halves are written, read and cleared together.
type PersistedSession struct {
	Token    string
	Identity []byte
}

// SessionState is what the route guard sees for a request.
//   - Pending: durable storage could not be read yet; neither a session nor
//     its absence is known.
//   - Session nil and not Pending: unauthenticated.
type SessionState struct {
	Pending bool
	Session *Session
}
