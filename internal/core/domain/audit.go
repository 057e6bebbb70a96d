package domain

import "time"

// AuditKind names a session lifecycle event worth keeping.
type AuditKind string

const (
	AuditLoginSucceeded   AuditKind = "login_succeeded"
	AuditLoginFailed      AuditKind = "login_failed"
	AuditLogout           AuditKind = "logout"
	AuditSessionDiscarded AuditKind = "session_discarded"
	AuditRoleRedirect     AuditKind = "role_redirect"
)

// AuditEvent records one session lifecycle event.
type AuditEvent struct {
	Kind       AuditKind
	SessionKey string // storage key of the session, never the raw cookie
	UserID     string
	Role       Role
	Email      string
	Path       string
	Reason     string
	At         time.Time
}
