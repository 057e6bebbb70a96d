package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/insureline/portal/internal/core/domain"
	"github.com/insureline/portal/internal/core/ports"
)

// SessionCookie carries the opaque browser session id.
const SessionCookie = "portal_sid"

const (
	ctxSessionID    = "session_id"
	ctxSessionState = "session_state"
	ctxSession      = "session"
)

// Session resolves the session cookie into a session state and stores both
// on the context for the guard and the handlers.
func Session(sessions ports.SessionService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var sid string
			if ck, err := c.Cookie(SessionCookie); err == nil {
				sid = ck.Value
			}
			c.Set(ctxSessionID, sid)
			c.Set(ctxSessionState, sessions.Resolve(c.Request().Context(), sid))
			return next(c)
		}
	}
}

// SessionID returns the raw session id read from the cookie.
func SessionID(c echo.Context) string {
	sid, _ := c.Get(ctxSessionID).(string)
	return sid
}

// StateFrom returns the state resolved by Session.
func StateFrom(c echo.Context) domain.SessionState {
	st, _ := c.Get(ctxSessionState).(domain.SessionState)
	return st
}

// SessionFrom returns the session admitted by Guard.
func SessionFrom(c echo.Context) (*domain.Session, bool) {
	sess, ok := c.Get(ctxSession).(*domain.Session)
	return sess, ok && sess != nil
}

// CookieOptions control how the session cookie is written.
type CookieOptions struct {
	Secure bool
	MaxAge time.Duration
}

// SetSessionCookie binds sid to the browser.
func SetSessionCookie(c echo.Context, sid string, opts CookieOptions) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookie,
		Value:    sid,
		Path:     "/",
		MaxAge:   int(opts.MaxAge / time.Second),
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie removes the session cookie from the browser.
func ClearSessionCookie(c echo.Context, opts CookieOptions) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
