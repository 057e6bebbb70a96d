package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/insureline/portal/internal/api/metrics"
	"github.com/insureline/portal/internal/core/domain"
	"github.com/insureline/portal/internal/core/ports"
	"github.com/insureline/portal/internal/core/service"
)

// WaitingPage is the template rendered while the session cannot be resolved.
const WaitingPage = "waiting"

// Guard admits a request only when the session resolved by Session holds one
// of roles. With no roles any authenticated session is admitted.
//   - pending: neutral waiting page, 503 with Retry-After
//   - no session: 303 to the login page, returning here afterwards
//   - other role: 303 to the session's own dashboard
//
// JSON endpoints under /api get status codes instead of redirects.
func Guard(audit ports.AuditSink, roles ...domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			d := service.Decide(StateFrom(c), roles, req.URL.RequestURI())
			metrics.GuardDecisionsTotal.WithLabelValues(d.Outcome.String()).Inc()
			api := isAPI(c)

			switch d.Outcome {
			case service.GuardAuthorized:
				c.Set(ctxSession, d.Session)
				return next(c)

			case service.GuardPending:
				c.Response().Header().Set("Retry-After", "1")
				if api {
					return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "session pending"})
				}
				if c.Echo().Renderer == nil {
					return c.String(http.StatusServiceUnavailable, "Restoring your session…")
				}
				return c.Render(http.StatusServiceUnavailable, WaitingPage, nil)

			case service.GuardUnauthenticated:
				if api {
					return c.JSON(http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
				}
				return c.Redirect(http.StatusSeeOther, d.Location)

			case service.GuardWrongRole:
				if audit != nil {
					sess := StateFrom(c).Session
					audit.Record(domain.AuditEvent{
						Kind:   domain.AuditRoleRedirect,
						UserID: sess.ID,
						Role:   sess.Role,
						Path:   req.URL.Path,
					})
				}
				if api {
					return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
				}
				return c.Redirect(http.StatusSeeOther, d.Location)

			default:
				return echo.NewHTTPError(http.StatusInternalServerError)
			}
		}
	}
}

func isAPI(c echo.Context) bool {
	return strings.HasPrefix(c.Request().URL.Path, "/api/")
}
