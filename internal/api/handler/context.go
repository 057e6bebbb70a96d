package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/insureline/portal/internal/api/middleware"
	"github.com/insureline/portal/internal/api/web"
	"github.com/insureline/portal/internal/core/domain"
	"github.com/insureline/portal/internal/core/service"
)

// currentSession returns the session admitted by the guard. A missing
// session means the route was registered without the guard; fail with 401
// rather than render another user's view.
func currentSession(c echo.Context) (*domain.Session, error) {
	sess, ok := middleware.SessionFrom(c)
	if !ok || !sess.Role.Valid() {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing session")
	}
	return sess, nil
}

// notices are the one-shot confirmations carried over a redirect.
var notices = map[string]string{
	"profile_saved": "Profile saved",
	"claim_filed":   "Claim submitted",
	"claim_decided": "Decision recorded",
}

// render wraps a page in the dashboard shell for the current session.
func render(c echo.Context, status int, name, title, flash string, data any) error {
	sess, _ := middleware.SessionFrom(c)
	shell := service.NewShell(sess, c.Request().URL.Path)
	if c.QueryParam("rail") == "collapsed" {
		shell.Toggle()
	}
	return c.Render(status, name, web.Page{
		Title:  title,
		Shell:  shell,
		Flash:  flash,
		Notice: notices[c.QueryParam("notice")],
		Data:   data,
	})
}

// retryURL is the link offered next to a failed listing.
func retryURL(c echo.Context) string {
	return c.Request().URL.RequestURI()
}
