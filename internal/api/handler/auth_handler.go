package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/insureline/portal/internal/api/metrics"
	"github.com/insureline/portal/internal/api/middleware"
	"github.com/insureline/portal/internal/api/web"
	"github.com/insureline/portal/internal/core/domain"
	"github.com/insureline/portal/internal/core/ports"
	"github.com/insureline/portal/internal/core/service"
)

const loginPage = "login"

type AuthHandler struct {
	sessions ports.SessionService
	cookie   middleware.CookieOptions
	log      zerolog.Logger
	now      func() time.Time
	newID    func() string
}

func NewAuthHandler(sessions ports.SessionService, cookie middleware.CookieOptions, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		sessions: sessions,
		cookie:   cookie,
		log:      log,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// LoginPage renders the sign-in form. A browser that is already signed in
// goes straight to its dashboard.
func (h *AuthHandler) LoginPage(c echo.Context) error {
	next := service.SafeNext(c.QueryParam("next"))
	if sess := middleware.StateFrom(c).Session; sess != nil {
		return c.Redirect(http.StatusSeeOther, service.PostLoginLocation(sess, next))
	}
	return h.renderLogin(c, http.StatusOK, "", next)
}

// Login authenticates against the auth service and starts a session.
//
// @Summary      Sign in
// @Tags         session
// @Accept       x-www-form-urlencoded
// @Produce      html
// @Param        email     formData  string  true   "Email"
// @Param        password  formData  string  true   "Password"
// @Param        next      formData  string  false  "Local path to return to"
// @Success      303
// @Failure      401  {string}  string  "login page with a notification"
// @Failure      422  {string}  string  "login page with a notification"
// @Router       /login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var form loginForm
	if err := c.Bind(&form); err != nil {
		return h.renderLogin(c, http.StatusBadRequest, "Invalid request", "")
	}
	next := service.SafeNext(form.Next)
	if err := c.Validate(&form); err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("invalid_form").Inc()
		return h.renderLogin(c, http.StatusUnprocessableEntity, err.Error(), next)
	}

	sid := h.newID()
	sess, err := h.sessions.Login(c.Request().Context(), sid, form.Email, form.Password)
	if err != nil {
		status, result := loginFailureStatus(err)
		metrics.LoginAttemptsTotal.WithLabelValues(result).Inc()
		return h.renderLogin(c, status, domain.LoginFailureReason(err), next)
	}
	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()

	// Rotate the session id so a cookie planted before login is useless.
	if old := middleware.SessionID(c); old != "" && old != sid {
		h.sessions.Forget(c.Request().Context(), old)
	}
	middleware.SetSessionCookie(c, sid, middleware.CookieOptions{
		Secure: h.cookie.Secure,
		MaxAge: sess.ExpiresAt.Sub(h.now()),
	})

	return c.Redirect(http.StatusSeeOther, service.PostLoginLocation(sess, next))
}

func loginFailureStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials"
	case errors.Is(err, domain.ErrUnsupportedRole):
		return http.StatusForbidden, "unsupported_role"
	case errors.Is(err, domain.ErrInvalidToken):
		return http.StatusBadGateway, "invalid_token"
	}
	if domain.Classify(err).Kind == domain.FailureNotFound {
		return http.StatusUnauthorized, "invalid_credentials"
	}
	return http.StatusBadGateway, "error"
}

func (h *AuthHandler) renderLogin(c echo.Context, status int, flash, next string) error {
	return c.Render(status, loginPage, web.Page{
		Title: "Sign in",
		Flash: flash,
		Data:  web.LoginView{Next: next},
	})
}

// Logout ends the session and returns to the login page.
//
// @Summary      Sign out
// @Tags         session
// @Success      303
// @Router       /logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	if sid := middleware.SessionID(c); sid != "" {
		if err := h.sessions.Logout(c.Request().Context(), sid); err != nil {
			h.log.Warn().Err(err).Msg("logout did not clear durable session")
		}
	}
	middleware.ClearSessionCookie(c, h.cookie)
	return c.Redirect(http.StatusSeeOther, domain.LoginPath)
}

// Root sends the browser to its dashboard, or to the login page.
func (h *AuthHandler) Root(c echo.Context) error {
	state := middleware.StateFrom(c)
	switch {
	case state.Pending:
		c.Response().Header().Set("Retry-After", "1")
		return c.Render(http.StatusServiceUnavailable, middleware.WaitingPage, nil)
	case state.Session == nil:
		return c.Redirect(http.StatusSeeOther, domain.LoginPath)
	default:
		return c.Redirect(http.StatusSeeOther, state.Session.Role.DefaultDashboard())
	}
}

// SessionInfo returns the signed-in user.
//
// @Summary      Current session
// @Tags         session
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Failure      401  {object}  errorResponse
// @Failure      503  {object}  errorResponse
// @Router       /api/session [get]
func (h *AuthHandler) SessionInfo(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sessionResponse{
		ID:        sess.ID,
		Username:  sess.Username,
		Role:      sess.Role.String(),
		Email:     sess.Email,
		Phone:     sess.Phone,
		ExpiresAt: sess.ExpiresAt.UTC().Format(time.RFC3339),
		Dashboard: sess.Role.DefaultDashboard(),
	})
}
