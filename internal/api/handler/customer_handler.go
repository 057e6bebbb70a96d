package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/insureline/portal/internal/api/web"
	"github.com/insureline/portal/internal/core/domain"
	"github.com/insureline/portal/internal/core/service"
)

const (
	profilePage        = "profile"
	policiesBrowsePage = "policies_browse"
	policiesMinePage   = "policies_mine"
	claimNewPage       = "claim_new"
	claimsMinePage     = "claims_mine"
)

// CustomerHandler serves the customer pages and the profile page shared by
// every role. Each page is a thin pass-through to one collaborator.
type CustomerHandler struct {
	gateways service.Gateways
	log      zerolog.Logger
}

func NewCustomerHandler(gw service.Gateways, log zerolog.Logger) *CustomerHandler {
	return &CustomerHandler{gateways: gw, log: log}
}

// Profile renders the signed-in user's profile.
func (h *CustomerHandler) Profile(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return err
	}

	view := web.ProfileView{Action: c.Request().URL.Path, Profile: fallbackProfile(sess)}
	p, err := h.gateways.Auth.GetUser(c.Request().Context(), sess.Token, sess.ID)
	switch {
	case err == nil:
		view.Profile = *p
	case !domain.Classify(err).Empty():
		view.Error = domain.Classify(err).Reason
	}
	return render(c, http.StatusOK, profilePage, "Profile", "", view)
}

func fallbackProfile(sess *domain.Session) domain.Profile {
	return domain.Profile{ID: domain.ID(sess.ID), Username: sess.Username, Email: sess.Email, Phone: sess.Phone}
}

// UpdateProfile saves profile edits through the auth service.
func (h *CustomerHandler) UpdateProfile(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return err
	}

	var form profileForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	update := domain.ProfileUpdate{Username: form.Username, Email: form.Email, Phone: form.Phone, Address: form.Address}
	view := web.ProfileView{
		Action:  c.Request().URL.Path,
		Profile: domain.Profile{ID: domain.ID(sess.ID), Username: form.Username, Email: form.Email, Phone: form.Phone, Address: form.Address},
	}

	if err := c.Validate(&form); err != nil {
		view.Error = err.Error()
		return render(c, http.StatusUnprocessableEntity, profilePage, "Profile", "", view)
	}
	if err := h.gateways.Auth.UpdateProfile(c.Request().Context(), sess.Token, sess.ID, update); err != nil {
		h.log.Warn().Err(err).Str("user_id", sess.ID).Msg("profile update failed")
		return render(c, http.StatusBadGateway, profilePage, "Profile", domain.Classify(err).Reason, view)
	}
	return c.Redirect(http.StatusSeeOther, c.Request().URL.Path+"?notice=profile_saved")
}

// BrowsePolicies lists the policy catalog.
func (h *CustomerHandler) BrowsePolicies(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return err
	}
	return render(c, http.StatusOK, policiesBrowsePage, "Browse Policies", "", web.ApplyView{
		Templates: h.templates(c, sess),
	})
}

func (h *CustomerHandler) templates(c echo.Context, sess *domain.Session) web.ListView[domain.PolicyTemplate] {
	items, err := h.gateways.Policy.ListTemplates(c.Request().Context(), sess.Token)
	return web.NewListView(items, err, "/customer/policies/browse")
}

// ApplyPolicy binds a catalog template to the customer.
func (h *CustomerHandler) ApplyPolicy(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return err
	}

	var form applyForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&form); err != nil {
		return render(c, http.StatusUnprocessableEntity, policiesBrowsePage, "Browse Policies", err.Error(),
			web.ApplyView{Templates: h.templates(c, sess)})
	}

	binding, err := h.gateways.Policy.Apply(c.Request().Context(), sess.Token, domain.PolicyApplication{
		TemplateID: form.TemplateID,
		CustomerID: sess.ID,
		LicenceNo:  form.LicenceNo,
		Vehicle:    form.Vehicle,
	})
	if err != nil {
		h.log.Warn().Err(err).Str("user_id", sess.ID).Msg("policy application failed")
		return render(c, http.StatusBadGateway, policiesBrowsePage, "Browse Policies", domain.Classify(err).Reason,
			web.ApplyView{Templates: h.templates(c, sess)})
	}

	return render(c, http.StatusOK, policiesBrowsePage, "Browse Policies", "", web.ApplyView{
		Templates: h.templates(c, sess),
		Binding:   binding,
	})
}

// MyPolicies lists the customer's bound policies.
func (h *CustomerHandler) MyPolicies(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return err
	}
	items, err := h.gateways.Policy.ListCustomerPolicies(c.Request().Context(), sess.Token, sess.ID)
	return render(c, http.StatusOK, policiesMinePage, "My Policies", "", web.NewListView(items, err, retryURL(c)))
}

// NewClaim renders the claim form with the customer's policies.
func (h *CustomerHandler) NewClaim(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return err
	}
	return render(c, http.StatusOK, claimNewPage, "File a Claim", "", web.ClaimFormView{Policies: h.ownPolicies(c, sess)})
}

func (h *CustomerHandler) ownPolicies(c echo.Context, sess *domain.Session) web.ListView[domain.Policy] {
	items, err := h.gateways.Policy.ListCustomerPolicies(c.Request().Context(), sess.Token, sess.ID)
	return web.NewListView(items, err, "/customer/claims/new")
}

// FileClaim submits a claim to the claims service.
func (h *CustomerHandler) FileClaim(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return err
	}

	var form claimForm
	bindErr := c.Bind(&form)
	view := web.ClaimFormView{
		PolicyID:    form.PolicyID,
		Amount:      c.FormValue("requestedAmount"),
		Description: form.Description,
	}
	if bindErr != nil {
		view.Policies = h.ownPolicies(c, sess)
		return render(c, http.StatusUnprocessableEntity, claimNewPage, "File a Claim", "requestedAmount must be a number", view)
	}
	if err := c.Validate(&form); err != nil {
		view.Policies = h.ownPolicies(c, sess)
		return render(c, http.StatusUnprocessableEntity, claimNewPage, "File a Claim", err.Error(), view)
	}

	id, err := h.gateways.Claims.File(c.Request().Context(), sess.Token, domain.ClaimFiling{
		CustomerID:      sess.ID,
		PolicyID:        form.PolicyID,
		RequestedAmount: form.RequestedAmount,
		Description:     form.Description,
	})
	if err != nil {
		h.log.Warn().Err(err).Str("user_id", sess.ID).Msg("claim filing failed")
		view.Policies = h.ownPolicies(c, sess)
		return render(c, http.StatusBadGateway, claimNewPage, "File a Claim", domain.Classify(err).Reason, view)
	}

	h.log.Info().Str("user_id", sess.ID).Str("claim_id", id).
		Str("amount", strconv.FormatFloat(form.RequestedAmount, 'f', 2, 64)).
		Msg("claim filed")
	return c.Redirect(http.StatusSeeOther, "/customer/claims?notice=claim_filed")
}

// MyClaims lists the customer's claims.
func (h *CustomerHandler) MyClaims(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return err
	}
	items, err := h.gateways.Claims.ListByCustomer(c.Request().Context(), sess.Token, sess.ID)
	return render(c, http.StatusOK, claimsMinePage, "My Claims", "", web.NewListView(items, err, retryURL(c)))
}
