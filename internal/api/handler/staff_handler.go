package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/insureline/portal/internal/api/web"
	"github.com/insureline/portal/internal/core/domain"
	"github.com/insureline/portal/internal/core/service"
)

const (
	claimsQueuePage     = "claims_queue"
	usersPage           = "users"
	policyTemplatesPage = "policy_templates"
)

var queueStatuses = []domain.ClaimStatus{domain.ClaimPending, domain.ClaimApproved, domain.ClaimRejected}

// StaffHandler serves the agent and admin pages.
type StaffHandler struct {
	gateways service.Gateways
	log      zerolog.Logger
}

func NewStaffHandler(gw service.Gateways, log zerolog.Logger) *StaffHandler {
	return &StaffHandler{gateways: gw, log: log}
}

// ClaimsQueue lists every claim, filtered and sorted from the query string.
// Agents can decide pending claims from the list.
func (h *StaffHandler) ClaimsQueue(c echo.Context) error {
	return h.renderQueue(c, http.StatusOK, "")
}

func (h *StaffHandler) renderQueue(c echo.Context, status int, flash string) error {
	sess, err := currentSession(c)
	if err != nil {
		return err
	}

	var params claimQueryParams
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &params); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query")
	}
	query := service.ClaimQuery{
		Status: domain.NormalizeClaimStatus(params.Status),
		Search: params.Search,
		SortBy: params.Sort,
		Desc:   params.Desc,
	}

	claims, err := h.gateways.Claims.ListAll(c.Request().Context(), sess.Token)
	return render(c, status, claimsQueuePage, "Claims", flash, web.ClaimsQueueView{
		Claims:    web.NewListView(service.FilterClaims(claims, query), err, retryURL(c)),
		Query:     query,
		Statuses:  queueStatuses,
		CanDecide: sess.Role == domain.RoleAgent,
		Action:    "/" + sess.Role.Slug() + "/claims",
	})
}

// DecideClaim approves or rejects a pending claim.
//
// @Summary      Decide a claim
// @Tags         claims
// @Accept       x-www-form-urlencoded
// @Param        id      path      string  true   "Claim id"
// @Param        status  formData  string  true   "APPROVED or REJECTED"
// @Param        note    formData  string  false  "Note for the customer"
// @Success      303
// @Failure      422  {string}  string  "claims queue with a notification"
// @Router       /agent/claims/{id}/decision [post]
func (h *StaffHandler) DecideClaim(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return err
	}
	claimID := c.Param("id")

	var form decisionForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	form.Status = string(domain.NormalizeClaimStatus(form.Status))
	if err := c.Validate(&form); err != nil {
		return h.renderQueue(c, http.StatusUnprocessableEntity, err.Error())
	}

	ctx := c.Request().Context()
	if err := h.checkTransition(c, sess, claimID, domain.ClaimStatus(form.Status)); err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			return h.renderQueue(c, http.StatusUnprocessableEntity, err.Error())
		}
		return h.renderQueue(c, http.StatusBadGateway, domain.Classify(err).Reason)
	}

	decision := domain.ClaimDecision{Status: domain.ClaimStatus(form.Status), AgentID: sess.ID, Note: form.Note}
	if err := h.gateways.Claims.Decide(ctx, sess.Token, claimID, decision); err != nil {
		h.log.Warn().Err(err).Str("claim_id", claimID).Msg("claim decision failed")
		return h.renderQueue(c, http.StatusBadGateway, domain.Classify(err).Reason)
	}

	h.log.Info().Str("claim_id", claimID).Str("agent_id", sess.ID).Str("status", form.Status).Msg("claim decided")
	return c.Redirect(http.StatusSeeOther, "/"+sess.Role.Slug()+"/claims?notice=claim_decided")
}

// checkTransition refuses decisions on claims that are no longer pending.
func (h *StaffHandler) checkTransition(c echo.Context, sess *domain.Session, claimID string, next domain.ClaimStatus) error {
	claims, err := h.gateways.Claims.ListAll(c.Request().Context(), sess.Token)
	if err != nil {
		return err
	}
	for _, cl := range claims {
		if cl.ClaimID.String() != claimID {
			continue
		}
		current := domain.NormalizeClaimStatus(string(cl.Status))
		if !current.CanTransitionTo(next) {
			return fmt.Errorf("%w: %s to %s", domain.ErrInvalidTransition, current, next)
		}
		return nil
	}
	return &domain.RemoteError{Service: "claims", Status: http.StatusNotFound, Message: "claim not found"}
}

// Customers lists customer accounts.
func (h *StaffHandler) Customers(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return err
	}
	items, err := h.gateways.Auth.ListCustomers(c.Request().Context(), sess.Token)
	return render(c, http.StatusOK, usersPage, "Customers", "", web.UsersView{
		Kind:  "customers",
		Users: web.NewListView(items, err, retryURL(c)),
	})
}

// Agents lists agent accounts.
func (h *StaffHandler) Agents(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return err
	}
	items, err := h.gateways.Auth.ListAgents(c.Request().Context(), sess.Token)
	return render(c, http.StatusOK, usersPage, "Agents", "", web.UsersView{
		Kind:  "agents",
		Users: web.NewListView(items, err, retryURL(c)),
	})
}

// PolicyTemplates lists the policy catalog.
func (h *StaffHandler) PolicyTemplates(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return err
	}
	items, err := h.gateways.Policy.ListTemplates(c.Request().Context(), sess.Token)
	return render(c, http.StatusOK, policyTemplatesPage, "Policy Templates", "", web.NewListView(items, err, retryURL(c)))
}
