package service

import (
	"context"
	"time"

	"github.com/insureline/portal/internal/core/binder"
	"github.com/insureline/portal/internal/core/domain"
	"github.com/insureline/portal/internal/core/ports"
)

// Gateways bundles the collaborators dashboards read from.
type Gateways struct {
	Auth   ports.AuthGateway
	Policy ports.PolicyGateway
	Claims ports.ClaimsGateway
}

// DashboardMetrics lists the cards shown on the dashboard of sess's role.
// Each card is fetched on its own so one failing collaborator leaves the
// other cards intact.
func DashboardMetrics(sess *domain.Session, gw Gateways, now func() time.Time) []binder.Metric {
	if sess == nil {
		return nil
	}
	if now == nil {
		now = time.Now
	}
	token := sess.Token

	switch sess.Role {
	case domain.RoleCustomer:
		policies := func(ctx context.Context) ([]domain.Policy, error) {
			return gw.Policy.ListCustomerPolicies(ctx, token, sess.ID)
		}
		claims := func(ctx context.Context) ([]domain.Claim, error) {
			return gw.Claims.ListByCustomer(ctx, token, sess.ID)
		}
		return []binder.Metric{
			{Name: "active_policies", Label: "Active Policies", Fetch: func(ctx context.Context) (any, error) {
				ps, err := policies(ctx)
				if err != nil {
					return nil, err
				}
				n := 0
				for _, p := range ps {
					if p.Active(now()) {
						n++
					}
				}
				return n, nil
			}},
			{Name: "total_claims", Label: "Total Claims", Fetch: count(claims)},
			{Name: "pending_claims", Label: "Pending Claims", Fetch: countStatus(claims, domain.ClaimPending)},
			{Name: "total_premium", Label: "Total Premium", Fetch: func(ctx context.Context) (any, error) {
				ps, err := policies(ctx)
				if err != nil {
					return nil, err
				}
				var sum float64
				for _, p := range ps {
					if p.Active(now()) {
						sum += p.Premium
					}
				}
				return sum, nil
			}},
		}

	case domain.RoleAgent:
		claims := func(ctx context.Context) ([]domain.Claim, error) {
			return gw.Claims.ListAll(ctx, token)
		}
		return []binder.Metric{
			{Name: "pending_claims", Label: "Pending Claims", Fetch: countStatus(claims, domain.ClaimPending)},
			{Name: "approved_claims", Label: "Approved Claims", Fetch: countStatus(claims, domain.ClaimApproved)},
			{Name: "customers", Label: "Customers", Fetch: count(customers(gw, token))},
			{Name: "policy_templates", Label: "Policy Templates", Fetch: count(templates(gw, token))},
		}

	case domain.RoleAdmin:
		return []binder.Metric{
			{Name: "customers", Label: "Customers", Fetch: count(customers(gw, token))},
			{Name: "agents", Label: "Agents", Fetch: count(func(ctx context.Context) ([]domain.Profile, error) {
				return gw.Auth.ListAgents(ctx, token)
			})},
			{Name: "policy_templates", Label: "Policy Templates", Fetch: count(templates(gw, token))},
			{Name: "claims", Label: "Claims", Fetch: count(func(ctx context.Context) ([]domain.Claim, error) {
				return gw.Claims.ListAll(ctx, token)
			})},
		}

	case domain.RoleUnknown:
		return nil
	default:
		return nil
	}
}

func customers(gw Gateways, token string) func(context.Context) ([]domain.Profile, error) {
	return func(ctx context.Context) ([]domain.Profile, error) {
		return gw.Auth.ListCustomers(ctx, token)
	}
}

func templates(gw Gateways, token string) func(context.Context) ([]domain.PolicyTemplate, error) {
	return func(ctx context.Context) ([]domain.PolicyTemplate, error) {
		return gw.Policy.ListTemplates(ctx, token)
	}
}

func count[T any](list func(context.Context) ([]T, error)) binder.Fetcher {
	return func(ctx context.Context) (any, error) {
		items, err := list(ctx)
		if err != nil {
			return nil, err
		}
		return len(items), nil
	}
}

func countStatus(list func(context.Context) ([]domain.Claim, error), status domain.ClaimStatus) binder.Fetcher {
	return func(ctx context.Context) (any, error) {
		claims, err := list(ctx)
		if err != nil {
			return nil, err
		}
		n := 0
		for _, c := range claims {
			if domain.NormalizeClaimStatus(string(c.Status)) == status {
				n++
			}
		}
		return n, nil
	}
}
