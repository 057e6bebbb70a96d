package clients

import (
	"context"
	"net/http"
	"net/url"

	"github.com/insureline/portal/internal/core/domain"
	"github.com/insureline/portal/internal/core/ports"
)

// PolicyClient talks to the policy service.
type PolicyClient struct {
	rest *restClient
}

var _ ports.PolicyGateway = (*PolicyClient)(nil)

func NewPolicyClient(cfg Config) (*PolicyClient, error) {
	rc, err := newRestClient("policy", cfg)
	if err != nil {
		return nil, err
	}
	return &PolicyClient{rest: rc}, nil
}

func (c *PolicyClient) ListTemplates(ctx context.Context, token string) ([]domain.PolicyTemplate, error) {
	var out []domain.PolicyTemplate
	if err := c.rest.do(ctx, http.MethodGet, "/policies/templates", token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *PolicyClient) ListCustomerPolicies(ctx context.Context, token, customerID string) ([]domain.Policy, error) {
	var out []domain.Policy
	path := "/policies/customer/" + url.PathEscape(customerID)
	if err := c.rest.do(ctx, http.MethodGet, path, token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *PolicyClient) Apply(ctx context.Context, token string, app domain.PolicyApplication) (*domain.PolicyBinding, error) {
	var out domain.PolicyBinding
	if err := c.rest.do(ctx, http.MethodPost, "/policies/apply", token, app, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
