package clients

import (
	"context"
	"net/http"
	"net/url"

	"github.com/insureline/portal/internal/core/domain"
	"github.com/insureline/portal/internal/core/ports"
)

// ClaimsClient talks to the claims service.
type ClaimsClient struct {
	rest *restClient
}

var _ ports.ClaimsGateway = (*ClaimsClient)(nil)

func NewClaimsClient(cfg Config) (*ClaimsClient, error) {
	rc, err := newRestClient("claims", cfg)
	if err != nil {
		return nil, err
	}
	return &ClaimsClient{rest: rc}, nil
}

// File submits a claim and returns the id the claims service assigned.
func (c *ClaimsClient) File(ctx context.Context, token string, filing domain.ClaimFiling) (string, error) {
	var out struct {
		ClaimID domain.ID `json:"claimId"`
	}
	if err := c.rest.do(ctx, http.MethodPost, "/claims", token, filing, &out); err != nil {
		return "", err
	}
	return out.ClaimID.String(), nil
}

func (c *ClaimsClient) ListByCustomer(ctx context.Context, token, customerID string) ([]domain.Claim, error) {
	var out []domain.Claim
	body := map[string]string{"customerId": customerID}
	if err := c.rest.do(ctx, http.MethodPost, "/claims/customer", token, body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ClaimsClient) ListAll(ctx context.Context, token string) ([]domain.Claim, error) {
	var out []domain.Claim
	if err := c.rest.do(ctx, http.MethodGet, "/claims", token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ClaimsClient) Decide(ctx context.Context, token, claimID string, decision domain.ClaimDecision) error {
	path := "/claims/" + url.PathEscape(claimID) + "/decision"
	return c.rest.do(ctx, http.MethodPut, path, token, decision, nil)
}
