package ports

import (
	"context"

	"github.com/insureline/portal/internal/core/domain"
)

// AuthGateway is the auth collaborator.
type AuthGateway interface {
	// Login exchanges credentials for a grant. Rejected credentials come back
	// as domain.ErrInvalidCredentials.
	Login(ctx context.Context, email, password string) (*domain.LoginGrant, error)
	GetUser(ctx context.Context, token, id string) (*domain.Profile, error)
	UpdateProfile(ctx context.Context, token, id string, update domain.ProfileUpdate) error
	ListCustomers(ctx context.Context, token string) ([]domain.Profile, error)
	ListAgents(ctx context.Context, token string) ([]domain.Profile, error)
}

// PolicyGateway is the policy collaborator.
type PolicyGateway interface {
	ListTemplates(ctx context.Context, token string) ([]domain.PolicyTemplate, error)
	ListCustomerPolicies(ctx context.Context, token, customerID string) ([]domain.Policy, error)
	Apply(ctx context.Context, token string, app domain.PolicyApplication) (*domain.PolicyBinding, error)
}

// ClaimsGateway is the claims collaborator.
type ClaimsGateway interface {
	File(ctx context.Context, token string, filing domain.ClaimFiling) (string, error)
	ListByCustomer(ctx context.Context, token, customerID string) ([]domain.Claim, error)
	ListAll(ctx context.Context, token string) ([]domain.Claim, error)
	Decide(ctx context.Context, token, claimID string, decision domain.ClaimDecision) error
}
