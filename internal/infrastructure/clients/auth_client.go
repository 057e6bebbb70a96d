package clients

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/insureline/portal/internal/core/domain"
	"github.com/insureline/portal/internal/core/ports"
)

// AuthClient talks to the auth service.
type AuthClient struct {
	rest *restClient
}

var _ ports.AuthGateway = (*AuthClient)(nil)

func NewAuthClient(cfg Config) (*AuthClient, error) {
	rc, err := newRestClient("auth", cfg)
	if err != nil {
		return nil, err
	}
	return &AuthClient{rest: rc}, nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a grant. 400 and 401 answers mean the
// credentials were rejected.
func (c *AuthClient) Login(ctx context.Context, email, password string) (*domain.LoginGrant, error) {
	var grant domain.LoginGrant
	err := c.rest.do(ctx, http.MethodPost, "/login", "", loginRequest{Email: email, Password: password}, &grant)
	if err != nil {
		var re *domain.RemoteError
		if errors.As(err, &re) && (re.Status == http.StatusUnauthorized || re.Status == http.StatusBadRequest) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if grant.Token == "" {
		return nil, domain.ErrInvalidToken
	}
	return &grant, nil
}

func (c *AuthClient) GetUser(ctx context.Context, token, id string) (*domain.Profile, error) {
	var p domain.Profile
	if err := c.rest.do(ctx, http.MethodPost, "/user", token, map[string]string{"id": id}, &p); err != nil {
		return nil, err
	}
	if p.ID == "" {
		p.ID = domain.ID(id)
	}
	return &p, nil
}

func (c *AuthClient) UpdateProfile(ctx context.Context, token, id string, update domain.ProfileUpdate) error {
	return c.rest.do(ctx, http.MethodPut, "/user/"+url.PathEscape(id), token, update, nil)
}

func (c *AuthClient) ListCustomers(ctx context.Context, token string) ([]domain.Profile, error) {
	var out []domain.Profile
	if err := c.rest.do(ctx, http.MethodGet, "/customers", token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AuthClient) ListAgents(ctx context.Context, token string) ([]domain.Profile, error) {
	var out []domain.Profile
	if err := c.rest.do(ctx, http.MethodGet, "/agents", token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
