package web

import (
	"github.com/insureline/portal/internal/core/binder"
	"github.com/insureline/portal/internal/core/domain"
	"github.com/insureline/portal/internal/core/service"
)

// LoginView backs the login page.
type LoginView struct {
	Email string
	Next  string
}

// DashboardView backs every role dashboard.
type DashboardView struct {
	Cards     []binder.State
	StreamURL string
}

// ListView is the outcome of one collaborator listing: items, an empty
// state, or a classified error with a retry link.
type ListView[T any] struct {
	Items    []T
	Empty    bool
	Error    string
	RetryURL string
}

// NewListView classifies err the same way for every listing page: not
// found is an empty list, anything else is shown with a retry link.
func NewListView[T any](items []T, err error, retry string) ListView[T] {
	if err != nil {
		f := domain.Classify(err)
		if f.Empty() {
			return ListView[T]{Empty: true}
		}
		return ListView[T]{Error: f.Reason, RetryURL: retry}
	}
	return ListView[T]{Items: items, Empty: len(items) == 0}
}

// ProfileView backs the profile page.
type ProfileView struct {
	Profile domain.Profile
	Error   string
	Action  string
}

// ClaimFormView backs the claim filing form.
type ClaimFormView struct {
	Policies    ListView[domain.Policy]
	PolicyID    string
	Amount      string
	Description string
}

// ApplyView backs the policy catalog with its apply form.
type ApplyView struct {
	Templates ListView[domain.PolicyTemplate]
	Binding   *domain.PolicyBinding
}

// ClaimsQueueView backs the agent and admin claims queues.
type ClaimsQueueView struct {
	Claims    ListView[domain.Claim]
	Query     service.ClaimQuery
	Statuses  []domain.ClaimStatus
	CanDecide bool
	Action    string
}

// UsersView backs the customer and agent listings.
type UsersView struct {
	Kind  string
	Users ListView[domain.Profile]
}
