package service

import (
	"sort"
	"strings"

	"github.com/insureline/portal/internal/core/domain"
)

// ClaimQuery narrows and orders a claims listing.
type ClaimQuery struct {
	Status domain.ClaimStatus // empty keeps every status
	Search string             // matched against claim, customer and policy ids
	SortBy string             // date (default), amount, status or id
	Desc   bool
}

// FilterClaims returns the claims matching q in the requested order. The
// input slice is not modified.
func FilterClaims(claims []domain.Claim, q ClaimQuery) []domain.Claim {
	status := domain.NormalizeClaimStatus(string(q.Status))
	needle := strings.ToLower(strings.TrimSpace(q.Search))

	out := make([]domain.Claim, 0, len(claims))
	for _, c := range claims {
		if status != "" && domain.NormalizeClaimStatus(string(c.Status)) != status {
			continue
		}
		if needle != "" && !matchesClaim(c, needle) {
			continue
		}
		out = append(out, c)
	}

	less := claimLess(q.SortBy)
	sort.SliceStable(out, func(i, j int) bool {
		if q.Desc {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}

func matchesClaim(c domain.Claim, needle string) bool {
	for _, field := range []string{c.ClaimID.String(), c.CustomerID.String(), c.PolicyID.String(), c.Description} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

func claimLess(by string) func(a, b domain.Claim) bool {
	switch strings.ToLower(by) {
	case "amount":
		return func(a, b domain.Claim) bool { return a.RequestedAmount < b.RequestedAmount }
	case "status":
		return func(a, b domain.Claim) bool { return a.Status < b.Status }
	case "id":
		return func(a, b domain.Claim) bool { return a.ClaimID < b.ClaimID }
	default:
		return func(a, b domain.Claim) bool { return a.DateFiled.Before(b.DateFiled) }
	}
}
