package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// ClaimStatus is the adjudication state reported by the claims service.
type ClaimStatus string

const (
	ClaimPending  ClaimStatus = "PENDING"
	ClaimApproved ClaimStatus = "APPROVED"
	ClaimRejected ClaimStatus = "REJECTED"
)

// validTransitions mirrors the claims service: only pending claims can be
// decided, and a decision is final.
var validTransitions = map[ClaimStatus][]ClaimStatus{
	ClaimPending: {ClaimApproved, ClaimRejected},
}

// NormalizeClaimStatus upper-cases and trims a status coming off the wire.
func NormalizeClaimStatus(s string) ClaimStatus {
	return ClaimStatus(strings.ToUpper(strings.TrimSpace(s)))
}

// CanTransitionTo reports whether a claim in status s may move to next.
func (s ClaimStatus) CanTransitionTo(next ClaimStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Claim is one claim as listed by the claims service.
type Claim struct {
	ClaimID         ID          `json:"claimId"`
	CustomerID      ID          `json:"customerId,omitempty"`
	PolicyID        ID          `json:"policyId,omitempty"`
	Status          ClaimStatus `json:"status"`
	RequestedAmount float64     `json:"requestedAmount"`
	DateFiled       time.Time   `json:"dateFiled"`
	Verified        bool        `json:"verified"`
	Description     string      `json:"description,omitempty"`
}

// UnmarshalJSON accepts bare dates as well as timestamps for dateFiled.
func (c *Claim) UnmarshalJSON(b []byte) error {
	type plain Claim
	aux := struct {
		*plain
		DateFiled Date `json:"dateFiled"`
	}{plain: (*plain)(c)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	c.DateFiled = aux.DateFiled.Time
	return nil
}

// ClaimFiling is the payload for submitting a new claim.
type ClaimFiling struct {
	CustomerID      string  `json:"customerId"`
	PolicyID        string  `json:"policyId"`
	RequestedAmount float64 `json:"requestedAmount"`
	Description     string  `json:"description"`
}

// ClaimDecision approves or rejects a pending claim.
type ClaimDecision struct {
	Status  ClaimStatus `json:"status"`
	AgentID string      `json:"agentId"`
	Note    string      `json:"note,omitempty"`
}
