package domain

import (
	"encoding/json"
	"time"
)

// PolicyTemplate is an entry of the browsable policy catalog.
type PolicyTemplate struct {
	ID              ID      `json:"id"`
	Name            string  `json:"pname"`
	Type            string  `json:"type"`
	Premium         float64 `json:"premium"`
	CoverageDetails string  `json:"coverageDetails"`
	Validity        int     `json:"validity"`
}

// Policy is a bound policy owned by a customer.
type Policy struct {
	ID            ID        `json:"id,omitempty"`
	PolicyName    string    `json:"policyName"`
	LicenceNo     string    `json:"licenceNo"`
	Vehicle       string    `json:"vehicle"`
	ValidFrom     time.Time `json:"validFrom"`
	ValidUntil    time.Time `json:"validUntil"`
	Premium       float64   `json:"premium"`
	AgentAssigned string    `json:"agentAssigned"`
}

// UnmarshalJSON accepts bare dates as well as timestamps for the validity
// window.
func (p *Policy) UnmarshalJSON(b []byte) error {
	type plain Policy
	aux := struct {
		*plain
		ValidFrom  Date `json:"validFrom"`
		ValidUntil Date `json:"validUntil"`
	}{plain: (*plain)(p)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	p.ValidFrom, p.ValidUntil = aux.ValidFrom.Time, aux.ValidUntil.Time
	return nil
}

// Active reports whether the policy covers now.
func (p Policy) Active(now time.Time) bool {
	if !p.ValidFrom.IsZero() && now.Before(p.ValidFrom) {
		return false
	}
	return p.ValidUntil.IsZero() || now.Before(p.ValidUntil)
}

// PolicyApplication asks the policy service to bind a template to a customer.
type PolicyApplication struct {
	TemplateID string `json:"templateId"`
	CustomerID string `json:"customerId"`
	LicenceNo  string `json:"licenceNo"`
	Vehicle    string `json:"vehicle"`
}

// PolicyBinding is the policy service's answer to an application.
type PolicyBinding struct {
	AgentAssigned string    `json:"agentAssigned"`
	ValidFrom     time.Time `json:"validFrom"`
	ValidUntil    time.Time `json:"validUntil"`
}

func (pb *PolicyBinding) UnmarshalJSON(b []byte) error {
	type plain PolicyBinding
	aux := struct {
		*plain
		ValidFrom  Date `json:"validFrom"`
		ValidUntil Date `json:"validUntil"`
	}{plain: (*plain)(pb)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	pb.ValidFrom, pb.ValidUntil = aux.ValidFrom.Time, aux.ValidUntil.Time
	return nil
}
