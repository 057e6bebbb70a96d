package clients

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"syscall"
	"testing"

	"github.com/rs/zerolog"

	"github.com/insureline/portal/internal/core/domain"
)

func newServer(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func cfgFor(srv *httptest.Server) Config {
	return Config{BaseURL: srv.URL, Logger: zerolog.Nop()}
}

func TestAuthClient_Login_Success(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/login" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "" {
			t.Errorf("login must not carry a bearer token")
		}
		var body loginRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Email != "a@example.com" {
			t.Errorf("unexpected body %+v (%v)", body, err)
		}
		_, _ = w.Write([]byte(`{"token":"tok","id":"u1","username":"alice","role":"CUSTOMER","phonenumber":"555"}`))
	})

	c, err := NewAuthClient(cfgFor(srv))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	grant, err := c.Login(context.Background(), "a@example.com", "pw")
	if err != nil {
		t.Fatalf("login error: %v", err)
	}
	if grant.Token != "tok" || grant.ID != "u1" || grant.Role != "CUSTOMER" || grant.Phone != "555" {
		t.Fatalf("unexpected grant %+v", grant)
	}
}

func TestAuthClient_Login_NumericID(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"token":"opaque","id":42,"username":"bob","role":"CUSTOMER","phonenumber":"555"}`))
	})
	c, _ := NewAuthClient(cfgFor(srv))

	grant, err := c.Login(context.Background(), "b@example.com", "pw")
	if err != nil {
		t.Fatalf("login error: %v", err)
	}
	if grant.ID != "42" || grant.Username != "bob" {
		t.Fatalf("unexpected grant %+v", grant)
	}
}

func TestAuthClient_Login_Rejected(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusBadRequest} {
		srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"message":"bad password"}`))
		})
		c, _ := NewAuthClient(cfgFor(srv))

		if _, err := c.Login(context.Background(), "a@example.com", "pw"); !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Fatalf("status %d: expected ErrInvalidCredentials, got %v", status, err)
		}
	}
}

func TestAuthClient_Login_MissingToken(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"u1","role":"CUSTOMER"}`))
	})
	c, _ := NewAuthClient(cfgFor(srv))

	if _, err := c.Login(context.Background(), "a@example.com", "pw"); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestRestClient_ErrorMessageIsExtracted(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"policy already bound"}`))
	})
	c, _ := NewPolicyClient(cfgFor(srv))

	_, err := c.Apply(context.Background(), "tok", domain.PolicyApplication{TemplateID: "t1"})
	var re *domain.RemoteError
	if !errors.As(err, &re) {
		t.Fatalf("expected RemoteError, got %v", err)
	}
	if re.Service != "policy" || re.Status != http.StatusConflict || re.Message != "policy already bound" {
		t.Fatalf("unexpected remote error %+v", re)
	}
	if f := domain.Classify(err); f.Reason != "policy already bound" {
		t.Fatalf("expected collaborator message surfaced, got %q", f.Reason)
	}
}

func TestRestClient_NotFoundClassifiesEmpty(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	c, _ := NewClaimsClient(cfgFor(srv))

	_, err := c.ListByCustomer(context.Background(), "tok", "u1")
	if !domain.Classify(err).Empty() {
		t.Fatalf("expected 404 to classify as empty, got %v", err)
	}
}

func TestRestClient_ConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	c, _ := NewPolicyClient(Config{BaseURL: "http://" + addr, Logger: zerolog.Nop()})
	_, err = c.ListTemplates(context.Background(), "tok")
	if !errors.Is(err, syscall.ECONNREFUSED) {
		t.Fatalf("expected connection refused, got %v", err)
	}
	if f := domain.Classify(err); f.Reason != domain.ReasonUnreachable {
		t.Fatalf("expected unreachable reason, got %q", f.Reason)
	}
}

func TestPolicyClient_ListCustomerPolicies(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/policies/customer/u1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("missing bearer token")
		}
		_, _ = w.Write([]byte(`[{"policyName":"Auto","licenceNo":"L1","vehicle":"Car","validFrom":"2024-01-01T00:00:00Z","validUntil":"2025-01-01T00:00:00Z","premium":120,"agentAssigned":"ag1"}]`))
	})
	c, _ := NewPolicyClient(cfgFor(srv))

	got, err := c.ListCustomerPolicies(context.Background(), "tok", "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].PolicyName != "Auto" || got[0].Premium != 120 || got[0].ValidUntil.Year() != 2025 {
		t.Fatalf("unexpected policies %+v", got)
	}
}

func TestClaimsClient_FileAndDecide(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/claims":
			var f domain.ClaimFiling
			_ = json.NewDecoder(r.Body).Decode(&f)
			if f.PolicyID != "p1" || f.RequestedAmount != 250 {
				t.Errorf("unexpected filing %+v", f)
			}
			_, _ = w.Write([]byte(`{"claimId":"c-9"}`))
		case r.Method == http.MethodPut && r.URL.Path == "/claims/c-9/decision":
			var d domain.ClaimDecision
			_ = json.NewDecoder(r.Body).Decode(&d)
			if d.Status != domain.ClaimApproved || d.AgentID != "ag1" {
				t.Errorf("unexpected decision %+v", d)
			}
			w.WriteHeader(http.StatusOK)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	})
	c, _ := NewClaimsClient(cfgFor(srv))

	id, err := c.File(context.Background(), "tok", domain.ClaimFiling{CustomerID: "u1", PolicyID: "p1", RequestedAmount: 250})
	if err != nil || id != "c-9" {
		t.Fatalf("unexpected file result %q %v", id, err)
	}
	if err := c.Decide(context.Background(), "tok", "c-9", domain.ClaimDecision{Status: domain.ClaimApproved, AgentID: "ag1"}); err != nil {
		t.Fatalf("decide error: %v", err)
	}
}

func TestClaimsClient_ListAll_LenientPayload(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"claimId":101,"customerId":7,"policyId":3,"status":"PENDING","requestedAmount":90,"dateFiled":"2024-01-15"},
			{"claimId":"c-2","status":"APPROVED","requestedAmount":40,"dateFiled":"2024-01-16T10:00:00Z"}
		]`))
	})
	c, _ := NewClaimsClient(cfgFor(srv))

	got, err := c.ListAll(context.Background(), "tok")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].ClaimID != "101" || got[0].CustomerID != "7" || got[0].PolicyID != "3" {
		t.Fatalf("unexpected claims %+v", got)
	}
	if got[0].DateFiled.Day() != 15 || got[1].DateFiled.Hour() != 10 {
		t.Fatalf("unexpected dates %v %v", got[0].DateFiled, got[1].DateFiled)
	}
}

func TestClaimsClient_File_NumericID(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"claimId":908}`))
	})
	c, _ := NewClaimsClient(cfgFor(srv))

	id, err := c.File(context.Background(), "tok", domain.ClaimFiling{CustomerID: "7", PolicyID: "3", RequestedAmount: 10})
	if err != nil || id != "908" {
		t.Fatalf("unexpected file result %q %v", id, err)
	}
}

func TestNewRestClient_RequiresBaseURL(t *testing.T) {
	if _, err := NewAuthClient(Config{}); err == nil {
		t.Fatalf("expected error without base URL")
	}
}
