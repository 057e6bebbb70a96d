package domain

import (
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"testing"
)

func TestClassify_PriorityOrder(t *testing.T) {
	refused := &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}

	cases := []struct {
		name string
		err  error
		kind FailureKind
		msg  string
	}{
		{"nil", nil, FailureNone, ""},
		{"not found wins over message", &RemoteError{Service: "claims", Status: 404, Message: "no claims"}, FailureNotFound, ReasonNoData},
		{"server fault wins over message", &RemoteError{Service: "policy", Status: 503, Message: "down"}, FailureServer, ReasonServerError},
		{"connection refused", fmt.Errorf("get templates: %w", refused), FailureUnreachable, ReasonUnreachable},
		{"server message", &RemoteError{Service: "auth", Status: 422, Message: "email taken"}, FailureMessage, "email taken"},
		{"remote without message", &RemoteError{Service: "auth", Status: 409}, FailureUnknown, ReasonGeneric},
		{"anything else", errors.New("boom"), FailureUnknown, ReasonGeneric},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := Classify(tc.err)
			if f.Kind != tc.kind || f.Reason != tc.msg {
				t.Fatalf("got %+v, want kind=%d reason=%q", f, tc.kind, tc.msg)
			}
		})
	}
}

func TestClassify_WrappedRemoteError(t *testing.T) {
	err := fmt.Errorf("list claims: %w", &RemoteError{Service: "claims", Status: 404})
	if !Classify(err).Empty() {
		t.Fatalf("expected wrapped 404 to classify as empty")
	}
}

func TestLoginFailureReason(t *testing.T) {
	if got := LoginFailureReason(fmt.Errorf("login: %w", ErrInvalidCredentials)); got != "Invalid email or password" {
		t.Fatalf("unexpected reason %q", got)
	}
	if got := LoginFailureReason(&RemoteError{Service: "auth", Status: 500}); got != ReasonServerError {
		t.Fatalf("unexpected reason %q", got)
	}
}
