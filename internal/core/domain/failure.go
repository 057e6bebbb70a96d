package domain

import (
	"errors"
	"fmt"
	"net/http"
	"syscall"
)

// RemoteError is a non-2xx answer from a collaborator.
type RemoteError struct {
	Service string
	Status  int
	Message string // collaborator-supplied message, may be empty
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: status %d: %s", e.Service, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: status %d", e.Service, e.Status)
}

// FailureKind groups remote failures by how the UI should present them.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureNotFound
	FailureServer
	FailureUnreachable
	FailureMessage
	FailureUnknown
)

// User-facing failure texts.
const (
	ReasonNoData      = "No data available"
	ReasonServerError = "Server error, please try again later"
	ReasonUnreachable = "Cannot reach server"
	ReasonGeneric     = "Something went wrong"
)

// Failure is a classified remote failure.
type Failure struct {
	Kind   FailureKind
	Reason string
}

// Empty reports whether the failure is a benign empty result rather than an
// error to show.
func (f Failure) Empty() bool {
	return f.Kind == FailureNotFound
}

// Classify maps err to a user-facing failure. The checks run in a fixed
// priority order: not found, server fault, connection refused, collaborator
// message, generic fallback.
func Classify(err error) Failure {
	if err == nil {
		return Failure{Kind: FailureNone}
	}

	var re *RemoteError
	isRemote := errors.As(err, &re)

	switch {
	case isRemote && re.Status == http.StatusNotFound:
		return Failure{Kind: FailureNotFound, Reason: ReasonNoData}
	case isRemote && re.Status >= http.StatusInternalServerError:
		return Failure{Kind: FailureServer, Reason: ReasonServerError}
	case errors.Is(err, syscall.ECONNREFUSED):
		return Failure{Kind: FailureUnreachable, Reason: ReasonUnreachable}
	case isRemote && re.Message != "":
		return Failure{Kind: FailureMessage, Reason: re.Message}
	}
	return Failure{Kind: FailureUnknown, Reason: ReasonGeneric}
}

// LoginFailureReason is the one-shot notification shown when a login
// attempt fails.
func LoginFailureReason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid email or password"
	case errors.Is(err, ErrUnsupportedRole):
		return "Your account cannot sign in to this portal"
	case errors.Is(err, ErrInvalidToken):
		return "The sign-in service returned an unusable session"
	}
	f := Classify(err)
	if f.Kind == FailureNotFound {
		return "Invalid email or password"
	}
	return f.Reason
}
