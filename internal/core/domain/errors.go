package domain

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnsupportedRole    = errors.New("unsupported role")
	ErrInvalidToken       = errors.New("invalid session token")
	ErrNoSession          = errors.New("no session")
	ErrSessionPending     = errors.New("session storage unavailable")
	ErrForbidden          = errors.New("access forbidden")
	ErrInvalidTransition  = errors.New("invalid claim status transition")
)
