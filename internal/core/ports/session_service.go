package ports

import (
	"context"

	"github.com/insureline/portal/internal/core/domain"
)

// SessionService is the session store as seen by the HTTP layer.
type SessionService interface {
	Login(ctx context.Context, sid, email, password string) (*domain.Session, error)
	Logout(ctx context.Context, sid string) error
	Forget(ctx context.Context, sid string)
	IsAuthenticated(ctx context.Context, sid string) bool
	CurrentUser(sid string) (*domain.Session, bool)
	Resolve(ctx context.Context, sid string) domain.SessionState
}
