package ports

import (
	"context"
	"time"

	"github.com/insureline/portal/internal/core/domain"
)

// SessionStorage is the durable half of the session store. Implementations
// must write, read and clear the token and identity entries together.
type SessionStorage interface {
	// Save writes both entries with the same TTL in one atomic step.
	Save(ctx context.Context, key string, rec domain.PersistedSession, ttl time.Duration) error
	// Load returns both entries. It returns domain.ErrNoSession when neither
	// exists; a record with only one half present is returned as-is so the
	// caller can treat it as corrupt.
	Load(ctx context.Context, key string) (domain.PersistedSession, error)
	// HasToken reports whether the token entry still exists.
	HasToken(ctx context.Context, key string) (bool, error)
	// Clear removes both entries. Clearing a missing session is not an error.
	Clear(ctx context.Context, key string) error
}
