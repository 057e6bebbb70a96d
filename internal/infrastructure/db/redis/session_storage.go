package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/insureline/portal/internal/core/domain"
	"github.com/insureline/portal/internal/core/ports"
)

const sessionPrefix = "portal:session:"

// SessionStorage keeps the token and identity of each browser session as two
// Redis strings that share a TTL.
// Key format: portal:session:<mac>:token and portal:session:<mac>:identity
type SessionStorage struct {
	client *redis.Client
}

// NewSessionStorage creates a SessionStorage wrapping the given Redis client.
func NewSessionStorage(client *redis.Client) ports.SessionStorage {
	return &SessionStorage{client: client}
}

// Save writes both entries in a single MULTI/EXEC.
func (s *SessionStorage) Save(ctx context.Context, key string, rec domain.PersistedSession, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("session save: non-positive ttl %s", ttl)
	}
	tokenKey, identityKey := sessionKeys(key)

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, tokenKey, rec.Token, ttl)
		pipe.Set(ctx, identityKey, rec.Identity, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("session save: %w", err)
	}
	return nil
}

// Load reads both entries with one MGET.
func (s *SessionStorage) Load(ctx context.Context, key string) (domain.PersistedSession, error) {
	tokenKey, identityKey := sessionKeys(key)

	vals, err := s.client.MGet(ctx, tokenKey, identityKey).Result()
	if err != nil {
		return domain.PersistedSession{}, fmt.Errorf("session load: %w", err)
	}
	if len(vals) != 2 {
		return domain.PersistedSession{}, errors.New("session load: unexpected reply length")
	}
	if vals[0] == nil && vals[1] == nil {
		return domain.PersistedSession{}, domain.ErrNoSession
	}

	var rec domain.PersistedSession
	if v, ok := vals[0].(string); ok {
		rec.Token = v
	}
	if v, ok := vals[1].(string); ok {
		rec.Identity = []byte(v)
	}
	return rec, nil
}

// HasToken reports whether the token entry still exists.
func (s *SessionStorage) HasToken(ctx context.Context, key string) (bool, error) {
	tokenKey, _ := sessionKeys(key)
	n, err := s.client.Exists(ctx, tokenKey).Result()
	if err != nil {
		return false, fmt.Errorf("session exists: %w", err)
	}
	return n > 0, nil
}

// Clear deletes both entries with one DEL.
func (s *SessionStorage) Clear(ctx context.Context, key string) error {
	tokenKey, identityKey := sessionKeys(key)
	if err := s.client.Del(ctx, tokenKey, identityKey).Err(); err != nil {
		return fmt.Errorf("session clear: %w", err)
	}
	return nil
}

func sessionKeys(key string) (token, identity string) {
	base := sessionPrefix + key
	return base + ":token", base + ":identity"
}
