package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/insureline/portal/internal/core/domain"
	"github.com/insureline/portal/internal/core/ports"
)

const (
	catalogKey         = "portal:catalog:templates"
	defaultCatalogTTL  = 5 * time.Minute
	catalogFillTimeout = 10 * time.Second
)

// cacheStore is the subset of the Redis client the catalog cache needs.
type cacheStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// CatalogCache decorates a PolicyGateway so the policy template catalog,
// which is the same for every user, is read from Redis. Concurrent misses
// share a single collaborator call.
type CatalogCache struct {
	ports.PolicyGateway

	store       cacheStore
	ttl         time.Duration
	fillTimeout time.Duration
	group       singleflight.Group
	log         zerolog.Logger
}

// NewCatalogCache wraps next with a Redis-backed template cache.
func NewCatalogCache(next ports.PolicyGateway, store cacheStore, ttl time.Duration, log zerolog.Logger) *CatalogCache {
	if ttl <= 0 {
		ttl = defaultCatalogTTL
	}
	return &CatalogCache{PolicyGateway: next, store: store, ttl: ttl, fillTimeout: catalogFillTimeout, log: log}
}

// ListTemplates serves the catalog from Redis, filling it on a miss. Redis
// failures fall through to the collaborator.
func (c *CatalogCache) ListTemplates(ctx context.Context, token string) ([]domain.PolicyTemplate, error) {
	raw, err := c.store.Get(ctx, catalogKey).Bytes()
	switch {
	case err == nil:
		var out []domain.PolicyTemplate
		if jerr := json.Unmarshal(raw, &out); jerr == nil {
			return out, nil
		}
		c.log.Warn().Msg("discarding undecodable catalog cache entry")
	case !errors.Is(err, redis.Nil):
		c.log.Warn().Err(err).Msg("catalog cache read failed")
	}

	// The fill outlives the caller that started it; each caller waits on
	// its own context.
	ch := c.group.DoChan(catalogKey, func() (interface{}, error) {
		fillCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fillTimeout)
		defer cancel()

		templates, err := c.PolicyGateway.ListTemplates(fillCtx, token)
		if err != nil {
			return nil, err
		}
		if payload, err := json.Marshal(templates); err == nil {
			if err := c.store.Set(fillCtx, catalogKey, payload, c.ttl).Err(); err != nil {
				c.log.Warn().Err(err).Msg("catalog cache write failed")
			}
		}
		return templates, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("list templates: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("list templates: %w", res.Err)
		}
		return res.Val.([]domain.PolicyTemplate), nil
	}
}
