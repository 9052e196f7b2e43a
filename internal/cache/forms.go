package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const keyPrefix = "formforge:public-form:"

// FormCache stores rendered public forms by id and by slug. A nil
// *FormCache is valid and caches nothing. Redis errors are logged and
// treated as misses.
type FormCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewFormCache returns nil when rdb is nil or ttl is not positive.
func NewFormCache(rdb *redis.Client, ttl time.Duration) *FormCache {
	if rdb == nil || ttl <= 0 {
		return nil
	}
	return &FormCache{rdb: rdb, ttl: ttl}
}

func idKey(id string) string {
	return keyPrefix + "id:" + id
}

func slugKey(slug string) string {
	return keyPrefix + "slug:" + slug
}

func (c *FormCache) get(ctx context.Context, key string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Str("key", key).Msg("Form cache read failed")
		}
		return nil, false
	}
	return data, true
}

// GetByID returns the cached payload for a form id.
func (c *FormCache) GetByID(ctx context.Context, id string) ([]byte, bool) {
	return c.get(ctx, idKey(id))
}

// GetBySlug returns the cached payload for a form slug.
func (c *FormCache) GetBySlug(ctx context.Context, slug string) ([]byte, bool) {
	return c.get(ctx, slugKey(slug))
}

// Set stores payload under both the id and slug keys.
func (c *FormCache) Set(ctx context.Context, id, slug string, payload []byte) {
	if c == nil {
		return
	}
	pipe := c.rdb.TxPipeline()
	pipe.Set(ctx, idKey(id), payload, c.ttl)
	pipe.Set(ctx, slugKey(slug), payload, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Warn().Err(err).Str("form_id", id).Msg("Form cache write failed")
	}
}

// Invalidate drops the entries for a form. Pass every slug the form has
// been served under.
func (c *FormCache) Invalidate(ctx context.Context, id string, slugs ...string) {
	if c == nil {
		return
	}
	keys := []string{idKey(id)}
	for _, slug := range slugs {
		if slug != "" {
			keys = append(keys, slugKey(slug))
		}
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		log.Warn().Err(err).Str("form_id", id).Msg("Form cache invalidation failed")
	}
}
