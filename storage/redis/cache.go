package redisstore

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/tenant"
)

const slugKeyPrefix = "tenant:slug:"

// slugCacheTTL bounds staleness if an invalidation event is ever
// missed; normal invalidation happens on tenant mutation.
const slugCacheTTL = 12 * time.Hour

func NewClient(conf *core.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Addr,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
}

// SlugCache is the shared slug→tenant-id cache read by the resolution
// pipeline on every tenant-subdomain request.
type SlugCache struct {
	rdb *redis.Client
}

var _ tenant.SlugCache = (*SlugCache)(nil)

func NewSlugCache(rdb *redis.Client) *SlugCache {
	return &SlugCache{rdb: rdb}
}

func (c *SlugCache) GetID(ctx context.Context, slug string) (string, error) {
	id, err := c.rdb.Get(ctx, slugKeyPrefix+slug).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(err, "reading slug cache")
	}
	return id, nil
}

func (c *SlugCache) SetID(ctx context.Context, slug, id string) error {
	if err := c.rdb.Set(ctx, slugKeyPrefix+slug, id, slugCacheTTL).Err(); err != nil {
		return errors.Wrap(err, "writing slug cache")
	}
	return nil
}

func (c *SlugCache) Invalidate(ctx context.Context, slugs ...string) error {
	if len(slugs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(slugs))
	for _, slug := range slugs {
		keys = append(keys, slugKeyPrefix+slug)
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return errors.Wrap(err, "invalidating slug cache")
	}
	return nil
}
