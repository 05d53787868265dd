package redisstore

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/darasa/core/access"
)

const impersonationKeyPrefix = "impersonation:"

// ImpersonationStore keeps the tenant each operator is currently
// viewing as, keyed by the operator's user id. Entries expire on
// their own so a forgotten impersonation does not linger.
type ImpersonationStore struct {
	rdb *redis.Client
	ttl time.Duration
}

var _ access.ImpersonationStore = (*ImpersonationStore)(nil)

func NewImpersonationStore(rdb *redis.Client, ttl time.Duration) *ImpersonationStore {
	return &ImpersonationStore{rdb: rdb, ttl: ttl}
}

func (s *ImpersonationStore) Impersonation(ctx context.Context, userID string) (string, error) {
	tenantID, err := s.rdb.Get(ctx, impersonationKeyPrefix+userID).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(err, "reading impersonation store")
	}
	return tenantID, nil
}

func (s *ImpersonationStore) Start(ctx context.Context, userID, tenantID string) error {
	if err := s.rdb.Set(ctx, impersonationKeyPrefix+userID, tenantID, s.ttl).Err(); err != nil {
		return errors.Wrap(err, "writing impersonation store")
	}
	return nil
}

func (s *ImpersonationStore) Stop(ctx context.Context, userID string) error {
	if err := s.rdb.Del(ctx, impersonationKeyPrefix+userID).Err(); err != nil {
		return errors.Wrap(err, "clearing impersonation store")
	}
	return nil
}
