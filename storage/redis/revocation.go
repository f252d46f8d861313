package redisstore

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/darasa/platform/core"
	"github.com/darasa/platform/core/auth"
)

const keyPrefix = "revoked:"

// RevocationStore is the shared, TTL-capable revocation registry required
// for multi-instance deployments. Redis expires entries natively, so purge
// never lags a token's own expiry. All errors propagate to callers, which
// fail closed.
type RevocationStore struct {
	client *redis.Client
	logger core.Logger
}

var _ auth.RevocationStore = (*RevocationStore)(nil)

// NewRevocationStore connects to Redis and verifies the connection.
func NewRevocationStore(conf core.RedisConfig, logger core.Logger) (*RevocationStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Addr,
		Password: conf.Password,
		DB:       conf.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrapf(err, "connecting to redis at %s", conf.Addr)
	}
	logger.Info("connected to redis revocation store", "addr="+conf.Addr)

	return &RevocationStore{client: client, logger: logger}, nil
}

func (s *RevocationStore) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if err := s.client.Set(ctx, keyPrefix+jti, 1, ttl).Err(); err != nil {
		return errors.Wrap(err, "revoking token")
	}
	return nil
}

func (s *RevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := s.client.Exists(ctx, keyPrefix+jti).Result()
	if err != nil {
		return false, errors.Wrap(err, "checking revocation")
	}
	return n == 1, nil
}

// Claim is SetNX: exactly one concurrent caller wins the jti.
func (s *RevocationStore) Claim(ctx context.Context, jti string, ttl time.Duration) (bool, error) {
	claimed, err := s.client.SetNX(ctx, keyPrefix+jti, 1, ttl).Result()
	if err != nil {
		return false, errors.Wrap(err, "claiming token")
	}
	return claimed, nil
}

func (s *RevocationStore) Health(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RevocationStore) Close() error {
	return s.client.Close()
}
