// Package tokenstore keeps redeemable refresh token ids.
package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/example/mes/internal/ports/secondary"
)

// KeyPrefix namespaces refresh token keys in redis.
const KeyPrefix = "token:refresh:"

// RedisStore implements secondary.RefreshTokenStore on redis. Each token id
// is a key holding the user id, expiring with the token.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore wraps an existing client.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

var _ secondary.RefreshTokenStore = (*RedisStore)(nil)

func (s *RedisStore) Save(ctx context.Context, jti string, userID int64, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, KeyPrefix+jti, userID, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save refresh token: %w", err)
	}
	return nil
}

// Consume atomically reads and deletes the key, so a token id is redeemed
// at most once even under concurrent refreshes.
func (s *RedisStore) Consume(ctx context.Context, jti string) (int64, error) {
	val, err := s.rdb.GetDel(ctx, KeyPrefix+jti).Result()
	if errors.Is(err, redis.Nil) {
		return 0, secondary.ErrTokenNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to consume refresh token: %w", err)
	}
	userID, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt refresh token entry %q: %w", val, err)
	}
	return userID, nil
}

func (s *RedisStore) Revoke(ctx context.Context, jti string) error {
	if err := s.rdb.Del(ctx, KeyPrefix+jti).Err(); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

// Ping checks connectivity for readiness probes.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}
