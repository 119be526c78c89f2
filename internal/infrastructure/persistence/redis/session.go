package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/xiebiao/storefront/pkg/errors"
)

// TokenBlacklist 已注销的Token
// 以Token的SHA-256作为key，TTL为Token剩余有效期
type TokenBlacklist struct {
	client redis.Cmdable
}

// NewTokenBlacklist 创建Token黑名单
func NewTokenBlacklist(client redis.Cmdable) *TokenBlacklist {
	return &TokenBlacklist{client: client}
}

// Revoke 注销Token，ttl<=0时不写入(已过期)
func (s *TokenBlacklist) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, blacklistKey(token), "revoked", ttl).Err(); err != nil {
		return apperrors.ErrRedisError.WithCause(err)
	}
	return nil
}

// IsRevoked 检查Token是否已注销
func (s *TokenBlacklist) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := s.client.Exists(ctx, blacklistKey(token)).Result()
	if err != nil {
		return false, apperrors.ErrRedisError.WithCause(err)
	}
	return n > 0, nil
}

func blacklistKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "auth:blacklist:" + hex.EncodeToString(sum[:])
}
