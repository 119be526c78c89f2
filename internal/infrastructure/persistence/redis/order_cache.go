package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xiebiao/storefront/internal/domain/order"
	apperrors "github.com/xiebiao/storefront/pkg/errors"
)

// orderCache 订单详情缓存
type orderCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewOrderCache 创建订单缓存
func NewOrderCache(client redis.Cmdable, ttl time.Duration) order.Cache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &orderCache{client: client, ttl: ttl}
}

func orderCacheKey(id uint) string {
	return fmt.Sprintf("order:detail:%d", id)
}

func (c *orderCache) Get(ctx context.Context, id uint) (*order.Order, error) {
	val, err := c.client.Get(ctx, orderCacheKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, apperrors.ErrRedisError.WithCause(err)
	}
	return decodeOrder(val)
}

func (c *orderCache) Set(ctx context.Context, o *order.Order) error {
	data, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("序列化订单失败: %w", err)
	}
	if err := c.client.Set(ctx, orderCacheKey(o.ID), data, c.ttl).Err(); err != nil {
		return apperrors.ErrRedisError.WithCause(err)
	}
	return nil
}

func (c *orderCache) Delete(ctx context.Context, id uint) error {
	if err := c.client.Del(ctx, orderCacheKey(id)).Err(); err != nil {
		return apperrors.ErrRedisError.WithCause(err)
	}
	return nil
}

func decodeOrder(data []byte) (*order.Order, error) {
	var o order.Order
	if err := json.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("反序列化订单失败: %w", err)
	}
	return &o, nil
}
