package order

import (
	"context"
)

// Cache 订单详情缓存(cache-aside)
// 缓存失败不影响主流程，调用方只记录日志
type Cache interface {
	// Get 未命中时返回(nil, nil)
	Get(ctx context.Context, id uint) (*Order, error)
	Set(ctx context.Context, o *Order) error
	Delete(ctx context.Context, id uint) error
}

// NopCache 未启用缓存时使用
type NopCache struct{}

func (NopCache) Get(context.Context, uint) (*Order, error) { return nil, nil }
func (NopCache) Set(context.Context, *Order) error { return nil }
func (NopCache) Delete(context.Context, uint) error { return nil }
