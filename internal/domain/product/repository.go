package product

import (
	"context"
)

// Repository 商品仓储接口
type Repository interface {
	// Create 创建商品，SKU冲突返回ErrSKUDuplicate
	Create(ctx context.Context, p *Product) error

	// FindByID 不存在返回ErrProductNotFound
	FindByID(ctx context.Context, id uint) (*Product, error)

	// FindBySKU 不存在返回ErrProductNotFound
	FindBySKU(ctx context.Context, sku string) (*Product, error)
}
