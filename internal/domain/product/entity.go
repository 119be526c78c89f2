package product

import (
	"time"
)

// Product 商品实体
// 下单时只读取价格、名称、图片和包邮标记做快照；库存由inventory.Ledger原子维护
type Product struct {
	ID            uint
	SKU           string // 唯一
	Name          string
	Price         int64 // 单位:韩元
	Category      string
	ImageURL      string
	Stock         int
	FreeShipping  bool
	IsPublic      bool
	IsRecommended bool
	Description   string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewProduct 创建商品(工厂方法)
func NewProduct(sku, name string, price int64, stock int, category, imageURL, description string, freeShipping bool) *Product {
	now := time.Now()
	return &Product{
		SKU:          sku,
		Name:         name,
		Price:        price,
		Category:     category,
		ImageURL:     imageURL,
		Stock:        stock,
		FreeShipping: freeShipping,
		IsPublic:     true,
		Description:  description,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// HasStock 当前读到的库存是否满足数量(非原子，仅用于下单前校验)
func (p *Product) HasStock(quantity int) bool {
	return p.Stock >= quantity
}
