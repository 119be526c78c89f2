package cart

import (
	"context"
	"errors"

	"github.com/xiebiao/storefront/internal/domain/cart"
	"github.com/xiebiao/storefront/internal/domain/product"
)

// ItemInfo 购物车条目(带商品当前信息)
type ItemInfo struct {
	ProductID    uint   `json:"product_id"`
	Name         string `json:"name"`
	Price        int64  `json:"price"`
	ImageURL     string `json:"image_url"`
	FreeShipping bool   `json:"free_shipping"`
	Quantity     int    `json:"quantity"`
}

// GetCartUseCase 查看购物车
type GetCartUseCase struct {
	carts    cart.Repository
	products product.Repository
}

// NewGetCartUseCase 创建查看购物车用例
func NewGetCartUseCase(carts cart.Repository, products product.Repository) *GetCartUseCase {
	return &GetCartUseCase{carts: carts, products: products}
}

// Execute 返回购物车条目，已下架(不存在)的商品跳过
func (uc *GetCartUseCase) Execute(ctx context.Context, userID uint) ([]ItemInfo, error) {
	items, err := uc.carts.Items(ctx, userID)
	if err != nil {
		return nil, err
	}

	list := make([]ItemInfo, 0, len(items))
	for _, it := range items {
		p, err := uc.products.FindByID(ctx, it.ProductID)
		if err != nil {
			if errors.Is(err, product.ErrProductNotFound) {
				continue
			}
			return nil, err
		}
		list = append(list, ItemInfo{
			ProductID:    p.ID,
			Name:         p.Name,
			Price:        p.Price,
			ImageURL:     p.ImageURL,
			FreeShipping: p.FreeShipping,
			Quantity:     it.Quantity,
		})
	}
	return list, nil
}

// AddItemUseCase 加入购物车
type AddItemUseCase struct {
	carts    cart.Repository
	products product.Repository
}

// NewAddItemUseCase 创建加购用例
func NewAddItemUseCase(carts cart.Repository, products product.Repository) *AddItemUseCase {
	return &AddItemUseCase{carts: carts, products: products}
}

// AddItemRequest 加购请求
type AddItemRequest struct {
	UserID    uint
	ProductID uint
	Quantity  int
}

// Execute 商品必须存在，数量必须大于0
func (uc *AddItemUseCase) Execute(ctx context.Context, req AddItemRequest) error {
	if req.Quantity <= 0 {
		return cart.ErrInvalidQuantity
	}
	if _, err := uc.products.FindByID(ctx, req.ProductID); err != nil {
		return err
	}
	return uc.carts.Add(ctx, req.UserID, req.ProductID, req.Quantity)
}
