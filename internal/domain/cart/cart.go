package cart

import (
	"context"

	apperrors "github.com/xiebiao/storefront/pkg/errors"
)

// Item 购物车条目
type Item struct {
	ProductID uint
	Quantity  int
}

// ErrInvalidQuantity 数量必须大于0
var ErrInvalidQuantity = apperrors.New(apperrors.ErrCodeInvalidParams, "数量必须大于0")

// Repository 购物车存储，每个用户一个购物车
type Repository interface {
	// Items 返回用户购物车条目，购物车不存在时返回空切片
	Items(ctx context.Context, userID uint) ([]Item, error)

	// Add 加入商品，已存在的商品累加数量
	Add(ctx context.Context, userID, productID uint, quantity int) error

	// Clear 清空购物车
	Clear(ctx context.Context, userID uint) error
}
