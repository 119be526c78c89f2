package inventory

import (
	apperrors "github.com/xiebiao/storefront/pkg/errors"
)

var (
	// ErrInsufficientStock 库存不足
	ErrInsufficientStock = apperrors.ErrInsufficientStock

	// ErrInvalidQuantity 数量必须大于0
	ErrInvalidQuantity = apperrors.New(apperrors.ErrCodeInvalidParams, "数量必须大于0")

	// ErrDuplicateMovement 同一订单同一商品的扣减已记录
	ErrDuplicateMovement = apperrors.New(apperrors.ErrCodeDuplicateMovement, "库存流水已存在")
)
