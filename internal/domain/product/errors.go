package product

import (
	apperrors "github.com/xiebiao/storefront/pkg/errors"
)

// 商品领域错误定义
var (
	// ErrProductNotFound 商品不存在
	ErrProductNotFound = apperrors.ErrProductNotFound

	// ErrSKUDuplicate SKU已存在
	ErrSKUDuplicate = apperrors.ErrSKUDuplicate

	// ErrInvalidPrice 价格不合法
	ErrInvalidPrice = apperrors.New(apperrors.ErrCodeInvalidParams, "价格必须大于0")

	// ErrInvalidStock 库存不合法
	ErrInvalidStock = apperrors.New(apperrors.ErrCodeInvalidParams, "库存不能为负数")

	// ErrInvalidSKU SKU格式不正确
	ErrInvalidSKU = apperrors.New(apperrors.ErrCodeInvalidParams, "SKU格式不正确(2-40位字母、数字或-)")
)
