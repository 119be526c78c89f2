package inventory

import (
	"context"
)

// MovementKind 库存变动类型
type MovementKind string

const (
	MovementDecrement MovementKind = "decrement" // 下单扣减
	MovementRestore   MovementKind = "restore"   // 取消/退款回补
)

// Ledger 库存台账
// 所有库存变更都必须经过这里的条件原子更新，不允许先读后写
// 当context中存在事务时，变更在该事务内执行
type Ledger interface {
	// EnsureAvailable 读取当前库存并校验数量(非锁定读)
	// 库存不足返回ErrInsufficientStock，商品不存在返回product.ErrProductNotFound
	EnsureAvailable(ctx context.Context, productID uint, quantity int) error

	// Decrement 原子扣减：仅当stock >= quantity时成功，否则返回ErrInsufficientStock
	// 以(orderID, productID)记录变动流水，同一订单同一商品重复扣减返回ErrDuplicateMovement
	Decrement(ctx context.Context, orderID, productID uint, quantity int) error

	// Restore 原子回补，同一订单同一商品只回补一次，重复调用视为成功
	Restore(ctx context.Context, orderID, productID uint, quantity int) error
}
