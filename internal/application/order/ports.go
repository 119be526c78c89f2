package order

import (
	"context"
	"time"
)

const tracerName = "storefront/application/order"

// Transactor 事务边界，fn内的仓储操作共享同一事务(mysql.TxManager实现)
type Transactor interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Clock 当前时间，测试中可替换
type Clock func() time.Time
