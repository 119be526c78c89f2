package order

import (
	"context"
	"time"
)

// Repository 订单仓储接口
// 写操作通过context中的事务执行(见mysql.TxManager)
type Repository interface {
	// Create 创建订单(订单、明细、首条状态记录在同一事务中写入)
	// 唯一键冲突时返回ErrDuplicateMerchantUID / ErrDuplicatePayment / ErrDuplicateOrderNo
	Create(ctx context.Context, order *Order) error

	// FindByID 根据ID查找订单(包含明细和状态历史)
	FindByID(ctx context.Context, id uint) (*Order, error)

	// FindByOrderNo 根据订单号查找订单
	FindByOrderNo(ctx context.Context, orderNo string) (*Order, error)

	// FindByMerchantUID 按商户幂等键查找，不存在返回ErrOrderNotFound
	FindByMerchantUID(ctx context.Context, merchantUID string) (*Order, error)

	// FindByImpUID 按网关支付凭证查找，不存在返回ErrOrderNotFound
	FindByImpUID(ctx context.Context, impUID string) (*Order, error)

	// UpdateStatus 持久化一次状态流转
	// 以from做条件更新，状态已被修改时返回ErrConcurrentModification；同时追加最新一条历史
	UpdateStatus(ctx context.Context, order *Order, from Status) error

	// UpdateAdminMemo 更新后台备注
	UpdateAdminMemo(ctx context.Context, id uint, memo string) error

	// List 分页查询
	List(ctx context.Context, filter ListFilter) ([]*Order, error)

	// Count 统计满足条件的订单数
	Count(ctx context.Context, filter ListFilter) (int64, error)

	// CountByStatus 按状态分组计数
	CountByStatus(ctx context.Context) (map[Status]int64, error)

	// SumTotalPrice 统计未处于excluded状态的订单总额
	SumTotalPrice(ctx context.Context, excluded []Status) (int64, error)
}

const (
	DefaultUserPageSize  = 10
	DefaultAdminPageSize = 20
	MaxPageSize          = 100
)

// ListFilter 订单查询条件
// UserID为0时不按用户过滤；Statuses为空时不按状态过滤
type ListFilter struct {
	UserID    uint
	Statuses  []Status
	StartDate *time.Time // 包含
	EndDate   *time.Time // 不包含
	Page      int
	PageSize  int
}

// Normalize 填充分页默认值
func (f ListFilter) Normalize(defaultSize int) ListFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = defaultSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
	return f
}

// Offset 分页偏移量
func (f ListFilter) Offset() int {
	return (f.Page - 1) * f.PageSize
}

// Stats 订单统计
type Stats struct {
	TotalOrders   int64
	TodayOrders   int64
	PendingOrders int64
	StatusCounts  map[Status]int64
	TotalRevenue  int64
}
