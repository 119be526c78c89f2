package order

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xiebiao/storefront/internal/domain/order"
	"github.com/xiebiao/storefront/pkg/logger"
)

// GetOrderUseCase 订单详情(cache-aside)
type GetOrderUseCase struct {
	orders order.Repository
	cache  order.Cache
}

// NewGetOrderUseCase 创建订单详情用例
func NewGetOrderUseCase(orders order.Repository, cache order.Cache) *GetOrderUseCase {
	if cache == nil {
		cache = order.NopCache{}
	}
	return &GetOrderUseCase{orders: orders, cache: cache}
}

// GetOrderRequest 详情请求，Admin为false时只能查看本人订单
type GetOrderRequest struct {
	OrderID uint
	UserID  uint
	Admin   bool
}

// Execute 查询订单，缓存读写失败不影响结果
func (uc *GetOrderUseCase) Execute(ctx context.Context, req GetOrderRequest) (*order.Order, error) {
	log := logger.FromContext(ctx)

	o, err := uc.cache.Get(ctx, req.OrderID)
	if err != nil {
		log.Warn("读取订单缓存失败", zap.Uint("order_id", req.OrderID), zap.Error(err))
	}
	if o == nil {
		o, err = uc.orders.FindByID(ctx, req.OrderID)
		if err != nil {
			return nil, err
		}
		if err := uc.cache.Set(ctx, o); err != nil {
			log.Warn("写入订单缓存失败", zap.Uint("order_id", req.OrderID), zap.Error(err))
		}
	}

	if !req.Admin && !o.IsOwnedBy(req.UserID) {
		return nil, order.ErrOrderNotFound
	}
	return o, nil
}

// ListOrdersUseCase 订单分页查询
type ListOrdersUseCase struct {
	orders order.Repository
}

// NewListOrdersUseCase 创建订单列表用例
func NewListOrdersUseCase(orders order.Repository) *ListOrdersUseCase {
	return &ListOrdersUseCase{orders: orders}
}

// ListResult 分页结果
type ListResult struct {
	Orders   []*order.Order
	Total    int64
	Page     int
	PageSize int
}

// Mine 当前用户的订单，默认每页10条
func (uc *ListOrdersUseCase) Mine(ctx context.Context, userID uint, filter order.ListFilter) (*ListResult, error) {
	filter.UserID = userID
	return uc.list(ctx, filter.Normalize(order.DefaultUserPageSize))
}

// All 后台订单列表，默认每页20条
func (uc *ListOrdersUseCase) All(ctx context.Context, filter order.ListFilter) (*ListResult, error) {
	filter.UserID = 0
	return uc.list(ctx, filter.Normalize(order.DefaultAdminPageSize))
}

// list 并行查询列表和总数
func (uc *ListOrdersUseCase) list(ctx context.Context, filter order.ListFilter) (*ListResult, error) {
	var (
		eg     errgroup.Group
		orders []*order.Order
		total  int64
	)
	eg.Go(func() error {
		var err error
		orders, err = uc.orders.List(ctx, filter)
		return err
	})
	eg.Go(func() error {
		var err error
		total, err = uc.orders.Count(ctx, filter)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return &ListResult{Orders: orders, Total: total, Page: filter.Page, PageSize: filter.PageSize}, nil
}

// StatsUseCase 后台订单统计
type StatsUseCase struct {
	orders order.Repository
	loc    *time.Location
	now    Clock
}

// NewStatsUseCase 创建统计用例，loc决定"今日"的边界
func NewStatsUseCase(orders order.Repository, loc *time.Location) *StatsUseCase {
	if loc == nil {
		loc = time.UTC
	}
	return &StatsUseCase{orders: orders, loc: loc, now: time.Now}
}

// Execute 并行统计
// 待处理为pending和paid，营收排除cancelled和refunded
func (uc *StatsUseCase) Execute(ctx context.Context) (*order.Stats, error) {
	today := order.StartOfDay(uc.now(), uc.loc)
	stats := &order.Stats{}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		stats.TotalOrders, err = uc.orders.Count(ctx, order.ListFilter{})
		return err
	})
	eg.Go(func() error {
		var err error
		stats.TodayOrders, err = uc.orders.Count(ctx, order.ListFilter{StartDate: &today})
		return err
	})
	eg.Go(func() error {
		var err error
		stats.PendingOrders, err = uc.orders.Count(ctx, order.ListFilter{
			Statuses: []order.Status{order.StatusPending, order.StatusPaid},
		})
		return err
	})
	eg.Go(func() error {
		var err error
		stats.StatusCounts, err = uc.orders.CountByStatus(ctx)
		return err
	})
	eg.Go(func() error {
		var err error
		stats.TotalRevenue, err = uc.orders.SumTotalPrice(ctx, []order.Status{order.StatusCancelled, order.StatusRefunded})
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}
