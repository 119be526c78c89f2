package order

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/storefront/internal/domain/inventory"
	"github.com/xiebiao/storefront/internal/domain/order"
	"github.com/xiebiao/storefront/internal/domain/payment"
	"github.com/xiebiao/storefront/pkg/logger"
	"github.com/xiebiao/storefront/pkg/metrics"
	"github.com/xiebiao/storefront/pkg/tracing"
)

// statusChanger 管理员改状态和用户取消共用的流转逻辑
// 1. 进入cancelled/refunded且存在已扣款支付时，先调用网关退款，失败则不做任何变更
// 2. 回补库存和状态更新在同一事务内完成，状态更新以原状态为条件
// 3. 提交后删除订单缓存并发布事件
type statusChanger struct {
	orders   order.Repository
	ledger   inventory.Ledger
	payments *payment.Service
	tx       Transactor
	cache    order.Cache
	events   order.EventPublisher
	now      Clock
}

// StatusDeps 状态变更用例依赖
type StatusDeps struct {
	Orders   order.Repository
	Ledger   inventory.Ledger
	Payments *payment.Service
	Tx       Transactor
	Cache    order.Cache
	Events   order.EventPublisher
}

func newStatusChanger(d StatusDeps) statusChanger {
	if d.Cache == nil {
		d.Cache = order.NopCache{}
	}
	if d.Events == nil {
		d.Events = order.NopPublisher{}
	}
	return statusChanger{
		orders:   d.Orders,
		ledger:   d.Ledger,
		payments: d.Payments,
		tx:       d.Tx,
		cache:    d.Cache,
		events:   d.Events,
		now:      time.Now,
	}
}

// apply 执行一次状态流转，mutate在内存中修改订单(校验失败时无副作用)
func (c *statusChanger) apply(ctx context.Context, o *order.Order, trigger string, mutate func(now time.Time) error) error {
	from := o.Status()
	captured := o.Payment.IsCaptured()
	if err := mutate(c.now()); err != nil {
		return err
	}
	to := o.Status()
	memo := o.LastChange().Memo

	log := logger.FromContext(ctx).With(
		zap.Uint("order_id", o.ID),
		zap.String("order_no", o.OrderNo),
		zap.String("from", string(from)),
		zap.String("to", string(to)))

	refunded := false
	if to.IsReversal() && captured {
		reason := memo
		if reason == "" {
			reason = to.Label()
		}
		err := c.payments.Refund(ctx, o.Payment.ImpUID, reason)
		metrics.PaymentCancellationsTotal.WithLabelValues(trigger, metrics.Result(err)).Inc()
		if err != nil {
			log.Error("网关退款失败，订单状态未变更", zap.Error(err))
			return err
		}
		refunded = true
	}

	err := c.tx.Transaction(ctx, func(ctx context.Context) error {
		if to.IsReversal() {
			for _, item := range o.Items {
				if err := c.ledger.Restore(ctx, o.ID, item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
		}
		return c.orders.UpdateStatus(ctx, o, from)
	})
	if err != nil {
		if refunded {
			// 重试同一请求即可收敛，Refund会跳过网关已取消的支付
			log.Error("网关已退款，本地状态未变更",
				zap.String("imp_uid", o.Payment.ImpUID),
				zap.Error(err))
			return err
		}
		log.Error("持久化状态变更失败", zap.Error(err))
		return err
	}
	metrics.OrderStatusTransitionsTotal.WithLabelValues(string(from), string(to)).Inc()

	if err := c.cache.Delete(ctx, o.ID); err != nil {
		log.Warn("删除订单缓存失败", zap.Error(err))
	}
	if err := c.events.Publish(ctx, order.NewStatusChangedEvent(o, from)); err != nil {
		log.Warn("发布状态变更事件失败", zap.Error(err))
	}
	log.Info("订单状态已变更", zap.String("memo", memo))
	return nil
}

// ChangeStatusUseCase 管理员修改订单状态
type ChangeStatusUseCase struct {
	statusChanger
}

// NewChangeStatusUseCase 创建改状态用例
func NewChangeStatusUseCase(d StatusDeps) *ChangeStatusUseCase {
	return &ChangeStatusUseCase{statusChanger: newStatusChanger(d)}
}

// ChangeStatusRequest 改状态请求
type ChangeStatusRequest struct {
	OrderID uint
	Status  string
	Memo    string
}

// Execute 按流转表修改状态
func (uc *ChangeStatusUseCase) Execute(ctx context.Context, req ChangeStatusRequest) (o *order.Order, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "ChangeStatus")
	defer func() {
		tracing.RecordError(span, err)
		span.End()
	}()

	target, err := order.ParseStatus(req.Status)
	if err != nil {
		return nil, err
	}
	o, err = uc.orders.FindByID(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}

	err = uc.apply(ctx, o, "admin", func(now time.Time) error {
		return o.TransitionTo(target, req.Memo, now)
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

// CancelOrderUseCase 用户取消订单
type CancelOrderUseCase struct {
	statusChanger
}

// NewCancelOrderUseCase 创建取消订单用例
func NewCancelOrderUseCase(d StatusDeps) *CancelOrderUseCase {
	return &CancelOrderUseCase{statusChanger: newStatusChanger(d)}
}

// CancelOrderRequest 取消请求，Reason为空时使用默认原因
type CancelOrderRequest struct {
	UserID  uint
	OrderID uint
	Reason  string
}

// Execute 取消订单
// 非本人订单按不存在处理
func (uc *CancelOrderUseCase) Execute(ctx context.Context, req CancelOrderRequest) (o *order.Order, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "CancelOrder")
	defer func() {
		tracing.RecordError(span, err)
		span.End()
	}()

	o, err = uc.orders.FindByID(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if !o.IsOwnedBy(req.UserID) {
		return nil, order.ErrOrderNotFound
	}

	err = uc.apply(ctx, o, "customer", func(now time.Time) error {
		return o.Cancel(req.Reason, now)
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

// UpdateAdminMemoUseCase 更新后台备注
type UpdateAdminMemoUseCase struct {
	orders order.Repository
	cache  order.Cache
}

// NewUpdateAdminMemoUseCase 创建备注用例
func NewUpdateAdminMemoUseCase(orders order.Repository, cache order.Cache) *UpdateAdminMemoUseCase {
	if cache == nil {
		cache = order.NopCache{}
	}
	return &UpdateAdminMemoUseCase{orders: orders, cache: cache}
}

// Execute 更新备注并返回最新订单
func (uc *UpdateAdminMemoUseCase) Execute(ctx context.Context, orderID uint, memo string) (*order.Order, error) {
	if err := uc.orders.UpdateAdminMemo(ctx, orderID, memo); err != nil {
		return nil, err
	}
	if err := uc.cache.Delete(ctx, orderID); err != nil {
		logger.FromContext(ctx).Warn("删除订单缓存失败", zap.Uint("order_id", orderID), zap.Error(err))
	}
	return uc.orders.FindByID(ctx, orderID)
}
