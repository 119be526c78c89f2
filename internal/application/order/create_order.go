package order

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/storefront/internal/domain/cart"
	"github.com/xiebiao/storefront/internal/domain/inventory"
	"github.com/xiebiao/storefront/internal/domain/order"
	"github.com/xiebiao/storefront/internal/domain/payment"
	"github.com/xiebiao/storefront/internal/domain/product"
	apperrors "github.com/xiebiao/storefront/pkg/errors"
	"github.com/xiebiao/storefront/pkg/logger"
	"github.com/xiebiao/storefront/pkg/metrics"
	"github.com/xiebiao/storefront/pkg/saga"
	"github.com/xiebiao/storefront/pkg/tracing"
)

// ReasonAmountMismatch 校验失败但网关已扣款时的自动取消原因
const ReasonAmountMismatch = "支付金额不一致，自动取消"

// CreateOrderUseCase 创建订单用例
// 流程：幂等检查 → 解析明细 → 校验库存 → 计算金额 → 网关校验 → 事务内落单并扣减库存
// 网关校验和落单组成Saga，落单失败时补偿取消网关支付
type CreateOrderUseCase struct {
	orders   order.Repository
	products product.Repository
	ledger   inventory.Ledger
	carts    cart.Repository
	payments *payment.Service
	numbers  *order.NumberGenerator
	tx       Transactor
	events   order.EventPublisher
	pricing  order.ShippingPolicy
	timeout  time.Duration
	now      Clock
}

// CreateOrderDeps 创建订单用例依赖
type CreateOrderDeps struct {
	Orders   order.Repository
	Products product.Repository
	Ledger   inventory.Ledger
	Carts    cart.Repository
	Payments *payment.Service
	Numbers  *order.NumberGenerator
	Tx       Transactor
	Events   order.EventPublisher
	Pricing  order.ShippingPolicy
	Timeout  time.Duration // <=0 不限制
}

// NewCreateOrderUseCase 创建下单用例
func NewCreateOrderUseCase(d CreateOrderDeps) *CreateOrderUseCase {
	if d.Events == nil {
		d.Events = order.NopPublisher{}
	}
	return &CreateOrderUseCase{
		orders:   d.Orders,
		products: d.Products,
		ledger:   d.Ledger,
		carts:    d.Carts,
		payments: d.Payments,
		numbers:  d.Numbers,
		tx:       d.Tx,
		events:   d.Events,
		pricing:  d.Pricing,
		timeout:  d.Timeout,
		now:      time.Now,
	}
}

// CreateOrderRequest 下单请求
type CreateOrderRequest struct {
	UserID   uint
	Items    []CreateOrderItem // 为空时使用购物车
	Shipping order.Shipping
	Payment  order.Claim
}

// CreateOrderItem 下单明细
type CreateOrderItem struct {
	ProductID uint
	Quantity  int
}

// CreateOrderResult 下单结果
// Replayed为true表示merchant_uid已下过单，返回的是已有订单
type CreateOrderResult struct {
	Order    *order.Order
	Replayed bool
}

// Execute 执行下单
func (uc *CreateOrderUseCase) Execute(ctx context.Context, req CreateOrderRequest) (res *CreateOrderResult, err error) {
	start := time.Now()
	ctx, span := tracing.StartSpan(ctx, tracerName, "CreateOrder")
	defer func() {
		tracing.RecordError(span, err)
		span.End()
		if err != nil {
			metrics.ObserveOrderFailed(apperrors.GetAppError(err).Code, time.Since(start))
			return
		}
		metrics.ObserveOrderCreated(res.Replayed, time.Since(start))
	}()

	log := logger.FromContext(ctx).With(
		zap.Uint("user_id", req.UserID),
		zap.String("merchant_uid", req.Payment.MerchantUID),
		zap.String("imp_uid", req.Payment.ImpUID))

	if err := req.Payment.Validate(); err != nil {
		return nil, err
	}
	if err := req.Shipping.Validate(); err != nil {
		return nil, err
	}

	// 1. 幂等检查
	if replay, err := uc.replay(ctx, req.UserID, req.Payment.MerchantUID); err != nil || replay != nil {
		return replay, err
	}
	switch _, err := uc.orders.FindByImpUID(ctx, req.Payment.ImpUID); {
	case err == nil:
		return nil, order.ErrDuplicatePayment
	case !errors.Is(err, order.ErrOrderNotFound):
		return nil, err
	}

	// 2. 解析明细
	requested, fromCart, err := uc.requestedItems(ctx, req)
	if err != nil {
		return nil, err
	}

	// 3. 商品快照与库存校验
	items, err := uc.snapshot(ctx, requested)
	if err != nil {
		return nil, err
	}

	// 4. 计算金额并构建订单(网关调用前完成全部本地校验)
	now := uc.now()
	o, err := order.NewOrder(order.NewOrderParams{
		UserID:   req.UserID,
		Items:    items,
		Shipping: req.Shipping,
		Amounts:  uc.pricing.Price(items),
		Status:   order.StatusPaid,
		Now:      now,
	})
	if err != nil {
		return nil, err
	}

	// 5-6. 网关校验 + 落单
	s := saga.NewSaga(uc.timeout,
		saga.WithLogger(log),
		saga.WithCompensationHook(func(step string, err error) {
			metrics.SagaCompensationsTotal.WithLabelValues(step, metrics.Result(err)).Inc()
		}))
	s.AddStep("verify_payment",
		func(ctx context.Context) error { return uc.verify(ctx, log, o, req.Payment) },
		func(ctx context.Context, cause error) error { return uc.compensate(ctx, log, o, cause) })
	s.AddStep("persist_order",
		func(ctx context.Context) error { return uc.persist(ctx, o) },
		nil)

	err = s.Execute(ctx)
	metrics.SagaExecutionsTotal.WithLabelValues("create_order", metrics.Result(err)).Inc()
	if err != nil {
		err = unwrapSaga(err)
		if errors.Is(err, order.ErrDuplicateMerchantUID) {
			// 并发请求抢先落单，返回胜出的订单
			replay, rerr := uc.replay(ctx, req.UserID, req.Payment.MerchantUID)
			if rerr != nil {
				return nil, rerr
			}
			if replay != nil {
				return replay, nil
			}
		}
		log.Warn("创建订单失败", zap.Error(err))
		return nil, err
	}

	// 7. 清空购物车(不影响下单结果)
	if fromCart {
		if err := uc.carts.Clear(ctx, req.UserID); err != nil {
			log.Warn("清空购物车失败", zap.Error(err))
		}
	}

	// 8. 发布事件
	if err := uc.events.Publish(ctx, order.NewCreatedEvent(o)); err != nil {
		log.Warn("发布订单创建事件失败", zap.String("order_no", o.OrderNo), zap.Error(err))
	}

	log.Info("订单创建成功",
		zap.Uint("order_id", o.ID),
		zap.String("order_no", o.OrderNo),
		zap.Int64("total_price", o.Amounts.TotalPrice))
	return &CreateOrderResult{Order: o}, nil
}

// replay 按merchant_uid查找已有订单
// 订单属于其他用户时视为支付凭证冲突，不返回他人订单
func (uc *CreateOrderUseCase) replay(ctx context.Context, userID uint, merchantUID string) (*CreateOrderResult, error) {
	existing, err := uc.orders.FindByMerchantUID(ctx, merchantUID)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !existing.IsOwnedBy(userID) {
		return nil, order.ErrDuplicatePayment
	}
	return &CreateOrderResult{Order: existing, Replayed: true}, nil
}

// requestedItems 显式明细优先，否则读取购物车；同一商品合并数量
func (uc *CreateOrderUseCase) requestedItems(ctx context.Context, req CreateOrderRequest) ([]CreateOrderItem, bool, error) {
	raw := req.Items
	fromCart := false
	if len(raw) == 0 {
		cartItems, err := uc.carts.Items(ctx, req.UserID)
		if err != nil {
			return nil, false, err
		}
		for _, ci := range cartItems {
			raw = append(raw, CreateOrderItem{ProductID: ci.ProductID, Quantity: ci.Quantity})
		}
		fromCart = true
	}
	if len(raw) == 0 {
		return nil, false, order.ErrEmptyOrder
	}

	merged := make([]CreateOrderItem, 0, len(raw))
	index := make(map[uint]int, len(raw))
	for _, item := range raw {
		if item.Quantity < 1 {
			return nil, false, order.ErrInvalidQuantity
		}
		if i, ok := index[item.ProductID]; ok {
			merged[i].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(merged)
		merged = append(merged, item)
	}
	return merged, fromCart, nil
}

func (uc *CreateOrderUseCase) snapshot(ctx context.Context, requested []CreateOrderItem) ([]order.OrderItem, error) {
	items := make([]order.OrderItem, 0, len(requested))
	for _, r := range requested {
		p, err := uc.products.FindByID(ctx, r.ProductID)
		if err != nil {
			return nil, err
		}
		if err := uc.ledger.EnsureAvailable(ctx, r.ProductID, r.Quantity); err != nil {
			return nil, err
		}
		items = append(items, order.OrderItem{
			ProductID:    p.ID,
			Name:         p.Name,
			Price:        p.Price,
			Quantity:     r.Quantity,
			ImageURL:     p.ImageURL,
			FreeShipping: p.FreeShipping,
		})
	}
	return items, nil
}

// verify 网关校验，失败一律返回ErrPaymentVerification
// 校验不通过但本次结算已在网关扣款时尽力取消，取消失败只记录日志
// 商户订单号不一致的支付属于其他结算，不取消
func (uc *CreateOrderUseCase) verify(ctx context.Context, log *zap.Logger, o *order.Order, claim order.Claim) error {
	expected := o.Amounts.TotalPrice
	result, err := uc.payments.Verify(ctx, claim.ImpUID, claim.MerchantUID, expected)
	if err != nil {
		metrics.PaymentVerificationsTotal.WithLabelValues("error").Inc()
		return order.ErrPaymentVerification.
			WithMessage("支付校验失败: " + apperrors.GetAppError(err).Message).
			WithCause(err)
	}

	if !result.OK {
		metrics.PaymentVerificationsTotal.WithLabelValues("rejected").Inc()
		log.Warn("支付校验未通过",
			zap.String("reason", result.Reason),
			zap.Int64("expected", expected),
			zap.Bool("foreign", result.Foreign))
		if result.Captured() {
			_, cerr := uc.payments.Cancel(context.WithoutCancel(ctx), claim.ImpUID, ReasonAmountMismatch, nil)
			metrics.PaymentCancellationsTotal.WithLabelValues("verification", metrics.Result(cerr)).Inc()
			if cerr != nil {
				log.Error("自动取消支付失败", zap.Error(cerr))
			}
		}
		return order.ErrPaymentVerification.WithMessage(result.Reason)
	}

	metrics.PaymentVerificationsTotal.WithLabelValues("ok").Inc()
	p := payment.Normalize(result.Record)
	if p.Method == "" {
		p.Method = claim.Method
	}
	if p.MerchantUID == "" {
		p.MerchantUID = claim.MerchantUID
	}
	o.Payment = p
	return nil
}

// compensate 落单失败后取消网关支付
// 唯一键冲突说明该支付已属于另一笔订单，不能取消
func (uc *CreateOrderUseCase) compensate(ctx context.Context, log *zap.Logger, o *order.Order, cause error) error {
	if errors.Is(cause, order.ErrDuplicateMerchantUID) || errors.Is(cause, order.ErrDuplicatePayment) {
		return nil
	}
	_, err := uc.payments.Cancel(ctx, o.Payment.ImpUID, "订单创建失败，自动取消", nil)
	metrics.PaymentCancellationsTotal.WithLabelValues("compensation", metrics.Result(err)).Inc()
	if err != nil {
		log.Error("补偿取消支付失败", zap.NamedError("cause", cause), zap.Error(err))
	}
	return err
}

// persist 单一事务内分配订单号、写入订单、逐项条件扣减库存
func (uc *CreateOrderUseCase) persist(ctx context.Context, o *order.Order) error {
	return uc.tx.Transaction(ctx, func(ctx context.Context) error {
		no, err := uc.numbers.Next(ctx, o.CreatedAt)
		if err != nil {
			return err
		}
		if err := o.AssignOrderNo(no); err != nil {
			return err
		}
		if err := uc.orders.Create(ctx, o); err != nil {
			return err
		}
		for _, item := range o.Items {
			if err := uc.ledger.Decrement(ctx, o.ID, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
}

// unwrapSaga 取出步骤的原始错误
func unwrapSaga(err error) error {
	var se *saga.Error
	if !errors.As(err, &se) {
		return err
	}
	if se.Step == "" {
		return apperrors.Wrap(se.Cause, "创建订单超时")
	}
	return se.Cause
}
