package order

import (
	"encoding/json"
	"fmt"
	"time"
)

// Status 订单状态
// 状态值直接使用字符串，与接口返回值、数据库存储保持一致
type Status string

const (
	StatusPending   Status = "pending"   // 待支付
	StatusPaid      Status = "paid"      // 已支付
	StatusPreparing Status = "preparing" // 备货中
	StatusShipping  Status = "shipping"  // 配送中
	StatusDelivered Status = "delivered" // 已送达
	StatusCancelled Status = "cancelled" // 已取消
	StatusRefunded  Status = "refunded"  // 已退款
)

// transitions 合法的状态流转表
// cancelled只能从pending/paid进入，refunded可从任意已支付状态进入
var transitions = map[Status][]Status{
	StatusPending:   {StatusPaid, StatusCancelled},
	StatusPaid:      {StatusPreparing, StatusCancelled, StatusRefunded},
	StatusPreparing: {StatusShipping, StatusRefunded},
	StatusShipping:  {StatusDelivered, StatusRefunded},
	StatusDelivered: {StatusRefunded},
	StatusCancelled: {},
	StatusRefunded:  {},
}

// ParseStatus 解析外部传入的状态值
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if _, ok := transitions[st]; !ok {
		return "", ErrInvalidStatus.WithMessage(fmt.Sprintf("无效的订单状态: %s", s))
	}
	return st, nil
}

// Label 状态中文名(日志和后台展示用)
func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "待支付"
	case StatusPaid:
		return "已支付"
	case StatusPreparing:
		return "备货中"
	case StatusShipping:
		return "配送中"
	case StatusDelivered:
		return "已送达"
	case StatusCancelled:
		return "已取消"
	case StatusRefunded:
		return "已退款"
	default:
		return "未知状态"
	}
}

// CanTransitionTo 检查是否可以流转到目标状态
func (s Status) CanTransitionTo(target Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsReversal 是否为资金冲正状态(取消或退款)
func (s Status) IsReversal() bool {
	return s == StatusCancelled || s == StatusRefunded
}

// IsCustomerCancellable 用户是否可以自行取消
func (s Status) IsCustomerCancellable() bool {
	return s == StatusPending || s == StatusPaid
}

// OrderItem 订单明细(下单时的商品快照)
// 创建后不再从商品表刷新，保证订单反映购买时的名称和价格
type OrderItem struct {
	ID           uint
	OrderID      uint
	ProductID    uint
	Name         string
	Price        int64 // 下单时的单价
	Quantity     int
	ImageURL     string
	FreeShipping bool
}

// Subtotal 明细小计
func (i OrderItem) Subtotal() int64 {
	return i.Price * int64(i.Quantity)
}

// Shipping 收货信息
type Shipping struct {
	Recipient     string
	Phone         string
	ZipCode       string
	Address       string
	AddressDetail string // 可选
	Memo          string // 可选
}

// Validate 校验必填字段
func (s Shipping) Validate() error {
	switch {
	case s.Recipient == "":
		return ErrInvalidShipping.WithMessage("收货人不能为空")
	case s.Phone == "":
		return ErrInvalidShipping.WithMessage("联系电话不能为空")
	case s.ZipCode == "":
		return ErrInvalidShipping.WithMessage("邮政编码不能为空")
	case s.Address == "":
		return ErrInvalidShipping.WithMessage("收货地址不能为空")
	}
	return nil
}

// Amounts 订单金额
// 不变式：TotalPrice == ItemsPrice + ShippingFee - DiscountAmount
type Amounts struct {
	ItemsPrice     int64
	ShippingFee    int64
	DiscountAmount int64
	TotalPrice     int64
}

func (a Amounts) consistent() bool {
	return a.TotalPrice == a.ItemsPrice+a.ShippingFee-a.DiscountAmount
}

// StatusChange 状态变更记录(只追加，不修改)
type StatusChange struct {
	Status    Status    `json:"status"`
	ChangedAt time.Time `json:"changed_at"`
	Memo      string    `json:"memo"`
}

// Order 订单聚合根
// status和history不对外暴露写入口，只能通过TransitionTo/Cancel变更
type Order struct {
	ID        uint
	OrderNo   string
	UserID    uint
	Items     []OrderItem
	Shipping  Shipping
	Amounts   Amounts
	Payment   Payment
	AdminMemo string
	CreatedAt time.Time
	UpdatedAt time.Time

	status  Status
	history []StatusChange
}

// NewOrderParams 创建订单参数
type NewOrderParams struct {
	UserID   uint
	Items    []OrderItem
	Shipping Shipping
	Amounts  Amounts
	Payment  Payment
	Status   Status // 为空时为pending
	Now      time.Time
}

const memoCreated = "订单创建"

// NewOrder 创建新订单(工厂方法)
// 订单号在持久化时由NumberGenerator分配
func NewOrder(p NewOrderParams) (*Order, error) {
	if len(p.Items) == 0 {
		return nil, ErrInvalidOrderItems
	}
	for _, item := range p.Items {
		if item.Quantity < 1 {
			return nil, ErrInvalidQuantity
		}
	}
	if err := p.Shipping.Validate(); err != nil {
		return nil, err
	}
	if !p.Amounts.consistent() {
		return nil, ErrAmountInconsistent
	}

	status := p.Status
	if status == "" {
		status = StatusPending
	}
	if _, ok := transitions[status]; !ok {
		return nil, ErrInvalidStatus
	}

	now := p.Now
	if now.IsZero() {
		now = time.Now()
	}

	items := make([]OrderItem, len(p.Items))
	copy(items, p.Items)

	return &Order{
		UserID:    p.UserID,
		Items:     items,
		Shipping:  p.Shipping,
		Amounts:   p.Amounts,
		Payment:   p.Payment,
		CreatedAt: now,
		UpdatedAt: now,
		status:    status,
		history:   []StatusChange{{Status: status, ChangedAt: now, Memo: memoCreated}},
	}, nil
}

// Reconstitute 由仓储从存储中重建订单
func Reconstitute(o *Order, status Status, history []StatusChange) *Order {
	o.status = status
	o.history = history
	return o
}

// Status 当前状态
func (o *Order) Status() Status {
	return o.status
}

// History 状态变更历史副本
func (o *Order) History() []StatusChange {
	h := make([]StatusChange, len(o.history))
	copy(h, o.history)
	return h
}

// LastChange 最近一次状态变更
func (o *Order) LastChange() StatusChange {
	return o.history[len(o.history)-1]
}

// AssignOrderNo 分配订单号(只能分配一次)
func (o *Order) AssignOrderNo(no string) error {
	if o.OrderNo != "" {
		return ErrOrderNoAssigned
	}
	o.OrderNo = no
	return nil
}

// TransitionTo 状态流转
// 同时维护支付信息：进入paid时补全支付完成时间，进入cancelled/refunded时记录冲正信息
func (o *Order) TransitionTo(target Status, memo string, now time.Time) error {
	if !o.status.CanTransitionTo(target) {
		return ErrInvalidStatusTransition.WithMessage(
			fmt.Sprintf("订单状态不允许从%s变更为%s", o.status.Label(), target.Label()))
	}

	switch target {
	case StatusPaid:
		if o.Payment.Status != PaymentStatusCompleted {
			o.Payment.Status = PaymentStatusCompleted
			o.Payment.PaidAt = &now
		}
	case StatusCancelled, StatusRefunded:
		if target == StatusCancelled {
			o.Payment.Status = PaymentStatusCancelled
		} else {
			o.Payment.Status = PaymentStatusRefunded
		}
		o.Payment.CancelledAt = &now
		o.Payment.CancelReason = memo
	}

	o.status = target
	o.history = append(o.history, StatusChange{Status: target, ChangedAt: now, Memo: memo})
	o.UpdatedAt = now
	return nil
}

const memoCustomerCancel = "用户申请取消"

// Cancel 用户取消订单
// 只有待支付、已支付的订单可以取消
func (o *Order) Cancel(reason string, now time.Time) error {
	if !o.status.IsCustomerCancellable() {
		return ErrNotCancellable
	}
	if reason == "" {
		reason = memoCustomerCancel
	}
	return o.TransitionTo(StatusCancelled, reason, now)
}

// IsOwnedBy 检查订单是否属于指定用户
func (o *Order) IsOwnedBy(userID uint) bool {
	return o.UserID == userID
}

// CalculateItemsPrice 计算商品总额
func (o *Order) CalculateItemsPrice() int64 {
	return SumItems(o.Items)
}

// SumItems Σ 单价×数量
func SumItems(items []OrderItem) int64 {
	var total int64
	for _, item := range items {
		total += item.Subtotal()
	}
	return total
}

type orderJSON struct {
	Status  Status         `json:"status"`
	History []StatusChange `json:"status_history"`
}

// MarshalJSON 序列化时带上状态和历史(用于缓存)
func (o *Order) MarshalJSON() ([]byte, error) {
	type alias Order
	return json.Marshal(struct {
		*alias
		orderJSON
	}{(*alias)(o), orderJSON{Status: o.status, History: o.history}})
}

// UnmarshalJSON 反序列化
func (o *Order) UnmarshalJSON(data []byte) error {
	type alias Order
	aux := struct {
		*alias
		orderJSON
	}{alias: (*alias)(o)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	o.status = aux.Status
	o.history = aux.History
	return nil
}
