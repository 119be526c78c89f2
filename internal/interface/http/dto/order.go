package dto

import (
	"time"

	"github.com/xiebiao/storefront/internal/domain/order"
)

// CreateOrderRequest 下单请求
// items为空时使用购物车
type CreateOrderRequest struct {
	Items    []OrderItemRequest `json:"items" binding:"omitempty,dive"`
	Shipping ShippingRequest    `json:"shipping" binding:"required"`
	Payment  PaymentRequest     `json:"payment" binding:"required"`
}

// OrderItemRequest 订单明细请求
type OrderItemRequest struct {
	ProductID uint `json:"product_id" binding:"required,min=1"`
	Quantity  int  `json:"quantity" binding:"required,min=1,max=999"`
}

// ShippingRequest 收货信息
type ShippingRequest struct {
	Recipient     string `json:"recipient" binding:"required,max=50"`
	Phone         string `json:"phone" binding:"required,max=20"`
	ZipCode       string `json:"zip_code" binding:"required,max=10"`
	Address       string `json:"address" binding:"required,max=255"`
	AddressDetail string `json:"address_detail" binding:"max=255"`
	Memo          string `json:"memo" binding:"max=255"`
}

// PaymentRequest 客户端提交的支付凭证
type PaymentRequest struct {
	Method      string `json:"method" binding:"required,oneof=card bank"`
	ImpUID      string `json:"imp_uid" binding:"required,max=64"`
	MerchantUID string `json:"merchant_uid" binding:"required,max=64"`
}

// CancelOrderRequest 用户取消订单
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"max=255"`
}

// ChangeStatusRequest 管理员变更订单状态
type ChangeStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Memo   string `json:"memo" binding:"max=255"`
}

// AdminMemoRequest 后台备注
type AdminMemoRequest struct {
	Memo string `json:"memo" binding:"max=2000"`
}

// ListOrdersQuery 订单列表查询参数
// start_date、end_date格式为YYYY-MM-DD，end_date当天包含在内
type ListOrdersQuery struct {
	Page      int    `form:"page" binding:"omitempty,min=1"`
	Limit     int    `form:"limit" binding:"omitempty,min=1"`
	Status    string `form:"status"`
	StartDate string `form:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate   string `form:"end_date" binding:"omitempty,datetime=2006-01-02"`
}

// OrderResponse 订单详情
type OrderResponse struct {
	ID            uint                   `json:"id"`
	OrderNo       string                 `json:"order_no"`
	UserID        uint                   `json:"user_id"`
	Status        string                 `json:"status"`
	StatusLabel   string                 `json:"status_label"`
	Items         []OrderItemResponse    `json:"items"`
	Shipping      ShippingResponse       `json:"shipping"`
	Payment       PaymentResponse        `json:"payment"`
	ItemsPrice    int64                  `json:"items_price"`
	ShippingFee   int64                  `json:"shipping_fee"`
	Discount      int64                  `json:"discount_amount"`
	TotalPrice    int64                  `json:"total_price"`
	AdminMemo     string                 `json:"admin_memo,omitempty"`
	StatusHistory []StatusChangeResponse `json:"status_history"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

// OrderItemResponse 订单明细
type OrderItemResponse struct {
	ProductID    uint   `json:"product_id"`
	Name         string `json:"name"`
	Price        int64  `json:"price"`
	Quantity     int    `json:"quantity"`
	Subtotal     int64  `json:"subtotal"`
	ImageURL     string `json:"image_url"`
	FreeShipping bool   `json:"free_shipping"`
}

// ShippingResponse 收货信息
type ShippingResponse struct {
	Recipient     string `json:"recipient"`
	Phone         string `json:"phone"`
	ZipCode       string `json:"zip_code"`
	Address       string `json:"address"`
	AddressDetail string `json:"address_detail,omitempty"`
	Memo          string `json:"memo,omitempty"`
}

// PaymentResponse 支付信息
type PaymentResponse struct {
	Method       string     `json:"method"`
	Status       string     `json:"status"`
	ImpUID       string     `json:"imp_uid"`
	MerchantUID  string     `json:"merchant_uid"`
	PGProvider   string     `json:"pg_provider,omitempty"`
	Amount       int64      `json:"amount"`
	CardName     string     `json:"card_name,omitempty"`
	CardNumber   string     `json:"card_number,omitempty"`
	Installment  int        `json:"installment,omitempty"`
	BankName     string     `json:"bank_name,omitempty"`
	ReceiptURL   string     `json:"receipt_url,omitempty"`
	PaidAt       *time.Time `json:"paid_at,omitempty"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`
	CancelReason string     `json:"cancel_reason,omitempty"`
}

// StatusChangeResponse 状态变更记录
type StatusChangeResponse struct {
	Status    string    `json:"status"`
	Label     string    `json:"label"`
	Memo      string    `json:"memo"`
	ChangedAt time.Time `json:"changed_at"`
}

// OrderStatsResponse 订单统计
type OrderStatsResponse struct {
	TotalOrders   int64            `json:"total_orders"`
	TodayOrders   int64            `json:"today_orders"`
	PendingOrders int64            `json:"pending_orders"`
	StatusCounts  map[string]int64 `json:"status_counts"`
	TotalRevenue  int64            `json:"total_revenue"`
}

// ToOrderResponse 领域订单转为响应
func ToOrderResponse(o *order.Order) *OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = OrderItemResponse{
			ProductID:    it.ProductID,
			Name:         it.Name,
			Price:        it.Price,
			Quantity:     it.Quantity,
			Subtotal:     it.Subtotal(),
			ImageURL:     it.ImageURL,
			FreeShipping: it.FreeShipping,
		}
	}

	history := make([]StatusChangeResponse, 0, len(o.History()))
	for _, h := range o.History() {
		history = append(history, StatusChangeResponse{
			Status:    string(h.Status),
			Label:     h.Status.Label(),
			Memo:      h.Memo,
			ChangedAt: h.ChangedAt,
		})
	}

	p := o.Payment
	pay := PaymentResponse{
		Method:       string(p.Method),
		Status:       string(p.Status),
		ImpUID:       p.ImpUID,
		MerchantUID:  p.MerchantUID,
		PGProvider:   p.PGProvider,
		Amount:       p.Amount,
		ReceiptURL:   p.ReceiptURL,
		PaidAt:       p.PaidAt,
		CancelledAt:  p.CancelledAt,
		CancelReason: p.CancelReason,
	}
	if p.Card != nil {
		pay.CardName = p.Card.CardName
		pay.CardNumber = p.Card.CardNumber
		pay.Installment = p.Card.Installment
	}
	if p.Bank != nil {
		pay.BankName = p.Bank.BankName
	}

	return &OrderResponse{
		ID:          o.ID,
		OrderNo:     o.OrderNo,
		UserID:      o.UserID,
		Status:      string(o.Status()),
		StatusLabel: o.Status().Label(),
		Items:       items,
		Shipping: ShippingResponse{
			Recipient:     o.Shipping.Recipient,
			Phone:         o.Shipping.Phone,
			ZipCode:       o.Shipping.ZipCode,
			Address:       o.Shipping.Address,
			AddressDetail: o.Shipping.AddressDetail,
			Memo:          o.Shipping.Memo,
		},
		Payment:       pay,
		ItemsPrice:    o.Amounts.ItemsPrice,
		ShippingFee:   o.Amounts.ShippingFee,
		Discount:      o.Amounts.DiscountAmount,
		TotalPrice:    o.Amounts.TotalPrice,
		AdminMemo:     o.AdminMemo,
		StatusHistory: history,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

// ToOrderResponses 批量转换
func ToOrderResponses(orders []*order.Order) []*OrderResponse {
	list := make([]*OrderResponse, len(orders))
	for i, o := range orders {
		list[i] = ToOrderResponse(o)
	}
	return list
}

// ToStatsResponse 统计结果转为响应
func ToStatsResponse(s *order.Stats) *OrderStatsResponse {
	counts := make(map[string]int64, len(s.StatusCounts))
	for st, n := range s.StatusCounts {
		counts[string(st)] = n
	}
	return &OrderStatsResponse{
		TotalOrders:   s.TotalOrders,
		TodayOrders:   s.TodayOrders,
		PendingOrders: s.PendingOrders,
		StatusCounts:  counts,
		TotalRevenue:  s.TotalRevenue,
	}
}
