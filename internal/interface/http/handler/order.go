package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	apporder "github.com/xiebiao/storefront/internal/application/order"
	"github.com/xiebiao/storefront/internal/domain/order"
	"github.com/xiebiao/storefront/internal/interface/http/dto"
	"github.com/xiebiao/storefront/internal/interface/http/middleware"
	"github.com/xiebiao/storefront/pkg/response"
)

// OrderHandler 订单HTTP处理器(买家)
type OrderHandler struct {
	createOrder *apporder.CreateOrderUseCase
	getOrder    *apporder.GetOrderUseCase
	listOrders  *apporder.ListOrdersUseCase
	cancelOrder *apporder.CancelOrderUseCase
	loc         *time.Location
}

// NewOrderHandler 创建订单处理器
func NewOrderHandler(
	createOrder *apporder.CreateOrderUseCase,
	getOrder *apporder.GetOrderUseCase,
	listOrders *apporder.ListOrdersUseCase,
	cancelOrder *apporder.CancelOrderUseCase,
	loc *time.Location,
) *OrderHandler {
	return &OrderHandler{
		createOrder: createOrder,
		getOrder:    getOrder,
		listOrders:  listOrders,
		cancelOrder: cancelOrder,
		loc:         loc,
	}
}

// CreateOrder 创建订单
// @Summary      创建订单
// @Description  校验PortOne支付凭证后下单。items为空时使用购物车；相同merchant_uid重复提交返回已有订单
// @Tags         订单
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.CreateOrderRequest true "订单信息"
// @Success      200 {object} response.Response{data=dto.OrderResponse} "下单成功"
// @Failure      40001 {object} response.Response "库存不足"
// @Failure      40010 {object} response.Response "支付校验失败(金额不一致时已自动取消)"
// @Failure      40011 {object} response.Response "支付凭证已关联其他订单"
// @Failure      40013 {object} response.Response "订单无商品"
// @Router       /api/v1/orders [post]
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}

	items := make([]apporder.CreateOrderItem, len(req.Items))
	for i, it := range req.Items {
		items[i] = apporder.CreateOrderItem{ProductID: it.ProductID, Quantity: it.Quantity}
	}

	result, err := h.createOrder.Execute(c.Request.Context(), apporder.CreateOrderRequest{
		UserID: middleware.MustGetUserID(c),
		Items:  items,
		Shipping: order.Shipping{
			Recipient:     req.Shipping.Recipient,
			Phone:         req.Shipping.Phone,
			ZipCode:       req.Shipping.ZipCode,
			Address:       req.Shipping.Address,
			AddressDetail: req.Shipping.AddressDetail,
			Memo:          req.Shipping.Memo,
		},
		Payment: order.Claim{
			Method:      order.PaymentMethod(req.Payment.Method),
			ImpUID:      req.Payment.ImpUID,
			MerchantUID: req.Payment.MerchantUID,
		},
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToOrderResponse(result.Order))
}

// MyOrders 我的订单
// @Summary      我的订单
// @Tags         订单
// @Produce      json
// @Security     BearerAuth
// @Param        page   query int    false "页码"
// @Param        limit  query int    false "每页数量(默认10，最大100)"
// @Param        status query string false "状态，逗号分隔"
// @Success      200 {object} response.Response{data=response.PageData{list=[]dto.OrderResponse}}
// @Router       /api/v1/orders/my [get]
func (h *OrderHandler) MyOrders(c *gin.Context) {
	var q dto.ListOrdersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, bindError(err))
		return
	}
	filter, err := listFilter(q, h.loc)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.listOrders.Mine(c.Request.Context(), middleware.MustGetUserID(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPage(c, dto.ToOrderResponses(result.Orders), result.Total, result.Page, result.PageSize)
}

// GetOrder 订单详情(仅本人)
// @Summary      订单详情
// @Tags         订单
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "订单ID"
// @Success      200 {object} response.Response{data=dto.OrderResponse}
// @Failure      40403 {object} response.Response "订单不存在"
// @Router       /api/v1/orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	o, err := h.getOrder.Execute(c.Request.Context(), apporder.GetOrderRequest{
		OrderID: id,
		UserID:  middleware.MustGetUserID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToOrderResponse(o))
}

// CancelOrder 取消订单
// @Summary      取消订单
// @Description  仅待付款、已付款的订单可取消，已付款订单会先在PortOne全额退款
// @Tags         订单
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path int                    true  "订单ID"
// @Param        request body dto.CancelOrderRequest false "取消原因"
// @Success      200 {object} response.Response{data=dto.OrderResponse}
// @Failure      40012 {object} response.Response "当前状态不可取消"
// @Failure      50012 {object} response.Response "网关退款失败，订单未变更"
// @Router       /api/v1/orders/{id}/cancel [patch]
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.CancelOrderRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, bindError(err))
			return
		}
	}

	o, err := h.cancelOrder.Execute(c.Request.Context(), apporder.CancelOrderRequest{
		UserID:  middleware.MustGetUserID(c),
		OrderID: id,
		Reason:  req.Reason,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToOrderResponse(o))
}
