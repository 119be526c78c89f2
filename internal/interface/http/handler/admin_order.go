package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	apporder "github.com/xiebiao/storefront/internal/application/order"
	"github.com/xiebiao/storefront/internal/interface/http/dto"
	"github.com/xiebiao/storefront/internal/interface/http/middleware"
	"github.com/xiebiao/storefront/pkg/response"
)

// AdminOrderHandler 后台订单管理
type AdminOrderHandler struct {
	getOrder     *apporder.GetOrderUseCase
	listOrders   *apporder.ListOrdersUseCase
	stats        *apporder.StatsUseCase
	changeStatus *apporder.ChangeStatusUseCase
	updateMemo   *apporder.UpdateAdminMemoUseCase
	loc          *time.Location
}

// NewAdminOrderHandler 创建后台订单处理器
func NewAdminOrderHandler(
	getOrder *apporder.GetOrderUseCase,
	listOrders *apporder.ListOrdersUseCase,
	stats *apporder.StatsUseCase,
	changeStatus *apporder.ChangeStatusUseCase,
	updateMemo *apporder.UpdateAdminMemoUseCase,
	loc *time.Location,
) *AdminOrderHandler {
	return &AdminOrderHandler{
		getOrder:     getOrder,
		listOrders:   listOrders,
		stats:        stats,
		changeStatus: changeStatus,
		updateMemo:   updateMemo,
		loc:          loc,
	}
}

// ListOrders 全部订单
// @Summary      全部订单
// @Tags         后台订单
// @Produce      json
// @Security     BearerAuth
// @Param        page       query int    false "页码"
// @Param        limit      query int    false "每页数量(默认20，最大100)"
// @Param        status     query string false "状态，逗号分隔"
// @Param        start_date query string false "开始日期 YYYY-MM-DD"
// @Param        end_date   query string false "结束日期 YYYY-MM-DD(包含)"
// @Success      200 {object} response.Response{data=response.PageData{list=[]dto.OrderResponse}}
// @Failure      40104 {object} response.Response "无权限"
// @Router       /api/v1/admin/orders [get]
func (h *AdminOrderHandler) ListOrders(c *gin.Context) {
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

	result, err := h.listOrders.All(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPage(c, dto.ToOrderResponses(result.Orders), result.Total, result.Page, result.PageSize)
}

// Stats 订单统计
// @Summary      订单统计
// @Tags         后台订单
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response{data=dto.OrderStatsResponse}
// @Router       /api/v1/admin/orders/stats [get]
func (h *AdminOrderHandler) Stats(c *gin.Context) {
	stats, err := h.stats.Execute(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToStatsResponse(stats))
}

// GetOrder 订单详情
// @Summary      订单详情(后台)
// @Tags         后台订单
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "订单ID"
// @Success      200 {object} response.Response{data=dto.OrderResponse}
// @Failure      40403 {object} response.Response "订单不存在"
// @Router       /api/v1/admin/orders/{id} [get]
func (h *AdminOrderHandler) GetOrder(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	o, err := h.getOrder.Execute(c.Request.Context(), apporder.GetOrderRequest{
		OrderID: id,
		UserID:  middleware.GetUserID(c),
		Admin:   true,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToOrderResponse(o))
}

// ChangeStatus 变更订单状态
// @Summary      变更订单状态
// @Description  cancelled/refunded会先在PortOne退款并回补库存
// @Tags         后台订单
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path int                     true "订单ID"
// @Param        request body dto.ChangeStatusRequest true "目标状态"
// @Success      200 {object} response.Response{data=dto.OrderResponse}
// @Failure      40002 {object} response.Response "状态流转非法"
// @Failure      40014 {object} response.Response "并发修改冲突"
// @Router       /api/v1/admin/orders/{id}/status [patch]
func (h *AdminOrderHandler) ChangeStatus(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}

	o, err := h.changeStatus.Execute(c.Request.Context(), apporder.ChangeStatusRequest{
		OrderID: id,
		Status:  req.Status,
		Memo:    req.Memo,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToOrderResponse(o))
}

// UpdateMemo 更新后台备注
// @Summary      更新后台备注
// @Tags         后台订单
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path int                  true "订单ID"
// @Param        request body dto.AdminMemoRequest true "备注"
// @Success      200 {object} response.Response{data=dto.OrderResponse}
// @Router       /api/v1/admin/orders/{id}/memo [patch]
func (h *AdminOrderHandler) UpdateMemo(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.AdminMemoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}

	o, err := h.updateMemo.Execute(c.Request.Context(), id, req.Memo)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToOrderResponse(o))
}
