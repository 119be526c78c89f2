package handler

import (
	"github.com/gin-gonic/gin"

	appcart "github.com/xiebiao/storefront/internal/application/cart"
	appproduct "github.com/xiebiao/storefront/internal/application/product"
	"github.com/xiebiao/storefront/internal/interface/http/dto"
	"github.com/xiebiao/storefront/internal/interface/http/middleware"
	"github.com/xiebiao/storefront/pkg/response"
)

// ProductHandler 商品HTTP处理器
type ProductHandler struct {
	registerProduct *appproduct.RegisterProductUseCase
	getProduct      *appproduct.GetProductUseCase
}

// NewProductHandler 创建商品处理器
func NewProductHandler(registerProduct *appproduct.RegisterProductUseCase, getProduct *appproduct.GetProductUseCase) *ProductHandler {
	return &ProductHandler{
		registerProduct: registerProduct,
		getProduct:      getProduct,
	}
}

// CreateProduct 商品上架
// @Summary      商品上架
// @Tags         商品
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.CreateProductRequest true "商品信息"
// @Success      200 {object} response.Response{data=appproduct.ProductInfo}
// @Failure      40004 {object} response.Response "SKU已存在"
// @Router       /api/v1/admin/products [post]
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req dto.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}

	result, err := h.registerProduct.Execute(c.Request.Context(), appproduct.RegisterProductRequest{
		SKU:          req.SKU,
		Name:         req.Name,
		Price:        req.Price,
		Stock:        req.Stock,
		Category:     req.Category,
		ImageURL:     req.ImageURL,
		Description:  req.Description,
		FreeShipping: req.FreeShipping,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// GetProduct 商品详情
// @Summary      商品详情
// @Tags         商品
// @Produce      json
// @Param        id path int true "商品ID"
// @Success      200 {object} response.Response{data=appproduct.ProductInfo}
// @Failure      40402 {object} response.Response "商品不存在"
// @Router       /api/v1/products/{id} [get]
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.getProduct.Execute(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// CartHandler 购物车HTTP处理器
type CartHandler struct {
	getCart *appcart.GetCartUseCase
	addItem *appcart.AddItemUseCase
}

// NewCartHandler 创建购物车处理器
func NewCartHandler(getCart *appcart.GetCartUseCase, addItem *appcart.AddItemUseCase) *CartHandler {
	return &CartHandler{getCart: getCart, addItem: addItem}
}

// GetCart 查看购物车
// @Summary      查看购物车
// @Tags         购物车
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response{data=[]appcart.ItemInfo}
// @Router       /api/v1/cart [get]
func (h *CartHandler) GetCart(c *gin.Context) {
	items, err := h.getCart.Execute(c.Request.Context(), middleware.MustGetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, items)
}

// AddItem 加入购物车
// @Summary      加入购物车
// @Tags         购物车
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.AddCartItemRequest true "商品和数量"
// @Success      200 {object} response.Response
// @Failure      40402 {object} response.Response "商品不存在"
// @Router       /api/v1/cart/items [post]
func (h *CartHandler) AddItem(c *gin.Context) {
	var req dto.AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	err := h.addItem.Execute(c.Request.Context(), appcart.AddItemRequest{
		UserID:    middleware.MustGetUserID(c),
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
