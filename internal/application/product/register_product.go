package product

import (
	"context"

	"github.com/xiebiao/storefront/internal/domain/product"
)

// RegisterProductUseCase 商品上架用例(管理员)
// SKU格式、价格和库存校验由领域服务负责
type RegisterProductUseCase struct {
	productService product.Service
}

// NewRegisterProductUseCase 创建上架用例
func NewRegisterProductUseCase(productService product.Service) *RegisterProductUseCase {
	return &RegisterProductUseCase{
		productService: productService,
	}
}

// RegisterProductRequest 上架请求
type RegisterProductRequest struct {
	SKU          string
	Name         string
	Price        int64 // 单价(韩元)
	Stock        int
	Category     string
	ImageURL     string
	Description  string
	FreeShipping bool
}

// ProductInfo 商品信息
type ProductInfo struct {
	ID           uint   `json:"id"`
	SKU          string `json:"sku"`
	Name         string `json:"name"`
	Price        int64  `json:"price"`
	Category     string `json:"category"`
	ImageURL     string `json:"image_url"`
	Stock        int    `json:"stock"`
	FreeShipping bool   `json:"free_shipping"`
	Description  string `json:"description"`
	CreatedAt    string `json:"created_at"`
}

// Execute 执行上架
func (uc *RegisterProductUseCase) Execute(ctx context.Context, req RegisterProductRequest) (*ProductInfo, error) {
	p, err := uc.productService.Register(
		ctx,
		req.SKU,
		req.Name,
		req.Price,
		req.Stock,
		req.Category,
		req.ImageURL,
		req.Description,
		req.FreeShipping,
	)
	if err != nil {
		return nil, err
	}
	return toProductInfo(p), nil
}

// GetProductUseCase 商品详情
type GetProductUseCase struct {
	productService product.Service
}

// NewGetProductUseCase 创建详情用例
func NewGetProductUseCase(productService product.Service) *GetProductUseCase {
	return &GetProductUseCase{productService: productService}
}

func (uc *GetProductUseCase) Execute(ctx context.Context, id uint) (*ProductInfo, error) {
	p, err := uc.productService.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toProductInfo(p), nil
}

func toProductInfo(p *product.Product) *ProductInfo {
	return &ProductInfo{
		ID:           p.ID,
		SKU:          p.SKU,
		Name:         p.Name,
		Price:        p.Price,
		Category:     p.Category,
		ImageURL:     p.ImageURL,
		Stock:        p.Stock,
		FreeShipping: p.FreeShipping,
		Description:  p.Description,
		CreatedAt:    p.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}
