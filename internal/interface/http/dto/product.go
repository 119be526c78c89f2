package dto

// CreateProductRequest 商品上架请求
type CreateProductRequest struct {
	SKU          string `json:"sku" binding:"required,min=2,max=40"`
	Name         string `json:"name" binding:"required,max=200"`
	Price        int64  `json:"price" binding:"required,min=1"` // 单价(韩元)
	Stock        int    `json:"stock" binding:"min=0"`
	Category     string `json:"category" binding:"max=50"`
	ImageURL     string `json:"image_url" binding:"omitempty,url,max=500"`
	Description  string `json:"description"`
	FreeShipping bool   `json:"free_shipping"`
}

// AddCartItemRequest 加入购物车请求
type AddCartItemRequest struct {
	ProductID uint `json:"product_id" binding:"required,min=1"`
	Quantity  int  `json:"quantity" binding:"required,min=1,max=999"`
}
