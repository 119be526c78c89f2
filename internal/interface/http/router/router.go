// Package router 注册HTTP路由
package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/xiebiao/storefront/internal/interface/http/handler"
	"github.com/xiebiao/storefront/internal/interface/http/middleware"
	apperrors "github.com/xiebiao/storefront/pkg/errors"
	"github.com/xiebiao/storefront/pkg/metrics"
	"github.com/xiebiao/storefront/pkg/response"
)

// Options 路由开关
type Options struct {
	Mode          string // debug | release | test
	EnableSwagger bool
	AllowOrigins  []string
}

// Handlers 所有HTTP处理器
type Handlers struct {
	User       *handler.UserHandler
	Order      *handler.OrderHandler
	AdminOrder *handler.AdminOrderHandler
	Product    *handler.ProductHandler
	Cart       *handler.CartHandler
	Health     *handler.HealthHandler
}

// New 创建Gin引擎并注册路由
func New(opts Options, log *zap.Logger, h Handlers, auth *middleware.AuthMiddleware) *gin.Engine {
	switch opts.Mode {
	case gin.ReleaseMode, gin.TestMode:
		gin.SetMode(opts.Mode)
	}

	r := gin.New()
	r.Use(middleware.Observability(log), middleware.Recovery(), middleware.CORS(opts.AllowOrigins))

	r.GET("/health", h.Health.Health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	if opts.EnableSwagger {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
	r.NoRoute(func(c *gin.Context) {
		response.ErrorWithCode(c, apperrors.ErrCodeNotFound, "接口不存在")
	})

	v1 := r.Group("/api/v1")

	users := v1.Group("/users")
	{
		users.POST("/register", h.User.Register)
		users.POST("/login", h.User.Login)
		users.POST("/refresh", h.User.RefreshToken)
		users.POST("/logout", auth.RequireAuth(), h.User.Logout)
	}

	v1.GET("/products/:id", h.Product.GetProduct)

	authorized := v1.Group("", auth.RequireAuth())
	{
		orders := authorized.Group("/orders")
		orders.POST("", h.Order.CreateOrder)
		orders.GET("/my", h.Order.MyOrders)
		orders.GET("/:id", h.Order.GetOrder)
		orders.PATCH("/:id/cancel", h.Order.CancelOrder)

		cart := authorized.Group("/cart")
		cart.GET("", h.Cart.GetCart)
		cart.POST("/items", h.Cart.AddItem)
	}

	admin := v1.Group("/admin", auth.RequireAuth(), auth.RequireAdmin())
	{
		admin.POST("/products", h.Product.CreateProduct)

		admin.GET("/orders", h.AdminOrder.ListOrders)
		admin.GET("/orders/stats", h.AdminOrder.Stats)
		admin.GET("/orders/:id", h.AdminOrder.GetOrder)
		admin.PATCH("/orders/:id/status", h.AdminOrder.ChangeStatus)
		admin.PATCH("/orders/:id/memo", h.AdminOrder.UpdateMemo)
	}

	return r
}
