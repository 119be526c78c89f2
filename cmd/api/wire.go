//go:build wireinject
// +build wireinject

// Wire依赖注入配置，运行 `wire gen ./cmd/api` 生成wire_gen.go

package main

import (
	"github.com/google/wire"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appcart "github.com/xiebiao/storefront/internal/application/cart"
	apporder "github.com/xiebiao/storefront/internal/application/order"
	appproduct "github.com/xiebiao/storefront/internal/application/product"
	appuser "github.com/xiebiao/storefront/internal/application/user"
	"github.com/xiebiao/storefront/internal/domain/order"
	"github.com/xiebiao/storefront/internal/domain/payment"
	"github.com/xiebiao/storefront/internal/domain/product"
	"github.com/xiebiao/storefront/internal/domain/user"
	"github.com/xiebiao/storefront/internal/infrastructure/config"
	"github.com/xiebiao/storefront/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/storefront/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/storefront/internal/interface/http/handler"
	"github.com/xiebiao/storefront/internal/interface/http/middleware"
	"github.com/xiebiao/storefront/internal/interface/http/router"
)

// infrastructureSet 连接、网关、消息
var infrastructureSet = wire.NewSet(
	provideDB,
	provideRedis,
	wire.Bind(new(goredis.Cmdable), new(*goredis.Client)),
	provideLocation,
	provideGateway,
	provideEventPublisher,
)

// repositorySet 仓储
var repositorySet = wire.NewSet(
	mysql.NewUserRepository,
	mysql.NewProductRepository,
	mysql.NewOrderRepository,
	mysql.NewSequenceRepository,
	mysql.NewInventoryLedger,
	mysql.NewCartRepository,
	mysql.NewTxManager,
	wire.Bind(new(apporder.Transactor), new(*mysql.TxManager)),
	redis.NewTokenBlacklist,
	wire.Bind(new(appuser.TokenRevoker), new(*redis.TokenBlacklist)),
	wire.Bind(new(middleware.TokenBlacklist), new(*redis.TokenBlacklist)),
	provideOrderCache,
)

// domainSet 领域服务
var domainSet = wire.NewSet(
	user.NewService,
	product.NewService,
	payment.NewService,
	order.NewNumberGenerator,
	provideShippingPolicy,
)

// applicationSet 用例
var applicationSet = wire.NewSet(
	provideAdminEmails,
	appuser.NewRegisterUseCase,
	appuser.NewLoginUseCase,
	appuser.NewLogoutUseCase,
	appuser.NewRefreshTokenUseCase,
	appproduct.NewRegisterProductUseCase,
	appproduct.NewGetProductUseCase,
	appcart.NewGetCartUseCase,
	appcart.NewAddItemUseCase,
	provideCreateOrderUseCase,
	wire.Struct(new(apporder.StatusDeps), "*"),
	apporder.NewChangeStatusUseCase,
	apporder.NewCancelOrderUseCase,
	apporder.NewUpdateAdminMemoUseCase,
	apporder.NewGetOrderUseCase,
	apporder.NewListOrdersUseCase,
	apporder.NewStatsUseCase,
)

// httpSet HTTP层
var httpSet = wire.NewSet(
	provideJWTManager,
	middleware.NewAuthMiddleware,
	handler.NewUserHandler,
	handler.NewOrderHandler,
	handler.NewAdminOrderHandler,
	handler.NewProductHandler,
	handler.NewCartHandler,
	provideHealthHandler,
	wire.Struct(new(router.Handlers), "*"),
	provideRouterOptions,
	router.New,
)

// InitializeApp 组装应用，返回的cleanup按依赖逆序释放资源
func InitializeApp(cfg *config.Config, log *zap.Logger) (*App, func(), error) {
	wire.Build(
		infrastructureSet,
		repositorySet,
		domainSet,
		applicationSet,
		httpSet,
		newApp,
	)
	return nil, nil, nil
}
