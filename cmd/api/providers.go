package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	apporder "github.com/xiebiao/storefront/internal/application/order"
	appuser "github.com/xiebiao/storefront/internal/application/user"
	"github.com/xiebiao/storefront/internal/domain/cart"
	"github.com/xiebiao/storefront/internal/domain/inventory"
	"github.com/xiebiao/storefront/internal/domain/order"
	"github.com/xiebiao/storefront/internal/domain/payment"
	"github.com/xiebiao/storefront/internal/domain/product"
	"github.com/xiebiao/storefront/internal/infrastructure/config"
	"github.com/xiebiao/storefront/internal/infrastructure/messaging"
	"github.com/xiebiao/storefront/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/storefront/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/storefront/internal/infrastructure/portone"
	"github.com/xiebiao/storefront/internal/interface/http/handler"
	"github.com/xiebiao/storefront/internal/interface/http/router"
	"github.com/xiebiao/storefront/pkg/circuitbreaker"
	"github.com/xiebiao/storefront/pkg/jwt"
	"github.com/xiebiao/storefront/pkg/mq"
)

// App 组装完成的应用
type App struct {
	Engine *gin.Engine
}

func newApp(engine *gin.Engine) *App {
	return &App{Engine: engine}
}

func provideDB(cfg *config.Config, log *zap.Logger) (*gorm.DB, func(), error) {
	db, err := mysql.NewDB(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return db, cleanup, nil
}

func provideRedis(cfg *config.Config, log *zap.Logger) (*goredis.Client, func(), error) {
	client, err := redis.NewClient(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return client, func() { _ = client.Close() }, nil
}

func provideLocation(cfg *config.Config) (*time.Location, error) {
	return cfg.Order.Location()
}

func provideJWTManager(cfg *config.Config) *jwt.Manager {
	return jwt.NewManager(
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpire,
		cfg.JWT.RefreshTokenExpire,
	)
}

func provideAdminEmails(cfg *config.Config) appuser.AdminEmails {
	return cfg.Auth.AdminEmails
}

func provideOrderCache(client goredis.Cmdable, cfg *config.Config) order.Cache {
	return redis.NewOrderCache(client, cfg.Order.CacheTTL)
}

// provideGateway PortOne客户端，熔断参数来自circuit_breaker配置
func provideGateway(cfg *config.Config, log *zap.Logger) payment.Gateway {
	cb := cfg.CircuitBreaker
	breaker := circuitbreaker.Config{
		MaxRequests: cb.MaxRequests,
		Interval:    cb.Interval,
		Timeout:     cb.Timeout,
	}
	if cb.ConsecutiveFailures > 0 {
		breaker.ReadyToTrip = circuitbreaker.ConsecutiveFailures(cb.ConsecutiveFailures)
	}
	return portone.NewClient(portone.Config{
		BaseURL:   cfg.PortOne.BaseURL,
		APIKey:    cfg.PortOne.APIKey,
		APISecret: cfg.PortOne.APISecret,
		Timeout:   cfg.PortOne.Timeout,
		Breaker:   breaker,
	}, log)
}

// provideEventPublisher mq.enabled关闭时事件直接丢弃
func provideEventPublisher(cfg *config.Config, log *zap.Logger) (order.EventPublisher, func(), error) {
	if !cfg.MQ.Enabled {
		return order.NopPublisher{}, func() {}, nil
	}
	p, err := mq.NewPublisher(cfg.MQ.URL, cfg.MQ.Exchange, cfg.MQ.ExchangeType, log)
	if err != nil {
		return nil, nil, err
	}
	return messaging.NewOrderEventPublisher(p), func() { _ = p.Close() }, nil
}

func provideShippingPolicy(cfg *config.Config) order.ShippingPolicy {
	return order.ShippingPolicy{
		FreeThreshold: cfg.Order.FreeShippingThreshold,
		StandardFee:   cfg.Order.StandardShippingFee,
	}
}

func provideCreateOrderUseCase(
	cfg *config.Config,
	orders order.Repository,
	products product.Repository,
	ledger inventory.Ledger,
	carts cart.Repository,
	payments *payment.Service,
	numbers *order.NumberGenerator,
	tx apporder.Transactor,
	events order.EventPublisher,
	pricing order.ShippingPolicy,
) *apporder.CreateOrderUseCase {
	return apporder.NewCreateOrderUseCase(apporder.CreateOrderDeps{
		Orders:   orders,
		Products: products,
		Ledger:   ledger,
		Carts:    carts,
		Payments: payments,
		Numbers:  numbers,
		Tx:       tx,
		Events:   events,
		Pricing:  pricing,
		Timeout:  cfg.Order.CreateTimeout,
	})
}

func provideHealthHandler(db *gorm.DB, client *goredis.Client) *handler.HealthHandler {
	return handler.NewHealthHandler(
		handler.CheckFunc{Component: "mysql", Fn: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}},
		handler.CheckFunc{Component: "redis", Fn: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}},
	)
}

func provideRouterOptions(cfg *config.Config) router.Options {
	return router.Options{
		Mode:          cfg.Server.Mode,
		EnableSwagger: cfg.Server.EnableSwagger,
		AllowOrigins:  cfg.Server.AllowOrigins,
	}
}
