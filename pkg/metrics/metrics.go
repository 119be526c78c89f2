// Package metrics Prometheus指标定义
//
// 指标在包初始化时注册到默认Registry，通过Handler()暴露给/metrics
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

var (
	// HTTP
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP请求总数",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP请求耗时(秒)",
		Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
	}, []string{"method", "path"})

	HTTPRequestsInProgress = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "http_requests_in_progress",
		Help:      "正在处理的HTTP请求数",
	})

	// 订单
	OrdersCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_created_total",
		Help:      "订单创建总数(created=新建, replayed=幂等返回)",
	}, []string{"result"})

	OrdersFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_failed_total",
		Help:      "订单创建失败总数(按错误码)",
	}, []string{"code"})

	OrderCreationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "order_creation_duration_seconds",
		Help:      "订单创建耗时(秒)",
		Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
	})

	OrderStatusTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_status_transitions_total",
		Help:      "订单状态流转次数",
	}, []string{"from", "to"})

	// 支付
	PaymentVerificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payment_verifications_total",
		Help:      "支付校验次数(ok/rejected/error)",
	}, []string{"result"})

	PaymentCancellationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payment_cancellations_total",
		Help:      "网关取消支付次数",
	}, []string{"trigger", "result"})

	// 库存
	StockMovementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stock_movements_total",
		Help:      "库存变动次数",
	}, []string{"kind", "result"})

	// 熔断器
	CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "circuit_breaker_state",
		Help:      "熔断器状态(0=CLOSED, 1=OPEN, 2=HALF_OPEN)",
	}, []string{"name"})

	CircuitBreakerRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "circuit_breaker_requests_total",
		Help:      "熔断器请求总数(success/failure/rejected)",
	}, []string{"name", "result"})

	// Saga
	SagaExecutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "saga_executions_total",
		Help:      "Saga执行总数",
	}, []string{"saga", "result"})

	SagaCompensationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "saga_compensations_total",
		Help:      "Saga补偿执行总数",
	}, []string{"step", "result"})

	// 消息
	MessagesPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_published_total",
		Help:      "消息发布总数",
	}, []string{"routing_key", "result"})
)

// Result 将error转换为success/failure标签
func Result(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

// ObserveHTTP 记录一次HTTP请求
func ObserveHTTP(method, path string, status int, elapsed time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// ObserveOrderCreated 记录订单创建结果
func ObserveOrderCreated(replayed bool, elapsed time.Duration) {
	result := "created"
	if replayed {
		result = "replayed"
	}
	OrdersCreatedTotal.WithLabelValues(result).Inc()
	OrderCreationDuration.Observe(elapsed.Seconds())
}

// ObserveOrderFailed 记录订单创建失败
func ObserveOrderFailed(code int, elapsed time.Duration) {
	OrdersFailedTotal.WithLabelValues(strconv.Itoa(code)).Inc()
	OrderCreationDuration.Observe(elapsed.Seconds())
}

// SetCircuitState 记录熔断器状态
func SetCircuitState(name string, state int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// Handler /metrics处理器
func Handler() http.Handler {
	return promhttp.Handler()
}
