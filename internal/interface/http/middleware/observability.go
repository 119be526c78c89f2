package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	apperrors "github.com/xiebiao/storefront/pkg/errors"
	"github.com/xiebiao/storefront/pkg/logger"
	"github.com/xiebiao/storefront/pkg/metrics"
	"github.com/xiebiao/storefront/pkg/response"
)

const headerRequestID = "X-Request-ID"

// slowRequest 超过该耗时的请求记warn日志
const slowRequest = 3 * time.Second

// Observability 请求级可观测性
// 1. 提取W3C Trace Context
// 2. 生成或沿用X-Request-ID并回写响应头
// 3. 带request_id/trace_id的zap logger放入request context
// 4. 访问日志和HTTP指标
func Observability(base *zap.Logger) gin.HandlerFunc {
	prop := otel.GetTextMapPropagator()
	return func(c *gin.Context) {
		ctx := prop.Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))

		rid := c.GetHeader(headerRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Header(headerRequestID, rid)
		c.Set("request_id", rid)

		fields := []zap.Field{zap.String("request_id", rid)}
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			fields = append(fields, zap.String("trace_id", sc.TraceID().String()))
		}
		reqLogger := base.With(fields...)
		c.Request = c.Request.WithContext(logger.WithContext(ctx, reqLogger))

		metrics.HTTPRequestsInProgress.Inc()
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		metrics.HTTPRequestsInProgress.Dec()

		// 未匹配到路由时用固定标签，避免高基数
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := c.Writer.Status()
		metrics.ObserveHTTP(c.Request.Method, path, status, latency)

		logFields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			logFields = append(logFields, zap.String("errors", c.Errors.String()))
		}
		if latency > slowRequest {
			reqLogger.Warn("慢请求", logFields...)
			return
		}
		reqLogger.Info("请求完成", logFields...)
	}
}

// Recovery panic恢复，返回统一错误响应
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.FromContext(c.Request.Context()).Error("panic",
			zap.Any("recovered", recovered),
			zap.String("path", c.Request.URL.Path),
			zap.Stack("stack"))
		c.AbortWithStatusJSON(http.StatusOK, response.Response{
			Code:    apperrors.ErrCodeInternal,
			Message: apperrors.ErrInternal.Message,
		})
	})
}
