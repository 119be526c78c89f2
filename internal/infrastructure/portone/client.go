// Package portone PortOne(iamport) REST API客户端，实现payment.Gateway
package portone

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/xiebiao/storefront/internal/domain/payment"
	"github.com/xiebiao/storefront/pkg/circuitbreaker"
	apperrors "github.com/xiebiao/storefront/pkg/errors"
	"github.com/xiebiao/storefront/pkg/metrics"
	"github.com/xiebiao/storefront/pkg/tracing"
)

const (
	breakerName        = "portone"
	tokenRefreshMargin = 60 * time.Second
)

var _ payment.Gateway = (*Client)(nil)

// Config 客户端配置
type Config struct {
	BaseURL   string
	APIKey    string
	APISecret string
	Timeout   time.Duration
	Breaker   circuitbreaker.Config
}

// Client PortOne客户端，并发安全
// 访问令牌缓存在进程内，到期前60秒刷新
type Client struct {
	http    *resty.Client
	cfg     Config
	breaker *circuitbreaker.CircuitBreaker
	logger  *zap.Logger
	now     func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewClient 创建客户端
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	c := &Client{
		cfg:    cfg,
		logger: logger.Named("portone"),
		now:    time.Now,
	}
	c.http = resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	bc := cfg.Breaker
	if bc.IsSuccessful == nil {
		bc.IsSuccessful = healthy
	}
	next := bc.OnStateChange
	bc.OnStateChange = func(name string, from, to circuitbreaker.State) {
		metrics.SetCircuitState(name, int(to))
		c.logger.Warn("支付网关熔断器状态变化", zap.String("from", from.String()), zap.String("to", to.String()))
		if next != nil {
			next(name, from, to)
		}
	}
	c.breaker = circuitbreaker.NewCircuitBreaker(breakerName, bc)
	return c
}

// FetchPayment 查询支付记录 GET /payments/{imp_uid}
func (c *Client) FetchPayment(ctx context.Context, impUID string) (*payment.Record, error) {
	if impUID == "" {
		return nil, apperrors.ErrGatewayLookup.WithMessage("支付凭证不能为空")
	}

	ctx, span := tracing.StartSpan(ctx, "portone", "portone.FetchPayment")
	defer span.End()

	var env envelope[paymentResponse]
	err := c.call(ctx, func(r *resty.Request) (*resty.Response, error) {
		env = envelope[paymentResponse]{}
		return r.SetPathParam("imp_uid", impUID).
			SetResult(&env).
			SetError(&env).
			Get("/payments/{imp_uid}")
	}, env.check)
	if err != nil {
		tracing.RecordError(span, err)
		c.logger.Warn("查询支付记录失败", zap.String("imp_uid", impUID), zap.Error(err))
		return nil, classify(err, apperrors.ErrGatewayLookup)
	}
	return env.Response.toRecord(), nil
}

// Cancel 取消支付 POST /payments/cancel，Amount为nil时全额取消
func (c *Client) Cancel(ctx context.Context, req payment.CancelRequest) (*payment.CancelResult, error) {
	if req.ImpUID == "" {
		return nil, apperrors.ErrGatewayCancel.WithMessage("支付凭证不能为空")
	}

	ctx, span := tracing.StartSpan(ctx, "portone", "portone.Cancel")
	defer span.End()

	var env envelope[paymentResponse]
	err := c.call(ctx, func(r *resty.Request) (*resty.Response, error) {
		env = envelope[paymentResponse]{}
		return r.SetBody(cancelRequest{ImpUID: req.ImpUID, Reason: req.Reason, Amount: req.Amount}).
			SetResult(&env).
			SetError(&env).
			Post("/payments/cancel")
	}, env.check)
	if err != nil {
		tracing.RecordError(span, err)
		c.logger.Error("取消支付失败", zap.String("imp_uid", req.ImpUID), zap.Error(err))
		return nil, classify(err, apperrors.ErrGatewayCancel)
	}

	c.logger.Info("支付已取消",
		zap.String("imp_uid", env.Response.ImpUID),
		zap.Int64("cancel_amount", env.Response.CancelAmount))
	return &payment.CancelResult{
		ImpUID:       env.Response.ImpUID,
		Status:       env.Response.Status,
		CancelAmount: env.Response.CancelAmount,
	}, nil
}

// call 在熔断保护下发送需要鉴权的请求
// 收到401时丢弃缓存的令牌并重试一次
func (c *Client) call(ctx context.Context, send func(*resty.Request) (*resty.Response, error), check func() error) error {
	err := c.breaker.ExecuteContext(ctx, func(ctx context.Context) error {
		for attempt := 0; attempt < 2; attempt++ {
			token, err := c.accessToken(ctx)
			if err != nil {
				return err
			}

			resp, err := send(c.http.R().SetContext(ctx).SetAuthToken(token))
			if err != nil {
				return c.redact(err, token)
			}
			if resp.StatusCode() == http.StatusUnauthorized {
				c.invalidate(token)
				continue
			}
			if resp.StatusCode() >= http.StatusInternalServerError {
				return &statusError{Status: resp.StatusCode()}
			}
			if err := check(); err != nil {
				return err
			}
			if resp.IsError() {
				return &statusError{Status: resp.StatusCode()}
			}
			return nil
		}
		return apperrors.ErrGatewayAuth.WithMessage("支付网关拒绝了访问令牌")
	})

	result := metrics.Result(err)
	if errors.Is(err, circuitbreaker.ErrOpenState) {
		result = "rejected"
	}
	metrics.CircuitBreakerRequests.WithLabelValues(breakerName, result).Inc()
	return err
}

// accessToken 返回有效的访问令牌，必要时向网关换取
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.token != "" && now.Before(c.expiresAt.Add(-tokenRefreshMargin)) {
		return c.token, nil
	}

	var env envelope[tokenResponse]
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(tokenRequest{ImpKey: c.cfg.APIKey, ImpSecret: c.cfg.APISecret}).
		SetResult(&env).
		SetError(&env).
		Post("/users/getToken")
	if err != nil {
		return "", apperrors.ErrGatewayAuth.WithCause(c.redact(err))
	}
	if resp.IsError() || env.Code != 0 || env.Response == nil || env.Response.AccessToken == "" {
		return "", apperrors.ErrGatewayAuth.WithCause(
			fmt.Errorf("token exchange rejected: http %d, code %d", resp.StatusCode(), env.Code))
	}

	c.token = env.Response.AccessToken
	// 以网关时钟计算剩余有效期，避免本地时钟偏差
	if env.Response.Now > 0 {
		c.expiresAt = now.Add(time.Duration(env.Response.ExpiredAt-env.Response.Now) * time.Second)
	} else {
		c.expiresAt = time.Unix(env.Response.ExpiredAt, 0)
	}
	c.logger.Debug("已获取支付网关访问令牌", zap.Time("expires_at", c.expiresAt))
	return c.token, nil
}

func (c *Client) invalidate(token string) {
	c.mu.Lock()
	if c.token == token {
		c.token = ""
		c.expiresAt = time.Time{}
	}
	c.mu.Unlock()
}

// redact 去除错误文本中的密钥和令牌
func (c *Client) redact(err error, extra ...string) error {
	msg := err.Error()
	secrets := append([]string{c.cfg.APIKey, c.cfg.APISecret}, extra...)
	replaced := msg
	for _, s := range secrets {
		if s != "" {
			replaced = strings.ReplaceAll(replaced, s, "***")
		}
	}
	if replaced == msg {
		return err
	}
	return &redactedError{msg: replaced, cause: err}
}

// rejectedError 网关返回非0业务码(如支付记录不存在)
type rejectedError struct {
	Code    int
	Message string
}

func (e *rejectedError) Error() string {
	return fmt.Sprintf("portone rejected: code %d, %s", e.Code, e.Message)
}

type statusError struct {
	Status int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("portone http status %d", e.Status)
}

type redactedError struct {
	msg   string
	cause error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.cause }

var errEmptyResponse = errors.New("portone returned empty response")

func (e *envelope[T]) check() error {
	if e.Code != 0 {
		return &rejectedError{Code: e.Code, Message: e.Message}
	}
	if e.Response == nil {
		return errEmptyResponse
	}
	return nil
}

// healthy 业务拒绝和调用方取消不计入熔断失败
func healthy(err error) bool {
	var rejected *rejectedError
	return err == nil || errors.As(err, &rejected) || errors.Is(err, context.Canceled)
}

// classify 转换为对外的网关错误，鉴权失败保持原样
func classify(err error, kind *apperrors.AppError) error {
	if errors.Is(err, apperrors.ErrGatewayAuth) {
		return err
	}
	var rejected *rejectedError
	if errors.As(err, &rejected) && rejected.Message != "" {
		return kind.WithMessage(kind.Message + ": " + rejected.Message).WithCause(err)
	}
	if errors.Is(err, circuitbreaker.ErrOpenState) {
		return kind.WithMessage("支付服务暂不可用，请稍后重试").WithCause(err)
	}
	return kind.WithCause(err)
}
