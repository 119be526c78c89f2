package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/xiebiao/storefront/pkg/errors"
	"github.com/xiebiao/storefront/pkg/response"
)

// Checker 依赖健康检查
type Checker interface {
	Name() string
	Check(ctx context.Context) error
}

// CheckFunc 函数形式的Checker
type CheckFunc struct {
	Component string
	Fn        func(ctx context.Context) error
}

func (f CheckFunc) Name() string { return f.Component }

func (f CheckFunc) Check(ctx context.Context) error { return f.Fn(ctx) }

// HealthHandler 健康检查
type HealthHandler struct {
	checkers []Checker
	timeout  time.Duration
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(checkers ...Checker) *HealthHandler {
	return &HealthHandler{checkers: checkers, timeout: 2 * time.Second}
}

// Health 健康检查
// @Summary      健康检查
// @Tags         系统
// @Produce      json
// @Success      200 {object} response.Response
// @Router       /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	results := make([]string, len(h.checkers))
	g, gctx := errgroup.WithContext(ctx)
	for i, ck := range h.checkers {
		g.Go(func() error {
			if err := ck.Check(gctx); err != nil {
				results[i] = "down"
				return apperrors.ErrInternal.WithMessage(ck.Name() + "不可用").WithCause(err)
			}
			results[i] = "up"
			return nil
		})
	}
	err := g.Wait()

	components := make(map[string]string, len(h.checkers))
	for i, ck := range h.checkers {
		if results[i] == "" {
			results[i] = "unknown"
		}
		components[ck.Name()] = results[i]
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"status": "healthy", "components": components})
}
