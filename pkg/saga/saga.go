// Package saga 顺序执行的本地Saga编排
//
// 每个步骤包含正向操作和补偿操作。任一步骤失败(或整体超时)时，
// 按相反顺序执行已完成步骤的补偿操作。补偿失败只记录日志，不覆盖原始错误。
package saga

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Action 正向操作
type Action func(ctx context.Context) error

// Compensation 补偿操作，cause为触发补偿的原始错误
type Compensation func(ctx context.Context, cause error) error

// Step 单个步骤
type Step struct {
	Name       string
	Action     Action
	Compensate Compensation
}

// Error Saga执行失败
type Error struct {
	Step  string // 失败步骤，超时时为空
	Cause error
}

func (e *Error) Error() string {
	if e.Step == "" {
		return fmt.Sprintf("saga超时: %v", e.Cause)
	}
	return fmt.Sprintf("步骤[%s]执行失败: %v", e.Step, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Option 配置项
type Option func(*Saga)

// WithLogger 设置日志器
func WithLogger(l *zap.Logger) Option {
	return func(s *Saga) { s.logger = l }
}

// WithCompensationTimeout 单个补偿操作的超时时间，默认10秒
func WithCompensationTimeout(d time.Duration) Option {
	return func(s *Saga) { s.compensationTimeout = d }
}

// WithCompensationHook 每个补偿执行后回调(用于监控)
func WithCompensationHook(fn func(step string, err error)) Option {
	return func(s *Saga) { s.onCompensate = fn }
}

// Saga 编排器，非并发安全，每次业务调用新建一个
type Saga struct {
	steps               []Step
	executed            []Step
	timeout             time.Duration
	compensationTimeout time.Duration
	logger              *zap.Logger
	onCompensate        func(step string, err error)
}

// NewSaga 创建Saga，timeout<=0表示不设整体超时
func NewSaga(timeout time.Duration, opts ...Option) *Saga {
	s := &Saga{
		timeout:             timeout,
		compensationTimeout: 10 * time.Second,
		logger:              zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddStep 追加步骤，compensate可为nil
func (s *Saga) AddStep(name string, action Action, compensate Compensation) *Saga {
	s.steps = append(s.steps, Step{Name: name, Action: action, Compensate: compensate})
	return s
}

// Execute 顺序执行所有步骤
func (s *Saga) Execute(ctx context.Context) error {
	runCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	for _, step := range s.steps {
		if err := runCtx.Err(); err != nil {
			sagaErr := &Error{Cause: err}
			s.compensate(ctx, sagaErr)
			return sagaErr
		}

		if step.Action != nil {
			if err := step.Action(runCtx); err != nil {
				sagaErr := &Error{Step: step.Name, Cause: err}
				s.compensate(ctx, sagaErr)
				return sagaErr
			}
		}
		s.executed = append(s.executed, step)
	}
	return nil
}

// compensate 逆序补偿已执行的步骤
// 补偿使用脱离取消信号的context，保留trace等请求级数据
func (s *Saga) compensate(ctx context.Context, cause *Error) {
	base := context.WithoutCancel(ctx)

	for i := len(s.executed) - 1; i >= 0; i-- {
		step := s.executed[i]
		if step.Compensate == nil {
			continue
		}

		cctx, cancel := context.WithTimeout(base, s.compensationTimeout)
		err := step.Compensate(cctx, cause.Cause)
		cancel()

		if err != nil {
			s.logger.Error("saga补偿失败",
				zap.String("step", step.Name),
				zap.String("failed_step", cause.Step),
				zap.NamedError("cause", cause.Cause),
				zap.Error(err))
		} else {
			s.logger.Info("saga补偿完成", zap.String("step", step.Name), zap.String("failed_step", cause.Step))
		}
		if s.onCompensate != nil {
			s.onCompensate(step.Name, err)
		}
	}
	s.executed = nil
}
