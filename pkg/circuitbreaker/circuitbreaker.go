// Package circuitbreaker 熔断器
//
// 三种状态:
//   - CLOSED: 请求正常通过，统计失败次数，满足ReadyToTrip时转为OPEN
//   - OPEN: 请求快速失败(ErrOpenState)，Timeout后转为HALF_OPEN
//   - HALF_OPEN: 放行至多MaxRequests个探测请求，成功转CLOSED，失败转回OPEN
package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State 熔断器状态
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

// String 状态转字符串(便于日志和监控标签)
func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// Config 熔断器配置
type Config struct {
	// MaxRequests 半开状态允许通过的最大请求数，0按1处理
	MaxRequests uint32

	// Interval 关闭状态下统计窗口，到期清零计数；0表示不清零
	Interval time.Duration

	// Timeout 打开状态持续时间，到期转为半开
	Timeout time.Duration

	// ReadyToTrip 根据统计判断是否熔断，为nil时连续失败5次熔断
	ReadyToTrip func(counts Counts) bool

	// IsSuccessful 判断一次调用是否计为成功，为nil时err == nil为成功
	// 用于排除不代表下游故障的错误(如参数错误、context取消)
	IsSuccessful func(err error) bool

	// OnStateChange 状态变化回调，在锁外调用
	OnStateChange func(name string, from, to State)
}

// Counts 统计数据
type Counts struct {
	Requests             uint32
	TotalSuccesses       uint32
	TotalFailures        uint32
	ConsecutiveSuccesses uint32
	ConsecutiveFailures  uint32
}

// FailureRate 失败率
func (c Counts) FailureRate() float64 {
	if c.Requests == 0 {
		return 0
	}
	return float64(c.TotalFailures) / float64(c.Requests)
}

func (c *Counts) onSuccess() {
	c.TotalSuccesses++
	c.ConsecutiveSuccesses++
	c.ConsecutiveFailures = 0
}

func (c *Counts) onFailure() {
	c.TotalFailures++
	c.ConsecutiveFailures++
	c.ConsecutiveSuccesses = 0
}

// ConsecutiveFailures 返回"连续失败n次熔断"的ReadyToTrip
func ConsecutiveFailures(n uint32) func(Counts) bool {
	return func(c Counts) bool { return c.ConsecutiveFailures >= n }
}

// ErrOpenState 熔断器打开(或半开且探测名额已满)
var ErrOpenState = errors.New("circuit breaker is open")

// CircuitBreaker 熔断器
type CircuitBreaker struct {
	name          string
	maxRequests   uint32
	interval      time.Duration
	timeout       time.Duration
	readyToTrip   func(Counts) bool
	isSuccessful  func(error) bool
	onStateChange func(name string, from, to State)
	now           func() time.Time

	mu         sync.Mutex
	state      State
	generation uint64
	counts     Counts
	expiry     time.Time
}

// NewCircuitBreaker 创建熔断器
func NewCircuitBreaker(name string, config Config) *CircuitBreaker {
	cb := &CircuitBreaker{
		name:          name,
		maxRequests:   config.MaxRequests,
		interval:      config.Interval,
		timeout:       config.Timeout,
		readyToTrip:   config.ReadyToTrip,
		isSuccessful:  config.IsSuccessful,
		onStateChange: config.OnStateChange,
		now:           time.Now,
	}
	if cb.maxRequests == 0 {
		cb.maxRequests = 1
	}
	if cb.readyToTrip == nil {
		cb.readyToTrip = ConsecutiveFailures(5)
	}
	if cb.isSuccessful == nil {
		cb.isSuccessful = func(err error) bool { return err == nil }
	}
	cb.resetExpiry(cb.now())
	return cb
}

// Name 熔断器名称
func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// Execute 在熔断保护下执行req
func (cb *CircuitBreaker) Execute(req func() error) error {
	generation, err := cb.beforeRequest()
	if err != nil {
		return err
	}

	err = req()
	cb.afterRequest(generation, cb.isSuccessful(err))
	return err
}

// ExecuteContext 同Execute，ctx已取消时直接返回且不计入统计
func (cb *CircuitBreaker) ExecuteContext(ctx context.Context, req func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return cb.Execute(func() error { return req(ctx) })
}

// State 当前状态
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	state, _, change := cb.currentState(cb.now())
	cb.mu.Unlock()
	cb.notify(change)
	return state
}

// Counts 当前统计
func (cb *CircuitBreaker) Counts() Counts {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.counts
}

type stateChange struct {
	from, to State
	changed  bool
}

func (cb *CircuitBreaker) beforeRequest() (uint64, error) {
	cb.mu.Lock()
	state, generation, change := cb.currentState(cb.now())
	var err error
	switch {
	case state == StateOpen:
		err = ErrOpenState
	case state == StateHalfOpen && cb.counts.Requests >= cb.maxRequests:
		err = ErrOpenState
	default:
		cb.counts.Requests++
	}
	cb.mu.Unlock()

	cb.notify(change)
	return generation, err
}

func (cb *CircuitBreaker) afterRequest(before uint64, success bool) {
	cb.mu.Lock()
	now := cb.now()
	state, generation, change := cb.currentState(now)
	if generation != before {
		// 请求期间状态已切换，本次结果不计入新周期
		cb.mu.Unlock()
		cb.notify(change)
		return
	}

	var next stateChange
	if success {
		cb.counts.onSuccess()
		if state == StateHalfOpen {
			next = cb.setState(StateClosed, now)
		}
	} else {
		cb.counts.onFailure()
		switch state {
		case StateClosed:
			if cb.readyToTrip(cb.counts) {
				next = cb.setState(StateOpen, now)
			}
		case StateHalfOpen:
			next = cb.setState(StateOpen, now)
		}
	}
	cb.mu.Unlock()

	cb.notify(change)
	cb.notify(next)
}

func (cb *CircuitBreaker) currentState(now time.Time) (State, uint64, stateChange) {
	var change stateChange
	switch cb.state {
	case StateClosed:
		if !cb.expiry.IsZero() && cb.expiry.Before(now) {
			cb.counts = Counts{}
			cb.resetExpiry(now)
		}
	case StateOpen:
		if cb.expiry.Before(now) {
			change = cb.setState(StateHalfOpen, now)
		}
	}
	return cb.state, cb.generation, change
}

func (cb *CircuitBreaker) setState(state State, now time.Time) stateChange {
	if cb.state == state {
		return stateChange{}
	}

	prev := cb.state
	cb.state = state
	cb.generation++
	cb.counts = Counts{}

	switch state {
	case StateClosed:
		cb.resetExpiry(now)
	case StateOpen:
		cb.expiry = now.Add(cb.timeout)
	case StateHalfOpen:
		cb.expiry = time.Time{}
	}
	return stateChange{from: prev, to: state, changed: true}
}

func (cb *CircuitBreaker) resetExpiry(now time.Time) {
	if cb.interval > 0 {
		cb.expiry = now.Add(cb.interval)
	} else {
		cb.expiry = time.Time{}
	}
}

func (cb *CircuitBreaker) notify(c stateChange) {
	if c.changed && cb.onStateChange != nil {
		cb.onStateChange(cb.name, c.from, c.to)
	}
}
