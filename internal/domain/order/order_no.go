package order

import (
	"context"
	"fmt"
	"time"
)

const dayLayout = "20060102"

// FormatOrderNo 格式化订单号
// 格式:ORD-YYYYMMDD-NNN，序号按天从001开始，超过999自然延长位数
// 示例:ORD-20251014-007
func FormatOrderNo(day string, seq int64) string {
	return fmt.Sprintf("ORD-%s-%03d", day, seq)
}

// SequenceRepository 按天递增的序号存储
// Next必须是原子的"自增并返回"，在事务中调用时随事务回滚
type SequenceRepository interface {
	Next(ctx context.Context, day string) (int64, error)
}

// NumberGenerator 订单号生成器
type NumberGenerator struct {
	seq SequenceRepository
	loc *time.Location
}

// NewNumberGenerator 创建订单号生成器，loc决定"一天"的边界
func NewNumberGenerator(seq SequenceRepository, loc *time.Location) *NumberGenerator {
	if loc == nil {
		loc = time.UTC
	}
	return &NumberGenerator{seq: seq, loc: loc}
}

// DayKey 返回t所在自然日(YYYYMMDD)
func (g *NumberGenerator) DayKey(t time.Time) string {
	return t.In(g.loc).Format(dayLayout)
}

// Next 分配下一个订单号
func (g *NumberGenerator) Next(ctx context.Context, now time.Time) (string, error) {
	day := g.DayKey(now)
	n, err := g.seq.Next(ctx, day)
	if err != nil {
		return "", ErrOrderNoGenerate.WithCause(err)
	}
	return FormatOrderNo(day, n), nil
}

// StartOfDay 返回t所在自然日的零点
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
}
