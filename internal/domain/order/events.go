package order

import (
	"context"
	"time"
)

// EventType 订单事件类型(同时作为MQ的routing key)
type EventType string

const (
	EventCreated       EventType = "order.created"
	EventStatusChanged EventType = "order.status_changed"
)

// Event 订单事件
type Event struct {
	Type           EventType `json:"type"`
	OrderID        uint      `json:"order_id"`
	OrderNo        string    `json:"order_no"`
	UserID         uint      `json:"user_id"`
	Status         Status    `json:"status"`
	PreviousStatus Status    `json:"previous_status,omitempty"`
	TotalPrice     int64     `json:"total_price"`
	Memo           string    `json:"memo,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// NewCreatedEvent 订单创建事件
func NewCreatedEvent(o *Order) Event {
	return Event{
		Type:       EventCreated,
		OrderID:    o.ID,
		OrderNo:    o.OrderNo,
		UserID:     o.UserID,
		Status:     o.Status(),
		TotalPrice: o.Amounts.TotalPrice,
		OccurredAt: o.CreatedAt,
	}
}

// NewStatusChangedEvent 订单状态变更事件
func NewStatusChangedEvent(o *Order, from Status) Event {
	last := o.LastChange()
	return Event{
		Type:           EventStatusChanged,
		OrderID:        o.ID,
		OrderNo:        o.OrderNo,
		UserID:         o.UserID,
		Status:         o.Status(),
		PreviousStatus: from,
		TotalPrice:     o.Amounts.TotalPrice,
		Memo:           last.Memo,
		OccurredAt:     last.ChangedAt,
	}
}

// EventPublisher 订单事件发布
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher 未启用MQ时使用
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
