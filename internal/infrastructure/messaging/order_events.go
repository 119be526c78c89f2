package messaging

import (
	"context"

	"github.com/xiebiao/storefront/internal/domain/order"
	"github.com/xiebiao/storefront/pkg/metrics"
)

// Publisher mq.Publisher的发布能力
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

type orderEventPublisher struct {
	publisher Publisher
}

// NewOrderEventPublisher 订单事件发布到RabbitMQ，routing key为事件类型
func NewOrderEventPublisher(p Publisher) order.EventPublisher {
	return &orderEventPublisher{publisher: p}
}

func (p *orderEventPublisher) Publish(ctx context.Context, event order.Event) error {
	key := string(event.Type)
	err := p.publisher.Publish(ctx, key, event)
	metrics.MessagesPublishedTotal.WithLabelValues(key, metrics.Result(err)).Inc()
	return err
}
