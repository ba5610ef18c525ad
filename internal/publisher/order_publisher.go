package publisher

import (
	"encoding/json"
	"fmt"

	"github.com/microshop/microshop/internal/messaging"
	"github.com/microshop/microshop/internal/models"
)

const (
	OrderCreatedQueue   = "order.created"
	OrderCancelledQueue = "order.cancelled"
)

type OrderPublisher struct {
	mq *messaging.RabbitMQ
}

func NewOrderPublisher(mq *messaging.RabbitMQ) (*OrderPublisher, error) {
	for _, q := range []string{OrderCreatedQueue, OrderCancelledQueue} {
		if err := mq.DeclareQueue(q); err != nil {
			return nil, err
		}
	}

	return &OrderPublisher{mq: mq}, nil
}

// PublishOrderCreated publishes an order.created event
func (p *OrderPublisher) PublishOrderCreated(order *models.Order) error {
	event := models.OrderCreatedEvent{
		OrderID:     order.ID,
		UserID:      order.UserID,
		Username:    order.Username,
		TotalAmount: order.TotalAmount,
	}

	for _, item := range order.Items {
		event.Items = append(event.Items, models.OrderItemEvent{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	return p.publish(OrderCreatedQueue, event)
}

// PublishOrderCancelled publishes an order.cancelled event
func (p *OrderPublisher) PublishOrderCancelled(order *models.Order) error {
	return p.publish(OrderCancelledQueue, models.OrderCancelledEvent{
		OrderID: order.ID,
		UserID:  order.UserID,
	})
}

func (p *OrderPublisher) publish(queue string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	return p.mq.Publish(queue, data)
}
