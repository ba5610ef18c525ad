package models

import "github.com/shopspring/decimal"

// OrderCreatedEvent is published after an order has been confirmed.
type OrderCreatedEvent struct {
	OrderID     string           `json:"order_id"`
	UserID      string           `json:"user_id"`
	Username    string           `json:"username"`
	TotalAmount decimal.Decimal  `json:"total_amount"`
	Items       []OrderItemEvent `json:"items"`
}

// OrderCancelledEvent is published when an order is cancelled.
type OrderCancelledEvent struct {
	OrderID string `json:"order_id"`
	UserID  string `json:"user_id"`
}

type OrderItemEvent struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}
