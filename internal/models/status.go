package models

import "fmt"

// OrderStatus is the closed set of order lifecycle states. PENDING and
// CONFIRMED are set by the order workflow itself; SHIPPED and DELIVERED
// are only ever reached through the admin status override.
type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusConfirmed OrderStatus = "CONFIRMED"
	StatusShipped   OrderStatus = "SHIPPED"
	StatusDelivered OrderStatus = "DELIVERED"
	StatusCancelled OrderStatus = "CANCELLED"
)

var validStatuses = map[OrderStatus]bool{
	StatusPending:   true,
	StatusConfirmed: true,
	StatusShipped:   true,
	StatusDelivered: true,
	StatusCancelled: true,
}

// ParseOrderStatus validates a raw status value against the closed enum.
func ParseOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(s)
	if !validStatuses[status] {
		return "", fmt.Errorf("invalid order status %q", s)
	}
	return status, nil
}

// Cancellable reports whether an order in this state may still be
// cancelled through the guarded cancel transition.
func (s OrderStatus) Cancellable() bool {
	return s == StatusPending || s == StatusConfirmed
}
