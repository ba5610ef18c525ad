// Package errs defines the typed errors shared by the order and inventory
// services. Handlers map these to HTTP statuses; the remote inventory
// client produces them when translating responses from the inventory
// service.
package errs

import (
	"errors"
	"fmt"
)

// ErrUpstreamUnavailable reports that a remote collaborator timed out or
// could not be reached at the transport level.
var ErrUpstreamUnavailable = errors.New("upstream service unavailable")

// ErrAccessDenied reports that a remote collaborator rejected the
// propagated credentials.
var ErrAccessDenied = errors.New("access denied by upstream service")

type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product not found: %s", e.ProductID)
}

type OrderNotFoundError struct {
	OrderID string
}

func (e *OrderNotFoundError) Error() string {
	return fmt.Sprintf("order not found: %s", e.OrderID)
}

// ProductUnavailableError means a product's existence could not be
// confirmed remotely, either because it does not exist or because the
// lookup itself failed. Order creation aborts on it before any persistence.
type ProductUnavailableError struct {
	ProductID string
}

func (e *ProductUnavailableError) Error() string {
	return fmt.Sprintf("product not available: %s", e.ProductID)
}

// InsufficientStockError reports a failed stock guard. Available is -1
// when the failing side did not report the remaining stock.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	if e.Available < 0 {
		return fmt.Sprintf("insufficient stock for product %s: requested %d", e.ProductID, e.Requested)
	}
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d", e.ProductID, e.Requested, e.Available)
}

type UnauthorizedAccessError struct {
	ResourceID  string
	RequesterID string
}

func (e *UnauthorizedAccessError) Error() string {
	return fmt.Sprintf("user %s is not authorized to access %s", e.RequesterID, e.ResourceID)
}

type InvalidStateTransitionError struct {
	OrderID       string
	CurrentStatus string
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("cannot cancel order %s with status %s", e.OrderID, e.CurrentStatus)
}

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
