// Package orders drives the order lifecycle: creation against the remote
// inventory service, owner/admin gated reads, the guarded cancel
// transition and the admin status override.
package orders

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/microshop/microshop/internal/auth"
	"github.com/microshop/microshop/internal/errs"
	"github.com/microshop/microshop/internal/models"
	"github.com/shopspring/decimal"
)

// InventoryClient is the remote boundary to the inventory service. The
// token is the caller's own; the orchestrator never acts with elevated
// privilege.
type InventoryClient interface {
	GetProduct(ctx context.Context, token, productID string) (*models.Product, error)
	CheckStock(ctx context.Context, token, productID string, quantity int) (bool, error)
	ReduceStock(ctx context.Context, token, productID string, quantity int) error
}

// OrderStore is the durable store owning orders and their items.
type OrderStore interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	GetAll(ctx context.Context) ([]models.Order, error)
	GetByUser(ctx context.Context, userID string) ([]models.Order, error)
	GetByStatus(ctx context.Context, status models.OrderStatus) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id string, status models.OrderStatus) (bool, error)
}

// EventPublisher emits order lifecycle events. Publishing is best-effort;
// a nil publisher disables it.
type EventPublisher interface {
	PublishOrderCreated(order *models.Order) error
	PublishOrderCancelled(order *models.Order) error
}

type Service struct {
	store     OrderStore
	inventory InventoryClient
	publisher EventPublisher
	log       *slog.Logger
}

func NewService(store OrderStore, inventory InventoryClient, publisher EventPublisher, log *slog.Logger) *Service {
	return &Service{
		store:     store,
		inventory: inventory,
		publisher: publisher,
		log:       log,
	}
}

// CreateOrder runs the order placement workflow:
//
//  1. fetch every product remotely; any miss aborts with ProductUnavailable
//  2. check availability for every item; a shortage aborts with
//     InsufficientStock
//  3. price every line from the products fetched in step 1
//  4. persist the order as PENDING (first durable side effect)
//  5. reduce remote stock per item, best-effort
//  6. confirm the order and persist again
//
// Steps 1-3 reject without any durable write. After step 4 the order
// exists and the call runs to completion even when step 5 calls fail:
// reduction failures are logged, never rolled back and never block later
// items. Stock can therefore be over-sold relative to confirmed orders.
// This is a known consistency gap, kept deliberately in favour of
// "order exists" over "inventory perfectly consistent".
func (s *Service) CreateOrder(ctx context.Context, ident auth.Identity, req models.CreateOrderRequest) (*models.Order, error) {
	if err := validateCreateOrder(ident, req); err != nil {
		return nil, err
	}

	log := s.log.With("user_id", ident.UserID, "username", ident.Username)
	log.Info("creating order", "items", len(req.Items))

	// Step 1: verify every product exists, snapshotting name and price.
	products := make([]*models.Product, len(req.Items))
	for i, item := range req.Items {
		product, err := s.inventory.GetProduct(ctx, ident.Token, item.ProductID)
		if err != nil {
			log.Error("failed to fetch product", "product_id", item.ProductID, "error", err)
			return nil, &errs.ProductUnavailableError{ProductID: item.ProductID}
		}
		products[i] = product
	}

	// Step 2: pre-check availability. This is advisory only; the
	// reduction in step 5 re-validates against current stock.
	for _, item := range req.Items {
		available, err := s.inventory.CheckStock(ctx, ident.Token, item.ProductID, item.Quantity)
		if err != nil {
			log.Error("failed to check stock", "product_id", item.ProductID, "error", err)
			return nil, &errs.ProductUnavailableError{ProductID: item.ProductID}
		}
		if !available {
			return nil, &errs.InsufficientStockError{
				ProductID: item.ProductID,
				Requested: item.Quantity,
				Available: -1,
			}
		}
	}

	// Step 3: price lines from the snapshot taken in step 1.
	order := &models.Order{
		ID:       uuid.NewString(),
		UserID:   ident.UserID,
		Username: ident.Username,
		Status:   models.StatusPending,
	}
	total := decimal.Zero
	for i, item := range req.Items {
		subtotal := products[i].UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		order.Items = append(order.Items, models.OrderItem{
			ID:          uuid.NewString(),
			OrderID:     order.ID,
			ProductID:   item.ProductID,
			ProductName: products[i].Name,
			UnitPrice:   products[i].UnitPrice,
			Quantity:    item.Quantity,
			Subtotal:    subtotal,
		})
		total = total.Add(subtotal)
	}
	order.TotalAmount = total

	// Step 4: first durable side effect.
	if err := s.store.Create(ctx, order); err != nil {
		return nil, err
	}
	log.Info("order created", "order_id", order.ID, "total", order.TotalAmount)

	// Step 5: reduce stock per item, independently and best-effort. A
	// failure here leaves the persisted order in place.
	for _, item := range req.Items {
		if err := s.inventory.ReduceStock(ctx, ident.Token, item.ProductID, item.Quantity); err != nil {
			log.Error("failed to reduce stock", "order_id", order.ID, "product_id", item.ProductID, "error", err)
			continue
		}
		log.Info("stock reduced", "order_id", order.ID, "product_id", item.ProductID, "quantity", item.Quantity)
	}

	// Step 6: confirm regardless of individual reduction outcomes.
	if _, err := s.store.UpdateStatus(ctx, order.ID, models.StatusConfirmed); err != nil {
		return nil, err
	}
	order.Status = models.StatusConfirmed
	log.Info("order confirmed", "order_id", order.ID)

	s.publish(func(p EventPublisher) error { return p.PublishOrderCreated(order) }, order.ID, "order.created")

	return order, nil
}

// GetOrderByID returns one order. Admins can read any order, clients only
// their own.
func (s *Service) GetOrderByID(ctx context.Context, ident auth.Identity, orderID string) (*models.Order, error) {
	return s.loadAuthorized(ctx, ident, orderID)
}

// GetOrderItems returns an order's items, gated like GetOrderByID.
func (s *Service) GetOrderItems(ctx context.Context, ident auth.Identity, orderID string) ([]models.OrderItem, error) {
	order, err := s.loadAuthorized(ctx, ident, orderID)
	if err != nil {
		return nil, err
	}
	return order.Items, nil
}

// GetMyOrders returns the caller's orders, most recent first.
func (s *Service) GetMyOrders(ctx context.Context, ident auth.Identity) ([]models.Order, error) {
	return s.store.GetByUser(ctx, ident.UserID)
}

// GetAllOrders returns every order. Admin only.
func (s *Service) GetAllOrders(ctx context.Context, ident auth.Identity) ([]models.Order, error) {
	if !ident.IsAdmin() {
		return nil, &errs.UnauthorizedAccessError{ResourceID: "orders", RequesterID: ident.UserID}
	}
	return s.store.GetAll(ctx)
}

// GetOrdersByStatus returns orders in a given status. Admin only.
func (s *Service) GetOrdersByStatus(ctx context.Context, ident auth.Identity, status models.OrderStatus) ([]models.Order, error) {
	if !ident.IsAdmin() {
		return nil, &errs.UnauthorizedAccessError{ResourceID: "orders", RequesterID: ident.UserID}
	}
	return s.store.GetByStatus(ctx, status)
}

// UpdateOrderStatus sets an order to any status in the enum, with no
// transition table. Admin only: this is the operational escape hatch, not
// a workflow transition.
func (s *Service) UpdateOrderStatus(ctx context.Context, ident auth.Identity, orderID string, status models.OrderStatus) (*models.Order, error) {
	if !ident.IsAdmin() {
		return nil, &errs.UnauthorizedAccessError{ResourceID: orderID, RequesterID: ident.UserID}
	}

	found, err := s.store.UpdateStatus(ctx, orderID, status)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, &errs.OrderNotFoundError{OrderID: orderID}
	}

	s.log.Info("order status updated", "order_id", orderID, "status", status, "admin", ident.UserID)
	return s.store.GetByID(ctx, orderID)
}

// CancelOrder cancels an order. Only the owner or an admin may cancel,
// and only from PENDING or CONFIRMED.
func (s *Service) CancelOrder(ctx context.Context, ident auth.Identity, orderID string) error {
	order, err := s.loadAuthorized(ctx, ident, orderID)
	if err != nil {
		return err
	}

	if !order.Status.Cancellable() {
		return &errs.InvalidStateTransitionError{OrderID: orderID, CurrentStatus: string(order.Status)}
	}

	if _, err := s.store.UpdateStatus(ctx, orderID, models.StatusCancelled); err != nil {
		return err
	}
	order.Status = models.StatusCancelled
	s.log.Info("order cancelled", "order_id", orderID, "user_id", ident.UserID)

	s.publish(func(p EventPublisher) error { return p.PublishOrderCancelled(order) }, orderID, "order.cancelled")

	return nil
}

func (s *Service) loadAuthorized(ctx context.Context, ident auth.Identity, orderID string) (*models.Order, error) {
	order, err := s.store.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, &errs.OrderNotFoundError{OrderID: orderID}
	}

	if !ident.IsAdmin() && order.UserID != ident.UserID {
		return nil, &errs.UnauthorizedAccessError{ResourceID: orderID, RequesterID: ident.UserID}
	}

	return order, nil
}

func (s *Service) publish(fn func(EventPublisher) error, orderID, event string) {
	if s.publisher == nil {
		return
	}
	if err := fn(s.publisher); err != nil {
		s.log.Warn("failed to publish event", "event", event, "order_id", orderID, "error", err)
	}
}

func validateCreateOrder(ident auth.Identity, req models.CreateOrderRequest) error {
	if strings.TrimSpace(ident.UserID) == "" {
		return &errs.ValidationError{Field: "user_id", Reason: "must not be blank"}
	}
	if len(req.Items) == 0 {
		return &errs.ValidationError{Field: "items", Reason: "must not be empty"}
	}
	for _, item := range req.Items {
		if strings.TrimSpace(item.ProductID) == "" {
			return &errs.ValidationError{Field: "product_id", Reason: "must not be blank"}
		}
		if item.Quantity <= 0 {
			return &errs.ValidationError{Field: "quantity", Reason: "must be positive"}
		}
	}
	return nil
}
