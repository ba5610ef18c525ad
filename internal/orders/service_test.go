package orders

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/microshop/microshop/internal/auth"
	"github.com/microshop/microshop/internal/errs"
	"github.com/microshop/microshop/internal/models"
	"github.com/shopspring/decimal"
)

// fakeInventory scripts the remote inventory service per product id.
type fakeInventory struct {
	products     map[string]*models.Product
	checkResult  map[string]bool
	reduceErr    map[string]error
	reduceCalls  []string
	lastToken    string
}

func newFakeInventory() *fakeInventory {
	return &fakeInventory{
		products:    make(map[string]*models.Product),
		checkResult: make(map[string]bool),
		reduceErr:   make(map[string]error),
	}
}

func (f *fakeInventory) GetProduct(ctx context.Context, token, productID string) (*models.Product, error) {
	f.lastToken = token
	p, ok := f.products[productID]
	if !ok {
		return nil, &errs.ProductUnavailableError{ProductID: productID}
	}
	return p, nil
}

func (f *fakeInventory) CheckStock(ctx context.Context, token, productID string, quantity int) (bool, error) {
	f.lastToken = token
	available, ok := f.checkResult[productID]
	if !ok {
		return true, nil
	}
	return available, nil
}

func (f *fakeInventory) ReduceStock(ctx context.Context, token, productID string, quantity int) error {
	f.lastToken = token
	f.reduceCalls = append(f.reduceCalls, fmt.Sprintf("%s:%d", productID, quantity))
	return f.reduceErr[productID]
}

// fakeStore is an in-memory OrderStore.
type fakeStore struct {
	orders map[string]*models.Order
}

func newFakeStore() *fakeStore {
	return &fakeStore{orders: make(map[string]*models.Order)}
}

func (f *fakeStore) Create(ctx context.Context, order *models.Order) error {
	stored := *order
	stored.Items = append([]models.OrderItem(nil), order.Items...)
	f.orders[order.ID] = &stored
	return nil
}

func (f *fakeStore) GetByID(ctx context.Context, id string) (*models.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, nil
	}
	copy := *o
	copy.Items = append([]models.OrderItem(nil), o.Items...)
	return &copy, nil
}

func (f *fakeStore) GetAll(ctx context.Context) ([]models.Order, error) {
	var out []models.Order
	for _, o := range f.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (f *fakeStore) GetByUser(ctx context.Context, userID string) ([]models.Order, error) {
	var out []models.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeStore) GetByStatus(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	var out []models.Order
	for _, o := range f.orders {
		if o.Status == status {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) (bool, error) {
	o, ok := f.orders[id]
	if !ok {
		return false, nil
	}
	o.Status = status
	return true, nil
}

type fakePublisher struct {
	created   int
	cancelled int
	err       error
}

func (f *fakePublisher) PublishOrderCreated(order *models.Order) error {
	f.created++
	return f.err
}

func (f *fakePublisher) PublishOrderCancelled(order *models.Order) error {
	f.cancelled++
	return f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func clientIdentity(userID string) auth.Identity {
	return auth.Identity{
		UserID:   userID,
		Username: userID,
		Roles:    map[string]bool{auth.RoleClient: true},
		Token:    "token-" + userID,
	}
}

func adminIdentity() auth.Identity {
	return auth.Identity{
		UserID:   "admin-1",
		Username: "admin",
		Roles:    map[string]bool{auth.RoleAdmin: true},
	}
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCreateOrderConfirmsAndTotals(t *testing.T) {
	inv := newFakeInventory()
	inv.products["p-1"] = &models.Product{ID: "p-1", Name: "Widget", UnitPrice: price("10.00"), StockQuantity: 5}
	store := newFakeStore()
	pub := &fakePublisher{}
	svc := NewService(store, inv, pub, discardLogger())

	order, err := svc.CreateOrder(context.Background(), clientIdentity("u-1"), models.CreateOrderRequest{
		Items: []models.CreateOrderItemRequest{{ProductID: "p-1", Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("CreateOrder = %v", err)
	}

	if order.Status != models.StatusConfirmed {
		t.Errorf("status = %s, want CONFIRMED", order.Status)
	}
	if !order.TotalAmount.Equal(price("20.00")) {
		t.Errorf("total = %s, want 20.00", order.TotalAmount)
	}
	if len(order.Items) != 1 || !order.Items[0].Subtotal.Equal(price("20.00")) {
		t.Errorf("unexpected items %+v", order.Items)
	}
	if order.Items[0].ProductName != "Widget" {
		t.Errorf("product name = %s, want snapshot Widget", order.Items[0].ProductName)
	}

	stored, _ := store.GetByID(context.Background(), order.ID)
	if stored == nil || stored.Status != models.StatusConfirmed {
		t.Fatalf("stored order = %+v, want confirmed", stored)
	}
	if inv.lastToken != "token-u-1" {
		t.Errorf("propagated token = %q, want caller's token", inv.lastToken)
	}
	if pub.created != 1 {
		t.Errorf("order.created events = %d, want 1", pub.created)
	}
}

// The order total is computed from the product data snapshotted at fetch
// time; catalog changes after step 1 never affect it.
func TestCreateOrderSnapshotsPricing(t *testing.T) {
	inv := newFakeInventory()
	inv.products["p-1"] = &models.Product{ID: "p-1", Name: "Widget", UnitPrice: price("7.50"), StockQuantity: 10}
	inv.products["p-2"] = &models.Product{ID: "p-2", Name: "Gadget", UnitPrice: price("1.25"), StockQuantity: 10}
	store := newFakeStore()
	svc := NewService(store, inv, nil, discardLogger())

	order, err := svc.CreateOrder(context.Background(), clientIdentity("u-1"), models.CreateOrderRequest{
		Items: []models.CreateOrderItemRequest{
			{ProductID: "p-1", Quantity: 2},
			{ProductID: "p-2", Quantity: 4},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder = %v", err)
	}

	want := price("7.50").Mul(decimal.NewFromInt(2)).Add(price("1.25").Mul(decimal.NewFromInt(4)))
	if !order.TotalAmount.Equal(want) {
		t.Errorf("total = %s, want %s", order.TotalAmount, want)
	}

	var sum decimal.Decimal
	for _, item := range order.Items {
		sum = sum.Add(item.Subtotal)
	}
	if !order.TotalAmount.Equal(sum) {
		t.Errorf("total %s != sum of subtotals %s", order.TotalAmount, sum)
	}
}

func TestCreateOrderProductUnavailableAborts(t *testing.T) {
	inv := newFakeInventory()
	inv.products["p-1"] = &models.Product{ID: "p-1", Name: "Widget", UnitPrice: price("10.00"), StockQuantity: 5}
	store := newFakeStore()
	svc := NewService(store, inv, nil, discardLogger())

	_, err := svc.CreateOrder(context.Background(), clientIdentity("u-1"), models.CreateOrderRequest{
		Items: []models.CreateOrderItemRequest{
			{ProductID: "p-1", Quantity: 1},
			{ProductID: "p-missing", Quantity: 1},
		},
	})

	var unavailable *errs.ProductUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("error = %v; want ProductUnavailableError", err)
	}
	if unavailable.ProductID != "p-missing" {
		t.Errorf("ProductID = %s, want p-missing", unavailable.ProductID)
	}
	if len(store.orders) != 0 {
		t.Errorf("store has %d orders, want none", len(store.orders))
	}
	if len(inv.reduceCalls) != 0 {
		t.Errorf("stock was reduced despite abort: %v", inv.reduceCalls)
	}
}

func TestCreateOrderInsufficientStockAborts(t *testing.T) {
	inv := newFakeInventory()
	inv.products["p-1"] = &models.Product{ID: "p-1", Name: "Widget", UnitPrice: price("10.00"), StockQuantity: 1}
	inv.checkResult["p-1"] = false
	store := newFakeStore()
	svc := NewService(store, inv, nil, discardLogger())

	_, err := svc.CreateOrder(context.Background(), clientIdentity("u-1"), models.CreateOrderRequest{
		Items: []models.CreateOrderItemRequest{{ProductID: "p-1", Quantity: 5}},
	})

	var insufficient *errs.InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("error = %v; want InsufficientStockError", err)
	}
	if insufficient.ProductID != "p-1" || insufficient.Requested != 5 {
		t.Errorf("InsufficientStockError = %+v", insufficient)
	}
	if len(store.orders) != 0 {
		t.Errorf("store has %d orders, want none", len(store.orders))
	}
}

// Reduce-stock failures after the order is persisted are swallowed: every
// item is still attempted and the order still confirms. This pins the
// deliberate consistency gap.
func TestCreateOrderReduceFailureStillConfirms(t *testing.T) {
	inv := newFakeInventory()
	inv.products["p-1"] = &models.Product{ID: "p-1", Name: "A", UnitPrice: price("1.00"), StockQuantity: 5}
	inv.products["p-2"] = &models.Product{ID: "p-2", Name: "B", UnitPrice: price("2.00"), StockQuantity: 5}
	inv.reduceErr["p-1"] = &errs.InsufficientStockError{ProductID: "p-1", Requested: 2, Available: 1}
	store := newFakeStore()
	svc := NewService(store, inv, nil, discardLogger())

	order, err := svc.CreateOrder(context.Background(), clientIdentity("u-1"), models.CreateOrderRequest{
		Items: []models.CreateOrderItemRequest{
			{ProductID: "p-1", Quantity: 2},
			{ProductID: "p-2", Quantity: 3},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder = %v; reduce failures must not fail the call", err)
	}

	if order.Status != models.StatusConfirmed {
		t.Errorf("status = %s, want CONFIRMED despite reduce failure", order.Status)
	}
	if want := []string{"p-1:2", "p-2:3"}; !reflect.DeepEqual(inv.reduceCalls, want) {
		t.Errorf("reduce calls = %v, want %v (later items not blocked)", inv.reduceCalls, want)
	}
}

func TestCreateOrderValidation(t *testing.T) {
	svc := NewService(newFakeStore(), newFakeInventory(), nil, discardLogger())
	ctx := context.Background()

	tests := []struct {
		name  string
		ident auth.Identity
		req   models.CreateOrderRequest
	}{
		{"empty items", clientIdentity("u-1"), models.CreateOrderRequest{}},
		{"zero quantity", clientIdentity("u-1"), models.CreateOrderRequest{
			Items: []models.CreateOrderItemRequest{{ProductID: "p-1", Quantity: 0}},
		}},
		{"negative quantity", clientIdentity("u-1"), models.CreateOrderRequest{
			Items: []models.CreateOrderItemRequest{{ProductID: "p-1", Quantity: -2}},
		}},
		{"blank product id", clientIdentity("u-1"), models.CreateOrderRequest{
			Items: []models.CreateOrderItemRequest{{ProductID: "  ", Quantity: 1}},
		}},
		{"blank user", auth.Identity{}, models.CreateOrderRequest{
			Items: []models.CreateOrderItemRequest{{ProductID: "p-1", Quantity: 1}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateOrder(ctx, tt.ident, tt.req)
			var validation *errs.ValidationError
			if !errors.As(err, &validation) {
				t.Errorf("error = %v; want ValidationError", err)
			}
		})
	}
}

func seedOrder(store *fakeStore, userID string, status models.OrderStatus) *models.Order {
	order := &models.Order{
		ID:          "o-" + userID + "-" + string(status),
		UserID:      userID,
		Username:    userID,
		Status:      status,
		TotalAmount: price("20.00"),
		Items: []models.OrderItem{
			{ID: "i-1", ProductID: "p-1", ProductName: "Widget", UnitPrice: price("10.00"), Quantity: 2, Subtotal: price("20.00")},
		},
	}
	store.Create(context.Background(), order)
	return order
}

func TestCancelOrderAuthorization(t *testing.T) {
	store := newFakeStore()
	order := seedOrder(store, "owner", models.StatusPending)
	svc := NewService(store, newFakeInventory(), nil, discardLogger())
	ctx := context.Background()

	// Another client may not cancel someone else's order.
	err := svc.CancelOrder(ctx, clientIdentity("intruder"), order.ID)
	var unauthorized *errs.UnauthorizedAccessError
	if !errors.As(err, &unauthorized) {
		t.Fatalf("intruder cancel error = %v; want UnauthorizedAccessError", err)
	}

	stored, _ := store.GetByID(ctx, order.ID)
	if stored.Status != models.StatusPending {
		t.Fatalf("status changed to %s by unauthorized cancel", stored.Status)
	}

	// An admin may.
	if err := svc.CancelOrder(ctx, adminIdentity(), order.ID); err != nil {
		t.Fatalf("admin cancel = %v", err)
	}
	stored, _ = store.GetByID(ctx, order.ID)
	if stored.Status != models.StatusCancelled {
		t.Fatalf("status = %s, want CANCELLED", stored.Status)
	}
}

func TestCancelOrderByOwner(t *testing.T) {
	store := newFakeStore()
	order := seedOrder(store, "owner", models.StatusConfirmed)
	pub := &fakePublisher{}
	svc := NewService(store, newFakeInventory(), pub, discardLogger())

	if err := svc.CancelOrder(context.Background(), clientIdentity("owner"), order.ID); err != nil {
		t.Fatalf("owner cancel = %v", err)
	}
	if pub.cancelled != 1 {
		t.Errorf("order.cancelled events = %d, want 1", pub.cancelled)
	}
}

func TestCancelOrderInvalidState(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, newFakeInventory(), nil, discardLogger())
	ctx := context.Background()

	for _, status := range []models.OrderStatus{models.StatusShipped, models.StatusDelivered, models.StatusCancelled} {
		order := seedOrder(store, "owner", status)
		err := svc.CancelOrder(ctx, clientIdentity("owner"), order.ID)

		var invalid *errs.InvalidStateTransitionError
		if !errors.As(err, &invalid) {
			t.Errorf("cancel from %s error = %v; want InvalidStateTransitionError", status, err)
			continue
		}
		if invalid.CurrentStatus != string(status) {
			t.Errorf("CurrentStatus = %s, want %s", invalid.CurrentStatus, status)
		}
	}
}

func TestCancelOrderNotFound(t *testing.T) {
	svc := NewService(newFakeStore(), newFakeInventory(), nil, discardLogger())

	err := svc.CancelOrder(context.Background(), adminIdentity(), "nope")
	var notFound *errs.OrderNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("error = %v; want OrderNotFoundError", err)
	}
}

// The admin override sets any status from any status, including ones the
// workflow would never reach.
func TestUpdateOrderStatusUnconstrained(t *testing.T) {
	store := newFakeStore()
	order := seedOrder(store, "owner", models.StatusCancelled)
	svc := NewService(store, newFakeInventory(), nil, discardLogger())
	ctx := context.Background()

	updated, err := svc.UpdateOrderStatus(ctx, adminIdentity(), order.ID, models.StatusShipped)
	if err != nil {
		t.Fatalf("UpdateOrderStatus = %v", err)
	}
	if updated.Status != models.StatusShipped {
		t.Errorf("status = %s, want SHIPPED", updated.Status)
	}

	// Non-admins never reach the override.
	_, err = svc.UpdateOrderStatus(ctx, clientIdentity("owner"), order.ID, models.StatusDelivered)
	var unauthorized *errs.UnauthorizedAccessError
	if !errors.As(err, &unauthorized) {
		t.Fatalf("client override error = %v; want UnauthorizedAccessError", err)
	}
}

func TestGetOrderByIDGates(t *testing.T) {
	store := newFakeStore()
	order := seedOrder(store, "owner", models.StatusPending)
	svc := NewService(store, newFakeInventory(), nil, discardLogger())
	ctx := context.Background()

	if _, err := svc.GetOrderByID(ctx, clientIdentity("owner"), order.ID); err != nil {
		t.Errorf("owner read = %v", err)
	}
	if _, err := svc.GetOrderByID(ctx, adminIdentity(), order.ID); err != nil {
		t.Errorf("admin read = %v", err)
	}

	_, err := svc.GetOrderByID(ctx, clientIdentity("intruder"), order.ID)
	var unauthorized *errs.UnauthorizedAccessError
	if !errors.As(err, &unauthorized) {
		t.Errorf("intruder read error = %v; want UnauthorizedAccessError", err)
	}

	_, err = svc.GetOrderByID(ctx, adminIdentity(), "nope")
	var notFound *errs.OrderNotFoundError
	if !errors.As(err, &notFound) {
		t.Errorf("missing order error = %v; want OrderNotFoundError", err)
	}
}

// Repeated reads with no intervening mutation return identical data.
func TestReadsAreIdempotent(t *testing.T) {
	store := newFakeStore()
	order := seedOrder(store, "owner", models.StatusConfirmed)
	svc := NewService(store, newFakeInventory(), nil, discardLogger())
	ctx := context.Background()
	ident := clientIdentity("owner")

	first, err := svc.GetOrderByID(ctx, ident, order.ID)
	if err != nil {
		t.Fatalf("first read = %v", err)
	}
	second, err := svc.GetOrderByID(ctx, ident, order.ID)
	if err != nil {
		t.Fatalf("second read = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("reads differ: %+v vs %+v", first, second)
	}

	items1, _ := svc.GetOrderItems(ctx, ident, order.ID)
	items2, _ := svc.GetOrderItems(ctx, ident, order.ID)
	if !reflect.DeepEqual(items1, items2) {
		t.Errorf("item reads differ: %+v vs %+v", items1, items2)
	}
}

func TestAdminOnlyListings(t *testing.T) {
	store := newFakeStore()
	seedOrder(store, "owner", models.StatusPending)
	svc := NewService(store, newFakeInventory(), nil, discardLogger())
	ctx := context.Background()

	var unauthorized *errs.UnauthorizedAccessError

	if _, err := svc.GetAllOrders(ctx, clientIdentity("u-1")); !errors.As(err, &unauthorized) {
		t.Errorf("GetAllOrders as client error = %v; want UnauthorizedAccessError", err)
	}
	if _, err := svc.GetOrdersByStatus(ctx, clientIdentity("u-1"), models.StatusPending); !errors.As(err, &unauthorized) {
		t.Errorf("GetOrdersByStatus as client error = %v; want UnauthorizedAccessError", err)
	}

	all, err := svc.GetAllOrders(ctx, adminIdentity())
	if err != nil || len(all) != 1 {
		t.Errorf("GetAllOrders as admin = %v, %v", all, err)
	}
	pending, err := svc.GetOrdersByStatus(ctx, adminIdentity(), models.StatusPending)
	if err != nil || len(pending) != 1 {
		t.Errorf("GetOrdersByStatus as admin = %v, %v", pending, err)
	}
}
