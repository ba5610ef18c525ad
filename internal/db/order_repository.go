package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/microshop/microshop/internal/models"
)

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(database *PostgresDB) *OrderRepository {
	return &OrderRepository{db: database.Conn}
}

// Create inserts a new order with its items in one transaction. Items are
// lifecycle-bound to the order and only ever written here.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	orderQuery := `
		INSERT INTO orders (id, user_id, username, status, total_amount)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING order_date, updated_at
	`
	err = tx.QueryRowContext(ctx, orderQuery, order.ID, order.UserID, order.Username, order.Status, order.TotalAmount).
		Scan(&order.OrderDate, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (id, order_id, product_id, product_name, unit_price, quantity, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
		item := order.Items[i]
		_, err = tx.ExecContext(ctx, itemQuery,
			item.ID, item.OrderID, item.ProductID, item.ProductName, item.UnitPrice, item.Quantity, item.Subtotal)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

const orderColumns = "id, user_id, username, status, total_amount, order_date, updated_at"

// GetByID returns a single order with its items, or nil if it does not exist
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	orderQuery := "SELECT " + orderColumns + " FROM orders WHERE id = $1"

	var order models.Order
	err := r.db.QueryRowContext(ctx, orderQuery, id).
		Scan(&order.ID, &order.UserID, &order.Username, &order.Status, &order.TotalAmount, &order.OrderDate, &order.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if err := r.loadItems(ctx, &order); err != nil {
		return nil, err
	}

	return &order, nil
}

// GetAll returns all orders, most recent first
func (r *OrderRepository) GetAll(ctx context.Context) ([]models.Order, error) {
	query := "SELECT " + orderColumns + " FROM orders ORDER BY order_date DESC"
	return r.queryOrders(ctx, query)
}

// GetByUser returns a user's orders, most recent first
func (r *OrderRepository) GetByUser(ctx context.Context, userID string) ([]models.Order, error) {
	query := "SELECT " + orderColumns + " FROM orders WHERE user_id = $1 ORDER BY order_date DESC"
	return r.queryOrders(ctx, query, userID)
}

// GetByStatus returns orders in a given status, most recent first
func (r *OrderRepository) GetByStatus(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	query := "SELECT " + orderColumns + " FROM orders WHERE status = $1 ORDER BY order_date DESC"
	return r.queryOrders(ctx, query, status)
}

// UpdateStatus sets an order's status; reports whether the order exists
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) (bool, error) {
	query := "UPDATE orders SET status = $2, updated_at = now() WHERE id = $1"

	result, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return false, fmt.Errorf("failed to update order: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	return rowsAffected > 0, nil
}

func (r *OrderRepository) queryOrders(ctx context.Context, query string, args ...any) ([]models.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var o models.Order
		err := rows.Scan(&o.ID, &o.UserID, &o.Username, &o.Status, &o.TotalAmount, &o.OrderDate, &o.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		if err := r.loadItems(ctx, &orders[i]); err != nil {
			return nil, err
		}
	}

	return orders, nil
}

func (r *OrderRepository) loadItems(ctx context.Context, order *models.Order) error {
	query := `
		SELECT id, order_id, product_id, product_name, unit_price, quantity, subtotal
		FROM order_items WHERE order_id = $1
	`

	rows, err := r.db.QueryContext(ctx, query, order.ID)
	if err != nil {
		return fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem
		err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &item.UnitPrice, &item.Quantity, &item.Subtotal)
		if err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		order.Items = append(order.Items, item)
	}

	return rows.Err()
}
