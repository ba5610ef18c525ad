package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/microshop/microshop/internal/models"
)

type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(database *PostgresDB) *ProductRepository {
	return &ProductRepository{db: database.Conn}
}

const productColumns = "id, name, description, unit_price, stock_quantity, created_at, updated_at"

func scanProduct(row interface{ Scan(...any) error }) (*models.Product, error) {
	var p models.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.UnitPrice, &p.StockQuantity, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetAll returns all products
func (r *ProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	query := "SELECT " + productColumns + " FROM products ORDER BY name"
	return r.queryProducts(ctx, query)
}

// GetByID returns a single product, or nil if it does not exist
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	query := "SELECT " + productColumns + " FROM products WHERE id = $1"

	p, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return p, nil
}

// Create inserts a new product
func (r *ProductRepository) Create(ctx context.Context, req models.CreateProductRequest) (*models.Product, error) {
	query := `
		INSERT INTO products (id, name, description, unit_price, stock_quantity)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + productColumns

	row := r.db.QueryRowContext(ctx, query, uuid.NewString(), req.Name, req.Description, req.UnitPrice, req.Stock)
	p, err := scanProduct(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return p, nil
}

// Update overwrites name, description, price and stock; returns nil if the
// product does not exist
func (r *ProductRepository) Update(ctx context.Context, id string, req models.UpdateProductRequest) (*models.Product, error) {
	query := `
		UPDATE products
		SET name = $2, description = $3, unit_price = $4, stock_quantity = $5, updated_at = now()
		WHERE id = $1
		RETURNING ` + productColumns

	row := r.db.QueryRowContext(ctx, query, id, req.Name, req.Description, req.UnitPrice, req.Stock)
	p, err := scanProduct(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	return p, nil
}

// Delete removes a product; reports whether a row was deleted
func (r *ProductRepository) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	return rowsAffected > 0, nil
}

// DecrementStock reduces stock by qty only if enough stock remains. The
// conditional UPDATE makes the guard and the mutation one atomic statement,
// so two concurrent decrements on the same product can never jointly drive
// the counter below zero.
func (r *ProductRepository) DecrementStock(ctx context.Context, id string, qty int) (bool, error) {
	query := `
		UPDATE products
		SET stock_quantity = stock_quantity - $2, updated_at = now()
		WHERE id = $1 AND stock_quantity >= $2
	`

	result, err := r.db.ExecContext(ctx, query, id, qty)
	if err != nil {
		return false, fmt.Errorf("failed to decrement stock: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	return rowsAffected > 0, nil
}

// SearchByName returns products whose name contains the given term,
// case-insensitively
func (r *ProductRepository) SearchByName(ctx context.Context, name string) ([]models.Product, error) {
	query := "SELECT " + productColumns + " FROM products WHERE name ILIKE '%' || $1 || '%' ORDER BY name"
	return r.queryProducts(ctx, query, name)
}

// InStock returns products with stock above zero
func (r *ProductRepository) InStock(ctx context.Context) ([]models.Product, error) {
	query := "SELECT " + productColumns + " FROM products WHERE stock_quantity > 0 ORDER BY name"
	return r.queryProducts(ctx, query)
}

// LowStock returns products at or below the given stock threshold
func (r *ProductRepository) LowStock(ctx context.Context, threshold int) ([]models.Product, error) {
	query := "SELECT " + productColumns + " FROM products WHERE stock_quantity <= $1 ORDER BY stock_quantity"
	return r.queryProducts(ctx, query, threshold)
}

func (r *ProductRepository) queryProducts(ctx context.Context, query string, args ...any) ([]models.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}

	return products, rows.Err()
}
