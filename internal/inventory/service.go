// Package inventory implements the reservation engine that owns all stock
// mutations, plus the product catalog operations of the inventory service.
package inventory

import (
	"context"
	"log/slog"
	"strings"

	"github.com/microshop/microshop/internal/errs"
	"github.com/microshop/microshop/internal/models"
)

// ProductStore is the durable store behind the engine. DecrementStock must
// perform its guard and mutation atomically with respect to concurrent
// callers on the same product; the SQL implementation does this with a
// single conditional UPDATE.
type ProductStore interface {
	GetAll(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	Create(ctx context.Context, req models.CreateProductRequest) (*models.Product, error)
	Update(ctx context.Context, id string, req models.UpdateProductRequest) (*models.Product, error)
	Delete(ctx context.Context, id string) (bool, error)
	DecrementStock(ctx context.Context, id string, qty int) (bool, error)
	SearchByName(ctx context.Context, name string) ([]models.Product, error)
	InStock(ctx context.Context) ([]models.Product, error)
	LowStock(ctx context.Context, threshold int) ([]models.Product, error)
}

type Service struct {
	store ProductStore
	log   *slog.Logger
}

func NewService(store ProductStore, log *slog.Logger) *Service {
	return &Service{store: store, log: log}
}

// CheckAvailability reports whether the product currently has at least qty
// units in stock. It is read-only and reserves nothing: a true result does
// not guarantee a later ReduceStock with the same quantity will succeed,
// because other callers may reduce stock in between. ReduceStock
// re-validates on its own.
func (s *Service) CheckAvailability(ctx context.Context, productID string, qty int) (bool, error) {
	if qty <= 0 {
		return false, &errs.ValidationError{Field: "quantity", Reason: "must be positive"}
	}

	product, err := s.store.GetByID(ctx, productID)
	if err != nil {
		return false, err
	}
	if product == nil {
		return false, &errs.ProductNotFoundError{ProductID: productID}
	}

	return product.StockQuantity >= qty, nil
}

// ReduceStock decrements the product's stock by qty. The guard and the
// decrement run as one atomic store operation, so stock never goes
// negative even under concurrent reducers.
func (s *Service) ReduceStock(ctx context.Context, productID string, qty int) error {
	if qty <= 0 {
		return &errs.ValidationError{Field: "quantity", Reason: "must be positive"}
	}

	ok, err := s.store.DecrementStock(ctx, productID, qty)
	if err != nil {
		return err
	}
	if ok {
		s.log.Info("stock reduced", "product_id", productID, "quantity", qty)
		return nil
	}

	// The guard failed: either the product is gone or stock is short.
	product, err := s.store.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if product == nil {
		return &errs.ProductNotFoundError{ProductID: productID}
	}

	return &errs.InsufficientStockError{
		ProductID: productID,
		Requested: qty,
		Available: product.StockQuantity,
	}
}

func (s *Service) CreateProduct(ctx context.Context, req models.CreateProductRequest) (*models.Product, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, &errs.ValidationError{Field: "name", Reason: "must not be blank"}
	}
	if req.UnitPrice.IsNegative() {
		return nil, &errs.ValidationError{Field: "unit_price", Reason: "must not be negative"}
	}
	if req.Stock < 0 {
		return nil, &errs.ValidationError{Field: "stock_quantity", Reason: "must not be negative"}
	}

	product, err := s.store.Create(ctx, req)
	if err != nil {
		return nil, err
	}

	s.log.Info("product created", "product_id", product.ID, "name", product.Name)
	return product, nil
}

func (s *Service) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, &errs.ProductNotFoundError{ProductID: id}
	}
	return product, nil
}

func (s *Service) ListProducts(ctx context.Context) ([]models.Product, error) {
	return s.store.GetAll(ctx)
}

func (s *Service) UpdateProduct(ctx context.Context, id string, req models.UpdateProductRequest) (*models.Product, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, &errs.ValidationError{Field: "name", Reason: "must not be blank"}
	}
	if req.UnitPrice.IsNegative() {
		return nil, &errs.ValidationError{Field: "unit_price", Reason: "must not be negative"}
	}
	if req.Stock < 0 {
		return nil, &errs.ValidationError{Field: "stock_quantity", Reason: "must not be negative"}
	}

	product, err := s.store.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, &errs.ProductNotFoundError{ProductID: id}
	}

	s.log.Info("product updated", "product_id", id)
	return product, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	deleted, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return &errs.ProductNotFoundError{ProductID: id}
	}

	s.log.Info("product deleted", "product_id", id)
	return nil
}

func (s *Service) SearchProducts(ctx context.Context, name string) ([]models.Product, error) {
	return s.store.SearchByName(ctx, name)
}

func (s *Service) InStockProducts(ctx context.Context) ([]models.Product, error) {
	return s.store.InStock(ctx)
}

func (s *Service) LowStockProducts(ctx context.Context, threshold int) ([]models.Product, error) {
	return s.store.LowStock(ctx, threshold)
}
