package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/microshop/microshop/internal/cache"
	"github.com/microshop/microshop/internal/models"
	"github.com/redis/go-redis/v9"
)

// CachedProductRepository adds cache-aside reads on top of
// ProductRepository. Every mutation, including stock decrements,
// invalidates the affected keys so the order side never sees stale stock
// through a product lookup.
type CachedProductRepository struct {
	repo  *ProductRepository
	cache *cache.RedisCache
	log   *slog.Logger
}

func NewCachedProductRepository(repo *ProductRepository, cache *cache.RedisCache, log *slog.Logger) *CachedProductRepository {
	return &CachedProductRepository{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

func productKey(id string) string {
	return fmt.Sprintf("product:%s", id)
}

func allProductsKey() string {
	return "products:all"
}

// GetAll returns all products (with caching)
func (r *CachedProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := r.cache.Get(ctx, allProductsKey(), &products); err == nil {
		return products, nil
	}

	products, err := r.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, allProductsKey(), products); err != nil {
		r.log.Warn("failed to cache products", "error", err)
	}

	return products, nil
}

// GetByID returns a single product (with caching)
func (r *CachedProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	err := r.cache.Get(ctx, productKey(id), &product)
	if err == nil {
		return &product, nil
	}
	if err != redis.Nil {
		r.log.Warn("cache error", "error", err)
	}

	p, err := r.repo.GetByID(ctx, id)
	if err != nil || p == nil {
		return p, err
	}

	if err := r.cache.Set(ctx, productKey(id), p); err != nil {
		r.log.Warn("failed to cache product", "id", id, "error", err)
	}

	return p, nil
}

func (r *CachedProductRepository) Create(ctx context.Context, req models.CreateProductRequest) (*models.Product, error) {
	product, err := r.repo.Create(ctx, req)
	if err != nil {
		return nil, err
	}

	r.invalidate(ctx, allProductsKey())
	return product, nil
}

func (r *CachedProductRepository) Update(ctx context.Context, id string, req models.UpdateProductRequest) (*models.Product, error) {
	product, err := r.repo.Update(ctx, id, req)
	if err != nil || product == nil {
		return product, err
	}

	r.invalidate(ctx, productKey(id), allProductsKey())
	return product, nil
}

func (r *CachedProductRepository) Delete(ctx context.Context, id string) (bool, error) {
	deleted, err := r.repo.Delete(ctx, id)
	if err != nil {
		return false, err
	}

	if deleted {
		r.invalidate(ctx, productKey(id), allProductsKey())
	}
	return deleted, nil
}

func (r *CachedProductRepository) DecrementStock(ctx context.Context, id string, qty int) (bool, error) {
	ok, err := r.repo.DecrementStock(ctx, id, qty)
	if err != nil {
		return false, err
	}

	if ok {
		r.invalidate(ctx, productKey(id), allProductsKey())
	}
	return ok, nil
}

// Derived reads always go to the store of record.

func (r *CachedProductRepository) SearchByName(ctx context.Context, name string) ([]models.Product, error) {
	return r.repo.SearchByName(ctx, name)
}

func (r *CachedProductRepository) InStock(ctx context.Context) ([]models.Product, error) {
	return r.repo.InStock(ctx)
}

func (r *CachedProductRepository) LowStock(ctx context.Context, threshold int) ([]models.Product, error) {
	return r.repo.LowStock(ctx, threshold)
}

func (r *CachedProductRepository) invalidate(ctx context.Context, keys ...string) {
	if err := r.cache.Delete(ctx, keys...); err != nil {
		r.log.Warn("failed to invalidate cache", "keys", keys, "error", err)
	}
}
