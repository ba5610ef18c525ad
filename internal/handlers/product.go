package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/microshop/microshop/internal/auth"
	"github.com/microshop/microshop/internal/inventory"
	"github.com/microshop/microshop/internal/models"
)

type ProductHandler struct {
	service *inventory.Service
	log     *slog.Logger
}

func NewProductHandler(service *inventory.Service, log *slog.Logger) *ProductHandler {
	return &ProductHandler{service: service, log: log}
}

// Register mounts the product routes. Catalog mutation and the low-stock
// report are admin only; check-stock and reduce-stock are the
// inter-service surface consumed by the order service.
func (h *ProductHandler) Register(r gin.IRouter) {
	products := r.Group("/api/products", auth.Middleware())

	products.GET("", h.ListProducts)
	products.GET("/search", h.SearchProducts)
	products.GET("/in-stock", h.InStockProducts)
	products.GET("/low-stock", auth.RequireRole(auth.RoleAdmin), h.LowStockProducts)
	products.GET("/:id", h.GetProduct)
	products.POST("", auth.RequireRole(auth.RoleAdmin), h.CreateProduct)
	products.PUT("/:id", auth.RequireRole(auth.RoleAdmin), h.UpdateProduct)
	products.DELETE("/:id", auth.RequireRole(auth.RoleAdmin), h.DeleteProduct)

	products.GET("/:id/check-stock", h.CheckStock)
	products.PUT("/:id/reduce-stock", h.ReduceStock)
}

// HealthCheck returns server status
func (h *ProductHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "inventory-service"})
}

func (h *ProductHandler) ListProducts(c *gin.Context) {
	products, err := h.service.ListProducts(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, products)
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	product, err := h.service.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req models.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "type": "validation"})
		return
	}

	created, err := h.service.CreateProduct(c.Request.Context(), req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	var req models.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "type": "validation"})
		return
	}

	updated, err := h.service.UpdateProduct(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	if err := h.service.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, h.log, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *ProductHandler) SearchProducts(c *gin.Context) {
	products, err := h.service.SearchProducts(c.Request.Context(), c.Query("name"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, products)
}

func (h *ProductHandler) InStockProducts(c *gin.Context) {
	products, err := h.service.InStockProducts(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, products)
}

func (h *ProductHandler) LowStockProducts(c *gin.Context) {
	threshold, err := strconv.Atoi(c.DefaultQuery("threshold", "10"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid threshold", "type": "validation"})
		return
	}

	products, err := h.service.LowStockProducts(c.Request.Context(), threshold)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, products)
}

// CheckStock reports whether the product has at least ?quantity in stock.
// The response body is a bare JSON boolean.
func (h *ProductHandler) CheckStock(c *gin.Context) {
	quantity, err := strconv.Atoi(c.Query("quantity"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quantity", "type": "validation"})
		return
	}

	available, err := h.service.CheckAvailability(c.Request.Context(), c.Param("id"), quantity)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, available)
}

// ReduceStock decrements the product's stock by ?quantity.
func (h *ProductHandler) ReduceStock(c *gin.Context) {
	quantity, err := strconv.Atoi(c.Query("quantity"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quantity", "type": "validation"})
		return
	}

	if err := h.service.ReduceStock(c.Request.Context(), c.Param("id"), quantity); err != nil {
		writeError(c, h.log, err)
		return
	}

	c.Status(http.StatusOK)
}
