package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/microshop/microshop/internal/auth"
	"github.com/microshop/microshop/internal/models"
	"github.com/microshop/microshop/internal/orders"
)

type OrderHandler struct {
	service *orders.Service
	log     *slog.Logger
}

func NewOrderHandler(service *orders.Service, log *slog.Logger) *OrderHandler {
	return &OrderHandler{service: service, log: log}
}

// Register mounts the order routes. Placement is client only; listing all
// orders, filtering by status and the status override are admin only.
// Ownership checks on individual orders live in the service.
func (h *OrderHandler) Register(r gin.IRouter) {
	ordersGroup := r.Group("/api/orders", auth.Middleware())

	ordersGroup.POST("", auth.RequireRole(auth.RoleClient), h.CreateOrder)
	ordersGroup.GET("/my-orders", auth.RequireRole(auth.RoleClient), h.GetMyOrders)
	ordersGroup.GET("", auth.RequireRole(auth.RoleAdmin), h.GetAllOrders)
	ordersGroup.GET("/status/:status", auth.RequireRole(auth.RoleAdmin), h.GetOrdersByStatus)
	ordersGroup.GET("/:id", h.GetOrder)
	ordersGroup.GET("/:id/items", h.GetOrderItems)
	ordersGroup.PUT("/:id/status", auth.RequireRole(auth.RoleAdmin), h.UpdateOrderStatus)
	ordersGroup.DELETE("/:id", h.CancelOrder)
}

// HealthCheck returns server status
func (h *OrderHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "order-service"})
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "type": "validation"})
		return
	}

	order, err := h.service.CreateOrder(c.Request.Context(), auth.FromContext(c), req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.service.GetOrderByID(c.Request.Context(), auth.FromContext(c), c.Param("id"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) GetOrderItems(c *gin.Context) {
	items, err := h.service.GetOrderItems(c.Request.Context(), auth.FromContext(c), c.Param("id"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, items)
}

func (h *OrderHandler) GetMyOrders(c *gin.Context) {
	list, err := h.service.GetMyOrders(c.Request.Context(), auth.FromContext(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

func (h *OrderHandler) GetAllOrders(c *gin.Context) {
	list, err := h.service.GetAllOrders(c.Request.Context(), auth.FromContext(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

func (h *OrderHandler) GetOrdersByStatus(c *gin.Context) {
	status, err := models.ParseOrderStatus(c.Param("status"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "type": "validation"})
		return
	}

	list, err := h.service.GetOrdersByStatus(c.Request.Context(), auth.FromContext(c), status)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	status, err := models.ParseOrderStatus(c.Query("status"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "type": "validation"})
		return
	}

	order, err := h.service.UpdateOrderStatus(c.Request.Context(), auth.FromContext(c), c.Param("id"), status)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) CancelOrder(c *gin.Context) {
	if err := h.service.CancelOrder(c.Request.Context(), auth.FromContext(c), c.Param("id")); err != nil {
		writeError(c, h.log, err)
		return
	}

	c.Status(http.StatusNoContent)
}
