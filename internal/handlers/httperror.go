package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/microshop/microshop/internal/errs"
)

// writeError maps domain errors to HTTP responses. Each error kind keeps
// its own status and type slug so callers (including the order service's
// inventory client) can classify failures without parsing prose.
// Unclassified errors become a generic 500 with no detail.
func writeError(c *gin.Context, log *slog.Logger, err error) {
	var (
		validation   *errs.ValidationError
		insufficient *errs.InsufficientStockError
		unavailable  *errs.ProductUnavailableError
		invalidState *errs.InvalidStateTransitionError
		productMiss  *errs.ProductNotFoundError
		orderMiss    *errs.OrderNotFoundError
		unauthorized *errs.UnauthorizedAccessError
	)

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "type": "validation"})
	case errors.As(err, &insufficient):
		body := gin.H{"error": err.Error(), "type": "insufficient-stock"}
		if insufficient.Available >= 0 {
			body["available"] = insufficient.Available
		}
		c.JSON(http.StatusBadRequest, body)
	case errors.As(err, &unavailable):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "type": "product-unavailable"})
	case errors.As(err, &invalidState):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "type": "invalid-state"})
	case errors.As(err, &productMiss):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "type": "product-not-found"})
	case errors.As(err, &orderMiss):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "type": "order-not-found"})
	case errors.As(err, &unauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error(), "type": "access-denied"})
	case errors.Is(err, errs.ErrAccessDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error(), "type": "access-denied"})
	case errors.Is(err, errs.ErrUpstreamUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error(), "type": "upstream-unavailable"})
	default:
		log.Error("unexpected error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "an unexpected error occurred"})
	}
}
