package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Kabre57/progiteck-sub001/internal/domain/models"
)

// writeBusinessError maps domain errors to HTTP responses carrying enough
// structured detail for the caller to render an actionable message.
func writeBusinessError(c *gin.Context, err error) {
	var notFound *models.NotFoundError
	if errors.As(err, &notFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":  "not_found",
			"entity": notFound.Entity,
			"id":     notFound.ID,
		})
		return
	}

	var invalidQty *models.InvalidQuantityError
	if errors.As(err, &invalidQty) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":       "invalid_quantity",
			"material_id": invalidQty.MaterialID,
			"quantity":    invalidQty.Quantity,
		})
		return
	}

	var insufficient *models.InsufficientStockError
	if errors.As(err, &insufficient) {
		c.JSON(http.StatusConflict, gin.H{
			"error":       "insufficient_stock",
			"material_id": insufficient.MaterialID,
			"required":    insufficient.Required,
			"available":   insufficient.Available,
			"shortfall":   insufficient.Shortfall(),
		})
		return
	}

	var conflict *models.SchedulingConflictError
	if errors.As(err, &conflict) {
		c.JSON(http.StatusConflict, gin.H{
			"error":       "scheduling_conflict",
			"unavailable": conflict.Unavailable,
		})
		return
	}

	var reservation *models.ReservationFailedError
	if errors.As(err, &reservation) {
		c.JSON(http.StatusConflict, gin.H{
			"error":       "reservation_failed",
			"material_id": reservation.MaterialID,
			"shortfall":   reservation.Shortfall,
			"reason":      reservation.Cause.Error(),
		})
		return
	}

	if errors.Is(err, models.ErrMissingStart) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_interval", "reason": err.Error()})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
}
