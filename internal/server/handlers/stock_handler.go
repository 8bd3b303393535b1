package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Kabre57/progiteck-sub001/internal/domain/models"
	"github.com/Kabre57/progiteck-sub001/internal/service/stock"
)

// StockService is the ledger surface the HTTP layer consumes.
type StockService interface {
	Reserve(ctx context.Context, materialID string, qty int, link stock.MovementLink) (models.StockMovement, error)
	Replenish(ctx context.Context, materialID string, qty int) (models.StockMovement, error)
	Query(ctx context.Context, materialID string) (models.StockLevel, error)
}

// StockHandler exposes the stock ledger over HTTP.
type StockHandler struct {
	svc    StockService
	logger *zap.Logger
}

// NewStockHandler constructs the HTTP handler adapter.
func NewStockHandler(svc StockService, logger *zap.Logger) *StockHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockHandler{svc: svc, logger: logger}
}

// Reserve answers POST /api/materials/:id/reserve.
func (h *StockHandler) Reserve(c *gin.Context) {
	materialID := c.Param("id")

	var req models.QuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid reserve payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	link := stock.MovementLink{InterventionID: req.InterventionID, TechnicianID: req.TechnicianID}
	movement, err := h.svc.Reserve(c.Request.Context(), materialID, req.Quantity, link)
	if err != nil {
		h.logger.Warn("reserve failed", zap.String("material_id", materialID), zap.Error(err))
		writeBusinessError(c, err)
		return
	}

	c.JSON(http.StatusCreated, movement)
}

// Replenish answers POST /api/materials/:id/replenish.
func (h *StockHandler) Replenish(c *gin.Context) {
	materialID := c.Param("id")

	var req models.QuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid replenish payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	movement, err := h.svc.Replenish(c.Request.Context(), materialID, req.Quantity)
	if err != nil {
		h.logger.Warn("replenish failed", zap.String("material_id", materialID), zap.Error(err))
		writeBusinessError(c, err)
		return
	}

	c.JSON(http.StatusCreated, movement)
}

// QueryStock answers GET /api/materials/:id/stock.
func (h *StockHandler) QueryStock(c *gin.Context) {
	level, err := h.svc.Query(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeBusinessError(c, err)
		return
	}

	c.JSON(http.StatusOK, level)
}
