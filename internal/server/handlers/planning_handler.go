package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Kabre57/progiteck-sub001/internal/domain/models"
)

// AvailabilityChecker answers single-technician availability questions.
type AvailabilityChecker interface {
	CheckAvailability(ctx context.Context, technicianID string, candidate models.Interval, excludeInterventionID string) (models.AvailabilityResult, error)
}

// InterventionScheduler commits technician assignments for an intervention.
type InterventionScheduler interface {
	ScheduleIntervention(ctx context.Context, missionID string, candidate models.Interval, demands []models.TechnicianDemand) (models.Intervention, error)
}

// InterventionCreator schedules an intervention and reserves its material
// stock as one all-or-nothing operation.
type InterventionCreator interface {
	CreateInterventionWithStock(ctx context.Context, missionID string, candidate models.Interval, technicians []models.TechnicianDemand, materials []models.MaterialDemand) (models.Intervention, error)
}

// PlanningHandler exposes the scheduling engine over HTTP.
type PlanningHandler struct {
	checker     AvailabilityChecker
	scheduler   InterventionScheduler
	coordinator InterventionCreator
	logger      *zap.Logger
}

// NewPlanningHandler constructs the HTTP handler adapter.
func NewPlanningHandler(checker AvailabilityChecker, scheduler InterventionScheduler, coordinator InterventionCreator, logger *zap.Logger) *PlanningHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlanningHandler{checker: checker, scheduler: scheduler, coordinator: coordinator, logger: logger}
}

// CheckAvailability answers GET /api/technicians/:id/availability.
func (h *PlanningHandler) CheckAvailability(c *gin.Context) {
	technicianID := c.Param("id")

	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_interval", "reason": "start must be RFC3339"})
		return
	}

	var end *time.Time
	if raw := c.Query("end"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_interval", "reason": "end must be RFC3339"})
			return
		}
		end = &parsed
	}

	candidate, err := models.NewInterval(start, end)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_interval", "reason": err.Error()})
		return
	}

	result, err := h.checker.CheckAvailability(c.Request.Context(), technicianID, candidate, c.Query("exclude_intervention"))
	if err != nil {
		h.logger.Warn("availability check failed", zap.String("technician_id", technicianID), zap.Error(err))
		writeBusinessError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ScheduleIntervention answers POST /api/interventions/schedule.
func (h *PlanningHandler) ScheduleIntervention(c *gin.Context) {
	var req models.ScheduleInterventionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid schedule payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	candidate, err := models.NewInterval(req.Start, req.End)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_interval", "reason": err.Error()})
		return
	}

	intervention, err := h.scheduler.ScheduleIntervention(c.Request.Context(), req.MissionID, candidate, req.Technicians)
	if err != nil {
		h.logger.Warn("scheduling failed", zap.String("mission_id", req.MissionID), zap.Error(err))
		writeBusinessError(c, err)
		return
	}

	c.JSON(http.StatusCreated, intervention)
}

// CreateIntervention answers POST /api/interventions.
func (h *PlanningHandler) CreateIntervention(c *gin.Context) {
	var req models.CreateInterventionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid intervention payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	candidate, err := models.NewInterval(req.Start, req.End)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_interval", "reason": err.Error()})
		return
	}

	intervention, err := h.coordinator.CreateInterventionWithStock(c.Request.Context(), req.MissionID, candidate, req.Technicians, req.Materials)
	if err != nil {
		h.logger.Warn("intervention creation failed", zap.String("mission_id", req.MissionID), zap.Error(err))
		writeBusinessError(c, err)
		return
	}

	c.JSON(http.StatusCreated, intervention)
}
