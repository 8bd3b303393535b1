package models

import "time"

// ScheduleInterventionRequest is the payload to schedule an intervention
// without stock lines.
type ScheduleInterventionRequest struct {
	MissionID   string             `json:"mission_id" binding:"required"`
	Start       time.Time          `json:"start" binding:"required"`
	End         *time.Time         `json:"end"`
	Technicians []TechnicianDemand `json:"technicians" binding:"dive"`
}

// CreateInterventionRequest is the payload to schedule an intervention and
// reserve material stock for it in one all-or-nothing operation.
type CreateInterventionRequest struct {
	MissionID   string             `json:"mission_id" binding:"required"`
	Start       time.Time          `json:"start" binding:"required"`
	End         *time.Time         `json:"end"`
	Technicians []TechnicianDemand `json:"technicians" binding:"dive"`
	Materials   []MaterialDemand   `json:"materials" binding:"dive"`
}

// QuantityRequest is the payload of reserve and replenish calls. Quantity
// validation belongs to the ledger so a non-positive value surfaces as a
// structured InvalidQuantity error, not a generic binding failure.
type QuantityRequest struct {
	Quantity       int    `json:"quantity"`
	InterventionID string `json:"intervention_id"`
	TechnicianID   string `json:"technician_id"`
}
