package scheduling

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Kabre57/progiteck-sub001/internal/domain/models"
)

// Resolver answers whether a technician is free over a candidate interval.
type Resolver struct {
	store  Store
	logger *zap.Logger
}

// NewResolver wires an availability resolver instance.
func NewResolver(store Store, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{store: store, logger: logger}
}

// CheckAvailability loads the technician's existing assignment slots and
// tests each against the candidate interval under half-open semantics.
// excludeInterventionID skips the technician's own slot when re-checking an
// intervention being edited; pass "" otherwise.
func (r *Resolver) CheckAvailability(ctx context.Context, technicianID string, candidate models.Interval, excludeInterventionID string) (models.AvailabilityResult, error) {
	if _, err := r.store.GetTechnician(ctx, technicianID); err != nil {
		return models.AvailabilityResult{}, fmt.Errorf("resolve technician: %w", err)
	}

	slots, err := r.store.ListAssignmentSlots(ctx, technicianID, excludeInterventionID)
	if err != nil {
		return models.AvailabilityResult{}, fmt.Errorf("load assignments for technician %s: %w", technicianID, err)
	}

	result := models.AvailabilityResult{TechnicianID: technicianID, Available: true}
	for _, slot := range slots {
		if !slot.Schedule.Overlaps(candidate) {
			continue
		}
		result.Conflicts = append(result.Conflicts, models.InterventionConflict{
			InterventionID: slot.InterventionID,
			MissionRef:     slot.MissionRef,
			Start:          slot.Schedule.Start,
			End:            slot.Schedule.End,
		})
	}

	if len(result.Conflicts) > 0 {
		result.Available = false
		r.logger.Debug("technician unavailable",
			zap.String("technician_id", technicianID),
			zap.Int("conflicts", len(result.Conflicts)))
	}

	return result, nil
}
