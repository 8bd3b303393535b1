package planning

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Kabre57/progiteck-sub001/internal/domain/models"
	"github.com/Kabre57/progiteck-sub001/internal/service/scheduling"
	"github.com/Kabre57/progiteck-sub001/internal/service/stock"
)

// Coordinator ties an intervention's material consumption to the stock
// ledger so that create-intervention-and-reserve-stock is observably
// all-or-nothing. The scheduling commit and each reservation are atomic on
// their own; the coordinator records a compensation for every completed
// step and runs them in reverse when a later step fails.
type Coordinator struct {
	scheduler *scheduling.Scheduler
	ledger    *stock.Ledger
	materials stock.Store
	logger    *zap.Logger
}

// NewCoordinator wires a reservation coordinator instance.
func NewCoordinator(scheduler *scheduling.Scheduler, ledger *stock.Ledger, materials stock.Store, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{scheduler: scheduler, ledger: ledger, materials: materials, logger: logger}
}

// materialLine is a validated, deduplicated demand.
type materialLine struct {
	materialID string
	quantity   int
}

// CreateInterventionWithStock schedules an intervention and reserves every
// requested material line for it.
//
// Validation runs before any mutation: quantities must be positive and every
// referenced material must exist. Duplicate lines for the same material are
// summed into one reservation. Reservations then apply in ascending material
// id so concurrent requests touching overlapping materials acquire row locks
// in the same order.
//
// Any reservation failure releases every prior reservation of this request
// and deletes the committed intervention and assignments, then surfaces a
// ReservationFailedError naming the failing material and the shortfall.
func (c *Coordinator) CreateInterventionWithStock(ctx context.Context, missionID string, candidate models.Interval, technicians []models.TechnicianDemand, materials []models.MaterialDemand) (models.Intervention, error) {
	lines, err := c.validateLines(ctx, materials)
	if err != nil {
		return models.Intervention{}, err
	}

	intervention, err := c.scheduler.ScheduleIntervention(ctx, missionID, candidate, technicians)
	if err != nil {
		return models.Intervention{}, err
	}

	requestID := uuid.NewString()
	link := stock.MovementLink{InterventionID: intervention.ID, RequestID: requestID}
	if len(technicians) > 0 {
		link.TechnicianID = technicians[0].TechnicianID
	}

	reserved := make([]materialLine, 0, len(lines))
	for _, line := range lines {
		if _, err := c.ledger.Reserve(ctx, line.materialID, line.quantity, link); err != nil {
			c.rollback(ctx, intervention.ID, requestID, reserved)
			return models.Intervention{}, reservationError(line.materialID, err)
		}
		reserved = append(reserved, line)
	}

	c.logger.Info("intervention created with stock",
		zap.String("intervention_id", intervention.ID),
		zap.String("request_id", requestID),
		zap.Int("material_lines", len(lines)))

	return intervention, nil
}

// validateLines fails fast, before any mutation: non-positive quantities and
// unknown materials abort the whole request. Duplicate material ids are
// summed; the result is sorted by ascending material id.
func (c *Coordinator) validateLines(ctx context.Context, demands []models.MaterialDemand) ([]materialLine, error) {
	totals := make(map[string]int, len(demands))
	for _, d := range demands {
		if d.Quantity <= 0 {
			return nil, &models.InvalidQuantityError{MaterialID: d.MaterialID, Quantity: d.Quantity}
		}
		totals[d.MaterialID] += d.Quantity
	}

	lines := make([]materialLine, 0, len(totals))
	for id, qty := range totals {
		if _, err := c.materials.GetMaterial(ctx, id); err != nil {
			return nil, fmt.Errorf("resolve material: %w", err)
		}
		lines = append(lines, materialLine{materialID: id, quantity: qty})
	}

	sort.Slice(lines, func(i, j int) bool { return lines[i].materialID < lines[j].materialID })
	return lines, nil
}

// rollback releases the reservations already taken for this request, newest
// first, then deletes the committed intervention. Compensation failures are
// logged and do not mask the original error; movements stay append-only so
// the ledger keeps a full trace of the aborted request.
func (c *Coordinator) rollback(ctx context.Context, interventionID, requestID string, reserved []materialLine) {
	// The failure that triggers a rollback may be the caller abandoning the
	// request: compensations still have to run, or the committed
	// intervention and the prior reservations are orphaned.
	ctx = context.WithoutCancel(ctx)

	for i := len(reserved) - 1; i >= 0; i-- {
		line := reserved[i]
		if _, err := c.ledger.Release(ctx, line.materialID, line.quantity, requestID); err != nil {
			c.logger.Error("compensation failed: stock release",
				zap.String("material_id", line.materialID),
				zap.String("request_id", requestID),
				zap.Error(err))
		}
	}

	if err := c.scheduler.Unschedule(ctx, interventionID); err != nil {
		c.logger.Error("compensation failed: unschedule",
			zap.String("intervention_id", interventionID),
			zap.Error(err))
	}
}

func reservationError(materialID string, cause error) error {
	failure := &models.ReservationFailedError{MaterialID: materialID, Cause: cause}
	var insufficient *models.InsufficientStockError
	if errors.As(cause, &insufficient) {
		failure.Shortfall = insufficient.Shortfall()
	}
	return failure
}
