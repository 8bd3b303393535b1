package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Kabre57/progiteck-sub001/internal/domain/models"
)

// Scheduler commits multi-technician assignments for a candidate
// intervention. It is the only writer of assignments: they are always
// created together with their owning intervention, never directly.
type Scheduler struct {
	store    Store
	resolver *Resolver
	logger   *zap.Logger
	now      func() time.Time
}

// NewScheduler wires an assignment scheduler instance.
func NewScheduler(store Store, resolver *Resolver, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{store: store, resolver: resolver, logger: logger, now: time.Now}
}

// ScheduleIntervention checks every distinct requested technician against
// the candidate interval and, if all are free, persists the intervention and
// its assignments as one atomic unit. Availability is re-validated inside
// the transaction so two racing requests cannot both see "free" and commit
// overlapping assignments.
//
// Any conflict aborts the whole request with a SchedulingConflictError
// listing every unavailable technician; nothing is partially assigned.
func (s *Scheduler) ScheduleIntervention(ctx context.Context, missionID string, candidate models.Interval, demands []models.TechnicianDemand) (models.Intervention, error) {
	if _, err := s.store.GetMission(ctx, missionID); err != nil {
		return models.Intervention{}, fmt.Errorf("resolve mission: %w", err)
	}

	distinct := dedupeDemands(demands)

	// Fail fast on unknown technicians before touching availability.
	for _, d := range distinct {
		if _, err := s.store.GetTechnician(ctx, d.TechnicianID); err != nil {
			return models.Intervention{}, fmt.Errorf("resolve technician: %w", err)
		}
	}

	// First pass outside the transaction: collect the full conflict picture
	// for diagnostics instead of aborting on the first busy technician.
	if err := s.checkAll(ctx, distinct, candidate); err != nil {
		return models.Intervention{}, err
	}

	intervention := models.Intervention{
		ID:        uuid.NewString(),
		MissionID: missionID,
		Schedule:  candidate,
		CreatedAt: s.now(),
	}

	assignments := make([]models.Assignment, 0, len(distinct))
	for _, d := range distinct {
		assignments = append(assignments, models.Assignment{
			ID:             uuid.NewString(),
			InterventionID: intervention.ID,
			TechnicianID:   d.TechnicianID,
			Role:           d.Role,
		})
	}

	err := s.store.RunInTransaction(ctx, func(txCtx context.Context) error {
		// Re-validate at commit time: a concurrent scheduler may have
		// inserted a conflicting assignment since the first pass. The
		// insert also writes each technician's document, so two
		// transactions racing over the same technician cannot both pass
		// this check on stale snapshot reads: their writes collide, the
		// loser is retried, and its re-check sees the winner's
		// assignments.
		if err := s.checkAll(txCtx, distinct, candidate); err != nil {
			return err
		}
		return s.store.InsertIntervention(txCtx, intervention, assignments)
	})
	if err != nil {
		return models.Intervention{}, err
	}

	s.logger.Info("intervention scheduled",
		zap.String("intervention_id", intervention.ID),
		zap.String("mission_id", missionID),
		zap.Int("technicians", len(assignments)))

	return intervention, nil
}

// Unschedule removes an intervention and its assignments. It exists for the
// reservation rollback path; callers outside a compensation flow should
// never delete committed schedule state.
func (s *Scheduler) Unschedule(ctx context.Context, interventionID string) error {
	err := s.store.RunInTransaction(ctx, func(txCtx context.Context) error {
		return s.store.DeleteIntervention(txCtx, interventionID)
	})
	if err != nil {
		return fmt.Errorf("unschedule intervention %s: %w", interventionID, err)
	}

	s.logger.Warn("intervention rolled back", zap.String("intervention_id", interventionID))
	return nil
}

func (s *Scheduler) checkAll(ctx context.Context, demands []models.TechnicianDemand, candidate models.Interval) error {
	var unavailable []models.AvailabilityResult
	for _, d := range demands {
		result, err := s.resolver.CheckAvailability(ctx, d.TechnicianID, candidate, "")
		if err != nil {
			return err
		}
		if !result.Available {
			unavailable = append(unavailable, result)
		}
	}
	if len(unavailable) > 0 {
		return &models.SchedulingConflictError{Unavailable: unavailable}
	}
	return nil
}

// dedupeDemands collapses repeated technician ids to a single demand,
// keeping the first role seen and the original request order.
func dedupeDemands(demands []models.TechnicianDemand) []models.TechnicianDemand {
	seen := make(map[string]struct{}, len(demands))
	distinct := make([]models.TechnicianDemand, 0, len(demands))
	for _, d := range demands {
		if _, ok := seen[d.TechnicianID]; ok {
			continue
		}
		seen[d.TechnicianID] = struct{}{}
		distinct = append(distinct, d)
	}
	return distinct
}
