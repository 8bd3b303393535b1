package scheduling

import (
	"context"

	"github.com/Kabre57/progiteck-sub001/internal/domain/models"
)

// Store is the persistence surface the scheduling engine depends on. Both
// the MongoDB adapter and the in-memory store satisfy it.
type Store interface {
	GetMission(ctx context.Context, id string) (models.Mission, error)
	GetTechnician(ctx context.Context, id string) (models.Technician, error)

	// ListAssignmentSlots returns the technician's assignments joined with
	// their interventions' schedules, skipping excludeInterventionID when
	// non-empty.
	ListAssignmentSlots(ctx context.Context, technicianID, excludeInterventionID string) ([]models.AssignmentSlot, error)

	// InsertIntervention persists an intervention and its assignments. When
	// called with a transaction-bound context the writes join that
	// transaction. It must write every involved technician's document
	// (bumping ScheduleVersion) so two transactions scheduling the same
	// technician conflict instead of both committing on snapshot reads.
	InsertIntervention(ctx context.Context, intervention models.Intervention, assignments []models.Assignment) error

	// DeleteIntervention removes an intervention and its assignments. Only
	// the reservation rollback path uses it.
	DeleteIntervention(ctx context.Context, interventionID string) error

	// RunInTransaction executes fn inside a serializable-or-equivalent
	// transaction; any error from fn aborts every write made through the
	// context it receives.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
