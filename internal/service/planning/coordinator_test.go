package planning_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kabre57/progiteck-sub001/internal/domain/models"
	"github.com/Kabre57/progiteck-sub001/internal/repository/memory"
	"github.com/Kabre57/progiteck-sub001/internal/service/planning"
	"github.com/Kabre57/progiteck-sub001/internal/service/scheduling"
	"github.com/Kabre57/progiteck-sub001/internal/service/stock"
)

func at(hour int) time.Time {
	return time.Date(2025, 3, 10, hour, 0, 0, 0, time.UTC)
}

func interval(t *testing.T, startHour, endHour int) models.Interval {
	t.Helper()
	end := at(endHour)
	iv, err := models.NewInterval(at(startHour), &end)
	require.NoError(t, err)
	return iv
}

type fixture struct {
	store       *memory.Store
	coordinator *planning.Coordinator
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := memory.NewStore()
	store.PutMission(models.Mission{ID: "m1", Reference: "MIS-2025-001"})
	store.PutTechnician(models.Technician{ID: "tech-x", FullName: "Technician X"})
	store.PutMaterial(models.Material{ID: "mat-a", Reference: "CBL-FO-50", QuantiteDisponible: 10, QuantiteTotale: 10, SeuilAlerte: 2})
	store.PutMaterial(models.Material{ID: "mat-b", Reference: "CON-RJ45", QuantiteDisponible: 5, QuantiteTotale: 5, SeuilAlerte: 1})

	resolver := scheduling.NewResolver(store, nil)
	sched := scheduling.NewScheduler(store, resolver, nil)
	ledger := stock.NewLedger(store, nil)

	return fixture{
		store:       store,
		coordinator: planning.NewCoordinator(sched, ledger, store, nil),
	}
}

func availability(t *testing.T, store *memory.Store, materialID string) int {
	t.Helper()
	m, err := store.GetMaterial(context.Background(), materialID)
	require.NoError(t, err)
	return m.QuantiteDisponible
}

func TestCreateInterventionWithStock_Success(t *testing.T) {
	f := newFixture(t)

	iv, err := f.coordinator.CreateInterventionWithStock(context.Background(), "m1", interval(t, 9, 11),
		[]models.TechnicianDemand{{TechnicianID: "tech-x", Role: "lead"}},
		[]models.MaterialDemand{{MaterialID: "mat-a", Quantity: 4}, {MaterialID: "mat-b", Quantity: 2}})
	require.NoError(t, err)

	assert.Equal(t, 6, availability(t, f.store, "mat-a"))
	assert.Equal(t, 3, availability(t, f.store, "mat-b"))

	movements := f.store.Movements()
	require.Len(t, movements, 2)
	for _, mv := range movements {
		assert.Equal(t, models.MovementSortie, mv.Kind)
		assert.Equal(t, iv.ID, mv.InterventionID)
		assert.Equal(t, "tech-x", mv.TechnicianID)
		assert.NotEmpty(t, mv.RequestID)
	}
	// One request id spans all lines of the request.
	assert.Equal(t, movements[0].RequestID, movements[1].RequestID)
}

func TestCreateInterventionWithStock_DuplicateLinesAreSummed(t *testing.T) {
	f := newFixture(t)

	_, err := f.coordinator.CreateInterventionWithStock(context.Background(), "m1", interval(t, 9, 11),
		nil,
		[]models.MaterialDemand{{MaterialID: "mat-a", Quantity: 5}, {MaterialID: "mat-a", Quantity: 3}})
	require.NoError(t, err)

	assert.Equal(t, 2, availability(t, f.store, "mat-a"))

	// Summed into a single reservation, hence a single sortie.
	movements := f.store.Movements()
	require.Len(t, movements, 1)
	assert.Equal(t, 8, movements[0].Quantity)
}

func TestCreateInterventionWithStock_InvalidQuantityFailsBeforeAnyMutation(t *testing.T) {
	f := newFixture(t)

	_, err := f.coordinator.CreateInterventionWithStock(context.Background(), "m1", interval(t, 9, 11),
		[]models.TechnicianDemand{{TechnicianID: "tech-x", Role: "lead"}},
		[]models.MaterialDemand{{MaterialID: "mat-a", Quantity: 4}, {MaterialID: "mat-b", Quantity: 0}})

	var invalid *models.InvalidQuantityError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "mat-b", invalid.MaterialID)

	assert.Empty(t, f.store.Interventions())
	assert.Empty(t, f.store.Movements())
	assert.Equal(t, 10, availability(t, f.store, "mat-a"))
}

func TestCreateInterventionWithStock_UnknownMaterialFailsFast(t *testing.T) {
	f := newFixture(t)

	_, err := f.coordinator.CreateInterventionWithStock(context.Background(), "m1", interval(t, 9, 11),
		nil,
		[]models.MaterialDemand{{MaterialID: "ghost", Quantity: 1}})

	var notFound *models.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Empty(t, f.store.Interventions())
	assert.Empty(t, f.store.Movements())
}

func TestCreateInterventionWithStock_SchedulingConflictLeavesZeroChanges(t *testing.T) {
	f := newFixture(t)

	// Occupy tech-x first.
	_, err := f.coordinator.CreateInterventionWithStock(context.Background(), "m1", interval(t, 9, 11),
		[]models.TechnicianDemand{{TechnicianID: "tech-x", Role: "lead"}}, nil)
	require.NoError(t, err)

	before := len(f.store.Interventions())

	_, err = f.coordinator.CreateInterventionWithStock(context.Background(), "m1", interval(t, 10, 12),
		[]models.TechnicianDemand{{TechnicianID: "tech-x", Role: "lead"}},
		[]models.MaterialDemand{{MaterialID: "mat-a", Quantity: 1}})

	var conflict *models.SchedulingConflictError
	require.ErrorAs(t, err, &conflict)

	// No orphan intervention, no partial assignment, no stock decrement.
	assert.Len(t, f.store.Interventions(), before)
	assert.Empty(t, f.store.Movements())
	assert.Equal(t, 10, availability(t, f.store, "mat-a"))
}

func TestCreateInterventionWithStock_InsufficientStockRollsBackEverything(t *testing.T) {
	f := newFixture(t)

	// mat-a can serve 4, mat-b cannot serve 9: the second line fails after
	// the first already reserved.
	_, err := f.coordinator.CreateInterventionWithStock(context.Background(), "m1", interval(t, 9, 11),
		[]models.TechnicianDemand{{TechnicianID: "tech-x", Role: "lead"}},
		[]models.MaterialDemand{{MaterialID: "mat-a", Quantity: 4}, {MaterialID: "mat-b", Quantity: 9}})

	var failure *models.ReservationFailedError
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, "mat-b", failure.MaterialID)
	assert.Equal(t, 4, failure.Shortfall)

	var insufficient *models.InsufficientStockError
	require.ErrorAs(t, failure.Cause, &insufficient)
	assert.Equal(t, 9, insufficient.Required)
	assert.Equal(t, 5, insufficient.Available)

	// Availability restored, schedule rolled back.
	assert.Equal(t, 10, availability(t, f.store, "mat-a"))
	assert.Equal(t, 5, availability(t, f.store, "mat-b"))
	assert.Empty(t, f.store.Interventions())
	assert.Empty(t, f.store.Assignments())

	// Append-only ledger keeps the aborted request's full trace: one sortie
	// plus its inverse entrée.
	movements := f.store.Movements()
	require.Len(t, movements, 2)
	assert.Equal(t, models.MovementSortie, movements[0].Kind)
	assert.Equal(t, "mat-a", movements[0].MaterialID)
	assert.Equal(t, models.MovementEntree, movements[1].Kind)
	assert.Equal(t, "mat-a", movements[1].MaterialID)
	assert.Equal(t, movements[0].RequestID, movements[1].RequestID)
}

// cancelAwareStore honours context cancellation the way a real driver does
// and cancels the request's context at the second material's decrement.
type cancelAwareStore struct {
	*memory.Store
	cancel     context.CancelFunc
	decrements int
}

func (s *cancelAwareStore) DecrementAvailable(ctx context.Context, materialID string, qty int) (models.Material, error) {
	if err := ctx.Err(); err != nil {
		return models.Material{}, err
	}
	s.decrements++
	if s.decrements == 2 {
		s.cancel()
		return models.Material{}, ctx.Err()
	}
	return s.Store.DecrementAvailable(ctx, materialID, qty)
}

func (s *cancelAwareStore) IncrementAvailable(ctx context.Context, materialID string, qty int) (models.Material, error) {
	if err := ctx.Err(); err != nil {
		return models.Material{}, err
	}
	return s.Store.IncrementAvailable(ctx, materialID, qty)
}

func (s *cancelAwareStore) AppendMovement(ctx context.Context, movement models.StockMovement) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.Store.AppendMovement(ctx, movement)
}

func (s *cancelAwareStore) DeleteIntervention(ctx context.Context, interventionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.Store.DeleteIntervention(ctx, interventionID)
}

func TestCreateInterventionWithStock_RollbackSurvivesCallerCancellation(t *testing.T) {
	store := memory.NewStore()
	store.PutMission(models.Mission{ID: "m1", Reference: "MIS-2025-001"})
	store.PutTechnician(models.Technician{ID: "tech-x", FullName: "Technician X"})
	store.PutMaterial(models.Material{ID: "mat-a", Reference: "CBL-FO-50", QuantiteDisponible: 10, QuantiteTotale: 10, SeuilAlerte: 2})
	store.PutMaterial(models.Material{ID: "mat-b", Reference: "CON-RJ45", QuantiteDisponible: 5, QuantiteTotale: 5, SeuilAlerte: 1})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wrapped := &cancelAwareStore{Store: store, cancel: cancel}

	resolver := scheduling.NewResolver(wrapped, nil)
	sched := scheduling.NewScheduler(wrapped, resolver, nil)
	ledger := stock.NewLedger(wrapped, nil)
	coordinator := planning.NewCoordinator(sched, ledger, wrapped, nil)

	_, err := coordinator.CreateInterventionWithStock(ctx, "m1", interval(t, 9, 11),
		[]models.TechnicianDemand{{TechnicianID: "tech-x", Role: "lead"}},
		[]models.MaterialDemand{{MaterialID: "mat-a", Quantity: 4}, {MaterialID: "mat-b", Quantity: 2}})
	require.Error(t, err)

	// The caller's abort must not orphan state: mat-a's reservation is
	// released and the committed intervention is deleted even though the
	// request context is already cancelled.
	assert.Equal(t, 10, availability(t, store, "mat-a"))
	assert.Equal(t, 5, availability(t, store, "mat-b"))
	assert.Empty(t, store.Interventions())
	assert.Empty(t, store.Assignments())

	// The aborted request's trace stays in the ledger: mat-a's sortie plus
	// its inverse entrée.
	movements := store.Movements()
	require.Len(t, movements, 2)
	assert.Equal(t, models.MovementSortie, movements[0].Kind)
	assert.Equal(t, models.MovementEntree, movements[1].Kind)
}

func TestCreateInterventionWithStock_ReservesInAscendingMaterialOrder(t *testing.T) {
	f := newFixture(t)

	_, err := f.coordinator.CreateInterventionWithStock(context.Background(), "m1", interval(t, 9, 11),
		nil,
		[]models.MaterialDemand{{MaterialID: "mat-b", Quantity: 1}, {MaterialID: "mat-a", Quantity: 1}})
	require.NoError(t, err)

	movements := f.store.Movements()
	require.Len(t, movements, 2)
	assert.Equal(t, "mat-a", movements[0].MaterialID)
	assert.Equal(t, "mat-b", movements[1].MaterialID)
}
