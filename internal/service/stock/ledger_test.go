package stock_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kabre57/progiteck-sub001/internal/domain/models"
	"github.com/Kabre57/progiteck-sub001/internal/repository/memory"
	"github.com/Kabre57/progiteck-sub001/internal/service/stock"
)

func newLedger(t *testing.T, available, total, threshold int) (*stock.Ledger, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	store.PutMaterial(models.Material{
		ID:                 "mat-1",
		Reference:          "CBL-FO-50",
		Designation:        "Fibre cable 50m",
		QuantiteDisponible: available,
		QuantiteTotale:     total,
		SeuilAlerte:        threshold,
	})
	return stock.NewLedger(store, nil), store
}

func TestReserve_InvalidQuantity(t *testing.T) {
	ledger, store := newLedger(t, 10, 10, 5)

	for _, qty := range []int{0, -3} {
		_, err := ledger.Reserve(context.Background(), "mat-1", qty, stock.MovementLink{})
		var invalid *models.InvalidQuantityError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, qty, invalid.Quantity)
	}

	assert.Empty(t, store.Movements())
}

func TestReserve_UnknownMaterial(t *testing.T) {
	ledger, _ := newLedger(t, 10, 10, 5)

	_, err := ledger.Reserve(context.Background(), "ghost", 1, stock.MovementLink{})
	var notFound *models.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "material", notFound.Entity)
}

func TestReserve_DrainsThenRejectsWithShortfall(t *testing.T) {
	ledger, store := newLedger(t, 10, 10, 5)

	mv, err := ledger.Reserve(context.Background(), "mat-1", 10, stock.MovementLink{InterventionID: "i1", TechnicianID: "tech-x"})
	require.NoError(t, err)
	assert.Equal(t, models.MovementSortie, mv.Kind)
	assert.Equal(t, 10, mv.Quantity)
	assert.Equal(t, "i1", mv.InterventionID)

	level, err := ledger.Query(context.Background(), "mat-1")
	require.NoError(t, err)
	assert.Equal(t, 0, level.QuantiteDisponible)
	assert.Equal(t, 10, level.QuantiteTotale)

	_, err = ledger.Reserve(context.Background(), "mat-1", 1, stock.MovementLink{})
	var insufficient *models.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 1, insufficient.Required)
	assert.Equal(t, 0, insufficient.Available)
	assert.Equal(t, 1, insufficient.Shortfall())

	// The failed attempt leaves no ledger trace.
	assert.Len(t, store.Movements(), 1)
}

func TestReplenish_ThenReserveRoundTrip(t *testing.T) {
	ledger, _ := newLedger(t, 4, 10, 2)

	_, err := ledger.Replenish(context.Background(), "mat-1", 6)
	require.NoError(t, err)

	level, err := ledger.Query(context.Background(), "mat-1")
	require.NoError(t, err)
	assert.Equal(t, 10, level.QuantiteDisponible)
	assert.Equal(t, 16, level.QuantiteTotale)

	_, err = ledger.Reserve(context.Background(), "mat-1", 6, stock.MovementLink{})
	require.NoError(t, err)

	level, err = ledger.Query(context.Background(), "mat-1")
	require.NoError(t, err)
	assert.Equal(t, 4, level.QuantiteDisponible)
}

func TestReplenish_InvalidQuantity(t *testing.T) {
	ledger, _ := newLedger(t, 4, 10, 2)

	_, err := ledger.Replenish(context.Background(), "mat-1", 0)
	var invalid *models.InvalidQuantityError
	require.ErrorAs(t, err, &invalid)
}

func TestRelease_RestoresAvailabilityOnly(t *testing.T) {
	ledger, store := newLedger(t, 10, 10, 2)

	_, err := ledger.Reserve(context.Background(), "mat-1", 7, stock.MovementLink{RequestID: "req-1"})
	require.NoError(t, err)

	mv, err := ledger.Release(context.Background(), "mat-1", 7, "req-1")
	require.NoError(t, err)
	assert.Equal(t, models.MovementEntree, mv.Kind)
	assert.Equal(t, "req-1", mv.RequestID)

	level, err := ledger.Query(context.Background(), "mat-1")
	require.NoError(t, err)
	assert.Equal(t, 10, level.QuantiteDisponible)
	assert.Equal(t, 10, level.QuantiteTotale)

	// Append-only: the sortie and its inverse are both kept.
	assert.Len(t, store.Movements(), 2)
}

// brokenMovementStore fails every movement write, simulating the movement
// collection being unavailable while the material update succeeds.
type brokenMovementStore struct {
	*memory.Store
}

func (s *brokenMovementStore) AppendMovement(ctx context.Context, _ models.StockMovement) error {
	return errors.New("movements collection unavailable")
}

func TestReserve_FailedMovementWriteLeavesNoDecrement(t *testing.T) {
	_, store := newLedger(t, 10, 10, 2)
	ledger := stock.NewLedger(&brokenMovementStore{store}, nil)

	_, err := ledger.Reserve(context.Background(), "mat-1", 4, stock.MovementLink{})
	require.Error(t, err)

	// The decrement and the sortie are one transaction: when the movement
	// cannot be recorded, availability must not drop either.
	m, err := store.GetMaterial(context.Background(), "mat-1")
	require.NoError(t, err)
	assert.Equal(t, 10, m.QuantiteDisponible)
	assert.Empty(t, store.Movements())
}

func TestReplenish_FailedMovementWriteLeavesNoIncrement(t *testing.T) {
	_, store := newLedger(t, 4, 10, 2)
	ledger := stock.NewLedger(&brokenMovementStore{store}, nil)

	_, err := ledger.Replenish(context.Background(), "mat-1", 6)
	require.Error(t, err)

	m, err := store.GetMaterial(context.Background(), "mat-1")
	require.NoError(t, err)
	assert.Equal(t, 4, m.QuantiteDisponible)
	assert.Equal(t, 10, m.QuantiteTotale)
	assert.Empty(t, store.Movements())
}

func TestRelease_FailedMovementWriteLeavesNoIncrement(t *testing.T) {
	healthy, store := newLedger(t, 10, 10, 2)
	_, err := healthy.Reserve(context.Background(), "mat-1", 7, stock.MovementLink{RequestID: "req-1"})
	require.NoError(t, err)

	broken := stock.NewLedger(&brokenMovementStore{store}, nil)
	_, err = broken.Release(context.Background(), "mat-1", 7, "req-1")
	require.Error(t, err)

	m, err := store.GetMaterial(context.Background(), "mat-1")
	require.NoError(t, err)
	assert.Equal(t, 3, m.QuantiteDisponible)
	assert.Len(t, store.Movements(), 1)
}

func TestReserve_ConcurrentCallersNeverOverdraw(t *testing.T) {
	const (
		available = 10
		qty       = 3
		callers   = 20
	)
	ledger, store := newLedger(t, available, available, 0)

	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = ledger.Reserve(context.Background(), "mat-1", qty, stock.MovementLink{})
		}(i)
	}
	wg.Wait()

	var succeeded int
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var insufficient *models.InsufficientStockError
		require.ErrorAs(t, err, &insufficient)
	}

	// Exactly floor(available/qty) reservations can fit.
	assert.Equal(t, available/qty, succeeded)

	level, err := ledger.Query(context.Background(), "mat-1")
	require.NoError(t, err)
	assert.Equal(t, available-succeeded*qty, level.QuantiteDisponible)
	assert.GreaterOrEqual(t, level.QuantiteDisponible, 0)
	assert.Len(t, store.Movements(), succeeded)
}

func TestLowStock(t *testing.T) {
	ledger, store := newLedger(t, 10, 10, 5)
	store.PutMaterial(models.Material{ID: "mat-2", Reference: "CON-RJ45", QuantiteDisponible: 2, QuantiteTotale: 50, SeuilAlerte: 10})

	levels, err := ledger.LowStock(context.Background())
	require.NoError(t, err)
	require.Len(t, levels, 1)
	assert.Equal(t, "mat-2", levels[0].MaterialID)

	_, err = ledger.Reserve(context.Background(), "mat-1", 6, stock.MovementLink{})
	require.NoError(t, err)

	levels, err = ledger.LowStock(context.Background())
	require.NoError(t, err)
	assert.Len(t, levels, 2)
}
