// Package memory provides an in-memory implementation of the persistence
// contracts declared by the service layer. It exhibits the same atomic
// conditional-update and transaction semantics as the MongoDB adapter and
// backs the test suites and local development.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Kabre57/progiteck-sub001/internal/domain/models"
)

type txnKey struct{}

// Store keeps all state behind one mutex. RunInTransaction holds the lock
// for the whole callback, so transactions serialize like a single-writer
// store; individual operations lock on their own when no transaction is
// active.
type Store struct {
	mu sync.Mutex

	missions      map[string]models.Mission
	technicians   map[string]models.Technician
	materials     map[string]models.Material
	interventions map[string]models.Intervention
	assignments   map[string]models.Assignment
	movements     []models.StockMovement
	reports       []models.DailyActivityReport
}

// NewStore builds an empty in-memory store.
func NewStore() *Store {
	return &Store{
		missions:      map[string]models.Mission{},
		technicians:   map[string]models.Technician{},
		materials:     map[string]models.Material{},
		interventions: map[string]models.Intervention{},
		assignments:   map[string]models.Assignment{},
	}
}

type snapshot struct {
	missions      map[string]models.Mission
	technicians   map[string]models.Technician
	materials     map[string]models.Material
	interventions map[string]models.Intervention
	assignments   map[string]models.Assignment
	movements     []models.StockMovement
	reports       []models.DailyActivityReport
}

func (s *Store) snapshot() snapshot {
	return snapshot{
		missions:      copyMap(s.missions),
		technicians:   copyMap(s.technicians),
		materials:     copyMap(s.materials),
		interventions: copyMap(s.interventions),
		assignments:   copyMap(s.assignments),
		movements:     append([]models.StockMovement(nil), s.movements...),
		reports:       append([]models.DailyActivityReport(nil), s.reports...),
	}
}

func (s *Store) restore(snap snapshot) {
	s.missions = snap.missions
	s.technicians = snap.technicians
	s.materials = snap.materials
	s.interventions = snap.interventions
	s.assignments = snap.assignments
	s.movements = snap.movements
	s.reports = snap.reports
}

func copyMap[V any](src map[string]V) map[string]V {
	dst := make(map[string]V, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// lock acquires the store mutex unless ctx is already transaction-bound, in
// which case RunInTransaction holds it.
func (s *Store) lock(ctx context.Context) func() {
	if ctx.Value(txnKey{}) != nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// RunInTransaction executes fn under the store mutex with snapshot
// rollback: an error from fn restores the pre-transaction state.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txnKey{}) != nil {
		// Already inside a transaction; join it.
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(context.WithValue(ctx, txnKey{}, struct{}{})); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// Seed helpers, used by tests and local bootstrap.

func (s *Store) PutMission(m models.Mission)       { s.mu.Lock(); s.missions[m.ID] = m; s.mu.Unlock() }
func (s *Store) PutTechnician(t models.Technician) { s.mu.Lock(); s.technicians[t.ID] = t; s.mu.Unlock() }
func (s *Store) PutMaterial(m models.Material)     { s.mu.Lock(); s.materials[m.ID] = m; s.mu.Unlock() }

// Scheduling store surface.

func (s *Store) GetMission(ctx context.Context, id string) (models.Mission, error) {
	defer s.lock(ctx)()
	m, ok := s.missions[id]
	if !ok {
		return models.Mission{}, &models.NotFoundError{Entity: "mission", ID: id}
	}
	return m, nil
}

func (s *Store) GetTechnician(ctx context.Context, id string) (models.Technician, error) {
	defer s.lock(ctx)()
	t, ok := s.technicians[id]
	if !ok {
		return models.Technician{}, &models.NotFoundError{Entity: "technician", ID: id}
	}
	return t, nil
}

func (s *Store) ListAssignmentSlots(ctx context.Context, technicianID, excludeInterventionID string) ([]models.AssignmentSlot, error) {
	defer s.lock(ctx)()

	var slots []models.AssignmentSlot
	for _, a := range s.assignments {
		if a.TechnicianID != technicianID || a.InterventionID == excludeInterventionID {
			continue
		}
		iv, ok := s.interventions[a.InterventionID]
		if !ok {
			continue
		}
		ref := iv.MissionID
		if mission, ok := s.missions[iv.MissionID]; ok {
			ref = mission.Reference
		}
		slots = append(slots, models.AssignmentSlot{
			InterventionID: iv.ID,
			MissionRef:     ref,
			Schedule:       iv.Schedule,
		})
	}
	return slots, nil
}

func (s *Store) InsertIntervention(ctx context.Context, intervention models.Intervention, assignments []models.Assignment) error {
	defer s.lock(ctx)()
	// Same contract as the MongoDB adapter: every assignment bumps its
	// technician's schedule version in the same commit.
	for _, a := range assignments {
		if tech, ok := s.technicians[a.TechnicianID]; ok {
			tech.ScheduleVersion++
			s.technicians[a.TechnicianID] = tech
		}
	}
	s.interventions[intervention.ID] = intervention
	for _, a := range assignments {
		s.assignments[a.ID] = a
	}
	return nil
}

func (s *Store) DeleteIntervention(ctx context.Context, interventionID string) error {
	defer s.lock(ctx)()
	delete(s.interventions, interventionID)
	for id, a := range s.assignments {
		if a.InterventionID == interventionID {
			delete(s.assignments, id)
		}
	}
	return nil
}

// Stock store surface. Mutations are conditional read-modify-writes under
// the lock, mirroring the single-statement updates of the MongoDB adapter.

func (s *Store) GetMaterial(ctx context.Context, id string) (models.Material, error) {
	defer s.lock(ctx)()
	m, ok := s.materials[id]
	if !ok {
		return models.Material{}, &models.NotFoundError{Entity: "material", ID: id}
	}
	return m, nil
}

func (s *Store) DecrementAvailable(ctx context.Context, materialID string, qty int) (models.Material, error) {
	defer s.lock(ctx)()
	m, ok := s.materials[materialID]
	if !ok {
		return models.Material{}, &models.NotFoundError{Entity: "material", ID: materialID}
	}
	if m.QuantiteDisponible < qty {
		return models.Material{}, &models.InsufficientStockError{
			MaterialID: materialID,
			Required:   qty,
			Available:  m.QuantiteDisponible,
		}
	}
	m.QuantiteDisponible -= qty
	s.materials[materialID] = m
	return m, nil
}

func (s *Store) IncrementAvailable(ctx context.Context, materialID string, qty int) (models.Material, error) {
	defer s.lock(ctx)()
	m, ok := s.materials[materialID]
	if !ok {
		return models.Material{}, &models.NotFoundError{Entity: "material", ID: materialID}
	}
	if m.QuantiteDisponible+qty > m.QuantiteTotale {
		return models.Material{}, &models.InvalidQuantityError{MaterialID: materialID, Quantity: qty}
	}
	m.QuantiteDisponible += qty
	s.materials[materialID] = m
	return m, nil
}

func (s *Store) IncrementStock(ctx context.Context, materialID string, qty int) (models.Material, error) {
	defer s.lock(ctx)()
	m, ok := s.materials[materialID]
	if !ok {
		return models.Material{}, &models.NotFoundError{Entity: "material", ID: materialID}
	}
	m.QuantiteDisponible += qty
	m.QuantiteTotale += qty
	s.materials[materialID] = m
	return m, nil
}

func (s *Store) AppendMovement(ctx context.Context, movement models.StockMovement) error {
	defer s.lock(ctx)()
	s.movements = append(s.movements, movement)
	return nil
}

func (s *Store) ListBelowThreshold(ctx context.Context) ([]models.Material, error) {
	defer s.lock(ctx)()
	var out []models.Material
	for _, m := range s.materials {
		if m.BelowThreshold() {
			out = append(out, m)
		}
	}
	return out, nil
}

// Reporting store surface.

func (s *Store) CountInterventionsBetween(ctx context.Context, from, to time.Time) (int, error) {
	defer s.lock(ctx)()
	count := 0
	for _, iv := range s.interventions {
		if !iv.CreatedAt.Before(from) && iv.CreatedAt.Before(to) {
			count++
		}
	}
	return count, nil
}

func (s *Store) ListMovementsBetween(ctx context.Context, from, to time.Time) ([]models.StockMovement, error) {
	defer s.lock(ctx)()
	var out []models.StockMovement
	for _, mv := range s.movements {
		if !mv.CreatedAt.Before(from) && mv.CreatedAt.Before(to) {
			out = append(out, mv)
		}
	}
	return out, nil
}

func (s *Store) SaveDailyReport(ctx context.Context, report models.DailyActivityReport) error {
	defer s.lock(ctx)()
	s.reports = append(s.reports, report)
	return nil
}

// Inspection helpers for tests.

func (s *Store) Interventions() []models.Intervention {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Intervention, 0, len(s.interventions))
	for _, iv := range s.interventions {
		out = append(out, iv)
	}
	return out
}

func (s *Store) Assignments() []models.Assignment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Assignment, 0, len(s.assignments))
	for _, a := range s.assignments {
		out = append(out, a)
	}
	return out
}

func (s *Store) Movements() []models.StockMovement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.StockMovement(nil), s.movements...)
}

func (s *Store) Reports() []models.DailyActivityReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.DailyActivityReport(nil), s.reports...)
}
