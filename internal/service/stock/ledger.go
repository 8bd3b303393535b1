package stock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Kabre57/progiteck-sub001/internal/domain/models"
)

// Store is the persistence surface the ledger depends on. Every mutating
// primitive is a single atomic conditional update against the material row;
// the ledger never does read-compare-write across two round trips.
type Store interface {
	GetMaterial(ctx context.Context, id string) (models.Material, error)

	// DecrementAvailable subtracts qty from quantite_disponible iff
	// quantite_disponible >= qty, returning the updated material. On a
	// failed condition it returns an InsufficientStockError carrying the
	// quantity that was actually available.
	DecrementAvailable(ctx context.Context, materialID string, qty int) (models.Material, error)

	// IncrementAvailable adds qty to quantite_disponible iff the result
	// stays within quantite_totale. Used for returns and reservation
	// rollbacks; never touches the total.
	IncrementAvailable(ctx context.Context, materialID string, qty int) (models.Material, error)

	// IncrementStock adds qty to both quantite_disponible and
	// quantite_totale (a purchase extends what is owned).
	IncrementStock(ctx context.Context, materialID string, qty int) (models.Material, error)

	AppendMovement(ctx context.Context, movement models.StockMovement) error

	ListBelowThreshold(ctx context.Context) ([]models.Material, error)

	// RunInTransaction executes fn transactionally; an error from fn aborts
	// every write made through the context it receives. The ledger uses it
	// to commit each quantity update together with its movement.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// MovementLink carries the optional references stamped on a sortie.
type MovementLink struct {
	InterventionID string
	TechnicianID   string
	RequestID      string
}

// Ledger applies stock reservations and replenishments while preserving
// 0 <= quantite_disponible <= quantite_totale for every observer. Movements
// are append-only; a return is a new inverse movement.
type Ledger struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

// NewLedger wires a stock ledger instance.
func NewLedger(store Store, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{store: store, logger: logger, now: time.Now}
}

// Reserve atomically takes qty units of a material out of availability and
// records the sortie. Fails with InvalidQuantityError for qty <= 0 and with
// InsufficientStockError when availability is too low; neither failure
// leaves any trace in the ledger.
func (l *Ledger) Reserve(ctx context.Context, materialID string, qty int, link MovementLink) (models.StockMovement, error) {
	if qty <= 0 {
		return models.StockMovement{}, &models.InvalidQuantityError{MaterialID: materialID, Quantity: qty}
	}

	movement := models.StockMovement{
		ID:             uuid.NewString(),
		MaterialID:     materialID,
		Kind:           models.MovementSortie,
		Quantity:       qty,
		InterventionID: link.InterventionID,
		TechnicianID:   link.TechnicianID,
		RequestID:      link.RequestID,
		CreatedAt:      l.now(),
	}

	// One transaction for the decrement and its sortie: a failed movement
	// write must not leave availability silently reduced.
	var material models.Material
	err := l.store.RunInTransaction(ctx, func(txCtx context.Context) error {
		m, err := l.store.DecrementAvailable(txCtx, materialID, qty)
		if err != nil {
			return err
		}
		material = m
		if err := l.store.AppendMovement(txCtx, movement); err != nil {
			return fmt.Errorf("record sortie for material %s: %w", materialID, err)
		}
		return nil
	})
	if err != nil {
		return models.StockMovement{}, err
	}

	l.logger.Info("stock reserved",
		zap.String("material_id", materialID),
		zap.Int("quantity", qty),
		zap.Int("remaining", material.QuantiteDisponible))

	if material.BelowThreshold() {
		l.logger.Warn("material at or under alert threshold",
			zap.String("material_id", materialID),
			zap.Int("available", material.QuantiteDisponible),
			zap.Int("threshold", material.SeuilAlerte))
	}

	return movement, nil
}

// Replenish adds qty units to both the available and the total quantity and
// records the entrée.
func (l *Ledger) Replenish(ctx context.Context, materialID string, qty int) (models.StockMovement, error) {
	if qty <= 0 {
		return models.StockMovement{}, &models.InvalidQuantityError{MaterialID: materialID, Quantity: qty}
	}

	movement := models.StockMovement{
		ID:         uuid.NewString(),
		MaterialID: materialID,
		Kind:       models.MovementEntree,
		Quantity:   qty,
		CreatedAt:  l.now(),
	}

	var material models.Material
	err := l.store.RunInTransaction(ctx, func(txCtx context.Context) error {
		m, err := l.store.IncrementStock(txCtx, materialID, qty)
		if err != nil {
			return err
		}
		material = m
		if err := l.store.AppendMovement(txCtx, movement); err != nil {
			return fmt.Errorf("record entrée for material %s: %w", materialID, err)
		}
		return nil
	})
	if err != nil {
		return models.StockMovement{}, err
	}

	l.logger.Info("stock replenished",
		zap.String("material_id", materialID),
		zap.Int("quantity", qty),
		zap.Int("available", material.QuantiteDisponible))

	return movement, nil
}

// Release undoes a prior reservation of the same request: availability is
// restored, the total stays untouched, and an inverse entrée tagged with the
// request id is appended.
func (l *Ledger) Release(ctx context.Context, materialID string, qty int, requestID string) (models.StockMovement, error) {
	if qty <= 0 {
		return models.StockMovement{}, &models.InvalidQuantityError{MaterialID: materialID, Quantity: qty}
	}

	movement := models.StockMovement{
		ID:         uuid.NewString(),
		MaterialID: materialID,
		Kind:       models.MovementEntree,
		Quantity:   qty,
		RequestID:  requestID,
		Note:       "reservation rollback",
		CreatedAt:  l.now(),
	}

	err := l.store.RunInTransaction(ctx, func(txCtx context.Context) error {
		if _, err := l.store.IncrementAvailable(txCtx, materialID, qty); err != nil {
			return fmt.Errorf("release %d units of material %s: %w", qty, materialID, err)
		}
		if err := l.store.AppendMovement(txCtx, movement); err != nil {
			return fmt.Errorf("record rollback entrée for material %s: %w", materialID, err)
		}
		return nil
	})
	if err != nil {
		return models.StockMovement{}, err
	}

	l.logger.Warn("reservation released",
		zap.String("material_id", materialID),
		zap.Int("quantity", qty),
		zap.String("request_id", requestID))

	return movement, nil
}

// Query returns the current stock level of a material, consistent with the
// latest committed movement.
func (l *Ledger) Query(ctx context.Context, materialID string) (models.StockLevel, error) {
	material, err := l.store.GetMaterial(ctx, materialID)
	if err != nil {
		return models.StockLevel{}, err
	}
	return models.StockLevel{
		MaterialID:         material.ID,
		Reference:          material.Reference,
		QuantiteDisponible: material.QuantiteDisponible,
		QuantiteTotale:     material.QuantiteTotale,
		SeuilAlerte:        material.SeuilAlerte,
	}, nil
}

// LowStock lists the materials at or under their alert threshold.
func (l *Ledger) LowStock(ctx context.Context) ([]models.StockLevel, error) {
	materials, err := l.store.ListBelowThreshold(ctx)
	if err != nil {
		return nil, fmt.Errorf("list materials below threshold: %w", err)
	}
	levels := make([]models.StockLevel, 0, len(materials))
	for _, m := range materials {
		levels = append(levels, models.StockLevel{
			MaterialID:         m.ID,
			Reference:          m.Reference,
			QuantiteDisponible: m.QuantiteDisponible,
			QuantiteTotale:     m.QuantiteTotale,
			SeuilAlerte:        m.SeuilAlerte,
		})
	}
	return levels, nil
}
