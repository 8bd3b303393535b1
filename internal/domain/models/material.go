package models

import "time"

// Material is a stock item tracked by the ledger. QuantiteDisponible never
// leaves the range [0, QuantiteTotale]; every observer sees that invariant
// hold, including mid-request.
type Material struct {
	ID                 string    `bson:"_id" json:"id"`
	Reference          string    `bson:"reference" json:"reference"`
	Designation        string    `bson:"designation" json:"designation"`
	QuantiteTotale     int       `bson:"quantite_totale" json:"quantite_totale"`
	QuantiteDisponible int       `bson:"quantite_disponible" json:"quantite_disponible"`
	SeuilAlerte        int       `bson:"seuil_alerte" json:"seuil_alerte"`
	CreatedAt          time.Time `bson:"created_at" json:"created_at"`
}

// BelowThreshold reports whether the material sits at or under its alert
// threshold.
func (m Material) BelowThreshold() bool {
	return m.QuantiteDisponible <= m.SeuilAlerte
}

// MovementKind discriminates ledger entries.
type MovementKind string

const (
	// MovementSortie removes material from available inventory for an
	// intervention.
	MovementSortie MovementKind = "sortie"
	// MovementEntree adds material to inventory (purchase, return,
	// reservation rollback).
	MovementEntree MovementKind = "entree"
)

// StockMovement is an immutable ledger entry. Movements are append-only: a
// return or rollback is a new inverse movement, never an edit or delete.
type StockMovement struct {
	ID             string       `bson:"_id" json:"id"`
	MaterialID     string       `bson:"material_id" json:"material_id"`
	Kind           MovementKind `bson:"kind" json:"kind"`
	Quantity       int          `bson:"quantity" json:"quantity"`
	InterventionID string       `bson:"intervention_id,omitempty" json:"intervention_id,omitempty"`
	TechnicianID   string       `bson:"technician_id,omitempty" json:"technician_id,omitempty"`
	// RequestID groups the movements of one reservation request so a
	// compensation can be traced back to the sortie it reverses.
	RequestID string    `bson:"request_id,omitempty" json:"request_id,omitempty"`
	Note      string    `bson:"note,omitempty" json:"note,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// MaterialDemand is one requested material line in a reservation request.
// Quantity is validated by the coordinator so non-positive values surface as
// structured InvalidQuantity errors.
type MaterialDemand struct {
	MaterialID string `json:"material_id" binding:"required"`
	Quantity   int    `json:"quantity"`
}

// StockLevel is the read-model returned by stock queries.
type StockLevel struct {
	MaterialID         string `json:"material_id"`
	Reference          string `json:"reference"`
	QuantiteDisponible int    `json:"quantite_disponible"`
	QuantiteTotale     int    `json:"quantite_totale"`
	SeuilAlerte        int    `json:"seuil_alerte"`
}
