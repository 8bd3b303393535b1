package models

import (
	"fmt"
	"strings"
)

// NotFoundError reports a missing referenced entity (technician, material,
// mission, intervention).
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// InvalidQuantityError reports a non-positive quantity on a stock operation.
type InvalidQuantityError struct {
	MaterialID string
	Quantity   int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("invalid quantity %d for material %s: must be a positive integer", e.Quantity, e.MaterialID)
}

// InsufficientStockError reports a reservation exceeding availability.
type InsufficientStockError struct {
	MaterialID string
	Required   int
	Available  int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for material %s: required %d, available %d", e.MaterialID, e.Required, e.Available)
}

// Shortfall is how many units the request is short.
func (e *InsufficientStockError) Shortfall() int {
	return e.Required - e.Available
}

// SchedulingConflictError reports every unavailable technician of a
// scheduling request together with their conflicting interventions.
type SchedulingConflictError struct {
	Unavailable []AvailabilityResult
}

func (e *SchedulingConflictError) Error() string {
	ids := make([]string, 0, len(e.Unavailable))
	for _, r := range e.Unavailable {
		ids = append(ids, r.TechnicianID)
	}
	return fmt.Sprintf("scheduling conflict: technicians unavailable: %s", strings.Join(ids, ", "))
}

// ReservationFailedError reports the first failing material line of a
// multi-material reservation, after all compensations have run.
type ReservationFailedError struct {
	MaterialID string
	Shortfall  int
	Cause      error
}

func (e *ReservationFailedError) Error() string {
	if e.Shortfall > 0 {
		return fmt.Sprintf("reservation failed on material %s (short by %d): %v", e.MaterialID, e.Shortfall, e.Cause)
	}
	return fmt.Sprintf("reservation failed on material %s: %v", e.MaterialID, e.Cause)
}

func (e *ReservationFailedError) Unwrap() error {
	return e.Cause
}
