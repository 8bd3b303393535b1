package models

import (
	"errors"
	"fmt"
	"time"
)

// ErrMissingStart is returned when an interval is built without a start time.
var ErrMissingStart = errors.New("interval must have a start time")

// Interval represents a half-open time range [Start, End). A nil End means
// the interval is open-ended: still in progress, no known upper bound.
type Interval struct {
	Start time.Time  `bson:"start" json:"start"`
	End   *time.Time `bson:"end,omitempty" json:"end,omitempty"`
}

// NewInterval validates and builds an Interval. The start is mandatory; the
// end, when present, must fall strictly after the start.
func NewInterval(start time.Time, end *time.Time) (Interval, error) {
	if start.IsZero() {
		return Interval{}, ErrMissingStart
	}
	if end != nil && !end.After(start) {
		return Interval{}, fmt.Errorf("interval end %s must be after start %s", end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	return Interval{Start: start, End: end}, nil
}

// Open reports whether the interval has no end yet.
func (i Interval) Open() bool {
	return i.End == nil
}

// Overlaps reports whether two half-open intervals intersect. An open-ended
// interval behaves as if it extended to infinity, so it conflicts with
// anything starting at or after its own start. Back-to-back intervals
// (a.End == b.Start) do not overlap.
func (i Interval) Overlaps(other Interval) bool {
	// a.start < b.end && b.start < a.end, with nil end = +infinity.
	if other.End != nil && !i.Start.Before(*other.End) {
		return false
	}
	if i.End != nil && !other.Start.Before(*i.End) {
		return false
	}
	return true
}
