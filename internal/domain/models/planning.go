package models

import "time"

// Client is a customer account owning one or more missions.
type Client struct {
	ID        string    `bson:"_id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	Email     string    `bson:"email,omitempty" json:"email,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// Mission is a client engagement grouping one or more interventions.
type Mission struct {
	ID        string    `bson:"_id" json:"id"`
	Reference string    `bson:"reference" json:"reference"`
	ClientID  string    `bson:"client_id" json:"client_id"`
	Title     string    `bson:"title" json:"title"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// Technician is a field worker assignable to interventions.
//
// ScheduleVersion counts the technician's scheduling commits. Every
// assignment insert bumps it inside the same transaction, so two
// transactions scheduling the same technician write the same document and
// cannot both commit on snapshot reads that missed each other.
type Technician struct {
	ID              string `bson:"_id" json:"id"`
	FullName        string `bson:"full_name" json:"full_name"`
	Specialty       string `bson:"specialty,omitempty" json:"specialty,omitempty"`
	ScheduleVersion int64  `bson:"schedule_version" json:"-"`
}

// Intervention is a time-boxed unit of work under a mission. The schedule is
// half-open: an intervention with no end is still in progress.
type Intervention struct {
	ID        string    `bson:"_id" json:"id"`
	MissionID string    `bson:"mission_id" json:"mission_id"`
	Schedule  Interval  `bson:"schedule" json:"schedule"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// Duration returns the intervention length when both bounds are known.
func (i Intervention) Duration() (time.Duration, bool) {
	if i.Schedule.End == nil {
		return 0, false
	}
	return i.Schedule.End.Sub(i.Schedule.Start), true
}

// Assignment links a technician to an intervention with a role. Assignments
// are created only through the scheduler, as part of the owning
// intervention's commit, and are never edited independently.
type Assignment struct {
	ID             string `bson:"_id" json:"id"`
	InterventionID string `bson:"intervention_id" json:"intervention_id"`
	TechnicianID   string `bson:"technician_id" json:"technician_id"`
	Role           string `bson:"role" json:"role"`
}

// TechnicianDemand is one requested technician line in a scheduling request.
type TechnicianDemand struct {
	TechnicianID string `json:"technician_id" binding:"required"`
	Role         string `json:"role"`
}

// AssignmentSlot is an assignment joined with its intervention's schedule
// and mission reference, as loaded for availability checks.
type AssignmentSlot struct {
	InterventionID string   `bson:"intervention_id" json:"intervention_id"`
	MissionRef     string   `bson:"mission_ref" json:"mission_ref"`
	Schedule       Interval `bson:"schedule" json:"schedule"`
}

// InterventionConflict identifies an existing intervention that collides
// with a candidate interval, with enough detail to render a message.
type InterventionConflict struct {
	InterventionID string     `json:"intervention_id"`
	MissionRef     string     `json:"mission_ref"`
	Start          time.Time  `json:"start"`
	End            *time.Time `json:"end,omitempty"`
}

// AvailabilityResult is the outcome of a single-technician availability
// check. Conflicts is empty when Available is true.
type AvailabilityResult struct {
	TechnicianID string                 `json:"technician_id"`
	Available    bool                   `json:"available"`
	Conflicts    []InterventionConflict `json:"conflicts,omitempty"`
}
