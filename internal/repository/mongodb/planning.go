package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Kabre57/progiteck-sub001/internal/domain/models"
)

// GetMission loads a mission by id.
func (r *Repository) GetMission(ctx context.Context, id string) (models.Mission, error) {
	var mission models.Mission
	err := r.db.Collection(collMissions).FindOne(ctx, bson.M{"_id": id}).Decode(&mission)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Mission{}, &models.NotFoundError{Entity: "mission", ID: id}
	}
	if err != nil {
		return models.Mission{}, fmt.Errorf("load mission %s: %w", id, err)
	}
	return mission, nil
}

// GetTechnician loads a technician by id.
func (r *Repository) GetTechnician(ctx context.Context, id string) (models.Technician, error) {
	var technician models.Technician
	err := r.db.Collection(collTechnicians).FindOne(ctx, bson.M{"_id": id}).Decode(&technician)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Technician{}, &models.NotFoundError{Entity: "technician", ID: id}
	}
	if err != nil {
		return models.Technician{}, fmt.Errorf("load technician %s: %w", id, err)
	}
	return technician, nil
}

// ListAssignmentSlots returns the technician's assignments joined with their
// interventions' schedules and mission references. excludeInterventionID,
// when non-empty, skips that intervention so an edit can re-check its own
// technicians.
func (r *Repository) ListAssignmentSlots(ctx context.Context, technicianID, excludeInterventionID string) ([]models.AssignmentSlot, error) {
	filter := bson.M{"technician_id": technicianID}
	if excludeInterventionID != "" {
		filter["intervention_id"] = bson.M{"$ne": excludeInterventionID}
	}

	cursor, err := r.db.Collection(collAssignments).Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("load assignments for technician %s: %w", technicianID, err)
	}
	var assignments []models.Assignment
	if err := cursor.All(ctx, &assignments); err != nil {
		return nil, fmt.Errorf("decode assignments: %w", err)
	}
	if len(assignments) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(assignments))
	for _, a := range assignments {
		ids = append(ids, a.InterventionID)
	}

	cursor, err = r.db.Collection(collInterventions).Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("load interventions: %w", err)
	}
	var interventions []models.Intervention
	if err := cursor.All(ctx, &interventions); err != nil {
		return nil, fmt.Errorf("decode interventions: %w", err)
	}

	missionRefs, err := r.missionReferences(ctx, interventions)
	if err != nil {
		return nil, err
	}

	slots := make([]models.AssignmentSlot, 0, len(interventions))
	for _, iv := range interventions {
		ref := missionRefs[iv.MissionID]
		if ref == "" {
			ref = iv.MissionID
		}
		slots = append(slots, models.AssignmentSlot{
			InterventionID: iv.ID,
			MissionRef:     ref,
			Schedule:       iv.Schedule,
		})
	}
	return slots, nil
}

func (r *Repository) missionReferences(ctx context.Context, interventions []models.Intervention) (map[string]string, error) {
	ids := make([]string, 0, len(interventions))
	for _, iv := range interventions {
		ids = append(ids, iv.MissionID)
	}

	cursor, err := r.db.Collection(collMissions).Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("load missions: %w", err)
	}
	var missions []models.Mission
	if err := cursor.All(ctx, &missions); err != nil {
		return nil, fmt.Errorf("decode missions: %w", err)
	}

	refs := make(map[string]string, len(missions))
	for _, m := range missions {
		refs[m.ID] = m.Reference
	}
	return refs, nil
}

// InsertIntervention persists an intervention and its assignments. Callers
// run it inside RunInTransaction so the pair commits as one unit.
//
// Each assignment also bumps its technician's schedule_version. Snapshot
// reads alone register no conflict, so without this write two racing
// transactions could each see "no overlapping assignments" and both commit.
// The shared technician write makes them collide: the loser aborts, the
// driver retries the transaction, and the re-check runs against the
// winner's committed assignments.
func (r *Repository) InsertIntervention(ctx context.Context, intervention models.Intervention, assignments []models.Assignment) error {
	for _, a := range assignments {
		res, err := r.db.Collection(collTechnicians).UpdateOne(ctx,
			bson.M{"_id": a.TechnicianID},
			bson.M{"$inc": bson.M{"schedule_version": 1}})
		if err != nil {
			return fmt.Errorf("bump schedule version of technician %s: %w", a.TechnicianID, err)
		}
		if res.MatchedCount == 0 {
			return &models.NotFoundError{Entity: "technician", ID: a.TechnicianID}
		}
	}

	if _, err := r.db.Collection(collInterventions).InsertOne(ctx, intervention); err != nil {
		return fmt.Errorf("insert intervention: %w", err)
	}

	if len(assignments) == 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(assignments))
	for _, a := range assignments {
		docs = append(docs, a)
	}
	if _, err := r.db.Collection(collAssignments).InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert assignments: %w", err)
	}
	return nil
}

// DeleteIntervention removes an intervention and its assignments; the
// reservation rollback path is its only caller.
func (r *Repository) DeleteIntervention(ctx context.Context, interventionID string) error {
	if _, err := r.db.Collection(collAssignments).DeleteMany(ctx, bson.M{"intervention_id": interventionID}); err != nil {
		return fmt.Errorf("delete assignments of intervention %s: %w", interventionID, err)
	}
	if _, err := r.db.Collection(collInterventions).DeleteOne(ctx, bson.M{"_id": interventionID}); err != nil {
		return fmt.Errorf("delete intervention %s: %w", interventionID, err)
	}
	return nil
}
