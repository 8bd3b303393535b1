package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/Kabre57/progiteck-sub001/internal/domain/models"
)

// CountInterventionsBetween counts interventions created in [from, to).
func (r *Repository) CountInterventionsBetween(ctx context.Context, from, to time.Time) (int, error) {
	filter := bson.M{"created_at": bson.M{"$gte": from, "$lt": to}}
	count, err := r.db.Collection(collInterventions).CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("count interventions: %w", err)
	}
	return int(count), nil
}

// ListMovementsBetween returns the ledger entries created in [from, to).
func (r *Repository) ListMovementsBetween(ctx context.Context, from, to time.Time) ([]models.StockMovement, error) {
	filter := bson.M{"created_at": bson.M{"$gte": from, "$lt": to}}
	cursor, err := r.db.Collection(collMovements).Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("load stock movements: %w", err)
	}
	var movements []models.StockMovement
	if err := cursor.All(ctx, &movements); err != nil {
		return nil, fmt.Errorf("decode stock movements: %w", err)
	}
	return movements, nil
}

// SaveDailyReport persists an aggregated daily activity report.
func (r *Repository) SaveDailyReport(ctx context.Context, report models.DailyActivityReport) error {
	if _, err := r.db.Collection(collReports).InsertOne(ctx, report); err != nil {
		return fmt.Errorf("insert daily report: %w", err)
	}
	return nil
}
