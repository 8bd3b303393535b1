package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Kabre57/progiteck-sub001/internal/domain/models"
)

// GetMaterial loads a material by id.
func (r *Repository) GetMaterial(ctx context.Context, id string) (models.Material, error) {
	var material models.Material
	err := r.db.Collection(collMaterials).FindOne(ctx, bson.M{"_id": id}).Decode(&material)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Material{}, &models.NotFoundError{Entity: "material", ID: id}
	}
	if err != nil {
		return models.Material{}, fmt.Errorf("load material %s: %w", id, err)
	}
	return material, nil
}

// DecrementAvailable subtracts qty from quantite_disponible as a single
// conditional statement: the update only matches while the row still holds
// at least qty units, so concurrent reservations serialize without lost
// updates and availability can never go negative.
func (r *Repository) DecrementAvailable(ctx context.Context, materialID string, qty int) (models.Material, error) {
	filter := bson.M{
		"_id":                 materialID,
		"quantite_disponible": bson.M{"$gte": qty},
	}
	update := bson.M{"$inc": bson.M{"quantite_disponible": -qty}}

	var material models.Material
	err := r.db.Collection(collMaterials).
		FindOneAndUpdate(ctx, filter, update, options.FindOneAndUpdate().SetReturnDocument(options.After)).
		Decode(&material)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Either the material does not exist or the guard failed; a
		// follow-up read tells the two apart and fills the shortfall.
		current, getErr := r.GetMaterial(ctx, materialID)
		if getErr != nil {
			return models.Material{}, getErr
		}
		return models.Material{}, &models.InsufficientStockError{
			MaterialID: materialID,
			Required:   qty,
			Available:  current.QuantiteDisponible,
		}
	}
	if err != nil {
		return models.Material{}, fmt.Errorf("decrement material %s: %w", materialID, err)
	}
	return material, nil
}

// IncrementAvailable restores availability without touching the total. The
// guard keeps quantite_disponible within quantite_totale even if a rollback
// races with a concurrent replenishment.
func (r *Repository) IncrementAvailable(ctx context.Context, materialID string, qty int) (models.Material, error) {
	filter := bson.M{
		"_id": materialID,
		"$expr": bson.M{"$lte": bson.A{
			bson.M{"$add": bson.A{"$quantite_disponible", qty}},
			"$quantite_totale",
		}},
	}
	update := bson.M{"$inc": bson.M{"quantite_disponible": qty}}

	var material models.Material
	err := r.db.Collection(collMaterials).
		FindOneAndUpdate(ctx, filter, update, options.FindOneAndUpdate().SetReturnDocument(options.After)).
		Decode(&material)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if _, getErr := r.GetMaterial(ctx, materialID); getErr != nil {
			return models.Material{}, getErr
		}
		return models.Material{}, fmt.Errorf("release of %d units would exceed total for material %s", qty, materialID)
	}
	if err != nil {
		return models.Material{}, fmt.Errorf("increment availability of material %s: %w", materialID, err)
	}
	return material, nil
}

// IncrementStock grows both the available and the total quantity (an
// entrée that extends what is owned).
func (r *Repository) IncrementStock(ctx context.Context, materialID string, qty int) (models.Material, error) {
	update := bson.M{"$inc": bson.M{
		"quantite_disponible": qty,
		"quantite_totale":     qty,
	}}

	var material models.Material
	err := r.db.Collection(collMaterials).
		FindOneAndUpdate(ctx, bson.M{"_id": materialID}, update, options.FindOneAndUpdate().SetReturnDocument(options.After)).
		Decode(&material)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Material{}, &models.NotFoundError{Entity: "material", ID: materialID}
	}
	if err != nil {
		return models.Material{}, fmt.Errorf("replenish material %s: %w", materialID, err)
	}
	return material, nil
}

// AppendMovement inserts an immutable ledger entry.
func (r *Repository) AppendMovement(ctx context.Context, movement models.StockMovement) error {
	if _, err := r.db.Collection(collMovements).InsertOne(ctx, movement); err != nil {
		return fmt.Errorf("insert stock movement: %w", err)
	}
	return nil
}

// ListBelowThreshold returns materials whose availability sits at or under
// their alert threshold.
func (r *Repository) ListBelowThreshold(ctx context.Context) ([]models.Material, error) {
	filter := bson.M{"$expr": bson.M{"$lte": bson.A{"$quantite_disponible", "$seuil_alerte"}}}

	cursor, err := r.db.Collection(collMaterials).Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("scan materials below threshold: %w", err)
	}
	var materials []models.Material
	if err := cursor.All(ctx, &materials); err != nil {
		return nil, fmt.Errorf("decode materials: %w", err)
	}
	return materials, nil
}
