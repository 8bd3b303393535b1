// Package mongodb implements the persistence contracts of the scheduling,
// stock and reporting services on top of MongoDB. All cross-request
// coordination happens here: multi-document transactions for the
// check-then-assign path and single-statement conditional updates for stock
// quantities.
package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
	"go.uber.org/zap"
)

const (
	collMissions      = "missions"
	collTechnicians   = "technicians"
	collMaterials     = "materials"
	collInterventions = "interventions"
	collAssignments   = "assignments"
	collMovements     = "stock_movements"
	collReports       = "daily_reports"
)

// Repository is the MongoDB-backed store shared by all services.
type Repository struct {
	client *mongo.Client
	db     *mongo.Database
	logger *zap.Logger
}

// NewRepository connects to MongoDB and verifies the connection.
func NewRepository(ctx context.Context, uri, dbName string, logger *zap.Logger) (*Repository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &Repository{
		client: client,
		db:     client.Database(dbName),
		logger: logger,
	}, nil
}

// RunInTransaction executes fn inside a multi-document transaction with
// snapshot reads and majority writes. Store methods called with the context
// fn receives join the transaction; an error from fn aborts it.
func (r *Repository) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("start mongodb session: %w", err)
	}
	defer session.EndSession(ctx)

	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	}, txnOpts)
	return err
}

// Close closes the MongoDB connection.
func (r *Repository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
