package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// ConnectMongoDB dials uri and returns a handle on the named database after a
// readiness ping against the primary. Pool bounds come from the caller so each
// deployment can size them; zero keeps the driver default. Dialing, server
// selection and the ping are all bounded by ctx.
func ConnectMongoDB(ctx context.Context, uri, database string, maxPool, minPool uint64) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetAppName("sanryoo-shop").
		SetRetryWrites(true)
	if maxPool > 0 {
		clientOpts.SetMaxPoolSize(maxPool)
	}
	if minPool > 0 {
		clientOpts.SetMinPoolSize(minPool)
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		// uri may carry credentials, keep it out of the error
		return nil, fmt.Errorf("failed to build mongodb client: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("mongodb is not reachable: %w", err)
	}

	return client.Database(database), nil
}
