package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// OutboxEvent is one row of the transactional outbox (collection "event").
// It is appended in the same transaction as the order write it describes and
// published asynchronously by the poller.
type OutboxEvent struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	AggregateID string             `bson:"aggregate_id"` // order id, used as the kafka key for ordering
	EventType   string             `bson:"event_type"`
	Payload     []byte             `bson:"payload"` // JSON
	Processed   bool               `bson:"processed"`
	CreatedAt   time.Time          `bson:"created_at"`
	ProcessedAt *time.Time         `bson:"processed_at,omitempty"`
}

type outboxRepository struct {
	collection *mongo.Collection
}

func newOutboxRepository(db *mongo.Database) *outboxRepository {
	return &outboxRepository{
		collection: db.Collection("event"),
	}
}

func (r *outboxRepository) Append(ctx context.Context, event *OutboxEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	res, err := r.collection.InsertOne(ctx, event)
	if err != nil {
		return fmt.Errorf("failed to append outbox event: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		event.ID = oid
	}
	return nil
}

func (r *outboxRepository) GetUnprocessed(ctx context.Context, limit int64) ([]*OutboxEvent, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, bson.M{"processed": false}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unprocessed events: %w", err)
	}
	defer cursor.Close(ctx)

	var events []*OutboxEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode outbox events: %w", err)
	}
	return events, nil
}

func (r *outboxRepository) MarkProcessed(ctx context.Context, id primitive.ObjectID) error {
	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"processed":    true,
			"processed_at": now,
		},
	}

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to mark event as processed: %w", err)
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
