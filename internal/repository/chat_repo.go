package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dangmquann/Sanryoo-Shop-sub000/internal/domain"
)

type messageRepository struct {
	collection *mongo.Collection
}

func newMessageRepository(db *mongo.Database) *messageRepository {
	return &messageRepository{
		collection: db.Collection("messages"),
	}
}

func (r *messageRepository) Insert(ctx context.Context, m *domain.Message) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}

	res, err := r.collection.InsertOne(ctx, m)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		m.ID = oid
	}
	return nil
}

// Conversation returns the messages exchanged between two users in either
// direction, newest first.
func (r *messageRepository) Conversation(ctx context.Context, userA, userB string, limit int64) ([]domain.Message, error) {
	filter := bson.M{
		"$or": bson.A{
			bson.M{"from_id": userA, "to_id": userB},
			bson.M{"from_id": userB, "to_id": userA},
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(limit)
	}

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	defer cursor.Close(ctx)

	var messages []domain.Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}
	return messages, nil
}
