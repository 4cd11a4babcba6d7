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

type categoryRepository struct {
	collection *mongo.Collection
}

func newCategoryRepository(db *mongo.Database) *categoryRepository {
	return &categoryRepository{
		collection: db.Collection("categories"),
	}
}

func (r *categoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer cursor.Close(ctx)

	var categories []domain.Category
	if err := cursor.All(ctx, &categories); err != nil {
		return nil, fmt.Errorf("failed to decode categories: %w", err)
	}
	return categories, nil
}

func (r *categoryRepository) Insert(ctx context.Context, c *domain.Category) error {
	res, err := r.collection.InsertOne(ctx, c)
	if err != nil {
		return fmt.Errorf("failed to insert category: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		c.ID = oid
	}
	return nil
}

type likeRepository struct {
	collection *mongo.Collection
}

func newLikeRepository(db *mongo.Database) *likeRepository {
	return &likeRepository{
		collection: db.Collection("likes"),
	}
}

func (r *likeRepository) Like(ctx context.Context, userID string, productID primitive.ObjectID) error {
	filter := bson.M{"user_id": userID, "product_id": productID}
	update := bson.M{
		"$setOnInsert": bson.M{
			"user_id":    userID,
			"product_id": productID,
			"created_at": time.Now(),
		},
	}
	opts := options.Update().SetUpsert(true)

	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to like product: %w", err)
	}
	return nil
}

func (r *likeRepository) Unlike(ctx context.Context, userID string, productID primitive.ObjectID) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"user_id": userID, "product_id": productID}); err != nil {
		return fmt.Errorf("failed to unlike product: %w", err)
	}
	return nil
}

func (r *likeRepository) Count(ctx context.Context, productID primitive.ObjectID) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"product_id": productID})
	if err != nil {
		return 0, fmt.Errorf("failed to count likes: %w", err)
	}
	return count, nil
}

func (r *likeRepository) ListByUser(ctx context.Context, userID string) ([]domain.Like, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list likes: %w", err)
	}
	defer cursor.Close(ctx)

	var likes []domain.Like
	if err := cursor.All(ctx, &likes); err != nil {
		return nil, fmt.Errorf("failed to decode likes: %w", err)
	}
	return likes, nil
}
