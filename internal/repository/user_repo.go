package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dangmquann/Sanryoo-Shop-sub000/internal/domain"
)

type userRepository struct {
	collection *mongo.Collection
}

func newUserRepository(db *mongo.Database) *userRepository {
	return &userRepository{
		collection: db.Collection("users"),
	}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User

	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

func (r *userRepository) Upsert(ctx context.Context, user *domain.User) error {
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	filter := bson.M{"_id": user.ID}
	update := bson.M{"$set": user}
	opts := options.Update().SetUpsert(true)

	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

type tokenRepository struct {
	collection *mongo.Collection
}

func newTokenRepository(db *mongo.Database) *tokenRepository {
	return &tokenRepository{
		collection: db.Collection("tokens"),
	}
}

func (r *tokenRepository) Get(ctx context.Context, userID string) (*domain.PushToken, error) {
	var token domain.PushToken

	err := r.collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&token)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to get push token: %w", err)
	}

	return &token, nil
}

func (r *tokenRepository) Save(ctx context.Context, token *domain.PushToken) error {
	token.UpdatedAt = time.Now()

	filter := bson.M{"_id": token.UserID}
	update := bson.M{"$set": token}
	opts := options.Update().SetUpsert(true)

	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to save push token: %w", err)
	}
	return nil
}
